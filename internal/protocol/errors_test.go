package protocol

import (
	"fmt"
	"testing"
)

func TestIsKnownCode(t *testing.T) {
	cases := []string{
		"",
		ErrCodeBadFrame,
		ErrCodeBadVersion,
		ErrCodeGameFull,
		ErrCodeWrongPhase,
		ErrCodeGameOver,
		ErrCodeInvalidCommand,
		ErrCodeNoSave,
		ErrCodeInternal,
	}
	for _, c := range cases {
		if !IsKnownCode(c) {
			t.Fatalf("expected known code: %q", c)
		}
	}
	if IsKnownCode("E_NOT_DEFINED") {
		t.Fatalf("expected unknown code rejected")
	}
}

func TestCode(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("read: %w", ErrBadFrame), ErrCodeBadFrame},
		{ErrGameFull, ErrCodeGameFull},
		{fmt.Errorf("x: %w", ErrWrongPhase), ErrCodeWrongPhase},
		{fmt.Errorf("%w: got 0.9", ErrBadVersion), ErrCodeBadVersion},
		{fmt.Errorf("disk on fire"), ErrCodeInternal},
	}
	for _, c := range cases {
		if got := Code(c.err); got != c.want || !IsKnownCode(got) {
			t.Fatalf("Code(%v) = %q want %q", c.err, got, c.want)
		}
	}
}
