package transport

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestQueue_FIFOThenError(t *testing.T) {
	q := NewQueue[int]()
	for i := 0; i < 3; i++ {
		if err := q.Push(i); err != nil {
			t.Fatalf("push: %v", err)
		}
	}
	q.Fail(ErrClosed)
	if err := q.Push(9); !errors.Is(err, ErrClosed) {
		t.Fatalf("push after fail: %v", err)
	}
	for want := 0; want < 3; want++ {
		v, ok, err := q.TryPop()
		if !ok || err != nil || v != want {
			t.Fatalf("pop %d: %v %v %v", want, v, ok, err)
		}
	}
	if _, ok, err := q.TryPop(); ok || !errors.Is(err, ErrClosed) {
		t.Fatalf("drained queue: ok=%v err=%v", ok, err)
	}
}

func TestQueue_PopWaits(t *testing.T) {
	q := NewQueue[string]()
	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = q.Push("late")
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	v, err := q.Pop(ctx)
	if err != nil || v != "late" {
		t.Fatalf("pop: %q %v", v, err)
	}

	short, cancel2 := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel2()
	if _, err := q.Pop(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err=%v", err)
	}
}
