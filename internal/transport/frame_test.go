package transport

import (
	"bytes"
	"errors"
	"testing"

	"ruinfall.game/internal/protocol"
)

func TestFrameBuffer_PartialReads(t *testing.T) {
	var stream []byte
	stream = AppendFrame(stream, []byte("hello"))
	stream = AppendFrame(stream, nil)
	stream = AppendFrame(stream, bytes.Repeat([]byte{7}, 300))

	var fb FrameBuffer
	var got [][]byte
	// feed one byte at a time to hit every split point
	for _, b := range stream {
		fb.Write([]byte{b})
		for {
			p, ok, err := fb.Next()
			if err != nil {
				t.Fatalf("next: %v", err)
			}
			if !ok {
				break
			}
			got = append(got, p)
		}
	}
	if len(got) != 3 || string(got[0]) != "hello" || len(got[1]) != 0 || len(got[2]) != 300 {
		t.Fatalf("got %d frames: %q", len(got), got)
	}
	if fb.Buffered() != 0 {
		t.Fatalf("%d bytes left over", fb.Buffered())
	}
}

func TestFrameBuffer_TooLarge(t *testing.T) {
	fb := FrameBuffer{Max: 16}
	fb.Write(AppendFrame(nil, make([]byte, 17)))
	if _, _, err := fb.Next(); !errors.Is(err, protocol.ErrBadFrame) {
		t.Fatalf("err=%v", err)
	}
}
