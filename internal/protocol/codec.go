package protocol

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
)

// MaxFrameSize bounds one encoded message on stream transports.
const MaxFrameSize = 64 << 20

var ErrBadFrame = errors.New("protocol: bad frame")

// Encode gob-encodes one message. Each message carries its own type
// information so frames can be decoded independently.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	if buf.Len() > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrBadFrame, buf.Len())
	}
	return buf.Bytes(), nil
}

func Decode(b []byte, out any) error {
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	return nil
}

// Code maps the errors a connection loop can end with to wire codes.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrBadFrame):
		return ErrCodeBadFrame
	case errors.Is(err, ErrGameFull):
		return ErrCodeGameFull
	case errors.Is(err, ErrWrongPhase):
		return ErrCodeWrongPhase
	case errors.Is(err, ErrBadVersion):
		return ErrCodeBadVersion
	}
	return ErrCodeInternal
}
