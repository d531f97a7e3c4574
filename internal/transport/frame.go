package transport

import (
	"encoding/binary"
	"fmt"

	"ruinfall.game/internal/protocol"
)

// HeaderSize is the little-endian uint64 payload length ahead of each frame.
const HeaderSize = 8

// AppendFrame appends the framed payload to dst.
func AppendFrame(dst, payload []byte) []byte {
	dst = binary.LittleEndian.AppendUint64(dst, uint64(len(payload)))
	return append(dst, payload...)
}

// FrameBuffer collects bytes from a stream and cuts them into payloads.
type FrameBuffer struct {
	buf []byte
	// Max overrides protocol.MaxFrameSize when non-zero.
	Max uint64
}

func (f *FrameBuffer) Write(p []byte) (int, error) {
	f.buf = append(f.buf, p...)
	return len(p), nil
}

func (f *FrameBuffer) Buffered() int { return len(f.buf) }

// Next returns the next complete payload. ok is false while the frame is
// still partial.
func (f *FrameBuffer) Next() (payload []byte, ok bool, err error) {
	if len(f.buf) < HeaderSize {
		return nil, false, nil
	}
	limit := f.Max
	if limit == 0 {
		limit = protocol.MaxFrameSize
	}
	n := binary.LittleEndian.Uint64(f.buf)
	if n > limit {
		return nil, false, fmt.Errorf("%w: frame of %d bytes", protocol.ErrBadFrame, n)
	}
	end := HeaderSize + int(n)
	if len(f.buf) < end {
		return nil, false, nil
	}
	payload = append([]byte(nil), f.buf[HeaderSize:end]...)
	f.buf = append(f.buf[:0], f.buf[end:]...)
	return payload, true, nil
}
