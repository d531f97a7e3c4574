// Package transport carries protocol messages between a server and its two
// players. Implementations differ only in how bytes move.
package transport

import (
	"context"
	"errors"
)

var ErrClosed = errors.New("transport: connection closed")

// Conn sends S and receives R.
type Conn[S, R any] interface {
	Send(msg S) error
	// Recv never blocks. ok is false when nothing is queued.
	Recv() (msg R, ok bool, err error)
	RecvBlocking(ctx context.Context) (R, error)
	Close() error
}
