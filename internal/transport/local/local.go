// Package local connects a server and a client in the same process.
package local

import (
	"context"
	"sync"

	"ruinfall.game/internal/transport"
)

// Conn is one end of a pair. Messages are handed over as values, without
// encoding.
type Conn[S, R any] struct {
	in   *transport.Queue[R]
	out  *transport.Queue[S]
	once sync.Once
}

// Pair returns two connected ends.
func Pair[A, B any]() (*Conn[A, B], *Conn[B, A]) {
	ab := transport.NewQueue[A]()
	ba := transport.NewQueue[B]()
	return &Conn[A, B]{in: ba, out: ab}, &Conn[B, A]{in: ab, out: ba}
}

func (c *Conn[S, R]) Send(msg S) error { return c.out.Push(msg) }

func (c *Conn[S, R]) Recv() (R, bool, error) { return c.in.TryPop() }

func (c *Conn[S, R]) RecvBlocking(ctx context.Context) (R, error) { return c.in.Pop(ctx) }

// Close fails both directions, so the peer sees ErrClosed once it has read
// what was already sent.
func (c *Conn[S, R]) Close() error {
	c.once.Do(func() {
		c.out.Fail(transport.ErrClosed)
		c.in.Fail(transport.ErrClosed)
	})
	return nil
}
