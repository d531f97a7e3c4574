// Package tcp frames gob-encoded messages over a stream socket. Each frame is
// an 8-byte little-endian length followed by the payload.
package tcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"ruinfall.game/internal/protocol"
	"ruinfall.game/internal/transport"
)

const readChunk = 64 * 1024

type Conn[S, R any] struct {
	c    net.Conn
	in   *transport.Queue[R]
	wmu  sync.Mutex
	once sync.Once
}

// New takes ownership of c and starts its reader goroutine.
func New[S, R any](c net.Conn) *Conn[S, R] {
	conn := &Conn[S, R]{c: c, in: transport.NewQueue[R]()}
	go conn.readLoop()
	return conn
}

func Dial[S, R any](ctx context.Context, addr string) (*Conn[S, R], error) {
	var d net.Dialer
	c, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return New[S, R](c), nil
}

// Serve accepts until ctx is done or the listener fails, handing each new
// connection to accept.
func Serve[S, R any](ctx context.Context, ln net.Listener, accept func(*Conn[S, R])) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	for {
		c, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		accept(New[S, R](c))
	}
}

func (c *Conn[S, R]) readLoop() {
	var fb transport.FrameBuffer
	chunk := make([]byte, readChunk)
	for {
		n, err := c.c.Read(chunk)
		if n > 0 {
			fb.Write(chunk[:n])
			for {
				payload, ok, ferr := fb.Next()
				if ferr != nil {
					c.in.Fail(ferr)
					c.c.Close()
					return
				}
				if !ok {
					break
				}
				var msg R
				if derr := protocol.Decode(payload, &msg); derr != nil {
					c.in.Fail(derr)
					c.c.Close()
					return
				}
				if perr := c.in.Push(msg); perr != nil {
					return
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				err = transport.ErrClosed
			}
			c.in.Fail(err)
			return
		}
	}
}

func (c *Conn[S, R]) Send(msg S) error {
	payload, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	frame := transport.AppendFrame(make([]byte, 0, transport.HeaderSize+len(payload)), payload)
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if _, err := c.c.Write(frame); err != nil {
		if errors.Is(err, net.ErrClosed) {
			return transport.ErrClosed
		}
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

func (c *Conn[S, R]) Recv() (R, bool, error) { return c.in.TryPop() }

func (c *Conn[S, R]) RecvBlocking(ctx context.Context) (R, error) { return c.in.Pop(ctx) }

func (c *Conn[S, R]) Close() error {
	var err error
	c.once.Do(func() {
		c.in.Fail(transport.ErrClosed)
		err = c.c.Close()
	})
	return err
}

func (c *Conn[S, R]) RemoteAddr() net.Addr { return c.c.RemoteAddr() }
