// Package ws carries gob-encoded messages over websocket, one binary message
// per protocol message.
package ws

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"ruinfall.game/internal/protocol"
	"ruinfall.game/internal/transport"
)

const writeTimeout = 5 * time.Second

type Conn[S, R any] struct {
	c    *websocket.Conn
	in   *transport.Queue[R]
	wmu  sync.Mutex
	once sync.Once
	done chan struct{}
}

func newConn[S, R any](c *websocket.Conn) *Conn[S, R] {
	c.SetReadLimit(protocol.MaxFrameSize)
	conn := &Conn[S, R]{c: c, in: transport.NewQueue[R](), done: make(chan struct{})}
	go conn.readLoop()
	return conn
}

func Dial[S, R any](ctx context.Context, url string) (*Conn[S, R], error) {
	c, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return newConn[S, R](c), nil
}

func (c *Conn[S, R]) readLoop() {
	defer close(c.done)
	for {
		typ, b, err := c.c.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || errors.Is(err, websocket.ErrCloseSent) {
				err = transport.ErrClosed
			} else if errors.Is(err, websocket.ErrReadLimit) {
				err = fmt.Errorf("%w: %v", protocol.ErrBadFrame, err)
			}
			c.in.Fail(err)
			return
		}
		if typ != websocket.BinaryMessage {
			c.in.Fail(fmt.Errorf("%w: websocket message type %d", protocol.ErrBadFrame, typ))
			c.c.Close()
			return
		}
		var msg R
		if err := protocol.Decode(b, &msg); err != nil {
			c.in.Fail(err)
			c.c.Close()
			return
		}
		if err := c.in.Push(msg); err != nil {
			return
		}
	}
}

func (c *Conn[S, R]) Send(msg S) error {
	b, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = c.c.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.c.WriteMessage(websocket.BinaryMessage, b); err != nil {
		if errors.Is(err, websocket.ErrCloseSent) {
			return transport.ErrClosed
		}
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

func (c *Conn[S, R]) Recv() (R, bool, error) { return c.in.TryPop() }

func (c *Conn[S, R]) RecvBlocking(ctx context.Context) (R, error) { return c.in.Pop(ctx) }

func (c *Conn[S, R]) RemoteAddr() net.Addr { return c.c.RemoteAddr() }

func (c *Conn[S, R]) Close() error {
	var err error
	c.once.Do(func() {
		c.in.Fail(transport.ErrClosed)
		c.wmu.Lock()
		_ = c.c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		c.wmu.Unlock()
		err = c.c.Close()
	})
	return err
}

// Server upgrades HTTP requests and hands each websocket to accept.
type Server[S, R any] struct {
	log    *log.Logger
	accept func(*Conn[S, R])

	upgrader websocket.Upgrader
}

func NewServer[S, R any](logger *log.Logger, accept func(*Conn[S, R])) *Server[S, R] {
	return &Server[S, R]{
		log:    logger,
		accept: accept,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

// Handler keeps the request open until the connection's reader stops, so
// the HTTP server does not reclaim it early.
func (s *Server[S, R]) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		c, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			if s.log != nil {
				s.log.Printf("ws upgrade from %s: %v", r.RemoteAddr, err)
			}
			return
		}
		conn := newConn[S, R](c)
		if s.log != nil {
			s.log.Printf("ws connection from %s", r.RemoteAddr)
		}
		s.accept(conn)
		<-conn.done
	}
}
