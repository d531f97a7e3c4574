package session

import (
	"context"
	"fmt"
	"math/rand"
	"net"

	"ruinfall.game/internal/ai"
	"ruinfall.game/internal/protocol"
	"ruinfall.game/internal/sim/battle"
	"ruinfall.game/internal/transport/local"
	"ruinfall.game/internal/transport/tcp"
)

// Pair returns the server and client ends of an in-process connection.
func Pair() (ServerConn, ClientConn) {
	s, c := local.Pair[protocol.ServerMessage, protocol.ClientMessage]()
	return s, c
}

// Game is a server running in the background.
type Game struct {
	Server *Server
	done   chan error
}

// Wait blocks until the server loop returns and hands back its error.
func (g *Game) Wait() error { return <-g.done }

func start(ctx context.Context, s *Server) *Game {
	g := &Game{Server: s, done: make(chan error, 1)}
	go func() { g.done <- s.Run(ctx) }()
	return g
}

// Singleplayer starts m with the caller as PlayerA and an AI as PlayerB, all
// in this process. The AI's error, if any, is logged by the server's logger.
func Singleplayer(ctx context.Context, m *battle.Map, cfg ServerConfig, d *ai.Doctrine, aiRNG *rand.Rand) (*Client, *Game, error) {
	srv := NewServer(m, nil, cfg)
	playerSrv, playerConn := Pair()
	aiSrv, aiConn := Pair()
	if _, err := srv.Attach(playerSrv); err != nil {
		return nil, nil, err
	}
	if _, err := srv.Attach(aiSrv); err != nil {
		return nil, nil, err
	}
	client, err := NewClient(ctx, playerConn)
	if err != nil {
		return nil, nil, err
	}
	bot, err := NewAIClient(ctx, aiConn, d, aiRNG, cfg.Logger)
	if err != nil {
		return nil, nil, err
	}
	go func() {
		if err := bot.Run(ctx); err != nil {
			srv.log.Printf("ai: %v", err)
		}
	}()
	return client, start(ctx, srv), nil
}

// Host serves m on ln. The caller joins as PlayerA over an in-process
// connection and the first remote peer becomes PlayerB.
func Host(ctx context.Context, m *battle.Map, ln net.Listener, cfg ServerConfig) (*Client, *Game, error) {
	incoming := make(chan ServerConn)
	srv := NewServer(m, incoming, cfg)
	hostSrv, hostConn := Pair()
	if _, err := srv.Attach(hostSrv); err != nil {
		return nil, nil, err
	}
	client, err := NewClient(ctx, hostConn)
	if err != nil {
		return nil, nil, err
	}
	go func() {
		err := tcp.Serve(ctx, ln, func(c *tcp.Conn[protocol.ServerMessage, protocol.ClientMessage]) {
			select {
			case incoming <- c:
			case <-ctx.Done():
				c.Close()
			}
		})
		if err != nil && ctx.Err() == nil {
			srv.log.Printf("accept: %v", err)
		}
	}()
	return client, start(ctx, srv), nil
}

// Join connects to a hosted game over TCP.
func Join(ctx context.Context, addr string) (*Client, error) {
	conn, err := tcp.Dial[protocol.ClientMessage, protocol.ServerMessage](ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("join %s: %w", addr, err)
	}
	return NewClient(ctx, conn)
}
