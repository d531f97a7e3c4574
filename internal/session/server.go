// Package session runs a battle between two connections: the authoritative
// server loop, the client that rebuilds a side's view from responses, and
// an AI client that plays one side on its own.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net"
	"time"

	"ruinfall.game/internal/protocol"
	"ruinfall.game/internal/sim/battle"
	"ruinfall.game/internal/sim/units"
	"ruinfall.game/internal/transport"
)

type (
	// ServerConn is the server's end of a player connection.
	ServerConn = transport.Conn[protocol.ServerMessage, protocol.ClientMessage]
	// ClientConn is a player's end.
	ClientConn = transport.Conn[protocol.ClientMessage, protocol.ServerMessage]
)

// PollInterval is how long the loops back off when nothing arrived.
const PollInterval = time.Millisecond

// Handled describes one client message the server applied.
type Handled struct {
	Side      units.Side
	Message   protocol.ClientMessage
	Responses battle.ServerResponses
	Map       *battle.Map
}

type ServerConfig struct {
	SaveDir string
	RNG     *rand.Rand
	Logger  *log.Logger
	// OnHandled runs on the server goroutine after each applied message.
	OnHandled func(Handled)
}

// Server owns the authoritative map. It is the only goroutine that touches it.
type Server struct {
	cfg      ServerConfig
	log      *log.Logger
	m        *battle.Map
	incoming <-chan ServerConn
	players  [2]ServerConn
	joined   int
}

// NewServer plays m with the connections that arrive on incoming. Local
// players can be attached directly with Attach before Run.
func NewServer(m *battle.Map, incoming <-chan ServerConn, cfg ServerConfig) *Server {
	if cfg.RNG == nil {
		cfg.RNG = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	return &Server{cfg: cfg, log: cfg.Logger, m: m, incoming: incoming}
}

// Map is the authoritative state. Only read it once Run has returned.
func (s *Server) Map() *battle.Map { return s.m }

// Attach gives conn the next free side and sends it the initial state. A
// third connection is told the game is full and closed.
func (s *Server) Attach(conn ServerConn) (units.Side, error) {
	if s.joined >= len(s.players) {
		err := conn.Send(protocol.GameFull())
		conn.Close()
		if err != nil {
			return 0, fmt.Errorf("send game full: %w", err)
		}
		s.log.Printf("rejected %s: game full", describe(conn))
		return 0, protocol.ErrGameFull
	}
	side := units.Sides[s.joined]
	if err := conn.Send(protocol.InitialState(s.m.Redact(side), side)); err != nil {
		return side, fmt.Errorf("send initial state to %s: %w", side, err)
	}
	s.players[side] = conn
	s.joined++
	s.log.Printf("%s connected from %s", side, describe(conn))
	return side, nil
}

func describe(conn ServerConn) string {
	if ra, ok := conn.(interface{ RemoteAddr() net.Addr }); ok {
		return ra.RemoteAddr().String()
	}
	return "local"
}

// Run serves until the game is over, ctx ends or a connection fails. Both
// player connections are closed on return.
func (s *Server) Run(ctx context.Context) error {
	defer s.closeAll()
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case conn, ok := <-s.incoming:
			if !ok {
				s.incoming = nil
				continue
			}
			if _, err := s.Attach(conn); err != nil && !errors.Is(err, protocol.ErrGameFull) {
				return err
			}
		case <-ticker.C:
			if s.joined < len(s.players) {
				continue
			}
			over, err := s.poll()
			if err != nil {
				return err
			}
			if over {
				s.log.Printf("game over on turn %d", s.m.Turn)
				return nil
			}
		}
	}
}

// poll handles everything the active side sent and throws away what the
// other side sent out of turn.
func (s *Server) poll() (over bool, err error) {
	active := s.m.Side
	for {
		msg, ok, err := s.players[active].Recv()
		if err != nil {
			return false, fmt.Errorf("recv from %s: %w", active, err)
		}
		if !ok {
			break
		}
		if err := s.handle(active, msg); err != nil {
			return false, err
		}
		if s.m.Over() {
			return true, nil
		}
		if s.m.Side != active {
			// the turn passed; the rest of this batch is out of turn
			break
		}
	}
	idle := active.Enemy()
	if s.m.Side != active {
		idle = active
	}
	for {
		msg, ok, err := s.players[idle].Recv()
		if err != nil {
			return false, fmt.Errorf("recv from %s: %w", idle, err)
		}
		if !ok {
			return false, nil
		}
		s.log.Printf("dropped %s from %s out of turn", msg.Kind, idle)
	}
}

func (s *Server) handle(side units.Side, msg protocol.ClientMessage) error {
	var r battle.ServerResponses
	switch msg.Kind {
	case protocol.ClientEndTurn:
		r = s.m.EndTurn(side)
	case protocol.ClientCommand:
		r = s.m.PerformCommand(msg.Unit, msg.Command, side, s.cfg.RNG)
	case protocol.ClientSaveGame:
		r = s.m.Save(s.cfg.SaveDir, msg.SaveName)
	default:
		return fmt.Errorf("%w: %s sent kind %d", protocol.ErrWrongPhase, side, msg.Kind)
	}

	for _, to := range units.Sides {
		rs := r.For(to)
		if len(rs) == 0 {
			rs = []battle.Response{&battle.NewState{Map: s.m.Redact(to)}}
		}
		if err := s.players[to].Send(protocol.Responses(rs)); err != nil {
			return fmt.Errorf("send to %s: %w", to, err)
		}
	}
	if s.cfg.OnHandled != nil {
		s.cfg.OnHandled(Handled{Side: side, Message: msg, Responses: r, Map: s.m})
	}
	return nil
}

func (s *Server) closeAll() {
	for _, p := range s.players {
		if p != nil {
			p.Close()
		}
	}
}
