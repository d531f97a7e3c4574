package session

import (
	"context"
	"fmt"

	"ruinfall.game/internal/protocol"
	"ruinfall.game/internal/sim/battle"
	"ruinfall.game/internal/sim/paths"
	"ruinfall.game/internal/sim/tiles"
	"ruinfall.game/internal/sim/units"
)

// Presenter receives the parts of playback that are not map state.
type Presenter interface {
	Sound(name string)
	Message(text string)
	GameOver(stats battle.GameStats)
	EnemySpotted(x, y int)
}

// Client is one side's view of a game. Map only changes through responses
// from the server.
type Client struct {
	Map  *battle.Map
	Side units.Side

	conn  ClientConn
	queue []battle.Response
	over  *battle.GameStats
}

// NewClient waits for the initial state. A full game fails with
// protocol.ErrGameFull.
func NewClient(ctx context.Context, conn ClientConn) (*Client, error) {
	msg, err := conn.RecvBlocking(ctx)
	if err != nil {
		return nil, fmt.Errorf("wait for initial state: %w", err)
	}
	switch msg.Kind {
	case protocol.ServerInitialState:
	case protocol.ServerGameFull:
		conn.Close()
		return nil, protocol.ErrGameFull
	default:
		conn.Close()
		return nil, fmt.Errorf("%w: expected initial state, got %s", protocol.ErrWrongPhase, msg.Kind)
	}
	if msg.ProtocolVersion != protocol.Version {
		conn.Close()
		return nil, fmt.Errorf("%w: server speaks %q, we speak %q", protocol.ErrBadVersion, msg.ProtocolVersion, protocol.Version)
	}
	if msg.Map == nil {
		conn.Close()
		return nil, fmt.Errorf("%w: initial state without a map", protocol.ErrBadFrame)
	}
	return &Client{Map: msg.Map, Side: msg.Side, conn: conn}, nil
}

// Recv queues every response that has arrived. It reports whether anything
// did. Messages received before a connection error are still queued.
func (c *Client) Recv() (bool, error) {
	got := false
	for {
		msg, ok, err := c.conn.Recv()
		if err != nil {
			return got, err
		}
		if !ok {
			return got, nil
		}
		if msg.Kind != protocol.ServerResponses {
			return got, fmt.Errorf("%w: unexpected %s", protocol.ErrWrongPhase, msg.Kind)
		}
		c.queue = append(c.queue, msg.Responses...)
		got = true
	}
}

// Responses is the playback queue, oldest first.
func (c *Client) Responses() []battle.Response { return c.queue }

// ProcessResponses advances playback by dt seconds. Responses run in order;
// a blocking one holds back everything behind it until it finishes.
func (c *Client) ProcessResponses(dt float64, p Presenter) {
	for i := 0; i < len(c.queue); {
		r := c.queue[i]
		status := r.Step(dt, c.Side, c.Map)
		if status.Finished {
			c.present(r, p)
			c.queue = append(c.queue[:i], c.queue[i+1:]...)
		} else {
			i++
		}
		if status.Blocking {
			break
		}
	}
}

func (c *Client) present(r battle.Response, p Presenter) {
	switch r := r.(type) {
	case *battle.NewState:
		if x, y, ok := r.Spotted(); ok && p != nil {
			p.EnemySpotted(x, y)
		}
	case *battle.GameOver:
		stats := r.Stats
		c.over = &stats
		if p != nil {
			p.GameOver(stats)
		}
	case *battle.SoundEffect:
		if p != nil {
			p.Sound(r.Name)
		}
	case *battle.Message:
		if p != nil {
			p.Message(r.Text)
		}
	}
}

// ProcessStateUpdates applies the queued states at once and drops the
// animations, for clients nobody watches. invalid is set if the server
// rejected a command since the last call.
func (c *Client) ProcessStateUpdates() (over, invalid bool) {
	queue := c.queue
	c.queue = nil
	for _, r := range queue {
		switch r := r.(type) {
		case *battle.NewState:
			r.Step(0, c.Side, c.Map)
		case *battle.GameOver:
			stats := r.Stats
			c.over = &stats
			return true, invalid
		case *battle.InvalidCommand:
			invalid = true
		}
	}
	return false, invalid
}

// Over returns the final stats once a GameOver has been played back.
func (c *Client) Over() (battle.GameStats, bool) {
	if c.over == nil {
		return battle.GameStats{}, false
	}
	return *c.over, true
}

func (c *Client) OurTurn() bool { return c.Map.Side == c.Side }

func (c *Client) VisibilityAt(x, y int) tiles.Visibility {
	return c.Map.Tiles.VisibilityAt(x, y, c.Side)
}

func (c *Client) Command(unit uint8, cmd battle.Command) error {
	return c.conn.Send(protocol.Command(unit, cmd))
}

func (c *Client) Walk(unit uint8, path []paths.PathPoint) error {
	return c.Command(unit, battle.WalkPath(path))
}

func (c *Client) Turn(unit uint8, f units.Facing) error { return c.Command(unit, battle.Turn(f)) }

func (c *Client) Fire(unit uint8, x, y int) error { return c.Command(unit, battle.Fire(x, y)) }

func (c *Client) UseItem(unit uint8, i int) error { return c.Command(unit, battle.UseItem(i)) }

func (c *Client) DropItem(unit uint8, i int) error { return c.Command(unit, battle.DropItem(i)) }

func (c *Client) PickupItem(unit uint8, i int) error { return c.Command(unit, battle.PickupItem(i)) }

func (c *Client) ThrowItem(unit uint8, i, x, y int) error {
	return c.Command(unit, battle.ThrowItem(i, x, y))
}

func (c *Client) EndTurn() error { return c.conn.Send(protocol.EndTurn()) }

// Save asks the server to save the game under name in its save directory.
func (c *Client) Save(name string) error { return c.conn.Send(protocol.SaveGame(name)) }

func (c *Client) Close() error { return c.conn.Close() }
