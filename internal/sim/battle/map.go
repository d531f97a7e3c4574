package battle

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math/rand"

	"ruinfall.game/internal/sim/tiles"
	"ruinfall.game/internal/sim/units"
)

// Map is the whole authoritative game state, and also the shape of each
// side's redacted view of it.
type Map struct {
	GameID string
	Units  *units.Units
	Tiles  *tiles.Tiles
	// Light is 0..1 and only affects how fog is drawn.
	Light float64
	Side  units.Side
	Turn  uint16
}

func New(width, height int, light float64) *Map {
	return &Map{
		Units: units.NewUnits(),
		Tiles: tiles.New(width, height),
		Light: light,
		Side:  units.PlayerA,
		Turn:  1,
	}
}

// NewFromSettings lines PlayerA up along the top edge and PlayerB along the
// bottom-right of the far edge, then generates terrain around them.
func NewFromSettings(s Skirmish, rng *rand.Rand) (*Map, error) {
	s = s.Clamped()
	m := New(s.Width, s.Height, float64(s.Light)/10)
	for x := 0; x < s.PlayerAUnits; x++ {
		if _, err := m.Units.Spawn(s.PlayerAType, units.PlayerA, x, 0, units.Bottom, rng); err != nil {
			return nil, err
		}
	}
	for x := s.Width - s.PlayerBUnits; x < s.Width; x++ {
		if _, err := m.Units.Spawn(s.PlayerBType, units.PlayerB, x, s.Height-1, units.Top, rng); err != nil {
			return nil, err
		}
	}
	m.Tiles.Generate(m.Units, rng)
	return m, nil
}

func (m *Map) Width() int  { return m.Tiles.Width() }
func (m *Map) Height() int { return m.Tiles.Height() }

func (m *Map) InBounds(x, y int) bool { return m.Tiles.InBounds(x, y) }

// Taken is true for cells with an obstacle or a unit. Off-map cells are taken.
func (m *Map) Taken(x, y int) bool {
	if !m.InBounds(x, y) {
		return true
	}
	return m.Tiles.Obstructed(x, y) || m.Units.At(x, y) != nil
}

func (m *Map) WallBetween(ax, ay, bx, by int) bool {
	return m.Tiles.WallBetween(ax, ay, bx, by)
}

// EnemiesVisibleTo lists the enemy units side can currently see.
func (m *Map) EnemiesVisibleTo(side units.Side) []*units.Unit {
	var out []*units.Unit
	for _, u := range m.Units.Side(side.Enemy()) {
		if m.Tiles.VisibilityAt(u.X, u.Y, side).IsVisible() {
			out = append(out, u)
		}
	}
	return out
}

// Redact refreshes visibility and returns what side may know: the tiles it
// can see and the units standing on them.
func (m *Map) Redact(side units.Side) *Map {
	m.Tiles.UpdateVisibility(m.Units)
	vis := m.Tiles
	return &Map{
		GameID: m.GameID,
		Units: m.Units.Clone(func(u *units.Unit) bool {
			return vis.VisibilityAt(u.X, u.Y, side).IsVisible()
		}),
		Tiles: m.Tiles.Redact(side),
		Light: m.Light,
		Side:  m.Side,
		Turn:  m.Turn,
	}
}

// MergeFrom replaces m with a fresh view, keeping remembered tiles under fog.
func (m *Map) MergeFrom(fresh *Map, side units.Side) {
	merged := tiles.Merge(m.Tiles, fresh.Tiles, side)
	*m = *fresh
	m.Tiles = merged
}

func (m *Map) Clone() *Map {
	c := *m
	c.Units = m.Units.Clone(nil)
	c.Tiles = m.Tiles.Clone()
	return &c
}

// Over reports whether either side has been wiped out.
func (m *Map) Over() bool {
	return m.Units.Count(units.PlayerA) == 0 || m.Units.Count(units.PlayerB) == 0
}

// Stats is the game-over summary from side's point of view.
func (m *Map) Stats(side units.Side) GameStats {
	own, enemy := m.Units.Count(side), m.Units.Count(side.Enemy())
	return GameStats{
		Won:         own != 0,
		UnitsLost:   m.Units.MaxCount(side) - own,
		UnitsKilled: m.Units.MaxCount(side.Enemy()) - enemy,
	}
}

// EndTurn hands the turn to the other side. Only the active side may end it.
func (m *Map) EndTurn(side units.Side) ServerResponses {
	var r ServerResponses
	if side != m.Side {
		return r
	}
	for _, u := range m.Units.All() {
		u.ResetMoves()
	}
	if m.Side == units.PlayerB {
		m.Turn++
	}
	m.Side = m.Side.Enemy()
	r.PushState(m)
	m.pushGameOver(&r)
	return r
}

func (m *Map) pushGameOver(r *ServerResponses) {
	if !m.Over() {
		return
	}
	for _, side := range units.Sides {
		r.Push(side, &GameOver{Stats: m.Stats(side)})
	}
}

// Digest hashes the full state. JSON is used because it orders map keys, so
// equal maps always hash the same.
func (m *Map) Digest() string {
	b, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
