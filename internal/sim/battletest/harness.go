package battletest

import (
	"math/rand"
	"testing"

	"ruinfall.game/internal/sim/battle"
	"ruinfall.game/internal/sim/units"
)

// Harness drives an authoritative map through its exported commands and
// keeps the two redacted client views that the responses produce.
//
// It plays every response to completion immediately, so the views are
// always what a client would show once its animations finish.
type Harness struct {
	T   *testing.T
	M   *battle.Map
	RNG *rand.Rand

	views [2]*battle.Map
}

func NewHarness(t *testing.T, s battle.Skirmish, seed int64) *Harness {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	m, err := battle.NewFromSettings(s, rng)
	if err != nil {
		t.Fatalf("battle.NewFromSettings: %v", err)
	}
	return newHarness(t, m, rng)
}

// NewHarnessWithMap is like NewHarness but starts from an existing map, for
// example one read back from a save.
func NewHarnessWithMap(t *testing.T, m *battle.Map, seed int64) *Harness {
	t.Helper()
	if m == nil {
		t.Fatalf("NewHarnessWithMap: nil map")
	}
	return newHarness(t, m, rand.New(rand.NewSource(seed)))
}

func newHarness(t *testing.T, m *battle.Map, rng *rand.Rand) *Harness {
	h := &Harness{T: t, M: m, RNG: rng}
	for _, side := range units.Sides {
		h.views[side] = m.Redact(side)
	}
	return h
}

func (h *Harness) View(side units.Side) *battle.Map { return h.views[side] }

func (h *Harness) Do(side units.Side, id uint8, cmd battle.Command) battle.ServerResponses {
	h.T.Helper()
	r := h.M.PerformCommand(id, cmd, side, h.RNG)
	h.Apply(r)
	return r
}

func (h *Harness) EndTurn(side units.Side) battle.ServerResponses {
	h.T.Helper()
	r := h.M.EndTurn(side)
	h.Apply(r)
	return r
}

// Apply plays each side's responses against that side's view.
func (h *Harness) Apply(r battle.ServerResponses) {
	h.T.Helper()
	for _, side := range units.Sides {
		for _, resp := range r.For(side) {
			finished := false
			for i := 0; i < 100 && !finished; i++ {
				finished = resp.Step(10, side, h.views[side]).Finished
			}
			if !finished {
				h.T.Fatalf("%T never finished for %v", resp, side)
			}
		}
	}
}

// CheckNoLeaks fails if either view holds an enemy the authoritative map
// says that side cannot see.
func (h *Harness) CheckNoLeaks() {
	h.T.Helper()
	h.M.Tiles.UpdateVisibility(h.M.Units)
	for _, side := range units.Sides {
		for _, u := range h.views[side].Units.Side(side.Enemy()) {
			if !h.M.Tiles.VisibilityAt(u.X, u.Y, side).IsVisible() {
				h.T.Fatalf("%v view holds hidden enemy %d at (%d,%d)", side, u.ID, u.X, u.Y)
			}
		}
	}
}

// PlayRound gives every unit of the active side one scripted order and ends
// the turn. Units step in a random direction and then shoot at the first
// enemy they can see. Commands that fail are fine; they are part of play.
func (h *Harness) PlayRound(script *rand.Rand) {
	h.T.Helper()
	side := h.M.Side
	for _, id := range h.M.Units.IDs() {
		u, err := h.M.Units.Get(id)
		if err != nil || u.Side != side {
			continue
		}
		f := units.Facing(script.Intn(8))
		h.Do(side, id, battle.Command{Kind: battle.CmdWalk, Facings: []units.Facing{f, f}})
		if enemies := h.M.EnemiesVisibleTo(side); len(enemies) > 0 {
			h.Do(side, id, battle.Fire(enemies[0].X, enemies[0].Y))
		}
		if h.M.Over() {
			return
		}
	}
	h.EndTurn(side)
}
