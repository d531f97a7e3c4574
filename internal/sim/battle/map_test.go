package battle

import (
	"errors"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"ruinfall.game/internal/persistence/snapshot"
	"ruinfall.game/internal/sim/units"
)

func TestNewFromSettings(t *testing.T) {
	s := DefaultSkirmish()
	m, err := NewFromSettings(s, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if m.Width() != 30 || m.Height() != 30 || m.Light != 1 {
		t.Fatalf("size %dx%d light %v", m.Width(), m.Height(), m.Light)
	}
	if m.Units.Count(units.PlayerA) != 6 || m.Units.Count(units.PlayerB) != 4 {
		t.Fatalf("counts %d/%d", m.Units.Count(units.PlayerA), m.Units.Count(units.PlayerB))
	}
	for _, u := range m.Units.Side(units.PlayerB) {
		if u.Y != 29 || u.X < 26 || u.Type != units.Machine {
			t.Fatalf("B unit %+v", u)
		}
	}
	if m.Side != units.PlayerA || m.Turn != 1 {
		t.Fatalf("side %v turn %d", m.Side, m.Turn)
	}
}

func TestSkirmish_Clamped(t *testing.T) {
	s := Skirmish{Width: 500, Height: 2, PlayerAUnits: 0, PlayerBUnits: 99, Light: -3}.Clamped()
	if s.Width != MaxMapSize || s.Height != MinMapSize || s.PlayerAUnits != 1 || s.PlayerBUnits != MaxMapSize || s.Light != 0 {
		t.Fatalf("clamped %+v", s)
	}
	if s.PlayerAType != units.Squaddie || s.PlayerBType != units.Machine {
		t.Fatalf("types %v %v", s.PlayerAType, s.PlayerBType)
	}
}

func TestEndTurn(t *testing.T) {
	m, rng := openMap(t)
	a := spawn(t, m, rng, units.Squaddie, units.PlayerA, 0, 0, units.Bottom)
	spawn(t, m, rng, units.Squaddie, units.PlayerB, 19, 19, units.Top)
	a.Moves = 0

	if r := m.EndTurn(units.PlayerB); !r.Empty() || m.Side != units.PlayerA {
		t.Fatalf("B ended A's turn")
	}
	r := m.EndTurn(units.PlayerA)
	if m.Side != units.PlayerB || m.Turn != 1 || a.Moves != a.MaxMoves() {
		t.Fatalf("side %v turn %d moves %d", m.Side, m.Turn, a.Moves)
	}
	if count[*NewState](r.For(units.PlayerA)) != 1 || count[*NewState](r.For(units.PlayerB)) != 1 {
		t.Fatalf("state not pushed to both")
	}
	m.EndTurn(units.PlayerB)
	if m.Side != units.PlayerA || m.Turn != 2 {
		t.Fatalf("side %v turn %d", m.Side, m.Turn)
	}
}

func TestRedact_HidesUnseenEnemies(t *testing.T) {
	m, rng := openMap(t)
	spawn(t, m, rng, units.Squaddie, units.PlayerA, 0, 0, units.Bottom)
	near := spawn(t, m, rng, units.Squaddie, units.PlayerB, 2, 2, units.Top)
	far := spawn(t, m, rng, units.Squaddie, units.PlayerB, 19, 19, units.Top)

	view := m.Redact(units.PlayerA)
	if _, err := view.Units.Get(near.ID); err != nil {
		t.Fatalf("visible enemy missing")
	}
	if _, err := view.Units.Get(far.ID); err == nil {
		t.Fatalf("hidden enemy leaked")
	}
	if view.Tiles.VisibilityAt(19, 19, units.PlayerA).IsVisible() {
		t.Fatalf("far tile visible")
	}
	if len(view.Tiles.Vis[units.PlayerB].Cells) != 0 {
		t.Fatalf("enemy visibility leaked")
	}

	// a client's view keeps its own units after merging a fresh state
	local := New(20, 20, 1)
	local.MergeFrom(view, units.PlayerA)
	if local.Units.Count(units.PlayerA) != 1 || local.Units.Count(units.PlayerB) != 1 {
		t.Fatalf("merged counts %d/%d", local.Units.Count(units.PlayerA), local.Units.Count(units.PlayerB))
	}
}

func TestSaveLoad(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	m, err := NewFromSettings(DefaultSkirmish(), rng)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	m.GameID = "g-1"
	m.Turn = 3
	dir := t.TempDir()

	r := m.Save(dir, "first")
	want := filepath.Join(dir, "first.sav")
	for _, side := range units.Sides {
		rs := r.For(side)
		msg, ok := rs[0].(*Message)
		if len(rs) != 1 || !ok || msg.Text != "Game saved to '"+want+"'" {
			t.Fatalf("%v responses %#v", side, rs)
		}
	}

	hdr, err := snapshot.ReadHeader(want)
	if err != nil {
		t.Fatalf("header: %v", err)
	}
	if hdr.GameID != "g-1" || hdr.Turn != 3 || hdr.UnitsA != 6 || hdr.UnitsB != 4 || hdr.Side != units.PlayerA.String() {
		t.Fatalf("header %+v", hdr)
	}

	got, err := Load(want)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.GameID != m.GameID || got.Turn != m.Turn || got.Light != m.Light || got.Units.NextID != m.Units.NextID {
		t.Fatalf("map fields differ")
	}
	for _, u := range m.Units.All() {
		g, err := got.Units.Get(u.ID)
		if err != nil {
			t.Fatalf("unit %d lost", u.ID)
		}
		if g.X != u.X || g.Y != u.Y || g.Name != u.Name || g.Weapon != u.Weapon || len(g.Inventory) != len(u.Inventory) {
			t.Fatalf("unit %d: %+v vs %+v", u.ID, g, u)
		}
	}
	m.Tiles.Each(func(x, y int) {
		a, b := m.Tiles.At(x, y), got.Tiles.At(x, y)
		if a.Base != b.Base || a.Obstacle != b.Obstacle || a.Decoration != b.Decoration ||
			(a.Walls.Left == nil) != (b.Walls.Left == nil) || (a.Walls.Top == nil) != (b.Walls.Top == nil) ||
			len(a.Items) != len(b.Items) {
			t.Fatalf("tile (%d,%d) differs", x, y)
		}
		for _, side := range units.Sides {
			if m.Tiles.VisibilityAt(x, y, side) != got.Tiles.VisibilityAt(x, y, side) {
				t.Fatalf("visibility (%d,%d) differs", x, y)
			}
		}
	})
}

func TestSave_RejectsHiddenNames(t *testing.T) {
	m, rng := openMap(t)
	spawn(t, m, rng, units.Squaddie, units.PlayerA, 0, 0, units.Bottom)
	r := m.Save(t.TempDir(), ".hidden")
	msg, ok := r.For(units.PlayerA)[0].(*Message)
	if !ok || !strings.HasPrefix(msg.Text, "Could not save game") {
		t.Fatalf("responses %#v", r.For(units.PlayerA))
	}
	if _, err := SaveName("saves", "../x"); !errors.Is(err, ErrBadSaveName) {
		t.Fatalf("path escape accepted: %v", err)
	}
}

func TestSave_DecidedGameReportsGameOver(t *testing.T) {
	m, rng := openMap(t)
	spawn(t, m, rng, units.Squaddie, units.PlayerA, 0, 0, units.Bottom)
	if !m.Over() {
		t.Fatalf("game with no B units is not over")
	}
	r := m.Save(t.TempDir(), "decided")
	for _, side := range units.Sides {
		rs := r.For(side)
		if len(rs) != 2 {
			t.Fatalf("%v responses %#v", side, rs)
		}
		over, ok := rs[1].(*GameOver)
		if !ok || over.Stats.Won != (side == units.PlayerA) {
			t.Fatalf("%v last response %#v", side, rs[1])
		}
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.sav")); !errors.Is(err, ErrNoSave) {
		t.Fatalf("err=%v", err)
	}
}
