package battle

import (
	"math/rand"
	"testing"

	"ruinfall.game/internal/sim/items"
	"ruinfall.game/internal/sim/tiles"
	"ruinfall.game/internal/sim/units"
)

func openMap(t *testing.T) (*Map, *rand.Rand) {
	t.Helper()
	return New(20, 20, 1), rand.New(rand.NewSource(7))
}

func spawn(t *testing.T, m *Map, rng *rand.Rand, ut units.UnitType, side units.Side, x, y int, f units.Facing) *units.Unit {
	t.Helper()
	u, err := m.Units.Spawn(ut, side, x, y, f, rng)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	return u
}

func count[T Response](rs []Response) int {
	n := 0
	for _, r := range rs {
		if _, ok := r.(T); ok {
			n++
		}
	}
	return n
}

func TestPerformCommand_WrongSideIgnored(t *testing.T) {
	m, rng := openMap(t)
	a := spawn(t, m, rng, units.Squaddie, units.PlayerA, 0, 0, units.Bottom)
	b := spawn(t, m, rng, units.Squaddie, units.PlayerB, 19, 19, units.Top)

	if r := m.PerformCommand(b.ID, Turn(units.Left), units.PlayerB, rng); !r.Empty() {
		t.Fatalf("off-turn command answered")
	}
	if r := m.PerformCommand(b.ID, Turn(units.Left), units.PlayerA, rng); !r.Empty() {
		t.Fatalf("command for enemy unit answered")
	}
	if r := m.PerformCommand(200, Turn(units.Left), units.PlayerA, rng); !r.Empty() {
		t.Fatalf("command for missing unit answered")
	}
	if a.Facing != units.Bottom || b.Facing != units.Top {
		t.Fatalf("facings changed")
	}
}

func TestPerformCommand_NoEffectIsInvalid(t *testing.T) {
	m, rng := openMap(t)
	a := spawn(t, m, rng, units.Squaddie, units.PlayerA, 0, 0, units.Bottom)
	spawn(t, m, rng, units.Squaddie, units.PlayerB, 19, 19, units.Top)

	r := m.PerformCommand(a.ID, Turn(units.Bottom), units.PlayerA, rng)
	if count[*InvalidCommand](r.For(units.PlayerA)) != 1 {
		t.Fatalf("A responses %#v", r.For(units.PlayerA))
	}
	if count[*InvalidCommand](r.For(units.PlayerB)) != 0 {
		t.Fatalf("B told about A's mistake")
	}
	if count[*NewState](r.For(units.PlayerB)) != 1 {
		t.Fatalf("B missing state echo")
	}

	r = m.PerformCommand(a.ID, Turn(units.Top), units.PlayerA, rng)
	if count[*InvalidCommand](r.For(units.PlayerA)) != 0 || a.Facing != units.Top {
		t.Fatalf("turn rejected")
	}
	if a.Moves != a.MaxMoves()-4*units.TurnCost {
		t.Fatalf("moves %d", a.Moves)
	}
}

func TestWalk(t *testing.T) {
	m, rng := openMap(t)
	a := spawn(t, m, rng, units.Squaddie, units.PlayerA, 0, 0, units.Bottom)
	spawn(t, m, rng, units.Squaddie, units.PlayerB, 19, 19, units.Top)

	r := m.PerformCommand(a.ID, Command{Kind: CmdWalk, Facings: []units.Facing{units.Bottom, units.Bottom}}, units.PlayerA, rng)
	if a.X != 2 || a.Y != 2 || a.Moves != a.MaxMoves()-2*units.DiagonalCost {
		t.Fatalf("unit at (%d,%d) moves %d", a.X, a.Y, a.Moves)
	}
	if n := count[*Walk](r.For(units.PlayerA)); n != 2 {
		t.Fatalf("A saw %d walks", n)
	}
	if n := count[*Walk](r.For(units.PlayerB)); n != 0 {
		t.Fatalf("B saw %d walks from across the map", n)
	}
	// one state per step plus the closing echo
	if n := count[*NewState](r.For(units.PlayerB)); n != 3 {
		t.Fatalf("B got %d states", n)
	}
}

func TestWalk_BlockedByWall(t *testing.T) {
	m, rng := openMap(t)
	a := spawn(t, m, rng, units.Squaddie, units.PlayerA, 0, 0, units.Bottom)
	spawn(t, m, rng, units.Squaddie, units.PlayerB, 19, 19, units.Top)
	m.Tiles.AddLeftWall(1, 0, tiles.Ruin1)

	r := m.PerformCommand(a.ID, Command{Kind: CmdWalk, Facings: []units.Facing{units.BottomRight}}, units.PlayerA, rng)
	if a.X != 0 || count[*InvalidCommand](r.For(units.PlayerA)) != 1 {
		t.Fatalf("walked through a wall to (%d,%d)", a.X, a.Y)
	}
}

func TestWalk_StopsWhenEnemySpotted(t *testing.T) {
	m, rng := openMap(t)
	a := spawn(t, m, rng, units.Squaddie, units.PlayerA, 0, 0, units.TopLeft)
	spawn(t, m, rng, units.Squaddie, units.PlayerB, 4, 4, units.Top)

	if len(m.Redact(units.PlayerA).EnemiesVisibleTo(units.PlayerA)) != 0 {
		t.Fatalf("enemy visible before walking")
	}
	path := []units.Facing{units.Bottom, units.Bottom, units.Bottom}
	r := m.PerformCommand(a.ID, Command{Kind: CmdWalk, Facings: path}, units.PlayerA, rng)
	if a.X != 1 || a.Y != 1 {
		t.Fatalf("kept walking to (%d,%d)", a.X, a.Y)
	}
	spotted := false
	for _, resp := range r.For(units.PlayerA) {
		if msg, ok := resp.(*Message); ok && msg.Text == "Enemy spotted!" {
			spotted = true
		}
	}
	if !spotted {
		t.Fatalf("no spotted message")
	}
}

func TestFire(t *testing.T) {
	m, rng := openMap(t)
	a := spawn(t, m, rng, units.Squaddie, units.PlayerA, 0, 0, units.Bottom)
	spawn(t, m, rng, units.Machine, units.PlayerB, 2, 2, units.Top)
	ammo := a.Weapon.Ammo
	info := a.Weapon.Type.Info()

	r := m.PerformCommand(a.ID, Fire(2, 2), units.PlayerA, rng)
	if a.Weapon.Ammo != ammo-1 || a.Moves != a.MaxMoves()-info.Cost {
		t.Fatalf("ammo %d moves %d", a.Weapon.Ammo, a.Moves)
	}
	for _, side := range units.Sides {
		var heard bool
		for _, resp := range r.For(side) {
			if s, ok := resp.(*SoundEffect); ok && s.Name == info.Sound {
				heard = true
			}
		}
		if !heard {
			t.Fatalf("%v did not hear the shot", side)
		}
		if count[*Bullet](r.For(side)) != 1 {
			t.Fatalf("%v bullets %d", side, count[*Bullet](r.For(side)))
		}
	}

	r = m.PerformCommand(a.ID, Fire(0, 0), units.PlayerA, rng)
	if count[*InvalidCommand](r.For(units.PlayerA)) != 1 {
		t.Fatalf("fired at own tile")
	}
}

func TestFire_EmptyWeapon(t *testing.T) {
	m, rng := openMap(t)
	a := spawn(t, m, rng, units.Squaddie, units.PlayerA, 0, 0, units.Bottom)
	spawn(t, m, rng, units.Machine, units.PlayerB, 2, 2, units.Top)
	a.Weapon.Ammo = 0

	r := m.PerformCommand(a.ID, Fire(2, 2), units.PlayerA, rng)
	if count[*InvalidCommand](r.For(units.PlayerA)) != 1 || a.Moves != a.MaxMoves() {
		t.Fatalf("empty weapon fired")
	}
}

func TestExplode(t *testing.T) {
	m, rng := openMap(t)
	spawn(t, m, rng, units.Squaddie, units.PlayerA, 5, 1, units.BottomLeft)
	centre := spawn(t, m, rng, units.Machine, units.PlayerB, 5, 5, units.Top)
	near := spawn(t, m, rng, units.Squaddie, units.PlayerB, 6, 6, units.Top)
	edge := spawn(t, m, rng, units.Squaddie, units.PlayerB, 5, 8, units.Top)
	doomed := spawn(t, m, rng, units.Squaddie, units.PlayerB, 4, 6, units.Top)
	doomed.Health = 50
	doomedID := doomed.ID
	m.Tiles.AddLeftWall(6, 5, tiles.Ruin1)
	m.Tiles.AddLeftWall(9, 5, tiles.Ruin1)
	m.Tiles.UpdateVisibility(m.Units)

	var r ServerResponses
	m.Explode(5, 5, items.Explosive{Radius: items.GrenadeRadius, Damage: items.GrenadeDamage}, &r)

	if centre.Health != 150-items.GrenadeDamage || near.Health != 100-items.GrenadeDamage || edge.Health != 100 {
		t.Fatalf("health centre=%d near=%d edge=%d", centre.Health, near.Health, edge.Health)
	}
	if _, err := m.Units.Get(doomedID); err == nil {
		t.Fatalf("unit survived at 50 health")
	}
	corpse := false
	for _, it := range m.Tiles.At(4, 6).Items {
		if it.Kind == items.KindSquaddieCorpse {
			corpse = true
		}
	}
	if !corpse {
		t.Fatalf("no corpse dropped: %v", m.Tiles.At(4, 6).Items)
	}
	if m.Tiles.At(5, 6).Decoration != tiles.Crater || m.Tiles.At(5, 5).Decoration == tiles.Crater {
		t.Fatalf("craters wrong")
	}
	if m.Tiles.At(6, 5).Walls.Left != nil || m.Tiles.At(9, 5).Walls.Left == nil {
		t.Fatalf("walls wrong")
	}

	rs := r.For(units.PlayerA)
	if len(rs) == 0 {
		t.Fatalf("A saw nothing")
	}
	if s, ok := rs[0].(*SoundEffect); !ok || s.Name != SoundExplosion {
		t.Fatalf("first response %#v", rs[0])
	}
	for i, resp := range rs[1:] {
		ex, ok := resp.(*Explosion)
		if !ok {
			t.Fatalf("response %d is %T", i+1, resp)
		}
		if ex.Blocking != (i == len(rs)-2) {
			t.Fatalf("explosion %d blocking=%v", i, ex.Blocking)
		}
	}
}

func TestThrowItem(t *testing.T) {
	m, rng := openMap(t)
	a := spawn(t, m, rng, units.Squaddie, units.PlayerA, 0, 0, units.Bottom)
	b := spawn(t, m, rng, units.Squaddie, units.PlayerB, 3, 3, units.Top)
	spawn(t, m, rng, units.Squaddie, units.PlayerB, 19, 19, units.Top)
	a.Inventory = append(a.Inventory, items.Grenade(true))

	r := m.PerformCommand(a.ID, ThrowItem(len(a.Inventory)-1, 3, 3), units.PlayerA, rng)
	if a.Moves != a.MaxMoves()-units.ThrowCost || len(a.Inventory) != 4 {
		t.Fatalf("moves %d inventory %v", a.Moves, a.Inventory)
	}
	if b.Health != 100-items.GrenadeDamage {
		t.Fatalf("target health %d", b.Health)
	}
	if count[*ThrownItem](r.For(units.PlayerA)) != 1 || count[*Explosion](r.For(units.PlayerA)) == 0 {
		t.Fatalf("A responses %#v", r.For(units.PlayerA))
	}

	// an unprimed grenade just lands
	r = m.PerformCommand(a.ID, ThrowItem(3, 2, 0), units.PlayerA, rng)
	if count[*Explosion](r.For(units.PlayerA)) != 0 {
		t.Fatalf("unprimed grenade exploded")
	}
	if got := m.Tiles.At(2, 0).Items; len(got) != 1 || got[0].Kind != items.KindGrenade {
		t.Fatalf("landed items %v", got)
	}

	moves := a.Moves
	r = m.PerformCommand(a.ID, ThrowItem(0, 19, 0), units.PlayerA, rng)
	if a.Moves != moves || count[*InvalidCommand](r.For(units.PlayerA)) != 1 {
		t.Fatalf("threw past range")
	}
}

func TestThrowItem_KillingLastEnemyEndsGame(t *testing.T) {
	m, rng := openMap(t)
	a := spawn(t, m, rng, units.Squaddie, units.PlayerA, 0, 0, units.Bottom)
	b := spawn(t, m, rng, units.Squaddie, units.PlayerB, 3, 3, units.Top)
	b.Health = 10
	a.Inventory = append(a.Inventory, items.Grenade(true))

	r := m.PerformCommand(a.ID, ThrowItem(len(a.Inventory)-1, 3, 3), units.PlayerA, rng)
	if !m.Over() {
		t.Fatalf("game not over")
	}
	for _, side := range units.Sides {
		rs := r.For(side)
		over, ok := rs[len(rs)-1].(*GameOver)
		if !ok {
			t.Fatalf("%v last response %T", side, rs[len(rs)-1])
		}
		if over.Stats.Won != (side == units.PlayerA) {
			t.Fatalf("%v stats %+v", side, over.Stats)
		}
	}
	if got := m.Stats(units.PlayerA); got.UnitsKilled != 1 || got.UnitsLost != 0 {
		t.Fatalf("stats %+v", got)
	}
}

func TestUseAndPickupItem(t *testing.T) {
	m, rng := openMap(t)
	a := spawn(t, m, rng, units.Squaddie, units.PlayerA, 0, 0, units.Bottom)
	spawn(t, m, rng, units.Squaddie, units.PlayerB, 19, 19, units.Top)

	m.PerformCommand(a.ID, DropItem(2), units.PlayerA, rng)
	if len(a.Inventory) != 3 || len(m.Tiles.At(0, 0).Items) != 1 {
		t.Fatalf("drop: inventory %v ground %v", a.Inventory, m.Tiles.At(0, 0).Items)
	}
	m.PerformCommand(a.ID, PickupItem(0), units.PlayerA, rng)
	if len(a.Inventory) != 4 || len(m.Tiles.At(0, 0).Items) != 0 {
		t.Fatalf("pickup: inventory %v ground %v", a.Inventory, m.Tiles.At(0, 0).Items)
	}

	r := m.PerformCommand(a.ID, UseItem(99), units.PlayerA, rng)
	if count[*InvalidCommand](r.For(units.PlayerA)) != 1 {
		t.Fatalf("bad index accepted")
	}
}

func TestFire_Outcomes(t *testing.T) {
	tests := []struct {
		name   string
		x, y   int
		setup  func(t *testing.T, m *Map, rng *rand.Rand)
		landed func(m *Map) bool
		check  func(t *testing.T, m *Map, r ServerResponses)
	}{
		{
			name: "wall takes the hit",
			x:    0, y: 2,
			setup: func(t *testing.T, m *Map, rng *rand.Rand) {
				spawn(t, m, rng, units.Squaddie, units.PlayerB, 0, 2, units.Top)
				m.Tiles.AddTopWall(0, 2, tiles.Ruin1)
			},
			landed: func(m *Map) bool {
				w := m.Tiles.At(0, 2).Walls.Top
				return w == nil || w.Health < tiles.WallHealth
			},
			check: func(t *testing.T, m *Map, r ServerResponses) {
				if u := m.Units.At(0, 2); u == nil || u.Health != u.MaxHealth() {
					t.Fatalf("unit behind the wall hurt: %+v", u)
				}
			},
		},
		{
			name: "empty tile cratered",
			x:    2, y: 2,
			setup: func(t *testing.T, m *Map, rng *rand.Rand) {
				spawn(t, m, rng, units.Squaddie, units.PlayerB, 19, 19, units.Top)
			},
			landed: func(m *Map) bool { return m.Tiles.At(2, 2).Decoration == tiles.Crater },
			check: func(t *testing.T, m *Map, r ServerResponses) {
				if m.Units.At(2, 2) != nil {
					t.Fatalf("unit appeared on target")
				}
			},
		},
		{
			name: "unseeing side only hears",
			x:    3, y: 3,
			setup: func(t *testing.T, m *Map, rng *rand.Rand) {
				spawn(t, m, rng, units.Squaddie, units.PlayerB, 19, 19, units.Bottom)
			},
			landed: func(m *Map) bool { return true },
			check: func(t *testing.T, m *Map, r ServerResponses) {
				rs := r.For(units.PlayerB)
				if count[*SoundEffect](rs) != 1 || count[*Bullet](rs) != 0 {
					t.Fatalf("B responses %#v", rs)
				}
				if count[*Bullet](r.For(units.PlayerA)) != 1 {
					t.Fatalf("A bullets %d", count[*Bullet](r.For(units.PlayerA)))
				}
			},
		},
		{
			name: "victim's side sees the killing shot",
			x:    2, y: 2,
			setup: func(t *testing.T, m *Map, rng *rand.Rand) {
				b := spawn(t, m, rng, units.Squaddie, units.PlayerB, 2, 2, units.Top)
				b.Health = 1
				spawn(t, m, rng, units.Squaddie, units.PlayerB, 19, 19, units.Top)
			},
			landed: func(m *Map) bool { return m.Units.At(2, 2) == nil },
			check: func(t *testing.T, m *Map, r ServerResponses) {
				if got := count[*Bullet](r.For(units.PlayerB)); got != 1 {
					t.Fatalf("B bullets %d", got)
				}
				if m.Tiles.VisibilityAt(0, 0, units.PlayerB).IsVisible() {
					t.Fatalf("B still sees the shooter")
				}
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for seed := int64(1); seed <= 100; seed++ {
				m, rng := openMap(t)
				a := spawn(t, m, rng, units.Squaddie, units.PlayerA, 0, 0, units.Bottom)
				tc.setup(t, m, rng)

				r := m.PerformCommand(a.ID, Fire(tc.x, tc.y), units.PlayerA, rand.New(rand.NewSource(seed)))
				if count[*InvalidCommand](r.For(units.PlayerA)) != 0 {
					t.Fatalf("fire rejected: %#v", r.For(units.PlayerA))
				}
				if tc.landed(m) {
					tc.check(t, m, r)
					return
				}
			}
			t.Fatalf("no hit in 100 seeds")
		})
	}
}
