package units

import (
	"errors"
	"math/rand"
	"testing"

	"ruinfall.game/internal/sim/items"
)

type dropRecorder map[[2]int][]items.Item

func (d dropRecorder) Drop(x, y int, it items.Item) {
	d[[2]int{x, y}] = append(d[[2]int{x, y}], it)
}

func newSquaddie(t *testing.T, us *Units, x, y int) *Unit {
	t.Helper()
	u, err := us.Spawn(Squaddie, PlayerA, x, y, Bottom, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	return u
}

func TestUnits_StableIDs(t *testing.T) {
	us := NewUnits()
	a := newSquaddie(t, us, 0, 0)
	b := newSquaddie(t, us, 1, 0)
	if err := us.Kill(a.ID, nil); err != nil {
		t.Fatalf("kill: %v", err)
	}
	c := newSquaddie(t, us, 2, 0)
	if c.ID == a.ID || c.ID == b.ID {
		t.Fatalf("id %d reused", c.ID)
	}
	if _, err := us.Get(a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("dead unit still present: %v", err)
	}
	if us.MaxCount(PlayerA) != 3 || us.Count(PlayerA) != 2 {
		t.Fatalf("max=%d count=%d", us.MaxCount(PlayerA), us.Count(PlayerA))
	}
	if got := us.At(2, 0); got == nil || got.ID != c.ID {
		t.Fatalf("At(2,0)=%v", got)
	}
}

func TestUnits_KillDropsEverything(t *testing.T) {
	us := NewUnits()
	u := newSquaddie(t, us, 3, 4)
	inv := len(u.Inventory)
	d := dropRecorder{}
	if err := us.Kill(u.ID, d); err != nil {
		t.Fatalf("kill: %v", err)
	}
	dropped := d[[2]int{3, 4}]
	if len(dropped) != inv+2 {
		t.Fatalf("dropped %d items want %d", len(dropped), inv+2)
	}
	if dropped[len(dropped)-1].Kind != items.KindSquaddieCorpse {
		t.Fatalf("last drop %v is not a corpse", dropped[len(dropped)-1])
	}
	if us.AnyAlive(PlayerA) {
		t.Fatalf("side still alive")
	}
}

func TestUnit_UseItemReloadAndHeal(t *testing.T) {
	us := NewUnits()
	u := newSquaddie(t, us, 0, 0)
	u.Weapon.Ammo = 0
	clip := u.Inventory[0]
	if clip.AmmoFor(u.Weapon.Type) == 0 {
		t.Fatalf("starting clip does not fit weapon")
	}
	n := len(u.Inventory)
	if err := u.UseItem(0); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if u.Weapon.Ammo != u.Weapon.Type.Info().Capacity || len(u.Inventory) != n-1 {
		t.Fatalf("reload did not consume clip: %+v", u)
	}
	if u.Moves != u.MaxMoves()-ItemCost {
		t.Fatalf("moves=%d", u.Moves)
	}

	bandages := -1
	for i, it := range u.Inventory {
		if it.Kind == items.KindBandages {
			bandages = i
		}
	}
	if err := u.UseItem(bandages); !errors.Is(err, ErrCannotUse) {
		t.Fatalf("healing at full health err=%v", err)
	}
	u.Health = 50
	if err := u.UseItem(bandages); err != nil || u.Health != 75 {
		t.Fatalf("heal err=%v health=%d", err, u.Health)
	}
}

func TestUnit_WeaponSwap(t *testing.T) {
	us := NewUnits()
	u := newSquaddie(t, us, 0, 0)
	old := u.Weapon
	u.Inventory = []items.Item{items.NewWeapon(items.PlasmaRifle, 3).ToItem()}
	if err := u.UseItem(0); err != nil {
		t.Fatalf("swap: %v", err)
	}
	if u.Weapon.Type != items.PlasmaRifle || u.Weapon.Ammo != 3 {
		t.Fatalf("weapon=%v", u.Weapon)
	}
	if back, ok := u.Inventory[0].AsWeapon(); !ok || back != old {
		t.Fatalf("old weapon not stored: %v", u.Inventory[0])
	}
}

func TestUnit_ItemErrors(t *testing.T) {
	us := NewUnits()
	u := newSquaddie(t, us, 0, 0)
	if err := u.UseItem(99); !errors.Is(err, ErrInvalidIndex) {
		t.Fatalf("bad index err=%v", err)
	}
	if _, err := u.DropItem(-1); !errors.Is(err, ErrInvalidIndex) {
		t.Fatalf("bad drop err=%v", err)
	}
	ground := []items.Item{{Kind: items.KindMachineCorpse}}
	if rest, err := u.PickupItem(ground, 0); !errors.Is(err, ErrOverCapacity) || len(rest) != 1 {
		t.Fatalf("heavy pickup err=%v rest=%v", err, rest)
	}
	u.Moves = 2
	if err := u.FireWeapon(); !errors.Is(err, ErrInsufficientMoves) {
		t.Fatalf("fire with no moves err=%v", err)
	}
	if u.Weapon.Ammo != u.Weapon.Type.Info().Capacity {
		t.Fatalf("failed shot spent ammo")
	}
}

func TestUnit_Turn(t *testing.T) {
	us := NewUnits()
	u := newSquaddie(t, us, 0, 0)
	if err := u.Turn(Top); err != nil {
		t.Fatalf("turn: %v", err)
	}
	if u.Moves != u.MaxMoves()-4*TurnCost {
		t.Fatalf("moves=%d", u.Moves)
	}
	if Bottom.Steps(BottomRight) != 1 || Left.Steps(Right) != 4 {
		t.Fatalf("facing steps wrong")
	}
}

func TestFacingFromPoints(t *testing.T) {
	cases := []struct {
		dx, dy int
		want   Facing
	}{
		{1, 1, Bottom},
		{0, 1, BottomLeft},
		{-1, 1, Left},
		{-1, 0, TopLeft},
		{-1, -1, Top},
		{0, -1, TopRight},
		{1, -1, Right},
		{1, 0, BottomRight},
	}
	for _, c := range cases {
		if got := FacingFromPoints(5, 5, 5+c.dx, 5+c.dy); got != c.want {
			t.Fatalf("(%d,%d) facing %s want %s", c.dx, c.dy, got, c.want)
		}
		if dx, dy := c.want.Delta(); dx != c.dx || dy != c.dy {
			t.Fatalf("%s delta (%d,%d)", c.want, dx, dy)
		}
		if !c.want.InCone(c.dx, c.dy) {
			t.Fatalf("%s cannot see its own step", c.want)
		}
	}
}

func TestChanceToHit_Decreasing(t *testing.T) {
	prev := 1.0
	for d := 0.0; d < 20; d++ {
		c := ChanceToHit(d)
		if c >= prev || c <= 0 {
			t.Fatalf("chance %f at %f not decreasing", c, d)
		}
		prev = c
	}
}
