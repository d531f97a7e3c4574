package units

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"ruinfall.game/internal/sim/items"
)

var (
	ErrNotFound          = errors.New("unit not found")
	ErrInvalidIndex      = errors.New("invalid item index")
	ErrInsufficientMoves = errors.New("insufficient moves")
	ErrOverCapacity      = errors.New("over carrying capacity")
	ErrCannotUse         = errors.New("item cannot be used")
	ErrNoAmmo            = errors.New("weapon is empty")
)

type UnitType uint8

const (
	Squaddie UnitType = iota + 1
	Machine
)

type TypeInfo struct {
	Name      string
	MaxMoves  uint16
	MaxHealth int16
	Capacity  float64
	Corpse    items.Kind
	CanHeal   bool
}

var typeInfo = map[UnitType]TypeInfo{
	Squaddie: {Name: "Squaddie", MaxMoves: 30, MaxHealth: 100, Capacity: 25, Corpse: items.KindSquaddieCorpse, CanHeal: true},
	Machine:  {Name: "Machine", MaxMoves: 25, MaxHealth: 150, Capacity: 75, Corpse: items.KindMachineCorpse},
}

func (t UnitType) Info() TypeInfo { return typeInfo[t] }

func (t UnitType) Valid() bool {
	_, ok := typeInfo[t]
	return ok
}

// ParseUnitType accepts a type name in any case.
func ParseUnitType(name string) (UnitType, bool) {
	for t, info := range typeInfo {
		if strings.EqualFold(info.Name, name) {
			return t, true
		}
	}
	return 0, false
}

func (t UnitType) String() string {
	if info, ok := typeInfo[t]; ok {
		return info.Name
	}
	return "Unknown"
}

// Unit fields are exported for gob; mutate them through the methods below.
type Unit struct {
	ID        uint8
	Type      UnitType
	Side      Side
	X, Y      int
	Facing    Facing
	Moves     uint16
	Health    int16
	Weapon    items.Weapon
	Inventory []items.Item `json:",omitempty"`
	Name      string
}

// New builds a unit at full moves and health with its type's starting loadout.
// The id is assigned when the unit is added to a Units collection.
func New(t UnitType, side Side, x, y int, facing Facing, rng *rand.Rand) Unit {
	info := t.Info()
	u := Unit{
		Type:   t,
		Side:   side,
		X:      x,
		Y:      y,
		Facing: facing,
		Moves:  info.MaxMoves,
		Health: info.MaxHealth,
	}
	switch t {
	case Machine:
		u.Name = machineSerial(rng)
		u.Weapon = items.NewWeapon(items.PlasmaRifle, items.PlasmaRifle.Info().Capacity)
	default:
		u.Name = squaddieName(rng)
		wt := items.Rifle
		if rng.Intn(2) == 1 {
			wt = items.MachineGun
		}
		u.Weapon = items.NewWeapon(wt, wt.Info().Capacity)
		u.Inventory = []items.Item{items.ClipFor(wt), items.ClipFor(wt), items.Bandages(), items.Grenade(false)}
	}
	return u
}

func (u *Unit) MaxMoves() uint16 { return u.Type.Info().MaxMoves }

func (u *Unit) MaxHealth() int16 { return u.Type.Info().MaxHealth }

func (u *Unit) Alive() bool { return u.Health > 0 }

func (u *Unit) ResetMoves() { u.Moves = u.MaxMoves() }

// Weight is what the unit carries in its inventory; the held weapon is free.
func (u *Unit) Weight() float64 {
	var w float64
	for _, it := range u.Inventory {
		w += it.Weight()
	}
	return w
}

func (u *Unit) CanCarry(it items.Item) bool {
	return u.Weight()+it.Weight() <= u.Type.Info().Capacity
}

func (u *Unit) spend(cost uint16) error {
	if u.Moves < cost {
		return ErrInsufficientMoves
	}
	u.Moves -= cost
	return nil
}

// CanHealFrom requires the full heal amount to be missing so nothing is wasted.
func (u *Unit) CanHealFrom(it items.Item) bool {
	amount := it.Heal()
	return amount > 0 && u.Type.Info().CanHeal && u.Moves >= ItemCost &&
		u.MaxHealth()-u.Health >= amount
}

// CanUse reports whether UseItem(i) would succeed.
func (u *Unit) CanUse(i int) bool {
	if i < 0 || i >= len(u.Inventory) || u.Moves < ItemCost {
		return false
	}
	it := u.Inventory[i]
	switch {
	case it.AmmoFor(u.Weapon.Type) > 0:
		return u.Weapon.CanReload(it.AmmoFor(u.Weapon.Type))
	case it.Heal() > 0:
		return u.CanHealFrom(it)
	case it.Kind == items.KindGrenade:
		return !it.Primed
	}
	_, ok := it.AsWeapon()
	return ok
}

// UseItem reloads from a clip, swaps weapons, heals or primes a grenade.
// Consumed items leave the inventory; a swapped-out weapon takes the slot.
func (u *Unit) UseItem(i int) error {
	if i < 0 || i >= len(u.Inventory) {
		return ErrInvalidIndex
	}
	if u.Moves < ItemCost {
		return ErrInsufficientMoves
	}
	it := u.Inventory[i]
	switch {
	case it.AmmoFor(u.Weapon.Type) > 0:
		if !u.Weapon.Reload(it.AmmoFor(u.Weapon.Type)) {
			return ErrCannotUse
		}
		u.removeItem(i)
	case it.Heal() > 0:
		if !u.CanHealFrom(it) {
			return ErrCannotUse
		}
		u.Health += it.Heal()
		u.removeItem(i)
	case it.Kind == items.KindGrenade:
		if it.Primed {
			return ErrCannotUse
		}
		u.Inventory[i] = items.Grenade(true)
	default:
		w, ok := it.AsWeapon()
		if !ok {
			return ErrCannotUse
		}
		u.Inventory[i] = u.Weapon.ToItem()
		u.Weapon = w
	}
	u.Moves -= ItemCost
	return nil
}

func (u *Unit) removeItem(i int) items.Item {
	it := u.Inventory[i]
	u.Inventory = append(u.Inventory[:i:i], u.Inventory[i+1:]...)
	return it
}

// PickupItem moves ground[i] into the inventory and returns what is left on the ground.
func (u *Unit) PickupItem(ground []items.Item, i int) ([]items.Item, error) {
	if i < 0 || i >= len(ground) {
		return ground, ErrInvalidIndex
	}
	if u.Moves < ItemCost {
		return ground, ErrInsufficientMoves
	}
	it := ground[i]
	if !u.CanCarry(it) {
		return ground, ErrOverCapacity
	}
	u.Inventory = append(u.Inventory, it)
	u.Moves -= ItemCost
	return append(ground[:i:i], ground[i+1:]...), nil
}

func (u *Unit) DropItem(i int) (items.Item, error) {
	if i < 0 || i >= len(u.Inventory) {
		return items.Item{}, ErrInvalidIndex
	}
	if err := u.spend(ItemCost); err != nil {
		return items.Item{}, err
	}
	return u.removeItem(i), nil
}

// TakeItem removes inventory[i] for a throw, charging the throw cost.
func (u *Unit) TakeItem(i int) (items.Item, error) {
	if i < 0 || i >= len(u.Inventory) {
		return items.Item{}, ErrInvalidIndex
	}
	if err := u.spend(ThrowCost); err != nil {
		return items.Item{}, err
	}
	return u.removeItem(i), nil
}

func (u *Unit) CanFire() bool {
	return u.Moves >= u.Weapon.Type.Info().Cost && u.Weapon.CanFire()
}

// FireWeapon pays for one shot.
func (u *Unit) FireWeapon() error {
	if !u.Weapon.CanFire() {
		return ErrNoAmmo
	}
	if err := u.spend(u.Weapon.Type.Info().Cost); err != nil {
		return err
	}
	u.Weapon.Ammo--
	return nil
}

func (u *Unit) TurnCost(to Facing) uint16 {
	return uint16(u.Facing.Steps(to)) * TurnCost
}

func (u *Unit) Turn(to Facing) error {
	if !to.Valid() {
		return ErrCannotUse
	}
	if err := u.spend(u.TurnCost(to)); err != nil {
		return err
	}
	u.Facing = to
	return nil
}

// CanSee checks facing and range only; walls are the tile layer's concern.
func (u *Unit) CanSee(x, y int) bool {
	return u.Facing.CanSee(x-u.X, y-u.Y, Sight)
}

// Dropped is everything left on the tile when the unit dies.
func (u *Unit) Dropped() []items.Item {
	out := make([]items.Item, 0, len(u.Inventory)+2)
	out = append(out, u.Inventory...)
	out = append(out, u.Weapon.ToItem(), items.Item{Kind: u.Type.Info().Corpse})
	return out
}

func (u *Unit) Info() string {
	return fmt.Sprintf("%s %s (%s) hp %d/%d moves %d/%d %s",
		u.Type, u.Name, u.Side, u.Health, u.MaxHealth(), u.Moves, u.MaxMoves(), u.Weapon)
}

func (u *Unit) Clone() Unit {
	c := *u
	c.Inventory = append([]items.Item(nil), u.Inventory...)
	return c
}
