package units

import (
	"errors"
	"math/rand"
	"sort"

	"ruinfall.game/internal/sim/items"
)

var ErrTooManyUnits = errors.New("unit ids exhausted")

// Dropper receives the items a dead unit leaves behind.
type Dropper interface {
	Drop(x, y int, it items.Item)
}

// Units owns every living unit, keyed by a stable id that is never reused.
type Units struct {
	ByID   map[uint8]*Unit
	NextID int
	// Max counts every unit ever added per side, for game-over statistics.
	Max [2]int
}

func NewUnits() *Units {
	return &Units{ByID: map[uint8]*Unit{}}
}

// Add takes ownership of u and assigns its id.
func (us *Units) Add(u Unit) (*Unit, error) {
	if us.NextID > 255 {
		return nil, ErrTooManyUnits
	}
	if us.ByID == nil {
		us.ByID = map[uint8]*Unit{}
	}
	u.ID = uint8(us.NextID)
	us.NextID++
	us.Max[u.Side]++
	p := &u
	us.ByID[u.ID] = p
	return p, nil
}

// Spawn creates a unit with its starting loadout and adds it.
func (us *Units) Spawn(t UnitType, side Side, x, y int, facing Facing, rng *rand.Rand) (*Unit, error) {
	return us.Add(New(t, side, x, y, facing, rng))
}

func (us *Units) Get(id uint8) (*Unit, error) {
	u, ok := us.ByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

// At is a linear scan; maps hold a handful of units.
func (us *Units) At(x, y int) *Unit {
	for _, u := range us.ByID {
		if u.X == x && u.Y == y {
			return u
		}
	}
	return nil
}

// Kill removes the unit and drops its inventory, weapon and corpse on its tile.
func (us *Units) Kill(id uint8, d Dropper) error {
	u, ok := us.ByID[id]
	if !ok {
		return ErrNotFound
	}
	delete(us.ByID, id)
	if d != nil {
		for _, it := range u.Dropped() {
			d.Drop(u.X, u.Y, it)
		}
	}
	return nil
}

func (us *Units) AnyAlive(side Side) bool { return us.Count(side) > 0 }

func (us *Units) Count(side Side) int {
	n := 0
	for _, u := range us.ByID {
		if u.Side == side {
			n++
		}
	}
	return n
}

func (us *Units) MaxCount(side Side) int { return us.Max[side] }

func (us *Units) Len() int { return len(us.ByID) }

// IDs returns every id in ascending order.
func (us *Units) IDs() []uint8 {
	ids := make([]uint8, 0, len(us.ByID))
	for id := range us.ByID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// All returns the units in id order.
func (us *Units) All() []*Unit {
	out := make([]*Unit, 0, len(us.ByID))
	for _, id := range us.IDs() {
		out = append(out, us.ByID[id])
	}
	return out
}

// Side returns one side's units in id order.
func (us *Units) Side(side Side) []*Unit {
	var out []*Unit
	for _, u := range us.All() {
		if u.Side == side {
			out = append(out, u)
		}
	}
	return out
}

func (us *Units) ResetMoves(side Side) {
	for _, u := range us.ByID {
		if u.Side == side {
			u.ResetMoves()
		}
	}
}

// Clone deep-copies the collection; keep filters which units survive.
func (us *Units) Clone(keep func(*Unit) bool) *Units {
	c := &Units{ByID: make(map[uint8]*Unit, len(us.ByID)), NextID: us.NextID, Max: us.Max}
	for id, u := range us.ByID {
		if keep != nil && !keep(u) {
			continue
		}
		cu := u.Clone()
		c.ByID[id] = &cu
	}
	return c
}
