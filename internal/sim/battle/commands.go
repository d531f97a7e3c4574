package battle

import (
	"errors"
	"fmt"
	"math/rand"

	"ruinfall.game/internal/sim/items"
	"ruinfall.game/internal/sim/paths"
	"ruinfall.game/internal/sim/tiles"
	"ruinfall.game/internal/sim/units"
)

type CommandKind uint8

const (
	CmdWalk CommandKind = iota + 1
	CmdTurn
	CmdFire
	CmdUseItem
	CmdPickupItem
	CmdDropItem
	CmdThrowItem
)

func (k CommandKind) String() string {
	switch k {
	case CmdWalk:
		return "walk"
	case CmdTurn:
		return "turn"
	case CmdFire:
		return "fire"
	case CmdUseItem:
		return "use_item"
	case CmdPickupItem:
		return "pickup_item"
	case CmdDropItem:
		return "drop_item"
	case CmdThrowItem:
		return "throw_item"
	}
	return "unknown"
}

// Command is one unit's order. Which fields matter depends on Kind.
type Command struct {
	Kind    CommandKind
	Facings []units.Facing // walk
	Facing  units.Facing   // turn
	X, Y    int            // fire, throw
	Item    int            // use, pickup, drop, throw
}

func WalkPath(path []paths.PathPoint) Command {
	return Command{Kind: CmdWalk, Facings: paths.Facings(path)}
}

func Turn(f units.Facing) Command { return Command{Kind: CmdTurn, Facing: f} }
func Fire(x, y int) Command { return Command{Kind: CmdFire, X: x, Y: y} }
func UseItem(i int) Command { return Command{Kind: CmdUseItem, Item: i} }
func PickupItem(i int) Command { return Command{Kind: CmdPickupItem, Item: i} }
func DropItem(i int) Command { return Command{Kind: CmdDropItem, Item: i} }
func ThrowItem(i, x, y int) Command { return Command{Kind: CmdThrowItem, Item: i, X: x, Y: y} }

var errBadTarget = errors.New("target out of range")

// PerformCommand applies one order from side to unit id. Orders from the
// wrong side or for someone else's unit are dropped without a response. An
// order that costs the unit nothing is reported back as InvalidCommand.
func (m *Map) PerformCommand(id uint8, cmd Command, side units.Side, rng *rand.Rand) ServerResponses {
	var r ServerResponses
	if side != m.Side {
		return r
	}
	u, err := m.Units.Get(id)
	if err != nil || u.Side != side {
		return r
	}
	moves := u.Moves
	m.Tiles.UpdateVisibility(m.Units)

	switch cmd.Kind {
	case CmdWalk:
		err = m.walk(u, cmd.Facings, &r)
	case CmdTurn:
		err = u.Turn(cmd.Facing)
	case CmdFire:
		err = m.fire(u, cmd.X, cmd.Y, rng, &r)
	case CmdUseItem:
		err = u.UseItem(cmd.Item)
	case CmdPickupItem:
		tile := m.Tiles.At(u.X, u.Y)
		tile.Items, err = u.PickupItem(tile.Items, cmd.Item)
	case CmdDropItem:
		var it items.Item
		if it, err = u.DropItem(cmd.Item); err == nil {
			m.Tiles.Drop(u.X, u.Y, it)
		}
	case CmdThrowItem:
		err = m.throw(u, cmd.Item, cmd.X, cmd.Y, &r)
	default:
		err = fmt.Errorf("unknown command kind %d", cmd.Kind)
	}

	r.PushState(m)

	if after, gerr := m.Units.Get(id); gerr == nil && after.Moves == moves {
		reason := "command had no effect"
		if err != nil {
			reason = err.Error()
		}
		r.Push(side, &InvalidCommand{Reason: reason})
	}
	m.pushGameOver(&r)
	return r
}

// walk moves one step per facing. It stops early when an enemy comes into
// view, the next step is unaffordable, or the next cell is blocked.
func (m *Map) walk(u *units.Unit, facings []units.Facing, r *ServerResponses) error {
	startEnemies := len(m.EnemiesVisibleTo(u.Side))
	for _, f := range facings {
		if len(m.EnemiesVisibleTo(u.Side)) > startEnemies {
			r.Push(u.Side, &Message{Text: "Enemy spotted!"})
			return nil
		}
		if !f.Valid() {
			return errBadTarget
		}
		dx, dy := f.Delta()
		nx, ny := u.X+dx, u.Y+dy
		cost := units.StepCost(dx, dy)
		if u.Moves < cost {
			return units.ErrInsufficientMoves
		}
		if m.Taken(nx, ny) || m.WallBetween(u.X, u.Y, nx, ny) {
			return nil
		}
		u.X, u.Y, u.Facing = nx, ny, f
		u.Moves -= cost
		m.Tiles.WalkOn(nx, ny)
		m.Tiles.UpdateVisibility(m.Units)

		r.PushState(m)
		for _, side := range units.Sides {
			if side == u.Side || m.Tiles.VisibilityAt(nx, ny, side).IsVisible() {
				r.Push(side, &Walk{})
				r.Push(side, &SoundEffect{Name: SoundWalk})
			}
		}
	}
	return nil
}

func (m *Map) fire(u *units.Unit, x, y int, rng *rand.Rand, r *ServerResponses) error {
	if !m.InBounds(x, y) || (x == u.X && y == u.Y) {
		return errBadTarget
	}
	if err := u.FireWeapon(); err != nil {
		return err
	}
	info := u.Weapon.Type.Info()
	hit := rng.Float64() < units.ChanceToHit(units.Distance(u.X, u.Y, x, y))*info.HitModifier
	jitter := (rng.Float64()*2 - 1) * MaxJitter

	// a kill below can blind the victim's side, so decide who sees it first
	var sees [2]bool
	for _, side := range units.Sides {
		sees[side] = m.Tiles.VisibilityAt(u.X, u.Y, side).IsVisible() || m.Tiles.VisibilityAt(x, y, side).IsVisible()
	}
	tx, ty := x, y
	if hit {
		if wall, ok := m.Tiles.LineOfFire(u.X, u.Y, x, y, rng); ok {
			tx, ty = wall.X, wall.Y
			m.Tiles.DamageWall(wall.X, wall.Y, wall.Side, info.Damage)
		} else if target := m.Units.At(x, y); target != nil {
			m.damageUnit(target, info.Damage)
		} else {
			m.Tiles.AddCrater(x, y)
		}
	}

	bullet := func() Response {
		return NewBullet(u.X, u.Y, tx, ty, u.Weapon.Type, hit, jitter, m.Width(), m.Height())
	}
	for _, side := range units.Sides {
		r.Push(side, &SoundEffect{Name: info.Sound})
		if sees[side] {
			r.Push(side, bullet())
		}
	}
	m.Tiles.UpdateVisibility(m.Units)
	return nil
}

func (m *Map) throw(u *units.Unit, i, x, y int, r *ServerResponses) error {
	if !m.InBounds(x, y) || !units.DistanceUnder(x-u.X, y-u.Y, units.ThrowDistance) {
		return errBadTarget
	}
	it, err := u.TakeItem(i)
	if err != nil {
		return err
	}
	sx, sy := u.X, u.Y
	for _, side := range units.Sides {
		if side == u.Side || m.Tiles.VisibilityAt(sx, sy, side).IsVisible() || m.Tiles.VisibilityAt(x, y, side).IsVisible() {
			r.Push(side, &SoundEffect{Name: SoundThrow})
			r.Push(side, NewThrownItem(it.Image(), sx, sy, x, y))
		}
	}
	if ex, ok := it.Explosive(); ok {
		m.Explode(x, y, ex, r)
		return nil
	}
	m.Tiles.Drop(x, y, it)
	return nil
}

// Explode damages everything strictly within the radius of (cx,cy).
// Walls take damage without any line of fire; open ground gets a crater.
func (m *Map) Explode(cx, cy int, ex items.Explosive, r *ServerResponses) {
	var hitTiles [][2]int
	m.Tiles.Each(func(x, y int) {
		if units.Distance(cx, cy, x, y) < ex.Radius {
			hitTiles = append(hitTiles, [2]int{x, y})
		}
	})

	// what each side sees of the blast is decided before anything dies
	var seen [2][][2]int
	for _, side := range units.Sides {
		for _, p := range hitTiles {
			if m.Tiles.VisibilityAt(p[0], p[1], side).IsVisible() {
				seen[side] = append(seen[side], p)
			}
		}
	}

	for _, p := range hitTiles {
		x, y := p[0], p[1]
		if u := m.Units.At(x, y); u != nil {
			m.damageUnit(u, ex.Damage)
		} else {
			m.Tiles.AddCrater(x, y)
		}
		m.Tiles.DamageWall(x, y, tiles.LeftWall, ex.Damage)
		m.Tiles.DamageWall(x, y, tiles.TopWall, ex.Damage)
	}
	m.Tiles.UpdateVisibility(m.Units)

	for _, side := range units.Sides {
		if len(seen[side]) == 0 {
			continue
		}
		r.Push(side, &SoundEffect{Name: SoundExplosion})
		for i, p := range seen[side] {
			r.Push(side, NewExplosion(p[0], p[1], cx, cy, i == len(seen[side])-1))
		}
	}
}

func (m *Map) damageUnit(u *units.Unit, amount int16) {
	u.Health -= amount
	if u.Health <= 0 {
		// the unit is known to exist, so Kill cannot fail
		_ = m.Units.Kill(u.ID, m.Tiles)
		m.Tiles.UpdateVisibility(m.Units)
	}
}
