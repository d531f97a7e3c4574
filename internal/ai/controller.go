// Package ai plays one side of a battle from that side's redacted view.
package ai

import (
	"io"
	"log"
	"math/rand"

	"ruinfall.game/internal/sim/battle"
	"ruinfall.game/internal/sim/paths"
	"ruinfall.game/internal/sim/tiles"
	"ruinfall.game/internal/sim/units"
)

// Controller picks one command at a time for its side. Units it has given up
// on stay finished until the side's next turn.
type Controller struct {
	Side units.Side

	doctrine *Doctrine
	rng      *rand.Rand
	log      *log.Logger

	turn     uint16
	finished map[uint8]bool
}

func NewController(side units.Side, d *Doctrine, rng *rand.Rand, logger *log.Logger) *Controller {
	if d == nil {
		d = MustDefault()
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Controller{Side: side, doctrine: d, rng: rng, log: logger, finished: map[uint8]bool{}}
}

// Next returns the command for the first unfinished unit in id order. ok is
// false once every unit is finished and the turn should end.
func (c *Controller) Next(m *battle.Map) (id uint8, cmd battle.Command, ok bool) {
	if m.Turn != c.turn {
		c.turn = m.Turn
		clear(c.finished)
	}
	for _, u := range m.Units.Side(c.Side) {
		if c.finished[u.ID] || u.Moves == 0 {
			continue
		}
		if cmd, ok := c.decide(m, u); ok {
			return u.ID, cmd, true
		}
		c.finished[u.ID] = true
	}
	return 0, battle.Command{}, false
}

// Finish marks a unit done for this turn, e.g. after the server rejected
// its last command.
func (c *Controller) Finish(id uint8) { c.finished[id] = true }

func (c *Controller) decide(m *battle.Map, u *units.Unit) (battle.Command, bool) {
	env := c.env(m, u)
	actions, err := c.doctrine.matching(env)
	if err != nil {
		c.log.Printf("unit %d: %v", u.ID, err)
	}
	for _, a := range actions {
		if a == ActionFinish {
			return battle.Command{}, false
		}
		if cmd, ok := c.act(a, m, u); ok {
			c.log.Printf("unit %d (%s): %s", u.ID, u.Name, a)
			return cmd, true
		}
	}
	return battle.Command{}, false
}

func (c *Controller) env(m *battle.Map, u *units.Unit) Env {
	info := u.Weapon.Type.Info()
	enemies := m.EnemiesVisibleTo(c.Side)
	env := Env{
		Turn:            int(m.Turn),
		Health:          int(u.Health),
		MaxHealth:       int(u.MaxHealth()),
		Moves:           int(u.Moves),
		Ammo:            int(u.Weapon.Ammo),
		Capacity:        int(info.Capacity),
		ShotCost:        int(info.Cost),
		CanReload:       reloadIndex(u) >= 0,
		CanHeal:         healIndex(u) >= 0,
		CanFire:         len(enemies) > 0 && u.CanFire(),
		EnemiesVisible:  len(enemies),
		RepositionBelow: c.doctrine.repositionBelow,
	}
	if t := closestTarget(u, enemies); t != nil {
		env.ChanceToHit = units.ChanceToHit(units.Distance(u.X, u.Y, t.X, t.Y)) * info.HitModifier
	}
	return env
}

func (c *Controller) act(a Action, m *battle.Map, u *units.Unit) (battle.Command, bool) {
	switch a {
	case ActionReload:
		if i := reloadIndex(u); i >= 0 {
			return battle.UseItem(i), true
		}
	case ActionHeal:
		if i := healIndex(u); i >= 0 {
			return battle.UseItem(i), true
		}
	case ActionSearch:
		return c.search(m, u)
	case ActionReposition:
		return c.reposition(m, u)
	case ActionFire:
		t := closestTarget(u, m.EnemiesVisibleTo(c.Side))
		if t != nil && u.CanFire() {
			return battle.Fire(t.X, t.Y), true
		}
	}
	return battle.Command{}, false
}

func reloadIndex(u *units.Unit) int {
	for i, it := range u.Inventory {
		if it.AmmoFor(u.Weapon.Type) > 0 && u.CanUse(i) {
			return i
		}
	}
	return -1
}

func healIndex(u *units.Unit) int {
	for i, it := range u.Inventory {
		if it.Heal() > 0 && u.CanUse(i) {
			return i
		}
	}
	return -1
}

// closestTarget is the enemy with the best chance to hit, ties to the lower id.
func closestTarget(u *units.Unit, enemies []*units.Unit) *units.Unit {
	var best *units.Unit
	bestD := 0.0
	for _, e := range enemies {
		d := units.Distance(u.X, u.Y, e.X, e.Y)
		if best == nil || d < bestD {
			best, bestD = e, d
		}
	}
	return best
}

// candidate is a reachable tile and the score of standing there.
type candidate struct {
	x, y  int
	cost  uint16
	score float64
}

// bestMove scans the tiles the unit can reach and knows about. It returns a
// walk to the highest scoring one, or false if staying put is as good.
func (c *Controller) bestMove(m *battle.Map, u *units.Unit, score func(x, y int, cost uint16) float64) (battle.Command, bool) {
	reach := paths.Reachable(u, m, u.Moves)
	best := candidate{x: u.X, y: u.Y, score: score(u.X, u.Y, 0)}
	reach.Each(m.Width(), m.Height(), func(x, y int, cost uint16) {
		if x == u.X && y == u.Y || m.Tiles.VisibilityAt(x, y, c.Side).IsInvisible() {
			return
		}
		if s := score(x, y, cost); s > best.score {
			best = candidate{x: x, y: y, cost: cost, score: s}
		}
	})
	if best.x == u.X && best.y == u.Y {
		return battle.Command{}, false
	}
	path, ok := reach.Path(best.x, best.y)
	if !ok || len(path) == 0 {
		return battle.Command{}, false
	}
	return battle.WalkPath(path), true
}

func (c *Controller) search(m *battle.Map, u *units.Unit) (battle.Command, bool) {
	return c.bestMove(m, u, func(x, y int, _ uint16) float64 {
		return SearchScore(m, c.Side, x, y)
	})
}

func (c *Controller) reposition(m *battle.Map, u *units.Unit) (battle.Command, bool) {
	t := closestTarget(u, m.EnemiesVisibleTo(c.Side))
	if t == nil {
		return battle.Command{}, false
	}
	return c.bestMove(m, u, func(x, y int, cost uint16) float64 {
		return DamageScore(m, u, x, y, cost, t, c.rng)
	})
}

// SearchScore is what standing at (x,y) would reveal: 1 for each unseen tile
// in sight range and 0.1 for each foggy one.
func SearchScore(m *battle.Map, side units.Side, x, y int) float64 {
	sight := units.Sight
	r := int(sight)
	score := 0.0
	for ty := y - r; ty <= y+r; ty++ {
		for tx := x - r; tx <= x+r; tx++ {
			if !m.InBounds(tx, ty) || !units.DistanceUnder(tx-x, ty-y, units.Sight) {
				continue
			}
			switch m.Tiles.VisibilityAt(tx, ty, side).Kind {
			case tiles.Invisible:
				score += 1
			case tiles.Foggy:
				score += 0.1
			}
		}
	}
	return score
}

// DamageScore is the expected damage u could still deal to t after walking
// to (x,y) for cost. A wall on the line of fire makes it zero.
func DamageScore(m *battle.Map, u *units.Unit, x, y int, cost uint16, t *units.Unit, rng *rand.Rand) float64 {
	if cost > u.Moves {
		return 0
	}
	if _, blocked := m.Tiles.LineOfFire(x, y, t.X, t.Y, rng); blocked {
		return 0
	}
	info := u.Weapon.Type.Info()
	shots := min(int((u.Moves-cost)/info.Cost), int(u.Weapon.Ammo))
	hit := units.ChanceToHit(units.Distance(x, y, t.X, t.Y)) * info.HitModifier
	return hit * float64(shots) * float64(info.Damage)
}
