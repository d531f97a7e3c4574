package tiles

import (
	"math/rand"

	"ruinfall.game/internal/sim/grid"
	"ruinfall.game/internal/sim/items"
	"ruinfall.game/internal/sim/units"
)

const (
	MinPitSize = 2
	MaxPitSize = 5

	decorationChance = 0.05
	objectChance     = 0.05
	wallChance       = 0.1
)

// Tiles is the terrain of a map plus one visibility grid per side.
// A redacted copy carries a 0x0 grid for the side it was not made for.
type Tiles struct {
	Cells grid.Grid[Tile]
	Vis   [2]grid.Grid[Visibility]
}

// New builds a blank map; Generate fills it in.
func New(width, height int) *Tiles {
	return &Tiles{
		Cells: grid.New(width, height, func() Tile { return NewTile(Base1) }),
		Vis: [2]grid.Grid[Visibility]{
			grid.New(width, height, func() Visibility { return InvisibleVis }),
			grid.New(width, height, func() Visibility { return InvisibleVis }),
		},
	}
}

func (t *Tiles) Width() int  { return t.Cells.Width }
func (t *Tiles) Height() int { return t.Cells.Height }

func (t *Tiles) InBounds(x, y int) bool { return t.Cells.InBounds(x, y) }

// At returns the tile for in-place mutation. Panics out of bounds.
func (t *Tiles) At(x, y int) *Tile { return t.Cells.Ptr(x, y) }

func (t *Tiles) Each(fn func(x, y int)) { t.Cells.Each(fn) }

// Obstructed reports a pit or object on the tile.
func (t *Tiles) Obstructed(x, y int) bool {
	return t.At(x, y).Obstacle.Kind != Empty
}

// VisibilityAt never panics: off-grid cells and missing grids read as invisible.
func (t *Tiles) VisibilityAt(x, y int, side units.Side) Visibility {
	if int(side) >= len(t.Vis) {
		return InvisibleVis
	}
	v, err := t.Vis[side].Get(x, y)
	if err != nil {
		return InvisibleVis
	}
	return v
}

func (t *Tiles) setVisibility(x, y int, side units.Side, v Visibility) {
	t.Vis[side].Set(x, y, v)
}

// Generate scatters decorations and objects, carves one pit and places walls.
func (t *Tiles) Generate(us *units.Units, rng *rand.Rand) {
	objects := []Image{ObjectRebar, ObjectRubble}

	t.Each(func(x, y int) {
		tile := t.At(x, y)
		if rng.Intn(2) == 1 {
			tile.Base = Base2
		}
		occupied := us != nil && us.At(x, y) != nil

		if rng.Float64() < decorationChance {
			if rng.Intn(2) == 1 {
				tile.Decoration = Skeleton
				if occupied {
					tile.Decoration = SkeletonCracked
				}
			} else {
				tile.Decoration = Rubble
			}
		}
		if !occupied && rng.Float64() < objectChance {
			tile.Obstacle = Obstacle{Kind: Object, Image: objects[rng.Intn(len(objects))]}
		}
	})

	t.addPit(
		MinPitSize+rng.Intn(MaxPitSize-MinPitSize+1),
		MinPitSize+rng.Intn(MaxPitSize-MinPitSize+1),
		rng,
	)

	t.Each(func(x, y int) {
		if rng.Float64() >= wallChance {
			return
		}
		if rng.Intn(2) == 1 {
			t.AddLeftWall(x, y, Ruin1)
			t.AddTopWall(x, y+1, Ruin1)
		} else {
			t.AddLeftWall(x+1, y, Ruin2)
			t.AddTopWall(x, y+1, Ruin2)
		}
	})

	if us != nil {
		t.UpdateVisibility(us)
	}
}

func (t *Tiles) notPit(x, y int) bool {
	return t.InBounds(x, y) && !t.At(x, y).IsPit()
}

// AddLeftWall refuses a wall that would seal a pit edge from both sides.
func (t *Tiles) AddLeftWall(x, y int, k WallKind) {
	if t.InBounds(x, y) && (t.notPit(x, y) || t.notPit(x-1, y)) {
		t.At(x, y).Walls.SetLeft(k)
	}
}

func (t *Tiles) AddTopWall(x, y int, k WallKind) {
	if t.InBounds(x, y) && (t.notPit(x, y) || t.notPit(x, y-1)) {
		t.At(x, y).Walls.SetTop(k)
	}
}

func (t *Tiles) addPit(width, height int, rng *rand.Rand) {
	width = min(width, t.Width()-2)
	height = min(height, t.Height()-2)
	if width < 1 || height < 1 {
		return
	}
	maxX := t.Width() - width - 1
	maxY := t.Height() - height - 1
	px, py := 1, 1
	if maxX > 1 {
		px = 1 + rng.Intn(maxX-1)
	}
	if maxY > 1 {
		py = 1 + rng.Intn(maxY-1)
	}
	right, bottom := px+width-1, py+height-1

	t.At(px, py).setPit(PitTop)
	t.At(px, bottom).setPit(PitLeft)
	t.At(right, py).setPit(PitRight)
	t.At(right, bottom).setPit(PitBottom)

	for x := px + 1; x < right; x++ {
		t.At(x, py).setPit(PitTR)
		t.At(x, bottom).setPit(PitBL)
		for y := py + 1; y < bottom; y++ {
			t.At(x, y).setPit(PitCenter)
		}
	}
	for y := py + 1; y < bottom; y++ {
		t.At(px, y).setPit(PitTL)
		t.At(right, y).setPit(PitBR)
	}
}

// UpdateVisibility recomputes both sides' grids from their units' sight.
// Cells that drop out of sight become foggy, never invisible.
func (t *Tiles) UpdateVisibility(us *units.Units) {
	all := us.All()
	t.Each(func(x, y int) {
		for _, side := range units.Sides {
			if t.Vis[side].Width != t.Width() {
				continue
			}
			if d, ok := t.seenBy(all, side, x, y); ok {
				t.setVisibility(x, y, side, VisibleAt(d))
			} else if t.VisibilityAt(x, y, side).IsVisible() {
				t.setVisibility(x, y, side, FoggyVis)
			}
		}
	})
}

func (t *Tiles) seenBy(all []*units.Unit, side units.Side, x, y int) (uint8, bool) {
	var best uint8
	seen := false
	for _, u := range all {
		if u.Side != side {
			continue
		}
		if d, ok := t.LineOfSight(u.X, u.Y, x, y, units.Sight, u.Facing); ok && (!seen || d < best) {
			best, seen = d, true
		}
	}
	return best, seen
}

// Drop puts an item on the tile; it satisfies units.Dropper.
func (t *Tiles) Drop(x, y int, it items.Item) {
	tile := t.At(x, y)
	tile.Items = append(tile.Items, it)
}

func (t *Tiles) WalkOn(x, y int) { t.At(x, y).WalkOn() }

// AddCrater marks a hit on open ground. Pits keep their look.
func (t *Tiles) AddCrater(x, y int) {
	if tile := t.At(x, y); !tile.IsPit() {
		tile.Decoration = Crater
	}
}

// DamageWall hurts one wall segment and removes it at zero health.
func (t *Tiles) DamageWall(x, y int, side WallSide, amount int16) (destroyed bool) {
	walls := &t.At(x, y).Walls
	slot := &walls.Left
	if side == TopWall {
		slot = &walls.Top
	}
	if *slot == nil {
		return false
	}
	(*slot).Health -= amount
	if (*slot).Health <= 0 {
		*slot = nil
		return true
	}
	return false
}

// HorizontalClear is true when nothing blocks movement along x into (x,y).
func (t *Tiles) HorizontalClear(x, y int) bool { return t.At(x, y).Walls.Left == nil }

// VerticalClear is true when nothing blocks movement along y into (x,y).
func (t *Tiles) VerticalClear(x, y int) bool { return t.At(x, y).Walls.Top == nil }

// DiagonalClear checks the four segments meeting at the top-left corner of (x,y).
func (t *Tiles) DiagonalClear(x, y int, tlToBR bool) bool {
	if x < 1 || x >= t.Width() || y < 1 || y >= t.Height() {
		return false
	}
	top := t.HorizontalClear(x, y-1)
	left := t.VerticalClear(x-1, y)
	right := t.VerticalClear(x, y)
	bottom := t.HorizontalClear(x, y)

	if !(top || bottom) || !(left || right) {
		return false
	}
	if tlToBR {
		return (top || left) && (bottom || right)
	}
	return (top || right) && (bottom || left)
}

// WallBetween reports a wall between two neighbouring cells. Callers pass the
// cells ordered so that b.y >= a.y.
func (t *Tiles) WallBetween(ax, ay, bx, by int) bool {
	switch [2]int{bx - ax, by - ay} {
	case [2]int{0, 1}:
		return !t.VerticalClear(bx, by)
	case [2]int{1, 0}:
		return !t.HorizontalClear(bx, by)
	case [2]int{-1, 0}:
		return !t.HorizontalClear(ax, ay)
	case [2]int{-1, 1}:
		return !t.DiagonalClear(ax, by, false)
	case [2]int{1, 1}:
		return !t.DiagonalClear(bx, by, true)
	case [2]int{0, -1}, [2]int{1, -1}, [2]int{-1, -1}:
		return t.WallBetween(bx, by, ax, ay)
	}
	return false
}

func (t *Tiles) LeftWallVisibility(x, y int, side units.Side) Visibility {
	v := t.VisibilityAt(x, y, side)
	if x > 0 {
		return combine(v, t.VisibilityAt(x-1, y, side))
	}
	return v
}

func (t *Tiles) TopWallVisibility(x, y int, side units.Side) Visibility {
	v := t.VisibilityAt(x, y, side)
	if y > 0 {
		return combine(v, t.VisibilityAt(x, y-1, side))
	}
	return v
}

// VisibleUnits filters to the units standing on cells the side can see.
func (t *Tiles) VisibleUnits(us *units.Units, side units.Side) []*units.Unit {
	var out []*units.Unit
	for _, u := range us.All() {
		if t.VisibilityAt(u.X, u.Y, side).IsVisible() {
			out = append(out, u)
		}
	}
	return out
}

// Redact returns the view of side: unseen tiles are blanked, keeping only
// walls that border a seen tile, and the enemy's grid is dropped.
func (t *Tiles) Redact(side units.Side) *Tiles {
	out := &Tiles{Cells: grid.Grid[Tile]{Width: t.Width(), Height: t.Height(), Cells: make([]Tile, len(t.Cells.Cells))}}
	t.Each(func(x, y int) {
		src := t.At(x, y)
		if t.VisibilityAt(x, y, side).IsVisible() {
			out.Cells.Set(x, y, src.clone())
			return
		}
		blank := NewTile(Base1)
		walls := src.Walls.clone()
		if t.LeftWallVisibility(x, y, side).IsVisible() {
			blank.Walls.Left = walls.Left
		}
		if t.TopWallVisibility(x, y, side).IsVisible() {
			blank.Walls.Top = walls.Top
		}
		out.Cells.Set(x, y, blank)
	})
	out.Vis[side] = t.Vis[side].Clone()
	out.Vis[side.Enemy()] = grid.New[Visibility](0, 0, nil)
	return out
}

// Merge folds a fresh redacted view into a stale local one for side. Tiles
// the fresh view only knows as foggy keep what local remembers of them.
func Merge(local, fresh *Tiles, side units.Side) *Tiles {
	out := fresh.Clone()
	if local == nil || local.Width() != fresh.Width() || local.Height() != fresh.Height() {
		return out
	}
	out.Each(func(x, y int) {
		if fresh.VisibilityAt(x, y, side).IsFoggy() {
			out.Cells.Set(x, y, local.At(x, y).clone())
		}
	})
	return out
}

func (t *Tiles) Clone() *Tiles {
	out := &Tiles{Cells: t.Cells.Clone()}
	for i := range out.Cells.Cells {
		out.Cells.Cells[i] = out.Cells.Cells[i].clone()
	}
	for i := range t.Vis {
		out.Vis[i] = t.Vis[i].Clone()
	}
	return out
}
