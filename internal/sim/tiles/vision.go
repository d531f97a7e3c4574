package tiles

import (
	"math/rand"

	"ruinfall.game/internal/sim/units"
)

type point struct{ x, y int }

// sortByY orders two points on y so rasterization is direction independent.
func sortByY(a, b point) (point, point, bool) {
	if a.y > b.y {
		return b, a, true
	}
	return a, b, false
}

// bresenham returns every cell on the line from a to b inclusive.
// Consecutive cells differ by at most one on each axis.
func bresenham(a, b point) []point {
	dx := abs(b.x - a.x)
	dy := -abs(b.y - a.y)
	sx, sy := 1, 1
	if a.x > b.x {
		sx = -1
	}
	if a.y > b.y {
		sy = -1
	}
	e := dx + dy
	out := make([]point, 0, max(dx, -dy)+1)
	for p := a; ; {
		out = append(out, p)
		if p == b {
			return out
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			p.x += sx
		}
		if e2 <= dx {
			e += dx
			p.y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// LineOfSight returns the step-cost distance from a to b, or false when b is
// outside the viewer's cone or range or a wall lies on the line.
func (t *Tiles) LineOfSight(ax, ay, bx, by int, sight float64, facing units.Facing) (uint8, bool) {
	if !facing.CanSee(bx-ax, by-ay, sight) {
		return 0, false
	}
	start, end, _ := sortByY(point{ax, ay}, point{bx, by})
	line := bresenham(start, end)
	var distance uint8
	for i := 1; i < len(line); i++ {
		a, b := line[i-1], line[i]
		if t.WallBetween(a.x, a.y, b.x, b.y) {
			return 0, false
		}
		distance += uint8(units.StepCost(b.x-a.x, b.y-a.y))
	}
	return distance, true
}

// WallHit names the wall segment a shot runs into.
type WallHit struct {
	X, Y int
	Side WallSide
}

// LineOfFire returns the wall closest to the shooter at a on the line to b.
//
// A diagonal step passes a wall corner where two segments could plausibly
// take the hit; one of them is picked at random. This is deliberate.
func (t *Tiles) LineOfFire(ax, ay, bx, by int, rng *rand.Rand) (WallHit, bool) {
	start, end, reversed := sortByY(point{ax, ay}, point{bx, by})
	line := bresenham(start, end)

	var last WallHit
	found := false
	for i := 1; i < len(line); i++ {
		a, b := line[i-1], line[i]
		if !t.WallBetween(a.x, a.y, b.x, b.y) {
			continue
		}
		hit := t.wallCrossed(a, b, reversed, rng)
		if !reversed {
			return hit, true
		}
		last, found = hit, true
	}
	return last, found
}

func (t *Tiles) wallCrossed(a, b point, reversed bool, rng *rand.Rand) WallHit {
	switch {
	case b.x-a.x == 0:
		return WallHit{b.x, b.y, TopWall}
	case b.y == a.y && b.x > a.x:
		return WallHit{b.x, b.y, LeftWall}
	case b.y == a.y:
		return WallHit{a.x, a.y, LeftWall}
	}

	var top, left, right, bottom point
	if a.x < b.x {
		top, left, right, bottom = point{b.x, a.y}, point{a.x, b.y}, b, b
	} else {
		top, left, right, bottom = a, point{a.x, b.y}, b, point{a.x, b.y}
	}
	if reversed {
		top, bottom = bottom, top
		left, right = right, left
	}

	topBlock := !t.HorizontalClear(top.x, top.y)
	leftBlock := !t.VerticalClear(left.x, left.y)
	rightBlock := !t.VerticalClear(right.x, right.y)
	bottomBlock := !t.HorizontalClear(bottom.x, bottom.y)

	var wa, wb WallHit
	switch {
	case topBlock && leftBlock:
		wa, wb = WallHit{top.x, top.y, LeftWall}, WallHit{left.x, left.y, TopWall}
	case leftBlock && rightBlock:
		wa, wb = WallHit{left.x, left.y, TopWall}, WallHit{right.x, right.y, TopWall}
	case topBlock && bottomBlock:
		wa, wb = WallHit{top.x, top.y, LeftWall}, WallHit{bottom.x, bottom.y, LeftWall}
	default:
		wa, wb = WallHit{bottom.x, bottom.y, LeftWall}, WallHit{right.x, right.y, TopWall}
	}
	if rng.Intn(2) == 0 {
		return wa
	}
	return wb
}
