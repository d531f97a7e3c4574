package paths

import (
	"container/heap"

	"ruinfall.game/internal/sim/units"
)

// Reach holds the cheapest way from a unit to every cell within a budget.
type Reach struct {
	startX, startY int
	nodes          map[[2]int]*pathNode
}

// Reachable floods out from the unit's cell, stopping at budget. It uses the
// same moves and costs as Find, so the cost to a cell equals Find's.
func Reachable(u *units.Unit, t Terrain, budget uint16) *Reach {
	start := &pathNode{x: u.X, y: u.Y}
	r := &Reach{startX: u.X, startY: u.Y, nodes: map[[2]int]*pathNode{{u.X, u.Y}: start}}
	ol := &openList{start}
	heap.Init(ol)
	closed := map[[2]int]bool{}

	for ol.Len() > 0 {
		cur := heap.Pop(ol).(*pathNode)
		k := [2]int{cur.x, cur.y}
		if closed[k] {
			continue
		}
		closed[k] = true

		for _, d := range dirs {
			nx, ny := cur.x+d[0], cur.y+d[1]
			if !t.InBounds(nx, ny) || t.Taken(nx, ny) || t.WallBetween(cur.x, cur.y, nx, ny) {
				continue
			}
			nk := [2]int{nx, ny}
			if closed[nk] {
				continue
			}
			g := cur.g + int(units.StepCost(d[0], d[1]))
			if g > int(budget) {
				continue
			}
			if prev, ok := r.nodes[nk]; ok && g >= prev.g {
				continue
			}
			node := &pathNode{x: nx, y: ny, g: g, parent: cur}
			r.nodes[nk] = node
			heap.Push(ol, node)
		}
	}
	return r
}

// Cost is the cheapest cost to (x,y); ok is false when it is out of reach.
func (r *Reach) Cost(x, y int) (uint16, bool) {
	n, ok := r.nodes[[2]int{x, y}]
	if !ok {
		return 0, false
	}
	return uint16(n.g), true
}

// Path is the cheapest path to (x,y), excluding the start cell.
func (r *Reach) Path(x, y int) ([]PathPoint, bool) {
	n, ok := r.nodes[[2]int{x, y}]
	if !ok {
		return nil, false
	}
	return buildPath(n), true
}

// Each visits every reachable cell, including the start, in row-major order.
func (r *Reach) Each(width, height int, fn func(x, y int, cost uint16)) {
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if n, ok := r.nodes[[2]int{x, y}]; ok {
				fn(x, y, uint16(n.g))
			}
		}
	}
}
