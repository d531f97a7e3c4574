package paths

import (
	"container/heap"

	"ruinfall.game/internal/sim/units"
)

// Terrain is what the search needs from a map.
type Terrain interface {
	InBounds(x, y int) bool
	// Taken is true for cells holding an obstacle or a unit.
	Taken(x, y int) bool
	WallBetween(ax, ay, bx, by int) bool
}

// PathPoint is one step of a path; Cost is the cost of that step alone.
type PathPoint struct {
	X, Y   int
	Cost   uint16
	Facing units.Facing
}

type pathNode struct {
	x, y   int
	g, h   int
	parent *pathNode
	index  int // heap index
}

type openList []*pathNode

func (ol openList) Len() int { return len(ol) }
func (ol openList) Less(i, j int) bool {
	fi, fj := ol[i].g+ol[i].h, ol[j].g+ol[j].h
	if fi != fj {
		return fi < fj
	}
	return ol[i].g > ol[j].g
}
func (ol openList) Swap(i, j int)        { ol[i], ol[j] = ol[j], ol[i]; ol[i].index = i; ol[j].index = j }
func (ol *openList) Push(x interface{}) { n := x.(*pathNode); n.index = len(*ol); *ol = append(*ol, n) }
func (ol *openList) Pop() interface{} {
	old := *ol
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*ol = old[:len(old)-1]
	return n
}

var dirs = [8][2]int{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

// heuristic is the exact cost over an empty grid, so it never overestimates.
func heuristic(ax, ay, bx, by int) int {
	dx, dy := abs(ax-bx), abs(ay-by)
	lo, hi := min(dx, dy), max(dx, dy)
	return lo*int(units.DiagonalCost) + (hi-lo)*int(units.LateralCost)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Find searches from the unit's cell to (dx,dy). The path excludes the start
// cell. It fails when the destination is taken or unreachable; whether the
// unit can afford the cost is the caller's concern.
func Find(u *units.Unit, dx, dy int, t Terrain) ([]PathPoint, uint16, bool) {
	if !t.InBounds(dx, dy) || t.Taken(dx, dy) {
		return nil, 0, false
	}
	if u.X == dx && u.Y == dy {
		return nil, 0, false
	}

	key := func(x, y int) [2]int { return [2]int{x, y} }
	start := &pathNode{x: u.X, y: u.Y, h: heuristic(u.X, u.Y, dx, dy)}
	ol := &openList{start}
	heap.Init(ol)

	closed := map[[2]int]bool{}
	best := map[[2]int]*pathNode{key(u.X, u.Y): start}

	for ol.Len() > 0 {
		cur := heap.Pop(ol).(*pathNode)
		if cur.x == dx && cur.y == dy {
			return buildPath(cur), uint16(cur.g), true
		}
		k := key(cur.x, cur.y)
		if closed[k] {
			continue
		}
		closed[k] = true

		for _, d := range dirs {
			nx, ny := cur.x+d[0], cur.y+d[1]
			if !t.InBounds(nx, ny) || t.Taken(nx, ny) || t.WallBetween(cur.x, cur.y, nx, ny) {
				continue
			}
			nk := key(nx, ny)
			if closed[nk] {
				continue
			}
			g := cur.g + int(units.StepCost(d[0], d[1]))
			if prev, ok := best[nk]; ok && g >= prev.g {
				continue
			}
			node := &pathNode{x: nx, y: ny, g: g, h: heuristic(nx, ny, dx, dy), parent: cur}
			best[nk] = node
			heap.Push(ol, node)
		}
	}
	return nil, 0, false
}

func buildPath(end *pathNode) []PathPoint {
	var out []PathPoint
	for n := end; n.parent != nil; n = n.parent {
		p := n.parent
		out = append(out, PathPoint{
			X:      n.x,
			Y:      n.y,
			Cost:   units.StepCost(n.x-p.x, n.y-p.y),
			Facing: units.FacingFromPoints(p.x, p.y, n.x, n.y),
		})
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Total sums the step costs of a path.
func Total(path []PathPoint) uint16 {
	var c uint16
	for _, p := range path {
		c += p.Cost
	}
	return c
}

// Facings converts a path into the walk directions a Walk command carries.
func Facings(path []PathPoint) []units.Facing {
	out := make([]units.Facing, len(path))
	for i, p := range path {
		out[i] = p.Facing
	}
	return out
}

// Affordable trims a path to the steps the moves budget covers.
func Affordable(path []PathPoint, moves uint16) []PathPoint {
	var spent uint16
	for i, p := range path {
		if spent+p.Cost > moves {
			return path[:i]
		}
		spent += p.Cost
	}
	return path
}
