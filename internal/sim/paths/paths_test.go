package paths

import (
	"math/rand"
	"testing"

	"ruinfall.game/internal/sim/tiles"
	"ruinfall.game/internal/sim/units"
)

type openTerrain struct {
	*tiles.Tiles
	taken map[[2]int]bool
}

func (o openTerrain) Taken(x, y int) bool { return o.taken[[2]int{x, y}] || o.Obstructed(x, y) }

func newTerrain(w, h int) openTerrain {
	return openTerrain{Tiles: tiles.New(w, h), taken: map[[2]int]bool{}}
}

func squaddieAt(x, y int) *units.Unit {
	u := units.New(units.Squaddie, units.PlayerA, x, y, units.Bottom, rand.New(rand.NewSource(1)))
	return &u
}

func TestFind_StraightDiagonal(t *testing.T) {
	const size = 30
	tr := newTerrain(size, size)
	u := squaddieAt(0, 0)

	check := func() {
		t.Helper()
		path, cost, ok := Find(u, size-1, size-1, tr)
		if !ok {
			t.Fatalf("no path")
		}
		if cost != (size-1)*units.DiagonalCost || Total(path) != cost {
			t.Fatalf("cost=%d total=%d", cost, Total(path))
		}
		if len(path) != size-1 {
			t.Fatalf("len=%d", len(path))
		}
		for i, p := range path {
			if p.X != i+1 || p.Y != i+1 || p.Facing != units.Bottom || p.Cost != units.DiagonalCost {
				t.Fatalf("step %d = %+v", i, p)
			}
		}
	}
	check()

	// blocked on one side of the first diagonal is still passable
	tr.AddLeftWall(1, 0, tiles.Ruin1)
	check()

	tr.AddTopWall(0, 1, tiles.Ruin1)
	if _, _, ok := Find(u, size-1, size-1, tr); ok {
		t.Fatalf("path escaped a boxed-in corner")
	}
}

func TestFind_DestinationTaken(t *testing.T) {
	tr := newTerrain(10, 10)
	tr.taken[[2]int{5, 5}] = true
	if _, _, ok := Find(squaddieAt(0, 0), 5, 5, tr); ok {
		t.Fatalf("found a path onto a taken cell")
	}
	if _, _, ok := Find(squaddieAt(0, 0), 50, 5, tr); ok {
		t.Fatalf("found a path off the map")
	}
}

func TestFind_CostOrdering(t *testing.T) {
	tr := newTerrain(10, 10)
	_, lateral, _ := Find(squaddieAt(0, 0), 1, 0, tr)
	_, diagonal, _ := Find(squaddieAt(0, 0), 1, 1, tr)
	if !(diagonal > lateral) {
		t.Fatalf("diagonal %d not above lateral %d", diagonal, lateral)
	}
}

func TestFind_OptimalAroundObstacles(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for trial := 0; trial < 20; trial++ {
		tr := newTerrain(12, 12)
		for i := 0; i < 25; i++ {
			tr.taken[[2]int{rng.Intn(12), rng.Intn(12)}] = true
		}
		delete(tr.taken, [2]int{0, 0})
		want := dijkstra(tr, 0, 0)
		for x := 0; x < 12; x++ {
			for y := 0; y < 12; y++ {
				if x == 0 && y == 0 {
					continue
				}
				_, cost, ok := Find(squaddieAt(0, 0), x, y, tr)
				w, reachable := want[[2]int{x, y}]
				if ok != reachable || (ok && int(cost) != w) {
					t.Fatalf("trial %d (%d,%d): got %d,%v want %d,%v", trial, x, y, cost, ok, w, reachable)
				}
			}
		}
	}
}

// dijkstra is a brute-force reference over the same neighbour rules.
func dijkstra(tr openTerrain, sx, sy int) map[[2]int]int {
	dist := map[[2]int]int{{sx, sy}: 0}
	for changed := true; changed; {
		changed = false
		for k, d := range dist {
			for _, dir := range dirs {
				nx, ny := k[0]+dir[0], k[1]+dir[1]
				if !tr.InBounds(nx, ny) || tr.Taken(nx, ny) || tr.WallBetween(k[0], k[1], nx, ny) {
					continue
				}
				nd := d + int(units.StepCost(dir[0], dir[1]))
				if old, ok := dist[[2]int{nx, ny}]; !ok || nd < old {
					dist[[2]int{nx, ny}] = nd
					changed = true
				}
			}
		}
	}
	delete(dist, [2]int{sx, sy})
	return dist
}

func TestAffordable(t *testing.T) {
	path := []PathPoint{{Cost: 2}, {Cost: 3}, {Cost: 3}}
	if got := Affordable(path, 5); len(got) != 2 {
		t.Fatalf("len=%d", len(got))
	}
	if got := Affordable(path, 1); len(got) != 0 {
		t.Fatalf("len=%d", len(got))
	}
}

func TestReachable_MatchesFind(t *testing.T) {
	g := newTerrain(12, 12)
	g.AddLeftWall(4, 3, tiles.Ruin1)
	g.taken[[2]int{5, 5}] = true
	u := squaddieAt(3, 3)

	r := Reachable(u, g, 20)
	if c, ok := r.Cost(3, 3); !ok || c != 0 {
		t.Fatalf("start cost %d %v", c, ok)
	}
	if _, ok := r.Cost(5, 5); ok {
		t.Fatalf("taken cell reachable")
	}
	r.Each(12, 12, func(x, y int, cost uint16) {
		if cost > 20 {
			t.Fatalf("(%d,%d) over budget: %d", x, y, cost)
		}
		if x == 3 && y == 3 {
			return
		}
		_, want, ok := Find(u, x, y, g)
		if !ok || want != cost {
			t.Fatalf("(%d,%d): reach %d find %d %v", x, y, cost, want, ok)
		}
		path, _ := r.Path(x, y)
		if Total(path) != cost {
			t.Fatalf("(%d,%d): path total %d cost %d", x, y, Total(path), cost)
		}
	})
	if _, ok := r.Cost(11, 11); ok {
		t.Fatalf("far corner within budget 20")
	}
}
