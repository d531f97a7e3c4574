package units

import "math"

const (
	Sight         = 7.5
	ThrowDistance = Sight * 1.5

	LateralCost  uint16 = 2
	DiagonalCost uint16 = 3
	ItemCost     uint16 = 5
	TurnCost     uint16 = 1
	ThrowCost    uint16 = 10
)

// StepCost is the move cost of a single step by (dx,dy).
func StepCost(dx, dy int) uint16 {
	if dx != 0 && dy != 0 {
		return DiagonalCost
	}
	return LateralCost
}

func Distance(ax, ay, bx, by int) float64 {
	return math.Hypot(float64(bx-ax), float64(by-ay))
}

// DistanceUnder is the range check shared by sight and throw validation.
func DistanceUnder(dx, dy int, v float64) bool {
	fx, fy := math.Abs(float64(dx)), math.Abs(float64(dy))
	return fx <= v && fy <= v && math.Hypot(fx, fy) <= v
}

// ChanceToHit falls off with distance; about 0.98 point blank and 0.5 near 8.5 tiles.
func ChanceToHit(d float64) float64 {
	return 1 / (1 + 0.02*math.Pow(4, d/3))
}
