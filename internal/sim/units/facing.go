package units

import "math"

// Facing is one of eight view directions. Axes are map axes, so Bottom points
// along +x+y and BottomRight along +x.
type Facing uint8

const (
	Bottom Facing = iota
	BottomLeft
	Left
	TopLeft
	Top
	TopRight
	Right
	BottomRight
)

var facingNames = [8]string{"Bottom", "BottomLeft", "Left", "TopLeft", "Top", "TopRight", "Right", "BottomRight"}

var facingDeltas = [8][2]int{
	Bottom:      {1, 1},
	BottomLeft:  {0, 1},
	Left:        {-1, 1},
	TopLeft:     {-1, 0},
	Top:         {-1, -1},
	TopRight:    {0, -1},
	Right:       {1, -1},
	BottomRight: {1, 0},
}

func (f Facing) Valid() bool { return f < 8 }

func (f Facing) String() string {
	if !f.Valid() {
		return "Unknown"
	}
	return facingNames[f]
}

// Delta is the one-cell step in this direction.
func (f Facing) Delta() (dx, dy int) {
	d := facingDeltas[f%8]
	return d[0], d[1]
}

// FacingFromDelta maps a one-cell step back to its facing.
func FacingFromDelta(dx, dy int) (Facing, bool) {
	for f, d := range facingDeltas {
		if d[0] == dx && d[1] == dy {
			return Facing(f), true
		}
	}
	return 0, false
}

// FacingFromPoints is the facing of a unit at (x1,y1) looking at (x2,y2).
func FacingFromPoints(x1, y1, x2, y2 int) Facing {
	deg := math.Atan2(float64(y2-y1), float64(x2-x1)) * 180 / math.Pi
	rot := math.Mod(deg+337.5, 360)
	if rot < 0 {
		rot += 360
	}
	return Facing(int(rot/45) % 8)
}

// Steps is the number of 45 degree turns between two facings, shortest way.
func (f Facing) Steps(to Facing) int {
	d := int(f) - int(to)
	if d < 0 {
		d = -d
	}
	if d > 4 {
		d = 8 - d
	}
	return d
}

// InCone reports whether the offset (x,y) from a viewer lies in its view cone.
func (f Facing) InCone(x, y int) bool {
	abs := func(v int) int {
		if v < 0 {
			return -v
		}
		return v
	}
	switch f {
	case Bottom:
		return x >= 0 && y >= 0
	case BottomLeft:
		return y >= 0 && abs(x) <= y
	case Left:
		return x <= 0 && y >= 0
	case TopLeft:
		return x <= 0 && -abs(y) >= x
	case Top:
		return x <= 0 && y <= 0
	case TopRight:
		return y <= 0 && -abs(x) >= y
	case Right:
		return x >= 0 && y <= 0
	case BottomRight:
		return x >= 0 && abs(y) <= x
	}
	return false
}

// CanSee combines the view cone with the sight range.
func (f Facing) CanSee(x, y int, sight float64) bool {
	return f.InCone(x, y) && DistanceUnder(x, y, sight)
}
