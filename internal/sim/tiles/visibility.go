package tiles

import "fmt"

type VisKind uint8

const (
	Invisible VisKind = iota
	Foggy
	Visible
)

// Visibility of one cell for one side. The zero value is invisible.
type Visibility struct {
	Kind VisKind
	// Distance is the step-cost distance to the nearest viewer, set when Visible.
	Distance uint8
}

func VisibleAt(distance uint8) Visibility { return Visibility{Kind: Visible, Distance: distance} }

var (
	FoggyVis     = Visibility{Kind: Foggy}
	InvisibleVis = Visibility{}
)

func (v Visibility) IsVisible() bool   { return v.Kind == Visible }
func (v Visibility) IsFoggy() bool     { return v.Kind == Foggy }
func (v Visibility) IsInvisible() bool { return v.Kind == Invisible }

func (v Visibility) distance() uint8 {
	if v.Kind == Visible {
		return v.Distance
	}
	return 255
}

func (v Visibility) String() string {
	switch v.Kind {
	case Visible:
		return fmt.Sprintf("Visible(%d)", v.Distance)
	case Foggy:
		return "Foggy"
	}
	return "Invisible"
}

// combine takes the more informative of two visibilities.
func combine(a, b Visibility) Visibility {
	switch {
	case a.IsVisible() || b.IsVisible():
		return VisibleAt(min(a.distance(), b.distance()))
	case a.IsFoggy() || b.IsFoggy():
		return FoggyVis
	}
	return InvisibleVis
}
