package units

type Side uint8

const (
	PlayerA Side = iota
	PlayerB
)

// Sides lists both sides in turn order.
var Sides = [2]Side{PlayerA, PlayerB}

func (s Side) Enemy() Side {
	if s == PlayerA {
		return PlayerB
	}
	return PlayerA
}

func (s Side) Valid() bool { return s == PlayerA || s == PlayerB }

func (s Side) String() string {
	switch s {
	case PlayerA:
		return "PlayerA"
	case PlayerB:
		return "PlayerB"
	}
	return "Unknown"
}
