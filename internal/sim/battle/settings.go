package battle

import "ruinfall.game/internal/sim/units"

const (
	MinMapSize = 10
	MaxMapSize = 60
	MaxLight   = 10
)

// Skirmish describes a fresh battle.
type Skirmish struct {
	Width        int
	Height       int
	PlayerAUnits int
	PlayerBUnits int
	PlayerAType  units.UnitType
	PlayerBType  units.UnitType
	// Light runs 0 (night) to 10 (day).
	Light int
}

func DefaultSkirmish() Skirmish {
	return Skirmish{
		Width:        30,
		Height:       30,
		PlayerAUnits: 6,
		PlayerBUnits: 4,
		PlayerAType:  units.Squaddie,
		PlayerBType:  units.Machine,
		Light:        10,
	}
}

// Clamped keeps sizes playable and unit counts within one row of the map.
func (s Skirmish) Clamped() Skirmish {
	s.Width = clamp(s.Width, MinMapSize, MaxMapSize)
	s.Height = clamp(s.Height, MinMapSize, MaxMapSize)
	s.PlayerAUnits = clamp(s.PlayerAUnits, 1, s.Width)
	s.PlayerBUnits = clamp(s.PlayerBUnits, 1, s.Width)
	s.Light = clamp(s.Light, 0, MaxLight)
	if !s.PlayerAType.Valid() {
		s.PlayerAType = units.Squaddie
	}
	if !s.PlayerBType.Valid() {
		s.PlayerBType = units.Machine
	}
	return s
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
