package items

import "fmt"

type WeaponType uint8

const (
	Rifle WeaponType = iota + 1
	MachineGun
	PlasmaRifle
)

// WeaponInfo holds the static stats of a weapon type.
type WeaponInfo struct {
	Name        string
	Cost        uint16
	Damage      int16
	Capacity    uint8
	HitModifier float64
	Weight      float64
	Bullet      Image
	Sound       string
}

var weaponInfo = map[WeaponType]WeaponInfo{
	Rifle:       {Name: "Rifle", Cost: 10, Damage: 25, Capacity: 6, HitModifier: 0.9, Weight: 4, Bullet: ImageRegularBullet, Sound: "regular_shot"},
	MachineGun:  {Name: "Machine Gun", Cost: 15, Damage: 30, Capacity: 12, HitModifier: 0.8, Weight: 7, Bullet: ImageRegularBullet, Sound: "regular_shot"},
	PlasmaRifle: {Name: "Plasma Rifle", Cost: 12, Damage: 60, Capacity: 8, HitModifier: 1.0, Weight: 8, Bullet: ImagePlasmaBullet, Sound: "plasma_shot"},
}

func (t WeaponType) Info() WeaponInfo { return weaponInfo[t] }

func (t WeaponType) Valid() bool {
	_, ok := weaponInfo[t]
	return ok
}

func (t WeaponType) String() string {
	if info, ok := weaponInfo[t]; ok {
		return info.Name
	}
	return "Unknown"
}

// Weapon is the weapon a unit is holding and its loaded ammo.
type Weapon struct {
	Type WeaponType
	Ammo uint8
}

func NewWeapon(t WeaponType, ammo uint8) Weapon {
	if c := t.Info().Capacity; ammo > c {
		ammo = c
	}
	return Weapon{Type: t, Ammo: ammo}
}

func (w Weapon) CanFire() bool { return w.Ammo > 0 }

// CanReload reports whether a clip holding ammo rounds is worth loading.
func (w Weapon) CanReload(ammo uint8) bool {
	return ammo > w.Ammo
}

// Reload swaps in a clip; the partially used clip is discarded.
func (w *Weapon) Reload(ammo uint8) bool {
	if !w.CanReload(ammo) {
		return false
	}
	w.Ammo = ammo
	if c := w.Type.Info().Capacity; w.Ammo > c {
		w.Ammo = c
	}
	return true
}

// ToItem turns the held weapon back into an inventory item.
func (w Weapon) ToItem() Item {
	switch w.Type {
	case MachineGun:
		return Item{Kind: KindMachineGun, Ammo: w.Ammo}
	case PlasmaRifle:
		return Item{Kind: KindPlasmaRifle, Ammo: w.Ammo}
	default:
		return Item{Kind: KindRifle, Ammo: w.Ammo}
	}
}

func (w Weapon) String() string {
	return fmt.Sprintf("%s (%d/%d)", w.Type, w.Ammo, w.Type.Info().Capacity)
}
