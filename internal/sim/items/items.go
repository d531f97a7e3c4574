package items

import "fmt"

// Image is a drawable tag resolved by the presentation layer.
type Image string

const (
	ImageScrap            Image = "scrap"
	ImageSkeleton         Image = "skeleton"
	ImageSquaddieCorpse   Image = "squaddie_corpse"
	ImageMachineCorpse    Image = "machine_corpse"
	ImageRifle            Image = "rifle"
	ImageMachineGun       Image = "machine_gun"
	ImagePlasmaRifle      Image = "plasma_rifle"
	ImageRifleClip        Image = "rifle_clip"
	ImageMachineGunClip   Image = "machine_gun_clip"
	ImagePlasmaClip       Image = "plasma_clip"
	ImageBandages         Image = "bandages"
	ImageGrenade          Image = "grenade"
	ImagePrimedGrenade    Image = "primed_grenade"
	ImageRegularBullet    Image = "regular_bullet"
	ImagePlasmaBullet     Image = "plasma_bullet"
)

type Kind uint8

const (
	KindScrap Kind = iota + 1
	KindSkeleton
	KindSquaddieCorpse
	KindMachineCorpse
	KindRifle
	KindMachineGun
	KindPlasmaRifle
	KindRifleClip
	KindMachineGunClip
	KindPlasmaClip
	KindBandages
	KindGrenade
)

// Item is a value: moving it between a tile and an inventory copies it.
// Ammo is meaningful for weapons and clips, Primed for grenades.
type Item struct {
	Kind   Kind
	Ammo   uint8
	Primed bool
}

const (
	BandagesHeal int16 = 25

	GrenadeRadius = 3.0
	GrenadeDamage = 60
)

func Bandages() Item { return Item{Kind: KindBandages} }

func Grenade(primed bool) Item { return Item{Kind: KindGrenade, Primed: primed} }

// ClipFor returns a full clip for the given weapon type.
func ClipFor(t WeaponType) Item {
	c := t.Info().Capacity
	switch t {
	case MachineGun:
		return Item{Kind: KindMachineGunClip, Ammo: c}
	case PlasmaRifle:
		return Item{Kind: KindPlasmaClip, Ammo: c}
	default:
		return Item{Kind: KindRifleClip, Ammo: c}
	}
}

type kindInfo struct {
	name   string
	weight float64
	image  Image
}

var kinds = map[Kind]kindInfo{
	KindScrap:          {"Scrap", 5, ImageScrap},
	KindSkeleton:       {"Skeleton", 4, ImageSkeleton},
	KindSquaddieCorpse: {"Squaddie Corpse", 60, ImageSquaddieCorpse},
	KindMachineCorpse:  {"Machine Corpse", 150, ImageMachineCorpse},
	KindRifle:          {"Rifle", 4, ImageRifle},
	KindMachineGun:     {"Machine Gun", 7, ImageMachineGun},
	KindPlasmaRifle:    {"Plasma Rifle", 8, ImagePlasmaRifle},
	KindRifleClip:      {"Rifle Clip", 0.5, ImageRifleClip},
	KindMachineGunClip: {"Machine Gun Clip", 1, ImageMachineGunClip},
	KindPlasmaClip:     {"Plasma Clip", 1, ImagePlasmaClip},
	KindBandages:       {"Bandages", 0.25, ImageBandages},
	KindGrenade:        {"Grenade", 0.5, ImageGrenade},
}

func (it Item) Weight() float64 { return kinds[it.Kind].weight }

func (it Item) Image() Image {
	if it.Kind == KindGrenade && it.Primed {
		return ImagePrimedGrenade
	}
	return kinds[it.Kind].image
}

func (it Item) String() string {
	info, ok := kinds[it.Kind]
	if !ok {
		return "Unknown"
	}
	switch it.Kind {
	case KindRifle, KindMachineGun, KindPlasmaRifle, KindRifleClip, KindMachineGunClip, KindPlasmaClip:
		return fmt.Sprintf("%s (%d) - %g kg", info.name, it.Ammo, info.weight)
	case KindGrenade:
		if it.Primed {
			return fmt.Sprintf("Primed %s - %g kg", info.name, info.weight)
		}
	}
	return fmt.Sprintf("%s - %g kg", info.name, info.weight)
}

func (it Item) Valid() bool {
	_, ok := kinds[it.Kind]
	return ok
}

// Heal is the health restored by using the item; zero for anything but bandages.
func (it Item) Heal() int16 {
	if it.Kind == KindBandages {
		return BandagesHeal
	}
	return 0
}

// AmmoFor returns the rounds this item loads into a weapon of type t.
func (it Item) AmmoFor(t WeaponType) uint8 {
	switch {
	case it.Kind == KindRifleClip && t == Rifle,
		it.Kind == KindMachineGunClip && t == MachineGun,
		it.Kind == KindPlasmaClip && t == PlasmaRifle:
		return it.Ammo
	}
	return 0
}

// AsWeapon reports the weapon an item equips as, if any.
func (it Item) AsWeapon() (Weapon, bool) {
	switch it.Kind {
	case KindRifle:
		return NewWeapon(Rifle, it.Ammo), true
	case KindMachineGun:
		return NewWeapon(MachineGun, it.Ammo), true
	case KindPlasmaRifle:
		return NewWeapon(PlasmaRifle, it.Ammo), true
	}
	return Weapon{}, false
}

// Explosive describes the blast of an item that detonates on landing.
type Explosive struct {
	Radius float64
	Damage int16
}

func (it Item) Explosive() (Explosive, bool) {
	if it.Kind == KindGrenade && it.Primed {
		return Explosive{Radius: GrenadeRadius, Damage: GrenadeDamage}, true
	}
	return Explosive{}, false
}
