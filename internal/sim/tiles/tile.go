package tiles

import "ruinfall.game/internal/sim/items"

// Image is a drawable tag for terrain, resolved by the presentation layer.
type Image string

const (
	Base1 Image = "base_1"
	Base2 Image = "base_2"

	ObjectRebar  Image = "object_rebar"
	ObjectRubble Image = "object_rubble"

	PitTop    Image = "pit_top"
	PitLeft   Image = "pit_left"
	PitRight  Image = "pit_right"
	PitBottom Image = "pit_bottom"
	PitTL     Image = "pit_tl"
	PitTR     Image = "pit_tr"
	PitBL     Image = "pit_bl"
	PitBR     Image = "pit_br"
	PitCenter Image = "pit_center"

	Skeleton        Image = "skeleton"
	SkeletonCracked Image = "skeleton_cracked"
	Rubble          Image = "rubble"
	Crater          Image = "crater"

	Ruin1Left Image = "ruin_1_left"
	Ruin1Top  Image = "ruin_1_top"
	Ruin2Left Image = "ruin_2_left"
	Ruin2Top  Image = "ruin_2_top"
)

type ObstacleKind uint8

const (
	Empty ObstacleKind = iota
	Object
	Pit
)

type Obstacle struct {
	Kind  ObstacleKind
	Image Image
}

type WallKind uint8

const (
	Ruin1 WallKind = iota + 1
	Ruin2
)

const WallHealth int16 = 50

func (k WallKind) LeftImage() Image {
	if k == Ruin2 {
		return Ruin2Left
	}
	return Ruin1Left
}

func (k WallKind) TopImage() Image {
	if k == Ruin2 {
		return Ruin2Top
	}
	return Ruin1Top
}

type Wall struct {
	Kind   WallKind
	Health int16
}

// WallSide names which of a tile's two wall slots is meant.
type WallSide uint8

const (
	LeftWall WallSide = iota
	TopWall
)

func (s WallSide) String() string {
	if s == TopWall {
		return "Top"
	}
	return "Left"
}

// Walls are the segments on a tile's left (-x) and top (-y) edges.
type Walls struct {
	Left *Wall
	Top  *Wall
}

func (w *Walls) SetLeft(k WallKind) {
	if w.Left == nil {
		w.Left = &Wall{Kind: k, Health: WallHealth}
	}
}

func (w *Walls) SetTop(k WallKind) {
	if w.Top == nil {
		w.Top = &Wall{Kind: k, Health: WallHealth}
	}
}

func (w Walls) clone() Walls {
	var c Walls
	if w.Left != nil {
		l := *w.Left
		c.Left = &l
	}
	if w.Top != nil {
		t := *w.Top
		c.Top = &t
	}
	return c
}

type Tile struct {
	Base     Image
	Obstacle Obstacle
	// Decoration is empty when the tile has none.
	Decoration Image
	Walls      Walls
	Items      []items.Item `json:",omitempty"`
}

func NewTile(base Image) Tile { return Tile{Base: base} }

func (t *Tile) IsPit() bool { return t.Obstacle.Kind == Pit }

func (t *Tile) setPit(img Image) {
	t.Obstacle = Obstacle{Kind: Pit, Image: img}
	t.Decoration = ""
}

// WalkOn crushes skeletons underfoot.
func (t *Tile) WalkOn() {
	if t.Decoration == Skeleton {
		t.Decoration = SkeletonCracked
	}
}

// RemoveItem takes the i-th item off the tile.
func (t *Tile) RemoveItem(i int) (items.Item, bool) {
	if i < 0 || i >= len(t.Items) {
		return items.Item{}, false
	}
	it := t.Items[i]
	t.Items = append(t.Items[:i:i], t.Items[i+1:]...)
	return it, true
}

func (t Tile) clone() Tile {
	c := t
	c.Walls = t.Walls.clone()
	c.Items = append([]items.Item(nil), t.Items...)
	return c
}
