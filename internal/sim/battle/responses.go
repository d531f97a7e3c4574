package battle

import (
	"encoding/gob"
	"math"

	"ruinfall.game/internal/sim/items"
	"ruinfall.game/internal/sim/units"
)

// Status is what a response reports after each playback step.
type Status struct {
	Finished bool
	// Blocking holds back the responses queued behind this one.
	Blocking bool
}

// Response is a fact the server tells one side. Step advances its playback
// on the client; dt is in seconds.
type Response interface {
	Step(dt float64, side units.Side, m *Map) Status
}

func init() {
	gob.Register(&NewState{})
	gob.Register(&SoundEffect{})
	gob.Register(&Walk{})
	gob.Register(&ThrownItem{})
	gob.Register(&Explosion{})
	gob.Register(&Bullet{})
	gob.Register(&Message{})
	gob.Register(&GameOver{})
	gob.Register(&InvalidCommand{})
}

var done = Status{Finished: true}

type GameStats struct {
	Won         bool
	UnitsLost   int
	UnitsKilled int
}

// NewState carries a redacted map that replaces the client's view.
type NewState struct {
	Map *Map

	applied bool
	spotted bool
	spotX   int
	spotY   int
}

func (r *NewState) Step(_ float64, side units.Side, m *Map) Status {
	if r.applied || r.Map == nil {
		return done
	}
	r.applied = true
	seen := map[uint8]bool{}
	for _, u := range m.EnemiesVisibleTo(side) {
		seen[u.ID] = true
	}
	m.MergeFrom(r.Map, side)
	for _, u := range m.EnemiesVisibleTo(side) {
		if !seen[u.ID] {
			r.spotted, r.spotX, r.spotY = true, u.X, u.Y
			break
		}
	}
	return done
}

// Spotted reports an enemy that became visible when this state was applied.
func (r *NewState) Spotted() (x, y int, ok bool) {
	return r.spotX, r.spotY, r.spotted
}

type SoundEffect struct {
	Name string
}

const (
	SoundWalk      = "walk"
	SoundExplosion = "explosion"
	SoundThrow     = "throw"
)

func (r *SoundEffect) Step(float64, units.Side, *Map) Status { return done }

// Walk paces one walking step.
type Walk struct {
	Time float64
}

const walkDuration = 0.2

func (r *Walk) Step(dt float64, _ units.Side, _ *Map) Status {
	r.Time += dt
	return Status{Finished: r.Time > walkDuration, Blocking: true}
}

type Message struct {
	Text string
}

func (r *Message) Step(float64, units.Side, *Map) Status { return done }

type GameOver struct {
	Stats GameStats
}

func (r *GameOver) Step(float64, units.Side, *Map) Status { return done }

// InvalidCommand tells the issuing side its last command changed nothing.
type InvalidCommand struct {
	Reason string
}

func (r *InvalidCommand) Step(float64, units.Side, *Map) Status { return done }

// Explosion animates one tile of a blast. Tiles further from the centre
// start later.
type Explosion struct {
	X, Y     int
	Time     float64
	Blocking bool
}

const (
	explosionDuration = 0.25
	explosionSpeed    = 10.0
)

func NewExplosion(x, y, cx, cy int, blocking bool) *Explosion {
	return &Explosion{X: x, Y: y, Blocking: blocking, Time: -units.Distance(x, y, cx, cy) / explosionSpeed}
}

// Frame is the animation frame 0..2, or -1 before the blast reaches the tile.
func (r *Explosion) Frame() int {
	if r.Time < 0 {
		return -1
	}
	return min(int(r.Time/explosionDuration*3), 2)
}

func (r *Explosion) Step(dt float64, _ units.Side, _ *Map) Status {
	r.Time += dt
	return Status{Finished: r.Time > explosionDuration, Blocking: r.Blocking}
}

// ThrownItem arcs an item from start to end.
type ThrownItem struct {
	Image          items.Image
	StartX, StartY float64
	EndX, EndY     float64
	Progress       float64
	Increment      float64
}

// A throw lasts distance/7.5 seconds, capped at one second.
const thrownSpeed = 7.5

func NewThrownItem(img items.Image, sx, sy, ex, ey int) *ThrownItem {
	d := math.Max(units.Distance(sx, sy, ex, ey), 1e-9)
	return &ThrownItem{
		Image:     img,
		StartX:    float64(sx),
		StartY:    float64(sy),
		EndX:      float64(ex),
		EndY:      float64(ey),
		Increment: thrownSpeed / math.Min(d, thrownSpeed),
	}
}

func (r *ThrownItem) X() float64      { return lerp(r.StartX, r.EndX, r.Progress) }
func (r *ThrownItem) Y() float64      { return lerp(r.StartY, r.EndY, r.Progress) }
func (r *ThrownItem) Height() float64 { return math.Sin(r.Progress * math.Pi) }

func (r *ThrownItem) Step(dt float64, _ units.Side, _ *Map) Status {
	r.Progress += r.Increment * dt
	return Status{Finished: r.Progress > 1, Blocking: true}
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

// Bullet flies from the shooter to its target, or off the map on a miss.
type Bullet struct {
	X, Y             float64
	Direction        float64
	Time             float64
	Done             bool
	Image            items.Image
	TargetX, TargetY float64
}

const (
	bulletSpeed   = 30.0
	bulletMinTime = 0.25
	// edgeMargin is how far past the map a missed bullet is drawn.
	edgeMargin = 5.0
	// MaxJitter bounds the deflection of a missed shot, in radians.
	MaxJitter = 0.2
)

// NewBullet aims at the target; a miss is deflected by jitter radians and
// carried on to just past the map edge.
func NewBullet(sx, sy, tx, ty int, wt items.WeaponType, hit bool, jitter float64, width, height int) *Bullet {
	x, y := float64(sx), float64(sy)
	targetX, targetY := float64(tx), float64(ty)
	dir := math.Atan2(targetY-y, targetX-x)
	if !hit {
		dir += jitter
		targetX, targetY = Extrapolate(x, y, x+math.Cos(dir), y+math.Sin(dir), width, height)
	}
	return &Bullet{X: x, Y: y, Direction: dir, Image: wt.Info().Bullet, TargetX: targetX, TargetY: targetY}
}

func (r *Bullet) Step(dt float64, _ units.Side, _ *Map) Status {
	r.Time += dt
	if !r.Done {
		left := r.X < r.TargetX
		above := r.Y < r.TargetY
		r.X += math.Cos(r.Direction) * bulletSpeed * dt
		r.Y += math.Sin(r.Direction) * bulletSpeed * dt
		r.Done = left != (r.X < r.TargetX) || above != (r.Y < r.TargetY)
	}
	return Status{Finished: r.Done && r.Time > bulletMinTime, Blocking: true}
}

// Extrapolate continues the line through (x1,y1) and (x2,y2) until it leaves
// the map plus margin, returning the exit point clamped to that box.
func Extrapolate(x1, y1, x2, y2 float64, width, height int) (float64, float64) {
	minX, minY := -edgeMargin, -edgeMargin
	maxX, maxY := float64(width)+edgeMargin, float64(height)+edgeMargin

	relX := minX
	if x2 > x1 {
		relX = maxX
	}
	relY := minY
	if y2 > y1 {
		relY = maxY
	}

	switch {
	case x2 == x1:
		return x1, relY
	case y2 == y1:
		return relX, y1
	}
	x := x2 + ((x2-x1)/(y2-y1))*(relY-y2)
	y := y2 + ((y2-y1)/(x2-x1))*(relX-x2)
	return math.Max(minX, math.Min(x, maxX)), math.Max(minY, math.Min(y, maxY))
}

// ServerResponses holds the two per-side response streams of one message.
type ServerResponses struct {
	bySide [2][]Response
}

func (r *ServerResponses) Push(side units.Side, resp Response) {
	r.bySide[side] = append(r.bySide[side], resp)
}

func (r *ServerResponses) PushBoth(resp func() Response) {
	for _, side := range units.Sides {
		r.Push(side, resp())
	}
}

// PushState sends each side its own redacted view of m.
func (r *ServerResponses) PushState(m *Map) {
	for _, side := range units.Sides {
		r.Push(side, &NewState{Map: m.Redact(side)})
	}
}

func (r *ServerResponses) PushMessage(text string) {
	r.PushBoth(func() Response { return &Message{Text: text} })
}

func (r *ServerResponses) For(side units.Side) []Response { return r.bySide[side] }

func (r *ServerResponses) Empty() bool {
	return len(r.bySide[0]) == 0 && len(r.bySide[1]) == 0
}
