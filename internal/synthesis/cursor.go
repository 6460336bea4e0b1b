package synthesis

import "math"

// DefaultRate advances the cursor at half real-time speed, one coarse-fine-coarse sweep every 4s
const DefaultRate = 0.5

// Cursor turns elapsed time into the active pyramid level
type Cursor struct {
	rate float64
	raw  float64
}

// NewCursor creates a cursor at the coarse end of the sweep
func NewCursor(rate float64) *Cursor {
	return &Cursor{rate: rate}
}

// Advance accumulates dt seconds of progress
func (c *Cursor) Advance(dt float64) {
	c.raw += dt * c.rate
}

// SetRaw positions the raw accumulator directly
func (c *Cursor) SetRaw(raw float64) {
	c.raw = raw
}

// Raw returns the unbounded accumulated progress
func (c *Cursor) Raw() float64 {
	return c.raw
}

// T returns the eased position in [0, 1]
func (c *Cursor) T() float64 {
	return EaseOutQuad(PingPong(c.raw))
}

// Level maps the cursor onto a level index of a pyramid with numLevels levels
func (c *Cursor) Level(numLevels int) int {
	return LevelAt(c.T(), numLevels)
}

// LevelAt rounds t onto the level indices 0..numLevels-1
func LevelAt(t float64, numLevels int) int {
	if numLevels <= 1 {
		return 0
	}
	return int(math.Round(t * float64(numLevels-1)))
}

// PingPong folds an unbounded value into a 0 -> 1 -> 0 triangle wave of period 2
func PingPong(x float64) float64 {
	p := math.Mod(x, 2)
	if p < 0 {
		p += 2
	}
	if p > 1 {
		return 2 - p
	}
	return p
}

// EaseOutQuad decelerates towards 1
func EaseOutQuad(x float64) float64 {
	return 1 - (1-x)*(1-x)
}
