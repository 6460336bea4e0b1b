package synthesis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPingPong(t *testing.T) {
	cases := map[float64]float64{
		0:    0,
		0.25: 0.25,
		1:    1,
		1.5:  0.5,
		2:    0,
		3.75: 0.25,
	}
	for in, want := range cases {
		assert.InDelta(t, want, PingPong(in), 1e-12, "PingPong(%v)", in)
	}
}

func TestEaseOutQuad(t *testing.T) {
	assert.Equal(t, 0.0, EaseOutQuad(0))
	assert.Equal(t, 1.0, EaseOutQuad(1))
	assert.InDelta(t, 0.75, EaseOutQuad(0.5), 1e-12)

	prev := -1.0
	for x := 0.0; x <= 1.0; x += 0.01 {
		v := EaseOutQuad(x)
		assert.GreaterOrEqual(t, v, prev)
		prev = v
	}
}

func TestCursor_AdvanceUsesRate(t *testing.T) {
	c := NewCursor(0.5)
	c.Advance(1)
	assert.InDelta(t, 0.5, c.Raw(), 1e-12)
	assert.InDelta(t, 0.75, c.T(), 1e-12)

	// one full cycle returns to the coarse end
	c.Advance(3)
	assert.InDelta(t, 0, c.T(), 1e-12)
	assert.Equal(t, 0, c.Level(9))
}

func TestCursor_MonotonicSweep(t *testing.T) {
	const numLevels = 9
	const samples = 4000

	c := NewCursor(1)
	var rising, falling []int
	for k := 0; k <= samples; k++ {
		raw := 2 * float64(k) / samples
		c.SetRaw(raw)
		if raw <= 1 {
			rising = append(rising, c.Level(numLevels))
		} else {
			falling = append(falling, c.Level(numLevels))
		}
	}

	require.Equal(t, 0, rising[0])
	require.Equal(t, numLevels-1, rising[len(rising)-1])
	require.Equal(t, 0, falling[len(falling)-1])

	for k := 1; k < len(rising); k++ {
		assert.GreaterOrEqual(t, rising[k], rising[k-1])
	}
	for k := 1; k < len(falling); k++ {
		assert.LessOrEqual(t, falling[k], falling[k-1])
	}

	seenUp := map[int]bool{}
	for _, l := range rising {
		seenUp[l] = true
	}
	seenDown := map[int]bool{numLevels - 1: true}
	for _, l := range falling {
		seenDown[l] = true
	}
	for l := 0; l < numLevels; l++ {
		assert.True(t, seenUp[l], "level %d not visited on the way up", l)
		assert.True(t, seenDown[l], "level %d not visited on the way down", l)
	}
}

func TestLevelAt_SingleLevel(t *testing.T) {
	assert.Equal(t, 0, LevelAt(0.9, 1))
}
