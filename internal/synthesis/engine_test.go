package synthesis

import (
	"io"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photosynthesis/internal/analysis"
	"photosynthesis/internal/pyramid"
)

const fixedDt = time.Second / 60

// cycleSource replays a fixed list of values
type cycleSource struct {
	values []float64
	next   int
}

func (s *cycleSource) Uniform() float64 {
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestEngine(t *testing.T, res int, src Source) *Engine {
	t.Helper()
	e, err := NewEngine(res, WithSource(src), WithLogger(quietLogger()))
	require.NoError(t, err)
	return e
}

func analyzedRandom(t *testing.T, res int, seed uint64) *pyramid.Pyramid {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed+1))
	pixels := make([]uint8, 4*res*res)
	for i := range pixels {
		pixels[i] = uint8(rng.IntN(256))
	}
	p, err := analysis.Analyze(pixels, res)
	require.NoError(t, err)
	return p
}

func assertAllOpaque(t *testing.T, p *pyramid.Pyramid) {
	t.Helper()
	for _, level := range p.Levels {
		for i := 3; i < len(level.Color.Samples); i += pyramid.Channels {
			require.Equal(t, pyramid.Opaque, level.Color.Samples[i], "level %d sample %d", level.N, i/4)
		}
	}
}

func TestNewEngine_RejectsBadResolution(t *testing.T) {
	_, err := NewEngine(48, WithLogger(quietLogger()))
	assert.ErrorIs(t, err, pyramid.ErrInvalidConfiguration)
}

func TestEngine_FlatStart(t *testing.T) {
	e := newTestEngine(t, 16, NewUniformSource(1))

	// sweep through several cycles; every root pass must reproduce the default mean
	for k := 0; k < 600; k++ {
		e.Step(fixedDt)
		if e.ActiveLevel() != 0 {
			continue
		}
		buf := e.DisplayBuffer()
		require.Len(t, buf, 4*16*16)
		for i := 0; i < len(buf); i += 4 {
			require.Equal(t, 128.0, buf[i])
			require.Equal(t, 128.0, buf[i+1])
			require.Equal(t, 128.0, buf[i+2])
			require.Equal(t, 255.0, buf[i+3])
		}
	}
}

func TestEngine_FirstStepIsRoot(t *testing.T) {
	e := newTestEngine(t, 8, NewUniformSource(1))
	e.Step(0)
	assert.Equal(t, 0, e.ActiveLevel())
	assert.Equal(t, 128.0, e.DisplayBuffer()[0])
}

func TestEngine_NoiseBound(t *testing.T) {
	src := &cycleSource{values: []float64{-1, 1, 0.5, -0.25, 0.999, -0.999, 0}}
	e := newTestEngine(t, 32, src)
	require.NoError(t, e.ApplyStatistics(analyzedRandom(t, 32, 11)))

	checked := 0
	for k := 0; k < 480; k++ {
		e.Step(fixedDt)
		idx := e.ActiveLevel()
		if idx == 0 {
			continue
		}
		level := &e.synth.Levels[idx]
		parent := &e.synth.Levels[idx-1]
		for i := 0; i < level.Res; i++ {
			for j := 0; j < level.Res; j++ {
				pi := pyramid.NearestIndex(i, level.Res, parent.Res)
				pj := pyramid.NearestIndex(j, level.Res, parent.Res)
				for c := 0; c < 3; c++ {
					diff := math.Abs(level.Color.Samples[level.Index(i, j, c)] - parent.Color.Samples[parent.Index(pi, pj, c)])
					require.LessOrEqual(t, diff, level.Delta.Std[c]+1e-9)
				}
			}
		}
		checked++
	}
	assert.Greater(t, checked, 0)
}

func TestEngine_NoiseBoundWithUniformSource(t *testing.T) {
	src := NewUniformSource(42)
	for k := 0; k < 10000; k++ {
		v := src.Uniform()
		require.GreaterOrEqual(t, v, -1.0)
		require.LessOrEqual(t, v, 1.0)
	}
}

func TestEngine_AlphaInvariant(t *testing.T) {
	e := newTestEngine(t, 16, NewUniformSource(3))
	assertAllOpaque(t, e.Statistics())

	require.NoError(t, e.ApplyStatistics(analyzedRandom(t, 16, 5)))
	assertAllOpaque(t, e.Statistics())

	for k := 0; k < 300; k++ {
		e.Step(fixedDt)
		if k%25 == 0 {
			assertAllOpaque(t, e.Statistics())
		}
		buf := e.DisplayBuffer()
		for i := 3; i < len(buf); i += 4 {
			require.Equal(t, 255.0, buf[i])
		}
	}
}

func TestEngine_ApplyStatisticsCopiesStatsOnly(t *testing.T) {
	e := newTestEngine(t, 8, NewUniformSource(1))
	before := e.Statistics()

	analyzed := analyzedRandom(t, 8, 9)
	require.NoError(t, e.ApplyStatistics(analyzed))
	after := e.Statistics()

	for n := range after.Levels {
		assert.Equal(t, analyzed.Levels[n].Color.Mean, after.Levels[n].Color.Mean)
		assert.Equal(t, analyzed.Levels[n].Color.Std, after.Levels[n].Color.Std)
		assert.Equal(t, analyzed.Levels[n].Delta.Mean, after.Levels[n].Delta.Mean)
		assert.Equal(t, analyzed.Levels[n].Delta.Std, after.Levels[n].Delta.Std)
		assert.Equal(t, before.Levels[n].Color.Samples, after.Levels[n].Color.Samples)
	}
}

func TestEngine_ApplyStatisticsRejectsMismatch(t *testing.T) {
	e := newTestEngine(t, 8, NewUniformSource(1))
	before := e.Statistics()

	err := e.ApplyStatistics(analyzedRandom(t, 16, 1))
	assert.ErrorIs(t, err, pyramid.ErrInvalidImageDimensions)
	assert.ErrorIs(t, e.ApplyStatistics(nil), pyramid.ErrInvalidImageDimensions)
	assert.Equal(t, before, e.Statistics())
}

func TestEngine_StepTouchesOnlyActiveLevel(t *testing.T) {
	e := newTestEngine(t, 16, NewUniformSource(8))
	require.NoError(t, e.ApplyStatistics(analyzedRandom(t, 16, 2)))

	for k := 0; k < 200; k++ {
		before := e.Statistics()
		e.Step(fixedDt)
		after := e.Statistics()
		for n := range after.Levels {
			if n == e.ActiveLevel() {
				continue
			}
			require.Equal(t, before.Levels[n].Color.Samples, after.Levels[n].Color.Samples, "step %d level %d", k, n)
		}
	}
}

func TestEngine_DisplayIsUpsampledActiveLevel(t *testing.T) {
	e := newTestEngine(t, 16, NewUniformSource(4))
	require.NoError(t, e.ApplyStatistics(analyzedRandom(t, 16, 4)))

	e.Cursor().SetRaw(0.5)
	e.Step(0)
	idx := e.ActiveLevel()
	require.Greater(t, idx, 0)

	level := e.synth.Levels[idx]
	buf := e.DisplayBuffer()
	for i := 0; i < 16; i++ {
		for j := 0; j < 16; j++ {
			li := i * level.Res / 16
			lj := j * level.Res / 16
			for c := 0; c < 4; c++ {
				require.Equal(t, level.Color.Samples[level.Index(li, lj, c)], buf[(i*16+j)*4+c])
			}
		}
	}
}

func TestEngine_DeterministicWithSeed(t *testing.T) {
	run := func() []float64 {
		e := newTestEngine(t, 16, NewUniformSource(99))
		require.NoError(t, e.ApplyStatistics(analyzedRandom(t, 16, 12)))
		for k := 0; k < 90; k++ {
			e.Step(fixedDt)
		}
		out := make([]float64, len(e.DisplayBuffer()))
		copy(out, e.DisplayBuffer())
		return out
	}
	assert.Equal(t, run(), run())
}

func TestEngine_RootFollowsAppliedMean(t *testing.T) {
	e := newTestEngine(t, 8, NewUniformSource(1))
	analyzed := analyzedRandom(t, 8, 21)
	require.NoError(t, e.ApplyStatistics(analyzed))

	e.Step(0)
	require.Equal(t, 0, e.ActiveLevel())
	buf := e.DisplayBuffer()
	for c := 0; c < 3; c++ {
		assert.InDelta(t, analyzed.Levels[0].Color.Mean[c], buf[c], 1e-12)
	}
	assert.Equal(t, 255.0, buf[3])
}

func TestNewSource(t *testing.T) {
	_, err := NewSource(NoiseGaussian, 1)
	assert.NoError(t, err)
	_, err = NewSource("pink", 1)
	assert.Error(t, err)
}
