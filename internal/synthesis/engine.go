// Stochastic multiresolution resynthesis driven by analyzed statistics
package synthesis

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"photosynthesis/internal/pyramid"
)

// Engine owns the synthesis pyramid and the cursor sweeping through it.
//
// Statistics (means and stds) are replaced wholesale by ApplyStatistics, while the
// color samples are the living state mutated one level per Step. Step and
// DisplayBuffer must be called from a single goroutine; ApplyStatistics may be
// called concurrently with them.
type Engine struct {
	statsMu sync.Mutex
	synth   *pyramid.Pyramid

	cursor  *Cursor
	source  Source
	display []float64
	active  int
	logger  logrus.FieldLogger
}

type engineOptions struct {
	rate     float64
	source   Source
	defaults pyramid.Defaults
	logger   logrus.FieldLogger
}

// Option configures an Engine
type Option func(*engineOptions)

// WithRate sets the cursor rate in sweeps-per-second units of the raw accumulator
func WithRate(rate float64) Option {
	return func(o *engineOptions) { o.rate = rate }
}

// WithSource injects the noise source
func WithSource(src Source) Option {
	return func(o *engineOptions) { o.source = src }
}

// WithDefaults overrides the flat-start statistics
func WithDefaults(d pyramid.Defaults) Option {
	return func(o *engineOptions) { o.defaults = d }
}

// WithLogger sets the logger
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *engineOptions) { o.logger = logger }
}

// NewEngine creates an engine in the flat-start state for base resolution res
func NewEngine(res int, opts ...Option) (*Engine, error) {
	o := engineOptions{
		rate:     DefaultRate,
		defaults: pyramid.DefaultStart(),
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.source == nil {
		o.source = NewUniformSource(uint64(time.Now().UnixNano()))
	}

	synth, err := pyramid.NewSynthesis(res, o.defaults)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		synth:   synth,
		cursor:  NewCursor(o.rate),
		source:  o.source,
		display: make([]float64, pyramid.Channels*res*res),
		logger:  o.logger.WithField("component", "synthesis"),
	}
	e.upsample(&synth.Levels[0])

	e.logger.WithFields(logrus.Fields{
		"resolution": res,
		"levels":     synth.NumLevels(),
		"rate":       o.rate,
	}).Debug("Synthesis engine created")

	return e, nil
}

// ApplyStatistics copies every level's means and stds from an analyzed pyramid.
// Sample arrays are left untouched so the texture blends toward the new statistics.
func (e *Engine) ApplyStatistics(p *pyramid.Pyramid) error {
	if p == nil || p.Res != e.synth.Res || p.NumLevels() != e.synth.NumLevels() {
		got := 0
		if p != nil {
			got = p.Res
		}
		return fmt.Errorf("%w: analyzed pyramid resolution %d does not match engine resolution %d",
			pyramid.ErrInvalidImageDimensions, got, e.synth.Res)
	}

	e.statsMu.Lock()
	defer e.statsMu.Unlock()

	for n := range e.synth.Levels {
		dst := &e.synth.Levels[n]
		src := &p.Levels[n]
		dst.Color.Mean = src.Color.Mean
		dst.Color.Std = src.Color.Std
		dst.Delta.Mean = src.Delta.Mean
		dst.Delta.Std = src.Delta.Std
	}

	e.logger.WithField("levels", p.NumLevels()).Debug("Statistics applied")
	return nil
}

// Step advances the cursor by dt and regenerates the active level only
func (e *Engine) Step(dt time.Duration) {
	if dt > 0 {
		e.cursor.Advance(dt.Seconds())
	}

	idx := e.cursor.Level(e.synth.NumLevels())
	if idx != e.active {
		e.logger.WithFields(logrus.Fields{
			"from": e.active,
			"to":   idx,
		}).Trace("Active level changed")
	}
	e.active = idx

	level := &e.synth.Levels[idx]

	e.statsMu.Lock()
	mean := level.Color.Mean
	spread := level.Delta.Std
	e.statsMu.Unlock()

	if idx == 0 {
		e.regenerateRoot(level, mean)
	} else {
		e.regenerate(level, &e.synth.Levels[idx-1], spread)
	}

	e.upsample(level)
}

func (e *Engine) regenerateRoot(level *pyramid.Level, mean [pyramid.Channels]float64) {
	s := level.Color.Samples
	for i := 0; i < len(s); i += pyramid.Channels {
		s[i] = mean[0]
		s[i+1] = mean[1]
		s[i+2] = mean[2]
		s[i+3] = pyramid.Opaque
	}
}

// regenerate resamples level from the parent's current samples plus scaled noise
func (e *Engine) regenerate(level, parent *pyramid.Level, spread [pyramid.Channels]float64) {
	for i := 0; i < level.Res; i++ {
		pi := pyramid.NearestIndex(i, level.Res, parent.Res)
		for j := 0; j < level.Res; j++ {
			pj := pyramid.NearestIndex(j, level.Res, parent.Res)
			src := parent.Index(pi, pj, 0)
			dst := level.Index(i, j, 0)
			for c := 0; c < pyramid.Channels-1; c++ {
				level.Color.Samples[dst+c] = parent.Color.Samples[src+c] + spread[c]*e.source.Uniform()
			}
			level.Color.Samples[dst+3] = pyramid.Opaque
		}
	}
}

// upsample fills the display buffer from level by nearest-neighbour lookup
func (e *Engine) upsample(level *pyramid.Level) {
	res := e.synth.Res
	for i := 0; i < res; i++ {
		li := pyramid.NearestIndex(i, res, level.Res)
		for j := 0; j < res; j++ {
			lj := pyramid.NearestIndex(j, res, level.Res)
			src := level.Index(li, lj, 0)
			dst := (i*res + j) * pyramid.Channels
			copy(e.display[dst:dst+pyramid.Channels], level.Color.Samples[src:src+pyramid.Channels])
		}
	}
}

// DisplayBuffer returns the full-resolution RGBA frame computed by the last Step.
// The slice is owned by the engine and is overwritten by the next Step.
func (e *Engine) DisplayBuffer() []float64 {
	return e.display
}

// ActiveLevel returns the level regenerated by the last Step
func (e *Engine) ActiveLevel() int {
	return e.active
}

// T returns the eased cursor position in [0, 1]
func (e *Engine) T() float64 {
	return e.cursor.T()
}

// Cursor exposes the animation cursor
func (e *Engine) Cursor() *Cursor {
	return e.cursor
}

// Res returns the base resolution
func (e *Engine) Res() int {
	return e.synth.Res
}

// NumLevels returns the number of pyramid levels
func (e *Engine) NumLevels() int {
	return e.synth.NumLevels()
}

// Statistics returns a deep copy of the synthesis pyramid. Samples are copied too,
// so it must not run concurrently with Step.
func (e *Engine) Statistics() *pyramid.Pyramid {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	return e.synth.Clone()
}
