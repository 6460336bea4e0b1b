// Session: control surface tying upload analysis to the running synthesis loop
package core

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"photosynthesis/internal/analysis"
	"photosynthesis/internal/config"
	"photosynthesis/internal/pyramid"
	"photosynthesis/internal/raster"
	"photosynthesis/internal/synthesis"
)

// Snapshot records one accepted analysis
type Snapshot struct {
	ID      uuid.UUID
	At      time.Time
	Pyramid *pyramid.Pyramid
}

// Status describes the loop after an Advance
type Status struct {
	Steps       int
	ActiveLevel int
	NumLevels   int
	T           float64
}

// Session owns a synthesis engine and drives it with a fixed-timestep catch-up loop.
// All methods are safe for concurrent use.
type Session struct {
	mu          sync.Mutex
	engine      *synthesis.Engine
	fixedStep   time.Duration
	maxFrame    time.Duration
	accumulator time.Duration
	frame       *image.RGBA
	stats       LoopStats

	snapMu sync.RWMutex
	last   *Snapshot

	logger logrus.FieldLogger
}

// NewSession validates cfg and builds an engine in the flat-start state
func NewSession(cfg config.Config, logger logrus.FieldLogger) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	src, err := synthesis.NewSource(cfg.Noise, cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pyramid.ErrInvalidConfiguration, err)
	}

	engine, err := synthesis.NewEngine(cfg.Resolution,
		synthesis.WithRate(cfg.Rate),
		synthesis.WithSource(src),
		synthesis.WithDefaults(cfg.Defaults()),
		synthesis.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	frame, err := raster.ToRGBA(engine.DisplayBuffer(), cfg.Resolution)
	if err != nil {
		return nil, err
	}

	s := &Session{
		engine:    engine,
		fixedStep: cfg.FixedStep,
		maxFrame:  cfg.MaxFrameTime,
		frame:     frame,
		logger:    logger.WithField("component", "session"),
	}

	s.logger.WithFields(logrus.Fields{
		"resolution": cfg.Resolution,
		"levels":     engine.NumLevels(),
		"fixed_step": cfg.FixedStep,
		"noise":      cfg.Noise,
		"seed":       cfg.Seed,
	}).Info("Session started")

	return s, nil
}

// HandleImage analyzes a res x res RGBA buffer and swaps its statistics into the
// engine. A rejected buffer leaves all state unchanged.
func (s *Session) HandleImage(pixels []uint8) (Snapshot, error) {
	start := time.Now()

	// analysis runs outside the session lock; only the finished pyramid is handed over
	analyzed, err := analysis.Analyze(pixels, s.engine.Res())
	if err != nil {
		s.logger.WithError(err).Warn("Image rejected")
		return Snapshot{}, err
	}

	if err := s.engine.ApplyStatistics(analyzed); err != nil {
		s.logger.WithError(err).Error("Failed to apply statistics")
		return Snapshot{}, err
	}

	snap := Snapshot{
		ID:      uuid.New(),
		At:      time.Now(),
		Pyramid: analyzed,
	}

	s.snapMu.Lock()
	s.last = &snap
	s.snapMu.Unlock()

	base := analyzed.Levels[0]
	s.logger.WithFields(logrus.Fields{
		"analysis_id": snap.ID.String(),
		"mean":        base.Color.Mean,
		"fine_std":    analyzed.Base().Delta.Std,
		"duration":    time.Since(start),
	}).Info("Image analyzed")

	return snap, nil
}

// Advance feeds elapsed wall time into the loop. Elapsed time is clamped to the
// maximum frame time, then drained in fixed steps. Returns the resulting status.
func (s *Session) Advance(elapsed time.Duration) Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > s.maxFrame {
		s.logger.WithFields(logrus.Fields{
			"elapsed": elapsed,
			"limit":   s.maxFrame,
		}).Debug("Frame time clamped")
		elapsed = s.maxFrame
		s.stats.Clamped++
	}
	s.accumulator += elapsed

	start := time.Now()
	steps := 0
	for s.accumulator >= s.fixedStep {
		s.accumulator -= s.fixedStep
		s.engine.Step(s.fixedStep)
		steps++
	}
	if steps > 0 {
		raster.WriteRGBA(s.frame, s.engine.DisplayBuffer())
	}

	s.stats.Frames++
	s.stats.Steps += steps
	s.stats.StepTime += time.Since(start)
	s.stats.Simulated += time.Duration(steps) * s.fixedStep

	return Status{
		Steps:       steps,
		ActiveLevel: s.engine.ActiveLevel(),
		NumLevels:   s.engine.NumLevels(),
		T:           s.engine.T(),
	}
}

// Frame returns a clamped copy of the current display buffer
func (s *Session) Frame() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := image.NewRGBA(s.frame.Rect)
	copy(out.Pix, s.frame.Pix)
	return out
}

// DisplayBuffer returns a copy of the unclamped display buffer
func (s *Session) DisplayBuffer() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := s.engine.DisplayBuffer()
	out := make([]float64, len(buf))
	copy(out, buf)
	return out
}

// Statistics returns a deep copy of the synthesis pyramid
func (s *Session) Statistics() *pyramid.Pyramid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Statistics()
}

// Reanalyze runs the analyzer over the current frame
func (s *Session) Reanalyze() (*pyramid.Pyramid, error) {
	frame := s.Frame()
	return analysis.Analyze(frame.Pix, s.engine.Res())
}

// LastSnapshot returns the most recent accepted analysis
func (s *Session) LastSnapshot() (Snapshot, bool) {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	if s.last == nil {
		return Snapshot{}, false
	}
	return *s.last, true
}

// Res returns the base resolution
func (s *Session) Res() int {
	return s.engine.Res()
}

// FixedStep returns the simulation timestep
func (s *Session) FixedStep() time.Duration {
	return s.fixedStep
}

// Run advances the session on every tick until ctx is cancelled. onFrame, when
// set, receives the status of every tick that ran at least one step.
func (s *Session) Run(ctx context.Context, tick time.Duration, onFrame func(Status)) error {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Session loop stopped")
			return ctx.Err()
		case now := <-ticker.C:
			status := s.Advance(now.Sub(last))
			last = now
			if status.Steps > 0 && onFrame != nil {
				onFrame(status)
			}
		}
	}
}
