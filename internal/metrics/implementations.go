// Concrete implementations of statistics-match metrics
package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"photosynthesis/internal/pyramid"
)

// colorChannels excludes alpha, which synthesis always forces opaque
const colorChannels = 3

// ColorStdError is the mean absolute difference of per-level color std
type ColorStdError struct{}

// NewColorStdError creates a new ColorStdError metric
func NewColorStdError() *ColorStdError {
	return &ColorStdError{}
}

func (m *ColorStdError) Calculate(source, synthesized *pyramid.Pyramid) (float64, error) {
	return meanAbsDiff(source, synthesized, 0, func(l *pyramid.Level) [pyramid.Channels]float64 {
		return l.Color.Std
	})
}

func (m *ColorStdError) GetName() string { return "Color Std Error" }
func (m *ColorStdError) GetDescription() string {
	return "Mean absolute difference between source and synthesized color standard deviation per level"
}
func (m *ColorStdError) GetRange() (float64, float64) { return 0, 128 }
func (m *ColorStdError) IsHigherBetter() bool         { return false }

// DeltaStdError is the mean absolute difference of per-level delta std, root excluded
type DeltaStdError struct{}

// NewDeltaStdError creates a new DeltaStdError metric
func NewDeltaStdError() *DeltaStdError {
	return &DeltaStdError{}
}

func (m *DeltaStdError) Calculate(source, synthesized *pyramid.Pyramid) (float64, error) {
	return meanAbsDiff(source, synthesized, 1, func(l *pyramid.Level) [pyramid.Channels]float64 {
		return l.Delta.Std
	})
}

func (m *DeltaStdError) GetName() string { return "Delta Std Error" }
func (m *DeltaStdError) GetDescription() string {
	return "Mean absolute difference between source and synthesized detail spread per level"
}
func (m *DeltaStdError) GetRange() (float64, float64) { return 0, 128 }
func (m *DeltaStdError) IsHigherBetter() bool         { return false }

// MeanError is the mean absolute difference of the global color mean
type MeanError struct{}

// NewMeanError creates a new MeanError metric
func NewMeanError() *MeanError {
	return &MeanError{}
}

func (m *MeanError) Calculate(source, synthesized *pyramid.Pyramid) (float64, error) {
	diffs := make([]float64, colorChannels)
	for c := 0; c < colorChannels; c++ {
		diffs[c] = math.Abs(source.Levels[0].Color.Mean[c] - synthesized.Levels[0].Color.Mean[c])
	}
	return stat.Mean(diffs, nil), nil
}

func (m *MeanError) GetName() string { return "Mean Error" }
func (m *MeanError) GetDescription() string {
	return "Mean absolute difference between source and synthesized global color mean"
}
func (m *MeanError) GetRange() (float64, float64) { return 0, 255 }
func (m *MeanError) IsHigherBetter() bool         { return false }

// StdCorrelation is the Pearson correlation of the delta std profiles across levels
type StdCorrelation struct{}

// NewStdCorrelation creates a new StdCorrelation metric
func NewStdCorrelation() *StdCorrelation {
	return &StdCorrelation{}
}

func (m *StdCorrelation) Calculate(source, synthesized *pyramid.Pyramid) (float64, error) {
	var x, y []float64
	for n := 1; n < source.NumLevels(); n++ {
		for c := 0; c < colorChannels; c++ {
			x = append(x, source.Levels[n].Delta.Std[c])
			y = append(y, synthesized.Levels[n].Delta.Std[c])
		}
	}
	if len(x) < 2 {
		return 0, fmt.Errorf("not enough levels for correlation")
	}

	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0, fmt.Errorf("correlation undefined for a constant std profile")
	}
	return r, nil
}

func (m *StdCorrelation) GetName() string { return "Std Correlation" }
func (m *StdCorrelation) GetDescription() string {
	return "Correlation between source and synthesized detail spread across levels and channels"
}
func (m *StdCorrelation) GetRange() (float64, float64) { return -1, 1 }
func (m *StdCorrelation) IsHigherBetter() bool         { return true }

func meanAbsDiff(source, synthesized *pyramid.Pyramid, from int, field func(*pyramid.Level) [pyramid.Channels]float64) (float64, error) {
	if source.NumLevels() != synthesized.NumLevels() {
		return 0, fmt.Errorf("level count mismatch: %d vs %d", source.NumLevels(), synthesized.NumLevels())
	}
	if source.NumLevels() <= from {
		return 0, fmt.Errorf("no levels to compare")
	}

	var diffs []float64
	for n := from; n < source.NumLevels(); n++ {
		a := field(&source.Levels[n])
		b := field(&synthesized.Levels[n])
		for c := 0; c < colorChannels; c++ {
			diffs = append(diffs, math.Abs(a[c]-b[c]))
		}
	}
	return stat.Mean(diffs, nil), nil
}
