package metrics

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photosynthesis/internal/analysis"
	"photosynthesis/internal/pyramid"
)

func analyzed(t *testing.T, res int, seed uint64) *pyramid.Pyramid {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, 0))
	pixels := make([]uint8, 4*res*res)
	for i := range pixels {
		pixels[i] = uint8(rng.IntN(256))
	}
	p, err := analysis.Analyze(pixels, res)
	require.NoError(t, err)
	return p
}

func TestEvaluator_IdenticalPyramidsScorePerfect(t *testing.T) {
	e := NewEvaluator()
	p := analyzed(t, 16, 1)

	results := e.CalculateAll(p, p.Clone())
	require.Len(t, results, 4)
	assert.InDelta(t, 0, results["color_std_error"], 1e-12)
	assert.InDelta(t, 0, results["delta_std_error"], 1e-12)
	assert.InDelta(t, 0, results["mean_error"], 1e-12)
	assert.InDelta(t, 1, results["std_correlation"], 1e-9)

	report := e.GenerateReport(p, p)
	assert.InDelta(t, 100, report.OverallScore, 1e-9)
	assert.Equal(t, "excellent", report.MatchLevel)
}

func TestEvaluator_DifferentPyramidsScoreLower(t *testing.T) {
	e := NewEvaluator()
	a := analyzed(t, 16, 1)
	b := analyzed(t, 16, 2)
	for n := range b.Levels {
		for c := 0; c < 3; c++ {
			b.Levels[n].Color.Std[c] += 40
			b.Levels[n].Delta.Std[c] += 20
		}
	}

	results := e.CalculateAll(a, b)
	assert.Greater(t, results["color_std_error"], 30.0)
	assert.Greater(t, results["delta_std_error"], 10.0)
	assert.Less(t, e.GenerateReport(a, b).OverallScore, 100.0)
}

func TestEvaluator_CalculateUnknownMetric(t *testing.T) {
	e := NewEvaluator()
	p := analyzed(t, 4, 1)
	_, err := e.Calculate("psnr", p, p)
	assert.Error(t, err)
}

func TestEvaluator_ResolutionMismatch(t *testing.T) {
	e := NewEvaluator()
	_, err := e.Calculate("mean_error", analyzed(t, 4, 1), analyzed(t, 8, 1))
	assert.Error(t, err)
	assert.Empty(t, e.CalculateAll(analyzed(t, 4, 1), nil))
}

func TestStdCorrelation_ConstantProfileIsUndefined(t *testing.T) {
	p, err := pyramid.New(8)
	require.NoError(t, err)
	_, err = NewStdCorrelation().Calculate(p, p)
	assert.Error(t, err)
}

func TestGetMetricInfo(t *testing.T) {
	info := NewEvaluator().GetMetricInfo()
	require.Contains(t, info, "std_correlation")
	assert.True(t, info["std_correlation"].HigherBetter)
	assert.Equal(t, [2]float64{-1, 1}, info["std_correlation"].Range)
	assert.False(t, info["mean_error"].HigherBetter)
}

func TestEvaluator_Names(t *testing.T) {
	assert.Equal(t, []string{"color_std_error", "delta_std_error", "mean_error", "std_correlation"}, NewEvaluator().Names())
}
