// Statistics-match metrics between an analyzed source and a synthesized frame
package metrics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"photosynthesis/internal/pyramid"
)

// Metric defines the interface for statistics-match metrics
type Metric interface {
	// Calculate compares the analysis of the source image with the analysis of a synthesized frame
	Calculate(source, synthesized *pyramid.Pyramid) (float64, error)

	// GetName returns the metric name
	GetName() string

	// GetDescription returns the metric description
	GetDescription() string

	// GetRange returns the value range (min, max)
	GetRange() (float64, float64)

	// IsHigherBetter returns true if higher values indicate a closer match
	IsHigherBetter() bool
}

// Evaluator manages and calculates multiple metrics
type Evaluator struct {
	metrics map[string]Metric
}

// NewEvaluator creates a new metrics evaluator
func NewEvaluator() *Evaluator {
	e := &Evaluator{
		metrics: make(map[string]Metric),
	}

	e.RegisterDefaultMetrics()

	return e
}

// RegisterDefaultMetrics registers all default metrics
func (e *Evaluator) RegisterDefaultMetrics() {
	e.Register("color_std_error", NewColorStdError())
	e.Register("delta_std_error", NewDeltaStdError())
	e.Register("mean_error", NewMeanError())
	e.Register("std_correlation", NewStdCorrelation())
}

// Register registers a metric
func (e *Evaluator) Register(name string, metric Metric) {
	e.metrics[name] = metric
}

// Names returns the registered metric names in sorted order
func (e *Evaluator) Names() []string {
	names := make([]string, 0, len(e.metrics))
	for name := range e.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Calculate calculates a specific metric
func (e *Evaluator) Calculate(name string, source, synthesized *pyramid.Pyramid) (float64, error) {
	metric, exists := e.metrics[name]
	if !exists {
		return 0, fmt.Errorf("metric not found: %s", name)
	}

	if err := checkComparable(source, synthesized); err != nil {
		return 0, err
	}

	return metric.Calculate(source, synthesized)
}

// CalculateAll calculates all registered metrics, skipping those that fail
func (e *Evaluator) CalculateAll(source, synthesized *pyramid.Pyramid) map[string]float64 {
	results := make(map[string]float64)

	if checkComparable(source, synthesized) != nil {
		return results
	}

	for name, metric := range e.metrics {
		if value, err := metric.Calculate(source, synthesized); err == nil {
			results[name] = value
		}
	}

	return results
}

func checkComparable(source, synthesized *pyramid.Pyramid) error {
	if source == nil || synthesized == nil {
		return fmt.Errorf("missing pyramid")
	}
	if source.Res != synthesized.Res {
		return fmt.Errorf("pyramid resolution mismatch: %d vs %d", source.Res, synthesized.Res)
	}
	return nil
}

// GetMetricInfo returns information about all metrics
func (e *Evaluator) GetMetricInfo() map[string]MetricInfo {
	info := make(map[string]MetricInfo)

	for name, metric := range e.metrics {
		lo, hi := metric.GetRange()
		info[name] = MetricInfo{
			Name:         metric.GetName(),
			Description:  metric.GetDescription(),
			Range:        [2]float64{lo, hi},
			HigherBetter: metric.IsHigherBetter(),
		}
	}

	return info
}

// MetricInfo provides metadata about a metric
type MetricInfo struct {
	Name         string
	Description  string
	Range        [2]float64 // [min, max]
	HigherBetter bool
}

// MatchReport summarises how well a synthesized frame tracks the source statistics
type MatchReport struct {
	OverallScore float64            `json:"overall_score"`
	Metrics      map[string]float64 `json:"metrics"`
	MatchLevel   string             `json:"match_level"` // "excellent", "good", "fair", "poor"
	Timestamp    string             `json:"timestamp"`
}

// GenerateReport generates a match report
func (e *Evaluator) GenerateReport(source, synthesized *pyramid.Pyramid) MatchReport {
	metrics := e.CalculateAll(source, synthesized)
	score := e.calculateOverallScore(metrics)

	return MatchReport{
		OverallScore: score,
		Metrics:      metrics,
		MatchLevel:   matchLevel(score),
		Timestamp:    time.Now().Format("2006-01-02 15:04:05"),
	}
}

// calculateOverallScore calculates a weighted overall match score in percent
func (e *Evaluator) calculateOverallScore(metrics map[string]float64) float64 {
	weights := map[string]float64{
		"color_std_error": 0.3,
		"delta_std_error": 0.3,
		"mean_error":      0.2,
		"std_correlation": 0.2,
	}

	totalWeight := 0.0
	weightedSum := 0.0

	for name, weight := range weights {
		if value, exists := metrics[name]; exists {
			weightedSum += e.normalizeMetric(name, value) * weight
			totalWeight += weight
		}
	}

	if totalWeight == 0 {
		return 0
	}

	return (weightedSum / totalWeight) * 100
}

// normalizeMetric normalizes a metric value to the 0-1 range, 1 being best
func (e *Evaluator) normalizeMetric(name string, value float64) float64 {
	metric, exists := e.metrics[name]
	if !exists || math.IsNaN(value) {
		return 0
	}

	lo, hi := metric.GetRange()
	value = math.Max(lo, math.Min(hi, value))

	if hi == lo {
		return 1.0
	}

	normalized := (value - lo) / (hi - lo)
	if !metric.IsHigherBetter() {
		normalized = 1.0 - normalized
	}

	return normalized
}

func matchLevel(score float64) string {
	switch {
	case score >= 90:
		return "excellent"
	case score >= 75:
		return "good"
	case score >= 60:
		return "fair"
	default:
		return "poor"
	}
}
