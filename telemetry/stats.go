package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// GenerationStats holds aggregated statistics for one garden generation.
type GenerationStats struct {
	Generation int `csv:"generation"`
	Population int `csv:"population"`

	// Reproduction during the generation
	Crossovers     int `csv:"crossovers"`
	MutationsOnly  int `csv:"mutations_only"`
	Elites         int `csv:"elites"`
	NodesAdded     int `csv:"nodes_added"`
	ConnsAdded     int `csv:"conns_added"`
	ConnsRemoved   int `csv:"conns_removed"`
	ActivationSwap int `csv:"activation_swaps"`
	Failures       int `csv:"failures"`

	// Fitness distribution
	FitnessMean float64 `csv:"fitness_mean"`
	FitnessBest float64 `csv:"fitness_best"`
	FitnessP10  float64 `csv:"fitness_p10"`
	FitnessP50  float64 `csv:"fitness_p50"`
	FitnessP90  float64 `csv:"fitness_p90"`

	// Trait distributions
	HealthMean   float64 `csv:"health_mean"`
	HealthStd    float64 `csv:"health_std"`
	StaminaMean  float64 `csv:"stamina_mean"`
	ToxicityMean float64 `csv:"toxicity_mean"`
	Tolerant     float64 `csv:"tolerant_frac"` // fraction whose temperature range covers the climate

	// Genome complexity of the petals network
	NodesMean       float64 `csv:"nodes_mean"`
	ConnectionsMean float64 `csv:"connections_mean"`
	DiversityMean   float64 `csv:"diversity_mean"` // mean distance to the best flower
}

// Summary is the mean, spread and percentiles of a sample.
type Summary struct {
	Mean float64
	Std  float64
	Min  float64
	Max  float64
	P10  float64
	P50  float64
	P90  float64
}

// Summarize computes a Summary. The standard deviation is the unbiased
// estimate and is 0 for fewer than two values.
func Summarize(values []float64) Summary {
	n := len(values)
	if n == 0 {
		return Summary{}
	}
	var s Summary
	if n == 1 {
		s.Mean = values[0]
	} else {
		s.Mean, s.Std = stat.MeanStdDev(values, nil)
	}
	s.Min = floats.Min(values)
	s.Max = floats.Max(values)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	s.P10 = Percentile(sorted, 0.10)
	s.P50 = Percentile(sorted, 0.50)
	s.P90 = Percentile(sorted, 0.90)
	return s
}

// LogValue implements slog.LogValuer.
func (s Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("mean", s.Mean),
		slog.Float64("std", s.Std),
		slog.Float64("min", s.Min),
		slog.Float64("max", s.Max),
		slog.Float64("p50", s.P50),
	)
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Fraction returns the share of true values.
func Fraction(values []bool) float64 {
	if len(values) == 0 {
		return 0
	}
	n := 0
	for _, v := range values {
		if v {
			n++
		}
	}
	return float64(n) / float64(len(values))
}

// finite replaces NaN with 0 so CSV rows stay parseable.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// LogValue implements slog.LogValuer for structured logging.
func (s GenerationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", s.Generation),
		slog.Int("population", s.Population),
		slog.Int("crossovers", s.Crossovers),
		slog.Int("mutations_only", s.MutationsOnly),
		slog.Int("elites", s.Elites),
		slog.Int("failures", s.Failures),
		slog.Float64("fitness_mean", s.FitnessMean),
		slog.Float64("fitness_best", s.FitnessBest),
		slog.Float64("fitness_p50", s.FitnessP50),
		slog.Float64("health_mean", s.HealthMean),
		slog.Float64("tolerant_frac", s.Tolerant),
		slog.Float64("nodes_mean", s.NodesMean),
		slog.Float64("connections_mean", s.ConnectionsMean),
		slog.Float64("diversity_mean", s.DiversityMean),
	)
}

// LogStats logs the generation stats using slog.
func (s GenerationStats) LogStats() {
	slog.Info("generation", "stats", s)
}
