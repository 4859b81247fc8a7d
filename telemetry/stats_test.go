package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/bloom/neural"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{4, 1, 3, 2, 5})
	if math.Abs(s.Mean-3) > 1e-9 {
		t.Errorf("mean = %v, want 3", s.Mean)
	}
	// Unbiased: variance of 1..5 is 2.5.
	if math.Abs(s.Std-math.Sqrt(2.5)) > 1e-9 {
		t.Errorf("std = %v, want %v", s.Std, math.Sqrt(2.5))
	}
	if s.Min != 1 || s.Max != 5 || s.P50 != 3 {
		t.Errorf("unexpected summary %+v", s)
	}

	one := Summarize([]float64{7})
	if one.Mean != 7 || one.Std != 0 {
		t.Errorf("single value summary %+v", one)
	}
	if (Summarize(nil) != Summary{}) {
		t.Error("empty summary should be zero")
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector()
	c.RecordCrossover()
	c.RecordCrossover()
	c.RecordMutationOnly()
	c.RecordElite()
	c.RecordFailure()
	c.RecordMutation(neural.MutationReport{NodesAdded: 1, ConnsAdded: 2})
	c.RecordMutation(neural.MutationReport{NodesAdded: 1, ActivationsSwaps: 3})

	samples := []FlowerSample{
		{Fitness: 10, Health: 50, Stamina: 20, Tolerant: true, Nodes: 9, Connections: 20},
		{Fitness: 30, Health: 70, Stamina: 40, Tolerant: false, Nodes: 11, Connections: 22, Distance: 2},
	}
	gs := c.Flush(samples)

	if gs.Generation != 0 || gs.Population != 2 {
		t.Errorf("generation %d population %d", gs.Generation, gs.Population)
	}
	if gs.Crossovers != 2 || gs.MutationsOnly != 1 || gs.Elites != 1 || gs.Failures != 1 {
		t.Errorf("event counts %+v", gs)
	}
	if gs.NodesAdded != 2 || gs.ConnsAdded != 2 || gs.ActivationSwap != 3 {
		t.Errorf("mutation counts %+v", gs)
	}
	if gs.FitnessBest != 30 || gs.FitnessMean != 20 {
		t.Errorf("fitness best %v mean %v", gs.FitnessBest, gs.FitnessMean)
	}
	if gs.HealthMean != 60 || gs.Tolerant != 0.5 || gs.NodesMean != 10 || gs.DiversityMean != 1 {
		t.Errorf("trait means %+v", gs)
	}

	next := c.Flush(nil)
	if next.Generation != 1 || next.Crossovers != 0 || next.Population != 0 {
		t.Errorf("collector not reset: %+v", next)
	}
}
