package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/bloom/stats"
)

func TestParamVectorRoundTrip(t *testing.T) {
	start := stats.Environment{Humidity: 0.4, Temperature: 20, Altitude: 300, TerrainType: 2}
	pv := NewParamVector(start, true)
	if pv.Dim() != 4 {
		t.Fatalf("Dim() = %d, want 4", pv.Dim())
	}
	raw := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-9 {
			t.Errorf("dimension %s: %v -> %v", pv.Specs[i].Name, raw[i], back[i])
		}
	}
	if env := pv.Environment(stats.Environment{}, raw); env != start {
		t.Errorf("Environment(defaults) = %+v, want %+v", env, start)
	}
}

func TestParamVectorClampsAndRounds(t *testing.T) {
	base := stats.Environment{TerrainType: 7}
	pv := NewParamVector(stats.Environment{}, false)
	env := pv.Environment(base, []float64{1.5, 21.6, -40})
	want := stats.Environment{Humidity: 1, Temperature: 22, Altitude: 0, TerrainType: 7}
	if env != want {
		t.Errorf("Environment = %+v, want %+v", env, want)
	}
}
