package main

import (
	"math"

	"github.com/pthm-cable/bloom/stats"
)

// ParamSpec defines a single searchable environment dimension.
type ParamSpec struct {
	Name    string  // Human-readable name
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Starting value
	Integer bool    // rounded before use
}

// ParamVector holds the searchable environment dimensions.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the environment search space. Terrain is kept
// fixed unless searchTerrain is set, since terrain codes are categorical.
func NewParamVector(start stats.Environment, searchTerrain bool) *ParamVector {
	pv := &ParamVector{
		Specs: []ParamSpec{
			{Name: "humidity", Min: 0, Max: 1, Default: start.Humidity},
			{Name: "temperature", Min: -20, Max: 60, Default: float64(start.Temperature), Integer: true},
			{Name: "altitude", Min: 0, Max: 5000, Default: float64(start.Altitude), Integer: true},
		},
	}
	if searchTerrain {
		pv.Specs = append(pv.Specs, ParamSpec{Name: "terrain_type", Min: 0, Max: 10, Default: float64(start.TerrainType), Integer: true})
	}
	return pv
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the starting values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp bounds every value and rounds the integer dimensions.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := math.Min(math.Max(v[i], spec.Min), spec.Max)
		if spec.Integer {
			val = math.Round(val)
		}
		clamped[i] = val
	}
	return clamped
}

// Environment builds the environment a vector describes. Dimensions that
// are not searched keep the values of base.
func (pv *ParamVector) Environment(base stats.Environment, values []float64) stats.Environment {
	clamped := pv.Clamp(values)
	env := base
	for i, spec := range pv.Specs {
		switch spec.Name {
		case "humidity":
			env.Humidity = clamped[i]
		case "temperature":
			env.Temperature = int(clamped[i])
		case "altitude":
			env.Altitude = int(clamped[i])
		case "terrain_type":
			env.TerrainType = int(clamped[i])
		}
	}
	return env
}
