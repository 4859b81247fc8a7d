package neural

import (
	"fmt"
	"math"
)

// MutationRates gates each mutation operator. Structural operators (add
// node, add connection, remove connection) draw once per call; the others
// draw once per site.
type MutationRates struct {
	AddNode        float64 `yaml:"add_node" json:"addNodeRate"`
	AddConn        float64 `yaml:"add_conn" json:"addConnRate"`
	RemoveConn     float64 `yaml:"remove_conn" json:"removeConnRate"`
	PerturbWeights float64 `yaml:"perturb_weights" json:"perturbWeightsRate"`
	Enable         float64 `yaml:"enable" json:"enableRate"`
	Disable        float64 `yaml:"disable" json:"disableRate"`
	ActType        float64 `yaml:"act_type" json:"actTypeRate"`
}

// DefaultMutationRates returns the rates the boundary uses when none are given.
func DefaultMutationRates() MutationRates {
	return MutationRates{
		AddNode:        0.2,
		AddConn:        0.3,
		RemoveConn:     0.2,
		PerturbWeights: 0.6,
		Enable:         0.35,
		Disable:        0.3,
		ActType:        0.4,
	}
}

// Validate checks every rate lies in [0, 1].
func (r MutationRates) Validate() error {
	named := []struct {
		name string
		v    float64
	}{
		{"addNodeRate", r.AddNode},
		{"addConnRate", r.AddConn},
		{"removeConnRate", r.RemoveConn},
		{"perturbWeightsRate", r.PerturbWeights},
		{"enableRate", r.Enable},
		{"disableRate", r.Disable},
		{"actTypeRate", r.ActType},
	}
	for _, n := range named {
		if math.IsNaN(n.v) || n.v < 0 || n.v > 1 {
			return fmt.Errorf("%w: %s must be in [0, 1], got %v", ErrInvalidParameter, n.name, n.v)
		}
	}
	return nil
}

// MutationOptions bounds weight changes.
type MutationOptions struct {
	PerturbSigma float64 `yaml:"perturb_sigma"` // std dev of Gaussian weight noise
	MaxWeight    float64 `yaml:"max_weight"`    // absolute weight clamp
}

// DefaultMutationOptions returns the weight bounds used by the engine.
func DefaultMutationOptions() MutationOptions {
	return MutationOptions{
		PerturbSigma: 0.5,
		MaxWeight:    8.0,
	}
}

// CrossoverOptions carries the optional fitness ranking of the parents.
type CrossoverOptions struct {
	Ranked        bool
	FatherFitness float64
	MotherFitness float64
	// WeakerDisjointProb is the chance that a gene found only in the less
	// fit parent is inherited. Genes found only in the fitter parent are
	// always inherited.
	WeakerDisjointProb float64 `yaml:"weaker_disjoint_prob"`
}

// DefaultCrossoverOptions returns unranked crossover.
func DefaultCrossoverOptions() CrossoverOptions {
	return CrossoverOptions{WeakerDisjointProb: 0.5}
}

// CompatibilityCoeffs weight the terms of the genetic distance.
type CompatibilityCoeffs struct {
	Excess   float64 `yaml:"excess"`
	Disjoint float64 `yaml:"disjoint"`
	Weight   float64 `yaml:"weight"`
}

// DefaultCompatibilityCoeffs returns the classic NEAT coefficients.
func DefaultCompatibilityCoeffs() CompatibilityCoeffs {
	return CompatibilityCoeffs{Excess: 1.0, Disjoint: 1.0, Weight: 0.4}
}
