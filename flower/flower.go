// Package flower bundles the genomes of a flower with the phenotype
// parameters its petals were created with, and defines the exchange
// format used at the engine boundary.
package flower

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/pthm-cable/bloom/neural"
)

// Genome slots inside the DNA.
const (
	StatsGenome  = 0
	PetalsGenome = 1
	NumGenomes   = 2
)

// Parameter bounds.
const (
	MaxRadius = 2048
	MaxLayers = 16
	MaxP      = 1000.0
)

// ErrInvalidParams reports phenotype parameters that cannot be rendered.
var ErrInvalidParams = errors.New("invalid phenotype parameters")

// Params are the caller-supplied phenotype knobs. They scale and shape
// the coordinate space the petals network is evaluated over and are not
// genes.
type Params struct {
	Radius    int     `json:"radius" yaml:"radius"`
	NumLayers int     `json:"numLayers" yaml:"num_layers"`
	P         float64 `json:"P" yaml:"p"`
	Bias      float64 `json:"bias" yaml:"bias"`
}

// DefaultParams returns the classic petals settings.
func DefaultParams() Params {
	return Params{Radius: 64, NumLayers: 3, P: 6.0, Bias: 1.0}
}

// Validate rejects non-positive sizes and non-finite shape values.
func (p Params) Validate() error {
	switch {
	case p.Radius <= 0 || p.Radius > MaxRadius:
		return fmt.Errorf("%w: radius must be in [1, %d], got %d", ErrInvalidParams, MaxRadius, p.Radius)
	case p.NumLayers <= 0 || p.NumLayers > MaxLayers:
		return fmt.Errorf("%w: layer count must be in [1, %d], got %d", ErrInvalidParams, MaxLayers, p.NumLayers)
	case math.IsNaN(p.P) || math.IsInf(p.P, 0) || math.Abs(p.P) > MaxP:
		return fmt.Errorf("%w: P must be finite with |P| <= %v, got %v", ErrInvalidParams, MaxP, p.P)
	case math.IsNaN(p.Bias) || math.IsInf(p.Bias, 0):
		return fmt.Errorf("%w: bias must be finite, got %v", ErrInvalidParams, p.Bias)
	}
	return nil
}

// DNA holds the flower's genomes: the stats network and the petals CPPN.
type DNA struct {
	Genomes []*neural.Genome `json:"genomes"`
}

// Flower is a genome bundle plus the parameters its petals were made with.
type Flower struct {
	DNA    DNA    `json:"dna"`
	Petals Params `json:"petals"`
}

// New creates a flower with fresh minimal genomes.
func New(rng *rand.Rand, params Params) (*Flower, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	stats, err := neural.NewGenome(rng, neural.StatsLayout())
	if err != nil {
		return nil, err
	}
	petals, err := neural.CreateMinimal(rng, params.NumLayers)
	if err != nil {
		return nil, err
	}
	return &Flower{
		DNA:    DNA{Genomes: []*neural.Genome{stats, petals}},
		Petals: params,
	}, nil
}

// Stats returns the stats network genome.
func (f *Flower) Stats() *neural.Genome { return f.DNA.Genomes[StatsGenome] }

// PetalsNet returns the petals CPPN genome.
func (f *Flower) PetalsNet() *neural.Genome { return f.DNA.Genomes[PetalsGenome] }

// Clone returns a deep copy.
func (f *Flower) Clone() *Flower {
	c := &Flower{Petals: f.Petals, DNA: DNA{Genomes: make([]*neural.Genome, len(f.DNA.Genomes))}}
	for i, g := range f.DNA.Genomes {
		c.DNA.Genomes[i] = g.Clone()
	}
	return c
}

// Equal reports whether both flowers carry equal genomes and parameters.
func (f *Flower) Equal(o *Flower) bool {
	if f.Petals != o.Petals || len(f.DNA.Genomes) != len(o.DNA.Genomes) {
		return false
	}
	for i := range f.DNA.Genomes {
		if !f.DNA.Genomes[i].Equal(o.DNA.Genomes[i]) {
			return false
		}
	}
	return true
}

// Validate checks the DNA layout, every genome and the embedded parameters.
func (f *Flower) Validate() error {
	if len(f.DNA.Genomes) != NumGenomes {
		return fmt.Errorf("%w: expected %d genomes, got %d", neural.ErrMalformed, NumGenomes, len(f.DNA.Genomes))
	}
	layouts := [NumGenomes]neural.Layout{neural.StatsLayout(), neural.PetalLayout()}
	for i, g := range f.DNA.Genomes {
		if g == nil {
			return fmt.Errorf("%w: genome %d missing", neural.ErrMalformed, i)
		}
		if g.Inputs != layouts[i].Inputs || g.Outputs != layouts[i].Outputs {
			return fmt.Errorf("%w: genome %d is %d->%d, want %d->%d", neural.ErrMalformed,
				i, g.Inputs, g.Outputs, layouts[i].Inputs, layouts[i].Outputs)
		}
		if err := g.Validate(); err != nil {
			return fmt.Errorf("genome %d: %w", i, err)
		}
	}
	if err := f.Petals.Validate(); err != nil {
		return fmt.Errorf("%w: embedded %v", neural.ErrMalformed, err)
	}
	return nil
}

// Reproduce crosses two flowers genome by genome. The child is drawn with
// params.
func Reproduce(rng *rand.Rand, father, mother *Flower, params Params, opts neural.CrossoverOptions) (*Flower, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(father.DNA.Genomes) != len(mother.DNA.Genomes) {
		return nil, fmt.Errorf("%w: genome counts differ (%d vs %d)",
			neural.ErrIncompatible, len(father.DNA.Genomes), len(mother.DNA.Genomes))
	}
	child := &Flower{Petals: params, DNA: DNA{Genomes: make([]*neural.Genome, len(father.DNA.Genomes))}}
	for i := range father.DNA.Genomes {
		g, err := neural.Crossover(rng, father.DNA.Genomes[i], mother.DNA.Genomes[i], opts)
		if err != nil {
			return nil, fmt.Errorf("genome %d: %w", i, err)
		}
		child.DNA.Genomes[i] = g
	}
	return child, nil
}

// Mutate returns a mutated copy of f drawn with params. f is unchanged.
func Mutate(rng *rand.Rand, f *Flower, params Params, rates neural.MutationRates, opts neural.MutationOptions) (*Flower, neural.MutationReport, error) {
	var total neural.MutationReport
	if err := params.Validate(); err != nil {
		return nil, total, err
	}
	child := &Flower{Petals: params, DNA: DNA{Genomes: make([]*neural.Genome, len(f.DNA.Genomes))}}
	for i, g := range f.DNA.Genomes {
		m, report, err := neural.Mutated(rng, g, rates, opts)
		if err != nil {
			return nil, total, fmt.Errorf("genome %d: %w", i, err)
		}
		child.DNA.Genomes[i] = m
		total.NodesAdded += report.NodesAdded
		total.ConnsAdded += report.ConnsAdded
		total.ConnsRemoved += report.ConnsRemoved
		total.WeightsPerturbed += report.WeightsPerturbed
		total.Enabled += report.Enabled
		total.Disabled += report.Disabled
		total.ActivationsSwaps += report.ActivationsSwaps
	}
	return child, total, nil
}

// Distance sums the compatibility distance of corresponding genomes.
func Distance(a, b *Flower, coeffs neural.CompatibilityCoeffs) float64 {
	if len(a.DNA.Genomes) != len(b.DNA.Genomes) {
		return math.MaxFloat64
	}
	d := 0.0
	for i := range a.DNA.Genomes {
		d += neural.Distance(a.DNA.Genomes[i], b.DNA.Genomes[i], coeffs)
	}
	return d
}
