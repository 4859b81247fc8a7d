package flower

import (
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/pthm-cable/bloom/neural"
)

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(p *Params)
		ok   bool
	}{
		{"defaults", func(p *Params) {}, true},
		{"zero radius", func(p *Params) { p.Radius = 0 }, false},
		{"negative layers", func(p *Params) { p.NumLayers = -2 }, false},
		{"zero layers", func(p *Params) { p.NumLayers = 0 }, false},
		{"nan P", func(p *Params) { p.P = math.NaN() }, false},
		{"huge P", func(p *Params) { p.P = 1e9 }, false},
		{"inf bias", func(p *Params) { p.Bias = math.Inf(1) }, false},
		{"negative P", func(p *Params) { p.P = -3 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mod(&p)
			err := p.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidParams) {
				t.Errorf("expected ErrInvalidParams, got %v", err)
			}
		})
	}
}

func TestNewFlower(t *testing.T) {
	f, err := New(rand.New(rand.NewSource(1)), DefaultParams())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := f.Validate(); err != nil {
		t.Fatalf("fresh flower invalid: %v", err)
	}
	if f.Stats().Outputs != neural.StatsOutputs {
		t.Errorf("stats genome should have %d outputs, got %d", neural.StatsOutputs, f.Stats().Outputs)
	}
	if f.PetalsNet().Outputs != neural.PetalOutputs {
		t.Errorf("petals genome should have %d outputs, got %d", neural.PetalOutputs, f.PetalsNet().Outputs)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	f, _ := New(rng, Params{Radius: 32, NumLayers: 2, P: 4.5, Bias: -0.25})
	f, _, err := Mutate(rng, f, f.Petals, neural.DefaultMutationRates(), neural.DefaultMutationOptions())
	if err != nil {
		t.Fatal(err)
	}

	text, err := Encode(f)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.HasPrefix(text, `{"Flower":{"dna":{"genomes":[`) {
		t.Errorf("unexpected envelope: %.60s", text)
	}
	back, err := Decode(text)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !back.Equal(f) {
		t.Error("round trip changed the flower")
	}
}

func TestDecodeRejects(t *testing.T) {
	f, _ := New(rand.New(rand.NewSource(3)), DefaultParams())
	good, _ := Encode(f)

	for name, text := range map[string]string{
		"garbage":      "not a flower",
		"no flower":    `{"Plant":{}}`,
		"bad radius":   strings.Replace(good, `"radius":64`, `"radius":0`, 1),
		"one genome":   `{"Flower":{"dna":{"genomes":[]},"petals":{"radius":64,"numLayers":3,"P":6,"bias":1}}}`,
		"swapped dims": swapGenomes(t, f),
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode(text); !errors.Is(err, neural.ErrMalformed) {
				t.Errorf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func swapGenomes(t *testing.T, f *Flower) string {
	t.Helper()
	c := f.Clone()
	c.DNA.Genomes[0], c.DNA.Genomes[1] = c.DNA.Genomes[1], c.DNA.Genomes[0]
	text, err := Encode(c)
	if err != nil {
		t.Fatal(err)
	}
	return text
}

func TestReproduceRequiresMatchingDNA(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	a, _ := New(rng, DefaultParams())
	b, _ := New(rng, DefaultParams())
	b.DNA.Genomes = b.DNA.Genomes[:1]

	if _, err := Reproduce(rng, a, b, DefaultParams(), neural.DefaultCrossoverOptions()); !errors.Is(err, neural.ErrIncompatible) {
		t.Errorf("expected ErrIncompatible, got %v", err)
	}
}

func TestReproduceAndMutateLeaveParentsAlone(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	a, _ := New(rng, DefaultParams())
	b, _ := New(rng, DefaultParams())
	a0, b0 := a.Clone(), b.Clone()

	child, err := Reproduce(rng, a, b, Params{Radius: 16, NumLayers: 1, P: 3, Bias: 1}, neural.DefaultCrossoverOptions())
	if err != nil {
		t.Fatalf("Reproduce: %v", err)
	}
	if child.Petals.Radius != 16 {
		t.Errorf("child should carry the requested params, got %+v", child.Petals)
	}
	if _, _, err := Mutate(rng, child, child.Petals, neural.DefaultMutationRates(), neural.DefaultMutationOptions()); err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	if !a.Equal(a0) || !b.Equal(b0) {
		t.Error("parents must not change")
	}
	if d := Distance(a, a, neural.DefaultCompatibilityCoeffs()); d != 0 {
		t.Errorf("self distance should be 0, got %v", d)
	}
}
