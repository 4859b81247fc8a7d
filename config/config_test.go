package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/bloom/flower"
	"github.com/pthm-cable/bloom/model3d"
	"github.com/pthm-cable/bloom/neural"
)

func TestDefaultsMatchPackageDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Phenotype != flower.DefaultParams() {
		t.Errorf("phenotype %+v, want %+v", cfg.Phenotype, flower.DefaultParams())
	}
	if cfg.Mutation.Rates != neural.DefaultMutationRates() {
		t.Errorf("mutation rates %+v, want %+v", cfg.Mutation.Rates, neural.DefaultMutationRates())
	}
	if cfg.Derived.MutationOptions != neural.DefaultMutationOptions() {
		t.Errorf("mutation options %+v, want %+v", cfg.Derived.MutationOptions, neural.DefaultMutationOptions())
	}
	if cfg.Compatibility != neural.DefaultCompatibilityCoeffs() {
		t.Errorf("compatibility %+v", cfg.Compatibility)
	}
	if cfg.Model3D != model3d.DefaultParameters() {
		t.Errorf("model3d %+v, want %+v", cfg.Model3D, model3d.DefaultParameters())
	}
	if cfg.Derived.Workers <= 0 {
		t.Errorf("derived workers %d", cfg.Derived.Workers)
	}
}

func TestLoadMergesUserFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bloom.yaml")
	data := []byte("phenotype:\n  radius: 128\nmutation:\n  add_node: 0.9\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Phenotype.Radius != 128 {
		t.Errorf("radius %d, want 128", cfg.Phenotype.Radius)
	}
	if cfg.Phenotype.NumLayers != 3 {
		t.Errorf("layers %d, want default 3", cfg.Phenotype.NumLayers)
	}
	if cfg.Mutation.Rates.AddNode != 0.9 {
		t.Errorf("add_node %v, want 0.9", cfg.Mutation.Rates.AddNode)
	}
	if cfg.Mutation.Rates.AddConn != 0.3 {
		t.Errorf("add_conn %v, want default 0.3", cfg.Mutation.Rates.AddConn)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero radius", "phenotype:\n  radius: 0\n"},
		{"rate above one", "mutation:\n  enable: 1.5\n"},
		{"humidity", "garden:\n  humidity: 2\n"},
		{"storage kind", "storage:\n  kind: redis\n"},
		{"population", "garden:\n  population: 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Garden.Population = 40
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back.Garden != cfg.Garden {
		t.Errorf("garden section changed: %+v vs %+v", back.Garden, cfg.Garden)
	}
	if back.Model3D != cfg.Model3D {
		t.Errorf("model3d section changed")
	}
}
