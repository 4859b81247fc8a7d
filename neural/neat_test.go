package neural

import (
	"math"
	"testing"
)

func TestToNEAT(t *testing.T) {
	g := evolvedGenome(t, 501, 10)
	ng, err := ToNEAT(g, 7)
	if err != nil {
		t.Fatalf("ToNEAT failed: %v", err)
	}
	if ng.Id != 7 {
		t.Errorf("expected genome id 7, got %d", ng.Id)
	}
	if len(ng.Nodes) != len(g.Nodes)+1 {
		t.Errorf("expected %d nodes (with bias), got %d", len(g.Nodes)+1, len(ng.Nodes))
	}
	computed := len(g.Nodes) - g.Inputs
	if len(ng.Genes) != len(g.Connections)+computed {
		t.Errorf("expected %d genes, got %d", len(g.Connections)+computed, len(ng.Genes))
	}
	for _, gene := range ng.Genes {
		if gene.InnovationNum <= 0 {
			t.Errorf("goNEAT innovations must be positive, got %d", gene.InnovationNum)
		}
	}
}

func TestActivateNEAT(t *testing.T) {
	g := evolvedGenome(t, 502, 5)
	out, err := ActivateNEAT(g, []float64{0.3, 0.5, 0.0, 1.0})
	if err != nil {
		t.Fatalf("ActivateNEAT failed: %v", err)
	}
	if len(out) != g.Outputs {
		t.Fatalf("expected %d outputs, got %d", g.Outputs, len(out))
	}
	for i, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("output %d not finite: %v", i, v)
		}
	}
}

func TestNEATInputsAppendsBias(t *testing.T) {
	in := []float64{1, 2}
	out := NEATInputs(in)
	if len(out) != 3 || out[2] != 1.0 || out[0] != 1 || out[1] != 2 {
		t.Errorf("unexpected sensor vector %v", out)
	}
}
