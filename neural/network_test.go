package neural

import (
	"errors"
	"math"
	"math/rand"
	"slices"
	"testing"
)

func TestEvaluateMinimalScenario(t *testing.T) {
	g, err := CreateMinimal(rand.New(rand.NewSource(7)), 3)
	if err != nil {
		t.Fatalf("CreateMinimal: %v", err)
	}

	out, err := Evaluate(g, map[int]float64{InAngle: 0, InRadius: 0.5, InLayer: 0, InBias: 1})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(out) != PetalOutputs {
		t.Fatalf("expected %d outputs, got %d", PetalOutputs, len(out))
	}
	for ch, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("output %d not finite: %v", ch, v)
		}
	}
}

func TestEvaluateKnownNetwork(t *testing.T) {
	// in0 --2--> hidden(tanh, bias 0.5) --3--> out(identity)
	g := &Genome{
		Inputs: 1, Outputs: 1, NextNodeID: 3, NextConnID: 3,
		Nodes: map[int]Node{
			0: {ID: 0, Kind: InputNode, Activation: Identity},
			1: {ID: 1, Kind: OutputNode, Activation: Identity},
			2: {ID: 2, Kind: HiddenNode, Activation: Tanh, Bias: 0.5},
		},
		Connections: map[int64]Connection{
			0: {ID: 0, Source: 0, Target: 1, Weight: 10, Enabled: false},
			1: {ID: 1, Source: 0, Target: 2, Weight: 2, Enabled: true},
			2: {ID: 2, Source: 2, Target: 1, Weight: 3, Enabled: true},
		},
	}

	out, err := Evaluate(g, map[int]float64{0: 0.25})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	want := 3 * math.Tanh(0.5+2*0.25)
	if out[0] != want {
		t.Errorf("expected %v, got %v (disabled connection must be skipped)", want, out[0])
	}
}

func TestUnconnectedNodeIsBias(t *testing.T) {
	g := &Genome{
		Inputs: 1, Outputs: 1, NextNodeID: 2, NextConnID: 1,
		Nodes: map[int]Node{
			0: {ID: 0, Kind: InputNode},
			1: {ID: 1, Kind: OutputNode, Activation: Sigmoid, Bias: 0.7},
		},
		Connections: map[int64]Connection{
			0: {ID: 0, Source: 0, Target: 1, Weight: 1, Enabled: false},
		},
	}
	out, err := Evaluate(g, map[int]float64{0: 5})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if out[0] != 0.7 {
		t.Errorf("node without enabled inputs should read its bias, got %v", out[0])
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	g := evolvedGenome(t, 11, 40)
	net1, err := Compile(g)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	net2, err := Compile(g.Clone())
	if err != nil {
		t.Fatalf("Compile clone: %v", err)
	}

	rng := rand.New(rand.NewSource(12))
	in := make([]float64, g.Inputs)
	a := make([]float64, g.Outputs)
	b := make([]float64, g.Outputs)
	for range 200 {
		for i := range in {
			in[i] = rng.Float64()*4 - 2
		}
		if err := net1.Activate(in, a); err != nil {
			t.Fatal(err)
		}
		if err := net2.Activate(in, b); err != nil {
			t.Fatal(err)
		}
		for j := range a {
			if math.Float64bits(a[j]) != math.Float64bits(b[j]) {
				t.Fatalf("output %d differs: %v vs %v", j, a[j], b[j])
			}
		}
	}
}

func TestCompileRejectsCycle(t *testing.T) {
	g := &Genome{
		Inputs: 1, Outputs: 1, NextNodeID: 4, NextConnID: 3,
		Nodes: map[int]Node{
			0: {ID: 0, Kind: InputNode},
			1: {ID: 1, Kind: OutputNode},
			2: {ID: 2, Kind: HiddenNode},
			3: {ID: 3, Kind: HiddenNode},
		},
		Connections: map[int64]Connection{
			0: {ID: 0, Source: 2, Target: 3, Weight: 1, Enabled: true},
			1: {ID: 1, Source: 3, Target: 2, Weight: 1, Enabled: true},
			2: {ID: 2, Source: 3, Target: 1, Weight: 1, Enabled: true},
		},
	}
	if _, err := Compile(g); !errors.Is(err, ErrCycle) {
		t.Errorf("expected ErrCycle, got %v", err)
	}
}

func TestTopoOrderPrefersSmallestReadyID(t *testing.T) {
	g := &Genome{
		Inputs: 1, Outputs: 1, NextNodeID: 4, NextConnID: 3,
		Nodes: map[int]Node{
			0: {ID: 0, Kind: InputNode},
			1: {ID: 1, Kind: OutputNode},
			2: {ID: 2, Kind: HiddenNode},
			3: {ID: 3, Kind: HiddenNode},
		},
		Connections: map[int64]Connection{
			0: {ID: 0, Source: 0, Target: 2, Weight: 1, Enabled: true},
			1: {ID: 1, Source: 2, Target: 1, Weight: 1, Enabled: true},
			2: {ID: 2, Source: 3, Target: 1, Weight: 1, Enabled: true},
		},
	}
	order, err := g.topoOrder()
	if err != nil {
		t.Fatalf("topoOrder: %v", err)
	}
	want := []int{0, 2, 3, 1}
	if !slices.Equal(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestEvaluateRejectsDanglingEndpoints(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(c *Connection)
	}{
		{"missing source", func(c *Connection) { c.Source = 99 }},
		{"missing target", func(c *Connection) { c.Target = 99 }},
		{"disabled with missing target", func(c *Connection) { c.Target = 99; c.Enabled = false }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := CreateMinimal(rand.New(rand.NewSource(9)), 3)
			c := g.Connections[0]
			tt.corrupt(&c)
			g.Connections[0] = c

			_, err := Evaluate(g, nil)
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("expected ErrMalformed, got %v", err)
			}
			if errors.Is(err, ErrCycle) {
				t.Errorf("dangling endpoint reported as a cycle: %v", err)
			}
		})
	}
}

func TestActivateChecksBuffers(t *testing.T) {
	g, _ := CreateMinimal(rand.New(rand.NewSource(1)), 1)
	net, err := Compile(g)
	if err != nil {
		t.Fatal(err)
	}
	if err := net.Activate(make([]float64, 2), make([]float64, PetalOutputs)); err == nil {
		t.Error("expected error for short input")
	}
	if err := net.Activate(make([]float64, PetalInputs), make([]float64, 1)); err == nil {
		t.Error("expected error for short output buffer")
	}
}

func TestActivationSet(t *testing.T) {
	for _, a := range Activations() {
		parsed, err := ParseActivation(a.String())
		if err != nil || parsed != a {
			t.Errorf("%s does not parse back: %v %v", a, parsed, err)
		}
	}
	if _, err := ParseActivation("relu"); !errors.Is(err, ErrUnknownActivation) {
		t.Errorf("expected ErrUnknownActivation, got %v", err)
	}
	if Step.Apply(0) != 0 || Step.Apply(0.1) != 1 {
		t.Error("step should be 0 at zero and 1 above")
	}
	if Gaussian.Apply(0) != 1 {
		t.Error("gaussian should peak at 1")
	}
}
