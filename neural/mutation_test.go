package neural

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestMutateZeroRatesIsNoop(t *testing.T) {
	g := evolvedGenome(t, 21, 15)
	child, report, err := Mutated(rand.New(rand.NewSource(22)), g, MutationRates{}, DefaultMutationOptions())
	if err != nil {
		t.Fatalf("Mutated: %v", err)
	}
	if report.Changed() {
		t.Errorf("zero rates should not change anything: %+v", report)
	}
	if !child.Equal(g) {
		t.Error("zero-rate mutation should return a structurally identical genome")
	}
}

func TestMutateAddConnectionOnly(t *testing.T) {
	rng := rand.New(rand.NewSource(31))
	g, _ := CreateMinimal(rng, 3)
	// Split a connection so that unconnected pairs exist.
	g.addNode(rng)
	before := g.Clone()

	child, report, err := Mutated(rng, g, MutationRates{AddConn: 1.0}, DefaultMutationOptions())
	if err != nil {
		t.Fatalf("Mutated: %v", err)
	}
	if report.ConnsAdded != 1 {
		t.Fatalf("expected one connection added, got %d", report.ConnsAdded)
	}
	if len(child.Connections) != len(before.Connections)+1 {
		t.Errorf("expected %d connections, got %d", len(before.Connections)+1, len(child.Connections))
	}
	for id, c := range before.Connections {
		if child.Connections[id] != c {
			t.Errorf("existing gene %d changed: %+v -> %+v", id, c, child.Connections[id])
		}
	}
	if !g.Equal(before) {
		t.Error("Mutated must not modify its input")
	}
}

func TestAddConnectionNoValidPair(t *testing.T) {
	rng := rand.New(rand.NewSource(41))
	g, _ := CreateMinimal(rng, 3)
	// A minimal genome is fully connected: inputs cannot be targets and
	// outputs cannot be sources.
	if g.addConnection(rng) {
		t.Error("fully connected minimal genome should have no valid pair")
	}
}

func TestAddNodeSplitsConnection(t *testing.T) {
	rng := rand.New(rand.NewSource(51))
	g, _ := CreateMinimal(rng, 3)
	nextNode, nextConn := g.NextNodeID, g.NextConnID

	if !g.addNode(rng) {
		t.Fatal("addNode should succeed on minimal genome")
	}
	node, ok := g.Nodes[nextNode]
	if !ok || node.Kind != HiddenNode {
		t.Fatalf("expected hidden node %d, got %+v", nextNode, node)
	}
	in, out := g.Connections[nextConn], g.Connections[nextConn+1]
	if in.Target != nextNode || out.Source != nextNode {
		t.Fatalf("new connections should pass through node %d: %+v %+v", nextNode, in, out)
	}
	split := 0
	for _, c := range g.Connections {
		if !c.Enabled && c.Source == in.Source && c.Target == out.Target {
			split++
			if c.Weight != out.Weight {
				t.Errorf("outgoing half should keep weight %v, got %v", c.Weight, out.Weight)
			}
		}
	}
	if split != 1 {
		t.Errorf("expected exactly one disabled split connection, got %d", split)
	}
}

func TestMutateStopsAtCounterCeiling(t *testing.T) {
	rates := MutationRates{AddNode: 1, AddConn: 1}

	tests := []struct {
		name      string
		nextConn  int64
		wantNodes int
	}{
		{"room for a split", MaxConnID - 2, 1},
		{"one id short", MaxConnID - 1, 0},
		{"saturated", MaxConnID, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(53))
			g, _ := CreateMinimal(rng, 3)
			g.NextConnID = tt.nextConn

			child, report, err := Mutated(rng, g, rates, DefaultMutationOptions())
			if err != nil {
				t.Fatalf("Mutated: %v", err)
			}
			if report.NodesAdded != tt.wantNodes {
				t.Errorf("nodes added = %d, want %d", report.NodesAdded, tt.wantNodes)
			}
			if child.NextConnID < tt.nextConn || child.NextConnID > MaxConnID {
				t.Errorf("connection counter %d outside [%d, %d]", child.NextConnID, tt.nextConn, MaxConnID)
			}
			if err := child.Validate(); err != nil {
				t.Errorf("mutated child invalid: %v", err)
			}
			data, err := Serialize(child)
			if err != nil {
				t.Fatalf("Serialize: %v", err)
			}
			if _, err := Deserialize(data); err != nil {
				t.Errorf("mutated child does not decode: %v", err)
			}
		})
	}

	rng := rand.New(rand.NewSource(54))
	g, _ := CreateMinimal(rng, 3)
	g.NextConnID = math.MaxInt64
	if _, _, err := Mutated(rng, g, rates, DefaultMutationOptions()); !errors.Is(err, ErrMalformed) {
		t.Errorf("counter at int64 limit: expected ErrMalformed, got %v", err)
	}
}

func TestRemoveConnectionNeverReusesID(t *testing.T) {
	rng := rand.New(rand.NewSource(61))
	g, _ := CreateMinimal(rng, 3)
	g.addNode(rng)
	top := g.NextConnID
	before := g.Clone()

	for range 5 {
		g.removeConnection(rng)
	}
	if len(g.Connections) != len(before.Connections)-5 {
		t.Fatalf("expected %d connections, got %d", len(before.Connections)-5, len(g.Connections))
	}
	g.addNode(rng)
	g.addConnection(rng)

	for id, c := range g.Connections {
		if old, existed := before.Connections[id]; existed {
			if old.Source != c.Source || old.Target != c.Target {
				t.Errorf("id %d now names a different connection", id)
			}
			continue
		}
		if id < top {
			t.Errorf("new connection got recycled id %d (counter was %d)", id, top)
		}
	}
}

func TestMutationKeepsAcyclic(t *testing.T) {
	rates := MutationRates{
		AddNode: 0.8, AddConn: 0.9, RemoveConn: 0.2, PerturbWeights: 0.5,
		Enable: 0.6, Disable: 0.3, ActType: 0.3,
	}
	for seed := int64(0); seed < 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		g, _ := CreateMinimal(rng, 3)
		for range 60 {
			g.Mutate(rng, rates, DefaultMutationOptions())
		}
		if err := g.Validate(); err != nil {
			t.Fatalf("seed %d: genome invalid after mutations: %v", seed, err)
		}
	}
}

func TestPerturbRespectsBound(t *testing.T) {
	rng := rand.New(rand.NewSource(71))
	g, _ := CreateMinimal(rng, 3)
	opts := MutationOptions{PerturbSigma: 50, MaxWeight: 2}
	for range 10 {
		g.perturbWeights(rng, 1.0, opts)
	}
	for id, c := range g.Connections {
		if c.Weight > 2 || c.Weight < -2 {
			t.Errorf("connection %d weight %v exceeds bound", id, c.Weight)
		}
	}
}

func TestActivationChangePicksDifferentMember(t *testing.T) {
	rng := rand.New(rand.NewSource(81))
	g, _ := CreateMinimal(rng, 3)
	before := g.Clone()
	g.mutateActivations(rng, 1.0)
	for id, n := range g.Nodes {
		if n.Kind == InputNode {
			if n != before.Nodes[id] {
				t.Errorf("input node %d should be untouched", id)
			}
			continue
		}
		if n.Activation == before.Nodes[id].Activation {
			t.Errorf("node %d kept activation %s", id, n.Activation)
		}
	}
}

func TestMutatedRejectsBadRates(t *testing.T) {
	g, _ := CreateMinimal(rand.New(rand.NewSource(1)), 3)
	_, _, err := Mutated(rand.New(rand.NewSource(1)), g, MutationRates{AddNode: 1.5}, DefaultMutationOptions())
	if !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}
