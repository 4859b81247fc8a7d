package neural

import (
	"log/slog"
	"math/rand"
)

// MutationReport counts the operator applications of one Mutate call.
type MutationReport struct {
	NodesAdded       int
	ConnsAdded       int
	ConnsRemoved     int
	WeightsPerturbed int
	Enabled          int
	Disabled         int
	ActivationsSwaps int
}

// Changed reports whether any operator fired.
func (r MutationReport) Changed() bool {
	return r != MutationReport{}
}

// LogValue implements slog.LogValuer.
func (r MutationReport) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("nodes_added", r.NodesAdded),
		slog.Int("conns_added", r.ConnsAdded),
		slog.Int("conns_removed", r.ConnsRemoved),
		slog.Int("weights_perturbed", r.WeightsPerturbed),
		slog.Int("enabled", r.Enabled),
		slog.Int("disabled", r.Disabled),
		slog.Int("activation_swaps", r.ActivationsSwaps),
	)
}

// Mutated validates rates and g, then returns a mutated copy. g is left untouched.
func Mutated(rng *rand.Rand, g *Genome, rates MutationRates, opts MutationOptions) (*Genome, MutationReport, error) {
	if err := rates.Validate(); err != nil {
		return nil, MutationReport{}, err
	}
	if err := g.Validate(); err != nil {
		return nil, MutationReport{}, err
	}
	child := g.Clone()
	report := child.Mutate(rng, rates, opts)
	return child, report, nil
}

// Mutate applies every operator in place, each gated by its rate. An
// operator with no valid site does nothing. Operators that would create
// a cycle among enabled connections are skipped.
func (g *Genome) Mutate(rng *rand.Rand, rates MutationRates, opts MutationOptions) MutationReport {
	var r MutationReport
	if rng.Float64() < rates.AddNode && g.addNode(rng) {
		r.NodesAdded++
	}
	if rng.Float64() < rates.AddConn && g.addConnection(rng) {
		r.ConnsAdded++
	}
	if rng.Float64() < rates.RemoveConn && g.removeConnection(rng) {
		r.ConnsRemoved++
	}
	r.WeightsPerturbed = g.perturbWeights(rng, rates.PerturbWeights, opts)
	r.Enabled = g.enableConnections(rng, rates.Enable)
	r.Disabled = g.disableConnections(rng, rates.Disable)
	r.ActivationsSwaps = g.mutateActivations(rng, rates.ActType)
	return r
}

// addNode splits a random enabled connection. The incoming half gets
// weight 1 and the outgoing half keeps the old weight, so the split
// starts close to the original signal path. A genome whose counters
// cannot issue one more node and two more connections has no site.
func (g *Genome) addNode(rng *rand.Rand) bool {
	if g.NextNodeID >= MaxNodeID || g.NextConnID > MaxConnID-2 {
		return false
	}
	var enabled []int64
	for _, id := range g.ConnectionIDs() {
		if g.Connections[id].Enabled {
			enabled = append(enabled, id)
		}
	}
	if len(enabled) == 0 {
		return false
	}

	old := g.Connections[enabled[rng.Intn(len(enabled))]]
	old.Enabled = false
	g.Connections[old.ID] = old

	nodeID := g.NextNodeID
	g.NextNodeID++
	g.Nodes[nodeID] = Node{ID: nodeID, Kind: HiddenNode, Activation: randomActivation(rng)}

	inID := g.NextConnID
	outID := g.NextConnID + 1
	g.NextConnID += 2
	g.Connections[inID] = Connection{ID: inID, Source: old.Source, Target: nodeID, Weight: 1.0, Enabled: true}
	g.Connections[outID] = Connection{ID: outID, Source: nodeID, Target: old.Target, Weight: old.Weight, Enabled: true}
	return true
}

type connectionKey struct{ a, b int }

// addConnection links a random pair of unconnected nodes. Candidates
// respect direction (never out of an output, never into an input) and
// feed-forward order: the target must not already reach the source.
func (g *Genome) addConnection(rng *rand.Rand) bool {
	if g.NextConnID >= MaxConnID {
		return false
	}
	linked := make(map[connectionKey]bool, len(g.Connections))
	for _, c := range g.Connections {
		linked[connectionKey{c.Source, c.Target}] = true
		linked[connectionKey{c.Target, c.Source}] = true
	}

	adj := g.adjacency()
	ids := g.NodeIDs()
	var candidates []connectionKey
	for _, src := range ids {
		if g.Nodes[src].Kind == OutputNode {
			continue
		}
		for _, dst := range ids {
			if src == dst || g.Nodes[dst].Kind == InputNode || linked[connectionKey{src, dst}] {
				continue
			}
			if reachable(adj, dst, src) {
				continue
			}
			candidates = append(candidates, connectionKey{src, dst})
		}
	}
	if len(candidates) == 0 {
		return false
	}

	pick := candidates[rng.Intn(len(candidates))]
	id := g.NextConnID
	g.NextConnID++
	g.Connections[id] = Connection{ID: id, Source: pick.a, Target: pick.b, Weight: randomWeight(rng), Enabled: true}
	return true
}

// removeConnection deletes a random connection gene. Its id is not reissued.
func (g *Genome) removeConnection(rng *rand.Rand) bool {
	if len(g.Connections) == 0 {
		return false
	}
	ids := g.ConnectionIDs()
	delete(g.Connections, ids[rng.Intn(len(ids))])
	return true
}

func (g *Genome) perturbWeights(rng *rand.Rand, rate float64, opts MutationOptions) int {
	n := 0
	for _, id := range g.ConnectionIDs() {
		c := g.Connections[id]
		if !c.Enabled || rng.Float64() >= rate {
			continue
		}
		c.Weight = clampWeight(c.Weight+rng.NormFloat64()*opts.PerturbSigma, opts.MaxWeight)
		g.Connections[id] = c
		n++
	}
	return n
}

func (g *Genome) enableConnections(rng *rand.Rand, rate float64) int {
	n := 0
	for _, id := range g.ConnectionIDs() {
		c := g.Connections[id]
		if c.Enabled || rng.Float64() >= rate {
			continue
		}
		if g.reaches(c.Target, c.Source) {
			continue
		}
		c.Enabled = true
		g.Connections[id] = c
		n++
	}
	return n
}

func (g *Genome) disableConnections(rng *rand.Rand, rate float64) int {
	n := 0
	for _, id := range g.ConnectionIDs() {
		c := g.Connections[id]
		if !c.Enabled || rng.Float64() >= rate {
			continue
		}
		c.Enabled = false
		g.Connections[id] = c
		n++
	}
	return n
}

// mutateActivations swaps the activation of computed nodes for a
// different member of the set. Input nodes pass values through and are
// left alone.
func (g *Genome) mutateActivations(rng *rand.Rand, rate float64) int {
	n := 0
	for _, id := range g.NodeIDs() {
		node := g.Nodes[id]
		if node.Kind == InputNode || rng.Float64() >= rate {
			continue
		}
		next := Activation(rng.Intn(int(numActivations) - 1))
		if next >= node.Activation {
			next++
		}
		node.Activation = next
		g.Nodes[id] = node
		n++
	}
	return n
}

func clampWeight(w, limit float64) float64 {
	if limit <= 0 {
		return w
	}
	if w > limit {
		return limit
	}
	if w < -limit {
		return -limit
	}
	return w
}
