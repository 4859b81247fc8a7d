package neural

import (
	"fmt"
	"maps"
	"math"
	"math/rand"
	"slices"
)

// Crossover merges two parents into a new genome, aligning connection
// genes by innovation number. Parents are read, never modified.
//
// Matching genes come from either parent with equal chance; weight and
// enabled flag travel together. Genes held by one parent only are always
// inherited unless the parents are ranked with different fitness, in
// which case the weaker parent's genes survive with
// opts.WeakerDisjointProb. An inherited enabled gene that would close a
// cycle is kept but disabled.
func Crossover(rng *rand.Rand, father, mother *Genome, opts CrossoverOptions) (*Genome, error) {
	if father == nil || mother == nil {
		return nil, fmt.Errorf("%w: cannot cross nil genomes", ErrInvalidParameter)
	}
	if father.Inputs != mother.Inputs || father.Outputs != mother.Outputs {
		return nil, fmt.Errorf("%w: %d->%d crossed with %d->%d",
			ErrIncompatible, father.Inputs, father.Outputs, mother.Inputs, mother.Outputs)
	}
	if err := father.Validate(); err != nil {
		return nil, fmt.Errorf("father: %w", err)
	}
	if err := mother.Validate(); err != nil {
		return nil, fmt.Errorf("mother: %w", err)
	}

	// weaker is nil when there is no ranking or the ranking is a tie.
	var weaker *Genome
	if opts.Ranked {
		switch {
		case opts.FatherFitness > opts.MotherFitness:
			weaker = mother
		case opts.MotherFitness > opts.FatherFitness:
			weaker = father
		}
	}

	child := &Genome{
		Inputs:      father.Inputs,
		Outputs:     father.Outputs,
		NextNodeID:  max(father.NextNodeID, mother.NextNodeID),
		NextConnID:  max(father.NextConnID, mother.NextConnID),
		Nodes:       make(map[int]Node, max(len(father.Nodes), len(mother.Nodes))),
		Connections: make(map[int64]Connection, max(len(father.Connections), len(mother.Connections))),
	}

	// Channel nodes and hidden nodes both parents share.
	for _, id := range father.NodeIDs() {
		fn := father.Nodes[id]
		mn, shared := mother.Nodes[id]
		switch {
		case fn.Kind != HiddenNode:
			if shared && rng.Intn(2) == 1 {
				fn = mn
			}
			child.Nodes[id] = fn
		case shared:
			if rng.Intn(2) == 1 {
				fn = mn
			}
			child.Nodes[id] = fn
		}
	}

	innovations := make(map[int64]struct{}, len(father.Connections)+len(mother.Connections))
	for id := range father.Connections {
		innovations[id] = struct{}{}
	}
	for id := range mother.Connections {
		innovations[id] = struct{}{}
	}

	adj := make(map[int][]int)
	for _, id := range slices.Sorted(maps.Keys(innovations)) {
		fg, inFather := father.Connections[id]
		mg, inMother := mother.Connections[id]

		var gene Connection
		var origin *Genome
		switch {
		case inFather && inMother:
			gene, origin = fg, father
			if rng.Intn(2) == 1 {
				gene, origin = mg, mother
			}
		case inFather:
			gene, origin = fg, father
		default:
			gene, origin = mg, mother
		}
		if !(inFather && inMother) && origin == weaker && rng.Float64() >= opts.WeakerDisjointProb {
			continue
		}

		for _, nid := range [2]int{gene.Source, gene.Target} {
			if _, ok := child.Nodes[nid]; !ok {
				child.Nodes[nid] = origin.Nodes[nid]
			}
		}

		if gene.Enabled && reachable(adj, gene.Target, gene.Source) {
			gene.Enabled = false
		}
		if gene.Enabled {
			adj[gene.Source] = append(adj[gene.Source], gene.Target)
		}
		child.Connections[id] = gene
	}

	if err := child.Validate(); err != nil {
		return nil, fmt.Errorf("crossover produced invalid child: %w", err)
	}
	return child, nil
}

// Distance is the NEAT compatibility distance between two genomes:
// weighted excess and disjoint gene counts, normalized by genome size
// for larger genomes, plus the mean weight difference of matching genes.
func Distance(g1, g2 *Genome, coeffs CompatibilityCoeffs) float64 {
	if g1 == nil || g2 == nil {
		return math.MaxFloat64
	}

	maxInnov1 := int64(-1)
	for id := range g1.Connections {
		maxInnov1 = max(maxInnov1, id)
	}
	maxInnov2 := int64(-1)
	for id := range g2.Connections {
		maxInnov2 = max(maxInnov2, id)
	}

	matching, disjoint, excess := 0, 0, 0
	weightDiff := 0.0
	for id, c1 := range g1.Connections {
		if c2, ok := g2.Connections[id]; ok {
			matching++
			weightDiff += math.Abs(c1.Weight - c2.Weight)
		} else if id > maxInnov2 {
			excess++
		} else {
			disjoint++
		}
	}
	for id := range g2.Connections {
		if _, ok := g1.Connections[id]; !ok {
			if id > maxInnov1 {
				excess++
			} else {
				disjoint++
			}
		}
	}

	n := float64(max(len(g1.Connections), len(g2.Connections)))
	if n < 20 {
		n = 1 // small genomes are not normalized
	}
	avgWeightDiff := 0.0
	if matching > 0 {
		avgWeightDiff = weightDiff / float64(matching)
	}
	return (coeffs.Excess*float64(excess)+coeffs.Disjoint*float64(disjoint))/n +
		coeffs.Weight*avgWeightDiff
}
