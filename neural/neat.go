package neural

import (
	"fmt"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
	neatmath "github.com/yaricom/goNEAT/v4/neat/math"
	"github.com/yaricom/goNEAT/v4/neat/network"
)

var neatActivations = [numActivations]neatmath.NodeActivationType{
	Identity: neatmath.LinearActivation,
	Sigmoid:  neatmath.SigmoidPlainActivation,
	Tanh:     neatmath.TanhActivation,
	Sine:     neatmath.SineActivation,
	Gaussian: neatmath.GaussianBipolarActivation,
	Step:     neatmath.StepActivation,
}

// ToNEAT converts g into a goNEAT genome. goNEAT nodes carry no bias, so
// a single bias neuron is appended after the inputs and wired to every
// computed node with the node's bias as weight; feed it 1.0 (NEATInputs
// does this). goNEAT ids are one-based, so every id is shifted by one.
// goNEAT's Gaussian and Step differ slightly from ours in range, so
// outputs agree exactly only for identity/tanh/sine/sigmoid networks.
func ToNEAT(g *Genome, id int) (*genetics.Genome, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	ids := g.NodeIDs()
	nodes := make([]*network.NNode, 0, len(ids)+1)
	byID := make(map[int]*network.NNode, len(ids)+1)
	for _, nid := range ids {
		n := g.Nodes[nid]
		var nt network.NodeNeuronType
		switch n.Kind {
		case InputNode:
			nt = network.InputNeuron
		case OutputNode:
			nt = network.OutputNeuron
		default:
			nt = network.HiddenNeuron
		}
		nn := network.NewNNode(nid+1, nt)
		nn.ActivationType = neatActivations[n.Activation]
		byID[nid] = nn
	}

	biasID := g.NextNodeID + 1
	bias := network.NewNNode(biasID, network.BiasNeuron)
	bias.ActivationType = neatmath.LinearActivation

	// Sensors first so LoadSensors sees inputs then bias.
	for _, nid := range ids {
		if g.Nodes[nid].Kind == InputNode {
			nodes = append(nodes, byID[nid])
		}
	}
	nodes = append(nodes, bias)
	for _, nid := range ids {
		if g.Nodes[nid].Kind != InputNode {
			nodes = append(nodes, byID[nid])
		}
	}

	genes := make([]*genetics.Gene, 0, len(g.Connections)+len(ids))
	for _, cid := range g.ConnectionIDs() {
		c := g.Connections[cid]
		gene := genetics.NewGeneWithTrait(nil, c.Weight, byID[c.Source], byID[c.Target], false, c.ID+1, 0)
		gene.IsEnabled = c.Enabled
		genes = append(genes, gene)
	}
	innov := g.NextConnID + 1
	for _, nid := range ids {
		n := g.Nodes[nid]
		if n.Kind == InputNode {
			continue
		}
		genes = append(genes, genetics.NewGeneWithTrait(nil, n.Bias, bias, byID[nid], false, innov, 0))
		innov++
	}

	return genetics.NewGenome(id, nil, nodes, genes), nil
}

// NEATInputs appends the bias sensor value expected by networks built from ToNEAT.
func NEATInputs(in []float64) []float64 {
	out := make([]float64, len(in)+1)
	copy(out, in)
	out[len(in)] = 1.0
	return out
}

// ActivateNEAT builds the goNEAT phenotype of g and activates it once.
// Used to cross-check the native evaluator.
func ActivateNEAT(g *Genome, in []float64) ([]float64, error) {
	ng, err := ToNEAT(g, 1)
	if err != nil {
		return nil, err
	}
	net, err := ng.Genesis(ng.Id)
	if err != nil {
		return nil, fmt.Errorf("building NEAT network: %w", err)
	}
	if err := net.LoadSensors(NEATInputs(in)); err != nil {
		return nil, fmt.Errorf("loading sensors: %w", err)
	}
	// goNEAT propagates one layer per step; loop until outputs settle.
	for range len(g.Nodes) + 1 {
		if _, err := net.Activate(); err != nil {
			return nil, fmt.Errorf("activating NEAT network: %w", err)
		}
	}
	out := net.ReadOutputs()
	net.Flush()
	return out, nil
}
