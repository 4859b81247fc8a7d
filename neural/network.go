package neural

import (
	"fmt"
)

type edge struct {
	from   int // slot of the source node
	weight float64
}

type neuron struct {
	slot       int
	activation Activation
	bias       float64
	in         []edge
}

// Network is a genome compiled for repeated evaluation. Node values live
// in a dense slice ordered so that one pass computes every output.
// A Network is not safe for concurrent use; compile one per goroutine.
type Network struct {
	inputs     int
	inputSlots []int
	outputs    []int // slots of the output nodes, by channel
	steps      []neuron
	values     []float64
}

// Compile validates the enabled subgraph and fixes an evaluation order.
func Compile(g *Genome) (*Network, error) {
	for _, cid := range g.ConnectionIDs() {
		c := g.Connections[cid]
		if _, ok := g.Nodes[c.Source]; !ok {
			return nil, fmt.Errorf("%w: connection %d references missing source %d", ErrMalformed, cid, c.Source)
		}
		if _, ok := g.Nodes[c.Target]; !ok {
			return nil, fmt.Errorf("%w: connection %d references missing target %d", ErrMalformed, cid, c.Target)
		}
	}
	order, err := g.topoOrder()
	if err != nil {
		return nil, err
	}

	slot := make(map[int]int, len(order))
	for i, id := range order {
		slot[id] = i
	}

	incoming := make(map[int][]edge, len(g.Nodes))
	for _, cid := range g.ConnectionIDs() {
		c := g.Connections[cid]
		if !c.Enabled {
			continue
		}
		incoming[c.Target] = append(incoming[c.Target], edge{from: slot[c.Source], weight: c.Weight})
	}

	net := &Network{
		inputs:  g.Inputs,
		outputs: make([]int, g.Outputs),
		values:  make([]float64, len(order)),
	}
	for j := range net.outputs {
		s, ok := slot[g.Inputs+j]
		if !ok {
			return nil, fmt.Errorf("%w: missing output node %d", ErrMalformed, g.Inputs+j)
		}
		net.outputs[j] = s
	}

	for _, id := range order {
		n := g.Nodes[id]
		if n.Kind == InputNode {
			continue
		}
		if !n.Activation.Valid() {
			return nil, fmt.Errorf("%w: node %d has tag %d", ErrUnknownActivation, id, uint8(n.Activation))
		}
		net.steps = append(net.steps, neuron{
			slot:       slot[id],
			activation: n.Activation,
			bias:       n.Bias,
			in:         incoming[id],
		})
	}

	net.inputSlots = make([]int, g.Inputs)
	for i := range net.inputSlots {
		net.inputSlots[i] = slot[i]
	}
	return net, nil
}

// NumInputs returns the number of input channels.
func (n *Network) NumInputs() int { return n.inputs }

// NumOutputs returns the number of output channels.
func (n *Network) NumOutputs() int { return len(n.outputs) }

// Activate evaluates the network. in must hold one value per input
// channel; out receives one value per output channel.
func (n *Network) Activate(in, out []float64) error {
	if len(in) != n.inputs {
		return fmt.Errorf("%w: %d inputs for %d channels", ErrInvalidParameter, len(in), n.inputs)
	}
	if len(out) < len(n.outputs) {
		return fmt.Errorf("%w: output buffer holds %d of %d channels", ErrInvalidParameter, len(out), len(n.outputs))
	}

	for i, s := range n.inputSlots {
		n.values[s] = in[i]
	}
	for _, step := range n.steps {
		if len(step.in) == 0 {
			n.values[step.slot] = step.bias
			continue
		}
		sum := step.bias
		for _, e := range step.in {
			sum += e.weight * n.values[e.from]
		}
		n.values[step.slot] = step.activation.Apply(sum)
	}
	for j, s := range n.outputs {
		out[j] = n.values[s]
	}
	return nil
}

// Evaluate compiles g and evaluates it once. Inputs are keyed by channel
// index; channels left out read as zero. The result is keyed by output
// channel index.
func Evaluate(g *Genome, inputs map[int]float64) (map[int]float64, error) {
	net, err := Compile(g)
	if err != nil {
		return nil, err
	}
	in := make([]float64, g.Inputs)
	for ch, v := range inputs {
		if ch < 0 || ch >= g.Inputs {
			return nil, fmt.Errorf("%w: input channel %d outside [0, %d)", ErrInvalidParameter, ch, g.Inputs)
		}
		in[ch] = v
	}
	out := make([]float64, g.Outputs)
	if err := net.Activate(in, out); err != nil {
		return nil, err
	}
	res := make(map[int]float64, len(out))
	for j, v := range out {
		res[j] = v
	}
	return res, nil
}
