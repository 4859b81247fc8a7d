package neural

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"math/rand"
	"slices"
)

var (
	// ErrMalformed reports a genome that violates the structural contract.
	ErrMalformed = errors.New("malformed genome")
	// ErrCycle reports a cycle among enabled connections.
	ErrCycle = errors.New("cycle among enabled connections")
	// ErrUnknownActivation reports an activation tag outside the fixed set.
	ErrUnknownActivation = errors.New("unknown activation")
	// ErrInvalidParameter reports an out-of-range argument.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrIncompatible reports parents whose channel layouts differ.
	ErrIncompatible = errors.New("incompatible genomes")
)

// Petal CPPN channels. Node ids equal channel indices: inputs occupy
// ids [0, inputs), outputs occupy [inputs, inputs+outputs).
const (
	InAngle  = 0 // sin(P*theta)
	InRadius = 1 // distance from centre over layer radius
	InLayer  = 2 // layer index over layer count
	InBias   = 3

	PetalInputs = 4

	OutRadius     = 0
	OutHue        = 1
	OutSaturation = 2
	OutValue      = 3
	OutAlpha      = 4

	PetalOutputs = 5
)

// Stats network channels.
const (
	StatsInputs  = 4  // humidity, temperature, altitude, terrain/effect
	StatsOutputs = 14 // see stats package for the output mapping
)

const initialWeightRange = 1.0 // minimal genomes draw weights from [-1, 1]

// NodeKind classifies a node's role in the network.
type NodeKind uint8

const (
	InputNode NodeKind = iota
	HiddenNode
	OutputNode
)

func (k NodeKind) String() string {
	switch k {
	case InputNode:
		return "input"
	case HiddenNode:
		return "hidden"
	case OutputNode:
		return "output"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k NodeKind) MarshalText() ([]byte, error) {
	if k > OutputNode {
		return nil, fmt.Errorf("%w: node kind %d", ErrMalformed, uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *NodeKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "input":
		*k = InputNode
	case "hidden":
		*k = HiddenNode
	case "output":
		*k = OutputNode
	default:
		return fmt.Errorf("%w: node kind %q", ErrMalformed, text)
	}
	return nil
}

// Node is a neuron gene.
type Node struct {
	ID         int
	Kind       NodeKind
	Activation Activation
	Bias       float64
}

// Connection is a link gene. ID is its innovation number.
type Connection struct {
	ID      int64
	Source  int
	Target  int
	Weight  float64
	Enabled bool
}

// Counter ceilings. Mutation never issues ids past them, so counters
// cannot wrap and the goNEAT export still has an id for its bias node.
const (
	MaxNodeID = math.MaxInt - 2
	MaxConnID = math.MaxInt64 - 2
)

// Genome is an evolvable feed-forward network stored as arenas of nodes
// and connections indexed by id. NextNodeID and NextConnID only grow, so
// an id is never handed out twice within a lineage.
type Genome struct {
	Inputs     int
	Outputs    int
	NextNodeID int
	NextConnID int64

	Nodes       map[int]Node
	Connections map[int64]Connection
}

// Layout describes the channel counts and output activations of a fresh genome.
type Layout struct {
	Inputs  int
	Outputs int
	// OutputActivations fixes the activation of each output node. When
	// nil, every output gets a random member of the activation set.
	OutputActivations []Activation
}

// PetalLayout is the layout of the petals CPPN.
func PetalLayout() Layout {
	return Layout{
		Inputs:  PetalInputs,
		Outputs: PetalOutputs,
		OutputActivations: []Activation{
			OutRadius:     Sigmoid,
			OutHue:        Sine,
			OutSaturation: Sigmoid,
			OutValue:      Sigmoid,
			OutAlpha:      Sigmoid,
		},
	}
}

// StatsLayout is the layout of the stats network. Outputs start with
// random activations.
func StatsLayout() Layout {
	return Layout{Inputs: StatsInputs, Outputs: StatsOutputs}
}

// NewGenome builds a minimal genome: every input wired to every output
// with a small random weight. Connection ids are assigned in row-major
// (input, output) order so that independently created genomes of the same
// layout align gene for gene.
func NewGenome(rng *rand.Rand, layout Layout) (*Genome, error) {
	if layout.Inputs <= 0 || layout.Outputs <= 0 {
		return nil, fmt.Errorf("%w: layout needs at least one input and one output, got %d/%d",
			ErrInvalidParameter, layout.Inputs, layout.Outputs)
	}
	if layout.OutputActivations != nil && len(layout.OutputActivations) != layout.Outputs {
		return nil, fmt.Errorf("%w: %d output activations for %d outputs",
			ErrInvalidParameter, len(layout.OutputActivations), layout.Outputs)
	}

	g := &Genome{
		Inputs:      layout.Inputs,
		Outputs:     layout.Outputs,
		NextNodeID:  layout.Inputs + layout.Outputs,
		NextConnID:  int64(layout.Inputs * layout.Outputs),
		Nodes:       make(map[int]Node, layout.Inputs+layout.Outputs),
		Connections: make(map[int64]Connection, layout.Inputs*layout.Outputs),
	}

	for i := 0; i < layout.Inputs; i++ {
		g.Nodes[i] = Node{ID: i, Kind: InputNode, Activation: Identity}
	}
	for j := 0; j < layout.Outputs; j++ {
		act := randomActivation(rng)
		if layout.OutputActivations != nil {
			act = layout.OutputActivations[j]
			if !act.Valid() {
				return nil, fmt.Errorf("%w: %d", ErrUnknownActivation, uint8(act))
			}
		}
		id := layout.Inputs + j
		g.Nodes[id] = Node{ID: id, Kind: OutputNode, Activation: act}
	}

	for i := 0; i < layout.Inputs; i++ {
		for j := 0; j < layout.Outputs; j++ {
			id := int64(i*layout.Outputs + j)
			g.Connections[id] = Connection{
				ID:      id,
				Source:  i,
				Target:  layout.Inputs + j,
				Weight:  randomWeight(rng),
				Enabled: true,
			}
		}
	}
	return g, nil
}

// CreateMinimal builds a minimal petals CPPN for a flower with layerCount
// petal layers.
func CreateMinimal(rng *rand.Rand, layerCount int) (*Genome, error) {
	if layerCount <= 0 {
		return nil, fmt.Errorf("%w: layer count must be positive, got %d", ErrInvalidParameter, layerCount)
	}
	return NewGenome(rng, PetalLayout())
}

// Clone returns a deep copy.
func (g *Genome) Clone() *Genome {
	c := *g
	c.Nodes = maps.Clone(g.Nodes)
	c.Connections = maps.Clone(g.Connections)
	if c.Nodes == nil {
		c.Nodes = map[int]Node{}
	}
	if c.Connections == nil {
		c.Connections = map[int64]Connection{}
	}
	return &c
}

// Equal reports whether two genomes carry the same ids, genes and counters.
func (g *Genome) Equal(o *Genome) bool {
	if g == nil || o == nil {
		return g == o
	}
	return g.Inputs == o.Inputs &&
		g.Outputs == o.Outputs &&
		g.NextNodeID == o.NextNodeID &&
		g.NextConnID == o.NextConnID &&
		maps.Equal(g.Nodes, o.Nodes) &&
		maps.Equal(g.Connections, o.Connections)
}

// NodeIDs returns node ids in ascending order.
func (g *Genome) NodeIDs() []int {
	return slices.Sorted(maps.Keys(g.Nodes))
}

// ConnectionIDs returns innovation numbers in ascending order.
func (g *Genome) ConnectionIDs() []int64 {
	return slices.Sorted(maps.Keys(g.Connections))
}

// EnabledCount returns the number of enabled connections.
func (g *Genome) EnabledCount() int {
	n := 0
	for _, c := range g.Connections {
		if c.Enabled {
			n++
		}
	}
	return n
}

// Validate checks the structural contract: fixed input/output ids, known
// kinds and activations, counters ahead of every id, connections between
// existing nodes in the allowed direction, and no cycle among enabled
// connections.
func (g *Genome) Validate() error {
	if g.Inputs <= 0 || g.Outputs <= 0 {
		return fmt.Errorf("%w: needs at least one input and one output", ErrMalformed)
	}
	io := g.Inputs + g.Outputs
	if g.NextNodeID < io {
		return fmt.Errorf("%w: next node id %d below channel count %d", ErrMalformed, g.NextNodeID, io)
	}
	if g.NextNodeID > MaxNodeID || g.NextConnID > MaxConnID {
		return fmt.Errorf("%w: id counters (%d, %d) exceed (%d, %d)", ErrMalformed,
			g.NextNodeID, g.NextConnID, MaxNodeID, MaxConnID)
	}

	for id, n := range g.Nodes {
		if n.ID != id {
			return fmt.Errorf("%w: node stored under id %d claims id %d", ErrMalformed, id, n.ID)
		}
		if id < 0 || id >= g.NextNodeID {
			return fmt.Errorf("%w: node id %d outside [0, %d)", ErrMalformed, id, g.NextNodeID)
		}
		want := HiddenNode
		switch {
		case id < g.Inputs:
			want = InputNode
		case id < io:
			want = OutputNode
		}
		if n.Kind != want {
			return fmt.Errorf("%w: node %d is %s, want %s", ErrMalformed, id, n.Kind, want)
		}
		if !n.Activation.Valid() {
			return fmt.Errorf("%w: node %d has tag %d", ErrUnknownActivation, id, uint8(n.Activation))
		}
		if math.IsNaN(n.Bias) || math.IsInf(n.Bias, 0) {
			return fmt.Errorf("%w: node %d has non-finite bias", ErrMalformed, id)
		}
	}
	for id := 0; id < io; id++ {
		if _, ok := g.Nodes[id]; !ok {
			return fmt.Errorf("%w: missing channel node %d", ErrMalformed, id)
		}
	}

	for id, c := range g.Connections {
		if c.ID != id {
			return fmt.Errorf("%w: connection stored under id %d claims id %d", ErrMalformed, id, c.ID)
		}
		if id < 0 || id >= g.NextConnID {
			return fmt.Errorf("%w: connection id %d outside [0, %d)", ErrMalformed, id, g.NextConnID)
		}
		src, ok := g.Nodes[c.Source]
		if !ok {
			return fmt.Errorf("%w: connection %d references missing source %d", ErrMalformed, id, c.Source)
		}
		dst, ok := g.Nodes[c.Target]
		if !ok {
			return fmt.Errorf("%w: connection %d references missing target %d", ErrMalformed, id, c.Target)
		}
		if src.Kind == OutputNode || dst.Kind == InputNode || c.Source == c.Target {
			return fmt.Errorf("%w: connection %d runs %s->%s", ErrMalformed, id, src.Kind, dst.Kind)
		}
		if math.IsNaN(c.Weight) || math.IsInf(c.Weight, 0) {
			return fmt.Errorf("%w: connection %d has non-finite weight", ErrMalformed, id)
		}
	}

	if _, err := g.topoOrder(); err != nil {
		return err
	}
	return nil
}

// adjacency maps each node to the targets of its enabled outgoing
// connections, in ascending connection id order.
func (g *Genome) adjacency() map[int][]int {
	adj := make(map[int][]int, len(g.Nodes))
	for _, id := range g.ConnectionIDs() {
		c := g.Connections[id]
		if c.Enabled {
			adj[c.Source] = append(adj[c.Source], c.Target)
		}
	}
	return adj
}

// reaches reports whether to is reachable from from along enabled connections.
func (g *Genome) reaches(from, to int) bool {
	return reachable(g.adjacency(), from, to)
}

func reachable(adj map[int][]int, from, to int) bool {
	if from == to {
		return true
	}
	seen := map[int]bool{from: true}
	stack := []int{from}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range adj[n] {
			if next == to {
				return true
			}
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

// topoOrder returns node ids in a topological order of the enabled
// subgraph, ties broken by ascending id.
func (g *Genome) topoOrder() ([]int, error) {
	indeg := make(map[int]int, len(g.Nodes))
	for id := range g.Nodes {
		indeg[id] = 0
	}
	adj := g.adjacency()
	for _, targets := range adj {
		for _, t := range targets {
			indeg[t]++
		}
	}

	var ready []int
	for _, id := range g.NodeIDs() {
		if indeg[id] == 0 {
			ready = append(ready, id)
		}
	}

	// ready stays sorted, so the smallest available id is always next.
	order := make([]int, 0, len(g.Nodes))
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)
		for _, t := range adj[n] {
			indeg[t]--
			if indeg[t] == 0 {
				i, _ := slices.BinarySearch(ready, t)
				ready = slices.Insert(ready, i, t)
			}
		}
	}
	if len(order) != len(g.Nodes) {
		return nil, ErrCycle
	}
	return order, nil
}

func randomActivation(rng *rand.Rand) Activation {
	return Activation(rng.Intn(int(numActivations)))
}

func randomWeight(rng *rand.Rand) float64 {
	return rng.Float64()*2*initialWeightRange - initialWeightRange
}
