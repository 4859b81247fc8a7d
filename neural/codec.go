package neural

import (
	"encoding/json"
	"fmt"
)

type nodeRecord struct {
	ID         int        `json:"id"`
	Kind       NodeKind   `json:"kind"`
	Activation Activation `json:"activation"`
	Bias       float64    `json:"bias"`
}

type connectionRecord struct {
	ID      int64   `json:"id"`
	Source  int     `json:"source"`
	Target  int     `json:"target"`
	Weight  float64 `json:"weight"`
	Enabled bool    `json:"enabled"`
}

type genomeRecord struct {
	Inputs      int                `json:"inputs"`
	Outputs     int                `json:"outputs"`
	NextNodeID  int                `json:"nextNodeId"`
	NextConnID  int64              `json:"nextConnectionId"`
	Nodes       []nodeRecord       `json:"nodes"`
	Connections []connectionRecord `json:"connections"`
}

// MarshalJSON writes nodes and connections as id-sorted arrays.
func (g *Genome) MarshalJSON() ([]byte, error) {
	rec := genomeRecord{
		Inputs:      g.Inputs,
		Outputs:     g.Outputs,
		NextNodeID:  g.NextNodeID,
		NextConnID:  g.NextConnID,
		Nodes:       make([]nodeRecord, 0, len(g.Nodes)),
		Connections: make([]connectionRecord, 0, len(g.Connections)),
	}
	for _, id := range g.NodeIDs() {
		n := g.Nodes[id]
		rec.Nodes = append(rec.Nodes, nodeRecord{ID: n.ID, Kind: n.Kind, Activation: n.Activation, Bias: n.Bias})
	}
	for _, id := range g.ConnectionIDs() {
		c := g.Connections[id]
		rec.Connections = append(rec.Connections, connectionRecord{
			ID: c.ID, Source: c.Source, Target: c.Target, Weight: c.Weight, Enabled: c.Enabled,
		})
	}
	return json.Marshal(rec)
}

// UnmarshalJSON decodes and validates a genome.
func (g *Genome) UnmarshalJSON(data []byte) error {
	var rec genomeRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	out := Genome{
		Inputs:      rec.Inputs,
		Outputs:     rec.Outputs,
		NextNodeID:  rec.NextNodeID,
		NextConnID:  rec.NextConnID,
		Nodes:       make(map[int]Node, len(rec.Nodes)),
		Connections: make(map[int64]Connection, len(rec.Connections)),
	}
	for _, n := range rec.Nodes {
		if _, dup := out.Nodes[n.ID]; dup {
			return fmt.Errorf("%w: duplicate node id %d", ErrMalformed, n.ID)
		}
		out.Nodes[n.ID] = Node{ID: n.ID, Kind: n.Kind, Activation: n.Activation, Bias: n.Bias}
	}
	for _, c := range rec.Connections {
		if _, dup := out.Connections[c.ID]; dup {
			return fmt.Errorf("%w: duplicate connection id %d", ErrMalformed, c.ID)
		}
		out.Connections[c.ID] = Connection{ID: c.ID, Source: c.Source, Target: c.Target, Weight: c.Weight, Enabled: c.Enabled}
	}
	if err := out.Validate(); err != nil {
		return err
	}
	*g = out
	return nil
}

// Serialize returns the textual form of g.
func Serialize(g *Genome) (string, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Deserialize parses and validates a genome produced by Serialize.
func Deserialize(text string) (*Genome, error) {
	g := &Genome{}
	if err := json.Unmarshal([]byte(text), g); err != nil {
		return nil, err
	}
	return g, nil
}
