// Package components defines the ECS components of a garden.
package components

import "github.com/pthm-cable/bloom/flower"

// Genome holds a flower's exchange-format text and its decoded form. The
// text is authoritative; Flower is a read-only cache of it.
type Genome struct {
	Text   string
	Flower *flower.Flower
}

// Size returns the node and connection counts over all genomes.
func (g *Genome) Size() (nodes, connections int) {
	if g.Flower == nil {
		return 0, 0
	}
	for _, ng := range g.Flower.DNA.Genomes {
		nodes += len(ng.Nodes)
		connections += len(ng.Connections)
	}
	return nodes, connections
}
