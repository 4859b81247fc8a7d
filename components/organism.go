package components

// Origin records how a flower entered the garden.
type Origin uint8

const (
	OriginSeed      Origin = iota // fresh minimal genomes
	OriginElite                   // copied unchanged from the previous generation
	OriginCrossover               // two parents, then mutated
	OriginMutation                // one parent, mutated
)

func (o Origin) String() string {
	switch o {
	case OriginSeed:
		return "seed"
	case OriginElite:
		return "elite"
	case OriginCrossover:
		return "crossover"
	case OriginMutation:
		return "mutation"
	}
	return "unknown"
}

// Identity bundles identity and lineage.
type Identity struct {
	ID         uint64
	Generation int    // generation the flower was born in
	Origin     Origin
	FatherID   uint64 // 0 for seeds
	MotherID   uint64 // equal to FatherID for single-parent children
}
