package telemetry

import (
	"github.com/pthm-cable/bloom/neural"
)

// FlowerSample is what the collector needs to know about one flower at
// the end of a generation.
type FlowerSample struct {
	Fitness     float64
	Health      int
	Stamina     int
	Toxicity    float64
	Tolerant    bool
	Nodes       int
	Connections int
	Distance    float64 // to the generation's best flower
}

// Collector accumulates reproduction events within a generation and
// produces GenerationStats.
type Collector struct {
	generation int

	crossovers    int
	mutationsOnly int
	elites        int
	failures      int
	mutations     neural.MutationReport
}

// NewCollector creates a new generation collector.
func NewCollector() *Collector {
	return &Collector{}
}

// RecordCrossover records a child bred from two parents.
func (c *Collector) RecordCrossover() {
	c.crossovers++
}

// RecordMutationOnly records a child bred from a single parent.
func (c *Collector) RecordMutationOnly() {
	c.mutationsOnly++
}

// RecordElite records a flower carried over unchanged.
func (c *Collector) RecordElite() {
	c.elites++
}

// RecordFailure records a breeding attempt that returned an error.
func (c *Collector) RecordFailure() {
	c.failures++
}

// RecordMutation adds the operator counts of one mutation.
func (c *Collector) RecordMutation(r neural.MutationReport) {
	c.mutations.NodesAdded += r.NodesAdded
	c.mutations.ConnsAdded += r.ConnsAdded
	c.mutations.ConnsRemoved += r.ConnsRemoved
	c.mutations.WeightsPerturbed += r.WeightsPerturbed
	c.mutations.Enabled += r.Enabled
	c.mutations.Disabled += r.Disabled
	c.mutations.ActivationsSwaps += r.ActivationsSwaps
}

// Flush produces the stats for the finished generation from the final
// population and resets the counters for the next one.
func (c *Collector) Flush(samples []FlowerSample) GenerationStats {
	n := len(samples)
	fitness := make([]float64, 0, n)
	health := make([]float64, 0, n)
	stamina := make([]float64, 0, n)
	toxicity := make([]float64, 0, n)
	nodes := make([]float64, 0, n)
	conns := make([]float64, 0, n)
	dist := make([]float64, 0, n)
	tolerant := make([]bool, 0, n)
	for _, s := range samples {
		fitness = append(fitness, s.Fitness)
		health = append(health, float64(s.Health))
		stamina = append(stamina, float64(s.Stamina))
		toxicity = append(toxicity, s.Toxicity)
		nodes = append(nodes, float64(s.Nodes))
		conns = append(conns, float64(s.Connections))
		dist = append(dist, s.Distance)
		tolerant = append(tolerant, s.Tolerant)
	}

	fit := Summarize(fitness)
	hp := Summarize(health)
	out := GenerationStats{
		Generation:     c.generation,
		Population:     n,
		Crossovers:     c.crossovers,
		MutationsOnly:  c.mutationsOnly,
		Elites:         c.elites,
		NodesAdded:     c.mutations.NodesAdded,
		ConnsAdded:     c.mutations.ConnsAdded,
		ConnsRemoved:   c.mutations.ConnsRemoved,
		ActivationSwap: c.mutations.ActivationsSwaps,
		Failures:       c.failures,

		FitnessMean: finite(fit.Mean),
		FitnessBest: finite(fit.Max),
		FitnessP10:  finite(fit.P10),
		FitnessP50:  finite(fit.P50),
		FitnessP90:  finite(fit.P90),

		HealthMean:   finite(hp.Mean),
		HealthStd:    finite(hp.Std),
		StaminaMean:  finite(Summarize(stamina).Mean),
		ToxicityMean: finite(Summarize(toxicity).Mean),
		Tolerant:     Fraction(tolerant),

		NodesMean:       finite(Summarize(nodes).Mean),
		ConnectionsMean: finite(Summarize(conns).Mean),
		DiversityMean:   finite(Summarize(dist).Mean),
	}

	gen := c.generation + 1
	*c = Collector{generation: gen}
	return out
}

// Generation returns the index of the generation being collected.
func (c *Collector) Generation() int {
	return c.generation
}
