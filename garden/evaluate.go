package garden

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/sourcegraph/conc/pool"

	"github.com/pthm-cable/bloom/components"
	"github.com/pthm-cable/bloom/stats"
)

// toleranceScale is the temperature distance, in degrees, over which the
// fitness of an intolerant flower falls by a factor of e.
const toleranceScale = 10.0

// Fitness scores a flower's stats in a climate: its health, reduced
// exponentially the further the temperature lies outside its range.
func Fitness(s stats.Stats, temperature int) float64 {
	health := float64(s.Health)
	var outside int
	switch {
	case temperature < s.MinTemperature:
		outside = s.MinTemperature - temperature
	case temperature > s.MaxTemperature:
		outside = temperature - s.MaxTemperature
	default:
		return health
	}
	return health * math.Exp(-float64(outside)/toleranceScale)
}

// evaluate computes the traits of every member concurrently. Each worker
// writes only its own member.
func (g *Garden) evaluate(ctx context.Context, members []Member) error {
	p := pool.New().
		WithContext(ctx).
		WithCancelOnError().
		WithMaxGoroutines(max(g.cfg.Derived.Workers, 1))
	for i := range members {
		m := &members[i]
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			traits, err := g.traits(m.Genome.Text)
			if err != nil {
				return fmt.Errorf("flower %d: %w", m.Identity.ID, err)
			}
			m.Traits = traits
			return nil
		})
	}
	return p.Wait()
}

// traits evaluates one encoded flower through the engine boundary.
func (g *Garden) traits(text string) (components.Traits, error) {
	out, err := g.eng.Stats(text, g.env)
	if err != nil {
		return components.Traits{}, err
	}
	var s stats.Stats
	if err := json.Unmarshal([]byte(out), &s); err != nil {
		return components.Traits{}, fmt.Errorf("decoding stats: %w", err)
	}
	return components.Traits{
		Stats:     s,
		Fitness:   Fitness(s, g.env.Temperature),
		Tolerant:  s.Tolerates(g.env.Temperature),
		Evaluated: true,
	}, nil
}
