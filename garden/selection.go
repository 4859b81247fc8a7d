package garden

import (
	"math/rand"
	"sort"

	"github.com/pthm-cable/bloom/components"
	"github.com/pthm-cable/bloom/flower"
)

// offspring is a bred flower waiting to be spawned.
type offspring struct {
	identity components.Identity
	text     string
	flower   *flower.Flower
}

// rank orders members by fitness, fittest first. Ties keep the older
// flower first.
func rank(members []Member) {
	sort.SliceStable(members, func(i, j int) bool {
		a, b := members[i], members[j]
		if a.Traits.Fitness != b.Traits.Fitness {
			return a.Traits.Fitness > b.Traits.Fitness
		}
		return a.Identity.ID < b.Identity.ID
	})
}

// tournament returns the fittest of k members drawn with replacement
// among those accepted by want. When no member is accepted the whole
// population competes.
func tournament(rng *rand.Rand, members []Member, k int, want func(flower.Sex) bool) *Member {
	candidates := make([]int, 0, len(members))
	for i := range members {
		if want == nil || want(members[i].Traits.Stats.Sex) {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		for i := range members {
			candidates = append(candidates, i)
		}
	}
	var best *Member
	for range max(k, 1) {
		c := &members[candidates[rng.Intn(len(candidates))]]
		if best == nil || c.Traits.Fitness > best.Traits.Fitness {
			best = c
		}
	}
	return best
}

// breed produces the next generation from a ranked population: elites
// first, then children of tournament-selected parents. A child whose
// breeding fails is replaced by a hall of fame flower of the parent's
// sex, or the parent itself.
func (g *Garden) breed(ranked []Member) []offspring {
	cfg := g.cfg.Garden
	children := make([]offspring, 0, cfg.Population)

	for i := 0; i < cfg.Elite && i < len(ranked); i++ {
		m := ranked[i]
		id := m.Identity
		id.Origin = components.OriginElite
		children = append(children, offspring{identity: id, text: m.Genome.Text, flower: m.Genome.Flower})
		g.collector.RecordElite()
	}

	for len(children) < cfg.Population {
		father := tournament(g.rng, ranked, cfg.TournamentSize, flower.Sex.HasStamens)
		id := components.Identity{
			ID:         g.newID(),
			Generation: g.generation + 1,
			Origin:     components.OriginMutation,
			FatherID:   father.Identity.ID,
			MotherID:   father.Identity.ID,
		}
		text := father.Genome.Text

		if g.rng.Float64() < cfg.CrossoverRate {
			mother := tournament(g.rng, ranked, cfg.TournamentSize, flower.Sex.HasPistil)
			child, err := g.eng.ReproduceRanked(g.rng, father.Genome.Text, mother.Genome.Text,
				father.Traits.Fitness, mother.Traits.Fitness, g.cfg.Phenotype, nil)
			if err != nil {
				children = append(children, g.fallback(father, id, err))
				continue
			}
			text = child
			id.Origin = components.OriginCrossover
			id.MotherID = mother.Identity.ID
			g.collector.RecordCrossover()
		} else {
			g.collector.RecordMutationOnly()
		}

		mutated, report, err := g.eng.MutateReport(g.rng, text, g.cfg.Phenotype, g.cfg.Mutation.Rates, nil)
		if err != nil {
			children = append(children, g.fallback(father, id, err))
			continue
		}
		g.collector.RecordMutation(report)

		f, err := flower.Decode(mutated)
		if err != nil {
			children = append(children, g.fallback(father, id, err))
			continue
		}
		children = append(children, offspring{identity: id, text: mutated, flower: f})
	}
	return children
}

func (g *Garden) fallback(parent *Member, id components.Identity, cause error) offspring {
	g.collector.RecordFailure()
	g.log.Warn("breeding failed", "parent", parent.Identity.ID, "error", cause)

	if text := g.hof.Sample(parent.Traits.Stats.Sex); text != "" {
		if f, err := flower.Decode(text); err == nil {
			return offspring{identity: id, text: text, flower: f}
		}
	}
	return offspring{identity: id, text: parent.Genome.Text, flower: parent.Genome.Flower}
}
