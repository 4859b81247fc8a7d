// Package garden evolves a population of flowers held in an ark ECS
// world. Each generation the flowers are scored against the garden
// climate, parents are picked by tournament and the next generation is
// bred through the engine boundary.
package garden

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/bloom/components"
	"github.com/pthm-cable/bloom/config"
	"github.com/pthm-cable/bloom/engine"
	"github.com/pthm-cable/bloom/flower"
	"github.com/pthm-cable/bloom/stats"
	"github.com/pthm-cable/bloom/storage"
	"github.com/pthm-cable/bloom/telemetry"
)

const hallOfFameSize = 10

// Options are the optional collaborators of a garden.
type Options struct {
	RunID  string                   // identifies the run in the store; derived from the seed when empty
	Store  storage.Store            // initialized by the caller; nil disables persistence
	Output *telemetry.OutputManager // nil disables CSV output
	Log    *slog.Logger
}

// Member is a read-only snapshot of one flower entity.
type Member struct {
	Entity   ecs.Entity
	Identity components.Identity
	Genome   components.Genome
	Traits   components.Traits
	Plot     components.Plot
}

// Garden holds the population and the run state.
type Garden struct {
	cfg   *config.Config
	eng   *engine.Engine
	rng   *rand.Rand
	env   stats.Environment
	log   *slog.Logger
	runID string

	world     *ecs.World
	mapper    *ecs.Map4[components.Identity, components.Genome, components.Traits, components.Plot]
	filter    *ecs.Filter4[components.Identity, components.Genome, components.Traits, components.Plot]
	traitsMap *ecs.Map1[components.Traits]

	collector *telemetry.Collector
	perf      *telemetry.PhaseTimer
	hof       *telemetry.HallOfFame
	out       *telemetry.OutputManager
	store     storage.Store

	generation int
	nextID     uint64
	history    []float64
}

// New creates an empty garden. Call Seed before Step or Run.
func New(cfg *config.Config, eng *engine.Engine, opts Options) *Garden {
	if cfg == nil {
		cfg = config.Default()
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	seed := cfg.Garden.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	runID := opts.RunID
	if runID == "" {
		runID = fmt.Sprintf("run-%d", seed)
	}
	rng := rand.New(rand.NewSource(seed))

	world := ecs.NewWorld()
	return &Garden{
		cfg:       cfg,
		eng:       eng,
		rng:       rng,
		env:       cfg.Garden.Environment(),
		log:       log.With("run", runID),
		runID:     runID,
		world:     world,
		mapper:    ecs.NewMap4[components.Identity, components.Genome, components.Traits, components.Plot](world),
		filter:    ecs.NewFilter4[components.Identity, components.Genome, components.Traits, components.Plot](world),
		traitsMap: ecs.NewMap1[components.Traits](world),
		collector: telemetry.NewCollector(),
		perf:      telemetry.NewPhaseTimer(),
		hof:       telemetry.NewHallOfFame(hallOfFameSize, rng),
		out:       opts.Output,
		store:     opts.Store,
	}
}

// RunID returns the run identifier used for stored records.
func (g *Garden) RunID() string { return g.runID }

// Generation returns the number of completed breeding rounds.
func (g *Garden) Generation() int { return g.generation }

// History returns the best fitness of every assessed generation.
func (g *Garden) History() []float64 { return append([]float64(nil), g.history...) }

// HallOfFame returns the fittest flowers seen so far.
func (g *Garden) HallOfFame() *telemetry.HallOfFame { return g.hof }

// Seed fills the garden with fresh flowers.
func (g *Garden) Seed() error {
	if g.count() > 0 {
		return fmt.Errorf("garden already seeded")
	}
	for i := 0; i < g.cfg.Garden.Population; i++ {
		text, err := g.eng.MakePetals(g.rng, g.cfg.Phenotype, nil)
		if err != nil {
			return fmt.Errorf("seeding flower %d: %w", i, err)
		}
		id := components.Identity{ID: g.newID(), Generation: 0, Origin: components.OriginSeed}
		if err := g.spawn(id, text, i); err != nil {
			return err
		}
	}
	g.log.Info("garden seeded", "population", g.cfg.Garden.Population, "environment", g.env)
	return nil
}

func (g *Garden) newID() uint64 {
	g.nextID++
	return g.nextID
}

func (g *Garden) spawn(id components.Identity, text string, slot int) error {
	f, err := flower.Decode(text)
	if err != nil {
		return fmt.Errorf("flower %d: %w", id.ID, err)
	}
	genome := components.Genome{Text: text, Flower: f}
	traits := components.Traits{}
	plot := components.PlotAt(slot, bedColumns(g.cfg.Garden.Population))
	g.mapper.NewEntity(&id, &genome, &traits, &plot)
	return nil
}

func (g *Garden) count() int {
	n := 0
	query := g.filter.Query()
	for query.Next() {
		n++
	}
	return n
}

// Members returns a snapshot of the population ordered by flower id.
func (g *Garden) Members() []Member {
	var members []Member
	query := g.filter.Query()
	for query.Next() {
		id, genome, traits, plot := query.Get()
		members = append(members, Member{
			Entity:   query.Entity(),
			Identity: *id,
			Genome:   *genome,
			Traits:   *traits,
			Plot:     *plot,
		})
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Identity.ID < members[j].Identity.ID })
	return members
}

// Step assesses the current population and breeds the next one.
func (g *Garden) Step(ctx context.Context) (telemetry.GenerationStats, error) {
	g.perf.Begin(g.generation, g.count())
	ranked, gs, err := g.assess(ctx)
	if err != nil {
		return gs, err
	}

	g.perf.Phase(telemetry.PhaseReproduction)
	children := g.breed(ranked)
	g.replace(children)
	g.generation++

	if err := g.out.WritePerf(g.perf.End()); err != nil {
		return gs, err
	}
	return gs, nil
}

// Run seeds the garden if needed, runs the configured number of
// generations and assesses the final population.
func (g *Garden) Run(ctx context.Context) (Member, error) {
	if g.count() == 0 {
		if err := g.Seed(); err != nil {
			return Member{}, err
		}
	}
	for i := 0; i < g.cfg.Garden.Generations; i++ {
		if _, err := g.Step(ctx); err != nil {
			return Member{}, fmt.Errorf("generation %d: %w", g.generation, err)
		}
	}

	g.perf.Begin(g.generation, g.count())
	ranked, _, err := g.assess(ctx)
	if err != nil {
		return Member{}, fmt.Errorf("final assessment: %w", err)
	}
	if err := g.out.WritePerf(g.perf.End()); err != nil {
		return Member{}, err
	}
	best := ranked[0]

	if err := g.finish(ctx, best); err != nil {
		return best, err
	}
	g.log.Info("garden finished",
		"perf", g.perf.Summary(),
		"generations", g.generation,
		"best_id", best.Identity.ID,
		"best_fitness", best.Traits.Fitness,
		"hall_of_fame", g.hof,
	)
	return best, nil
}

// assess evaluates every flower, ranks the population and records the
// generation.
func (g *Garden) assess(ctx context.Context) ([]Member, telemetry.GenerationStats, error) {
	g.perf.Phase(telemetry.PhaseStats)
	members := g.Members()
	if len(members) == 0 {
		return nil, telemetry.GenerationStats{}, fmt.Errorf("garden is empty")
	}
	if err := g.evaluate(ctx, members); err != nil {
		return nil, telemetry.GenerationStats{}, err
	}
	for i := range members {
		*g.traitsMap.Get(members[i].Entity) = members[i].Traits
	}

	g.perf.Phase(telemetry.PhaseSelection)
	rank(members)
	best := members[0]
	g.history = append(g.history, best.Traits.Fitness)

	g.perf.Phase(telemetry.PhaseTelemetry)
	gs, err := g.record(members)
	if err != nil {
		return nil, gs, err
	}

	g.perf.Phase(telemetry.PhaseStorage)
	if every := g.cfg.Garden.StoreBestEvery; g.store != nil && every > 0 && g.generation%every == 0 {
		if err := g.saveFlower(ctx, best); err != nil {
			return nil, gs, err
		}
	}
	return members, gs, nil
}

func (g *Garden) record(ranked []Member) (telemetry.GenerationStats, error) {
	best := ranked[0]
	samples := make([]telemetry.FlowerSample, len(ranked))
	rows := make([]telemetry.FlowerRow, len(ranked))
	for i, m := range ranked {
		nodes, conns := m.Genome.Size()
		s := m.Traits.Stats
		samples[i] = telemetry.FlowerSample{
			Fitness:     m.Traits.Fitness,
			Health:      s.Health,
			Stamina:     s.Stamina,
			Toxicity:    s.ToxicityRate,
			Tolerant:    m.Traits.Tolerant,
			Nodes:       nodes,
			Connections: conns,
			Distance:    flower.Distance(m.Genome.Flower, best.Genome.Flower, g.cfg.Compatibility),
		}
		rows[i] = telemetry.FlowerRow{
			Generation:  g.generation,
			FlowerID:    m.Identity.ID,
			Fitness:     m.Traits.Fitness,
			Health:      s.Health,
			Stamina:     s.Stamina,
			MinTemp:     s.MinTemperature,
			MaxTemp:     s.MaxTemperature,
			Maturation:  s.MaturationPeriod,
			Sex:         s.Sex.String(),
			Toxicity:    s.ToxicityRate,
			Nodes:       nodes,
			Connections: conns,
		}
		g.hof.Consider(telemetry.HallEntry{
			Flower:     m.Genome.Text,
			Fitness:    m.Traits.Fitness,
			FlowerID:   m.Identity.ID,
			Generation: g.generation,
			Health:     s.Health,
			Sex:        s.Sex,
		})
	}

	gs := g.collector.Flush(samples)
	if interval := g.cfg.Telemetry.LogInterval; interval > 0 && gs.Generation%interval == 0 {
		gs.LogStats()
	}
	if err := g.out.WriteGeneration(gs); err != nil {
		return gs, err
	}
	if err := g.out.WriteFlowers(rows); err != nil {
		return gs, err
	}
	return gs, nil
}

func (g *Garden) saveFlower(ctx context.Context, m Member) error {
	statsText, err := m.Traits.Stats.JSON()
	if err != nil {
		return err
	}
	record := storage.FlowerRecord{
		ID:         fmt.Sprintf("%s/%d", g.runID, m.Identity.ID),
		RunID:      g.runID,
		Generation: g.generation,
		Fitness:    m.Traits.Fitness,
		Sex:        m.Traits.Stats.Sex.String(),
		Flower:     m.Genome.Text,
		Stats:      statsText,
	}
	if err := g.store.SaveFlower(ctx, record); err != nil {
		return fmt.Errorf("storing flower %d: %w", m.Identity.ID, err)
	}
	return nil
}

// replace swaps the population for the bred children.
func (g *Garden) replace(children []offspring) {
	var old []ecs.Entity
	query := g.filter.Query()
	for query.Next() {
		old = append(old, query.Entity())
	}
	for _, e := range old {
		g.world.RemoveEntity(e)
	}
	for i, c := range children {
		genome := components.Genome{Text: c.text, Flower: c.flower}
		traits := components.Traits{}
		plot := components.PlotAt(i, bedColumns(len(children)))
		id := c.identity
		g.mapper.NewEntity(&id, &genome, &traits, &plot)
	}
}

// finish persists the run summary and writes the final artifacts.
func (g *Garden) finish(ctx context.Context, best Member) error {
	if g.store != nil {
		if err := g.saveFlower(ctx, best); err != nil {
			return err
		}
		if err := g.store.SaveFitnessHistory(ctx, g.runID, g.history); err != nil {
			return fmt.Errorf("storing fitness history: %w", err)
		}
	}
	if err := g.out.WriteHallOfFame(g.hof); err != nil {
		return err
	}
	if g.out != nil && g.cfg.Garden.ContactSheet {
		data, err := g.ContactSheetPNG(g.cfg.Garden.ThumbnailSize)
		if err != nil {
			return err
		}
		if err := g.out.WriteFile("contact_sheet.png", data); err != nil {
			return err
		}
	}
	return nil
}

// bedColumns lays the population out in a near-square bed.
func bedColumns(n int) int {
	return max(int(math.Ceil(math.Sqrt(float64(n)))), 1)
}
