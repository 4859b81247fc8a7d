package garden

import (
	"context"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/bloom/components"
	"github.com/pthm-cable/bloom/config"
	"github.com/pthm-cable/bloom/engine"
	"github.com/pthm-cable/bloom/flower"
	"github.com/pthm-cable/bloom/stats"
	"github.com/pthm-cable/bloom/storage"
	"github.com/pthm-cable/bloom/telemetry"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Phenotype = flower.Params{Radius: 12, NumLayers: 2, P: 5, Bias: 1}
	cfg.Garden.Population = 6
	cfg.Garden.Generations = 2
	cfg.Garden.Elite = 1
	cfg.Garden.Seed = 7
	cfg.Garden.ThumbnailSize = 8
	cfg.Derived.Workers = 2
	return cfg
}

func newTestGarden(t *testing.T, cfg *config.Config, opts Options) *Garden {
	t.Helper()
	eng, err := engine.New(cfg, nil)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return New(cfg, eng, opts)
}

func TestFitness(t *testing.T) {
	s := stats.Stats{Health: 50, MinTemperature: 10, MaxTemperature: 30}
	tests := []struct {
		name        string
		temperature int
		want        float64
	}{
		{"inside", 20, 50},
		{"lower edge", 10, 50},
		{"upper edge", 30, 50},
		{"too cold", 0, 50 * math.Exp(-1)},
		{"too hot", 50, 50 * math.Exp(-2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fitness(s, tt.temperature); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Fitness(%d) = %v, want %v", tt.temperature, got, tt.want)
			}
		})
	}
}

func TestRank(t *testing.T) {
	members := []Member{
		{Identity: components.Identity{ID: 3}, Traits: components.Traits{Fitness: 5}},
		{Identity: components.Identity{ID: 1}, Traits: components.Traits{Fitness: 9}},
		{Identity: components.Identity{ID: 2}, Traits: components.Traits{Fitness: 5}},
	}
	rank(members)
	want := []uint64{1, 2, 3}
	for i, id := range want {
		if members[i].Identity.ID != id {
			t.Errorf("rank[%d] = %d, want %d", i, members[i].Identity.ID, id)
		}
	}
}

func TestTournamentFiltersBySex(t *testing.T) {
	members := []Member{
		{Identity: components.Identity{ID: 1}, Traits: components.Traits{Fitness: 90, Stats: stats.Stats{Sex: flower.Male}}},
		{Identity: components.Identity{ID: 2}, Traits: components.Traits{Fitness: 10, Stats: stats.Stats{Sex: flower.Female}}},
		{Identity: components.Identity{ID: 3}, Traits: components.Traits{Fitness: 20, Stats: stats.Stats{Sex: flower.Female}}},
	}
	rng := rand.New(rand.NewSource(1))
	for range 50 {
		m := tournament(rng, members, 3, flower.Sex.HasPistil)
		if m.Traits.Stats.Sex != flower.Female {
			t.Fatalf("picked flower %d of sex %v", m.Identity.ID, m.Traits.Stats.Sex)
		}
	}

	// Nobody accepted: everyone competes, and a large tournament finds the best.
	none := func(flower.Sex) bool { return false }
	if m := tournament(rng, members, 64, none); m.Identity.ID != 1 {
		t.Errorf("fallback tournament picked %d, want 1", m.Identity.ID)
	}
}

func TestSeedTwice(t *testing.T) {
	g := newTestGarden(t, testConfig(), Options{})
	if err := g.Seed(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if got := len(g.Members()); got != 6 {
		t.Fatalf("population = %d, want 6", got)
	}
	if err := g.Seed(); err == nil {
		t.Fatal("expected error when seeding twice")
	}
}

func TestStepKeepsPopulationAndElites(t *testing.T) {
	cfg := testConfig()
	g := newTestGarden(t, cfg, Options{})
	if err := g.Seed(); err != nil {
		t.Fatalf("seed: %v", err)
	}

	gs, err := g.Step(context.Background())
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if gs.Generation != 0 || gs.Population != cfg.Garden.Population {
		t.Errorf("stats generation %d population %d", gs.Generation, gs.Population)
	}
	if g.Generation() != 1 {
		t.Errorf("Generation() = %d, want 1", g.Generation())
	}

	members := g.Members()
	if len(members) != cfg.Garden.Population {
		t.Fatalf("population = %d, want %d", len(members), cfg.Garden.Population)
	}
	elites := 0
	plots := make(map[components.Plot]bool)
	for _, m := range members {
		if m.Identity.Origin == components.OriginElite {
			elites++
		} else if m.Identity.Generation != 1 {
			t.Errorf("child %d born in generation %d, want 1", m.Identity.ID, m.Identity.Generation)
		}
		if m.Traits.Evaluated {
			t.Errorf("child %d evaluated before its generation was assessed", m.Identity.ID)
		}
		if m.Genome.Flower == nil {
			t.Errorf("flower %d has no decoded genome", m.Identity.ID)
		}
		if plots[m.Plot] {
			t.Errorf("plot %+v used twice", m.Plot)
		}
		plots[m.Plot] = true
	}
	if elites != cfg.Garden.Elite {
		t.Errorf("elites = %d, want %d", elites, cfg.Garden.Elite)
	}
}

func TestRunWritesArtifacts(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Garden.ContactSheet = true
	cfg.Garden.StoreBestEvery = 1

	dir := t.TempDir()
	out, err := telemetry.NewOutputManager(dir)
	if err != nil {
		t.Fatalf("output manager: %v", err)
	}
	t.Cleanup(func() { _ = out.Close() })

	store := storage.NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("store init: %v", err)
	}

	g := newTestGarden(t, cfg, Options{RunID: "test-run", Store: store, Output: out})
	best, err := g.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if !best.Traits.Evaluated || best.Traits.Fitness <= 0 {
		t.Errorf("best flower not scored: %+v", best.Traits)
	}
	history := g.History()
	if len(history) != cfg.Garden.Generations+1 {
		t.Fatalf("history length = %d, want %d", len(history), cfg.Garden.Generations+1)
	}
	if history[len(history)-1] != best.Traits.Fitness {
		t.Errorf("last history entry %v, best fitness %v", history[len(history)-1], best.Traits.Fitness)
	}

	stored, ok, err := store.GetFitnessHistory(ctx, "test-run")
	if err != nil || !ok {
		t.Fatalf("stored history: ok=%v err=%v", ok, err)
	}
	if len(stored) != len(history) {
		t.Errorf("stored history length %d, want %d", len(stored), len(history))
	}
	top, err := store.TopFlowers(ctx, "test-run", 1)
	if err != nil || len(top) != 1 {
		t.Fatalf("top flowers: %v (%d records)", err, len(top))
	}
	if _, err := flower.Decode(top[0].Flower); err != nil {
		t.Errorf("stored flower does not decode: %v", err)
	}

	for _, name := range []string{"generations.csv", "flowers.csv", "perf.csv", "hall_of_fame.json", "contact_sheet.png"} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("missing %s: %v", name, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", name)
		}
	}

	if _, ok := g.HallOfFame().Best(); !ok {
		t.Error("hall of fame is empty")
	}
}

func TestContactSheetSize(t *testing.T) {
	cfg := testConfig()
	g := newTestGarden(t, cfg, Options{})
	if err := g.Seed(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	sheet, err := g.ContactSheet(10)
	if err != nil {
		t.Fatalf("contact sheet: %v", err)
	}
	// Six flowers sit in a 3-column bed.
	if b := sheet.Bounds(); b.Dx() != 30 || b.Dy() != 20 {
		t.Errorf("sheet is %dx%d, want 30x20", b.Dx(), b.Dy())
	}
	if _, err := g.ContactSheet(0); err == nil {
		t.Error("expected error for zero thumbnail size")
	}
}
