package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/pthm-cable/bloom/config"
	"github.com/pthm-cable/bloom/engine"
	"github.com/pthm-cable/bloom/garden"
	"github.com/pthm-cable/bloom/storage"
	"github.com/pthm-cable/bloom/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot (overrides config)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config value, then time-based)")
	generations := flag.Int("generations", 0, "Generations to run (0 = config value)")
	runID := flag.String("run-id", "", "Run identifier for stored flowers (empty = derived from seed)")
	contactSheet := flag.Bool("contact-sheet", false, "Write a thumbnail grid of the final population")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *seed != 0 {
		cfg.Garden.Seed = *seed
	}
	if *generations > 0 {
		cfg.Garden.Generations = *generations
	}
	if *outputDir != "" {
		cfg.Telemetry.OutputDir = *outputDir
	}
	if *contactSheet {
		cfg.Garden.ContactSheet = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, *runID); err != nil {
		slog.Error("garden run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, runID string) error {
	eng, err := engine.New(cfg, slog.Default())
	if err != nil {
		return err
	}

	out, err := telemetry.NewOutputManager(cfg.Telemetry.OutputDir)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		return err
	}

	store, err := storage.NewStore(cfg.Storage.Kind, cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer storage.CloseIfSupported(store)
	if err := store.Init(ctx); err != nil {
		return err
	}

	g := garden.New(cfg, eng, garden.Options{
		RunID:  runID,
		Store:  store,
		Output: out,
		Log:    slog.Default(),
	})
	slog.Info("starting garden",
		"run", g.RunID(),
		"population", cfg.Garden.Population,
		"generations", cfg.Garden.Generations,
		"output_dir", out.Dir(),
	)

	best, err := g.Run(ctx)
	if err != nil {
		return err
	}
	slog.Info("best flower",
		"id", best.Identity.ID,
		"generation", best.Identity.Generation,
		"origin", best.Identity.Origin.String(),
		"fitness", best.Traits.Fitness,
		"stats", best.Traits.Stats,
	)
	return nil
}
