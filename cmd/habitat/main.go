// Package main searches, with CMA-ES, for the environment in which a
// flower grows best.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/bloom/config"
	"github.com/pthm-cable/bloom/engine"
	"github.com/pthm-cable/bloom/stats"
)

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	flowerPath := flag.String("flower", "", "Flower exchange-format file (empty = make one from -seed)")
	seed := flag.Int64("seed", 42, "Seed for the generated flower")
	maxEvals := flag.Int("max-evals", 300, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	terrain := flag.Bool("terrain", false, "Also search the terrain type")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if *outputDir == "" {
		fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fatal("failed to create output directory", "error", err)
	}

	if err := config.Init(*configPath); err != nil {
		fatal("failed to load config", "error", err)
	}
	cfg := config.Cfg()

	eng, err := engine.New(cfg, slog.Default())
	if err != nil {
		fatal("failed to create engine", "error", err)
	}

	flowerText, err := loadFlower(eng, cfg, *flowerPath, *seed)
	if err != nil {
		fatal("failed to load flower", "error", err)
	}

	base := cfg.Garden.Environment()
	params := NewParamVector(base, *terrain)
	evaluator := NewFitnessEvaluator(eng, flowerText, params, base)

	dim := params.Dim()
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return evaluator.Evaluate(params.Denormalize(x))
		},
	}
	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0,
	}
	popSize := *population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(dim)/2.0)
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	slog.Info("starting search", "dims", dim, "population", popSize, "max_evals", *maxEvals, "start", base)
	start := time.Now()
	if _, err := optimize.Minimize(problem, params.Normalize(params.DefaultVector()), settings, method); err != nil {
		slog.Warn("search ended", "error", err)
	}

	best, bestStats, ok := evaluator.Best()
	if !ok {
		fatal("no environment could be evaluated")
	}
	slog.Info("search complete",
		"evals", len(evaluator.Rows()),
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
		"environment", stats.Environment{
			Humidity:    best.Humidity,
			Temperature: best.Temperature,
			Altitude:    best.Altitude,
			TerrainType: best.TerrainType,
		},
		"stats", bestStats,
	)

	if err := writeResults(*outputDir, cfg, evaluator, best); err != nil {
		fatal("failed to write results", "error", err)
	}
}

func loadFlower(eng *engine.Engine, cfg *config.Config, path string, seed int64) (string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return eng.MakePetals(rand.New(rand.NewSource(seed)), cfg.Phenotype, nil)
}

// writeResults saves the evaluation log and a config whose garden climate
// is the best environment found.
func writeResults(dir string, cfg *config.Config, fe *FitnessEvaluator, best EvalRow) error {
	logFile, err := os.Create(filepath.Join(dir, "habitat_log.csv"))
	if err != nil {
		return err
	}
	defer logFile.Close()
	rows := fe.Rows()
	if err := gocsv.MarshalFile(&rows, logFile); err != nil {
		return fmt.Errorf("writing search log: %w", err)
	}

	bestCfg := *cfg
	bestCfg.Garden.Humidity = best.Humidity
	bestCfg.Garden.Temperature = best.Temperature
	bestCfg.Garden.Altitude = best.Altitude
	bestCfg.Garden.TerrainType = best.TerrainType
	configOutPath := filepath.Join(dir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		return err
	}
	slog.Info("best config saved", "path", configOutPath)
	return nil
}

func fatal(msg string, args ...any) {
	slog.Error(msg, args...)
	os.Exit(1)
}
