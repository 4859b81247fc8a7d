package main

import (
	"encoding/json"
	"math"
	"sync"

	"github.com/pthm-cable/bloom/engine"
	"github.com/pthm-cable/bloom/garden"
	"github.com/pthm-cable/bloom/stats"
)

// EvalRow is one line of the search log.
type EvalRow struct {
	Eval        int     `csv:"eval"`
	Objective   float64 `csv:"objective"`
	Humidity    float64 `csv:"humidity"`
	Temperature int     `csv:"temperature"`
	Altitude    int     `csv:"altitude"`
	TerrainType int     `csv:"terrain_type"`
	Health      int     `csv:"health"`
	Stamina     int     `csv:"stamina"`
	Tolerant    bool    `csv:"tolerant"`
}

// FitnessEvaluator scores environments for one flower. Lower is better.
type FitnessEvaluator struct {
	eng    *engine.Engine
	flower string
	params *ParamVector
	base   stats.Environment

	mu        sync.Mutex
	cache     map[stats.Environment]float64
	rows      []EvalRow
	best      EvalRow
	bestStats stats.Stats
	hasBest   bool
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(eng *engine.Engine, flowerText string, params *ParamVector, base stats.Environment) *FitnessEvaluator {
	return &FitnessEvaluator{
		eng:    eng,
		flower: flowerText,
		params: params,
		base:   base,
		cache:  make(map[stats.Environment]float64),
	}
}

// Evaluate returns the negated garden fitness of the flower in the
// environment x describes. Integer rounding makes many vectors share an
// environment, so results are cached.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	env := fe.params.Environment(fe.base, x)

	fe.mu.Lock()
	defer fe.mu.Unlock()

	if v, ok := fe.cache[env]; ok {
		return v
	}
	s, err := fe.stats(env)
	if err != nil {
		fe.cache[env] = math.Inf(1)
		return math.Inf(1)
	}
	// Stamina breaks ties between environments of equal health.
	objective := -(garden.Fitness(s, env.Temperature) + 0.01*float64(s.Stamina))
	fe.cache[env] = objective

	row := EvalRow{
		Eval:        len(fe.rows) + 1,
		Objective:   objective,
		Humidity:    env.Humidity,
		Temperature: env.Temperature,
		Altitude:    env.Altitude,
		TerrainType: env.TerrainType,
		Health:      s.Health,
		Stamina:     s.Stamina,
		Tolerant:    s.Tolerates(env.Temperature),
	}
	fe.rows = append(fe.rows, row)
	if !fe.hasBest || objective < fe.best.Objective {
		fe.best, fe.bestStats, fe.hasBest = row, s, true
	}
	return objective
}

func (fe *FitnessEvaluator) stats(env stats.Environment) (stats.Stats, error) {
	text, err := fe.eng.Stats(fe.flower, env)
	if err != nil {
		return stats.Stats{}, err
	}
	var s stats.Stats
	if err := json.Unmarshal([]byte(text), &s); err != nil {
		return stats.Stats{}, err
	}
	return s, nil
}

// Rows returns the logged evaluations in order.
func (fe *FitnessEvaluator) Rows() []EvalRow {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return append([]EvalRow(nil), fe.rows...)
}

// Best returns the best evaluation and its stats.
func (fe *FitnessEvaluator) Best() (EvalRow, stats.Stats, bool) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.best, fe.bestStats, fe.hasBest
}
