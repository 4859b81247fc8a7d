package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for one garden generation.
const (
	PhaseStats        = "stats"
	PhaseSelection    = "selection"
	PhaseReproduction = "reproduction"
	PhaseStorage      = "storage"
	PhaseTelemetry    = "telemetry"
)

var phases = []string{PhaseStats, PhaseSelection, PhaseReproduction, PhaseStorage, PhaseTelemetry}

// GenerationTiming is the wall time one garden generation spent in each
// phase.
type GenerationTiming struct {
	Generation int
	Population int
	Total      time.Duration
	Phases     map[string]time.Duration
}

// FlowersPerSecond is the stats-evaluation throughput of the generation.
func (t GenerationTiming) FlowersPerSecond() float64 {
	d := t.Phases[PhaseStats]
	if d <= 0 {
		return 0
	}
	return float64(t.Population) / d.Seconds()
}

// PerfRow is one generation in perf.csv.
type PerfRow struct {
	Generation       int     `csv:"generation"`
	Population       int     `csv:"population"`
	TotalUS          int64   `csv:"total_us"`
	StatsUS          int64   `csv:"stats_us"`
	SelectionUS      int64   `csv:"selection_us"`
	ReproductionUS   int64   `csv:"reproduction_us"`
	StorageUS        int64   `csv:"storage_us"`
	TelemetryUS      int64   `csv:"telemetry_us"`
	FlowersPerSecond float64 `csv:"flowers_per_sec"`
}

// Row flattens t for CSV output.
func (t GenerationTiming) Row() PerfRow {
	return PerfRow{
		Generation:       t.Generation,
		Population:       t.Population,
		TotalUS:          t.Total.Microseconds(),
		StatsUS:          t.Phases[PhaseStats].Microseconds(),
		SelectionUS:      t.Phases[PhaseSelection].Microseconds(),
		ReproductionUS:   t.Phases[PhaseReproduction].Microseconds(),
		StorageUS:        t.Phases[PhaseStorage].Microseconds(),
		TelemetryUS:      t.Phases[PhaseTelemetry].Microseconds(),
		FlowersPerSecond: t.FlowersPerSecond(),
	}
}

// PhaseTimer times the phases of each garden generation and keeps run
// totals. Not safe for concurrent use.
type PhaseTimer struct {
	current    GenerationTiming
	start      time.Time
	phase      string
	phaseStart time.Time

	generations int
	total       time.Duration
	phaseTotals map[string]time.Duration
	slowest     GenerationTiming
}

// NewPhaseTimer returns an idle timer.
func NewPhaseTimer() *PhaseTimer {
	return &PhaseTimer{phaseTotals: make(map[string]time.Duration)}
}

// Begin starts timing generation with the given population.
func (p *PhaseTimer) Begin(generation, population int) {
	p.start = time.Now()
	p.phase = ""
	p.current = GenerationTiming{
		Generation: generation,
		Population: population,
		Phases:     make(map[string]time.Duration),
	}
}

// Phase closes the running phase, if any, and opens name. Re-entering a
// phase adds to its total.
func (p *PhaseTimer) Phase(name string) {
	now := time.Now()
	p.closePhase(now)
	p.phase = name
	p.phaseStart = now
}

func (p *PhaseTimer) closePhase(now time.Time) {
	if p.phase != "" {
		p.current.Phases[p.phase] += now.Sub(p.phaseStart)
		p.phase = ""
	}
}

// End finishes the generation, folds it into the run totals and returns
// its timing.
func (p *PhaseTimer) End() GenerationTiming {
	now := time.Now()
	p.closePhase(now)
	p.current.Total = now.Sub(p.start)

	t := p.current
	p.generations++
	p.total += t.Total
	for name, d := range t.Phases {
		p.phaseTotals[name] += d
	}
	if t.Total >= p.slowest.Total {
		p.slowest = t
	}
	return t
}

// PerfSummary aggregates every generation timed so far.
type PerfSummary struct {
	Generations int
	Mean        time.Duration
	Slowest     GenerationTiming
	PhaseShare  map[string]float64 // percent of total run time
}

// Summary returns the run totals.
func (p *PhaseTimer) Summary() PerfSummary {
	s := PerfSummary{Generations: p.generations, Slowest: p.slowest, PhaseShare: make(map[string]float64)}
	if p.generations == 0 {
		return s
	}
	s.Mean = p.total / time.Duration(p.generations)
	if p.total > 0 {
		for name, d := range p.phaseTotals {
			s.PhaseShare[name] = float64(d) / float64(p.total) * 100
		}
	}
	return s
}

// LogValue implements slog.LogValuer.
func (s PerfSummary) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("generations", s.Generations),
		slog.Int64("mean_gen_ms", s.Mean.Milliseconds()),
		slog.Int("slowest_gen", s.Slowest.Generation),
		slog.Int64("slowest_gen_ms", s.Slowest.Total.Milliseconds()),
	}
	for _, phase := range phases {
		if pct, ok := s.PhaseShare[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", float64(int(pct*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}
