package telemetry

import (
	"testing"
	"time"
)

func TestPhaseTimer_GenerationTiming(t *testing.T) {
	pt := NewPhaseTimer()

	pt.Begin(4, 12)
	pt.Phase(PhaseStats)
	time.Sleep(200 * time.Microsecond)
	pt.Phase(PhaseReproduction)
	time.Sleep(100 * time.Microsecond)
	pt.Phase(PhaseStats)
	time.Sleep(100 * time.Microsecond)
	timing := pt.End()

	if timing.Generation != 4 || timing.Population != 12 {
		t.Errorf("timing keyed as generation %d population %d", timing.Generation, timing.Population)
	}
	if timing.Phases[PhaseStats] < 300*time.Microsecond {
		t.Errorf("re-entered phase should accumulate, got %v", timing.Phases[PhaseStats])
	}
	sum := timing.Phases[PhaseStats] + timing.Phases[PhaseReproduction]
	if timing.Total < sum {
		t.Errorf("total %v below phase sum %v", timing.Total, sum)
	}
	if _, ok := timing.Phases[PhaseSelection]; ok {
		t.Error("phase never entered should be absent")
	}
	if timing.FlowersPerSecond() <= 0 {
		t.Error("expected positive throughput")
	}

	row := timing.Row()
	if row.Generation != 4 || row.Population != 12 || row.StatsUS < 300 || row.SelectionUS != 0 {
		t.Errorf("unexpected row %+v", row)
	}
}

func TestPhaseTimer_Summary(t *testing.T) {
	pt := NewPhaseTimer()

	for gen := range 3 {
		pt.Begin(gen, 5)
		pt.Phase("fast")
		time.Sleep(10 * time.Microsecond)
		pt.Phase("slow")
		time.Sleep(time.Duration(gen+1) * time.Millisecond)
		pt.End()
	}

	s := pt.Summary()
	if s.Generations != 3 {
		t.Fatalf("expected 3 generations, got %d", s.Generations)
	}
	if s.Slowest.Generation != 2 {
		t.Errorf("expected generation 2 slowest, got %d", s.Slowest.Generation)
	}
	if s.PhaseShare["slow"] <= s.PhaseShare["fast"] {
		t.Errorf("expected slow share (%v%%) > fast share (%v%%)", s.PhaseShare["slow"], s.PhaseShare["fast"])
	}
	if s.Mean <= 0 {
		t.Error("expected positive mean generation time")
	}
}

func TestPhaseTimer_Empty(t *testing.T) {
	s := NewPhaseTimer().Summary()
	if s.Generations != 0 || s.Mean != 0 || s.PhaseShare == nil {
		t.Errorf("unexpected empty summary %+v", s)
	}

	var idle GenerationTiming
	if idle.FlowersPerSecond() != 0 {
		t.Error("zero timing should report zero throughput")
	}
}
