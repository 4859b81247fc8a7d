package telemetry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"sort"

	"github.com/pthm-cable/bloom/flower"
)

// HallEntry is a flower that did well, kept in exchange format.
type HallEntry struct {
	Flower     string     `json:"flower"`
	Fitness    float64    `json:"fitness"`
	FlowerID   uint64     `json:"flower_id"`
	Generation int        `json:"generation"`
	Health     int        `json:"health"`
	Sex        flower.Sex `json:"sex"`
}

// HallOfFame stores the fittest flowers seen, one hall per sex, for
// reseeding a garden whose population collapsed.
type HallOfFame struct {
	halls   [3][]HallEntry
	maxSize int
	rng     *rand.Rand
}

// NewHallOfFame creates a new hall of fame with the given capacity per sex.
func NewHallOfFame(maxSize int, rng *rand.Rand) *HallOfFame {
	if maxSize < 1 {
		maxSize = 1
	}
	hof := &HallOfFame{maxSize: maxSize, rng: rng}
	for i := range hof.halls {
		hof.halls[i] = make([]HallEntry, 0, maxSize)
	}
	return hof
}

// Consider offers a flower to the hall. Flowers with no health never
// qualify. Returns true if the flower was added.
func (hof *HallOfFame) Consider(entry HallEntry) bool {
	if entry.Health <= 0 {
		return false
	}
	hall := hof.getHall(entry.Sex)
	if hall == nil {
		return false
	}
	var added bool
	*hall, added = hof.insertEntry(*hall, entry)
	return added
}

// insertEntry adds an entry to the hall, maintaining sorted order by fitness.
// If the hall is full, the lowest-fitness entry is removed.
func (hof *HallOfFame) insertEntry(hall []HallEntry, entry HallEntry) ([]HallEntry, bool) {
	idx := sort.Search(len(hall), func(i int) bool {
		return hall[i].Fitness < entry.Fitness
	})

	// If hall is full and entry would be last (lowest), skip it
	if len(hall) >= hof.maxSize && idx >= hof.maxSize {
		return hall, false
	}

	hall = append(hall, HallEntry{})
	copy(hall[idx+1:], hall[idx:])
	hall[idx] = entry

	if len(hall) > hof.maxSize {
		hall = hall[:hof.maxSize]
	}
	return hall, true
}

// Sample picks an encoded flower of the given sex by tournament
// selection. Returns "" if that hall is empty.
func (hof *HallOfFame) Sample(sex flower.Sex) string {
	hall := hof.getHall(sex)
	if hall == nil || len(*hall) == 0 {
		return ""
	}

	const tournamentSize = 3
	var best *HallEntry
	for i := 0; i < tournamentSize && i < len(*hall); i++ {
		candidate := &(*hall)[hof.rng.Intn(len(*hall))]
		if best == nil || candidate.Fitness > best.Fitness {
			best = candidate
		}
	}
	return best.Flower
}

// Size returns the number of entries for a sex.
func (hof *HallOfFame) Size(sex flower.Sex) int {
	hall := hof.getHall(sex)
	if hall == nil {
		return 0
	}
	return len(*hall)
}

// Best returns the fittest entry across all halls.
func (hof *HallOfFame) Best() (HallEntry, bool) {
	var best HallEntry
	found := false
	for _, hall := range hof.halls {
		if len(hall) > 0 && (!found || hall[0].Fitness > best.Fitness) {
			best, found = hall[0], true
		}
	}
	return best, found
}

func (hof *HallOfFame) getHall(sex flower.Sex) *[]HallEntry {
	if int(sex) >= len(hof.halls) {
		return nil
	}
	return &hof.halls[sex]
}

// LogValue implements slog.LogValuer.
func (hof *HallOfFame) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(hof.halls))
	for i, hall := range hof.halls {
		top := 0.0
		if len(hall) > 0 {
			top = hall[0].Fitness
		}
		attrs = append(attrs, slog.Group(flower.Sex(i).String(),
			slog.Int("size", len(hall)),
			slog.Float64("top", top),
		))
	}
	return slog.GroupValue(attrs...)
}

// MarshalJSON serializes the hall of fame keyed by sex name.
func (hof *HallOfFame) MarshalJSON() ([]byte, error) {
	export := make(map[string][]HallEntry, len(hof.halls))
	for i, hall := range hof.halls {
		export[flower.Sex(i).String()] = hall
	}
	return json.MarshalIndent(export, "", "  ")
}

// LoadHallOfFameFromFile reads a hall of fame JSON file written by
// OutputManager.WriteHallOfFame.
func LoadHallOfFameFromFile(path string, rng *rand.Rand) (*HallOfFame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hall of fame: %w", err)
	}

	var raw map[string][]HallEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing hall of fame JSON: %w", err)
	}

	maxSize := 30
	for _, entries := range raw {
		maxSize = max(maxSize, len(entries))
	}

	hof := NewHallOfFame(maxSize, rng)
	for name, entries := range raw {
		sex, err := flower.ParseSex(name)
		if err != nil {
			slog.Warn("hall_of_fame_load: unknown sex, skipping", "sex", name)
			continue
		}
		for _, e := range entries {
			e.Sex = sex
			hall := hof.getHall(sex)
			*hall, _ = hof.insertEntry(*hall, e)
		}
	}
	return hof, nil
}
