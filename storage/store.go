// Package storage persists flowers picked out by a garden run, together
// with the run's best-fitness history.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidRecord reports a record that cannot be stored.
var ErrInvalidRecord = errors.New("invalid flower record")

// FlowerRecord is one stored flower. Flower holds the exchange text and
// Stats the stats JSON computed in the run's environment.
type FlowerRecord struct {
	ID         string  `json:"id"`
	RunID      string  `json:"runId"`
	Generation int     `json:"generation"`
	Fitness    float64 `json:"fitness"`
	Sex        string  `json:"sex"`
	Flower     string  `json:"flower"`
	Stats      string  `json:"stats,omitempty"`
}

// Validate checks the fields every backend indexes on.
func (r FlowerRecord) Validate() error {
	switch {
	case r.ID == "":
		return fmt.Errorf("%w: id is required", ErrInvalidRecord)
	case r.RunID == "":
		return fmt.Errorf("%w: run id is required", ErrInvalidRecord)
	case r.Flower == "":
		return fmt.Errorf("%w: flower text is required", ErrInvalidRecord)
	}
	return nil
}

// Store defines persistence operations for garden runs.
type Store interface {
	Init(ctx context.Context) error
	SaveFlower(ctx context.Context, record FlowerRecord) error
	GetFlower(ctx context.Context, id string) (FlowerRecord, bool, error)
	TopFlowers(ctx context.Context, runID string, n int) ([]FlowerRecord, error)
	SaveFitnessHistory(ctx context.Context, runID string, history []float64) error
	GetFitnessHistory(ctx context.Context, runID string) ([]float64, bool, error)
}

// rankRecords orders by fitness descending, then generation and id, and
// keeps at most n (all when n <= 0).
func rankRecords(records []FlowerRecord, n int) []FlowerRecord {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Fitness != b.Fitness {
			return a.Fitness > b.Fitness
		}
		if a.Generation != b.Generation {
			return a.Generation < b.Generation
		}
		return a.ID < b.ID
	})
	if n > 0 && len(records) > n {
		records = records[:n]
	}
	return records
}
