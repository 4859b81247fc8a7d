package storage

import (
	"context"
	"errors"
	"sync"
)

var errNotInitialized = errors.New("store is not initialized")

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	flowers     map[string]FlowerRecord
	history     map[string][]float64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.flowers = make(map[string]FlowerRecord)
	s.history = make(map[string][]float64)
	return nil
}

func (s *MemoryStore) SaveFlower(_ context.Context, record FlowerRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.flowers[record.ID] = record
	return nil
}

func (s *MemoryStore) GetFlower(_ context.Context, id string) (FlowerRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.flowers[id]
	return record, ok, nil
}

func (s *MemoryStore) TopFlowers(_ context.Context, runID string, n int) ([]FlowerRecord, error) {
	s.mu.RLock()
	var records []FlowerRecord
	for _, r := range s.flowers {
		if r.RunID == runID {
			records = append(records, r)
		}
	}
	s.mu.RUnlock()

	return rankRecords(records, n), nil
}

func (s *MemoryStore) SaveFitnessHistory(_ context.Context, runID string, history []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.history[runID] = append([]float64(nil), history...)
	return nil
}

func (s *MemoryStore) GetFitnessHistory(_ context.Context, runID string) ([]float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.history[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]float64(nil), history...), true, nil
}
