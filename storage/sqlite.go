//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveFlower(ctx context.Context, record FlowerRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO flowers (id, run_id, generation, fitness, sex, flower, stats)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			run_id = excluded.run_id,
			generation = excluded.generation,
			fitness = excluded.fitness,
			sex = excluded.sex,
			flower = excluded.flower,
			stats = excluded.stats
	`, record.ID, record.RunID, record.Generation, record.Fitness, record.Sex, record.Flower, record.Stats)
	return err
}

func (s *SQLiteStore) GetFlower(ctx context.Context, id string) (FlowerRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return FlowerRecord{}, false, err
	}

	var r FlowerRecord
	err = db.QueryRowContext(ctx, `
		SELECT id, run_id, generation, fitness, sex, flower, stats
		FROM flowers WHERE id = ?
	`, id).Scan(&r.ID, &r.RunID, &r.Generation, &r.Fitness, &r.Sex, &r.Flower, &r.Stats)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return FlowerRecord{}, false, nil
		}
		return FlowerRecord{}, false, err
	}
	return r, true, nil
}

func (s *SQLiteStore) TopFlowers(ctx context.Context, runID string, n int) ([]FlowerRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	limit := n
	if limit <= 0 {
		limit = -1
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, run_id, generation, fitness, sex, flower, stats
		FROM flowers WHERE run_id = ?
		ORDER BY fitness DESC, generation ASC, id ASC
		LIMIT ?
	`, runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []FlowerRecord
	for rows.Next() {
		var r FlowerRecord
		if err := rows.Scan(&r.ID, &r.RunID, &r.Generation, &r.Fitness, &r.Sex, &r.Flower, &r.Stats); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) SaveFitnessHistory(ctx context.Context, runID string, history []float64) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(history)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO fitness_history (run_id, payload)
		VALUES (?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			payload = excluded.payload
	`, runID, payload)
	return err
}

func (s *SQLiteStore) GetFitnessHistory(ctx context.Context, runID string) ([]float64, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM fitness_history WHERE run_id = ?`, runID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var history []float64
	if err := json.Unmarshal(payload, &history); err != nil {
		return nil, false, fmt.Errorf("decode fitness history %s: %w", runID, err)
	}
	return history, true, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errNotInitialized
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS flowers (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			fitness REAL NOT NULL,
			sex TEXT NOT NULL,
			flower TEXT NOT NULL,
			stats TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS flowers_run_fitness ON flowers (run_id, fitness DESC);
		CREATE TABLE IF NOT EXISTS fitness_history (
			run_id TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		);
	`)
	return err
}
