//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteStoreFlowerRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "flowers.db")

	store := NewSQLiteStore(dbPath)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	record := FlowerRecord{ID: "f1", RunID: "r1", Generation: 2, Fitness: 12.5, Sex: "female", Flower: `{"Flower":{}}`, Stats: `{"health":10}`}
	if err := store.SaveFlower(ctx, record); err != nil {
		t.Fatalf("save flower: %v", err)
	}
	record.Fitness = 15
	if err := store.SaveFlower(ctx, record); err != nil {
		t.Fatalf("upsert flower: %v", err)
	}

	loaded, ok, err := store.GetFlower(ctx, "f1")
	if err != nil || !ok {
		t.Fatalf("get flower: ok=%v err=%v", ok, err)
	}
	if loaded != record {
		t.Fatalf("unexpected flower: %+v", loaded)
	}

	if err := store.SaveFlower(ctx, FlowerRecord{ID: "f2", RunID: "r1", Fitness: 20, Flower: "x"}); err != nil {
		t.Fatalf("save second flower: %v", err)
	}
	top, err := store.TopFlowers(ctx, "r1", 1)
	if err != nil {
		t.Fatalf("top flowers: %v", err)
	}
	if len(top) != 1 || top[0].ID != "f2" {
		t.Fatalf("unexpected top flowers: %+v", top)
	}
}

func TestSQLiteStoreFitnessHistory(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "flowers.db"))
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	if _, ok, err := store.GetFitnessHistory(ctx, "r1"); err != nil || ok {
		t.Fatalf("missing history: ok=%v err=%v", ok, err)
	}
	if err := store.SaveFitnessHistory(ctx, "r1", []float64{3, 5, 8}); err != nil {
		t.Fatalf("save history: %v", err)
	}
	history, ok, err := store.GetFitnessHistory(ctx, "r1")
	if err != nil || !ok {
		t.Fatalf("get history: ok=%v err=%v", ok, err)
	}
	if len(history) != 3 || history[2] != 8 {
		t.Fatalf("unexpected history: %v", history)
	}
}

func TestNewStoreSQLite(t *testing.T) {
	store, err := NewStore("sqlite", filepath.Join(t.TempDir(), "flowers.db"))
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := CloseIfSupported(store); err != nil {
		t.Fatalf("close: %v", err)
	}
}
