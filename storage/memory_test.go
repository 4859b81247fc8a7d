package storage

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreFlowerRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	record := FlowerRecord{ID: "run-1/g3/7", RunID: "run-1", Generation: 3, Fitness: 42.5, Sex: "both", Flower: `{"Flower":{}}`}
	if err := store.SaveFlower(ctx, record); err != nil {
		t.Fatalf("save flower: %v", err)
	}

	loaded, ok, err := store.GetFlower(ctx, record.ID)
	if err != nil {
		t.Fatalf("get flower: %v", err)
	}
	if !ok {
		t.Fatal("expected stored flower")
	}
	if loaded != record {
		t.Fatalf("unexpected flower: %+v", loaded)
	}

	if _, ok, err := store.GetFlower(ctx, "missing"); err != nil || ok {
		t.Fatalf("missing flower: ok=%v err=%v", ok, err)
	}
}

func TestMemoryStoreTopFlowers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	records := []FlowerRecord{
		{ID: "a", RunID: "r1", Generation: 0, Fitness: 10, Flower: "x"},
		{ID: "b", RunID: "r1", Generation: 1, Fitness: 30, Flower: "x"},
		{ID: "c", RunID: "r1", Generation: 2, Fitness: 20, Flower: "x"},
		{ID: "d", RunID: "r1", Generation: 0, Fitness: 30, Flower: "x"},
		{ID: "e", RunID: "r2", Generation: 0, Fitness: 99, Flower: "x"},
	}
	for _, r := range records {
		if err := store.SaveFlower(ctx, r); err != nil {
			t.Fatalf("save %s: %v", r.ID, err)
		}
	}

	top, err := store.TopFlowers(ctx, "r1", 3)
	if err != nil {
		t.Fatalf("top flowers: %v", err)
	}
	want := []string{"d", "b", "c"}
	if len(top) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(top))
	}
	for i, id := range want {
		if top[i].ID != id {
			t.Errorf("top[%d] = %s, want %s", i, top[i].ID, id)
		}
	}

	all, err := store.TopFlowers(ctx, "r1", 0)
	if err != nil {
		t.Fatalf("all flowers: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 records for r1, got %d", len(all))
	}
}

func TestMemoryStoreFitnessHistory(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	history := []float64{1, 2.5, 4}
	if err := store.SaveFitnessHistory(ctx, "r1", history); err != nil {
		t.Fatalf("save history: %v", err)
	}
	history[0] = 100

	loaded, ok, err := store.GetFitnessHistory(ctx, "r1")
	if err != nil || !ok {
		t.Fatalf("get history: ok=%v err=%v", ok, err)
	}
	if len(loaded) != 3 || loaded[0] != 1 || loaded[2] != 4 {
		t.Fatalf("unexpected history: %v", loaded)
	}
}

func TestMemoryStoreRejects(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	valid := FlowerRecord{ID: "a", RunID: "r", Flower: "x"}
	if err := store.SaveFlower(ctx, valid); err == nil {
		t.Fatal("expected error before init")
	}
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	cases := []FlowerRecord{
		{RunID: "r", Flower: "x"},
		{ID: "a", Flower: "x"},
		{ID: "a", RunID: "r"},
	}
	for _, r := range cases {
		if err := store.SaveFlower(ctx, r); !errors.Is(err, ErrInvalidRecord) {
			t.Errorf("SaveFlower(%+v) = %v, want ErrInvalidRecord", r, err)
		}
	}
}
