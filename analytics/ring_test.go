package analytics

import (
	"strings"
	"testing"
)

func TestRingBufferOverwritesOldestWhenFull(t *testing.T) {
	r := NewRingBuffer(3)
	for i := int64(1); i <= 4; i++ {
		r.Push(Snapshot{Tick: i, TotalPopulation: uint32(i)})
	}

	window := r.Window(3)
	if len(window) != 3 {
		t.Fatalf("window length = %d, want 3", len(window))
	}
	if window[0].Tick != 2 {
		t.Fatalf("oldest entry should be tick 2 after eviction, got %d", window[0].Tick)
	}
	if window[2].Tick != 4 {
		t.Fatalf("newest entry should be tick 4, got %d", window[2].Tick)
	}
}

func TestWindowBeforeFullReturnsOnlyPushed(t *testing.T) {
	r := NewRingBuffer(5)
	r.Push(Snapshot{Tick: 1, TotalPopulation: 10})
	r.Push(Snapshot{Tick: 2, TotalPopulation: 20})

	window := r.Window(5)
	if len(window) != 2 {
		t.Fatalf("window length = %d, want 2", len(window))
	}
}

func TestMeanPopulation(t *testing.T) {
	r := NewRingBuffer(4)
	r.Push(Snapshot{TotalPopulation: 10})
	r.Push(Snapshot{TotalPopulation: 20})
	r.Push(Snapshot{TotalPopulation: 30})

	if mean := r.MeanPopulation(); mean != 20 {
		t.Fatalf("mean = %f, want 20", mean)
	}
}

func TestExportCSVHeaderAndRows(t *testing.T) {
	r := NewRingBuffer(2)
	r.Push(Snapshot{Tick: 1, TotalPopulation: 5, BySpecies: map[uint32]uint32{1: 5}})

	var buf strings.Builder
	if err := r.ExportCSV(&buf); err != nil {
		t.Fatalf("ExportCSV failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "tick") || !strings.Contains(out, "species_id") {
		t.Fatalf("expected CSV header columns, got: %q", out)
	}
	if !strings.Contains(out, "1") {
		t.Fatalf("expected row data, got: %q", out)
	}
}
