package engine

import (
	"testing"

	"github.com/pthm-cable/cellsim/store"
)

func TestNearestUsesFollowHintWhenLive(t *testing.T) {
	cfg := testConfig(1000, 8)
	e := NewWithConfig(cfg, 10)

	idx, ok := e.Spawn(500, 500, flatGenome(0.4))
	if !ok {
		t.Fatal("spawn failed")
	}

	snap, ok := e.Nearest(0, 0, idx, true)
	if !ok {
		t.Fatal("expected a snapshot")
	}
	if snap.Index != idx {
		t.Fatalf("snapshot index = %d, want %d", snap.Index, idx)
	}
}

func TestNearestFallsBackToRadiusSearch(t *testing.T) {
	cfg := testConfig(1000, 8)
	e := NewWithConfig(cfg, 11)

	near, _ := e.Spawn(10, 10, flatGenome(0.4))
	e.Spawn(900, 900, flatGenome(0.4)) // out of radius from (0,0)

	snap, ok := e.Nearest(0, 0, 0, false)
	if !ok {
		t.Fatal("expected a snapshot within radius")
	}
	if snap.Index != near {
		t.Fatalf("nearest returned index %d, want %d", snap.Index, near)
	}
}

func TestNearestReturnsFalseWhenNothingInRange(t *testing.T) {
	cfg := testConfig(1000, 8)
	e := NewWithConfig(cfg, 12)
	e.Spawn(900, 900, flatGenome(0.4))

	if _, ok := e.Nearest(0, 0, 0, false); ok {
		t.Fatal("expected no snapshot: only agent is far outside the search radius")
	}
}

func TestNearestIgnoresStaleFollowHint(t *testing.T) {
	cfg := testConfig(1000, 8)
	e := NewWithConfig(cfg, 13)

	idx, _ := e.Spawn(10, 10, flatGenome(0.4))
	e.st.Remove(idx)

	if _, ok := e.Nearest(0, 0, idx, true); ok {
		t.Fatal("expected no snapshot: follow hint is dead and nothing else is in range")
	}
}

func TestDominantGeneTieBreaksToLowestIndex(t *testing.T) {
	g := store.Genome{0.5, 0.5, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1}
	if got := dominantGene(g); got != 0 {
		t.Fatalf("dominantGene = %d, want 0 (SPD, tie broken low)", got)
	}
}
