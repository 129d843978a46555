package species

import (
	"testing"

	"github.com/pthm-cable/cellsim/store"
)

func TestIdentifyClustersNearbyGenomes(t *testing.T) {
	tr := NewTracker()
	base := store.Genome{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}
	near := base
	near[0] += 0.01

	id1 := tr.Identify(base)
	id2 := tr.Identify(near)

	if id1 != id2 {
		t.Fatalf("nearby genome should join same species, got %d and %d", id1, id2)
	}

	rec := tr.Records()[0]
	if rec.Population != 2 {
		t.Fatalf("population = %d, want 2", rec.Population)
	}
}

func TestIdentifyCreatesNewSpeciesWhenFar(t *testing.T) {
	tr := NewTracker()
	a := store.Genome{0, 0, 0, 0, 0, 0, 0, 0}
	b := store.Genome{1, 1, 1, 1, 1, 1, 1, 1}

	id1 := tr.Identify(a)
	id2 := tr.Identify(b)

	if id1 == id2 {
		t.Fatal("distant genomes should form distinct species")
	}
	if tr.Count() != 2 {
		t.Fatalf("count = %d, want 2", tr.Count())
	}
}

func TestSpeciesIDsMonotonicAndNeverReused(t *testing.T) {
	tr := NewTracker()
	a := store.Genome{0, 0, 0, 0, 0, 0, 0, 0}
	b := store.Genome{1, 1, 1, 1, 1, 1, 1, 1}

	id1 := tr.Identify(a)
	tr.Identify(b)

	tr.ResetCounts()
	tr.Identify(b) // only b reappears this pass
	tr.Prune()

	if tr.Has(id1) {
		t.Fatal("species with zero population should be pruned")
	}

	id3 := tr.Identify(store.Genome{0.3, 0.3, 0.3, 0.3, 0.3, 0.3, 0.3, 0.3})
	if id3 <= id1 {
		t.Fatalf("new species id %d should exceed previously issued id %d (never reused)", id3, id1)
	}
}

// An unchanged genome keeps the same species id across successive passes.
func TestUnchangedGenomeKeepsSpeciesID(t *testing.T) {
	tr := NewTracker()
	g := store.Genome{0.4, 0.6, 0.2, 0.8, 0.1, 0.5, 0.3, 0.7}

	first := tr.Identify(g)
	for pass := 0; pass < 3; pass++ {
		tr.ResetCounts()
		got := tr.Identify(g)
		tr.Prune()
		if got != first {
			t.Fatalf("pass %d: species id changed from %d to %d for unchanged genome", pass, first, got)
		}
	}
}

func TestResetCountsZeroesPopulation(t *testing.T) {
	tr := NewTracker()
	g := store.Genome{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}
	tr.Identify(g)
	tr.ResetCounts()
	if tr.Records()[0].Population != 0 {
		t.Fatal("ResetCounts should zero population")
	}
}
