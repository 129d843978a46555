package spatial

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/pthm-cable/cellsim/store"
)

func TestQueryFindsNeighborsWithinSquare(t *testing.T) {
	s := store.New(16, rand.New(rand.NewSource(1)))
	g := store.Genome{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}

	near, _ := s.Spawn(100, 100, g)
	far, _ := s.Spawn(900, 900, g)
	self, _ := s.Spawn(101, 100, g)

	grid := New(1000, 1000, 10)
	grid.Rebuild(s)

	var found []int
	grid.Query(100, 100, 20, func(idx int) { found = append(found, idx) })
	sort.Ints(found)

	wantHas := map[int]bool{near: true, self: true}
	for _, idx := range found {
		if idx == far {
			t.Errorf("query returned far entity %d unexpectedly", far)
		}
		delete(wantHas, idx)
	}
	if len(wantHas) != 0 {
		t.Errorf("query missed expected entities: %v", wantHas)
	}
}

func TestRebuildIgnoresOutOfWorldPositions(t *testing.T) {
	s := store.New(4, rand.New(rand.NewSource(1)))
	g := store.Genome{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}
	idx, _ := s.Spawn(-5, -5, g)

	grid := New(100, 100, 10)
	grid.Rebuild(s)

	var found []int
	grid.Query(0, 0, 100, func(i int) { found = append(found, i) })
	for _, f := range found {
		if f == idx {
			t.Fatal("out-of-world agent should not appear in any bucket")
		}
	}
}

func BenchmarkRebuildAndQuery(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	s := store.New(2048, rng)
	g := store.Genome{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}
	for i := 0; i < 2048; i++ {
		s.Spawn(rng.Float32()*4000, rng.Float32()*4000, g)
	}
	grid := New(4000, 4000, 64)

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		grid.Rebuild(s)
		var count int
		grid.Query(2000, 2000, 100, func(int) { count++ })
	}
}

func TestQueryClampsToGridBounds(t *testing.T) {
	s := store.New(4, rand.New(rand.NewSource(1)))
	g := store.Genome{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}
	idx, _ := s.Spawn(0, 0, g)

	grid := New(100, 100, 10)
	grid.Rebuild(s)

	var found []int
	// Query centered off the negative edge, radius large enough to reach (0,0).
	grid.Query(-50, -50, 60, func(i int) { found = append(found, i) })

	has := false
	for _, f := range found {
		if f == idx {
			has = true
		}
	}
	if !has {
		t.Fatal("clamped query should still find agent near origin")
	}
}
