package store

import (
	"math/rand"
	"testing"
)

func newTestStore(capacity int) *Store {
	return New(capacity, rand.New(rand.NewSource(1)))
}

func TestSpawnAndRemovePartition(t *testing.T) {
	s := newTestStore(8)
	var idxs []int
	for i := 0; i < 8; i++ {
		idx, ok := s.Spawn(float32(i), float32(i), Genome{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5})
		if !ok {
			t.Fatalf("spawn %d failed unexpectedly", i)
		}
		idxs = append(idxs, idx)
	}

	if s.ActiveCount()+s.FreeCount() != s.Capacity {
		t.Fatalf("active+free = %d, want capacity %d", s.ActiveCount()+s.FreeCount(), s.Capacity)
	}

	if _, ok := s.Spawn(0, 0, Genome{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}); ok {
		t.Fatal("spawn at capacity should fail")
	}
	if s.ActiveCount() != 8 {
		t.Fatalf("active_count changed on failed spawn: %d", s.ActiveCount())
	}

	s.Remove(idxs[0])
	if s.IsActive(idxs[0]) {
		t.Fatal("removed index still active")
	}
	if s.Position(idxs[0]) != (Vec2{}) {
		t.Fatal("removed slot position not zeroed")
	}
	if s.Genome(idxs[0]) != (Genome{}) {
		t.Fatal("removed slot genome not zeroed")
	}

	// Idempotent.
	s.Remove(idxs[0])
	if s.ActiveCount() != 7 {
		t.Fatalf("double remove changed active_count: %d", s.ActiveCount())
	}
}

func TestSpawnRejectsBadGenome(t *testing.T) {
	s := newTestStore(4)
	if _, ok := s.Spawn(0, 0, Genome{}); ok {
		t.Fatal("all-zero genome should be rejected")
	}
	nan := float32(0)
	nan = nan / nan
	if _, ok := s.Spawn(0, 0, Genome{nan, nan, nan, nan, nan, nan, nan, nan}); ok {
		t.Fatal("all-NaN genome should be rejected")
	}
	if s.ActiveCount() != 0 {
		t.Fatalf("rejected spawns should not count: %d", s.ActiveCount())
	}
}

func TestSpawnClampsOutOfRangeGenes(t *testing.T) {
	s := newTestStore(4)
	idx, ok := s.Spawn(0, 0, Genome{2, -1, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5})
	if !ok {
		t.Fatal("spawn should succeed")
	}
	g := s.Genome(idx)
	if g[0] != 1 {
		t.Fatalf("gene 0 should clamp to 1, got %f", g[0])
	}
	if g[1] != 0 {
		t.Fatalf("gene 1 should clamp to 0, got %f", g[1])
	}
}

func TestReproduceGenerationAndBounds(t *testing.T) {
	s := newTestStore(4)
	parent, _ := s.Spawn(10, 10, Genome{0.5, 0.5, 0.5, 0.5, 0.5, 1.0, 1.0, 0.5})

	child, ok := s.Reproduce(parent)
	if !ok {
		t.Fatal("reproduce should succeed")
	}
	if s.Generation(child) != s.Generation(parent)+1 {
		t.Fatalf("child generation = %d, want parent+1 = %d", s.Generation(child), s.Generation(parent)+1)
	}

	parentGenome := s.genomes[parent] // genome pre-reproduce mutated same slot read below is fine since parent isn't touched
	childGenome := s.Genome(child)
	mut := parentGenome[GeneMUT]
	for i := range childGenome {
		lo := parentGenome[i] - mut*0.1
		hi := parentGenome[i] + mut*0.1
		if lo < 0 {
			lo = 0
		}
		if hi > 1 {
			hi = 1
		}
		if childGenome[i] < lo-1e-5 || childGenome[i] > hi+1e-5 {
			t.Errorf("gene %d = %f outside [%f, %f]", i, childGenome[i], lo, hi)
		}
	}
}

func TestReproduceOnInactiveParentFails(t *testing.T) {
	s := newTestStore(4)
	if _, ok := s.Reproduce(0); ok {
		t.Fatal("reproduce on inactive slot should fail")
	}
}

func TestIntegrateAppliesFrictionOncePerCall(t *testing.T) {
	s := newTestStore(2)
	idx, _ := s.Spawn(0, 0, Genome{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5})
	s.SetVelocity(idx, Vec2{X: 10, Y: 0})
	s.SetFriction(0.9)

	s.Integrate(0.5)

	v := s.Velocity(idx)
	if v.X != 9 {
		t.Fatalf("velocity after integrate = %f, want 9 (friction applied once, not scaled by dt)", v.X)
	}
	p := s.Position(idx)
	if p.X != 4.5 {
		t.Fatalf("position after integrate = %f, want 4.5 (9 * dt 0.5)", p.X)
	}
}

func TestFrictionClamped(t *testing.T) {
	s := newTestStore(1)
	s.SetFriction(2.0)
	if s.friction != 1.0 {
		t.Fatalf("friction should clamp to 1.0, got %f", s.friction)
	}
	s.SetFriction(-1.0)
	if s.friction != 0.80 {
		t.Fatalf("friction should clamp to 0.80, got %f", s.friction)
	}
}
