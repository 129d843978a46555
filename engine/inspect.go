package engine

import (
	"io"

	"github.com/pthm-cable/cellsim/analytics"
	"github.com/pthm-cable/cellsim/store"
)

// nearestSearchRadius bounds the picking search when no follow target is
// supplied or it has gone stale.
const nearestSearchRadius = 100

// Snapshot is a read-only copy of one agent's state, returned by Nearest for
// picking and follow-target resolution. It never aliases store buffers.
type Snapshot struct {
	Index      int
	Position   store.Vec2
	Energy     float32
	Mass       float32
	Genome     store.Genome
	Generation uint32
}

// Nearest resolves a picking or follow-camera request. If followHint names a
// still-live agent, its snapshot is returned directly; otherwise the nearest
// active agent within nearestSearchRadius of (x, y) is returned.
func (e *Engine) Nearest(x, y float32, followHint int, hasFollowHint bool) (Snapshot, bool) {
	if hasFollowHint && e.st.IsActive(followHint) {
		return e.snapshotOf(followHint), true
	}

	active := e.st.IsActiveBuffer()
	best := -1
	bestDistSq := float32(nearestSearchRadius * nearestSearchRadius)

	for i := 0; i < e.st.Capacity; i++ {
		if !active[i] {
			continue
		}
		p := e.st.Position(i)
		dx := p.X - x
		dy := p.Y - y
		d := dx*dx + dy*dy
		if d <= bestDistSq {
			bestDistSq = d
			best = i
		}
	}

	if best < 0 {
		return Snapshot{}, false
	}
	return e.snapshotOf(best), true
}

func (e *Engine) snapshotOf(index int) Snapshot {
	return Snapshot{
		Index:      index,
		Position:   e.st.Position(index),
		Energy:     e.st.Energy(index),
		Mass:       e.st.Mass(index),
		Genome:     e.st.Genome(index),
		Generation: e.st.Generation(index),
	}
}

// Telemetry is a per-frame digest of population state, assembled on demand
// by Engine.Telemetry and handed to the host for display.
type Telemetry struct {
	Alive       int
	Tick        int64
	Generation  int64
	Births      uint64
	Deaths      uint64
	GeneBuckets [store.GenomeSize]int
	Archetypes  [5]int
}

// Telemetry assembles the current per-frame digest: alive count, cumulative
// births/deaths, the coarse tick-derived generation marker, a histogram of
// each live agent's dominant gene, and the archetype distribution.
func (e *Engine) Telemetry() Telemetry {
	t := Telemetry{
		Alive:      e.st.ActiveCount(),
		Tick:       e.tick,
		Generation: e.tick / 500,
		Births:     e.totalBirths,
		Deaths:     e.totalDeaths,
	}

	active := e.st.IsActiveBuffer()
	for i := 0; i < e.st.Capacity; i++ {
		if !active[i] {
			continue
		}
		g := e.st.Genome(i)
		t.GeneBuckets[dominantGene(g)]++
		t.Archetypes[e.st.Archetype(i)]++
	}
	return t
}

// dominantGene returns the index of g's largest entry, ties broken toward
// the lowest index.
func dominantGene(g store.Genome) int {
	best := 0
	for i := 1; i < len(g); i++ {
		if g[i] > g[best] {
			best = i
		}
	}
	return best
}

// MeanPopulation exposes the analytics ring buffer's running mean, used by
// offline tuning and host dashboards.
func (e *Engine) MeanPopulation() float64 {
	return e.ring.MeanPopulation()
}

// AnalyticsWindow returns the most recent n population-by-species snapshots,
// oldest first.
func (e *Engine) AnalyticsWindow(n int) []analytics.Snapshot {
	return e.ring.Window(n)
}

// ExportAnalyticsCSV writes the analytics ring buffer's full held window to
// w as flattened (tick, species) rows.
func (e *Engine) ExportAnalyticsCSV(w io.Writer) error {
	return e.ring.ExportCSV(w)
}
