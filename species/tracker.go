// Package species implements prototype-based online clustering of agent
// genomes into emergent species, grounded on the same nearest-representative
// matching idea as a NEAT-style speciation manager, simplified to a flat
// genome vector with no genetic-programming structure.
package species

import (
	"math"

	"github.com/pthm-cable/cellsim/store"
)

// defaultCompatThreshold is the normalized distance below which a genome is
// considered a member of an existing species.
const defaultCompatThreshold = 0.05

// Record describes one emergent species.
type Record struct {
	ID              uint32
	PrototypeGenome store.Genome
	Population      uint32
	ColorHint       [3]uint8
}

// Tracker performs prototype-based nearest-match clustering over genome
// vectors and tracks per-species population counts. IDs are monotonically
// increasing and never reused.
type Tracker struct {
	records   []*Record
	nextID    uint32
	threshold float32
}

// NewTracker creates an empty species tracker with the default compatibility
// threshold.
func NewTracker() *Tracker {
	return &Tracker{nextID: 1, threshold: defaultCompatThreshold}
}

// SetThreshold overrides the compatibility threshold. Values outside (0, 1]
// are ignored and leave the current threshold in place.
func (t *Tracker) SetThreshold(threshold float32) {
	if threshold <= 0 || threshold > 1 {
		return
	}
	t.threshold = threshold
}

// distance returns the normalized Euclidean distance between two genomes,
// in [0, 1].
func distance(a, b store.Genome) float32 {
	var sumSq float32
	for i := range a {
		d := a[i] - b[i]
		sumSq += d * d
	}
	return float32(math.Sqrt(float64(sumSq))) / float32(math.Sqrt(float64(store.GenomeSize)))
}

// Identify assigns genome to its nearest prototype if within the
// compatibility threshold,
// incrementing that species' population; otherwise creates a new species
// with genome as its prototype. Returns the assigned species id.
func (t *Tracker) Identify(genome store.Genome) uint32 {
	var best *Record
	var bestDist float32 = 2 // distance is always <= 1, any dist is smaller

	for _, r := range t.records {
		d := distance(genome, r.PrototypeGenome)
		if d < bestDist {
			bestDist = d
			best = r
		}
	}

	if best != nil && bestDist < t.threshold {
		best.Population++
		return best.ID
	}

	rec := &Record{
		ID:              t.nextID,
		PrototypeGenome: genome,
		Population:      1,
		ColorHint: [3]uint8{
			uint8(genome[store.GeneAGG] * 255),
			uint8(genome[store.GenePHO] * 255),
			uint8(genome[store.GeneDEF] * 255),
		},
	}
	t.nextID++
	t.records = append(t.records, rec)
	return rec.ID
}

// ResetCounts zeroes every species' population, ahead of a full pass over
// the live population.
func (t *Tracker) ResetCounts() {
	for _, r := range t.records {
		r.Population = 0
	}
}

// Prune removes every species with zero population, at the end of a pass.
func (t *Tracker) Prune() {
	kept := t.records[:0]
	for _, r := range t.records {
		if r.Population > 0 {
			kept = append(kept, r)
		}
	}
	t.records = kept
}

// Has reports whether id currently names a tracked species.
func (t *Tracker) Has(id uint32) bool {
	for _, r := range t.records {
		if r.ID == id {
			return true
		}
	}
	return false
}

// Records returns the live species records, most-recently-created last.
func (t *Tracker) Records() []*Record {
	return t.records
}

// Count returns the number of tracked species.
func (t *Tracker) Count() int {
	return len(t.records)
}
