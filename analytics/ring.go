// Package analytics maintains a ring buffer of population-by-species
// snapshots and exports them as CSV, grounded on the same windowed
// accumulate-then-flush shape as a telemetry collector.
package analytics

import (
	"io"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/cellsim/species"
)

// Snapshot is one ring-buffer entry: population-by-species at a tick.
type Snapshot struct {
	Tick            int64
	BySpecies       map[uint32]uint32
	TotalPopulation uint32
	TotalBirths     uint64
	TotalDeaths     uint64
}

// Row is the flattened CSV representation of one (tick, species) pair.
type Row struct {
	Tick            int64  `csv:"tick"`
	SpeciesID       uint32 `csv:"species_id"`
	Population      uint32 `csv:"population"`
	TotalPopulation uint32 `csv:"total_population"`
	TotalBirths     uint64 `csv:"total_births"`
	TotalDeaths     uint64 `csv:"total_deaths"`
}

// RingBuffer holds up to Capacity Snapshots, overwriting the oldest when
// full.
type RingBuffer struct {
	snapshots []Snapshot
	capacity  int
	next      int
	filled    bool
}

// NewRingBuffer creates a ring buffer holding up to capacity snapshots.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &RingBuffer{
		snapshots: make([]Snapshot, capacity),
		capacity:  capacity,
	}
}

// Push records one tick's population-by-species snapshot, evicting the
// oldest entry if the buffer is full.
func (r *RingBuffer) Push(s Snapshot) {
	r.snapshots[r.next] = s
	r.next = (r.next + 1) % r.capacity
	if r.next == 0 {
		r.filled = true
	}
}

// Window returns the most recent n snapshots, oldest first. n is clamped to
// the number of snapshots actually held.
func (r *RingBuffer) Window(n int) []Snapshot {
	held := r.capacity
	if !r.filled {
		held = r.next
	}
	if n > held {
		n = held
	}
	if n <= 0 {
		return nil
	}

	out := make([]Snapshot, 0, n)
	start := r.next - n
	for i := 0; i < n; i++ {
		idx := ((start+i)%r.capacity + r.capacity) % r.capacity
		out = append(out, r.snapshots[idx])
	}
	return out
}

// MeanPopulation returns the mean total population across every snapshot
// currently held.
func (r *RingBuffer) MeanPopulation() float64 {
	window := r.Window(r.capacity)
	if len(window) == 0 {
		return 0
	}
	values := make([]float64, len(window))
	for i, s := range window {
		values[i] = float64(s.TotalPopulation)
	}
	return stat.Mean(values, nil)
}

// ExportCSV writes every held snapshot, flattened to one row per
// (tick, species) pair, to w.
func (r *RingBuffer) ExportCSV(w io.Writer) error {
	window := r.Window(r.capacity)

	var rows []Row
	for _, s := range window {
		if len(s.BySpecies) == 0 {
			rows = append(rows, Row{
				Tick:            s.Tick,
				TotalPopulation: s.TotalPopulation,
				TotalBirths:     s.TotalBirths,
				TotalDeaths:     s.TotalDeaths,
			})
			continue
		}
		for id, pop := range s.BySpecies {
			rows = append(rows, Row{
				Tick:            s.Tick,
				SpeciesID:       id,
				Population:      pop,
				TotalPopulation: s.TotalPopulation,
				TotalBirths:     s.TotalBirths,
				TotalDeaths:     s.TotalDeaths,
			})
		}
	}

	return gocsv.Marshal(rows, w)
}

// SnapshotFromTracker builds a Snapshot from the current species tracker
// state, the active agent count, and cumulative birth/death counters.
func SnapshotFromTracker(tick int64, tr *species.Tracker, activeCount uint32, births, deaths uint64) Snapshot {
	by := make(map[uint32]uint32, tr.Count())
	for _, rec := range tr.Records() {
		by[rec.ID] = rec.Population
	}
	return Snapshot{
		Tick:            tick,
		BySpecies:       by,
		TotalPopulation: activeCount,
		TotalBirths:     births,
		TotalDeaths:     deaths,
	}
}
