// Package spatial implements the simulation's broad-phase spatial index: a
// uniform grid hash rebuilt every tick by a two-pass counting sort, queried
// by radius with a non-allocating visitor callback.
package spatial

import "github.com/pthm-cable/cellsim/store"

// Grid is a uniform-bucket spatial hash covering [0, W) x [0, H).
// Rebuild it once per tick; Query is cheap and allocation-free.
type Grid struct {
	width, height float32
	cols, rows    int
	cellSize      float32

	// Two-pass counting-sort layout: offsets[b]..offsets[b+1] is the index
	// range in indices that belongs to bucket b.
	offsets []int32
	indices []int32

	counts []int32 // scratch reused across rebuilds
	cursor []int32 // scratch reused across rebuilds
}

// New creates a Grid over a world of size (width, height) with `resolution`
// cells per axis (e.g. 10 or 100). Choose resolution so expected bucket
// occupancy stays small relative to the entity store's capacity.
func New(width, height float32, resolution int) *Grid {
	if resolution < 1 {
		resolution = 1
	}
	g := &Grid{
		width:  width,
		height: height,
		cols:   resolution,
		rows:   resolution,
	}
	g.cellSize = width / float32(resolution)
	if height > width {
		g.cellSize = height / float32(resolution)
	}
	n := g.cols * g.rows
	g.offsets = make([]int32, n+1)
	g.counts = make([]int32, n)
	g.cursor = make([]int32, n)
	return g
}

func (g *Grid) bucketOf(x, y float32) (int, bool) {
	if x < 0 || x >= g.width || y < 0 || y >= g.height {
		return 0, false
	}
	col := int(x / g.cellSize)
	row := int(y / g.cellSize)
	if col >= g.cols {
		col = g.cols - 1
	}
	if row >= g.rows {
		row = g.rows - 1
	}
	return row*g.cols + col, true
}

// Rebuild repopulates the grid from the store's active agents. Positions
// outside the world rectangle are ignored.
func (g *Grid) Rebuild(s *store.Store) {
	n := g.cols * g.rows
	for i := range g.counts {
		g.counts[i] = 0
	}

	positions := s.Positions()
	active := s.IsActiveBuffer()

	// Pass 1: count active agents per bucket.
	for i := 0; i < s.Capacity; i++ {
		if !active[i] {
			continue
		}
		p := positions[i]
		b, ok := g.bucketOf(p.X, p.Y)
		if !ok {
			continue
		}
		g.counts[b]++
	}

	// Prefix-sum counts into bucket offsets.
	if cap(g.indices) < s.ActiveCount() {
		g.indices = make([]int32, s.ActiveCount())
	}
	g.indices = g.indices[:0]
	var running int32
	for b := 0; b < n; b++ {
		g.offsets[b] = running
		running += g.counts[b]
	}
	g.offsets[n] = running
	g.indices = g.indices[:running]

	// Pass 2: scatter active indices into their bucket's slice, using a
	// cursor per bucket that starts at its offset.
	copy(g.cursor, g.offsets[:n])

	for i := 0; i < s.Capacity; i++ {
		if !active[i] {
			continue
		}
		p := positions[i]
		b, ok := g.bucketOf(p.X, p.Y)
		if !ok {
			continue
		}
		g.indices[g.cursor[b]] = int32(i)
		g.cursor[b]++
	}
}

// Query invokes visit(index) for every agent in a bucket that overlaps the
// square [cx-r, cx+r] x [cy-r, cy+r]. The caller is responsible for the true
// radius filter and for skipping the querying agent itself.
func (g *Grid) Query(cx, cy, r float32, visit func(index int)) {
	colLo := int((cx - r) / g.cellSize)
	colHi := int((cx + r) / g.cellSize)
	rowLo := int((cy - r) / g.cellSize)
	rowHi := int((cy + r) / g.cellSize)

	if colLo < 0 {
		colLo = 0
	}
	if rowLo < 0 {
		rowLo = 0
	}
	if colHi >= g.cols {
		colHi = g.cols - 1
	}
	if rowHi >= g.rows {
		rowHi = g.rows - 1
	}

	for row := rowLo; row <= rowHi; row++ {
		for col := colLo; col <= colHi; col++ {
			b := row*g.cols + col
			start, end := g.offsets[b], g.offsets[b+1]
			for _, idx := range g.indices[start:end] {
				visit(int(idx))
			}
		}
	}
}
