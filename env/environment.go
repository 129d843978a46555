// Package env provides the simulation's static environment fields: solar
// intensity, poison, and barrier occupancy, sampled by world coordinate.
package env

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Resolution is the coarse grid resolution each field is generated at.
const Resolution = 64

// poisonHotspotThreshold is the noise cutoff above which a cell becomes a
// poison hotspot; this keeps poison sparse, with only a few cells ever hot.
const poisonHotspotThreshold = 0.75

// Environment holds three static 2-D scalar fields generated once at
// construction from deterministic low-frequency noise.
type Environment struct {
	width, height float32
	solarConstant float32

	solar   []float32
	poison  []float32
	barrier []bool
}

// New generates an Environment covering a world of size (width, height)
// from the given deterministic seed. The same seed always reproduces the
// same fields.
func New(width, height float32, seed int64) *Environment {
	e := &Environment{
		width:         width,
		height:        height,
		solarConstant: 1.0,
		solar:         make([]float32, Resolution*Resolution),
		poison:        make([]float32, Resolution*Resolution),
		barrier:       make([]bool, Resolution*Resolution),
	}

	solarNoise := opensimplex.New(seed)
	poisonNoise := opensimplex.New(seed + 1)
	barrierNoise := opensimplex.New(seed + 2)

	const solarScale = 0.06
	const poisonScale = 0.15
	const barrierScale = 0.08

	for row := 0; row < Resolution; row++ {
		for col := 0; col < Resolution; col++ {
			i := row*Resolution + col
			fx, fy := float64(col), float64(row)

			// Low-frequency noise in [-1,1] remapped to [0,1].
			e.solar[i] = float32((solarNoise.Eval2(fx*solarScale, fy*solarScale) + 1) / 2)

			poisonN := float32((poisonNoise.Eval2(fx*poisonScale, fy*poisonScale) + 1) / 2)
			if poisonN > poisonHotspotThreshold {
				e.poison[i] = (poisonN - poisonHotspotThreshold) / (1 - poisonHotspotThreshold)
			}

			barrierN := (barrierNoise.Eval2(fx*barrierScale, fy*barrierScale) + 1) / 2
			e.barrier[i] = barrierN > 0.88
		}
	}

	return e
}

// SetSolarConstant clamps and applies the global solar multiplier.
func (e *Environment) SetSolarConstant(c float32) {
	if c < 0 {
		c = 0
	} else if c > 2 {
		c = 2
	}
	e.solarConstant = c
}

func (e *Environment) cellOf(x, y float32) (int, bool) {
	if x < 0 || x >= e.width || y < 0 || y >= e.height {
		return 0, false
	}
	col := int(x / e.width * Resolution)
	row := int(y / e.height * Resolution)
	if col >= Resolution {
		col = Resolution - 1
	}
	if row >= Resolution {
		row = Resolution - 1
	}
	return row*Resolution + col, true
}

// Solar returns the solar intensity at (x, y) in [0, solar_constant].
// Out-of-world samples return 0.
func (e *Environment) Solar(x, y float32) float32 {
	i, ok := e.cellOf(x, y)
	if !ok {
		return 0
	}
	return e.solar[i] * e.solarConstant
}

// Poison returns the poison concentration at (x, y), >= 0.
// Out-of-world samples return 0.
func (e *Environment) Poison(x, y float32) float32 {
	i, ok := e.cellOf(x, y)
	if !ok {
		return 0
	}
	return e.poison[i]
}

// Blocked reports whether (x, y) falls in a barrier cell. Out-of-world
// samples are treated as blocked.
func (e *Environment) Blocked(x, y float32) bool {
	i, ok := e.cellOf(x, y)
	if !ok {
		return true
	}
	return e.barrier[i]
}
