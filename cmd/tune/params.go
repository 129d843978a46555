// Package main implements an offline parameter search over the simulation's
// runtime-tunable knobs (mutation_rate, food_abundance, friction,
// solar_constant), driven by gonum's Nelder-Mead local search.
package main

// ParamSpec defines one optimizable parameter's valid range.
type ParamSpec struct {
	Name    string
	Min     float64
	Max     float64
	Default float64
}

// ParamVector is the ordered set of parameters the search explores.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector returns the engine's four runtime-tunable knobs.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "mutation_rate", Min: 0, Max: 10, Default: 1.0},
			{Name: "food_abundance", Min: 0.1, Max: 5, Default: 1.0},
			{Name: "friction", Min: 0.80, Max: 1.00, Default: 0.98},
			{Name: "solar_constant", Min: 0, Max: 2, Default: 1.0},
		},
	}
}

func (pv *ParamVector) Dim() int { return len(pv.Specs) }

func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, s := range pv.Specs {
		v[i] = s.Default
	}
	return v
}

// Clamp forces every value into its spec's range.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, s := range pv.Specs {
		val := v[i]
		if val < s.Min {
			val = s.Min
		} else if val > s.Max {
			val = s.Max
		}
		clamped[i] = val
	}
	return clamped
}
