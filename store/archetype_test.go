package store

import "testing"

func TestDeriveArchetype(t *testing.T) {
	tests := []struct {
		name string
		g    Genome
		want Archetype
	}{
		{"below threshold is average", Genome{0.6, 0.6, 0.6, 0.5, 0.6, 0, 0, 0}, Average},
		{"speedster wins on SPD", Genome{0.8, 0.7, 0.1, 0.1, 0.1, 0, 0, 0}, Speedster},
		{"predator wins on AGG", Genome{0.1, 0.9, 0.1, 0.1, 0.1, 0, 0, 0}, Predator},
		{"producer wins on PHO", Genome{0.1, 0.1, 0.95, 0.1, 0.1, 0, 0, 0}, Producer},
		{"tank wins on DEF", Genome{0.1, 0.1, 0.1, 0.1, 0.99, 0, 0, 0}, Tank},
		{"tie resolves to SPD order", Genome{0.8, 0.8, 0.8, 0.1, 0.8, 0, 0, 0}, Speedster},
		{"exact threshold counts", Genome{0.7, 0, 0, 0, 0, 0, 0, 0}, Speedster},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveArchetype(tt.g); got != tt.want {
				t.Errorf("DeriveArchetype(%v) = %v, want %v", tt.g, got, tt.want)
			}
		})
	}
}

func TestArchetypeIdempotence(t *testing.T) {
	g := Genome{0.2, 0.9, 0.3, 0.1, 0.4, 0.5, 0.2, 0.6}
	a1 := DeriveArchetype(g)
	a2 := DeriveArchetype(g)
	if a1 != a2 {
		t.Fatalf("archetype derivation not idempotent: %v != %v", a1, a2)
	}
}
