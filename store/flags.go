package store

// Flags is a per-agent bitset of transient, tick-scoped state. It replaces
// ad-hoc sentinel values (e.g. a -1.0 stashed in an unused float) with
// explicit bits, per the source pattern flagged for re-architecture.
type Flags uint8

const (
	// FlagRecentBirth marks an agent that just reproduced this tick; cleared
	// at the start of the next tick. Used by the rendering collaborator for
	// a birth "glow" effect.
	FlagRecentBirth Flags = 1 << iota
)

// Has reports whether f contains every bit of other.
func (f Flags) Has(other Flags) bool {
	return f&other == other
}

// Set returns f with other's bits set.
func (f Flags) Set(other Flags) Flags {
	return f | other
}

// Clear returns f with other's bits cleared.
func (f Flags) Clear(other Flags) Flags {
	return f &^ other
}
