package engine

import (
	"math"

	"github.com/pthm-cable/cellsim/events"
	"github.com/pthm-cable/cellsim/store"
)

// allianceDistanceMax is the center-distance ceiling for two candidates to
// be considered alliance-compatible.
const allianceDistanceMax = 400

// allianceGeneDeltaMax is the ceiling on summed absolute gene deltas across
// SPD, AGG, and PHO for two candidates to be considered compatible.
const allianceGeneDeltaMax = 0.3

// allianceMassGate is the total triplet mass above which the alliance fuses
// into a single super-colony instead of remaining a linked triplet.
const allianceMassGate = 100

// runAlliancePass clears every agent's alliance id, then links triplets of
// mass>2 candidates whose centers and SPD/AGG/PHO genes are close enough to
// cooperate; a seed that finds fewer than two compatible candidates forms
// no alliance. Triplets whose combined mass exceeds the fuse
// gate collapse into one super-colony; the rest keep a shared alliance id
// until the next pass. Runs every Alliance.IntervalTicks.
func (e *Engine) runAlliancePass() {
	active := e.st.IsActiveBuffer()
	for i := 0; i < e.st.Capacity; i++ {
		if active[i] {
			e.st.SetAllianceID(i, -1)
		}
	}

	candidates := make([]int, 0, e.st.ActiveCount())
	for i := 0; i < e.st.Capacity; i++ {
		if active[i] && e.st.Mass(i) > 2 {
			candidates = append(candidates, i)
		}
	}

	for i := range e.allianceVisited {
		e.allianceVisited[i] = false
	}

	nextAllianceID := int32(1)

	for _, seed := range candidates {
		if e.allianceVisited[seed] || !e.st.IsActive(seed) {
			continue
		}

		group := []int{seed}
		for _, cand := range candidates {
			if len(group) >= 3 {
				break
			}
			if cand == seed || e.allianceVisited[cand] || !e.st.IsActive(cand) {
				continue
			}
			if e.allianceCompatible(seed, cand) {
				group = append(group, cand)
			}
		}

		if len(group) < 3 {
			e.allianceVisited[seed] = true
			continue
		}

		for _, m := range group {
			e.allianceVisited[m] = true
		}

		id := nextAllianceID
		nextAllianceID++
		for _, m := range group {
			e.st.SetAllianceID(m, id)
		}

		e.resolveAlliance(group)
	}
}

// allianceCompatible reports whether candidate j is close enough in both
// position and SPD/AGG/PHO genome to cooperate with candidate i.
func (e *Engine) allianceCompatible(i, j int) bool {
	pi := e.st.Position(i)
	pj := e.st.Position(j)
	dx := pj.X - pi.X
	dy := pj.Y - pi.Y
	dist := float32(math.Sqrt(float64(dx*dx + dy*dy)))
	if dist >= allianceDistanceMax {
		return false
	}

	gi := e.st.Genome(i)
	gj := e.st.Genome(j)
	delta := abs32(gi[store.GeneSPD]-gj[store.GeneSPD]) +
		abs32(gi[store.GeneAGG]-gj[store.GeneAGG]) +
		abs32(gi[store.GenePHO]-gj[store.GenePHO])
	return delta < allianceGeneDeltaMax
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// resolveAlliance emits an Alliance event for a linked triplet, or fuses it
// into a single super-colony (with a synergy bonus) if its combined mass
// clears the fuse gate.
func (e *Engine) resolveAlliance(group []int) {
	var totalMass float32
	for _, idx := range group {
		totalMass += e.st.Mass(idx)
	}

	arch := e.st.Archetype(group[0])

	if totalMass <= allianceMassGate {
		e.bus.Post(events.Event{
			Type:      events.TypeAlliance,
			Tick:      e.tick,
			Index:     group[0],
			Archetype: uint8(arch),
			Count:     len(group),
		})
		return
	}

	var cx, cy, maxEnergy float32
	var bestGenome store.Genome
	for k, idx := range group {
		p := e.st.Position(idx)
		cx += p.X
		cy += p.Y
		if en := e.st.Energy(idx); k == 0 || en > maxEnergy {
			maxEnergy = en
			bestGenome = e.st.Genome(idx)
		}
	}
	n := float32(len(group))
	cx /= n
	cy /= n

	// Same accounting convention as a colony fuse: the super-colony continues
	// one member's line, so a triplet fusion accounts two deaths.
	for _, idx := range group {
		e.st.Remove(idx)
	}
	e.totalDeaths += uint64(len(group) - 1)

	fusedMass := totalMass * 1.1
	childIdx, ok := e.st.Spawn(cx, cy, bestGenome)
	if !ok {
		return
	}
	e.st.SetMass(childIdx, fusedMass)
	e.st.SetEnergy(childIdx, 5000)
	e.st.SetCooldown(childIdx, float32(e.cfg.Colony.FusionCooldown))

	e.bus.Post(events.Event{
		Type:      events.TypeFusion,
		Tick:      e.tick,
		Index:     childIdx,
		Archetype: uint8(arch),
		Mass:      fusedMass,
	})
}
