package engine

import (
	"github.com/pthm-cable/cellsim/events"
	"github.com/pthm-cable/cellsim/store"
)

// runColonyPass fuses dense monocultures into single large bodies, capping
// the agent count that a runaway archetype can occupy. It runs every
// Colony.IntervalTicks, walking agents in index order and clustering each
// unvisited seed with same-archetype neighbors within the search radius.
func (e *Engine) runColonyPass() {
	threshold := e.cfg.Colony.DensityThreshold
	radius := float32(e.cfg.Colony.SearchRadius)
	if e.st.ActiveCount() > e.cfg.Colony.DensePopulationGate {
		threshold = e.cfg.Colony.DenseDensity
		radius = float32(e.cfg.Colony.DenseSearchRadius)
	}
	radiusSq := radius * radius

	active := e.st.IsActiveBuffer()
	for i := range e.colonyVisited {
		e.colonyVisited[i] = false
	}

	members := make([]int, 0, 32)

	for seed := 0; seed < e.st.Capacity; seed++ {
		if !active[seed] || e.colonyVisited[seed] {
			continue
		}
		if e.st.Cooldown(seed) > 0 {
			// A fresh fusion product sits out until its cooldown expires.
			e.colonyVisited[seed] = true
			continue
		}
		e.colonyVisited[seed] = true

		seedPos := e.st.Position(seed)
		seedArch := e.st.Archetype(seed)

		members = members[:0]
		members = append(members, seed)

		for j := 0; j < e.st.Capacity; j++ {
			if j == seed || !active[j] || e.colonyVisited[j] {
				continue
			}
			if e.st.Archetype(j) != seedArch || e.st.Cooldown(j) > 0 {
				continue
			}
			p := e.st.Position(j)
			dx := p.X - seedPos.X
			dy := p.Y - seedPos.Y
			if dx*dx+dy*dy <= radiusSq {
				e.colonyVisited[j] = true
				members = append(members, j)
			}
		}

		if len(members) <= threshold {
			continue
		}

		e.fuseColony(members, seedArch)
	}
}

// fuseColony removes every member of a cluster and spawns one replacement at
// their centroid, carrying the most-energetic member's genome, the sum of
// their masses, and an energy bonus proportional to total mass.
func (e *Engine) fuseColony(members []int, arch store.Archetype) {
	var cx, cy, totalMass, maxEnergy float32
	var bestGenome store.Genome
	for k, idx := range members {
		p := e.st.Position(idx)
		cx += p.X
		cy += p.Y
		totalMass += e.st.Mass(idx)
		if en := e.st.Energy(idx); k == 0 || en > maxEnergy {
			maxEnergy = en
			bestGenome = e.st.Genome(idx)
		}
	}
	n := float32(len(members))
	cx /= n
	cy /= n

	// The replacement continues one member's line, so a fuse of N members
	// accounts N-1 deaths.
	for _, idx := range members {
		e.st.Remove(idx)
	}
	e.totalDeaths += uint64(len(members) - 1)

	childIdx, ok := e.st.Spawn(cx, cy, bestGenome)
	if !ok {
		return
	}
	e.st.SetMass(childIdx, totalMass)
	e.st.SetEnergy(childIdx, maxEnergy+10*totalMass)
	e.st.SetCooldown(childIdx, float32(e.cfg.Colony.FusionCooldown))

	e.bus.Post(events.Event{
		Type:      events.TypeColony,
		Tick:      e.tick,
		Index:     childIdx,
		Archetype: uint8(arch),
		Mass:      totalMass,
	})
}
