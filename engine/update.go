package engine

import (
	"math"

	"github.com/pthm-cable/cellsim/events"
	"github.com/pthm-cable/cellsim/store"
)

// runPerAgentUpdate walks every live agent in index order and runs
// thermodynamics, possible colony fragmentation, neighbor perception and
// interaction, locomotion, reproduction, and death in sequence. Because
// `active` is the store's live buffer, an agent removed by an earlier
// index's interaction is correctly skipped when its own turn comes up.
func (e *Engine) runPerAgentUpdate(dt float32) {
	active := e.st.IsActiveBuffer()
	for i := 0; i < e.st.Capacity; i++ {
		if !active[i] {
			continue
		}
		if e.applyThermodynamics(i, dt) {
			continue // dissolved into colony fragments
		}

		huntTarget, hasHunt, fleeTarget, hasFlee := e.perceiveAndInteract(i, dt)
		if !e.st.IsActive(i) {
			continue
		}

		e.locomote(i, huntTarget, hasHunt, fleeTarget, hasFlee)
		if !e.st.IsActive(i) {
			continue
		}

		e.reproduce(i)
		if !e.st.IsActive(i) {
			continue
		}

		e.checkDeath(i)
	}
}

// removeAgent deactivates idx and counts it against the cumulative death
// total, regardless of the reason (predation, absorption, assimilation,
// fragmentation, or natural energy depletion). Colony and alliance fusions
// remove their members directly and do their own death accounting.
func (e *Engine) removeAgent(idx int) {
	e.st.Remove(idx)
	e.totalDeaths++
}

// eatRadius is the absorption range for a body of the given mass: larger
// bodies reach further, with diminishing returns.
func eatRadius(mass float32) float32 {
	return 8 + 4*float32(math.Sqrt(float64(mass)))
}

// applyThermodynamics updates i's energy from movement cost, size cost,
// vision upkeep, solar gain, and poison exposure, then checks whether the
// resulting mass puts it in the colony-fragmentation band. Returns true if
// the agent dissolved (and was removed) this call.
func (e *Engine) applyThermodynamics(i int, dt float32) bool {
	pos := e.st.Position(i)
	genome := e.st.Genome(i)
	vel := e.st.Velocity(i)
	mass := e.st.Mass(i)

	speedSq := vel.X*vel.X + vel.Y*vel.Y
	siz := genome[store.GeneSIZ]
	cost := (speedSq*0.5 + siz*siz*siz + genome[store.GeneVIS]*100*0.005) * dt

	gain := e.world.Solar(pos.X, pos.Y) * genome[store.GenePHO] * 45 * e.foodAbundance * dt
	if mass > 2 {
		gain *= 1 + float32(math.Log2(float64(mass)))
	}

	poisonCost := e.world.Poison(pos.X, pos.Y) * 50 * dt

	e.st.SetEnergy(i, e.st.Energy(i)-cost+gain-poisonCost)

	if mass > 1.5 && mass < 10 {
		e.dissolveColony(i, mass, genome, pos)
		return true
	}
	return false
}

// dissolveColony removes an overgrown (but sub-colony-threshold) agent and
// scatters its mass into up to 5 children of the same genome at radial
// offsets around its last position.
func (e *Engine) dissolveColony(i int, mass float32, genome store.Genome, pos store.Vec2) {
	n := int(mass / 2)
	if n > 5 {
		n = 5
	}
	e.removeAgent(i)
	for k := 0; k < n; k++ {
		angle := 2 * math.Pi * float64(k) / float64(n)
		radius := 10 + e.rng.Float32()*20
		cx := pos.X + radius*float32(math.Cos(angle))
		cy := pos.Y + radius*float32(math.Sin(angle))
		e.st.Spawn(cx, cy, genome)
	}
}

// perceiveAndInteract queries the spatial index around i and applies the
// absorption, alliance-cooperation, mass-steal, predation-target, and
// flee-target rules against every neighbor in range, in that order, stopping
// that neighbor's rule chain the moment a rule removes it. It returns the
// nearest qualifying hunt and flee targets recorded along the way.
func (e *Engine) perceiveAndInteract(i int, dt float32) (huntTarget int, hasHunt bool, fleeTarget int, hasFlee bool) {
	pos := e.st.Position(i)
	myGenome := e.st.Genome(i)
	visionRadius := myGenome[store.GeneVIS] * 100

	var huntDist, fleeDist float32

	e.grid.Query(pos.X, pos.Y, visionRadius, func(j int) {
		if j == i || !e.st.IsActive(j) {
			return
		}

		myMass := e.st.Mass(i)
		myEnergy := e.st.Energy(i)
		myAlliance := e.st.AllianceID(i)

		nMass := e.st.Mass(j)
		nEnergy := e.st.Energy(j)
		nAlliance := e.st.AllianceID(j)
		nGenome := e.st.Genome(j)
		nPos := e.st.Position(j)

		dx := nPos.X - pos.X
		dy := nPos.Y - pos.Y
		dist := float32(math.Sqrt(float64(dx*dx + dy*dy)))
		if dist > visionRadius {
			return
		}

		sameAlliance := myAlliance != -1 && myAlliance == nAlliance

		// Absorption by larger body.
		if myMass > nMass*1.2 && !sameAlliance && dist < eatRadius(myMass) {
			e.st.SetMass(i, myMass+nMass)
			e.st.SetEnergy(i, myEnergy+0.5*myEnergy)
			e.bus.Post(events.Event{Type: events.TypeAbsorption, Tick: e.tick, Index: i, Mass: nMass})
			e.removeAgent(j)
			return
		}

		// Alliance cooperation.
		if sameAlliance && myEnergy > 100 && nEnergy < 50 {
			transfer := 10 * dt
			e.st.SetEnergy(i, myEnergy-transfer)
			e.st.SetEnergy(j, nEnergy+transfer)
		}

		// Mass steal. Live agents never drop below mass 1: a drain that would
		// cross the floor collapses into a full assimilation instead.
		if !sameAlliance && myGenome[store.GeneAGG] > 0.5 && myMass > nMass*1.2 {
			drain := float32(1.5) * dt
			if nMass-drain < 1 {
				e.bus.Post(events.Event{
					Type:         events.TypeAssimilation,
					Tick:         e.tick,
					Index:        i,
					PredatorArch: uint8(e.st.Archetype(i)),
					PreyArch:     uint8(e.st.Archetype(j)),
				})
				e.st.SetMass(i, e.st.Mass(i)+nMass)
				e.st.SetEnergy(i, e.st.Energy(i)+15*dt)
				e.removeAgent(j)
				return
			}
			e.st.SetMass(i, e.st.Mass(i)+drain)
			e.st.SetMass(j, nMass-drain)
			e.st.SetEnergy(i, e.st.Energy(i)+15*dt)
		}

		// Predation target selection.
		if e.st.Energy(i) < 60 && nGenome[store.GeneDEF] < myGenome[store.GeneAGG] && e.st.Mass(i) >= e.st.Mass(j) {
			if !hasHunt || dist < huntDist {
				huntDist = dist
				huntTarget = j
				hasHunt = true
			}
		}

		// Flee target selection.
		if nGenome[store.GeneAGG] > myGenome[store.GeneDEF] {
			if !hasFlee || dist < fleeDist {
				fleeDist = dist
				fleeTarget = j
				hasFlee = true
			}
		}
	})

	return huntTarget, hasHunt, fleeTarget, hasFlee
}

// locomote sets i's velocity from its flee/hunt targets, or wanders if it
// has neither. Eating on contact with a hunt target happens here.
func (e *Engine) locomote(i int, huntTarget int, hasHunt bool, fleeTarget int, hasFlee bool) {
	pos := e.st.Position(i)
	genome := e.st.Genome(i)
	spd := genome[store.GeneSPD]

	switch {
	case hasFlee:
		away := e.st.Position(fleeTarget)
		e.st.SetVelocity(i, awayVelocity(pos, away, spd*100))
	case hasHunt:
		target := e.st.Position(huntTarget)
		e.st.SetVelocity(i, towardVelocity(pos, target, spd*100))

		dx := target.X - pos.X
		dy := target.Y - pos.Y
		dist := float32(math.Sqrt(float64(dx*dx + dy*dy)))
		eatRange := (genome[store.GeneSIZ] + e.st.Genome(huntTarget)[store.GeneSIZ]) * 10
		if dist < eatRange {
			e.st.SetEnergy(i, e.st.Energy(i)+30)
			e.bus.Post(events.Event{Type: events.TypeDeath, Tick: e.tick, Index: huntTarget})
			e.removeAgent(huntTarget)
		}
	default:
		v := e.st.Velocity(i)
		v.X += e.rng.Float32()*10 - 5
		v.Y += e.rng.Float32()*10 - 5
		maxSpeed := spd * 50
		if speed := float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y))); speed > maxSpeed && speed > 0 {
			scale := maxSpeed / speed
			v.X *= scale
			v.Y *= scale
		}
		e.st.SetVelocity(i, v)
	}
}

// towardVelocity returns a velocity of the given magnitude pointing from
// from toward to. If the two points coincide, it returns the zero vector.
func towardVelocity(from, to store.Vec2, magnitude float32) store.Vec2 {
	dx := to.X - from.X
	dy := to.Y - from.Y
	d := float32(math.Sqrt(float64(dx*dx + dy*dy)))
	if d == 0 {
		return store.Vec2{}
	}
	return store.Vec2{X: dx / d * magnitude, Y: dy / d * magnitude}
}

// awayVelocity returns a velocity of the given magnitude pointing from
// threat toward from (i.e. away from threat).
func awayVelocity(from, threat store.Vec2, magnitude float32) store.Vec2 {
	return towardVelocity(threat, from, magnitude)
}

// reproduce spawns a mutated child if i has enough energy, paying the
// reproduction cost and flagging i as having recently given birth.
func (e *Engine) reproduce(i int) {
	if e.st.Energy(i) <= 150 {
		return
	}
	childIdx, ok := e.st.Reproduce(i)
	if !ok {
		return
	}
	e.st.SetEnergy(i, e.st.Energy(i)-80)
	e.st.SetFlags(i, e.st.Flags(i).Set(store.FlagRecentBirth))
	e.totalBirths++
	e.bus.Post(events.Event{Type: events.TypeBirth, Tick: e.tick, Index: childIdx, Archetype: uint8(e.st.Archetype(childIdx))})
}

// checkDeath removes i if its energy has been depleted.
func (e *Engine) checkDeath(i int) {
	if e.st.Energy(i) > 0 {
		return
	}
	e.bus.Post(events.Event{Type: events.TypeDeath, Tick: e.tick, Index: i})
	e.removeAgent(i)
}

// applyBoundaryPolicy reflects agents out of barrier cells and wraps them
// around world edges. Runs once per tick after Integrate.
func (e *Engine) applyBoundaryPolicy() {
	active := e.st.IsActiveBuffer()
	for i := 0; i < e.st.Capacity; i++ {
		if !active[i] {
			continue
		}
		p := e.st.Position(i)

		if e.world.Blocked(p.X, p.Y) {
			v := e.st.Velocity(i)
			v.X *= -1.2
			v.Y *= -1.2
			e.st.SetVelocity(i, v)
			e.st.SetPosition(i, store.Vec2{X: p.X + v.X*0.1, Y: p.Y + v.Y*0.1})
			continue
		}

		wrapped := p
		if wrapped.X < 0 {
			wrapped.X += e.worldSize
		} else if wrapped.X > e.worldSize {
			wrapped.X -= e.worldSize
		}
		if wrapped.Y < 0 {
			wrapped.Y += e.worldSize
		} else if wrapped.Y > e.worldSize {
			wrapped.Y -= e.worldSize
		}
		if wrapped != p {
			e.st.SetPosition(i, wrapped)
		}
	}
}
