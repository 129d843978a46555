// Package engine implements the simulation's tick orchestration: it owns the
// entity store, spatial index, environment, species tracker, analytics ring
// buffer, and event bus, and drives them through one tick at a time.
package engine

import (
	"math"
	"math/rand"
	"time"

	"github.com/pthm-cable/cellsim/analytics"
	"github.com/pthm-cable/cellsim/config"
	"github.com/pthm-cable/cellsim/env"
	"github.com/pthm-cable/cellsim/events"
	"github.com/pthm-cable/cellsim/spatial"
	"github.com/pthm-cable/cellsim/species"
	"github.com/pthm-cable/cellsim/store"
)

// Engine owns every piece of simulation state and advances it one tick at a
// time. It is the sole collaborator that mutates the store and grid; other
// collaborators (a renderer, an inspector) read buffers between ticks.
type Engine struct {
	cfg *config.Config

	st      *store.Store
	grid    *spatial.Grid
	world   *env.Environment
	tracker *species.Tracker
	bus     *events.Bus
	ring    *analytics.RingBuffer

	rng *rand.Rand

	worldSize     float32
	foodAbundance float32

	tick                int64
	totalBirths         uint64
	totalDeaths         uint64
	extinctionAnnounced bool

	// Scratch buffers reused every tick to avoid per-tick heap allocation.
	colonyVisited   []bool
	allianceVisited []bool
}

// New constructs an Engine over a square world of the given size with a
// fixed agent capacity, using embedded default configuration.
func New(worldSize float32, capacity int) *Engine {
	return NewWithSeed(worldSize, capacity, time.Now().UnixNano())
}

// NewWithSeed is like New but takes an explicit RNG seed, for reproducible
// construction in tests and offline tuning.
func NewWithSeed(worldSize float32, capacity int, seed int64) *Engine {
	cfg, err := config.Load("")
	if err != nil {
		panic("engine: embedded default configuration failed to parse: " + err.Error())
	}
	cfg.World.Size = float64(worldSize)
	cfg.World.Capacity = capacity
	return NewWithConfig(cfg, seed)
}

// NewWithConfig constructs an Engine from an already-loaded configuration,
// used by cmd/tune to sweep parameter vectors without touching the global
// config singleton.
func NewWithConfig(cfg *config.Config, seed int64) *Engine {
	cfg = cfg.Clone()
	worldSize := float32(cfg.World.Size)
	capacity := cfg.World.Capacity

	rng := rand.New(rand.NewSource(seed))

	e := &Engine{
		cfg:             cfg,
		st:              store.New(capacity, rng),
		grid:            spatial.New(worldSize, worldSize, cfg.Grid.Resolution),
		world:           env.New(worldSize, worldSize, seed),
		tracker:         species.NewTracker(),
		bus:             events.NewBus(),
		ring:            analytics.NewRingBuffer(cfg.Telemetry.RingBufferSize),
		rng:             rng,
		worldSize:       worldSize,
		foodAbundance:   float32(cfg.Food.Abundance),
		colonyVisited:   make([]bool, capacity),
		allianceVisited: make([]bool, capacity),
	}

	e.st.SetFriction(float32(cfg.Physics.Friction))
	e.st.SetMutationRate(float32(cfg.Mutation.Rate))
	e.world.SetSolarConstant(float32(cfg.Solar.Constant))
	if cfg.Species.Threshold > 0 {
		e.tracker.SetThreshold(float32(cfg.Species.Threshold))
	}

	return e
}

// ConfigureOptions carries the runtime-tunable parameters from spec's
// configuration table. A nil field leaves that parameter unchanged.
type ConfigureOptions struct {
	MutationRate  *float32
	FoodAbundance *float32
	Friction      *float32
	SolarConstant *float32
}

// Configure applies runtime configuration changes, clamped to their
// documented ranges. Unset fields are left unchanged.
func (e *Engine) Configure(opts ConfigureOptions) {
	if opts.MutationRate != nil {
		e.st.SetMutationRate(*opts.MutationRate)
	}
	if opts.FoodAbundance != nil {
		fa := *opts.FoodAbundance
		if fa < 0.1 {
			fa = 0.1
		} else if fa > 5 {
			fa = 5
		}
		e.foodAbundance = fa
	}
	if opts.Friction != nil {
		e.st.SetFriction(*opts.Friction)
	}
	if opts.SolarConstant != nil {
		e.world.SetSolarConstant(*opts.SolarConstant)
	}
}

// Spawn introduces a new agent at (x, y) with the given genome, wrapping
// out-of-world coordinates onto the world rectangle. Returns (0, false) if
// the store is full or the genome is rejected.
func (e *Engine) Spawn(x, y float32, genome store.Genome) (int, bool) {
	return e.st.Spawn(e.wrapCoord(x), e.wrapCoord(y), genome)
}

func (e *Engine) wrapCoord(v float32) float32 {
	if v >= 0 && v <= e.worldSize {
		return v
	}
	v = float32(math.Mod(float64(v), float64(e.worldSize)))
	if v < 0 {
		v += e.worldSize
	}
	return v
}

// DrainEvents returns every event posted since the last drain and empties
// the queue.
func (e *Engine) DrainEvents() []events.Event {
	return e.bus.Drain()
}

// ActiveCount returns the number of live agents.
func (e *Engine) ActiveCount() int { return e.st.ActiveCount() }

// WorldSize returns the side length of the square world rectangle.
func (e *Engine) WorldSize() float32 { return e.worldSize }

// TickCount returns the number of ticks advanced so far.
func (e *Engine) TickCount() int64 { return e.tick }

// Read accessors over live buffers, matching spec's external interface.
func (e *Engine) Positions() []store.Vec2       { return e.st.Positions() }
func (e *Engine) Velocities() []store.Vec2      { return e.st.Velocities() }
func (e *Engine) Energies() []float32           { return e.st.Energies() }
func (e *Engine) Masses() []float32             { return e.st.Masses() }
func (e *Engine) Archetypes() []store.Archetype { return e.st.Archetypes() }
func (e *Engine) AllianceIDs() []int32          { return e.st.AllianceIDs() }
func (e *Engine) IsActive() []bool              { return e.st.IsActiveBuffer() }
func (e *Engine) Cooldowns() []float32          { return e.st.Cooldowns() }
func (e *Engine) Genomes() []store.Genome       { return e.st.Genomes() }

// Tick advances the simulation by one step. dt is expected to be clamped by
// the caller to at most 0.1.
func (e *Engine) Tick(dt float32) {
	e.tick++

	e.st.ClearRecentBirthFlags()
	e.st.DecayCooldowns(dt)
	e.grid.Rebuild(e.st)

	if e.tick == 1 || e.tick%int64(e.cfg.Species.IntervalTicks) == 0 {
		e.runSpeciesPass()
	}

	e.runPerAgentUpdate(dt)

	e.st.Integrate(dt)
	e.applyBoundaryPolicy()

	if e.tick%int64(e.cfg.Colony.IntervalTicks) == 0 {
		e.runColonyPass()
	}
	if e.tick%int64(e.cfg.Alliance.IntervalTicks) == 0 {
		e.runAlliancePass()
	}

	if e.st.ActiveCount() == 0 && !e.extinctionAnnounced {
		e.bus.Post(events.Event{Type: events.TypeMilestone, Tick: e.tick, Text: "extinction"})
		e.extinctionAnnounced = true
	} else if e.st.ActiveCount() > 0 {
		e.extinctionAnnounced = false
	}

	snap := analytics.SnapshotFromTracker(e.tick, e.tracker, uint32(e.st.ActiveCount()), e.totalBirths, e.totalDeaths)
	e.ring.Push(snap)
}

// runSpeciesPass re-identifies every live agent's species.
func (e *Engine) runSpeciesPass() {
	e.tracker.ResetCounts()
	active := e.st.IsActiveBuffer()
	for i := 0; i < e.st.Capacity; i++ {
		if !active[i] {
			continue
		}
		id := e.tracker.Identify(e.st.Genome(i))
		e.st.SetSpeciesID(i, int32(id))
	}
	e.tracker.Prune()
}
