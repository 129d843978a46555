// Command headless runs the cellsim core without any rendering collaborator:
// it loads configuration, constructs an Engine, seeds a random population,
// steps it for a fixed number of ticks, and reports telemetry.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/pthm-cable/cellsim/config"
	"github.com/pthm-cable/cellsim/engine"
	"github.com/pthm-cable/cellsim/events"
	"github.com/pthm-cable/cellsim/logx"
	"github.com/pthm-cable/cellsim/store"
)

var (
	configPath  = flag.String("config", "", "Override config YAML file (empty = embedded defaults)")
	logFile     = flag.String("logfile", "", "Write logs to file instead of stdout")
	maxTicks    = flag.Int("max-ticks", 2000, "Stop after N ticks")
	logInterval = flag.Int("log-interval", 200, "Log a telemetry summary every N ticks (0 = disabled)")
	seed        = flag.Int64("seed", 1, "RNG seed for the engine and initial population")
	seedCount   = flag.Int("seed-count", 200, "Number of initial agents to spawn")
	csvOut      = flag.String("csv", "", "Write the analytics ring buffer to this CSV file on exit (empty = skip)")
	dt          = flag.Float64("dt", 0.1, "Fixed timestep per tick, clamped to <= 0.1")
)

func main() {
	flag.Parse()

	if *logFile != "" {
		f, err := os.Create(*logFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "headless: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logx.SetWriter(f)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "headless: loading config: %v\n", err)
		os.Exit(1)
	}

	e := engine.NewWithConfig(cfg, *seed)
	seedPopulation(e, *seed, *seedCount)

	step := float32(*dt)
	if step > 0.1 {
		step = 0.1
	}

	logx.Logf("Starting headless simulation...")
	logx.Logf("  World: %.0f x %.0f, capacity %d, seed %d", cfg.World.Size, cfg.World.Size, cfg.World.Capacity, *seed)
	logx.Logf("  Max ticks: %d, dt: %.3f", *maxTicks, step)
	logx.Logf("")

	start := time.Now()
	for tick := 0; tick < *maxTicks; tick++ {
		e.Tick(step)

		for _, ev := range e.DrainEvents() {
			if ev.Type == events.TypeMilestone {
				logx.Logf("[MILESTONE] tick %d: %s", ev.Tick, ev.Text)
			}
		}

		if *logInterval > 0 && int(e.TickCount())%*logInterval == 0 {
			logTelemetry(e)
		}
	}
	elapsed := time.Since(start)

	logx.Logf("")
	logx.Logf("Simulation complete.")
	logx.Logf("  Total ticks: %d", e.TickCount())
	logx.Logf("  Elapsed: %s", elapsed.Round(time.Millisecond))
	if elapsed.Seconds() > 0 {
		logx.Logf("  Average: %.0f ticks/sec", float64(e.TickCount())/elapsed.Seconds())
	}

	if *csvOut != "" {
		f, err := os.Create(*csvOut)
		if err != nil {
			fmt.Fprintf(os.Stderr, "headless: creating csv: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := e.ExportAnalyticsCSV(f); err != nil {
			fmt.Fprintf(os.Stderr, "headless: exporting csv: %v\n", err)
			os.Exit(1)
		}
		logx.Logf("Analytics written to %s", *csvOut)
	}
}

// seedPopulation spawns n agents with random genomes scattered uniformly
// across the world, using a dedicated RNG so population seeding never
// competes with the engine's own reproduction/mutation draws.
func seedPopulation(e *engine.Engine, seed int64, n int) {
	rng := rand.New(rand.NewSource(seed ^ 0x5eed))
	worldSize := e.WorldSize()

	for i := 0; i < n; i++ {
		var g store.Genome
		for j := range g {
			g[j] = rng.Float32()
		}
		x := rng.Float32() * worldSize
		y := rng.Float32() * worldSize
		e.Spawn(x, y, g)
	}
}

func logTelemetry(e *engine.Engine) {
	t := e.Telemetry()
	logx.Logf("=== Tick %d ===", t.Tick)
	logx.Logf("Alive: %d | Births: %d | Deaths: %d | Generation marker: %d",
		t.Alive, t.Births, t.Deaths, t.Generation)
	logx.Logf("Archetypes: Average=%d Predator=%d Producer=%d Tank=%d Speedster=%d",
		t.Archetypes[store.Average], t.Archetypes[store.Predator], t.Archetypes[store.Producer],
		t.Archetypes[store.Tank], t.Archetypes[store.Speedster])
	logx.Logf("Mean population (ring buffer): %.1f", e.MeanPopulation())
	logx.Logf("")
}
