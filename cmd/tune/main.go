// Command tune searches for a runtime parameter vector (mutation rate, food
// abundance, friction, solar constant) whose population trajectory best
// tracks a target curve, using gonum's Nelder-Mead local search — the small
// 4-parameter table does not need a population-based global method.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/cellsim/config"
)

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = embedded defaults)")
	ticks := flag.Int("ticks", 3000, "Simulation ticks per evaluation run")
	seeds := flag.Int("seeds", 3, "Number of seeds averaged per evaluation")
	maxIter := flag.Int("max-evals", 100, "Maximum Nelder-Mead function evaluations")
	targetCSV := flag.String("target", "", "Comma-separated target population checkpoints (empty = flat 500-agent target)")
	outputDir := flag.String("output", "", "Directory for the evaluation log and best config (required)")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	baseCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	params := NewParamVector()

	target := parseTarget(*targetCSV)

	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 7)
	}

	evaluator := NewFitnessEvaluator(params, baseCfg, *ticks, evalSeeds, target)

	logFile, err := os.Create(*outputDir + "/tune_log.csv")
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()

	logWriter := csv.NewWriter(logFile)
	defer logWriter.Flush()

	header := []string{"eval", "fitness"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	logWriter.Write(header)

	evalCount := 0
	bestFitness := 1e18
	var bestParams []float64
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			clamped := params.Clamp(x)
			fitness := evaluator.Evaluate(clamped)

			evalCount++
			if fitness < bestFitness {
				bestFitness = fitness
				bestParams = append([]float64(nil), clamped...)
			}

			row := []string{strconv.Itoa(evalCount), fmt.Sprintf("%.6f", fitness)}
			for _, v := range clamped {
				row = append(row, fmt.Sprintf("%.6f", v))
			}
			logWriter.Write(row)
			logWriter.Flush()

			fmt.Printf("eval %d/%d: rmse=%.3f (best=%.3f)\n", evalCount, *maxIter, fitness, bestFitness)
			return fitness
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxIter,
	}
	method := &optimize.NelderMead{}

	result, err := optimize.Minimize(problem, params.DefaultVector(), settings, method)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}

	if bestParams == nil {
		bestParams = params.Clamp(result.X)
	}

	fmt.Printf("\ntune complete after %d evaluations in %s\n", evalCount, time.Since(startTime).Round(time.Second))
	fmt.Println("best parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.6f\n", spec.Name, bestParams[i])
	}

	bestCfg, _ := config.Load(*configPath)
	applyToConfig(bestCfg, params, bestParams)

	configOutPath := *outputDir + "/best_config.yaml"
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write best config: %v", err)
	} else {
		fmt.Printf("\nbest config saved to: %s\n", configOutPath)
	}
}

// applyToConfig writes a parameter vector back into a Config's matching
// fields, keyed by ParamSpec.Name.
func applyToConfig(cfg *config.Config, pv *ParamVector, x []float64) {
	for i, spec := range pv.Specs {
		switch spec.Name {
		case "mutation_rate":
			cfg.Mutation.Rate = x[i]
		case "food_abundance":
			cfg.Food.Abundance = x[i]
		case "friction":
			cfg.Physics.Friction = x[i]
		case "solar_constant":
			cfg.Solar.Constant = x[i]
		}
	}
}

// parseTarget reads a comma-separated checkpoint list, falling back to a
// flat target curve representative of a stable mid-sized population.
func parseTarget(raw string) []float64 {
	if raw == "" {
		return []float64{500, 500, 500, 500, 500}
	}
	parts := strings.Split(raw, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			log.Fatalf("invalid --target value %q: %v", p, err)
		}
		out = append(out, v)
	}
	return out
}
