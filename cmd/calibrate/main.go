// Package main fits virus dispersion parameters so that a single saturated
// source spreads over a target share of an open room in a target time.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/phage/config"
)

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	targetCoverage := flag.Float64("target-coverage", 0.5, "Fraction of the room that should hold virus")
	targetTime := flag.Duration("target-time", 10*time.Second, "Simulated time to reach the target coverage")
	roomSize := flag.Int("room", 21, "Side length of the square calibration room, in tiles")
	maxEvals := flag.Int("max-evals", 100, "Maximum number of evaluations")
	withPeriod := flag.Bool("with-period", false, "Also fit the dispersion period")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if *targetCoverage <= 0 || *targetCoverage > 1 {
		log.Fatalf("--target-coverage must be in (0, 1], got %v", *targetCoverage)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	baseCfg := config.Cfg()

	params := NewParamVector(baseCfg, *withPeriod)
	room := Room{Cols: *roomSize, Rows: *roomSize, Duration: *targetTime}
	evaluator := NewFitnessEvaluator(params, baseCfg, room, *targetCoverage)

	dim := params.Dim()
	initX := params.Normalize(params.DefaultVector())

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return evaluator.Evaluate(params.Denormalize(x))
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0,
	}
	method := &optimize.NelderMead{}

	logPath := filepath.Join(*outputDir, "calibrate_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()

	logWriter := csv.NewWriter(logFile)
	defer logWriter.Flush()

	header := []string{"eval", "fitness", "coverage"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	logWriter.Write(header)

	evalCount := 0
	bestFitness := 1e9
	var bestParams []float64
	var bestCoverage float64
	startTime := time.Now()

	originalFunc := problem.Func
	problem.Func = func(x []float64) float64 {
		fitness := originalFunc(x)
		evalCount++

		clamped := params.Clamp(params.Denormalize(x))
		coverage := evaluator.LastCoverage()
		if fitness < bestFitness {
			bestFitness = fitness
			bestCoverage = coverage
			bestParams = append(bestParams[:0], clamped...)
		}

		row := []string{strconv.Itoa(evalCount), fmt.Sprintf("%.6f", fitness), fmt.Sprintf("%.4f", coverage)}
		for _, v := range clamped {
			row = append(row, fmt.Sprintf("%.6f", v))
		}
		logWriter.Write(row)
		logWriter.Flush()

		elapsed := time.Since(startTime)
		fmt.Printf("Eval %d/%d: coverage=%.3f target=%.3f (best err=%.6f) | elapsed: %s\n",
			evalCount, *maxEvals, coverage, *targetCoverage, bestFitness, formatDuration(elapsed))

		return fitness
	}

	fmt.Printf("Starting Nelder-Mead calibration with %d parameters, max_evals=%d\n", dim, *maxEvals)
	fmt.Printf("Room %dx%d, target coverage %.2f after %s\n", room.Cols, room.Rows, *targetCoverage, *targetTime)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}

	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		log.Fatal("no evaluations completed")
	}

	fmt.Printf("\nCalibration complete after %d evaluations in %s\n", evalCount, formatDuration(time.Since(startTime)))
	fmt.Printf("Best coverage: %.3f (squared error %.6f)\n", bestCoverage, bestFitness)

	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.6f\n", spec.Path, bestParams[i])
	}

	bestCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to reload config: %v", err)
	}
	params.ApplyToConfig(bestCfg, bestParams)

	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write best config: %v", err)
	} else {
		fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	}
}
