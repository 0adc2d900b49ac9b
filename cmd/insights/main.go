// insights analyzes a local JSON file of events and prints a summary
// of the detected patterns to the terminal.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"personal-insights/internal/analysis"
	"personal-insights/internal/logging"
	"personal-insights/internal/report"
	"personal-insights/pkg/types"
)

func main() {
	var (
		file     = flag.String("file", "", "path to a JSON array of events")
		seed     = flag.Int64("seed", 1, "clustering RNG seed (non-zero)")
		workers  = flag.Int("workers", 1, "per-category analysis workers")
		horizon  = flag.Int("horizon", 7, "prediction horizon in days")
		markdown = flag.Bool("markdown", false, "print the full markdown report")
	)
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: insights -file events.json [-seed N] [-markdown]")
		os.Exit(2)
	}

	if err := run(*file, *seed, *workers, *horizon, *markdown); err != nil {
		color.Red("error: %v", err)
		os.Exit(1)
	}
}

func run(path string, seed int64, workers, horizon int, markdown bool) error {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the operator
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var events []*types.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return fmt.Errorf("failed to parse events: %w", err)
	}

	orchestrator, err := analysis.NewOrchestrator(analysis.Options{
		ClusterSeed:       seed,
		PredictionHorizon: horizon,
		Workers:           workers,
		Logger:            logging.NewNoopLogger(),
	})
	if err != nil {
		return err
	}

	result, err := orchestrator.Analyze(context.Background(), events, nil)
	if err != nil {
		return err
	}

	if markdown {
		fmt.Print(report.BuildMarkdown(result))
		return nil
	}

	printSummary(result)
	return nil
}

func printSummary(result *types.AnalysisResult) {
	header := color.New(color.FgCyan, color.Bold)
	good := color.New(color.FgGreen)
	warn := color.New(color.FgYellow)
	bad := color.New(color.FgRed)

	header.Printf("Analyzed %d events (overall confidence %.0f%%)\n\n", result.EventCount, result.Confidence*100)

	header.Println("Trends")
	if len(result.Trends) == 0 {
		fmt.Println("  none detected")
	}
	for _, t := range result.Trends {
		line := good
		if t.Direction == types.TrendDecreasing {
			line = warn
		}
		line.Printf("  %s %s (strength %.2f, confidence %.0f%%)\n", t.DataType, t.Direction, t.Strength, t.Confidence*100)
	}

	header.Println("\nCycles")
	if len(result.Cycles) == 0 {
		fmt.Println("  none detected")
	}
	for _, c := range result.Cycles {
		fmt.Printf("  %s %s cycle, strength %.2f (peak bucket %d)\n", c.DataType, c.PeriodType, c.Strength, c.PeakBucket)
	}

	header.Println("\nCorrelations")
	if len(result.Correlations) == 0 {
		fmt.Println("  none detected")
	}
	for _, c := range result.Correlations {
		fmt.Printf("  %s ~ %s: r=%.2f (%s, confidence %.0f%%)\n", c.DataTypeA, c.DataTypeB, c.Coefficient, c.Direction, c.Confidence*100)
	}

	header.Println("\nAnomalies")
	if len(result.Anomalies) == 0 {
		fmt.Println("  none detected")
	}
	for _, a := range result.Anomalies {
		line := warn
		if a.Severity == types.SeverityHigh {
			line = bad
		}
		line.Printf("  [%s/%s] %s\n", a.Kind, a.Severity, a.Description)
	}

	header.Println("\nClusters")
	if len(result.Clusters) == 0 {
		fmt.Println("  none detected")
	}
	for _, set := range result.Clusters {
		fmt.Printf("  %s: %d clusters, silhouette %.2f\n", set.DataType, len(set.Clusters), set.Silhouette)
	}

	header.Println("\nForecasts")
	if len(result.Predictions) == 0 {
		fmt.Println("  none available")
	}
	for _, p := range result.Predictions {
		if len(p.Series) == 0 {
			continue
		}
		last := p.Series[len(p.Series)-1]
		fmt.Printf("  %s → %.2f in %d days (confidence %.0f%%)\n", p.DataType, last.Value, len(p.Series), last.Confidence*100)
	}
}
