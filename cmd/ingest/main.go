package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/medcohort/eligibility-api/config"
	"github.com/medcohort/eligibility-api/internal/ingest"
	"github.com/medcohort/eligibility-api/internal/repository/postgres"
	"github.com/medcohort/eligibility-api/pkg/logger"
	"github.com/medcohort/eligibility-api/pkg/metrics"
)

func main() {
	dataDir := flag.String("data", "", "directory of NDJSON export files (overrides config)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.Ingest.DataDir = *dataDir
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := logger.NewLogger(&logger.Config{
		Level:      level,
		TimeFormat: time.RFC3339,
		Pretty:     cfg.Log.Pretty,
		Output:     os.Stderr,
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	pipeline := ingest.NewPipeline(
		postgres.NewIngestStore(db),
		log,
		metrics.New("medcohort_ingest"),
		cfg.Ingest.BatchSize,
	)

	report, err := pipeline.Run(context.Background(), cfg.Ingest.DataDir)
	if err != nil {
		log.Fatal(err, "ingestion failed")
	}

	printReport(report)
}

func printReport(report *ingest.RunReport) {
	types := make([]string, 0, len(report.Types))
	for t := range report.Types {
		types = append(types, t)
	}
	sort.Strings(types)

	fmt.Printf("run %s finished in %s\n", report.RunID, report.Elapsed.Round(time.Millisecond))
	fmt.Printf("%-22s %6s %9s %8s %9s %10s\n",
		"resource type", "files", "loaded", "parse", "missing", "malformed")
	for _, t := range types {
		st := report.Types[t]
		fmt.Printf("%-22s %6d %9d %8d %9d %10d\n",
			st.ResourceType, st.Files, st.Loaded, st.ParseErrors, st.MissingRefs, st.MalformedRefs)
		for _, skipped := range st.SkippedFiles {
			fmt.Printf("  skipped file: %s\n", skipped)
		}
	}
}
