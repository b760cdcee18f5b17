// district-results aggregates precinct-level election results into
// district tallies and partisan index files, one directory per plan.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/EmpoweredVote/district-results/internal/config"
	"github.com/EmpoweredVote/district-results/internal/logger"
	"github.com/EmpoweredVote/district-results/internal/pipeline"
	"github.com/EmpoweredVote/district-results/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	env := config.LoadEnv()

	configFlag := flag.String("config", env.ConfigPath, "plans file (or set RESULTS_CONFIG)")
	planFlag := flag.StringSlice("plan", nil, "plan names to run (default: all plans in the file)")
	parallelFlag := flag.Int("parallel", 2, "plans to run at the same time")
	persistFlag := flag.Bool("persist", false, "also store results in Postgres (requires DATABASE_URL)")
	verboseFlag := flag.Bool("verbose", env.Verbose, "enable verbose (debug) logging (or set VERBOSE=true)")
	flag.Parse()

	log := logger.New(*verboseFlag)

	file, err := config.Load(*configFlag)
	if err != nil {
		return err
	}
	plans, err := file.Select(*planFlag...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rec pipeline.Recorder
	if *persistFlag {
		if env.DatabaseURL == "" {
			return fmt.Errorf("--persist needs DATABASE_URL")
		}
		s, err := store.Open(ctx, env.DatabaseURL, env.Namespace, log)
		if err != nil {
			return err
		}
		defer s.Close()
		rec = s
	}

	log.Info("running plans", "plans", len(plans), "parallel", *parallelFlag, "config", *configFlag)
	sums, err := pipeline.RunAll(ctx, *file.Catalog, plans, *parallelFlag, log, rec)
	if err != nil {
		return err
	}
	for _, s := range sums {
		log.Info("plan finished",
			"plan", s.Plan,
			"year", s.Year,
			"rows", s.Rows(),
			"misses", s.Misses(),
			"files", len(s.Files),
		)
	}
	return nil
}
