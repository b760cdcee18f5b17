// block-assign resolves a precinct × block intersection table into one
// precinct per census block.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/EmpoweredVote/district-results/internal/config"
	"github.com/EmpoweredVote/district-results/internal/logger"
	"github.com/EmpoweredVote/district-results/internal/overlap"
	"github.com/EmpoweredVote/district-results/internal/store"
	"github.com/EmpoweredVote/district-results/internal/tabular"
	"golang.org/x/text/language"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	env := config.LoadEnv()

	inputFlag := flag.String("input", "", "precinct/block intersection table (CSV)")
	outputFlag := flag.String("output", "", "block assignment file to write")
	blockFlag := flag.String("block-column", overlap.DefaultColumns.Block, "block id column")
	precinctFlag := flag.String("precinct-column", overlap.DefaultColumns.Precinct, "precinct id column")
	areaFlag := flag.String("area-column", overlap.DefaultColumns.Area, "overlap area column")
	localeFlag := flag.String("locale", config.DefaultLocale, "locale the area column is written in")
	persistFlag := flag.Bool("persist", false, "also store the assignments in Postgres (requires DATABASE_URL)")
	verboseFlag := flag.Bool("verbose", env.Verbose, "enable verbose (debug) logging (or set VERBOSE=true)")
	flag.Parse()

	log := logger.New(*verboseFlag)

	if *inputFlag == "" || *outputFlag == "" {
		flag.Usage()
		return fmt.Errorf("--input and --output are required")
	}
	tag, err := language.Parse(*localeFlag)
	if err != nil {
		return fmt.Errorf("%w %q: %v", config.ErrBadLocale, *localeFlag, err)
	}
	if *persistFlag && env.DatabaseURL == "" {
		return fmt.Errorf("--persist needs DATABASE_URL")
	}

	assignments, _, err := overlap.Run(overlap.Config{
		Input:   *inputFlag,
		Output:  *outputFlag,
		Columns: overlap.Columns{Block: *blockFlag, Precinct: *precinctFlag, Area: *areaFlag},
		Format:  tabular.FormatFor(tag),
		Logger:  log,
	})
	if err != nil {
		return err
	}

	if !*persistFlag {
		return nil
	}
	ctx := context.Background()
	s, err := store.Open(ctx, env.DatabaseURL, env.Namespace, log)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.SaveBlockAssignments(ctx, filepath.Base(*outputFlag), assignments)
}
