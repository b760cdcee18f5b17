// Package pipeline runs a plan end to end: decode every results row to its
// districts, write per-race tallies, then write the partisan index files.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/EmpoweredVote/district-results/internal/config"
	"github.com/EmpoweredVote/district-results/internal/partisan"
	"github.com/EmpoweredVote/district-results/internal/precinct"
	"github.com/EmpoweredVote/district-results/internal/results"
	"github.com/EmpoweredVote/district-results/internal/store"
	"github.com/EmpoweredVote/district-results/internal/tabular"
	"golang.org/x/sync/errgroup"
)

const (
	ScopeStatewide  = "statewide"
	ScopeCountywide = "countywide"
)

// Recorder persists a finished run. *store.Store satisfies it.
type Recorder interface {
	SaveRun(ctx context.Context, rec store.RunRecord) error
}

type Options struct {
	Catalog config.Catalog
	Plan    config.Plan
	Logger  *slog.Logger
	// Recorder is optional; without it only files are written.
	Recorder Recorder
}

// Summary reports what a plan run read and wrote.
type Summary struct {
	Plan       string
	Year       int
	Statewide  results.Stats
	Countywide map[string]results.Stats
	Files      []string
}

// Misses is the number of unresolved district lookups across all sources.
func (s *Summary) Misses() int {
	n := s.Statewide.Misses
	for _, c := range s.Countywide {
		n += c.Misses
	}
	return n
}

func (s *Summary) Rows() int {
	n := s.Statewide.Rows
	for _, c := range s.Countywide {
		n += c.Rows
	}
	return n
}

// Run executes one plan. Any fatal condition aborts the run; files already
// written for the plan are left in place.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	plan := opts.Plan
	if err := plan.Validate(opts.Catalog); err != nil {
		return nil, err
	}
	log := opts.Logger.With("plan", plan.Name, "year", plan.Year)

	tag, err := plan.LanguageTag()
	if err != nil {
		return nil, err
	}
	format := tabular.FormatFor(tag)

	types, err := opts.Catalog.DistrictTypesNamed(plan.DistrictTypes)
	if err != nil {
		return nil, err
	}

	lookups, err := loadLookups(plan, types)
	if err != nil {
		return nil, err
	}
	provisional, _ := opts.Catalog.Provisional(plan.Year)
	decoder := precinct.NewDecoder(precinct.Options{
		DistrictTypes:     types,
		Lookups:           lookups,
		ProvisionalMarker: opts.Catalog.Markers.Provisional,
		Provisional:       provisional,
	})

	countyRaces := make([]string, 0, len(plan.CountywideResults))
	for _, src := range plan.CountywideResults {
		countyRaces = append(countyRaces, src.Race)
	}
	agg, err := results.New(results.Config{
		Year:          plan.Year,
		Catalog:       opts.Catalog,
		DistrictTypes: types,
		Countywide:    countyRaces,
		Decoder:       decoder,
		Format:        format,
		Logger:        log,
	})
	if err != nil {
		return nil, err
	}

	sum := &Summary{Plan: plan.Name, Year: plan.Year, Countywide: map[string]results.Stats{}}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sum.Statewide, err = readSource(plan.StatewideResults, agg.Statewide)
	if err != nil {
		return nil, fmt.Errorf("statewide results: %w", err)
	}
	log.Info("aggregated statewide results",
		"rows", tabular.Count(tag, sum.Statewide.Rows),
		"matched", tabular.Count(tag, sum.Statewide.Matched),
		"misses", sum.Statewide.Misses,
	)

	for _, src := range plan.CountywideResults {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		st, err := readSource(src.Path, func(r *tabular.Reader) (results.Stats, error) {
			return agg.Countywide(src.Race, src.County, r)
		})
		if err != nil {
			return nil, fmt.Errorf("countywide %s results: %w", src.Race, err)
		}
		sum.Countywide[src.Race] = st
		log.Info("aggregated countywide results",
			"race", src.Race,
			"county", src.County,
			"rows", tabular.Count(tag, st.Rows),
			"misses", st.Misses,
		)
	}

	dir := plan.Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	table := agg.Table()
	joiner := opts.Catalog.Markers.CountyJoiner
	files, err := results.WriteTallies(dir, plan.Year, table, joiner)
	sum.Files = append(sum.Files, files...)
	if err != nil {
		return sum, err
	}

	sets := indexSets(opts.Catalog, table, types, len(plan.CountywideResults) > 0, log)
	for i := range sets {
		path, err := writeIndex(dir, plan.Year, table, types, &sets[i])
		if err != nil {
			return sum, err
		}
		sum.Files = append(sum.Files, path)
	}
	log.Info("wrote output files", "dir", dir, "files", len(sum.Files))

	if opts.Recorder != nil {
		digest, err := store.Digest(inputs(plan, types)...)
		if err != nil {
			return sum, err
		}
		err = opts.Recorder.SaveRun(ctx, store.RunRecord{
			Plan:        plan.Name,
			Year:        plan.Year,
			InputDigest: digest,
			Rows:        sum.Rows(),
			Misses:      sum.Misses(),
			Table:       table,
			Indexes:     sets,
		})
		if err != nil {
			return sum, fmt.Errorf("save run: %w", err)
		}
	}
	return sum, nil
}

// RunAll runs plans concurrently, at most parallel at a time. The first
// failure cancels the plans that have not finished.
func RunAll(ctx context.Context, catalog config.Catalog, plans []config.Plan, parallel int, log *slog.Logger, rec Recorder) ([]*Summary, error) {
	if parallel < 1 {
		parallel = 1
	}
	out := make([]*Summary, len(plans))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, p := range plans {
		g.Go(func() error {
			sum, err := Run(ctx, Options{Catalog: catalog, Plan: p, Logger: log, Recorder: rec})
			if err != nil {
				return fmt.Errorf("plan %s (%d): %w", p.Name, p.Year, err)
			}
			out[i] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}

// loadLookups reads the assignment files only when a county-filtered
// district type needs them.
func loadLookups(plan config.Plan, types []config.DistrictType) (precinct.Lookups, error) {
	if !slices.ContainsFunc(types, config.DistrictType.Filtered) {
		return precinct.Lookups{}, nil
	}
	return precinct.LoadLookups(plan.DistrictBlockAssignment, plan.PrecinctBlockAssignment)
}

func readSource(path string, pass func(*tabular.Reader) (results.Stats, error)) (results.Stats, error) {
	r, err := tabular.Open(path)
	if err != nil {
		return results.Stats{}, err
	}
	defer r.Close()
	return pass(r)
}

type indexScope struct {
	name  string
	races []string
}

// indexSets lists the index files to write: one per scope and district type.
// Only down-ballot races present in the table are averaged. A scope with no
// such race gets no file.
func indexSets(c config.Catalog, table *results.Table, types []config.DistrictType, countywide bool, log *slog.Logger) []store.IndexSet {
	scopes := []indexScope{{ScopeStatewide, c.DownBallotStatewide}}
	if countywide {
		scopes = append(scopes, indexScope{ScopeCountywide, c.DownBallotCountywide})
	}

	var out []store.IndexSet
	for _, s := range scopes {
		races := make([]string, 0, len(s.races))
		for _, r := range s.races {
			if table.HasRace(r) {
				races = append(races, r)
			}
		}
		if len(races) == 0 {
			log.Warn("no down-ballot races configured, skipping partisan index", "scope", s.name)
			continue
		}
		for _, dt := range types {
			out = append(out, store.IndexSet{Scope: s.name, DistrictType: dt.Name, Races: races})
		}
	}
	return out
}

// writeIndex computes set's rows and writes its file.
func writeIndex(dir string, year int, table *results.Table, types []config.DistrictType, set *store.IndexSet) (string, error) {
	i := slices.IndexFunc(types, func(d config.DistrictType) bool { return d.Name == set.DistrictType })
	rows, err := partisan.Compute(table, types[i], set.Races)
	if err != nil {
		return "", err
	}
	set.Rows = rows

	path := filepath.Join(dir, partisan.FileName(year, set.Scope, set.DistrictType))
	w, err := tabular.Create(path)
	if err != nil {
		return "", err
	}
	if err := partisan.Write(w, set.Races, rows); err != nil {
		w.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func inputs(plan config.Plan, types []config.DistrictType) []string {
	paths := []string{plan.StatewideResults}
	for _, src := range plan.CountywideResults {
		paths = append(paths, src.Path)
	}
	if slices.ContainsFunc(types, config.DistrictType.Filtered) {
		paths = append(paths, plan.DistrictBlockAssignment, plan.PrecinctBlockAssignment)
	}
	return paths
}
