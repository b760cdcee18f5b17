package results

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/EmpoweredVote/district-results/internal/config"
	"github.com/EmpoweredVote/district-results/internal/precinct"
	"github.com/EmpoweredVote/district-results/internal/tabular"
	"golang.org/x/time/rate"
)

var ErrNotTwoParty = errors.New("countywide results need DEM and REP columns")

const (
	precinctColumn = "Precinct"
	countyColumn   = "County"
	partyColumn    = "Party"
)

// Stats counts what one pass did with its rows.
type Stats struct {
	Rows    int
	Matched int
	// Skipped counts statewide rows for offices that are not tracked.
	Skipped int
	Misses  int
	// Votes sums the counts of rows that reached at least one district.
	Votes int64
}

type Config struct {
	Year          int
	Catalog       config.Catalog
	DistrictTypes []config.DistrictType
	// Countywide lists the countywide races that will be fed to this
	// aggregator, in output order.
	Countywide []string
	Decoder    *precinct.Decoder
	Format     tabular.NumberFormat
	Logger     *slog.Logger
}

// Aggregator folds vote rows into a Table. It is single-use and not safe for
// concurrent use; rows must arrive in file order.
type Aggregator struct {
	catalog  config.Catalog
	columns  config.Columns
	offices  map[string]string
	decoder  *precinct.Decoder
	table    *Table
	format   tabular.NumberFormat
	log      *slog.Logger
	progress rate.Sometimes
}

func New(cfg Config) (*Aggregator, error) {
	if cfg.Decoder == nil {
		return nil, errors.New("decoder is required")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger is required")
	}
	y, err := cfg.Catalog.Year(cfg.Year)
	if err != nil {
		return nil, err
	}

	offices := make(map[string]string, len(y.Statewide))
	races := make([]string, 0, len(y.Statewide)+len(cfg.Countywide))
	for _, r := range y.Statewide {
		if _, dup := offices[r.Office]; !dup {
			offices[r.Office] = r.Key
		}
		races = append(races, r.Key)
	}
	for _, r := range cfg.Countywide {
		if !slices.Contains(y.Countywide, r) {
			return nil, fmt.Errorf("%w: countywide %s in %d", config.ErrUnknownRace, r, cfg.Year)
		}
		races = append(races, r)
	}

	return &Aggregator{
		catalog:  cfg.Catalog,
		columns:  y.Columns,
		offices:  offices,
		decoder:  cfg.Decoder,
		table:    NewTable(races, cfg.DistrictTypes),
		format:   cfg.Format,
		log:      cfg.Logger,
		progress: rate.Sometimes{Interval: 5 * time.Second},
	}, nil
}

func (a *Aggregator) Table() *Table { return a.table }

// Statewide consumes the Secretary of State precinct-level results file.
func (a *Aggregator) Statewide(r *tabular.Reader) (Stats, error) {
	var stats Stats
	if err := r.Require(precinctColumn, countyColumn, partyColumn, a.columns.Office, a.columns.Votes); err != nil {
		return stats, err
	}

	err := r.Each(func(rec tabular.Record) error {
		stats.Rows++
		a.tick(r, stats.Rows)

		race, ok := a.offices[rec.Get(a.columns.Office)]
		if !ok {
			stats.Skipped++
			return nil
		}
		stats.Matched++

		county := rec.Get(countyColumn)
		cells, err := a.cells(r, rec, race, county, &stats)
		if err != nil {
			return err
		}
		if len(cells) == 0 {
			return nil
		}

		votes, err := a.format.ParseInt(rec.Get(a.columns.Votes))
		if err != nil {
			return fmt.Errorf("%s line %d: %s: %w", r.Name(), rec.Line, a.columns.Votes, err)
		}
		party := Classify(rec.Get(partyColumn), a.catalog.Parties)
		for _, c := range cells {
			c.Add(party, votes)
			c.AddCounty(county)
		}
		stats.Votes += votes
		return nil
	})
	return stats, err
}

// Countywide consumes one county's per-race export. Those files carry only
// two-party counts, masked where too few voters would be identifiable. The
// whole file is attributed to county.
func (a *Aggregator) Countywide(race, county string, r *tabular.Reader) (Stats, error) {
	var stats Stats
	if !a.table.HasRace(race) {
		return stats, fmt.Errorf("%w: %s", config.ErrUnknownRace, race)
	}
	dem, rep := partyColumns(r.Header(), a.catalog.Markers)
	if dem == "" || rep == "" {
		return stats, fmt.Errorf("%s: %w (race %s)", r.Name(), ErrNotTwoParty, race)
	}
	if err := r.Require(precinctColumn); err != nil {
		return stats, err
	}

	err := r.Each(func(rec tabular.Record) error {
		stats.Rows++
		stats.Matched++
		a.tick(r, stats.Rows)

		cells, err := a.cells(r, rec, race, county, &stats)
		if err != nil {
			return err
		}
		if len(cells) == 0 {
			return nil
		}

		demVotes, demKnown, err := a.masked(r, rec, dem)
		if err != nil {
			return err
		}
		repVotes, repKnown, err := a.masked(r, rec, rep)
		if err != nil {
			return err
		}
		for _, c := range cells {
			// TODO: append instead once a countywide export spans more than one county.
			c.Counties = []string{county}
			if demKnown {
				c.Democrat += demVotes
			}
			if repKnown {
				c.Republican += repVotes
			}
		}
		stats.Votes += demVotes + repVotes
		return nil
	})
	return stats, err
}

// cells decodes the row's precinct and returns the tally of every district
// type the precinct resolves to.
func (a *Aggregator) cells(r *tabular.Reader, rec tabular.Record, race, county string, stats *Stats) ([]*Tally, error) {
	code := rec.Get(precinctColumn)
	res, err := a.decoder.Decode(code, county)
	if err != nil {
		return nil, fmt.Errorf("%s line %d: %w", r.Name(), rec.Line, err)
	}
	for _, m := range res.Misses {
		stats.Misses++
		a.log.Warn("unresolved district",
			"source", r.Name(),
			"line", rec.Line,
			"precinct", code,
			"county", county,
			"race", race,
			"district_type", m.DistrictType,
			"miss", string(m.Kind),
			"key", m.Key,
		)
	}

	out := make([]*Tally, 0, len(a.table.types))
	for _, dt := range a.table.types {
		n, ok := res.District(dt.Name)
		if !ok {
			continue
		}
		c, err := a.table.Cell(race, dt.Name, n)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: precinct %s: %w", r.Name(), rec.Line, code, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// masked parses a countywide vote column. known is false when the value is
// the privacy mask, meaning no information rather than zero votes.
func (a *Aggregator) masked(r *tabular.Reader, rec tabular.Record, column string) (votes int64, known bool, err error) {
	v := rec.Get(column)
	if v == a.catalog.Markers.Mask {
		return 0, false, nil
	}
	votes, err = a.format.ParseInt(v)
	if err != nil {
		return 0, false, fmt.Errorf("%s line %d: %s: %w", r.Name(), rec.Line, column, err)
	}
	return votes, true, nil
}

func (a *Aggregator) tick(r *tabular.Reader, rows int) {
	a.progress.Do(func() {
		a.log.Debug("aggregating", "source", r.Name(), "rows", rows)
	})
}

// partyColumns finds the Democratic and Republican vote columns by the
// marker their candidate headers carry, e.g. "Jane Doe (DEM)".
func partyColumns(header []string, m config.Markers) (dem, rep string) {
	for _, h := range header {
		if strings.Contains(h, m.Democrat) {
			dem = h
		} else if strings.Contains(h, m.Republican) {
			rep = h
		}
	}
	return dem, rep
}
