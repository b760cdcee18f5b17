// Package overlap turns a block × precinct polygon intersection table into a
// block assignment file: each census block goes to the precinct it overlaps
// the most.
//
// Census blocks do not always nest inside precincts, both because the TIGER
// block geometry ages and because precinct lines avoid splitting residential
// parcels. The intersection table comes from a GIS overlay (QGIS
// Vector > Geoprocessing > Intersection, plus an $area field) and has one row
// per intersecting pair.
package overlap

import (
	"errors"
	"fmt"
	"math"

	"github.com/EmpoweredVote/district-results/internal/tabular"
)

var ErrBadArea = errors.New("invalid overlap area")

// Record is one row of the intersection table.
type Record struct {
	Block    string
	Precinct string
	Area     float64
}

// Assignment maps a block to the precinct that won it.
type Assignment struct {
	Block    string
	Precinct string
}

// Stats summarizes a resolution pass. FirstSeen counts rows that introduced
// a block; Duplicates counts rows for a block already seen.
type Stats struct {
	Total      int
	FirstSeen  int
	Duplicates int
	Blocks     int
}

type winner struct {
	precinct string
	area     float64
}

// Resolver keeps the largest-overlap precinct per block. Rows must be added
// in file order: on equal areas the first row wins.
type Resolver struct {
	order []string
	best  map[string]winner
	stats Stats
}

func NewResolver() *Resolver {
	return &Resolver{best: map[string]winner{}}
}

func (r *Resolver) Add(rec Record) {
	r.stats.Total++
	cur, seen := r.best[rec.Block]
	if !seen {
		r.order = append(r.order, rec.Block)
		r.best[rec.Block] = winner{precinct: rec.Precinct, area: rec.Area}
		r.stats.FirstSeen++
		return
	}
	r.stats.Duplicates++
	if rec.Area > cur.area {
		r.best[rec.Block] = winner{precinct: rec.Precinct, area: rec.Area}
	}
}

// Assignments lists one row per block in the order blocks were first seen.
func (r *Resolver) Assignments() []Assignment {
	out := make([]Assignment, 0, len(r.order))
	for _, b := range r.order {
		out = append(out, Assignment{Block: b, Precinct: r.best[b].precinct})
	}
	return out
}

func (r *Resolver) Stats() Stats {
	s := r.stats
	s.Blocks = len(r.order)
	return s
}

// Resolve is the one-shot form of Resolver.
func Resolve(records []Record) ([]Assignment, Stats) {
	r := NewResolver()
	for _, rec := range records {
		r.Add(rec)
	}
	return r.Assignments(), r.Stats()
}

// Columns names the intersection table headers.
type Columns struct {
	Block    string
	Precinct string
	Area     string
}

// DefaultColumns matches a QGIS intersection of the county precinct layer
// with the 2020 TIGER tabulation blocks.
var DefaultColumns = Columns{Block: "GEOID20", Precinct: "PRECINCT", Area: "ZOVERLAP"}

// ReadInto feeds every row of the intersection table to the resolver. A
// non-numeric, negative or infinite area aborts the read. Zero areas from
// sliver polygons are kept.
func ReadInto(res *Resolver, r *tabular.Reader, cols Columns, nf tabular.NumberFormat) error {
	if err := r.Require(cols.Block, cols.Precinct, cols.Area); err != nil {
		return err
	}
	return r.Each(func(rec tabular.Record) error {
		raw := rec.Get(cols.Area)
		area, err := nf.ParseFloat(raw)
		if err != nil {
			return fmt.Errorf("%s line %d: %w: %w", r.Name(), rec.Line, ErrBadArea, err)
		}
		if math.IsNaN(area) || math.IsInf(area, 0) || area < 0 {
			return fmt.Errorf("%s line %d: %w: %q", r.Name(), rec.Line, ErrBadArea, raw)
		}
		res.Add(Record{
			Block:    rec.Get(cols.Block),
			Precinct: rec.Get(cols.Precinct),
			Area:     area,
		})
		return nil
	})
}

// WriteAssignments writes the block assignment file.
func WriteAssignments(w *tabular.Writer, assignments []Assignment) error {
	if err := w.Write("BLOCK", "PRECINCT"); err != nil {
		return err
	}
	for _, a := range assignments {
		if err := w.Write(a.Block, a.Precinct); err != nil {
			return err
		}
	}
	return nil
}
