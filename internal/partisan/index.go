// Package partisan computes a per-district partisan lean from finished
// tallies. Positive values lean Republican, negative lean Democratic.
package partisan

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/EmpoweredVote/district-results/internal/config"
	"github.com/EmpoweredVote/district-results/internal/results"
	"github.com/EmpoweredVote/district-results/internal/tabular"
)

var ErrUnknownRace = errors.New("race not in tally table")

// Lean is (R - D) / (R + D) for one race. A district with no two-party votes
// has a lean of 0.
func Lean(t results.Tally) float64 {
	total := t.Democrat + t.Republican
	if total == 0 {
		return 0
	}
	return float64(t.Republican-t.Democrat) / float64(total)
}

// Row is one district's lean per race and their unweighted mean.
type Row struct {
	District int
	Leans    []float64
	Index    float64
}

// Compute builds index rows for every district of a district type. Each race
// counts equally regardless of turnout.
func Compute(table *results.Table, dt config.DistrictType, races []string) ([]Row, error) {
	for _, r := range races {
		if !table.HasRace(r) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownRace, r)
		}
	}

	rows := make([]Row, 0, dt.Last-dt.First+1)
	for _, n := range dt.Districts() {
		row := Row{District: n, Leans: make([]float64, len(races))}
		var sum float64
		for i, race := range races {
			c, err := table.Cell(race, dt.Name, n)
			if err != nil {
				return nil, err
			}
			row.Leans[i] = Lean(*c)
			sum += row.Leans[i]
		}
		if len(races) > 0 {
			row.Index = sum / float64(len(races))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// FileName is the index file name for one scope ("statewide" or
// "countywide") and district type.
func FileName(year int, scope, districtType string) string {
	return fmt.Sprintf("%d_%s_partisan_index_by_%s.csv", year, scope, districtType)
}

// Write emits header district, one column per race, partisan_index.
func Write(w *tabular.Writer, races []string, rows []Row) error {
	header := make([]string, 0, len(races)+2)
	header = append(header, "district")
	header = append(header, races...)
	header = append(header, "partisan_index")
	if err := w.Write(header...); err != nil {
		return err
	}
	for _, r := range rows {
		rec := make([]string, 0, len(header))
		rec = append(rec, strconv.Itoa(r.District))
		for _, l := range r.Leans {
			rec = append(rec, formatLean(l))
		}
		rec = append(rec, formatLean(r.Index))
		if err := w.Write(rec...); err != nil {
			return err
		}
	}
	return nil
}

func formatLean(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
