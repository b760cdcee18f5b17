package results

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/EmpoweredVote/district-results/internal/tabular"
)

var tallyHeader = []string{"district", "counties", "democrat", "republican", "other"}

// TallyFileName is the per-race, per-district-type file name.
func TallyFileName(year int, race, districtType string) string {
	return fmt.Sprintf("%d_%s_by_%s.csv", year, race, districtType)
}

// WriteTally writes one race's tallies for one district type.
func WriteTally(w *tabular.Writer, rows []DistrictTally, joiner string) error {
	if err := w.Write(tallyHeader...); err != nil {
		return err
	}
	for _, r := range rows {
		err := w.Write(
			strconv.Itoa(r.District),
			strings.Join(r.Tally.Counties, joiner),
			strconv.FormatInt(r.Tally.Democrat, 10),
			strconv.FormatInt(r.Tally.Republican, 10),
			strconv.FormatInt(r.Tally.Other, 10),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteTallies writes every race × district type file of the table into dir
// and returns the paths written.
func WriteTallies(dir string, year int, table *Table, joiner string) ([]string, error) {
	var paths []string
	for _, race := range table.Races() {
		for _, dt := range table.DistrictTypes() {
			path := filepath.Join(dir, TallyFileName(year, race, dt.Name))
			w, err := tabular.Create(path)
			if err != nil {
				return paths, err
			}
			if err := WriteTally(w, table.Districts(race, dt), joiner); err != nil {
				w.Close()
				return paths, fmt.Errorf("write %s: %w", path, err)
			}
			if err := w.Close(); err != nil {
				return paths, fmt.Errorf("write %s: %w", path, err)
			}
			paths = append(paths, path)
		}
	}
	return paths, nil
}
