package precinct

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/EmpoweredVote/district-results/internal/tabular"
)

var ErrBadLookup = errors.New("invalid lookup row")

// LoadBlockDistricts reads a plan's block assignment file. Header names vary
// between sources (BLOCK/GEOID20, DISTRICT/District), so the first column is
// taken as the block and the second as the district.
func LoadBlockDistricts(r *tabular.Reader) (map[string]int, error) {
	if len(r.Header()) < 2 {
		return nil, fmt.Errorf("%s: %w: need block and district columns", r.Name(), tabular.ErrMissingColumn)
	}
	out := map[string]int{}
	err := r.Each(func(rec tabular.Record) error {
		n, err := strconv.Atoi(rec.At(1))
		if err != nil {
			return fmt.Errorf("%s line %d: %w: district %q", r.Name(), rec.Line, ErrBadLookup, rec.At(1))
		}
		out[rec.At(0)] = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadPrecinctBlocks reads the precinct block assignment file produced by
// the overlap resolver. A precinct covers many blocks; any one of them
// identifies its district, and the last one listed is kept.
func LoadPrecinctBlocks(r *tabular.Reader) (map[int]string, error) {
	if err := r.Require("PRECINCT", "BLOCK"); err != nil {
		return nil, err
	}
	out := map[int]string{}
	err := r.Each(func(rec tabular.Record) error {
		n, err := strconv.Atoi(rec.Get("PRECINCT"))
		if err != nil {
			return fmt.Errorf("%s line %d: %w: precinct %q", r.Name(), rec.Line, ErrBadLookup, rec.Get("PRECINCT"))
		}
		out[n] = rec.Get("BLOCK")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadLookups opens and reads both assignment files.
func LoadLookups(districtBlockPath, precinctBlockPath string) (Lookups, error) {
	var l Lookups

	db, err := tabular.Open(districtBlockPath)
	if err != nil {
		return l, fmt.Errorf("open district block assignment: %w", err)
	}
	defer db.Close()
	if l.BlockDistricts, err = LoadBlockDistricts(db); err != nil {
		return l, err
	}

	pb, err := tabular.Open(precinctBlockPath)
	if err != nil {
		return l, fmt.Errorf("open precinct block assignment: %w", err)
	}
	defer pb.Close()
	if l.PrecinctBlocks, err = LoadPrecinctBlocks(pb); err != nil {
		return l, err
	}
	return l, nil
}
