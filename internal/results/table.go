package results

import (
	"errors"
	"fmt"
	"slices"

	"github.com/EmpoweredVote/district-results/internal/config"
)

var ErrUnknownDistrict = errors.New("district not in configured range")

type Party int

const (
	Other Party = iota
	Democrat
	Republican
)

func (p Party) String() string {
	switch p {
	case Democrat:
		return "democrat"
	case Republican:
		return "republican"
	}
	return "other"
}

// Classify maps a results file party label onto the three tallied parties.
func Classify(label string, parties config.Parties) Party {
	if slices.Contains(parties.Democrat, label) {
		return Democrat
	}
	if slices.Contains(parties.Republican, label) {
		return Republican
	}
	return Other
}

// Tally is the vote count of one race in one district.
type Tally struct {
	Democrat   int64
	Republican int64
	Other      int64
	// Counties lists contributing counties in first-seen order.
	Counties []string
}

func (t *Tally) Add(p Party, votes int64) {
	switch p {
	case Democrat:
		t.Democrat += votes
	case Republican:
		t.Republican += votes
	default:
		t.Other += votes
	}
}

func (t *Tally) AddCounty(county string) {
	if !slices.Contains(t.Counties, county) {
		t.Counties = append(t.Counties, county)
	}
}

func (t Tally) Total() int64 { return t.Democrat + t.Republican + t.Other }

type Key struct {
	Race         string
	DistrictType string
	District     int
}

// DistrictTally pairs a district number with its tally.
type DistrictTally struct {
	District int
	Tally    Tally
}

// Table holds every race × district type × district cell, created up front
// so districts nobody voted in still report zeros.
type Table struct {
	races []string
	types []config.DistrictType
	cells map[Key]*Tally
}

func NewTable(races []string, types []config.DistrictType) *Table {
	t := &Table{
		races: slices.Clone(races),
		types: slices.Clone(types),
		cells: map[Key]*Tally{},
	}
	for _, race := range races {
		for _, dt := range types {
			for _, n := range dt.Districts() {
				t.cells[Key{Race: race, DistrictType: dt.Name, District: n}] = &Tally{}
			}
		}
	}
	return t
}

func (t *Table) Races() []string { return t.races }

func (t *Table) DistrictTypes() []config.DistrictType { return t.types }

func (t *Table) HasRace(race string) bool { return slices.Contains(t.races, race) }

// Cell returns the tally for a key. Keys outside the configured ranges are
// an inconsistency between the catalog and the data, never ignored.
func (t *Table) Cell(race, districtType string, district int) (*Tally, error) {
	c, ok := t.cells[Key{Race: race, DistrictType: districtType, District: district}]
	if !ok {
		return nil, fmt.Errorf("%w: race=%s district_type=%s district=%d", ErrUnknownDistrict, race, districtType, district)
	}
	return c, nil
}

// Districts lists a race's tallies for one district type in district order.
func (t *Table) Districts(race string, dt config.DistrictType) []DistrictTally {
	out := make([]DistrictTally, 0, dt.Last-dt.First+1)
	for _, n := range dt.Districts() {
		c, ok := t.cells[Key{Race: race, DistrictType: dt.Name, District: n}]
		if !ok {
			continue
		}
		out = append(out, DistrictTally{District: n, Tally: *c})
	}
	return out
}
