package config

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrUnknownYear         = errors.New("year not configured")
	ErrUnknownDistrictType = errors.New("unknown district type")
	ErrInvalidCatalog      = errors.New("invalid catalog")
)

// Group names the positional digit group of a precinct code that selects a
// district type.
type Group string

const (
	GroupCongressional Group = "congressional"
	GroupSenate        Group = "senate"
	GroupHouse         Group = "house"
	GroupCounty        Group = "county"
)

// Index is the position of the group in a decoded precinct code.
func (g Group) Index() (int, bool) {
	switch g {
	case GroupCongressional:
		return 0, true
	case GroupSenate:
		return 1, true
	case GroupHouse:
		return 2, true
	case GroupCounty:
		return 3, true
	}
	return 0, false
}

// DistrictType is one electoral geography. Types with a CountyNumber are
// resolved through block assignment tables instead of the code digits, and
// only for precincts of that county.
type DistrictType struct {
	Name         string `yaml:"name"`
	First        int    `yaml:"first"`
	Last         int    `yaml:"last"`
	Group        Group  `yaml:"group"`
	CountyNumber int    `yaml:"county_number,omitempty"`
	CountyName   string `yaml:"county_name,omitempty"`
}

func (d DistrictType) Filtered() bool { return d.CountyNumber != 0 }

func (d DistrictType) Contains(n int) bool { return n >= d.First && n <= d.Last }

// Districts lists the valid district numbers in ascending order.
func (d DistrictType) Districts() []int {
	out := make([]int, 0, d.Last-d.First+1)
	for n := d.First; n <= d.Last; n++ {
		out = append(out, n)
	}
	return out
}

func (d DistrictType) validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: district type without a name", ErrInvalidCatalog)
	}
	if d.First > d.Last {
		return fmt.Errorf("%w: district type %s has range %d..%d", ErrInvalidCatalog, d.Name, d.First, d.Last)
	}
	if _, ok := d.Group.Index(); !ok {
		return fmt.Errorf("%w: district type %s has unknown group %q", ErrInvalidCatalog, d.Name, d.Group)
	}
	if d.Filtered() && d.Group != GroupCounty {
		return fmt.Errorf("%w: district type %s filters on county number but reads group %q", ErrInvalidCatalog, d.Name, d.Group)
	}
	return nil
}

// StatewideRace is matched by exact office name against the statewide file.
type StatewideRace struct {
	Key    string `yaml:"key"`
	Office string `yaml:"office"`
}

// Columns holds the statewide file headers that changed between years.
type Columns struct {
	Office string `yaml:"office"`
	Votes  string `yaml:"votes"`
}

// ProvisionalOverride gives the districts assumed for a county's
// provisional ballots in one year.
type ProvisionalOverride struct {
	County    string         `yaml:"county"`
	Districts map[string]int `yaml:"districts"`
}

type Year struct {
	Year        int                   `yaml:"year"`
	Statewide   []StatewideRace       `yaml:"statewide"`
	Countywide  []string              `yaml:"countywide"`
	Columns     Columns               `yaml:"columns"`
	Provisional []ProvisionalOverride `yaml:"provisional"`
}

type Parties struct {
	Democrat   []string `yaml:"democrat"`
	Republican []string `yaml:"republican"`
}

type Markers struct {
	Provisional  string `yaml:"provisional"`
	Mask         string `yaml:"mask"`
	Democrat     string `yaml:"democrat"`
	Republican   string `yaml:"republican"`
	CountyJoiner string `yaml:"county_joiner"`
}

// Catalog is the static description of a state's geographies, races and
// file conventions. It is loaded once and only read afterwards.
type Catalog struct {
	DistrictTypes        []DistrictType `yaml:"district_types"`
	Years                []Year         `yaml:"years"`
	Parties              Parties        `yaml:"parties"`
	Markers              Markers        `yaml:"markers"`
	DownBallotStatewide  []string       `yaml:"down_ballot_statewide"`
	DownBallotCountywide []string       `yaml:"down_ballot_countywide"`
}

func (c Catalog) DistrictType(name string) (DistrictType, error) {
	for _, d := range c.DistrictTypes {
		if d.Name == name {
			return d, nil
		}
	}
	return DistrictType{}, fmt.Errorf("%w: %s", ErrUnknownDistrictType, name)
}

// DistrictTypesNamed resolves names in order; an empty list selects every
// configured type.
func (c Catalog) DistrictTypesNamed(names []string) ([]DistrictType, error) {
	if len(names) == 0 {
		return slices.Clone(c.DistrictTypes), nil
	}
	out := make([]DistrictType, 0, len(names))
	for _, n := range names {
		d, err := c.DistrictType(n)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (c Catalog) Year(year int) (Year, error) {
	for _, y := range c.Years {
		if y.Year == year {
			return y, nil
		}
	}
	return Year{}, fmt.Errorf("%w: %d", ErrUnknownYear, year)
}

// Provisional returns the override table for a year. ok is false when the
// year has none, which means provisional precincts cannot be resolved.
func (c Catalog) Provisional(year int) (table map[string]map[string]int, ok bool) {
	y, err := c.Year(year)
	if err != nil || len(y.Provisional) == 0 {
		return nil, false
	}
	table = make(map[string]map[string]int, len(y.Provisional))
	for _, o := range y.Provisional {
		table[o.County] = o.Districts
	}
	return table, true
}

func (c Catalog) Validate() error {
	if len(c.DistrictTypes) == 0 {
		return fmt.Errorf("%w: no district types", ErrInvalidCatalog)
	}
	seen := map[string]bool{}
	for _, d := range c.DistrictTypes {
		if err := d.validate(); err != nil {
			return err
		}
		if seen[d.Name] {
			return fmt.Errorf("%w: duplicate district type %s", ErrInvalidCatalog, d.Name)
		}
		seen[d.Name] = true
	}
	years := map[int]bool{}
	for _, y := range c.Years {
		if years[y.Year] {
			return fmt.Errorf("%w: year %d listed twice", ErrInvalidCatalog, y.Year)
		}
		years[y.Year] = true
		races := map[string]bool{}
		for _, r := range y.Statewide {
			if r.Key == "" || r.Office == "" {
				return fmt.Errorf("%w: %d statewide race needs key and office", ErrInvalidCatalog, y.Year)
			}
			if races[r.Key] {
				return fmt.Errorf("%w: %d race %s listed twice", ErrInvalidCatalog, y.Year, r.Key)
			}
			races[r.Key] = true
		}
		for _, r := range y.Countywide {
			if races[r] {
				return fmt.Errorf("%w: %d race %s listed twice", ErrInvalidCatalog, y.Year, r)
			}
			races[r] = true
		}
		if len(y.Statewide) > 0 && (y.Columns.Office == "" || y.Columns.Votes == "") {
			return fmt.Errorf("%w: %d has statewide races but no column names", ErrInvalidCatalog, y.Year)
		}
	}
	m := c.Markers
	if m.Provisional == "" || m.Mask == "" || m.Democrat == "" || m.Republican == "" {
		return fmt.Errorf("%w: markers must all be set", ErrInvalidCatalog)
	}
	return nil
}
