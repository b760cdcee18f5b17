// Package precinct decodes Secretary of State precinct numbers into the
// districts a precinct belongs to.
package precinct

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/EmpoweredVote/district-results/internal/config"
)

var (
	ErrUnrecognizedCode       = errors.New("unrecognized precinct code")
	ErrProvisionalUnsupported = errors.New("provisional precincts not supported")
)

var codeRe = regexp.MustCompile(`^(\d{1})(\d{2})(\d{2})(\d{2})(\d{3})$`)

// Code is a parsed ten digit precinct number.
type Code struct {
	Congressional int
	Senate        int
	House         int
	County        int
	// Sequence is the precinct's number within its county.
	Sequence int
}

func ParseCode(s string) (Code, bool) {
	m := codeRe.FindStringSubmatch(s)
	if m == nil {
		return Code{}, false
	}
	var g [5]int
	for i := range g {
		// The pattern guarantees digits.
		g[i], _ = strconv.Atoi(m[i+1])
	}
	return Code{Congressional: g[0], Senate: g[1], House: g[2], County: g[3], Sequence: g[4]}, true
}

func (c Code) group(g config.Group) int {
	i, ok := g.Index()
	if !ok {
		return 0
	}
	return [...]int{c.Congressional, c.Senate, c.House, c.County}[i]
}

type MissKind string

const (
	MissPrecinct    MissKind = "precinct"
	MissBlock       MissKind = "block"
	MissProvisional MissKind = "provisional"
)

// Miss records a lookup that failed for one district type. The district
// type is left unassigned for the row; the run goes on.
type Miss struct {
	DistrictType string
	Kind         MissKind
	Key          string
}

func (m Miss) String() string {
	return fmt.Sprintf("%s: no %s entry for %s", m.DistrictType, m.Kind, m.Key)
}

// Result holds the district per type. A type missing from Districts is
// unassigned: outside the filtered county, or a lookup miss.
type Result struct {
	Districts map[string]int
	Misses    []Miss
}

func (r Result) District(districtType string) (int, bool) {
	n, ok := r.Districts[districtType]
	return n, ok
}

// Lookups resolve county-filtered district types: in-county precinct
// sequence to a representative block, then block to district.
type Lookups struct {
	PrecinctBlocks map[int]string
	BlockDistricts map[string]int
}

type Options struct {
	DistrictTypes     []config.DistrictType
	Lookups           Lookups
	ProvisionalMarker string
	// Provisional maps county name to district type to district. Nil means
	// provisional precincts are an error for this run.
	Provisional map[string]map[string]int
}

// Decoder is immutable once built and safe to share.
type Decoder struct {
	types       []config.DistrictType
	lookups     Lookups
	marker      string
	provisional map[string]map[string]int
}

func NewDecoder(opts Options) *Decoder {
	return &Decoder{
		types:       opts.DistrictTypes,
		lookups:     opts.Lookups,
		marker:      opts.ProvisionalMarker,
		provisional: opts.Provisional,
	}
}

// Decode maps a precinct code to its districts. county is the row's county
// name and is only consulted for provisional precincts.
func (d *Decoder) Decode(code, county string) (Result, error) {
	if c, ok := ParseCode(code); ok {
		return d.decodeCode(code, c), nil
	}
	if d.marker != "" && code == d.marker {
		return d.decodeProvisional(county)
	}
	return Result{}, fmt.Errorf("%w: %q", ErrUnrecognizedCode, code)
}

func (d *Decoder) decodeCode(raw string, c Code) Result {
	res := Result{Districts: make(map[string]int, len(d.types))}
	for _, dt := range d.types {
		if !dt.Filtered() {
			res.Districts[dt.Name] = c.group(dt.Group)
			continue
		}
		if c.group(dt.Group) != dt.CountyNumber {
			continue
		}
		block, ok := d.lookups.PrecinctBlocks[c.Sequence]
		if !ok {
			res.Misses = append(res.Misses, Miss{DistrictType: dt.Name, Kind: MissPrecinct, Key: fmt.Sprintf("%d (%s)", c.Sequence, raw)})
			continue
		}
		district, ok := d.lookups.BlockDistricts[block]
		if !ok {
			res.Misses = append(res.Misses, Miss{DistrictType: dt.Name, Kind: MissBlock, Key: fmt.Sprintf("%s (%s)", block, raw)})
			continue
		}
		res.Districts[dt.Name] = district
	}
	return res
}

func (d *Decoder) decodeProvisional(county string) (Result, error) {
	if d.provisional == nil {
		return Result{}, ErrProvisionalUnsupported
	}
	res := Result{Districts: make(map[string]int, len(d.types))}
	overrides := d.provisional[county]
	for _, dt := range d.types {
		if dt.Filtered() && county != dt.CountyName {
			continue
		}
		n, ok := overrides[dt.Name]
		if !ok {
			res.Misses = append(res.Misses, Miss{DistrictType: dt.Name, Kind: MissProvisional, Key: county})
			continue
		}
		res.Districts[dt.Name] = n
	}
	return res, nil
}
