package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"golang.org/x/text/language"
)

var (
	ErrInvalidPlan  = errors.New("invalid plan")
	ErrUnknownPlan  = errors.New("unknown plan")
	ErrUnknownRace  = errors.New("race not configured")
	ErrNoPlans      = errors.New("plans file lists no plans")
	ErrBadLocale    = errors.New("invalid locale")
	ErrDuplicateRun = errors.New("duplicate plan")
)

const (
	DefaultOutputDir = "election_data"
	DefaultLocale    = "en-US"
)

// CountywideSource is one per-race county results export. County is the
// single county the export covers; it becomes the tally's county list.
type CountywideSource struct {
	Race   string `yaml:"race"`
	Path   string `yaml:"path"`
	County string `yaml:"county"`
}

// Plan is one run: a year of results attributed to one redistricting plan.
// The plan name namespaces the output directory.
type Plan struct {
	Name                    string             `yaml:"name"`
	Year                    int                `yaml:"year"`
	StatewideResults        string             `yaml:"statewide_results"`
	CountywideResults       []CountywideSource `yaml:"countywide_results"`
	DistrictBlockAssignment string             `yaml:"district_block_assignment"`
	PrecinctBlockAssignment string             `yaml:"precinct_block_assignment"`
	DistrictTypes           []string           `yaml:"district_types"`
	OutputDir               string             `yaml:"output_dir"`
	Locale                  string             `yaml:"locale"`
}

// Dir is where this plan's files are written.
func (p Plan) Dir() string {
	return filepath.Join(p.OutputDir, p.Name)
}

func (p Plan) LanguageTag() (language.Tag, error) {
	tag, err := language.Parse(p.Locale)
	if err != nil {
		return language.Und, fmt.Errorf("%w %q: %v", ErrBadLocale, p.Locale, err)
	}
	return tag, nil
}

// Validate checks the plan against the catalog it will run with.
func (p Plan) Validate(c Catalog) error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPlan)
	}
	if p.StatewideResults == "" {
		return fmt.Errorf("%w %s: statewide_results is required", ErrInvalidPlan, p.Name)
	}
	y, err := c.Year(p.Year)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrInvalidPlan, p.Name, err)
	}
	if len(y.Statewide) == 0 {
		return fmt.Errorf("%w %s: no statewide races configured for %d", ErrInvalidPlan, p.Name, p.Year)
	}
	types, err := c.DistrictTypesNamed(p.DistrictTypes)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrInvalidPlan, p.Name, err)
	}
	for _, d := range types {
		if d.Filtered() && (p.DistrictBlockAssignment == "" || p.PrecinctBlockAssignment == "") {
			return fmt.Errorf("%w %s: district type %s needs district and precinct block assignment files", ErrInvalidPlan, p.Name, d.Name)
		}
	}
	seen := map[string]bool{}
	for _, src := range p.CountywideResults {
		if src.Path == "" || src.County == "" {
			return fmt.Errorf("%w %s: countywide race %s needs path and county", ErrInvalidPlan, p.Name, src.Race)
		}
		if !contains(y.Countywide, src.Race) {
			return fmt.Errorf("%w %s: %w: countywide %s in %d", ErrInvalidPlan, p.Name, ErrUnknownRace, src.Race, p.Year)
		}
		if seen[src.Race] {
			return fmt.Errorf("%w %s: countywide race %s listed twice", ErrInvalidPlan, p.Name, src.Race)
		}
		seen[src.Race] = true
	}
	if _, err := p.LanguageTag(); err != nil {
		return fmt.Errorf("%w %s: %w", ErrInvalidPlan, p.Name, err)
	}
	return nil
}

// File is the on-disk plans file.
type File struct {
	OutputDir string   `yaml:"output_dir"`
	Locale    string   `yaml:"locale"`
	Catalog   *Catalog `yaml:"catalog"`
	Plans     []Plan   `yaml:"plans"`
}

// Load reads a plans file, fills defaults and validates every plan. Without
// a catalog section the Colorado catalog is used.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plans file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse plans file: %w", err)
	}
	if f.Catalog == nil {
		c := DefaultCatalog()
		f.Catalog = &c
	}
	if err := f.Catalog.Validate(); err != nil {
		return nil, err
	}
	if f.OutputDir == "" {
		f.OutputDir = DefaultOutputDir
	}
	if f.Locale == "" {
		f.Locale = DefaultLocale
	}
	if len(f.Plans) == 0 {
		return nil, ErrNoPlans
	}
	names := map[string]bool{}
	for i := range f.Plans {
		p := &f.Plans[i]
		if p.OutputDir == "" {
			p.OutputDir = f.OutputDir
		}
		if p.Locale == "" {
			p.Locale = f.Locale
		}
		if err := p.Validate(*f.Catalog); err != nil {
			return nil, err
		}
		// Two runs of one plan and year would overwrite each other's files.
		key := fmt.Sprintf("%s/%d", p.Name, p.Year)
		if names[key] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRun, key)
		}
		names[key] = true
	}
	return &f, nil
}

// Select returns the named plans, or all plans when names is empty.
func (f *File) Select(names ...string) ([]Plan, error) {
	if len(names) == 0 {
		return f.Plans, nil
	}
	var out []Plan
	for _, n := range names {
		found := false
		for _, p := range f.Plans {
			if p.Name == n {
				out = append(out, p)
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPlan, n)
		}
	}
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
