package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/EmpoweredVote/district-results/internal/config"
	"github.com/EmpoweredVote/district-results/internal/logger"
	"github.com/EmpoweredVote/district-results/internal/precinct"
	"github.com/EmpoweredVote/district-results/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statewide = `County,Precinct,Office,Candidate,Party,Votes
El Paso,5091421021,State Treasurer,Dave Young,DEM,300
El Paso,5091421021,State Treasurer,Lang Sias,REP,100
El Paso,5091421022,State Treasurer,Dave Young,DEM,10
El Paso,5091421022,State Treasurer,Lang Sias,REP,30
Denver,1010216001,State Treasurer,Dave Young,DEM,500
Denver,1010216001,State Treasurer,Lang Sias,REP,500
Denver,1010216001,Governor/Lieutenant Governor,Jared Polis,DEM,600
Denver,1010216001,Amendment D,Yes,,99
`

const assessor = `Precinct,Jane Roe (DEM),John Doe (REP)
5091421021,40,60
5091421022,****,25
`

const districtBlocks = `BLOCK,DISTRICT
B21,3
B22,4
`

const precinctBlocks = `BLOCK,PRECINCT
B21,21
B22,22
`

type fixture struct {
	dir  string
	plan config.Plan
}

func write(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	return fixture{
		dir: dir,
		plan: config.Plan{
			Name:                    "2021_final",
			Year:                    2022,
			StatewideResults:        write(t, dir, "statewide.csv", statewide),
			DistrictBlockAssignment: write(t, dir, "district_blocks.csv", districtBlocks),
			PrecinctBlockAssignment: write(t, dir, "precinct_blocks.csv", precinctBlocks),
			CountywideResults: []config.CountywideSource{
				{Race: "assessor", Path: write(t, dir, "assessor.csv", assessor), County: "El Paso"},
			},
			DistrictTypes: []string{"us_house", "elpaso_commissioner"},
			OutputDir:     filepath.Join(dir, "out"),
			Locale:        "en-US",
		},
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func lines(t *testing.T, path string) []string {
	t.Helper()
	return strings.Split(strings.TrimSpace(readFile(t, path)), "\n")
}

type recorder struct {
	mu   sync.Mutex
	runs []store.RunRecord
}

func (r *recorder) SaveRun(_ context.Context, rec store.RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, rec)
	return nil
}

func TestRun(t *testing.T) {
	f := newFixture(t)
	rec := &recorder{}

	sum, err := Run(context.Background(), Options{
		Catalog:  config.DefaultCatalog(),
		Plan:     f.plan,
		Logger:   logger.Discard(),
		Recorder: rec,
	})
	require.NoError(t, err)

	assert.Equal(t, 8, sum.Statewide.Rows)
	assert.Equal(t, 1, sum.Statewide.Skipped)
	assert.Equal(t, 2, sum.Countywide["assessor"].Rows)
	assert.Zero(t, sum.Misses())

	out := filepath.Join(f.dir, "out", "2021_final")

	// 5 statewide races + 1 countywide race, 2 district types,
	// then statewide and countywide index per type.
	assert.Len(t, sum.Files, 6*2+2*2)
	for _, p := range sum.Files {
		assert.FileExists(t, p)
	}

	commissioner := lines(t, filepath.Join(out, "2022_state_treasurer_by_elpaso_commissioner.csv"))
	require.Len(t, commissioner, 6)
	assert.Equal(t, "district,counties,democrat,republican,other", commissioner[0])
	assert.Equal(t, "3,El Paso,300,100,0", commissioner[3])
	assert.Equal(t, "4,El Paso,10,30,0", commissioner[4])
	assert.Equal(t, "1,,0,0,0", commissioner[1])

	house := lines(t, filepath.Join(out, "2022_state_treasurer_by_us_house.csv"))
	assert.Equal(t, "1,Denver,500,500,0", house[1])
	assert.Equal(t, "5,El Paso,310,130,0", house[5])

	// The masked count contributes nothing; 25 is a real count.
	county := lines(t, filepath.Join(out, "2022_assessor_by_elpaso_commissioner.csv"))
	assert.Equal(t, "3,El Paso,40,60,0", county[3])
	assert.Equal(t, "4,El Paso,0,25,0", county[4])

	index := lines(t, filepath.Join(out, "2022_statewide_partisan_index_by_elpaso_commissioner.csv"))
	assert.Equal(t, "district,state_treasurer,attorney_general,boe_at_large,partisan_index", index[0])
	assert.Equal(t, "3,-0.5,0,0,-0.16666666666666666", index[3])

	cindex := lines(t, filepath.Join(out, "2022_countywide_partisan_index_by_elpaso_commissioner.csv"))
	assert.Equal(t, "district,assessor,partisan_index", cindex[0])
	assert.Equal(t, "4,1,1", cindex[4])

	require.Len(t, rec.runs, 1)
	got := rec.runs[0]
	assert.Equal(t, "2021_final", got.Plan)
	assert.Equal(t, 2022, got.Year)
	assert.Len(t, got.InputDigest, 64)
	assert.Len(t, got.Indexes, 4)
	assert.Equal(t, 10, got.Rows)
}

func TestRun_WithoutCountywide(t *testing.T) {
	f := newFixture(t)
	f.plan.CountywideResults = nil
	f.plan.DistrictTypes = []string{"co_house"}
	// No filtered type selected, so the lookup files are never opened.
	f.plan.DistrictBlockAssignment = filepath.Join(f.dir, "missing.csv")

	sum, err := Run(context.Background(), Options{
		Catalog: config.DefaultCatalog(),
		Plan:    f.plan,
		Logger:  logger.Discard(),
	})
	require.NoError(t, err)
	assert.Len(t, sum.Files, 5+1)
	assert.NoFileExists(t, filepath.Join(f.dir, "out", "2021_final", "2022_countywide_partisan_index_by_co_house.csv"))
}

func TestRun_YearWithoutDownBallotRaces(t *testing.T) {
	f := newFixture(t)
	f.plan.Year = 2020
	f.plan.CountywideResults = nil
	f.plan.DistrictTypes = []string{"us_house"}
	f.plan.StatewideResults = write(t, f.dir, "2020.csv", `County,Precinct,Office/Issue/Judgeship,Candidate,Party,Candidate Votes
Denver,1010216001,President/Vice President,Joseph R. Biden,Democratic Party,900
Denver,1010216001,President/Vice President,Donald J. Trump,Republican Party,100
`)
	var buf bytes.Buffer
	sum, err := Run(context.Background(), Options{
		Catalog: config.DefaultCatalog(),
		Plan:    f.plan,
		Logger:  logger.NewWithWriter(&buf, false),
	})
	require.NoError(t, err)

	out := filepath.Join(f.dir, "out", "2021_final")
	// Tallies for us_president and us_senator only.
	assert.Len(t, sum.Files, 2)
	assert.Equal(t, "1,Denver,900,100,0", lines(t, filepath.Join(out, "2020_us_president_by_us_house.csv"))[1])
	assert.NoFileExists(t, filepath.Join(out, "2020_statewide_partisan_index_by_us_house.csv"))
	assert.Contains(t, buf.String(), "skipping partisan index")
}

func TestRun_UnrecognizedPrecinctIsFatal(t *testing.T) {
	f := newFixture(t)
	f.plan.StatewideResults = write(t, f.dir, "bad.csv", `County,Precinct,Office,Candidate,Party,Votes
Denver,12AB,State Treasurer,Dave Young,DEM,1
`)
	_, err := Run(context.Background(), Options{
		Catalog: config.DefaultCatalog(),
		Plan:    f.plan,
		Logger:  logger.Discard(),
	})
	require.ErrorIs(t, err, precinct.ErrUnrecognizedCode)
	assert.Contains(t, err.Error(), "line 2")
}

func TestRun_ProvisionalWithoutOverrides(t *testing.T) {
	f := newFixture(t)
	f.plan.StatewideResults = write(t, f.dir, "prov.csv", `County,Precinct,Office,Candidate,Party,Votes
Larimer,Provisional,State Treasurer,Dave Young,DEM,1
`)
	_, err := Run(context.Background(), Options{
		Catalog: config.DefaultCatalog(),
		Plan:    f.plan,
		Logger:  logger.Discard(),
	})
	require.ErrorIs(t, err, precinct.ErrProvisionalUnsupported)
}

func TestRun_MissesAreCounted(t *testing.T) {
	f := newFixture(t)
	f.plan.CountywideResults = nil
	f.plan.StatewideResults = write(t, f.dir, "miss.csv", `County,Precinct,Office,Candidate,Party,Votes
El Paso,5091421999,State Treasurer,Dave Young,DEM,7
`)
	sum, err := Run(context.Background(), Options{
		Catalog: config.DefaultCatalog(),
		Plan:    f.plan,
		Logger:  logger.Discard(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Misses())

	// The row still counts toward the districts that did resolve.
	house := lines(t, filepath.Join(f.dir, "out", "2021_final", "2022_state_treasurer_by_us_house.csv"))
	assert.Equal(t, "5,El Paso,7,0,0", house[5])
}

func TestRun_Cancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, Options{
		Catalog: config.DefaultCatalog(),
		Plan:    f.plan,
		Logger:  logger.Discard(),
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunAll(t *testing.T) {
	f := newFixture(t)
	second := f.plan
	second.Name = "2011_final"
	rec := &recorder{}

	sums, err := RunAll(context.Background(), config.DefaultCatalog(),
		[]config.Plan{f.plan, second}, 2, logger.Discard(), rec)
	require.NoError(t, err)
	require.Len(t, sums, 2)
	assert.Equal(t, "2021_final", sums[0].Plan)
	assert.Equal(t, "2011_final", sums[1].Plan)
	assert.Len(t, rec.runs, 2)

	assert.Equal(t,
		readFile(t, filepath.Join(f.dir, "out", "2021_final", "2022_assessor_by_us_house.csv")),
		readFile(t, filepath.Join(f.dir, "out", "2011_final", "2022_assessor_by_us_house.csv")))
}

func TestRunAll_FirstErrorWins(t *testing.T) {
	f := newFixture(t)
	bad := f.plan
	bad.Name = "broken"
	bad.StatewideResults = filepath.Join(f.dir, "nope.csv")

	_, err := RunAll(context.Background(), config.DefaultCatalog(),
		[]config.Plan{bad, f.plan}, 1, logger.Discard(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plan broken (2022)")
}
