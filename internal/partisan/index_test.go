package partisan

import (
	"bytes"
	"strings"
	"testing"

	"github.com/EmpoweredVote/district-results/internal/config"
	"github.com/EmpoweredVote/district-results/internal/results"
	"github.com/EmpoweredVote/district-results/internal/tabular"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLean(t *testing.T) {
	tests := []struct {
		name  string
		tally results.Tally
		want  float64
	}{
		{"no votes", results.Tally{}, 0},
		{"only third party", results.Tally{Other: 40}, 0},
		{"republican sweep", results.Tally{Republican: 10}, 1},
		{"democratic sweep", results.Tally{Democrat: 10}, -1},
		{"even", results.Tally{Democrat: 7, Republican: 7, Other: 100}, 0},
		{"lean r", results.Tally{Democrat: 25, Republican: 75}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Lean(tt.tally))
		})
	}
}

func commissionerTable(t *testing.T) (*results.Table, config.DistrictType) {
	t.Helper()
	dt, err := config.DefaultCatalog().DistrictType("elpaso_commissioner")
	require.NoError(t, err)
	table := results.NewTable([]string{"state_treasurer", "attorney_general"}, []config.DistrictType{dt})

	set := func(race string, n int, d, r int64) {
		c, err := table.Cell(race, dt.Name, n)
		require.NoError(t, err)
		c.Democrat, c.Republican = d, r
	}
	set("state_treasurer", 1, 25, 75)   // 0.5
	set("attorney_general", 1, 1000, 0) // -1, equal weight despite turnout
	set("state_treasurer", 2, 10, 10)   // 0
	return table, dt
}

func TestCompute(t *testing.T) {
	table, dt := commissionerTable(t)

	rows, err := Compute(table, dt, []string{"state_treasurer", "attorney_general"})
	require.NoError(t, err)
	require.Len(t, rows, 5)

	assert.Equal(t, Row{District: 1, Leans: []float64{0.5, -1}, Index: -0.25}, rows[0])
	assert.Equal(t, Row{District: 2, Leans: []float64{0, 0}, Index: 0}, rows[1])
	for _, r := range rows[2:] {
		assert.Zero(t, r.Index, "empty districts are defined, not NaN")
	}
}

func TestCompute_UnknownRace(t *testing.T) {
	table, dt := commissionerTable(t)
	_, err := Compute(table, dt, []string{"state_treasurer", "boe_at_large"})
	require.ErrorIs(t, err, ErrUnknownRace)
}

func TestCompute_NoRaces(t *testing.T) {
	table, dt := commissionerTable(t)
	rows, err := Compute(table, dt, nil)
	require.NoError(t, err)
	for _, r := range rows {
		assert.Zero(t, r.Index)
	}
}

func TestWrite(t *testing.T) {
	table, dt := commissionerTable(t)
	races := []string{"state_treasurer", "attorney_general"}
	rows, err := Compute(table, dt, races)
	require.NoError(t, err)

	var buf bytes.Buffer
	w := tabular.NewWriter(&buf)
	require.NoError(t, Write(w, races, rows[:2]))
	require.NoError(t, w.Close())

	want := strings.Join([]string{
		"district,state_treasurer,attorney_general,partisan_index",
		"1,0.5,-1,-0.25",
		"2,0,0,0",
	}, "\n") + "\n"
	assert.Equal(t, want, buf.String())
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "2022_countywide_partisan_index_by_elpaso_commissioner.csv",
		FileName(2022, "countywide", "elpaso_commissioner"))
}
