package pipeline

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BR-Research/NVTabular/internal/config"
	"github.com/BR-Research/NVTabular/internal/dataset"
)

// writeRossmannFixture writes a small but complete seven-table dataset:
// two stores in different states, five training days of which three rows
// carry zero sales, and a two-row test table on a later date that has no
// matching search-trend week.
func writeRossmannFixture(t *testing.T, dir string) {
	t.Helper()

	writeFixtureCSV(t, dir, "train.csv",
		"Store,DayOfWeek,Date,Sales,Customers,Open,Promo,StateHoliday,SchoolHoliday\n"+
			"1,3,2014-01-01,0,0,0,0,a,1\n"+
			"1,4,2014-01-02,5530,668,1,1,0,1\n"+
			"1,5,2014-01-03,4327,578,1,1,0,1\n"+
			"1,6,2014-01-04,4486,619,1,0,0,0\n"+
			"1,7,2014-01-05,0,0,0,0,0,0\n"+
			"2,3,2014-01-01,0,0,0,0,a,1\n"+
			"2,4,2014-01-02,6064,625,1,1,0,1\n"+
			"2,5,2014-01-03,5012,580,1,1,0,1\n"+
			"2,6,2014-01-04,4888,600,1,0,0,0\n"+
			"2,7,2014-01-05,4231,480,1,0,0,0\n")

	writeFixtureCSV(t, dir, "test.csv",
		"Id,Store,DayOfWeek,Date,Open,Promo,StateHoliday,SchoolHoliday\n"+
			"1,1,1,2014-01-06,1,1,0,0\n"+
			"2,2,1,2014-01-06,1,1,0,0\n")

	writeFixtureCSV(t, dir, "store.csv",
		"Store,StoreType,Assortment,CompetitionDistance,CompetitionOpenSinceMonth,CompetitionOpenSinceYear,Promo2,Promo2SinceWeek,Promo2SinceYear,PromoInterval\n"+
			"1,c,a,1270,9,2008,0,,,\n"+
			"2,a,c,570,,,1,14,2011,\"Jan,Apr,Jul,Oct\"\n")

	writeFixtureCSV(t, dir, "store_states.csv",
		"Store,State\n1,HE\n2,\"HB,NI\"\n")

	writeFixtureCSV(t, dir, "state_names.csv",
		"StateName,State\nHessen,HE\nNiedersachsen,\"HB,NI\"\n")

	// The week starting 2014-01-05 is ISO week 1 of 2014, matching every
	// training date; the test date 2014-01-06 falls in week 2 and has no
	// trend record.
	writeFixtureCSV(t, dir, "googletrend.csv",
		"file,week,trend\n"+
			"Rossmann_DE_HE,2014-01-05 - 2014-01-11,85\n"+
			"Rossmann_DE_NI,2014-01-05 - 2014-01-11,80\n"+
			"Rossmann_DE,2014-01-05 - 2014-01-11,88\n")

	weather := "file,Date,Max_TemperatureC,Mean_TemperatureC,Min_TemperatureC,Events\n"
	for _, day := range []string{"01", "02", "03", "04", "05", "06"} {
		weather += "Hessen,2014-01-" + day + ",7,4,1,Rain\n"
		weather += "Niedersachsen,2014-01-" + day + ",6,3,0,\n"
	}
	writeFixtureCSV(t, dir, "weather.csv", weather)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func readOutput(t *testing.T, path string) *dataset.Table {
	t.Helper()
	out, err := dataset.ReadCSV(path)
	require.NoError(t, err)
	return out
}

// findRow returns the index of the first row matching the given column
// values, or -1.
func findRow(t *testing.T, table *dataset.Table, want map[string]string) int {
	t.Helper()
	for r := 0; r < table.NumRows(); r++ {
		match := true
		for col, v := range want {
			got, err := table.Value(r, col)
			require.NoError(t, err)
			if got != v {
				match = false
				break
			}
		}
		if match {
			return r
		}
	}
	return -1
}

func cell(t *testing.T, table *dataset.Table, row int, col string) string {
	t.Helper()
	v, err := table.Value(row, col)
	require.NoError(t, err)
	return v
}

func TestPipelineRun(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	writeRossmannFixture(t, inDir)

	cfg := config.Default()
	cfg.InputDir = inDir
	cfg.OutputDir = outDir

	p := New(cfg, discardLogger())
	require.NoError(t, p.Run(context.Background()))

	train := readOutput(t, filepath.Join(outDir, "train.csv"))
	valid := readOutput(t, filepath.Join(outDir, "valid.csv"))
	test := readOutput(t, filepath.Join(outDir, "test.csv"))

	// Ten training rows minus three zero-sales rows leaves seven; a 0.25
	// fraction holds out one trailing row.
	assert.Equal(t, 6, train.NumRows())
	assert.Equal(t, 1, valid.NumRows())
	assert.Equal(t, 2, test.NumRows())

	for _, out := range []*dataset.Table{train, valid} {
		sales, err := out.Column("Sales")
		require.NoError(t, err)
		assert.NotContains(t, sales, "0")
	}

	// The held-out row is the chronologically latest.
	assert.Equal(t, "2014-01-05", cell(t, valid, 0, "Date"))
	assert.Equal(t, "2", cell(t, valid, 0, "Store"))

	for _, col := range []string{
		"State", "trend", "trend_DE",
		"Max_TemperatureC", "Events",
		"Year", "Month", "Week", "Day",
		"CompetitionOpenSince", "CompetitionDaysOpen", "CompetitionMonthsOpen",
		"Promo2Since", "Promo2Days", "Promo2Weeks",
		"AfterSchoolHoliday", "BeforeSchoolHoliday",
		"AfterStateHoliday", "BeforeStateHoliday",
		"AfterPromo", "BeforePromo",
		"SchoolHoliday_bw", "SchoolHoliday_fw",
		"StateHoliday_bw", "StateHoliday_fw",
		"Promo_bw", "Promo_fw",
	} {
		assert.True(t, train.HasColumn(col), "train missing column %s", col)
		assert.True(t, test.HasColumn(col), "test missing column %s", col)
	}
	assert.True(t, test.HasColumn("Id"))
	assert.False(t, train.HasColumn("Id"))

	r := findRow(t, train, map[string]string{"Store": "1", "Date": "2014-01-02"})
	require.GreaterOrEqual(t, r, 0)
	assert.Equal(t, "HE", cell(t, train, r, "State"))
	assert.Equal(t, "85", cell(t, train, r, "trend"))
	assert.Equal(t, "88", cell(t, train, r, "trend_DE"))
	assert.Equal(t, "Rain", cell(t, train, r, "Events"))
	assert.Equal(t, "7", cell(t, train, r, "Max_TemperatureC"))
	assert.Equal(t, "false", cell(t, train, r, "StateHoliday"))
	assert.Equal(t, "2008-09-15", cell(t, train, r, "CompetitionOpenSince"))
	assert.Equal(t, "24", cell(t, train, r, "CompetitionMonthsOpen"))
	// Store 1 never runs the extended promotion; the sentinel year zeroes
	// the duration.
	assert.Equal(t, "0", cell(t, train, r, "Promo2Weeks"))

	r = findRow(t, train, map[string]string{"Store": "2", "Date": "2014-01-02"})
	require.GreaterOrEqual(t, r, 0)
	assert.Equal(t, "HB,NI", cell(t, train, r, "State"))
	assert.Equal(t, "80", cell(t, train, r, "trend"))
	assert.Equal(t, "88", cell(t, train, r, "trend_DE"))
	assert.Equal(t, "2011-04-09", cell(t, train, r, "Promo2Since"))
	assert.Equal(t, "25", cell(t, train, r, "Promo2Weeks"))

	// Store 1 runs a promo on Jan 2 and 3; by Jan 4 the last promo day
	// is one day back.
	r = findRow(t, train, map[string]string{"Store": "1", "Date": "2014-01-04"})
	require.GreaterOrEqual(t, r, 0)
	assert.Equal(t, "1", cell(t, train, r, "AfterPromo"))

	// The test date has no matching trend week; the left join leaves the
	// trend columns empty.
	assert.Equal(t, dataset.Missing, cell(t, test, 0, "trend"))
	assert.Equal(t, dataset.Missing, cell(t, test, 0, "trend_DE"))
	assert.Equal(t, "7", cell(t, test, 0, "Max_TemperatureC"))
}

func TestPipelineRunMissingInput(t *testing.T) {
	cfg := config.Default()
	cfg.InputDir = filepath.Join(t.TempDir(), "absent")
	cfg.OutputDir = t.TempDir()

	err := New(cfg, discardLogger()).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stage load")
}

func TestPipelineRunCancelled(t *testing.T) {
	inDir := t.TempDir()
	writeRossmannFixture(t, inDir)

	cfg := config.Default()
	cfg.InputDir = inDir
	cfg.OutputDir = t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(cfg, discardLogger()).Run(ctx)
	assert.Error(t, err)
}
