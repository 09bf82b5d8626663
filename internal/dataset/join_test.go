package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeftJoinPreservesLeftRows(t *testing.T) {
	left := makeTable(t, []string{"Store", "Sales"},
		[]string{"1", "100"},
		[]string{"2", "200"},
		[]string{"3", "300"},
		[]string{"2", "250"})
	right := makeTable(t, []string{"Store", "State"},
		[]string{"1", "HE"},
		[]string{"2", "NW"})

	out, err := LeftJoin(left, right, []string{"Store"}, nil, "")
	require.NoError(t, err)

	assert.Equal(t, left.NumRows(), out.NumRows(), "left join must never drop or duplicate left rows")
	stores, err := out.Column("Store")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "2"}, stores, "row order must be preserved")

	states, err := out.Column("State")
	require.NoError(t, err)
	assert.Equal(t, []string{"HE", "NW", Missing, "NW"}, states, "unmatched rows get missing values")
}

func TestLeftJoinCollisionPolicy(t *testing.T) {
	left := makeTable(t, []string{"Store", "Events"}, []string{"1", "left-events"})
	right := makeTable(t, []string{"Store", "Events", "Temp"}, []string{"1", "right-events", "21"})

	t.Run("no suffix drops the right column", func(t *testing.T) {
		// Silent by design of the source pipeline: the right table's
		// duplicate-named column vanishes without a trace, which can
		// mask genuine data-quality issues between auxiliary tables.
		out, err := LeftJoin(left, right, []string{"Store"}, nil, "")
		require.NoError(t, err)

		assert.Equal(t, []string{"Store", "Events", "Temp"}, out.Columns())
		v, err := out.Value(0, "Events")
		require.NoError(t, err)
		assert.Equal(t, "left-events", v, "left value wins on collision")
	})

	t.Run("suffix keeps both columns", func(t *testing.T) {
		out, err := LeftJoin(left, right, []string{"Store"}, nil, "_DE")
		require.NoError(t, err)

		assert.Equal(t, []string{"Store", "Events", "Events_DE", "Temp"}, out.Columns())
		v, err := out.Value(0, "Events_DE")
		require.NoError(t, err)
		assert.Equal(t, "right-events", v)
	})
}

func TestLeftJoinCompositeKeysAndRightKeys(t *testing.T) {
	left := makeTable(t, []string{"State", "Year", "Week", "Sales"},
		[]string{"HE", "2014", "1", "100"},
		[]string{"NW", "2014", "1", "200"})
	right := makeTable(t, []string{"Region", "Yr", "Wk", "trend"},
		[]string{"HE", "2014", "1", "85"})

	out, err := LeftJoin(left, right,
		[]string{"State", "Year", "Week"},
		[]string{"Region", "Yr", "Wk"}, "")
	require.NoError(t, err)

	trend, err := out.Column("trend")
	require.NoError(t, err)
	assert.Equal(t, []string{"85", Missing}, trend)
}

func TestLeftJoinDuplicateRightKeysCollapse(t *testing.T) {
	// Auxiliary tables are assumed unique on their join key. When they
	// are not, the first match wins instead of multiplying left rows.
	left := makeTable(t, []string{"Store"}, []string{"1"})
	right := makeTable(t, []string{"Store", "State"},
		[]string{"1", "first"},
		[]string{"1", "second"})

	out, err := LeftJoin(left, right, []string{"Store"}, nil, "")
	require.NoError(t, err)

	assert.Equal(t, 1, out.NumRows())
	v, err := out.Value(0, "State")
	require.NoError(t, err)
	assert.Equal(t, "first", v)
}

func TestLeftJoinErrors(t *testing.T) {
	left := makeTable(t, []string{"A"}, []string{"1"})
	right := makeTable(t, []string{"B"}, []string{"1"})

	_, err := LeftJoin(left, right, []string{"A"}, nil, "")
	assert.Error(t, err, "missing right key column")

	_, err = LeftJoin(left, right, []string{"missing"}, []string{"B"}, "")
	assert.Error(t, err, "missing left key column")

	_, err = LeftJoin(left, right, nil, nil, "")
	assert.Error(t, err, "empty key list")

	_, err = LeftJoin(left, right, []string{"A"}, []string{"B", "B"}, "")
	assert.Error(t, err, "key count mismatch")
}
