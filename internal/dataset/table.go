package dataset

import (
	"fmt"
	"sort"
)

// Missing is the cell value used for unmatched join rows and absent fields.
const Missing = ""

// Table is an in-memory row-oriented table with named columns.
// Cells are stored as strings exactly as they appear in the source files;
// numeric and date interpretation happens at the point of use.
type Table struct {
	cols     []string
	colIndex map[string]int
	rows     [][]string
}

// NewTable creates an empty table with the given column names.
func NewTable(cols []string) (*Table, error) {
	index := make(map[string]int, len(cols))
	for i, c := range cols {
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("duplicate column name: %s", c)
		}
		index[c] = i
	}
	return &Table{
		cols:     append([]string(nil), cols...),
		colIndex: index,
		rows:     [][]string{},
	}, nil
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.cols...)
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int {
	return len(t.rows)
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int {
	return len(t.cols)
}

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.colIndex[name]
	return ok
}

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, error) {
	i, ok := t.colIndex[name]
	if !ok {
		return -1, fmt.Errorf("column not found: %s", name)
	}
	return i, nil
}

// Value returns the cell at (row, column name).
func (t *Table) Value(row int, name string) (string, error) {
	i, err := t.ColumnIndex(name)
	if err != nil {
		return "", err
	}
	if row < 0 || row >= len(t.rows) {
		return "", fmt.Errorf("row index out of range: %d", row)
	}
	return t.rows[row][i], nil
}

// SetValue overwrites the cell at (row, column name).
func (t *Table) SetValue(row int, name, value string) error {
	i, err := t.ColumnIndex(name)
	if err != nil {
		return err
	}
	if row < 0 || row >= len(t.rows) {
		return fmt.Errorf("row index out of range: %d", row)
	}
	t.rows[row][i] = value
	return nil
}

// Column returns a copy of the named column's values.
func (t *Table) Column(name string) ([]string, error) {
	i, err := t.ColumnIndex(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(t.rows))
	for r, row := range t.rows {
		out[r] = row[i]
	}
	return out, nil
}

// Row returns a copy of the row at the given index.
func (t *Table) Row(row int) []string {
	return append([]string(nil), t.rows[row]...)
}

// AppendRow adds a row to the table. The row length must match the
// column count.
func (t *Table) AppendRow(row []string) error {
	if len(row) != len(t.cols) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(row), len(t.cols))
	}
	t.rows = append(t.rows, append([]string(nil), row...))
	return nil
}

// AddColumn appends a new column with the given values. The value count
// must match the current row count.
func (t *Table) AddColumn(name string, values []string) error {
	if _, dup := t.colIndex[name]; dup {
		return fmt.Errorf("column already exists: %s", name)
	}
	if len(values) != len(t.rows) {
		return fmt.Errorf("column %s has %d values, table has %d rows", name, len(values), len(t.rows))
	}
	t.colIndex[name] = len(t.cols)
	t.cols = append(t.cols, name)
	for r := range t.rows {
		t.rows[r] = append(t.rows[r], values[r])
	}
	return nil
}

// DropColumn removes the named column.
func (t *Table) DropColumn(name string) error {
	i, err := t.ColumnIndex(name)
	if err != nil {
		return err
	}
	t.cols = append(t.cols[:i], t.cols[i+1:]...)
	delete(t.colIndex, name)
	for c := i; c < len(t.cols); c++ {
		t.colIndex[t.cols[c]] = c
	}
	for r := range t.rows {
		t.rows[r] = append(t.rows[r][:i], t.rows[r][i+1:]...)
	}
	return nil
}

// RenameColumn changes a column's name in place.
func (t *Table) RenameColumn(from, to string) error {
	i, err := t.ColumnIndex(from)
	if err != nil {
		return err
	}
	if _, dup := t.colIndex[to]; dup {
		return fmt.Errorf("column already exists: %s", to)
	}
	delete(t.colIndex, from)
	t.cols[i] = to
	t.colIndex[to] = i
	return nil
}

// Select returns a new table containing only the named columns, in the
// given order, with all rows preserved.
func (t *Table) Select(names []string) (*Table, error) {
	indices := make([]int, len(names))
	for n, name := range names {
		i, err := t.ColumnIndex(name)
		if err != nil {
			return nil, err
		}
		indices[n] = i
	}
	out, err := NewTable(names)
	if err != nil {
		return nil, err
	}
	out.rows = make([][]string, len(t.rows))
	for r, row := range t.rows {
		cells := make([]string, len(indices))
		for n, i := range indices {
			cells[n] = row[i]
		}
		out.rows[r] = cells
	}
	return out, nil
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{
		cols:     append([]string(nil), t.cols...),
		colIndex: make(map[string]int, len(t.colIndex)),
		rows:     make([][]string, len(t.rows)),
	}
	for k, v := range t.colIndex {
		out.colIndex[k] = v
	}
	for r, row := range t.rows {
		out.rows[r] = append([]string(nil), row...)
	}
	return out
}

// Append adds all rows of other to t. Both tables must have identical
// column sets in identical order.
func (t *Table) Append(other *Table) error {
	if len(t.cols) != len(other.cols) {
		return fmt.Errorf("column count mismatch: %d vs %d", len(t.cols), len(other.cols))
	}
	for i, c := range t.cols {
		if other.cols[i] != c {
			return fmt.Errorf("column mismatch at position %d: %s vs %s", i, c, other.cols[i])
		}
	}
	for _, row := range other.rows {
		t.rows = append(t.rows, append([]string(nil), row...))
	}
	return nil
}

// Filter returns a new table containing the rows for which keep returns
// true, preserving order.
func (t *Table) Filter(keep func(row int) bool) *Table {
	out := &Table{
		cols:     append([]string(nil), t.cols...),
		colIndex: make(map[string]int, len(t.colIndex)),
	}
	for k, v := range t.colIndex {
		out.colIndex[k] = v
	}
	for r := range t.rows {
		if keep(r) {
			out.rows = append(out.rows, append([]string(nil), t.rows[r]...))
		}
	}
	return out
}

// SortBy reorders rows by the given less function over row indices.
// The sort is stable so equal rows keep their input order.
func (t *Table) SortBy(less func(a, b int) bool) {
	perm := make([]int, len(t.rows))
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(i, j int) bool { return less(perm[i], perm[j]) })
	sorted := make([][]string, len(t.rows))
	for i, p := range perm {
		sorted[i] = t.rows[p]
	}
	t.rows = sorted
}

// Slice returns a new table with rows [from, to).
func (t *Table) Slice(from, to int) (*Table, error) {
	if from < 0 || to > len(t.rows) || from > to {
		return nil, fmt.Errorf("slice bounds out of range: [%d, %d) with %d rows", from, to, len(t.rows))
	}
	out := &Table{
		cols:     append([]string(nil), t.cols...),
		colIndex: make(map[string]int, len(t.colIndex)),
		rows:     make([][]string, 0, to-from),
	}
	for k, v := range t.colIndex {
		out.colIndex[k] = v
	}
	for r := from; r < to; r++ {
		out.rows = append(out.rows, append([]string(nil), t.rows[r]...))
	}
	return out, nil
}
