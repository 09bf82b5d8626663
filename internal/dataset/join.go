package dataset

import (
	"fmt"
	"strings"
)

// keySep separates key parts when building composite lookup keys. It is a
// control character that cannot appear in the source data.
const keySep = "\x1f"

// LeftJoin joins right onto left by the given key columns, keeping every
// left row in its original order. rightKeys names the key columns on the
// right side; if nil, the left key names are used. Every non-key column of
// right is appended to the result. When a right column name collides with
// an existing left column, the right column is dropped if suffix is empty
// (left value wins), or kept under name+suffix otherwise. Left rows with
// no match get Missing for all appended columns.
//
// If the right table holds several rows for the same key, the first one
// wins. Auxiliary tables are expected to be unique on their join key, so a
// duplicate is collapsed rather than multiplying left rows.
func LeftJoin(left, right *Table, keys []string, rightKeys []string, suffix string) (*Table, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("left join requires at least one key column")
	}
	if rightKeys == nil {
		rightKeys = keys
	}
	if len(rightKeys) != len(keys) {
		return nil, fmt.Errorf("left join key count mismatch: %d left, %d right", len(keys), len(rightKeys))
	}

	leftKeyIdx := make([]int, len(keys))
	for n, k := range keys {
		i, err := left.ColumnIndex(k)
		if err != nil {
			return nil, fmt.Errorf("left table: %w", err)
		}
		leftKeyIdx[n] = i
	}
	rightKeyIdx := make([]int, len(rightKeys))
	for n, k := range rightKeys {
		i, err := right.ColumnIndex(k)
		if err != nil {
			return nil, fmt.Errorf("right table: %w", err)
		}
		rightKeyIdx[n] = i
	}

	// Decide which right columns survive and under what name.
	var appendIdx []int
	var appendNames []string
	isRightKey := make(map[int]bool, len(rightKeyIdx))
	for _, i := range rightKeyIdx {
		isRightKey[i] = true
	}
	for i, name := range right.cols {
		if isRightKey[i] {
			continue
		}
		if left.HasColumn(name) {
			if suffix == "" {
				continue // drop on collision, left value wins
			}
			name = name + suffix
			if left.HasColumn(name) {
				return nil, fmt.Errorf("suffixed column still collides: %s", name)
			}
		}
		appendIdx = append(appendIdx, i)
		appendNames = append(appendNames, name)
	}

	// Index the right table by composite key, first match wins.
	lookup := make(map[string][]string, right.NumRows())
	for _, row := range right.rows {
		var sb strings.Builder
		for n, i := range rightKeyIdx {
			if n > 0 {
				sb.WriteString(keySep)
			}
			sb.WriteString(row[i])
		}
		key := sb.String()
		if _, seen := lookup[key]; !seen {
			lookup[key] = row
		}
	}

	out, err := NewTable(append(left.Columns(), appendNames...))
	if err != nil {
		return nil, err
	}
	out.rows = make([][]string, 0, left.NumRows())
	for _, row := range left.rows {
		var sb strings.Builder
		for n, i := range leftKeyIdx {
			if n > 0 {
				sb.WriteString(keySep)
			}
			sb.WriteString(row[i])
		}
		cells := make([]string, 0, len(left.cols)+len(appendIdx))
		cells = append(cells, row...)
		if match, ok := lookup[sb.String()]; ok {
			for _, i := range appendIdx {
				cells = append(cells, match[i])
			}
		} else {
			for range appendIdx {
				cells = append(cells, Missing)
			}
		}
		out.rows = append(out.rows, cells)
	}
	return out, nil
}
