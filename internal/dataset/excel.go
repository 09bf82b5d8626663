package dataset

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX loads the first sheet of an Excel workbook into a table. The
// first row is the header. Excel omits trailing empty cells, so short rows
// are padded with Missing up to the header width.
func ReadXLSX(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets: %s", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty sheet %s in %s", sheets[0], path)
	}

	table, err := NewTable(rows[0])
	if err != nil {
		return nil, fmt.Errorf("header of %s: %w", path, err)
	}
	width := len(rows[0])
	table.rows = make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cells := make([]string, width)
		copy(cells, row)
		if len(row) > width {
			return nil, fmt.Errorf("row wider than header in %s: %d cells", path, len(row))
		}
		table.rows = append(table.rows, cells)
	}
	return table, nil
}
