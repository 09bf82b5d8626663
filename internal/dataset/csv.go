package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReadCSV loads a delimited text file into a table. The first row is the
// header. A UTF-8 BOM on the first header cell is stripped so files written
// for Excel round-trip cleanly.
func ReadCSV(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read CSV records: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty CSV file: %s", path)
	}

	header := records[0]
	header[0] = strings.TrimPrefix(header[0], "\uFEFF")

	table, err := NewTable(header)
	if err != nil {
		return nil, fmt.Errorf("header of %s: %w", filepath.Base(path), err)
	}
	table.rows = make([][]string, 0, len(records)-1)
	for _, record := range records[1:] {
		table.rows = append(table.rows, record)
	}
	return table, nil
}

// Read loads a table from path, choosing the format by file extension.
// Supported extensions are .csv and .xlsx.
func Read(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(path)
	case ".xlsx":
		return ReadXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported table format: %s", path)
	}
}
