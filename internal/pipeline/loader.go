package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/BR-Research/NVTabular/internal/dataset"
)

// Tables holds the seven source tables of the Rossmann dataset.
type Tables struct {
	Train       *dataset.Table
	Store       *dataset.Table
	StoreStates *dataset.Table
	StateNames  *dataset.Table
	Trend       *dataset.Table
	Weather     *dataset.Table
	Test        *dataset.Table
}

// tableExtensions are the supported source formats, tried in order.
var tableExtensions = []string{".csv", ".xlsx"}

// LoadTables reads the seven source tables from dir. Each table may be a
// .csv or .xlsx file; a missing table is a fatal error.
func LoadTables(dir string, logger *slog.Logger) (*Tables, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("input directory: %w", err)
	}

	load := func(name string) (*dataset.Table, error) {
		path, err := resolveTablePath(dir, name)
		if err != nil {
			return nil, err
		}
		t, err := dataset.Read(path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		logger.Info("loaded table",
			slog.String("table", name),
			slog.String("path", path),
			slog.Int("rows", t.NumRows()),
			slog.Int("columns", t.NumCols()))
		return t, nil
	}

	var tables Tables
	var err error
	if tables.Train, err = load("train"); err != nil {
		return nil, err
	}
	if tables.Store, err = load("store"); err != nil {
		return nil, err
	}
	if tables.StoreStates, err = load("store_states"); err != nil {
		return nil, err
	}
	if tables.StateNames, err = load("state_names"); err != nil {
		return nil, err
	}
	if tables.Trend, err = load("googletrend"); err != nil {
		return nil, err
	}
	if tables.Weather, err = load("weather"); err != nil {
		return nil, err
	}
	if tables.Test, err = load("test"); err != nil {
		return nil, err
	}
	return &tables, nil
}

// resolveTablePath finds the file backing a named table, preferring CSV
// over Excel when both are present.
func resolveTablePath(dir, name string) (string, error) {
	for _, ext := range tableExtensions {
		path := filepath.Join(dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("table %s not found in %s (tried %v)", name, dir, tableExtensions)
}
