// Package pipeline assembles the Rossmann feature-engineering pipeline:
// load the seven source tables, left-join the auxiliary tables onto the
// sales and test transactions, derive date, competition, promotion and
// event-proximity features, and write the train/valid/test outputs.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/BR-Research/NVTabular/internal/config"
	"github.com/BR-Research/NVTabular/internal/dataset"
	"github.com/BR-Research/NVTabular/internal/exporter"
	"github.com/BR-Research/NVTabular/internal/features"
	"github.com/BR-Research/NVTabular/pkg/contracts/domain"
)

// eventColumns are the flag columns fed to the event-proximity deriver.
var eventColumns = []string{"SchoolHoliday", "StateHoliday", "Promo"}

// nationalTrendTag identifies the country-level records of the search
// trend table.
const nationalTrendTag = "Rossmann_DE"

// Pipeline runs the batch transform end to end. Construct with New and
// call Run once; the pipeline keeps no state between runs.
type Pipeline struct {
	cfg    config.Config
	logger *slog.Logger
	writer *exporter.CSVWriter
}

// New creates a pipeline with the given configuration.
func New(cfg config.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:    cfg,
		logger: logger,
		writer: exporter.NewCSVWriter(logger),
	}
}

// Run executes the full pipeline. Any failure aborts the run; there is no
// partial or checkpointed state.
func (p *Pipeline) Run(ctx context.Context) error {
	runID := uuid.NewString()
	logger := p.logger.With(slog.String("run_id", runID))

	logger.Info("starting feature engineering run",
		slog.String("input_dir", p.cfg.InputDir),
		slog.String("output_dir", p.cfg.OutputDir),
		slog.Float64("valid_frac", p.cfg.ValidFrac))

	var tables *Tables
	err := p.runStage(logger, "load", "Load source tables", func() error {
		var err error
		tables, err = LoadTables(p.cfg.InputDir, logger)
		return err
	})
	if err != nil {
		return err
	}

	err = p.runStage(logger, "normalize", "Normalize fields", func() error {
		return normalizeTables(tables)
	})
	if err != nil {
		return err
	}

	var train, test *dataset.Table
	err = p.runStage(logger, "join", "Join auxiliary tables", func() error {
		var err error
		train, test, err = assemble(tables)
		return err
	})
	if err != nil {
		return err
	}

	err = p.runStage(logger, "derive", "Derive date features", func() error {
		if err := features.AddCompetitionPromoFeatures(train); err != nil {
			return fmt.Errorf("train: %w", err)
		}
		if err := features.AddCompetitionPromoFeatures(test); err != nil {
			return fmt.Errorf("test: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	err = p.runStage(logger, "proximity", "Derive event proximity", func() error {
		var err error
		train, test, err = attachEventProximity(ctx, train, test)
		return err
	})
	if err != nil {
		return err
	}

	return p.runStage(logger, "write", "Split and write outputs", func() error {
		return p.splitAndWrite(train, test, logger)
	})
}

// runStage executes fn under a tracked stage state with duration logging.
func (p *Pipeline) runStage(logger *slog.Logger, id, name string, fn func() error) error {
	state := NewStageState(id, name)
	state.Start()
	logger.Info("stage started", slog.String("stage", id))

	if err := fn(); err != nil {
		state.Fail(err)
		logger.Error("stage failed",
			slog.String("stage", id),
			slog.Duration("duration", state.Duration()),
			slog.String("error", err.Error()))
		return fmt.Errorf("stage %s: %w", id, err)
	}

	state.Complete()
	logger.Info("stage completed",
		slog.String("stage", id),
		slog.Duration("duration", state.Duration()))
	return nil
}

// normalizeTables applies the field normalizer to every table that needs
// it: boolean StateHoliday on the transaction tables, trend date/state
// derivation, and calendar parts on each date-bearing table.
func normalizeTables(t *Tables) error {
	if err := features.NormalizeStateHoliday(t.Train); err != nil {
		return fmt.Errorf("train: %w", err)
	}
	if err := features.NormalizeStateHoliday(t.Test); err != nil {
		return fmt.Errorf("test: %w", err)
	}
	if err := features.PrepareTrend(t.Trend); err != nil {
		return fmt.Errorf("googletrend: %w", err)
	}
	for _, d := range []struct {
		name  string
		table *dataset.Table
	}{
		{"train", t.Train},
		{"test", t.Test},
		{"googletrend", t.Trend},
		{"weather", t.Weather},
	} {
		if err := features.AddDateParts(d.table, "Date"); err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
	}
	return nil
}

// assemble runs the join sequence for both transaction tables. Every join
// is left-preserving, so the train and test row counts never change.
func assemble(t *Tables) (train, test *dataset.Table, err error) {
	store, err := dataset.LeftJoin(t.Store, t.StoreStates, []string{"Store"}, nil, "")
	if err != nil {
		return nil, nil, fmt.Errorf("store+store_states: %w", err)
	}

	// Weather identifies its state by full name; resolve it to the
	// two-letter code before joining by (State, Date).
	weather, err := dataset.LeftJoin(t.Weather, t.StateNames, []string{"file"}, []string{"StateName"}, "")
	if err != nil {
		return nil, nil, fmt.Errorf("weather+state_names: %w", err)
	}

	trendFiles, err := t.Trend.Column("file")
	if err != nil {
		return nil, nil, fmt.Errorf("googletrend: %w", err)
	}
	trendDE := t.Trend.Filter(func(row int) bool {
		return trendFiles[row] == nationalTrendTag
	})

	joinAll := func(base *dataset.Table) (*dataset.Table, error) {
		joined, err := dataset.LeftJoin(base, store, []string{"Store"}, nil, "")
		if err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
		joined, err = dataset.LeftJoin(joined, t.Trend, []string{"State", "Year", "Week"}, nil, "")
		if err != nil {
			return nil, fmt.Errorf("googletrend: %w", err)
		}
		joined, err = dataset.LeftJoin(joined, trendDE, []string{"Year", "Week"}, nil, "_DE")
		if err != nil {
			return nil, fmt.Errorf("national googletrend: %w", err)
		}
		joined, err = dataset.LeftJoin(joined, weather, []string{"State", "Date"}, nil, "")
		if err != nil {
			return nil, fmt.Errorf("weather: %w", err)
		}
		return joined, nil
	}

	if train, err = joinAll(t.Train); err != nil {
		return nil, nil, fmt.Errorf("train: %w", err)
	}
	if test, err = joinAll(t.Test); err != nil {
		return nil, nil, fmt.Errorf("test: %w", err)
	}
	return train, test, nil
}

// attachEventProximity computes the event-proximity features over the
// union of train and test rows and joins them back onto each table by
// (Store, Date).
func attachEventProximity(ctx context.Context, train, test *dataset.Table) (*dataset.Table, *dataset.Table, error) {
	cols := append([]string{"Store", "Date"}, eventColumns...)
	union, err := train.Select(cols)
	if err != nil {
		return nil, nil, fmt.Errorf("train union columns: %w", err)
	}
	testPart, err := test.Select(cols)
	if err != nil {
		return nil, nil, fmt.Errorf("test union columns: %w", err)
	}
	if err := union.Append(testPart); err != nil {
		return nil, nil, fmt.Errorf("concat train and test: %w", err)
	}

	prox, err := features.EventProximity(ctx, union, eventColumns)
	if err != nil {
		return nil, nil, err
	}

	train, err = dataset.LeftJoin(train, prox, []string{"Store", "Date"}, nil, "")
	if err != nil {
		return nil, nil, fmt.Errorf("train proximity join: %w", err)
	}
	test, err = dataset.LeftJoin(test, prox, []string{"Store", "Date"}, nil, "")
	if err != nil {
		return nil, nil, fmt.Errorf("test proximity join: %w", err)
	}
	return train, test, nil
}

// checkModelSchema warns about declared model columns the assembled table
// does not carry. A source table with unexpected columns can silently
// shift the output schema; downstream training reads columns by name and
// treats absent ones as all-missing.
func checkModelSchema(t *dataset.Table, logger *slog.Logger) {
	declared := append([]string{domain.LabelColumn}, domain.CategoricalColumns...)
	declared = append(declared, domain.ContinuousColumns...)

	var missing []string
	for _, col := range declared {
		if !t.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		logger.Warn("assembled table is missing declared model columns",
			slog.Any("columns", missing))
	}
}

// splitAndWrite filters closed-store rows, sorts by date, carves off the
// trailing validation fraction and writes the three output files.
func (p *Pipeline) splitAndWrite(train, test *dataset.Table, logger *slog.Logger) error {
	sales, err := train.Column(domain.LabelColumn)
	if err != nil {
		return fmt.Errorf("training table: %w", err)
	}
	checkModelSchema(train, logger)

	kept := train.Filter(func(row int) bool {
		return sales[row] != "0" && sales[row] != dataset.Missing
	})
	logger.Info("filtered zero-sales rows",
		slog.Int("before", train.NumRows()),
		slog.Int("after", kept.NumRows()))

	// ISO dates sort chronologically as strings.
	dates, err := kept.Column("Date")
	if err != nil {
		return err
	}
	kept.SortBy(func(a, b int) bool {
		return dates[a] < dates[b]
	})

	n := kept.NumRows()
	validCount := int(float64(n) * p.cfg.ValidFrac)
	trainOut, err := kept.Slice(0, n-validCount)
	if err != nil {
		return err
	}
	validOut, err := kept.Slice(n-validCount, n)
	if err != nil {
		return err
	}
	logger.Info("split training rows",
		slog.Int("train_rows", trainOut.NumRows()),
		slog.Int("valid_rows", validOut.NumRows()),
		slog.Int("test_rows", test.NumRows()))

	if err := p.writer.WriteTable(filepath.Join(p.cfg.OutputDir, "train.csv"), trainOut); err != nil {
		return fmt.Errorf("write train: %w", err)
	}
	if err := p.writer.WriteTable(filepath.Join(p.cfg.OutputDir, "valid.csv"), validOut); err != nil {
		return fmt.Errorf("write valid: %w", err)
	}
	if err := p.writer.WriteTable(filepath.Join(p.cfg.OutputDir, "test.csv"), test); err != nil {
		return fmt.Errorf("write test: %w", err)
	}
	return nil
}
