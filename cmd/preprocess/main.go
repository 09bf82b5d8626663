// Command preprocess runs the Rossmann feature-engineering pipeline: it
// loads the seven source tables from the input directory, assembles the
// joined feature tables and writes train.csv, valid.csv and test.csv to
// the output directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/BR-Research/NVTabular/internal/config"
	"github.com/BR-Research/NVTabular/internal/infrastructure"
	"github.com/BR-Research/NVTabular/internal/pipeline"
	"github.com/BR-Research/NVTabular/pkg/contracts"
)

func main() {
	inDir := flag.String("in", "", "input directory with the source tables (overrides config)")
	outDir := flag.String("out", "", "output directory for train/valid/test CSV files (overrides config)")
	validFrac := flag.Float64("valid-frac", 0, "trailing fraction of training rows held out for validation (overrides config)")
	configFile := flag.String("config", "", "optional YAML config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	// A .env file in the working directory feeds the ROSSMANN_* variables
	// before the config is loaded. Missing file is fine.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *inDir != "" {
		cfg.InputDir = *inDir
	}
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}
	if *validFrac != 0 {
		cfg.ValidFrac = *validFrac
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := pipeline.New(*cfg, logger).Run(ctx); err != nil {
		logger.Error("pipeline failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("pipeline finished")
}
