package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config is the complete pipeline configuration. It is passed explicitly
// into the pipeline entry point; nothing reads it from globals.
type Config struct {
	// InputDir holds the seven source tables (train, store, store_states,
	// state_names, googletrend, weather, test), each as .csv or .xlsx.
	InputDir string `yaml:"input_dir" envconfig:"INPUT_DATA_DIR" validate:"required"`
	// OutputDir receives train.csv, valid.csv and test.csv.
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DATA_DIR" validate:"required"`
	// ValidFrac is the trailing fraction of training rows, by count after
	// the zero-sales filter, held out as the validation set.
	ValidFrac float64 `yaml:"valid_frac" envconfig:"VALID_FRAC" validate:"gt=0,lt=1"`

	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// Default returns the documented default configuration.
func Default() Config {
	return Config{
		InputDir:  "/tmp/rossmann",
		OutputDir: "/data",
		ValidFrac: 0.25,
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/preprocess.log",
		},
	}
}

// Load builds the configuration in three layers: code defaults, then an
// optional YAML file, then ROSSMANN_* environment variables. Later layers
// win. The result is validated before being returned.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			if err := loadFromFile(configFile, &cfg); err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
		}
	}

	if err := envconfig.Process("ROSSMANN", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration against its struct tags. File-backed
// log outputs additionally need a file path; catching that here keeps the
// failure out of logger setup.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	out := c.Logging.Output
	if (out == "file" || out == "both") && c.Logging.FilePath == "" {
		return fmt.Errorf("logging file_path is required when logging output is %q", out)
	}
	return nil
}

// loadFromFile overlays non-empty YAML values onto cfg.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return err
	}

	if file.InputDir != "" {
		cfg.InputDir = file.InputDir
	}
	if file.OutputDir != "" {
		cfg.OutputDir = file.OutputDir
	}
	if file.ValidFrac != 0 {
		cfg.ValidFrac = file.ValidFrac
	}
	if file.Logging.Level != "" {
		cfg.Logging.Level = file.Logging.Level
	}
	if file.Logging.Format != "" {
		cfg.Logging.Format = file.Logging.Format
	}
	if file.Logging.Output != "" {
		cfg.Logging.Output = file.Logging.Output
	}
	if file.Logging.FilePath != "" {
		cfg.Logging.FilePath = file.Logging.FilePath
	}
	return nil
}
