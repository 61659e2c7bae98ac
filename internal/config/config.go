package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Converter ConverterConfig `yaml:"converter" envconfig:"CONVERTER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
}

// PipelineConfig contains cleaning pipeline configuration
type PipelineConfig struct {
	InputFile      string `yaml:"input_file" envconfig:"INPUT_FILE"`
	ZoneLookupFile string `yaml:"zone_lookup_file" envconfig:"ZONE_LOOKUP_FILE"`
	OutputFile     string `yaml:"output_file" envconfig:"OUTPUT_FILE" validate:"required"`
	SummaryFile    string `yaml:"summary_file" envconfig:"SUMMARY_FILE" validate:"required"`
	LedgerFile     string `yaml:"ledger_file" envconfig:"LEDGER_FILE" validate:"required"`
	ChunkSize      int    `yaml:"chunk_size" envconfig:"CHUNK_SIZE" validate:"min=1"`
}

// ConverterConfig contains CSV to Excel converter configuration
type ConverterConfig struct {
	SheetRowLimit int `yaml:"sheet_row_limit" envconfig:"SHEET_ROW_LIMIT" validate:"min=1,max=1048576"`
	ChunkSize     int `yaml:"chunk_size" envconfig:"CHUNK_SIZE" validate:"min=1"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// Default returns the configuration defaults. File and environment
// values are layered on top of these by Load.
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			OutputFile:  "cleaned_data.csv",
			SummaryFile: "cleaning_log.txt",
			LedgerFile:  "excluded_data_log.csv",
			ChunkSize:   100000,
		},
		Converter: ConverterConfig{
			SheetRowLimit: 1000000,
			ChunkSize:     100000,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "text",
			Output:   "console",
			FilePath: "logs/cleaner.log",
		},
	}
}

// Load loads configuration from the optional YAML config file and
// environment variables. Precedence: defaults < file < environment.
func Load() (*Config, error) {
	cfg := Default()

	configFile := configFilePath()
	if _, err := os.Stat(configFile); err == nil {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process("TAXI", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays configuration from a YAML file
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks the configuration against its struct constraints
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// configFilePath returns the config file location, overridable via
// TAXI_CONFIG_FILE.
func configFilePath() string {
	if path := os.Getenv("TAXI_CONFIG_FILE"); path != "" {
		return path
	}
	return "taxicli.yaml"
}
