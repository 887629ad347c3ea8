package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"saebequity/internal/errors"
)

// EnvPrefix is prepended to every environment variable read by Load
const EnvPrefix = "SAEB"

// Config represents the complete application configuration.
// Leaf fields use split_words, not envconfig tags, so only SAEB_ variables are read.
type Config struct {
	Data     DataConfig     `yaml:"data" envconfig:"DATA"`
	Output   OutputConfig   `yaml:"output" envconfig:"OUTPUT"`
	Analysis AnalysisConfig `yaml:"analysis" envconfig:"ANALYSIS"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOG"`
	Charts   ChartsConfig   `yaml:"charts" envconfig:"CHARTS"`
}

// DataConfig holds input and synthetic-data settings
type DataConfig struct {
	File          string `yaml:"file" split_words:"true" default:"basededados.xlsx"`
	SyntheticRows int    `yaml:"synthetic_rows" split_words:"true" default:"10000" validate:"min=10"`
	ChartRows     int    `yaml:"chart_rows" split_words:"true" default:"5000" validate:"min=10"`
	Schools       int    `yaml:"schools" split_words:"true" default:"400" validate:"min=2"`
}

// OutputConfig holds file system paths for generated artifacts
type OutputConfig struct {
	Dir       string `yaml:"dir" split_words:"true" default:"reports" validate:"required"`
	ChartsDir string `yaml:"charts_dir" split_words:"true" default:"static_charts" validate:"required"`
}

// AnalysisConfig holds statistical settings
type AnalysisConfig struct {
	Seed int64 `yaml:"seed" split_words:"true" default:"42"`
}

// LoggingConfig holds log destination and verbosity
type LoggingConfig struct {
	Level string `yaml:"level" split_words:"true" default:"info" validate:"oneof=error warn warning info debug trace"`
	File  string `yaml:"file" split_words:"true" default:"analysis.log"`
}

// ChartsConfig holds rendering backend settings
type ChartsConfig struct {
	Interactive     bool          `yaml:"interactive" split_words:"true" default:"true"`
	Static          bool          `yaml:"static" split_words:"true" default:"true"`
	Snapshot        bool          `yaml:"snapshot" split_words:"true" default:"false"`
	SnapshotTimeout time.Duration `yaml:"snapshot_timeout" split_words:"true" default:"30s"`
	Workers         int           `yaml:"workers" split_words:"true" default:"4" validate:"min=1,max=32"`
	BrowserPath     string        `yaml:"browser_path" split_words:"true"`
}

// Load reads .env, the environment and an optional YAML file, then validates the result.
// Explicitly set environment variables take precedence over the file, and the file over defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(err, "failed to read .env file")
	}

	var envCfg Config
	if err := envconfig.Process(EnvPrefix, &envCfg); err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("failed to load config from env: %w", err))
	}

	cfg := envCfg
	if path := os.Getenv(EnvPrefix + "_CONFIG_FILE"); path != "" {
		fileCfg, err := loadFromFile(path)
		if err != nil {
			return nil, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("failed to load config file %s: %w", path, err))
		}
		cfg = mergeConfigs(*fileCfg, envCfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration produced by an empty environment
func Default() *Config {
	var cfg Config
	// No variable carries this prefix, so only default tags apply and they always parse.
	_ = envconfig.Process("SAEB_DEFAULTS_ONLY", &cfg)
	return &cfg
}

// Validate checks struct constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("configuration validation failed: %w", err))
	}
	return nil
}

// loadFromFile decodes path over the defaults so keys the file omits keep their default value
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeConfigs copies every explicitly set environment value over the file config
func mergeConfigs(file, env Config) Config {
	out := file

	override(&out.Data.File, env.Data.File, "DATA_FILE")
	override(&out.Data.SyntheticRows, env.Data.SyntheticRows, "DATA_SYNTHETIC_ROWS")
	override(&out.Data.ChartRows, env.Data.ChartRows, "DATA_CHART_ROWS")
	override(&out.Data.Schools, env.Data.Schools, "DATA_SCHOOLS")

	override(&out.Output.Dir, env.Output.Dir, "OUTPUT_DIR")
	override(&out.Output.ChartsDir, env.Output.ChartsDir, "OUTPUT_CHARTS_DIR")

	override(&out.Analysis.Seed, env.Analysis.Seed, "ANALYSIS_SEED")

	override(&out.Logging.Level, env.Logging.Level, "LOG_LEVEL")
	override(&out.Logging.File, env.Logging.File, "LOG_FILE")

	override(&out.Charts.Interactive, env.Charts.Interactive, "CHARTS_INTERACTIVE")
	override(&out.Charts.Static, env.Charts.Static, "CHARTS_STATIC")
	override(&out.Charts.Snapshot, env.Charts.Snapshot, "CHARTS_SNAPSHOT")
	override(&out.Charts.SnapshotTimeout, env.Charts.SnapshotTimeout, "CHARTS_SNAPSHOT_TIMEOUT")
	override(&out.Charts.Workers, env.Charts.Workers, "CHARTS_WORKERS")
	override(&out.Charts.BrowserPath, env.Charts.BrowserPath, "CHARTS_BROWSER_PATH")

	return out
}

func override[T any](dst *T, envValue T, key string) {
	if _, ok := os.LookupEnv(EnvPrefix + "_" + key); ok {
		*dst = envValue
	}
}
