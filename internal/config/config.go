// Package config provides configuration loading for ocr-batch.
// Supports YAML files, .env files, environment variables, and flag overrides.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/spherical/ocr-batch/internal/domain"
)

// Config holds all configuration for ocr-batch.
type Config struct {
	OCR           OCRConfig           `yaml:"ocr"`
	Batch         BatchConfig         `yaml:"batch"`
	Journal       JournalConfig       `yaml:"journal"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// OCRConfig holds settings passed through to the OCR engine.
type OCRConfig struct {
	EnginePath   string   `yaml:"engine_path"`
	Language     string   `yaml:"language"`
	ForceOCR     bool     `yaml:"force_ocr"`
	Deskew       bool     `yaml:"deskew"`
	JobsPerFile  int      `yaml:"jobs_per_file"`
	Preflight    bool     `yaml:"preflight"`
	VerifyOutput bool     `yaml:"verify_output"`
	ExtraArgs    []string `yaml:"extra_args"`
}

// BatchConfig holds discovery and dispatch settings.
type BatchConfig struct {
	Workers       int    `yaml:"workers"` // 0 means DefaultWorkers()
	OutputDirName string `yaml:"output_dir_name"`
	OutputPrefix  string `yaml:"output_prefix"`
	Extension     string `yaml:"extension"`
}

// JournalConfig holds the run journal settings. An empty path disables it.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads configuration from an optional YAML file, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Read is Load without validation, for callers that layer further overrides
// (CLI flags) on top and validate afterwards.
func Read(path string) (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, domain.ConfigError("read config file", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, domain.ConfigError("parse config file", err)
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		OCR: OCRConfig{
			EnginePath:   "ocrmypdf",
			Language:     "eng",
			ForceOCR:     false,
			Deskew:       true,
			JobsPerFile:  1,
			Preflight:    true,
			VerifyOutput: true,
		},
		Batch: BatchConfig{
			Workers:       0,
			OutputDirName: "OCRed_PDFs_",
			OutputPrefix:  "[OCR] ",
			Extension:     ".pdf",
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "console",
		},
	}
}

// DefaultWorkers is the host parallelism minus two, but at least one.
func DefaultWorkers() int {
	return max(1, runtime.NumCPU()-2)
}

// EffectiveWorkers resolves a Workers value of 0 to DefaultWorkers().
func (c *Config) EffectiveWorkers() int {
	if c.Batch.Workers < 1 {
		return DefaultWorkers()
	}
	return c.Batch.Workers
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Batch.Workers < 0 {
		return domain.ConfigError(fmt.Sprintf("workers must not be negative, got %d", c.Batch.Workers), nil)
	}

	if strings.TrimSpace(c.OCR.Language) == "" {
		return domain.ConfigError("language cannot be empty", nil)
	}

	if strings.TrimSpace(c.OCR.EnginePath) == "" {
		return domain.ConfigError("engine_path cannot be empty", nil)
	}

	if c.OCR.JobsPerFile < 1 {
		return domain.ConfigError(fmt.Sprintf("jobs_per_file must be at least 1, got %d", c.OCR.JobsPerFile), nil)
	}

	if !strings.HasPrefix(c.Batch.Extension, ".") {
		return domain.ConfigError(fmt.Sprintf("extension must start with '.', got %q", c.Batch.Extension), nil)
	}

	name := c.Batch.OutputDirName
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return domain.ConfigError(fmt.Sprintf("invalid output_dir_name: %q", name), nil)
	}

	if strings.ContainsAny(c.Batch.OutputPrefix, `/\`) {
		return domain.ConfigError(fmt.Sprintf("output_prefix cannot contain path separators: %q", c.Batch.OutputPrefix), nil)
	}

	if c.Observability.LogFormat != "console" && c.Observability.LogFormat != "json" {
		return domain.ConfigError(fmt.Sprintf("invalid log_format: %s", c.Observability.LogFormat), nil)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OCRBATCH_ENGINE_PATH"); v != "" {
		cfg.OCR.EnginePath = v
	}

	if v := os.Getenv("OCRBATCH_LANGUAGE"); v != "" {
		cfg.OCR.Language = v
	}

	if v := os.Getenv("OCRBATCH_FORCE_OCR"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.OCR.ForceOCR = b
		}
	}

	if v := os.Getenv("OCRBATCH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Batch.Workers = n
		}
	}

	if v := os.Getenv("OCRBATCH_JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}
