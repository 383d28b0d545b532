// Package config loads ambient settings from environment variables and an
// optional YAML file. CLI flags take precedence over anything loaded here.
package config

import "fmt"

// Config is the root application configuration.
type Config struct {
	Output OutputConfig `yaml:"output"`
	Batch  BatchConfig  `yaml:"batch"`
	Log    LogConfig    `yaml:"log"`
}

// OutputConfig holds output placement settings.
type OutputConfig struct {
	DirName string `yaml:"dir_name" env:"ANONYMIZER_OUTPUT_DIR_NAME" env-default:"anonymized"`
}

// BatchConfig holds batch processing settings.
type BatchConfig struct {
	Workers int `yaml:"workers" env:"ANONYMIZER_WORKERS" env-default:"4"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"ANONYMIZER_LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"ANONYMIZER_LOG_FORMAT" env-default:"console"`
}

// Validate checks settings that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if c.Output.DirName == "" {
		return fmt.Errorf("config: output dir name must not be empty")
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("config: workers must be >= 1, got %d", c.Batch.Workers)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config: log format must be console or json, got %q", c.Log.Format)
	}
	return nil
}
