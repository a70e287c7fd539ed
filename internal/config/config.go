// Package config loads and validates pipeline configuration via Viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Weights   WeightsConfig   `mapstructure:"weights"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// PipelineConfig governs stage behavior.
type PipelineConfig struct {
	Concurrency   int      `mapstructure:"concurrency"`
	MinTermLength int      `mapstructure:"min_term_length"`
	MaxTermLength int      `mapstructure:"max_term_length"`
	AllowedChars  string   `mapstructure:"allowed_chars"`
	Blacklist     []string `mapstructure:"blacklist"`
	StripAccents  bool     `mapstructure:"strip_accents"`
}

// WeightsConfig overrides the baseline scoring weight map. Negative values
// mean "keep the default" so a partially specified section never zeroes a
// factor by accident.
type WeightsConfig struct {
	Volume      float64 `mapstructure:"volume"`
	CPC         float64 `mapstructure:"cpc"`
	Intent      float64 `mapstructure:"intent"`
	Competition float64 `mapstructure:"competition"`
}

// TelemetryConfig controls the metrics listener and tracing identity.
type TelemetryConfig struct {
	ListenAddr  string `mapstructure:"listen_addr"`
	ServiceName string `mapstructure:"service_name"`
}

// AuditConfig tunes the audit hub buffering.
type AuditConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	BufferSize     int  `mapstructure:"buffer_size"`
	MaxBatchEvents int  `mapstructure:"max_batch_events"`
	MaxBatchWaitMs int  `mapstructure:"max_batch_wait_ms"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("KEYWORD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("pipeline.concurrency", 1)
	v.SetDefault("pipeline.min_term_length", 2)
	v.SetDefault("pipeline.max_term_length", 100)
	v.SetDefault("pipeline.allowed_chars", "")
	v.SetDefault("pipeline.blacklist", []string{})
	v.SetDefault("pipeline.strip_accents", false)
	v.SetDefault("weights.volume", -1)
	v.SetDefault("weights.cpc", -1)
	v.SetDefault("weights.intent", -1)
	v.SetDefault("weights.competition", -1)
	v.SetDefault("telemetry.listen_addr", "")
	v.SetDefault("telemetry.service_name", "keyword-engine")
	v.SetDefault("audit.enabled", true)
	v.SetDefault("audit.buffer_size", 4096)
	v.SetDefault("audit.max_batch_events", 1000)
	v.SetDefault("audit.max_batch_wait_ms", 500)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Pipeline.Concurrency <= 0 {
		return fmt.Errorf("pipeline.concurrency must be > 0")
	}
	if c.Pipeline.MinTermLength < 1 {
		return fmt.Errorf("pipeline.min_term_length must be >= 1")
	}
	if c.Pipeline.MaxTermLength < c.Pipeline.MinTermLength {
		return fmt.Errorf("pipeline.max_term_length must be >= pipeline.min_term_length")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return fmt.Errorf("audit.buffer_size must be > 0 when audit is enabled")
	}
	if c.Telemetry.ServiceName == "" {
		return fmt.Errorf("telemetry.service_name must be set")
	}
	return nil
}

// WeightOverrides converts the weights section into the pipeline's override
// map, omitting unset (negative) values so defaults apply.
func (c Config) WeightOverrides() map[string]float64 {
	overrides := make(map[string]float64, 4)
	if c.Weights.Volume >= 0 {
		overrides["volume"] = c.Weights.Volume
	}
	if c.Weights.CPC >= 0 {
		overrides["cpc"] = c.Weights.CPC
	}
	if c.Weights.Intent >= 0 {
		overrides["intent"] = c.Weights.Intent
	}
	if c.Weights.Competition >= 0 {
		overrides["competition"] = c.Weights.Competition
	}
	if len(overrides) == 0 {
		return nil
	}
	return overrides
}
