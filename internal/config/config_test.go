package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
pipeline:
  concurrency: 6
  min_term_length: 3
  max_term_length: 50
  allowed_chars: "abcdefghijklmnopqrstuvwxyz "
  blacklist: ["casino"]
  strip_accents: true
weights:
  volume: 0.5
  intent: 0.3
telemetry:
  listen_addr: ":9100"
  service_name: keyword-engine-test
audit:
  enabled: true
  buffer_size: 128
logging:
  development: false
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Pipeline.Concurrency != 6 || cfg.Pipeline.MinTermLength != 3 || cfg.Pipeline.MaxTermLength != 50 {
		t.Fatalf("expected pipeline overrides to apply: %+v", cfg.Pipeline)
	}
	if !cfg.Pipeline.StripAccents || len(cfg.Pipeline.Blacklist) != 1 || cfg.Pipeline.Blacklist[0] != "casino" {
		t.Fatalf("expected blacklist and accent options: %+v", cfg.Pipeline)
	}
	if cfg.Telemetry.ListenAddr != ":9100" || cfg.Telemetry.ServiceName != "keyword-engine-test" {
		t.Fatalf("expected telemetry overrides: %+v", cfg.Telemetry)
	}
	if cfg.Logging.Development {
		t.Fatal("expected logging.development false")
	}

	overrides := cfg.WeightOverrides()
	if len(overrides) != 2 {
		t.Fatalf("expected two weight overrides, got %v", overrides)
	}
	if overrides["volume"] != 0.5 || overrides["intent"] != 0.3 {
		t.Fatalf("unexpected override values: %v", overrides)
	}
	if _, ok := overrides["cpc"]; ok {
		t.Fatalf("unset weight must not appear in overrides: %v", overrides)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Pipeline.Concurrency != 1 {
		t.Fatalf("expected default concurrency 1, got %d", cfg.Pipeline.Concurrency)
	}
	if cfg.Pipeline.MinTermLength != 2 || cfg.Pipeline.MaxTermLength != 100 {
		t.Fatalf("unexpected default term bounds: %+v", cfg.Pipeline)
	}
	if cfg.WeightOverrides() != nil {
		t.Fatalf("expected no weight overrides by default, got %v", cfg.WeightOverrides())
	}
	if !cfg.Audit.Enabled {
		t.Fatal("expected audit enabled by default")
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Pipeline: PipelineConfig{
			Concurrency:   1,
			MinTermLength: 2,
			MaxTermLength: 100,
		},
		Audit:     AuditConfig{Enabled: true, BufferSize: 16},
		Telemetry: TelemetryConfig{ServiceName: "keyword-engine"},
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "invalid concurrency",
			cfg: func() Config {
				c := base
				c.Pipeline.Concurrency = 0
				return c
			}(),
			want: "pipeline.concurrency",
		},
		{
			name: "invalid min term length",
			cfg: func() Config {
				c := base
				c.Pipeline.MinTermLength = 0
				return c
			}(),
			want: "pipeline.min_term_length",
		},
		{
			name: "max below min",
			cfg: func() Config {
				c := base
				c.Pipeline.MinTermLength = 10
				c.Pipeline.MaxTermLength = 5
				return c
			}(),
			want: "pipeline.max_term_length",
		},
		{
			name: "audit enabled without buffer",
			cfg: func() Config {
				c := base
				c.Audit.BufferSize = 0
				return c
			}(),
			want: "audit.buffer_size",
		},
		{
			name: "missing service name",
			cfg: func() Config {
				c := base
				c.Telemetry.ServiceName = ""
				return c
			}(),
			want: "telemetry.service_name",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
