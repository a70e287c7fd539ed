package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seoforge/keyword-engine/internal/audit"
	"github.com/seoforge/keyword-engine/internal/audit/sinks"
	"github.com/seoforge/keyword-engine/internal/cleaning"
	"github.com/seoforge/keyword-engine/internal/clock/system"
	"github.com/seoforge/keyword-engine/internal/config"
	"github.com/seoforge/keyword-engine/internal/enrichment"
	"github.com/seoforge/keyword-engine/internal/keyword"
	"github.com/seoforge/keyword-engine/internal/normalizer"
	"github.com/seoforge/keyword-engine/internal/pipeline"
	"github.com/seoforge/keyword-engine/internal/telemetry"
	"github.com/seoforge/keyword-engine/internal/validate"
)

// candidate is the wire form accepted on input files. Intent arrives as a
// free-form label and is folded onto the known set.
type candidate struct {
	Term         string  `json:"term"`
	SearchVolume int64   `json:"search_volume"`
	CPC          float64 `json:"cpc"`
	Competition  float64 `json:"competition"`
	Intent       string  `json:"intent"`
	Source       string  `json:"source"`
}

// newScoreCmd creates and configures the 'score' subcommand.
func newScoreCmd() *cobra.Command {
	var (
		inputPath  string
		outputPath string
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Runs the cleaning and scoring pipeline over a candidate file",
		Long: `Reads a JSON array of keyword candidates, runs the full cleaning and
enrichment pipeline, and writes the enriched result. Use "-" for stdin/stdout.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfigAndLogger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return runScore(cmd.Context(), cfg, logger, inputPath, outputPath)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "-", "candidate JSON file")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "-", "destination for the enriched JSON result")

	return cmd
}

func runScore(ctx context.Context, cfg config.Config, logger *zap.Logger, inputPath, outputPath string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	batch, err := readCandidates(inputPath)
	if err != nil {
		return err
	}
	stampCollectedAt(batch, system.New())

	telemetry.Init()
	tp, err := telemetry.InitTracerProvider(ctx, cfg.Telemetry.ServiceName)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	hub, err := buildAuditHub(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := hub.Close(closeCtx); err != nil {
			logger.Warn("audit hub close failed", zap.Error(err))
		}
	}()

	srv := startMetricsListener(cfg, logger)
	if srv != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	p, err := buildPipeline(cfg, logger, hub)
	if err != nil {
		return err
	}

	result, err := p.Process(ctx, batch, keyword.Context{
		WeightOverrides: cfg.WeightOverrides(),
	})
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}

	if err := writeResult(outputPath, result); err != nil {
		return err
	}

	logger.Info("scoring run finished",
		zap.String("run_id", result.RunID.String()),
		zap.Int("input", result.Counts.Input),
		zap.Int("accepted", result.Counts.Accepted),
		zap.Int("rejected", result.Counts.Rejected),
		zap.Int("errored", result.Counts.Errored),
	)
	return nil
}

func buildPipeline(cfg config.Config, logger *zap.Logger, hub *audit.Hub) (*pipeline.Pipeline, error) {
	validator, err := validate.New(validate.Config{
		MinLength:    cfg.Pipeline.MinTermLength,
		MaxLength:    cfg.Pipeline.MaxTermLength,
		AllowedChars: cfg.Pipeline.AllowedChars,
	})
	if err != nil {
		return nil, fmt.Errorf("init validator: %w", err)
	}

	var termValidator keyword.TermValidator = validator
	if len(cfg.Pipeline.Blacklist) > 0 {
		termValidator = validate.NewBlacklist(validator, cfg.Pipeline.Blacklist)
	}

	cleaningStage := cleaning.New(logger,
		cleaning.WithValidator(termValidator),
		cleaning.WithConcurrency(cfg.Pipeline.Concurrency),
		cleaning.WithEmitter(hub),
		cleaning.WithNormalizerOptions(normalizer.Options{StripAccents: cfg.Pipeline.StripAccents}),
	)
	enrichmentStage := enrichment.New(logger,
		enrichment.WithConcurrency(cfg.Pipeline.Concurrency),
		enrichment.WithEmitter(hub),
	)
	return pipeline.New(cleaningStage, enrichmentStage, logger), nil
}

// buildAuditHub assembles the hub with log and Prometheus sinks. A disabled
// hub is returned as nil, which every emitter treats as a no-op.
func buildAuditHub(cfg config.Config, logger *zap.Logger) (*audit.Hub, error) {
	if !cfg.Audit.Enabled {
		return nil, nil
	}
	promSink, err := sinks.NewPrometheusSink(nil)
	if err != nil {
		return nil, fmt.Errorf("init audit metrics sink: %w", err)
	}
	hub := audit.NewHub(audit.Config{
		BufferSize:     cfg.Audit.BufferSize,
		MaxBatchEvents: cfg.Audit.MaxBatchEvents,
		MaxBatchWait:   time.Duration(cfg.Audit.MaxBatchWaitMs) * time.Millisecond,
		Logger:         logger,
	}, sinks.NewLogSink(logger), promSink)
	return hub, nil
}

// startMetricsListener exposes /metrics and /healthz when an address is
// configured. Returns nil when the listener is disabled.
func startMetricsListener(cfg config.Config, logger *zap.Logger) *http.Server {
	if cfg.Telemetry.ListenAddr == "" {
		return nil
	}

	r := chi.NewRouter()
	r.Use(telemetry.Middleware)
	r.Handle("/metrics", telemetry.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              cfg.Telemetry.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics listener started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics listener stopped", zap.Error(err))
		}
	}()
	return srv
}

func readCandidates(path string) ([]keyword.Keyword, error) {
	var reader io.Reader
	if path == "-" {
		reader = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		reader = f
	}

	var raw []candidate
	dec := json.NewDecoder(reader)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode candidates: %w", err)
	}

	batch := make([]keyword.Keyword, 0, len(raw))
	for _, c := range raw {
		batch = append(batch, keyword.Keyword{
			Term:         c.Term,
			SearchVolume: c.SearchVolume,
			CPC:          c.CPC,
			Competition:  c.Competition,
			Intent:       keyword.ParseIntent(c.Intent),
			Source:       c.Source,
		})
	}
	return batch, nil
}

// stampCollectedAt records ingestion time on candidates that arrived without
// one.
func stampCollectedAt(batch []keyword.Keyword, clk keyword.Clock) {
	now := clk.Now()
	for i := range batch {
		if batch[i].CollectedAt == nil {
			ts := now
			batch[i].CollectedAt = &ts
		}
	}
}

func writeResult(path string, result pipeline.Result) error {
	var writer io.Writer
	if path == "-" {
		writer = os.Stdout
	} else {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		writer = f
	}

	enc := json.NewEncoder(writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}
