// Package pipeline composes the cleaning and enrichment stages into one run.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seoforge/keyword-engine/internal/cleaning"
	"github.com/seoforge/keyword-engine/internal/enrichment"
	"github.com/seoforge/keyword-engine/internal/keyword"
)

// Counts aggregates user-visible outcome totals across both stages.
type Counts struct {
	Input    int `json:"input"`
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
	Errored  int `json:"errored"`
}

// Result is everything a pipeline run hands back to the caller: the enriched
// survivors plus the per-stage fault side channels.
type Result struct {
	RunID            uuid.UUID           `json:"run_id"`
	Enriched         []keyword.Keyword   `json:"enriched"`
	CleaningErrors   []keyword.ItemError `json:"cleaning_errors"`
	EnrichmentErrors []keyword.ItemError `json:"enrichment_errors"`
	Counts           Counts              `json:"counts"`
}

// Pipeline runs cleaning followed by enrichment. Both stages stay
// independently callable; the Pipeline only threads a shared run ID and
// folds the outputs together.
type Pipeline struct {
	cleaning   *cleaning.Stage
	enrichment *enrichment.Stage
	logger     *zap.Logger
}

// New wires the two stages into a Pipeline.
func New(cleaningStage *cleaning.Stage, enrichmentStage *enrichment.Stage, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		cleaning:   cleaningStage,
		enrichment: enrichmentStage,
		logger:     logger,
	}
}

// Process feeds batch through both stages. It returns an error only for
// caller misconfiguration (invalid weight overrides); per-item problems are
// captured in the Result's error lists.
func (p *Pipeline) Process(ctx context.Context, batch []keyword.Keyword, pctx keyword.Context) (Result, error) {
	if pctx.RunID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			id = uuid.New()
		}
		pctx.RunID = id
	}

	clean, cleaningErrs := p.cleaning.Run(ctx, batch, pctx)
	enriched, enrichmentErrs, err := p.enrichment.Run(ctx, clean, pctx)
	if err != nil {
		return Result{}, fmt.Errorf("enrichment: %w", err)
	}

	result := Result{
		RunID:            pctx.RunID,
		Enriched:         enriched,
		CleaningErrors:   cleaningErrs,
		EnrichmentErrors: enrichmentErrs,
		Counts: Counts{
			Input:    len(batch),
			Accepted: len(enriched),
			Rejected: len(batch) - len(clean) - len(cleaningErrs),
			Errored:  len(cleaningErrs) + len(enrichmentErrs),
		},
	}

	p.logger.Info("pipeline run complete",
		zap.String("run_id", result.RunID.String()),
		zap.Int("input", result.Counts.Input),
		zap.Int("accepted", result.Counts.Accepted),
		zap.Int("rejected", result.Counts.Rejected),
		zap.Int("errored", result.Counts.Errored),
	)

	return result, nil
}
