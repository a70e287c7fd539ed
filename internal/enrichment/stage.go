// Package enrichment attaches scores and justifications to cleaned keywords.
package enrichment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seoforge/keyword-engine/internal/audit"
	"github.com/seoforge/keyword-engine/internal/clock/system"
	"github.com/seoforge/keyword-engine/internal/fanout"
	ids "github.com/seoforge/keyword-engine/internal/id/uuid"
	"github.com/seoforge/keyword-engine/internal/keyword"
	"github.com/seoforge/keyword-engine/internal/scoring"
	"github.com/seoforge/keyword-engine/internal/telemetry"
)

// Option customizes a Stage.
type Option func(*Stage)

// WithConcurrency bounds the per-item worker pool. Values <= 1 keep the
// batch loop sequential.
func WithConcurrency(n int) Option {
	return func(s *Stage) { s.workers = n }
}

// WithEmitter wires an audit emitter; nil keeps audit disabled.
func WithEmitter(e audit.Emitter) Option {
	return func(s *Stage) { s.emitter = e }
}

// WithScorerFactory replaces how the stage builds a scorer from resolved
// weights; used by tests to inject fakes.
func WithScorerFactory(f func(keyword.Weights) keyword.Scorer) Option {
	return func(s *Stage) { s.newScorer = f }
}

// Stage applies the scoring engine to every surviving candidate, isolating
// per-item scoring faults exactly like the cleaning stage isolates
// validation faults.
type Stage struct {
	workers   int
	emitter   audit.Emitter
	newScorer func(keyword.Weights) keyword.Scorer
	logger    *zap.Logger
	clock     keyword.Clock
	ids       keyword.IDGenerator
}

// New constructs an enrichment Stage backed by the scoring engine.
func New(logger *zap.Logger, opts ...Option) *Stage {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Stage{
		workers: 1,
		newScorer: func(w keyword.Weights) keyword.Scorer {
			return scoring.NewEngine(w)
		},
		logger: logger,
		clock:  system.New(),
		ids:    ids.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type itemResult struct {
	outcome keyword.Outcome
	kw      keyword.Keyword
	fault   keyword.ItemError
}

// Run scores every item in batch, returning enriched copies in input order
// plus the per-item fault list. A scoring fault removes the item rather than
// propagating. Run returns a non-nil error only when the context's weight
// override map is structurally invalid; that is caller misconfiguration, not
// a data fault, and aborting the whole call is correct.
func (s *Stage) Run(
	ctx context.Context,
	batch []keyword.Keyword,
	pctx keyword.Context,
) ([]keyword.Keyword, []keyword.ItemError, error) {
	weights, err := keyword.ResolveWeights(pctx.WeightOverrides)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve weights: %w", err)
	}
	scorer := s.newScorer(weights)

	start := s.clock.Now()
	runID := s.resolveRunID(pctx)

	ctx, span := telemetry.StartStageSpan(ctx, audit.StageEnrichment, len(batch))

	s.emit(audit.Event{
		RunID:  runID,
		TS:     s.clock.Now(),
		Kind:   audit.KindBatchStart,
		Stage:  audit.StageEnrichment,
		Counts: audit.Counts{Input: len(batch)},
	})

	results := make([]itemResult, len(batch))
	fanout.Run(ctx, len(batch), s.workers, func(i int) {
		results[i] = score(scorer, batch[i])
	})

	enriched := make([]keyword.Keyword, 0, len(batch))
	faults := make([]keyword.ItemError, 0)
	counts := audit.Counts{Input: len(batch)}
	for _, res := range results {
		switch res.outcome {
		case keyword.OutcomeAccepted:
			counts.Accepted++
			enriched = append(enriched, res.kw)
		case keyword.OutcomeErrored:
			counts.Errored++
			faults = append(faults, res.fault)
			s.logger.Warn("scoring fault",
				zap.String("term", res.fault.Term),
				zap.String("error", res.fault.Message),
			)
			s.emit(audit.Event{
				RunID: runID,
				TS:    s.clock.Now(),
				Kind:  audit.KindItemFault,
				Stage: audit.StageEnrichment,
				Term:  res.fault.Term,
				Fault: res.fault.Kind,
				Note:  res.fault.Message,
			})
		default:
			// not reached before the deadline; excluded from both lists
		}
		if res.outcome != "" {
			telemetry.ObserveItem(audit.StageEnrichment, res.outcome)
		}
	}

	dur := s.clock.Now().Sub(start)
	telemetry.ObserveBatch(audit.StageEnrichment, len(batch), dur)
	telemetry.EndStageSpan(span, counts.Accepted, counts.Rejected, counts.Errored)
	s.emit(audit.Event{
		RunID:  runID,
		TS:     s.clock.Now(),
		Kind:   audit.KindBatchDone,
		Stage:  audit.StageEnrichment,
		Counts: counts,
		Dur:    dur,
	})
	s.logger.Debug("enrichment batch done",
		zap.Int("total_input", len(batch)),
		zap.Int("enriched", counts.Accepted),
		zap.Int("errors", counts.Errored),
		zap.Duration("dur", dur),
	)

	return enriched, faults, nil
}

// score runs the scorer for one candidate on a copy, recovering panics into
// scoring faults so adversarial scorers stay isolated to their item.
func score(scorer keyword.Scorer, k keyword.Keyword) (res itemResult) {
	defer func() {
		if r := recover(); r != nil {
			res = itemResult{
				outcome: keyword.OutcomeErrored,
				fault: keyword.ItemError{
					Term:    k.Term,
					Kind:    keyword.FaultScoring,
					Message: fmt.Sprintf("scorer panic: %v", r),
				},
			}
		}
	}()

	value, justification, err := scorer.Score(k)
	if err != nil {
		return itemResult{
			outcome: keyword.OutcomeErrored,
			fault: keyword.ItemError{
				Term:    k.Term,
				Kind:    keyword.FaultScoring,
				Message: err.Error(),
			},
		}
	}
	k.Score = value
	k.Justification = justification
	return itemResult{outcome: keyword.OutcomeAccepted, kw: k}
}

func (s *Stage) emit(evt audit.Event) {
	if s.emitter == nil {
		return
	}
	s.emitter.Emit(evt)
}

func (s *Stage) resolveRunID(pctx keyword.Context) [16]byte {
	if pctx.RunID != uuid.Nil {
		return audit.UUIDToBytes(pctx.RunID)
	}
	id, err := s.ids.NewRawID()
	if err != nil {
		id = uuid.New()
	}
	return audit.UUIDToBytes(id)
}
