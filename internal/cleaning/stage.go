// Package cleaning filters raw keyword candidates down to valid records.
package cleaning

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
	"github.com/seoforge/keyword-engine/internal/normalizer"
	"github.com/seoforge/keyword-engine/internal/telemetry"
	"github.com/seoforge/keyword-engine/internal/validate"
)

// Option customizes a Stage.
type Option func(*Stage)

// WithValidator replaces the baseline term validator.
func WithValidator(v keyword.TermValidator) Option {
	return func(s *Stage) { s.validator = v }
}

// WithConcurrency bounds the per-item worker pool. Values <= 1 keep the
// batch loop sequential.
func WithConcurrency(n int) Option {
	return func(s *Stage) { s.workers = n }
}

// WithEmitter wires an audit emitter; nil keeps audit disabled.
func WithEmitter(e audit.Emitter) Option {
	return func(s *Stage) { s.emitter = e }
}

// WithNormalizerOptions controls term normalization ahead of validation.
func WithNormalizerOptions(opts normalizer.Options) Option {
	return func(s *Stage) { s.normOpts = opts }
}

// Stage normalizes and validates a batch of candidates, isolating every
// per-item fault so a bad record never aborts the batch.
type Stage struct {
	validator keyword.TermValidator
	workers   int
	emitter   audit.Emitter
	normOpts  normalizer.Options
	logger    *zap.Logger
	clock     keyword.Clock
	ids       keyword.IDGenerator
}

// New constructs a cleaning Stage with the baseline validator.
func New(logger *zap.Logger, opts ...Option) *Stage {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Stage{
		validator: validate.MustNew(validate.Config{}),
		workers:   1,
		logger:    logger,
		clock:     system.New(),
		ids:       ids.New(),
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

// Run filters batch, returning the surviving records in input order together
// with the per-item fault list. Term-shape and numeric-bound rejections are
// silent filtering outcomes; only validator faults land in the error list.
// Run never fails for malformed items; on ctx deadline it returns whatever
// was computed so far.
func (s *Stage) Run(
	ctx context.Context,
	batch []keyword.Keyword,
	pctx keyword.Context,
) ([]keyword.Keyword, []keyword.ItemError) {
	start := s.clock.Now()
	runID := s.resolveRunID(pctx)

	ctx, span := telemetry.StartStageSpan(ctx, audit.StageCleaning, len(batch))

	validator := s.validator
	if pctx.Validator != nil {
		validator = pctx.Validator
	}

	s.emit(audit.Event{
		RunID:  runID,
		TS:     s.clock.Now(),
		Kind:   audit.KindBatchStart,
		Stage:  audit.StageCleaning,
		Counts: audit.Counts{Input: len(batch)},
	})

	results := make([]itemResult, len(batch))
	fanout.Run(ctx, len(batch), s.workers, func(i int) {
		results[i] = s.judge(validator, batch[i])
	})

	clean := make([]keyword.Keyword, 0, len(batch))
	faults := make([]keyword.ItemError, 0)
	counts := audit.Counts{Input: len(batch)}
	for _, res := range results {
		switch res.outcome {
		case keyword.OutcomeAccepted:
			counts.Accepted++
			clean = append(clean, res.kw)
		case keyword.OutcomeRejected:
			counts.Rejected++
		case keyword.OutcomeErrored:
			counts.Errored++
			faults = append(faults, res.fault)
			s.logger.Warn("validator fault",
				zap.String("term", res.fault.Term),
				zap.String("error", res.fault.Message),
			)
			s.emit(audit.Event{
				RunID: runID,
				TS:    s.clock.Now(),
				Kind:  audit.KindItemFault,
				Stage: audit.StageCleaning,
				Term:  res.fault.Term,
				Fault: res.fault.Kind,
				Note:  res.fault.Message,
			})
		default:
			// not reached before the deadline; excluded from both lists
		}
		if res.outcome != "" {
			telemetry.ObserveItem(audit.StageCleaning, res.outcome)
		}
	}

	dur := s.clock.Now().Sub(start)
	telemetry.ObserveBatch(audit.StageCleaning, len(batch), dur)
	telemetry.EndStageSpan(span, counts.Accepted, counts.Rejected, counts.Errored)
	s.emit(audit.Event{
		RunID:  runID,
		TS:     s.clock.Now(),
		Kind:   audit.KindBatchDone,
		Stage:  audit.StageCleaning,
		Counts: counts,
		Dur:    dur,
	})
	s.logger.Debug("cleaning batch done",
		zap.Int("before_count", len(batch)),
		zap.Int("after_count", len(clean)),
		zap.Int("errored", counts.Errored),
		zap.Duration("dur", dur),
	)

	return clean, faults
}

// judge normalizes and validates one candidate. Panics raised by custom
// validators are recovered and converted into validation faults so they stay
// isolated to the offending item.
func (s *Stage) judge(validator keyword.TermValidator, k keyword.Keyword) (res itemResult) {
	k.Term = normalizer.NormalizeWith(k.Term, s.normOpts)

	defer func() {
		if r := recover(); r != nil {
			res = itemResult{
				outcome: keyword.OutcomeErrored,
				fault: keyword.ItemError{
					Term:    k.Term,
					Kind:    keyword.FaultValidation,
					Message: fmt.Sprintf("validator panic: %v", r),
				},
			}
		}
	}()

	ok, err := validator.Validate(k.Term)
	if err != nil {
		return itemResult{
			outcome: keyword.OutcomeErrored,
			fault: keyword.ItemError{
				Term:    k.Term,
				Kind:    keyword.FaultValidation,
				Message: err.Error(),
			},
		}
	}
	if !ok {
		return itemResult{outcome: keyword.OutcomeRejected}
	}
	if !k.NumericBoundsOK() {
		return itemResult{outcome: keyword.OutcomeRejected}
	}
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
