package enrichment

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seoforge/keyword-engine/internal/audit"
	"github.com/seoforge/keyword-engine/internal/keyword"
)

func TestStageRun_AttachesScoreAndJustification(t *testing.T) {
	t.Parallel()

	stage := New(zap.NewNop())
	batch := []keyword.Keyword{{
		Term:         "marketing digital",
		SearchVolume: 1200,
		CPC:          2.5,
		Competition:  0.7,
		Intent:       keyword.IntentCommercial,
	}}

	enriched, errs, err := stage.Run(context.Background(), batch, keyword.Context{})
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Len(t, enriched, 1)

	require.Greater(t, enriched[0].Score, 0.0)
	require.Contains(t, enriched[0].Justification, "score computed")
	require.Contains(t, enriched[0].Justification, "volume=1200")
	require.Contains(t, enriched[0].Justification, "competition=0.70")

	// input batch is never mutated
	require.Zero(t, batch[0].Score)
	require.Empty(t, batch[0].Justification)
}

func TestStageRun_CountInvariant(t *testing.T) {
	t.Parallel()

	stage := New(zap.NewNop())
	batch := []keyword.Keyword{
		{Term: "alpha", SearchVolume: 100, Competition: 0.1},
		{Term: "beta", CPC: math.NaN()},
		{Term: "gamma", SearchVolume: 50, Competition: 0.9},
	}

	enriched, errs, err := stage.Run(context.Background(), batch, keyword.Context{})
	require.NoError(t, err)
	require.Len(t, enriched, 2)
	require.Len(t, errs, 1)
	require.Equal(t, len(batch), len(enriched)+len(errs))
	require.Equal(t, keyword.FaultScoring, errs[0].Kind)
	require.Equal(t, "beta", errs[0].Term)
}

func TestStageRun_InvalidWeightOverridesAbort(t *testing.T) {
	t.Parallel()

	stage := New(zap.NewNop())
	batch := []keyword.Keyword{{Term: "fine", SearchVolume: 1}}

	cases := []map[string]float64{
		{"volume": -0.5},
		{"unknown_factor": 0.5},
		{"cpc": math.NaN()},
		{"intent": math.Inf(1)},
	}
	for i, overrides := range cases {
		_, _, err := stage.Run(context.Background(), batch, keyword.Context{WeightOverrides: overrides})
		require.Error(t, err, "case %d", i)
	}
}

func TestStageRun_PartialOverridesMergeDefaults(t *testing.T) {
	t.Parallel()

	var captured keyword.Weights
	stage := New(zap.NewNop(), WithScorerFactory(func(w keyword.Weights) keyword.Scorer {
		captured = w
		return stubScorer{score: 1}
	}))

	_, _, err := stage.Run(context.Background(), nil, keyword.Context{
		WeightOverrides: map[string]float64{"volume": 0.9},
	})
	require.NoError(t, err)

	defaults := keyword.DefaultWeights()
	require.Equal(t, 0.9, captured.Volume)
	require.Equal(t, defaults.CPC, captured.CPC)
	require.Equal(t, defaults.Intent, captured.Intent)
	require.Equal(t, defaults.Competition, captured.Competition)
}

func TestStageRun_ScorerPanicIsIsolated(t *testing.T) {
	t.Parallel()

	stage := New(zap.NewNop(), WithScorerFactory(func(keyword.Weights) keyword.Scorer {
		return panicScorer{on: "kaboom term"}
	}))
	batch := []keyword.Keyword{
		{Term: "kaboom term"},
		{Term: "quiet term"},
	}

	enriched, errs, err := stage.Run(context.Background(), batch, keyword.Context{})
	require.NoError(t, err)
	require.Len(t, enriched, 1)
	require.Equal(t, "quiet term", enriched[0].Term)
	require.Len(t, errs, 1)
	require.Equal(t, keyword.FaultScoring, errs[0].Kind)
	require.Contains(t, errs[0].Message, "scorer panic")
}

func TestStageRun_IntentSeparationWithCommercialWeights(t *testing.T) {
	t.Parallel()

	stage := New(zap.NewNop())
	batch := []keyword.Keyword{
		{Term: "buy shoes online", SearchVolume: 1000, CPC: 1, Competition: 0.5, Intent: keyword.IntentCommercial},
		{Term: "best shoes compared", SearchVolume: 1000, CPC: 1, Competition: 0.5, Intent: keyword.IntentCommercial},
		{Term: "what are shoes", SearchVolume: 1000, CPC: 1, Competition: 0.5, Intent: keyword.IntentInformational},
		{Term: "history of shoes", SearchVolume: 1000, CPC: 1, Competition: 0.5, Intent: keyword.IntentInformational},
	}
	pctx := keyword.Context{WeightOverrides: map[string]float64{"intent": 0.7, "volume": 0.1, "cpc": 0.1, "competition": 0.1}}

	enriched, errs, err := stage.Run(context.Background(), batch, pctx)
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Len(t, enriched, 4)

	var commercialSum, informationalSum float64
	for _, kw := range enriched {
		switch kw.Intent {
		case keyword.IntentCommercial:
			commercialSum += kw.Score
		case keyword.IntentInformational:
			informationalSum += kw.Score
		}
	}
	require.Greater(t, commercialSum/2, informationalSum/2,
		"average commercial score must exceed average informational score")
}

func TestStageRun_PreservesOrderUnderConcurrency(t *testing.T) {
	t.Parallel()

	stage := New(zap.NewNop(), WithConcurrency(8))
	batch := make([]keyword.Keyword, 0, 150)
	for i := 0; i < 150; i++ {
		batch = append(batch, keyword.Keyword{Term: fmt.Sprintf("term %03d", i), SearchVolume: int64(i)})
	}

	enriched, errs, err := stage.Run(context.Background(), batch, keyword.Context{})
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Len(t, enriched, 150)
	for i, kw := range enriched {
		require.Equal(t, fmt.Sprintf("term %03d", i), kw.Term)
	}
}

func TestStageRun_EmitsAuditEvents(t *testing.T) {
	t.Parallel()

	rec := &recordingEmitter{}
	stage := New(zap.NewNop(), WithEmitter(rec))
	batch := []keyword.Keyword{
		{Term: "fine", SearchVolume: 10},
		{Term: "broken", CPC: math.Inf(1)},
	}

	_, _, err := stage.Run(context.Background(), batch, keyword.Context{})
	require.NoError(t, err)

	events := rec.snapshot()
	require.GreaterOrEqual(t, len(events), 3)
	require.Equal(t, audit.KindBatchStart, events[0].Kind)

	last := events[len(events)-1]
	require.Equal(t, audit.KindBatchDone, last.Kind)
	require.Equal(t, audit.StageEnrichment, last.Stage)
	require.Equal(t, audit.Counts{Input: 2, Accepted: 1, Rejected: 0, Errored: 1}, last.Counts)
}

// --- fakes ---

type stubScorer struct {
	score float64
	err   error
}

func (s stubScorer) Score(k keyword.Keyword) (float64, string, error) {
	if s.err != nil {
		return 0, "", s.err
	}
	return s.score, "stub justification for " + k.Term, nil
}

type panicScorer struct {
	on string
}

func (p panicScorer) Score(k keyword.Keyword) (float64, string, error) {
	if k.Term == p.on {
		panic("scripted scorer panic")
	}
	return 0.5, "ok", nil
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordingEmitter) Emit(evt audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recordingEmitter) snapshot() []audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]audit.Event, len(r.events))
	copy(out, r.events)
	return out
}
