package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seoforge/keyword-engine/internal/cleaning"
	"github.com/seoforge/keyword-engine/internal/enrichment"
	"github.com/seoforge/keyword-engine/internal/keyword"
)

func newPipeline(t *testing.T, cleaningOpts []cleaning.Option, enrichmentOpts []enrichment.Option) *Pipeline {
	t.Helper()
	return New(
		cleaning.New(zap.NewNop(), cleaningOpts...),
		enrichment.New(zap.NewNop(), enrichmentOpts...),
		zap.NewNop(),
	)
}

func TestProcess_NormalizesScoresAndJustifies(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, nil, nil)
	batch := []keyword.Keyword{{
		Term:         "  Marketing Digital  ",
		SearchVolume: 1200,
		CPC:          2.5,
		Competition:  0.7,
		Intent:       keyword.IntentCommercial,
	}}

	result, err := p.Process(context.Background(), batch, keyword.Context{})
	require.NoError(t, err)
	require.Empty(t, result.CleaningErrors)
	require.Empty(t, result.EnrichmentErrors)
	require.Len(t, result.Enriched, 1)

	got := result.Enriched[0]
	require.Equal(t, "marketing digital", got.Term)
	require.Greater(t, got.Score, 0.0)
	require.Contains(t, got.Justification, "score computed")
}

func TestProcess_SilentlyDropsNumericViolations(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, nil, nil)
	batch := []keyword.Keyword{
		{Term: "valid keyword", SearchVolume: 100, Competition: 0.2},
		{Term: "negative volume", SearchVolume: -1},
		{Term: "overheated market", SearchVolume: 10, Competition: 1.5},
	}

	result, err := p.Process(context.Background(), batch, keyword.Context{})
	require.NoError(t, err)
	require.Empty(t, result.CleaningErrors, "numeric violations must not surface as errors")
	require.Len(t, result.Enriched, 1)
	require.Equal(t, "valid keyword", result.Enriched[0].Term)
	require.Equal(t, Counts{Input: 3, Accepted: 1, Rejected: 2, Errored: 0}, result.Counts)
}

func TestProcess_ThrowingValidatorBecomesErrorEntry(t *testing.T) {
	t.Parallel()

	p := newPipeline(t,
		[]cleaning.Option{cleaning.WithValidator(faultyValidator{})},
		nil,
	)
	batch := []keyword.Keyword{
		{Term: "trip the wire", SearchVolume: 10},
		{Term: "smooth sailing", SearchVolume: 10},
	}

	result, err := p.Process(context.Background(), batch, keyword.Context{})
	require.NoError(t, err)
	require.Len(t, result.Enriched, 1)
	require.Equal(t, "smooth sailing", result.Enriched[0].Term)
	require.Len(t, result.CleaningErrors, 1)
	require.Equal(t, "trip the wire", result.CleaningErrors[0].Term)
	require.Equal(t, keyword.FaultValidation, result.CleaningErrors[0].Kind)
	require.Contains(t, result.CleaningErrors[0].Message, "dictionary service unavailable")
}

func TestProcess_CommercialIntentOutscoresInformational(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, nil, nil)
	batch := []keyword.Keyword{
		{Term: "buy running shoes", SearchVolume: 500, CPC: 1.2, Competition: 0.4, Intent: keyword.IntentCommercial},
		{Term: "cheap running shoes deals", SearchVolume: 500, CPC: 1.2, Competition: 0.4, Intent: keyword.IntentCommercial},
		{Term: "how running shoes are made", SearchVolume: 500, CPC: 1.2, Competition: 0.4, Intent: keyword.IntentInformational},
		{Term: "running shoes history", SearchVolume: 500, CPC: 1.2, Competition: 0.4, Intent: keyword.IntentInformational},
	}

	result, err := p.Process(context.Background(), batch, keyword.Context{})
	require.NoError(t, err)
	require.Len(t, result.Enriched, 4)

	var commercial, informational float64
	for _, kw := range result.Enriched {
		switch kw.Intent {
		case keyword.IntentCommercial:
			commercial += kw.Score
		case keyword.IntentInformational:
			informational += kw.Score
		}
	}
	require.Greater(t, commercial/2, informational/2)
}

func TestProcess_InvalidWeightsReturnError(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, nil, nil)
	_, err := p.Process(context.Background(), []keyword.Keyword{{Term: "anything", SearchVolume: 1}},
		keyword.Context{WeightOverrides: map[string]float64{"volume": -1}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "enrichment")
}

func TestProcess_AssignsRunIDWhenMissing(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, nil, nil)
	result, err := p.Process(context.Background(), nil, keyword.Context{})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, result.RunID)
}

func TestProcess_KeepsCallerRunID(t *testing.T) {
	t.Parallel()

	want := uuid.New()
	p := newPipeline(t, nil, nil)
	result, err := p.Process(context.Background(), nil, keyword.Context{RunID: want})
	require.NoError(t, err)
	require.Equal(t, want, result.RunID)
}

type faultyValidator struct{}

func (faultyValidator) Validate(term string) (bool, error) {
	if term == "trip the wire" {
		return false, errors.New("dictionary service unavailable")
	}
	return true, nil
}
