// Package keyword defines core types shared across pipeline stages.
package keyword

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Intent classifies the searcher's goal behind a term.
type Intent string

// Intent values accepted on candidate records.
const (
	IntentUnknown       Intent = ""
	IntentInformational Intent = "informational"
	IntentTransactional Intent = "transactional"
	IntentNavigational  Intent = "navigational"
	IntentComparison    Intent = "comparison"
	IntentCommercial    Intent = "commercial"
)

// ParseIntent maps free-form collector labels onto a known Intent.
// Unrecognized labels fold to IntentUnknown rather than failing the record.
func ParseIntent(raw string) Intent {
	switch Intent(strings.ToLower(strings.TrimSpace(raw))) {
	case IntentInformational:
		return IntentInformational
	case IntentTransactional:
		return IntentTransactional
	case IntentNavigational:
		return IntentNavigational
	case IntentComparison:
		return IntentComparison
	case IntentCommercial:
		return IntentCommercial
	default:
		return IntentUnknown
	}
}

// Keyword is a candidate phrase with its market attributes. Score and
// Justification are zero until the enrichment stage fills them in.
type Keyword struct {
	Term          string     `json:"term"`
	SearchVolume  int64      `json:"search_volume"`
	CPC           float64    `json:"cpc"`
	Competition   float64    `json:"competition"`
	Intent        Intent     `json:"intent,omitempty"`
	Score         float64    `json:"score,omitempty"`
	Justification string     `json:"justification,omitempty"`
	Source        string     `json:"source,omitempty"`
	CollectedAt   *time.Time `json:"collected_at,omitempty"`
}

// NumericBoundsOK reports whether the record's numeric fields satisfy the
// invariants required past the cleaning stage: volume >= 0, cpc >= 0, and
// competition inside [0, 1].
func (k Keyword) NumericBoundsOK() bool {
	if k.SearchVolume < 0 {
		return false
	}
	if math.IsNaN(k.CPC) || k.CPC < 0 {
		return false
	}
	if math.IsNaN(k.Competition) || k.Competition < 0 || k.Competition > 1 {
		return false
	}
	return true
}

// Outcome is the terminal state of one item inside a stage.
type Outcome string

// Per-item outcomes; every item lands in exactly one of these.
const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
	OutcomeErrored  Outcome = "errored"
)

// FaultKind distinguishes the source of a per-item fault.
type FaultKind string

// Fault kinds recorded on ItemError entries.
const (
	FaultValidation FaultKind = "validation"
	FaultScoring    FaultKind = "scoring"
)

// ItemError records a single item fault without aborting its batch.
type ItemError struct {
	Term    string    `json:"term"`
	Kind    FaultKind `json:"kind"`
	Message string    `json:"error"`
}

// Weights holds the relative contribution of each scoring factor.
type Weights struct {
	Volume      float64 `json:"volume" mapstructure:"volume"`
	CPC         float64 `json:"cpc" mapstructure:"cpc"`
	Intent      float64 `json:"intent" mapstructure:"intent"`
	Competition float64 `json:"competition" mapstructure:"competition"`
}

// DefaultWeights returns the baseline weight map used when a caller supplies
// none. The values favor volume and intent over price signals.
func DefaultWeights() Weights {
	return Weights{
		Volume:      0.35,
		CPC:         0.20,
		Intent:      0.25,
		Competition: 0.20,
	}
}

// Weight map keys accepted in Context overrides.
const (
	WeightKeyVolume      = "volume"
	WeightKeyCPC         = "cpc"
	WeightKeyIntent      = "intent"
	WeightKeyCompetition = "competition"
)

// ResolveWeights merges a partial override map onto the defaults. Missing keys
// keep their default; unknown keys or non-finite/negative values are a caller
// configuration error and abort resolution.
func ResolveWeights(overrides map[string]float64) (Weights, error) {
	w := DefaultWeights()
	for key, value := range overrides {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return Weights{}, fmt.Errorf("weight %q is not finite", key)
		}
		if value < 0 {
			return Weights{}, fmt.Errorf("weight %q must be >= 0, got %v", key, value)
		}
		switch key {
		case WeightKeyVolume:
			w.Volume = value
		case WeightKeyCPC:
			w.CPC = value
		case WeightKeyIntent:
			w.Intent = value
		case WeightKeyCompetition:
			w.Competition = value
		default:
			return Weights{}, fmt.Errorf("unknown weight key %q", key)
		}
	}
	return w, nil
}

// Context carries per-batch overrides through the pipeline. The zero value is
// valid and means "use stage defaults".
type Context struct {
	// WeightOverrides partially overrides the scoring weight map.
	WeightOverrides map[string]float64
	// Validator replaces the baseline term validator for the batch.
	Validator TermValidator
	// RunID correlates audit events across stages; stages generate one when
	// it is left zero.
	RunID uuid.UUID
}
