// Package scoring computes weighted value scores for cleaned keywords.
package scoring

import (
	"fmt"
	"math"

	"github.com/seoforge/keyword-engine/internal/keyword"
)

// volumeSaturationExp is the log10 volume at which the volume factor caps at
// 1.0 (one million monthly searches).
const volumeSaturationExp = 6.0

// intentFactors assigns a fixed contribution per intent category. Buying
// intents rank above research intents.
var intentFactors = map[keyword.Intent]float64{
	keyword.IntentTransactional: 1.0,
	keyword.IntentCommercial:    0.9,
	keyword.IntentComparison:    0.7,
	keyword.IntentNavigational:  0.5,
	keyword.IntentInformational: 0.4,
	keyword.IntentUnknown:       0.3,
}

// Engine scores keywords as a weighted linear combination of four normalized
// factors: search volume, cpc, intent, and inverse competition. Two calls
// with identical inputs produce identical score and justification.
type Engine struct {
	weights keyword.Weights
}

// NewEngine builds an Engine over a fully resolved weight map.
func NewEngine(w keyword.Weights) *Engine {
	return &Engine{weights: w}
}

// Weights returns the weight map the engine applies.
func (e *Engine) Weights() keyword.Weights {
	return e.weights
}

// Score implements keyword.Scorer. It returns a finite, non-negative score
// for any keyword satisfying the cleaning-stage invariants, and an error for
// records with non-finite numeric fields. The input is never mutated.
func (e *Engine) Score(k keyword.Keyword) (float64, string, error) {
	if math.IsNaN(k.CPC) || math.IsInf(k.CPC, 0) {
		return 0, "", fmt.Errorf("keyword %q: cpc is not finite", k.Term)
	}
	if math.IsNaN(k.Competition) || math.IsInf(k.Competition, 0) {
		return 0, "", fmt.Errorf("keyword %q: competition is not finite", k.Term)
	}

	volumeFactor := volumeFactor(k.SearchVolume)
	cpcFactor := cpcFactor(k.CPC)
	intentFactor := intentFactor(k.Intent)
	competitionFactor := competitionFactor(k.Competition)

	score := e.weights.Volume*volumeFactor +
		e.weights.CPC*cpcFactor +
		e.weights.Intent*intentFactor +
		e.weights.Competition*competitionFactor

	justification := fmt.Sprintf(
		"score computed with weights{volume:%.2f cpc:%.2f intent:%.2f competition:%.2f}: "+
			"volume=%d contributes %.4f, cpc=%.2f contributes %.4f, "+
			"intent=%s contributes %.4f, competition=%.2f contributes %.4f",
		e.weights.Volume, e.weights.CPC, e.weights.Intent, e.weights.Competition,
		k.SearchVolume, e.weights.Volume*volumeFactor,
		k.CPC, e.weights.CPC*cpcFactor,
		intentLabel(k.Intent), e.weights.Intent*intentFactor,
		k.Competition, e.weights.Competition*competitionFactor,
	)

	return score, justification, nil
}

// volumeFactor maps monthly search volume onto [0, 1] with logarithmic
// saturation; zero volume contributes zero without error.
func volumeFactor(volume int64) float64 {
	if volume <= 0 {
		return 0
	}
	f := math.Log10(1+float64(volume)) / volumeSaturationExp
	return math.Min(f, 1)
}

// cpcFactor maps cost-per-click onto [0, 1) with hyperbolic saturation.
func cpcFactor(cpc float64) float64 {
	if cpc <= 0 {
		return 0
	}
	return cpc / (cpc + 1)
}

func intentFactor(intent keyword.Intent) float64 {
	if f, ok := intentFactors[intent]; ok {
		return f
	}
	return intentFactors[keyword.IntentUnknown]
}

// competitionFactor rewards low contention. It floors at zero for maximum
// competition rather than dividing, so competition == 1 still scores finitely.
func competitionFactor(competition float64) float64 {
	clamped := math.Min(math.Max(competition, 0), 1)
	return 1 - clamped
}

func intentLabel(intent keyword.Intent) string {
	if intent == keyword.IntentUnknown {
		return "unknown"
	}
	return string(intent)
}
