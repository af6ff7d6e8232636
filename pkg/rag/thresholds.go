package rag

import "fmt"

// Tier is one of the four confidence bands that govern clarification
// behavior. Bands are contiguous and exhaustive over [0,1].
type Tier string

const (
	TierAutoRoute           Tier = "auto_route"
	TierDocumentQuestions   Tier = "document_questions"
	TierMultipleChoices     Tier = "multiple_choices"
	TierCategorySuggestions Tier = "category_suggestions"
)

// Thresholds centralizes every confidence cut-off consumed by tier
// selection and the stateful routing override. Values are empirically
// tuned defaults; only the ordering is a hard contract.
type Thresholds struct {
	High       float64 // >= High: answer directly
	MediumHigh float64 // [MediumHigh, High): jump to question selection
	Medium     float64 // [Medium, MediumHigh): top collections; below: all collections

	// Override gates (see policy package)
	VeryHighGate         float64 // a score at or above this always wins over history
	MinContextConfidence float64 // history weaker than this never overrides
}

// DefaultThresholds returns the tuned production defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		High:                 0.80,
		MediumHigh:           0.65,
		Medium:               0.50,
		VeryHighGate:         0.82,
		MinContextConfidence: 0.78,
	}
}

// Validate rejects configurations that would break tier contiguity.
func (t Thresholds) Validate() error {
	if !(0 < t.Medium && t.Medium < t.MediumHigh && t.MediumHigh < t.High && t.High <= 1) {
		return fmt.Errorf("invalid tier thresholds: need 0 < medium (%.2f) < medium_high (%.2f) < high (%.2f) <= 1",
			t.Medium, t.MediumHigh, t.High)
	}
	if t.MinContextConfidence <= 0 || t.VeryHighGate <= 0 || t.VeryHighGate > 1 {
		return fmt.Errorf("invalid override gates: gate=%.2f min_context=%.2f", t.VeryHighGate, t.MinContextConfidence)
	}
	return nil
}

// TierFor maps a confidence to exactly one tier. Every confidence in
// [0,1] lands in precisely one band.
func (t Thresholds) TierFor(confidence float64) Tier {
	switch {
	case confidence >= t.High:
		return TierAutoRoute
	case confidence >= t.MediumHigh:
		return TierDocumentQuestions
	case confidence >= t.Medium:
		return TierMultipleChoices
	default:
		return TierCategorySuggestions
	}
}
