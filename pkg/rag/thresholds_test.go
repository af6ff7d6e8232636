package rag

import "testing"

func TestTierFor(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name       string
		confidence float64
		want       Tier
	}{
		{"perfect match", 1.00, TierAutoRoute},
		{"exactly high", 0.80, TierAutoRoute},
		{"just below high", 0.7999, TierDocumentQuestions},
		{"exactly medium high", 0.65, TierDocumentQuestions},
		{"just below medium high", 0.6499, TierMultipleChoices},
		{"exactly medium", 0.50, TierMultipleChoices},
		{"just below medium", 0.4999, TierCategorySuggestions},
		{"zero confidence", 0.00, TierCategorySuggestions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := th.TierFor(tt.confidence); got != tt.want {
				t.Errorf("TierFor(%v) = %v, want %v", tt.confidence, got, tt.want)
			}
		})
	}
}

// Every confidence must land in exactly one band and bands must be
// monotonically ordered as confidence rises.
func TestTierForContiguity(t *testing.T) {
	th := DefaultThresholds()
	order := map[Tier]int{
		TierCategorySuggestions: 0,
		TierMultipleChoices:     1,
		TierDocumentQuestions:   2,
		TierAutoRoute:           3,
	}

	prev := -1
	for i := 0; i <= 100; i++ {
		c := float64(i) / 100
		rank, ok := order[th.TierFor(c)]
		if !ok {
			t.Fatalf("TierFor(%v) returned unknown tier", c)
		}
		if rank < prev {
			t.Fatalf("tier rank decreased at confidence %v", c)
		}
		prev = rank
	}
	if prev != order[TierAutoRoute] {
		t.Fatalf("confidence 1.0 did not reach auto_route")
	}
}

func TestThresholdsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Thresholds)
		wantErr bool
	}{
		{"defaults are valid", func(t *Thresholds) {}, false},
		{"medium above medium high", func(t *Thresholds) { t.Medium = 0.70 }, true},
		{"medium high above high", func(t *Thresholds) { t.MediumHigh = 0.85 }, true},
		{"high above one", func(t *Thresholds) { t.High = 1.10 }, true},
		{"zero medium", func(t *Thresholds) { t.Medium = 0 }, true},
		{"zero gate", func(t *Thresholds) { t.VeryHighGate = 0 }, true},
		{"gate above one", func(t *Thresholds) { t.VeryHighGate = 1.2 }, true},
		{"zero min context", func(t *Thresholds) { t.MinContextConfidence = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := DefaultThresholds()
			tt.mutate(&th)
			err := th.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
