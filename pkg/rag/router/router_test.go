package router

import (
	"io"
	"log"
	"math"
	"testing"

	"ai-procedure-assistant-be/pkg/rag/catalog"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func question(doc, col string, embedding []float32, text string) catalog.ReferenceQuestion {
	return catalog.ReferenceQuestion{Text: text, Embedding: embedding, DocumentID: doc, CollectionID: col}
}

func newRouterWith(collections []catalog.Collection) *Router {
	return NewRouter(catalog.NewProvider(catalog.New(collections)), testLogger())
}

func TestRoutePicksBestCollection(t *testing.T) {
	r := newRouterWith([]catalog.Collection{
		{
			ID: "ho_tich_cap_xa",
			Documents: []catalog.Document{{
				ID: "dang_ky_khai_sinh",
				Questions: []catalog.ReferenceQuestion{
					question("dang_ky_khai_sinh", "ho_tich_cap_xa", []float32{1, 0, 0}, "thủ tục khai sinh"),
				},
			}},
		},
		{
			ID: "cu_tru",
			Documents: []catalog.Document{{
				ID: "dang_ky_thuong_tru",
				Questions: []catalog.ReferenceQuestion{
					question("dang_ky_thuong_tru", "cu_tru", []float32{0, 1, 0}, "đăng ký thường trú"),
				},
			}},
		},
	})

	// Cosine 0.9 against ho_tich, ~0.436 against cu_tru.
	res := r.Route([]float32{0.9, float32(math.Sqrt(1 - 0.81)), 0})

	if res.TargetCollection != "ho_tich_cap_xa" {
		t.Fatalf("TargetCollection = %s, want ho_tich_cap_xa", res.TargetCollection)
	}
	if math.Abs(res.Confidence-0.9) > 1e-6 {
		t.Errorf("Confidence = %v, want ~0.9", res.Confidence)
	}
	if res.MatchedReference != "thủ tục khai sinh" {
		t.Errorf("MatchedReference = %q", res.MatchedReference)
	}
	if res.SourceDocument != "dang_ky_khai_sinh" {
		t.Errorf("SourceDocument = %q", res.SourceDocument)
	}
	if len(res.AllScores) != 2 {
		t.Errorf("AllScores has %d entries, want 2", len(res.AllScores))
	}
	if res.WasOverridden {
		t.Error("router must never set WasOverridden")
	}
}

func TestRouteTieBreaks(t *testing.T) {
	// Both collections contain an identical reference vector, so their
	// best scores are exactly equal.
	shared := []float32{1, 0, 0}

	t.Run("more questions wins", func(t *testing.T) {
		r := newRouterWith([]catalog.Collection{
			{
				ID: "small",
				Documents: []catalog.Document{{
					ID:        "a",
					Questions: []catalog.ReferenceQuestion{question("a", "small", shared, "q1")},
				}},
			},
			{
				ID: "large",
				Documents: []catalog.Document{{
					ID: "b",
					Questions: []catalog.ReferenceQuestion{
						question("b", "large", shared, "q2"),
						question("b", "large", []float32{0, 1, 0}, "q3"),
					},
				}},
			},
		})

		if res := r.Route(shared); res.TargetCollection != "large" {
			t.Errorf("TargetCollection = %s, want large (more reference questions)", res.TargetCollection)
		}
	})

	t.Run("equal questions keeps catalog order", func(t *testing.T) {
		r := newRouterWith([]catalog.Collection{
			{
				ID: "first",
				Documents: []catalog.Document{{
					ID:        "a",
					Questions: []catalog.ReferenceQuestion{question("a", "first", shared, "q1")},
				}},
			},
			{
				ID: "second",
				Documents: []catalog.Document{{
					ID:        "b",
					Questions: []catalog.ReferenceQuestion{question("b", "second", shared, "q2")},
				}},
			},
		})

		if res := r.Route(shared); res.TargetCollection != "first" {
			t.Errorf("TargetCollection = %s, want first (catalog order)", res.TargetCollection)
		}
	})
}

func TestRouteSkipsEmptyCollections(t *testing.T) {
	r := newRouterWith([]catalog.Collection{
		{ID: "empty"},
		{
			ID: "populated",
			Documents: []catalog.Document{{
				ID:        "doc",
				Questions: []catalog.ReferenceQuestion{question("doc", "populated", []float32{1, 0, 0}, "q")},
			}},
		},
	})

	res := r.Route([]float32{1, 0, 0})
	if res.TargetCollection != "populated" {
		t.Fatalf("TargetCollection = %s, want populated", res.TargetCollection)
	}
	if _, ok := res.AllScores["empty"]; ok {
		t.Error("empty collection must not appear in AllScores")
	}
}

func TestRouteAllCollectionsEmpty(t *testing.T) {
	r := newRouterWith([]catalog.Collection{{ID: "a"}, {ID: "b"}})

	res := r.Route([]float32{1, 0, 0})
	if res.TargetCollection != "" {
		t.Errorf("TargetCollection = %q, want empty", res.TargetCollection)
	}
	if res.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", res.Confidence)
	}
	if len(res.AllScores) != 0 {
		t.Errorf("AllScores has %d entries, want 0", len(res.AllScores))
	}
}

func TestRoutingResultClone(t *testing.T) {
	orig := &RoutingResult{
		TargetCollection: "cu_tru",
		Confidence:       0.7,
		AllScores:        map[string]float64{"cu_tru": 0.7},
	}

	c := orig.Clone()
	c.TargetCollection = "ho_tich_cap_xa"
	c.AllScores["ho_tich_cap_xa"] = 0.9

	if orig.TargetCollection != "cu_tru" {
		t.Error("Clone() shares the struct with its source")
	}
	if len(orig.AllScores) != 1 {
		t.Error("Clone() shares the score map with its source")
	}
}
