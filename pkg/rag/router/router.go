package router

import (
	"log"

	"ai-procedure-assistant-be/pkg/rag/catalog"
)

// RoutingResult is the outcome of scoring a query against every
// collection. All scores live in [0,1]. An empty TargetCollection
// means nothing matched at all.
type RoutingResult struct {
	TargetCollection string             `json:"target_collection,omitempty"`
	Confidence       float64            `json:"confidence"`
	AllScores        map[string]float64 `json:"all_scores"`
	MatchedReference string             `json:"matched_reference,omitempty"`
	SourceDocument   string             `json:"source_document,omitempty"`

	// Set by the stateful routing policy when session context replaced
	// a weak standalone routing decision.
	WasOverridden      bool    `json:"was_overridden,omitempty"`
	OriginalConfidence float64 `json:"original_confidence,omitempty"`
}

// Clone returns an independent copy, including the score map.
func (r *RoutingResult) Clone() *RoutingResult {
	c := *r
	c.AllScores = make(map[string]float64, len(r.AllScores))
	for k, v := range r.AllScores {
		c.AllScores[k] = v
	}
	return &c
}

// Router scores query vectors against the reference-question index.
// Route is a pure function of the vector and the active catalog.
type Router struct {
	catalogs *catalog.Provider
	logger   *log.Logger
}

// NewRouter creates a confidence router over the given catalog provider.
func NewRouter(catalogs *catalog.Provider, logger *log.Logger) *Router {
	return &Router{catalogs: catalogs, logger: logger}
}

// Route computes, for each collection, the max cosine similarity of
// the query vector against every reference question and picks the
// global best. Ties prefer the collection with more reference
// questions, then first-seen catalog order, so results are
// deterministic. Collections without reference vectors are skipped.
func (r *Router) Route(vector []float32) *RoutingResult {
	cat := r.catalogs.Current()
	result := &RoutingResult{AllScores: make(map[string]float64)}

	bestScore := -1.0
	bestQuestions := 0

	for i := range cat.Collections() {
		col := &cat.Collections()[i]
		total := col.QuestionCount()
		if total == 0 {
			continue
		}

		colBest := 0.0
		var colRef *catalog.ReferenceQuestion
		for d := range col.Documents {
			doc := &col.Documents[d]
			for q := range doc.Questions {
				ref := &doc.Questions[q]
				if s := catalog.Cosine(vector, ref.Embedding); s > colBest || colRef == nil {
					colBest = s
					colRef = ref
				}
			}
		}
		result.AllScores[col.ID] = colBest

		better := colBest > bestScore ||
			(colBest == bestScore && total > bestQuestions)
		if better {
			bestScore = colBest
			bestQuestions = total
			result.TargetCollection = col.ID
			result.Confidence = colBest
			result.MatchedReference = colRef.Text
			result.SourceDocument = colRef.DocumentID
		}
	}

	if bestScore < 0 {
		// Every collection was empty
		result.TargetCollection = ""
		result.Confidence = 0.0
	}

	r.logger.Printf("[ROUTER] Best: %s (%.4f) across %d collections",
		result.TargetCollection, result.Confidence, len(result.AllScores))

	return result
}
