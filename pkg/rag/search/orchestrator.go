package search

import (
	"context"
	"fmt"
	"log"

	"ai-procedure-assistant-be/pkg/rerank"
	"ai-procedure-assistant-be/pkg/store"
)

// ChunkSearcher runs a vector similarity search inside one collection.
type ChunkSearcher interface {
	SearchSimilarWithScore(ctx context.Context, collectionID string, vector []float32, topK int, minSimilarity float64) ([]store.Chunk, error)
}

// Orchestrator handles vector search and candidate filtering
type Orchestrator struct {
	searcher ChunkSearcher
	reranker rerank.Reranker
	logger   *log.Logger
}

// NewOrchestrator creates a new search orchestrator. The reranker is optional
// and may be nil, in which case raw similarity ordering is kept.
func NewOrchestrator(searcher ChunkSearcher, reranker rerank.Reranker, logger *log.Logger) *Orchestrator {
	return &Orchestrator{
		searcher: searcher,
		reranker: reranker,
		logger:   logger,
	}
}

// Config encapsulates search parameters
type Config struct {
	DBThreshold    float64
	LogicThreshold float64
	TopK           int
}

// DefaultConfig returns default search configuration
func DefaultConfig() Config {
	return Config{
		DBThreshold:    0.0,
		LogicThreshold: 0.35,
		TopK:           10,
	}
}

// Execute runs vector search scoped to a single collection and returns
// filtered, rerank-ordered candidate chunks.
func (o *Orchestrator) Execute(
	ctx context.Context,
	collectionID string,
	query string,
	vector []float32,
	config Config,
) ([]store.Chunk, error) {

	scored, err := o.searcher.SearchSimilarWithScore(ctx, collectionID, vector, config.TopK, config.DBThreshold)
	if err != nil {
		o.logger.Printf("[ERROR] Vector search failed: %v", err)
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	o.logger.Printf("[DEBUG] Raw search results: %d chunks", len(scored))

	candidates := o.filterCandidates(scored, config.LogicThreshold)

	o.logger.Printf("[DEBUG] Filtered candidates: %d chunks", len(candidates))

	if o.reranker != nil && len(candidates) > 1 {
		reranked, err := o.reranker.Rerank(ctx, query, candidates)
		if err != nil {
			o.logger.Printf("[WARN] Rerank failed, keeping similarity order: %v", err)
			return candidates, nil
		}
		candidates = reranked
	}

	return candidates, nil
}

func (o *Orchestrator) filterCandidates(results []store.Chunk, threshold float64) []store.Chunk {
	var candidates []store.Chunk

	for i, res := range results {
		if res.Similarity >= threshold {
			candidates = append(candidates, res)
			o.logger.Printf("[DEBUG] Candidate %d: Score=%.4f [KEEP]", i+1, res.Similarity)
		} else {
			o.logger.Printf("[DEBUG] Candidate %d: Score=%.4f [FILTERED]", i+1, res.Similarity)
		}
	}

	return candidates
}
