package rerank

import (
	"context"

	"ai-procedure-assistant-be/pkg/store"
)

// Reranker rescores retrieved chunks against the query with a
// cross-encoder. The pipeline is fully functional without one; when
// reranking fails or is absent, raw similarity ordering is used.
type Reranker interface {
	Rerank(ctx context.Context, query string, chunks []store.Chunk) ([]store.Chunk, error)
}
