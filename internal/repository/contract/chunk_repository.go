package contract

import (
	"context"

	"ai-procedure-assistant-be/internal/model"
	"ai-procedure-assistant-be/pkg/store"
)

// ChunkRepository is the pgvector-backed chunk index.
type ChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*model.Chunk) error
	DeleteByCollection(ctx context.Context, collectionId string) error

	// FindByDocument returns a document's chunks in chunk_index order.
	FindByDocument(ctx context.Context, collectionId, documentId string) ([]store.Chunk, error)

	// SearchSimilarWithScore returns the closest chunks of one
	// collection with cosine similarity attached, best first, filtered
	// by the similarity threshold.
	SearchSimilarWithScore(ctx context.Context, collectionId string, embedding []float32, limit int, threshold float64) ([]store.Chunk, error)
}
