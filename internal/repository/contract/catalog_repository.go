package contract

import (
	"context"

	"ai-procedure-assistant-be/internal/model"
	"ai-procedure-assistant-be/pkg/rag/catalog"
)

// CatalogRepository loads and rebuilds the reference-question catalog.
type CatalogRepository interface {
	// LoadCatalog reads collections, documents and reference questions
	// in sort order and assembles the in-memory routing catalog.
	LoadCatalog(ctx context.Context) (*catalog.Catalog, error)

	UpsertCollections(ctx context.Context, collections []*model.Collection) error
	UpsertDocuments(ctx context.Context, documents []*model.Document) error

	// ReplaceReferenceQuestions swaps a collection's reference questions
	// in one transaction so readers never observe a half-seeded state.
	ReplaceReferenceQuestions(ctx context.Context, collectionId string, questions []*model.ReferenceQuestion) error
}
