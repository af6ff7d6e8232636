package implementation

import (
	"context"
	"fmt"

	"ai-procedure-assistant-be/internal/model"
	"ai-procedure-assistant-be/internal/repository/contract"
	"ai-procedure-assistant-be/pkg/rag/catalog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CatalogRepositoryImpl struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) contract.CatalogRepository {
	return &CatalogRepositoryImpl{db: db}
}

// LoadCatalog assembles the routing catalog. Collection and document
// sort order becomes the catalog's first-seen order, which the router
// uses as its deterministic tie-break.
func (r *CatalogRepositoryImpl) LoadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	var collections []model.Collection
	if err := r.db.WithContext(ctx).Order("sort_order ASC, id ASC").Find(&collections).Error; err != nil {
		return nil, fmt.Errorf("load collections: %w", err)
	}

	var documents []model.Document
	if err := r.db.WithContext(ctx).Order("collection_id ASC, sort_order ASC, id ASC").Find(&documents).Error; err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}

	var questions []model.ReferenceQuestion
	if err := r.db.WithContext(ctx).Order("document_id ASC, sort_order ASC").Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("load reference questions: %w", err)
	}

	questionsByDoc := make(map[string][]catalog.ReferenceQuestion)
	for _, q := range questions {
		questionsByDoc[q.DocumentId] = append(questionsByDoc[q.DocumentId], catalog.ReferenceQuestion{
			Text:         q.Question,
			Embedding:    q.EmbeddingValue.Slice(),
			DocumentID:   q.DocumentId,
			CollectionID: q.CollectionId,
		})
	}

	docsByCollection := make(map[string][]catalog.Document)
	for _, d := range documents {
		metadata := make(map[string]string, len(d.Metadata))
		for k, v := range d.Metadata {
			if s, ok := v.(string); ok {
				metadata[k] = s
			}
		}
		docsByCollection[d.CollectionId] = append(docsByCollection[d.CollectionId], catalog.Document{
			ID:        d.Id,
			Title:     d.Title,
			Questions: questionsByDoc[d.Id],
			Metadata:  metadata,
		})
	}

	out := make([]catalog.Collection, 0, len(collections))
	for _, c := range collections {
		out = append(out, catalog.Collection{
			ID:        c.Id,
			Name:      c.Name,
			Documents: docsByCollection[c.Id],
		})
	}

	return catalog.New(out), nil
}

func (r *CatalogRepositoryImpl) UpsertCollections(ctx context.Context, collections []*model.Collection) error {
	if len(collections) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "sort_order", "updated_at"}),
	}).Create(collections).Error
}

func (r *CatalogRepositoryImpl) UpsertDocuments(ctx context.Context, documents []*model.Document) error {
	if len(documents) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"collection_id", "title", "sort_order", "metadata", "updated_at"}),
	}).Create(documents).Error
}

func (r *CatalogRepositoryImpl) ReplaceReferenceQuestions(ctx context.Context, collectionId string, questions []*model.ReferenceQuestion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection_id = ?", collectionId).Delete(&model.ReferenceQuestion{}).Error; err != nil {
			return err
		}
		if len(questions) == 0 {
			return nil
		}
		return tx.CreateInBatches(questions, 100).Error
	})
}
