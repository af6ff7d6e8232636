package implementation

import (
	"context"

	"ai-procedure-assistant-be/internal/model"
	"ai-procedure-assistant-be/internal/repository/contract"
	"ai-procedure-assistant-be/pkg/store"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type ChunkRepositoryImpl struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) contract.ChunkRepository {
	return &ChunkRepositoryImpl{db: db}
}

func (r *ChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(chunks, 100).Error
}

func (r *ChunkRepositoryImpl) DeleteByCollection(ctx context.Context, collectionId string) error {
	return r.db.WithContext(ctx).Where("collection_id = ?", collectionId).Delete(&model.Chunk{}).Error
}

func (r *ChunkRepositoryImpl) FindByDocument(ctx context.Context, collectionId, documentId string) ([]store.Chunk, error) {
	type row struct {
		model.Chunk
		DocumentTitle string
	}
	var rows []row

	err := r.db.WithContext(ctx).
		Table("chunks").
		Select("chunks.*, documents.title as document_title").
		Joins("JOIN documents ON documents.id = chunks.document_id").
		Where("chunks.collection_id = ? AND chunks.document_id = ?", collectionId, documentId).
		Order("chunks.chunk_index ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	chunks := make([]store.Chunk, len(rows))
	for i, res := range rows {
		chunks[i] = toStoreChunk(&res.Chunk, res.DocumentTitle, 0)
	}
	return chunks, nil
}

// SearchSimilarWithScore computes cosine similarity in the database.
// pgvector's <=> operator is cosine distance, so similarity is its
// complement.
func (r *ChunkRepositoryImpl) SearchSimilarWithScore(ctx context.Context, collectionId string, embedding []float32, limit int, threshold float64) ([]store.Chunk, error) {
	if limit <= 0 {
		limit = 10
	}

	type row struct {
		model.Chunk
		DocumentTitle string
		Similarity    float64
	}
	var rows []row

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("chunks").
		Select("chunks.*, documents.title as document_title, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Joins("JOIN documents ON documents.id = chunks.document_id").
		Where("chunks.collection_id = ?", collectionId).
		Where("1 - (embedding_value <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	chunks := make([]store.Chunk, len(rows))
	for i, res := range rows {
		chunks[i] = toStoreChunk(&res.Chunk, res.DocumentTitle, res.Similarity)
	}
	return chunks, nil
}

func toStoreChunk(m *model.Chunk, documentTitle string, similarity float64) store.Chunk {
	return store.Chunk{
		ID:            m.Id.String(),
		CollectionID:  m.CollectionId,
		DocumentID:    m.DocumentId,
		DocumentTitle: documentTitle,
		Index:         m.ChunkIndex,
		Text:          m.Content,
		Similarity:    similarity,
	}
}
