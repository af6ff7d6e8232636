package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// ReferenceQuestion is a pre-authored example question whose embedding
// anchors routing for its document. The seeder rebuilds these in bulk.
type ReferenceQuestion struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CollectionId   string          `gorm:"type:varchar(128);not null;index"`
	DocumentId     string          `gorm:"type:varchar(128);not null;index"`
	Question       string          `gorm:"type:text;not null"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"`
	SortOrder      int             `gorm:"not null;default:0"`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime"`
}

func (ReferenceQuestion) TableName() string {
	return "reference_questions"
}
