package model

import (
	"time"

	"gorm.io/datatypes"
)

// Document is one procedure guide inside a collection.
type Document struct {
	Id           string            `gorm:"type:varchar(128);primaryKey"`
	CollectionId string            `gorm:"type:varchar(128);not null;index"`
	Title        string            `gorm:"type:varchar(512);not null"`
	SortOrder    int               `gorm:"not null;default:0"`
	Metadata     datatypes.JSONMap `gorm:"type:jsonb"` // agency, fee, processing time
	CreatedAt    time.Time         `gorm:"autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"autoUpdateTime"`
}

func (Document) TableName() string {
	return "documents"
}
