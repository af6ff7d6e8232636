package model

import (
	"time"
)

// Collection is a topical grouping of procedure documents. IDs are
// stable slugs (e.g. "ho_tich_cap_xa") referenced by routing results,
// so they are never regenerated.
type Collection struct {
	Id          string    `gorm:"type:varchar(128);primaryKey"`
	Name        string    `gorm:"type:varchar(255);not null"`
	Description string    `gorm:"type:text"`
	SortOrder   int       `gorm:"not null;default:0;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (Collection) TableName() string {
	return "collections"
}
