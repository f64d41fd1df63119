package models

import (
	"time"

	"gorm.io/datatypes"
)

// Video is the artifact record a generation job writes into. The engine
// owns status, url, metadata and error message; the rest of the schema
// belongs to the product surface.
type Video struct {
	ID           string         `gorm:"type:varchar(36);primaryKey"`
	UserID       string         `gorm:"type:varchar(36);not null;index"`
	JobID        string         `gorm:"type:varchar(36);index"`
	Title        string         `gorm:"type:varchar(255)"`
	Status       string         `gorm:"type:varchar(20);not null;default:'QUEUED'"`
	Resolution   string         `gorm:"type:varchar(10)"`
	Duration     int            `gorm:"not null;default:0"`
	URL          string         `gorm:"type:text"`
	ThumbnailURL string         `gorm:"type:text"`
	FileSize     int64          `gorm:"not null;default:0"`
	Metadata     datatypes.JSON `gorm:"type:jsonb"`
	ErrorMessage string         `gorm:"type:text"`
	CreatedAt    time.Time      `gorm:"autoCreateTime;index"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
}

const (
	VideoStatusQueued     = "QUEUED"
	VideoStatusProcessing = "PROCESSING"
	VideoStatusCompleted  = "COMPLETED"
	VideoStatusFailed     = "FAILED"
)
