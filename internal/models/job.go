package models

import (
	"time"

	"gorm.io/datatypes"
)

// Job is the unit of queued work. It is owned by the queue manager: workers
// mutate it only through repository calls, never by writing fields directly.
type Job struct {
	ID          string         `gorm:"type:varchar(36);primaryKey"`
	Queue       string         `gorm:"type:varchar(64);not null;index:idx_jobs_claim,priority:1"`
	Type        string         `gorm:"type:varchar(64);not null"`
	Payload     datatypes.JSON `gorm:"type:jsonb"`
	Status      string         `gorm:"type:varchar(20);not null;default:'queued';index:idx_jobs_claim,priority:2"`
	Priority    int            `gorm:"not null;default:0"`
	Attempts    int            `gorm:"not null;default:0"`
	MaxAttempts int            `gorm:"not null;default:3"`
	Progress    int            `gorm:"not null;default:0"`
	Stage       string         `gorm:"type:varchar(64)"`
	Result      datatypes.JSON `gorm:"type:jsonb"`
	Error       string         `gorm:"type:text"`
	LockedBy    string         `gorm:"type:varchar(64)"`
	LockedAt    *time.Time
	AvailableAt time.Time `gorm:"not null;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
	StartedAt   *time.Time
	CompletedAt *time.Time
	FailedAt    *time.Time
}
