package models

import "time"

type User struct {
	ID        string `gorm:"type:varchar(36);primaryKey"`
	Email     string `gorm:"type:varchar(255);uniqueIndex;not null"`
	Credits   int64  `gorm:"not null;default:0"`
	Tier      string `gorm:"type:varchar(20);not null;default:'FREE'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreditEntry is one signed movement on a user's balance. Every terminal
// job failure carries exactly one compensating refund entry whose magnitude
// equals the original admission debit.
type CreditEntry struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	UserID    string `gorm:"type:varchar(36);not null;index"`
	Amount    int64  `gorm:"not null"`
	Reason    string `gorm:"type:varchar(32);not null"`
	JobID     string `gorm:"type:varchar(36);index"`
	CreatedAt time.Time
}
