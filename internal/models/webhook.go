package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

type Webhook struct {
	ID        string `gorm:"type:varchar(36);primaryKey"`
	UserID    string `gorm:"type:varchar(36);not null;index"`
	URL       string `gorm:"type:text;not null"`
	Secret    string `gorm:"type:varchar(255)"`
	Active    bool   `gorm:"not null;default:true"`
	Events    string `gorm:"type:text"` // comma-separated event filter, empty means all
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WantsEvent reports whether the endpoint subscribed to the event type.
// An empty filter subscribes to everything.
func (w *Webhook) WantsEvent(eventType string) bool {
	if strings.TrimSpace(w.Events) == "" {
		return true
	}
	for _, e := range strings.Split(w.Events, ",") {
		if strings.TrimSpace(e) == eventType {
			return true
		}
	}
	return false
}

// WebhookDelivery is the audit record for one webhook event. It is created
// on the first attempt and updated in place on each retry; once delivered
// or attempts are exhausted it is never touched again.
type WebhookDelivery struct {
	ID           uint           `gorm:"primaryKey;autoIncrement"`
	WebhookID    string         `gorm:"type:varchar(36);not null;index"`
	JobID        string         `gorm:"type:varchar(36);uniqueIndex"`
	EventType    string         `gorm:"type:varchar(64);not null"`
	Payload      datatypes.JSON `gorm:"type:jsonb"`
	ResponseCode int            `gorm:"not null;default:0"`
	ResponseBody string         `gorm:"type:varchar(1000)"`
	Status       string         `gorm:"type:varchar(20);not null;default:'retrying'"`
	RetryCount   int            `gorm:"not null;default:0"`
	NextRetryAt  *time.Time
	DeliveredAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const (
	DeliveryStatusDelivered = "delivered"
	DeliveryStatusRetrying  = "retrying"
	DeliveryStatusFailed    = "failed"
)
