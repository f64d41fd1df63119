package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/mediaforge/mediaforge/internal/models"
	"github.com/mediaforge/mediaforge/internal/webhook"
	"gorm.io/gorm"
)

type WebhookRepository struct {
	db *gorm.DB
}

func NewWebhookRepository(db *gorm.DB) *WebhookRepository {
	return &WebhookRepository{db: db}
}

var _ webhook.Repo = (*WebhookRepository)(nil)

func (r *WebhookRepository) Get(ctx context.Context, id string) (*models.Webhook, error) {
	var wh models.Webhook
	if err := r.db.WithContext(ctx).First(&wh, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, webhook.ErrEndpointGone
		}
		return nil, fmt.Errorf("get webhook: %w", err)
	}
	return &wh, nil
}

func (r *WebhookRepository) ListActiveForUser(ctx context.Context, userID string) ([]models.Webhook, error) {
	var hooks []models.Webhook
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND active = ?", userID, true).
		Find(&hooks).Error; err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}
	return hooks, nil
}

func (r *WebhookRepository) Create(ctx context.Context, wh *models.Webhook) error {
	if err := r.db.WithContext(ctx).Create(wh).Error; err != nil {
		return fmt.Errorf("create webhook: %w", err)
	}
	return nil
}

// GetDeliveryByJob fetches the audit record for one delivery job, creating
// is left to SaveDelivery.
func (r *WebhookRepository) GetDeliveryByJob(ctx context.Context, jobID string) (*models.WebhookDelivery, error) {
	var d models.WebhookDelivery
	if err := r.db.WithContext(ctx).First(&d, "job_id = ?", jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get delivery: %w", err)
	}
	return &d, nil
}

// SaveDelivery creates the audit record on first attempt and updates it in
// place on every retry; rows that reached a terminal status stay frozen.
func (r *WebhookRepository) SaveDelivery(ctx context.Context, d *models.WebhookDelivery) error {
	existing, err := r.GetDeliveryByJob(ctx, d.JobID)
	if err != nil {
		return err
	}
	if existing == nil {
		if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
			return fmt.Errorf("create delivery: %w", err)
		}
		return nil
	}
	if existing.Status == models.DeliveryStatusDelivered || existing.Status == models.DeliveryStatusFailed {
		return nil
	}

	d.ID = existing.ID
	d.CreatedAt = existing.CreatedAt
	if err := r.db.WithContext(ctx).Model(&models.WebhookDelivery{}).
		Where("id = ?", existing.ID).
		Updates(map[string]any{
			"response_code": d.ResponseCode,
			"response_body": d.ResponseBody,
			"status":        d.Status,
			"retry_count":   d.RetryCount,
			"next_retry_at": d.NextRetryAt,
			"delivered_at":  d.DeliveredAt,
		}).Error; err != nil {
		return fmt.Errorf("update delivery: %w", err)
	}
	return nil
}
