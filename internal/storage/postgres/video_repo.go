package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/mediaforge/mediaforge/internal/models"
	"gorm.io/gorm"
)

type VideoRepository struct {
	db *gorm.DB
}

func NewVideoRepository(db *gorm.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

func (r *VideoRepository) Create(ctx context.Context, video *models.Video) error {
	if err := r.db.WithContext(ctx).Create(video).Error; err != nil {
		return fmt.Errorf("create video: %w", err)
	}
	return nil
}

func (r *VideoRepository) Get(ctx context.Context, id string) (*models.Video, error) {
	var video models.Video
	if err := r.db.WithContext(ctx).First(&video, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("video not found: %w", err)
		}
		return nil, fmt.Errorf("get video: %w", err)
	}
	return &video, nil
}

// Delete removes an artifact record that never entered processing,
// typically while unwinding a rejected bulk request. Deleted rows no
// longer count against the daily creation quota.
func (r *VideoRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Delete(&models.Video{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	return nil
}

// UpdateFields writes engine-owned fields (status, url, metadata, error)
// into the artifact record without touching the rest of its schema.
func (r *VideoRepository) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Model(&models.Video{}).
		Where("id = ?", id).
		Updates(fields).Error; err != nil {
		return fmt.Errorf("update video: %w", err)
	}
	return nil
}
