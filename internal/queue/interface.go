package queue

import (
	"context"
	"time"

	"github.com/mediaforge/mediaforge/internal/dto"
	"github.com/mediaforge/mediaforge/internal/models"
	"gorm.io/datatypes"
)

// JobStore is the persistence contract the queue manager runs on. The
// backing store is the sole arbiter of job ownership: AcquireNext must
// hand a ready job to at most one caller.
type JobStore interface {
	Create(ctx context.Context, job *models.Job) error
	Get(ctx context.Context, id string) (*models.Job, error)
	AcquireNext(ctx context.Context, queue, workerID string) (*dto.JobDTO, error)
	MarkCompleted(ctx context.Context, id string, result datatypes.JSON) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
	RetryLater(ctx context.Context, id string, at time.Time, errMsg string) error
	UpdateProgress(ctx context.Context, id string, progress int, stage string) error
	Remove(ctx context.Context, id string) error
	ClearQueued(ctx context.Context, queue string) error
	Stats(ctx context.Context, queue string) (*dto.QueueStatsDTO, error)
	ListStuck(ctx context.Context, olderThan time.Duration) ([]models.Job, error)
	Release(ctx context.Context, id string) error
}
