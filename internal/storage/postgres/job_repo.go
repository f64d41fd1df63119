package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mediaforge/mediaforge/internal/config"
	"github.com/mediaforge/mediaforge/internal/dto"
	"github.com/mediaforge/mediaforge/internal/models"
	"github.com/mediaforge/mediaforge/internal/queue"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

var _ queue.JobStore = (*JobRepository)(nil)

var ErrJobNotFound = errors.New("job not found")

func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (r *JobRepository) Get(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

// AcquireNext claims the highest-priority ready job on the queue for one
// worker. The claim is a conditional UPDATE keyed on the pre-claim status,
// so two workers racing for the same row see exactly one winner; the loser
// retries against the next candidate.
func (r *JobRepository) AcquireNext(ctx context.Context, queueName, workerID string) (*dto.JobDTO, error) {
	const claimRetries = 5

	for i := 0; i < claimRetries; i++ {
		var job models.Job
		err := r.db.WithContext(ctx).
			Where("queue = ?", queueName).
			Where("status = ? OR (status = ? AND available_at <= ?)",
				string(config.JobStatusQueued), string(config.JobStatusDelayed), time.Now().UTC()).
			Order("priority DESC, available_at ASC, created_at ASC").
			First(&job).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("select next job: %w", err)
		}

		now := time.Now().UTC()
		res := r.db.WithContext(ctx).Model(&models.Job{}).
			Where("id = ? AND status = ?", job.ID, job.Status).
			Updates(map[string]any{
				"status":     string(config.JobStatusActive),
				"locked_by":  workerID,
				"locked_at":  now,
				"started_at": now,
				"attempts":   gorm.Expr("attempts + 1"),
			})
		if res.Error != nil {
			return nil, fmt.Errorf("claim job %s: %w", job.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			// Lost the race, try the next candidate.
			continue
		}

		return &dto.JobDTO{
			ID:          job.ID,
			Queue:       job.Queue,
			Type:        job.Type,
			Payload:     json.RawMessage(job.Payload),
			Priority:    job.Priority,
			Attempts:    job.Attempts + 1,
			MaxAttempts: job.MaxAttempts,
			Progress:    job.Progress,
		}, nil
	}

	return nil, nil
}

// MarkCompleted freezes an active job as terminal-successful. Terminal
// rows never transition again.
func (r *JobRepository) MarkCompleted(ctx context.Context, id string, result datatypes.JSON) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND status = ?", id, string(config.JobStatusActive)).
		Updates(map[string]any{
			"status":       string(config.JobStatusCompleted),
			"result":       result,
			"progress":     100,
			"stage":        "completed",
			"completed_at": now,
			"locked_by":    "",
			"locked_at":    nil,
		})
	if res.Error != nil {
		return fmt.Errorf("mark completed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("mark completed %s: %w", id, ErrJobNotFound)
	}
	return nil
}

func (r *JobRepository) MarkFailed(ctx context.Context, id string, errMsg string) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND status = ?", id, string(config.JobStatusActive)).
		Updates(map[string]any{
			"status":    string(config.JobStatusFailed),
			"error":     errMsg,
			"stage":     "failed",
			"failed_at": now,
			"locked_by": "",
			"locked_at": nil,
		})
	if res.Error != nil {
		return fmt.Errorf("mark failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("mark failed %s: %w", id, ErrJobNotFound)
	}
	return nil
}

// RetryLater sends an active job back to the delayed set; it becomes
// claimable again at the given time.
func (r *JobRepository) RetryLater(ctx context.Context, id string, at time.Time, errMsg string) error {
	res := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND status = ?", id, string(config.JobStatusActive)).
		Updates(map[string]any{
			"status":       string(config.JobStatusDelayed),
			"available_at": at.UTC(),
			"error":        errMsg,
			"locked_by":    "",
			"locked_at":    nil,
		})
	if res.Error != nil {
		return fmt.Errorf("retry later: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("retry later %s: %w", id, ErrJobNotFound)
	}
	return nil
}

// UpdateProgress records a progress value without ever letting it regress.
// Only active jobs accept reports; a late report from a worker whose job
// was already settled (or reclaimed after a stall) is silently dropped.
func (r *JobRepository) UpdateProgress(ctx context.Context, id string, progress int, stage string) error {
	if err := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND status = ?", id, string(config.JobStatusActive)).
		Updates(map[string]any{
			"progress": gorm.Expr("CASE WHEN progress < ? THEN ? ELSE progress END", progress, progress),
			"stage":    stage,
		}).Error; err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

// Remove deletes a job that has not been claimed yet.
func (r *JobRepository) Remove(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status IN ?", id,
			[]string{string(config.JobStatusQueued), string(config.JobStatusDelayed)}).
		Delete(&models.Job{})
	if res.Error != nil {
		return fmt.Errorf("remove job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("remove job %s: not removable", id)
	}
	return nil
}

func (r *JobRepository) ClearQueued(ctx context.Context, queueName string) error {
	if err := r.db.WithContext(ctx).
		Where("queue = ? AND status IN ?", queueName,
			[]string{string(config.JobStatusQueued), string(config.JobStatusDelayed)}).
		Delete(&models.Job{}).Error; err != nil {
		return fmt.Errorf("clear queue: %w", err)
	}
	return nil
}

func (r *JobRepository) Stats(ctx context.Context, queueName string) (*dto.QueueStatsDTO, error) {
	type row struct {
		Status string
		N      int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).Model(&models.Job{}).
		Select("status, count(*) as n").
		Where("queue = ?", queueName).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}

	stats := &dto.QueueStatsDTO{}
	for _, r := range rows {
		switch config.JobStatus(r.Status) {
		case config.JobStatusQueued:
			stats.Waiting = r.N
		case config.JobStatusActive:
			stats.Active = r.N
		case config.JobStatusCompleted:
			stats.Completed = r.N
		case config.JobStatusFailed:
			stats.Failed = r.N
		case config.JobStatusDelayed:
			stats.Delayed = r.N
		}
	}
	return stats, nil
}

// ListStuck returns active jobs whose lock went stale: the worker died, or
// is slow enough that the lease expired.
func (r *JobRepository) ListStuck(ctx context.Context, olderThan time.Duration) ([]models.Job, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	var jobs []models.Job
	if err := r.db.WithContext(ctx).
		Where("status = ? AND locked_at < ?", string(config.JobStatusActive), cutoff).
		Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("list stuck jobs: %w", err)
	}
	return jobs, nil
}

// Release puts a stalled active job back into the ready set. The original
// worker may still be running it; handlers must tolerate the duplicate.
func (r *JobRepository) Release(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND status = ?", id, string(config.JobStatusActive)).
		Updates(map[string]any{
			"status":       string(config.JobStatusQueued),
			"available_at": time.Now().UTC(),
			"locked_by":    "",
			"locked_at":    nil,
		})
	if res.Error != nil {
		return fmt.Errorf("release job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("release job %s: %w", id, ErrJobNotFound)
	}
	return nil
}
