package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mediaforge/mediaforge/internal/config"
	"github.com/mediaforge/mediaforge/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func seedJob(t *testing.T, repo *JobRepository, mutate func(*models.Job)) *models.Job {
	t.Helper()
	job := &models.Job{
		ID:          uuid.NewString(),
		Queue:       config.QueueVideoGeneration,
		Type:        config.JobTypeTextToVideo,
		Payload:     datatypes.JSON(`{"prompt":"a cat"}`),
		Status:      string(config.JobStatusQueued),
		MaxAttempts: 3,
		AvailableAt: time.Now().UTC(),
	}
	if mutate != nil {
		mutate(job)
	}
	require.NoError(t, repo.Create(context.Background(), job))
	return job
}

func TestJobRepository_AcquireNextOrdersByPriority(t *testing.T) {
	repo := NewJobRepository(SetupTestDB(t))
	ctx := context.Background()

	low := seedJob(t, repo, func(j *models.Job) { j.Priority = 1 })
	high := seedJob(t, repo, func(j *models.Job) { j.Priority = 10 })
	mid := seedJob(t, repo, func(j *models.Job) { j.Priority = 5 })

	var order []string
	for i := 0; i < 3; i++ {
		job, err := repo.AcquireNext(ctx, config.QueueVideoGeneration, "w1")
		require.NoError(t, err)
		require.NotNil(t, job)
		order = append(order, job.ID)
	}

	assert.Equal(t, []string{high.ID, mid.ID, low.ID}, order)

	// queue drained
	job, err := repo.AcquireNext(ctx, config.QueueVideoGeneration, "w1")
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestJobRepository_AcquireNextClaimsExactlyOnce(t *testing.T) {
	repo := NewJobRepository(SetupTestDB(t))
	ctx := context.Background()

	seeded := seedJob(t, repo, nil)

	first, err := repo.AcquireNext(ctx, config.QueueVideoGeneration, "w1")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, seeded.ID, first.ID)
	assert.Equal(t, 1, first.Attempts)

	// already active: nobody else can claim it
	second, err := repo.AcquireNext(ctx, config.QueueVideoGeneration, "w2")
	require.NoError(t, err)
	assert.Nil(t, second)

	stored, err := repo.Get(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, string(config.JobStatusActive), stored.Status)
	assert.Equal(t, "w1", stored.LockedBy)
	assert.NotNil(t, stored.StartedAt)
}

func TestJobRepository_DelayedJobsWaitUntilDue(t *testing.T) {
	repo := NewJobRepository(SetupTestDB(t))
	ctx := context.Background()

	future := seedJob(t, repo, func(j *models.Job) {
		j.Status = string(config.JobStatusDelayed)
		j.AvailableAt = time.Now().UTC().Add(time.Hour)
	})
	due := seedJob(t, repo, func(j *models.Job) {
		j.Status = string(config.JobStatusDelayed)
		j.AvailableAt = time.Now().UTC().Add(-time.Second)
	})

	job, err := repo.AcquireNext(ctx, config.QueueVideoGeneration, "w1")
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, due.ID, job.ID)

	job, err = repo.AcquireNext(ctx, config.QueueVideoGeneration, "w1")
	require.NoError(t, err)
	assert.Nil(t, job, "job %s is not due yet", future.ID)
}

func TestJobRepository_QueuesAreIsolated(t *testing.T) {
	repo := NewJobRepository(SetupTestDB(t))
	ctx := context.Background()

	seedJob(t, repo, func(j *models.Job) { j.Queue = config.QueueAudioGeneration })

	job, err := repo.AcquireNext(ctx, config.QueueVideoGeneration, "w1")
	require.NoError(t, err)
	assert.Nil(t, job)

	job, err = repo.AcquireNext(ctx, config.QueueAudioGeneration, "w1")
	require.NoError(t, err)
	assert.NotNil(t, job)
}

func TestJobRepository_MarkCompletedFreezesJob(t *testing.T) {
	repo := NewJobRepository(SetupTestDB(t))
	ctx := context.Background()

	seeded := seedJob(t, repo, nil)
	_, err := repo.AcquireNext(ctx, config.QueueVideoGeneration, "w1")
	require.NoError(t, err)

	require.NoError(t, repo.MarkCompleted(ctx, seeded.ID, datatypes.JSON(`{"video_url":"http://s/v.mp4"}`)))

	stored, err := repo.Get(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, string(config.JobStatusCompleted), stored.Status)
	assert.Equal(t, 100, stored.Progress)
	assert.NotNil(t, stored.CompletedAt)

	// terminal is terminal: no second completion, no failure afterwards
	assert.Error(t, repo.MarkCompleted(ctx, seeded.ID, datatypes.JSON(`{}`)))
	assert.Error(t, repo.MarkFailed(ctx, seeded.ID, "late failure"))
}

func TestJobRepository_RetryLaterRequeuesWithDelay(t *testing.T) {
	repo := NewJobRepository(SetupTestDB(t))
	ctx := context.Background()

	seeded := seedJob(t, repo, nil)
	_, err := repo.AcquireNext(ctx, config.QueueVideoGeneration, "w1")
	require.NoError(t, err)

	at := time.Now().UTC().Add(4 * time.Second)
	require.NoError(t, repo.RetryLater(ctx, seeded.ID, at, "provider hiccup"))

	stored, err := repo.Get(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, string(config.JobStatusDelayed), stored.Status)
	assert.Equal(t, "provider hiccup", stored.Error)
	assert.Equal(t, 1, stored.Attempts, "attempts survive the requeue")

	// not claimable until the delay elapses
	job, err := repo.AcquireNext(ctx, config.QueueVideoGeneration, "w2")
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestJobRepository_UpdateProgressIsMonotonic(t *testing.T) {
	repo := NewJobRepository(SetupTestDB(t))
	ctx := context.Background()

	seeded := seedJob(t, repo, nil)
	_, err := repo.AcquireNext(ctx, config.QueueVideoGeneration, "w1")
	require.NoError(t, err)

	require.NoError(t, repo.UpdateProgress(ctx, seeded.ID, 40, "ai_processing"))
	require.NoError(t, repo.UpdateProgress(ctx, seeded.ID, 80, "uploading"))
	// a stale report must not move progress backwards
	require.NoError(t, repo.UpdateProgress(ctx, seeded.ID, 30, "ai_processing"))

	stored, err := repo.Get(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, 80, stored.Progress)
}

func TestJobRepository_UpdateProgressIgnoresSettledJobs(t *testing.T) {
	repo := NewJobRepository(SetupTestDB(t))
	ctx := context.Background()

	seeded := seedJob(t, repo, nil)
	_, err := repo.AcquireNext(ctx, config.QueueVideoGeneration, "w1")
	require.NoError(t, err)
	require.NoError(t, repo.MarkCompleted(ctx, seeded.ID, datatypes.JSON(`{"ok":true}`)))

	// a stalled duplicate of the worker reports after settlement
	require.NoError(t, repo.UpdateProgress(ctx, seeded.ID, 55, "uploading"))

	stored, err := repo.Get(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, string(config.JobStatusCompleted), stored.Status)
	assert.Equal(t, 100, stored.Progress)
	assert.Equal(t, "completed", stored.Stage)

	// same for queued jobs no worker has claimed yet
	queued := seedJob(t, repo, nil)
	require.NoError(t, repo.UpdateProgress(ctx, queued.ID, 10, "queueing"))
	stored, err = repo.Get(ctx, queued.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Progress)
}

func TestJobRepository_RemoveOnlyUnclaimed(t *testing.T) {
	repo := NewJobRepository(SetupTestDB(t))
	ctx := context.Background()

	queued := seedJob(t, repo, nil)
	require.NoError(t, repo.Remove(ctx, queued.ID))

	active := seedJob(t, repo, nil)
	_, err := repo.AcquireNext(ctx, config.QueueVideoGeneration, "w1")
	require.NoError(t, err)
	assert.Error(t, repo.Remove(ctx, active.ID), "active jobs run to completion")
}

func TestJobRepository_StalledJobRecovery(t *testing.T) {
	repo := NewJobRepository(SetupTestDB(t))
	ctx := context.Background()

	seeded := seedJob(t, repo, nil)
	_, err := repo.AcquireNext(ctx, config.QueueVideoGeneration, "w1")
	require.NoError(t, err)

	// backdate the lock to simulate a dead worker
	require.NoError(t, repo.db.Model(&models.Job{}).
		Where("id = ?", seeded.ID).
		Update("locked_at", time.Now().UTC().Add(-10*time.Minute)).Error)

	stuck, err := repo.ListStuck(ctx, 5*time.Minute)
	require.NoError(t, err)
	require.Len(t, stuck, 1)
	assert.Equal(t, seeded.ID, stuck[0].ID)

	require.NoError(t, repo.Release(ctx, seeded.ID))

	job, err := repo.AcquireNext(ctx, config.QueueVideoGeneration, "w2")
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, seeded.ID, job.ID)
	assert.Equal(t, 2, job.Attempts, "the recovery claim counts as an attempt")
}

func TestJobRepository_Stats(t *testing.T) {
	repo := NewJobRepository(SetupTestDB(t))
	ctx := context.Background()

	seedJob(t, repo, nil)
	seedJob(t, repo, nil)
	seedJob(t, repo, func(j *models.Job) { j.Status = string(config.JobStatusCompleted) })
	seedJob(t, repo, func(j *models.Job) { j.Status = string(config.JobStatusFailed) })
	seedJob(t, repo, func(j *models.Job) {
		j.Status = string(config.JobStatusDelayed)
		j.AvailableAt = time.Now().UTC().Add(time.Hour)
	})
	seedJob(t, repo, func(j *models.Job) { j.Queue = config.QueueAudioGeneration })

	stats, err := repo.Stats(ctx, config.QueueVideoGeneration)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Waiting)
	assert.Equal(t, int64(1), stats.Completed)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(1), stats.Delayed)
	assert.Equal(t, int64(0), stats.Active)
}

func TestJobRepository_ClearQueuedLeavesTerminalRows(t *testing.T) {
	repo := NewJobRepository(SetupTestDB(t))
	ctx := context.Background()

	queued := seedJob(t, repo, nil)
	done := seedJob(t, repo, func(j *models.Job) { j.Status = string(config.JobStatusCompleted) })

	require.NoError(t, repo.ClearQueued(ctx, config.QueueVideoGeneration))

	_, err := repo.Get(ctx, queued.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)

	kept, err := repo.Get(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, string(config.JobStatusCompleted), kept.Status)
}
