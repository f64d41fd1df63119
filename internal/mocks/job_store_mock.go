package mocks

import (
	"context"
	"time"

	"github.com/mediaforge/mediaforge/internal/dto"
	"github.com/mediaforge/mediaforge/internal/models"
	"github.com/stretchr/testify/mock"
	"gorm.io/datatypes"
)

type JobStoreMock struct {
	mock.Mock
}

func (m *JobStoreMock) Create(ctx context.Context, job *models.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *JobStoreMock) Get(ctx context.Context, id string) (*models.Job, error) {
	args := m.Called(ctx, id)

	job, _ := args.Get(0).(*models.Job)
	return job, args.Error(1)
}

func (m *JobStoreMock) AcquireNext(ctx context.Context, queue, workerID string) (*dto.JobDTO, error) {
	args := m.Called(ctx, queue, workerID)

	job, _ := args.Get(0).(*dto.JobDTO)
	return job, args.Error(1)
}

func (m *JobStoreMock) MarkCompleted(ctx context.Context, id string, result datatypes.JSON) error {
	args := m.Called(ctx, id, result)
	return args.Error(0)
}

func (m *JobStoreMock) MarkFailed(ctx context.Context, id string, errMsg string) error {
	args := m.Called(ctx, id, errMsg)
	return args.Error(0)
}

func (m *JobStoreMock) RetryLater(ctx context.Context, id string, at time.Time, errMsg string) error {
	args := m.Called(ctx, id, at, errMsg)
	return args.Error(0)
}

func (m *JobStoreMock) UpdateProgress(ctx context.Context, id string, progress int, stage string) error {
	args := m.Called(ctx, id, progress, stage)
	return args.Error(0)
}

func (m *JobStoreMock) Remove(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *JobStoreMock) ClearQueued(ctx context.Context, queue string) error {
	args := m.Called(ctx, queue)
	return args.Error(0)
}

func (m *JobStoreMock) Stats(ctx context.Context, queue string) (*dto.QueueStatsDTO, error) {
	args := m.Called(ctx, queue)

	stats, _ := args.Get(0).(*dto.QueueStatsDTO)
	return stats, args.Error(1)
}

func (m *JobStoreMock) ListStuck(ctx context.Context, olderThan time.Duration) ([]models.Job, error) {
	args := m.Called(ctx, olderThan)

	jobs, _ := args.Get(0).([]models.Job)
	return jobs, args.Error(1)
}

func (m *JobStoreMock) Release(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
