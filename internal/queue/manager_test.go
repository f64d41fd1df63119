package queue

import (
	"context"
	"testing"
	"time"

	"github.com/mediaforge/mediaforge/internal/config"
	"github.com/mediaforge/mediaforge/internal/dto"
	"github.com/mediaforge/mediaforge/internal/mocks"
	"github.com/mediaforge/mediaforge/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestManager_Enqueue(t *testing.T) {
	highPriority := 10

	tests := []struct {
		name      string
		queueName string
		payload   any
		opts      Options
		setupMock func(*mocks.JobStoreMock)
		wantErr   string
	}{
		{
			name:      "unknown queue is rejected",
			queueName: "no-such-queue",
			payload:   map[string]string{},
			wantErr:   "unknown queue",
		},
		{
			name:      "unencodable payload is rejected",
			queueName: config.QueueVideoGeneration,
			payload:   make(chan int),
			wantErr:   "encode payload",
		},
		{
			name:      "policy defaults apply",
			queueName: config.QueueVideoGeneration,
			payload:   map[string]string{"prompt": "a cat"},
			setupMock: func(m *mocks.JobStoreMock) {
				m.On("Create", mock.Anything, mock.MatchedBy(func(job *models.Job) bool {
					return job.Queue == config.QueueVideoGeneration &&
						job.Status == string(config.JobStatusQueued) &&
						job.Priority == 5 &&
						job.MaxAttempts == 3 &&
						job.ID != ""
				})).Return(nil)
			},
		},
		{
			name:      "explicit priority and id win over defaults",
			queueName: config.QueueVideoGeneration,
			payload:   map[string]string{},
			opts:      Options{ID: "fixed-id", Priority: &highPriority},
			setupMock: func(m *mocks.JobStoreMock) {
				m.On("Create", mock.Anything, mock.MatchedBy(func(job *models.Job) bool {
					return job.ID == "fixed-id" && job.Priority == 10
				})).Return(nil)
			},
		},
		{
			name:      "delayed enqueue lands in delayed status",
			queueName: config.QueueVideoGeneration,
			payload:   map[string]string{},
			opts:      Options{Delay: time.Minute},
			setupMock: func(m *mocks.JobStoreMock) {
				m.On("Create", mock.Anything, mock.MatchedBy(func(job *models.Job) bool {
					return job.Status == string(config.JobStatusDelayed) &&
						job.AvailableAt.After(time.Now().UTC().Add(30*time.Second))
				})).Return(nil)
			},
		},
		{
			name:      "bulk queue applies its enqueue delay",
			queueName: config.QueueBulkOperations,
			payload:   map[string]string{},
			setupMock: func(m *mocks.JobStoreMock) {
				m.On("Create", mock.Anything, mock.MatchedBy(func(job *models.Job) bool {
					return job.Status == string(config.JobStatusDelayed)
				})).Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(mocks.JobStoreMock)
			if tt.setupMock != nil {
				tt.setupMock(store)
			}
			m := NewManager(store, DefaultPolicies())

			id, err := m.Enqueue(context.Background(), tt.queueName, config.JobTypeTextToVideo, tt.payload, tt.opts)

			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.NotEmpty(t, id)
			store.AssertExpectations(t)
		})
	}
}

func TestManager_PausedQueueStopsClaims(t *testing.T) {
	store := new(mocks.JobStoreMock)
	m := NewManager(store, DefaultPolicies())

	m.Pause(config.QueueVideoGeneration)

	job, err := m.Claim(context.Background(), config.QueueVideoGeneration, "w1")
	assert.NoError(t, err)
	assert.Nil(t, job)
	store.AssertNotCalled(t, "AcquireNext", mock.Anything, mock.Anything, mock.Anything)

	m.Resume(config.QueueVideoGeneration)
	store.On("AcquireNext", mock.Anything, config.QueueVideoGeneration, "w1").
		Return(&dto.JobDTO{ID: "j1"}, nil)

	job, err = m.Claim(context.Background(), config.QueueVideoGeneration, "w1")
	assert.NoError(t, err)
	assert.Equal(t, "j1", job.ID)
}

func TestManager_PauseIsPerQueue(t *testing.T) {
	store := new(mocks.JobStoreMock)
	m := NewManager(store, DefaultPolicies())

	m.Pause(config.QueueVideoGeneration)

	assert.True(t, m.Paused(config.QueueVideoGeneration))
	assert.False(t, m.Paused(config.QueueAudioGeneration))

	store.On("AcquireNext", mock.Anything, config.QueueAudioGeneration, "w1").
		Return(nil, nil)
	_, err := m.Claim(context.Background(), config.QueueAudioGeneration, "w1")
	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func TestManager_RetryUsesPolicyBackoff(t *testing.T) {
	store := new(mocks.JobStoreMock)
	m := NewManager(store, DefaultPolicies())

	// attempt index 1 on the video queue: 2s * 2^1 = 4s
	before := time.Now().UTC()
	store.On("RetryLater", mock.Anything, "j1", mock.MatchedBy(func(at time.Time) bool {
		delay := at.Sub(before)
		return delay >= 4*time.Second && delay < 5*time.Second
	}), assert.AnError.Error()).Return(nil)

	err := m.Retry(context.Background(), config.QueueVideoGeneration, "j1", 1, assert.AnError)
	assert.NoError(t, err)
	store.AssertExpectations(t)

	err = m.Retry(context.Background(), "no-such-queue", "j1", 1, assert.AnError)
	assert.ErrorContains(t, err, "unknown queue")
}

func TestManager_HealthCoversAllQueues(t *testing.T) {
	store := new(mocks.JobStoreMock)
	m := NewManager(store, DefaultPolicies())
	store.On("Stats", mock.Anything, mock.Anything).Return(&dto.QueueStatsDTO{}, nil)

	health := m.Health(context.Background())

	assert.Len(t, health, 4)
	for name, ok := range health {
		assert.True(t, ok, name)
	}
}
