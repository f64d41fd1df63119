package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mediaforge/mediaforge/internal/config"
	"github.com/mediaforge/mediaforge/internal/dto"
	"github.com/mediaforge/mediaforge/internal/models"
	"gorm.io/datatypes"
)

// Options tune one enqueue call. Zero values fall back to the queue's
// policy defaults.
type Options struct {
	// ID lets the caller fix the job id up front, so records created
	// before the enqueue (ledger entries, artifacts) can reference it.
	ID          string
	Priority    *int
	MaxAttempts int
	Delay       time.Duration
}

// Manager owns the job lifecycle for all named queues. Workers never touch
// job rows directly; every state transition goes through here.
type Manager struct {
	store    JobStore
	policies map[string]Policy

	mu     sync.RWMutex
	paused map[string]bool
}

func NewManager(store JobStore, policies map[string]Policy) *Manager {
	if policies == nil {
		policies = DefaultPolicies()
	}
	return &Manager{
		store:    store,
		policies: policies,
		paused:   make(map[string]bool),
	}
}

func (m *Manager) Policy(queue string) (Policy, bool) {
	p, ok := m.policies[queue]
	return p, ok
}

// Enqueue admits one job into a named queue and returns its id. Payload
// must marshal to JSON; queue and type must be registered.
func (m *Manager) Enqueue(ctx context.Context, queueName, jobType string, payload any, opts Options) (string, error) {
	policy, ok := m.policies[queueName]
	if !ok {
		return "", fmt.Errorf("unknown queue: %q", queueName)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}

	priority := policy.DefaultPriority
	if opts.Priority != nil {
		priority = *opts.Priority
	}
	maxAttempts := policy.MaxAttempts
	if opts.MaxAttempts > 0 {
		maxAttempts = opts.MaxAttempts
	}

	delay := opts.Delay
	if delay == 0 {
		delay = policy.EnqueueDelay
	}

	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}

	now := time.Now().UTC()
	job := &models.Job{
		ID:          id,
		Queue:       queueName,
		Type:        jobType,
		Payload:     datatypes.JSON(raw),
		Status:      string(config.JobStatusQueued),
		Priority:    priority,
		MaxAttempts: maxAttempts,
		AvailableAt: now,
	}
	if delay > 0 {
		job.Status = string(config.JobStatusDelayed)
		job.AvailableAt = now.Add(delay)
	}

	if err := m.store.Create(ctx, job); err != nil {
		return "", fmt.Errorf("enqueue %s/%s: %w", queueName, jobType, err)
	}
	return job.ID, nil
}

func (m *Manager) GetJob(ctx context.Context, id string) (*models.Job, error) {
	return m.store.Get(ctx, id)
}

// Claim hands the next ready job on the queue to a worker, or nil when
// the queue is empty or paused.
func (m *Manager) Claim(ctx context.Context, queueName, workerID string) (*dto.JobDTO, error) {
	m.mu.RLock()
	paused := m.paused[queueName]
	m.mu.RUnlock()
	if paused {
		return nil, nil
	}
	return m.store.AcquireNext(ctx, queueName, workerID)
}

// Complete marks a claimed job terminal-successful and freezes it.
func (m *Manager) Complete(ctx context.Context, id string, result any) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return m.store.MarkCompleted(ctx, id, datatypes.JSON(raw))
}

// Fail marks a claimed job terminal-failed and freezes it.
func (m *Manager) Fail(ctx context.Context, id string, cause error) error {
	return m.store.MarkFailed(ctx, id, cause.Error())
}

// Retry sends a claimed job back through the queue with the policy's
// backoff for the given attempt count. The job re-enters priority order
// like any new ready job.
func (m *Manager) Retry(ctx context.Context, queueName, id string, attempt int, cause error) error {
	policy, ok := m.policies[queueName]
	if !ok {
		return fmt.Errorf("unknown queue: %q", queueName)
	}
	at := time.Now().UTC().Add(policy.Backoff.Delay(attempt))
	return m.store.RetryLater(ctx, id, at, cause.Error())
}

// Progress records a progress update on an active job. Values regress
// never: the store keeps the running maximum.
func (m *Manager) Progress(ctx context.Context, id string, progress int, stage string) error {
	return m.store.UpdateProgress(ctx, id, progress, stage)
}

// Remove cancels a job that has not been claimed yet. Active jobs run to
// their terminal outcome and cannot be preempted.
func (m *Manager) Remove(ctx context.Context, id string) error {
	return m.store.Remove(ctx, id)
}

func (m *Manager) Pause(queueName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused[queueName] = true
}

func (m *Manager) Resume(queueName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.paused, queueName)
}

func (m *Manager) Paused(queueName string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused[queueName]
}

// Clear drops all waiting jobs from a queue. Active jobs are untouched.
func (m *Manager) Clear(ctx context.Context, queueName string) error {
	return m.store.ClearQueued(ctx, queueName)
}

func (m *Manager) Stats(ctx context.Context, queueName string) (*dto.QueueStatsDTO, error) {
	if _, ok := m.policies[queueName]; !ok {
		return nil, fmt.Errorf("unknown queue: %q", queueName)
	}
	return m.store.Stats(ctx, queueName)
}

// Health reports per-queue reachability of the backing store.
func (m *Manager) Health(ctx context.Context) map[string]bool {
	health := make(map[string]bool, len(m.policies))
	for name := range m.policies {
		_, err := m.store.Stats(ctx, name)
		health[name] = err == nil
	}
	return health
}

// RecoverStalled requeues jobs whose worker went quiet mid-processing.
// The job may still be running on a slow worker, so handlers have to be
// idempotent or compensating under a duplicate execution.
func (m *Manager) RecoverStalled(ctx context.Context, olderThan time.Duration) ([]models.Job, error) {
	stuck, err := m.store.ListStuck(ctx, olderThan)
	if err != nil {
		return nil, err
	}
	var recovered []models.Job
	for _, j := range stuck {
		if err := m.store.Release(ctx, j.ID); err != nil {
			continue
		}
		recovered = append(recovered, j)
	}
	return recovered, nil
}
