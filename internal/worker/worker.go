package worker

import (
	"context"
	"log"
	"time"

	"github.com/mediaforge/mediaforge/internal/config"
	"github.com/mediaforge/mediaforge/internal/credits"
	"github.com/mediaforge/mediaforge/internal/dto"
	"github.com/mediaforge/mediaforge/internal/models"
	"github.com/mediaforge/mediaforge/internal/progress"
	"github.com/mediaforge/mediaforge/internal/provider"
	"github.com/mediaforge/mediaforge/internal/queue"
	"github.com/mediaforge/mediaforge/internal/upload"
)

// EventEmitter fans a lifecycle event out to the user's webhook
// endpoints. webhook.Service satisfies it.
type EventEmitter interface {
	Emit(ctx context.Context, userID, eventType string, data any)
}

// ArtifactStore updates persisted media records as jobs move through
// their lifecycle.
type ArtifactStore interface {
	UpdateFields(ctx context.Context, id string, fields map[string]any) error
}

// BlobStore moves artifact bytes: download from a provider URL, upload to
// our own content store. upload.Client satisfies it.
type BlobStore interface {
	Upload(ctx context.Context, data []byte, name, ownerID string) (*upload.Result, error)
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Deps is everything a worker needs to run jobs to a terminal outcome.
type Deps struct {
	Queues     *queue.Manager
	Dispatcher *Dispatcher
	Credits    *credits.Service
	Progress   progress.Publisher
	Emitter    EventEmitter
	Videos     ArtifactStore
	Providers  *provider.Registry
	Uploads    BlobStore
}

// Worker pulls jobs from one queue and runs them. Each worker owns a
// single goroutine; concurrency per queue comes from the pool spawning
// several of them.
type Worker struct {
	id    string
	queue string
	deps  Deps
	quit  chan struct{}
}

func NewWorker(id, queueName string, deps Deps) *Worker {
	return &Worker{id: id, queue: queueName, deps: deps, quit: make(chan struct{})}
}

func (w *Worker) Start(ctx context.Context) {
	go func() {
		currentDelay := 1 * time.Second
		maxDelay := 30 * time.Second

		for {
			job, err := w.deps.Queues.Claim(ctx, w.queue, w.id)
			if err != nil {
				log.Printf("worker %s: claim: %v", w.id, err)
			}

			if job != nil {
				w.Process(ctx, job)
				currentDelay = 1 * time.Second
				continue
			}
			currentDelay = min(currentDelay*2, maxDelay)

			select {
			case <-time.After(currentDelay):
			case <-w.quit:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (w *Worker) Stop() { close(w.quit) }

// Process runs one claimed job to a settled state: completed, requeued
// for another attempt, or failed with compensation.
func (w *Worker) Process(ctx context.Context, job *dto.JobDTO) {
	meta := metaOf(job.Payload)
	lastProgress := job.Progress

	wrapped := &Job{
		JobDTO: job,
		report: func(p int, stage string) {
			if err := w.deps.Queues.Progress(ctx, job.ID, p, stage); err != nil {
				log.Printf("worker %s: progress %s: %v", w.id, job.ID, err)
			}
			if p > lastProgress {
				lastProgress = p
			}
			w.publish(meta, progress.Event{
				JobID:     job.ID,
				VideoID:   meta.VideoID,
				Progress:  lastProgress,
				Stage:     stage,
				Timestamp: time.Now().UTC(),
			})
		},
	}

	result, err := w.deps.Dispatcher.Dispatch(ctx, wrapped)
	if err == nil {
		if err := w.deps.Queues.Complete(ctx, job.ID, result); err != nil {
			log.Printf("worker %s: complete %s: %v", w.id, job.ID, err)
		}
		return
	}

	if provider.Retryable(err) && job.Attempts < job.MaxAttempts {
		log.Printf("worker %s: job %s attempt %d/%d failed, retrying: %v",
			w.id, job.ID, job.Attempts, job.MaxAttempts, err)
		if rerr := w.deps.Queues.Retry(ctx, job.Queue, job.ID, job.Attempts-1, err); rerr != nil {
			log.Printf("worker %s: retry %s: %v", w.id, job.ID, rerr)
		}
		return
	}

	w.fail(ctx, job, meta, lastProgress, err)
}

// fail runs the terminal-failure path: freeze the job, compensate the
// user, mark the artifact, and tell everyone who asked.
func (w *Worker) fail(ctx context.Context, job *dto.JobDTO, meta jobMeta, lastProgress int, cause error) {
	log.Printf("worker %s: job %s failed permanently after %d attempt(s): %v",
		w.id, job.ID, job.Attempts, cause)

	if err := w.deps.Queues.Fail(ctx, job.ID, cause); err != nil {
		log.Printf("worker %s: fail %s: %v", w.id, job.ID, err)
	}

	if meta.Cost > 0 && w.deps.Credits != nil {
		if err := w.deps.Credits.Refund(ctx, meta.UserID, meta.Cost, job.ID); err != nil {
			log.Printf("worker %s: refund %d credits for %s: %v", w.id, meta.Cost, job.ID, err)
		}
	}

	if meta.VideoID != "" && w.deps.Videos != nil {
		fields := map[string]any{
			"status":        models.VideoStatusFailed,
			"error_message": cause.Error(),
		}
		if err := w.deps.Videos.UpdateFields(ctx, meta.VideoID, fields); err != nil {
			log.Printf("worker %s: mark video %s failed: %v", w.id, meta.VideoID, err)
		}
	}

	w.publish(meta, progress.Event{
		JobID:     job.ID,
		VideoID:   meta.VideoID,
		Progress:  lastProgress,
		Stage:     "failed",
		Error:     cause.Error(),
		Timestamp: time.Now().UTC(),
	})

	if ev := failureEvent(job.Queue); ev != "" && w.deps.Emitter != nil {
		w.deps.Emitter.Emit(ctx, meta.UserID, ev, map[string]any{
			"job_id":   job.ID,
			"video_id": meta.VideoID,
			"error":    cause.Error(),
		})
	}
}

func (w *Worker) publish(meta jobMeta, ev progress.Event) {
	if w.deps.Progress == nil || meta.UserID == "" {
		return
	}
	if err := w.deps.Progress.Publish(progress.UserChannel(meta.UserID), ev); err != nil {
		log.Printf("worker %s: publish progress for %s: %v", w.id, ev.JobID, err)
	}
}

// failureEvent maps a queue to the webhook event fired when one of its
// jobs fails permanently. Delivery jobs fire nothing: a webhook about a
// webhook would loop.
func failureEvent(queueName string) string {
	switch queueName {
	case config.QueueVideoGeneration, config.QueueBulkOperations:
		return config.EventVideoFailed
	case config.QueueAudioGeneration:
		return config.EventAudioFailed
	default:
		return ""
	}
}
