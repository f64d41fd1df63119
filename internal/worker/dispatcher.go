package worker

import (
	"context"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/mediaforge/mediaforge/internal/config"
	"github.com/mediaforge/mediaforge/internal/dto"
	"github.com/mediaforge/mediaforge/internal/provider"
)

// Job is the handler-facing view of a claimed job. Report feeds the
// progress pipeline (job row + publisher); it never fails the handler.
type Job struct {
	*dto.JobDTO
	report func(progress int, stage string)
}

// Report records a progress update. Values are clamped to 0-100 and can
// only move forward.
func (j *Job) Report(progress int, stage string) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	if j.report != nil {
		j.report(progress, stage)
	}
}

// HandlerFunc executes one job to a terminal outcome. A nil error marks
// the job completed with the returned result; a classified error either
// retries or fails it depending on its class.
type HandlerFunc func(ctx context.Context, job *Job) (any, error)

// Dispatcher routes a claimed job to the handler registered for its type.
// Unknown types are a validation failure: they never retry.
type Dispatcher struct {
	handlers map[string]HandlerFunc
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]HandlerFunc)}
}

func (d *Dispatcher) Register(jobType string, h HandlerFunc) {
	d.handlers[jobType] = h
}

func (d *Dispatcher) Dispatch(ctx context.Context, job *Job) (any, error) {
	h, ok := d.handlers[job.Type]
	if !ok {
		return nil, provider.Validationf("no handler for job type %q", job.Type)
	}
	return h(ctx, job)
}

// RegisterHandlers wires the built-in job types into a dispatcher.
// deliverWebhook is the webhook service's Deliver method; it takes the
// raw job because delivery bookkeeping needs the attempt counters.
func RegisterHandlers(d *Dispatcher, deps Deps, deliverWebhook func(ctx context.Context, job *dto.JobDTO) (any, error)) {
	videoGen := HandleVideoGeneration(deps)
	d.Register(config.JobTypeTextToVideo, videoGen)
	d.Register(config.JobTypeImageToVideo, videoGen)
	d.Register(config.JobTypeVideoToVideo, videoGen)
	d.Register(config.JobTypeVoiceSynthesis, HandleVoiceSynthesis(deps))
	d.Register(config.JobTypeLipSync, HandleLipSync(deps))
	d.Register(config.JobTypeBulkVideoGen, HandleBulkVideos(deps))
	if deliverWebhook != nil {
		d.Register(config.JobTypeDeliverWebhook, func(ctx context.Context, job *Job) (any, error) {
			return deliverWebhook(ctx, job.JobDTO)
		})
	}
}

var validate = validator.New()

// decodePayload unmarshals and validates a typed job payload. Both
// failure modes are caller errors, so they surface as non-retriable
// validation errors.
func decodePayload[T any](raw json.RawMessage) (*T, error) {
	var payload T
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, provider.Validationf("decode payload: %v", err)
	}
	if err := validate.Struct(&payload); err != nil {
		return nil, provider.Validationf("invalid payload: %v", err)
	}
	return &payload, nil
}

// jobMeta is the compensation slice every payload carries: who paid, how
// much, and which artifact to mark on failure.
type jobMeta struct {
	UserID  string `json:"user_id"`
	Cost    int64  `json:"cost"`
	VideoID string `json:"video_id"`
}

func metaOf(raw json.RawMessage) jobMeta {
	var m jobMeta
	_ = json.Unmarshal(raw, &m)
	return m
}
