package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mediaforge/mediaforge/internal/config"
	"github.com/mediaforge/mediaforge/internal/dto"
	"github.com/mediaforge/mediaforge/internal/models"
	"github.com/mediaforge/mediaforge/internal/provider"
	"github.com/mediaforge/mediaforge/internal/queue"
)

// Repo is the persistence the delivery subsystem needs: endpoint lookup
// and the delivery audit log.
type Repo interface {
	Get(ctx context.Context, id string) (*models.Webhook, error)
	ListActiveForUser(ctx context.Context, userID string) ([]models.Webhook, error)
	SaveDelivery(ctx context.Context, d *models.WebhookDelivery) error
}

// Service owns signed, retried webhook delivery. It runs as a handler on
// its own queue; failures here never touch job or credit state.
type Service struct {
	repo    Repo
	sender  *Sender
	queues  *queue.Manager
	backoff queue.Backoff
}

func NewService(repo Repo, sender *Sender, queues *queue.Manager) *Service {
	backoff := queue.Backoff{Base: time.Second, Factor: 2, Cap: 5 * time.Minute}
	if policy, ok := queues.Policy(config.QueueWebhookDelivery); ok {
		backoff = policy.Backoff
	}
	return &Service{repo: repo, sender: sender, queues: queues, backoff: backoff}
}

// Emit fans one terminal event out to every active endpoint of the user,
// one delivery job each so retries stay independent.
func (s *Service) Emit(ctx context.Context, userID, eventType string, data any) {
	hooks, err := s.repo.ListActiveForUser(ctx, userID)
	if err != nil {
		log.Printf("[webhook] list endpoints for %s: %v", userID, err)
		return
	}

	raw, err := json.Marshal(data)
	if err != nil {
		log.Printf("[webhook] encode event data: %v", err)
		return
	}

	for _, h := range hooks {
		if !h.WantsEvent(eventType) {
			continue
		}
		payload := dto.WebhookDeliveryPayload{
			WebhookID: h.ID,
			EventType: eventType,
			Data:      raw,
		}
		if _, err := s.queues.Enqueue(ctx, config.QueueWebhookDelivery, config.JobTypeDeliverWebhook, payload, queue.Options{}); err != nil {
			log.Printf("[webhook] enqueue delivery for %s: %v", h.ID, err)
		}
	}
}

// Deliver is the handler for deliver-webhook jobs. Every attempt updates
// the delivery audit record in place; the returned error feeds the queue's
// retry policy.
func (s *Service) Deliver(ctx context.Context, job *dto.JobDTO) (any, error) {
	var payload dto.WebhookDeliveryPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, provider.Validationf("decode webhook payload: %v", err)
	}

	hook, err := s.repo.Get(ctx, payload.WebhookID)
	if err != nil {
		if errors.Is(err, ErrEndpointGone) {
			return nil, provider.Validationf("webhook %s not found", payload.WebhookID)
		}
		return nil, provider.WebhookFailure("load endpoint", err)
	}
	if !hook.Active {
		// Deactivated between enqueue and delivery; drop silently.
		return map[string]any{"skipped": "endpoint inactive"}, nil
	}

	body := DeliveryPayload{
		Event:     payload.EventType,
		Data:      payload.Data,
		Timestamp: time.Now().UTC(),
		WebhookID: payload.WebhookID,
	}
	attempt := s.sender.Send(ctx, hook.URL, hook.Secret, body)

	record := &models.WebhookDelivery{
		WebhookID:    payload.WebhookID,
		JobID:        job.ID,
		EventType:    payload.EventType,
		Payload:      mustJSON(body),
		ResponseCode: attempt.ResponseCode,
		ResponseBody: attempt.ResponseBody,
		RetryCount:   job.Attempts - 1,
	}

	if attempt.Err == nil {
		now := time.Now().UTC()
		record.Status = models.DeliveryStatusDelivered
		record.DeliveredAt = &now
		if err := s.repo.SaveDelivery(ctx, record); err != nil {
			log.Printf("[webhook] record delivery %s: %v", job.ID, err)
		}
		return map[string]any{
			"delivered_at":  now.Format(time.RFC3339),
			"response_code": attempt.ResponseCode,
		}, nil
	}

	if job.Attempts >= job.MaxAttempts {
		record.Status = models.DeliveryStatusFailed
	} else {
		record.Status = models.DeliveryStatusRetrying
		at := time.Now().UTC().Add(s.backoff.Delay(job.Attempts - 1))
		record.NextRetryAt = &at
	}
	if err := s.repo.SaveDelivery(ctx, record); err != nil {
		log.Printf("[webhook] record delivery %s: %v", job.ID, err)
	}

	return nil, provider.WebhookFailure("deliver", attempt.Err)
}

var ErrEndpointGone = errors.New("webhook not found")

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return []byte(fmt.Sprintf(`{"encode_error":%q}`, err.Error()))
	}
	return b
}
