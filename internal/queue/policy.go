package queue

import (
	"math"
	"time"

	"github.com/mediaforge/mediaforge/internal/config"
)

// Backoff is the per-queue retry delay curve: delay(k) = min(base*factor^k, cap).
type Backoff struct {
	Base   time.Duration
	Factor float64
	Cap    time.Duration
}

// Delay returns the wait before retry attempt k (0-based).
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := float64(b.Base) * math.Pow(b.Factor, float64(attempt))
	if d > float64(b.Cap) || math.IsInf(d, 1) {
		return b.Cap
	}
	return time.Duration(d)
}

// Policy is one named queue's configuration. Priority is a total order
// within the queue only; nothing is guaranteed across queues.
type Policy struct {
	Name            string
	Concurrency     int
	DefaultPriority int
	MaxAttempts     int
	Backoff         Backoff
	EnqueueDelay    time.Duration // applied to every job, used by bulk
}

// DefaultPolicies mirrors the production queue topology: generation
// queues are high priority, bulk runs wide-and-slow, webhooks get extra
// attempts.
func DefaultPolicies() map[string]Policy {
	return map[string]Policy{
		config.QueueVideoGeneration: {
			Name:            config.QueueVideoGeneration,
			Concurrency:     5,
			DefaultPriority: 5,
			MaxAttempts:     3,
			Backoff:         Backoff{Base: 2 * time.Second, Factor: 2, Cap: 60 * time.Second},
		},
		config.QueueAudioGeneration: {
			Name:            config.QueueAudioGeneration,
			Concurrency:     10,
			DefaultPriority: 5,
			MaxAttempts:     3,
			Backoff:         Backoff{Base: 2 * time.Second, Factor: 2, Cap: 60 * time.Second},
		},
		config.QueueBulkOperations: {
			Name:            config.QueueBulkOperations,
			Concurrency:     2,
			DefaultPriority: 0,
			MaxAttempts:     3,
			Backoff:         Backoff{Base: 2 * time.Second, Factor: 2, Cap: 60 * time.Second},
			EnqueueDelay:    time.Second,
		},
		config.QueueWebhookDelivery: {
			Name:            config.QueueWebhookDelivery,
			Concurrency:     20,
			DefaultPriority: 0,
			MaxAttempts:     5,
			Backoff:         Backoff{Base: time.Second, Factor: 2, Cap: 5 * time.Minute},
		},
	}
}
