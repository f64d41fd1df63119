package credits

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/mediaforge/mediaforge/internal/config"
	"github.com/mediaforge/mediaforge/internal/models"
)

// Store is the atomic per-user counter the service runs on.
type Store interface {
	TryDebit(ctx context.Context, userID string, amount int64, jobID string) error
	Refund(ctx context.Context, userID string, amount int64, jobID string) error
	Balance(ctx context.Context, userID string) (int64, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	DailyArtifactCount(ctx context.Context, userID string) (int64, error)
}

var (
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrTierLimit           = errors.New("subscription tier does not allow this request")
	ErrDailyQuota          = errors.New("daily generation limit reached")
)

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Cost computes the credit price of a generation before enqueue:
// ceil(rate[resolution] * duration * tier multiplier).
func Cost(duration int, resolution config.VideoResolution, tier config.SubscriptionTier) int64 {
	rate := config.CreditsPerSecond[resolution]
	if rate == 0 {
		rate = config.CreditsPerSecond[config.ResolutionSD480p]
	}
	base := float64(rate) * float64(duration)
	if tier == config.TierFree {
		base *= config.FreeTierCostMultiplier
	}
	return int64(math.Ceil(base))
}

// CanCreate is the tier gate on duration and resolution, checked before
// any credits move.
func CanCreate(duration int, resolution config.VideoResolution, tier config.SubscriptionTier) bool {
	limits, ok := config.TierLimits[tier]
	if !ok {
		return false
	}
	if duration > limits.MaxDuration {
		return false
	}
	return config.ResolutionWithin(resolution, limits.MaxResolution)
}

// Admit runs the full admission sequence for one job: tier gate, daily
// quota, then the atomic debit. Quotas are independent of balance.
func (s *Service) Admit(ctx context.Context, user *models.User, cost int64, duration int, resolution config.VideoResolution, jobID string) error {
	tier := config.SubscriptionTier(user.Tier)

	if !CanCreate(duration, resolution, tier) {
		return ErrTierLimit
	}

	limits := config.TierLimits[tier]
	if limits.VideosPerDay >= 0 {
		n, err := s.store.DailyArtifactCount(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("check daily quota: %w", err)
		}
		if n >= int64(limits.VideosPerDay) {
			return ErrDailyQuota
		}
	}

	if err := s.store.TryDebit(ctx, user.ID, cost, jobID); err != nil {
		if errors.Is(err, ErrInsufficientCredits) {
			return ErrInsufficientCredits
		}
		return fmt.Errorf("debit: %w", err)
	}
	return nil
}

// Refund returns the admission debit after a terminal failure. Exactly one
// refund per job; the store dedupes on the ledger.
func (s *Service) Refund(ctx context.Context, userID string, amount int64, jobID string) error {
	return s.store.Refund(ctx, userID, amount, jobID)
}

func (s *Service) Balance(ctx context.Context, userID string) (int64, error) {
	return s.store.Balance(ctx, userID)
}

func (s *Service) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.store.GetUser(ctx, userID)
}
