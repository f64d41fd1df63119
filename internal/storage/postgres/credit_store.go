package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mediaforge/mediaforge/internal/config"
	"github.com/mediaforge/mediaforge/internal/credits"
	"github.com/mediaforge/mediaforge/internal/models"
	"gorm.io/gorm"
)

type CreditStore struct {
	db *gorm.DB
}

func NewCreditStore(db *gorm.DB) *CreditStore {
	return &CreditStore{db: db}
}

var _ credits.Store = (*CreditStore)(nil)

// TryDebit atomically checks and decrements a user's balance. The guard
// lives in the UPDATE's WHERE clause, so concurrent debits for the same
// user can never overspend: the row is the single authoritative counter.
func (s *CreditStore) TryDebit(ctx context.Context, userID string, amount int64, jobID string) error {
	if amount <= 0 {
		return fmt.Errorf("debit amount must be positive, got %d", amount)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ? AND credits >= ?", userID, amount).
			Update("credits", gorm.Expr("credits - ?", amount))
		if res.Error != nil {
			return fmt.Errorf("debit credits: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return credits.ErrInsufficientCredits
		}

		entry := models.CreditEntry{
			UserID: userID,
			Amount: -amount,
			Reason: config.CreditReasonDebit,
			JobID:  jobID,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("record debit: %w", err)
		}
		return nil
	})
}

// Refund compensates a terminal job failure. The ledger's unique job/reason
// pair makes the refund idempotent under duplicate executions.
func (s *CreditStore) Refund(ctx context.Context, userID string, amount int64, jobID string) error {
	if amount <= 0 {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.CreditEntry{}).
			Where("job_id = ? AND reason = ?", jobID, config.CreditReasonRefund).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("check refund: %w", err)
		}
		if existing > 0 {
			return nil
		}

		if err := tx.Model(&models.User{}).
			Where("id = ?", userID).
			Update("credits", gorm.Expr("credits + ?", amount)).Error; err != nil {
			return fmt.Errorf("refund credits: %w", err)
		}

		entry := models.CreditEntry{
			UserID: userID,
			Amount: amount,
			Reason: config.CreditReasonRefund,
			JobID:  jobID,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("record refund: %w", err)
		}
		return nil
	})
}

func (s *CreditStore) Balance(ctx context.Context, userID string) (int64, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("user not found: %w", err)
		}
		return 0, fmt.Errorf("load balance: %w", err)
	}
	return user.Credits, nil
}

func (s *CreditStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &user, nil
}

// DailyArtifactCount counts artifacts created by the user since local
// midnight UTC, for the per-tier daily quota.
func (s *CreditStore) DailyArtifactCount(ctx context.Context, userID string) (int64, error) {
	midnight := time.Now().UTC().Truncate(24 * time.Hour)
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Video{}).
		Where("user_id = ? AND created_at >= ?", userID, midnight).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("daily artifact count: %w", err)
	}
	return n, nil
}
