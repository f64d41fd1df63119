package mocks

import (
	"context"

	"github.com/mediaforge/mediaforge/internal/models"
	"github.com/stretchr/testify/mock"
)

type CreditStoreMock struct {
	mock.Mock
}

func (m *CreditStoreMock) TryDebit(ctx context.Context, userID string, amount int64, jobID string) error {
	args := m.Called(ctx, userID, amount, jobID)
	return args.Error(0)
}

func (m *CreditStoreMock) Refund(ctx context.Context, userID string, amount int64, jobID string) error {
	args := m.Called(ctx, userID, amount, jobID)
	return args.Error(0)
}

func (m *CreditStoreMock) Balance(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *CreditStoreMock) GetUser(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)

	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *CreditStoreMock) DailyArtifactCount(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}
