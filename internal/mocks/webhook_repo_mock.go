package mocks

import (
	"context"

	"github.com/mediaforge/mediaforge/internal/models"
	"github.com/stretchr/testify/mock"
)

type WebhookRepoMock struct {
	mock.Mock
}

func (m *WebhookRepoMock) Get(ctx context.Context, id string) (*models.Webhook, error) {
	args := m.Called(ctx, id)

	wh, _ := args.Get(0).(*models.Webhook)
	return wh, args.Error(1)
}

func (m *WebhookRepoMock) ListActiveForUser(ctx context.Context, userID string) ([]models.Webhook, error) {
	args := m.Called(ctx, userID)

	hooks, _ := args.Get(0).([]models.Webhook)
	return hooks, args.Error(1)
}

func (m *WebhookRepoMock) Create(ctx context.Context, wh *models.Webhook) error {
	args := m.Called(ctx, wh)
	return args.Error(0)
}

func (m *WebhookRepoMock) SaveDelivery(ctx context.Context, d *models.WebhookDelivery) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}
