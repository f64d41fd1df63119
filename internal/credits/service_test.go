package credits

import (
	"context"
	"testing"

	"github.com/mediaforge/mediaforge/internal/config"
	"github.com/mediaforge/mediaforge/internal/mocks"
	"github.com/mediaforge/mediaforge/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestCost(t *testing.T) {
	tests := []struct {
		name       string
		duration   int
		resolution config.VideoResolution
		tier       config.SubscriptionTier
		want       int64
	}{
		{"480p pro", 10, config.ResolutionSD480p, config.TierPro, 10},
		{"720p business", 10, config.ResolutionHD720p, config.TierBusiness, 20},
		{"1080p enterprise", 10, config.ResolutionFHD1080p, config.TierEnterprise, 30},
		{"4k business", 10, config.ResolutionUHD4K, config.TierBusiness, 50},
		{"free tier pays the surcharge", 10, config.ResolutionSD480p, config.TierFree, 15},
		{"free surcharge rounds up", 1, config.ResolutionSD480p, config.TierFree, 2}, // ceil(1.5)
		{"unknown resolution falls back to base rate", 10, config.VideoResolution("8k"), config.TierPro, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Cost(tt.duration, tt.resolution, tt.tier))
		})
	}
}

func TestCanCreate(t *testing.T) {
	tests := []struct {
		name       string
		duration   int
		resolution config.VideoResolution
		tier       config.SubscriptionTier
		want       bool
	}{
		{"free within limits", 30, config.ResolutionSD480p, config.TierFree, true},
		{"free duration over cap", 31, config.ResolutionSD480p, config.TierFree, false},
		{"free cannot render 720p", 10, config.ResolutionHD720p, config.TierFree, false},
		{"pro can render 1080p", 60, config.ResolutionFHD1080p, config.TierPro, true},
		{"pro cannot render 4k", 60, config.ResolutionUHD4K, config.TierPro, false},
		{"business can render 4k", 600, config.ResolutionUHD4K, config.TierBusiness, true},
		{"unknown tier is rejected", 1, config.ResolutionSD480p, config.SubscriptionTier("VIP"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanCreate(tt.duration, tt.resolution, tt.tier))
		})
	}
}

func TestService_Admit(t *testing.T) {
	user := &models.User{ID: "u1", Credits: 100, Tier: string(config.TierPro)}

	tests := []struct {
		name      string
		user      *models.User
		cost      int64
		duration  int
		setupMock func(*mocks.CreditStoreMock)
		wantErr   error
	}{
		{
			name:     "admits within all gates",
			user:     user,
			cost:     20,
			duration: 10,
			setupMock: func(m *mocks.CreditStoreMock) {
				m.On("DailyArtifactCount", mock.Anything, "u1").Return(int64(3), nil)
				m.On("TryDebit", mock.Anything, "u1", int64(20), "job-1").Return(nil)
			},
		},
		{
			name:     "tier gate fires before any store call",
			user:     user,
			cost:     20,
			duration: 301, // over the PRO cap
			wantErr:  ErrTierLimit,
		},
		{
			name:     "daily quota blocks independent of balance",
			user:     user,
			cost:     1,
			duration: 10,
			setupMock: func(m *mocks.CreditStoreMock) {
				m.On("DailyArtifactCount", mock.Anything, "u1").Return(int64(50), nil)
			},
			wantErr: ErrDailyQuota,
		},
		{
			name:     "insufficient balance surfaces as typed error",
			user:     user,
			cost:     500,
			duration: 10,
			setupMock: func(m *mocks.CreditStoreMock) {
				m.On("DailyArtifactCount", mock.Anything, "u1").Return(int64(0), nil)
				m.On("TryDebit", mock.Anything, "u1", int64(500), "job-1").Return(ErrInsufficientCredits)
			},
			wantErr: ErrInsufficientCredits,
		},
		{
			name:     "enterprise skips the daily quota",
			user:     &models.User{ID: "u2", Credits: 100, Tier: string(config.TierEnterprise)},
			cost:     20,
			duration: 10,
			setupMock: func(m *mocks.CreditStoreMock) {
				m.On("TryDebit", mock.Anything, "u2", int64(20), "job-1").Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(mocks.CreditStoreMock)
			if tt.setupMock != nil {
				tt.setupMock(store)
			}
			svc := NewService(store)

			err := svc.Admit(context.Background(), tt.user, tt.cost, tt.duration, config.ResolutionSD480p, "job-1")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			store.AssertExpectations(t)
		})
	}
}

func TestService_AdmitEnterpriseNeverChecksQuota(t *testing.T) {
	store := new(mocks.CreditStoreMock)
	store.On("TryDebit", mock.Anything, "u1", int64(5), "j").Return(nil)

	user := &models.User{ID: "u1", Tier: string(config.TierEnterprise)}
	err := NewService(store).Admit(context.Background(), user, 5, 10, config.ResolutionUHD4K, "j")

	assert.NoError(t, err)
	store.AssertNotCalled(t, "DailyArtifactCount", mock.Anything, mock.Anything)
}
