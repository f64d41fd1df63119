package api

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mediaforge/mediaforge/common"
	"github.com/mediaforge/mediaforge/internal/config"
	"github.com/mediaforge/mediaforge/internal/credits"
	"github.com/mediaforge/mediaforge/internal/dto"
	"github.com/mediaforge/mediaforge/internal/models"
	"github.com/mediaforge/mediaforge/internal/queue"
	"github.com/mediaforge/mediaforge/internal/storage/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "api.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Job{}, &models.User{}, &models.CreditEntry{}, &models.Video{}, &models.Webhook{},
	))

	svc := NewService(
		queue.NewManager(postgres.NewJobRepository(db), queue.DefaultPolicies()),
		credits.NewService(postgres.NewCreditStore(db)),
		postgres.NewVideoRepository(db),
		postgres.NewWebhookRepository(db),
	)
	return svc, db
}

func seedUser(t *testing.T, db *gorm.DB, id string, tier config.SubscriptionTier, balance int64) {
	t.Helper()
	require.NoError(t, db.Create(&models.User{
		ID: id, Email: id + "@example.com", Credits: balance, Tier: string(tier),
	}).Error)
}

func textToVideoReq() *dto.TextToVideoRequest {
	return &dto.TextToVideoRequest{
		Prompt:      "a red fox running through snow",
		Duration:    10,
		AspectRatio: "16:9",
		Model:       "sora",
	}
}

func TestService_TextToVideoAdmits(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	seedUser(t, db, "u1", config.TierPro, 100)

	resp, err := svc.TextToVideo(ctx, "u1", textToVideoReq())

	require.NoError(t, err)
	assert.Equal(t, int64(20), resp.Cost, "10s at 720p, pro rate")
	assert.Equal(t, int64(80), resp.CreditsRemaining)
	assert.NotEmpty(t, resp.JobID)
	assert.NotEmpty(t, resp.VideoID)

	// debit landed
	var user models.User
	require.NoError(t, db.First(&user, "id = ?", "u1").Error)
	assert.Equal(t, int64(80), user.Credits)

	// artifact record is queued and tied to the job
	var video models.Video
	require.NoError(t, db.First(&video, "id = ?", resp.VideoID).Error)
	assert.Equal(t, models.VideoStatusQueued, video.Status)
	assert.Equal(t, resp.JobID, video.JobID)
	assert.Equal(t, string(config.ResolutionHD720p), video.Resolution)

	// job sits on the video queue at the tier's priority
	job, err := svc.queues.GetJob(ctx, resp.JobID)
	require.NoError(t, err)
	assert.Equal(t, config.QueueVideoGeneration, job.Queue)
	assert.Equal(t, config.JobTypeTextToVideo, job.Type)
	assert.Equal(t, config.EnqueuePriority[config.TierPro], job.Priority)
	assert.Contains(t, string(job.Payload), resp.VideoID)
}

func TestService_TextToVideoFreeSurcharge(t *testing.T) {
	svc, db := newTestService(t)
	seedUser(t, db, "u1", config.TierFree, 100)

	req := textToVideoReq()
	req.Duration = 10

	resp, err := svc.TextToVideo(context.Background(), "u1", req)

	require.NoError(t, err)
	assert.Equal(t, int64(15), resp.Cost, "10s at 480p with the 1.5x free surcharge")
}

func TestService_TextToVideoInsufficientCredits(t *testing.T) {
	svc, db := newTestService(t)
	seedUser(t, db, "u1", config.TierPro, 5)

	_, err := svc.TextToVideo(context.Background(), "u1", textToVideoReq())

	require.Error(t, err)
	var apiErr common.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusPaymentRequired, apiErr.Status)

	// no debit, no video record
	var user models.User
	require.NoError(t, db.First(&user, "id = ?", "u1").Error)
	assert.Equal(t, int64(5), user.Credits)
	var count int64
	require.NoError(t, db.Model(&models.Video{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestService_TextToVideoTierLimit(t *testing.T) {
	svc, db := newTestService(t)
	seedUser(t, db, "u1", config.TierFree, 1000)

	req := textToVideoReq()
	req.Duration = 60 // free caps at 30s

	_, err := svc.TextToVideo(context.Background(), "u1", req)

	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, common.StatusOf(err))
}

func TestService_TextToVideoDailyQuota(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	seedUser(t, db, "u1", config.TierFree, 1000)

	req := textToVideoReq()
	req.Duration = 5

	for i := 0; i < int(config.TierLimits[config.TierFree].VideosPerDay); i++ {
		_, err := svc.TextToVideo(ctx, "u1", req)
		require.NoError(t, err)
	}

	_, err := svc.TextToVideo(ctx, "u1", req)
	var apiErr common.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
}

func TestService_TextToVideoUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.TextToVideo(context.Background(), "ghost", textToVideoReq())

	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, common.StatusOf(err))
}

func TestService_VoiceSynthesisCostPerCharacters(t *testing.T) {
	svc, db := newTestService(t)
	seedUser(t, db, "u1", config.TierPro, 50)

	resp, err := svc.VoiceSynthesis(context.Background(), "u1", &dto.VoiceSynthesisRequest{
		Text:     strings.Repeat("a", 250),
		VoiceID:  "rachel",
		Model:    "elevenlabs",
		Language: "en",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.Cost, "250 chars rounds up to 3")
	assert.Empty(t, resp.VideoID)

	job, err := svc.queues.GetJob(context.Background(), resp.JobID)
	require.NoError(t, err)
	assert.Equal(t, config.QueueAudioGeneration, job.Queue)
}

func TestService_LipSyncFlatCost(t *testing.T) {
	svc, db := newTestService(t)
	seedUser(t, db, "u1", config.TierBusiness, 50)

	resp, err := svc.LipSync(context.Background(), "u1", &dto.LipSyncRequest{
		VideoURL: "https://cdn.example.com/in.mp4",
		AudioURL: "https://cdn.example.com/in.mp3",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(10), resp.Cost)
	assert.NotEmpty(t, resp.VideoID)
}

func TestService_BulkVideosSingleDebit(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	seedUser(t, db, "u1", config.TierPro, 200)

	resp, err := svc.BulkVideos(ctx, "u1", &dto.BulkVideoRequest{
		Videos: []dto.TextToVideoRequest{
			*textToVideoReq(), // 20
			*textToVideoReq(), // 20
		},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(40), resp.Cost)
	assert.Equal(t, int64(160), resp.CreditsRemaining)

	// one ledger entry for the whole batch
	var entries []models.CreditEntry
	require.NoError(t, db.Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, resp.JobID, entries[0].JobID)
	assert.Equal(t, int64(-40), entries[0].Amount)

	// two artifact records, one bulk job
	var count int64
	require.NoError(t, db.Model(&models.Video{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	job, err := svc.queues.GetJob(ctx, resp.JobID)
	require.NoError(t, err)
	assert.Equal(t, config.QueueBulkOperations, job.Queue)

	// the payload carries the full debit and a pre-assigned job ID per
	// child, matching the JobID on each artifact row
	var payload dto.BulkVideoPayload
	require.NoError(t, json.Unmarshal(job.Payload, &payload))
	assert.Equal(t, int64(40), payload.Cost)
	require.Len(t, payload.ChildJobIDs, 2)
	require.Len(t, payload.Videos, 2)
	assert.Equal(t, int64(20), payload.Videos[0].Cost)
	for i, childID := range payload.ChildJobIDs {
		var video models.Video
		require.NoError(t, db.First(&video, "job_id = ?", childID).Error)
		assert.Equal(t, payload.Videos[i].VideoID, video.ID)
	}
}

func TestService_BulkVideosRejectsOversizedChild(t *testing.T) {
	svc, db := newTestService(t)
	seedUser(t, db, "u1", config.TierFree, 1000)

	long := textToVideoReq()
	long.Duration = 120

	_, err := svc.BulkVideos(context.Background(), "u1", &dto.BulkVideoRequest{
		Videos: []dto.TextToVideoRequest{*textToVideoReq(), *long},
	})

	var apiErr common.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Contains(t, apiErr.Message, "video 1")

	// rejection happens before anything is written: no artifact rows to
	// burn the daily quota, no ledger entries
	var videos, entries int64
	require.NoError(t, db.Model(&models.Video{}).Count(&videos).Error)
	require.NoError(t, db.Model(&models.CreditEntry{}).Count(&entries).Error)
	assert.Zero(t, videos)
	assert.Zero(t, entries)
}

func TestService_BulkVideosInsufficientCreditsLeavesNoTrace(t *testing.T) {
	svc, db := newTestService(t)
	seedUser(t, db, "u1", config.TierPro, 30) // batch below costs 40

	_, err := svc.BulkVideos(context.Background(), "u1", &dto.BulkVideoRequest{
		Videos: []dto.TextToVideoRequest{*textToVideoReq(), *textToVideoReq()},
	})

	var apiErr common.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusPaymentRequired, apiErr.Status)

	var videos, entries int64
	require.NoError(t, db.Model(&models.Video{}).Count(&videos).Error)
	require.NoError(t, db.Model(&models.CreditEntry{}).Count(&entries).Error)
	assert.Zero(t, videos)
	assert.Zero(t, entries)

	var user models.User
	require.NoError(t, db.First(&user, "id = ?", "u1").Error)
	assert.Equal(t, int64(30), user.Credits)
}

func TestService_GetJobNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetJob(context.Background(), "no-such-job")

	var apiErr common.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestService_CancelJob(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	seedUser(t, db, "u1", config.TierPro, 100)

	resp, err := svc.TextToVideo(ctx, "u1", textToVideoReq())
	require.NoError(t, err)

	require.NoError(t, svc.CancelJob(ctx, resp.JobID))

	_, err = svc.GetJob(ctx, resp.JobID)
	require.Error(t, err)
}

func TestService_QueueAdminValidatesName(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.QueueStats(context.Background(), "nope")
	var apiErr common.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)

	require.Error(t, svc.PauseQueue("nope"))
	require.Error(t, svc.ResumeQueue("nope"))
	require.Error(t, svc.ClearQueue(context.Background(), "nope"))

	require.NoError(t, svc.PauseQueue(config.QueueVideoGeneration))
	require.NoError(t, svc.ResumeQueue(config.QueueVideoGeneration))
}

func TestService_RegisterWebhookGeneratesSecret(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	resp, err := svc.RegisterWebhook(ctx, "u1", &dto.WebhookCreateRequest{
		URL:    "https://hooks.example.com/mf",
		Events: []string{"video.completed", "video.failed"},
	})

	require.NoError(t, err)
	assert.Len(t, resp.Secret, 48, "24 random bytes, hex encoded")
	assert.True(t, resp.Active)

	var stored models.Webhook
	require.NoError(t, db.First(&stored, "id = ?", resp.ID).Error)
	assert.Equal(t, resp.Secret, stored.Secret)
	assert.Equal(t, "video.completed,video.failed", stored.Events)

	// listing never echoes the secret back
	hooks, err := svc.ListWebhooks(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, hooks, 1)
	assert.Empty(t, hooks[0].Secret)
	assert.Equal(t, []string{"video.completed", "video.failed"}, hooks[0].Events)
}

func TestEstimateTime(t *testing.T) {
	assert.Equal(t, "1-3 minutes", estimateTime(10))
	assert.Equal(t, "2-5 minutes", estimateTime(60))
	assert.Equal(t, "6-13 minutes", estimateTime(300))
}

func TestSpeechCost(t *testing.T) {
	assert.Equal(t, int64(1), speechCost(""))
	assert.Equal(t, int64(1), speechCost("hi"))
	assert.Equal(t, int64(1), speechCost(strings.Repeat("a", 100)))
	assert.Equal(t, int64(2), speechCost(strings.Repeat("a", 101)))
}
