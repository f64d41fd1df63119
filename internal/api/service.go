package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/mediaforge/mediaforge/common"
	"github.com/mediaforge/mediaforge/internal/config"
	"github.com/mediaforge/mediaforge/internal/credits"
	"github.com/mediaforge/mediaforge/internal/dto"
	"github.com/mediaforge/mediaforge/internal/models"
	"github.com/mediaforge/mediaforge/internal/provider"
	"github.com/mediaforge/mediaforge/internal/queue"
	"gorm.io/gorm"
)

// Flat credit prices for jobs whose cost is not duration-based.
const (
	lipSyncCost        = 10
	speechCostPerChars = 100
)

type Service struct {
	queues   *queue.Manager
	credits  *credits.Service
	videos   VideoRepoInterface
	webhooks WebhookRepoInterface
}

func NewService(queues *queue.Manager, cr *credits.Service, videos VideoRepoInterface, webhooks WebhookRepoInterface) *Service {
	return &Service{queues: queues, credits: cr, videos: videos, webhooks: webhooks}
}

var _ ServiceInterface = (*Service)(nil)

// defaultResolution is the output resolution a tier renders at.
func defaultResolution(tier config.SubscriptionTier) config.VideoResolution {
	switch tier {
	case config.TierFree:
		return config.ResolutionSD480p
	case config.TierPro:
		return config.ResolutionHD720p
	default:
		return config.ResolutionFHD1080p
	}
}

// estimateTime is a rough wall-clock hint for the response; queue depth
// and provider load dominate the real number.
func estimateTime(duration int) string {
	lo := 1 + duration/60
	return fmt.Sprintf("%d-%d minutes", lo, lo*2+1)
}

// apiError maps domain errors onto HTTP status codes.
func apiError(err error) error {
	switch {
	case errors.Is(err, credits.ErrInsufficientCredits):
		return common.Errf(http.StatusPaymentRequired, "insufficient credits")
	case errors.Is(err, credits.ErrTierLimit):
		return common.Errf(http.StatusForbidden, "request exceeds subscription tier limits")
	case errors.Is(err, credits.ErrDailyQuota):
		return common.Errf(http.StatusTooManyRequests, "daily generation limit reached")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return common.Errf(http.StatusNotFound, "not found")
	case provider.ClassOf(err) == provider.ClassValidation:
		return common.Errf(http.StatusBadRequest, "%s", err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return common.Errf(http.StatusRequestTimeout, "request timed out")
	default:
		return common.Errf(http.StatusInternalServerError, "internal error")
	}
}

// admission bundles everything the shared enqueue path needs for one
// generation request.
type admission struct {
	jobType    string
	queueName  string
	duration   int
	cost       int64  // 0 means duration-based pricing
	videoTitle string // empty skips the artifact record
	fill       func(p *dto.VideoGenerationPayload)
}

// admitVideo runs the admission sequence shared by all video-producing
// jobs: load the user, price the request, gate and debit, create the
// artifact record, enqueue at the tier's priority.
func (s *Service) admitVideo(ctx context.Context, userID string, adm admission) (*dto.EnqueueResponseDTO, error) {
	user, err := s.credits.GetUser(ctx, userID)
	if err != nil {
		return nil, apiError(err)
	}
	tier := config.SubscriptionTier(user.Tier)
	resolution := defaultResolution(tier)

	cost := adm.cost
	if cost == 0 {
		cost = credits.Cost(adm.duration, resolution, tier)
	}

	jobID := uuid.NewString()
	if err := s.credits.Admit(ctx, user, cost, adm.duration, resolution, jobID); err != nil {
		return nil, apiError(err)
	}

	videoID := uuid.NewString()
	video := &models.Video{
		ID:         videoID,
		UserID:     userID,
		JobID:      jobID,
		Title:      adm.videoTitle,
		Status:     models.VideoStatusQueued,
		Resolution: string(resolution),
		Duration:   adm.duration,
	}
	if err := s.videos.Create(ctx, video); err != nil {
		s.compensate(ctx, userID, cost, jobID)
		return nil, apiError(err)
	}

	payload := dto.VideoGenerationPayload{
		JobMeta:    dto.JobMeta{UserID: userID, Cost: cost},
		VideoID:    videoID,
		Duration:   adm.duration,
		Resolution: string(resolution),
	}
	adm.fill(&payload)

	priority := config.EnqueuePriority[tier]
	if _, err := s.queues.Enqueue(ctx, adm.queueName, adm.jobType, payload, queue.Options{
		ID:       jobID,
		Priority: &priority,
	}); err != nil {
		s.compensate(ctx, userID, cost, jobID)
		return nil, apiError(err)
	}

	return &dto.EnqueueResponseDTO{
		JobID:            jobID,
		VideoID:          videoID,
		Cost:             cost,
		CreditsRemaining: user.Credits - cost,
		EstimatedTime:    estimateTime(adm.duration),
	}, nil
}

// compensate undoes an admission debit when enqueue never happened.
func (s *Service) compensate(ctx context.Context, userID string, cost int64, jobID string) {
	_ = s.credits.Refund(ctx, userID, cost, jobID)
}

// rollbackBulk undoes a half-built bulk request: the admission refund
// plus removal of any artifact rows created before the failure. The rows
// still count against the daily quota otherwise.
func (s *Service) rollbackBulk(ctx context.Context, userID string, cost int64, jobID string, videoIDs []string) {
	s.compensate(ctx, userID, cost, jobID)
	for _, id := range videoIDs {
		_ = s.videos.Delete(ctx, id)
	}
}

func (s *Service) TextToVideo(ctx context.Context, userID string, req *dto.TextToVideoRequest) (*dto.EnqueueResponseDTO, error) {
	return s.admitVideo(ctx, userID, admission{
		jobType:    config.JobTypeTextToVideo,
		queueName:  config.QueueVideoGeneration,
		duration:   req.Duration,
		videoTitle: truncateTitle(req.Prompt),
		fill: func(p *dto.VideoGenerationPayload) {
			p.Prompt = req.Prompt
			p.AspectRatio = req.AspectRatio
			p.Model = req.Model
			p.Style = req.Style
			p.Seed = req.Seed
			p.GuidanceScale = req.GuidanceScale
		},
	})
}

func (s *Service) ImageToVideo(ctx context.Context, userID string, req *dto.ImageToVideoRequest) (*dto.EnqueueResponseDTO, error) {
	return s.admitVideo(ctx, userID, admission{
		jobType:    config.JobTypeImageToVideo,
		queueName:  config.QueueVideoGeneration,
		duration:   req.Duration,
		videoTitle: truncateTitle(req.Prompt),
		fill: func(p *dto.VideoGenerationPayload) {
			p.Prompt = req.Prompt
			p.ImageURL = req.ImageURL
			p.MotionStrength = req.MotionStrength
			p.Model = req.Model
		},
	})
}

func (s *Service) VideoToVideo(ctx context.Context, userID string, req *dto.VideoToVideoRequest) (*dto.EnqueueResponseDTO, error) {
	// Re-styling bills at a nominal 10 seconds; the output length follows
	// the input video, which we cannot know up front.
	return s.admitVideo(ctx, userID, admission{
		jobType:    config.JobTypeVideoToVideo,
		queueName:  config.QueueVideoGeneration,
		duration:   10,
		videoTitle: truncateTitle(req.Prompt),
		fill: func(p *dto.VideoGenerationPayload) {
			p.Prompt = req.Prompt
			p.InputVideoURL = req.InputVideoURL
			p.Strength = req.Strength
			p.PreserveAudio = req.PreserveAudio
			p.Model = req.Model
		},
	})
}

func (s *Service) VoiceSynthesis(ctx context.Context, userID string, req *dto.VoiceSynthesisRequest) (*dto.EnqueueResponseDTO, error) {
	user, err := s.credits.GetUser(ctx, userID)
	if err != nil {
		return nil, apiError(err)
	}

	cost := speechCost(req.Text)
	jobID := uuid.NewString()
	if err := s.credits.Admit(ctx, user, cost, 0, config.ResolutionSD480p, jobID); err != nil {
		return nil, apiError(err)
	}

	payload := dto.VoiceSynthesisPayload{
		JobMeta:         dto.JobMeta{UserID: userID, Cost: cost},
		Text:            req.Text,
		VoiceID:         req.VoiceID,
		Model:           req.Model,
		Language:        req.Language,
		Stability:       req.Stability,
		SimilarityBoost: req.SimilarityBoost,
	}

	tier := config.SubscriptionTier(user.Tier)
	priority := config.EnqueuePriority[tier]
	if _, err := s.queues.Enqueue(ctx, config.QueueAudioGeneration, config.JobTypeVoiceSynthesis, payload, queue.Options{
		ID:       jobID,
		Priority: &priority,
	}); err != nil {
		s.compensate(ctx, userID, cost, jobID)
		return nil, apiError(err)
	}

	return &dto.EnqueueResponseDTO{
		JobID:            jobID,
		Cost:             cost,
		CreditsRemaining: user.Credits - cost,
		EstimatedTime:    "1-2 minutes",
	}, nil
}

func (s *Service) LipSync(ctx context.Context, userID string, req *dto.LipSyncRequest) (*dto.EnqueueResponseDTO, error) {
	user, err := s.credits.GetUser(ctx, userID)
	if err != nil {
		return nil, apiError(err)
	}

	jobID := uuid.NewString()
	if err := s.credits.Admit(ctx, user, lipSyncCost, 0, config.ResolutionSD480p, jobID); err != nil {
		return nil, apiError(err)
	}

	videoID := uuid.NewString()
	video := &models.Video{
		ID:     videoID,
		UserID: userID,
		JobID:  jobID,
		Title:  "lip sync",
		Status: models.VideoStatusQueued,
	}
	if err := s.videos.Create(ctx, video); err != nil {
		s.compensate(ctx, userID, lipSyncCost, jobID)
		return nil, apiError(err)
	}

	payload := dto.LipSyncPayload{
		JobMeta:               dto.JobMeta{UserID: userID, Cost: lipSyncCost},
		VideoID:               videoID,
		VideoURL:              req.VideoURL,
		AudioURL:              req.AudioURL,
		PreserveOriginalAudio: req.PreserveOriginalAudio,
	}

	tier := config.SubscriptionTier(user.Tier)
	priority := config.EnqueuePriority[tier]
	if _, err := s.queues.Enqueue(ctx, config.QueueAudioGeneration, config.JobTypeLipSync, payload, queue.Options{
		ID:       jobID,
		Priority: &priority,
	}); err != nil {
		s.compensate(ctx, userID, lipSyncCost, jobID)
		return nil, apiError(err)
	}

	return &dto.EnqueueResponseDTO{
		JobID:            jobID,
		VideoID:          videoID,
		Cost:             lipSyncCost,
		CreditsRemaining: user.Credits - lipSyncCost,
		EstimatedTime:    "2-4 minutes",
	}, nil
}

// BulkVideos admits the whole batch as one debit and hands the split to
// the bulk queue. Each child carries its slice of the total so refunds
// stay per-video.
func (s *Service) BulkVideos(ctx context.Context, userID string, req *dto.BulkVideoRequest) (*dto.EnqueueResponseDTO, error) {
	user, err := s.credits.GetUser(ctx, userID)
	if err != nil {
		return nil, apiError(err)
	}
	tier := config.SubscriptionTier(user.Tier)
	resolution := defaultResolution(tier)

	// price and gate every video before touching the ledger or
	// creating any rows; a rejected request must leave no trace
	var total int64
	maxDuration := 0
	costs := make([]int64, len(req.Videos))
	for i, v := range req.Videos {
		if !credits.CanCreate(v.Duration, resolution, tier) {
			return nil, common.Errf(http.StatusForbidden,
				"video %d exceeds subscription tier limits", i)
		}
		costs[i] = credits.Cost(v.Duration, resolution, tier)
		total += costs[i]
		if v.Duration > maxDuration {
			maxDuration = v.Duration
		}
	}

	jobID := uuid.NewString()
	if err := s.credits.Admit(ctx, user, total, maxDuration, resolution, jobID); err != nil {
		return nil, apiError(err)
	}

	children := make([]dto.VideoGenerationPayload, 0, len(req.Videos))
	childJobIDs := make([]string, 0, len(req.Videos))
	created := make([]string, 0, len(req.Videos))
	for i, v := range req.Videos {
		childJobID := uuid.NewString()
		videoID := uuid.NewString()
		video := &models.Video{
			ID:         videoID,
			UserID:     userID,
			JobID:      childJobID,
			Title:      truncateTitle(v.Prompt),
			Status:     models.VideoStatusQueued,
			Resolution: string(resolution),
			Duration:   v.Duration,
		}
		if err := s.videos.Create(ctx, video); err != nil {
			s.rollbackBulk(ctx, userID, total, jobID, created)
			return nil, apiError(err)
		}
		created = append(created, videoID)

		childJobIDs = append(childJobIDs, childJobID)
		children = append(children, dto.VideoGenerationPayload{
			JobMeta:       dto.JobMeta{UserID: userID, Cost: costs[i]},
			VideoID:       videoID,
			Prompt:        v.Prompt,
			Duration:      v.Duration,
			AspectRatio:   v.AspectRatio,
			Resolution:    string(resolution),
			Style:         v.Style,
			Model:         v.Model,
			Seed:          v.Seed,
			GuidanceScale: v.GuidanceScale,
		})
	}

	payload := dto.BulkVideoPayload{
		JobMeta:     dto.JobMeta{UserID: userID, Cost: total},
		Videos:      children,
		ChildJobIDs: childJobIDs,
		Priority:    req.Priority,
	}

	if _, err := s.queues.Enqueue(ctx, config.QueueBulkOperations, config.JobTypeBulkVideoGen, payload, queue.Options{
		ID: jobID,
	}); err != nil {
		s.rollbackBulk(ctx, userID, total, jobID, created)
		return nil, apiError(err)
	}

	return &dto.EnqueueResponseDTO{
		JobID:            jobID,
		Cost:             total,
		CreditsRemaining: user.Credits - total,
		EstimatedTime:    estimateTime(maxDuration * len(children)),
	}, nil
}

func (s *Service) GetJob(ctx context.Context, id string) (*dto.JobResponseDTO, error) {
	job, err := s.queues.GetJob(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || strings.Contains(err.Error(), "not found") {
			return nil, common.Errf(http.StatusNotFound, "job not found")
		}
		return nil, apiError(err)
	}

	return &dto.JobResponseDTO{
		ID:          job.ID,
		Queue:       job.Queue,
		Type:        job.Type,
		Status:      job.Status,
		Priority:    job.Priority,
		Attempts:    job.Attempts,
		MaxAttempts: job.MaxAttempts,
		Progress:    job.Progress,
		Stage:       job.Stage,
		Result:      json.RawMessage(job.Result),
		Error:       job.Error,
		CreatedAt:   job.CreatedAt,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
		FailedAt:    job.FailedAt,
	}, nil
}

func (s *Service) CancelJob(ctx context.Context, id string) error {
	if err := s.queues.Remove(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || strings.Contains(err.Error(), "not found") {
			return common.Errf(http.StatusNotFound, "job not found")
		}
		return common.Errf(http.StatusConflict, "job cannot be cancelled: %v", err)
	}
	return nil
}

func (s *Service) QueueStats(ctx context.Context, queueName string) (*dto.QueueStatsDTO, error) {
	if _, ok := s.queues.Policy(queueName); !ok {
		return nil, common.NewAPIError(http.StatusBadRequest, "invalid queue", map[string]any{
			"provided": queueName,
			"allowed":  config.AllowedQueues,
		})
	}
	stats, err := s.queues.Stats(ctx, queueName)
	if err != nil {
		return nil, apiError(err)
	}
	return stats, nil
}

func (s *Service) PauseQueue(queueName string) error {
	if _, ok := s.queues.Policy(queueName); !ok {
		return common.Errf(http.StatusBadRequest, "invalid queue: %q", queueName)
	}
	s.queues.Pause(queueName)
	return nil
}

func (s *Service) ResumeQueue(queueName string) error {
	if _, ok := s.queues.Policy(queueName); !ok {
		return common.Errf(http.StatusBadRequest, "invalid queue: %q", queueName)
	}
	s.queues.Resume(queueName)
	return nil
}

func (s *Service) ClearQueue(ctx context.Context, queueName string) error {
	if _, ok := s.queues.Policy(queueName); !ok {
		return common.Errf(http.StatusBadRequest, "invalid queue: %q", queueName)
	}
	if err := s.queues.Clear(ctx, queueName); err != nil {
		return apiError(err)
	}
	return nil
}

func (s *Service) Health(ctx context.Context) map[string]bool {
	return s.queues.Health(ctx)
}

func (s *Service) RegisterWebhook(ctx context.Context, userID string, req *dto.WebhookCreateRequest) (*dto.WebhookResponseDTO, error) {
	secret := req.Secret
	if secret == "" {
		secret = newSecret()
	}

	wh := &models.Webhook{
		ID:     uuid.NewString(),
		UserID: userID,
		URL:    req.URL,
		Secret: secret,
		Active: true,
		Events: strings.Join(req.Events, ","),
	}
	if err := s.webhooks.Create(ctx, wh); err != nil {
		return nil, apiError(err)
	}

	return &dto.WebhookResponseDTO{
		ID:        wh.ID,
		URL:       wh.URL,
		Events:    req.Events,
		Secret:    secret, // returned once, on creation only
		Active:    wh.Active,
		CreatedAt: wh.CreatedAt,
	}, nil
}

func (s *Service) ListWebhooks(ctx context.Context, userID string) ([]dto.WebhookResponseDTO, error) {
	hooks, err := s.webhooks.ListActiveForUser(ctx, userID)
	if err != nil {
		return nil, apiError(err)
	}

	out := make([]dto.WebhookResponseDTO, len(hooks))
	for i, wh := range hooks {
		var events []string
		if wh.Events != "" {
			events = strings.Split(wh.Events, ",")
		}
		out[i] = dto.WebhookResponseDTO{
			ID:        wh.ID,
			URL:       wh.URL,
			Events:    events,
			Active:    wh.Active,
			CreatedAt: wh.CreatedAt,
		}
	}
	return out, nil
}

func speechCost(text string) int64 {
	cost := int64((len(text) + speechCostPerChars - 1) / speechCostPerChars)
	if cost < 1 {
		cost = 1
	}
	return cost
}

func truncateTitle(s string) string {
	if len(s) > 120 {
		return s[:120]
	}
	return s
}

func newSecret() string {
	b := make([]byte, 24)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
