package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/mediaforge/mediaforge/internal/dto"
	"github.com/mediaforge/mediaforge/internal/models"
)

// VideoRepoInterface is what the API needs from video persistence.
type VideoRepoInterface interface {
	Create(ctx context.Context, video *models.Video) error
	Get(ctx context.Context, id string) (*models.Video, error)
	Delete(ctx context.Context, id string) error
}

// WebhookRepoInterface is what the API needs from webhook persistence.
type WebhookRepoInterface interface {
	Create(ctx context.Context, wh *models.Webhook) error
	ListActiveForUser(ctx context.Context, userID string) ([]models.Webhook, error)
}

// ServiceInterface is the contract for generation and queue admin
// business logic.
type ServiceInterface interface {
	TextToVideo(ctx context.Context, userID string, req *dto.TextToVideoRequest) (*dto.EnqueueResponseDTO, error)
	ImageToVideo(ctx context.Context, userID string, req *dto.ImageToVideoRequest) (*dto.EnqueueResponseDTO, error)
	VideoToVideo(ctx context.Context, userID string, req *dto.VideoToVideoRequest) (*dto.EnqueueResponseDTO, error)
	VoiceSynthesis(ctx context.Context, userID string, req *dto.VoiceSynthesisRequest) (*dto.EnqueueResponseDTO, error)
	LipSync(ctx context.Context, userID string, req *dto.LipSyncRequest) (*dto.EnqueueResponseDTO, error)
	BulkVideos(ctx context.Context, userID string, req *dto.BulkVideoRequest) (*dto.EnqueueResponseDTO, error)

	GetJob(ctx context.Context, id string) (*dto.JobResponseDTO, error)
	CancelJob(ctx context.Context, id string) error

	QueueStats(ctx context.Context, queueName string) (*dto.QueueStatsDTO, error)
	PauseQueue(queueName string) error
	ResumeQueue(queueName string) error
	ClearQueue(ctx context.Context, queueName string) error
	Health(ctx context.Context) map[string]bool

	RegisterWebhook(ctx context.Context, userID string, req *dto.WebhookCreateRequest) (*dto.WebhookResponseDTO, error)
	ListWebhooks(ctx context.Context, userID string) ([]dto.WebhookResponseDTO, error)
}

// HandlerInterface is the contract for the HTTP surface.
type HandlerInterface interface {
	TextToVideo(c *gin.Context)
	ImageToVideo(c *gin.Context)
	VideoToVideo(c *gin.Context)
	VoiceSynthesis(c *gin.Context)
	LipSync(c *gin.Context)
	BulkVideos(c *gin.Context)
	GetJob(c *gin.Context)
	CancelJob(c *gin.Context)
	QueueStats(c *gin.Context)
	PauseQueue(c *gin.Context)
	ResumeQueue(c *gin.Context)
	ClearQueue(c *gin.Context)
	Health(c *gin.Context)
	RegisterWebhook(c *gin.Context)
	ListWebhooks(c *gin.Context)
}
