package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mediaforge/mediaforge/common"
	"github.com/mediaforge/mediaforge/internal/dto"
	"github.com/mediaforge/mediaforge/middleware"
)

type Handler struct {
	service ServiceInterface
}

func NewHandler(s ServiceInterface) *Handler {
	return &Handler{service: s}
}

var _ HandlerInterface = (*Handler)(nil)

// enqueue is the shared shape of every generation endpoint: bind the
// typed request, delegate to the service, answer 202 with the job handle.
func enqueue[T any](c *gin.Context, call func(userID string, req *T) (*dto.EnqueueResponseDTO, error)) {
	var req T
	if !middleware.Bind(c, &req) {
		c.Abort()
		return
	}

	resp, err := call(middleware.UserID(c), &req)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusAccepted, resp)
}

func (h *Handler) TextToVideo(c *gin.Context) {
	enqueue(c, func(userID string, req *dto.TextToVideoRequest) (*dto.EnqueueResponseDTO, error) {
		return h.service.TextToVideo(c.Request.Context(), userID, req)
	})
}

func (h *Handler) ImageToVideo(c *gin.Context) {
	enqueue(c, func(userID string, req *dto.ImageToVideoRequest) (*dto.EnqueueResponseDTO, error) {
		return h.service.ImageToVideo(c.Request.Context(), userID, req)
	})
}

func (h *Handler) VideoToVideo(c *gin.Context) {
	enqueue(c, func(userID string, req *dto.VideoToVideoRequest) (*dto.EnqueueResponseDTO, error) {
		return h.service.VideoToVideo(c.Request.Context(), userID, req)
	})
}

func (h *Handler) VoiceSynthesis(c *gin.Context) {
	enqueue(c, func(userID string, req *dto.VoiceSynthesisRequest) (*dto.EnqueueResponseDTO, error) {
		return h.service.VoiceSynthesis(c.Request.Context(), userID, req)
	})
}

func (h *Handler) LipSync(c *gin.Context) {
	enqueue(c, func(userID string, req *dto.LipSyncRequest) (*dto.EnqueueResponseDTO, error) {
		return h.service.LipSync(c.Request.Context(), userID, req)
	})
}

func (h *Handler) BulkVideos(c *gin.Context) {
	enqueue(c, func(userID string, req *dto.BulkVideoRequest) (*dto.EnqueueResponseDTO, error) {
		return h.service.BulkVideos(c.Request.Context(), userID, req)
	})
}

func (h *Handler) GetJob(c *gin.Context) {
	id := c.Param("id")
	if uuid.Validate(id) != nil {
		c.JSON(http.StatusBadRequest, common.APIError{Message: "invalid job id"})
		return
	}

	resp, err := h.service.GetJob(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) CancelJob(c *gin.Context) {
	id := c.Param("id")
	if uuid.Validate(id) != nil {
		c.JSON(http.StatusBadRequest, common.APIError{Message: "invalid job id"})
		return
	}

	if err := h.service.CancelJob(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) QueueStats(c *gin.Context) {
	stats, err := h.service.QueueStats(c.Request.Context(), c.Param("name"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) PauseQueue(c *gin.Context) {
	if err := h.service.PauseQueue(c.Param("name")); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ResumeQueue(c *gin.Context) {
	if err := h.service.ResumeQueue(c.Param("name")); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ClearQueue(c *gin.Context) {
	if err := h.service.ClearQueue(c.Request.Context(), c.Param("name")); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Health(c *gin.Context) {
	queues := h.service.Health(c.Request.Context())

	healthy := true
	for _, ok := range queues {
		healthy = healthy && ok
	}

	status := http.StatusOK
	body := gin.H{"status": "ok", "queues": queues}
	if !healthy {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
	}
	c.JSON(status, body)
}

func (h *Handler) RegisterWebhook(c *gin.Context) {
	var req dto.WebhookCreateRequest
	if !middleware.Bind(c, &req) {
		c.Abort()
		return
	}

	resp, err := h.service.RegisterWebhook(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) ListWebhooks(c *gin.Context) {
	hooks, err := h.service.ListWebhooks(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, hooks)
}
