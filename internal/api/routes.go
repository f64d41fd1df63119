package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mediaforge/mediaforge/middleware"
)

// RegisterRoutes mounts the full HTTP surface on a gin engine.
func RegisterRoutes(r *gin.Engine, h HandlerInterface) {
	r.Use(middleware.ErrorHandler())

	r.GET("/health", h.Health)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RequireUser())
	{
		gen := v1.Group("/generate")
		{
			gen.POST("/text-to-video", h.TextToVideo)
			gen.POST("/image-to-video", h.ImageToVideo)
			gen.POST("/video-to-video", h.VideoToVideo)
			gen.POST("/voice", h.VoiceSynthesis)
			gen.POST("/lip-sync", h.LipSync)
			gen.POST("/bulk", h.BulkVideos)
		}

		v1.GET("/jobs/:id", h.GetJob)
		v1.DELETE("/jobs/:id", h.CancelJob)

		webhooks := v1.Group("/webhooks")
		{
			webhooks.POST("", h.RegisterWebhook)
			webhooks.GET("", h.ListWebhooks)
		}

		admin := v1.Group("/queues")
		{
			admin.GET("/:name/stats", h.QueueStats)
			admin.POST("/:name/pause", h.PauseQueue)
			admin.POST("/:name/resume", h.ResumeQueue)
			admin.POST("/:name/clear", h.ClearQueue)
		}
	}
}
