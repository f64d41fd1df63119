package dto

import "encoding/json"

// Job payloads as stored on the queue. Each job type has exactly one
// payload shape; the dispatcher decodes by job type and refuses anything
// it does not know.

// JobMeta is the slice of every generation payload the worker needs for
// compensation: who paid, and how much. Webhook jobs carry a zero cost
// and are therefore never refunded.
type JobMeta struct {
	UserID string `json:"user_id"`
	Cost   int64  `json:"cost"`
}

type VideoGenerationPayload struct {
	JobMeta
	VideoID        string  `json:"video_id" validate:"required"`
	Prompt         string  `json:"prompt,omitempty"`
	Duration       int     `json:"duration"`
	AspectRatio    string  `json:"aspect_ratio,omitempty"`
	Resolution     string  `json:"resolution"`
	Style          string  `json:"style,omitempty"`
	Model          string  `json:"model" validate:"required"`
	Seed           int64   `json:"seed,omitempty"`
	GuidanceScale  float64 `json:"guidance_scale,omitempty"`
	ImageURL       string  `json:"image_url,omitempty"`
	InputVideoURL  string  `json:"input_video_url,omitempty"`
	MotionStrength float64 `json:"motion_strength,omitempty"`
	Strength       float64 `json:"strength,omitempty"`
	PreserveAudio  bool    `json:"preserve_audio,omitempty"`
	BulkJobID      string  `json:"bulk_job_id,omitempty"`
	BulkIndex      int     `json:"bulk_index,omitempty"`
}

type VoiceSynthesisPayload struct {
	JobMeta
	Text            string  `json:"text" validate:"required"`
	VoiceID         string  `json:"voice_id" validate:"required"`
	Model           string  `json:"model" validate:"required"`
	Language        string  `json:"language,omitempty"`
	Stability       float64 `json:"stability,omitempty"`
	SimilarityBoost float64 `json:"similarity_boost,omitempty"`
}

type LipSyncPayload struct {
	JobMeta
	VideoID               string `json:"video_id" validate:"required"`
	VideoURL              string `json:"video_url" validate:"required"`
	AudioURL              string `json:"audio_url" validate:"required"`
	PreserveOriginalAudio bool   `json:"preserve_original_audio"`
}

// BulkVideoPayload carries the full bulk debit in its JobMeta; each
// child payload carries its own slice of it. ChildJobIDs are assigned
// at enqueue time so a retried split can recognize children that are
// already queued.
type BulkVideoPayload struct {
	JobMeta
	Videos      []VideoGenerationPayload `json:"videos" validate:"required,min=1"`
	ChildJobIDs []string                 `json:"child_job_ids,omitempty"`
	Priority    string                   `json:"priority,omitempty"`
}

type WebhookDeliveryPayload struct {
	JobMeta
	WebhookID string          `json:"webhook_id" validate:"required"`
	EventType string          `json:"event_type" validate:"required"`
	Data      json.RawMessage `json:"data"`
}
