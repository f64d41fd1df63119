package dto

import (
	"encoding/json"
	"time"
)

// JobDTO is the worker-facing view of a claimed job.
type JobDTO struct {
	ID          string
	Queue       string
	Type        string
	Payload     json.RawMessage
	Priority    int
	Attempts    int
	MaxAttempts int
	Progress    int
}

type JobResponseDTO struct {
	ID          string          `json:"id"`
	Queue       string          `json:"queue"`
	Type        string          `json:"type"`
	Status      string          `json:"status"`
	Priority    int             `json:"priority"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	Progress    int             `json:"progress"`
	Stage       string          `json:"stage,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	FailedAt    *time.Time      `json:"failed_at,omitempty"`
}

type EnqueueResponseDTO struct {
	JobID            string `json:"job_id"`
	VideoID          string `json:"video_id,omitempty"`
	Cost             int64  `json:"cost"`
	CreditsRemaining int64  `json:"credits_remaining"`
	EstimatedTime    string `json:"estimated_time,omitempty"`
}

type QueueStatsDTO struct {
	Waiting   int64 `json:"waiting"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Delayed   int64 `json:"delayed"`
}
