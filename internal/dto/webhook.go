package dto

import "time"

type WebhookCreateRequest struct {
	URL    string   `json:"url" validate:"required,url"`
	Events []string `json:"events" validate:"required,min=1,dive,oneof=video.completed video.failed audio.completed audio.failed"`
	Secret string   `json:"secret,omitempty" validate:"omitempty,min=16,max=128"`
}

type WebhookResponseDTO struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Events    []string  `json:"events"`
	Secret    string    `json:"secret,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
