package provider

import (
	"context"
	"fmt"
)

// Runway is the pollable backend: submit returns a generation handle, then
// the status endpoint is polled until a terminal state or the poll budget
// runs out.
type Runway struct {
	client *apiClient
	poll   PollingStrategy
}

func NewRunway(cfg *Config, poll PollingStrategy) *Runway {
	return &Runway{
		client: newAPIClient(cfg.RunwayBaseURL, cfg.RunwayAPIKey, cfg.RequestTimeoutSec),
		poll:   poll,
	}
}

func (r *Runway) Name() string { return "runway" }

type runwaySubmit struct {
	Type           string  `json:"type"`
	Prompt         string  `json:"prompt,omitempty"`
	Duration       int     `json:"duration,omitempty"`
	AspectRatio    string  `json:"aspect_ratio,omitempty"`
	Style          string  `json:"style,omitempty"`
	Image          string  `json:"image,omitempty"`
	Video          string  `json:"video,omitempty"`
	MotionStrength float64 `json:"motion_strength,omitempty"`
	Strength       float64 `json:"strength,omitempty"`
	PreserveAudio  bool    `json:"preserve_audio,omitempty"`
}

type runwayStatus struct {
	ID           string `json:"id"`
	Status       string `json:"status"` // processing | completed | failed
	VideoURL     string `json:"video_url"`
	ThumbnailURL string `json:"thumbnail_url"`
	Duration     int    `json:"duration"`
	Error        string `json:"error"`
}

func (r *Runway) Generate(ctx context.Context, req GenerateRequest, onProgress ProgressFunc) (*GenerateResult, error) {
	submit := runwaySubmit{
		Prompt:      req.Prompt,
		Duration:    req.Duration,
		AspectRatio: req.AspectRatio,
		Style:       req.Style,
	}
	switch {
	case req.ImageURL != "":
		submit.Type = "image_to_video"
		submit.Image = req.ImageURL
		submit.MotionStrength = req.MotionStrength
	case req.InputVideoURL != "":
		submit.Type = "video_to_video"
		submit.Video = req.InputVideoURL
		submit.Strength = req.Strength
		submit.PreserveAudio = req.PreserveAudio
	default:
		submit.Type = "text_to_video"
	}

	var created runwayStatus
	if err := r.client.postJSON(ctx, "runway.submit", "/generate", submit, &created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, Permanent("runway.submit", fmt.Errorf("no generation id in response"))
	}

	if onProgress != nil {
		onProgress(10)
	}

	var final runwayStatus
	err := r.poll.Run(ctx, "runway.poll", func(ctx context.Context, attempt int) (bool, error) {
		var st runwayStatus
		if err := r.client.getJSON(ctx, "runway.poll", "/generations/"+created.ID, &st); err != nil {
			return false, err
		}

		// The status endpoint reports no granular progress; advance as a
		// fraction of the attempt budget, capped at 80 before upload.
		if onProgress != nil {
			p := 10 + attempt*70/r.poll.MaxAttempts
			if p > 80 {
				p = 80
			}
			onProgress(p)
		}

		switch st.Status {
		case "completed":
			final = st
			return true, nil
		case "failed":
			return false, Permanent("runway.poll", fmt.Errorf("generation failed: %s", st.Error))
		default:
			return false, nil
		}
	})
	if err != nil {
		return nil, err
	}

	if final.VideoURL == "" {
		return nil, Permanent("runway.poll", errEmptyArtifact)
	}

	duration := final.Duration
	if duration == 0 {
		duration = req.Duration
	}

	return &GenerateResult{
		ArtifactURL:  final.VideoURL,
		ThumbnailURL: final.ThumbnailURL,
		Duration:     duration,
		Metadata: map[string]any{
			"model":         "runway",
			"generation_id": created.ID,
			"prompt":        req.Prompt,
			"mode":          submit.Type,
		},
	}, nil
}
