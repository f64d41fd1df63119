package provider

import "context"

// Sora is the direct-call backend: a single request blocks until the
// artifact is ready, bounded only by the client timeout.
type Sora struct {
	client *apiClient
}

func NewSora(cfg *Config) *Sora {
	return &Sora{client: newAPIClient(cfg.SoraBaseURL, cfg.SoraAPIKey, cfg.RequestTimeoutSec)}
}

func (s *Sora) Name() string { return "sora" }

type soraRequest struct {
	Prompt      string  `json:"prompt"`
	Duration    int     `json:"duration_seconds"`
	AspectRatio string  `json:"aspect_ratio,omitempty"`
	Resolution  string  `json:"resolution,omitempty"`
	Style       string  `json:"style,omitempty"`
	Seed        int64   `json:"seed,omitempty"`
	Guidance    float64 `json:"guidance_scale,omitempty"`
}

type soraResponse struct {
	ID       string `json:"id"`
	VideoURL string `json:"video_url"`
	Duration int    `json:"duration"`
}

func (s *Sora) Generate(ctx context.Context, req GenerateRequest, onProgress ProgressFunc) (*GenerateResult, error) {
	if req.Prompt == "" {
		return nil, Validationf("sora requires a prompt")
	}

	if onProgress != nil {
		onProgress(10)
	}

	var resp soraResponse
	err := s.client.postJSON(ctx, "sora.generate", "/video/generations", soraRequest{
		Prompt:      req.Prompt,
		Duration:    req.Duration,
		AspectRatio: req.AspectRatio,
		Resolution:  req.Resolution,
		Style:       req.Style,
		Seed:        req.Seed,
		Guidance:    req.GuidanceScale,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.VideoURL == "" {
		return nil, Permanent("sora.generate", errEmptyArtifact)
	}

	duration := resp.Duration
	if duration == 0 {
		duration = req.Duration
	}

	return &GenerateResult{
		ArtifactURL: resp.VideoURL,
		Duration:    duration,
		Metadata: map[string]any{
			"model":         "sora",
			"generation_id": resp.ID,
			"prompt":        req.Prompt,
			"aspect_ratio":  req.AspectRatio,
		},
	}, nil
}

var errEmptyArtifact = errNoArtifact{}

type errNoArtifact struct{}

func (errNoArtifact) Error() string { return "provider returned no artifact url" }
