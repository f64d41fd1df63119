package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// GenerateRequest is the common input envelope handed to every adapter.
// Adapters read the fields they understand and ignore the rest.
type GenerateRequest struct {
	Prompt         string
	Duration       int
	AspectRatio    string
	Resolution     string
	Style          string
	Seed           int64
	GuidanceScale  float64
	ImageURL       string
	InputVideoURL  string
	MotionStrength float64
	Strength       float64
	PreserveAudio  bool
}

// GenerateResult is the common result envelope. No further cross-provider
// normalization happens; Metadata carries whatever the backend returned.
type GenerateResult struct {
	ArtifactURL string
	// ThumbnailURL is set when the backend renders a poster frame; not
	// all of them do.
	ThumbnailURL string
	Duration     int
	Metadata     map[string]any
}

// ProgressFunc receives partial progress (0-100) from streaming adapters.
// It must never block for long and must never return an error into the
// adapter.
type ProgressFunc func(progress int)

// Adapter is the uniform contract over one external generation backend.
// Every error that crosses this boundary is already classified.
type Adapter interface {
	Name() string
	// Generate runs one generation to a terminal outcome. Streaming and
	// polling backends report partial progress through onProgress, which
	// may be nil.
	Generate(ctx context.Context, req GenerateRequest, onProgress ProgressFunc) (*GenerateResult, error)
}

// SpeechRequest is the input for voice synthesis backends.
type SpeechRequest struct {
	Text            string
	VoiceID         string
	Language        string
	Stability       float64
	SimilarityBoost float64
}

// SpeechAdapter produces raw audio bytes in one bounded call.
type SpeechAdapter interface {
	Name() string
	Synthesize(ctx context.Context, req SpeechRequest) ([]byte, error)
}

// Registry routes a model name to its adapter. It is populated once at
// startup and read-only afterwards, but guarded anyway so tests can swap
// adapters in.
type Registry struct {
	mu     sync.RWMutex
	video  map[string]Adapter
	speech map[string]SpeechAdapter
}

func NewRegistry() *Registry {
	return &Registry{
		video:  make(map[string]Adapter),
		speech: make(map[string]SpeechAdapter),
	}
}

func (r *Registry) RegisterVideo(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.video[a.Name()] = a
}

func (r *Registry) RegisterSpeech(a SpeechAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.speech[a.Name()] = a
}

func (r *Registry) Video(model string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.video[model]
	if !ok {
		return nil, Validationf("unsupported model: %q", model)
	}
	return a, nil
}

func (r *Registry) Speech(model string) (SpeechAdapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.speech[model]
	if !ok {
		return nil, Validationf("unsupported voice model: %q", model)
	}
	return a, nil
}

// Config carries credentials and endpoints for the built-in adapters.
// Base URLs are overridable so tests can point adapters at a local server.
type Config struct {
	SoraAPIKey        string `env:"SORA_API_KEY"`
	SoraBaseURL       string `env:"SORA_BASE_URL,default=https://api.openai.com/v1"`
	RunwayAPIKey      string `env:"RUNWAY_API_KEY"`
	RunwayBaseURL     string `env:"RUNWAY_BASE_URL,default=https://api.runwayml.com/v1"`
	LumaAPIKey        string `env:"LUMA_API_KEY"`
	LumaBaseURL       string `env:"LUMA_BASE_URL,default=https://api.lumalabs.ai/v1"`
	ElevenAPIKey      string `env:"ELEVENLABS_API_KEY"`
	ElevenBaseURL     string `env:"ELEVENLABS_BASE_URL,default=https://api.elevenlabs.io/v1"`
	PollInterval      string `env:"PROVIDER_POLL_INTERVAL,default=5s"`
	MaxPollAttempts   int    `env:"PROVIDER_MAX_POLL_ATTEMPTS,default=120"`
	RequestTimeoutSec int    `env:"PROVIDER_REQUEST_TIMEOUT_SEC,default=60"`
}

func LoadConfig(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Polling builds the strategy the pollable adapters run with.
func (c *Config) Polling() PollingStrategy {
	poll := DefaultPolling()
	if d, err := time.ParseDuration(c.PollInterval); err == nil && d > 0 {
		poll.Interval = d
	}
	if c.MaxPollAttempts > 0 {
		poll.MaxAttempts = c.MaxPollAttempts
	}
	return poll
}

// DefaultRegistry wires the built-in adapters from config.
func DefaultRegistry(cfg *Config, poll PollingStrategy) (*Registry, error) {
	if cfg == nil {
		return nil, fmt.Errorf("provider config is required")
	}

	r := NewRegistry()
	r.RegisterVideo(NewSora(cfg))
	r.RegisterVideo(NewRunway(cfg, poll))
	r.RegisterVideo(NewLuma(cfg, poll))
	r.RegisterSpeech(NewElevenLabs(cfg))
	return r, nil
}
