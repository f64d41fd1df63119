package provider

import "context"

// ElevenLabs synthesizes speech in a single bounded call and returns the
// audio bytes directly.
type ElevenLabs struct {
	client *apiClient
}

func NewElevenLabs(cfg *Config) *ElevenLabs {
	return &ElevenLabs{client: newAPIClient(cfg.ElevenBaseURL, cfg.ElevenAPIKey, cfg.RequestTimeoutSec)}
}

func (e *ElevenLabs) Name() string { return "elevenlabs" }

type elevenRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

func (e *ElevenLabs) Synthesize(ctx context.Context, req SpeechRequest) ([]byte, error) {
	if req.Text == "" {
		return nil, Validationf("elevenlabs requires text")
	}
	if req.VoiceID == "" {
		return nil, Validationf("elevenlabs requires a voice id")
	}

	stability := req.Stability
	if stability == 0 {
		stability = 0.5
	}
	boost := req.SimilarityBoost
	if boost == 0 {
		boost = 0.5
	}

	return e.client.postRaw(ctx, "elevenlabs.synthesize", "/text-to-speech/"+req.VoiceID, elevenRequest{
		Text:    req.Text,
		ModelID: "eleven_monolingual_v1",
		VoiceSettings: voiceSettings{
			Stability:       stability,
			SimilarityBoost: boost,
		},
	})
}
