package dto

// Request bodies for the generation API. Validator tags mirror the
// product limits; tier and balance gates are enforced by the service.

type TextToVideoRequest struct {
	Prompt        string  `json:"prompt" validate:"required,min=10,max=1000"`
	Duration      int     `json:"duration" validate:"required,gte=1,lte=300"`
	AspectRatio   string  `json:"aspect_ratio" validate:"required,oneof=16:9 9:16 1:1 4:3"`
	Model         string  `json:"model" validate:"required,oneof=sora runway luma"`
	Style         string  `json:"style,omitempty" validate:"omitempty,max=100"`
	Seed          int64   `json:"seed,omitempty" validate:"omitempty,gte=0"`
	GuidanceScale float64 `json:"guidance_scale,omitempty" validate:"omitempty,gte=1,lte=20"`
}

type ImageToVideoRequest struct {
	ImageURL       string  `json:"image_url" validate:"required,url"`
	Prompt         string  `json:"prompt,omitempty" validate:"omitempty,max=500"`
	Duration       int     `json:"duration" validate:"required,gte=1,lte=30"`
	MotionStrength float64 `json:"motion_strength" validate:"gte=0,lte=1"`
	Model          string  `json:"model" validate:"required,oneof=runway luma"`
}

type VideoToVideoRequest struct {
	InputVideoURL string  `json:"input_video_url" validate:"required,url"`
	Prompt        string  `json:"prompt" validate:"required,min=10,max=1000"`
	Strength      float64 `json:"strength" validate:"gte=0,lte=1"`
	PreserveAudio bool    `json:"preserve_audio"`
	Model         string  `json:"model" validate:"required,oneof=runway luma"`
}

type VoiceSynthesisRequest struct {
	Text            string  `json:"text" validate:"required,min=1,max=5000"`
	VoiceID         string  `json:"voice_id" validate:"required"`
	Model           string  `json:"model" validate:"required,oneof=elevenlabs sora"`
	Language        string  `json:"language" validate:"required,len=2"`
	Stability       float64 `json:"stability,omitempty" validate:"omitempty,gte=0,lte=1"`
	SimilarityBoost float64 `json:"similarity_boost,omitempty" validate:"omitempty,gte=0,lte=1"`
}

type LipSyncRequest struct {
	VideoURL              string `json:"video_url" validate:"required,url"`
	AudioURL              string `json:"audio_url" validate:"required,url"`
	PreserveOriginalAudio bool   `json:"preserve_original_audio"`
}

type BulkVideoRequest struct {
	Videos   []TextToVideoRequest `json:"videos" validate:"required,min=1,max=50,dive"`
	Priority string               `json:"priority,omitempty" validate:"omitempty,oneof=normal high"`
}
