package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mediaforge/mediaforge/internal/config"
	"github.com/mediaforge/mediaforge/internal/dto"
	"github.com/mediaforge/mediaforge/internal/models"
	"github.com/mediaforge/mediaforge/internal/provider"
)

// HandleVoiceSynthesis runs one text-to-speech job: synthesize audio
// bytes in a single bounded call and park them in the content store.
func HandleVoiceSynthesis(deps Deps) HandlerFunc {
	return func(ctx context.Context, job *Job) (any, error) {
		payload, err := decodePayload[dto.VoiceSynthesisPayload](job.Payload)
		if err != nil {
			return nil, err
		}

		adapter, err := deps.Providers.Speech(payload.Model)
		if err != nil {
			return nil, err
		}

		job.Report(10, stageGenerating)
		audio, err := adapter.Synthesize(ctx, provider.SpeechRequest{
			Text:            payload.Text,
			VoiceID:         payload.VoiceID,
			Language:        payload.Language,
			Stability:       payload.Stability,
			SimilarityBoost: payload.SimilarityBoost,
		})
		if err != nil {
			return nil, err
		}

		job.Report(80, stageUploading)
		name := fmt.Sprintf("voice-%s-%d.mp3", payload.VoiceID, time.Now().UnixMilli())
		stored, err := deps.Uploads.Upload(ctx, audio, name, payload.UserID)
		if err != nil {
			return nil, provider.StorageUpload("audio.upload", err)
		}

		job.Report(100, stageCompleted)

		result := map[string]any{
			"audio_url": stored.URL,
			"voice_id":  payload.VoiceID,
			"model":     payload.Model,
			"duration":  estimateSpeechSeconds(payload.Text),
			"size":      stored.Size,
		}

		if deps.Emitter != nil {
			deps.Emitter.Emit(ctx, payload.UserID, config.EventAudioCompleted, map[string]any{
				"job_id":    job.ID,
				"audio_url": stored.URL,
				"voice_id":  payload.VoiceID,
			})
		}

		return result, nil
	}
}

// HandleLipSync re-renders an existing video against a new audio track.
// The heavy lifting goes through the video-to-video backend; the audio
// url rides along in the request metadata.
func HandleLipSync(deps Deps) HandlerFunc {
	return func(ctx context.Context, job *Job) (any, error) {
		payload, err := decodePayload[dto.LipSyncPayload](job.Payload)
		if err != nil {
			return nil, err
		}

		adapter, err := deps.Providers.Video("runway")
		if err != nil {
			return nil, err
		}

		job.Report(0, stageInitializing)
		if deps.Videos != nil {
			_ = deps.Videos.UpdateFields(ctx, payload.VideoID, map[string]any{
				"status": models.VideoStatusProcessing,
			})
		}

		job.Report(10, stageGenerating)
		gen, err := adapter.Generate(ctx, provider.GenerateRequest{
			Prompt:        "lip sync to attached audio track",
			InputVideoURL: payload.VideoURL,
			Strength:      1,
			PreserveAudio: payload.PreserveOriginalAudio,
		}, func(p int) {
			job.Report(p, stageGenerating)
		})
		if err != nil {
			return nil, err
		}

		job.Report(80, stageUploading)
		stored, err := storeArtifact(ctx, deps, gen.ArtifactURL,
			fmt.Sprintf("lipsync-%s.mp4", payload.VideoID), payload.UserID)
		if err != nil {
			return nil, err
		}

		if deps.Videos != nil {
			_ = deps.Videos.UpdateFields(ctx, payload.VideoID, map[string]any{
				"status": models.VideoStatusCompleted,
				"url":    stored.URL,
			})
		}

		job.Report(100, stageCompleted)

		result := map[string]any{
			"video_id":  payload.VideoID,
			"video_url": stored.URL,
			"audio_url": payload.AudioURL,
		}

		if deps.Emitter != nil {
			deps.Emitter.Emit(ctx, payload.UserID, config.EventAudioCompleted, map[string]any{
				"job_id":    job.ID,
				"video_id":  payload.VideoID,
				"video_url": stored.URL,
			})
		}

		return result, nil
	}
}

// estimateSpeechSeconds approximates spoken duration at ~150 words per
// minute. Good enough for the result envelope; the file itself is
// authoritative.
func estimateSpeechSeconds(text string) int {
	words := len(strings.Fields(text))
	secs := words * 60 / 150
	if secs < 1 {
		secs = 1
	}
	return secs
}
