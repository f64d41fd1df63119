package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mediaforge/mediaforge/internal/config"
	"github.com/mediaforge/mediaforge/internal/dto"
	"github.com/mediaforge/mediaforge/internal/models"
	"github.com/mediaforge/mediaforge/internal/provider"
	"gorm.io/datatypes"
)

// Progress bands for a generation job. The adapter owns 10-80; everything
// after the artifact exists is ours.
const (
	stageInitializing = "initializing"
	stageGenerating   = "ai_processing"
	stageUploading    = "uploading"
	stageThumbnail    = "generating_thumbnail"
	stageCompleted    = "completed"
)

// HandleVideoGeneration serves text-to-video, image-to-video and
// video-to-video jobs: route to the model's adapter, run the generation,
// move the artifact into our store, and persist the outcome.
func HandleVideoGeneration(deps Deps) HandlerFunc {
	return func(ctx context.Context, job *Job) (any, error) {
		payload, err := decodePayload[dto.VideoGenerationPayload](job.Payload)
		if err != nil {
			return nil, err
		}

		adapter, err := deps.Providers.Video(payload.Model)
		if err != nil {
			return nil, err
		}

		job.Report(0, stageInitializing)
		if deps.Videos != nil {
			_ = deps.Videos.UpdateFields(ctx, payload.VideoID, map[string]any{
				"status": models.VideoStatusProcessing,
			})
		}

		req := provider.GenerateRequest{
			Prompt:         payload.Prompt,
			Duration:       payload.Duration,
			AspectRatio:    payload.AspectRatio,
			Resolution:     payload.Resolution,
			Style:          payload.Style,
			Seed:           payload.Seed,
			GuidanceScale:  payload.GuidanceScale,
			ImageURL:       payload.ImageURL,
			InputVideoURL:  payload.InputVideoURL,
			MotionStrength: payload.MotionStrength,
			Strength:       payload.Strength,
			PreserveAudio:  payload.PreserveAudio,
		}

		job.Report(10, stageGenerating)
		gen, err := adapter.Generate(ctx, req, func(p int) {
			job.Report(p, stageGenerating)
		})
		if err != nil {
			return nil, err
		}

		job.Report(80, stageUploading)
		stored, err := storeArtifact(ctx, deps, gen.ArtifactURL,
			fmt.Sprintf("video-%s.mp4", payload.VideoID), payload.UserID)
		if err != nil {
			return nil, err
		}

		job.Report(90, stageThumbnail)
		thumbnailURL := ""
		if gen.ThumbnailURL != "" {
			thumb, err := storeArtifact(ctx, deps, gen.ThumbnailURL,
				fmt.Sprintf("thumb-%s.jpg", payload.VideoID), payload.UserID)
			if err != nil {
				return nil, err
			}
			thumbnailURL = thumb.URL
		}

		duration := gen.Duration
		if duration == 0 {
			duration = payload.Duration
		}

		if deps.Videos != nil {
			fields := map[string]any{
				"status":        models.VideoStatusCompleted,
				"url":           stored.URL,
				"thumbnail_url": thumbnailURL,
				"duration":      duration,
				"file_size":     stored.Size,
			}
			if meta := marshalMetadata(gen.Metadata); meta != nil {
				fields["metadata"] = meta
			}
			if err := deps.Videos.UpdateFields(ctx, payload.VideoID, fields); err != nil {
				return nil, provider.StorageUpload("video.persist", err)
			}
		}

		job.Report(100, stageCompleted)

		result := map[string]any{
			"video_id":      payload.VideoID,
			"video_url":     stored.URL,
			"thumbnail_url": thumbnailURL,
			"duration":      duration,
			"model":         payload.Model,
		}
		if payload.BulkJobID != "" {
			result["bulk_job_id"] = payload.BulkJobID
			result["bulk_index"] = payload.BulkIndex
		}

		if deps.Emitter != nil {
			deps.Emitter.Emit(ctx, payload.UserID, eventForCompletion(job.Queue), map[string]any{
				"job_id":        job.ID,
				"video_id":      payload.VideoID,
				"video_url":     stored.URL,
				"thumbnail_url": thumbnailURL,
				"duration":      duration,
			})
		}

		return result, nil
	}
}

// storeArtifact moves one provider artifact into our content store.
// Either leg failing is an upload-stage error, which retries.
func storeArtifact(ctx context.Context, deps Deps, srcURL, name, ownerID string) (*storedArtifact, error) {
	data, err := deps.Uploads.Fetch(ctx, srcURL)
	if err != nil {
		return nil, provider.StorageUpload("artifact.fetch", err)
	}
	res, err := deps.Uploads.Upload(ctx, data, name, ownerID)
	if err != nil {
		return nil, provider.StorageUpload("artifact.upload", err)
	}
	return &storedArtifact{URL: res.URL, Size: res.Size}, nil
}

type storedArtifact struct {
	URL  string
	Size int64
}

func marshalMetadata(m map[string]any) any {
	if len(m) == 0 {
		return nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

// eventForCompletion maps a queue to the webhook event fired on success.
func eventForCompletion(queueName string) string {
	if queueName == config.QueueAudioGeneration {
		return config.EventAudioCompleted
	}
	return config.EventVideoCompleted
}
