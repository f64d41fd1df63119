package worker

import (
	"context"
	"log"

	"github.com/mediaforge/mediaforge/internal/config"
	"github.com/mediaforge/mediaforge/internal/dto"
	"github.com/mediaforge/mediaforge/internal/models"
	"github.com/mediaforge/mediaforge/internal/provider"
	"github.com/mediaforge/mediaforge/internal/queue"
)

// HandleBulkVideos splits one bulk request into individual generation
// jobs. The API debits the full bulk cost up front and pre-assigns the
// child job IDs, so a retried split can see which children are already
// queued and skip them instead of enqueueing duplicates.
//
// Each child payload carries its own slice of the debited cost; a child
// failing later refunds only that slice. When the split itself dies on
// its final attempt, the slices of the children that never reached the
// queue are refunded here under the bulk job ID. The worker's own
// full-amount refund that follows dedupes against it and becomes a
// no-op, so credits for children still running are never returned twice.
func HandleBulkVideos(deps Deps) HandlerFunc {
	return func(ctx context.Context, job *Job) (any, error) {
		payload, err := decodePayload[dto.BulkVideoPayload](job.Payload)
		if err != nil {
			return nil, err
		}
		if len(payload.ChildJobIDs) != len(payload.Videos) {
			return nil, provider.Validationf("bulk payload: %d job ids for %d videos",
				len(payload.ChildJobIDs), len(payload.Videos))
		}

		priority := config.EnqueuePriority[config.TierFree]
		if payload.Priority == "high" {
			priority = config.EnqueuePriority[config.TierPro]
		}

		for i := range payload.Videos {
			childID := payload.ChildJobIDs[i]
			if existing, err := deps.Queues.GetJob(ctx, childID); err == nil && existing != nil {
				// queued by an earlier attempt of this split
				job.Report((i+1)*100/len(payload.Videos), "queueing")
				continue
			}

			child := payload.Videos[i]
			child.BulkJobID = job.ID
			child.BulkIndex = i
			if child.UserID == "" {
				child.UserID = payload.UserID
			}

			if _, err := deps.Queues.Enqueue(ctx, config.QueueVideoGeneration,
				config.JobTypeTextToVideo, child, queue.Options{ID: childID, Priority: &priority}); err != nil {
				if job.Attempts >= job.MaxAttempts {
					settleAbortedSplit(ctx, deps, job, payload, i)
				}
				return nil, provider.Transient("bulk.split", err)
			}

			job.Report((i+1)*100/len(payload.Videos), "queueing")
		}

		return map[string]any{
			"total":   len(payload.Videos),
			"job_ids": payload.ChildJobIDs,
		}, nil
	}
}

// settleAbortedSplit compensates for the tail of a split that will not
// be retried. Children from index on never reached the queue: their
// cost slices are refunded in one entry keyed to the bulk job ID and
// their artifact records are failed. Children before index keep running
// and settle on their own.
func settleAbortedSplit(ctx context.Context, deps Deps, job *Job, payload *dto.BulkVideoPayload, from int) {
	var remainder int64
	for i := from; i < len(payload.Videos); i++ {
		child := payload.Videos[i]
		remainder += child.Cost
		if deps.Videos != nil && child.VideoID != "" {
			if err := deps.Videos.UpdateFields(ctx, child.VideoID, map[string]any{
				"status":        models.VideoStatusFailed,
				"error_message": "bulk split aborted before this video was queued",
			}); err != nil {
				log.Printf("bulk split %s: mark video %s failed: %v", job.ID, child.VideoID, err)
			}
		}
	}
	if remainder > 0 && deps.Credits != nil {
		if err := deps.Credits.Refund(ctx, payload.UserID, remainder, job.ID); err != nil {
			log.Printf("bulk split %s: refund %d credits: %v", job.ID, remainder, err)
		}
	}
}
