package config

type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusActive    JobStatus = "active"
	JobStatusDelayed   JobStatus = "delayed"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Queue names. Each queue carries its own concurrency and retry policy,
// registered in the queue package.
const (
	QueueVideoGeneration = "video-generation"
	QueueAudioGeneration = "audio-generation"
	QueueBulkOperations  = "bulk-operations"
	QueueWebhookDelivery = "webhook-delivery"
)

// Job types. One typed payload per type lives in internal/dto; the
// dispatcher rejects anything not listed here before a worker runs it.
const (
	JobTypeTextToVideo    = "text-to-video"
	JobTypeImageToVideo   = "image-to-video"
	JobTypeVideoToVideo   = "video-to-video"
	JobTypeVoiceSynthesis = "voice-synthesis"
	JobTypeLipSync        = "lip-sync"
	JobTypeBulkVideoGen   = "bulk-video-generation"
	JobTypeDeliverWebhook = "deliver-webhook"
)

var AllowedQueues = []string{
	QueueVideoGeneration,
	QueueAudioGeneration,
	QueueBulkOperations,
	QueueWebhookDelivery,
}

var AllowedJobTypes = []string{
	JobTypeTextToVideo,
	JobTypeImageToVideo,
	JobTypeVideoToVideo,
	JobTypeVoiceSynthesis,
	JobTypeLipSync,
	JobTypeBulkVideoGen,
	JobTypeDeliverWebhook,
}

type SubscriptionTier string

const (
	TierFree       SubscriptionTier = "FREE"
	TierPro        SubscriptionTier = "PRO"
	TierBusiness   SubscriptionTier = "BUSINESS"
	TierEnterprise SubscriptionTier = "ENTERPRISE"
)

type VideoResolution string

const (
	ResolutionSD480p   VideoResolution = "480p"
	ResolutionHD720p   VideoResolution = "720p"
	ResolutionFHD1080p VideoResolution = "1080p"
	ResolutionUHD4K    VideoResolution = "4k"
)

// CreditsPerSecond is the per-resolution credit rate used by the cost
// formula: cost = ceil(rate * duration * tier multiplier).
var CreditsPerSecond = map[VideoResolution]int64{
	ResolutionSD480p:   1,
	ResolutionHD720p:   2,
	ResolutionFHD1080p: 3,
	ResolutionUHD4K:    5,
}

// FreeTierCostMultiplier is applied on top of the base rate for FREE
// accounts. Paid tiers pay the base rate.
const FreeTierCostMultiplier = 1.5

type PlanLimits struct {
	VideosPerDay  int // -1 means unlimited
	MaxDuration   int // seconds
	MaxResolution VideoResolution
}

var TierLimits = map[SubscriptionTier]PlanLimits{
	TierFree:       {VideosPerDay: 5, MaxDuration: 30, MaxResolution: ResolutionSD480p},
	TierPro:        {VideosPerDay: 50, MaxDuration: 300, MaxResolution: ResolutionFHD1080p},
	TierBusiness:   {VideosPerDay: 200, MaxDuration: 600, MaxResolution: ResolutionUHD4K},
	TierEnterprise: {VideosPerDay: -1, MaxDuration: 1800, MaxResolution: ResolutionUHD4K},
}

// EnqueuePriority maps a subscription tier to the job priority applied at
// admission time. Higher values are dispatched first within a queue.
var EnqueuePriority = map[SubscriptionTier]int{
	TierFree:       1,
	TierPro:        5,
	TierBusiness:   10,
	TierEnterprise: 10,
}

var resolutionRank = map[VideoResolution]int{
	ResolutionSD480p:   1,
	ResolutionHD720p:   2,
	ResolutionFHD1080p: 3,
	ResolutionUHD4K:    4,
}

// ResolutionWithin reports whether r is at or below max in the
// resolution hierarchy. Unknown resolutions never pass the gate.
func ResolutionWithin(r, max VideoResolution) bool {
	return resolutionRank[r] != 0 && resolutionRank[r] <= resolutionRank[max]
}

// Webhook event types fired on terminal job outcomes.
const (
	EventVideoCompleted = "video.completed"
	EventVideoFailed    = "video.failed"
	EventAudioCompleted = "audio.completed"
	EventAudioFailed    = "audio.failed"
)

// Credit ledger reasons.
const (
	CreditReasonDebit  = "debit-admission"
	CreditReasonRefund = "refund-failure"
)
