package models

// WorkMessage is pushed onto the work queue for the extraction worker.
// The worker must treat ResolvedLimit as a hard cap on produced frames and
// ResolvedQuality as the target resolution.
//
// URL, Quality, Limit and IsPro repeat the same values under the keys the
// deployed worker reads.
type WorkMessage struct {
	JobID           string `json:"jobId"`
	SourceURL       string `json:"sourceUrl"`
	ResolvedQuality int    `json:"resolvedQuality"`
	ResolvedLimit   int    `json:"resolvedLimit"`
	OwnerTier       Tier   `json:"ownerTier"`

	URL     string `json:"url"`
	Quality int    `json:"quality"`
	Limit   int    `json:"limit"`
	IsPro   bool   `json:"isPro"`
}

// NewWorkMessage describes job for the worker.
func NewWorkMessage(job Job) WorkMessage {
	return WorkMessage{
		JobID:           job.JobID,
		SourceURL:       job.SourceURL,
		ResolvedQuality: job.RequestedQuality,
		ResolvedLimit:   job.FrameLimit,
		OwnerTier:       job.OwnerTier,
		URL:             job.SourceURL,
		Quality:         job.RequestedQuality,
		Limit:           job.FrameLimit,
		IsPro:           job.OwnerTier == TierPro,
	}
}
