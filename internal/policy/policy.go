// Package policy holds the tier-dependent limits applied to submissions
// and to result visibility.
package policy

import "framegrab/models"

// FreeLimit is the number of frames a non-pro caller sees unlocked.
const FreeLimit = 12

// DefaultQuality is used when a submission names no usable quality.
const DefaultQuality = 480

// Limits is one row of the policy table. A MaxQuality of zero means the
// requested quality passes through unchanged.
type Limits struct {
	FrameLimit int
	MaxQuality int
}

// Table maps each tier to its limits.
type Table map[models.Tier]Limits

// Default returns the production policy.
func Default() Table {
	return Table{
		models.TierPro:  {FrameLimit: 50},
		models.TierFree: {FrameLimit: 12, MaxQuality: 480},
	}
}

// Resolve returns the quality and frame limit a submission receives.
// Unknown tiers fall back to the free row.
func (t Table) Resolve(tier models.Tier, requested int) (quality, limit int) {
	row, ok := t[tier]
	if !ok {
		row = t[models.TierFree]
	}
	quality = requested
	if quality <= 0 {
		quality = DefaultQuality
	}
	if row.MaxQuality > 0 && quality > row.MaxQuality {
		quality = row.MaxQuality
	}
	return quality, row.FrameLimit
}
