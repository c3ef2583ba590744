package ctdf

import "time"

type Freshness string

const (
	FreshnessFresh Freshness = "fresh"
	FreshnessAging Freshness = "aging"
	FreshnessStale Freshness = "stale"
)

const (
	FreshThreshold = 15 * time.Second
	AgingThreshold = 45 * time.Second
)

// ClassifyFreshness maps how long ago a live value last changed onto a trust tier.
// A zero lastChangedAt means no change has been observed yet and is treated as aging.
func ClassifyFreshness(lastChangedAt time.Time, now time.Time) Freshness {
	if lastChangedAt.IsZero() {
		return FreshnessAging
	}

	age := now.Sub(lastChangedAt)

	switch {
	case age <= FreshThreshold:
		return FreshnessFresh
	case age <= AgingThreshold:
		return FreshnessAging
	default:
		return FreshnessStale
	}
}
