// Package presence implements the participant presence engine: staleness
// classification, timeout reconciliation between authoritative snapshots,
// and the derived presence state machine. Everything here is pure,
// clock-injected logic; callers own all timers and serialization.
package presence

import "time"

// Staleness is a classification of how old the last location sample is,
// independent of presence state.
type Staleness string

const (
	// StalenessFresh samples are recent enough to trust fully.
	StalenessFresh Staleness = "fresh"
	// StalenessStale samples gate timer activation and dim the display.
	StalenessStale Staleness = "stale"
	// StalenessVeryStale affects display emphasis only, never the state machine.
	StalenessVeryStale Staleness = "very_stale"
)

// StalenessClassifier buckets sample age into tiers. A pure function of
// elapsed time; re-evaluate on every tick rather than caching.
type StalenessClassifier struct {
	staleAfter     time.Duration
	veryStaleAfter time.Duration
}

// NewStalenessClassifier creates a classifier with the given tier boundaries.
// Non-positive boundaries fall back to the canonical 3 and 10 minutes.
func NewStalenessClassifier(staleAfter, veryStaleAfter time.Duration) *StalenessClassifier {
	if staleAfter <= 0 {
		staleAfter = 3 * time.Minute
	}
	if veryStaleAfter <= staleAfter {
		veryStaleAfter = 10 * time.Minute
	}

	return &StalenessClassifier{
		staleAfter:     staleAfter,
		veryStaleAfter: veryStaleAfter,
	}
}

// Classify returns the staleness tier of a sample observed at lastUpdate.
func (c *StalenessClassifier) Classify(lastUpdate, now time.Time) Staleness {
	age := now.Sub(lastUpdate)
	switch {
	case age < c.staleAfter:
		return StalenessFresh
	case age <= c.veryStaleAfter:
		return StalenessStale
	default:
		return StalenessVeryStale
	}
}

// IsStale reports whether the tier is at or beyond the operative boundary.
func (s Staleness) IsStale() bool {
	return s != StalenessFresh
}
