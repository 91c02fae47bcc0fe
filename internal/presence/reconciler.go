package presence

import (
	"time"

	"perimeter/internal/domain/entity"
)

// Reconciler produces a monotonically non-decreasing "seconds outside"
// estimate for one participant between authoritative snapshots, without a
// network round trip per second. Each snapshot is a fresh baseline; local
// wall-clock ticks only ever advance the estimate from there.
type Reconciler struct {
	baseline  int
	anchor    time.Time
	active    bool
	suspended bool
	maxTotal  int
}

// Apply resets the reconciler from an authoritative snapshot.
func (r *Reconciler) Apply(snap *entity.PresenceSnapshot) {
	r.baseline = snap.AccumulatedOutsideSeconds
	r.maxTotal = snap.MaxTimeOutsideSeconds

	if snap.MarkedAbsent {
		// Terminal for the session: the timer is suspended permanently
		// until an explicit un-absent snapshot arrives.
		r.active = false
		r.suspended = true

		return
	}

	r.suspended = false
	r.active = snap.TimerActive
	if snap.TimerActive {
		r.anchor = snap.TimerAnchor()
	}
}

// EstimatedSeconds returns the reconciled seconds-outside value at local
// time now. Frozen at the baseline while the timer is inactive or the
// participant is absent; never goes backward even if the anchor is in the
// future due to clock skew.
func (r *Reconciler) EstimatedSeconds(now time.Time) int {
	if !r.active || r.suspended {
		return r.baseline
	}

	elapsed := int(now.Sub(r.anchor) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}

	return r.baseline + elapsed
}

// RemainingSeconds returns the countdown display value, floored at zero.
func (r *Reconciler) RemainingSeconds(now time.Time) int {
	remaining := r.maxTotal - r.EstimatedSeconds(now)
	if remaining < 0 {
		return 0
	}

	return remaining
}

// Active reports whether the estimate is currently advancing.
func (r *Reconciler) Active() bool {
	return r.active && !r.suspended
}

// Suspended reports whether the participant is marked absent and the timer
// is permanently stopped for the session.
func (r *Reconciler) Suspended() bool {
	return r.suspended
}
