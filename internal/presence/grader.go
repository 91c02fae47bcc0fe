package presence

import "perimeter/internal/domain/entity"

// Grader computes the server-authoritative severity for a snapshot from
// containment and accumulated time outside. The warning boundary is a
// configurable fraction of the allowed limit; integrations against another
// backend must confirm its threshold rather than assume parity.
type Grader struct {
	warningRatio float64
}

// NewGrader creates a grader. Ratios outside (0, 1) fall back to 0.8.
func NewGrader(warningRatio float64) *Grader {
	if warningRatio <= 0 || warningRatio >= 1 {
		warningRatio = 0.8
	}

	return &Grader{warningRatio: warningRatio}
}

// Grade returns the severity for the given containment and timer values.
func (g *Grader) Grade(isWithin, markedAbsent bool, accumulatedSeconds, maxSeconds int) entity.Severity {
	switch {
	case markedAbsent:
		return entity.SeverityAbsent
	case isWithin:
		return entity.SeverityInside
	case maxSeconds > 0 && accumulatedSeconds >= maxSeconds:
		return entity.SeverityExceededLimit
	case maxSeconds > 0 && float64(accumulatedSeconds) >= g.warningRatio*float64(maxSeconds):
		return entity.SeverityWarning
	default:
		return entity.SeverityOutside
	}
}
