// Package progress tracks reading progress so it only ever moves forward.
package progress

import (
	"fmt"

	"highlight-sync/internal/domain"
)

type Tracker struct {
	current float64
}

// NewTracker starts from the last known remote value, clamped to [0, 100].
func NewTracker(initial float64) *Tracker {
	return &Tracker{current: clamp(initial)}
}

func (t *Tracker) Current() float64 {
	return t.current
}

// Report computes the percentage reached at page index out of total pages.
// advanced is true, and the tracker updated, only when it exceeds the current value.
func (t *Tracker) Report(index, total int) (percent float64, advanced bool, err error) {
	if total <= 0 {
		return 0, false, fmt.Errorf("total must be positive, got %d: %w", total, domain.ErrInvalidInput)
	}

	raw := clamp(float64(index+1) / float64(total) * 100)
	if raw <= t.current {
		return t.current, false, nil
	}

	t.current = raw
	return raw, true, nil
}

func clamp(p float64) float64 {
	// NaN compares false everywhere and falls through to 0.
	if p > 100 {
		return 100
	}
	if p > 0 {
		return p
	}
	return 0
}
