package ledger

import "time"

// Throttle suppresses repeated sightings of one identity within a window.
// It is not safe for concurrent use; the ledger guards it.
type Throttle struct {
	window time.Duration
	last   map[string]time.Time
}

// NewThrottle creates a throttle with the given window.
func NewThrottle(window time.Duration) *Throttle {
	return &Throttle{window: window, last: make(map[string]time.Time)}
}

// Allow reports whether a sighting at now passes the throttle and, if so,
// remembers now as the identity's last sighting.
func (t *Throttle) Allow(identityID string, now time.Time) bool {
	if last, ok := t.last[identityID]; ok && now.Sub(last) < t.window {
		return false
	}
	t.last[identityID] = now
	return true
}
