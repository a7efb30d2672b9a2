package guard

import (
	"sync"
	"time"
)

// WindowSize is the trailing interval over which requests are counted
const WindowSize = 60 * time.Second

// RateWindows tracks per-key admission timestamps over a sliding window.
// The prune, count and append for one decision happen under a single lock
// so two concurrent requests can never both take the last slot.
type RateWindows struct {
	mu      sync.Mutex
	windows map[string][]time.Time

	// now is replaceable in tests to simulate clock movement
	now func() time.Time
}

// NewRateWindows creates an empty window tracker
func NewRateWindows() *RateWindows {
	return &RateWindows{
		windows: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow decides admission for one request under the given per-window
// limit. When admitted, the request's timestamp is appended and remaining
// reports the slots left. When denied, remaining is 0 and retryAfter
// carries the client-facing hint.
func (w *RateWindows) Allow(keyID string, limit int) (admitted bool, remaining int, retryAfter time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	cutoff := now.Add(-WindowSize)

	window := w.windows[keyID]
	kept := window[:0]
	for _, ts := range window {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= limit {
		w.windows[keyID] = kept
		return false, 0, WindowSize
	}

	kept = append(kept, now)
	w.windows[keyID] = kept
	return true, limit - len(kept), 0
}

// Count returns the current in-window request count for a key
func (w *RateWindows) Count(keyID string) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := w.now().Add(-WindowSize)
	count := 0
	for _, ts := range w.windows[keyID] {
		if ts.After(cutoff) {
			count++
		}
	}
	return count
}
