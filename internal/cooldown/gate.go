package cooldown

import (
	"sync"
	"time"
)

// Gate rate-limits signal delivery per symbol. A symbol that fired inside
// the cooldown window is suppressed until the window has fully elapsed.
type Gate struct {
	mu       sync.Mutex
	window   time.Duration
	lastSent map[string]time.Time
}

// New creates a gate with the given cooldown window. A non-positive window
// disables suppression.
func New(window time.Duration) *Gate {
	return &Gate{
		window:   window,
		lastSent: make(map[string]time.Time),
	}
}

// Allow reports whether a signal for symbol may be sent at now. The gate
// reopens once the full window has elapsed, boundary instant included.
func (g *Gate) Allow(symbol string, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.window <= 0 {
		return true
	}
	last, ok := g.lastSent[symbol]
	if !ok {
		return true
	}
	return now.Sub(last) >= g.window
}

// SetWindow replaces the cooldown window. Existing timestamps keep their
// meaning; only the comparison width changes.
func (g *Gate) SetWindow(window time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.window = window
}

// Record marks a send for symbol at now, starting its cooldown window.
func (g *Gate) Record(symbol string, now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastSent[symbol] = now
}

// Reset clears all cooldown state.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastSent = make(map[string]time.Time)
}
