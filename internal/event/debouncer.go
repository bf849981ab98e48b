package event

import (
	"sync"
	"time"
)

// Debouncer drops repeated deliveries of the same event, such as a push
// and a pull request synchronize for one commit arriving together.
type Debouncer struct {
	window time.Duration
	now    func() time.Time
	seen   map[string]time.Time
	mu     sync.Mutex
}

// NewDebouncer creates a new debouncer with the given window.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window: window,
		now:    time.Now,
		seen:   make(map[string]time.Time),
	}
}

// ShouldProcess returns true if the event should be processed.
// Returns false if the same event was processed within the window.
func (d *Debouncer) ShouldProcess(e *Event) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := e.Key()
	now := d.now()

	if lastSeen, ok := d.seen[key]; ok && now.Sub(lastSeen) < d.window {
		return false
	}

	d.seen[key] = now
	return true
}

// Cleanup removes entries older than twice the window.
func (d *Debouncer) Cleanup() {
	d.mu.Lock()
	defer d.mu.Unlock()

	threshold := d.now().Add(-d.window * 2)
	for key, t := range d.seen {
		if t.Before(threshold) {
			delete(d.seen, key)
		}
	}
}

// Len returns the number of remembered events.
func (d *Debouncer) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
