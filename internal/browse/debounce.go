package browse

import (
	"sync"
	"time"
)

// Debouncer delays an action until updates have been quiet for a window.
// Every Trigger supersedes the pending one (last write wins).
type Debouncer struct {
	clock  Clock
	window time.Duration

	mu    sync.Mutex
	timer Timer
	gen   uint64
}

// NewDebouncer creates a debouncer with the given quiet window. A nil clock means the system clock.
func NewDebouncer(clock Clock, window time.Duration) *Debouncer {
	if clock == nil {
		clock = SystemClock()
	}
	return &Debouncer{clock: clock, window: window}
}

// Window returns the quiet window
func (d *Debouncer) Window() time.Duration {
	return d.window
}

// Trigger schedules fn to run once the window elapses without another Trigger or Cancel.
// A non-positive window runs fn synchronously.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	d.gen++
	gen := d.gen
	d.stopLocked()

	if d.window <= 0 {
		d.mu.Unlock()
		fn()
		return
	}

	d.timer = d.clock.AfterFunc(d.window, func() {
		d.mu.Lock()
		// a timer that could not be stopped in time must not fire a superseded action
		if gen != d.gen {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		fn()
	})
	d.mu.Unlock()
}

// Cancel drops the pending action, if any
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	d.stopLocked()
}

// Pending reports whether an action is scheduled
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
