// Package watch provides filesystem watching with debounce support.
package watch

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid triggers into a single callback invocation.
// The callback fires once the window elapses with no further triggers.
// When a max wait is set, a sustained stream of triggers cannot postpone
// the callback past that bound.
type Debouncer struct {
	window   time.Duration
	maxWait  time.Duration
	callback func()

	mu         sync.Mutex
	timer      *time.Timer
	burstStart time.Time
}

// NewDebouncer creates a debouncer with the given window duration.
func NewDebouncer(window time.Duration, callback func()) *Debouncer {
	return &Debouncer{
		window:   window,
		callback: callback,
	}
}

// SetMaxWait bounds how long a burst of triggers can delay the callback.
// Zero disables the bound.
func (d *Debouncer) SetMaxWait(maxWait time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.maxWait = maxWait
}

// Trigger resets the debounce timer. The callback fires after the window
// elapses with no further triggers, or once the max wait has passed since
// the burst began.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	if d.timer == nil {
		d.burstStart = now
	} else {
		d.timer.Stop()
	}

	delay := d.window
	if d.maxWait > 0 {
		if remaining := d.maxWait - now.Sub(d.burstStart); remaining < delay {
			delay = remaining
			if delay < 0 {
				delay = 0
			}
		}
	}
	d.timer = time.AfterFunc(delay, d.fire)
}

// Stop cancels any pending callback.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	d.timer = nil
	d.mu.Unlock()
	d.callback()
}
