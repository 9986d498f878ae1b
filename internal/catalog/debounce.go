package catalog

import (
	"sync"
	"time"
)

// Debouncer delays value propagation until the input has been stable for the
// configured delay. Every Set before the delay elapses cancels the pending
// emission and restarts the timer, so a burst of rapid updates produces
// exactly one emission carrying the final value.
type Debouncer[T any] struct {
	delay time.Duration
	out   chan T

	mu      sync.Mutex
	timer   *time.Timer
	pending T
	stopped bool
}

// NewDebouncer creates a debouncer with the given stability delay.
func NewDebouncer[T any](delay time.Duration) *Debouncer[T] {
	return &Debouncer[T]{
		delay: delay,
		out:   make(chan T, 1),
	}
}

// Set records a new input value and restarts the stability timer.
func (d *Debouncer[T]) Set(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.pending = v
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.emit)
}

func (d *Debouncer[T]) emit() {
	d.mu.Lock()
	v := d.pending
	stopped := d.stopped
	d.mu.Unlock()

	if stopped {
		return
	}

	// Replace a not-yet-consumed emission rather than blocking the timer
	// goroutine: the consumer only ever cares about the latest stable value.
	select {
	case d.out <- v:
	default:
		select {
		case <-d.out:
		default:
		}
		d.out <- v
	}
}

// C returns the channel on which stable values are emitted.
func (d *Debouncer[T]) C() <-chan T {
	return d.out
}

// Stop cancels any pending emission and releases the timer.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
