package watching

import (
	"log/slog"
	"os"
	"sync"
	"time"
)

// PendingChange is the per-path debounce state: one entry per path with an
// outstanding, not-yet-versioned modification.
type PendingChange struct {
	Path      string
	FirstSeen time.Time
	LastSeen  time.Time
	// Size and ModTime are sampled at the last observed event and compared
	// again when the timer fires. A mismatch means the file was still being
	// written when we sampled it, so the quiescence window restarts.
	Size    int64
	ModTime time.Time
	statOK  bool
}

// Debouncer coalesces bursts of raw events per path into a single trigger
// once the path has been quiet for the full window and a size/mtime re-check
// confirms nothing is mid-write. It owns the PendingChange table; all access
// is serialized behind one mutex so an event arriving while its quiescence is
// being evaluated can't be lost.
type Debouncer struct {
	window time.Duration
	emit   func(path string)

	mu       sync.Mutex
	pending  map[string]*PendingChange
	timers   map[string]*time.Timer
	inflight map[string]bool
	stopped  bool
}

// NewDebouncer creates a Debouncer that calls emit for a path after `window`
// of silence on it. emit is invoked outside the lock and must arrange its own
// concurrency; Done must be called once the triggered work finishes.
func NewDebouncer(window time.Duration, emit func(path string)) *Debouncer {
	return &Debouncer{
		window:   window,
		emit:     emit,
		pending:  make(map[string]*PendingChange),
		timers:   make(map[string]*time.Timer),
		inflight: make(map[string]bool),
	}
}

// Observe records a matching raw event. The first event for a path creates
// its PendingChange; later ones update LastSeen and restart the timer.
func (d *Debouncer) Observe(e RawEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	pc, exists := d.pending[e.Path]
	if !exists {
		pc = &PendingChange{Path: e.Path, FirstSeen: e.ObservedAt}
		d.pending[e.Path] = pc
	}
	pc.LastSeen = e.ObservedAt
	pc.statOK = false
	if info, err := os.Stat(e.Path); err == nil {
		pc.Size = info.Size()
		pc.ModTime = info.ModTime()
		pc.statOK = true
	}

	if timer, ok := d.timers[e.Path]; ok {
		timer.Reset(d.window)
		return
	}
	path := e.Path
	d.timers[path] = time.AfterFunc(d.window, func() {
		d.fire(path)
	})
}

// Discard drops the pending change for a path without triggering, used when
// the path is removed or renamed away before quiescence.
func (d *Debouncer) Discard(path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.pending[path]; !exists {
		return false
	}
	d.clearLocked(path)
	return true
}

// Done marks a triggered path's work as finished, allowing the next cycle for
// that path to fire.
func (d *Debouncer) Done(path string) {
	d.mu.Lock()
	delete(d.inflight, path)
	d.mu.Unlock()
}

// Pending returns the number of paths with outstanding changes.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Snapshot returns a copy of the pending table for the status endpoints.
func (d *Debouncer) Snapshot() []PendingChange {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]PendingChange, 0, len(d.pending))
	for _, pc := range d.pending {
		out = append(out, *pc)
	}
	return out
}

// Stop cancels all timers and drops all pending changes. Changes that never
// reached quiescence are abandoned, not flushed: flushing would copy files
// that may still be mid-write.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	for path, timer := range d.timers {
		timer.Stop()
		delete(d.timers, path)
	}
	d.pending = make(map[string]*PendingChange)
}

// fire evaluates quiescence for a path when its timer expires.
func (d *Debouncer) fire(path string) {
	d.mu.Lock()

	if d.stopped {
		d.mu.Unlock()
		return
	}
	pc, exists := d.pending[path]
	if !exists {
		delete(d.timers, path)
		d.mu.Unlock()
		return
	}

	// An event may have slipped in between the timer expiring and this
	// goroutine taking the lock; the window counts from the last event.
	if remaining := d.window - time.Since(pc.LastSeen); remaining > 0 {
		d.rearmLocked(path, remaining)
		d.mu.Unlock()
		return
	}

	// A write for this path is still in flight from the previous cycle;
	// retry after another window rather than interleaving.
	if d.inflight[path] {
		d.rearmLocked(path, d.window)
		d.mu.Unlock()
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		// Deleted (or unreadable) before quiescence: nothing to version.
		slog.Debug("Pending change discarded, file gone", "path", path, "error", err)
		d.clearLocked(path)
		d.mu.Unlock()
		return
	}
	if pc.statOK && (info.Size() != pc.Size || !info.ModTime().Equal(pc.ModTime)) {
		// The file moved under us between the last event and now; treat it
		// as fresh activity and restart the window.
		pc.LastSeen = time.Now()
		pc.Size = info.Size()
		pc.ModTime = info.ModTime()
		d.rearmLocked(path, d.window)
		d.mu.Unlock()
		return
	}

	d.clearLocked(path)
	d.inflight[path] = true
	d.mu.Unlock()

	d.emit(path)
}

// rearmLocked restarts the timer for a path. Caller holds the lock.
func (d *Debouncer) rearmLocked(path string, delay time.Duration) {
	if timer, ok := d.timers[path]; ok {
		timer.Reset(delay)
		return
	}
	d.timers[path] = time.AfterFunc(delay, func() {
		d.fire(path)
	})
}

// clearLocked removes a path's pending state. Caller holds the lock.
func (d *Debouncer) clearLocked(path string) {
	if timer, ok := d.timers[path]; ok {
		timer.Stop()
		delete(d.timers, path)
	}
	delete(d.pending, path)
}
