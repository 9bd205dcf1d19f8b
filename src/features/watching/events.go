package watching

import (
	"time"
)

// EventKind represents the kind of a raw file system event.
type EventKind string

const (
	Created  EventKind = "created"
	Modified EventKind = "modified"
	Removed  EventKind = "removed"
	Renamed  EventKind = "renamed"
)

// RawEvent is a single file system notification as delivered by the event
// source, before filtering and debouncing.
type RawEvent struct {
	Path       string
	Kind       EventKind
	ObservedAt time.Time
}

// EventSource abstracts the OS-level file system notification API. The
// fsnotify adapter in infra implements it; tests use an in-memory fake.
type EventSource interface {
	// Watch subscribes a directory. Must be called before events are read.
	Watch(path string) error
	// Events delivers raw events. The channel is closed when the source is
	// closed or fails.
	Events() <-chan RawEvent
	// Errors delivers event-source failures that don't end the stream.
	Errors() <-chan error
	Close() error
}
