package watcher

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"versio/src/features/watching"
)

// DefaultBufferSize bounds the raw event queue, decoupling OS notification
// delivery from processing latency.
const DefaultBufferSize = 256

// FsnotifySource adapts fsnotify to the watching.EventSource interface.
type FsnotifySource struct {
	watcher *fsnotify.Watcher
	events  chan watching.RawEvent
	errors  chan error

	stopChan  chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a started event source. Folders are subscribed with Watch.
func New(bufferSize int) (*FsnotifySource, error) {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	s := &FsnotifySource{
		watcher:  fsWatcher,
		events:   make(chan watching.RawEvent, bufferSize),
		errors:   make(chan error, bufferSize),
		stopChan: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.run()

	return s, nil
}

// Watch subscribes a single directory.
func (s *FsnotifySource) Watch(path string) error {
	if err := s.watcher.Add(path); err != nil {
		return fmt.Errorf("failed to watch %q: %w", path, err)
	}
	return nil
}

// Events implements watching.EventSource.
func (s *FsnotifySource) Events() <-chan watching.RawEvent {
	return s.events
}

// Errors implements watching.EventSource.
func (s *FsnotifySource) Errors() <-chan error {
	return s.errors
}

// Close tears down the subscription. The events channel is closed once the
// pump drains.
func (s *FsnotifySource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stopChan)
		err = s.watcher.Close()
		s.wg.Wait()
	})
	return err
}

// run pumps fsnotify notifications into the bounded raw event queue.
func (s *FsnotifySource) run() {
	defer s.wg.Done()
	defer close(s.events)
	defer close(s.errors)

	for {
		select {
		case <-s.stopChan:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			kind, relevant := mapKind(event.Op)
			if !relevant {
				continue
			}
			raw := watching.RawEvent{
				Path:       event.Name,
				Kind:       kind,
				ObservedAt: time.Now(),
			}
			select {
			case s.events <- raw:
			default:
				slog.Warn("Event buffer full, dropping raw event", "path", event.Name, "kind", kind)
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			select {
			case s.errors <- err:
			default:
				slog.Warn("Error buffer full, dropping watcher error", "error", err)
			}
		}
	}
}

// mapKind translates an fsnotify op into a raw event kind. Chmod-only
// notifications carry no content change and are dropped at the source.
func mapKind(op fsnotify.Op) (watching.EventKind, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return watching.Created, true
	case op.Has(fsnotify.Write):
		return watching.Modified, true
	case op.Has(fsnotify.Remove):
		return watching.Removed, true
	case op.Has(fsnotify.Rename):
		return watching.Renamed, true
	default:
		return "", false
	}
}
