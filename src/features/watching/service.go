package watching

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"versio/src/features/config"
	"versio/src/features/metrics"
	"versio/src/features/versioning"
)

// Writer is the versioning operation the watch loop hands quiescent paths to.
type Writer interface {
	Write(ctx context.Context, source string) (*versioning.Version, error)
}

// Service is the orchestrator: it owns the event loop feeding raw events
// through the filter into the debouncer, and runs version writes as they are
// triggered. One Service instance corresponds to one loaded configuration;
// applying a config change means stopping it and starting a fresh one.
type Service struct {
	configManager *config.Manager
	source        EventSource
	filter        *Filter
	debouncer     *Debouncer
	writer        Writer
	metrics       *metrics.Metrics

	// recursiveRoots are the folders whose subdirectories, present or
	// created later, must be subscribed.
	recursiveRoots []string

	stopChan chan struct{}
	loopDone chan struct{}
	stopOnce sync.Once
	writes   sync.WaitGroup
}

// NewService creates the watch orchestrator.
func NewService(cfgManager *config.Manager, source EventSource, writer Writer, m *metrics.Metrics) *Service {
	cfg := cfgManager.Get()
	s := &Service{
		configManager: cfgManager,
		source:        source,
		filter:        NewFilter(cfg),
		writer:        writer,
		metrics:       m,
		stopChan:      make(chan struct{}),
		loopDone:      make(chan struct{}),
	}
	for _, folder := range cfg.Folders {
		if folder.Recursive {
			s.recursiveRoots = append(s.recursiveRoots, filepath.Clean(folder.Path))
		}
	}
	s.debouncer = NewDebouncer(cfg.Debounce.Window.Std(), s.trigger)
	if m != nil {
		m.RegisterPendingGauge(s.debouncer.Pending)
	}
	return s
}

// Start subscribes every configured folder and launches the event loop. An
// unwatchable folder is a fatal startup failure.
func (s *Service) Start(ctx context.Context) error {
	cfg := s.configManager.Get()

	for _, folder := range cfg.Folders {
		if err := s.watchFolder(folder); err != nil {
			return err
		}
		slog.Info("Watching folder", "path", folder.Path, "patterns", folder.Patterns, "recursive", folder.Recursive)
	}

	go s.run(ctx)
	return nil
}

// watchFolder subscribes a folder, walking into subdirectories for recursive
// targets since the OS watch API only covers single directories.
func (s *Service) watchFolder(folder config.Folder) error {
	if !folder.Recursive {
		if err := s.source.Watch(folder.Path); err != nil {
			return fmt.Errorf("failed to watch folder %q: %w", folder.Path, err)
		}
		return nil
	}
	return filepath.WalkDir(folder.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to walk folder %q: %w", folder.Path, err)
		}
		if !d.IsDir() {
			return nil
		}
		if err := s.source.Watch(path); err != nil {
			return fmt.Errorf("failed to watch folder %q: %w", path, err)
		}
		return nil
	})
}

// run is the single event-consuming control path.
func (s *Service) run(ctx context.Context) {
	defer close(s.loopDone)

	events := s.source.Events()
	sourceErrors := s.source.Errors()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			s.handle(event)
		case err, ok := <-sourceErrors:
			if !ok {
				sourceErrors = nil
				continue
			}
			// The folder behind this error may have silently stopped being
			// monitored; the operator finds out here.
			slog.Error("Filesystem event source error", "error", err)
			if s.metrics != nil {
				s.metrics.SourceErrors.Inc()
			}
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// handle dispatches one raw event: drop what doesn't match a tracked file,
// discard pending state for removals, feed the rest into the debouncer.
func (s *Service) handle(event RawEvent) {
	if s.metrics != nil {
		s.metrics.EventsReceived.Inc()
	}

	switch event.Kind {
	case Removed, Renamed:
		// A rename away from a tracked name is not versioned; the rename
		// destination arrives as its own Created event.
		if s.debouncer.Discard(event.Path) {
			slog.Debug("Pending change discarded", "path", event.Path, "kind", event.Kind)
			if s.metrics != nil {
				s.metrics.ChangesDiscarded.Inc()
			}
		}
	default:
		if event.Kind == Created && s.watchCreatedDir(event.Path) {
			return
		}
		if !s.filter.Matches(event.Path) {
			return
		}
		if s.metrics != nil {
			s.metrics.EventsMatched.Inc()
		}
		slog.Debug("Tracked file changed", "path", event.Path, "kind", event.Kind)
		s.debouncer.Observe(event)
	}
}

// watchCreatedDir subscribes a directory that appeared inside a recursive
// target after startup; tracked files landing in it would otherwise go
// unversioned. Reports whether path was handled as a directory. The walk
// covers subdirectories that existed before the watch was in place, as when
// a whole tree is moved in at once.
func (s *Service) watchCreatedDir(path string) bool {
	if !s.underRecursiveRoot(path) {
		return false
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := s.source.Watch(p); err != nil {
			return err
		}
		slog.Info("Watching new folder", "path", p)
		return nil
	})
	if err != nil {
		slog.Error("Failed to watch new folder", "path", path, "error", err)
		if s.metrics != nil {
			s.metrics.SourceErrors.Inc()
		}
	}
	return true
}

func (s *Service) underRecursiveRoot(path string) bool {
	for _, root := range s.recursiveRoots {
		if path != root && strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// trigger runs the version write for a quiescent path. Writes for different
// paths run concurrently; the debouncer guarantees at most one in-flight
// write per path.
func (s *Service) trigger(path string) {
	s.writes.Add(1)
	go func() {
		defer s.writes.Done()
		defer s.debouncer.Done(path)

		version, err := s.writer.Write(context.Background(), path)
		if err != nil {
			// One failed write must never halt monitoring of other files.
			slog.Error("Version write failed", "source", path, "error", err)
			if s.metrics != nil {
				s.metrics.WriteErrors.Inc()
			}
			return
		}
		if version == nil {
			slog.Debug("Source vanished before snapshot, nothing to version", "source", path)
			return
		}
		slog.Info("Version written", "source", path, "token", version.Token, "size", version.Size)
		if s.metrics != nil {
			s.metrics.VersionsWritten.Inc()
		}
	}()
}

// Stop tears down the event source first so no new raw events are accepted,
// then drains in-flight version writes bounded by the configured grace
// period. A write still pending after the grace period is abandoned, not
// forced.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		if err := s.source.Close(); err != nil {
			slog.Warn("Failed to close event source", "error", err)
		}
		close(s.stopChan)
		<-s.loopDone
		s.debouncer.Stop()

		grace := s.configManager.Get().Shutdown.Grace.Std()
		done := make(chan struct{})
		go func() {
			s.writes.Wait()
			close(done)
		}()
		select {
		case <-done:
			slog.Info("Watch loop stopped, all version writes drained")
		case <-time.After(grace):
			slog.Warn("Shutdown grace period elapsed, abandoning in-flight version writes", "grace", grace)
		}
	})
}

// Pending returns the number of outstanding changes, for the status surface.
func (s *Service) Pending() int {
	return s.debouncer.Pending()
}

// PendingChanges returns a copy of the pending table, for the status surface.
func (s *Service) PendingChanges() []PendingChange {
	return s.debouncer.Snapshot()
}
