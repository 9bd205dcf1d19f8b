package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"versio/src/features/watching"
)

func collectKinds(t *testing.T, source *FsnotifySource, path string, timeout time.Duration) []watching.EventKind {
	t.Helper()
	var kinds []watching.EventKind
	deadline := time.After(timeout)
	for {
		select {
		case event, ok := <-source.Events():
			if !ok {
				return kinds
			}
			if event.Path == path {
				kinds = append(kinds, event.Kind)
			}
		case <-deadline:
			return kinds
		}
	}
}

func TestFsnotifySource_DeliversWriteEvents(t *testing.T) {
	dir := t.TempDir()
	source, err := New(16)
	require.NoError(t, err)
	defer source.Close()

	require.NoError(t, source.Watch(dir))

	path := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	kinds := collectKinds(t, source, path, 500*time.Millisecond)
	require.NotEmpty(t, kinds, "expected events for the new file")
	assert.Contains(t, kinds, watching.Created)
}

func TestFsnotifySource_DeliversRemoveEvents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	source, err := New(16)
	require.NoError(t, err)
	defer source.Close()

	require.NoError(t, source.Watch(dir))
	require.NoError(t, os.Remove(path))

	kinds := collectKinds(t, source, path, 500*time.Millisecond)
	assert.Contains(t, kinds, watching.Removed)
}

func TestFsnotifySource_WatchMissingFolderFails(t *testing.T) {
	source, err := New(16)
	require.NoError(t, err)
	defer source.Close()

	assert.Error(t, source.Watch(filepath.Join(t.TempDir(), "does-not-exist")))
}

func TestFsnotifySource_CloseEndsStream(t *testing.T) {
	source, err := New(16)
	require.NoError(t, err)
	require.NoError(t, source.Close())

	select {
	case _, ok := <-source.Events():
		assert.False(t, ok, "events channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("events channel not closed after Close")
	}

	// Closing twice is safe.
	assert.NoError(t, source.Close())
}
