package versioning

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Writer produces version files. A version is a snapshot of the source's
// bytes written to a temp file in the version directory and renamed into
// place, so a concurrent reader of the directory never sees a partially
// written version.
type Writer struct {
	dir     string
	catalog Catalog
	now     func() time.Time

	// mu serializes reserve+rename. Concurrent writes for sources sharing
	// a base name would otherwise both probe the same target as free and
	// the second rename would overwrite the first version.
	mu sync.Mutex
}

// NewWriter creates a Writer storing versions under dir. catalog may be nil
// when the catalog is disabled.
func NewWriter(dir string, catalog Catalog) *Writer {
	return &Writer{
		dir:     dir,
		catalog: catalog,
		now:     time.Now,
	}
}

// Write snapshots source and creates a new version for it. Returns nil, nil
// when the source vanished before the snapshot read: the file was deleted,
// there is nothing to version and nothing went wrong.
func (w *Writer) Write(ctx context.Context, source string) (*Version, error) {
	data, err := os.ReadFile(source)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to snapshot %q: %w", source, err)
	}

	createdAt := w.now()

	tmp := filepath.Join(w.dir, ".tmp-"+uuid.New().String())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write version for %q: %w", source, err)
	}

	w.mu.Lock()
	target, token := w.reserve(filepath.Base(source), createdAt)
	err = os.Rename(tmp, target)
	w.mu.Unlock()
	if err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("failed to place version for %q: %w", source, err)
	}

	version := &Version{
		ID:        uuid.New().String(),
		Source:    source,
		Path:      target,
		Token:     token,
		Size:      int64(len(data)),
		CreatedAt: createdAt,
	}

	if w.catalog != nil {
		if err := w.catalog.Record(ctx, *version); err != nil {
			// The version file itself is already safely in place.
			slog.Warn("Failed to record version in catalog", "source", source, "token", token, "error", err)
		}
	}

	return version, nil
}

// reserve picks the first free version path for name at the given time,
// appending a counter suffix when the bare token is already taken. The
// counter is zero-padded so suffixed tokens sort lexically in creation
// order. Callers must hold w.mu.
func (w *Writer) reserve(name string, createdAt time.Time) (path, token string) {
	base := createdAt.Format(TokenFormat)
	token = base
	for n := 1; ; n++ {
		path = filepath.Join(w.dir, name+"."+token)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, token
		}
		token = fmt.Sprintf("%s-%03d", base, n)
	}
}
