package versioning

import (
	"context"
)

// Catalog records every version written so the history is queryable from the
// CLI and the status server. Implementations live in infra.
type Catalog interface {
	Record(ctx context.Context, v Version) error
	// Recent returns the newest versions across all sources, newest first.
	Recent(ctx context.Context, limit int) ([]Version, error)
	// BySource returns the versions of one source file, newest first.
	BySource(ctx context.Context, source string, limit int) ([]Version, error)
	Close() error
}
