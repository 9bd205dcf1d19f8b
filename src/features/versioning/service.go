package versioning

import (
	"context"
	"errors"
)

// ErrCatalogDisabled is returned by history queries when no catalog is
// configured.
var ErrCatalogDisabled = errors.New("version catalog is disabled")

// Service answers version-history queries for the CLI and the status server.
type Service struct {
	catalog Catalog
}

// NewService creates a new versioning service. catalog may be nil.
func NewService(catalog Catalog) *Service {
	return &Service{catalog: catalog}
}

// Recent returns the newest versions across all sources.
func (s *Service) Recent(ctx context.Context, limit int) ([]Version, error) {
	if s.catalog == nil {
		return nil, ErrCatalogDisabled
	}
	return s.catalog.Recent(ctx, limit)
}

// BySource returns the history of a single source file.
func (s *Service) BySource(ctx context.Context, source string, limit int) ([]Version, error) {
	if s.catalog == nil {
		return nil, ErrCatalogDisabled
	}
	return s.catalog.BySource(ctx, source, limit)
}
