// Package index keeps a per-organization in-memory snapshot of active
// catalog products for matching and display pricing.
package index

import (
	"context"
	"sync"

	"orderdesk_backend/internal/catalog/domain"
	"orderdesk_backend/platform/logger"

	"github.com/google/uuid"
)

// Loader fetches the active products for an organization.
// Implemented by the catalog repository.
type Loader interface {
	ListActive(ctx context.Context, organizationID uuid.UUID) ([]domain.Product, error)
}

// Index caches active products per organization. Snapshots are replaced
// wholesale on refresh; readers always see a consistent slice.
type Index struct {
	mu       sync.RWMutex
	loader   Loader
	log      *logger.Logger
	products map[uuid.UUID][]domain.Product
}

// New creates an empty index backed by the given loader.
func New(loader Loader, log *logger.Logger) *Index {
	return &Index{
		loader:   loader,
		log:      log,
		products: make(map[uuid.UUID][]domain.Product),
	}
}

// Products returns the cached snapshot for an organization, loading it
// on first access. The returned slice must be treated as read-only.
func (ix *Index) Products(ctx context.Context, organizationID uuid.UUID) ([]domain.Product, error) {
	ix.mu.RLock()
	snapshot, ok := ix.products[organizationID]
	ix.mu.RUnlock()
	if ok {
		return snapshot, nil
	}
	return ix.refresh(ctx, organizationID)
}

// Refresh reloads the snapshot for an organization from the loader.
func (ix *Index) Refresh(ctx context.Context, organizationID uuid.UUID) error {
	_, err := ix.refresh(ctx, organizationID)
	return err
}

// Invalidate drops the cached snapshot so the next read reloads it.
// Called by the catalog service after any product write.
func (ix *Index) Invalidate(organizationID uuid.UUID) {
	ix.mu.Lock()
	delete(ix.products, organizationID)
	ix.mu.Unlock()
}

func (ix *Index) refresh(ctx context.Context, organizationID uuid.UUID) ([]domain.Product, error) {
	loaded, err := ix.loader.ListActive(ctx, organizationID)
	if err != nil {
		if ix.log != nil {
			ix.log.DatabaseError("catalog index refresh", err)
		}
		return nil, err
	}

	ix.mu.Lock()
	ix.products[organizationID] = loaded
	ix.mu.Unlock()

	return loaded, nil
}
