package repository

import (
	"context"

	"github.com/google/uuid"

	"inventory-engine/internal/domains/catalog/model"
)

// Repository is the read-only view of master data owned by facility setup
// and the product catalog.
type Repository interface {
	// GetItem returns apperr.ErrItemNotFound when the id is unknown.
	GetItem(ctx context.Context, id uuid.UUID) (*model.Item, error)

	// GetItems returns the subset of ids that exist, keyed by id.
	GetItems(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Item, error)

	// GetLocation returns apperr.ErrLocationNotFound when the id is unknown.
	GetLocation(ctx context.Context, id uuid.UUID) (*model.Location, error)

	// ListLocationsBySite returns every location of the site ordered by label.
	ListLocationsBySite(ctx context.Context, siteID uuid.UUID) ([]model.Location, error)

	// GetConversion returns apperr.ErrConversionNotFound when no row exists
	// for (itemID, fromUOM, toUOM).
	GetConversion(ctx context.Context, itemID uuid.UUID, fromUOM, toUOM string) (*model.UOMConversion, error)
}
