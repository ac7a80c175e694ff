package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"inventory-engine/internal/domains/slotting/model"
	"inventory-engine/internal/shared"
	"inventory-engine/pkg/cache"
)

// VelocityCache reads and writes per-site velocity snapshots. It is the
// putaway planner's VelocitySource.
type VelocityCache struct {
	cache cache.Cache
}

func NewVelocityCache(c cache.Cache) *VelocityCache {
	return &VelocityCache{cache: c}
}

func velocityKey(siteID uuid.UUID) string {
	return fmt.Sprintf(shared.SiteVelocityKeyFormat, siteID)
}

// Store caches the classes of abc for shared.SiteVelocityTTL.
func (v *VelocityCache) Store(ctx context.Context, abc *model.ABCClassification) error {
	snap := model.VelocitySnapshot{
		SiteID:      abc.SiteID,
		Policy:      abc.Policy,
		Classes:     make(map[string]model.Class, len(abc.Items)),
		GeneratedAt: abc.GeneratedAt,
	}
	for _, it := range abc.Items {
		snap.Classes[it.ItemID.String()] = it.Class
	}
	return v.cache.Set(ctx, velocityKey(abc.SiteID), snap, shared.SiteVelocityTTL)
}

func (v *VelocityCache) VelocityClass(ctx context.Context, siteID, itemID uuid.UUID) (string, bool, error) {
	var snap model.VelocitySnapshot
	found, err := v.cache.Get(ctx, velocityKey(siteID), &snap)
	if err != nil || !found {
		return "", false, err
	}
	class, ok := snap.Classes[itemID.String()]
	return string(class), ok, nil
}
