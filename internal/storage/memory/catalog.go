package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"inventory-engine/internal/domains/catalog/model"
	"inventory-engine/internal/domains/uom"
	"inventory-engine/internal/shared/apperr"
)

type conversionKey struct {
	itemID   uuid.UUID
	from, to string
}

// Catalog is an in-memory catalog.Repository. It has its own lock so that
// catalog reads are safe from inside a Store unit of work.
type Catalog struct {
	mu          sync.RWMutex
	items       map[uuid.UUID]model.Item
	locations   map[uuid.UUID]model.Location
	conversions map[conversionKey]model.UOMConversion
}

func NewCatalog() *Catalog {
	return &Catalog{
		items:       make(map[uuid.UUID]model.Item),
		locations:   make(map[uuid.UUID]model.Location),
		conversions: make(map[conversionKey]model.UOMConversion),
	}
}

func (c *Catalog) AddItem(item model.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item.BaseUOM = uom.Normalize(item.BaseUOM)
	c.items[item.ID] = item
}

func (c *Catalog) AddLocation(loc model.Location) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.locations[loc.ID] = loc
}

func (c *Catalog) AddConversion(conv model.UOMConversion) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conv.FromUOM, conv.ToUOM = uom.Normalize(conv.FromUOM), uom.Normalize(conv.ToUOM)
	c.conversions[conversionKey{conv.ItemID, conv.FromUOM, conv.ToUOM}] = conv
}

func (c *Catalog) GetItem(_ context.Context, id uuid.UUID) (*model.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[id]
	if !ok {
		return nil, apperr.ItemNotFound(id)
	}
	return &item, nil
}

func (c *Catalog) GetItems(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[uuid.UUID]model.Item, len(ids))
	for _, id := range ids {
		if item, ok := c.items[id]; ok {
			out[id] = item
		}
	}
	return out, nil
}

func (c *Catalog) GetLocation(_ context.Context, id uuid.UUID) (*model.Location, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	loc, ok := c.locations[id]
	if !ok {
		return nil, apperr.LocationNotFound(id)
	}
	return &loc, nil
}

func (c *Catalog) ListLocationsBySite(_ context.Context, siteID uuid.UUID) ([]model.Location, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []model.Location
	for _, loc := range c.locations {
		if loc.SiteID == siteID {
			out = append(out, loc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func (c *Catalog) GetConversion(_ context.Context, itemID uuid.UUID, fromUOM, toUOM string) (*model.UOMConversion, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	conv, ok := c.conversions[conversionKey{itemID, fromUOM, toUOM}]
	if !ok {
		return nil, apperr.ConversionNotFound(itemID, fromUOM, toUOM)
	}
	return &conv, nil
}
