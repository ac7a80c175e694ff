// Package uom resolves quantities between units of measure using per-item
// conversion factors. A missing factor is an error, never an implicit 1.
package uom

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"inventory-engine/internal/domains/catalog/model"
)

// Lookup is the slice of the catalog the resolver needs.
type Lookup interface {
	GetItem(ctx context.Context, id uuid.UUID) (*model.Item, error)
	GetConversion(ctx context.Context, itemID uuid.UUID, fromUOM, toUOM string) (*model.UOMConversion, error)
}

type Resolver struct {
	lookup Lookup
}

func NewResolver(lookup Lookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// Normalize canonicalizes a UOM code ("ea " -> "EA").
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Convert expresses qty (in fromUOM) in toUOM for the given item.
func (r *Resolver) Convert(ctx context.Context, itemID uuid.UUID, qty decimal.Decimal, fromUOM, toUOM string) (decimal.Decimal, error) {
	item, err := r.lookup.GetItem(ctx, itemID)
	if err != nil {
		return decimal.Zero, err
	}
	return r.convert(ctx, *item, qty, fromUOM, toUOM)
}

// ToBase expresses qty (in uomCode) in the item's base UOM. An empty uomCode
// means the quantity is already in base.
func (r *Resolver) ToBase(ctx context.Context, item model.Item, qty decimal.Decimal, uomCode string) (decimal.Decimal, error) {
	if strings.TrimSpace(uomCode) == "" {
		return qty, nil
	}
	return r.convert(ctx, item, qty, uomCode, item.BaseUOM)
}

func (r *Resolver) convert(ctx context.Context, item model.Item, qty decimal.Decimal, fromUOM, toUOM string) (decimal.Decimal, error) {
	from, to := Normalize(fromUOM), Normalize(toUOM)
	if from == to {
		return qty, nil
	}

	conv, err := r.lookup.GetConversion(ctx, item.ID, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return qty.Mul(conv.Factor), nil
}
