package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"inventory-engine/internal/domains/catalog/model"
	"inventory-engine/internal/shared/apperr"
	"inventory-engine/pkg/database"
)

type postgresRepository struct {
	db database.DBTX
}

func NewRepository(db database.DBTX) Repository {
	return &postgresRepository{db: db}
}

const itemColumns = `id, sku, name, base_uom, category, cost_base, created_at, updated_at`

func scanItem(row pgx.Row) (*model.Item, error) {
	var it model.Item
	err := row.Scan(&it.ID, &it.SKU, &it.Name, &it.BaseUOM, &it.Category, &it.CostBase, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *postgresRepository) GetItem(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	item, err := scanItem(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ItemNotFound(id)
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

func (r *postgresRepository) GetItems(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Item, error) {
	out := make(map[uuid.UUID]model.Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query := `SELECT ` + itemColumns + ` FROM items WHERE id = ANY($1)`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out[item.ID] = *item
	}
	return out, rows.Err()
}

const locationColumns = `id, site_id, label, zone, bin, type, created_at`

func scanLocation(row pgx.Row) (*model.Location, error) {
	var l model.Location
	if err := row.Scan(&l.ID, &l.SiteID, &l.Label, &l.Zone, &l.Bin, &l.Type, &l.CreatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *postgresRepository) GetLocation(ctx context.Context, id uuid.UUID) (*model.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations WHERE id = $1`
	loc, err := scanLocation(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.LocationNotFound(id)
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return loc, nil
}

func (r *postgresRepository) ListLocationsBySite(ctx context.Context, siteID uuid.UUID) ([]model.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations WHERE site_id = $1 ORDER BY label`
	rows, err := r.db.Query(ctx, query, siteID)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var out []model.Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, *loc)
	}
	return out, rows.Err()
}

func (r *postgresRepository) GetConversion(ctx context.Context, itemID uuid.UUID, fromUOM, toUOM string) (*model.UOMConversion, error) {
	query := `SELECT item_id, from_uom, to_uom, factor
		FROM uom_conversions
		WHERE item_id = $1 AND from_uom = $2 AND to_uom = $3`

	var c model.UOMConversion
	err := r.db.QueryRow(ctx, query, itemID, fromUOM, toUOM).Scan(&c.ItemID, &c.FromUOM, &c.ToUOM, &c.Factor)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ConversionNotFound(itemID, fromUOM, toUOM)
		}
		return nil, fmt.Errorf("get conversion: %w", err)
	}
	return &c, nil
}
