package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"inventory-engine/internal/domains/ledger/model"
	"inventory-engine/pkg/database"
)

// IdempotencyConstraint is the unique constraint guarding ledger idempotency keys.
const IdempotencyConstraint = "inventory_transactions_idempotency_key_key"

// ========================================
// BALANCES
// ========================================

type postgresBalanceRepository struct {
	db database.DBTX
}

func NewBalanceRepository(db database.DBTX) BalanceRepository {
	return &postgresBalanceRepository{db: db}
}

const balanceColumns = `item_id, location_id, qty_base, created_at, updated_at`

func scanBalances(rows pgx.Rows) ([]model.Balance, error) {
	defer rows.Close()

	var out []model.Balance
	for rows.Next() {
		var b model.Balance
		if err := rows.Scan(&b.ItemID, &b.LocationID, &b.QtyBase, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *postgresBalanceRepository) GetForUpdate(ctx context.Context, itemID, locationID uuid.UUID) (*model.Balance, error) {
	query := `SELECT ` + balanceColumns + `
		FROM inventory_balances
		WHERE item_id = $1 AND location_id = $2
		FOR UPDATE`

	var b model.Balance
	err := r.db.QueryRow(ctx, query, itemID, locationID).
		Scan(&b.ItemID, &b.LocationID, &b.QtyBase, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock balance: %w", err)
	}
	return &b, nil
}

func (r *postgresBalanceRepository) Upsert(ctx context.Context, b model.Balance) error {
	query := `INSERT INTO inventory_balances (item_id, location_id, qty_base, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (item_id, location_id)
		DO UPDATE SET qty_base = EXCLUDED.qty_base, updated_at = EXCLUDED.updated_at`

	if _, err := r.db.Exec(ctx, query, b.ItemID, b.LocationID, b.QtyBase, b.CreatedAt, b.UpdatedAt); err != nil {
		return fmt.Errorf("upsert balance: %w", err)
	}
	return nil
}

func (r *postgresBalanceRepository) ListByItem(ctx context.Context, itemID uuid.UUID) ([]model.Balance, error) {
	rows, err := r.db.Query(ctx, `SELECT `+balanceColumns+` FROM inventory_balances WHERE item_id = $1 ORDER BY updated_at, location_id`, itemID)
	if err != nil {
		return nil, fmt.Errorf("list balances by item: %w", err)
	}
	return scanBalances(rows)
}

func (r *postgresBalanceRepository) ListByLocations(ctx context.Context, locationIDs []uuid.UUID) ([]model.Balance, error) {
	if len(locationIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+balanceColumns+` FROM inventory_balances WHERE location_id = ANY($1) ORDER BY updated_at, location_id`, locationIDs)
	if err != nil {
		return nil, fmt.Errorf("list balances by locations: %w", err)
	}
	return scanBalances(rows)
}

func (r *postgresBalanceRepository) ListAll(ctx context.Context) ([]model.Balance, error) {
	rows, err := r.db.Query(ctx, `SELECT `+balanceColumns+` FROM inventory_balances ORDER BY item_id, location_id`)
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}
	return scanBalances(rows)
}

// ========================================
// LEDGER ENTRIES
// ========================================

type postgresTransactionRepository struct {
	db database.DBTX
}

func NewTransactionRepository(db database.DBTX) TransactionRepository {
	return &postgresTransactionRepository{db: db}
}

const entryColumns = `id, type, item_id, qty_entered, uom_entered, qty_base,
	from_location_id, to_location_id, direction, reason, actor_id,
	idempotency_key, lot_number, reference, created_at`

func scanEntry(row pgx.Row) (*model.Entry, error) {
	var e model.Entry
	err := row.Scan(
		&e.ID, &e.Type, &e.ItemID, &e.QtyEntered, &e.UOMEntered, &e.QtyBase,
		&e.FromLocationID, &e.ToLocationID, &e.Direction, &e.Reason, &e.ActorID,
		&e.IdempotencyKey, &e.LotNumber, &e.Reference, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func collectEntries(rows pgx.Rows) ([]model.Entry, error) {
	defer rows.Close()

	var out []model.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *postgresTransactionRepository) Append(ctx context.Context, e *model.Entry) error {
	query := `INSERT INTO inventory_transactions (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.db.Exec(ctx, query,
		e.ID, e.Type, e.ItemID, e.QtyEntered, e.UOMEntered, e.QtyBase,
		e.FromLocationID, e.ToLocationID, e.Direction, e.Reason, e.ActorID,
		e.IdempotencyKey, e.LotNumber, e.Reference, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}

func (r *postgresTransactionRepository) FindByIdempotencyKey(ctx context.Context, key string) (*model.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM inventory_transactions WHERE idempotency_key = $1`
	e, err := scanEntry(r.db.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find by idempotency key: %w", err)
	}
	return e, nil
}

func (r *postgresTransactionRepository) List(ctx context.Context, filter model.EntryFilter) ([]model.Entry, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.ItemID != nil {
		args = append(args, *filter.ItemID)
		where = append(where, fmt.Sprintf("item_id = $%d", len(args)))
	}
	if filter.LocationID != nil {
		args = append(args, *filter.LocationID)
		where = append(where, fmt.Sprintf("(from_location_id = $%d OR to_location_id = $%d)", len(args), len(args)))
	}
	if filter.Since != nil {
		args = append(args, *filter.Since)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}

	query := `SELECT ` + entryColumns + ` FROM inventory_transactions`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	return collectEntries(rows)
}

func (r *postgresTransactionRepository) ListAll(ctx context.Context) ([]model.Entry, error) {
	rows, err := r.db.Query(ctx, `SELECT `+entryColumns+` FROM inventory_transactions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	return collectEntries(rows)
}

func (r *postgresTransactionRepository) CountMovements(ctx context.Context, locationIDs []uuid.UUID, since time.Time) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int)
	if len(locationIDs) == 0 {
		return out, nil
	}

	query := `SELECT item_id, COUNT(*)
		FROM inventory_transactions
		WHERE type IN ('RECEIVE', 'MOVE', 'ISSUE')
		  AND created_at >= $2
		  AND (from_location_id = ANY($1) OR to_location_id = ANY($1))
		GROUP BY item_id`

	rows, err := r.db.Query(ctx, query, locationIDs, since)
	if err != nil {
		return nil, fmt.Errorf("count movements: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			itemID uuid.UUID
			n      int
		)
		if err := rows.Scan(&itemID, &n); err != nil {
			return nil, fmt.Errorf("scan movement count: %w", err)
		}
		out[itemID] = n
	}
	return out, rows.Err()
}
