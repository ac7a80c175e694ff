package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"inventory-engine/internal/domains/picking/model"
	"inventory-engine/internal/shared/apperr"
	"inventory-engine/pkg/database"
)

// ========================================
// SALES ORDERS
// ========================================

type postgresOrderRepository struct {
	db database.DBTX
}

func NewOrderRepository(db database.DBTX) OrderRepository {
	return &postgresOrderRepository{db: db}
}

const orderColumns = `id, order_number, site_id, status, wave_id, requested_date, created_at, updated_at`

func (r *postgresOrderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]model.SalesOrder, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sales orders: %w", err)
	}

	var orders []model.SalesOrder
	for rows.Next() {
		var o model.SalesOrder
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.SiteID, &o.Status, &o.WaveID, &o.RequestedDate, &o.CreatedAt, &o.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan sales order: %w", err)
		}
		orders = append(orders, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachLines(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *postgresOrderRepository) attachLines(ctx context.Context, orders []model.SalesOrder) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(orders))
	index := make(map[uuid.UUID]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	query := `SELECT id, sales_order_id, line_number, item_id, quantity, uom, qty_picked
		FROM sales_order_lines
		WHERE sales_order_id = ANY($1)
		ORDER BY sales_order_id, line_number`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l model.SalesOrderLine
		if err := rows.Scan(&l.ID, &l.SalesOrderID, &l.LineNumber, &l.ItemID, &l.Quantity, &l.UOM, &l.QtyPicked); err != nil {
			return fmt.Errorf("scan order line: %w", err)
		}
		i := index[l.SalesOrderID]
		orders[i].Lines = append(orders[i].Lines, l)
	}
	return rows.Err()
}

func (r *postgresOrderRepository) ListEligibleForWave(ctx context.Context, siteID uuid.UUID) ([]model.SalesOrder, error) {
	query := `SELECT ` + orderColumns + `
		FROM sales_orders
		WHERE site_id = $1 AND status = $2 AND wave_id IS NULL
		ORDER BY requested_date, created_at, id
		FOR UPDATE SKIP LOCKED`
	return r.queryOrders(ctx, query, siteID, model.OrderStatusConfirmed)
}

func (r *postgresOrderRepository) Get(ctx context.Context, id uuid.UUID) (*model.SalesOrder, error) {
	orders, err := r.queryOrders(ctx, `SELECT `+orderColumns+` FROM sales_orders WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, apperr.OrderNotFound(id)
	}
	return &orders[0], nil
}

func (r *postgresOrderRepository) GetMany(ctx context.Context, ids []uuid.UUID) ([]model.SalesOrder, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.queryOrders(ctx, `SELECT `+orderColumns+` FROM sales_orders WHERE id = ANY($1) ORDER BY order_number`, ids)
}

func (r *postgresOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, waveID *uuid.UUID) error {
	query := `UPDATE sales_orders
		SET status = $2, wave_id = COALESCE($3, wave_id), updated_at = NOW()
		WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id, status, waveID)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.OrderNotFound(id)
	}
	return nil
}

func (r *postgresOrderRepository) AddPicked(ctx context.Context, lineID uuid.UUID, qty decimal.Decimal) error {
	tag, err := r.db.Exec(ctx, `UPDATE sales_order_lines SET qty_picked = qty_picked + $2 WHERE id = $1`, lineID, qty)
	if err != nil {
		return fmt.Errorf("write back qty picked: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sales order line %s not found", lineID)
	}
	return nil
}

// ========================================
// WAVES
// ========================================

type postgresWaveRepository struct {
	db database.DBTX
}

func NewWaveRepository(db database.DBTX) WaveRepository {
	return &postgresWaveRepository{db: db}
}

func (r *postgresWaveRepository) Create(ctx context.Context, w *model.Wave) error {
	query := `INSERT INTO waves
		(id, wave_number, site_id, max_orders, max_lines, max_quantity,
		 order_count, line_count, quantity, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.Exec(ctx, query,
		w.ID, w.WaveNumber, w.SiteID, w.Config.MaxOrders, w.Config.MaxLines, w.Config.MaxQuantity,
		w.OrderCount, w.LineCount, w.Quantity, w.CreatedBy, w.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wave: %w", err)
	}

	for _, orderID := range w.OrderIDs {
		if _, err := r.db.Exec(ctx, `INSERT INTO wave_orders (wave_id, sales_order_id) VALUES ($1, $2)`, w.ID, orderID); err != nil {
			return fmt.Errorf("insert wave order: %w", err)
		}
	}
	return nil
}

func (r *postgresWaveRepository) Get(ctx context.Context, id uuid.UUID) (*model.Wave, error) {
	query := `SELECT id, wave_number, site_id, max_orders, max_lines, max_quantity,
		order_count, line_count, quantity, created_by, created_at
		FROM waves WHERE id = $1`

	var w model.Wave
	err := r.db.QueryRow(ctx, query, id).Scan(
		&w.ID, &w.WaveNumber, &w.SiteID, &w.Config.MaxOrders, &w.Config.MaxLines, &w.Config.MaxQuantity,
		&w.OrderCount, &w.LineCount, &w.Quantity, &w.CreatedBy, &w.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("wave %s not found", id)
		}
		return nil, fmt.Errorf("get wave: %w", err)
	}

	rows, err := r.db.Query(ctx, `SELECT sales_order_id FROM wave_orders WHERE wave_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get wave orders: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var orderID uuid.UUID
		if err := rows.Scan(&orderID); err != nil {
			return nil, err
		}
		w.OrderIDs = append(w.OrderIDs, orderID)
	}
	return &w, rows.Err()
}

// ========================================
// PICK TASKS
// ========================================

type postgresTaskRepository struct {
	db database.DBTX
}

func NewTaskRepository(db database.DBTX) TaskRepository {
	return &postgresTaskRepository{db: db}
}

const lineColumns = `id, task_id, sales_order_line_id, item_id, source_location_id, sequence,
	qty_to_pick, qty_picked, status, actual_location_id, lot_number, picked_by, picked_at`

func scanLine(row pgx.Row) (*model.PickTaskLine, error) {
	var l model.PickTaskLine
	err := row.Scan(&l.ID, &l.TaskID, &l.SalesOrderLineID, &l.ItemID, &l.SourceLocationID, &l.Sequence,
		&l.QtyToPick, &l.QtyPicked, &l.Status, &l.ActualLocationID, &l.LotNumber, &l.PickedBy, &l.PickedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *postgresTaskRepository) Create(ctx context.Context, t *model.PickTask) error {
	query := `INSERT INTO pick_tasks
		(id, task_number, site_id, sales_order_id, status, priority, assigned_to, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.db.Exec(ctx, query, t.ID, t.TaskNumber, t.SiteID, t.SalesOrderID, t.Status, t.Priority, t.AssignedTo, t.CreatedAt); err != nil {
		return fmt.Errorf("insert pick task: %w", err)
	}

	lineQuery := `INSERT INTO pick_task_lines (` + lineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	for _, l := range t.Lines {
		_, err := r.db.Exec(ctx, lineQuery,
			l.ID, l.TaskID, l.SalesOrderLineID, l.ItemID, l.SourceLocationID, l.Sequence,
			l.QtyToPick, l.QtyPicked, l.Status, l.ActualLocationID, l.LotNumber, l.PickedBy, l.PickedAt,
		)
		if err != nil {
			return fmt.Errorf("insert pick task line: %w", err)
		}
	}
	return nil
}

func (r *postgresTaskRepository) Get(ctx context.Context, id uuid.UUID) (*model.PickTask, error) {
	query := `SELECT id, task_number, site_id, sales_order_id, status, priority, assigned_to, created_at, completed_at
		FROM pick_tasks WHERE id = $1`

	var t model.PickTask
	err := r.db.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.TaskNumber, &t.SiteID, &t.SalesOrderID, &t.Status, &t.Priority, &t.AssignedTo, &t.CreatedAt, &t.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.PickTaskNotFound(id)
		}
		return nil, fmt.Errorf("get pick task: %w", err)
	}

	rows, err := r.db.Query(ctx, `SELECT `+lineColumns+` FROM pick_task_lines WHERE task_id = $1 ORDER BY sequence`, id)
	if err != nil {
		return nil, fmt.Errorf("get pick task lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pick task line: %w", err)
		}
		t.Lines = append(t.Lines, *l)
	}
	return &t, rows.Err()
}

func (r *postgresTaskRepository) GetLineForUpdate(ctx context.Context, lineID uuid.UUID) (*model.PickTaskLine, error) {
	l, err := scanLine(r.db.QueryRow(ctx, `SELECT `+lineColumns+` FROM pick_task_lines WHERE id = $1 FOR UPDATE`, lineID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.PickLineNotFound(lineID)
		}
		return nil, fmt.Errorf("lock pick task line: %w", err)
	}
	return l, nil
}

func (r *postgresTaskRepository) ListLinesByOrder(ctx context.Context, orderID uuid.UUID) ([]model.PickTaskLine, error) {
	query := `SELECT ` + lineColumns + ` FROM pick_task_lines
		WHERE task_id IN (SELECT id FROM pick_tasks WHERE sales_order_id = $1)
		ORDER BY task_id, sequence`
	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order pick lines: %w", err)
	}
	defer rows.Close()

	var lines []model.PickTaskLine
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pick task line: %w", err)
		}
		lines = append(lines, *l)
	}
	return lines, rows.Err()
}

func (r *postgresTaskRepository) UpdateLine(ctx context.Context, l *model.PickTaskLine) error {
	query := `UPDATE pick_task_lines
		SET qty_picked = $2, status = $3, actual_location_id = $4, lot_number = $5, picked_by = $6, picked_at = $7
		WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, l.ID, l.QtyPicked, l.Status, l.ActualLocationID, l.LotNumber, l.PickedBy, l.PickedAt)
	if err != nil {
		return fmt.Errorf("update pick task line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.PickLineNotFound(l.ID)
	}
	return nil
}

func (r *postgresTaskRepository) UpdateStatus(ctx context.Context, taskID uuid.UUID, status model.TaskStatus, completedAt *time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE pick_tasks SET status = $2, completed_at = $3 WHERE id = $1`, taskID, status, completedAt)
	if err != nil {
		return fmt.Errorf("update pick task status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.PickTaskNotFound(taskID)
	}
	return nil
}
