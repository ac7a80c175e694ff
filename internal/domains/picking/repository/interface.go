package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"inventory-engine/internal/domains/picking/model"
)

// OrderRepository reads sales orders for picking and writes back allocation
// state and picked quantities.
type OrderRepository interface {
	// ListEligibleForWave returns CONFIRMED orders of the site that are not in
	// a wave, oldest requested date first, with their lines. Rows are locked
	// for the unit of work and rows locked by a concurrent wave are skipped.
	ListEligibleForWave(ctx context.Context, siteID uuid.UUID) ([]model.SalesOrder, error)

	// Get returns apperr.ErrOrderNotFound for unknown ids.
	Get(ctx context.Context, id uuid.UUID) (*model.SalesOrder, error)
	GetMany(ctx context.Context, ids []uuid.UUID) ([]model.SalesOrder, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, waveID *uuid.UUID) error

	// AddPicked adds qty to the line's qty_picked.
	AddPicked(ctx context.Context, lineID uuid.UUID, qty decimal.Decimal) error
}

type WaveRepository interface {
	Create(ctx context.Context, w *model.Wave) error
	Get(ctx context.Context, id uuid.UUID) (*model.Wave, error)
}

type TaskRepository interface {
	// Create persists the task and its lines.
	Create(ctx context.Context, t *model.PickTask) error

	// Get returns the task with lines ordered by sequence.
	Get(ctx context.Context, id uuid.UUID) (*model.PickTask, error)

	// GetLineForUpdate locks one line for the rest of the unit of work.
	GetLineForUpdate(ctx context.Context, lineID uuid.UUID) (*model.PickTaskLine, error)

	// ListLinesByOrder returns the lines of every task created for the order.
	ListLinesByOrder(ctx context.Context, orderID uuid.UUID) ([]model.PickTaskLine, error)

	UpdateLine(ctx context.Context, line *model.PickTaskLine) error
	UpdateStatus(ctx context.Context, taskID uuid.UUID, status model.TaskStatus, completedAt *time.Time) error
}
