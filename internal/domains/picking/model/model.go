package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ===================================
// SALES ORDERS (collaborator view)
// ===================================

type OrderStatus string

const (
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusAllocated OrderStatus = "ALLOCATED"
	OrderStatusPicking   OrderStatus = "PICKING"
	OrderStatusPicked    OrderStatus = "PICKED"
)

func (s OrderStatus) String() string { return string(s) }

type SalesOrder struct {
	ID            uuid.UUID        `json:"id"`
	OrderNumber   string           `json:"order_number"`
	SiteID        uuid.UUID        `json:"site_id"`
	Status        OrderStatus      `json:"status"`
	WaveID        *uuid.UUID       `json:"wave_id,omitempty"`
	RequestedDate time.Time        `json:"requested_date"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	Lines         []SalesOrderLine `json:"lines"`
}

type SalesOrderLine struct {
	ID           uuid.UUID       `json:"id"`
	SalesOrderID uuid.UUID       `json:"sales_order_id"`
	LineNumber   int             `json:"line_number"`
	ItemID       uuid.UUID       `json:"item_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	UOM          string          `json:"uom"`
	QtyPicked    decimal.Decimal `json:"qty_picked"`
}

// ===================================
// WAVES
// ===================================

// WaveConfig bounds a wave. Zero values are replaced by configured defaults.
type WaveConfig struct {
	MaxOrders   int             `json:"max_orders"`
	MaxLines    int             `json:"max_lines"`
	MaxQuantity decimal.Decimal `json:"max_quantity"`
}

// Wave is the creation record of a batch of orders released together.
type Wave struct {
	ID         uuid.UUID       `json:"id"`
	WaveNumber string          `json:"wave_number"`
	SiteID     uuid.UUID       `json:"site_id"`
	Config     WaveConfig      `json:"config"`
	OrderIDs   []uuid.UUID     `json:"order_ids"`
	OrderCount int             `json:"order_count"`
	LineCount  int             `json:"line_count"`
	Quantity   decimal.Decimal `json:"quantity"`
	CreatedBy  uuid.UUID       `json:"created_by"`
	CreatedAt  time.Time       `json:"created_at"`
}

// WaveResult is returned by wave creation. WaveID is uuid.Nil when no order
// could be admitted.
type WaveResult struct {
	WaveID     uuid.UUID       `json:"wave_id"`
	WaveNumber string          `json:"wave_number,omitempty"`
	OrderIDs   []uuid.UUID     `json:"order_ids"`
	OrderCount int             `json:"order_count"`
	LineCount  int             `json:"line_count"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// ===================================
// PICK LISTS
// ===================================

// Strategy orders a pick list for walking.
type Strategy string

const (
	StrategyZone     Strategy = "ZONE"
	StrategyBatch    Strategy = "BATCH"
	StrategyCluster  Strategy = "CLUSTER"
	StrategyDiscrete Strategy = "DISCRETE"
	StrategyWave     Strategy = "WAVE"
)

func (s Strategy) IsValid() bool {
	switch s {
	case StrategyZone, StrategyBatch, StrategyCluster, StrategyDiscrete, StrategyWave:
		return true
	}
	return false
}

// PickItem is one (order line, source location, quantity) allocation.
type PickItem struct {
	Sequence      int             `json:"sequence"`
	OrderID       uuid.UUID       `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	OrderLineID   uuid.UUID       `json:"order_line_id"`
	ItemID        uuid.UUID       `json:"item_id"`
	SKU           string          `json:"sku"`
	LocationID    uuid.UUID       `json:"location_id"`
	LocationLabel string          `json:"location_label"`
	Zone          string          `json:"zone"`
	Bin           string          `json:"bin"`
	Quantity      decimal.Decimal `json:"quantity"`
}

// Shortage reports the part of an order line no location could cover.
type Shortage struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderLineID uuid.UUID       `json:"order_line_id"`
	ItemID      uuid.UUID       `json:"item_id"`
	Requested   decimal.Decimal `json:"requested"`
	Allocated   decimal.Decimal `json:"allocated"`
	Short       decimal.Decimal `json:"short"`
}

type PickList struct {
	Strategy  Strategy   `json:"strategy"`
	Items     []PickItem `json:"items"`
	Shortages []Shortage `json:"shortages"`
}

// ===================================
// PICK TASKS
// ===================================

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "PENDING"
	TaskStatusAssigned  TaskStatus = "ASSIGNED"
	TaskStatusCompleted TaskStatus = "COMPLETED"
)

type LineStatus string

const (
	LineStatusPending LineStatus = "PENDING"
	LineStatusPicked  LineStatus = "PICKED"
	LineStatusShort   LineStatus = "SHORT"
)

// IsTerminal reports whether the line has been confirmed.
func (s LineStatus) IsTerminal() bool {
	return s == LineStatusPicked || s == LineStatusShort
}

type PickTask struct {
	ID           uuid.UUID      `json:"id"`
	TaskNumber   string         `json:"task_number"`
	SiteID       uuid.UUID      `json:"site_id"`
	SalesOrderID uuid.UUID      `json:"sales_order_id"`
	Status       TaskStatus     `json:"status"`
	Priority     int            `json:"priority"`
	AssignedTo   *uuid.UUID     `json:"assigned_to,omitempty"`
	Lines        []PickTaskLine `json:"lines"`
	CreatedAt    time.Time      `json:"created_at"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
}

// AllLinesTerminal reports whether every line is PICKED or SHORT.
func (t PickTask) AllLinesTerminal() bool {
	for _, l := range t.Lines {
		if !l.Status.IsTerminal() {
			return false
		}
	}
	return len(t.Lines) > 0
}

// FullyPicked reports whether every line of the order is planned on some task
// and every planned line of every task is PICKED or SHORT.
func (o SalesOrder) FullyPicked(taskLines []PickTaskLine) bool {
	planned := make(map[uuid.UUID]bool, len(o.Lines))
	for _, l := range taskLines {
		if !l.Status.IsTerminal() {
			return false
		}
		planned[l.SalesOrderLineID] = true
	}
	for _, l := range o.Lines {
		if !planned[l.ID] {
			return false
		}
	}
	return len(o.Lines) > 0
}

// AcceptsPickTasks reports whether new pick tasks may be created for the order.
func (s OrderStatus) AcceptsPickTasks() bool {
	return s == OrderStatusAllocated || s == OrderStatusPicking
}

type PickTaskLine struct {
	ID               uuid.UUID       `json:"id"`
	TaskID           uuid.UUID       `json:"task_id"`
	SalesOrderLineID uuid.UUID       `json:"sales_order_line_id"`
	ItemID           uuid.UUID       `json:"item_id"`
	SourceLocationID uuid.UUID       `json:"source_location_id"`
	Sequence         int             `json:"sequence"`
	QtyToPick        decimal.Decimal `json:"qty_to_pick"`
	QtyPicked        decimal.Decimal `json:"qty_picked"`
	Status           LineStatus      `json:"status"`
	ActualLocationID *uuid.UUID      `json:"actual_location_id,omitempty"`
	LotNumber        *string         `json:"lot_number,omitempty"`
	PickedBy         *uuid.UUID      `json:"picked_by,omitempty"`
	PickedAt         *time.Time      `json:"picked_at,omitempty"`
}

// ConfirmResult is returned by pick confirmation. Warning is "SHORT_PICK"
// when less than the planned quantity was picked.
type ConfirmResult struct {
	Line          PickTaskLine `json:"line"`
	TaskStatus    TaskStatus   `json:"task_status"`
	Warning       string       `json:"warning,omitempty"`
	LedgerEntryID *uuid.UUID   `json:"ledger_entry_id,omitempty"`
}

const WarningShortPick = "SHORT_PICK"
