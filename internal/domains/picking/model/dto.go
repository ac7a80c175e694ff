package model

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateWaveRequest struct {
	MaxOrders   int             `json:"max_orders"`
	MaxLines    int             `json:"max_lines"`
	MaxQuantity decimal.Decimal `json:"max_quantity"`
}

func (r CreateWaveRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.MaxOrders, validation.Min(0)),
		validation.Field(&r.MaxLines, validation.Min(0)),
		validation.Field(&r.MaxQuantity, notNegative),
	)
}

func (r CreateWaveRequest) Config() WaveConfig {
	return WaveConfig{MaxOrders: r.MaxOrders, MaxLines: r.MaxLines, MaxQuantity: r.MaxQuantity}
}

type GeneratePickListRequest struct {
	OrderIDs []uuid.UUID `json:"order_ids"`
	Strategy Strategy    `json:"strategy"`
}

func (r GeneratePickListRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OrderIDs, validation.Required),
		validation.Field(&r.Strategy, validation.By(func(interface{}) error {
			if r.Strategy != "" && !r.Strategy.IsValid() {
				return errors.New("must be one of ZONE, BATCH, CLUSTER, DISCRETE, WAVE")
			}
			return nil
		})),
	)
}

type CreatePickTaskRequest struct {
	SalesOrderID uuid.UUID  `json:"sales_order_id"`
	Items        []PickItem `json:"items"`
	AssignTo     *uuid.UUID `json:"assign_to,omitempty"`
	Priority     int        `json:"priority"`
}

func (r CreatePickTaskRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SalesOrderID, validation.By(func(interface{}) error {
			if r.SalesOrderID == uuid.Nil {
				return errors.New("cannot be blank")
			}
			return nil
		})),
		validation.Field(&r.Items, validation.Required),
		validation.Field(&r.Priority, validation.Min(0), validation.Max(100)),
	)
}

type ConfirmPickRequest struct {
	QtyPicked        decimal.Decimal `json:"qty_picked"`
	ActualLocationID *uuid.UUID      `json:"actual_location_id,omitempty"`
	LotNumber        string          `json:"lot_number,omitempty"`
}

func (r ConfirmPickRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.QtyPicked, notNegative),
		validation.Field(&r.LotNumber, validation.Length(0, 64)),
	)
}

var notNegative = validation.By(func(value interface{}) error {
	if q, _ := value.(decimal.Decimal); q.IsNegative() {
		return errors.New("must not be negative")
	}
	return nil
})
