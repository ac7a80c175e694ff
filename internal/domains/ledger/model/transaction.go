package model

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is a stock movement request. The set of implementations is
// closed: Receive, Move, Issue and Adjust.
type Transaction interface {
	Type() TransactionType
	Head() Header
	Validate() error
	// Locations lists every location the transaction touches.
	Locations() []uuid.UUID

	sealed()
}

// Header holds the fields common to every transaction kind.
type Header struct {
	ItemID         uuid.UUID       `json:"item_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	UOM            string          `json:"uom"`
	ActorID        uuid.UUID       `json:"actor_id"`
	IdempotencyKey string          `json:"idempotency_key"`
	LotNumber      string          `json:"lot_number"`
	Reference      string          `json:"reference"`
}

func (h Header) Head() Header { return h }

func (h Header) validate() error {
	return validation.ValidateStruct(&h,
		validation.Field(&h.ItemID, requiredUUID),
		validation.Field(&h.Quantity, positiveQuantity),
		validation.Field(&h.ActorID, requiredUUID),
		validation.Field(&h.UOM, validation.Length(0, 16)),
		validation.Field(&h.IdempotencyKey, validation.Length(0, 128)),
	)
}

type Receive struct {
	Header
	ToLocationID uuid.UUID `json:"to_location_id"`
}

type Move struct {
	Header
	FromLocationID uuid.UUID `json:"from_location_id"`
	ToLocationID   uuid.UUID `json:"to_location_id"`
}

type Issue struct {
	Header
	FromLocationID uuid.UUID `json:"from_location_id"`
}

// Adjust is the only kind allowed to drive a balance negative (SUBTRACT).
type Adjust struct {
	Header
	LocationID uuid.UUID       `json:"location_id"`
	Direction  AdjustDirection `json:"direction"`
	Reason     string          `json:"reason"`
}

func (Receive) Type() TransactionType { return TypeReceive }
func (Move) Type() TransactionType    { return TypeMove }
func (Issue) Type() TransactionType   { return TypeIssue }
func (Adjust) Type() TransactionType  { return TypeAdjust }

func (Receive) sealed() {}
func (Move) sealed()    {}
func (Issue) sealed()   {}
func (Adjust) sealed()  {}

func (t Receive) Locations() []uuid.UUID { return []uuid.UUID{t.ToLocationID} }
func (t Move) Locations() []uuid.UUID    { return []uuid.UUID{t.FromLocationID, t.ToLocationID} }
func (t Issue) Locations() []uuid.UUID   { return []uuid.UUID{t.FromLocationID} }
func (t Adjust) Locations() []uuid.UUID  { return []uuid.UUID{t.LocationID} }

func (t Receive) Validate() error {
	if err := t.Header.validate(); err != nil {
		return err
	}
	return validation.ValidateStruct(&t,
		validation.Field(&t.ToLocationID, requiredUUID),
	)
}

func (t Move) Validate() error {
	if err := t.Header.validate(); err != nil {
		return err
	}
	return validation.ValidateStruct(&t,
		validation.Field(&t.FromLocationID, requiredUUID),
		validation.Field(&t.ToLocationID, requiredUUID,
			validation.By(func(interface{}) error {
				if t.ToLocationID == t.FromLocationID {
					return errors.New("must differ from from_location_id")
				}
				return nil
			})),
	)
}

func (t Issue) Validate() error {
	if err := t.Header.validate(); err != nil {
		return err
	}
	return validation.ValidateStruct(&t,
		validation.Field(&t.FromLocationID, requiredUUID),
	)
}

func (t Adjust) Validate() error {
	if err := t.Header.validate(); err != nil {
		return err
	}
	return validation.ValidateStruct(&t,
		validation.Field(&t.LocationID, requiredUUID),
		validation.Field(&t.Direction, validation.Required, validation.In(DirectionAdd, DirectionSubtract)),
		validation.Field(&t.Reason, validation.Length(0, 255)),
	)
}

var requiredUUID = validation.By(func(value interface{}) error {
	if id, _ := value.(uuid.UUID); id == uuid.Nil {
		return errors.New("cannot be blank")
	}
	return nil
})

var positiveQuantity = validation.By(func(value interface{}) error {
	if q, _ := value.(decimal.Decimal); !q.IsPositive() {
		return errors.New("must be greater than zero")
	}
	return nil
})

// NewEntry builds the ledger record for txn with its quantity already
// converted to base UOM.
func NewEntry(id uuid.UUID, txn Transaction, uomEntered string, qtyBase decimal.Decimal, at time.Time) Entry {
	h := txn.Head()
	e := Entry{
		ID:             id,
		Type:           txn.Type(),
		ItemID:         h.ItemID,
		QtyEntered:     h.Quantity,
		UOMEntered:     uomEntered,
		QtyBase:        qtyBase,
		ActorID:        h.ActorID,
		IdempotencyKey: optional(h.IdempotencyKey),
		LotNumber:      optional(h.LotNumber),
		Reference:      optional(h.Reference),
		CreatedAt:      at,
	}

	switch t := txn.(type) {
	case Receive:
		e.ToLocationID = ptr(t.ToLocationID)
	case Move:
		e.FromLocationID = ptr(t.FromLocationID)
		e.ToLocationID = ptr(t.ToLocationID)
	case Issue:
		e.FromLocationID = ptr(t.FromLocationID)
	case Adjust:
		dir := t.Direction
		e.Direction = &dir
		e.Reason = optional(t.Reason)
		if dir == DirectionSubtract {
			e.FromLocationID = ptr(t.LocationID)
		} else {
			e.ToLocationID = ptr(t.LocationID)
		}
	}
	return e
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func ptr[T any](v T) *T { return &v }
