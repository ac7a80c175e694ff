package model

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"inventory-engine/internal/shared/apperr"
)

// ApplyTransactionRequest is the wire form of a transaction. It is turned into
// one of the closed Transaction variants before reaching the ledger.
type ApplyTransactionRequest struct {
	Type           TransactionType  `json:"type"`
	ItemID         uuid.UUID        `json:"item_id"`
	Quantity       decimal.Decimal  `json:"quantity"`
	UOM            string           `json:"uom"`
	FromLocationID *uuid.UUID       `json:"from_location_id,omitempty"`
	ToLocationID   *uuid.UUID       `json:"to_location_id,omitempty"`
	LocationID     *uuid.UUID       `json:"location_id,omitempty"`
	Direction      *AdjustDirection `json:"direction,omitempty"`
	Reason         string           `json:"reason,omitempty"`
	IdempotencyKey string           `json:"idempotency_key,omitempty"`
	LotNumber      string           `json:"lot_number,omitempty"`
	Reference      string           `json:"reference,omitempty"`
}

// ToTransaction picks the variant for r.Type. Fields that do not belong to the
// variant are rejected rather than ignored.
func (r ApplyTransactionRequest) ToTransaction(actorID uuid.UUID) (Transaction, error) {
	h := Header{
		ItemID:         r.ItemID,
		Quantity:       r.Quantity,
		UOM:            r.UOM,
		ActorID:        actorID,
		IdempotencyKey: r.IdempotencyKey,
		LotNumber:      r.LotNumber,
		Reference:      r.Reference,
	}

	if IsReservedKey(r.IdempotencyKey) {
		return nil, apperr.Invalid("idempotency key uses a reserved prefix",
			map[string]string{"idempotency_key": "must not start with " + PickKeyPrefix})
	}

	if r.Type != TypeAdjust && (r.Direction != nil || r.LocationID != nil) {
		return nil, apperr.Invalid(fmt.Sprintf("direction/location_id are only valid for %s", TypeAdjust), nil)
	}

	var txn Transaction
	switch r.Type {
	case TypeReceive:
		if r.FromLocationID != nil {
			return nil, unexpected("from_location_id", r.Type)
		}
		txn = Receive{Header: h, ToLocationID: deref(r.ToLocationID)}
	case TypeMove:
		txn = Move{Header: h, FromLocationID: deref(r.FromLocationID), ToLocationID: deref(r.ToLocationID)}
	case TypeIssue:
		if r.ToLocationID != nil {
			return nil, unexpected("to_location_id", r.Type)
		}
		txn = Issue{Header: h, FromLocationID: deref(r.FromLocationID)}
	case TypeAdjust:
		loc := r.LocationID
		if loc == nil {
			loc = r.ToLocationID
		}
		if loc == nil {
			loc = r.FromLocationID
		}
		var dir AdjustDirection
		if r.Direction != nil {
			dir = *r.Direction
		}
		txn = Adjust{Header: h, LocationID: deref(loc), Direction: dir, Reason: r.Reason}
	default:
		return nil, apperr.Invalid(fmt.Sprintf("unknown transaction type %q", r.Type), map[string]string{"type": "must be one of RECEIVE, MOVE, ISSUE, ADJUST"})
	}

	if err := txn.Validate(); err != nil {
		return nil, apperr.FromValidation(err)
	}
	return txn, nil
}

func unexpected(field string, t TransactionType) error {
	return apperr.Invalid(fmt.Sprintf("%s is not valid for %s", field, t), map[string]string{field: "must be empty"})
}

func deref(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}

// ListEntriesRequest binds GET /transactions query parameters.
type ListEntriesRequest struct {
	ItemID     string `form:"item_id"`
	LocationID string `form:"location_id"`
	Limit      int    `form:"limit"`
}

// ListBalancesRequest binds GET /balances query parameters.
type ListBalancesRequest struct {
	ItemID     string `form:"item_id"`
	LocationID string `form:"location_id"`
}
