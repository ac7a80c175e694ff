package model

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ledgerModel "inventory-engine/internal/domains/ledger/model"
)

// Strategy selects how a destination location is chosen.
type Strategy string

const (
	StrategyConsolidate Strategy = "CONSOLIDATE"
	StrategyVelocity    Strategy = "VELOCITY"
	StrategyZone        Strategy = "ZONE"
	StrategyRandom      Strategy = "RANDOM"
	StrategyDirected    Strategy = "DIRECTED"
)

func (s Strategy) IsValid() bool {
	switch s {
	case StrategyConsolidate, StrategyVelocity, StrategyZone, StrategyRandom, StrategyDirected:
		return true
	}
	return false
}

// Candidate is one ranked destination.
type Candidate struct {
	LocationID uuid.UUID        `json:"location_id"`
	Label      string           `json:"label"`
	Zone       string           `json:"zone"`
	Bin        string           `json:"bin"`
	CurrentQty decimal.Decimal  `json:"current_qty"`
	HoldsItem  bool             `json:"holds_item"`
	Score      *decimal.Decimal `json:"score,omitempty"`
	Reason     string           `json:"reason"`
}

// Suggestion is the planner's answer. Alternatives holds at most three
// further candidates in rank order.
type Suggestion struct {
	ItemID       uuid.UUID       `json:"item_id"`
	SiteID       uuid.UUID       `json:"site_id"`
	Strategy     Strategy        `json:"strategy"`
	QuantityBase decimal.Decimal `json:"quantity_base"`
	LotNumber    string          `json:"lot_number,omitempty"`
	Suggested    Candidate       `json:"suggested"`
	Alternatives []Candidate     `json:"alternatives"`
}

// ===================================
// REQUESTS
// ===================================

type SuggestRequest struct {
	ItemID    uuid.UUID       `json:"item_id"`
	SiteID    uuid.UUID       `json:"site_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UOM       string          `json:"uom"`
	LotNumber string          `json:"lot_number"`
	Strategy  Strategy        `json:"strategy"`
}

func (r SuggestRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ItemID, requiredUUID),
		validation.Field(&r.SiteID, requiredUUID),
		validation.Field(&r.Quantity, positive),
		validation.Field(&r.Strategy, validation.By(func(interface{}) error {
			if r.Strategy != "" && !r.Strategy.IsValid() {
				return errors.New("must be one of CONSOLIDATE, VELOCITY, ZONE, RANDOM, DIRECTED")
			}
			return nil
		})),
	)
}

type ExecuteRequest struct {
	ItemID         uuid.UUID       `json:"item_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	UOM            string          `json:"uom"`
	FromLocationID uuid.UUID       `json:"from_location_id"`
	ToLocationID   uuid.UUID       `json:"to_location_id"`
	LotNumber      string          `json:"lot_number"`
	IdempotencyKey string          `json:"idempotency_key"`
}

func (r ExecuteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ItemID, requiredUUID),
		validation.Field(&r.Quantity, positive),
		validation.Field(&r.FromLocationID, requiredUUID),
		validation.Field(&r.ToLocationID, requiredUUID),
		validation.Field(&r.IdempotencyKey, validation.By(func(interface{}) error {
			if ledgerModel.IsReservedKey(r.IdempotencyKey) {
				return errors.New("must not start with " + ledgerModel.PickKeyPrefix)
			}
			return nil
		})),
	)
}

var requiredUUID = validation.By(func(value interface{}) error {
	if id, _ := value.(uuid.UUID); id == uuid.Nil {
		return errors.New("cannot be blank")
	}
	return nil
})

var positive = validation.By(func(value interface{}) error {
	if q, _ := value.(decimal.Decimal); !q.IsPositive() {
		return errors.New("must be greater than zero")
	}
	return nil
})
