package apperr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ===================================
// ENGINE ERRORS
// ===================================

var (
	// ErrConversionNotFound is returned when no UOM factor is on record for an item
	ErrConversionNotFound = errors.New("uom conversion not found")

	// ErrInsufficientStock is returned when a MOVE or ISSUE would drive a balance negative
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrConcurrencyConflict is returned after the serialization retry budget is exhausted
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	ErrItemNotFound     = errors.New("item not found")
	ErrLocationNotFound = errors.New("location not found")
	ErrOrderNotFound    = errors.New("sales order not found")
	ErrPickTaskNotFound = errors.New("pick task not found")
	ErrPickLineNotFound = errors.New("pick task line not found")

	// ErrPickLineClosed is returned when confirming a line that is already PICKED or SHORT
	ErrPickLineClosed = errors.New("pick task line already confirmed")

	// ErrNoCandidateLocation is returned when a putaway strategy has nothing to choose from
	ErrNoCandidateLocation = errors.New("no candidate location")

	// ErrIdempotencyKeyReused is returned when a key already names a different movement
	ErrIdempotencyKeyReused = errors.New("idempotency key reused")

	// ErrOrderNotPickable is returned when a task is requested for an order outside ALLOCATED/PICKING
	ErrOrderNotPickable = errors.New("sales order not pickable")

	ErrInvalidInput = errors.New("invalid input")
)

// Error codes surfaced to API clients.
const (
	CodeConversionNotFound   = "CONVERSION_NOT_FOUND"
	CodeInsufficientStock    = "INSUFFICIENT_STOCK"
	CodeConcurrencyConflict  = "CONCURRENCY_CONFLICT"
	CodeItemNotFound         = "ITEM_NOT_FOUND"
	CodeLocationNotFound     = "LOCATION_NOT_FOUND"
	CodeOrderNotFound        = "ORDER_NOT_FOUND"
	CodePickTaskNotFound     = "PICK_TASK_NOT_FOUND"
	CodePickLineNotFound     = "PICK_LINE_NOT_FOUND"
	CodePickLineClosed       = "PICK_LINE_CLOSED"
	CodeNoCandidateLocation  = "NO_CANDIDATE_LOCATION"
	CodeIdempotencyKeyReused = "IDEMPOTENCY_KEY_REUSED"
	CodeOrderNotPickable     = "ORDER_NOT_PICKABLE"
	CodeInvalidInput         = "INVALID_INPUT"
)

// Details carries the structured context an operator UI needs to explain a failure.
type Details struct {
	ItemID     *uuid.UUID        `json:"item_id,omitempty"`
	LocationID *uuid.UUID        `json:"location_id,omitempty"`
	OrderID    *uuid.UUID        `json:"order_id,omitempty"`
	EntityID   *uuid.UUID        `json:"entity_id,omitempty"`
	FromUOM    string            `json:"from_uom,omitempty"`
	ToUOM      string            `json:"to_uom,omitempty"`
	Requested  *decimal.Decimal  `json:"requested,omitempty"`
	Available  *decimal.Decimal  `json:"available,omitempty"`
	Attempts   int               `json:"attempts,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
}

// Error is the structured engine error. It unwraps to one of the sentinels above.
type Error struct {
	Code    string
	Message string
	Details Details
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Details.ItemID != nil {
		fmt.Fprintf(&b, " item=%s", e.Details.ItemID)
	}
	if e.Details.LocationID != nil {
		fmt.Fprintf(&b, " location=%s", e.Details.LocationID)
	}
	if e.Details.Requested != nil && e.Details.Available != nil {
		fmt.Fprintf(&b, " requested=%s available=%s", e.Details.Requested, e.Details.Available)
	}
	if e.Details.FromUOM != "" || e.Details.ToUOM != "" {
		fmt.Fprintf(&b, " from=%s to=%s", e.Details.FromUOM, e.Details.ToUOM)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ===================================
// CONSTRUCTORS
// ===================================

func ConversionNotFound(itemID uuid.UUID, fromUOM, toUOM string) *Error {
	return &Error{
		Code:    CodeConversionNotFound,
		Message: "no conversion factor on record",
		Details: Details{ItemID: &itemID, FromUOM: fromUOM, ToUOM: toUOM},
		Err:     ErrConversionNotFound,
	}
}

func InsufficientStock(itemID, locationID uuid.UUID, requested, available decimal.Decimal) *Error {
	return &Error{
		Code:    CodeInsufficientStock,
		Message: "insufficient stock at location",
		Details: Details{
			ItemID:     &itemID,
			LocationID: &locationID,
			Requested:  &requested,
			Available:  &available,
		},
		Err: ErrInsufficientStock,
	}
}

func ConcurrencyConflict(attempts int, cause error) *Error {
	return &Error{
		Code:    CodeConcurrencyConflict,
		Message: fmt.Sprintf("transaction aborted after %d attempts: %v", attempts, cause),
		Details: Details{Attempts: attempts},
		Err:     ErrConcurrencyConflict,
	}
}

func ItemNotFound(itemID uuid.UUID) *Error {
	return &Error{
		Code:    CodeItemNotFound,
		Message: "item not found",
		Details: Details{ItemID: &itemID},
		Err:     ErrItemNotFound,
	}
}

func LocationNotFound(locationID uuid.UUID) *Error {
	return &Error{
		Code:    CodeLocationNotFound,
		Message: "location not found",
		Details: Details{LocationID: &locationID},
		Err:     ErrLocationNotFound,
	}
}

func OrderNotFound(orderID uuid.UUID) *Error {
	return &Error{
		Code:    CodeOrderNotFound,
		Message: "sales order not found",
		Details: Details{OrderID: &orderID},
		Err:     ErrOrderNotFound,
	}
}

func PickTaskNotFound(taskID uuid.UUID) *Error {
	return &Error{
		Code:    CodePickTaskNotFound,
		Message: "pick task not found",
		Details: Details{EntityID: &taskID},
		Err:     ErrPickTaskNotFound,
	}
}

func PickLineNotFound(lineID uuid.UUID) *Error {
	return &Error{
		Code:    CodePickLineNotFound,
		Message: "pick task line not found",
		Details: Details{EntityID: &lineID},
		Err:     ErrPickLineNotFound,
	}
}

func PickLineClosed(lineID uuid.UUID, status string) *Error {
	return &Error{
		Code:    CodePickLineClosed,
		Message: fmt.Sprintf("pick task line is %s", status),
		Details: Details{EntityID: &lineID},
		Err:     ErrPickLineClosed,
	}
}

func NoCandidateLocation(itemID uuid.UUID, strategy string) *Error {
	return &Error{
		Code:    CodeNoCandidateLocation,
		Message: fmt.Sprintf("no location satisfies putaway strategy %s", strategy),
		Details: Details{ItemID: &itemID},
		Err:     ErrNoCandidateLocation,
	}
}

// IdempotencyKeyReused points at the entry that already owns key.
func IdempotencyKeyReused(key string, priorEntryID uuid.UUID) *Error {
	return &Error{
		Code:    CodeIdempotencyKeyReused,
		Message: "idempotency key already used by a different transaction",
		Details: Details{EntityID: &priorEntryID, Fields: map[string]string{"idempotency_key": key}},
		Err:     ErrIdempotencyKeyReused,
	}
}

func OrderNotPickable(orderID uuid.UUID, status string) *Error {
	return &Error{
		Code:    CodeOrderNotPickable,
		Message: fmt.Sprintf("sales order is %s", status),
		Details: Details{OrderID: &orderID},
		Err:     ErrOrderNotPickable,
	}
}

// Invalid wraps a validation failure. fields may be nil.
func Invalid(message string, fields map[string]string) *Error {
	return &Error{
		Code:    CodeInvalidInput,
		Message: message,
		Details: Details{Fields: fields},
		Err:     ErrInvalidInput,
	}
}

// ===================================
// HELPERS
// ===================================

// As extracts the structured error, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrItemNotFound) ||
		errors.Is(err, ErrLocationNotFound) ||
		errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrPickTaskNotFound) ||
		errors.Is(err, ErrPickLineNotFound)
}
