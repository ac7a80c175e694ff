package apperr

import (
	"errors"
	"fmt"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsufficientStockCarriesDetails(t *testing.T) {
	item, loc := uuid.New(), uuid.New()
	err := InsufficientStock(item, loc, decimal.NewFromInt(70), decimal.NewFromInt(60))

	wrapped := fmt.Errorf("apply issue: %w", err)
	assert.ErrorIs(t, wrapped, ErrInsufficientStock)

	got, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeInsufficientStock, got.Code)
	assert.Equal(t, item, *got.Details.ItemID)
	assert.Equal(t, loc, *got.Details.LocationID)
	assert.True(t, got.Details.Requested.Equal(decimal.NewFromInt(70)))
	assert.True(t, got.Details.Available.Equal(decimal.NewFromInt(60)))
	assert.Contains(t, err.Error(), "requested=70 available=60")
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(ItemNotFound(uuid.New())))
	assert.True(t, IsNotFound(LocationNotFound(uuid.New())))
	assert.True(t, IsNotFound(PickLineNotFound(uuid.New())))
	assert.False(t, IsNotFound(ConversionNotFound(uuid.New(), "ROLL", "FT")))
	assert.False(t, IsNotFound(errors.New("boom")))
}

func TestFromValidation(t *testing.T) {
	type req struct {
		Qty  int
		Name string
	}
	r := req{}
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Qty, validation.Required),
		validation.Field(&r.Name, validation.Required),
	)
	require.Error(t, err)

	converted := FromValidation(err)
	assert.ErrorIs(t, converted, ErrInvalidInput)

	got, ok := As(converted)
	require.True(t, ok)
	assert.Len(t, got.Details.Fields, 2)
	assert.NoError(t, FromValidation(nil))
}
