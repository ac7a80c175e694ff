package uom

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory-engine/internal/domains/catalog/model"
	"inventory-engine/internal/shared/apperr"
)

type fakeLookup struct {
	items       map[uuid.UUID]model.Item
	conversions map[string]decimal.Decimal
}

func convKey(itemID uuid.UUID, from, to string) string {
	return itemID.String() + "|" + from + "|" + to
}

func (f *fakeLookup) GetItem(_ context.Context, id uuid.UUID) (*model.Item, error) {
	it, ok := f.items[id]
	if !ok {
		return nil, apperr.ItemNotFound(id)
	}
	return &it, nil
}

func (f *fakeLookup) GetConversion(_ context.Context, itemID uuid.UUID, from, to string) (*model.UOMConversion, error) {
	factor, ok := f.conversions[convKey(itemID, from, to)]
	if !ok {
		return nil, apperr.ConversionNotFound(itemID, from, to)
	}
	return &model.UOMConversion{ItemID: itemID, FromUOM: from, ToUOM: to, Factor: factor}, nil
}

func newFixture() (*Resolver, model.Item) {
	cable := model.Item{ID: uuid.New(), SKU: "CABLE-12", BaseUOM: "FT"}
	lookup := &fakeLookup{
		items: map[uuid.UUID]model.Item{cable.ID: cable},
		conversions: map[string]decimal.Decimal{
			convKey(cable.ID, "ROLL", "FT"):  decimal.NewFromInt(100),
			convKey(cable.ID, "SPOOL", "FT"): decimal.RequireFromString("2.5"),
		},
	}
	return NewResolver(lookup), cable
}

func TestConvert_AppliesFactor(t *testing.T) {
	r, cable := newFixture()
	ctx := context.Background()

	tests := []struct {
		name string
		qty  string
		from string
		want string
	}{
		{"one roll", "1", "ROLL", "100"},
		{"fractional roll", "0.37", "ROLL", "37"},
		{"lowercase code", "3", " roll", "300"},
		{"fractional factor", "3", "SPOOL", "7.5"},
		{"base is identity", "42.125", "FT", "42.125"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Convert(ctx, cable.ID, decimal.RequireFromString(tt.qty), tt.from, "FT")
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestConvert_ExactDecimalArithmetic(t *testing.T) {
	r, cable := newFixture()

	total := decimal.Zero
	for i := 0; i < 10; i++ {
		q, err := r.Convert(context.Background(), cable.ID, decimal.RequireFromString("0.1"), "SPOOL", "FT")
		require.NoError(t, err)
		total = total.Add(q)
	}
	assert.True(t, decimal.RequireFromString("2.5").Equal(total))
}

func TestConvert_MissingFactorIsError(t *testing.T) {
	r, cable := newFixture()

	_, err := r.Convert(context.Background(), cable.ID, decimal.NewFromInt(1), "BOX", "FT")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrConversionNotFound)

	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, "BOX", e.Details.FromUOM)
	assert.Equal(t, "FT", e.Details.ToUOM)

	// the reverse direction is not inferred
	_, err = r.Convert(context.Background(), cable.ID, decimal.NewFromInt(100), "FT", "ROLL")
	assert.ErrorIs(t, err, apperr.ErrConversionNotFound)
}

func TestConvert_UnknownItem(t *testing.T) {
	r, _ := newFixture()
	_, err := r.Convert(context.Background(), uuid.New(), decimal.NewFromInt(1), "EA", "EA")
	assert.ErrorIs(t, err, apperr.ErrItemNotFound)
}

func TestToBase(t *testing.T) {
	r, cable := newFixture()
	ctx := context.Background()

	got, err := r.ToBase(ctx, cable, decimal.NewFromInt(2), "ROLL")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(200).Equal(got))

	got, err = r.ToBase(ctx, cable, decimal.NewFromInt(7), "")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(7).Equal(got))
}
