package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory-engine/internal/domains/ledger/model"
)

func TestBalanceExporter_Rows(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	_, err := f.svc.Apply(ctx, model.Receive{Header: f.header(f.itemX, 10, "EA"), ToLocationID: f.locB.ID})
	require.NoError(t, err)
	_, err = f.svc.Apply(ctx, model.Receive{Header: f.header(f.itemY, 2, "ROLL"), ToLocationID: f.locA.ID})
	require.NoError(t, err)
	_, err = f.svc.Apply(ctx, model.Receive{Header: f.header(f.itemX, 5, "EA"), ToLocationID: f.locA.ID})
	require.NoError(t, err)
	// drained to zero, left out of the export
	_, err = f.svc.Apply(ctx, model.Receive{Header: f.header(f.itemX, 3, "EA"), ToLocationID: f.locC.ID})
	require.NoError(t, err)
	_, err = f.svc.Apply(ctx, model.Issue{Header: f.header(f.itemX, 3, "EA"), FromLocationID: f.locC.ID})
	require.NoError(t, err)

	exporter := NewBalanceExporter(f.store, f.catalog)

	t.Run("everything ordered by location then sku", func(t *testing.T) {
		rows, err := exporter.Rows(ctx, nil, nil)
		require.NoError(t, err)
		require.Len(t, rows, 3)

		assert.Equal(t, "A-01", rows[0].Label)
		assert.Equal(t, "X-100", rows[0].SKU)
		assert.Equal(t, "A-01", rows[1].Label)
		assert.Equal(t, "Y-200", rows[1].SKU)
		assert.Equal(t, "FT", rows[1].BaseUOM)
		assert.Equal(t, "200", rows[1].QtyBase.String())
		assert.Equal(t, "A-02", rows[2].Label)
		assert.Equal(t, "Widget", rows[2].ItemName)
	})

	t.Run("item filter", func(t *testing.T) {
		rows, err := exporter.Rows(ctx, &f.itemY.ID, nil)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, f.locA.ID, rows[0].LocationID)
	})

	t.Run("item and location filter", func(t *testing.T) {
		rows, err := exporter.Rows(ctx, &f.itemX.ID, &f.locB.ID)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "10", rows[0].QtyBase.String())
	})
}

func TestBuildBalancesWorkbook(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	_, err := f.svc.Apply(ctx, model.Receive{Header: f.header(f.itemX, 7, "EA"), ToLocationID: f.locA.ID})
	require.NoError(t, err)

	exporter := NewBalanceExporter(f.store, f.catalog)
	exporter.now = func() time.Time { return time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC) }

	file, n, err := exporter.Export(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rows, err := file.GetRows(balancesSheet)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 3)

	assert.Equal(t, balanceHeaders, rows[0])
	assert.Equal(t, []string{"A-01", "A", "A-01", "X-100", "Widget", "7", "EA"}, rows[1][:7])
	assert.Equal(t, f.itemX.ID.String(), rows[1][8])
	assert.Equal(t, "Generated at 2025-03-01T08:00:00Z", rows[len(rows)-1][0])
}
