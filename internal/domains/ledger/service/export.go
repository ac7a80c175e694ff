package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	catalogModel "inventory-engine/internal/domains/catalog/model"
	catalogRepo "inventory-engine/internal/domains/catalog/repository"
	"inventory-engine/internal/domains/ledger/model"
	"inventory-engine/internal/storage"
)

const balancesSheet = "Balances"

// BalanceRow is one line of the on-hand export.
type BalanceRow struct {
	ItemID     uuid.UUID
	SKU        string
	ItemName   string
	BaseUOM    string
	LocationID uuid.UUID
	Label      string
	Zone       string
	Bin        string
	QtyBase    decimal.Decimal
	UpdatedAt  time.Time
}

// BalanceExporter renders on-hand balances as a spreadsheet.
type BalanceExporter struct {
	store   storage.Store
	catalog catalogRepo.Repository
	now     func() time.Time
}

func NewBalanceExporter(store storage.Store, catalog catalogRepo.Repository) *BalanceExporter {
	return &BalanceExporter{store: store, catalog: catalog, now: time.Now}
}

// Rows loads the non-zero balances matching the optional filters, ordered by
// location label then SKU. With no filter every balance is exported.
func (e *BalanceExporter) Rows(ctx context.Context, itemID, locationID *uuid.UUID) ([]BalanceRow, error) {
	repo := e.store.Reader().Balances()

	var (
		balances []model.Balance
		err      error
	)
	switch {
	case itemID != nil:
		balances, err = repo.ListByItem(ctx, *itemID)
	case locationID != nil:
		balances, err = repo.ListByLocations(ctx, []uuid.UUID{*locationID})
	default:
		balances, err = repo.ListAll(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("load balances: %w", err)
	}

	var (
		itemIDs   []uuid.UUID
		seenItem  = map[uuid.UUID]bool{}
		filtered  = balances[:0]
		locations = map[uuid.UUID]catalogModel.Location{}
	)
	for _, b := range balances {
		if b.QtyBase.IsZero() || (locationID != nil && b.LocationID != *locationID) {
			continue
		}
		filtered = append(filtered, b)
		if !seenItem[b.ItemID] {
			seenItem[b.ItemID] = true
			itemIDs = append(itemIDs, b.ItemID)
		}
	}

	items, err := e.catalog.GetItems(ctx, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}

	rows := make([]BalanceRow, 0, len(filtered))
	for _, b := range filtered {
		loc, ok := locations[b.LocationID]
		if !ok {
			l, err := e.catalog.GetLocation(ctx, b.LocationID)
			if err != nil {
				return nil, fmt.Errorf("load location %s: %w", b.LocationID, err)
			}
			loc = *l
			locations[b.LocationID] = loc
		}

		item := items[b.ItemID]
		rows = append(rows, BalanceRow{
			ItemID:     b.ItemID,
			SKU:        item.SKU,
			ItemName:   item.Name,
			BaseUOM:    item.BaseUOM,
			LocationID: b.LocationID,
			Label:      loc.Label,
			Zone:       loc.Zone,
			Bin:        loc.Bin,
			QtyBase:    b.QtyBase,
			UpdatedAt:  b.UpdatedAt,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Label != rows[j].Label {
			return rows[i].Label < rows[j].Label
		}
		return rows[i].SKU < rows[j].SKU
	})
	return rows, nil
}

// Export loads the rows and builds the workbook.
func (e *BalanceExporter) Export(ctx context.Context, itemID, locationID *uuid.UUID) (*excelize.File, int, error) {
	rows, err := e.Rows(ctx, itemID, locationID)
	if err != nil {
		return nil, 0, err
	}
	f, err := BuildBalancesWorkbook(rows, e.now())
	if err != nil {
		return nil, 0, fmt.Errorf("build balances workbook: %w", err)
	}
	return f, len(rows), nil
}

var balanceHeaders = []string{
	"Location", "Zone", "Bin", "SKU", "Item", "Quantity", "Base UOM", "Updated At", "Item ID", "Location ID",
}

// BuildBalancesWorkbook writes rows to a single "Balances" sheet with a bold
// header row and the generation time in the last row.
func BuildBalancesWorkbook(rows []BalanceRow, generatedAt time.Time) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", balancesSheet); err != nil {
		return nil, err
	}

	for col, header := range balanceHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(balancesSheet, cell, header); err != nil {
			return nil, err
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(balanceHeaders))
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(balancesSheet, "A1", lastCol+"1", style)
	}

	for i, r := range rows {
		values := []interface{}{
			r.Label,
			r.Zone,
			r.Bin,
			r.SKU,
			r.ItemName,
			r.QtyBase.InexactFloat64(),
			r.BaseUOM,
			r.UpdatedAt.UTC().Format(time.RFC3339),
			r.ItemID.String(),
			r.LocationID.String(),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(balancesSheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	footer, _ := excelize.CoordinatesToCellName(1, len(rows)+3)
	if err := f.SetCellValue(balancesSheet, footer, "Generated at "+generatedAt.UTC().Format(time.RFC3339)); err != nil {
		return nil, err
	}

	_ = f.SetColWidth(balancesSheet, "A", "E", 14)
	_ = f.SetColWidth(balancesSheet, "I", "J", 38)
	return f, nil
}
