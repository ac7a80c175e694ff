package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogModel "inventory-engine/internal/domains/catalog/model"
	ledgerModel "inventory-engine/internal/domains/ledger/model"
	ledgerService "inventory-engine/internal/domains/ledger/service"
	"inventory-engine/internal/domains/slotting/model"
	"inventory-engine/internal/domains/uom"
	"inventory-engine/internal/shared/apperr"
	"inventory-engine/internal/storage"
	"inventory-engine/internal/storage/memory"
)

type countsStub map[uuid.UUID]int

func (c countsStub) CountMovements(context.Context, []uuid.UUID, time.Time) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out, nil
}

type fixture struct {
	catalog *memory.Catalog
	store   *memory.Store
	ledger  *ledgerService.LedgerService
	now     time.Time

	actor uuid.UUID
	site  uuid.UUID
	locs  map[string]catalogModel.Location
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		catalog: memory.NewCatalog(),
		store:   memory.NewStore(storage.DefaultOptions()),
		now:     time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC),
		actor:   uuid.New(),
		site:    uuid.New(),
		locs:    map[string]catalogModel.Location{},
	}
	for _, l := range []struct{ label, zone string }{{"A-01", "A"}, {"A-02", "A"}, {"B-01", "B"}, {"C-01", "C"}, {"C-02", "C"}} {
		loc := catalogModel.Location{ID: uuid.New(), SiteID: f.site, Label: l.label, Zone: l.zone, Bin: l.label[2:], Type: catalogModel.LocationTypeStock}
		f.catalog.AddLocation(loc)
		f.locs[l.label] = loc
	}
	dock := catalogModel.Location{ID: uuid.New(), SiteID: f.site, Label: "DOCK", Zone: "R", Bin: "1", Type: catalogModel.LocationTypeReceiving}
	f.catalog.AddLocation(dock)
	f.locs["DOCK"] = dock

	f.ledger = ledgerService.NewService(f.store, f.catalog, uom.NewResolver(f.catalog), nil,
		ledgerService.WithClock(func() time.Time { return f.now }))
	return f
}

func (f *fixture) item(sku string) catalogModel.Item {
	it := catalogModel.Item{ID: uuid.New(), SKU: sku, BaseUOM: "EA"}
	f.catalog.AddItem(it)
	return it
}

func (f *fixture) receive(t *testing.T, item catalogModel.Item, label string, qty int64) {
	t.Helper()
	_, err := f.ledger.Apply(context.Background(), ledgerModel.Receive{
		Header:       ledgerModel.Header{ItemID: item.ID, Quantity: decimal.NewFromInt(qty), ActorID: f.actor},
		ToLocationID: f.locs[label].ID,
	})
	require.NoError(t, err)
}

func (f *fixture) service(movements MovementSource, settings Settings) *SlottingService {
	return NewService(f.catalog, f.store, movements, settings, WithClock(func() time.Time { return f.now }))
}

func TestPerformABCAnalysis_Percentile(t *testing.T) {
	f := newFixture(t)
	counts := countsStub{}
	for i := 0; i < 10; i++ {
		it := f.item(fmt.Sprintf("SKU-%02d", i))
		counts[it.ID] = 100 - i*10
	}

	abc, err := f.service(counts, DefaultSettings()).PerformABCAnalysis(context.Background(), f.site, PolicyPercentile)
	require.NoError(t, err)

	assert.Equal(t, PolicyPercentile, abc.Policy)
	assert.Equal(t, map[model.Class]int{model.ClassA: 2, model.ClassB: 3, model.ClassC: 5}, abc.ClassCounts)
	require.Len(t, abc.Items, 10)
	assert.Equal(t, "SKU-00", abc.Items[0].SKU)
	assert.Equal(t, model.ClassA, abc.Items[1].Class)
	assert.Equal(t, model.ClassB, abc.Items[2].Class)
	assert.Equal(t, model.ClassC, abc.Items[5].Class)
}

func TestPerformABCAnalysis_ThresholdIsDefault(t *testing.T) {
	f := newFixture(t)
	counts := countsStub{}
	want := map[string]model.Class{}
	for _, tc := range []struct {
		sku   string
		moves int
		class model.Class
	}{
		{"FAST", 51, model.ClassA},
		{"EDGE-A", 50, model.ClassB},
		{"MID", 21, model.ClassB},
		{"EDGE-B", 20, model.ClassC},
		{"IDLE", 0, model.ClassC},
	} {
		it := f.item(tc.sku)
		counts[it.ID] = tc.moves
		want[tc.sku] = tc.class
	}

	abc, err := f.service(counts, DefaultSettings()).PerformABCAnalysis(context.Background(), f.site, "")
	require.NoError(t, err)
	assert.Equal(t, PolicyThreshold, abc.Policy)
	for _, it := range abc.Items {
		assert.Equal(t, want[it.SKU], it.Class, it.SKU)
	}
	assert.True(t, abc.Since.Equal(f.now.AddDate(0, 0, -30)))
}

func TestPerformABCAnalysis_UnknownPolicy(t *testing.T) {
	f := newFixture(t)
	_, err := f.service(countsStub{}, DefaultSettings()).PerformABCAnalysis(context.Background(), f.site, "pareto")
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
}

// fast is class A but stored in zone C across two bins; slow is class C in zone A.
func seedMisplaced(t *testing.T, f *fixture) (fast, slow catalogModel.Item, counts countsStub) {
	fast, slow = f.item("FAST"), f.item("SLOW")
	f.receive(t, fast, "C-01", 10)
	f.receive(t, fast, "C-02", 5)
	f.receive(t, slow, "A-01", 3)
	return fast, slow, countsStub{fast.ID: 80, slow.ID: 2}
}

func TestAnalyzeSlotting_Metrics(t *testing.T) {
	f := newFixture(t)
	_, _, counts := seedMisplaced(t, f)

	m, err := f.service(counts, DefaultSettings()).AnalyzeSlotting(context.Background(), f.site, "")
	require.NoError(t, err)

	assert.Equal(t, 2, m.ItemCount)
	assert.Equal(t, 1, m.ClassCounts[model.ClassA])
	assert.Equal(t, 1, m.ClassCounts[model.ClassC])
	assert.Equal(t, 1, m.FragmentedItems)
	assert.Equal(t, 2, m.MisplacedItems)
	assert.Equal(t, "1.5", m.AvgLocationsPerItem.String())
	assert.Equal(t, 5, m.StockLocations)
	assert.Equal(t, 3, m.OccupiedLocations)
	assert.Equal(t, "0.6", m.LocationUtilization.String())
}

func TestRecommendSlotting(t *testing.T) {
	f := newFixture(t)
	fast, slow, counts := seedMisplaced(t, f)

	recs, err := f.service(counts, DefaultSettings()).RecommendSlotting(context.Background(), f.site, "")
	require.NoError(t, err)
	require.Len(t, recs, 3)

	relocate := recs[0]
	assert.Equal(t, model.RecommendRelocate, relocate.Type)
	assert.Equal(t, model.PriorityHigh, relocate.Priority)
	assert.Equal(t, fast.ID, relocate.ItemID)
	assert.Equal(t, "C-01", relocate.FromLabel)
	assert.Equal(t, "A-02", relocate.ToLabel, "least occupied location in zone A")
	assert.Equal(t, "A", relocate.TargetZone)
	assert.Equal(t, "10", relocate.Quantity.String())

	consolidate := recs[1]
	assert.Equal(t, model.RecommendConsolidate, consolidate.Type)
	assert.Equal(t, "C-02", consolidate.FromLabel)
	assert.Equal(t, "C-01", consolidate.ToLabel)
	assert.Equal(t, "5", consolidate.Quantity.String())

	assert.Equal(t, slow.ID, recs[2].ItemID)
	assert.Equal(t, model.PriorityLow, recs[2].Priority)
	assert.Equal(t, "C-02", recs[2].ToLabel)
}

func TestRecommendSlotting_NoTargetZone(t *testing.T) {
	f := newFixture(t)
	_, _, counts := seedMisplaced(t, f)
	settings := DefaultSettings()
	settings.VelocityZones = map[string]string{"A": "Z"}

	recs, err := f.service(counts, settings).RecommendSlotting(context.Background(), f.site, "")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, model.RecommendRelocate, recs[0].Type)
	assert.Nil(t, recs[0].ToLocationID)
	assert.Equal(t, model.RecommendConsolidate, recs[1].Type)
}

func TestLedgerMovements_WindowAndTypes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	widget := f.item("WIDGET")
	current := f.now

	f.now = current.AddDate(0, 0, -40)
	f.receive(t, widget, "DOCK", 10)

	f.now = current.AddDate(0, 0, -1)
	f.receive(t, widget, "DOCK", 10)
	_, err := f.ledger.Apply(ctx, ledgerModel.Move{
		Header:         ledgerModel.Header{ItemID: widget.ID, Quantity: decimal.NewFromInt(5), ActorID: f.actor},
		FromLocationID: f.locs["DOCK"].ID,
		ToLocationID:   f.locs["B-01"].ID,
	})
	require.NoError(t, err)
	_, err = f.ledger.Apply(ctx, ledgerModel.Adjust{
		Header:     ledgerModel.Header{ItemID: widget.ID, Quantity: decimal.NewFromInt(1), ActorID: f.actor},
		LocationID: f.locs["B-01"].ID,
		Direction:  ledgerModel.DirectionSubtract,
		Reason:     "damaged",
	})
	require.NoError(t, err)
	f.now = current

	abc, err := f.service(NewLedgerMovements(f.store), DefaultSettings()).PerformABCAnalysis(ctx, f.site, "")
	require.NoError(t, err)
	require.Len(t, abc.Items, 1)
	assert.Equal(t, 2, abc.Items[0].Movements)
	assert.Equal(t, model.ClassC, abc.Items[0].Class)
}
