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
	"inventory-engine/internal/domains/picking/model"
	"inventory-engine/internal/domains/uom"
	"inventory-engine/internal/shared/apperr"
	"inventory-engine/internal/storage"
	"inventory-engine/internal/storage/memory"
	"inventory-engine/pkg/database"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

type fixture struct {
	store   *memory.Store
	catalog *memory.Catalog
	ledger  *ledgerService.LedgerService
	svc     *PickingService
	clock   *clock

	actor uuid.UUID
	site  uuid.UUID
	bolt  catalogModel.Item
	cable catalogModel.Item
	a01   catalogModel.Location
	a02   catalogModel.Location
	b01   catalogModel.Location
	dock  catalogModel.Location
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: memory.NewStore(storage.Options{
			Retry:   database.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
			Timeout: 5 * time.Second,
		}),
		catalog: memory.NewCatalog(),
		clock:   &clock{t: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)},
		actor:   uuid.New(),
		site:    uuid.New(),
	}
	f.bolt = catalogModel.Item{ID: uuid.New(), SKU: "BOLT", BaseUOM: "EA"}
	f.cable = catalogModel.Item{ID: uuid.New(), SKU: "CABLE", BaseUOM: "FT"}
	f.catalog.AddItem(f.bolt)
	f.catalog.AddItem(f.cable)
	f.catalog.AddConversion(catalogModel.UOMConversion{ItemID: f.cable.ID, FromUOM: "ROLL", ToUOM: "FT", Factor: decimal.NewFromInt(100)})

	mk := func(label, zone, bin string, typ catalogModel.LocationType) catalogModel.Location {
		loc := catalogModel.Location{ID: uuid.New(), SiteID: f.site, Label: label, Zone: zone, Bin: bin, Type: typ}
		f.catalog.AddLocation(loc)
		return loc
	}
	f.a01 = mk("A-01", "A", "01", catalogModel.LocationTypeStock)
	f.a02 = mk("A-02", "A", "02", catalogModel.LocationTypeStock)
	f.b01 = mk("B-01", "B", "01", catalogModel.LocationTypeStock)
	f.dock = mk("DOCK", "R", "1", catalogModel.LocationTypeReceiving)

	resolver := uom.NewResolver(f.catalog)
	f.ledger = ledgerService.NewService(f.store, f.catalog, resolver, nil, ledgerService.WithClock(f.clock.now))
	f.svc = NewService(f.store, f.catalog, resolver, f.ledger, DefaultDefaults(), WithClock(f.clock.now))
	return f
}

func (f *fixture) receive(t *testing.T, item catalogModel.Item, loc catalogModel.Location, qty int64) {
	t.Helper()
	_, err := f.ledger.Apply(context.Background(), ledgerModel.Receive{
		Header:       ledgerModel.Header{ItemID: item.ID, Quantity: decimal.NewFromInt(qty), ActorID: f.actor},
		ToLocationID: loc.ID,
	})
	require.NoError(t, err)
}

type lineSpec struct {
	item catalogModel.Item
	qty  int64
	uom  string
}

func (f *fixture) order(number string, requested time.Time, lines ...lineSpec) model.SalesOrder {
	o := model.SalesOrder{
		ID:            uuid.New(),
		OrderNumber:   number,
		SiteID:        f.site,
		Status:        model.OrderStatusConfirmed,
		RequestedDate: requested,
		CreatedAt:     requested,
		UpdatedAt:     requested,
	}
	for i, l := range lines {
		o.Lines = append(o.Lines, model.SalesOrderLine{
			ID:           uuid.New(),
			SalesOrderID: o.ID,
			LineNumber:   i + 1,
			ItemID:       l.item.ID,
			Quantity:     decimal.NewFromInt(l.qty),
			UOM:          l.uom,
			QtyPicked:    decimal.Zero,
		})
	}
	f.store.SeedOrder(o)
	return o
}

func (f *fixture) orderWithLines(number string, requested time.Time, n int) model.SalesOrder {
	lines := make([]lineSpec, n)
	for i := range lines {
		lines[i] = lineSpec{item: f.bolt, qty: 1}
	}
	return f.order(number, requested, lines...)
}

func (f *fixture) getOrder(t *testing.T, id uuid.UUID) model.SalesOrder {
	t.Helper()
	o, err := f.store.Reader().Orders().Get(context.Background(), id)
	require.NoError(t, err)
	return *o
}

func (f *fixture) balance(t *testing.T, item catalogModel.Item, loc catalogModel.Location) string {
	t.Helper()
	rows, err := f.ledger.ListBalances(context.Background(), &item.ID, &loc.ID)
	require.NoError(t, err)
	if len(rows) == 0 {
		return "0"
	}
	return rows[0].QtyBase.String()
}

// ========================================
// WAVES
// ========================================

func TestCreateWave_TwelveOrdersMaxLinesTwenty(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	counts := []int{3, 2, 4, 1, 5, 3, 4, 1, 2, 1, 3, 2}

	orders := make([]model.SalesOrder, len(counts))
	// seed newest first so admission order comes from the requested date
	for i := len(counts) - 1; i >= 0; i-- {
		orders[i] = f.orderWithLines(fmt.Sprintf("SO-%02d", i+1), base.Add(time.Duration(i)*time.Hour), counts[i])
	}

	res, err := f.svc.CreateWave(context.Background(), f.site, f.actor, model.WaveConfig{MaxOrders: 50, MaxLines: 20, MaxQuantity: decimal.NewFromInt(1000)})
	require.NoError(t, err)

	// 3+2+4+1+5+3 = 18; SO-07 (4) skipped; SO-08 -> 19; SO-09 (2) skipped;
	// SO-10 -> 20; SO-11 and SO-12 skipped
	admitted := []int{0, 1, 2, 3, 4, 5, 7, 9}
	wantIDs := make([]uuid.UUID, len(admitted))
	for i, idx := range admitted {
		wantIDs[i] = orders[idx].ID
	}
	assert.Equal(t, wantIDs, res.OrderIDs)
	assert.Equal(t, 8, res.OrderCount)
	assert.Equal(t, 20, res.LineCount)
	assert.True(t, res.Quantity.Equal(decimal.NewFromInt(20)))
	assert.NotEqual(t, uuid.Nil, res.WaveID)
	assert.Contains(t, res.WaveNumber, "WV-")

	inWave := map[uuid.UUID]bool{}
	for _, id := range wantIDs {
		inWave[id] = true
	}
	for _, o := range orders {
		got := f.getOrder(t, o.ID)
		if inWave[o.ID] {
			assert.Equal(t, model.OrderStatusAllocated, got.Status, o.OrderNumber)
			require.NotNil(t, got.WaveID)
			assert.Equal(t, res.WaveID, *got.WaveID)
		} else {
			assert.Equal(t, model.OrderStatusConfirmed, got.Status, o.OrderNumber)
			assert.Nil(t, got.WaveID)
		}
	}

	wave, err := f.store.Reader().Waves().Get(context.Background(), res.WaveID)
	require.NoError(t, err)
	assert.Equal(t, 20, wave.LineCount)
	assert.Equal(t, f.actor, wave.CreatedBy)
}

func TestCreateWave_LimitsAndConversion(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	big := f.order("SO-1", base, lineSpec{item: f.cable, qty: 2, uom: "ROLL"})
	small := f.order("SO-2", base.Add(time.Hour), lineSpec{item: f.bolt, qty: 50})
	third := f.order("SO-3", base.Add(2*time.Hour), lineSpec{item: f.bolt, qty: 10})

	res, err := f.svc.CreateWave(context.Background(), f.site, f.actor, model.WaveConfig{MaxOrders: 1, MaxLines: 10, MaxQuantity: decimal.NewFromInt(100)})
	require.NoError(t, err)

	// SO-1 is 200 FT and never fits; max orders stops after SO-2
	assert.Equal(t, []uuid.UUID{small.ID}, res.OrderIDs)
	assert.True(t, res.Quantity.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, model.OrderStatusConfirmed, f.getOrder(t, big.ID).Status)
	assert.Equal(t, model.OrderStatusConfirmed, f.getOrder(t, third.ID).Status)

	// the allocated order is no longer eligible
	res, err = f.svc.CreateWave(context.Background(), f.site, f.actor, model.WaveConfig{MaxLines: 10, MaxQuantity: decimal.NewFromInt(100)})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{third.ID}, res.OrderIDs)
}

func TestCreateWave_NothingAdmitted(t *testing.T) {
	f := newFixture(t)
	f.orderWithLines("SO-1", time.Now(), 5)

	res, err := f.svc.CreateWave(context.Background(), f.site, f.actor, model.WaveConfig{MaxLines: 2})
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, res.WaveID)
	assert.Zero(t, res.OrderCount)
	assert.Empty(t, res.OrderIDs)
}

func TestCreateWave_DefaultsApply(t *testing.T) {
	f := newFixture(t)
	f.orderWithLines("SO-1", time.Now(), 3)

	res, err := f.svc.CreateWave(context.Background(), f.site, f.actor, model.WaveConfig{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.OrderCount)
}

func TestCreateWave_MissingConversionAborts(t *testing.T) {
	f := newFixture(t)
	o := f.order("SO-1", time.Now(), lineSpec{item: f.bolt, qty: 1, uom: "CASE"})

	_, err := f.svc.CreateWave(context.Background(), f.site, f.actor, model.WaveConfig{})
	require.ErrorIs(t, err, apperr.ErrConversionNotFound)
	assert.Equal(t, model.OrderStatusConfirmed, f.getOrder(t, o.ID).Status)
}

// ========================================
// PICK LISTS
// ========================================

func TestGeneratePickList_FIFOWithShortage(t *testing.T) {
	f := newFixture(t)
	f.receive(t, f.bolt, f.a02, 30) // oldest
	f.receive(t, f.bolt, f.a01, 50)
	f.receive(t, f.bolt, f.dock, 500) // not a storage location

	first := f.order("SO-1", time.Now(), lineSpec{item: f.bolt, qty: 60})
	second := f.order("SO-2", time.Now(), lineSpec{item: f.bolt, qty: 40})

	list, err := f.svc.GeneratePickList(context.Background(), f.site, model.GeneratePickListRequest{
		OrderIDs: []uuid.UUID{second.ID, first.ID},
		Strategy: model.StrategyDiscrete,
	})
	require.NoError(t, err)

	require.Len(t, list.Items, 3)
	assert.Equal(t, "A-02", list.Items[0].LocationLabel)
	assert.Equal(t, "30", list.Items[0].Quantity.String())
	assert.Equal(t, "A-01", list.Items[1].LocationLabel)
	assert.Equal(t, "30", list.Items[1].Quantity.String())
	assert.Equal(t, second.ID, list.Items[2].OrderID)
	assert.Equal(t, "A-01", list.Items[2].LocationLabel)
	assert.Equal(t, "20", list.Items[2].Quantity.String())
	assert.Equal(t, []int{1, 2, 3}, []int{list.Items[0].Sequence, list.Items[1].Sequence, list.Items[2].Sequence})

	require.Len(t, list.Shortages, 1)
	s := list.Shortages[0]
	assert.Equal(t, second.Lines[0].ID, s.OrderLineID)
	assert.Equal(t, "40", s.Requested.String())
	assert.Equal(t, "20", s.Allocated.String())
	assert.Equal(t, "20", s.Short.String())
}

func TestGeneratePickList_ConvertsLineQuantity(t *testing.T) {
	f := newFixture(t)
	f.receive(t, f.cable, f.b01, 250)
	o := f.order("SO-1", time.Now(), lineSpec{item: f.cable, qty: 2, uom: "ROLL"})

	list, err := f.svc.GeneratePickList(context.Background(), f.site, model.GeneratePickListRequest{OrderIDs: []uuid.UUID{o.ID}})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "200", list.Items[0].Quantity.String())
	assert.Equal(t, model.StrategyWave, list.Strategy)
	assert.Empty(t, list.Shortages)
}

func TestGeneratePickList_UnknownOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GeneratePickList(context.Background(), f.site, model.GeneratePickListRequest{OrderIDs: []uuid.UUID{uuid.New()}})
	require.ErrorIs(t, err, apperr.ErrOrderNotFound)

	_, err = f.svc.GeneratePickList(context.Background(), f.site, model.GeneratePickListRequest{})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
}

// ========================================
// TASKS AND CONFIRMATION
// ========================================

// allocate stands in for a wave release.
func (f *fixture) allocate(t *testing.T, o model.SalesOrder) {
	t.Helper()
	require.NoError(t, f.store.WithinTx(context.Background(), func(ctx context.Context, uow storage.UnitOfWork) error {
		return uow.Orders().UpdateStatus(ctx, o.ID, model.OrderStatusAllocated, nil)
	}))
}

func (f *fixture) taskFor(t *testing.T, o model.SalesOrder, assignTo *uuid.UUID) *model.PickTask {
	t.Helper()
	if f.getOrder(t, o.ID).Status == model.OrderStatusConfirmed {
		f.allocate(t, o)
	}
	list, err := f.svc.GeneratePickList(context.Background(), f.site, model.GeneratePickListRequest{OrderIDs: []uuid.UUID{o.ID}})
	require.NoError(t, err)
	task, err := f.svc.CreatePickTask(context.Background(), f.site, model.CreatePickTaskRequest{
		SalesOrderID: o.ID,
		Items:        list.Items,
		AssignTo:     assignTo,
		Priority:     5,
	})
	require.NoError(t, err)
	return task
}

func TestCreatePickTask(t *testing.T) {
	f := newFixture(t)
	f.receive(t, f.bolt, f.a01, 10)
	f.receive(t, f.bolt, f.b01, 10)
	o := f.order("SO-1", time.Now(), lineSpec{item: f.bolt, qty: 15})
	picker := uuid.New()

	task := f.taskFor(t, o, &picker)
	assert.Equal(t, model.TaskStatusAssigned, task.Status)
	require.NotNil(t, task.AssignedTo)
	assert.Equal(t, picker, *task.AssignedTo)
	require.Len(t, task.Lines, 2)
	assert.Equal(t, model.LineStatusPending, task.Lines[0].Status)
	assert.Equal(t, model.OrderStatusPicking, f.getOrder(t, o.ID).Status)

	stored, err := f.svc.GetPickTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.TaskNumber, stored.TaskNumber)
	assert.Equal(t, 1, stored.Lines[0].Sequence)

	_, err = f.svc.GetPickTask(context.Background(), uuid.New())
	require.ErrorIs(t, err, apperr.ErrPickTaskNotFound)
}

func TestCreatePickTask_RejectsForeignLines(t *testing.T) {
	f := newFixture(t)
	o := f.order("SO-1", time.Now(), lineSpec{item: f.bolt, qty: 1})
	f.allocate(t, o)

	_, err := f.svc.CreatePickTask(context.Background(), f.site, model.CreatePickTaskRequest{
		SalesOrderID: o.ID,
		Items:        []model.PickItem{{OrderLineID: uuid.New(), ItemID: f.bolt.ID, LocationID: f.a01.ID, Quantity: decimal.NewFromInt(1)}},
	})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.Equal(t, model.OrderStatusAllocated, f.getOrder(t, o.ID).Status)
}

func TestCreatePickTask_RequiresReleasedOrder(t *testing.T) {
	f := newFixture(t)
	o := f.order("SO-1", time.Now(), lineSpec{item: f.bolt, qty: 1})
	req := model.CreatePickTaskRequest{
		SalesOrderID: o.ID,
		Items:        []model.PickItem{{OrderLineID: o.Lines[0].ID, ItemID: f.bolt.ID, LocationID: f.a01.ID, Quantity: decimal.NewFromInt(1)}},
	}

	_, err := f.svc.CreatePickTask(context.Background(), f.site, req)
	require.ErrorIs(t, err, apperr.ErrOrderNotPickable)
	assert.Equal(t, model.OrderStatusConfirmed, f.getOrder(t, o.ID).Status)

	require.NoError(t, f.store.WithinTx(context.Background(), func(ctx context.Context, uow storage.UnitOfWork) error {
		return uow.Orders().UpdateStatus(ctx, o.ID, model.OrderStatusPicked, nil)
	}))
	_, err = f.svc.CreatePickTask(context.Background(), f.site, req)
	require.ErrorIs(t, err, apperr.ErrOrderNotPickable)
	assert.Equal(t, model.OrderStatusPicked, f.getOrder(t, o.ID).Status)
}

func TestConfirmPick_FullThenShortCompletesTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receive(t, f.bolt, f.a01, 10)
	f.receive(t, f.bolt, f.b01, 10)
	o := f.order("SO-1", time.Now(), lineSpec{item: f.bolt, qty: 15})
	task := f.taskFor(t, o, nil)
	assert.Equal(t, model.TaskStatusPending, task.Status)

	first, second := task.Lines[0], task.Lines[1]
	res, err := f.svc.ConfirmPick(ctx, first.ID, f.actor, model.ConfirmPickRequest{QtyPicked: first.QtyToPick})
	require.NoError(t, err)
	assert.Equal(t, model.LineStatusPicked, res.Line.Status)
	assert.Empty(t, res.Warning)
	assert.Equal(t, model.TaskStatusPending, res.TaskStatus)
	require.NotNil(t, res.LedgerEntryID)

	res, err = f.svc.ConfirmPick(ctx, second.ID, f.actor, model.ConfirmPickRequest{QtyPicked: decimal.NewFromInt(2), LotNumber: "L-9"})
	require.NoError(t, err)
	assert.Equal(t, model.LineStatusShort, res.Line.Status)
	assert.Equal(t, model.WarningShortPick, res.Warning)
	assert.Equal(t, model.TaskStatusCompleted, res.TaskStatus)
	require.NotNil(t, res.Line.LotNumber)
	assert.Equal(t, "L-9", *res.Line.LotNumber)

	stored, err := f.svc.GetPickTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusCompleted, stored.Status)
	assert.NotNil(t, stored.CompletedAt)

	order := f.getOrder(t, o.ID)
	assert.Equal(t, model.OrderStatusPicked, order.Status)
	assert.Equal(t, "12", order.Lines[0].QtyPicked.String())

	// FIFO took A-01 first (10), then B-01 (5 planned, 2 picked)
	assert.Equal(t, "0", f.balance(t, f.bolt, f.a01))
	assert.Equal(t, "8", f.balance(t, f.bolt, f.b01))

	_, err = f.svc.ConfirmPick(ctx, second.ID, f.actor, model.ConfirmPickRequest{QtyPicked: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, apperr.ErrPickLineClosed)
}

func TestConfirmPick_ZeroPostsNothing(t *testing.T) {
	f := newFixture(t)
	f.receive(t, f.bolt, f.a01, 10)
	o := f.order("SO-1", time.Now(), lineSpec{item: f.bolt, qty: 4})
	task := f.taskFor(t, o, nil)

	res, err := f.svc.ConfirmPick(context.Background(), task.Lines[0].ID, f.actor, model.ConfirmPickRequest{QtyPicked: decimal.Zero})
	require.NoError(t, err)
	assert.Equal(t, model.LineStatusShort, res.Line.Status)
	assert.Nil(t, res.LedgerEntryID)
	assert.Equal(t, model.TaskStatusCompleted, res.TaskStatus)
	assert.Equal(t, "10", f.balance(t, f.bolt, f.a01))
}

func TestConfirmPick_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receive(t, f.bolt, f.a01, 10)
	o := f.order("SO-1", time.Now(), lineSpec{item: f.bolt, qty: 4})
	task := f.taskFor(t, o, nil)
	line := task.Lines[0]

	_, err := f.svc.ConfirmPick(ctx, line.ID, f.actor, model.ConfirmPickRequest{QtyPicked: decimal.NewFromInt(5)})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = f.svc.ConfirmPick(ctx, line.ID, f.actor, model.ConfirmPickRequest{QtyPicked: decimal.NewFromInt(-1)})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = f.svc.ConfirmPick(ctx, uuid.New(), f.actor, model.ConfirmPickRequest{QtyPicked: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, apperr.ErrPickLineNotFound)

	// picking from an empty location fails and leaves the line open
	_, err = f.svc.ConfirmPick(ctx, line.ID, f.actor, model.ConfirmPickRequest{QtyPicked: decimal.NewFromInt(4), ActualLocationID: &f.a02.ID})
	require.ErrorIs(t, err, apperr.ErrInsufficientStock)

	stored, err := f.svc.GetPickTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LineStatusPending, stored.Lines[0].Status)
	assert.Equal(t, "0", f.getOrder(t, o.ID).Lines[0].QtyPicked.String())
}

func TestConfirmPick_OrderPickedAfterLastTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receive(t, f.bolt, f.a01, 10)
	f.receive(t, f.cable, f.b01, 500)
	o := f.order("SO-1", time.Now(), lineSpec{item: f.bolt, qty: 4}, lineSpec{item: f.cable, qty: 200})
	f.allocate(t, o)

	taskOf := func(line model.SalesOrderLine, loc catalogModel.Location) *model.PickTask {
		task, err := f.svc.CreatePickTask(ctx, f.site, model.CreatePickTaskRequest{
			SalesOrderID: o.ID,
			Items:        []model.PickItem{{OrderLineID: line.ID, ItemID: line.ItemID, LocationID: loc.ID, Quantity: line.Quantity}},
		})
		require.NoError(t, err)
		return task
	}
	bolts := taskOf(o.Lines[0], f.a01)
	cable := taskOf(o.Lines[1], f.b01)

	res, err := f.svc.ConfirmPick(ctx, bolts.Lines[0].ID, f.actor, model.ConfirmPickRequest{QtyPicked: decimal.NewFromInt(4)})
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusCompleted, res.TaskStatus)
	assert.Equal(t, model.OrderStatusPicking, f.getOrder(t, o.ID).Status)

	res, err = f.svc.ConfirmPick(ctx, cable.Lines[0].ID, f.actor, model.ConfirmPickRequest{QtyPicked: decimal.NewFromInt(200)})
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusCompleted, res.TaskStatus)

	order := f.getOrder(t, o.ID)
	assert.Equal(t, model.OrderStatusPicked, order.Status)
	assert.Equal(t, "4", order.Lines[0].QtyPicked.String())
	assert.Equal(t, "200", order.Lines[1].QtyPicked.String())

	_, err = f.svc.CreatePickTask(ctx, f.site, model.CreatePickTaskRequest{
		SalesOrderID: o.ID,
		Items:        []model.PickItem{{OrderLineID: o.Lines[0].ID, ItemID: f.bolt.ID, LocationID: f.a01.ID, Quantity: decimal.NewFromInt(1)}},
	})
	require.ErrorIs(t, err, apperr.ErrOrderNotPickable)
	assert.Equal(t, model.OrderStatusPicked, f.getOrder(t, o.ID).Status)
}

func TestConfirmPick_UnplannedLineKeepsOrderOpen(t *testing.T) {
	f := newFixture(t)
	f.receive(t, f.bolt, f.a01, 10)
	o := f.order("SO-1", time.Now(), lineSpec{item: f.bolt, qty: 2}, lineSpec{item: f.cable, qty: 100})
	f.allocate(t, o)

	task, err := f.svc.CreatePickTask(context.Background(), f.site, model.CreatePickTaskRequest{
		SalesOrderID: o.ID,
		Items:        []model.PickItem{{OrderLineID: o.Lines[0].ID, ItemID: f.bolt.ID, LocationID: f.a01.ID, Quantity: decimal.NewFromInt(2)}},
	})
	require.NoError(t, err)

	res, err := f.svc.ConfirmPick(context.Background(), task.Lines[0].ID, f.actor, model.ConfirmPickRequest{QtyPicked: decimal.NewFromInt(2)})
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusCompleted, res.TaskStatus)
	assert.Equal(t, model.OrderStatusPicking, f.getOrder(t, o.ID).Status)
}

func TestConfirmPick_KeyTakenByOtherMovement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receive(t, f.bolt, f.a01, 100)
	o := f.order("SO-1", time.Now(), lineSpec{item: f.bolt, qty: 10})
	task := f.taskFor(t, o, nil)
	line := task.Lines[0]

	// a RECEIVE of another item already owns the line's key
	_, err := f.ledger.Apply(ctx, ledgerModel.Receive{
		Header: ledgerModel.Header{
			ItemID: f.cable.ID, Quantity: decimal.NewFromInt(10), UOM: "FT", ActorID: f.actor,
			IdempotencyKey: ledgerModel.PickKey(line.ID),
		},
		ToLocationID: f.a01.ID,
	})
	require.NoError(t, err)

	_, err = f.svc.ConfirmPick(ctx, line.ID, f.actor, model.ConfirmPickRequest{QtyPicked: decimal.NewFromInt(10)})
	require.ErrorIs(t, err, apperr.ErrIdempotencyKeyReused)

	stored, err := f.svc.GetPickTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LineStatusPending, stored.Lines[0].Status)
	assert.Equal(t, "100", f.balance(t, f.bolt, f.a01))
	assert.Equal(t, "0", f.getOrder(t, o.ID).Lines[0].QtyPicked.String())
	assert.Equal(t, model.OrderStatusPicking, f.getOrder(t, o.ID).Status)
}

func TestConfirmPick_ActualLocationMustBeLocalStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receive(t, f.bolt, f.a01, 10)
	f.receive(t, f.bolt, f.dock, 10)
	elsewhere := catalogModel.Location{ID: uuid.New(), SiteID: uuid.New(), Label: "X-01", Zone: "X", Bin: "01", Type: catalogModel.LocationTypeStock}
	f.catalog.AddLocation(elsewhere)
	f.receive(t, f.bolt, elsewhere, 10)

	o := f.order("SO-1", time.Now(), lineSpec{item: f.bolt, qty: 4})
	task := f.taskFor(t, o, nil)
	line := task.Lines[0]

	for _, loc := range []catalogModel.Location{f.dock, elsewhere} {
		_, err := f.svc.ConfirmPick(ctx, line.ID, f.actor, model.ConfirmPickRequest{QtyPicked: decimal.NewFromInt(4), ActualLocationID: &loc.ID})
		require.ErrorIs(t, err, apperr.ErrInvalidInput, loc.Label)
		assert.Equal(t, "10", f.balance(t, f.bolt, loc), loc.Label)
	}

	unknown := uuid.New()
	_, err := f.svc.ConfirmPick(ctx, line.ID, f.actor, model.ConfirmPickRequest{QtyPicked: decimal.NewFromInt(4), ActualLocationID: &unknown})
	require.ErrorIs(t, err, apperr.ErrLocationNotFound)

	res, err := f.svc.ConfirmPick(ctx, line.ID, f.actor, model.ConfirmPickRequest{QtyPicked: decimal.NewFromInt(4), ActualLocationID: &f.a01.ID})
	require.NoError(t, err)
	assert.Equal(t, model.LineStatusPicked, res.Line.Status)
	assert.Equal(t, "6", f.balance(t, f.bolt, f.a01))
}
