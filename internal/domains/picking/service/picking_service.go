package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	catalogModel "inventory-engine/internal/domains/catalog/model"
	catalogRepo "inventory-engine/internal/domains/catalog/repository"
	ledgerModel "inventory-engine/internal/domains/ledger/model"
	ledgerService "inventory-engine/internal/domains/ledger/service"
	"inventory-engine/internal/domains/picking/model"
	"inventory-engine/internal/domains/uom"
	"inventory-engine/internal/shared/apperr"
	"inventory-engine/internal/storage"
	"inventory-engine/pkg/logger"
)

// Defaults fill wave limits left at zero and the sequencing strategy.
type Defaults struct {
	Wave     model.WaveConfig
	Strategy model.Strategy
}

func DefaultDefaults() Defaults {
	return Defaults{
		Wave: model.WaveConfig{
			MaxOrders:   50,
			MaxLines:    200,
			MaxQuantity: decimal.NewFromInt(10000),
		},
		Strategy: model.StrategyWave,
	}
}

type PickingService struct {
	store    storage.Store
	catalog  catalogRepo.Repository
	resolver *uom.Resolver
	ledger   ledgerService.ServiceInterface
	defaults Defaults
	now      func() time.Time
}

type Option func(*PickingService)

func WithClock(now func() time.Time) Option {
	return func(s *PickingService) { s.now = now }
}

func NewService(
	store storage.Store,
	catalog catalogRepo.Repository,
	resolver *uom.Resolver,
	ledger ledgerService.ServiceInterface,
	defaults Defaults,
	opts ...Option,
) *PickingService {
	s := &PickingService{
		store:    store,
		catalog:  catalog,
		resolver: resolver,
		ledger:   ledger,
		defaults: defaults,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ========================================
// WAVES
// ========================================

func (s *PickingService) resolveConfig(cfg model.WaveConfig) model.WaveConfig {
	if cfg.MaxOrders <= 0 {
		cfg.MaxOrders = s.defaults.Wave.MaxOrders
	}
	if cfg.MaxLines <= 0 {
		cfg.MaxLines = s.defaults.Wave.MaxLines
	}
	if !cfg.MaxQuantity.IsPositive() {
		cfg.MaxQuantity = s.defaults.Wave.MaxQuantity
	}
	return cfg
}

func (s *PickingService) CreateWave(ctx context.Context, siteID, actorID uuid.UUID, cfg model.WaveConfig) (*model.WaveResult, error) {
	if siteID == uuid.Nil {
		return nil, apperr.Invalid("site_id is required", map[string]string{"site_id": "cannot be blank"})
	}
	cfg = s.resolveConfig(cfg)

	var result *model.WaveResult
	err := s.store.WithinTx(ctx, func(ctx context.Context, uow storage.UnitOfWork) error {
		orders, err := uow.Orders().ListEligibleForWave(ctx, siteID)
		if err != nil {
			return err
		}

		quantities, err := s.orderQuantities(ctx, orders)
		if err != nil {
			return err
		}

		res := &model.WaveResult{OrderIDs: []uuid.UUID{}, Quantity: decimal.Zero}
		for i, o := range orders {
			if res.OrderCount >= cfg.MaxOrders {
				break
			}
			lines := len(o.Lines)
			qty := quantities[i]
			if res.LineCount+lines > cfg.MaxLines || res.Quantity.Add(qty).GreaterThan(cfg.MaxQuantity) {
				logger.Debug("Wave: order skipped", map[string]interface{}{
					"order_id": o.ID,
					"lines":    lines,
					"quantity": qty.String(),
				})
				continue
			}
			res.OrderIDs = append(res.OrderIDs, o.ID)
			res.OrderCount++
			res.LineCount += lines
			res.Quantity = res.Quantity.Add(qty)
		}

		if res.OrderCount == 0 {
			result = res
			return nil
		}

		now := s.now()
		res.WaveID = uuid.New()
		res.WaveNumber = documentNumber("WV", now, res.WaveID)
		wave := &model.Wave{
			ID:         res.WaveID,
			WaveNumber: res.WaveNumber,
			SiteID:     siteID,
			Config:     cfg,
			OrderIDs:   res.OrderIDs,
			OrderCount: res.OrderCount,
			LineCount:  res.LineCount,
			Quantity:   res.Quantity,
			CreatedBy:  actorID,
			CreatedAt:  now,
		}
		if err := uow.Waves().Create(ctx, wave); err != nil {
			return err
		}
		for _, id := range res.OrderIDs {
			if err := uow.Orders().UpdateStatus(ctx, id, model.OrderStatusAllocated, &res.WaveID); err != nil {
				return err
			}
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("🌊 Wave created", map[string]interface{}{
		"site_id":     siteID,
		"wave_id":     result.WaveID,
		"order_count": result.OrderCount,
		"line_count":  result.LineCount,
		"quantity":    result.Quantity.String(),
	})
	return result, nil
}

// orderQuantities returns the base quantity of every order, index aligned.
func (s *PickingService) orderQuantities(ctx context.Context, orders []model.SalesOrder) ([]decimal.Decimal, error) {
	items, err := s.itemsOf(ctx, orders)
	if err != nil {
		return nil, err
	}
	out := make([]decimal.Decimal, len(orders))
	for i, o := range orders {
		total := decimal.Zero
		for _, l := range o.Lines {
			q, err := s.lineBase(ctx, items, l)
			if err != nil {
				return nil, err
			}
			total = total.Add(q)
		}
		out[i] = total
	}
	return out, nil
}

func (s *PickingService) itemsOf(ctx context.Context, orders []model.SalesOrder) (map[uuid.UUID]catalogModel.Item, error) {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, o := range orders {
		for _, l := range o.Lines {
			if _, ok := seen[l.ItemID]; !ok {
				seen[l.ItemID] = struct{}{}
				ids = append(ids, l.ItemID)
			}
		}
	}
	items, err := s.catalog.GetItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := items[id]; !ok {
			return nil, apperr.ItemNotFound(id)
		}
	}
	return items, nil
}

func (s *PickingService) lineBase(ctx context.Context, items map[uuid.UUID]catalogModel.Item, l model.SalesOrderLine) (decimal.Decimal, error) {
	item, ok := items[l.ItemID]
	if !ok {
		return decimal.Zero, apperr.ItemNotFound(l.ItemID)
	}
	return s.resolver.ToBase(ctx, item, l.Quantity, l.UOM)
}

// ========================================
// PICK LISTS
// ========================================

func (s *PickingService) GeneratePickList(ctx context.Context, siteID uuid.UUID, req model.GeneratePickListRequest) (*model.PickList, error) {
	if err := req.Validate(); err != nil {
		return nil, apperr.FromValidation(err)
	}
	strategy := req.Strategy
	if strategy == "" {
		strategy = s.defaults.Strategy
	}

	reader := s.store.Reader()
	orders, err := s.loadOrders(ctx, reader, siteID, req.OrderIDs)
	if err != nil {
		return nil, err
	}
	items, err := s.itemsOf(ctx, orders)
	if err != nil {
		return nil, err
	}

	locations, err := s.catalog.ListLocationsBySite(ctx, siteID)
	if err != nil {
		return nil, err
	}
	stock := make(map[uuid.UUID]catalogModel.Location, len(locations))
	for _, loc := range locations {
		if loc.IsStorage() {
			stock[loc.ID] = loc
		}
	}

	alloc := newAllocator(reader, stock)
	list := &model.PickList{Strategy: strategy, Items: []model.PickItem{}, Shortages: []model.Shortage{}}

	for _, o := range orders {
		lines := append([]model.SalesOrderLine(nil), o.Lines...)
		sort.SliceStable(lines, func(i, j int) bool { return lines[i].LineNumber < lines[j].LineNumber })

		for _, l := range lines {
			requested, err := s.lineBase(ctx, items, l)
			if err != nil {
				return nil, err
			}
			outstanding := requested.Sub(l.QtyPicked)
			if !outstanding.IsPositive() {
				continue
			}

			picks, allocated, err := alloc.take(ctx, l.ItemID, outstanding)
			if err != nil {
				return nil, err
			}
			for _, p := range picks {
				list.Items = append(list.Items, model.PickItem{
					OrderID:       o.ID,
					OrderNumber:   o.OrderNumber,
					OrderLineID:   l.ID,
					ItemID:        l.ItemID,
					SKU:           items[l.ItemID].SKU,
					LocationID:    p.loc.ID,
					LocationLabel: p.loc.Label,
					Zone:          p.loc.Zone,
					Bin:           p.loc.Bin,
					Quantity:      p.qty,
				})
			}
			if allocated.LessThan(outstanding) {
				list.Shortages = append(list.Shortages, model.Shortage{
					OrderID:     o.ID,
					OrderLineID: l.ID,
					ItemID:      l.ItemID,
					Requested:   outstanding,
					Allocated:   allocated,
					Short:       outstanding.Sub(allocated),
				})
			}
		}
	}

	Sequence(list.Items, strategy)

	logger.Info("📋 Pick list generated", map[string]interface{}{
		"site_id":   siteID,
		"orders":    len(orders),
		"items":     len(list.Items),
		"shortages": len(list.Shortages),
		"strategy":  strategy,
	})
	return list, nil
}

func (s *PickingService) loadOrders(ctx context.Context, uow storage.UnitOfWork, siteID uuid.UUID, ids []uuid.UUID) ([]model.SalesOrder, error) {
	orders, err := uow.Orders().GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	found := make(map[uuid.UUID]bool, len(orders))
	for _, o := range orders {
		if o.SiteID != siteID {
			return nil, apperr.Invalid("order belongs to another site",
				map[string]string{"order_ids": o.ID.String() + " is not at site " + siteID.String()})
		}
		found[o.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return nil, apperr.OrderNotFound(id)
		}
	}
	return orders, nil
}

type allocation struct {
	loc catalogModel.Location
	qty decimal.Decimal
}

// allocator hands out balances FIFO and remembers what earlier lines took so
// a location is never allocated beyond its balance.
type allocator struct {
	reader storage.UnitOfWork
	stock  map[uuid.UUID]catalogModel.Location
	supply map[uuid.UUID][]*allocation
}

func newAllocator(reader storage.UnitOfWork, stock map[uuid.UUID]catalogModel.Location) *allocator {
	return &allocator{reader: reader, stock: stock, supply: make(map[uuid.UUID][]*allocation)}
}

func (a *allocator) take(ctx context.Context, itemID uuid.UUID, want decimal.Decimal) ([]allocation, decimal.Decimal, error) {
	supply, ok := a.supply[itemID]
	if !ok {
		rows, err := a.reader.Balances().ListByItem(ctx, itemID)
		if err != nil {
			return nil, decimal.Zero, err
		}
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].UpdatedAt.Before(rows[j].UpdatedAt) })
		for _, b := range rows {
			loc, ok := a.stock[b.LocationID]
			if !ok || !b.QtyBase.IsPositive() {
				continue
			}
			supply = append(supply, &allocation{loc: loc, qty: b.QtyBase})
		}
		a.supply[itemID] = supply
	}

	var out []allocation
	got := decimal.Zero
	for _, s := range supply {
		remaining := want.Sub(got)
		if !remaining.IsPositive() {
			break
		}
		if !s.qty.IsPositive() {
			continue
		}
		qty := decimal.Min(remaining, s.qty)
		s.qty = s.qty.Sub(qty)
		got = got.Add(qty)
		out = append(out, allocation{loc: s.loc, qty: qty})
	}
	return out, got, nil
}

// ========================================
// PICK TASKS
// ========================================

func (s *PickingService) CreatePickTask(ctx context.Context, siteID uuid.UUID, req model.CreatePickTaskRequest) (*model.PickTask, error) {
	if err := req.Validate(); err != nil {
		return nil, apperr.FromValidation(err)
	}

	var task *model.PickTask
	err := s.store.WithinTx(ctx, func(ctx context.Context, uow storage.UnitOfWork) error {
		order, err := uow.Orders().Get(ctx, req.SalesOrderID)
		if err != nil {
			return err
		}
		if order.SiteID != siteID {
			return apperr.Invalid("order belongs to another site", map[string]string{"sales_order_id": "not at site " + siteID.String()})
		}
		if !order.Status.AcceptsPickTasks() {
			return apperr.OrderNotPickable(order.ID, string(order.Status))
		}
		lineItems := make(map[uuid.UUID]uuid.UUID, len(order.Lines))
		for _, l := range order.Lines {
			lineItems[l.ID] = l.ItemID
		}

		now := s.now()
		t := &model.PickTask{
			ID:           uuid.New(),
			SiteID:       siteID,
			SalesOrderID: order.ID,
			Status:       model.TaskStatusPending,
			Priority:     req.Priority,
			CreatedAt:    now,
		}
		t.TaskNumber = documentNumber("PT", now, t.ID)
		if req.AssignTo != nil {
			assignee := *req.AssignTo
			t.AssignedTo = &assignee
			t.Status = model.TaskStatusAssigned
		}

		for i, it := range req.Items {
			itemID, ok := lineItems[it.OrderLineID]
			if !ok || itemID != it.ItemID {
				return apperr.Invalid("pick item does not match an order line",
					map[string]string{fmt.Sprintf("items[%d]", i): "unknown order line or item"})
			}
			if !it.Quantity.IsPositive() {
				return apperr.Invalid("pick quantity must be positive",
					map[string]string{fmt.Sprintf("items[%d].quantity", i): "must be greater than zero"})
			}
			seq := it.Sequence
			if seq <= 0 {
				seq = i + 1
			}
			t.Lines = append(t.Lines, model.PickTaskLine{
				ID:               uuid.New(),
				TaskID:           t.ID,
				SalesOrderLineID: it.OrderLineID,
				ItemID:           it.ItemID,
				SourceLocationID: it.LocationID,
				Sequence:         seq,
				QtyToPick:        it.Quantity,
				QtyPicked:        decimal.Zero,
				Status:           model.LineStatusPending,
			})
		}

		if err := uow.PickTasks().Create(ctx, t); err != nil {
			return err
		}
		if err := uow.Orders().UpdateStatus(ctx, order.ID, model.OrderStatusPicking, nil); err != nil {
			return err
		}
		task = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("✅ Pick task created", map[string]interface{}{
		"task_id":  task.ID,
		"order_id": task.SalesOrderID,
		"lines":    len(task.Lines),
		"status":   task.Status,
	})
	return task, nil
}

func (s *PickingService) GetPickTask(ctx context.Context, id uuid.UUID) (*model.PickTask, error) {
	return s.store.Reader().PickTasks().Get(ctx, id)
}

func (s *PickingService) ConfirmPick(ctx context.Context, lineID, actorID uuid.UUID, req model.ConfirmPickRequest) (*model.ConfirmResult, error) {
	if err := req.Validate(); err != nil {
		return nil, apperr.FromValidation(err)
	}
	if actorID == uuid.Nil {
		return nil, apperr.Invalid("actor is required", map[string]string{"actor_id": "cannot be blank"})
	}

	var (
		result *model.ConfirmResult
		entry  *ledgerModel.Entry
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, uow storage.UnitOfWork) error {
		entry = nil

		line, err := uow.PickTasks().GetLineForUpdate(ctx, lineID)
		if err != nil {
			return err
		}
		if line.Status.IsTerminal() {
			return apperr.PickLineClosed(lineID, string(line.Status))
		}
		if req.QtyPicked.GreaterThan(line.QtyToPick) {
			return apperr.Invalid("picked quantity exceeds planned quantity", map[string]string{
				"qty_picked": "must not exceed " + line.QtyToPick.String(),
			})
		}

		from := line.SourceLocationID
		if req.ActualLocationID != nil && *req.ActualLocationID != from {
			if err := s.checkPickLocation(ctx, uow, line.TaskID, *req.ActualLocationID); err != nil {
				return err
			}
			from = *req.ActualLocationID
		}

		if req.QtyPicked.IsPositive() {
			entry, err = s.ledger.ApplyInTx(ctx, uow, ledgerModel.Issue{
				Header: ledgerModel.Header{
					ItemID:         line.ItemID,
					Quantity:       req.QtyPicked,
					ActorID:        actorID,
					IdempotencyKey: ledgerModel.PickKey(line.ID),
					LotNumber:      req.LotNumber,
					Reference:      "pick-task:" + line.TaskID.String(),
				},
				FromLocationID: from,
			})
			if err != nil {
				return err
			}
			if err := uow.Orders().AddPicked(ctx, line.SalesOrderLineID, req.QtyPicked); err != nil {
				return err
			}
		}

		now := s.now()
		actor := actorID
		line.QtyPicked = req.QtyPicked
		line.ActualLocationID = &from
		line.PickedBy = &actor
		line.PickedAt = &now
		if lot := strings.TrimSpace(req.LotNumber); lot != "" {
			line.LotNumber = &lot
		}
		res := &model.ConfirmResult{}
		if req.QtyPicked.LessThan(line.QtyToPick) {
			line.Status = model.LineStatusShort
			res.Warning = model.WarningShortPick
		} else {
			line.Status = model.LineStatusPicked
		}
		if err := uow.PickTasks().UpdateLine(ctx, line); err != nil {
			return err
		}

		task, err := uow.PickTasks().Get(ctx, line.TaskID)
		if err != nil {
			return err
		}
		res.TaskStatus = task.Status
		if task.AllLinesTerminal() {
			if err := uow.PickTasks().UpdateStatus(ctx, task.ID, model.TaskStatusCompleted, &now); err != nil {
				return err
			}
			res.TaskStatus = model.TaskStatusCompleted

			// The order is PICKED once every one of its lines has been
			// planned and every task line is terminal.
			order, err := uow.Orders().Get(ctx, task.SalesOrderID)
			if err != nil {
				return err
			}
			orderLines, err := uow.PickTasks().ListLinesByOrder(ctx, order.ID)
			if err != nil {
				return err
			}
			if order.FullyPicked(orderLines) {
				if err := uow.Orders().UpdateStatus(ctx, order.ID, model.OrderStatusPicked, nil); err != nil {
					return err
				}
			}
		}

		res.Line = *line
		if entry != nil {
			id := entry.ID
			res.LedgerEntryID = &id
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	if entry != nil {
		s.ledger.AfterCommit(ctx, *entry)
	}

	fields := map[string]interface{}{
		"line_id":     lineID,
		"qty_picked":  req.QtyPicked.String(),
		"status":      result.Line.Status,
		"task_status": result.TaskStatus,
	}
	if result.Warning != "" {
		logger.Warn("⚠️ Short pick confirmed", fields)
	} else {
		logger.Info("✅ Pick confirmed", fields)
	}
	return result, nil
}

// documentNumber builds PREFIX-YYYYMMDD-XXXXXXXX from the id.
func documentNumber(prefix string, at time.Time, id uuid.UUID) string {
	return fmt.Sprintf("%s-%s-%s", prefix, at.Format("20060102"), strings.ToUpper(id.String()[:8]))
}

// checkPickLocation accepts an actual pick location only when it is a STOCK
// location at the task's site.
func (s *PickingService) checkPickLocation(ctx context.Context, uow storage.UnitOfWork, taskID, locationID uuid.UUID) error {
	task, err := uow.PickTasks().Get(ctx, taskID)
	if err != nil {
		return err
	}
	loc, err := s.catalog.GetLocation(ctx, locationID)
	if err != nil {
		return err
	}
	if loc.SiteID != task.SiteID {
		return apperr.Invalid("actual location belongs to another site",
			map[string]string{"actual_location_id": "not at site " + task.SiteID.String()})
	}
	if !loc.IsStorage() {
		return apperr.Invalid("actual location is not a storage location",
			map[string]string{"actual_location_id": "must be a STOCK location"})
	}
	return nil
}
