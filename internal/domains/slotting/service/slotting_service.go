package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	catalogModel "inventory-engine/internal/domains/catalog/model"
	catalogRepo "inventory-engine/internal/domains/catalog/repository"
	"inventory-engine/internal/domains/slotting/model"
	"inventory-engine/internal/shared/apperr"
	"inventory-engine/internal/storage"
	"inventory-engine/pkg/logger"
)

type Settings struct {
	WindowDays    int
	DefaultPolicy string
	Threshold     ThresholdPolicy
	Percentile    PercentilePolicy
	// VelocityZones maps a class to the zone it belongs in.
	VelocityZones map[string]string
}

// DefaultSettings uses the threshold policy: movement counts are comparable
// across sites and runs, percentile bands are not.
func DefaultSettings() Settings {
	return Settings{
		WindowDays:    30,
		DefaultPolicy: PolicyThreshold,
		Threshold:     ThresholdPolicy{A: 50, B: 20},
		Percentile:    PercentilePolicy{A: decimal.RequireFromString("0.20"), B: decimal.RequireFromString("0.30")},
		VelocityZones: map[string]string{"A": "A", "B": "B", "C": "C"},
	}
}

type SlottingService struct {
	catalog   catalogRepo.Repository
	store     storage.Store
	movements MovementSource
	settings  Settings
	now       func() time.Time
}

type Option func(*SlottingService)

func WithClock(now func() time.Time) Option {
	return func(s *SlottingService) { s.now = now }
}

func NewService(catalog catalogRepo.Repository, store storage.Store, movements MovementSource, settings Settings, opts ...Option) *SlottingService {
	if settings.WindowDays <= 0 {
		settings.WindowDays = 30
	}
	if settings.DefaultPolicy == "" {
		settings.DefaultPolicy = PolicyThreshold
	}
	s := &SlottingService{
		catalog:   catalog,
		store:     store,
		movements: movements,
		settings:  settings,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PolicyFor resolves a policy name.
func (s *SlottingService) PolicyFor(name string) (Policy, error) {
	if name == "" {
		name = s.settings.DefaultPolicy
	}
	switch name {
	case PolicyThreshold:
		return s.settings.Threshold, nil
	case PolicyPercentile:
		return s.settings.Percentile, nil
	}
	return nil, apperr.Invalid("unknown ABC policy", map[string]string{"policy": "must be threshold or percentile"})
}

type holding struct {
	loc catalogModel.Location
	qty decimal.Decimal
}

// siteView is everything one analysis run reads.
type siteView struct {
	abc       *model.ABCClassification
	stock     []catalogModel.Location
	occupancy map[uuid.UUID]decimal.Decimal
	holdings  map[uuid.UUID][]holding
}

func (s *SlottingService) load(ctx context.Context, siteID uuid.UUID, policyName string) (*siteView, error) {
	if siteID == uuid.Nil {
		return nil, apperr.Invalid("site_id is required", map[string]string{"site_id": "cannot be blank"})
	}
	policy, err := s.PolicyFor(policyName)
	if err != nil {
		return nil, err
	}

	locations, err := s.catalog.ListLocationsBySite(ctx, siteID)
	if err != nil {
		return nil, err
	}
	all := make([]uuid.UUID, 0, len(locations))
	stockByID := make(map[uuid.UUID]catalogModel.Location)
	var stockIDs []uuid.UUID
	v := &siteView{
		occupancy: make(map[uuid.UUID]decimal.Decimal),
		holdings:  make(map[uuid.UUID][]holding),
	}
	for _, loc := range locations {
		all = append(all, loc.ID)
		if loc.IsStorage() {
			v.stock = append(v.stock, loc)
			stockByID[loc.ID] = loc
			stockIDs = append(stockIDs, loc.ID)
		}
	}

	now := s.now()
	since := now.AddDate(0, 0, -s.settings.WindowDays)
	counts := map[uuid.UUID]int{}
	if len(all) > 0 {
		if counts, err = s.movements.CountMovements(ctx, all, since); err != nil {
			return nil, err
		}
	}

	if len(stockIDs) > 0 {
		rows, err := s.store.Reader().Balances().ListByLocations(ctx, stockIDs)
		if err != nil {
			return nil, err
		}
		for _, b := range rows {
			if !b.QtyBase.IsPositive() {
				continue
			}
			v.occupancy[b.LocationID] = v.occupancy[b.LocationID].Add(b.QtyBase)
			v.holdings[b.ItemID] = append(v.holdings[b.ItemID], holding{loc: stockByID[b.LocationID], qty: b.QtyBase})
		}
	}

	ids := make([]uuid.UUID, 0, len(counts)+len(v.holdings))
	seen := make(map[uuid.UUID]bool)
	for id := range counts {
		ids = append(ids, id)
		seen[id] = true
	}
	for id := range v.holdings {
		if !seen[id] {
			ids = append(ids, id)
		}
	}
	items, err := s.catalog.GetItems(ctx, ids)
	if err != nil {
		return nil, err
	}

	velocity := make([]model.ItemVelocity, 0, len(items))
	for id, it := range items {
		velocity = append(velocity, model.ItemVelocity{ItemID: id, SKU: it.SKU, Category: it.Category, Movements: counts[id]})
	}
	sortByVelocity(velocity)
	policy.Classify(velocity)

	v.abc = &model.ABCClassification{
		SiteID:      siteID,
		Policy:      policy.Name(),
		WindowDays:  s.settings.WindowDays,
		Since:       since,
		Items:       velocity,
		ClassCounts: map[model.Class]int{model.ClassA: 0, model.ClassB: 0, model.ClassC: 0},
		GeneratedAt: now,
	}
	for _, it := range velocity {
		v.abc.ClassCounts[it.Class]++
	}

	for id := range v.holdings {
		h := v.holdings[id]
		sort.SliceStable(h, func(i, j int) bool {
			if c := h[i].qty.Cmp(h[j].qty); c != 0 {
				return c > 0
			}
			return h[i].loc.Label < h[j].loc.Label
		})
	}
	return v, nil
}

func (s *SlottingService) PerformABCAnalysis(ctx context.Context, siteID uuid.UUID, policy string) (*model.ABCClassification, error) {
	v, err := s.load(ctx, siteID, policy)
	if err != nil {
		return nil, err
	}
	logger.Info("📊 ABC analysis completed", map[string]interface{}{
		"site_id": siteID,
		"policy":  v.abc.Policy,
		"items":   len(v.abc.Items),
		"a":       v.abc.ClassCounts[model.ClassA],
		"b":       v.abc.ClassCounts[model.ClassB],
		"c":       v.abc.ClassCounts[model.ClassC],
	})
	return v.abc, nil
}

func (s *SlottingService) AnalyzeSlotting(ctx context.Context, siteID uuid.UUID, policy string) (*model.Metrics, error) {
	v, err := s.load(ctx, siteID, policy)
	if err != nil {
		return nil, err
	}

	m := &model.Metrics{
		SiteID:              siteID,
		Policy:              v.abc.Policy,
		WindowDays:          v.abc.WindowDays,
		ItemCount:           len(v.abc.Items),
		ClassCounts:         v.abc.ClassCounts,
		AvgLocationsPerItem: decimal.Zero,
		StockLocations:      len(v.stock),
		OccupiedLocations:   len(v.occupancy),
		LocationUtilization: decimal.Zero,
		GeneratedAt:         v.abc.GeneratedAt,
	}

	stocked, placements := 0, 0
	for _, it := range v.abc.Items {
		h := v.holdings[it.ItemID]
		if len(h) == 0 {
			continue
		}
		stocked++
		placements += len(h)
		if len(h) > 1 {
			m.FragmentedItems++
		}
		if zone, ok := s.expectedZone(it.Class); ok && h[0].loc.Zone != zone {
			m.MisplacedItems++
		}
	}
	if stocked > 0 {
		m.AvgLocationsPerItem = decimal.NewFromInt(int64(placements)).
			Div(decimal.NewFromInt(int64(stocked))).Round(2)
	}
	if len(v.stock) > 0 {
		m.LocationUtilization = decimal.NewFromInt(int64(len(v.occupancy))).
			Div(decimal.NewFromInt(int64(len(v.stock)))).Round(4)
	}
	return m, nil
}

func (s *SlottingService) expectedZone(c model.Class) (string, bool) {
	zone, ok := s.settings.VelocityZones[string(c)]
	return zone, ok && zone != ""
}

func (s *SlottingService) RecommendSlotting(ctx context.Context, siteID uuid.UUID, policy string) ([]model.Recommendation, error) {
	v, err := s.load(ctx, siteID, policy)
	if err != nil {
		return nil, err
	}

	recs := []model.Recommendation{}
	for _, it := range v.abc.Items {
		h := v.holdings[it.ItemID]
		if len(h) == 0 {
			continue
		}
		primary := h[0]

		if zone, ok := s.expectedZone(it.Class); ok && primary.loc.Zone != zone {
			rec := model.Recommendation{
				Type:           model.RecommendRelocate,
				Priority:       model.PriorityFor(it.Class),
				ItemID:         it.ItemID,
				SKU:            it.SKU,
				Class:          it.Class,
				FromLocationID: primary.loc.ID,
				FromLabel:      primary.loc.Label,
				Quantity:       primary.qty,
				CurrentZone:    primary.loc.Zone,
				TargetZone:     zone,
				Reason:         "class " + string(it.Class) + " item stored in zone " + primary.loc.Zone,
			}
			if target, ok := v.leastOccupied(zone); ok {
				id := target.ID
				rec.ToLocationID = &id
				rec.ToLabel = target.Label
			}
			recs = append(recs, rec)
		}

		for _, other := range h[1:] {
			id := primary.loc.ID
			recs = append(recs, model.Recommendation{
				Type:           model.RecommendConsolidate,
				Priority:       model.PriorityFor(it.Class),
				ItemID:         it.ItemID,
				SKU:            it.SKU,
				Class:          it.Class,
				FromLocationID: other.loc.ID,
				FromLabel:      other.loc.Label,
				ToLocationID:   &id,
				ToLabel:        primary.loc.Label,
				Quantity:       other.qty,
				CurrentZone:    other.loc.Zone,
				TargetZone:     primary.loc.Zone,
				Reason:         "item stored in multiple locations",
			})
		}
	}

	rank := map[model.Priority]int{model.PriorityHigh: 0, model.PriorityMedium: 1, model.PriorityLow: 2}
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Priority != recs[j].Priority {
			return rank[recs[i].Priority] < rank[recs[j].Priority]
		}
		if recs[i].SKU != recs[j].SKU {
			return recs[i].SKU < recs[j].SKU
		}
		return recs[i].Type == model.RecommendRelocate && recs[j].Type != model.RecommendRelocate
	})

	logger.Info("📦 Slotting recommendations generated", map[string]interface{}{
		"site_id": siteID,
		"count":   len(recs),
	})
	return recs, nil
}

// leastOccupied returns the STOCK location of zone with the smallest
// occupancy, ties by label.
func (v *siteView) leastOccupied(zone string) (catalogModel.Location, bool) {
	var (
		best  catalogModel.Location
		bestQ decimal.Decimal
		found bool
	)
	for _, loc := range v.stock {
		if loc.Zone != zone {
			continue
		}
		q := v.occupancy[loc.ID]
		if !found || q.LessThan(bestQ) || (q.Equal(bestQ) && loc.Label < best.Label) {
			best, bestQ, found = loc, q, true
		}
	}
	return best, found
}
