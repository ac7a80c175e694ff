package service

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	catalogModel "inventory-engine/internal/domains/catalog/model"
	catalogRepo "inventory-engine/internal/domains/catalog/repository"
	ledgerModel "inventory-engine/internal/domains/ledger/model"
	ledgerService "inventory-engine/internal/domains/ledger/service"
	"inventory-engine/internal/domains/putaway/model"
	"inventory-engine/internal/domains/uom"
	"inventory-engine/internal/shared/apperr"
	"inventory-engine/internal/storage"
	"inventory-engine/pkg/logger"
)

const maxAlternatives = 3

type PutawayService struct {
	store    storage.Store
	catalog  catalogRepo.Repository
	resolver *uom.Resolver
	ledger   ledgerService.ServiceInterface
	velocity VelocitySource
	settings Settings

	rngMu sync.Mutex
	rng   *rand.Rand
}

type Option func(*PutawayService)

// WithRand fixes the source used by the RANDOM strategy.
func WithRand(rng *rand.Rand) Option {
	return func(s *PutawayService) { s.rng = rng }
}

// WithVelocitySource enables cached ABC classes for VELOCITY.
func WithVelocitySource(v VelocitySource) Option {
	return func(s *PutawayService) { s.velocity = v }
}

func NewService(
	store storage.Store,
	catalog catalogRepo.Repository,
	resolver *uom.Resolver,
	ledger ledgerService.ServiceInterface,
	settings Settings,
	opts ...Option,
) *PutawayService {
	if settings.DefaultStrategy == "" {
		settings.DefaultStrategy = model.StrategyDirected
	}
	s := &PutawayService{
		store:    store,
		catalog:  catalog,
		resolver: resolver,
		ledger:   ledger,
		settings: settings,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s
}

// slot is a storage location with its current contents.
type slot struct {
	loc       catalogModel.Location
	occupancy decimal.Decimal
	itemQty   decimal.Decimal
}

func (s slot) holds() bool { return s.itemQty.IsPositive() }

// ========================================
// SUGGEST
// ========================================

func (s *PutawayService) Suggest(ctx context.Context, req model.SuggestRequest) (*model.Suggestion, error) {
	if err := req.Validate(); err != nil {
		return nil, apperr.FromValidation(err)
	}
	strategy := req.Strategy
	if strategy == "" {
		strategy = s.settings.DefaultStrategy
	}

	item, err := s.catalog.GetItem(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	qtyBase, err := s.resolver.ToBase(ctx, *item, req.Quantity, req.UOM)
	if err != nil {
		return nil, err
	}

	slots, err := s.loadSlots(ctx, req.SiteID, item.ID)
	if err != nil {
		return nil, err
	}

	var ranked []model.Candidate
	switch strategy {
	case model.StrategyConsolidate:
		ranked = s.consolidate(slots)
	case model.StrategyVelocity:
		ranked = s.byVelocity(ctx, req.SiteID, *item, slots)
	case model.StrategyZone:
		ranked = s.byZone(*item, slots)
	case model.StrategyRandom:
		ranked = s.random(slots)
	default:
		ranked = s.directed(*item, slots)
	}

	if len(ranked) == 0 {
		return nil, apperr.NoCandidateLocation(item.ID, string(strategy))
	}

	out := &model.Suggestion{
		ItemID:       item.ID,
		SiteID:       req.SiteID,
		Strategy:     strategy,
		QuantityBase: qtyBase,
		LotNumber:    req.LotNumber,
		Suggested:    ranked[0],
		Alternatives: []model.Candidate{},
	}
	for i := 1; i < len(ranked) && len(out.Alternatives) < maxAlternatives; i++ {
		out.Alternatives = append(out.Alternatives, ranked[i])
	}

	logger.Debug("Putaway suggested", map[string]interface{}{
		"item_id":  item.ID,
		"site_id":  req.SiteID,
		"strategy": strategy,
		"location": out.Suggested.Label,
	})
	return out, nil
}

// loadSlots returns the STOCK locations of the site with their occupancy and
// the quantity of itemID they hold, ordered by label.
func (s *PutawayService) loadSlots(ctx context.Context, siteID, itemID uuid.UUID) ([]slot, error) {
	locations, err := s.catalog.ListLocationsBySite(ctx, siteID)
	if err != nil {
		return nil, err
	}

	slots := make([]slot, 0, len(locations))
	index := make(map[uuid.UUID]int, len(locations))
	ids := make([]uuid.UUID, 0, len(locations))
	for _, loc := range locations {
		if !loc.IsStorage() {
			continue
		}
		index[loc.ID] = len(slots)
		ids = append(ids, loc.ID)
		slots = append(slots, slot{loc: loc, occupancy: decimal.Zero, itemQty: decimal.Zero})
	}
	if len(ids) == 0 {
		return slots, nil
	}

	rows, err := s.store.Reader().Balances().ListByLocations(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, b := range rows {
		i, ok := index[b.LocationID]
		if !ok {
			continue
		}
		slots[i].occupancy = slots[i].occupancy.Add(b.QtyBase)
		if b.ItemID == itemID {
			slots[i].itemQty = slots[i].itemQty.Add(b.QtyBase)
		}
	}
	return slots, nil
}

// consolidate prefers the location already holding the most of the item,
// then the least occupied locations.
func (s *PutawayService) consolidate(slots []slot) []model.Candidate {
	var holders, others []slot
	for _, sl := range slots {
		if sl.holds() {
			holders = append(holders, sl)
		} else {
			others = append(others, sl)
		}
	}
	sort.SliceStable(holders, func(i, j int) bool {
		if c := holders[i].itemQty.Cmp(holders[j].itemQty); c != 0 {
			return c > 0
		}
		return holders[i].loc.Label < holders[j].loc.Label
	})
	sort.SliceStable(others, func(i, j int) bool {
		if c := others[i].occupancy.Cmp(others[j].occupancy); c != 0 {
			return c < 0
		}
		return others[i].loc.Label < others[j].loc.Label
	})

	out := make([]model.Candidate, 0, len(slots))
	for _, sl := range holders {
		out = append(out, candidate(sl, "already holds item"))
	}
	for _, sl := range others {
		reason := "least occupied"
		if sl.occupancy.IsZero() {
			reason = "empty location"
		}
		out = append(out, candidate(sl, reason))
	}
	return out
}

// byVelocity targets the zone of the item's velocity class, falling back to
// the category zone table and then the default zone.
func (s *PutawayService) byVelocity(ctx context.Context, siteID uuid.UUID, item catalogModel.Item, slots []slot) []model.Candidate {
	zone, reason := s.velocityZone(ctx, siteID, item)

	var inZone, rest []slot
	for _, sl := range slots {
		if sl.loc.Zone == zone {
			inZone = append(inZone, sl)
		} else {
			rest = append(rest, sl)
		}
	}
	byZoneBin := func(list []slot) {
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].loc.Zone != list[j].loc.Zone {
				return list[i].loc.Zone < list[j].loc.Zone
			}
			if list[i].loc.Bin != list[j].loc.Bin {
				return list[i].loc.Bin < list[j].loc.Bin
			}
			return list[i].loc.Label < list[j].loc.Label
		})
	}
	byZoneBin(inZone)
	byZoneBin(rest)

	out := make([]model.Candidate, 0, len(slots))
	for _, sl := range inZone {
		out = append(out, candidate(sl, reason))
	}
	for _, sl := range rest {
		out = append(out, candidate(sl, "outside target zone "+zone))
	}
	return out
}

func (s *PutawayService) velocityZone(ctx context.Context, siteID uuid.UUID, item catalogModel.Item) (zone, reason string) {
	if s.velocity != nil {
		class, ok, err := s.velocity.VelocityClass(ctx, siteID, item.ID)
		if err != nil {
			// A cache outage degrades to the category table.
			logger.Warn("Putaway: velocity lookup failed", map[string]interface{}{
				"item_id": item.ID,
				"error":   err.Error(),
			})
		} else if ok {
			if z, found := s.settings.VelocityZones[class]; found {
				return z, "velocity class " + class
			}
		}
	}
	if z, ok := s.settings.CategoryZones[item.Category]; ok {
		return z, "category " + item.Category
	}
	return s.settings.DefaultZone, "default zone"
}

// byZone restricts candidates to the zone named by the item category.
func (s *PutawayService) byZone(item catalogModel.Item, slots []slot) []model.Candidate {
	var matches []slot
	for _, sl := range slots {
		if item.Category != "" && sl.loc.Zone == item.Category {
			matches = append(matches, sl)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].loc.Bin != matches[j].loc.Bin {
			return matches[i].loc.Bin < matches[j].loc.Bin
		}
		return matches[i].loc.Label < matches[j].loc.Label
	})

	out := make([]model.Candidate, 0, len(matches))
	for _, sl := range matches {
		out = append(out, candidate(sl, "zone matches category"))
	}
	return out
}

// random picks uniformly among empty locations.
func (s *PutawayService) random(slots []slot) []model.Candidate {
	var empty []slot
	for _, sl := range slots {
		if sl.occupancy.IsZero() {
			empty = append(empty, sl)
		}
	}

	s.rngMu.Lock()
	s.rng.Shuffle(len(empty), func(i, j int) { empty[i], empty[j] = empty[j], empty[i] })
	s.rngMu.Unlock()

	out := make([]model.Candidate, 0, len(empty))
	for _, sl := range empty {
		out = append(out, candidate(sl, "random empty location"))
	}
	return out
}

// directed scores every location and ranks by score, ties by label.
func (s *PutawayService) directed(item catalogModel.Item, slots []slot) []model.Candidate {
	w := s.settings.Weights
	target := item.Category
	if z, ok := s.settings.CategoryZones[item.Category]; ok {
		target = z
	}

	out := make([]model.Candidate, 0, len(slots))
	for _, sl := range slots {
		score := w.Base
		if sl.holds() {
			score = score.Add(w.HoldsItem)
		}
		if target != "" && sl.loc.Zone == target {
			score = score.Add(w.ZoneMatch)
		}
		score = score.
			Sub(w.QtyPenalty.Mul(sl.occupancy)).
			Sub(w.BinPenalty.Mul(decimal.NewFromInt(int64(sl.loc.BinNumber()))))

		c := candidate(sl, "directed score")
		c.Score = &score
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Score.Cmp(*out[j].Score); c != 0 {
			return c > 0
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func candidate(sl slot, reason string) model.Candidate {
	return model.Candidate{
		LocationID: sl.loc.ID,
		Label:      sl.loc.Label,
		Zone:       sl.loc.Zone,
		Bin:        sl.loc.Bin,
		CurrentQty: sl.occupancy,
		HoldsItem:  sl.holds(),
		Reason:     reason,
	}
}

// ========================================
// EXECUTE
// ========================================

func (s *PutawayService) Execute(ctx context.Context, actorID uuid.UUID, req model.ExecuteRequest) (*ledgerModel.Entry, error) {
	if err := req.Validate(); err != nil {
		return nil, apperr.FromValidation(err)
	}

	dest, err := s.catalog.GetLocation(ctx, req.ToLocationID)
	if err != nil {
		return nil, err
	}
	if !dest.IsStorage() {
		return nil, apperr.Invalid("destination is not a storage location",
			map[string]string{"to_location_id": "must be a STOCK location"})
	}

	entry, err := s.ledger.Apply(ctx, ledgerModel.Move{
		Header: ledgerModel.Header{
			ItemID:         req.ItemID,
			Quantity:       req.Quantity,
			UOM:            req.UOM,
			ActorID:        actorID,
			IdempotencyKey: req.IdempotencyKey,
			LotNumber:      req.LotNumber,
			Reference:      "putaway",
		},
		FromLocationID: req.FromLocationID,
		ToLocationID:   req.ToLocationID,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("✅ Putaway executed", map[string]interface{}{
		"entry_id": entry.ID,
		"item_id":  req.ItemID,
		"to":       dest.Label,
	})
	return entry, nil
}
