package shared

import "time"

// Background task types (asynq).
const (
	TypeSyncItemStock   = "inventory:sync_item_stock"
	TypeAnalyzeSlotting = "slotting:analyze_site"
	TypeAnalyzeAllSites = "slotting:analyze_all_sites"
)

// Queue names, highest priority first.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// ItemStockSyncPayload asks the worker to refresh the cached stock summary of
// one item after a ledger posting.
type ItemStockSyncPayload struct {
	ItemID        string    `json:"item_id"`
	EntryID       string    `json:"entry_id"`
	Source        string    `json:"source"`
	CorrelationID string    `json:"correlation_id"`
	PostedAt      time.Time `json:"posted_at"`
}

// SlottingAnalysisPayload asks the worker to classify one site and cache the
// velocity classes read by putaway.
type SlottingAnalysisPayload struct {
	SiteID string `json:"site_id"`
	Policy string `json:"policy"`
}

// Cache keys shared by the API and the worker.
const (
	ItemStockKeyFormat    = "inventory:item:%s:stock"
	SiteVelocityKeyFormat = "slotting:site:%s:velocity"
)

// SiteVelocityTTL outlives one nightly run so a failed run leaves the previous
// classes in place.
const SiteVelocityTTL = 48 * time.Hour
