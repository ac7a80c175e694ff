package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"inventory-engine/internal/domains/ledger/model"
	"inventory-engine/internal/domains/ledger/service"
	"inventory-engine/internal/shared/apperr"
	"inventory-engine/internal/shared/middleware"
	"inventory-engine/internal/shared/response"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type Handler struct {
	service service.ServiceInterface
}

func NewHandler(service service.ServiceInterface) *Handler {
	return &Handler{
		service: service,
	}
}

// ApplyTransaction handles POST /api/v1/transactions
// The Idempotency-Key header is used when the body carries no key.
func (h *Handler) ApplyTransaction(c *gin.Context) {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		response.Unauthorized(c, "missing actor")
		return
	}

	var req model.ApplyTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request payload: "+err.Error())
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader(IdempotencyKeyHeader)
	}

	txn, err := req.ToTransaction(actorID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	entry, err := h.service.Apply(c.Request.Context(), txn)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, entry)
}

// ListEntries handles GET /api/v1/transactions?item_id=&location_id=&limit=
func (h *Handler) ListEntries(c *gin.Context) {
	var req model.ListEntriesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters: "+err.Error())
		return
	}

	itemID, locationID, err := parseFilterIDs(req.ItemID, req.LocationID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	entries, err := h.service.ListEntries(c.Request.Context(), model.EntryFilter{
		ItemID:     itemID,
		LocationID: locationID,
		Limit:      req.Limit,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, entries, &response.Meta{Count: len(entries), Limit: req.Limit})
}

// ListBalances handles GET /api/v1/balances?item_id=&location_id=
func (h *Handler) ListBalances(c *gin.Context) {
	var req model.ListBalancesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters: "+err.Error())
		return
	}

	itemID, locationID, err := parseFilterIDs(req.ItemID, req.LocationID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	balances, err := h.service.ListBalances(c.Request.Context(), itemID, locationID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, balances, &response.Meta{Count: len(balances)})
}

func parseFilterIDs(item, location string) (*uuid.UUID, *uuid.UUID, error) {
	itemID, err := optionalUUID("item_id", item)
	if err != nil {
		return nil, nil, err
	}
	locationID, err := optionalUUID("location_id", location)
	if err != nil {
		return nil, nil, err
	}
	return itemID, locationID, nil
}

func optionalUUID(field, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.Invalid("invalid "+field, map[string]string{field: "must be a valid UUID"})
	}
	return &id, nil
}
