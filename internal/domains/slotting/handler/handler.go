package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"inventory-engine/internal/domains/slotting/service"
	"inventory-engine/internal/shared/apperr"
	"inventory-engine/internal/shared/response"
)

type Handler struct {
	service service.ServiceInterface
}

func NewHandler(service service.ServiceInterface) *Handler {
	return &Handler{service: service}
}

// Metrics handles GET /api/v1/sites/:site_id/slotting/metrics?policy=
func (h *Handler) Metrics(c *gin.Context) {
	siteID, ok := siteParam(c)
	if !ok {
		return
	}
	metrics, err := h.service.AnalyzeSlotting(c.Request.Context(), siteID, c.Query("policy"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, metrics)
}

// Recommendations handles GET /api/v1/sites/:site_id/slotting/recommendations?policy=
func (h *Handler) Recommendations(c *gin.Context) {
	siteID, ok := siteParam(c)
	if !ok {
		return
	}
	recs, err := h.service.RecommendSlotting(c.Request.Context(), siteID, c.Query("policy"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, recs, &response.Meta{Count: len(recs)})
}

// ABC handles GET /api/v1/sites/:site_id/slotting/abc?policy=
func (h *Handler) ABC(c *gin.Context) {
	siteID, ok := siteParam(c)
	if !ok {
		return
	}
	abc, err := h.service.PerformABCAnalysis(c.Request.Context(), siteID, c.Query("policy"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, abc)
}

func siteParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("site_id"))
	if err != nil {
		response.FromError(c, apperr.Invalid("invalid site_id", map[string]string{"site_id": "must be a valid UUID"}))
		return uuid.Nil, false
	}
	return id, true
}
