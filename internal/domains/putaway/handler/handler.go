package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"inventory-engine/internal/domains/putaway/model"
	"inventory-engine/internal/domains/putaway/service"
	"inventory-engine/internal/shared/middleware"
	"inventory-engine/internal/shared/response"
)

type Handler struct {
	service service.ServiceInterface
}

func NewHandler(service service.ServiceInterface) *Handler {
	return &Handler{service: service}
}

// Suggest handles POST /api/v1/putaway/suggest
func (h *Handler) Suggest(c *gin.Context) {
	var req model.SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request payload: "+err.Error())
		return
	}

	suggestion, err := h.service.Suggest(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, suggestion)
}

// Execute handles POST /api/v1/putaway/execute
func (h *Handler) Execute(c *gin.Context) {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		response.Unauthorized(c, "missing actor")
		return
	}

	var req model.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request payload: "+err.Error())
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	entry, err := h.service.Execute(c.Request.Context(), actorID, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, entry)
}
