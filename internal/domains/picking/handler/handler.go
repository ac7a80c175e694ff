package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"inventory-engine/internal/domains/picking/model"
	"inventory-engine/internal/domains/picking/service"
	"inventory-engine/internal/shared/apperr"
	"inventory-engine/internal/shared/middleware"
	"inventory-engine/internal/shared/response"
)

type Handler struct {
	service service.ServiceInterface
}

func NewHandler(service service.ServiceInterface) *Handler {
	return &Handler{service: service}
}

// CreateWave handles POST /api/v1/sites/:site_id/waves
func (h *Handler) CreateWave(c *gin.Context) {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		response.Unauthorized(c, "missing actor")
		return
	}
	siteID, ok := pathUUID(c, "site_id")
	if !ok {
		return
	}

	var req model.CreateWaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request payload: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		response.FromError(c, apperr.FromValidation(err))
		return
	}

	result, err := h.service.CreateWave(c.Request.Context(), siteID, actorID, req.Config())
	if err != nil {
		response.FromError(c, err)
		return
	}

	status := http.StatusCreated
	if result.OrderCount == 0 {
		status = http.StatusOK
	}
	response.Success(c, status, result)
}

// GeneratePickList handles POST /api/v1/sites/:site_id/pick-lists
func (h *Handler) GeneratePickList(c *gin.Context) {
	siteID, ok := pathUUID(c, "site_id")
	if !ok {
		return
	}

	var req model.GeneratePickListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request payload: "+err.Error())
		return
	}

	list, err := h.service.GeneratePickList(c.Request.Context(), siteID, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, list)
}

// CreatePickTask handles POST /api/v1/sites/:site_id/pick-tasks
func (h *Handler) CreatePickTask(c *gin.Context) {
	siteID, ok := pathUUID(c, "site_id")
	if !ok {
		return
	}

	var req model.CreatePickTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request payload: "+err.Error())
		return
	}

	task, err := h.service.CreatePickTask(c.Request.Context(), siteID, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, task)
}

// GetPickTask handles GET /api/v1/pick-tasks/:id
func (h *Handler) GetPickTask(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	task, err := h.service.GetPickTask(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, task)
}

// ConfirmPick handles POST /api/v1/pick-lines/:id/confirm
// A short pick succeeds with meta.warning = SHORT_PICK.
func (h *Handler) ConfirmPick(c *gin.Context) {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		response.Unauthorized(c, "missing actor")
		return
	}
	lineID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req model.ConfirmPickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request payload: "+err.Error())
		return
	}

	result, err := h.service.ConfirmPick(c.Request.Context(), lineID, actorID, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if result.Warning != "" {
		response.SuccessWithMeta(c, http.StatusOK, result, &response.Meta{Warning: result.Warning})
		return
	}
	response.Success(c, http.StatusOK, result)
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.FromError(c, apperr.Invalid("invalid "+name, map[string]string{name: "must be a valid UUID"}))
		return uuid.Nil, false
	}
	return id, true
}
