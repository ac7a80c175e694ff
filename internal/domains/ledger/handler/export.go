package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"inventory-engine/internal/domains/ledger/model"
	"inventory-engine/internal/shared/response"
	"inventory-engine/pkg/logger"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Exporter is satisfied by *service.BalanceExporter.
type Exporter interface {
	Export(ctx context.Context, itemID, locationID *uuid.UUID) (*excelize.File, int, error)
}

type ExportHandler struct {
	exporter Exporter
}

func NewExportHandler(exporter Exporter) *ExportHandler {
	return &ExportHandler{exporter: exporter}
}

// ExportBalances handles GET /api/v1/balances/export?item_id=&location_id=
// Without filters every non-zero balance is exported.
func (h *ExportHandler) ExportBalances(c *gin.Context) {
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

	file, count, err := h.exporter.Export(c.Request.Context(), itemID, locationID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Error("close balances workbook", err)
		}
	}()

	filename := fmt.Sprintf("balances-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("X-Row-Count", strconv.Itoa(count))
	c.Status(http.StatusOK)

	if err := file.Write(c.Writer); err != nil {
		logger.Error("write balances workbook", err)
	}
}
