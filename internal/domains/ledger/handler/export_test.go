package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportBalances_Workbook(t *testing.T) {
	e := setup(t)

	w, body := e.do(t, http.MethodPost, "/api/v1/transactions", map[string]interface{}{
		"type":           "RECEIVE",
		"item_id":        e.item.ID,
		"quantity":       "12",
		"uom":            "EA",
		"to_location_id": e.locB.ID,
	}, e.auth())
	require.Equal(t, http.StatusCreated, w.Code, body)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/balances/export?item_id="+e.item.ID.String(), nil)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "balances-")
	assert.Equal(t, "1", rec.Header().Get("X-Row-Count"))

	file, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer file.Close()

	rows, err := file.GetRows("Balances")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 2)
	assert.Equal(t, "Location", rows[0][0])
	assert.Equal(t, []string{"A-02", "A", "02", "BOLT-8"}, rows[1][:4])
	assert.Equal(t, "12", rows[1][5])
}

func TestExportBalances_InvalidFilter(t *testing.T) {
	e := setup(t)

	w, body := e.do(t, http.MethodGet, "/api/v1/balances/export?location_id=nope", nil, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", body["error"].(map[string]interface{})["code"])
}
