package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"inventory-engine/internal/shared/apperr"
	"inventory-engine/pkg/logger"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

type Error struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type Meta struct {
	Count   int    `json:"count,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Warning string `json:"warning,omitempty"`
}

// Success responses
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Data:    data,
	})
}

func SuccessWithMeta(c *gin.Context, statusCode int, data interface{}, meta *Meta) {
	c.JSON(statusCode, Response{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

// Error responses
func ErrorResponse(c *gin.Context, statusCode int, code, message string) {
	c.AbortWithStatusJSON(statusCode, Response{
		Success: false,
		Error: &Error{
			Code:    code,
			Message: message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.AbortWithStatusJSON(statusCode, Response{
		Success: false,
		Error: &Error{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// FromError writes err as a structured engine error. Errors that carry no
// apperr code are logged and reported as 500 without internals.
func FromError(c *gin.Context, err error) {
	appErr, ok := apperr.As(err)
	if !ok {
		_ = c.Error(err)
		logger.ErrorWithFields("unhandled error", err, map[string]interface{}{
			"request_id": c.GetString("request_id"),
			"path":       c.FullPath(),
		})
		InternalServerError(c, "internal server error")
		return
	}
	ErrorWithDetails(c, StatusFor(appErr), appErr.Code, appErr.Error(), appErr.Details)
}

// StatusFor maps an engine error code to its HTTP status.
func StatusFor(e *apperr.Error) int {
	switch e.Code {
	case apperr.CodeInvalidInput:
		return http.StatusBadRequest
	case apperr.CodeItemNotFound, apperr.CodeLocationNotFound, apperr.CodeOrderNotFound,
		apperr.CodePickTaskNotFound, apperr.CodePickLineNotFound:
		return http.StatusNotFound
	case apperr.CodeInsufficientStock, apperr.CodeConcurrencyConflict, apperr.CodePickLineClosed,
		apperr.CodeIdempotencyKeyReused, apperr.CodeOrderNotPickable:
		return http.StatusConflict
	case apperr.CodeConversionNotFound, apperr.CodeNoCandidateLocation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Common error responses
func BadRequest(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

func Unauthorized(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

func InternalServerError(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", message)
}
