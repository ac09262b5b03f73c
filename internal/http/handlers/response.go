// Package handlers provides the admin API endpoints.
//
// This file holds the response helpers shared by every endpoint: the error
// envelope, JSON success writers and the spreadsheet download writer.
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/scooter-intake/internal/http/middleware"
	"github.com/tbourn/scooter-intake/internal/services"
)

// xlsxContentType is the media type of Office Open XML workbooks.
const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message
	Message string `json:"message" example:"no records for AB1234"`
}

// fail aborts the request with an ErrorResponse. 5xx responses are logged
// with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail is the exported variant of fail for router fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// sendFile writes doc as an attachment download. The record count travels
// in X-Records so scripts need not open the workbook.
func sendFile(c *gin.Context, doc services.Document) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, doc.Filename))
	c.Header("X-Records", fmt.Sprint(doc.Records))
	c.Data(http.StatusOK, xlsxContentType, doc.Data)
}
