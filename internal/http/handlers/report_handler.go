package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/scooter-intake/internal/repo"
	"github.com/tbourn/scooter-intake/internal/report"
	"github.com/tbourn/scooter-intake/internal/services"
	"github.com/tbourn/scooter-intake/internal/utils"
)

// CurrentShift godoc
// @ID          currentShift
// @Summary     Current shift summary
// @Description Per-user and per-service counts for the shift in progress.
// @Tags        Reports
// @Produce     json
// @Security    BearerAuth
// @Param       If-None-Match  header  string  false  "ETag from a previous response"
// @Success     200  {object}  services.ShiftSummary
// @Success     304  "Not modified"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /shifts/current [get]
func (h *Handlers) CurrentShift(c *gin.Context) {
	ctx := c.Request.Context()

	// ETag pre-check (best effort).
	if db, w, ok := h.shiftSource(); ok {
		if count, maxID, err := repo.AcceptanceStats(ctx, db, w.Start, w.End); err == nil {
			etag := fmt.Sprintf(`W/"shift:%d:%d:%d"`, w.Start.Unix(), count, maxID)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	sum, err := h.reportSvc.CurrentShift(ctx)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeReportFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, sum)
}

// PeriodReport godoc
// @ID          periodReport
// @Summary     Shift totals for a date range
// @Description Morning and evening totals per day for the inclusive range, at most 366 days.
// @Tags        Reports
// @Produce     json
// @Security    BearerAuth
// @Param       from  query  string  true  "First day (YYYY-MM-DD)"  example(2025-07-01)
// @Param       to    query  string  true  "Last day (YYYY-MM-DD)"   example(2025-07-10)
// @Success     200  {object}  report.PeriodReport
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Nothing accepted in range"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /reports/period [get]
func (h *Handlers) PeriodReport(c *gin.Context) {
	loc := h.location()
	from, err := utils.ParseDay(c.Query("from"), loc)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	to, err := utils.ParseDay(c.Query("to"), loc)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	rep, err := h.reportSvc.Period(c.Request.Context(), from, to)
	switch {
	case errors.Is(err, services.ErrInvalidArgs):
		fail(c, http.StatusBadRequest, ErrCodeInvalidRange, "from must not be after to and the range must not exceed 366 days")
	case errors.Is(err, report.ErrEmptyWindow):
		fail(c, http.StatusNotFound, ErrCodeNoRecords, "nothing accepted in range")
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeReportFailed, err.Error())
	default:
		ok(c, http.StatusOK, rep)
	}
}

// ExportShift godoc
// @ID          exportShift
// @Summary     Current shift workbook
// @Tags        Exports
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security    BearerAuth
// @Success     200  {file}    file
// @Failure     404  {object}  handlers.ErrorResponse  "Nothing accepted yet"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /exports/shift.xlsx [get]
func (h *Handlers) ExportShift(c *gin.Context) {
	doc, err := h.reportSvc.ExportShift(c.Request.Context())
	h.export(c, doc, err)
}

// ExportAll godoc
// @ID          exportAll
// @Summary     All-time workbook
// @Tags        Exports
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security    BearerAuth
// @Success     200  {file}    file
// @Failure     404  {object}  handlers.ErrorResponse  "Nothing accepted yet"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /exports/all.xlsx [get]
func (h *Handlers) ExportAll(c *gin.Context) {
	doc, err := h.reportSvc.ExportAll(c.Request.Context())
	h.export(c, doc, err)
}

// ExportMonthly godoc
// @ID          exportMonthly
// @Summary     Monthly leaderboard workbook
// @Description One row per user with a column per service and a total, sorted by total.
// @Tags        Exports
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security    BearerAuth
// @Param       year   query  int  true  "Year"   example(2025)
// @Param       month  query  int  true  "Month"  minimum(1) maximum(12) example(6)
// @Success     200  {file}    file
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Nothing accepted in month"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /exports/monthly.xlsx [get]
func (h *Handlers) ExportMonthly(c *gin.Context) {
	year, month, err := utils.ParseMonthYear(c.Query("month"), c.Query("year"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	doc, err := h.reportSvc.ExportMonthly(c.Request.Context(), year, month)
	if errors.Is(err, services.ErrInvalidArgs) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	h.export(c, doc, err)
}

func (h *Handlers) export(c *gin.Context, doc services.Document, err error) {
	switch {
	case errors.Is(err, report.ErrEmptyWindow):
		fail(c, http.StatusNotFound, ErrCodeNoRecords, "nothing accepted")
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeExportFailed, err.Error())
	default:
		sendFile(c, doc)
	}
}
