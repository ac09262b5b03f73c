package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/scooter-intake/internal/domain"
	"github.com/tbourn/scooter-intake/internal/intake"
	"github.com/tbourn/scooter-intake/internal/services"
)

// FindResponse is the history of one identifier, newest first.
type FindResponse struct {
	Identifier  string              `json:"identifier" example:"AB1234"`
	Acceptances []domain.Acceptance `json:"acceptances"`
}

// DeleteResponse reports how many records were removed.
type DeleteResponse struct {
	Deleted int64 `json:"deleted" example:"1"`
}

// FindAcceptances godoc
// @ID          findAcceptances
// @Summary     History of a scooter
// @Tags        Acceptances
// @Produce     json
// @Security    BearerAuth
// @Param       identifier  path  string  true  "Scooter number (case-insensitive)"  example(ab1234)
// @Success     200  {object}  handlers.FindResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /acceptances/{identifier} [get]
func (h *Handlers) FindAcceptances(c *gin.Context) {
	id := intake.NormalizeIdentifier(c.Param("identifier"))
	recs, err := h.reportSvc.Find(c.Request.Context(), id)
	switch {
	case errors.Is(err, services.ErrInvalidArgs):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "identifier required")
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeReportFailed, err.Error())
	case len(recs) == 0:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "no records for "+id)
	default:
		ok(c, http.StatusOK, FindResponse{Identifier: id, Acceptances: recs})
	}
}

// DeleteAcceptances godoc
// @ID          deleteAcceptances
// @Summary     Delete a user's records of a scooter
// @Description Removes every record of the identifier accepted by the given username (leading @ optional).
// @Tags        Acceptances
// @Produce     json
// @Security    BearerAuth
// @Param       identifier  path   string  true  "Scooter number"  example(AB1234)
// @Param       username    query  string  true  "Telegram username"  example(courier_anna)
// @Success     200  {object}  handlers.DeleteResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /acceptances/{identifier} [delete]
func (h *Handlers) DeleteAcceptances(c *gin.Context) {
	n, err := h.reportSvc.Delete(c.Request.Context(), c.Param("identifier"), c.Query("username"))
	switch {
	case errors.Is(err, services.ErrInvalidArgs):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "identifier and username are required")
	case errors.Is(err, services.ErrNoRecords):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "no matching records")
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeDeleteFailed, err.Error())
	default:
		ok(c, http.StatusOK, DeleteResponse{Deleted: n})
	}
}
