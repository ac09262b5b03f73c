package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/scooter-intake/internal/domain"
	"github.com/tbourn/scooter-intake/internal/http/middleware"
	"github.com/tbourn/scooter-intake/internal/intake"
	"github.com/tbourn/scooter-intake/internal/repo"
	"github.com/tbourn/scooter-intake/internal/report"
	"github.com/tbourn/scooter-intake/internal/services"
)

// PostIntakeRequest is a message submitted on behalf of a chat user.
type PostIntakeRequest struct {
	Text     string `json:"text"      binding:"required" example:"Whoosh AB1234, yandex 12345678"`
	UserID   int64  `json:"user_id"   binding:"required" example:"1001"`
	Username string `json:"username"                     example:"courier_anna"`
	FullName string `json:"full_name"                    example:"Anna Petrova"`
	ChatID   int64  `json:"chat_id"                      example:"-1002233445566"`
}

// PostIntakeResponse reports what was stored.
type PostIntakeResponse struct {
	Accepted int                   `json:"accepted" example:"2"`
	Services []domain.ServiceCount `json:"services"`
	Rejected []intake.Rejection    `json:"rejected,omitempty"`
	// Reply is the chat confirmation the bot would send (HTML).
	Reply string `json:"reply"`
}

// PostIntake godoc
// @ID          postIntake
// @Summary     Record acceptances from a message
// @Description Runs the text through identifier and bulk extraction and stores the records.
// @Description Supports idempotency via the Idempotency-Key header (same key → same result).
// @Tags        Intake
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header  string                      false "Idempotency key for safe retries"
// @Param       body             body    handlers.PostIntakeRequest  true  "Message"
// @Success     201  {object}  handlers.PostIntakeResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     422  {object}  handlers.ErrorResponse  "Nothing recognized"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /intake [post]
func (h *Handlers) PostIntake(c *gin.Context) {
	ctx := c.Request.Context()
	scope := middleware.IdempotencyScope(c)
	key, _ := middleware.GetIdempotencyKey(c)
	db := h.intakeDB()

	// Replay path.
	if key != "" && middleware.IsReplay(c) && db != nil {
		if rec, err := repo.GetIdempotency(ctx, db, scope, key, time.Now().UTC()); err == nil {
			c.Header(middleware.HeaderIdempotencyReplayed, "true")
			c.Data(rec.Status, "application/json; charset=utf-8", []byte(rec.Response))
			return
		}
	}

	var req PostIntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text and user_id are required")
		return
	}

	from := intake.Sender{UserID: req.UserID, Username: strings.TrimPrefix(req.Username, "@"), FullName: req.FullName}
	res, err := h.intakeSvc.Accept(ctx, req.Text, from, req.ChatID, services.SourceHTTP)
	switch {
	case errors.Is(err, intake.ErrNothingRecognized):
		fail(c, http.StatusUnprocessableEntity, ErrCodeNothingRecognized, "no scooter identifiers recognized")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeIntakeFailed, err.Error())
		return
	}

	counts := res.Summary.Sorted()
	resp := PostIntakeResponse{
		Accepted: res.Summary.Total(),
		Services: counts,
		Rejected: res.Rejected,
		Reply:    report.AcceptedReply(from.UserID, report.DisplayName(from.FullName, from.Username, from.UserID), counts),
	}

	// Store path, best effort: a concurrent duplicate simply keeps the first.
	if key != "" && db != nil {
		if body, err := json.Marshal(resp); err == nil {
			if _, err := repo.CreateIdempotency(ctx, db, scope, key, string(body), http.StatusCreated, h.IdempotencyTTL); err != nil && !errors.Is(err, repo.ErrDuplicate) {
				middleware.LoggerFrom(c).Warn().Err(err).Msg("store idempotency result")
			}
		}
	}

	ok(c, http.StatusCreated, resp)
}
