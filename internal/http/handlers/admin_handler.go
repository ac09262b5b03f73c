// Admin HTTP handlers.
//
// This file wires the admin API onto the intake and report services:
//   - POST   /intake                      (run a message through extraction)
//   - GET    /shifts/current              (current shift summary, ETag support)
//   - GET    /reports/period              (per-shift totals for a date range)
//   - GET    /exports/shift.xlsx          (current shift workbook)
//   - GET    /exports/all.xlsx            (all-time workbook)
//   - GET    /exports/monthly.xlsx        (monthly leaderboard workbook)
//   - GET    /acceptances/{identifier}    (history of one scooter)
//   - DELETE /acceptances/{identifier}    (remove one user's records of it)
//
// Handlers are transport-thin: they validate input, call the services and
// map service errors to the envelope in response.go.
package handlers

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/scooter-intake/internal/domain"
	"github.com/tbourn/scooter-intake/internal/intake"
	"github.com/tbourn/scooter-intake/internal/report"
	"github.com/tbourn/scooter-intake/internal/services"
	"github.com/tbourn/scooter-intake/internal/shift"
)

//
// Service contracts
//

// IntakeService records acceptances from free text.
type IntakeService interface {
	Accept(ctx context.Context, text string, from intake.Sender, chatID int64, source string) (intake.Result, error)
}

// ReportService builds the summaries and workbooks served by the API.
type ReportService interface {
	CurrentShift(ctx context.Context) (services.ShiftSummary, error)
	Period(ctx context.Context, from, to time.Time) (report.PeriodReport, error)
	ExportShift(ctx context.Context) (services.Document, error)
	ExportAll(ctx context.Context) (services.Document, error)
	ExportMonthly(ctx context.Context, year int, month time.Month) (services.Document, error)
	Find(ctx context.Context, identifier string) ([]domain.Acceptance, error)
	Delete(ctx context.Context, identifier, username string) (int64, error)
}

//
// Handler wiring
//

// Handlers groups the admin endpoints.
type Handlers struct {
	intakeSvc IntakeService
	reportSvc ReportService

	// IdempotencyTTL is how long a stored POST /intake result is replayed.
	IdempotencyTTL time.Duration
}

// New constructs Handlers bound to the given services.
func New(in IntakeService, rep ReportService, idemTTL time.Duration) *Handlers {
	if idemTTL <= 0 {
		idemTTL = 24 * time.Hour
	}
	return &Handlers{intakeSvc: in, reportSvc: rep, IdempotencyTTL: idemTTL}
}

// intakeDB returns the database behind the concrete intake service, or nil.
// Idempotency storage is best effort and skipped without it.
func (h *Handlers) intakeDB() *gorm.DB {
	if s, ok := h.intakeSvc.(*services.IntakeService); ok {
		return s.DB
	}
	return nil
}

// shiftSource exposes what the ETag pre-check needs from the concrete report
// service: its database and the window in progress.
func (h *Handlers) shiftSource() (*gorm.DB, shift.Window, bool) {
	s, ok := h.reportSvc.(*services.ReportService)
	if !ok || s.DB == nil || s.Shifts == nil {
		return nil, shift.Window{}, false
	}
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	return s.DB, s.Shifts.Current(now), true
}

// location is the civil timezone used to parse date parameters.
func (h *Handlers) location() *time.Location {
	if s, ok := h.reportSvc.(*services.ReportService); ok && s.Shifts != nil {
		return s.Shifts.Location()
	}
	return time.UTC
}
