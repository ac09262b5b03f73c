// Package services – ReportService
//
// This file implements ReportService, the single pipeline behind every
// report: the current-shift stats command, spreadsheet exports, the timed
// morning/evening reports, monthly leaderboards and period reports. Each
// operation resolves a window with the shift calculator, loads the records
// in it and hands them to the report builder.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/scooter-intake/internal/domain"
	"github.com/tbourn/scooter-intake/internal/intake"
	"github.com/tbourn/scooter-intake/internal/repo"
	"github.com/tbourn/scooter-intake/internal/report"
	"github.com/tbourn/scooter-intake/internal/shift"
	"github.com/tbourn/scooter-intake/internal/xlsx"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Document is a rendered spreadsheet ready for delivery.
type Document struct {
	Filename string
	Caption  string
	Data     []byte
	Records  int
}

// ShiftSummary is the current shift's counts.
type ShiftSummary struct {
	Window   shift.Window          `json:"window"`
	Label    string                `json:"label"`
	Users    []report.UserSummary  `json:"users"`
	Services []domain.ServiceCount `json:"services"`
	Total    int                   `json:"total"`
}

// ScheduledReport is the outcome of a timed report: a document, or a short
// text when the window is empty.
type ScheduledReport struct {
	Window   shift.Window
	Document *Document
	Text     string
}

// ReportService builds reports over stored acceptances.
type ReportService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Store is the acceptance repository.
	Store AcceptanceStore
	// Shifts derives windows in the configured timezone.
	Shifts *shift.Calculator
	// Now is the clock; time.Now when nil.
	Now func() time.Time
	// ChunkLimit caps chat message size; report.DefaultChunkLimit when zero.
	ChunkLimit int
}

// NewReportService wires a ReportService over the GORM repositories.
func NewReportService(db *gorm.DB, shifts *shift.Calculator) *ReportService {
	return &ReportService{
		DB:         db,
		Store:      RepoStore{},
		Shifts:     shifts,
		Now:        time.Now,
		ChunkLimit: report.DefaultChunkLimit,
	}
}

func (s *ReportService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *ReportService) loc() *time.Location { return s.Shifts.Location() }

func (s *ReportService) span(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer("services/ReportService").Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *ReportService) window(ctx context.Context, w shift.Window) ([]domain.Acceptance, error) {
	return s.Store.ListAcceptancesBetween(ctx, s.DB, w.Start, w.End)
}

// count records a report run outcome and passes err through.
func count(name string, err error) error {
	switch {
	case err == nil:
		reportRuns.WithLabelValues(name, "ok").Inc()
	case errors.Is(err, report.ErrEmptyWindow):
		reportRuns.WithLabelValues(name, "empty").Inc()
	default:
		reportRuns.WithLabelValues(name, "error").Inc()
	}
	return err
}

// CurrentShift summarizes the shift in progress. An empty shift yields a
// zero Total, not an error.
func (s *ReportService) CurrentShift(ctx context.Context) (ShiftSummary, error) {
	ctx, span := s.span(ctx, "CurrentShift")
	defer span.End()

	w := s.Shifts.Current(s.now())
	recs, err := s.window(ctx, w)
	if err != nil {
		return ShiftSummary{}, err
	}
	byService := report.SummarizeByService(recs)
	return ShiftSummary{
		Window:   w,
		Label:    w.Label(),
		Users:    report.SummarizeByUser(recs),
		Services: byService,
		Total:    report.Total(byService),
	}, nil
}

// ShiftStatsText renders the current shift for chat, already chunked.
func (s *ReportService) ShiftStatsText(ctx context.Context) ([]string, error) {
	ctx, span := s.span(ctx, "ShiftStatsText")
	defer span.End()

	w := s.Shifts.Current(s.now())
	recs, err := s.window(ctx, w)
	if err != nil {
		return nil, count("shift_stats", err)
	}
	lines, err := report.ShiftStatsLines(w, recs)
	if errors.Is(err, report.ErrEmptyWindow) {
		count("shift_stats", err)
		return []string{report.EmptyWindowText(w)}, nil
	}
	return report.Chunk(lines, s.ChunkLimit), count("shift_stats", err)
}

// ExportShift renders the current shift as a spreadsheet. It returns
// report.ErrEmptyWindow when the shift has no records.
func (s *ReportService) ExportShift(ctx context.Context) (Document, error) {
	ctx, span := s.span(ctx, "ExportShift")
	defer span.End()

	now := s.now()
	w := s.Shifts.Current(now)
	recs, err := s.window(ctx, w)
	if err != nil {
		return Document{}, count("export_shift", err)
	}
	doc, err := s.render(recs)
	if err != nil {
		return Document{}, count("export_shift", err)
	}
	doc.Filename = fmt.Sprintf("report_shift_%s.xlsx", now.In(s.loc()).Format(time.DateOnly))
	doc.Caption = fmt.Sprintf("Export for the %s (%s) is ready.", w.Label(), w.Span())
	return doc, count("export_shift", nil)
}

// ExportAll renders every stored record.
func (s *ReportService) ExportAll(ctx context.Context) (Document, error) {
	ctx, span := s.span(ctx, "ExportAll")
	defer span.End()

	recs, err := s.Store.ListAllAcceptances(ctx, s.DB)
	if err != nil {
		return Document{}, count("export_all", err)
	}
	doc, err := s.render(recs)
	if err != nil {
		return Document{}, count("export_all", err)
	}
	doc.Filename = fmt.Sprintf("report_full_%s.xlsx", s.now().In(s.loc()).Format(time.DateOnly))
	doc.Caption = "Export for all time is ready."
	return doc, count("export_all", nil)
}

// Scheduled builds the timed report for kind on now's date. An empty window
// yields Text instead of a Document; it is not an error.
func (s *ReportService) Scheduled(ctx context.Context, kind shift.Kind) (ScheduledReport, error) {
	ctx, span := s.span(ctx, "Scheduled", attribute.String("shift.kind", string(kind)))
	defer span.End()

	w := s.Shifts.Scheduled(kind, s.now())
	out := ScheduledReport{Window: w}
	recs, err := s.window(ctx, w)
	if err != nil {
		return out, count("scheduled", err)
	}
	doc, err := s.render(recs)
	if errors.Is(err, report.ErrEmptyWindow) {
		out.Text = fmt.Sprintf("Report for the %s (%s): nothing accepted during the shift.", w.Label(), w.Span())
		return out, nil
	}
	if err != nil {
		return out, count("scheduled", err)
	}
	doc.Filename = fmt.Sprintf("report_%s_shift_%s.xlsx", kind, w.Start.Format("20060102"))
	doc.Caption = fmt.Sprintf("Daily report for the %s (%s - %s)", w.Label(), w.Start.Format("02.01 15:04"), w.End.Format("02.01 15:04"))
	out.Document = &doc
	return out, count("scheduled", nil)
}

// ExportMonthly renders the per-user leaderboard for one calendar month.
func (s *ReportService) ExportMonthly(ctx context.Context, year int, month time.Month) (Document, error) {
	ctx, span := s.span(ctx, "ExportMonthly", attribute.Int("year", year), attribute.Int("month", int(month)))
	defer span.End()

	from, to, err := s.Shifts.MonthRange(year, month)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrInvalidArgs, err)
	}
	recs, err := s.Store.ListAcceptancesBetween(ctx, s.DB, from, to)
	if err != nil {
		return Document{}, count("monthly", err)
	}
	ex, err := report.BuildMonthly(recs, from)
	if err != nil {
		return Document{}, count("monthly", err)
	}
	data, err := xlsx.Encode(ex)
	if err != nil {
		return Document{}, count("monthly", err)
	}
	return Document{
		Filename: fmt.Sprintf("monthly_report_%s.xlsx", from.Format("2006_01")),
		Caption:  fmt.Sprintf("Report for %s", from.Format("January 2006")),
		Data:     data,
		Records:  len(recs),
	}, count("monthly", nil)
}

// Period aggregates the inclusive date range [from, to] shift by shift.
func (s *ReportService) Period(ctx context.Context, from, to time.Time) (report.PeriodReport, error) {
	ctx, span := s.span(ctx, "Period",
		attribute.String("from", from.Format(time.DateOnly)),
		attribute.String("to", to.Format(time.DateOnly)),
	)
	defer span.End()

	days, err := s.Shifts.Period(from, to)
	if err != nil {
		return report.PeriodReport{}, fmt.Errorf("%w: %w", ErrInvalidArgs, err)
	}
	start, end := shift.PeriodBounds(days)
	recs, err := s.Store.ListAcceptancesBetween(ctx, s.DB, start, end)
	if err != nil {
		return report.PeriodReport{}, count("period", err)
	}
	rep, err := report.BuildPeriod(days, recs)
	return rep, count("period", err)
}

// PeriodText renders Period for chat, already chunked.
func (s *ReportService) PeriodText(ctx context.Context, from, to time.Time) ([]string, error) {
	rep, err := s.Period(ctx, from, to)
	if errors.Is(err, report.ErrEmptyWindow) {
		return []string{fmt.Sprintf("Nothing accepted from %s to %s.", from.Format(time.DateOnly), to.Format(time.DateOnly))}, nil
	}
	if err != nil {
		return nil, err
	}
	return report.Chunk(rep.Lines(), s.ChunkLimit), nil
}

// Find returns the history of an identifier, newest first. The identifier
// is normalized the same way intake stores it.
func (s *ReportService) Find(ctx context.Context, identifier string) ([]domain.Acceptance, error) {
	id := intake.NormalizeIdentifier(identifier)
	ctx, span := s.span(ctx, "Find", attribute.String("identifier", id))
	defer span.End()

	if id == "" {
		return nil, ErrInvalidArgs
	}
	return s.Store.FindAcceptances(ctx, s.DB, id)
}

// FindText renders Find for chat, already chunked.
func (s *ReportService) FindText(ctx context.Context, identifier string) ([]string, error) {
	recs, err := s.Find(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return report.Chunk(report.FindLines(intake.NormalizeIdentifier(identifier), recs, s.loc()), s.ChunkLimit), nil
}

// Delete removes the records of identifier accepted by username (a leading
// "@" is ignored). It returns ErrNoRecords when nothing matched.
func (s *ReportService) Delete(ctx context.Context, identifier, username string) (int64, error) {
	id := intake.NormalizeIdentifier(identifier)
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	ctx, span := s.span(ctx, "Delete", attribute.String("identifier", id))
	defer span.End()

	if id == "" || username == "" {
		return 0, ErrInvalidArgs
	}
	n, err := s.Store.DeleteAcceptances(ctx, s.DB, id, username)
	if errors.Is(err, repo.ErrNotFound) {
		return 0, ErrNoRecords
	}
	return n, err
}

func (s *ReportService) render(recs []domain.Acceptance) (Document, error) {
	ex, err := report.BuildExport(recs, s.loc())
	if err != nil {
		return Document{}, err
	}
	data, err := xlsx.Encode(ex)
	if err != nil {
		return Document{}, err
	}
	return Document{Data: data, Records: len(recs)}, nil
}
