// Package services – IntakeService
//
// This file implements IntakeService, which runs the extraction engine over
// an inbound message, persists the resulting records in one batch and keeps
// the acceptance counters current. It also guards against processing the
// same inbound event twice (redelivered Telegram updates, retried HTTP
// requests) through the idempotency table.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// the chat and user identifiers and the number of records produced.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/scooter-intake/internal/intake"
	"github.com/tbourn/scooter-intake/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Inbound sources, used as metric labels.
const (
	SourceTelegram = "telegram"
	SourceHTTP     = "http"
)

// IntakeService turns messages into stored acceptances.
type IntakeService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Store is the acceptance repository.
	Store AcceptanceStore
	// Engine extracts records from text.
	Engine *intake.Engine
	// Now is the clock; time.Now when nil.
	Now func() time.Time
	// DedupTTL is how long handled event keys are remembered.
	DedupTTL time.Duration
}

// NewIntakeService wires an IntakeService over the GORM repositories.
func NewIntakeService(db *gorm.DB, engine *intake.Engine) *IntakeService {
	return &IntakeService{
		DB:       db,
		Store:    RepoStore{},
		Engine:   engine,
		Now:      time.Now,
		DedupTTL: 24 * time.Hour,
	}
}

func (s *IntakeService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Accept extracts and stores the records in text. It returns
// intake.ErrNothingRecognized (without touching the store) when nothing was
// recognized; the result still lists rejected bulk entries in that case.
func (s *IntakeService) Accept(ctx context.Context, text string, from intake.Sender, chatID int64, source string) (intake.Result, error) {
	tr := otel.Tracer("services/IntakeService")
	ctx, span := tr.Start(ctx, "Accept",
		trace.WithAttributes(
			attribute.Int64("chat.id", chatID),
			attribute.Int64("user.id", from.UserID),
			attribute.String("source", source),
		),
	)
	defer span.End()

	res, err := s.Engine.Extract(text, from, chatID, s.now())
	if err != nil {
		intakeMessages.WithLabelValues("nothing_recognized").Inc()
		span.SetAttributes(attribute.Int("intake.rejected", len(res.Rejected)))
		return res, err
	}
	if err := s.store(ctx, span, res, source); err != nil {
		return intake.Result{}, err
	}
	return res, nil
}

// AcceptBulk expands an explicit "<service> <quantity>" pair and stores it.
// Errors wrap intake.ErrUnknownService or intake.ErrInvalidQuantity.
func (s *IntakeService) AcceptBulk(ctx context.Context, service, quantity string, from intake.Sender, chatID int64, source string) (intake.Result, error) {
	tr := otel.Tracer("services/IntakeService")
	ctx, span := tr.Start(ctx, "AcceptBulk",
		trace.WithAttributes(
			attribute.Int64("chat.id", chatID),
			attribute.Int64("user.id", from.UserID),
			attribute.String("bulk.service", service),
		),
	)
	defer span.End()

	res, err := s.Engine.Bulk(service, quantity, from, chatID, s.now())
	if err != nil {
		return intake.Result{}, err
	}
	if err := s.store(ctx, span, res, source); err != nil {
		return intake.Result{}, err
	}
	return res, nil
}

func (s *IntakeService) store(ctx context.Context, span trace.Span, res intake.Result, source string) error {
	n, err := s.Store.AppendAcceptances(ctx, s.DB, res.Records)
	if err != nil {
		intakeMessages.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "append failed")
		return fmt.Errorf("store acceptances: %w", err)
	}
	span.SetAttributes(
		attribute.Int("intake.records", len(res.Records)),
		attribute.Int64("intake.inserted", n),
	)
	intakeMessages.WithLabelValues("accepted").Inc()
	for svc, c := range res.Summary {
		acceptedUnits.WithLabelValues(string(svc), source).Add(float64(c))
	}
	return nil
}

// MarkProcessed records that the event (scope, key) was handled. It returns
// ErrDuplicateUpdate when the key is already recorded and not yet expired.
func (s *IntakeService) MarkProcessed(ctx context.Context, scope, key string) error {
	_, err := repo.CreateIdempotency(ctx, s.DB, scope, key, "", 0, s.DedupTTL)
	if errors.Is(err, repo.ErrDuplicate) {
		return ErrDuplicateUpdate
	}
	return err
}

// PurgeProcessed drops expired event keys.
func (s *IntakeService) PurgeProcessed(ctx context.Context) (int64, error) {
	return repo.PurgeExpiredIdempotency(ctx, s.DB, s.now())
}

// Aliases lists the bulk-entry tokens the engine accepts, for usage hints.
func (s *IntakeService) Aliases() []string {
	return s.Engine.Registry().Aliases()
}
