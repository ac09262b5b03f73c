package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/scooter-intake/internal/domain"
	"github.com/tbourn/scooter-intake/internal/repo"
)

// AcceptanceStore defines the persistence contract used by the services.
// RepoStore is the GORM-backed implementation.
type AcceptanceStore interface {
	// AppendAcceptances stores records, skipping guarded duplicates.
	AppendAcceptances(ctx context.Context, db *gorm.DB, recs []domain.Acceptance) (int64, error)

	// ListAcceptancesBetween returns records in [from, to).
	ListAcceptancesBetween(ctx context.Context, db *gorm.DB, from, to time.Time) ([]domain.Acceptance, error)

	// ListAllAcceptances returns every record.
	ListAllAcceptances(ctx context.Context, db *gorm.DB) ([]domain.Acceptance, error)

	// FindAcceptances returns one identifier's history, newest first.
	FindAcceptances(ctx context.Context, db *gorm.DB, identifier string) ([]domain.Acceptance, error)

	// DeleteAcceptances removes records by (identifier, username).
	DeleteAcceptances(ctx context.Context, db *gorm.DB, identifier, username string) (int64, error)
}

// RepoStore forwards to the repo package.
type RepoStore struct{}

func (RepoStore) AppendAcceptances(ctx context.Context, db *gorm.DB, recs []domain.Acceptance) (int64, error) {
	return repo.AppendAcceptances(ctx, db, recs)
}

func (RepoStore) ListAcceptancesBetween(ctx context.Context, db *gorm.DB, from, to time.Time) ([]domain.Acceptance, error) {
	return repo.ListAcceptancesBetween(ctx, db, from, to)
}

func (RepoStore) ListAllAcceptances(ctx context.Context, db *gorm.DB) ([]domain.Acceptance, error) {
	return repo.ListAllAcceptances(ctx, db)
}

func (RepoStore) FindAcceptances(ctx context.Context, db *gorm.DB, identifier string) ([]domain.Acceptance, error) {
	return repo.FindAcceptances(ctx, db, identifier)
}

func (RepoStore) DeleteAcceptances(ctx context.Context, db *gorm.DB, identifier, username string) (int64, error) {
	return repo.DeleteAcceptances(ctx, db, identifier, username)
}
