// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Acceptance model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. They follow the "thin repository"
// approach: no business logic, only persistence and query composition.
//
// Timestamps are written in UTC and windows are compared in UTC, so callers
// may pass times in any location.
//
// Functions:
//
//   - AppendAcceptances(ctx, db, recs) -> (inserted int64, error)
//     Inserts all records in one statement batch; rows that collide with the
//     (identifier, user_id, accepted_at) guard are skipped.
//
//   - ListAcceptancesBetween(ctx, db, from, to) -> []domain.Acceptance, error
//     Records with from <= accepted_at < to, oldest first.
//
//   - ListAllAcceptances(ctx, db) -> []domain.Acceptance, error
//
//   - FindAcceptances(ctx, db, identifier) -> []domain.Acceptance, error
//     History of one identifier, newest first.
//
//   - DeleteAcceptances(ctx, db, identifier, username) -> (deleted int64, error)
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/scooter-intake/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

const insertBatchSize = 100

// AppendAcceptances stores recs and reports how many rows were inserted.
// The input slice is not modified.
func AppendAcceptances(ctx context.Context, db *gorm.DB, recs []domain.Acceptance) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	rows := make([]domain.Acceptance, len(recs))
	for i, r := range recs {
		r.ID = 0
		r.AcceptedAt = r.AcceptedAt.UTC()
		rows[i] = r
	}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&rows, insertBatchSize)
	return res.RowsAffected, res.Error
}

// ListAcceptancesBetween returns records in [from, to), ordered (accepted_at ASC, id ASC).
func ListAcceptancesBetween(ctx context.Context, db *gorm.DB, from, to time.Time) ([]domain.Acceptance, error) {
	var out []domain.Acceptance
	err := db.WithContext(ctx).
		Where("accepted_at >= ? AND accepted_at < ?", from.UTC(), to.UTC()).
		Order("accepted_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// ListAllAcceptances returns every record, ordered (accepted_at ASC, id ASC).
func ListAllAcceptances(ctx context.Context, db *gorm.DB) ([]domain.Acceptance, error) {
	var out []domain.Acceptance
	err := db.WithContext(ctx).Order("accepted_at ASC, id ASC").Find(&out).Error
	return out, err
}

// FindAcceptances returns all records of a normalized identifier, newest first.
func FindAcceptances(ctx context.Context, db *gorm.DB, identifier string) ([]domain.Acceptance, error) {
	var out []domain.Acceptance
	err := db.WithContext(ctx).
		Where("identifier = ?", identifier).
		Order("accepted_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

// DeleteAcceptances removes the records of identifier accepted by username.
// It returns ErrNotFound when nothing matched.
func DeleteAcceptances(ctx context.Context, db *gorm.DB, identifier, username string) (int64, error) {
	res := db.WithContext(ctx).
		Where("identifier = ? AND username = ?", identifier, username).
		Delete(&domain.Acceptance{})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrNotFound
	}
	return res.RowsAffected, nil
}
