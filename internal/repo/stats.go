// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/scooter-intake/internal/domain"
)

// AcceptanceStats returns the number of records in [from, to) and the id of
// the newest row among them. A zero `to` means no upper bound.
//
// Rows are immutable once written, so (count, maxID) changes whenever the
// window's content does, including deletions.
func AcceptanceStats(ctx context.Context, db *gorm.DB, from, to time.Time) (count int64, maxID uint, err error) {
	q := db.WithContext(ctx).Model(&domain.Acceptance{}).Where("accepted_at >= ?", from.UTC())
	if !to.IsZero() {
		q = q.Where("accepted_at < ?", to.UTC())
	}

	// Count
	if err = q.Count(&count).Error; err != nil {
		return 0, 0, err
	}
	if count == 0 {
		return 0, 0, nil
	}

	var row struct {
		ID uint
	}
	if err = q.Select("id").Order("id DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	return count, row.ID, nil
}
