// Package repo is the persistence layer for accepted scooters and HTTP
// idempotency records, backed by GORM over a pure-Go SQLite driver.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/scooter-intake/internal/domain"
)

// pragmas are passed in the DSN so the driver applies them to every pooled
// connection. WAL lets report queries read while the bot appends;
// busy_timeout absorbs writer contention between bot workers and the admin API.
var pragmas = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"busy_timeout(5000)",
	"temp_store(MEMORY)",
}

// maxOpenConns keeps SQLite to a small pool; it serializes writers anyway.
const maxOpenConns = 4

// OpenSQLite opens (or creates) the database file at path and applies the
// connection pragmas. The parent directory must already exist.
func OpenSQLite(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn(path)), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxOpenConns)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}

// dsn appends the pragma parameters to path.
func dsn(path string) string {
	q := make([]string, len(pragmas))
	for i, p := range pragmas {
		q[i] = "_pragma=" + p
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(q, "&")
}

// AutoMigrate creates or updates the acceptance and idempotency tables,
// including the (identifier, user_id, accepted_at) unique guard.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Acceptance{},
		&domain.Idempotency{},
	)
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
