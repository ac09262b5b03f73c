package observability

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"
)

// InstrumentDB registers the GORM tracing plugin so every query becomes a
// child span of the calling service span. Query variables are left out of
// span attributes.
func InstrumentDB(db *gorm.DB, dbName string) error {
	if err := db.Use(tracing.NewPlugin(
		tracing.WithDBName(dbName),
		tracing.WithoutQueryVariables(),
		tracing.WithoutMetrics(),
	)); err != nil {
		return fmt.Errorf("gorm tracing: %w", err)
	}
	return nil
}
