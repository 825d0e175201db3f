package telemetry

import (
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RegisterGormTracing installs the otelgorm plugin on the DB handle so every
// repository query produces a span. Query variables are excluded; cursor
// tokens and access-token-adjacent values must not land in span attributes.
func RegisterGormTracing(db *gorm.DB, enabled bool, logger *zap.Logger) error {
	if !enabled {
		logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	return db.Use(otelgorm.NewPlugin(
		otelgorm.WithoutQueryVariables(),
		otelgorm.WithDBName("shopmirror"),
	))
}
