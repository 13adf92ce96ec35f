package scan

import (
	"catalog-reconciler/core/database"
	"catalog-reconciler/core/scan"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
	logger  *zap.Logger
	db      *gorm.DB
}

// NewFeature creates the scan feature. db may be nil, in which case the
// feature disables itself.
func NewFeature(db *gorm.DB, logger *zap.Logger, cfg scan.Config) *Feature {
	f := &Feature{logger: logger, db: db}
	if db != nil {
		f.service = NewService(db, logger, cfg)
		f.handler = NewHandler(f.service, logger)
	}
	return f
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "scan"
}

// IsEnabled checks if the feature is enabled. Scans cannot run without
// persistence.
func (f *Feature) IsEnabled() bool {
	return f.db != nil
}

// Load registers the feature's routes and warns about schema drift in the
// tables the feature writes.
func (f *Feature) Load(app fiber.Router) error {
	f.checkSchema()
	f.handler.RegisterRoutes(app)
	return nil
}

// Service exposes the scan service for other consumers (CLI, media feature).
func (f *Feature) Service() *Service {
	return f.service
}

func (f *Feature) checkSchema() {
	expected := map[string][]string{
		"scan_sessions": {"id", "scan_type", "source_type", "status"},
		"scan_results":  {"id", "scan_session_id", "sku", "match_status", "resolution_status"},
	}
	for table, columns := range expected {
		missing, err := database.MissingColumns(f.db, table, columns)
		if err != nil {
			f.logger.Warn("Schema check failed", zap.String("table", table), zap.Error(err))
			continue
		}
		if len(missing) > 0 {
			f.logger.Warn("Schema drift detected",
				zap.String("table", table),
				zap.Strings("missing_columns", missing),
			)
		}
	}
}
