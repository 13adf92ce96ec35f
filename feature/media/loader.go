package media

import (
	"catalog-reconciler/core/database"
	"catalog-reconciler/core/storage"

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
	store   storage.Client
}

// NewFeature creates the media feature. db and store may be nil, in which
// case the feature disables itself.
func NewFeature(db *gorm.DB, store storage.Client, bucket string, logger *zap.Logger) *Feature {
	f := &Feature{logger: logger, db: db, store: store}
	if db != nil && store != nil {
		f.service = NewService(db, store, bucket, logger)
		f.handler = NewHandler(f.service, logger)
	}
	return f
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "media"
}

// IsEnabled checks if the feature is enabled. Media sync needs both the
// database and object storage for image bytes.
func (f *Feature) IsEnabled() bool {
	return f.db != nil && f.store != nil
}

// Load registers the feature's routes and warns about schema drift in the
// tables the feature reads and writes.
func (f *Feature) Load(app fiber.Router) error {
	f.checkSchema()
	f.handler.RegisterRoutes(app)
	return nil
}

// Service exposes the media service for other consumers.
func (f *Feature) Service() *Service {
	return f.service
}

func (f *Feature) checkSchema() {
	expected := map[string][]string{
		"product_images": {"id", "product_id", "object_key", "position", "is_cover"},
		"image_mappings": {"id", "product_id", "source_type", "external_id", "position"},
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
