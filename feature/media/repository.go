package media

import (
	"context"
	"fmt"
	"sort"
	"time"

	"catalog-reconciler/core/mediasync"
	"catalog-reconciler/feature/media/models"

	"gorm.io/gorm"
)

// Repository loads desired and remote gallery state and persists the outcome
// of an applied sync.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DesiredItems returns the product's gallery rows in position order.
func (r *Repository) DesiredItems(ctx context.Context, productID int64) ([]mediasync.Item, error) {
	var rows []models.ProductImage
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("position ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load product images for product %d: %w", productID, err)
	}

	items := make([]mediasync.Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.ToItem())
	}
	return items, nil
}

// RemoteImages returns the persisted view of the product's remote gallery
// for one source.
func (r *Repository) RemoteImages(ctx context.Context, productID int64, sourceType string, sourceID *int64) ([]mediasync.RemoteImage, error) {
	var rows []models.ImageMapping
	err := r.sourceScope(ctx, productID, sourceType, sourceID).
		Order("position ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load image mappings for product %d: %w", productID, err)
	}

	images := make([]mediasync.RemoteImage, 0, len(rows))
	for _, row := range rows {
		images = append(images, row.ToRemoteImage())
	}
	return images, nil
}

// SaveOutcome persists what an applied sync actually changed: deleted
// mappings go away, uploads gain mapping rows at their desired ordinal, and
// cover/position updates land on the surviving rows. Runs in one
// transaction.
func (r *Repository) SaveOutcome(ctx context.Context, productID int64, sourceType string, sourceID *int64, desired []mediasync.Item, diff mediasync.Diff, report mediasync.ApplyReport) error {
	ordinals := desiredOrdinals(desired)
	now := time.Now()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scope := func() *gorm.DB {
			q := tx.Model(&models.ImageMapping{}).
				Where("product_id = ? AND source_type = ?", productID, sourceType)
			if sourceID == nil {
				return q.Where("source_id IS NULL")
			}
			return q.Where("source_id = ?", *sourceID)
		}

		if len(report.Deleted) > 0 {
			err := scope().Where("external_id IN ?", report.Deleted).
				Delete(&models.ImageMapping{}).Error
			if err != nil {
				return fmt.Errorf("failed to delete image mappings: %w", err)
			}
		}

		for _, item := range diff.ToUpload {
			externalID, ok := report.Uploaded[item.ID]
			if !ok {
				continue // upload failed, no remote row to record
			}
			imageID := item.ID
			mapping := models.ImageMapping{
				ProductID:      productID,
				SourceType:     sourceType,
				SourceID:       sourceID,
				ExternalID:     externalID,
				ProductImageID: &imageID,
				Position:       ordinals[item.ID],
				IsCover:        report.CoverSet != "" && report.CoverSet == externalID,
				LastSyncedAt:   &now,
			}
			if err := tx.Create(&mapping).Error; err != nil {
				return fmt.Errorf("failed to create image mapping: %w", err)
			}
		}

		if report.PositionsUpdated > 0 {
			for externalID, position := range diff.PositionUpdates {
				err := scope().Where("external_id = ?", externalID).
					Updates(map[string]any{"position": position, "last_synced_at": now}).Error
				if err != nil {
					return fmt.Errorf("failed to update image mapping position: %w", err)
				}
			}
		}

		if report.CoverSet != "" {
			if err := scope().Update("is_cover", false).Error; err != nil {
				return fmt.Errorf("failed to clear cover flags: %w", err)
			}
			err := scope().Where("external_id = ?", report.CoverSet).
				Updates(map[string]any{"is_cover": true, "last_synced_at": now}).Error
			if err != nil {
				return fmt.Errorf("failed to set cover flag: %w", err)
			}
		}

		return nil
	})
}

// desiredOrdinals maps each item ID to its ordinal index in position order,
// the position every image ends up at after a converging sync.
func desiredOrdinals(desired []mediasync.Item) map[int64]int {
	ordered := make([]mediasync.Item, len(desired))
	copy(ordered, desired)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position < ordered[j].Position
	})

	ordinals := make(map[int64]int, len(ordered))
	for i, item := range ordered {
		ordinals[item.ID] = i
	}
	return ordinals
}

func (r *Repository) sourceScope(ctx context.Context, productID int64, sourceType string, sourceID *int64) *gorm.DB {
	q := r.db.WithContext(ctx).
		Where("product_id = ? AND source_type = ?", productID, sourceType)
	if sourceID == nil {
		return q.Where("source_id IS NULL")
	}
	return q.Where("source_id = ?", *sourceID)
}
