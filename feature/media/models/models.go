package models

import (
	"time"

	"catalog-reconciler/core/mediasync"
)

// ProductImage represents the 'product_images' table: the desired gallery of
// one product, ordered by Position. ObjectKey points at the stored bytes in
// the media bucket.
type ProductImage struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID int64     `gorm:"column:product_id;index"`
	ObjectKey string    `gorm:"column:object_key;size:512"`
	FileName  string    `gorm:"column:file_name;size:255"`
	Position  int       `gorm:"column:position"`
	IsCover   bool      `gorm:"column:is_cover"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (ProductImage) TableName() string {
	return "product_images"
}

// ToItem converts the row into a diff engine item.
func (p ProductImage) ToItem() mediasync.Item {
	return mediasync.Item{
		ID:        p.ID,
		Position:  p.Position,
		IsCover:   p.IsCover,
		ObjectKey: p.ObjectKey,
		FileName:  p.FileName,
	}
}

// ImageMapping represents the 'image_mappings' table: what we know about the
// remote gallery of one product per source. ProductImageID is the
// back-reference to the local image that produced the remote one; it is nil
// for remote images added out-of-band.
type ImageMapping struct {
	ID             int64      `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID      int64      `gorm:"column:product_id;index:idx_product_source_img"`
	SourceType     string     `gorm:"column:source_type;size:64;index:idx_product_source_img"`
	SourceID       *int64     `gorm:"column:source_id;index:idx_product_source_img"`
	ExternalID     string     `gorm:"column:external_id;size:128"`
	ProductImageID *int64     `gorm:"column:product_image_id"`
	Position       int        `gorm:"column:position"`
	IsCover        bool       `gorm:"column:is_cover"`
	LastSyncedAt   *time.Time `gorm:"column:last_synced_at"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`
}

func (ImageMapping) TableName() string {
	return "image_mappings"
}

// ToRemoteImage converts the row into a diff engine remote descriptor.
func (m ImageMapping) ToRemoteImage() mediasync.RemoteImage {
	return mediasync.RemoteImage{
		ExternalID: m.ExternalID,
		LocalID:    m.ProductImageID,
		Position:   m.Position,
		IsCover:    m.IsCover,
	}
}
