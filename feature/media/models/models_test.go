package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProductImage_ToItem(t *testing.T) {
	row := ProductImage{
		ID:        10,
		ProductID: 42,
		ObjectKey: "products/42/front.jpg",
		FileName:  "front.jpg",
		Position:  2,
		IsCover:   true,
	}

	item := row.ToItem()
	assert.Equal(t, int64(10), item.ID)
	assert.Equal(t, 2, item.Position)
	assert.True(t, item.IsCover)
	assert.Equal(t, "products/42/front.jpg", item.ObjectKey)
	assert.Equal(t, "front.jpg", item.FileName)
}

func TestImageMapping_ToRemoteImage(t *testing.T) {
	imageID := int64(10)
	synced := time.Now()
	row := ImageMapping{
		ID:             3,
		ProductID:      42,
		SourceType:     "storefront",
		ExternalID:     "ext-77",
		ProductImageID: &imageID,
		Position:       1,
		IsCover:        false,
		LastSyncedAt:   &synced,
	}

	remote := row.ToRemoteImage()
	assert.Equal(t, "ext-77", remote.ExternalID)
	assert.Equal(t, &imageID, remote.LocalID)
	assert.Equal(t, 1, remote.Position)
	assert.False(t, remote.IsCover)
}

func TestImageMapping_ToRemoteImage_Foreign(t *testing.T) {
	remote := ImageMapping{ExternalID: "foreign-1", Position: 0}.ToRemoteImage()
	assert.Nil(t, remote.LocalID)
}
