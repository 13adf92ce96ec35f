package media

import (
	"context"
	"testing"

	"catalog-reconciler/core/mediasync"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestRepository_DesiredItems(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	rows := sqlmock.NewRows([]string{"id", "product_id", "object_key", "file_name", "position", "is_cover"}).
		AddRow(10, 42, "p/42/a.jpg", "a.jpg", 0, true).
		AddRow(11, 42, "p/42/b.jpg", "b.jpg", 1, false)
	mock.ExpectQuery("SELECT \\* FROM `product_images` WHERE product_id = \\? ORDER BY position ASC, id ASC").
		WithArgs(int64(42)).
		WillReturnRows(rows)

	items, err := repo.DesiredItems(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(10), items[0].ID)
	assert.True(t, items[0].IsCover)
	assert.Equal(t, "p/42/b.jpg", items[1].ObjectKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_RemoteImages(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	t.Run("No Source ID", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "external_id", "product_image_id", "position", "is_cover"}).
			AddRow(1, "ext-1", 10, 0, true)
		mock.ExpectQuery("SELECT \\* FROM `image_mappings` WHERE \\(product_id = \\? AND source_type = \\?\\) AND source_id IS NULL").
			WithArgs(int64(42), "storefront").
			WillReturnRows(rows)

		remote, err := repo.RemoteImages(context.Background(), 42, "storefront", nil)
		require.NoError(t, err)
		require.Len(t, remote, 1)
		require.NotNil(t, remote[0].LocalID)
		assert.Equal(t, int64(10), *remote[0].LocalID)
	})

	t.Run("With Source ID", func(t *testing.T) {
		mock.ExpectQuery("SELECT \\* FROM `image_mappings` WHERE \\(product_id = \\? AND source_type = \\?\\) AND source_id = \\?").
			WithArgs(int64(42), "storefront", int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		sourceID := int64(3)
		remote, err := repo.RemoteImages(context.Background(), 42, "storefront", &sourceID)
		require.NoError(t, err)
		assert.Empty(t, remote)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_SaveOutcome(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	desired := []mediasync.Item{
		{ID: 10, Position: 0, IsCover: true, ObjectKey: "p/a.jpg"},
		{ID: 11, Position: 1, ObjectKey: "p/b.jpg"},
	}
	diff := mediasync.Diff{
		ToUpload:     desired,
		ToDelete:     []mediasync.RemoteImage{{ExternalID: "stale-9"}},
		CoverChanged: true,
	}
	report := mediasync.ApplyReport{
		Uploaded: map[int64]string{10: "ext-10", 11: "ext-11"},
		Deleted:  []string{"stale-9"},
		CoverSet: "ext-10",
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `image_mappings`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `image_mappings`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO `image_mappings`").
		WillReturnResult(sqlmock.NewResult(2, 1))
	// cover flags: clear everything, then set the new cover
	mock.ExpectExec("UPDATE `image_mappings` SET `is_cover`=\\?").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("UPDATE `image_mappings` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.SaveOutcome(context.Background(), 42, "storefront", nil, desired, diff, report)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_SaveOutcome_SkipsFailedUploads(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	desired := []mediasync.Item{{ID: 10, Position: 0, ObjectKey: "p/a.jpg"}}
	diff := mediasync.Diff{ToUpload: desired}
	// upload failed remotely, nothing to record
	report := mediasync.ApplyReport{Uploaded: map[int64]string{}}

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := repo.SaveOutcome(context.Background(), 42, "storefront", nil, desired, diff, report)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_SaveOutcome_PositionUpdates(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	desired := []mediasync.Item{
		{ID: 10, Position: 0},
		{ID: 11, Position: 1},
	}
	diff := mediasync.Diff{
		OrderChanged:    true,
		PositionUpdates: map[string]int{"ext-11": 1},
	}
	report := mediasync.ApplyReport{Uploaded: map[int64]string{}, PositionsUpdated: 1}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `image_mappings` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.SaveOutcome(context.Background(), 42, "storefront", nil, desired, diff, report)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDesiredOrdinals(t *testing.T) {
	ordinals := desiredOrdinals([]mediasync.Item{
		{ID: 7, Position: 30},
		{ID: 3, Position: 10},
		{ID: 5, Position: 20},
	})
	assert.Equal(t, map[int64]int{3: 0, 5: 1, 7: 2}, ordinals)
}
