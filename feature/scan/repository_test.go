package scan

import (
	"context"
	"testing"
	"time"

	"catalog-reconciler/core/scan"

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

func TestRepository_FindLocalByIdentity(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	rows := sqlmock.NewRows([]string{"id", "sku", "name"}).
		AddRow(1, "A100", "First").
		AddRow(7, "A100", "Duplicate")
	mock.ExpectQuery("SELECT \\* FROM `products` WHERE \\(sku = \\? OR ean = \\?\\)").
		WithArgs("A100", "A100").
		WillReturnRows(rows)

	products, err := repo.FindLocalByIdentity(context.Background(), "A100")
	require.NoError(t, err)
	require.Len(t, products, 2)
	// ID order keeps the matcher's first-candidate pick stable.
	assert.Equal(t, int64(1), products[0].ID)
	assert.Equal(t, "A100", products[0].Record.IdentityKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_HasActiveSession(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	t.Run("No Source ID", func(t *testing.T) {
		mock.ExpectQuery("SELECT count\\(\\*\\) FROM `scan_sessions`").
			WithArgs("erp", string(scan.StatusPending), string(scan.StatusRunning), int64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		active, err := repo.HasActiveSession(context.Background(), "erp", nil, 5)
		require.NoError(t, err)
		assert.True(t, active)
	})

	t.Run("With Source ID", func(t *testing.T) {
		mock.ExpectQuery("SELECT count\\(\\*\\) FROM `scan_sessions`").
			WithArgs("erp", string(scan.StatusPending), string(scan.StatusRunning), int64(5), int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		sourceID := int64(2)
		active, err := repo.HasActiveSession(context.Background(), "erp", &sourceID, 5)
		require.NoError(t, err)
		assert.False(t, active)
	})
}

func TestRepository_CountResultsByMatchStatus(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	rows := sqlmock.NewRows([]string{"match_status", "count"}).
		AddRow("matched", 12).
		AddRow("unmatched", 3).
		AddRow("error", 1)
	mock.ExpectQuery("SELECT match_status, COUNT\\(\\*\\) AS count FROM `scan_results`").
		WithArgs(int64(9)).
		WillReturnRows(rows)

	counts, err := repo.CountResultsByMatchStatus(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, 12, counts[scan.MatchMatched])
	assert.Equal(t, 3, counts[scan.MatchUnmatched])
	assert.Equal(t, 1, counts[scan.MatchError])
}

func TestRepository_CountResultsByResolutionStatus(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	rows := sqlmock.NewRows([]string{"resolution_status", "count"}).
		AddRow("pending", 7).
		AddRow("linked", 4).
		AddRow("ignored", 2)
	mock.ExpectQuery("SELECT resolution_status, COUNT\\(\\*\\) AS count FROM `scan_results`").
		WithArgs(int64(9)).
		WillReturnRows(rows)

	counts, err := repo.CountResultsByResolutionStatus(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, 7, counts[scan.ResolutionPending])
	assert.Equal(t, 4, counts[scan.ResolutionLinked])
	assert.Equal(t, 2, counts[scan.ResolutionIgnored])
}

func TestRepository_IgnoreResult(t *testing.T) {
	t.Run("Pending Result Resolves", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `scan_results` SET").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		result := &scan.Result{ID: 3, SessionID: 1, SKU: "A100", ResolutionStatus: scan.ResolutionPending}
		require.NoError(t, repo.IgnoreResult(context.Background(), result, "tester"))

		assert.Equal(t, scan.ResolutionIgnored, result.ResolutionStatus)
		require.NotNil(t, result.ResolvedBy)
		assert.Equal(t, "tester", *result.ResolvedBy)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already Resolved Conflicts", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewRepository(db)

		// The guarded UPDATE matches zero rows when another writer won.
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `scan_results` SET").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		result := &scan.Result{ID: 3, SessionID: 1, SKU: "A100", ResolutionStatus: scan.ResolutionPending}
		err := repo.IgnoreResult(context.Background(), result, "tester")
		require.ErrorIs(t, err, scan.ErrResolutionConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_LinkResult(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `scan_sessions` WHERE `scan_sessions`.`id` = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "source_type", "source_id", "status"}).
			AddRow(1, "erp", nil, "completed"))
	mock.ExpectExec("INSERT INTO `external_mappings`").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec("UPDATE `scan_results` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	productID := int64(42)
	externalID := "ext-9"
	result := &scan.Result{
		ID:               3,
		SessionID:        1,
		SKU:              "A100",
		ExternalID:       &externalID,
		LocalProductID:   &productID,
		MatchStatus:      scan.MatchMatched,
		ResolutionStatus: scan.ResolutionPending,
	}

	require.NoError(t, repo.LinkResult(context.Background(), result, "tester"))
	assert.Equal(t, scan.ResolutionLinked, result.ResolutionStatus)
	assert.WithinDuration(t, time.Now(), *result.ResolvedAt, time.Minute)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_LocalIdentityKeys(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery("SELECT `sku` FROM `products` WHERE sku <> ''").
		WillReturnRows(sqlmock.NewRows([]string{"sku"}).AddRow("A100").AddRow("B200"))

	keys, err := repo.LocalIdentityKeys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A100", "B200"}, keys)
}
