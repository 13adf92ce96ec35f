package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"catalog-reconciler/core/scan"
	"catalog-reconciler/feature/scan/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the gorm-backed implementation of the scan persistence
// contract. Resolution writes run in per-item transactions so one failed
// item never poisons the rest of a bulk request.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindLocalByIdentity matches on SKU or EAN, the two business identifiers a
// source record can carry. Duplicates are returned in ID order so the
// matcher's "first candidate" pick is stable.
func (r *Repository) FindLocalByIdentity(ctx context.Context, key string) ([]scan.LocalProduct, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("(sku = ? OR ean = ?)", key, key).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find products by identity %q: %w", key, err)
	}
	return toLocalProducts(rows), nil
}

func (r *Repository) LocalProductsWithoutMapping(ctx context.Context, sourceType string, sourceID *int64, page, pageSize int) ([]scan.LocalProduct, int64, error) {
	join := "LEFT JOIN external_mappings em ON em.product_id = products.id AND em.source_type = ?"
	args := []any{sourceType}
	if sourceID != nil {
		join += " AND em.source_id = ?"
		args = append(args, *sourceID)
	}

	unmapped := func() *gorm.DB {
		return r.db.WithContext(ctx).
			Model(&models.Product{}).
			Joins(join, args...).
			Where("em.id IS NULL")
	}

	var total int64
	if err := unmapped().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count unmapped products: %w", err)
	}

	var rows []models.Product
	err := unmapped().
		Order("products.id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to page unmapped products: %w", err)
	}
	return toLocalProducts(rows), total, nil
}

func (r *Repository) LocalIdentityKeys(ctx context.Context) ([]string, error) {
	var keys []string
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("sku <> ''").
		Order("id ASC").
		Pluck("sku", &keys).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list identity keys: %w", err)
	}
	return keys, nil
}

func (r *Repository) CreateSession(ctx context.Context, session *scan.Session) error {
	row, err := models.SessionFromDomain(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create scan session: %w", err)
	}
	session.ID = row.ID
	return nil
}

func (r *Repository) SaveSession(ctx context.Context, session *scan.Session) error {
	row, err := models.SessionFromDomain(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := r.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("failed to save scan session %d: %w", session.ID, err)
	}
	return nil
}

func (r *Repository) GetSession(ctx context.Context, id int64) (*scan.Session, error) {
	var row models.ScanSession
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, fmt.Errorf("failed to load scan session %d: %w", id, err)
	}
	return row.ToDomain()
}

func (r *Repository) HasActiveSession(ctx context.Context, sourceType string, sourceID *int64, excludeSessionID int64) (bool, error) {
	q := r.db.WithContext(ctx).
		Model(&models.ScanSession{}).
		Where("source_type = ?", sourceType).
		Where("status IN ?", []string{string(scan.StatusPending), string(scan.StatusRunning)}).
		Where("id <> ?", excludeSessionID)
	if sourceID == nil {
		q = q.Where("source_id IS NULL")
	} else {
		q = q.Where("source_id = ?", *sourceID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check active sessions: %w", err)
	}
	return count > 0, nil
}

func (r *Repository) AppendResult(ctx context.Context, result *scan.Result) error {
	row, err := models.ResultFromDomain(result)
	if err != nil {
		return fmt.Errorf("failed to encode scan result: %w", err)
	}
	if row.ResolutionStatus == "" {
		row.ResolutionStatus = string(scan.ResolutionPending)
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to append scan result: %w", err)
	}
	result.ID = row.ID
	return nil
}

func (r *Repository) ResultsByIDs(ctx context.Context, ids []int64) ([]*scan.Result, error) {
	var rows []models.ScanResult
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load scan results: %w", err)
	}

	results := make([]*scan.Result, 0, len(rows))
	for _, row := range rows {
		result, err := row.ToDomain()
		if err != nil {
			return nil, fmt.Errorf("failed to decode scan result %d: %w", row.ID, err)
		}
		results = append(results, result)
	}
	return results, nil
}

func (r *Repository) CountResultsByMatchStatus(ctx context.Context, sessionID int64) (map[scan.MatchStatus]int, error) {
	type statusCount struct {
		MatchStatus string
		Count       int
	}
	var rows []statusCount
	err := r.db.WithContext(ctx).
		Model(&models.ScanResult{}).
		Select("match_status, COUNT(*) AS count").
		Where("scan_session_id = ?", sessionID).
		Group("match_status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count results for session %d: %w", sessionID, err)
	}

	counts := make(map[scan.MatchStatus]int, len(rows))
	for _, row := range rows {
		counts[scan.MatchStatus(row.MatchStatus)] = row.Count
	}
	return counts, nil
}

// CountResultsByResolutionStatus breaks a session's results down by how they
// were resolved. Feeds the summary endpoint; not part of the engine contract.
func (r *Repository) CountResultsByResolutionStatus(ctx context.Context, sessionID int64) (map[scan.ResolutionStatus]int, error) {
	type statusCount struct {
		ResolutionStatus string
		Count            int
	}
	var rows []statusCount
	err := r.db.WithContext(ctx).
		Model(&models.ScanResult{}).
		Select("resolution_status, COUNT(*) AS count").
		Where("scan_session_id = ?", sessionID).
		Group("resolution_status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count resolutions for session %d: %w", sessionID, err)
	}

	counts := make(map[scan.ResolutionStatus]int, len(rows))
	for _, row := range rows {
		counts[scan.ResolutionStatus(row.ResolutionStatus)] = row.Count
	}
	return counts, nil
}

// LinkResult upserts the external mapping and marks the result linked in one
// transaction. The unique index on product + source makes the upsert
// idempotent: re-linking refreshes the snapshot instead of duplicating.
func (r *Repository) LinkResult(ctx context.Context, result *scan.Result, actor string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := r.sessionRow(tx, result.SessionID)
		if err != nil {
			return err
		}

		var externalData json.RawMessage
		if result.SourceData != nil {
			if externalData, err = json.Marshal(result.SourceData); err != nil {
				return fmt.Errorf("failed to encode source snapshot: %w", err)
			}
		}

		now := time.Now()
		externalID := ""
		if result.ExternalID != nil {
			externalID = *result.ExternalID
		}
		mapping := models.ExternalMapping{
			ProductID:    *result.LocalProductID,
			SourceType:   session.SourceType,
			SourceID:     session.SourceID,
			ExternalID:   externalID,
			ExternalData: externalData,
			LastSyncedAt: &now,
		}
		err = tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "product_id"}, {Name: "source_type"}, {Name: "source_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"external_id", "external_data", "last_synced_at", "updated_at",
			}),
		}).Create(&mapping).Error
		if err != nil {
			return fmt.Errorf("failed to upsert external mapping: %w", err)
		}

		return r.markResolved(tx, result, scan.ResolutionLinked, actor, now)
	})
}

// CreateDraftFromResult inserts a draft product from the snapshot and marks
// the result created, atomically.
func (r *Repository) CreateDraftFromResult(ctx context.Context, result *scan.Result, actor string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := r.sessionRow(tx, result.SessionID)
		if err != nil {
			return err
		}

		draft := models.DraftFromRecord(*result.SourceData, session.SourceType, session.SourceID, actor)
		if err := tx.Create(&draft).Error; err != nil {
			return fmt.Errorf("failed to create draft product: %w", err)
		}

		return r.markResolved(tx, result, scan.ResolutionCreated, actor, time.Now())
	})
}

func (r *Repository) IgnoreResult(ctx context.Context, result *scan.Result, actor string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.markResolved(tx, result, scan.ResolutionIgnored, actor, time.Now())
	})
}

func (r *Repository) sessionRow(tx *gorm.DB, id int64) (*models.ScanSession, error) {
	var session models.ScanSession
	if err := tx.First(&session, id).Error; err != nil {
		return nil, fmt.Errorf("failed to load scan session %d: %w", id, err)
	}
	return &session, nil
}

// markResolved flips the result out of pending. The status guard in the
// WHERE clause makes the transition single-shot even under concurrent bulk
// requests: a second writer updates zero rows and fails.
func (r *Repository) markResolved(tx *gorm.DB, result *scan.Result, status scan.ResolutionStatus, actor string, now time.Time) error {
	res := tx.Model(&models.ScanResult{}).
		Where("id = ? AND resolution_status = ?", result.ID, string(scan.ResolutionPending)).
		Updates(map[string]any{
			"resolution_status": string(status),
			"resolved_at":       now,
			"resolved_by":       actor,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update scan result %d: %w", result.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: result %d already resolved", scan.ErrResolutionConflict, result.ID)
	}

	result.ResolutionStatus = status
	result.ResolvedAt = &now
	result.ResolvedBy = &actor
	return nil
}

func toLocalProducts(rows []models.Product) []scan.LocalProduct {
	out := make([]scan.LocalProduct, 0, len(rows))
	for _, row := range rows {
		out = append(out, scan.LocalProduct{ID: row.ID, Record: row.ToRecord()})
	}
	return out
}
