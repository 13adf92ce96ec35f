package scan

import (
	"context"
	"fmt"

	"catalog-reconciler/core/scan"
	"catalog-reconciler/feature/scan/models"

	"gorm.io/gorm"
)

// SessionFilter narrows and pages the session listing.
type SessionFilter struct {
	Status     string
	SourceType string
	Page       int
	PageSize   int
}

// ResultFilter narrows and pages the result listing of one session.
type ResultFilter struct {
	MatchStatus      string
	ResolutionStatus string
	Page             int
	PageSize         int
}

func (r *Repository) ListSessions(ctx context.Context, filter SessionFilter) ([]*scan.Session, int64, error) {
	query := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.ScanSession{})
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.SourceType != "" {
			q = q.Where("source_type = ?", filter.SourceType)
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count scan sessions: %w", err)
	}

	var rows []models.ScanSession
	err := query().
		Order("id DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list scan sessions: %w", err)
	}

	sessions := make([]*scan.Session, 0, len(rows))
	for _, row := range rows {
		session, err := row.ToDomain()
		if err != nil {
			return nil, 0, fmt.Errorf("failed to decode scan session %d: %w", row.ID, err)
		}
		sessions = append(sessions, session)
	}
	return sessions, total, nil
}

func (r *Repository) ListResults(ctx context.Context, sessionID int64, filter ResultFilter) ([]*scan.Result, int64, error) {
	query := func() *gorm.DB {
		q := r.db.WithContext(ctx).
			Model(&models.ScanResult{}).
			Where("scan_session_id = ?", sessionID)
		if filter.MatchStatus != "" {
			q = q.Where("match_status = ?", filter.MatchStatus)
		}
		if filter.ResolutionStatus != "" {
			q = q.Where("resolution_status = ?", filter.ResolutionStatus)
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count scan results: %w", err)
	}

	var rows []models.ScanResult
	err := query().
		Order("id ASC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list scan results: %w", err)
	}

	results := make([]*scan.Result, 0, len(rows))
	for _, row := range rows {
		result, err := row.ToDomain()
		if err != nil {
			return nil, 0, fmt.Errorf("failed to decode scan result %d: %w", row.ID, err)
		}
		results = append(results, result)
	}
	return results, total, nil
}
