package scan

import (
	"context"
	"fmt"
	"time"

	"catalog-reconciler/core/scan"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service orchestrates scan sessions and resolutions on top of the core
// engine and the gorm repository.
type Service struct {
	repo     *Repository
	runner   *scan.Runner
	resolver *scan.Resolver
	logger   *zap.Logger
}

// NewService creates a new scan service.
func NewService(db *gorm.DB, logger *zap.Logger, cfg scan.Config) *Service {
	repo := NewRepository(db)
	return &Service{
		repo:     repo,
		runner:   scan.NewRunner(repo, logger, cfg.PageSize),
		resolver: scan.NewResolver(repo, logger, cfg.ResolutionWorkers),
		logger:   logger,
	}
}

// CreateSession validates the request and persists a pending session. The
// source must be a registered adapter type and must not already have an
// active session.
func (s *Service) CreateSession(ctx context.Context, scanType scan.ScanType, sourceType string, sourceID *int64, actor string) (*scan.Session, error) {
	if !scanType.Valid() {
		return nil, fmt.Errorf("unknown scan type %q", scanType)
	}
	if !sourceRegistered(sourceType) {
		return nil, fmt.Errorf("%w: %q", scan.ErrUnknownSource, sourceType)
	}

	active, err := s.repo.HasActiveSession(ctx, sourceType, sourceID, 0)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, scan.ErrScanInProgress
	}

	session := scan.NewSession(scanType, sourceType, sourceID, actor)
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Run executes a pending session to completion. Used by the CLI; the HTTP
// handler starts sessions through StartAsync instead.
func (s *Service) Run(ctx context.Context, sessionID int64) (*scan.Session, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	source, err := scan.OpenSource(session.SourceType, session.SourceID)
	if err != nil {
		return nil, err
	}
	if err := s.runner.Run(ctx, session, source); err != nil {
		return session, err
	}
	return session, nil
}

// StartAsync launches the session in the background. The scan outlives the
// HTTP request that started it, so it runs on a detached context; stopping
// it goes through Cancel.
func (s *Service) StartAsync(sessionID int64) {
	go func() {
		if _, err := s.Run(context.Background(), sessionID); err != nil {
			s.logger.Error("Background scan failed",
				zap.Int64("session_id", sessionID),
				zap.Error(err),
			)
		}
	}()
}

// Cancel requests cancellation of a pending or running session. A running
// session stops cooperatively at its next page boundary.
func (s *Service) Cancel(ctx context.Context, sessionID int64) (*scan.Session, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.Cancel(time.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Service) GetSession(ctx context.Context, sessionID int64) (*scan.Session, error) {
	return s.repo.GetSession(ctx, sessionID)
}

func (s *Service) ListSessions(ctx context.Context, filter SessionFilter) ([]*scan.Session, int64, error) {
	return s.repo.ListSessions(ctx, filter)
}

func (s *Service) ListResults(ctx context.Context, sessionID int64, filter ResultFilter) ([]*scan.Result, int64, error) {
	if _, err := s.repo.GetSession(ctx, sessionID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListResults(ctx, sessionID, filter)
}

// SessionSummary is the session with its result breakdown by resolution
// status, for the summary endpoint.
type SessionSummary struct {
	Session     *scan.Session                 `json:"session"`
	MatchCounts map[scan.MatchStatus]int      `json:"match_counts"`
	Resolutions map[scan.ResolutionStatus]int `json:"resolutions"`
}

// Summary aggregates one session's results live from the result rows, so the
// breakdown stays accurate while resolutions are still coming in.
func (s *Service) Summary(ctx context.Context, sessionID int64) (*SessionSummary, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	matches, err := s.repo.CountResultsByMatchStatus(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	resolutions, err := s.repo.CountResultsByResolutionStatus(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &SessionSummary{Session: session, MatchCounts: matches, Resolutions: resolutions}, nil
}

func (s *Service) BulkLink(ctx context.Context, ids []int64, actor string) (scan.BulkOutcome, error) {
	return s.resolver.BulkLink(ctx, ids, actor)
}

func (s *Service) BulkCreate(ctx context.Context, ids []int64, actor string) (scan.BulkOutcome, error) {
	return s.resolver.BulkCreate(ctx, ids, actor)
}

func (s *Service) BulkIgnore(ctx context.Context, ids []int64, actor string) (scan.BulkOutcome, error) {
	return s.resolver.BulkIgnore(ctx, ids, actor)
}

func sourceRegistered(sourceType string) bool {
	for _, t := range scan.RegisteredSourceTypes() {
		if t == sourceType {
			return true
		}
	}
	return false
}
