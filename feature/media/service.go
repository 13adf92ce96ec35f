package media

import (
	"context"
	"fmt"

	"catalog-reconciler/core/mediasync"
	"catalog-reconciler/core/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SyncResult pairs the diff that was computed with the report of what the
// apply step actually did.
type SyncResult struct {
	Diff   mediasync.Diff        `json:"diff"`
	Report mediasync.ApplyReport `json:"report"`
}

// Service computes gallery diffs between local product images and the
// persisted remote state, and applies them through a source gallery.
type Service struct {
	repo   *Repository
	syncer *mediasync.Syncer
	logger *zap.Logger
}

func NewService(db *gorm.DB, store storage.Client, bucket string, logger *zap.Logger) *Service {
	return &Service{
		repo:   NewRepository(db),
		syncer: mediasync.NewSyncer(store, bucket, logger),
		logger: logger,
	}
}

// Diff computes the pending gallery changes for one product against one
// source without touching the source.
func (s *Service) Diff(ctx context.Context, productID int64, sourceType string, sourceID *int64) (mediasync.Diff, error) {
	desired, err := s.repo.DesiredItems(ctx, productID)
	if err != nil {
		return mediasync.Diff{}, err
	}
	remote, err := s.repo.RemoteImages(ctx, productID, sourceType, sourceID)
	if err != nil {
		return mediasync.Diff{}, err
	}
	return mediasync.ComputeDiff(desired, remote), nil
}

// Sync computes the diff, applies it through the source gallery and persists
// the outcome. Partial failures are reported, not rolled back: whatever the
// gallery accepted is recorded so the next run only retries what failed.
func (s *Service) Sync(ctx context.Context, productID int64, sourceType string, sourceID *int64) (*SyncResult, error) {
	desired, err := s.repo.DesiredItems(ctx, productID)
	if err != nil {
		return nil, err
	}
	remote, err := s.repo.RemoteImages(ctx, productID, sourceType, sourceID)
	if err != nil {
		return nil, err
	}

	diff := mediasync.ComputeDiff(desired, remote)
	if !diff.HasAnyChanges() {
		return &SyncResult{Diff: diff, Report: mediasync.ApplyReport{Uploaded: map[int64]string{}}}, nil
	}

	gallery, err := mediasync.OpenGallery(sourceType, sourceID)
	if err != nil {
		return nil, err
	}

	report, err := s.syncer.Apply(ctx, diff, gallery)
	if err != nil {
		return nil, fmt.Errorf("failed to apply media sync for product %d: %w", productID, err)
	}

	if err := s.repo.SaveOutcome(ctx, productID, sourceType, sourceID, desired, diff, report); err != nil {
		return nil, err
	}

	s.logger.Info("Media sync finished",
		zap.Int64("product_id", productID),
		zap.String("source_type", sourceType),
		zap.Int("uploaded", len(report.Uploaded)),
		zap.Int("deleted", len(report.Deleted)),
		zap.Int("errors", len(report.Errors)))

	return &SyncResult{Diff: diff, Report: report}, nil
}
