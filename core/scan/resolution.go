package scan

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// defaultResolutionWorkers bounds the concurrency of bulk resolution
// operations. Items are independent once dispatched; each item's side
// effects are atomic inside the repository, so cross-item ordering does not
// matter.
const defaultResolutionWorkers = 4

// Resolver applies bulk operations (link, create-draft, ignore) to scan
// results. All operations are idempotent at the batch level: re-running over
// an overlapping ID set silently skips already-resolved results instead of
// failing them.
type Resolver struct {
	repo    Repository
	logger  *zap.Logger
	workers int
}

// NewResolver creates a resolver. workers <= 0 selects the default.
func NewResolver(repo Repository, logger *zap.Logger, workers int) *Resolver {
	if workers <= 0 {
		workers = defaultResolutionWorkers
	}
	return &Resolver{repo: repo, logger: logger, workers: workers}
}

// BulkLink links every matched, pending result in ids to its local product
// by upserting the external mapping. Guards:
//   - already-resolved results are skipped silently
//   - non-matched results (unmatched, error) are rejected per item
//   - ambiguous matches are rejected per item
func (r *Resolver) BulkLink(ctx context.Context, ids []int64, actor string) (BulkOutcome, error) {
	return r.run(ctx, ids, actor, "link", func(result *Result) error {
		if result.MatchStatus != MatchMatched {
			return fmt.Errorf("%w: cannot link result with match status %q", ErrResolutionConflict, result.MatchStatus)
		}
		if result.Ambiguous() {
			return fmt.Errorf("%w: identity key %q has multiple local candidates", ErrAmbiguousMatch, result.SKU)
		}
		if result.LocalProductID == nil {
			return fmt.Errorf("%w: result has no local product", ErrResolutionConflict)
		}
		return nil
	}, r.repo.LinkResult)
}

// BulkCreate creates draft local products from every unmatched, pending
// result in ids.
func (r *Resolver) BulkCreate(ctx context.Context, ids []int64, actor string) (BulkOutcome, error) {
	return r.run(ctx, ids, actor, "create", func(result *Result) error {
		if result.MatchStatus != MatchUnmatched {
			return fmt.Errorf("%w: cannot create draft from result with match status %q", ErrResolutionConflict, result.MatchStatus)
		}
		if result.SourceData == nil {
			return fmt.Errorf("%w: result has no source snapshot", ErrResolutionConflict)
		}
		return nil
	}, r.repo.CreateDraftFromResult)
}

// BulkIgnore marks every pending result in ids ignored, regardless of match
// status. This is the only operation valid on ERROR results.
func (r *Resolver) BulkIgnore(ctx context.Context, ids []int64, actor string) (BulkOutcome, error) {
	return r.run(ctx, ids, actor, "ignore", func(*Result) error {
		return nil
	}, r.repo.IgnoreResult)
}

// run loads the results, applies the guard and operation per item with
// bounded concurrency, and collects the outcome. Per-item failures never
// abort the remaining items.
func (r *Resolver) run(
	ctx context.Context,
	ids []int64,
	actor string,
	op string,
	guard func(*Result) error,
	apply func(context.Context, *Result, string) error,
) (BulkOutcome, error) {
	results, err := r.repo.ResultsByIDs(ctx, ids)
	if err != nil {
		return BulkOutcome{}, fmt.Errorf("failed to load scan results: %w", err)
	}

	var (
		mu      sync.Mutex
		outcome BulkOutcome
		skipped int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, result := range results {
		g.Go(func() error {
			// Already-terminal results are a silent skip, not a failure,
			// so overlapping batches stay safe to re-run.
			if result.ResolutionStatus.Terminal() {
				mu.Lock()
				skipped++
				mu.Unlock()
				return nil
			}

			if err := guard(result); err != nil {
				mu.Lock()
				outcome.Failures = append(outcome.Failures, BulkFailure{
					ResultID: result.ID,
					SKU:      result.SKU,
					Reason:   err.Error(),
				})
				mu.Unlock()
				return nil
			}

			if err := apply(gctx, result, actor); err != nil {
				mu.Lock()
				outcome.Failures = append(outcome.Failures, BulkFailure{
					ResultID: result.ID,
					SKU:      result.SKU,
					Reason:   err.Error(),
				})
				mu.Unlock()
				return nil
			}

			mu.Lock()
			outcome.Succeeded++
			mu.Unlock()
			return nil
		})
	}

	// Workers only report per-item failures through the outcome; Wait's
	// error is always nil here.
	_ = g.Wait()

	r.logger.Info("bulk resolution finished",
		zap.String("operation", op),
		zap.String("actor", actor),
		zap.Int("requested", len(ids)),
		zap.Int("succeeded", outcome.Succeeded),
		zap.Int("skipped", skipped),
		zap.Int("failed", len(outcome.Failures)),
	)

	return outcome, nil
}
