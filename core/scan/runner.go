package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// defaultPageSize matches the chunk size used when paging local products or
// source records.
const defaultPageSize = 100

// sourceLocks tracks in-flight sessions per source instance so two scans
// against the same external source cannot race and double-count.
type sourceLocks struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func (l *sourceLocks) acquire(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.inFlight[key]; busy {
		return false
	}
	l.inFlight[key] = struct{}{}
	return true
}

func (l *sourceLocks) release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.inFlight, key)
}

// Runner executes scan sessions. Items are processed sequentially within one
// session; parallelism across sessions for different sources is safe because
// aggregate counts are session-scoped.
type Runner struct {
	repo     Repository
	matcher  *Matcher
	logger   *zap.Logger
	pageSize int
	locks    sourceLocks
}

// NewRunner creates a runner. pageSize <= 0 selects the default.
func NewRunner(repo Repository, logger *zap.Logger, pageSize int) *Runner {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Runner{
		repo:     repo,
		matcher:  NewMatcher(repo, logger),
		logger:   logger,
		pageSize: pageSize,
		locks:    sourceLocks{inFlight: make(map[string]struct{})},
	}
}

// Run executes one session against the given source. It transitions the
// session to RUNNING, processes items, and finishes in COMPLETED, FAILED or
// CANCELLED. Per-item errors are recorded as ERROR results and never abort
// the remaining items; only infrastructure failures are session-fatal.
func (r *Runner) Run(ctx context.Context, session *Session, source Source) error {
	key := session.SourceKey()
	if !r.locks.acquire(key) {
		return fmt.Errorf("%w: %s", ErrScanInProgress, key)
	}
	defer r.locks.release(key)

	if busy, err := r.repo.HasActiveSession(ctx, session.SourceType, session.SourceID, session.ID); err != nil {
		return fmt.Errorf("failed to check active sessions: %w", err)
	} else if busy {
		return fmt.Errorf("%w: %s", ErrScanInProgress, key)
	}

	if err := session.Start(time.Now()); err != nil {
		return err
	}
	if err := r.repo.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("failed to persist session start: %w", err)
	}

	r.logger.Info("scan started",
		zap.Int64("session_id", session.ID),
		zap.String("scan_type", string(session.ScanType)),
		zap.String("source", key),
	)

	err := r.execute(ctx, session, source)

	switch {
	case err == nil:
		return r.complete(ctx, session)
	case errors.Is(err, errCancelled):
		return r.cancel(ctx, session)
	default:
		return r.fail(ctx, session, err)
	}
}

// errCancelled signals a cooperative stop observed between items.
var errCancelled = errors.New("scan cancelled")

func (r *Runner) execute(ctx context.Context, session *Session, source Source) error {
	switch session.ScanType {
	case ScanLinks:
		return r.scanLocalProducts(ctx, session, source, false)
	case ScanMissingInSource:
		return r.scanLocalProducts(ctx, session, source, true)
	case ScanMissingInLocal:
		return r.scanSourceRecords(ctx, session, source)
	default:
		return fmt.Errorf("unsupported scan type: %s", session.ScanType)
	}
}

// scanLocalProducts drives the LINKS and MISSING_IN_SOURCE scans. allLocal
// selects between every local product (missing-in-source) and only products
// lacking a mapping for this source (links).
func (r *Runner) scanLocalProducts(ctx context.Context, session *Session, source Source, allLocal bool) error {
	if allLocal {
		return r.scanAllLocal(ctx, session, source)
	}

	page := 1
	for {
		if err := r.checkCancelled(ctx, session); err != nil {
			return err
		}

		products, _, err := r.repo.LocalProductsWithoutMapping(ctx, session.SourceType, session.SourceID, page, r.pageSize)
		if err != nil {
			return fmt.Errorf("failed to page local products: %w", err)
		}
		if len(products) == 0 {
			return nil
		}

		if err := r.matchBatch(ctx, session, source, products); err != nil {
			return err
		}

		if len(products) < r.pageSize {
			return nil
		}
		page++
	}
}

// scanAllLocal walks every local identity key for the MISSING_IN_SOURCE
// scan, in batches of pageSize with a cancellation check between batches.
func (r *Runner) scanAllLocal(ctx context.Context, session *Session, source Source) error {
	keys, err := r.repo.LocalIdentityKeys(ctx)
	if err != nil {
		return fmt.Errorf("failed to list local identity keys: %w", err)
	}

	for start := 0; start < len(keys); start += r.pageSize {
		if err := r.checkCancelled(ctx, session); err != nil {
			return err
		}

		end := start + r.pageSize
		if end > len(keys) {
			end = len(keys)
		}
		batch := make([]LocalProduct, 0, end-start)
		for _, key := range keys[start:end] {
			candidates, err := r.repo.FindLocalByIdentity(ctx, key)
			if err != nil {
				return fmt.Errorf("failed to load local product %q: %w", key, err)
			}
			if len(candidates) > 0 {
				batch = append(batch, candidates[0])
			}
		}

		if err := r.matchBatch(ctx, session, source, batch); err != nil {
			return err
		}
	}
	return nil
}

// matchBatch matches one batch of local products and persists the results.
func (r *Runner) matchBatch(ctx context.Context, session *Session, source Source, products []LocalProduct) error {
	for _, product := range products {
		if ctx.Err() != nil {
			return errCancelled
		}
		result := r.matcher.MatchLocal(ctx, product, source)
		result.SessionID = session.ID
		if err := r.repo.AppendResult(ctx, result); err != nil {
			return fmt.Errorf("failed to persist scan result: %w", err)
		}
	}
	return nil
}

// scanSourceRecords drives the MISSING_IN_LOCAL scan by paging FetchAll. A
// transport failure on the first page is session-fatal (the scan cannot even
// begin); a failure on a later page truncates the run there: an ERROR result
// records the gap and the session completes with a non-zero errors count,
// leaving the unscanned remainder to the next run.
func (r *Runner) scanSourceRecords(ctx context.Context, session *Session, source Source) error {
	page := 1
	for {
		if err := r.checkCancelled(ctx, session); err != nil {
			return err
		}

		records, total, err := source.FetchAll(ctx, page, r.pageSize)
		if err != nil {
			if page == 1 {
				return fmt.Errorf("source paging failed: %w", err)
			}
			result := &Result{
				SessionID:        session.ID,
				MatchStatus:      MatchError,
				ResolutionStatus: ResolutionPending,
			}
			msg := fmt.Sprintf("page %d: %v", page, err)
			result.ErrorMessage = &msg
			if appendErr := r.repo.AppendResult(ctx, result); appendErr != nil {
				return fmt.Errorf("failed to persist scan result: %w", appendErr)
			}
			r.logger.Warn("source page failed, truncating scan",
				zap.Int64("session_id", session.ID),
				zap.Int("page", page),
				zap.Error(err),
			)
			return nil
		}
		if len(records) == 0 {
			return nil
		}

		for _, rec := range records {
			if ctx.Err() != nil {
				return errCancelled
			}
			result, err := r.matcher.MatchRemote(ctx, rec)
			if err != nil {
				return fmt.Errorf("failed to match source record: %w", err)
			}
			result.SessionID = session.ID
			if err := r.repo.AppendResult(ctx, result); err != nil {
				return fmt.Errorf("failed to persist scan result: %w", err)
			}
		}

		if int64(page*r.pageSize) >= total {
			return nil
		}
		page++
	}
}

// checkCancelled observes an operator cancel between pages. Items already
// persisted stay; the session finishes in CANCELLED.
func (r *Runner) checkCancelled(ctx context.Context, session *Session) error {
	if ctx.Err() != nil {
		return errCancelled
	}
	current, err := r.repo.GetSession(ctx, session.ID)
	if err != nil {
		return fmt.Errorf("failed to reload session: %w", err)
	}
	if current.Status == StatusCancelled {
		return errCancelled
	}
	return nil
}

func (r *Runner) complete(ctx context.Context, session *Session) error {
	// An operator cancel can be persisted while the final item is in flight.
	// Terminal rows are immutable, so the stored status wins over the
	// runner's in-memory RUNNING copy.
	current, err := r.repo.GetSession(ctx, session.ID)
	if err != nil {
		return r.fail(ctx, session, fmt.Errorf("failed to reload session: %w", err))
	}
	if current.Status == StatusCancelled {
		*session = *current
		r.logger.Info("scan cancelled", zap.Int64("session_id", session.ID))
		return nil
	}

	counts, err := r.deriveCounts(ctx, session.ID)
	if err != nil {
		return r.fail(ctx, session, err)
	}
	summary := map[string]any{
		"matched":   counts.Matched,
		"unmatched": counts.Unmatched,
		"errors":    counts.Errors,
	}
	if err := session.Complete(time.Now(), counts, summary); err != nil {
		return err
	}
	if err := r.repo.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("failed to persist session completion: %w", err)
	}
	r.logger.Info("scan completed",
		zap.Int64("session_id", session.ID),
		zap.Int("total_scanned", counts.TotalScanned),
		zap.Int("matched", counts.Matched),
		zap.Int("unmatched", counts.Unmatched),
		zap.Int("errors", counts.Errors),
	)
	return nil
}

// deriveCounts recomputes the aggregate from result rows. The counters are
// never incremented in flight, so they cannot drift from the records.
func (r *Runner) deriveCounts(ctx context.Context, sessionID int64) (Counts, error) {
	byStatus, err := r.repo.CountResultsByMatchStatus(ctx, sessionID)
	if err != nil {
		return Counts{}, fmt.Errorf("failed to derive counts: %w", err)
	}
	counts := Counts{
		Matched:   byStatus[MatchMatched],
		Unmatched: byStatus[MatchUnmatched],
		Errors:    byStatus[MatchError],
	}
	counts.TotalScanned = counts.Matched + counts.Unmatched + counts.Errors
	return counts, nil
}

func (r *Runner) cancel(ctx context.Context, session *Session) error {
	if err := session.Cancel(time.Now()); err != nil {
		// Already cancelled through the repository; nothing left to do.
		if errors.Is(err, ErrInvalidTransition) {
			return nil
		}
		return err
	}
	if err := r.repo.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("failed to persist session cancellation: %w", err)
	}
	r.logger.Info("scan cancelled", zap.Int64("session_id", session.ID))
	return nil
}

func (r *Runner) fail(ctx context.Context, session *Session, cause error) error {
	if err := session.Fail(time.Now(), cause.Error()); err != nil {
		return errors.Join(cause, err)
	}
	if err := r.repo.SaveSession(ctx, session); err != nil {
		return errors.Join(cause, fmt.Errorf("failed to persist session failure: %w", err))
	}
	r.logger.Error("scan failed",
		zap.Int64("session_id", session.ID),
		zap.Error(cause),
	)
	return cause
}
