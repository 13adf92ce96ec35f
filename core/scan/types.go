package scan

import (
	"errors"
	"fmt"
	"time"

	"catalog-reconciler/core/catalog"
)

// ScanType selects which side of the catalog a session walks.
type ScanType string

const (
	// ScanLinks walks local products lacking an external mapping for the
	// target source and probes the source for each.
	ScanLinks ScanType = "links"
	// ScanMissingInLocal walks the source's records and reports those absent
	// from the local catalog.
	ScanMissingInLocal ScanType = "missing_in_local"
	// ScanMissingInSource walks all local identity keys and reports those
	// the source does not know.
	ScanMissingInSource ScanType = "missing_in_source"
)

// Valid reports whether t is a known scan type.
func (t ScanType) Valid() bool {
	switch t {
	case ScanLinks, ScanMissingInLocal, ScanMissingInSource:
		return true
	default:
		return false
	}
}

// SessionStatus is the lifecycle state of a scan session.
type SessionStatus string

const (
	StatusPending   SessionStatus = "pending"
	StatusRunning   SessionStatus = "running"
	StatusCompleted SessionStatus = "completed"
	StatusFailed    SessionStatus = "failed"
	StatusCancelled SessionStatus = "cancelled"
)

// Terminal reports whether the status is final. Terminal sessions are
// immutable and accept no further results.
func (s SessionStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// MatchStatus is the per-item verdict of a scan.
type MatchStatus string

const (
	MatchMatched   MatchStatus = "matched"
	MatchUnmatched MatchStatus = "unmatched"
	MatchError     MatchStatus = "error"
)

// ResolutionStatus is the terminal disposition applied to a scan result.
type ResolutionStatus string

const (
	ResolutionPending ResolutionStatus = "pending"
	ResolutionLinked  ResolutionStatus = "linked"
	ResolutionCreated ResolutionStatus = "created"
	ResolutionIgnored ResolutionStatus = "ignored"
)

// Terminal reports whether the resolution status is final. A result
// transitions out of pending exactly once.
func (s ResolutionStatus) Terminal() bool {
	return s != ResolutionPending && s != ""
}

var (
	// ErrInvalidTransition is returned for a lifecycle transition attempted
	// on a terminal session.
	ErrInvalidTransition = errors.New("invalid session transition")

	// ErrScanInProgress is returned when a second scan is started against a
	// source that already has a running session.
	ErrScanInProgress = errors.New("scan already in progress for source")

	// ErrResolutionConflict is returned when a resolution operation is
	// attempted on a result whose match status forbids it.
	ErrResolutionConflict = errors.New("resolution conflict")

	// ErrAmbiguousMatch is returned when a link is attempted on a result
	// whose identity key matched multiple local products.
	ErrAmbiguousMatch = errors.New("ambiguous match")
)

// Counts is the aggregate of a completed session, recomputed from result
// rows rather than incremented in flight so the counters cannot drift from
// the underlying records.
type Counts struct {
	TotalScanned int `json:"total_scanned"`
	Matched      int `json:"matched_count"`
	Unmatched    int `json:"unmatched_count"`
	Errors       int `json:"errors_count"`
}

// Session is one reconciliation run against one external source.
type Session struct {
	ID           int64          `json:"id"`
	ScanType     ScanType       `json:"scan_type"`
	SourceType   string         `json:"source_type"`
	SourceID     *int64         `json:"source_id"`
	Status       SessionStatus  `json:"status"`
	StartedAt    *time.Time     `json:"started_at"`
	CompletedAt  *time.Time     `json:"completed_at"`
	Counts       Counts         `json:"counts"`
	ErrorMessage *string        `json:"error_message"`
	Summary      map[string]any `json:"result_summary,omitempty"`
	CreatedBy    string         `json:"created_by"`
}

// NewSession builds a pending session.
func NewSession(scanType ScanType, sourceType string, sourceID *int64, actor string) *Session {
	return &Session{
		ScanType:   scanType,
		SourceType: sourceType,
		SourceID:   sourceID,
		Status:     StatusPending,
		CreatedBy:  actor,
	}
}

// Start transitions the session from pending to running.
func (s *Session) Start(now time.Time) error {
	if s.Status != StatusPending {
		return fmt.Errorf("%w: cannot start session in status %q", ErrInvalidTransition, s.Status)
	}
	s.Status = StatusRunning
	s.StartedAt = &now
	return nil
}

// Complete transitions a running session to completed and records the
// derived aggregate counts.
func (s *Session) Complete(now time.Time, counts Counts, summary map[string]any) error {
	if s.Status != StatusRunning {
		return fmt.Errorf("%w: cannot complete session in status %q", ErrInvalidTransition, s.Status)
	}
	s.Status = StatusCompleted
	s.CompletedAt = &now
	s.Counts = counts
	s.Summary = summary
	return nil
}

// Fail transitions a running session to failed with the fatal error message.
func (s *Session) Fail(now time.Time, reason string) error {
	if s.Status != StatusRunning {
		return fmt.Errorf("%w: cannot fail session in status %q", ErrInvalidTransition, s.Status)
	}
	s.Status = StatusFailed
	s.CompletedAt = &now
	s.ErrorMessage = &reason
	return nil
}

// Cancel transitions a pending or running session to cancelled.
func (s *Session) Cancel(now time.Time) error {
	if s.Status.Terminal() {
		return fmt.Errorf("%w: cannot cancel session in status %q", ErrInvalidTransition, s.Status)
	}
	s.Status = StatusCancelled
	s.CompletedAt = &now
	return nil
}

// SourceKey identifies the source instance for session locking.
func (s *Session) SourceKey() string {
	if s.SourceID == nil {
		return s.SourceType
	}
	return fmt.Sprintf("%s/%d", s.SourceType, *s.SourceID)
}

// Result is the per-item outcome produced by a session. SourceData is an
// immutable snapshot of the canonical record at scan time; Diff is present
// only for matched items whose fields differ.
type Result struct {
	ID               int64            `json:"id"`
	SessionID        int64            `json:"scan_session_id"`
	SKU              string           `json:"sku"`
	ExternalID       *string          `json:"external_id"`
	LocalProductID   *int64           `json:"local_product_id"`
	MatchStatus      MatchStatus      `json:"match_status"`
	SourceData       *catalog.Record  `json:"source_data"`
	Diff             *Diff            `json:"diff,omitempty"`
	ResolutionStatus ResolutionStatus `json:"resolution_status"`
	ResolvedAt       *time.Time       `json:"resolved_at"`
	ResolvedBy       *string          `json:"resolved_by"`
	ErrorMessage     *string          `json:"error_message,omitempty"`
}

// Ambiguous reports whether the result's snapshot carries the ambiguity
// flag. Ambiguous results cannot be linked, only ignored.
func (r *Result) Ambiguous() bool {
	return r.SourceData != nil && r.SourceData.IsAmbiguous()
}

// BulkFailure is one per-item failure from a bulk resolution operation.
type BulkFailure struct {
	ResultID int64  `json:"result_id"`
	SKU      string `json:"sku"`
	Reason   string `json:"reason"`
}

// BulkOutcome is what every bulk resolution operation returns: a success
// count plus individual failures, never an all-or-nothing error.
type BulkOutcome struct {
	Succeeded int           `json:"succeeded_count"`
	Failures  []BulkFailure `json:"failures"`
}
