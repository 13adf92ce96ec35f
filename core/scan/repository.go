package scan

import (
	"context"

	"catalog-reconciler/core/catalog"
)

// LocalProduct is the canonical projection of one local catalog item plus
// its primary key.
type LocalProduct struct {
	ID     int64
	Record catalog.Record
}

// Repository is the persistence contract the scan engine consumes. All
// resolution writes (LinkResult, CreateDraftFromResult, IgnoreResult) must
// be atomic per call: the side effect and the result status update commit or
// roll back together.
type Repository interface {
	// FindLocalByIdentity returns every local product whose identity key
	// matches. More than one entry means the key is ambiguous; the matcher
	// takes the first and flags the result.
	FindLocalByIdentity(ctx context.Context, key string) ([]LocalProduct, error)

	// LocalProductsWithoutMapping pages local products that have no external
	// mapping for the given source. Pages are 1-based.
	LocalProductsWithoutMapping(ctx context.Context, sourceType string, sourceID *int64, page, pageSize int) ([]LocalProduct, int64, error)

	// LocalIdentityKeys returns every non-blank identity key in the local
	// catalog.
	LocalIdentityKeys(ctx context.Context) ([]string, error)

	// CreateSession persists a new session and assigns its ID.
	CreateSession(ctx context.Context, session *Session) error

	// SaveSession persists a session state change.
	SaveSession(ctx context.Context, session *Session) error

	// GetSession reloads a session by ID.
	GetSession(ctx context.Context, id int64) (*Session, error)

	// HasActiveSession reports whether a pending or running session exists
	// for the source, excluding the given session ID.
	HasActiveSession(ctx context.Context, sourceType string, sourceID *int64, excludeSessionID int64) (bool, error)

	// AppendResult persists one scan result and assigns its ID. Fails for
	// terminal sessions.
	AppendResult(ctx context.Context, result *Result) error

	// ResultsByIDs loads results by ID; missing IDs are silently absent from
	// the returned slice.
	ResultsByIDs(ctx context.Context, ids []int64) ([]*Result, error)

	// CountResultsByMatchStatus derives the aggregate counts for a session
	// from its result rows.
	CountResultsByMatchStatus(ctx context.Context, sessionID int64) (map[MatchStatus]int, error)

	// LinkResult upserts the external mapping for the result's local product
	// (idempotent on product + source) and marks the result linked.
	LinkResult(ctx context.Context, result *Result, actor string) error

	// CreateDraftFromResult creates a draft local product from the result's
	// source snapshot and marks the result created.
	CreateDraftFromResult(ctx context.Context, result *Result, actor string) error

	// IgnoreResult marks the result ignored.
	IgnoreResult(ctx context.Context, result *Result, actor string) error
}
