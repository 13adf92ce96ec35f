package scan

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"catalog-reconciler/core/catalog"
)

// ErrSourceUnavailable signals a transport or auth failure while querying a
// source. It is a different fact than "not found": absence of data drives
// UNMATCHED, failure to query drives ERROR, and the two must never be
// conflated.
var ErrSourceUnavailable = errors.New("source unavailable")

// ErrUnknownSource is returned by OpenSource for an unregistered source type.
var ErrUnknownSource = errors.New("unknown source type")

// LookupState tags the outcome of a single-record source lookup.
type LookupState int

const (
	// LookupFound means the source returned a record for the identity key.
	LookupFound LookupState = iota
	// LookupNotFound means the source has no record for the identity key.
	// This is a first-class result, not an error.
	LookupNotFound
	// LookupUnavailable means the source could not be queried. A deadline
	// exceeded on the adapter call is reported the same way.
	LookupUnavailable
)

// Lookup is the tagged result of FetchByIdentity. Branching on State makes
// the ERROR vs UNMATCHED distinction a compile-time-checked switch instead of
// an exception-handling convention.
type Lookup struct {
	State  LookupState
	Record *catalog.Record
	Err    error
}

// Found builds a successful lookup.
func Found(rec *catalog.Record) Lookup {
	return Lookup{State: LookupFound, Record: rec}
}

// NotFound builds an absent-data lookup.
func NotFound() Lookup {
	return Lookup{State: LookupNotFound}
}

// Unavailable builds a failed lookup wrapping the transport error.
func Unavailable(err error) Lookup {
	if err == nil {
		err = ErrSourceUnavailable
	}
	return Lookup{State: LookupUnavailable, Err: fmt.Errorf("%w: %v", ErrSourceUnavailable, err)}
}

// Source is the contract every external system adapter implements. Adapters
// own retries for transient transport errors; the core never retries.
type Source interface {
	// Type returns the source type identifier (e.g. "baselinker",
	// "storefront").
	Type() string

	// FetchByIdentity looks up one record by its identity key. Must never
	// report NotFound as an error; the caller's context deadline bounds the
	// call and exceeding it yields LookupUnavailable.
	FetchByIdentity(ctx context.Context, key string) Lookup

	// FetchAll returns one page of canonical records plus the total count.
	// Transport failures surface as an ErrSourceUnavailable-wrapped error.
	// Pages are 1-based.
	FetchAll(ctx context.Context, page, pageSize int) ([]catalog.Record, int64, error)
}

// SourceFactory opens a source instance. A nil sourceID means "first active
// instance of this type"; resolving that is the factory's concern.
type SourceFactory func(sourceID *int64) (Source, error)

var (
	sourcesMu sync.RWMutex
	sources   = make(map[string]SourceFactory)
)

// RegisterSource registers a factory for a source type. Adapters call this
// from their init or wiring code. Registering the same type twice replaces
// the previous factory.
func RegisterSource(sourceType string, factory SourceFactory) {
	sourcesMu.Lock()
	defer sourcesMu.Unlock()
	sources[sourceType] = factory
}

// OpenSource opens a source of the given type.
func OpenSource(sourceType string, sourceID *int64) (Source, error) {
	sourcesMu.RLock()
	factory, ok := sources[sourceType]
	sourcesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, sourceType)
	}
	return factory(sourceID)
}

// RegisteredSourceTypes returns the registered source types, sorted.
func RegisteredSourceTypes() []string {
	sourcesMu.RLock()
	defer sourcesMu.RUnlock()
	types := make([]string, 0, len(sources))
	for t := range sources {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
