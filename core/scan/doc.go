// Package scan implements the catalog reconciliation engine: scan sessions,
// matching, field-level diffing, and bulk resolution.
//
// A scan session compares the local catalog against one external source
// through the Source contract. Three scan types exist:
//
//  1. links: local products without an external mapping are probed in the
//     source by identity key (SKU).
//  2. missing_in_local: the source's records are paged and checked against
//     the local catalog.
//  3. missing_in_source: every local identity key is probed in the source.
//
// Each item yields a Result (matched / unmatched / error) with an immutable
// snapshot of the source record and, for matched items, a normalized diff.
// Aggregate counts are derived from result rows at completion time, never
// incremented in flight.
//
// # Resolution
//
// Results are dispositioned through the Resolver's three bulk operations:
// link (upsert external mapping), create (draft local product from the
// snapshot), ignore. Operations are idempotent at the batch level and
// isolate per-item failures; a result leaves pending exactly once.
//
// # Error Taxonomy
//
// NotFound is data, not an error: it drives UNMATCHED. ErrSourceUnavailable
// is a transport/auth failure: it drives ERROR. A session completes with a
// non-zero error count for per-item failures and only fails outright for
// infrastructure-level problems (cannot page the source at all, cannot
// write to the repository).
package scan
