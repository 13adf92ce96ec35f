// Package catalog defines the canonical record model shared by the scan
// engine and every source adapter.
//
// A Record is the lingua franca between adapters and the core: each adapter
// converts its source-specific payload (ERP rows, storefront API responses)
// into a Record and nothing else crosses the boundary. The core compares
// Records against the local catalog without knowing which system produced
// them.
//
// # Null Sentinel
//
// External systems are inconsistent about missing data: some send empty
// strings, some omit fields entirely. Record uses pointer fields plus
// Normalize so both forms collapse into nil, preventing false-positive diffs
// between "missing" and "empty".
package catalog
