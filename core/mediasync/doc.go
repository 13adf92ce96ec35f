// Package mediasync computes and applies minimal media gallery diffs.
//
// ComputeDiff partitions a product's desired images against the remote
// gallery state into uploads, deletes and unchanged items, and detects cover
// and ordering changes. The diff is a value object recomputed per invocation;
// nothing here is persisted. Syncer applies a diff through the Gallery
// interface, pulling image bytes from object storage, and tolerates partial
// failure so one broken image never blocks the rest of a gallery.
package mediasync
