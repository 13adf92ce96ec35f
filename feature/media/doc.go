// Package media exposes product gallery diff and sync over HTTP.
//
// It loads the desired gallery (product_images) and the persisted remote
// state (image_mappings) from MySQL through GORM, computes the minimal
// operation plan with core/mediasync and applies it through a registered
// source gallery, streaming image bytes from object storage:
//
//   - GET  /products/:id/media/diff  preview pending changes, no remote calls
//   - POST /products/:id/media/sync  apply the diff and persist the outcome
//
// The feature disables itself when either the database or object storage is
// unavailable.
package media
