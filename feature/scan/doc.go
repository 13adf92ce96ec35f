// Package scan is the HTTP and persistence surface of the scan engine.
//
// It wires the core scan components (runner, matcher, resolver) to a MySQL
// database through GORM and exposes them over Fiber routes:
//
//   - POST /scans            create a session and start it in the background
//   - GET  /scans            list sessions
//   - GET  /scans/:id        one session with its aggregate counts
//   - GET  /scans/:id/results  paged results with match/resolution filters
//   - GET  /scans/:id/summary  session with live result breakdowns
//   - POST /scans/:id/cancel cooperative cancellation
//   - POST /scan-results/bulk-{link,create,ignore}  bulk resolution
//
// The feature disables itself when no database connection is available.
package scan
