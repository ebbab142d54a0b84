// Package history persists per-request metadata backed by SQLite.
//
// Only outcomes are stored: which task ran, which model answered, how many
// attempts it took, and how the request was classified on failure. Payloads
// and generated media never touch the store.
package history
