// Package repository defines durable storage used by topomap.
//
// Position overrides outlive topology refreshes and restarts, so they are
// kept in a KeyValue store under a fixed key. Two implementations exist:
//
//   - file: a single JSON document, rewritten atomically on every Put
//   - sqlite: a kv table in a SQLite database (modernc.org/sqlite, no cgo)
//
// Callers pick one through the positions.backend config setting.
package repository
