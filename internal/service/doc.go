// Package service synchronizes a diagram with its remote data source.
//
// The Coordinator fetches snapshots and submits connect/disconnect
// commands. Every round trip runs on its own goroutine and posts its
// continuation back to the diagram's event loop, so store, cache and
// controller are only ever touched from the loop.
//
// # Stale responses
//
// Requests are numbered. A snapshot is applied only if its tenant is still
// selected and no newer snapshot has been applied; anything else is
// dropped and reported as snapshot_discarded.
//
// # Apply order
//
// Store.Replace, Store.SetTenantContext, Cache.Apply, Interaction.Reassert
// and finally a full render. The drag coordinate wins over both the
// snapshot and the cache.
//
// # Events
//
// Outcomes are published on the EventBus for SSE clients and tests.
package service
