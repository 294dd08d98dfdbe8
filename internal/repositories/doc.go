// Package repositories implements persistence for per-user movie preferences.
//
// Every store satisfies [models.PreferenceStore]: one record per user id holding two sets,
// watchedMovies and likedMovies, with atomic add and remove on each set.
//
// Key Implementations:
//   - [SQLitePreferenceStore] : Default local store on the embedded migration schema
//   - [PostgresPreferenceStore] : Shared relational store, schema created on open
//   - [MongoPreferenceStore] : Document store mirroring users/<uid> with array fields
//   - [MemoryPreferenceStore] : Process-local store for development and tests
//
// [Open] selects an implementation from the store.driver config key.
// SQLite records carry a sequence number from a dedicated sequence table for stable creation order.
package repositories
