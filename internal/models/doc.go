// Package models defines domain entities and the persistence port for the CineMatch movie discovery client.
//
// The package contains two categories of types:
//
// 1. View data: values that live only in client state
//   - [Session] : The signed-in identity as published by an auth provider
//   - [Movie] : A catalog search result
//
// 2. Persisted data: the per-user preference record
//   - [Preferences] : Watched and liked sets keyed by user id
//   - [MovieSet] : Hash set of movie ids, duplicates impossible
//   - [List] : Selects which set a toggle targets
//
// The [PreferenceStore] interface is the storage port. Implementations live in the repositories package.
package models
