// Package services defines the [Catalog] interface for movie search providers and implements it for TMDB.
//
// # Catalog Interface
//
// The discovery controller only needs two things from a provider: a free-text search and a way
// to turn a poster path into an image URL.
//
// # TMDB Implementation
//
// [TMDBService] calls GET /search/movie with a v4 read access token sent as a bearer header.
// Requests pass through a token bucket limiter configured from credentials.tmdb.rate_limit.
// Poster URLs are the configured image base joined with the result's poster_path.
//
// # Raw API Client
//
// [APIService] is the underlying JSON client: base URL, default headers, optional rate limit.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrAPIRequest] : transport failure or non-2xx status
//
// Body decode failures are returned as plain wrapped errors. Callers treat both the same way.
package services
