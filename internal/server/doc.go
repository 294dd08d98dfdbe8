// Package server provides HTTP routing, middleware, and the OAuth callback listener used by sign-in.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// [BasicRouter] uses [http.ServeMux] internally with method filtering.
// Middleware passed first runs outermost.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the authorization code callback: it checks the state parameter,
// exchanges the code (optionally with a PKCE verifier) and sends one result through a channel.
// It only processes one callback.
//
// # Callback Server
//
// [CallbackServer] binds the configured host and port for the length of one sign-in,
// wraps the handler with [Logging] and [Recover], and shuts itself down once [CallbackServer.Wait]
// returns. There is no long-running HTTP surface.
package server
