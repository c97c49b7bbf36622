// Package server provides the local HTTP plumbing for CLI OAuth flows.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback flow.
//
// The handler validates the state parameter (CSRF protection), exchanges the authorization code for tokens,
// and sends the result through a channel.
//
// It only processes one callback to prevent replay attacks.
//
// # Callback Flow
//
// [CallbackFlow] ties the pieces together for the auth command: it starts a
// temporary HTTP server on the configured address (localhost:3000 by default,
// matching the registered Spotify redirect URI), opens the user's browser to
// the authorization URL, waits for the callback, and shuts the server down
// once a token or an error arrives.
package server
