// Package server provides HTTP routing, middleware and a development implementation of the session backend.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
//
// # Middleware
//
//   - [Logging] : one structured log line per request, including the X-Request-ID header
//   - [RateLimiter.Middleware] : per-client token buckets, 429 {"error":"too_many_requests"} when exhausted
//
// # Development Backend
//
// [Backend] serves the cookie session contract from memory:
//   - POST /api/register and /api/login set access_token (HS256 JWT) and refresh_token (opaque) cookies
//   - POST /api/refresh answers 401 {"error":"refresh_token_expired"} for unknown or lapsed refresh tokens
//   - POST /api/logout revokes the refresh token and expires both cookies
//   - GET /api/protected-data answers 401 {"error":"access_token_expired"} once the access token lapses
//
// Passwords are stored as argon2id hashes. Nothing survives a restart.
package server
