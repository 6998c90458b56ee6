// Package services talks to the cookie-authenticated session backend.
//
// # AuthAPI
//
// [AuthAPI] implements session.Backend over HTTP. Credentials are never handled directly: the backend sets
// access_token and refresh_token cookies and the client's cookie jar sends them back, so the same
// [http.Client] must be used for every call of one session. [NewHTTPClient] builds one with a jar backed by the
// public suffix list.
//
// Endpoints (configurable, see [Endpoints]):
//   - POST /api/login : credentials in, {access_expires_in, refresh_expires_in} out
//   - POST /api/register : same contract as login
//   - POST /api/refresh : {access_expires_in} or {error: "refresh_token_expired"}
//   - POST /api/logout : result ignored beyond transport errors
//
// Server-side rejections are decoded into [models.AuthResult] and [models.RefreshResult] rather than returned
// as errors. Transport failures wrap [shared.ErrAPIRequest].
//
// Every request carries an X-Request-ID header.
package services
