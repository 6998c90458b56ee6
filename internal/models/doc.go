// Package models defines the data exchanged between the session controller, its stores, and the backend API.
//
// The package contains two categories of types:
//
// 1. Wire payloads: JSON bodies of the authentication endpoints
//   - [Credentials] : Login or registration fields, sent verbatim
//   - [AuthResult] : Login/register outcome, including the server's {error} payload
//   - [RefreshResult] : Refresh outcome with the new access lifetime
//
// 2. Persistent entities: records written by the session controller
//   - [ExpiryRecord] : Expiry timestamp for one credential [Kind]
//   - [SessionEvent] : Audit entry for a session lifecycle transition
//
// Expiry timestamps are persisted as epoch milliseconds; see [ExpiryRecord.Millis].
package models
