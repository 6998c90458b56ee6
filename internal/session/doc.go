// Package session keeps an authenticated HTTP session alive against a cookie-authenticated backend.
//
// # Controller
//
// [Controller] tracks the expiry of two credentials, a short-lived access credential and a longer-lived
// refresh credential, as [models.ExpiryRecord] values. Records are held in memory for synchronous checks and
// written through to an [ExpiryStore]; a missing record reads as expired.
//
// # Refresh Coordination
//
// [Controller.Refresh] deduplicates concurrent callers with a singleflight group. The first caller drives the
// network call; everyone who arrives while it is in flight waits and receives the same outcome. The driver's
// call is detached from its own context and bounded by [Options.RefreshTimeout].
//
// Outcomes:
//   - nil : the access expiry was updated
//   - [shared.ErrRefreshExpired] : the refresh credential is gone; the session is torn down once, by the driver
//   - [shared.ErrRefreshFailed] : anything else; the session is left intact
//
// # Authenticated Requests
//
// [Controller.Do] refreshes ahead of a request when the access credential is known to be expired and performs at
// most one refresh-and-retry when the server answers 401 with {"error":"access_token_expired"}.
//
// # Teardown
//
// [Controller.Teardown] notifies the server in the background, clears local state, emits a [Notice] through the
// [Notifier] and, after [Options.RedirectDelay], hands the login URL to the [Redirector].
//
// # Monitor
//
// [Controller.Monitor] runs once per [Options.MonitorInterval] after a login and refreshes opportunistically so the
// access credential does not lapse between requests.
package session
