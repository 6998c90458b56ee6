// Package repositories persists session state.
//
// Key Implementations:
//   - [ExpiryRepository] : expiry records in SQLite, one row per credential kind
//   - [RedisExpiryStore] : expiry records in redis, keys lapse with the credential
//   - [EventRepository] : audit trail of session lifecycle transitions in SQLite
//
// Expiries are stored as epoch milliseconds. [Open] picks the expiry backend named by the store driver.
package repositories
