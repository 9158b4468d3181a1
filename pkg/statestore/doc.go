// Package statestore groups durable authsdk.Persister implementations for
// hosts that outlive a single process or share sessions between processes.
//
// Subpackages:
//
//   - sqlitestore: a local SQLite file, migrated with golang-migrate
//   - redisstore: a shared Redis key, optionally expiring with the refresh token
package statestore
