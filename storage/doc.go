// Package storage provides the persistence layer: plaintext key/value
// backends, a sealed secret-slot store for the master key, and the encrypted
// store that every feature reads and writes through.
//
// # Backends
//
// [PlaintextStore] is the backend capability. [SQLiteStore] persists to a
// local database file and is the production backend. [MemoryStore] holds
// values in a map for tests and previews.
//
// [BoltSecretStore] stands in for a platform keystore on hosts that lack
// one. It keeps named secrets in a single bolt file, each value sealed under
// a key derived from an install passphrase.
//
// # Encrypted Store
//
// [EncryptedStore] composes a backend with the master key provider and the
// cipher engine. Values cross the backend boundary only as envelopes; a
// value that no longer decrypts is logged as data loss, removed, and
// reported as absent so one corrupt entry cannot wedge the application.
package storage
