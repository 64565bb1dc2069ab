// Package crypto implements the cryptographic core of the hushvault library.
//
// This package provides the master key lifecycle and the envelope cipher that
// protect all locally persisted application data. It defines the two
// capability interfaces the rest of the library depends on ([RandomSource]
// and [SecretStore]) so that platform-specific adapters and in-memory test
// fakes stay interchangeable, and keeps all key material handling in one
// place with secure wiping on teardown.
//
// # Core Types
//
//   - [MasterKey]: the single 256-bit symmetric key protecting persisted data
//   - [KeyProvider]: caches, single-flights, and bootstraps the master key
//   - [CipherEngine]: AES-256-CBC envelope encryption of opaque strings
//   - [RandomSource]: CSPRNG capability consumed by key and IV generation
//   - [SecretStore]: single-slot hardware-backed secret storage capability
//
// # Master Key Lifecycle
//
// The master key is generated once per installation and then read-cached for
// the process lifetime. Concurrent first-time callers are coalesced into a
// single bootstrap so two keys can never race into the secret slot:
//
//	provider := crypto.NewKeyProvider(secretStore, crypto.SystemRandom{})
//	key, err := provider.Key(ctx)
//	if err != nil {
//	    // bootstrap failure is fatal; no encryption is possible
//	}
//
// # Envelope Encryption
//
// Every encryption call draws a fresh 16-byte IV and serializes the result
// as two base64 fields joined by a colon. The format is a stable on-disk
// contract; changing it would lock users out of their own data:
//
//	engine := crypto.NewCipherEngine(crypto.SystemRandom{})
//	envelope, err := engine.Encrypt("application state", key)
//	plaintext, err := engine.Decrypt(envelope, key)
//
// Decryption rejects malformed envelopes with [ErrInvalidCiphertext] and
// wrong-key or implausible results with [ErrDecryptionFailed]. The two are
// related: errors.Is(ErrInvalidCiphertext, ErrDecryptionFailed) holds, so
// callers that only care about "could not recover the value" match both with
// a single check.
//
// # Memory Hygiene
//
// Key material is wiped with [SecureWipe] when no longer needed. Logging
// never includes secrets; [SecureFieldHash] produces a short non-reversible
// preview for ciphertext fields only.
package crypto
