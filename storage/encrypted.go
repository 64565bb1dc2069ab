package storage

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/hushvault/crypto"
	"github.com/opd-ai/hushvault/limits"
)

// EncryptedStore is the only path the rest of the application uses to
// persist data. Every value is encrypted before it reaches the backend and
// decrypted on the way out; logical keys stay in the clear so entries can be
// found and removed without the master key.
//
// Failure handling is deliberately asymmetric. A value that fails to decrypt
// is unrecoverable, so the entry is logged as data loss, removed, and
// reported as absent; the caller proceeds as on first run. A failure to
// encrypt or write is returned to the caller, because the fallback would be
// storing plaintext.
type EncryptedStore struct {
	store    PlaintextStore
	provider *crypto.KeyProvider
	engine   *crypto.CipherEngine

	// DataLossHandler, when set, is invoked after a stored value is
	// discarded because it no longer decrypts. Set before first use.
	DataLossHandler func(key string, err error)
}

// NewEncryptedStore composes a backend with the key provider and cipher
// engine that protect it.
func NewEncryptedStore(store PlaintextStore, provider *crypto.KeyProvider, engine *crypto.CipherEngine) *EncryptedStore {
	return &EncryptedStore{
		store:    store,
		provider: provider,
		engine:   engine,
	}
}

// GetItem returns the decrypted value for key, or ok=false if the key is
// absent. An entry that fails to decrypt is discarded and reported as
// absent; see the type comment.
func (e *EncryptedStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	if err := limits.ValidateStorageKey(key); err != nil {
		return "", false, err
	}

	envelope, ok, err := e.store.Get(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	if !ok {
		return "", false, nil
	}

	masterKey, err := e.provider.Key(ctx)
	if err != nil {
		return "", false, err
	}

	plaintext, err := e.engine.Decrypt(masterKey, envelope)
	if err != nil {
		e.discardUnreadable(ctx, key, err)
		return "", false, nil
	}
	return plaintext, true, nil
}

// SetItem encrypts value and stores it under key. Any failure is returned;
// on error nothing has been written and the previous value, if any, is
// intact.
func (e *EncryptedStore) SetItem(ctx context.Context, key, value string) error {
	if err := limits.ValidateStorageKey(key); err != nil {
		return err
	}

	masterKey, err := e.provider.Key(ctx)
	if err != nil {
		return err
	}

	envelope, err := e.engine.Encrypt(masterKey, value)
	if err != nil {
		return err
	}

	if err := e.store.Set(ctx, key, envelope); err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

// RemoveItem deletes key from the backend. Removal is best effort: a
// failure is logged, not returned, because every caller is discarding the
// value and has nothing further to do with the error.
func (e *EncryptedStore) RemoveItem(ctx context.Context, key string) {
	if err := limits.ValidateStorageKey(key); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "RemoveItem",
			"package":  "storage",
			"key":      key,
			"error":    err.Error(),
		}).Warn("Refusing to remove invalid key")
		return
	}

	if err := e.store.Remove(ctx, key); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "RemoveItem",
			"package":  "storage",
			"key":      key,
			"error":    err.Error(),
		}).Warn("Failed to remove stored item")
	}
}

// Keys lists the logical keys currently stored.
func (e *EncryptedStore) Keys(ctx context.Context) ([]string, error) {
	return e.store.Keys(ctx)
}

// discardUnreadable handles an entry whose envelope no longer decrypts.
// The raw entry is removed so the next read of the same key behaves like a
// first run instead of failing forever.
func (e *EncryptedStore) discardUnreadable(ctx context.Context, key string, cause error) {
	logrus.WithFields(logrus.Fields{
		"function": "discardUnreadable",
		"package":  "storage",
		"key":      key,
		"error":    cause.Error(),
	}).Error("DATA LOSS: stored value is unrecoverable, discarding entry")

	if e.DataLossHandler != nil {
		e.DataLossHandler(key, cause)
	}

	if err := e.store.Remove(ctx, key); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "discardUnreadable",
			"package":  "storage",
			"key":      key,
			"error":    err.Error(),
		}).Warn("Failed to remove unrecoverable entry")
	}
}
