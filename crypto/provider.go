package crypto

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// MasterKeySlot is the name of the single secret slot used by this subsystem.
// Exactly one slot is ever written; the store is not enumerated.
const MasterKeySlot = "hushvault.master_key"

// ErrKeyBootstrap indicates the master key could not be read or created.
// This failure is fatal for the encryption path: operating with a
// non-persisted or inconsistent key would cause silent, permanent data loss
// on re-encryption, so there is no fallback and no silent retry.
var ErrKeyBootstrap = errors.New("master key bootstrap failed")

// SecretStore is a minimal hardware-backed key/value capability for named
// secret slots. Platform adapters (OS keystore, sealed file) implement it;
// in-memory fakes stand in for tests. Get reports absence through the bool,
// not through an error, because first use on a fresh installation is the
// normal path.
type SecretStore interface {
	Get(ctx context.Context, name string) (value string, ok bool, err error)
	Set(ctx context.Context, name, value string) error
}

// KeyProvider bootstraps, caches, and single-flights retrieval of the
// process-wide master encryption key. The provider exclusively owns the
// cached key for the process lifetime. Concurrent first-time callers are
// coalesced into one underlying bootstrap; otherwise two independently
// generated keys could race into the secret slot, orphaning every value
// encrypted under the loser.
type KeyProvider struct {
	store SecretStore
	rand  RandomSource

	mu       sync.Mutex
	cached   *MasterKey
	inflight *keyBootstrap
}

// keyBootstrap is the explicit in-flight slot. It is created by the first
// caller, shared by everyone who arrives before it completes, and cleared
// under the same lock that guards the cached key.
type keyBootstrap struct {
	done chan struct{}
	key  MasterKey
	err  error
}

// NewKeyProvider creates a provider over the given secret store and random
// source. Both are required; the provider performs no I/O until Key is
// called.
func NewKeyProvider(store SecretStore, rand RandomSource) *KeyProvider {
	return &KeyProvider{
		store: store,
		rand:  rand,
	}
}

// Key returns the master key, performing the one-time bootstrap if needed.
// It is idempotent and safe to call concurrently: a cached key is returned
// without I/O, an in-flight bootstrap is joined rather than duplicated, and
// only the first caller on a fresh installation generates and persists a new
// key. Waiters honor ctx cancellation without aborting the shared bootstrap.
func (p *KeyProvider) Key(ctx context.Context) (MasterKey, error) {
	p.mu.Lock()
	if p.cached != nil {
		key := *p.cached
		p.mu.Unlock()
		return key, nil
	}
	if b := p.inflight; b != nil {
		p.mu.Unlock()
		select {
		case <-b.done:
			return b.key, b.err
		case <-ctx.Done():
			return MasterKey{}, ctx.Err()
		}
	}
	b := &keyBootstrap{done: make(chan struct{})}
	p.inflight = b
	p.mu.Unlock()

	key, err := p.bootstrap(ctx)

	p.mu.Lock()
	b.key, b.err = key, err
	if err == nil {
		cached := key
		p.cached = &cached
	}
	p.inflight = nil
	p.mu.Unlock()
	close(b.done)

	return key, err
}

// bootstrap reads the key from the secret slot, generating and persisting a
// fresh one if the slot is empty. Any store or generator failure is wrapped
// in ErrKeyBootstrap and surfaced; a partially completed bootstrap never
// caches.
func (p *KeyProvider) bootstrap(ctx context.Context) (MasterKey, error) {
	logger := NewLogger("bootstrap")

	encoded, ok, err := p.store.Get(ctx, MasterKeySlot)
	if err != nil {
		logger.WithError(err, "secret_store_get").Error("Master key slot unreachable")
		return MasterKey{}, fmt.Errorf("%w: reading secret slot: %v", ErrKeyBootstrap, err)
	}

	if ok {
		key, err := DecodeMasterKey(encoded)
		if err != nil {
			logger.WithError(err, "decode").Error("Stored master key is malformed")
			return MasterKey{}, fmt.Errorf("%w: stored key invalid: %v", ErrKeyBootstrap, err)
		}
		logger.Debug("Master key loaded from secret slot")
		return key, nil
	}

	raw, err := p.rand.Bytes(MasterKeySize)
	if err != nil {
		logger.WithError(err, "generate").Error("Master key generation failed")
		return MasterKey{}, fmt.Errorf("%w: generating key: %v", ErrKeyBootstrap, err)
	}
	var key MasterKey
	copy(key[:], raw)
	ZeroBytes(raw)

	if err := p.store.Set(ctx, MasterKeySlot, key.Encode()); err != nil {
		WipeMasterKey(&key)
		logger.WithError(err, "secret_store_set").Error("Persisting generated master key failed")
		return MasterKey{}, fmt.Errorf("%w: persisting generated key: %v", ErrKeyBootstrap, err)
	}

	logger.Info("Generated and persisted new master key")
	return key, nil
}

// Reset wipes and discards the cached key so the next Key call reads the
// secret slot again. An in-flight bootstrap is unaffected. Intended for
// tests and for hosts that drop key material when moving to the background.
func (p *KeyProvider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cached != nil {
		WipeMasterKey(p.cached)
		p.cached = nil
	}
}
