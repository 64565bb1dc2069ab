package hushvault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/hushvault/crypto"
	"github.com/opd-ai/hushvault/decoy"
	"github.com/opd-ai/hushvault/migrate"
	"github.com/opd-ai/hushvault/passcode"
	"github.com/opd-ai/hushvault/storage"
)

// ErrVaultClosed is returned by operations on a killed vault.
var ErrVaultClosed = errors.New("vault is closed")

// Options contains configuration for creating a Vault instance.
type Options struct {
	// Backend stores encrypted envelopes. Nil selects an in-memory store,
	// or a SQLite file under DataDir when DataDir is set.
	Backend storage.PlaintextStore

	// SecretStore holds the master key slot. Nil selects an in-memory
	// store; production hosts pass their platform keystore adapter or a
	// storage.BoltSecretStore.
	SecretStore crypto.SecretStore

	// RealCode unlocks the genuine surface, DuressCode the decoy surface.
	// Both are required: equal-length digit strings that differ.
	RealCode   string
	DuressCode string

	// MaxAttempts consecutive failures engage a lockout of LockoutBase,
	// doubling per lockout served up to LockoutCap. Zero values take the
	// passcode package defaults.
	MaxAttempts int
	LockoutBase time.Duration
	LockoutCap  time.Duration

	// DataDir is where file-backed storage lives when no Backend is given.
	DataDir string
}

// NewOptions creates Options with the default attempt policy. The passcodes
// must be set by the caller; New rejects a configuration without them.
func NewOptions() *Options {
	return &Options{
		MaxAttempts: passcode.DefaultMaxAttempts,
		LockoutBase: passcode.DefaultLockoutBase,
		LockoutCap:  passcode.DefaultLockoutCap,
	}
}

// Vault is the assembled subsystem: master key provider, cipher engine,
// encrypted store, passcode authenticator, and decoy provider, wired over
// the configured backends.
type Vault struct {
	mu      sync.Mutex
	running bool

	backend     storage.PlaintextStore
	secretStore crypto.SecretStore
	provider    *crypto.KeyProvider
	store       *storage.EncryptedStore
	auth        *passcode.Authenticator
	decoys      *decoy.Provider

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Vault with the given options.
func New(options *Options) (*Vault, error) {
	if options == nil {
		options = NewOptions()
	}

	backend := options.Backend
	if backend == nil {
		if options.DataDir != "" {
			sqlite, err := storage.NewSQLiteStore(filepath.Join(options.DataDir, "items.db"))
			if err != nil {
				return nil, fmt.Errorf("failed to open item database: %w", err)
			}
			backend = sqlite
		} else {
			backend = storage.NewMemoryStore()
		}
	}

	secretStore := options.SecretStore
	if secretStore == nil {
		secretStore = storage.NewMemorySecretStore()
	}

	provider := crypto.NewKeyProvider(secretStore, crypto.SystemRandom{})
	store := storage.NewEncryptedStore(backend, provider, crypto.NewCipherEngine(crypto.SystemRandom{}))

	auth, err := passcode.NewAuthenticator(store, passcode.Config{
		RealCode:    options.RealCode,
		DuressCode:  options.DuressCode,
		MaxAttempts: options.MaxAttempts,
		LockoutBase: options.LockoutBase,
		LockoutCap:  options.LockoutCap,
	})
	if err != nil {
		if options.Backend == nil {
			closeQuietly(backend)
		}
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	v := &Vault{
		running:     true,
		backend:     backend,
		secretStore: secretStore,
		provider:    provider,
		store:       store,
		auth:        auth,
		decoys:      decoy.NewProvider(),
		ctx:         ctx,
		cancel:      cancel,
	}

	logrus.WithFields(logrus.Fields{
		"function": "New",
		"package":  "hushvault",
	}).Info("Vault initialized")
	return v, nil
}

// Validate checks a passcode and returns which surface, if any, it opens.
// See passcode.Authenticator for the outcome and lockout semantics.
func (v *Vault) Validate(ctx context.Context, code string) (passcode.Result, error) {
	if !v.IsRunning() {
		return passcode.Result{}, ErrVaultClosed
	}
	return v.auth.Validate(ctx, code)
}

// Items returns the encrypted key/value store holding the genuine data.
func (v *Vault) Items() *storage.EncryptedStore {
	return v.store
}

// Decoy returns the fabricated content provider backing the duress surface.
func (v *Vault) Decoy() *decoy.Provider {
	return v.decoys
}

// OnCountdown registers fn to receive lockout countdown ticks. Register
// before the first Validate call; fn must not call back into the vault.
func (v *Vault) OnCountdown(fn func(remaining time.Duration)) {
	v.auth.OnCountdown(fn)
}

// OnDataLoss registers fn to be told about entries discarded because they
// no longer decrypt. Register before first use of the store.
func (v *Vault) OnDataLoss(fn func(key string, err error)) {
	v.store.DataLossHandler = fn
}

// Export seals the vault's decrypted contents under the transfer phrase.
func (v *Vault) Export(ctx context.Context, phrase []byte) ([]byte, error) {
	if !v.IsRunning() {
		return nil, ErrVaultClosed
	}
	return migrate.Export(ctx, v.store, phrase)
}

// Import opens a sealed snapshot with the transfer phrase and writes its
// entries into this vault, re-encrypted under the local master key.
func (v *Vault) Import(ctx context.Context, sealed, phrase []byte, replace bool) (int, error) {
	if !v.IsRunning() {
		return 0, ErrVaultClosed
	}
	return migrate.Import(ctx, v.store, sealed, phrase, replace)
}

// Send exports the vault and streams the sealed snapshot over rw to the
// device whose channel public key is peerPublic.
func (v *Vault) Send(ctx context.Context, rw io.ReadWriter, peerPublic, phrase []byte) error {
	sealed, err := v.Export(ctx, phrase)
	if err != nil {
		return err
	}
	key, err := migrate.GenerateChannelKey()
	if err != nil {
		return err
	}
	channel, err := migrate.Dial(rw, key, peerPublic)
	if err != nil {
		return err
	}
	return channel.Send(sealed)
}

// Receive accepts one sealed snapshot over rw and imports it. key is this
// device's channel keypair; the sender obtained its public half
// out-of-band.
func (v *Vault) Receive(ctx context.Context, rw io.ReadWriter, key *migrate.ChannelKey, phrase []byte, replace bool) (int, error) {
	if !v.IsRunning() {
		return 0, ErrVaultClosed
	}
	channel, err := migrate.Accept(rw, key)
	if err != nil {
		return 0, err
	}
	sealed, err := channel.Receive()
	if err != nil {
		return 0, err
	}
	return v.Import(ctx, sealed, phrase, replace)
}

// IsRunning reports whether the vault has not been killed.
func (v *Vault) IsRunning() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.running
}

// Kill stops the vault and releases its resources: the lockout countdown
// is stopped, the cached master key is wiped, and file-backed stores are
// closed. Safe to call multiple times.
func (v *Vault) Kill() {
	v.mu.Lock()
	if !v.running {
		v.mu.Unlock()
		return
	}
	v.running = false
	v.mu.Unlock()

	v.cancel()
	v.auth.Close()
	v.provider.Reset()
	closeQuietly(v.backend)
	closeQuietly(v.secretStore)

	logrus.WithFields(logrus.Fields{
		"function": "Kill",
		"package":  "hushvault",
	}).Info("Vault terminated")
}

// closeQuietly closes stores that hold OS resources. In-memory stores do
// not implement io.Closer and pass through untouched.
func closeQuietly(store any) {
	closer, ok := store.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "closeQuietly",
			"package":  "hushvault",
			"error":    err.Error(),
		}).Warn("Failed to close store")
	}
}
