package storage

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
	"golang.org/x/crypto/pbkdf2"

	"github.com/opd-ai/hushvault/crypto"
)

const (
	secretsBucketName = "secrets"
	metaBucketName    = "meta"
	saltKeyName       = "kdf_salt"

	// sealVersion is the current sealed-value format version:
	// [version:2][nonce:12][ciphertext+tag:N]
	sealVersion = 1

	saltSize      = 32
	kdfIterations = 100000
	gcmNonceSize  = 12
)

// BoltSecretStore keeps named secrets in a single bolt file, each value
// sealed with AES-256-GCM under a key derived from an install passphrase.
// It implements the same capability as a platform keystore and stands in
// for one on hosts that have none. The database holds two buckets: "secrets"
// for sealed values and "meta" for the KDF salt.
type BoltSecretStore struct {
	db      *bolt.DB
	sealKey [32]byte
}

// OpenBoltSecretStore opens or creates the secret database at path. The
// passphrase is run through PBKDF2 with a per-file random salt and is wiped
// before returning; callers must not reuse the slice afterwards.
func OpenBoltSecretStore(path string, passphrase []byte) (*BoltSecretStore, error) {
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("passphrase cannot be empty")
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open secret database: %w", err)
	}

	salt := make([]byte, saltSize)
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(secretsBucketName)); err != nil {
			return err
		}
		meta, err := tx.CreateBucketIfNotExists([]byte(metaBucketName))
		if err != nil {
			return err
		}

		if existing := meta.Get([]byte(saltKeyName)); existing != nil {
			if len(existing) != saltSize {
				return fmt.Errorf("invalid salt size: got %d, want %d", len(existing), saltSize)
			}
			copy(salt, existing)
			return nil
		}

		fresh, err := crypto.SystemRandom{}.Bytes(saltSize)
		if err != nil {
			return fmt.Errorf("failed to generate salt: %w", err)
		}
		copy(salt, fresh)
		return meta.Put([]byte(saltKeyName), fresh)
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize secret database: %w", err)
	}

	store := &BoltSecretStore{db: db}
	derived := pbkdf2.Key(passphrase, salt, kdfIterations, 32, sha256.New)
	copy(store.sealKey[:], derived)
	crypto.ZeroBytes(derived)
	crypto.ZeroBytes(passphrase)

	logrus.WithFields(logrus.Fields{
		"function": "OpenBoltSecretStore",
		"package":  "storage",
		"path":     path,
	}).Debug("Opened secret database")

	return store, nil
}

// Get returns the named secret, or ok=false if the slot has never been
// written. A slot that exists but no longer unseals is an error, not
// absence: treating it as absent would invite overwriting a key that still
// protects data.
func (s *BoltSecretStore) Get(ctx context.Context, name string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	var value string
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		sealed := tx.Bucket([]byte(secretsBucketName)).Get([]byte(name))
		if sealed == nil {
			return nil
		}
		plaintext, err := s.unseal(sealed)
		if err != nil {
			return fmt.Errorf("failed to unseal %q: %w", name, err)
		}
		value = string(plaintext)
		crypto.ZeroBytes(plaintext)
		found = true
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return value, found, nil
}

// Set seals and stores the named secret.
func (s *BoltSecretStore) Set(ctx context.Context, name, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sealed, err := s.seal([]byte(value))
	if err != nil {
		return fmt.Errorf("failed to seal %q: %w", name, err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(secretsBucketName)).Put([]byte(name), sealed)
	})
}

// Close wipes the seal key and releases the database handle.
func (s *BoltSecretStore) Close() error {
	crypto.ZeroBytes(s.sealKey[:])
	return s.db.Close()
}

// seal encrypts plaintext as [version:2][nonce:12][ciphertext+tag].
func (s *BoltSecretStore) seal(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(s.sealKey[:])
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce, err := crypto.SystemRandom{}.Bytes(gcmNonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	out := make([]byte, 2+len(nonce)+len(ciphertext))
	binary.BigEndian.PutUint16(out[0:2], sealVersion)
	copy(out[2:2+len(nonce)], nonce)
	copy(out[2+len(nonce):], ciphertext)
	return out, nil
}

// unseal reverses seal, verifying the version and the authentication tag.
func (s *BoltSecretStore) unseal(data []byte) ([]byte, error) {
	if len(data) < 2+gcmNonceSize+16 {
		return nil, fmt.Errorf("sealed value too short: %d bytes", len(data))
	}

	version := binary.BigEndian.Uint16(data[0:2])
	if version != sealVersion {
		return nil, fmt.Errorf("unsupported seal version: %d", version)
	}

	block, err := aes.NewCipher(s.sealKey[:])
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := data[2 : 2+gcmNonceSize]
	ciphertext := data[2+gcmNonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	return plaintext, nil
}
