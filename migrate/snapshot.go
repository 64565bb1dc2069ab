package migrate

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/opd-ai/hushvault/crypto"
	"github.com/opd-ai/hushvault/limits"
)

const (
	// SnapshotVersion identifies the CBOR payload layout carried inside a
	// sealed snapshot. Import rejects payloads from any other version.
	SnapshotVersion = 1

	sealVersion       = 1
	sealVersionSize   = 2
	snapshotSaltSize  = 16
	snapshotNonceSize = 24
	snapshotKeySize   = 32

	kdfTime    = 3
	kdfMemory  = 32 * 1024
	kdfThreads = 4
)

var (
	// ErrSnapshotSealed means a sealed snapshot could not be opened with the
	// given transfer phrase. A wrong phrase and a tampered container are
	// deliberately indistinguishable.
	ErrSnapshotSealed = errors.New("sealed snapshot cannot be opened")

	// ErrSnapshotVersion means the snapshot came from an unknown format
	// version and cannot be interpreted.
	ErrSnapshotVersion = errors.New("unsupported snapshot version")
)

// Snapshot is the portable decrypted form of a vault. It only ever exists
// in memory between sealing and unsealing; at rest and in transit a
// snapshot is always the sealed container.
type Snapshot struct {
	FormatVersion uint16
	VaultID       string
	CreatedAt     int64 // epoch milliseconds
	Items         map[string]string
}

// ItemStore is the slice of the encrypted key/value store that migration
// reads from and writes into.
type ItemStore interface {
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	SetItem(ctx context.Context, key, value string) error
	Keys(ctx context.Context) ([]string, error)
}

// Export enumerates the store and returns its decrypted contents sealed
// under the transfer phrase. Entries the store reports absent are skipped;
// an unreadable entry has already been discarded by the store's recovery
// path by the time enumeration reaches it. The phrase remains owned by the
// caller and is not wiped.
func Export(ctx context.Context, store ItemStore, phrase []byte) ([]byte, error) {
	if len(phrase) == 0 {
		return nil, fmt.Errorf("transfer phrase must not be empty")
	}

	keys, err := store.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate store: %w", err)
	}

	snapshot := Snapshot{
		FormatVersion: SnapshotVersion,
		VaultID:       uuid.NewString(),
		CreatedAt:     time.Now().UnixMilli(),
		Items:         make(map[string]string, len(keys)),
	}
	for _, key := range keys {
		value, ok, err := store.GetItem(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to read %q: %w", key, err)
		}
		if !ok {
			continue
		}
		snapshot.Items[key] = value
	}

	payload, err := cbor.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	sealed, err := sealSnapshot(payload, phrase)
	crypto.ZeroBytes(payload)
	if err != nil {
		return nil, err
	}
	if err := limits.ValidateSnapshot(sealed); err != nil {
		return nil, fmt.Errorf("snapshot exceeds transferable size: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":    "Export",
		"package":     "migrate",
		"vault_id":    snapshot.VaultID,
		"items":       len(snapshot.Items),
		"sealed_size": len(sealed),
	}).Info("Exported vault snapshot")
	return sealed, nil
}

// Import opens a sealed snapshot with the transfer phrase and writes its
// entries through the store, so every value lands re-encrypted under the
// local master key. With replace false, keys already present locally are
// left untouched. Returns the number of entries written.
func Import(ctx context.Context, store ItemStore, sealed, phrase []byte, replace bool) (int, error) {
	if err := limits.ValidateSnapshot(sealed); err != nil {
		return 0, fmt.Errorf("rejecting snapshot: %w", err)
	}

	payload, err := openSnapshot(sealed, phrase)
	if err != nil {
		return 0, err
	}
	var snapshot Snapshot
	err = cbor.Unmarshal(payload, &snapshot)
	crypto.ZeroBytes(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if snapshot.FormatVersion != SnapshotVersion {
		return 0, fmt.Errorf("%w: got %d, want %d",
			ErrSnapshotVersion, snapshot.FormatVersion, SnapshotVersion)
	}

	var existing map[string]struct{}
	if !replace {
		keys, err := store.Keys(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to enumerate store: %w", err)
		}
		existing = make(map[string]struct{}, len(keys))
		for _, key := range keys {
			existing[key] = struct{}{}
		}
	}

	// Sorted order keeps a partial import reproducible.
	keys := make([]string, 0, len(snapshot.Items))
	for key := range snapshot.Items {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	imported := 0
	skipped := 0
	for _, key := range keys {
		if _, ok := existing[key]; ok {
			skipped++
			continue
		}
		if err := store.SetItem(ctx, key, snapshot.Items[key]); err != nil {
			return imported, fmt.Errorf("failed to import %q: %w", key, err)
		}
		imported++
	}

	logrus.WithFields(logrus.Fields{
		"function": "Import",
		"package":  "migrate",
		"vault_id": snapshot.VaultID,
		"imported": imported,
		"skipped":  skipped,
	}).Info("Imported vault snapshot")
	return imported, nil
}

// stretchPhrase derives the sealing key from the transfer phrase.
func stretchPhrase(phrase, salt []byte) *[snapshotKeySize]byte {
	secret := argon2.IDKey(phrase, salt, kdfTime, kdfMemory, kdfThreads, snapshotKeySize)
	key := new([snapshotKeySize]byte)
	copy(key[:], secret)
	crypto.ZeroBytes(secret)
	return key
}

// sealSnapshot wraps the CBOR payload in the versioned container:
// [version:2][salt:16][nonce:24][secretbox ciphertext].
func sealSnapshot(payload, phrase []byte) ([]byte, error) {
	salt := make([]byte, snapshotSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate snapshot salt: %w", err)
	}
	var nonce [snapshotNonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to generate snapshot nonce: %w", err)
	}

	key := stretchPhrase(phrase, salt)
	defer crypto.ZeroBytes(key[:])

	headerSize := sealVersionSize + snapshotSaltSize + snapshotNonceSize
	out := make([]byte, headerSize, headerSize+len(payload)+secretbox.Overhead)
	binary.BigEndian.PutUint16(out[:sealVersionSize], sealVersion)
	copy(out[sealVersionSize:], salt)
	copy(out[sealVersionSize+snapshotSaltSize:], nonce[:])
	return secretbox.Seal(out, payload, &nonce, key), nil
}

// openSnapshot unwraps a sealed container. The container version is checked
// before any key derivation so a wrong-format payload fails fast.
func openSnapshot(sealed, phrase []byte) ([]byte, error) {
	headerSize := sealVersionSize + snapshotSaltSize + snapshotNonceSize
	if len(sealed) < headerSize+secretbox.Overhead {
		return nil, fmt.Errorf("%w: truncated container", ErrSnapshotSealed)
	}
	if v := binary.BigEndian.Uint16(sealed[:sealVersionSize]); v != sealVersion {
		return nil, fmt.Errorf("%w: container version %d", ErrSnapshotVersion, v)
	}

	salt := sealed[sealVersionSize : sealVersionSize+snapshotSaltSize]
	var nonce [snapshotNonceSize]byte
	copy(nonce[:], sealed[sealVersionSize+snapshotSaltSize:headerSize])

	key := stretchPhrase(phrase, salt)
	defer crypto.ZeroBytes(key[:])

	payload, ok := secretbox.Open(nil, sealed[headerSize:], &nonce, key)
	if !ok {
		return nil, ErrSnapshotSealed
	}
	return payload, nil
}
