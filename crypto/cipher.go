package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/opd-ai/hushvault/limits"
)

const (
	// IVSize is the AES-CBC initialization vector length in bytes. A fresh
	// IV is drawn for every Encrypt call; reuse under the same key would
	// leak equal-prefix information across stored values.
	IVSize = 16

	// EnvelopeDelimiter separates the IV and ciphertext fields of the
	// stored envelope. Both fields are standard base64, whose alphabet
	// never contains this character.
	EnvelopeDelimiter = ":"
)

var (
	// ErrEncryptionFailed indicates a value could not be encrypted. Callers
	// must treat this as fatal for the write: storing the plaintext instead
	// is never an acceptable fallback.
	ErrEncryptionFailed = errors.New("encryption failed")

	// ErrDecryptionFailed indicates an envelope could not be decrypted with
	// the current master key. The stored value is unrecoverable.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrInvalidCiphertext indicates the envelope is structurally malformed
	// before any cryptography runs. It matches ErrDecryptionFailed under
	// errors.Is so callers handling decryption failure cover both.
	ErrInvalidCiphertext = fmt.Errorf("%w: invalid envelope format", ErrDecryptionFailed)
)

// CipherEngine performs AES-256-CBC envelope encryption for string values.
// Envelopes have the form base64(iv):base64(ciphertext). The engine is
// stateless apart from its randomness source and is safe for concurrent use.
type CipherEngine struct {
	rand RandomSource
}

// NewCipherEngine creates an engine drawing IVs from the given source.
func NewCipherEngine(rand RandomSource) *CipherEngine {
	return &CipherEngine{rand: rand}
}

// Encrypt encrypts plaintext under key and returns the envelope string.
// Plaintext must be non-empty and within the storage value limit; an empty
// string is rejected because an empty decryption result is defined as
// failure, so it could never round-trip.
func (e *CipherEngine) Encrypt(key MasterKey, plaintext string) (string, error) {
	if err := limits.ValidateStorageValue(plaintext); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	iv, err := e.rand.Bytes(IVSize)
	if err != nil {
		NewLogger("Encrypt").WithError(err, "draw_iv").Error("IV generation failed")
		return "", fmt.Errorf("%w: drawing IV: %v", ErrEncryptionFailed, err)
	}

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return "", fmt.Errorf("%w: initializing cipher: %v", ErrEncryptionFailed, err)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)
	ZeroBytes(padded)

	envelope := base64.StdEncoding.EncodeToString(iv) +
		EnvelopeDelimiter +
		base64.StdEncoding.EncodeToString(ciphertext)
	return envelope, nil
}

// Decrypt reverses Encrypt. Malformed envelopes fail with
// ErrInvalidCiphertext; padding or content failures with ErrDecryptionFailed.
// An empty decryption result is reported as failure, never as success.
func (e *CipherEngine) Decrypt(key MasterKey, envelope string) (string, error) {
	if err := limits.ValidateEnvelope(envelope); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}

	parts := strings.Split(envelope, EnvelopeDelimiter)
	if len(parts) != 2 {
		return "", fmt.Errorf("%w: got %d fields, want 2", ErrInvalidCiphertext, len(parts))
	}

	iv, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("%w: IV field: %v", ErrInvalidCiphertext, err)
	}
	if len(iv) != IVSize {
		return "", fmt.Errorf("%w: IV is %d bytes, want %d", ErrInvalidCiphertext, len(iv), IVSize)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("%w: ciphertext field: %v", ErrInvalidCiphertext, err)
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext length %d", ErrInvalidCiphertext, len(ciphertext))
	}

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return "", fmt.Errorf("%w: initializing cipher: %v", ErrDecryptionFailed, err)
	}

	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)

	plaintext, err := pkcs7Unpad(padded, aes.BlockSize)
	if err != nil {
		ZeroBytes(padded)
		NewLogger("Decrypt").WithFields(SecureFieldHash(ciphertext, "ciphertext")).
			Debug("Padding check failed")
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	if len(plaintext) == 0 {
		ZeroBytes(padded)
		return "", fmt.Errorf("%w: empty plaintext", ErrDecryptionFailed)
	}

	result := string(plaintext)
	ZeroBytes(plaintext)
	ZeroBytes(padded)
	return result, nil
}

// pkcs7Pad appends PKCS#7 padding. The pad length is always in [1, blockSize],
// so a full block of padding is added when data is already block-aligned.
func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+n)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

// pkcs7Unpad validates and strips PKCS#7 padding. Every pad byte is checked,
// not just the last. This is at-rest storage where the caller holds the key,
// so the check does not need to be constant time.
func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("padded length %d", len(data))
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, fmt.Errorf("pad length %d", n)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errors.New("inconsistent pad bytes")
		}
	}
	out := make([]byte, len(data)-n)
	copy(out, data[:len(data)-n])
	return out, nil
}
