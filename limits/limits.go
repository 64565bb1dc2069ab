// Package limits provides centralized size limits for the hushvault library.
// This ensures consistent validation across different components of the system.
package limits

import (
	"errors"
	"fmt"
)

const (
	// MaxStorageKey is the maximum length of a logical storage key (256 bytes)
	// This matches the key length restrictions of mobile key/value backends
	MaxStorageKey = 256

	// MaxStorageValue is the maximum plaintext size per stored entry
	// App state blobs are small; this bound catches misuse, not normal data
	MaxStorageValue = 512 * 1024

	// MaxEnvelopeSize is the maximum serialized envelope accepted on read
	// This covers MaxStorageValue + one cipher block of padding, base64
	// expanded (4/3), plus the IV field and the delimiter
	MaxEnvelopeSize = (MaxStorageValue+16)/3*4 + 32

	// MaxSnapshotSize is the maximum sealed snapshot accepted during migration
	// This prevents memory exhaustion from an oversized transfer payload (8MB)
	MaxSnapshotSize = 8 * 1024 * 1024

	// MaxFrameSize is the maximum payload of one migration channel frame
	// Sized for a sealed snapshot plus transport cipher overhead
	MaxFrameSize = MaxSnapshotSize + 4096

	// PasscodeMinDigits is the minimum accepted passcode length
	PasscodeMinDigits = 4

	// PasscodeMaxDigits is the maximum accepted passcode length
	PasscodeMaxDigits = 8
)

var (
	// ErrValueEmpty indicates an empty value was provided
	ErrValueEmpty = errors.New("empty value")

	// ErrValueTooLarge indicates a value exceeds its maximum size
	ErrValueTooLarge = errors.New("value too large")

	// ErrKeyInvalid indicates a malformed storage key
	ErrKeyInvalid = errors.New("invalid storage key")

	// ErrPasscodeInvalid indicates a malformed passcode
	ErrPasscodeInvalid = errors.New("invalid passcode")
)

// ValidateSize validates data against the specified maximum size.
// Returns an error with context including the actual and maximum sizes.
func ValidateSize(data []byte, maxSize int) error {
	if len(data) == 0 {
		return ErrValueEmpty
	}
	if len(data) > maxSize {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrValueTooLarge, len(data), maxSize)
	}
	return nil
}

// ValidateStorageKey validates a logical key for the key/value store.
// Keys must be non-empty and no longer than MaxStorageKey bytes.
func ValidateStorageKey(key string) error {
	if len(key) == 0 {
		return fmt.Errorf("%w: empty key", ErrKeyInvalid)
	}
	if len(key) > MaxStorageKey {
		return fmt.Errorf("%w: length %d exceeds limit %d", ErrKeyInvalid, len(key), MaxStorageKey)
	}
	return nil
}

// ValidateStorageValue validates a plaintext value size against MaxStorageValue.
// Returns an error with context if the value is empty or exceeds the limit.
func ValidateStorageValue(value string) error {
	if len(value) == 0 {
		return ErrValueEmpty
	}
	if len(value) > MaxStorageValue {
		return fmt.Errorf("%w: plaintext size %d exceeds limit %d", ErrValueTooLarge, len(value), MaxStorageValue)
	}
	return nil
}

// ValidateEnvelope validates a serialized envelope size against MaxEnvelopeSize.
// Returns an error with context if the envelope is empty or exceeds the limit.
func ValidateEnvelope(envelope string) error {
	if len(envelope) == 0 {
		return ErrValueEmpty
	}
	if len(envelope) > MaxEnvelopeSize {
		return fmt.Errorf("%w: envelope size %d exceeds limit %d", ErrValueTooLarge, len(envelope), MaxEnvelopeSize)
	}
	return nil
}

// ValidateSnapshot validates a sealed snapshot size against MaxSnapshotSize.
// All migration payloads received from a peer should pass through this check
// before further processing.
func ValidateSnapshot(data []byte) error {
	if len(data) == 0 {
		return ErrValueEmpty
	}
	if len(data) > MaxSnapshotSize {
		return fmt.Errorf("%w: snapshot size %d exceeds limit %d", ErrValueTooLarge, len(data), MaxSnapshotSize)
	}
	return nil
}

// ValidateFrameLength validates a declared channel frame length before the
// frame body is read or allocated. Lengths come from the wire, so this runs
// ahead of any allocation sized by them.
func ValidateFrameLength(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: frame length %d", ErrValueEmpty, n)
	}
	if n > MaxFrameSize {
		return fmt.Errorf("%w: frame length %d exceeds limit %d", ErrValueTooLarge, n, MaxFrameSize)
	}
	return nil
}

// ValidatePasscode validates a passcode against the digit-count range and the
// digits-only requirement shared by real and duress codes.
func ValidatePasscode(code string) error {
	if len(code) < PasscodeMinDigits || len(code) > PasscodeMaxDigits {
		return fmt.Errorf("%w: length %d outside range %d-%d",
			ErrPasscodeInvalid, len(code), PasscodeMinDigits, PasscodeMaxDigits)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: must contain only digits", ErrPasscodeInvalid)
		}
	}
	return nil
}
