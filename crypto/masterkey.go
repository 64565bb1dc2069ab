package crypto

import (
	"encoding/base64"
	"fmt"
)

// MasterKeySize is the length in bytes of the master encryption key.
const MasterKeySize = 32

// MasterKey is the single 256-bit symmetric key protecting all locally
// persisted application data. It crosses the SecretStore boundary encoded as
// base64; everywhere else it is a fixed-length byte array.
type MasterKey [MasterKeySize]byte

// Encode returns the base64 form used to store the key in a secret slot.
func (k MasterKey) Encode() string {
	return base64.StdEncoding.EncodeToString(k[:])
}

// DecodeMasterKey parses the base64 form read back from a secret slot. A
// value of the wrong length is rejected rather than truncated or padded: a
// malformed stored key means the slot holds foreign data, and encrypting
// under a mangled key would silently orphan everything written so far.
func DecodeMasterKey(encoded string) (MasterKey, error) {
	var key MasterKey
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return key, fmt.Errorf("master key not valid base64: %w", err)
	}
	if len(raw) != MasterKeySize {
		ZeroBytes(raw)
		return key, fmt.Errorf("master key has invalid length %d, want %d", len(raw), MasterKeySize)
	}
	copy(key[:], raw)
	ZeroBytes(raw)
	return key, nil
}
