package crypto

import (
	"crypto/rand"
	"fmt"
)

// RandomSource supplies cryptographically secure random bytes. The core
// subsystem never reads platform entropy directly; everything goes through
// this capability so tests can substitute a deterministic implementation.
type RandomSource interface {
	// Bytes returns n cryptographically random bytes or an error if the
	// underlying generator fails. Implementations must never return fewer
	// than n bytes without an error.
	Bytes(n int) ([]byte, error)
}

// SystemRandom reads from the operating system CSPRNG. This is the adapter
// used on every supported platform; only tests substitute something else.
type SystemRandom struct{}

// Bytes returns n bytes from crypto/rand.
func (SystemRandom) Bytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid random byte count: %d", n)
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("system entropy unavailable: %w", err)
	}
	return buf, nil
}
