package crypto

import (
	"testing"
)

func TestSecureWipe(t *testing.T) {
	data := []byte{0xde, 0xad, 0xbe, 0xef, 0x01, 0x02, 0x03, 0x04}

	if err := SecureWipe(data); err != nil {
		t.Fatalf("SecureWipe failed: %v", err)
	}

	for i, b := range data {
		if b != 0 {
			t.Fatalf("byte %d = %#x after SecureWipe, want 0", i, b)
		}
	}
}

func TestSecureWipeEdgeCases(t *testing.T) {
	if err := SecureWipe(nil); err == nil {
		t.Error("SecureWipe(nil) should return an error")
	}
	// An empty non-nil slice has nothing to wipe but is not an error
	if err := SecureWipe([]byte{}); err != nil {
		t.Errorf("SecureWipe(empty) error: %v", err)
	}
}

func TestZeroBytes(t *testing.T) {
	testData := []byte{1, 2, 3, 4, 5}
	ZeroBytes(testData)

	for i, b := range testData {
		if b != 0 {
			t.Fatalf("ZeroBytes failed to zero byte at position %d", i)
		}
	}

	// Must not panic on nil
	ZeroBytes(nil)
}

func TestWipeMasterKey(t *testing.T) {
	key := testKey(0xc3)

	// Sanity: the key has non-zero content before wiping
	if key == (MasterKey{}) {
		t.Fatal("test key is all zeros before wiping, test cannot proceed")
	}

	if err := WipeMasterKey(&key); err != nil {
		t.Fatalf("WipeMasterKey failed: %v", err)
	}

	if key != (MasterKey{}) {
		t.Error("key material was not wiped by WipeMasterKey")
	}
}

func TestWipeMasterKeyNil(t *testing.T) {
	if err := WipeMasterKey(nil); err == nil {
		t.Error("WipeMasterKey(nil) should return an error")
	}
}
