package storage

import (
	"context"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Set(ctx, "alpha", "one"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	value, ok, err := store.Get(ctx, "alpha")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !ok {
		t.Fatal("Get() reported stored key as absent")
	}
	if value != "one" {
		t.Errorf("Get() = %q, want %q", value, "one")
	}
}

func TestMemoryStoreAbsentKey(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, ok, err := store.Get(ctx, "missing")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if ok {
		t.Error("Get() reported absent key as present")
	}
}

func TestMemoryStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Set(ctx, "k", "first"); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, "k", "second"); err != nil {
		t.Fatal(err)
	}

	value, _, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if value != "second" {
		t.Errorf("Get() after overwrite = %q, want %q", value, "second")
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestMemoryStoreRemove(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Set(ctx, "k", "v"); err != nil {
		t.Fatal(err)
	}
	if err := store.Remove(ctx, "k"); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Error("key still present after Remove()")
	}

	// Removing an absent key is not an error
	if err := store.Remove(ctx, "never-existed"); err != nil {
		t.Errorf("Remove() of absent key error: %v", err)
	}
}

func TestMemoryStoreKeysSorted(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for _, k := range []string{"zeta", "alpha", "mid"} {
		if err := store.Set(ctx, k, "v"); err != nil {
			t.Fatal(err)
		}
	}

	keys, err := store.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys() error: %v", err)
	}
	want := []string{"alpha", "mid", "zeta"}
	if len(keys) != len(want) {
		t.Fatalf("Keys() returned %d keys, want %d", len(keys), len(want))
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestMemoryStoreHonorsContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Set(ctx, "k", "v"); err == nil {
		t.Error("Set() with cancelled context should fail")
	}
	if _, _, err := store.Get(ctx, "k"); err == nil {
		t.Error("Get() with cancelled context should fail")
	}
}

func TestMemorySecretStoreCounters(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySecretStore()

	if _, ok, err := store.Get(ctx, "slot"); err != nil || ok {
		t.Fatalf("Get() on empty store = ok=%v err=%v", ok, err)
	}
	if err := store.Set(ctx, "slot", "secret"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	value, ok, err := store.Get(ctx, "slot")
	if err != nil || !ok {
		t.Fatalf("Get() after Set = ok=%v err=%v", ok, err)
	}
	if value != "secret" {
		t.Errorf("Get() = %q, want %q", value, "secret")
	}

	if store.GetCalls() != 2 {
		t.Errorf("GetCalls() = %d, want 2", store.GetCalls())
	}
	if store.SetCalls() != 1 {
		t.Errorf("SetCalls() = %d, want 1", store.SetCalls())
	}
}
