package hushvault

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/hushvault/crypto"
	"github.com/opd-ai/hushvault/migrate"
	"github.com/opd-ai/hushvault/passcode"
	"github.com/opd-ai/hushvault/storage"
)

const (
	testRealCode   = "123456"
	testDuressCode = "654321"
)

func newTestOptions() *Options {
	options := NewOptions()
	options.RealCode = testRealCode
	options.DuressCode = testDuressCode
	return options
}

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	vault, err := New(newTestOptions())
	require.NoError(t, err)
	t.Cleanup(vault.Kill)
	return vault
}

func TestValidateOutcomeDisjointness(t *testing.T) {
	vault := newTestVault(t)
	ctx := context.Background()

	tests := []struct {
		name string
		code string
		want passcode.Outcome
	}{
		{"real code", testRealCode, passcode.OutcomeReal},
		{"duress code", testDuressCode, passcode.OutcomeDuress},
		{"wrong code", "000000", passcode.OutcomeInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := vault.Validate(ctx, tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Outcome)
		})
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"missing codes", func(o *Options) { o.RealCode, o.DuressCode = "", "" }},
		{"identical codes", func(o *Options) { o.DuressCode = o.RealCode }},
		{"length mismatch", func(o *Options) { o.DuressCode = "12345678" }},
		{"non-digit code", func(o *Options) { o.RealCode = "12a456" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			options := newTestOptions()
			tt.mutate(options)
			_, err := New(options)
			require.Error(t, err)
		})
	}

	_, err := New(nil)
	require.Error(t, err, "nil options carry no passcodes")
}

func TestVaultItemsRoundTrip(t *testing.T) {
	vault := newTestVault(t)
	ctx := context.Background()

	require.NoError(t, vault.Items().SetItem(ctx, "note.1", "dentist thursday 16:30"))

	got, ok, err := vault.Items().GetItem(ctx, "note.1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "dentist thursday 16:30", got)
}

func TestVaultDecoyDisjointFromItems(t *testing.T) {
	vault := newTestVault(t)
	ctx := context.Background()

	genuine := []string{
		"safe deposit box 4471, key under the blue vase",
		"therapy notes from march, do not share",
	}
	for i, value := range genuine {
		require.NoError(t, vault.Items().SetItem(ctx, "secret."+string(rune('a'+i)), value))
	}

	decoys := vault.Decoy()
	for _, persona := range decoys.Personas() {
		presets, err := decoys.Presets(persona)
		require.NoError(t, err)
		for _, preset := range presets {
			messages, err := decoys.Conversation(persona, preset)
			require.NoError(t, err)
			for _, msg := range messages {
				for _, value := range genuine {
					assert.False(t, strings.Contains(msg.Text, value),
						"decoy message leaked genuine content")
					assert.False(t, strings.Contains(value, msg.Text),
						"decoy message mirrors genuine content")
				}
			}
		}
	}
}

func TestVaultKillIdempotent(t *testing.T) {
	vault, err := New(newTestOptions())
	require.NoError(t, err)

	require.True(t, vault.IsRunning())
	vault.Kill()
	vault.Kill()
	require.False(t, vault.IsRunning())

	_, err = vault.Validate(context.Background(), testRealCode)
	require.ErrorIs(t, err, ErrVaultClosed)

	_, err = vault.Export(context.Background(), []byte("phrase"))
	require.ErrorIs(t, err, ErrVaultClosed)
}

func TestVaultSQLitePersistence(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	// The secret slot has to outlive a single instance for stored
	// envelopes to stay readable, the same way a platform keystore does.
	slot := storage.NewMemorySecretStore()

	options := newTestOptions()
	options.DataDir = dir
	options.SecretStore = slot

	vault, err := New(options)
	require.NoError(t, err)
	require.NoError(t, vault.Items().SetItem(ctx, "note", "survives restart"))
	vault.Kill()

	options = newTestOptions()
	options.DataDir = dir
	options.SecretStore = slot

	vault, err = New(options)
	require.NoError(t, err)
	defer vault.Kill()

	got, ok, err := vault.Items().GetItem(ctx, "note")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "survives restart", got)
}

func TestVaultOnDataLoss(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryStore()

	options := newTestOptions()
	options.Backend = backend
	vault, err := New(options)
	require.NoError(t, err)
	defer vault.Kill()

	var lostKey string
	vault.OnDataLoss(func(key string, err error) {
		lostKey = key
	})

	require.NoError(t, vault.Items().SetItem(ctx, "note", "value"))
	require.NoError(t, backend.Set(ctx, "note", "corrupted envelope"))

	_, ok, err := vault.Items().GetItem(ctx, "note")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "note", lostKey)

	_, raw := backend.Raw("note")
	assert.False(t, raw, "corrupt entry must be discarded")
}

func TestVaultLockoutCountdown(t *testing.T) {
	options := newTestOptions()
	options.MaxAttempts = 1
	options.LockoutBase = 500 * time.Millisecond
	options.LockoutCap = time.Second

	vault, err := New(options)
	require.NoError(t, err)
	defer vault.Kill()

	ticks := make(chan time.Duration, 16)
	vault.OnCountdown(func(remaining time.Duration) {
		select {
		case ticks <- remaining:
		default:
		}
	})

	result, err := vault.Validate(context.Background(), "999999")
	require.NoError(t, err)
	require.Equal(t, passcode.OutcomeInvalid, result.Outcome)

	select {
	case remaining := <-ticks:
		assert.Positive(t, remaining)
		assert.LessOrEqual(t, remaining, 500*time.Millisecond)
	case <-time.After(2 * time.Second):
		t.Fatal("no countdown tick after lockout engaged")
	}

	result, err = vault.Validate(context.Background(), testRealCode)
	require.NoError(t, err)
	assert.Equal(t, passcode.OutcomeLockedOut, result.Outcome)
	assert.Positive(t, result.Remaining)
}

func TestVaultMigration(t *testing.T) {
	ctx := context.Background()
	phrase := []byte("transfer phrase")

	source := newTestVault(t)
	require.NoError(t, source.Items().SetItem(ctx, "note.1", "carried across"))
	require.NoError(t, source.Items().SetItem(ctx, "note.2", "also carried"))

	target := newTestVault(t)

	key, err := migrate.GenerateChannelKey()
	require.NoError(t, err)

	clientConn, serverConn := net.Pipe()
	t.Cleanup(func() {
		clientConn.Close()
		serverConn.Close()
	})

	sendErr := make(chan error, 1)
	go func() {
		sendErr <- source.Send(ctx, clientConn, key.Public(), phrase)
	}()

	imported, err := target.Receive(ctx, serverConn, key, phrase, false)
	require.NoError(t, err)
	require.NoError(t, <-sendErr)
	assert.Equal(t, 2, imported)

	got, ok, err := target.Items().GetItem(ctx, "note.1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "carried across", got)

	// Each vault holds its own master key; the transferred entries must
	// decrypt on the target without the source's key ever moving.
	sourceKey, err := sourceMasterKey(ctx, source)
	require.NoError(t, err)
	targetKey, err := sourceMasterKey(ctx, target)
	require.NoError(t, err)
	assert.NotEqual(t, sourceKey, targetKey)
}

func sourceMasterKey(ctx context.Context, v *Vault) (crypto.MasterKey, error) {
	return v.provider.Key(ctx)
}
