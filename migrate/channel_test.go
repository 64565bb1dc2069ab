package migrate

import (
	"bytes"
	"context"
	"encoding/binary"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/hushvault/limits"
)

type dialResult struct {
	channel *Channel
	err     error
}

// establishPair runs both handshake sides over an in-memory pipe and
// returns the dialer and acceptor channels.
func establishPair(t *testing.T, sender, receiver *ChannelKey) (*Channel, *Channel) {
	t.Helper()

	clientConn, serverConn := net.Pipe()
	t.Cleanup(func() {
		clientConn.Close()
		serverConn.Close()
	})

	dialDone := make(chan dialResult, 1)
	go func() {
		channel, err := Dial(clientConn, sender, receiver.Public())
		dialDone <- dialResult{channel, err}
	}()

	accepted, err := Accept(serverConn, receiver)
	require.NoError(t, err)

	dialed := <-dialDone
	require.NoError(t, dialed.err)
	return dialed.channel, accepted
}

func TestChannelTransfer(t *testing.T) {
	sender, err := GenerateChannelKey()
	require.NoError(t, err)
	receiver, err := GenerateChannelKey()
	require.NoError(t, err)

	dialed, accepted := establishPair(t, sender, receiver)

	// Each end authenticated the other's static key during the handshake.
	assert.Equal(t, receiver.Public(), dialed.Peer())
	assert.Equal(t, sender.Public(), accepted.Peer())
	assert.NotEmpty(t, dialed.SessionID())
	assert.NotEqual(t, dialed.SessionID(), accepted.SessionID())

	payload := bytes.Repeat([]byte("sealed snapshot bytes "), 64)
	sendErr := make(chan error, 1)
	go func() {
		sendErr <- dialed.Send(payload)
	}()

	got, err := accepted.Receive()
	require.NoError(t, err)
	require.NoError(t, <-sendErr)
	assert.Equal(t, payload, got)
}

func TestChannelCarriesExactlyOneSnapshot(t *testing.T) {
	sender, err := GenerateChannelKey()
	require.NoError(t, err)
	receiver, err := GenerateChannelKey()
	require.NoError(t, err)

	dialed, accepted := establishPair(t, sender, receiver)

	payload := []byte("sealed snapshot bytes")
	sendErr := make(chan error, 1)
	go func() {
		sendErr <- dialed.Send(payload)
	}()
	_, err = accepted.Receive()
	require.NoError(t, err)
	require.NoError(t, <-sendErr)

	require.ErrorIs(t, dialed.Send(payload), ErrChannelSpent)
	_, err = accepted.Receive()
	require.ErrorIs(t, err, ErrChannelSpent)
}

func TestDialInputValidation(t *testing.T) {
	key, err := GenerateChannelKey()
	require.NoError(t, err)
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	_, err = Dial(clientConn, nil, key.Public())
	require.ErrorIs(t, err, ErrHandshakeFailed)

	_, err = Dial(clientConn, key, []byte("short"))
	require.ErrorIs(t, err, ErrHandshakeFailed)

	_, err = Accept(serverConn, nil)
	require.ErrorIs(t, err, ErrHandshakeFailed)
}

func TestAcceptRejectsUnknownDialer(t *testing.T) {
	sender, err := GenerateChannelKey()
	require.NoError(t, err)
	receiver, err := GenerateChannelKey()
	require.NoError(t, err)
	imposter, err := GenerateChannelKey()
	require.NoError(t, err)

	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	acceptErr := make(chan error, 1)
	go func() {
		_, err := Accept(serverConn, receiver)
		serverConn.Close()
		acceptErr <- err
	}()

	// The dialer targets the wrong static key, so the responder cannot
	// open the first handshake message.
	_, dialErr := Dial(clientConn, sender, imposter.Public())
	require.Error(t, dialErr)
	require.ErrorIs(t, <-acceptErr, ErrHandshakeFailed)
}

func TestSendRejectsInvalidSnapshot(t *testing.T) {
	sender, err := GenerateChannelKey()
	require.NoError(t, err)
	receiver, err := GenerateChannelKey()
	require.NoError(t, err)

	dialed, _ := establishPair(t, sender, receiver)

	require.ErrorIs(t, dialed.Send(nil), limits.ErrValueEmpty)
	require.ErrorIs(t, dialed.Send(make([]byte, limits.MaxSnapshotSize+1)), limits.ErrValueTooLarge)
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("framed payload")

	require.NoError(t, writeFrame(&buf, payload))
	assert.Equal(t, 4+len(payload), buf.Len())

	got, err := readFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestReadFrameRejectsBadLengths(t *testing.T) {
	oversized := make([]byte, 4)
	binary.BigEndian.PutUint32(oversized, uint32(limits.MaxFrameSize+1))
	_, err := readFrame(bytes.NewReader(oversized))
	require.ErrorIs(t, err, limits.ErrValueTooLarge)

	zero := make([]byte, 4)
	_, err = readFrame(bytes.NewReader(zero))
	require.ErrorIs(t, err, limits.ErrValueEmpty)

	require.ErrorIs(t, writeFrame(&bytes.Buffer{}, nil), limits.ErrValueEmpty)
}

// TestMigrationEndToEnd walks the full path: export from one vault, carry
// the sealed snapshot over the device channel, import into another vault.
func TestMigrationEndToEnd(t *testing.T) {
	ctx := context.Background()

	source, _ := newTestVault(t)
	require.NoError(t, source.SetItem(ctx, "note.1", "dentist thursday 16:30"))
	require.NoError(t, source.SetItem(ctx, "note.2", "water the plants"))

	sealed, err := Export(ctx, source, testPhrase)
	require.NoError(t, err)

	oldDevice, err := GenerateChannelKey()
	require.NoError(t, err)
	newDevice, err := GenerateChannelKey()
	require.NoError(t, err)

	dialed, accepted := establishPair(t, oldDevice, newDevice)

	sendErr := make(chan error, 1)
	go func() {
		sendErr <- dialed.Send(sealed)
	}()
	carried, err := accepted.Receive()
	require.NoError(t, err)
	require.NoError(t, <-sendErr)

	target, _ := newTestVault(t)
	imported, err := Import(ctx, target, carried, testPhrase, false)
	require.NoError(t, err)
	assert.Equal(t, 2, imported)

	got, ok, err := target.GetItem(ctx, "note.1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "dentist thursday 16:30", got)
}
