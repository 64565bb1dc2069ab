package migrate

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/flynn/noise"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/hushvault/limits"
)

// ChannelKeySize is the length of a channel static public key.
const ChannelKeySize = 32

// channelSuite fixes the Noise suite both ends must agree on.
var channelSuite = noise.NewCipherSuite(noise.DH25519, noise.CipherChaChaPoly, noise.HashSHA256)

var (
	// ErrHandshakeFailed indicates the Noise handshake did not complete.
	ErrHandshakeFailed = errors.New("channel handshake failed")

	// ErrChannelSpent indicates this channel already carried its snapshot.
	ErrChannelSpent = errors.New("channel already carried a snapshot")
)

// ChannelKey is a device's static Curve25519 keypair for the migration
// channel. The accepting device shares Public out-of-band; the private
// half never leaves the device.
type ChannelKey struct {
	dh noise.DHKey
}

// GenerateChannelKey creates a fresh channel keypair.
func GenerateChannelKey() (*ChannelKey, error) {
	dh, err := channelSuite.GenerateKeypair(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate channel keypair: %w", err)
	}
	return &ChannelKey{dh: dh}, nil
}

// Public returns a copy of the public half, the value to show out-of-band.
func (k *ChannelKey) Public() []byte {
	pub := make([]byte, len(k.dh.Public))
	copy(pub, k.dh.Public)
	return pub
}

// Channel is an established migration session over a stream. It carries
// exactly one sealed snapshot per direction; the session identifier
// appears only in log lines.
type Channel struct {
	mu        sync.Mutex
	rw        io.ReadWriter
	send      *noise.CipherState
	recv      *noise.CipherState
	peer      []byte
	sessionID string
	sent      bool
	received  bool
}

// Dial runs the initiator side of the handshake over rw. peerPublic is the
// accepting device's static public key, obtained out-of-band. The IK
// pattern means only the holder of that key's private half can complete
// the handshake.
func Dial(rw io.ReadWriter, local *ChannelKey, peerPublic []byte) (*Channel, error) {
	if local == nil {
		return nil, fmt.Errorf("%w: local key is required", ErrHandshakeFailed)
	}
	if len(peerPublic) != ChannelKeySize {
		return nil, fmt.Errorf("%w: peer public key must be %d bytes, got %d",
			ErrHandshakeFailed, ChannelKeySize, len(peerPublic))
	}

	state, err := noise.NewHandshakeState(noise.Config{
		CipherSuite:   channelSuite,
		Random:        rand.Reader,
		Pattern:       noise.HandshakeIK,
		Initiator:     true,
		StaticKeypair: local.dh,
		PeerStatic:    append([]byte(nil), peerPublic...),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}

	msg, _, _, err := state.WriteMessage(nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: initiator write: %v", ErrHandshakeFailed, err)
	}
	if err := writeFrame(rw, msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}

	reply, err := readFrame(rw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}
	_, send, recv, err := state.ReadMessage(nil, reply)
	if err != nil {
		return nil, fmt.Errorf("%w: initiator read: %v", ErrHandshakeFailed, err)
	}
	if send == nil || recv == nil {
		return nil, fmt.Errorf("%w: handshake incomplete", ErrHandshakeFailed)
	}

	return newChannel(rw, send, recv, state.PeerStatic(), "initiator"), nil
}

// Accept runs the responder side of the handshake over rw.
func Accept(rw io.ReadWriter, local *ChannelKey) (*Channel, error) {
	if local == nil {
		return nil, fmt.Errorf("%w: local key is required", ErrHandshakeFailed)
	}

	state, err := noise.NewHandshakeState(noise.Config{
		CipherSuite:   channelSuite,
		Random:        rand.Reader,
		Pattern:       noise.HandshakeIK,
		Initiator:     false,
		StaticKeypair: local.dh,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}

	msg, err := readFrame(rw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}
	if _, _, _, err := state.ReadMessage(nil, msg); err != nil {
		return nil, fmt.Errorf("%w: responder read: %v", ErrHandshakeFailed, err)
	}

	reply, send, recv, err := state.WriteMessage(nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: responder write: %v", ErrHandshakeFailed, err)
	}
	if err := writeFrame(rw, reply); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}
	if send == nil || recv == nil {
		return nil, fmt.Errorf("%w: handshake incomplete", ErrHandshakeFailed)
	}

	return newChannel(rw, send, recv, state.PeerStatic(), "responder"), nil
}

func newChannel(rw io.ReadWriter, send, recv *noise.CipherState, peer []byte, role string) *Channel {
	c := &Channel{
		rw:        rw,
		send:      send,
		recv:      recv,
		peer:      append([]byte(nil), peer...),
		sessionID: uuid.NewString(),
	}
	logrus.WithFields(logrus.Fields{
		"function":   "newChannel",
		"package":    "migrate",
		"session_id": c.sessionID,
		"role":       role,
	}).Info("Migration channel established")
	return c
}

// Peer returns the remote device's static public key, authenticated by the
// handshake.
func (c *Channel) Peer() []byte {
	peer := make([]byte, len(c.peer))
	copy(peer, c.peer)
	return peer
}

// SessionID returns the identifier this channel uses in its log lines.
func (c *Channel) SessionID() string {
	return c.sessionID
}

// Send encrypts and writes one sealed snapshot. A channel carries a single
// snapshot; further calls fail with ErrChannelSpent.
func (c *Channel) Send(sealed []byte) error {
	if err := limits.ValidateSnapshot(sealed); err != nil {
		return fmt.Errorf("refusing to send snapshot: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sent {
		return ErrChannelSpent
	}

	frame, err := c.send.Encrypt(nil, nil, sealed)
	if err != nil {
		return fmt.Errorf("failed to encrypt snapshot frame: %w", err)
	}
	if err := writeFrame(c.rw, frame); err != nil {
		return err
	}
	c.sent = true

	logrus.WithFields(logrus.Fields{
		"function":    "Send",
		"package":     "migrate",
		"session_id":  c.sessionID,
		"sealed_size": len(sealed),
	}).Info("Snapshot sent")
	return nil
}

// Receive reads and decrypts the single snapshot the peer sends. The
// returned bytes are still sealed under the transfer phrase; hand them to
// Import. Further calls fail with ErrChannelSpent.
func (c *Channel) Receive() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.received {
		return nil, ErrChannelSpent
	}

	frame, err := readFrame(c.rw)
	if err != nil {
		return nil, err
	}
	sealed, err := c.recv.Decrypt(nil, nil, frame)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt snapshot frame: %w", err)
	}
	if err := limits.ValidateSnapshot(sealed); err != nil {
		return nil, fmt.Errorf("rejecting received snapshot: %w", err)
	}
	c.received = true

	logrus.WithFields(logrus.Fields{
		"function":    "Receive",
		"package":     "migrate",
		"session_id":  c.sessionID,
		"sealed_size": len(sealed),
	}).Info("Snapshot received")
	return sealed, nil
}

// writeFrame writes payload as one length-prefixed frame: 4-byte big-endian
// length followed by the payload.
func writeFrame(w io.Writer, payload []byte) error {
	if err := limits.ValidateFrameLength(len(payload)); err != nil {
		return fmt.Errorf("refusing to write frame: %w", err)
	}
	frame := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(frame[:4], uint32(len(payload)))
	copy(frame[4:], payload)
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// readFrame reads one length-prefixed frame. The declared length is checked
// before any allocation sized by it.
func readFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("failed to read frame length: %w", err)
	}
	frameLen := binary.BigEndian.Uint32(lenBuf[:])
	if err := limits.ValidateFrameLength(int(frameLen)); err != nil {
		return nil, fmt.Errorf("rejecting frame: %w", err)
	}
	payload := make([]byte, frameLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("failed to read frame body: %w", err)
	}
	return payload, nil
}
