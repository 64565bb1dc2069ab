// Package migrate moves a vault between devices as a sealed snapshot.
//
// A snapshot is the decrypted contents of the encrypted key/value store,
// CBOR-encoded together with a format version, a fresh vault UUID, and a
// creation timestamp, then sealed under a user-chosen transfer phrase. The
// phrase is stretched with Argon2id and the payload is boxed with
// NaCl secretbox, so a captured snapshot is useless without the phrase.
// Import writes every entry back through the encrypted store, which means
// imported values are re-encrypted under the receiving device's own master
// key; the sending device's key never travels.
//
// # Snapshot container
//
// The sealed byte layout is:
//
//	[version:2][salt:16][nonce:24][secretbox ciphertext]
//
// The 2-byte big-endian version prefix identifies the container format and
// is checked before any key derivation. The CBOR payload carries its own
// FormatVersion, checked by Import after opening.
//
// # Device channel
//
// Channel carries one sealed snapshot between two devices over any
// io.ReadWriter, secured with a Noise IK handshake. The receiving device
// generates a ChannelKey and shows its public half out-of-band (a QR code
// in practice); the sender dials with that key, so only the intended
// device can complete the handshake. Frames are length-prefixed and
// bounded before allocation. The channel adds transport secrecy on top of
// the phrase sealing; neither layer is trusted alone.
//
// Channel I/O blocks on the underlying stream. Callers needing timeouts
// should set deadlines on the connection they pass in.
package migrate
