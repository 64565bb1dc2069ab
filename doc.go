// Package hushvault implements the protected storage and duress
// authentication core of a private notebook application.
//
// The package presents one facade, [Vault], that wires together an
// encrypted key/value store, a master key provider backed by a single
// hardware secret slot, a passcode authenticator with two valid codes, and
// a provider of fabricated decoy content. The real passcode opens the
// genuine data; the duress passcode opens a believable fake surface backed
// exclusively by the decoy catalog. Nothing in the library records which
// of the two succeeded.
//
// # Getting Started
//
// Create a vault with options and validate passcodes:
//
//	options := hushvault.NewOptions()
//	options.RealCode = "482913"
//	options.DuressCode = "751046"
//	options.DataDir = "/data/app"
//
//	vault, err := hushvault.New(options)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer vault.Kill()
//
//	result, err := vault.Validate(ctx, enteredCode)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	switch result.Outcome {
//	case passcode.OutcomeReal:
//	    // show genuine content from vault.Items()
//	case passcode.OutcomeDuress:
//	    // show fabricated content from vault.Decoy()
//	case passcode.OutcomeLockedOut:
//	    // show countdown, result.Remaining is the time left
//	default:
//	    // wrong code
//	}
//
// # Protected Storage
//
// Application state goes through the encrypted store. Values are encrypted
// before they reach the backend and decrypted on the way out; an entry
// that no longer decrypts is logged as data loss, discarded, and reported
// absent, so the application recovers as on first run:
//
//	items := vault.Items()
//	err := items.SetItem(ctx, "note.1", "dentist thursday 16:30")
//	value, ok, err := items.GetItem(ctx, "note.1")
//
//	vault.OnDataLoss(func(key string, err error) {
//	    // surface "some data could not be recovered" to the user
//	})
//
// # Lockout Countdown
//
// Repeated failures engage a growing lockout. Register a callback to drive
// a countdown display:
//
//	vault.OnCountdown(func(remaining time.Duration) {
//	    // update the lock screen; remaining == 0 means it ended
//	})
//
// # Device Migration
//
// A vault moves between devices as a snapshot sealed under a transfer
// phrase, carried over a Noise-secured channel. The receiving device
// generates a channel key and shows its public half out-of-band:
//
//	// new device
//	key, _ := migrate.GenerateChannelKey()
//	showAsQRCode(key.Public())
//	imported, err := vault.Receive(ctx, conn, key, phrase, false)
//
//	// old device
//	err := vault.Send(ctx, conn, scannedPeerKey, phrase)
//
// # Integration Architecture
//
// The facade orchestrates one package per concern:
//
//   - [crypto]: master key provisioning and the storage cipher
//   - [storage]: plaintext backends, the sealed secret slot, and the
//     encrypted store
//   - [passcode]: outcome classification, lockout policy, countdown
//   - [decoy]: the fabricated conversation catalog
//   - [migrate]: sealed snapshots and the device transfer channel
//   - [limits]: shared size and format bounds
//
// # Thread Safety
//
// A Vault is safe for concurrent use. Validation is serialized by the
// authenticator, the stores carry their own synchronization, and Kill may
// be called from any goroutine and is idempotent.
package hushvault
