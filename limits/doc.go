// Package limits provides centralized size constants and validation functions
// for the hushvault storage and authentication subsystem. This package ensures
// consistent bounds enforcement across all components of the library.
//
// # Size Hierarchy
//
// The package defines a hierarchy of limits that covers the different stages
// of value handling:
//
//   - MaxStorageKey (256 bytes): The maximum length of a logical key in the
//     encrypted key/value store. Backing stores on mobile platforms impose
//     key length restrictions in this range.
//
//   - MaxStorageValue (512 KiB): The maximum plaintext size accepted by the
//     encrypted key/value store per entry. App state blobs stay well under
//     this bound; anything larger indicates misuse of the store.
//
//   - MaxEnvelopeSize: The maximum serialized envelope accepted on the read
//     path, derived from MaxStorageValue plus cipher padding and base64
//     expansion.
//
//   - MaxSnapshotSize (8 MiB): The maximum sealed snapshot accepted by the
//     migration receiver. This prevents memory exhaustion from a hostile
//     sending peer.
//
//   - MaxFrameSize: The maximum payload of one length-prefixed frame on the
//     migration channel, derived from MaxSnapshotSize plus transport cipher
//     overhead. ValidateFrameLength checks the declared length before the
//     frame body is allocated.
//
// # Passcode Bounds
//
// PasscodeMinDigits and PasscodeMaxDigits bound the accepted digit count for
// real and duress codes. ValidatePasscode enforces both the length range and
// the digits-only requirement.
//
// # Validation Functions
//
// Each validation function checks for empty input and limit violations:
//
//	err := limits.ValidateStorageValue(value)
//	if err != nil {
//	    // Handle validation error (ErrValueEmpty or ErrValueTooLarge)
//	}
//
// For custom bounds, use the generic ValidateSize function:
//
//	err := limits.ValidateSize(data, 4096)
//
// # Error Types
//
//   - ErrValueEmpty: Returned when an empty or nil value is provided
//   - ErrValueTooLarge: Returned when a value exceeds the specified limit
//   - ErrKeyInvalid: Returned when a storage key is empty or too long
//   - ErrPasscodeInvalid: Returned when a passcode is malformed
package limits
