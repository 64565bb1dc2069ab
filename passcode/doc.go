// Package passcode implements unlock authentication with a real code, a
// duress code, and escalating lockouts.
//
// A single entry point, [Authenticator.Validate], classifies an entered code
// as one of four outcomes: the real code unlocks genuine data, the duress
// code unlocks the decoy surface, anything else is invalid, and during an
// active lockout every code is rejected without being compared at all.
// Callers branch on the [Outcome]; nothing about the result reveals whether
// a duress code exists.
//
// Failed attempts and lockout state persist in the same encrypted store as
// application data, so neither a process restart nor a reinstall-free
// storage inspection resets the counter. Lockout windows grow with each
// consecutive lockout and collapse back to the base window after any
// successful unlock.
//
// Both configured codes are compared in constant time on every attempt, in
// a fixed order, so timing reveals neither which code matched nor how far a
// wrong guess got.
//
// For reproducible lockout timing in tests, construct with
// [NewAuthenticatorWithTimeProvider].
package passcode
