package passcode

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
)

// stateKey is the logical key the lockout state is stored under. The value
// lives in the same encrypted store as application data, so it is protected
// by the master key and survives restarts.
const stateKey = "auth.lockout_state"

// StateStore is the slice of the encrypted store the authenticator needs.
type StateStore interface {
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string)
}

// lockState is the durable attempt-tracking record. Timestamps are epoch
// milliseconds; a LockoutUntil of 0 means no lockout is active.
type lockState struct {
	FailedAttempts int   `json:"failed_attempts"`
	LockoutUntil   int64 `json:"lockout_until"`
	LockoutCount   int   `json:"lockout_count"`
}

// loadState reads the stored record. An absent key is a clean slate. A
// value that decrypted but does not parse is discarded with a log line:
// refusing to start over here would lock the user out forever on a record
// written by a newer version.
func (a *Authenticator) loadState(ctx context.Context) (lockState, error) {
	var st lockState

	raw, ok, err := a.store.GetItem(ctx, stateKey)
	if err != nil {
		return st, fmt.Errorf("failed to load lockout state: %w", err)
	}
	if !ok {
		return st, nil
	}

	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "loadState",
			"package":  "passcode",
			"error":    err.Error(),
		}).Warn("Lockout state is unparseable, starting fresh")
		return lockState{}, nil
	}

	// Sanitize values a hostile or buggy writer could have stored
	if st.FailedAttempts < 0 {
		st.FailedAttempts = 0
	}
	if st.LockoutUntil < 0 {
		st.LockoutUntil = 0
	}
	if st.LockoutCount < 0 {
		st.LockoutCount = 0
	}
	return st, nil
}

// saveState persists the record. Write failures propagate: losing attempt
// tracking silently would let an attacker retry forever by filling the disk.
func (a *Authenticator) saveState(ctx context.Context, st lockState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode lockout state: %w", err)
	}
	if err := a.store.SetItem(ctx, stateKey, string(raw)); err != nil {
		return fmt.Errorf("failed to save lockout state: %w", err)
	}
	return nil
}

// clearState removes the record entirely after a successful unlock.
func (a *Authenticator) clearState(ctx context.Context) {
	a.store.RemoveItem(ctx, stateKey)
}
