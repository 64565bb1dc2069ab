package passcode

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/hushvault/limits"
)

const (
	// DefaultMaxAttempts is the number of consecutive failures that engage
	// a lockout.
	DefaultMaxAttempts = 5
	// DefaultLockoutBase is the first lockout window. Each consecutive
	// lockout doubles it, up to DefaultLockoutCap.
	DefaultLockoutBase = 30 * time.Second
	// DefaultLockoutCap bounds the growth of lockout windows.
	DefaultLockoutCap = 30 * time.Minute
)

// Config carries the two configured codes and the lockout policy. Zero
// policy values take the package defaults.
type Config struct {
	// RealCode unlocks the genuine data surface.
	RealCode string
	// DuressCode unlocks the decoy surface. Must differ from RealCode and
	// have the same length.
	DuressCode string

	MaxAttempts int
	LockoutBase time.Duration
	LockoutCap  time.Duration
}

// Authenticator validates unlock attempts against the configured codes and
// enforces escalating lockouts. All methods are safe for concurrent use;
// concurrent Validate calls are serialized so the durable attempt counter
// never loses an increment.
type Authenticator struct {
	store StateStore

	realCode   []byte
	duressCode []byte

	maxAttempts int
	lockoutBase time.Duration
	lockoutCap  time.Duration

	timeProvider TimeProvider

	mu sync.Mutex

	countdownMu    sync.Mutex
	onCountdown    func(remaining time.Duration)
	countdownTick  time.Duration
	countdownStop  chan struct{}
	countdownDone  chan struct{}
	countdownUntil time.Time
}

// NewAuthenticator creates an authenticator persisting state in store.
func NewAuthenticator(store StateStore, cfg Config) (*Authenticator, error) {
	return NewAuthenticatorWithTimeProvider(store, cfg, defaultTimeProvider)
}

// NewAuthenticatorWithTimeProvider creates an authenticator with a custom
// time provider for deterministic lockout timing in tests.
func NewAuthenticatorWithTimeProvider(store StateStore, cfg Config, tp TimeProvider) (*Authenticator, error) {
	if store == nil {
		return nil, fmt.Errorf("state store is required")
	}
	if tp == nil {
		tp = defaultTimeProvider
	}

	if err := limits.ValidatePasscode(cfg.RealCode); err != nil {
		return nil, fmt.Errorf("real code: %w", err)
	}
	if err := limits.ValidatePasscode(cfg.DuressCode); err != nil {
		return nil, fmt.Errorf("duress code: %w", err)
	}
	if cfg.RealCode == cfg.DuressCode {
		return nil, fmt.Errorf("real and duress codes must differ")
	}
	if len(cfg.RealCode) != len(cfg.DuressCode) {
		return nil, fmt.Errorf("real and duress codes must have the same length")
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	lockoutBase := cfg.LockoutBase
	if lockoutBase <= 0 {
		lockoutBase = DefaultLockoutBase
	}
	lockoutCap := cfg.LockoutCap
	if lockoutCap <= 0 {
		lockoutCap = DefaultLockoutCap
	}
	if lockoutCap < lockoutBase {
		return nil, fmt.Errorf("lockout cap %v is shorter than base window %v", lockoutCap, lockoutBase)
	}

	logrus.WithFields(logrus.Fields{
		"function":     "NewAuthenticator",
		"package":      "passcode",
		"max_attempts": maxAttempts,
		"lockout_base": lockoutBase.String(),
		"lockout_cap":  lockoutCap.String(),
	}).Debug("Authenticator configured")

	return &Authenticator{
		store:         store,
		realCode:      []byte(cfg.RealCode),
		duressCode:    []byte(cfg.DuressCode),
		maxAttempts:   maxAttempts,
		lockoutBase:   lockoutBase,
		lockoutCap:    lockoutCap,
		timeProvider:  tp,
		countdownTick: time.Second,
	}, nil
}

// Validate classifies the entered code. The lockout gate runs before any
// comparison: during an active lockout every code, correct or not, yields
// OutcomeLockedOut with the remaining time. Otherwise the code is compared
// against the duress code and then the real code; both comparisons run in
// constant time on every attempt regardless of outcome.
//
// A failure at the attempt threshold engages the lockout but still reports
// OutcomeInvalid; the lockout applies starting with the next attempt. An
// error return means the durable state could not be read or written and the
// outcome must not be trusted.
func (a *Authenticator) Validate(ctx context.Context, code string) (Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	st, err := a.loadState(ctx)
	if err != nil {
		return Result{}, err
	}

	now := a.timeProvider.Now()

	if st.LockoutUntil > 0 {
		until := time.UnixMilli(st.LockoutUntil)
		if now.Before(until) {
			remaining := until.Sub(now)
			a.ensureCountdown(until)
			logrus.WithFields(logrus.Fields{
				"function":     "Validate",
				"package":      "passcode",
				"outcome":      OutcomeLockedOut.String(),
				"remaining_ms": remaining.Milliseconds(),
			}).Info("Unlock attempt during lockout")
			return Result{Outcome: OutcomeLockedOut, Remaining: remaining}, nil
		}
		st.LockoutUntil = 0
	}

	entered := []byte(code)
	duressMatch := subtle.ConstantTimeCompare(entered, a.duressCode) == 1
	realMatch := subtle.ConstantTimeCompare(entered, a.realCode) == 1

	if duressMatch || realMatch {
		outcome := OutcomeReal
		if duressMatch {
			outcome = OutcomeDuress
		}
		a.clearState(ctx)
		a.stopCountdown()
		// One log line for both codes. Logging which surface opened would
		// hand an attacker with log access exactly what the duress code
		// exists to deny them.
		logrus.WithFields(logrus.Fields{
			"function": "Validate",
			"package":  "passcode",
		}).Info("Unlock succeeded")
		return Result{Outcome: outcome}, nil
	}

	st.FailedAttempts++
	if st.FailedAttempts >= a.maxAttempts {
		st.LockoutCount++
		window := a.lockoutWindow(st.LockoutCount)
		until := now.Add(window)
		st.LockoutUntil = until.UnixMilli()
		st.FailedAttempts = 0

		if err := a.saveState(ctx, st); err != nil {
			return Result{}, err
		}

		a.ensureCountdown(until)
		logrus.WithFields(logrus.Fields{
			"function":      "Validate",
			"package":       "passcode",
			"lockout_count": st.LockoutCount,
			"window_ms":     window.Milliseconds(),
		}).Warn("Attempt threshold reached, lockout engaged")
		return Result{Outcome: OutcomeInvalid}, nil
	}

	if err := a.saveState(ctx, st); err != nil {
		return Result{}, err
	}

	logrus.WithFields(logrus.Fields{
		"function":        "Validate",
		"package":         "passcode",
		"outcome":         OutcomeInvalid.String(),
		"failed_attempts": st.FailedAttempts,
	}).Info("Unlock attempt failed")
	return Result{Outcome: OutcomeInvalid}, nil
}

// lockoutWindow returns the window for the given consecutive lockout count:
// the base window doubled per lockout, never exceeding the cap.
func (a *Authenticator) lockoutWindow(count int) time.Duration {
	window := a.lockoutBase
	for i := 1; i < count; i++ {
		window *= 2
		if window <= 0 || window >= a.lockoutCap {
			return a.lockoutCap
		}
	}
	if window > a.lockoutCap {
		return a.lockoutCap
	}
	return window
}

// OnCountdown registers a callback receiving the remaining lockout time,
// once per tick while a lockout is active and a final zero when it expires.
// Register before the first Validate call; the callback runs on the
// countdown goroutine and must not call back into the Authenticator.
func (a *Authenticator) OnCountdown(fn func(remaining time.Duration)) {
	a.countdownMu.Lock()
	defer a.countdownMu.Unlock()
	a.onCountdown = fn
}

// Close cancels any running countdown and waits for its goroutine to exit.
// Safe to call multiple times.
func (a *Authenticator) Close() {
	a.stopCountdown()
}

// ensureCountdown starts the countdown for the given deadline, replacing a
// countdown for any other deadline. Without a registered callback there is
// nothing to drive and no goroutine is started.
func (a *Authenticator) ensureCountdown(until time.Time) {
	a.countdownMu.Lock()
	defer a.countdownMu.Unlock()

	if a.onCountdown == nil {
		return
	}
	if a.countdownStop != nil && until.Equal(a.countdownUntil) {
		return
	}
	a.stopCountdownLocked()

	stop := make(chan struct{})
	done := make(chan struct{})
	a.countdownStop = stop
	a.countdownDone = done
	a.countdownUntil = until
	go a.runCountdown(until, a.onCountdown, stop, done)
}

func (a *Authenticator) stopCountdown() {
	a.countdownMu.Lock()
	defer a.countdownMu.Unlock()
	a.stopCountdownLocked()
}

// stopCountdownLocked cancels the running countdown and waits for the
// goroutine to finish, so no callback fires after this returns. The
// goroutine never takes countdownMu; see runCountdown.
func (a *Authenticator) stopCountdownLocked() {
	if a.countdownStop == nil {
		return
	}
	close(a.countdownStop)
	<-a.countdownDone
	a.countdownStop = nil
	a.countdownDone = nil
	a.countdownUntil = time.Time{}
}

// runCountdown drives the registered callback until the deadline passes or
// the countdown is cancelled. The callback is captured by the caller, so
// this goroutine touches no Authenticator locks.
func (a *Authenticator) runCountdown(until time.Time, notify func(time.Duration), stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(a.countdownTick)
	defer ticker.Stop()

	for {
		remaining := until.Sub(a.timeProvider.Now())
		if remaining <= 0 {
			notify(0)
			return
		}
		notify(remaining)

		select {
		case <-ticker.C:
		case <-stop:
			return
		}
	}
}
