package passcode

import "time"

// Outcome classifies a validation attempt. The set is closed: callers must
// branch over exactly these four values, and the zero value is the safe one.
type Outcome int

const (
	// OutcomeInvalid means the code matched neither configured code.
	OutcomeInvalid Outcome = iota
	// OutcomeReal means the code matched the real unlock code.
	OutcomeReal
	// OutcomeDuress means the code matched the duress code. The caller
	// presents the decoy surface and must behave exactly like a real
	// unlock in every observable way.
	OutcomeDuress
	// OutcomeLockedOut means a lockout is active and the code was rejected
	// without comparison. Result.Remaining carries the time left.
	OutcomeLockedOut
)

// String returns the outcome name for logs.
func (o Outcome) String() string {
	switch o {
	case OutcomeInvalid:
		return "invalid"
	case OutcomeReal:
		return "real"
	case OutcomeDuress:
		return "duress"
	case OutcomeLockedOut:
		return "locked_out"
	default:
		return "unknown"
	}
}

// Result is the full answer to a validation attempt.
type Result struct {
	Outcome Outcome

	// Remaining is the time left on the active lockout. It is set only
	// when Outcome is OutcomeLockedOut and is always positive there.
	Remaining time.Duration
}
