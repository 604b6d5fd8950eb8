package logging

import "errors"

// Sentinel error kinds of the session surface. Callers match them with
// errors.Is; every returned error wraps exactly one of these (FatalAbort
// additionally wraps the condition that triggered it).
var (
	// ErrInvalidStateTransition reports iteration lifecycle misuse:
	// starting an iteration while one is active, ending one while idle,
	// or logging counts/details outside an active iteration.
	ErrInvalidStateTransition = errors.New("invalid iteration state transition")

	// ErrIterationThresholdExceeded reports that an iteration's error or
	// info tally went over its configured cap.
	ErrIterationThresholdExceeded = errors.New("iteration threshold exceeded")

	// ErrFatalAbort is the one condition callers are contractually
	// obligated to treat as terminal. The session never exits the
	// process itself; it hands the decision upward.
	ErrFatalAbort = errors.New("fatal abort")

	// ErrBufferTooSmall reports that a caller-supplied buffer cannot
	// hold the log file name.
	ErrBufferTooSmall = errors.New("buffer too small")
)
