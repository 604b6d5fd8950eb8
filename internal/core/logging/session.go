package logging

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/radhelper/loghelper/internal/core/ports"
	"github.com/radhelper/loghelper/internal/core/record"
)

// State represents the iteration lifecycle state of a session.
type State string

const (
	StateIdle            State = "idle"
	StateIterationActive State = "iteration_active"
)

// Config holds the mutable session thresholds. All of them can be
// adjusted after creation through the session setters.
type Config struct {
	// MaxErrorsPerIter caps both the error tally and the number of error
	// detail records per iteration. Exceeding the tally is a threshold
	// condition; details beyond the cap are silently dropped.
	MaxErrorsPerIter uint64

	// MaxInfosPerIter is the informational counterpart. Overflowing it
	// is reported but never aborts.
	MaxInfosPerIter uint64

	// IterIntervalPrint controls how often records are actually handed
	// to the transport: only on iterations whose number is a multiple of
	// the interval. Always >= 1; 1 means every iteration.
	IterIntervalPrint uint64

	// DoubleErrorKill enables the two-strikes abort policy.
	DoubleErrorKill bool
}

// DefaultConfig returns the session defaults: caps of 500, records
// emitted every iteration, abort policy enabled.
func DefaultConfig() Config {
	return Config{
		MaxErrorsPerIter:  500,
		MaxInfosPerIter:   500,
		IterIntervalPrint: 1,
		DoubleErrorKill:   true,
	}
}

// Session is the logging state machine driven synchronously by the
// instrumented workload. It tracks the iteration lifecycle, accumulates
// error/info tallies, enforces the abort policy, and forwards records to
// its transport. The caller provides external serialization; the session
// itself takes no locks.
type Session struct {
	identity record.Identity
	cfg      Config

	state       State
	iterStarted time.Time

	iterationNumber uint64
	kernelTime      float64
	kernelTimeAcc   float64

	// Per-iteration tallies, reset by StartIteration.
	iterErrors      uint64
	iterInfos       uint64
	iterErrDetails  uint64
	iterInfoDetails uint64

	// Rolling history for the double-error check. lastIterErrors > 0
	// means iteration lastIterWithErrors completed with that many errors.
	lastIterErrors     uint64
	lastIterWithErrors uint64

	kernelsTotalErrors uint64
	totalInfos         uint64

	transport ports.Transport
	log       *slog.Logger
	now       func() time.Time
}

// NewSession creates a session bound to an already-opened transport.
// Identity is immutable from here on.
func NewSession(id record.Identity, transport ports.Transport, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		identity:  id,
		cfg:       DefaultConfig(),
		state:     StateIdle,
		transport: transport,
		log:       logger.With("benchmark", id.Benchmark, "logname", id.LogFileName),
		now:       time.Now,
	}
}

// Identity returns the immutable session identity.
func (s *Session) Identity() record.Identity { return s.identity }

// LogFileName returns the derived log identifier.
func (s *Session) LogFileName() string { return s.identity.LogFileName }

// IterationNumber returns the count of completed iterations.
func (s *Session) IterationNumber() uint64 { return s.iterationNumber }

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// LastIterErrors returns the error tally of the most recent
// error-bearing completed iteration, zero if none completed with errors.
func (s *Session) LastIterErrors() uint64 { return s.lastIterErrors }

// TotalErrors returns the error count accumulated across all iterations.
func (s *Session) TotalErrors() uint64 { return s.kernelsTotalErrors }

// TotalInfos returns the info count accumulated across all iterations.
func (s *Session) TotalInfos() uint64 { return s.totalInfos }

// KernelTimeAcc returns the summed iteration time in seconds.
func (s *Session) KernelTimeAcc() float64 { return s.kernelTimeAcc }

// CopyLogFileName copies the log identifier into a caller-supplied
// buffer and returns the number of bytes written. The buffer must be
// pre-sized: a short buffer fails with ErrBufferTooSmall instead of
// truncating.
func (s *Session) CopyLogFileName(dst []byte) (int, error) {
	name := s.identity.LogFileName
	if len(dst) < len(name) {
		return 0, fmt.Errorf("copy log file name (need %d bytes, have %d): %w",
			len(name), len(dst), ErrBufferTooSmall)
	}
	return copy(dst, name), nil
}

// SetMaxErrorsIter updates the per-iteration error cap and returns the
// effective value.
func (s *Session) SetMaxErrorsIter(n uint64) uint64 {
	s.cfg.MaxErrorsPerIter = n
	return s.cfg.MaxErrorsPerIter
}

// SetMaxInfosIter updates the per-iteration info cap and returns the
// effective value.
func (s *Session) SetMaxInfosIter(n uint64) uint64 {
	s.cfg.MaxInfosPerIter = n
	return s.cfg.MaxInfosPerIter
}

// SetIterIntervalPrint updates the emission cadence and returns the
// effective value. Values below 1 clamp to 1.
func (s *Session) SetIterIntervalPrint(n uint64) uint64 {
	if n < 1 {
		n = 1
	}
	s.cfg.IterIntervalPrint = n
	return s.cfg.IterIntervalPrint
}

// DisableDoubleErrorKill turns off the abort policy entirely, including
// for threshold-exceeded conditions.
func (s *Session) DisableDoubleErrorKill() {
	s.cfg.DoubleErrorKill = false
}

// StartIteration transitions Idle -> IterationActive, records the start
// time, and resets the per-iteration tallies.
func (s *Session) StartIteration() error {
	if s.state != StateIdle {
		return fmt.Errorf("start iteration %d while one is active: %w",
			s.iterationNumber, ErrInvalidStateTransition)
	}
	s.state = StateIterationActive
	s.iterStarted = s.now()
	s.iterErrors = 0
	s.iterInfos = 0
	s.iterErrDetails = 0
	s.iterInfoDetails = 0
	return nil
}

// EndIteration transitions IterationActive -> Idle, accumulates the
// elapsed time, rolls the error history forward, and advances the
// iteration counter. The timing record is emitted when the print
// interval permits; a transport failure is reported but the state
// transition still completes.
func (s *Session) EndIteration() error {
	if s.state != StateIterationActive {
		return fmt.Errorf("end iteration with none active: %w", ErrInvalidStateTransition)
	}
	s.kernelTime = s.now().Sub(s.iterStarted).Seconds()
	s.kernelTimeAcc += s.kernelTime

	if s.iterErrors > 0 {
		s.lastIterErrors = s.iterErrors
		s.lastIterWithErrors = s.iterationNumber
	}

	var sendErr error
	if s.emitting() {
		sendErr = s.transport.Send(record.Iteration(
			s.identity, s.iterationNumber, s.kernelTime, s.kernelTimeAcc))
	}

	s.iterationNumber++
	s.state = StateIdle

	if sendErr != nil {
		return fmt.Errorf("end iteration %d: %w", s.iterationNumber-1, sendErr)
	}
	return nil
}

// LogErrorCount adds n to the current iteration's error tally and the
// session total, then enforces the thresholds. With the abort policy
// enabled, either an overflowing tally or a second consecutive
// error-bearing iteration yields ErrFatalAbort; the caller must treat
// that as terminal.
func (s *Session) LogErrorCount(n uint64) error {
	if s.state != StateIterationActive {
		return fmt.Errorf("log error count with no active iteration: %w", ErrInvalidStateTransition)
	}
	if n == 0 {
		return nil
	}
	s.iterErrors += n
	s.kernelsTotalErrors += n

	// The tally goes out ahead of the threshold checks so the
	// collector sees the count that tripped the cap before any abort.
	var sendErr error
	if s.emitting() {
		sendErr = s.transport.Send(record.ErrorCount(
			s.identity, s.iterationNumber, s.kernelTime, s.kernelTimeAcc,
			s.iterErrors, s.kernelsTotalErrors))
		if sendErr != nil {
			s.log.Warn("error count record not delivered",
				"iteration", s.iterationNumber, "error", sendErr)
		}
	}

	if s.iterErrors > s.cfg.MaxErrorsPerIter {
		if s.cfg.DoubleErrorKill {
			return s.abort(fmt.Errorf(
				"iteration %d error count %d over cap %d: %w: %w",
				s.iterationNumber, s.iterErrors, s.cfg.MaxErrorsPerIter,
				ErrIterationThresholdExceeded, ErrFatalAbort))
		}
		return fmt.Errorf("iteration %d error count %d over cap %d: %w",
			s.iterationNumber, s.iterErrors, s.cfg.MaxErrorsPerIter,
			ErrIterationThresholdExceeded)
	}

	// Two strikes: the immediately preceding iteration also carried
	// errors. An isolated error-bearing iteration never kills the run.
	if s.cfg.DoubleErrorKill && s.lastIterErrors > 0 && s.lastIterWithErrors+1 == s.iterationNumber {
		return s.abort(fmt.Errorf(
			"errors in consecutive iterations %d and %d: %w",
			s.lastIterWithErrors, s.iterationNumber, ErrFatalAbort))
	}

	if sendErr != nil {
		return fmt.Errorf("log error count: %w", sendErr)
	}
	return nil
}

// LogInfoCount adds n to the current iteration's info tally and the
// session total. Overflowing the info cap is reported but never aborts.
func (s *Session) LogInfoCount(n uint64) error {
	if s.state != StateIterationActive {
		return fmt.Errorf("log info count with no active iteration: %w", ErrInvalidStateTransition)
	}
	if n == 0 {
		return nil
	}
	s.iterInfos += n
	s.totalInfos += n

	var sendErr error
	if s.emitting() {
		sendErr = s.transport.Send(record.InfoCount(
			s.identity, s.iterationNumber, s.iterInfos, s.totalInfos))
		if sendErr != nil {
			s.log.Warn("info count record not delivered",
				"iteration", s.iterationNumber, "error", sendErr)
		}
	}

	if s.iterInfos > s.cfg.MaxInfosPerIter {
		return fmt.Errorf("iteration %d info count %d over cap %d: %w",
			s.iterationNumber, s.iterInfos, s.cfg.MaxInfosPerIter,
			ErrIterationThresholdExceeded)
	}

	if sendErr != nil {
		return fmt.Errorf("log info count: %w", sendErr)
	}
	return nil
}

// LogErrorDetail records a free-text error description for the current
// iteration. Beyond the per-iteration cap the record is dropped and the
// call still succeeds.
func (s *Session) LogErrorDetail(text string) error {
	if s.state != StateIterationActive {
		return fmt.Errorf("log error detail with no active iteration: %w", ErrInvalidStateTransition)
	}
	if s.iterErrDetails >= s.cfg.MaxErrorsPerIter {
		return nil
	}
	s.iterErrDetails++
	if s.emitting() {
		if err := s.transport.Send(record.ErrorDetail(s.identity, s.iterationNumber, text)); err != nil {
			return fmt.Errorf("log error detail: %w", err)
		}
	}
	return nil
}

// LogInfoDetail records a free-text informational description for the
// current iteration, capped the same way as error details.
func (s *Session) LogInfoDetail(text string) error {
	if s.state != StateIterationActive {
		return fmt.Errorf("log info detail with no active iteration: %w", ErrInvalidStateTransition)
	}
	if s.iterInfoDetails >= s.cfg.MaxInfosPerIter {
		return nil
	}
	s.iterInfoDetails++
	if s.emitting() {
		if err := s.transport.Send(record.InfoDetail(s.identity, s.iterationNumber, text)); err != nil {
			return fmt.Errorf("log info detail: %w", err)
		}
	}
	return nil
}

// Close emits the end-of-session marker and releases the transport.
// Called exactly once, by whoever owns the session.
func (s *Session) Close() error {
	if err := s.transport.Send(record.End(s.identity)); err != nil {
		s.log.Warn("end marker not delivered", "error", err)
	}
	return s.transport.Close()
}

// abort notifies the collector best-effort and hands the terminal error
// to the caller. The process exit happens outside the core.
func (s *Session) abort(cause error) error {
	s.log.Error("session abort", "error", cause)
	if err := s.transport.Send(record.Abort(s.identity, cause.Error())); err != nil {
		s.log.Warn("abort notification not delivered", "error", err)
	}
	return cause
}

// emitting reports whether the current iteration's records go to the
// transport under the configured print interval.
func (s *Session) emitting() bool {
	return s.iterationNumber%s.cfg.IterIntervalPrint == 0
}
