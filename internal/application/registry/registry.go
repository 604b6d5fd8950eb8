package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/radhelper/loghelper/internal/core/logging"
	"github.com/radhelper/loghelper/internal/core/ports"
	"github.com/radhelper/loghelper/internal/core/record"
)

// ErrSessionExists reports an attempt to create a session while one is
// already active. The caller must destroy the current session first.
var ErrSessionExists = errors.New("a logging session already exists")

// Registry holds the single active logging session of the process and
// forwards every operation to it. With no session, forwarding operations
// are no-ops returning a neutral zero result, so instrumented code never
// has to check for session existence. The session and its transport are
// exclusively owned by the registry; the mutex is held for the whole of
// every forwarded call, so Destroy cannot tear the transport down under
// an in-flight operation.
type Registry struct {
	mu      sync.Mutex
	session *logging.Session
	log     *slog.Logger
}

// New creates an empty registry.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{log: logger}
}

// Create opens the transport, binds a new session to it, and installs
// the session in the registry slot. Fails with ErrSessionExists when a
// session is already active, and closes the transport again when Open
// fails.
func (r *Registry) Create(benchmark, header, logFileName string, transport ports.Transport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session != nil {
		return fmt.Errorf("create session for %q: %w", benchmark, ErrSessionExists)
	}

	identity := record.Identity{
		Benchmark:   benchmark,
		Header:      header,
		LogFileName: logFileName,
	}
	if err := transport.Open(identity); err != nil {
		transport.Close()
		return fmt.Errorf("create session for %q: %w", benchmark, err)
	}

	r.session = logging.NewSession(identity, transport, r.log)
	r.log.Info("session created", "benchmark", benchmark, "logname", logFileName)
	return nil
}

// Destroy closes the active session, releasing its transport, and clears
// the slot. Idempotent: destroying with no session is a no-op.
func (r *Registry) Destroy() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil {
		return nil
	}
	err := r.session.Close()
	r.log.Info("session destroyed", "logname", r.session.LogFileName())
	r.session = nil
	return err
}

// Active reports whether a session is installed.
func (r *Registry) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session != nil
}

// StartIteration forwards to the active session.
func (r *Registry) StartIteration() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return nil
	}
	return r.session.StartIteration()
}

// EndIteration forwards to the active session.
func (r *Registry) EndIteration() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return nil
	}
	return r.session.EndIteration()
}

// LogErrorCount forwards to the active session. A returned
// logging.ErrFatalAbort must be treated as terminal by the caller.
func (r *Registry) LogErrorCount(n uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return nil
	}
	return r.session.LogErrorCount(n)
}

// LogInfoCount forwards to the active session.
func (r *Registry) LogInfoCount(n uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return nil
	}
	return r.session.LogInfoCount(n)
}

// LogErrorDetail forwards to the active session.
func (r *Registry) LogErrorDetail(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return nil
	}
	return r.session.LogErrorDetail(text)
}

// LogInfoDetail forwards to the active session.
func (r *Registry) LogInfoDetail(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return nil
	}
	return r.session.LogInfoDetail(text)
}

// SetMaxErrorsIter forwards to the active session and returns the
// effective cap, zero with no session.
func (r *Registry) SetMaxErrorsIter(n uint64) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return 0
	}
	return r.session.SetMaxErrorsIter(n)
}

// SetMaxInfosIter forwards to the active session and returns the
// effective cap, zero with no session.
func (r *Registry) SetMaxInfosIter(n uint64) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return 0
	}
	return r.session.SetMaxInfosIter(n)
}

// SetIterIntervalPrint forwards to the active session and returns the
// effective (clamped) interval, zero with no session.
func (r *Registry) SetIterIntervalPrint(n uint64) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return 0
	}
	return r.session.SetIterIntervalPrint(n)
}

// DisableDoubleErrorKill forwards to the active session.
func (r *Registry) DisableDoubleErrorKill() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session != nil {
		r.session.DisableDoubleErrorKill()
	}
}

// LogFileName returns the active session's log identifier, empty with
// no session.
func (r *Registry) LogFileName() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return ""
	}
	return r.session.LogFileName()
}

// CopyLogFileName copies the log identifier into a caller-supplied
// buffer, failing with logging.ErrBufferTooSmall when it does not fit.
// With no session it writes nothing and succeeds.
func (r *Registry) CopyLogFileName(dst []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return 0, nil
	}
	return r.session.CopyLogFileName(dst)
}

// IterationNumber returns the active session's completed iteration
// count, zero with no session.
func (r *Registry) IterationNumber() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return 0
	}
	return r.session.IterationNumber()
}

// LastIterErrors returns the error tally of the most recent
// error-bearing iteration, zero with no session.
func (r *Registry) LastIterErrors() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return 0
	}
	return r.session.LastIterErrors()
}

// TotalErrors returns the accumulated error count, zero with no session.
func (r *Registry) TotalErrors() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return 0
	}
	return r.session.TotalErrors()
}

// KernelTimeAcc returns the summed iteration time, zero with no session.
func (r *Registry) KernelTimeAcc() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return 0
	}
	return r.session.KernelTimeAcc()
}
