package ports

import (
	"errors"
	"fmt"

	"github.com/radhelper/loghelper/internal/core/record"
)

// ErrTransportUnavailable signals that a send or connect failed after the
// transport exhausted whatever recovery it is allowed. The session treats
// it as recoverable; telemetry for the affected records is lost.
var ErrTransportUnavailable = errors.New("transport unavailable")

// Transport delivers session records to the remote collector. A session
// owns exactly one Transport, chosen at creation and immutable for the
// session's lifetime. Implementations are driven by a single caller
// thread and need no internal locking.
type Transport interface {
	// Open establishes the channel to the collector and announces the
	// session identity. Called once, before any Send.
	Open(id record.Identity) error

	// Send delivers one record. The connectionless variant recovers from
	// failures locally (loss tolerated); the connection-oriented variant
	// returns ErrTransportUnavailable after bounded reconnect retries.
	Send(rec record.Record) error

	// Close releases the channel. Safe to call after a failed Open.
	Close() error
}

// Kind selects a transport variant at session creation.
type Kind string

const (
	KindUDP Kind = "udp"
	KindTCP Kind = "tcp"
)

// ParseKind validates a transport kind from configuration or flags.
func ParseKind(value string) (Kind, error) {
	switch Kind(value) {
	case KindUDP, KindTCP:
		return Kind(value), nil
	default:
		return "", fmt.Errorf("unknown transport kind %q (want udp or tcp)", value)
	}
}
