package transport

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/radhelper/loghelper/internal/core/ports"
	"github.com/radhelper/loghelper/internal/core/record"
)

// RetryPolicy bounds the reconnect loop of the connection-oriented
// transport. The window is fixed at configuration time; there is no
// backoff beyond the constant delay.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetryPolicy allows three attempts half a second apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Delay: 500 * time.Millisecond}
}

const (
	tcpDialTimeout  = 2 * time.Second
	tcpWriteTimeout = 5 * time.Second
)

// TCPSender is the connection-oriented transport. It keeps a persistent
// stream to the collector and frames each record as a big-endian uint32
// length prefix followed by the line bytes. Records successfully written
// arrive in order; records attempted during an outage are lost, not
// buffered. After a connection drop it re-dials within the retry policy
// and re-announces the session identity so the collector can re-attach
// the stream.
type TCPSender struct {
	addr  string
	ecc   bool
	retry RetryPolicy

	conn     net.Conn
	identity record.Identity
	log      *slog.Logger
}

// NewTCPSender creates a sender targeting the collector at addr
// (host:port) with the given retry policy.
func NewTCPSender(addr string, ecc bool, retry RetryPolicy, logger *slog.Logger) *TCPSender {
	if logger == nil {
		logger = slog.Default()
	}
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}
	return &TCPSender{
		addr:  addr,
		ecc:   ecc,
		retry: retry,
		log:   logger.With("transport", "tcp", "collector", addr),
	}
}

// Open connects to the collector and announces the session identity.
// The identity is kept for re-announcement after reconnects.
func (t *TCPSender) Open(id record.Identity) error {
	t.identity = id
	if err := t.connect(); err != nil {
		return fmt.Errorf("open tcp transport to %s: %v: %w", t.addr, err, ports.ErrTransportUnavailable)
	}
	return nil
}

// Send writes one framed record, re-dialing within the retry policy when
// the stream is down. Exhausting the policy yields ErrTransportUnavailable.
func (t *TCPSender) Send(rec record.Record) error {
	frame := frameLine(rec.EncodeLine(t.ecc))
	for attempt := 0; attempt < t.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(t.retry.Delay)
		}
		if t.conn == nil {
			if err := t.connect(); err != nil {
				t.log.Warn("reconnect failed", "attempt", attempt+1, "error", err)
				continue
			}
		}
		if err := t.write(frame); err != nil {
			t.log.Warn("send failed, dropping connection", "kind", rec.Kind, "error", err)
			t.dropConn()
			continue
		}
		return nil
	}
	return fmt.Errorf("send %s record to %s after %d attempts: %w",
		rec.Kind, t.addr, t.retry.MaxAttempts, ports.ErrTransportUnavailable)
}

// Close shuts the stream down. Safe after a failed Open.
func (t *TCPSender) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

// connect dials the collector and replays the identity handshake.
func (t *TCPSender) connect() error {
	conn, err := net.DialTimeout("tcp", t.addr, tcpDialTimeout)
	if err != nil {
		return err
	}
	t.conn = conn
	for _, rec := range []record.Record{record.Header(t.identity), record.Begin(t.identity)} {
		if err := t.write(frameLine(rec.EncodeLine(t.ecc))); err != nil {
			t.dropConn()
			return err
		}
	}
	return nil
}

func (t *TCPSender) write(frame []byte) error {
	t.conn.SetWriteDeadline(time.Now().Add(tcpWriteTimeout))
	_, err := t.conn.Write(frame)
	return err
}

func (t *TCPSender) dropConn() {
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
}

// frameLine prepends the big-endian uint32 length prefix.
func frameLine(line []byte) []byte {
	frame := make([]byte, 4+len(line))
	binary.BigEndian.PutUint32(frame, uint32(len(line)))
	copy(frame[4:], line)
	return frame
}
