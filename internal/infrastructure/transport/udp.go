package transport

import (
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/radhelper/loghelper/internal/core/ports"
	"github.com/radhelper/loghelper/internal/core/record"
)

// Compile-time interface checks.
var (
	_ ports.Transport = (*UDPSender)(nil)
	_ ports.Transport = (*TCPSender)(nil)
)

const udpWriteTimeout = 2 * time.Second

// UDPSender is the connectionless transport: every record goes out as an
// independent datagram, no acknowledgment, no retry. Suited to high
// iteration rates where latency matters more than completeness; the
// collector tolerates gaps.
type UDPSender struct {
	addr string
	ecc  bool
	conn net.Conn
	log  *slog.Logger
}

// NewUDPSender creates a sender targeting the collector at addr
// (host:port). The ecc flag is stamped on every outgoing message.
func NewUDPSender(addr string, ecc bool, logger *slog.Logger) *UDPSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &UDPSender{addr: addr, ecc: ecc, log: logger.With("transport", "udp", "collector", addr)}
}

// Open resolves the collector address and announces the session. A
// resolution failure is a configuration problem and is surfaced; the
// announcement itself is best-effort like every other datagram.
func (u *UDPSender) Open(id record.Identity) error {
	conn, err := net.Dial("udp", u.addr)
	if err != nil {
		return fmt.Errorf("open udp transport to %s: %w", u.addr, err)
	}
	u.conn = conn
	u.Send(record.Header(id))
	u.Send(record.Begin(id))
	return nil
}

// Send writes one datagram. Failures are logged and swallowed: loss of
// a single record never disturbs the session.
func (u *UDPSender) Send(rec record.Record) error {
	if u.conn == nil {
		u.log.Warn("send on unopened transport", "kind", rec.Kind)
		return nil
	}
	u.conn.SetWriteDeadline(time.Now().Add(udpWriteTimeout))
	if _, err := u.conn.Write(rec.EncodeLine(u.ecc)); err != nil {
		u.log.Warn("datagram not sent", "kind", rec.Kind, "error", err)
	}
	return nil
}

// Close releases the socket.
func (u *UDPSender) Close() error {
	if u.conn == nil {
		return nil
	}
	err := u.conn.Close()
	u.conn = nil
	return err
}
