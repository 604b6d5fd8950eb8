package transport

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radhelper/loghelper/internal/core/record"
)

func testIdentity() record.Identity {
	return record.Identity{Benchmark: "bench_a", Header: "hdr", LogFileName: "/var/rad/log/x.log"}
}

// udpCollector receives datagrams on a loopback socket.
type udpCollector struct {
	conn net.PacketConn
}

func newUDPCollector(t *testing.T) *udpCollector {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &udpCollector{conn: conn}
}

func (c *udpCollector) addr() string { return c.conn.LocalAddr().String() }

func (c *udpCollector) receive(t *testing.T) string {
	t.Helper()
	buf := make([]byte, 4096)
	c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := c.conn.ReadFrom(buf)
	require.NoError(t, err)
	return string(buf[:n])
}

func TestUDPSender_Open_AnnouncesSession(t *testing.T) {
	collector := newUDPCollector(t)
	sender := NewUDPSender(collector.addr(), false, nil)
	t.Cleanup(func() { sender.Close() })

	require.NoError(t, sender.Open(testIdentity()))

	assert.Equal(t, "0#HEADER benchmark:bench_a logname:/var/rad/log/x.log header:hdr",
		collector.receive(t))
	assert.Equal(t, "0#BEGIN", collector.receive(t))
}

func TestUDPSender_Send_OneDatagramPerRecord(t *testing.T) {
	collector := newUDPCollector(t)
	sender := NewUDPSender(collector.addr(), false, nil)
	t.Cleanup(func() { sender.Close() })
	require.NoError(t, sender.Open(testIdentity()))
	collector.receive(t)
	collector.receive(t)

	require.NoError(t, sender.Send(record.ErrorDetail(testIdentity(), 3, "ecc fault")))
	require.NoError(t, sender.Send(record.Iteration(testIdentity(), 3, 0.5, 1.5)))

	assert.Equal(t, "0#ERR ecc fault", collector.receive(t))
	assert.Equal(t, "0#IT 3 KerTime:0.500000 AccTime:1.500000", collector.receive(t))
}

func TestUDPSender_Send_ECCFlag(t *testing.T) {
	collector := newUDPCollector(t)
	sender := NewUDPSender(collector.addr(), true, nil)
	t.Cleanup(func() { sender.Close() })
	require.NoError(t, sender.Open(testIdentity()))

	assert.Equal(t, byte('1'), collector.receive(t)[0])
}

func TestUDPSender_Send_FailureIsSwallowed(t *testing.T) {
	collector := newUDPCollector(t)
	sender := NewUDPSender(collector.addr(), false, nil)
	require.NoError(t, sender.Open(testIdentity()))
	require.NoError(t, sender.Close())

	// Socket is gone; telemetry loss is tolerated by design.
	assert.NoError(t, sender.Send(record.InfoDetail(testIdentity(), 0, "late")))
}

func TestUDPSender_Open_BadAddressFails(t *testing.T) {
	sender := NewUDPSender("this-is-not-a-host:port", false, nil)
	assert.Error(t, sender.Open(testIdentity()))
}
