package transport

import (
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radhelper/loghelper/internal/core/ports"
	"github.com/radhelper/loghelper/internal/core/record"
)

// tcpCollector accepts stream connections and decodes length-prefixed
// frames into a channel.
type tcpCollector struct {
	listener net.Listener
	frames   chan string
}

func newTCPCollector(t *testing.T) *tcpCollector {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	c := &tcpCollector{listener: listener, frames: make(chan string, 64)}
	t.Cleanup(func() { listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go c.readFrames(conn)
		}
	}()
	return c
}

func (c *tcpCollector) addr() string { return c.listener.Addr().String() }

func (c *tcpCollector) readFrames(conn net.Conn) {
	defer conn.Close()
	for {
		var length uint32
		if err := binary.Read(conn, binary.BigEndian, &length); err != nil {
			return
		}
		payload := make([]byte, length)
		if _, err := io.ReadFull(conn, payload); err != nil {
			return
		}
		c.frames <- string(payload)
	}
}

func (c *tcpCollector) next(t *testing.T) string {
	t.Helper()
	select {
	case frame := <-c.frames:
		return frame
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a frame")
		return ""
	}
}

func fastRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Delay: 10 * time.Millisecond}
}

func TestTCPSender_Open_AnnouncesSession(t *testing.T) {
	collector := newTCPCollector(t)
	sender := NewTCPSender(collector.addr(), false, fastRetry(), nil)
	t.Cleanup(func() { sender.Close() })

	require.NoError(t, sender.Open(testIdentity()))

	assert.Equal(t, "0#HEADER benchmark:bench_a logname:/var/rad/log/x.log header:hdr",
		collector.next(t))
	assert.Equal(t, "0#BEGIN", collector.next(t))
}

func TestTCPSender_Send_FramesArriveInOrder(t *testing.T) {
	collector := newTCPCollector(t)
	sender := NewTCPSender(collector.addr(), false, fastRetry(), nil)
	t.Cleanup(func() { sender.Close() })
	require.NoError(t, sender.Open(testIdentity()))
	collector.next(t)
	collector.next(t)

	id := testIdentity()
	require.NoError(t, sender.Send(record.ErrorCount(id, 2, 0.1, 0.2, 1, 1)))
	require.NoError(t, sender.Send(record.ErrorDetail(id, 2, "bitflip")))
	require.NoError(t, sender.Send(record.Iteration(id, 2, 0.1, 0.2)))

	assert.Equal(t, "0#SDC Ite:2 KerTime:0.100000 AccTime:0.200000 KerErr:1 AccErr:1", collector.next(t))
	assert.Equal(t, "0#ERR bitflip", collector.next(t))
	assert.Equal(t, "0#IT 2 KerTime:0.100000 AccTime:0.200000", collector.next(t))
}

func TestTCPSender_Open_NoCollectorIsUnavailable(t *testing.T) {
	// Grab a port and close it again so nothing is listening there.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	listener.Close()

	sender := NewTCPSender(addr, false, fastRetry(), nil)
	err = sender.Open(testIdentity())
	assert.ErrorIs(t, err, ports.ErrTransportUnavailable)
	assert.NoError(t, sender.Close(), "close is safe after a failed open")
}

func TestTCPSender_Send_ReconnectsAndReannounces(t *testing.T) {
	collector := newTCPCollector(t)
	sender := NewTCPSender(collector.addr(), false, fastRetry(), nil)
	t.Cleanup(func() { sender.Close() })
	require.NoError(t, sender.Open(testIdentity()))
	collector.next(t)
	collector.next(t)

	// Sever the stream from the client side; the next Send must
	// re-dial and replay the identity handshake before the record.
	sender.conn.Close()
	sender.conn = nil

	require.NoError(t, sender.Send(record.InfoDetail(testIdentity(), 5, "back")))

	assert.Equal(t, "0#HEADER benchmark:bench_a logname:/var/rad/log/x.log header:hdr",
		collector.next(t))
	assert.Equal(t, "0#BEGIN", collector.next(t))
	assert.Equal(t, "0#INF back", collector.next(t))
}

func TestTCPSender_Send_ExhaustedRetriesAreUnavailable(t *testing.T) {
	collector := newTCPCollector(t)
	sender := NewTCPSender(collector.addr(), false, RetryPolicy{MaxAttempts: 2, Delay: 5 * time.Millisecond}, nil)
	require.NoError(t, sender.Open(testIdentity()))

	// Take the collector away entirely.
	collector.listener.Close()
	sender.conn.Close()
	sender.conn = nil

	err := sender.Send(record.ErrorDetail(testIdentity(), 1, "lost"))
	assert.ErrorIs(t, err, ports.ErrTransportUnavailable)
}
