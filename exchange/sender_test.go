package exchange

import (
	"context"
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pathdss/lisbridge/mllp"
)

var errTest = errors.New("test failure")

// fakeDownstream is a one-shot MLLP peer: it accepts a single connection,
// reads one frame and answers with handler's reply (nil closes without an
// acknowledgment).
func fakeDownstream(t *testing.T, handler func(payload []byte) []byte) (host string, port int) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		payload, err := mllp.NewReader().ReadFrame(conn)
		if err != nil {
			return
		}

		if reply := handler(payload); reply != nil {
			_, _ = conn.Write(mllp.Encode(reply))
		}
	}()

	tcpAddr := ln.Addr().(*net.TCPAddr)
	return tcpAddr.IP.String(), tcpAddr.Port
}

func senderConfig(t *testing.T, host string, port int) *Config {
	t.Helper()

	cfg, err := NewConfig("127.0.0.1", 0, host, port,
		WithConnectTimeout(time.Second),
		WithReadTimeout(2*time.Second),
		WithWriteTimeout(2*time.Second),
	)
	require.NoError(t, err)
	return cfg
}

func TestSender_SendAndAwaitAck(t *testing.T) {
	require := require.New(t)

	host, port := fakeDownstream(t, func(payload []byte) []byte {
		require.Equal([]byte("RESULT1"), payload)
		return []byte("ACK:RESULT1")
	})

	s, err := NewSender(senderConfig(t, host, port))
	require.NoError(err)

	ack, err := s.SendAndAwaitAck(context.Background(), []byte("RESULT1"))
	require.NoError(err)
	require.Equal([]byte("ACK:RESULT1"), ack)

	require.Equal(uint64(1), s.Metrics().ResultSentCount.Load())
	require.Equal(uint64(0), s.Metrics().OutboundErrCount.Load())
}

func TestSender_ConnectRefused(t *testing.T) {
	require := require.New(t)

	// bind then close to obtain a port that refuses connections
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(ln.Close())

	s, err := NewSender(senderConfig(t, "127.0.0.1", port))
	require.NoError(err)

	_, err = s.SendAndAwaitAck(context.Background(), []byte("RESULT1"))
	require.Error(err)
	require.Contains(err.Error(), "connect to downstream "+net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	require.Equal(uint64(1), s.Metrics().OutboundErrCount.Load())
}

func TestSender_NoAckBeforeClose(t *testing.T) {
	require := require.New(t)

	host, port := fakeDownstream(t, func(payload []byte) []byte {
		return nil // close without acknowledging
	})

	s, err := NewSender(senderConfig(t, host, port))
	require.NoError(err)

	_, err = s.SendAndAwaitAck(context.Background(), []byte("RESULT1"))
	require.Error(err)
	require.ErrorIs(err, mllp.ErrIncompleteFrame)
	require.Equal(uint64(1), s.Metrics().OutboundErrCount.Load())
}

func TestNewSender_Validation(t *testing.T) {
	require := require.New(t)

	_, err := NewSender(nil)
	require.ErrorIs(err, ErrConfigNil)
}
