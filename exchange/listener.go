package exchange

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/pathdss/lisbridge/logger"
	"github.com/pathdss/lisbridge/mllp"
	"github.com/pathdss/lisbridge/worklist"
)

// AckFunc produces the raw acknowledgment payload for a raw inbound order
// payload. It is an external collaborator boundary: implementations must not
// block on I/O or the network, since they run inline on the accept lane.
type AckFunc func(payload []byte) ([]byte, error)

// Listener accepts inbound order connections in the server role.
//
// The accept loop handles each accepted connection to completion before the
// next Accept call is issued, so inbound exchanges are strictly serialized.
// Per connection it reads one framed order, writes the framed acknowledgment
// back on the same connection, enqueues the unframed payload with attempt 0
// and closes. Every successful inbound exchange enqueues exactly one item.
type Listener struct {
	cfg      *Config
	logger   logger.Logger
	queue    *worklist.Deque[worklist.Item]
	buildAck AckFunc
	reader   *mllp.Reader
	metrics  *Metrics

	listenerMutex sync.Mutex
	listener      net.Listener
}

// NewListener creates a Listener that feeds queue, acknowledging each order
// with the payload produced by buildAck.
func NewListener(cfg *Config, queue *worklist.Deque[worklist.Item], buildAck AckFunc) (*Listener, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}
	if queue == nil {
		return nil, errors.New("exchange: queue is nil")
	}
	if buildAck == nil {
		return nil, errors.New("exchange: ack func is nil")
	}

	return &Listener{
		cfg:      cfg,
		logger:   cfg.logger,
		queue:    queue,
		buildAck: buildAck,
		reader:   &mllp.Reader{MaxFrameSize: cfg.maxFrameSize},
		metrics:  &Metrics{},
	}, nil
}

// Metrics returns the exchange metrics updated by this listener.
func (l *Listener) Metrics() *Metrics {
	return l.metrics
}

// Addr returns the bound listen address, or nil before Listen succeeds.
// Useful when binding port 0 in tests.
func (l *Listener) Addr() net.Addr {
	l.listenerMutex.Lock()
	defer l.listenerMutex.Unlock()

	if l.listener == nil {
		return nil
	}
	return l.listener.Addr()
}

// Listen binds the configured local address.
func (l *Listener) Listen(ctx context.Context) error {
	address := net.JoinHostPort(l.cfg.listenHost, strconv.Itoa(l.cfg.listenPort))

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		l.logger.Error("failed to listen", "address", address, "error", err)
		return err
	}

	l.listenerMutex.Lock()
	l.listener = listener
	l.listenerMutex.Unlock()

	l.logger.Info("listening for order messages", "address", listener.Addr())

	return nil
}

// Close closes the listener socket. In-progress exchanges finish on their
// own connections. It returns ErrListenerClosed if the listener is not
// bound or was already closed.
func (l *Listener) Close() error {
	l.listenerMutex.Lock()
	defer l.listenerMutex.Unlock()

	if l.listener == nil {
		return ErrListenerClosed
	}

	err := l.listener.Close()
	l.listener = nil

	return err
}

// AcceptOnce waits for one connection and runs its exchange to completion.
// It returns false when the listener is closed or ctx is done, true
// otherwise, so it can serve directly as a task loop body.
func (l *Listener) AcceptOnce(ctx context.Context) bool {
	tcpListener := l.getTCPListener()
	if tcpListener == nil {
		return false
	}

	conn, err := tcpListener.Accept()
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			select {
			case <-ctx.Done():
				l.logger.Debug("accept canceled by context", "method", "AcceptOnce")
				return false
			default:
				return true // re-accept if context is not done
			}
		}

		if errors.Is(err, net.ErrClosed) {
			return false
		}

		l.logger.Error("failed to accept connection", "method", "AcceptOnce", "error", err)

		return true // re-accept again
	}

	l.logger.Debug("connection accepted", "remote_address", conn.RemoteAddr())

	// inbound exchanges are serialized: handle to completion before the
	// next accept
	l.handleConn(conn)

	return true
}

// handleConn runs one inbound exchange: read order, ack, enqueue.
//
// Any failure aborts the exchange without enqueuing and without acknowledging;
// the remote peer is expected to retry the delivery. Failures here are local
// to the exchange and never stop the accept loop.
func (l *Listener) handleConn(conn net.Conn) {
	defer func() {
		_ = conn.Close()
		l.logger.Debug("connection closed", "remote_address", conn.RemoteAddr())
	}()

	if l.cfg.readTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(l.cfg.readTimeout)); err != nil {
			l.metrics.incInboundErrCount()
			l.logger.Error("failed to set read deadline", "error", err)
			return
		}
	}

	payload, err := l.reader.ReadFrame(conn)
	if err != nil {
		l.metrics.incInboundErrCount()
		l.logger.Error("failed to read order frame, aborting exchange",
			"remote_address", conn.RemoteAddr(), "error", err)
		return
	}

	ack, err := l.buildAck(payload)
	if err != nil {
		l.metrics.incInboundErrCount()
		l.logger.Error("failed to build acknowledgment, aborting exchange", "error", err)
		return
	}

	if l.cfg.writeTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(l.cfg.writeTimeout)); err != nil {
			l.metrics.incInboundErrCount()
			l.logger.Error("failed to set write deadline", "error", err)
			return
		}
	}

	if _, err := conn.Write(mllp.Encode(ack)); err != nil {
		l.metrics.incInboundErrCount()
		l.logger.Error("failed to write acknowledgment, aborting exchange", "error", err)
		return
	}
	l.metrics.incAckSentCount()

	l.queue.PushBack(worklist.Item{Payload: string(payload), Attempt: 0})
	l.metrics.incOrderRecvCount()

	l.logger.Info("order received and enqueued",
		"remote_address", conn.RemoteAddr(),
		"payload_bytes", len(payload),
		"queue_len", l.queue.Len(),
	)
}

// getTCPListener returns the listener with the per-iteration accept deadline
// armed, or nil when the listener is closed.
func (l *Listener) getTCPListener() *net.TCPListener {
	l.listenerMutex.Lock()
	defer l.listenerMutex.Unlock()

	if l.listener == nil {
		return nil
	}

	tcpListener, ok := l.listener.(*net.TCPListener)
	if !ok {
		l.logger.Error("listener is not a TCP listener")
		return nil
	}

	if err := tcpListener.SetDeadline(time.Now().Add(l.cfg.acceptTimeout)); err != nil {
		l.logger.Error("failed to set deadline for tcp listener", "error", err)
		return nil
	}

	return tcpListener
}
