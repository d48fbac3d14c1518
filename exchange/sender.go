package exchange

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/pathdss/lisbridge/logger"
	"github.com/pathdss/lisbridge/mllp"
)

// Sender delivers result messages to the fixed downstream peer in the
// client role.
//
// Each SendAndAwaitAck call makes exactly one connection attempt: dial,
// write the framed payload, block reading the framed acknowledgment, close.
// The sender never reconnects or retries; a failure here surfaces to the
// caller, and whether the item is reprocessed is the worker's decision, not
// the sender's.
type Sender struct {
	cfg     *Config
	logger  logger.Logger
	reader  *mllp.Reader
	metrics *Metrics
}

// NewSender creates a Sender for the configured downstream address.
func NewSender(cfg *Config) (*Sender, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	return &Sender{
		cfg:     cfg,
		logger:  cfg.logger,
		reader:  &mllp.Reader{MaxFrameSize: cfg.maxFrameSize},
		metrics: &Metrics{},
	}, nil
}

// Metrics returns the exchange metrics updated by this sender.
func (s *Sender) Metrics() *Metrics {
	return s.metrics
}

// SendAndAwaitAck opens a new connection to the downstream peer, writes the
// framed payload, waits for the complete framed acknowledgment and returns
// its payload. The connection is closed before returning in every case.
func (s *Sender) SendAndAwaitAck(ctx context.Context, payload []byte) ([]byte, error) {
	address := net.JoinHostPort(s.cfg.remoteHost, strconv.Itoa(s.cfg.remotePort))

	dialer := net.Dialer{Timeout: s.cfg.connectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		s.metrics.incOutboundErrCount()
		return nil, fmt.Errorf("connect to downstream %s: %w", address, err)
	}
	defer func() {
		_ = conn.Close()
		s.logger.Debug("downstream connection closed", "address", address)
	}()

	if s.cfg.writeTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(s.cfg.writeTimeout)); err != nil {
			s.metrics.incOutboundErrCount()
			return nil, fmt.Errorf("set write deadline: %w", err)
		}
	}

	if _, err := conn.Write(mllp.Encode(payload)); err != nil {
		s.metrics.incOutboundErrCount()
		return nil, fmt.Errorf("write result to downstream: %w", err)
	}

	if s.cfg.readTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(s.cfg.readTimeout)); err != nil {
			s.metrics.incOutboundErrCount()
			return nil, fmt.Errorf("set read deadline: %w", err)
		}
	}

	ack, err := s.reader.ReadFrame(conn)
	if err != nil {
		s.metrics.incOutboundErrCount()
		return nil, fmt.Errorf("read downstream acknowledgment: %w", err)
	}

	s.metrics.incResultSentCount()
	s.logger.Info("result delivered, acknowledgment received",
		"address", address,
		"payload_bytes", len(payload),
		"ack_bytes", len(ack),
	)

	return ack, nil
}
