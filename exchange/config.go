package exchange

import (
	"errors"
	"time"

	"github.com/pathdss/lisbridge/logger"
)

// Config holds the configuration for the exchange layer: where the listener
// binds, where the sender connects, and the socket timeouts.
//
// The original deployment of this integration ran with no socket timeouts at
// all, so every timeout here accepts zero to mean "block indefinitely". The
// defaults are bounded, though; a stalled peer should not be able to park a
// lane forever unless the operator explicitly asks for that.
type Config struct {
	// listenHost and listenPort form the local address the listener binds
	// for inbound order messages.
	listenHost string
	listenPort int

	// remoteHost and remotePort form the fixed downstream address results
	// are delivered to.
	remoteHost string
	remotePort int

	// acceptTimeout bounds each iteration of the accept loop so the loop can
	// observe shutdown between connections.
	acceptTimeout time.Duration

	// readTimeout bounds the wait for a complete inbound frame and for the
	// downstream acknowledgment. Zero disables the deadline.
	readTimeout time.Duration

	// writeTimeout bounds writing a framed message. Zero disables the
	// deadline.
	writeTimeout time.Duration

	// connectTimeout bounds the outbound dial.
	connectTimeout time.Duration

	// maxFrameSize bounds the size of an accepted inbound or acknowledgment
	// frame.
	maxFrameSize int

	// logger for exchange events and errors.
	logger logger.Logger
}

// NewConfig creates an exchange configuration with the given listen and
// remote endpoints, applying any options over the defaults.
func NewConfig(listenHost string, listenPort int, remoteHost string, remotePort int, opts ...Option) (*Config, error) {
	cfg := &Config{
		acceptTimeout:  1 * time.Second,
		readTimeout:    60 * time.Second,
		writeTimeout:   30 * time.Second,
		connectTimeout: 10 * time.Second,
		maxFrameSize:   0, // mllp.DefaultMaxFrameSize
		logger:         logger.GetLogger(),
	}

	if listenHost == "" {
		return nil, errors.New("exchange: listen host is empty")
	}
	if remoteHost == "" {
		return nil, errors.New("exchange: remote host is empty")
	}
	if listenPort < 0 || listenPort > 65535 {
		return nil, errors.New("exchange: listen port out of range [0, 65535]")
	}
	if remotePort < 1 || remotePort > 65535 {
		return nil, errors.New("exchange: remote port out of range [1, 65535]")
	}

	cfg.listenHost = listenHost
	cfg.listenPort = listenPort
	cfg.remoteHost = remoteHost
	cfg.remotePort = remotePort

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Option represents a functional option for configuring a Config.
type Option interface {
	apply(*Config) error
}

type optFunc struct {
	name      string
	applyFunc func(*Config) error
}

func (o *optFunc) apply(cfg *Config) error { return o.applyFunc(cfg) }

func newOptFunc(name string, f func(*Config) error) *optFunc {
	return &optFunc{name: name, applyFunc: f}
}

// WithAcceptTimeout sets the per-iteration accept deadline of the listener
// loop. It must be between 100 milliseconds and 5 seconds.
//
// The default value is 1 second.
func WithAcceptTimeout(val time.Duration) Option {
	return newOptFunc("WithAcceptTimeout", func(cfg *Config) error {
		if val < 100*time.Millisecond || val > 5*time.Second {
			return errors.New("exchange: accept timeout out of range [0.1s, 5s]")
		}
		cfg.acceptTimeout = val

		return nil
	})
}

// WithReadTimeout sets the deadline for reading a complete frame, inbound or
// acknowledgment. Zero disables the deadline; a stalled peer then blocks its
// exchange indefinitely, matching the original integration's behavior.
//
// The default value is 60 seconds.
func WithReadTimeout(val time.Duration) Option {
	return newOptFunc("WithReadTimeout", func(cfg *Config) error {
		if val < 0 {
			return errors.New("exchange: read timeout must be >= 0")
		}
		cfg.readTimeout = val

		return nil
	})
}

// WithWriteTimeout sets the deadline for writing a framed message. Zero
// disables the deadline.
//
// The default value is 30 seconds.
func WithWriteTimeout(val time.Duration) Option {
	return newOptFunc("WithWriteTimeout", func(cfg *Config) error {
		if val < 0 {
			return errors.New("exchange: write timeout must be >= 0")
		}
		cfg.writeTimeout = val

		return nil
	})
}

// WithConnectTimeout sets the timeout for dialing the downstream peer.
// It must be between 100 milliseconds and 60 seconds.
//
// The default value is 10 seconds.
func WithConnectTimeout(val time.Duration) Option {
	return newOptFunc("WithConnectTimeout", func(cfg *Config) error {
		if val < 100*time.Millisecond || val > 60*time.Second {
			return errors.New("exchange: connect timeout out of range [0.1s, 60s]")
		}
		cfg.connectTimeout = val

		return nil
	})
}

// WithMaxFrameSize bounds accepted frame sizes. Zero keeps the MLLP reader's
// default.
func WithMaxFrameSize(size int) Option {
	return newOptFunc("WithMaxFrameSize", func(cfg *Config) error {
		if size < 0 {
			return errors.New("exchange: max frame size must be >= 0")
		}
		cfg.maxFrameSize = size

		return nil
	})
}

// WithLogger sets the logger for the exchange layer.
//
// The default logger is the global logger instance.
func WithLogger(l logger.Logger) Option {
	return newOptFunc("WithLogger", func(cfg *Config) error {
		if l == nil {
			return errors.New("exchange: logger is nil")
		}
		cfg.logger = l

		return nil
	})
}
