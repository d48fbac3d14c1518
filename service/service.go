// Package service composes the bridge: the MLLP listener feeding the work
// queue, the single-lane retry worker running inference and delivering
// results downstream, and the periodic cleanup sweep. The three long-lived
// loops share nothing but the work queue.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pathdss/lisbridge/exchange"
	"github.com/pathdss/lisbridge/hl7"
	"github.com/pathdss/lisbridge/inference"
	"github.com/pathdss/lisbridge/logger"
	"github.com/pathdss/lisbridge/sweep"
	"github.com/pathdss/lisbridge/task"
	"github.com/pathdss/lisbridge/worklist"
)

// Config assembles the pieces of a Service.
type Config struct {
	// Exchange configures the listener and sender endpoints and timeouts.
	Exchange *exchange.Config

	// Retry bounds reprocessing of failed orders.
	Retry worklist.RetryPolicy

	// Engine runs model inference for each order. Required.
	Engine inference.Engine

	// WorkDir is the temporary slide staging area swept by the cleanup
	// loop. Empty disables the sweeper.
	WorkDir string
	// SweepMaxAge is the age beyond which staged slide directories are
	// removed. Defaults to 3 hours.
	SweepMaxAge time.Duration
	// SweepInterval is the cadence of the cleanup loop. Defaults to 1 hour.
	SweepInterval time.Duration

	// Logger defaults to the package-level default logger.
	Logger logger.Logger
}

// Service is the running bridge.
type Service struct {
	cfg      Config
	logger   logger.Logger
	queue    *worklist.Deque[worklist.Item]
	listener *exchange.Listener
	sender   *exchange.Sender
	worker   *worklist.Worker
	sweeper  *sweep.Sweeper
	registry *Registry
	taskMgr  *task.Manager
}

// New wires a Service from cfg. Nothing is bound or started until Start.
func New(ctx context.Context, cfg Config) (*Service, error) {
	if cfg.Exchange == nil {
		return nil, exchange.ErrConfigNil
	}
	if cfg.Engine == nil {
		return nil, errors.New("service: inference engine is nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}
	if cfg.SweepMaxAge <= 0 {
		cfg.SweepMaxAge = 3 * time.Hour
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Hour
	}

	s := &Service{
		cfg:      cfg,
		logger:   cfg.Logger,
		queue:    worklist.NewDeque[worklist.Item](),
		registry: NewRegistry(),
		taskMgr:  task.NewManager(ctx, cfg.Logger),
	}

	var err error

	s.listener, err = exchange.NewListener(cfg.Exchange, s.queue, s.buildAck)
	if err != nil {
		return nil, err
	}

	s.sender, err = exchange.NewSender(cfg.Exchange)
	if err != nil {
		return nil, err
	}

	s.worker, err = worklist.NewWorker(s.queue, s.process, s.deliver, cfg.Retry,
		worklist.WithObserver(s.registry),
		worklist.WithWorkerLogger(cfg.Logger),
	)
	if err != nil {
		return nil, err
	}

	if cfg.WorkDir != "" {
		s.sweeper, err = sweep.NewSweeper(cfg.WorkDir, cfg.SweepMaxAge, cfg.Logger)
		if err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Start binds the listener and launches the accept loop, the retry worker
// and, when configured, the cleanup sweep. It returns once all loops are
// running.
func (s *Service) Start(ctx context.Context) error {
	if err := s.listener.Listen(ctx); err != nil {
		return err
	}

	loopCtx := s.taskMgr.Context()

	if err := s.taskMgr.Start("acceptLoop", func() bool {
		return s.listener.AcceptOnce(loopCtx)
	}); err != nil {
		_ = s.listener.Close()
		return err
	}

	if err := s.taskMgr.Start("retryWorker", func() bool {
		return s.worker.RunOnce(loopCtx)
	}); err != nil {
		s.Stop()
		return err
	}

	if s.sweeper != nil {
		if _, err := s.taskMgr.StartInterval("cleanupSweep", s.sweeper.Run, s.cfg.SweepInterval, true); err != nil {
			s.Stop()
			return err
		}
	}

	s.logger.Info("bridge started",
		"listen_address", s.listener.Addr(),
		"max_attempts", s.cfg.Retry.MaxAttempts,
		"retry_delay", s.cfg.Retry.Delay,
	)

	return nil
}

// Stop terminates the loops, closes the listener socket and waits for all
// goroutines to exit. Items still queued are lost; the queue is not
// persisted across restarts.
func (s *Service) Stop() {
	s.taskMgr.Stop()
	_ = s.listener.Close()
	s.taskMgr.Wait()

	if n := s.queue.Len(); n > 0 {
		s.logger.Warn("stopping with unprocessed orders in queue", "queue_len", n)
	}

	s.logger.Info("bridge stopped")
}

// QueueLen returns the number of orders currently queued.
func (s *Service) QueueLen() int {
	return s.queue.Len()
}

// Registry returns the order-status registry.
func (s *Service) Registry() *Registry {
	return s.registry
}

// ListenerMetrics and SenderMetrics expose the exchange counters.
func (s *Service) ListenerMetrics() *exchange.Metrics { return s.listener.Metrics() }
func (s *Service) SenderMetrics() *exchange.Metrics   { return s.sender.Metrics() }

// buildAck is the listener's acknowledgment callback: parse the order,
// record its receipt and answer with a positive ACK. Pure computation, no
// I/O, as the inbound lane requires.
func (s *Service) buildAck(payload []byte) ([]byte, error) {
	order, err := hl7.Parse(string(payload))
	if err != nil {
		return nil, fmt.Errorf("parse order message: %w", err)
	}

	s.registry.Record(order.ControlID(), "received", 0, nil)

	return []byte(hl7.BuildAck(order).String()), nil
}

// process is the worker's processing callback: parse the order, run model
// inference and build the outbound result message.
func (s *Service) process(ctx context.Context, payload string) (string, error) {
	order, err := hl7.Parse(payload)
	if err != nil {
		return "", fmt.Errorf("parse order message: %w", err)
	}

	s.logger.Info("processing order",
		"control_id", order.ControlID(),
		"model", order.ModelCode(),
		"specimens", order.SpecimenIDs(),
	)

	res, err := s.cfg.Engine.Run(ctx, order)
	if err != nil {
		return "", fmt.Errorf("run inference: %w", err)
	}

	result := hl7.BuildResult(order, res.Model, res.Predictions, res.Artifacts)

	return result.String(), nil
}

// deliver hands the result to the downstream peer. The acknowledgment
// content is not interpreted; receiving a complete frame back is the
// delivery guarantee.
func (s *Service) deliver(ctx context.Context, payload string) error {
	_, err := s.sender.SendAndAwaitAck(ctx, []byte(payload))
	return err
}
