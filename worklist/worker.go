package worklist

import (
	"context"
	"errors"
	"time"

	"github.com/pathdss/lisbridge/internal/pool"
	"github.com/pathdss/lisbridge/logger"
)

// Item is one unit of queued work: the unframed order payload and the number
// of processing attempts already made. Attempt is 0 on first enqueue and is
// incremented each time the item is re-queued after a failure.
type Item struct {
	Payload string
	Attempt int
}

// State describes where an item is in its lifecycle.
type State int

const (
	// StatePending means the item is in the queue awaiting the worker.
	StatePending State = iota
	// StateProcessing means the worker is running the processing callback.
	StateProcessing
	// StateDone means processing succeeded and the result was handed off.
	StateDone
	// StateRetrying means processing failed and the item was re-queued.
	StateRetrying
	// StateAbandoned means the retry ceiling was exhausted and the item was
	// dropped permanently. There is no dead-letter store; abandonment is
	// surfaced through logs, metrics and the observer only.
	StateAbandoned
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateProcessing:
		return "processing"
	case StateDone:
		return "done"
	case StateRetrying:
		return "retrying"
	case StateAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// RetryPolicy bounds reprocessing of failed items. It is configured once at
// process start and constant for the process lifetime.
type RetryPolicy struct {
	// MaxAttempts is the retry ceiling: the number of additional attempts
	// allowed after the first failure. Zero means no retries.
	MaxAttempts int
	// Delay is the fixed backoff slept before a failed item is re-queued.
	Delay time.Duration
}

func (p RetryPolicy) validate() error {
	if p.MaxAttempts < 0 {
		return errors.New("worklist: retry max attempts must be >= 0")
	}
	if p.Delay < 0 {
		return errors.New("worklist: retry delay must be >= 0")
	}
	return nil
}

// ProcessFunc runs the long-running processing step for one order payload and
// returns the outbound result payload. An error makes the item eligible for
// retry under the worker's RetryPolicy.
type ProcessFunc func(ctx context.Context, payload string) (result string, err error)

// DeliverFunc hands a result payload to the downstream peer. Delivery
// failures are logged and dropped, never retried: the retry ceiling governs
// the processing step only.
type DeliverFunc func(ctx context.Context, payload string) error

// Observer receives item state transitions. Implementations must be fast and
// must not block; they run inline on the worker lane.
type Observer interface {
	ItemStateChanged(item Item, state State, err error)
}

// Worker is the single consumer of the work queue.
//
// For each item it runs the processing callback synchronously, delivers the
// result on success, and on failure re-queues the item at the head of the
// queue until the retry ceiling is reached. The worker never processes two
// items concurrently; run exactly one Worker per queue.
type Worker struct {
	queue    *Deque[Item]
	process  ProcessFunc
	deliver  DeliverFunc
	policy   RetryPolicy
	logger   logger.Logger
	observer Observer
}

// WorkerOption customizes a Worker.
type WorkerOption func(*Worker)

// WithObserver attaches an Observer for item state transitions.
func WithObserver(obs Observer) WorkerOption {
	return func(w *Worker) { w.observer = obs }
}

// WithWorkerLogger sets the worker's logger. Defaults to the package-level
// default logger.
func WithWorkerLogger(l logger.Logger) WorkerOption {
	return func(w *Worker) { w.logger = l }
}

// NewWorker creates a Worker consuming queue with the given callbacks and
// retry policy.
func NewWorker(queue *Deque[Item], process ProcessFunc, deliver DeliverFunc, policy RetryPolicy, opts ...WorkerOption) (*Worker, error) {
	if queue == nil {
		return nil, errors.New("worklist: queue is nil")
	}
	if process == nil {
		return nil, errors.New("worklist: process func is nil")
	}
	if deliver == nil {
		return nil, errors.New("worklist: deliver func is nil")
	}
	if err := policy.validate(); err != nil {
		return nil, err
	}

	w := &Worker{
		queue:   queue,
		process: process,
		deliver: deliver,
		policy:  policy,
		logger:  logger.GetLogger(),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// RunOnce pops and handles a single item, blocking until one is available.
// It returns false when ctx is cancelled, true otherwise, so it can serve
// directly as a task loop body.
func (w *Worker) RunOnce(ctx context.Context) bool {
	item, err := w.queue.PopFront(ctx)
	if err != nil {
		return false
	}

	w.handle(ctx, item)

	return true
}

// handle drives one item through the state machine.
func (w *Worker) handle(ctx context.Context, item Item) {
	w.notify(item, StateProcessing, nil)

	result, err := w.process(ctx, item.Payload)
	if err != nil {
		w.retryOrAbandon(ctx, item, err)
		return
	}

	w.notify(item, StateDone, nil)
	w.logger.Info("order processed", "attempt", item.Attempt, "queue_len", w.queue.Len())

	// Nothing is retained past this hand-off; a delivery failure is final
	// for this item.
	if err := w.deliver(ctx, result); err != nil {
		w.logger.Error("result delivery failed, dropping result", "error", err, "attempt", item.Attempt)
	}
}

// retryOrAbandon re-queues a failed item at the head of the queue after the
// backoff delay, or drops it permanently once the ceiling is reached.
func (w *Worker) retryOrAbandon(ctx context.Context, item Item, cause error) {
	if item.Attempt < w.policy.MaxAttempts {
		w.logger.Warn("processing failed, will retry",
			"error", cause,
			"attempt", item.Attempt+1,
			"max_attempts", w.policy.MaxAttempts,
			"delay", w.policy.Delay,
		)

		if !w.sleep(ctx) {
			// Shutting down; push the item back so a restarted worker on the
			// same queue would see it first.
			w.queue.PushFront(Item{Payload: item.Payload, Attempt: item.Attempt + 1})
			return
		}

		w.notify(item, StateRetrying, cause)
		w.queue.PushFront(Item{Payload: item.Payload, Attempt: item.Attempt + 1})
		return
	}

	// Silent data-loss point inherent to the design: no dead-letter store.
	w.notify(item, StateAbandoned, cause)
	w.logger.Error("processing failed permanently, abandoning order",
		"error", cause,
		"attempts", item.Attempt+1,
	)
}

// sleep waits out the backoff delay. It returns false if ctx was cancelled
// before the delay elapsed.
func (w *Worker) sleep(ctx context.Context) bool {
	if w.policy.Delay <= 0 {
		return true
	}

	timer := pool.AcquireTimer(w.policy.Delay)
	defer pool.ReleaseTimer(timer)

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (w *Worker) notify(item Item, state State, err error) {
	if w.observer != nil {
		w.observer.ItemStateChanged(item, state, err)
	}
}
