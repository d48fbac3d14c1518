package service

import (
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/pathdss/lisbridge/hl7"
	"github.com/pathdss/lisbridge/worklist"
)

// OrderStatus is the last observed lifecycle state of one order, keyed by
// its message control ID.
type OrderStatus struct {
	ControlID string
	State     string
	Attempts  int
	LastError string
	UpdatedAt time.Time
}

// Registry tracks order lifecycle states for operator observability.
//
// Abandonment is a silent data-loss point of the queue design — there is no
// dead-letter store — so the registry keeps the terminal state of every order
// visible after the queue has forgotten it. Entries are never evicted; with
// one status per order this stays small at laboratory volumes.
type Registry struct {
	statuses *xsync.MapOf[string, OrderStatus]
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		statuses: xsync.NewMapOf[string, OrderStatus](),
	}
}

var _ worklist.Observer = (*Registry)(nil)

// Record stores a state transition for the order with the given control ID.
func (r *Registry) Record(controlID, state string, attempts int, err error) {
	if controlID == "" {
		return
	}

	status := OrderStatus{
		ControlID: controlID,
		State:     state,
		Attempts:  attempts,
		UpdatedAt: time.Now(),
	}
	if err != nil {
		status.LastError = err.Error()
	}

	r.statuses.Store(controlID, status)
}

// ItemStateChanged implements worklist.Observer by recording the worker's
// state transitions under the order's control ID.
func (r *Registry) ItemStateChanged(item worklist.Item, state worklist.State, err error) {
	msg, parseErr := hl7.Parse(item.Payload)
	if parseErr != nil {
		return // unparseable payloads stay visible through logs only
	}

	r.Record(msg.ControlID(), state.String(), item.Attempt+1, err)
}

// Get returns the status of one order.
func (r *Registry) Get(controlID string) (OrderStatus, bool) {
	return r.statuses.Load(controlID)
}

// Snapshot returns the current status of every tracked order.
func (r *Registry) Snapshot() []OrderStatus {
	out := make([]OrderStatus, 0, r.statuses.Size())
	r.statuses.Range(func(_ string, status OrderStatus) bool {
		out = append(out, status)
		return true
	})
	return out
}
