package exchange

import (
	"sync/atomic"
)

// Metrics contains atomic counters for the exchange layer.
// Counters can be used as the value of a prometheus CounterFunc.
type Metrics struct {
	// OrderRecvCount indicates the number of order messages received and
	// enqueued.
	OrderRecvCount atomic.Uint64
	// AckSentCount indicates the number of acknowledgments returned to the
	// upstream peer.
	AckSentCount atomic.Uint64
	// InboundErrCount indicates the number of inbound exchanges aborted by
	// transport or framing errors.
	InboundErrCount atomic.Uint64

	// ResultSentCount indicates the number of result messages delivered
	// downstream with the acknowledgment read back.
	ResultSentCount atomic.Uint64
	// OutboundErrCount indicates the number of failed outbound deliveries.
	OutboundErrCount atomic.Uint64
}

func (m *Metrics) incOrderRecvCount() {
	m.OrderRecvCount.Add(1)
}

func (m *Metrics) incAckSentCount() {
	m.AckSentCount.Add(1)
}

func (m *Metrics) incInboundErrCount() {
	m.InboundErrCount.Add(1)
}

func (m *Metrics) incResultSentCount() {
	m.ResultSentCount.Add(1)
}

func (m *Metrics) incOutboundErrCount() {
	m.OutboundErrCount.Add(1)
}
