// Package worklist implements the queueing half of the bridge: an unbounded
// double-ended work queue holding received orders, and the single-lane retry
// worker that drains it.
//
// The queue is FIFO for fresh arrivals, but an order that failed processing
// is reinserted at the head, so retries take priority over newer orders that
// have never been attempted. Exactly one worker consumes the queue, and it
// processes exactly one item at a time: model inference is the bottleneck of
// the whole pipeline, and the single lane exists to keep two inference jobs
// from ever contending for resources. A slow item therefore blocks everything
// behind it; that head-of-line blocking is a deliberate trade-off.
package worklist
