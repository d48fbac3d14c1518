// Package exchange implements the dual-role socket layer of the bridge.
//
// The process plays both MLLP roles at once:
//
//   - Listener (server role) accepts connections from the upstream laboratory
//     system, reads one framed order message per connection, answers with a
//     framed acknowledgment and enqueues the order for processing. Inbound
//     exchanges are handled one connection at a time, never concurrently;
//     this bounds resource use and matches the single-lane worker downstream.
//
//   - Sender (client role) opens a fresh connection to the downstream peer
//     for every result message, writes the framed result, blocks reading the
//     framed acknowledgment and closes. Exactly one connection attempt per
//     call; the sender performs no retries of its own.
//
// A connection session exists only for the duration of one
// message-and-acknowledgment exchange. No session state survives the socket.
package exchange
