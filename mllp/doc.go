// Package mllp implements the MLLP (Minimal Lower Layer Protocol) framing
// convention used to exchange HL7 v2 messages over raw TCP.
//
// MLLP is delimiter based, not length prefixed: a frame is a single opaque
// payload wrapped between a one-byte start marker (0x0B) and a two-byte end
// marker (0x1C 0x0D). The peer exchanges one frame per connection per
// direction.
//
// The package provides two halves of the codec:
//
//   - Encode wraps a payload with the start and end markers, producing the
//     exact byte stream to write to a socket.
//   - Reader.ReadFrame reads from a connection until the end marker has been
//     observed, tolerating arbitrary TCP segmentation boundaries, and returns
//     the bytes strictly between the markers. Any bytes preceding the start
//     marker are discarded, not treated as an error.
//
// Usage Example:
//
//	conn, _ := net.Dial("tcp", "10.0.0.5:2575")
//	_, _ = conn.Write(mllp.Encode([]byte("MSH|^~\\&|...")))
//
//	r := mllp.NewReader()
//	ack, err := r.ReadFrame(conn)
//	// ... handle error, process ack ...
package mllp
