package mllp

import "bytes"

const (
	// StartMarker is the single byte that opens an MLLP frame.
	StartMarker byte = 0x0B

	// EndMarker1 and EndMarker2 form the two-byte sequence that closes an
	// MLLP frame.
	EndMarker1 byte = 0x1C
	EndMarker2 byte = 0x0D
)

// endMarker is the frame trailer as a slice, for suffix checks.
var endMarker = []byte{EndMarker1, EndMarker2}

// Encode wraps payload with the MLLP start and end markers.
// The payload is treated as opaque; no validation or escaping is performed.
func Encode(payload []byte) []byte {
	buf := make([]byte, 0, len(payload)+3)
	buf = append(buf, StartMarker)
	buf = append(buf, payload...)
	buf = append(buf, EndMarker1, EndMarker2)

	return buf
}

// Unframe extracts the payload from a raw byte sequence that ends with the
// MLLP end marker. Bytes before the first start marker are discarded.
//
// It returns ErrMissingStartMarker if no start marker is present, and
// ErrMissingEndMarker if the sequence does not contain the end marker.
func Unframe(raw []byte) ([]byte, error) {
	start := bytes.IndexByte(raw, StartMarker)
	if start < 0 {
		return nil, ErrMissingStartMarker
	}

	end := bytes.Index(raw[start:], endMarker)
	if end < 0 {
		return nil, ErrMissingEndMarker
	}

	return raw[start+1 : start+end], nil
}
