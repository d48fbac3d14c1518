package mllp

import (
	"bytes"
	"fmt"
	"io"
)

const (
	// DefaultMaxFrameSize bounds how much input the reader accumulates while
	// searching for the end marker. HL7 result messages can embed base64
	// encoded report artifacts, so the default is generous.
	DefaultMaxFrameSize = 16 << 20

	// readChunkSize is the size of each read from the underlying connection.
	readChunkSize = 4096
)

// Reader reads complete MLLP frames from a stream.
//
// Because MLLP carries no length prefix, the reader accumulates input until
// the two-byte end marker appears at the tail of the buffer. It never returns
// a partial frame: ReadFrame blocks until a full frame is available or the
// stream ends.
//
// Reader is NOT goroutine-safe. The caller must ensure that only one
// ReadFrame call is active at a time, consistent with the one-frame-per
// connection design of the exchange layer.
type Reader struct {
	// MaxFrameSize bounds the accumulated input. Zero means
	// DefaultMaxFrameSize.
	MaxFrameSize int
}

// NewReader returns a Reader with the default maximum frame size.
func NewReader() *Reader {
	return &Reader{MaxFrameSize: DefaultMaxFrameSize}
}

// ReadFrame reads one complete MLLP frame from r and returns its payload,
// with the framing markers and any garbage preceding the start marker
// stripped off.
//
// If the stream ends before the end marker has been observed, it returns
// ErrIncompleteFrame (wrapping the underlying read error when there is one
// other than io.EOF). If the accumulated input grows past MaxFrameSize it
// returns ErrFrameTooLarge.
func (mr *Reader) ReadFrame(r io.Reader) ([]byte, error) {
	maxSize := mr.MaxFrameSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFrameSize
	}

	buf := make([]byte, 0, readChunkSize)
	chunk := make([]byte, readChunkSize)

	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)

			// The cap applies to every frame, complete or not, so it must be
			// checked before the trailer.
			if len(buf) > maxSize {
				return nil, fmt.Errorf("%w: %d bytes accumulated, limit %d", ErrFrameTooLarge, len(buf), maxSize)
			}

			// The trailer check matches the wire convention: the frame is
			// complete only when the input ends with the end marker.
			if bytes.HasSuffix(buf, endMarker) {
				return Unframe(buf)
			}
		}

		if err != nil {
			if err == io.EOF {
				return nil, ErrIncompleteFrame
			}

			return nil, fmt.Errorf("%w: %w", ErrIncompleteFrame, err)
		}
	}
}
