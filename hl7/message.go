package hl7

import (
	"errors"
	"strings"
)

const (
	segmentSep   = "\r"
	fieldSep     = "|"
	componentSep = "^"
)

var (
	// ErrEmptyMessage indicates that the input contains no segments.
	ErrEmptyMessage = errors.New("hl7: empty message")

	// ErrMissingMSH indicates that the first segment of the message is not MSH.
	ErrMissingMSH = errors.New("hl7: message does not start with MSH segment")
)

// Segment is one HL7 segment as a list of pipe-separated fields.
// Index 0 holds the three-letter segment name.
type Segment []string

// Name returns the segment name (MSH, PID, SPM, ...).
func (s Segment) Name() string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

// Field returns field n of the segment using HL7 numbering, where field 1 is
// the first field after the segment name. For MSH, field 1 is the field
// separator itself and field 2 the encoding characters, so MSH-9 is the
// message type and MSH-10 the control ID, matching the standard numbering.
// Out-of-range fields return "".
func (s Segment) Field(n int) string {
	if s.Name() == "MSH" {
		// MSH-1 is the field separator that was consumed by splitting.
		if n == 1 {
			return fieldSep
		}
		n--
	}

	if n < 1 || n >= len(s) {
		return ""
	}
	return s[n]
}

// Component returns component c (1-based) of field n, splitting on "^".
func (s Segment) Component(n, c int) string {
	parts := strings.Split(s.Field(n), componentSep)
	if c < 1 || c > len(parts) {
		return ""
	}
	return parts[c-1]
}

// Message is a parsed HL7 v2 message: an ordered list of segments.
type Message struct {
	segments []Segment
}

// Parse splits raw HL7 text into segments and fields. Segment separators may
// be CR, LF or CRLF; trailing empty lines are ignored. The first segment must
// be MSH.
func Parse(raw string) (*Message, error) {
	normalized := strings.NewReplacer("\r\n", segmentSep, "\n", segmentSep).Replace(raw)

	var segs []Segment
	for _, line := range strings.Split(normalized, segmentSep) {
		if line == "" {
			continue
		}
		segs = append(segs, Segment(strings.Split(line, fieldSep)))
	}

	if len(segs) == 0 {
		return nil, ErrEmptyMessage
	}
	if segs[0].Name() != "MSH" {
		return nil, ErrMissingMSH
	}

	return &Message{segments: segs}, nil
}

// Segment returns the first segment with the given name.
func (m *Message) Segment(name string) (Segment, bool) {
	for _, s := range m.segments {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// Segments returns all segments with the given name, in message order.
func (m *Message) Segments(name string) []Segment {
	var out []Segment
	for _, s := range m.segments {
		if s.Name() == name {
			out = append(out, s)
		}
	}
	return out
}

// Append adds a segment to the end of the message.
func (m *Message) Append(s Segment) {
	m.segments = append(m.segments, s)
}

// String renders the message back to wire text with CR segment separators.
func (m *Message) String() string {
	lines := make([]string, 0, len(m.segments))
	for _, s := range m.segments {
		lines = append(lines, strings.Join(s, fieldSep))
	}
	return strings.Join(lines, segmentSep)
}

// msh returns the MSH segment. Parse guarantees it exists.
func (m *Message) msh() Segment {
	return m.segments[0]
}

// ControlID returns MSH-10, the message control ID.
func (m *Message) ControlID() string { return m.msh().Field(10) }

// MessageType returns MSH-9, e.g. "OML^O33" or "ACK".
func (m *Message) MessageType() string { return m.msh().Field(9) }

// SendingApp returns MSH-3 and SendingFacility MSH-4.
func (m *Message) SendingApp() string      { return m.msh().Field(3) }
func (m *Message) SendingFacility() string { return m.msh().Field(4) }

// ReceivingApp returns MSH-5 and ReceivingFacility MSH-6.
func (m *Message) ReceivingApp() string      { return m.msh().Field(5) }
func (m *Message) ReceivingFacility() string { return m.msh().Field(6) }

// ModelCode returns the deep-learning model selector carried in SPM-4.2 of
// the order message, or "" when no SPM segment is present.
func (m *Message) ModelCode() string {
	spm, ok := m.Segment("SPM")
	if !ok {
		return ""
	}
	return spm.Component(4, 2)
}

// SpecimenIDs returns the specimen (slide) identifiers from SPM-2 of every
// SPM segment in the order. One order usually carries a single slide, but
// multi-specimen orders occur.
func (m *Message) SpecimenIDs() []string {
	var ids []string
	for _, spm := range m.Segments("SPM") {
		if id := spm.Component(2, 1); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
