package hl7

import (
	"math/rand/v2"
	"strings"
	"time"
)

// encodingChars is MSH-2 for all messages the bridge originates.
const encodingChars = `^~\&`

// hl7Version is MSH-12 for all messages the bridge originates.
const hl7Version = "2.6"

// controlIDDigits is the length of generated message control IDs.
// HL7 allows up to 199 characters in MSH-10.
const controlIDDigits = 16

// GenerateControlID returns a random numeric message control ID of n digits.
func GenerateControlID(n int) string {
	var b strings.Builder
	b.Grow(n)
	for range n {
		b.WriteByte(byte('0' + rand.IntN(10)))
	}
	return b.String()
}

// timestamp renders t in the HL7 DTM format used for MSH-7.
func timestamp(t time.Time) string {
	return t.Format("20060102150405")
}

// buildMSH constructs an MSH segment addressed back to the sender of orig,
// i.e. with the sending and receiving application/facility pairs swapped.
func buildMSH(orig *Message, msgType string) Segment {
	return Segment{
		"MSH",
		encodingChars,            // MSH-2
		orig.ReceivingApp(),      // MSH-3: we answer as the original receiver
		orig.ReceivingFacility(), // MSH-4
		orig.SendingApp(),        // MSH-5
		orig.SendingFacility(),   // MSH-6
		timestamp(time.Now()),    // MSH-7
		"",                       // MSH-8
		msgType,                  // MSH-9
		GenerateControlID(controlIDDigits), // MSH-10
		"P",        // MSH-11: production
		hl7Version, // MSH-12
	}
}

// BuildAck builds the positive acknowledgment (ACK, MSA code AA) for a
// received order message. MSA-2 echoes the order's control ID so the sending
// system can correlate the acknowledgment with its message.
func BuildAck(order *Message) *Message {
	ack := &Message{}
	ack.Append(buildMSH(order, "ACK"))
	ack.Append(Segment{"MSA", "AA", order.ControlID()})
	return ack
}
