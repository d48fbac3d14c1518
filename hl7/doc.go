// Package hl7 provides a minimal HL7 v2 message layer for the lisbridge
// exchange path: just enough pipe-delimited structure to parse inbound
// laboratory order messages (OML^O33), build the acknowledgment (ACK)
// returned to the sending system, and build the outbound laboratory result
// message (OUL^R21) carrying model predictions.
//
// It is deliberately not a general HL7 library. Segments are lists of
// pipe-separated fields, components are caret-separated, and only the fields
// the bridge actually touches have named accessors. Everything else passes
// through opaque and untouched, field separators included.
//
// All functions in this package are pure: they never perform I/O and never
// block, as required of the acknowledgment path.
package hl7
