// Package h316 implements the H316 UDP envelope carried on the IMP's HI1
// host interface. Every host-link payload is prefixed with a 10-byte header
// and padded to a whole number of 16-bit words.
package h316

import "errors"

// Magic is the envelope marker, ASCII "H316".
const Magic uint32 = 0x48333136

// HeaderSize is the fixed header size: Magic(4) + Sequence(4) + WordCount(2).
const HeaderSize = 10

// Decoder failures. Unwrap wraps one of these with the offending values, so
// callers classify with errors.Is.
var (
	ErrShortPacket = errors.New("short packet")
	ErrBadMagic    = errors.New("bad magic")
	ErrTruncated   = errors.New("truncated payload")
)

// Header is the decoded envelope header.
type Header struct {
	Magic     uint32
	Sequence  uint32 // opaque to the decoder; kept for offline traceability
	WordCount uint16 // number of 16-bit payload words following the header
}

// PayloadLen returns the number of payload bytes the header declares.
func (h Header) PayloadLen() int {
	return int(h.WordCount) * 2
}
