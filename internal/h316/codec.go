package h316

import (
	"encoding/binary"
	"fmt"
)

// Wrap frames payload into an H316 envelope with the given sequence number.
// Odd-length payloads get one zero byte appended so the payload is a whole
// number of words.
func Wrap(payload []byte, seq uint32) []byte {
	padded := len(payload) + len(payload)%2
	buf := make([]byte, HeaderSize+padded)
	binary.BigEndian.PutUint32(buf[0:4], Magic)
	binary.BigEndian.PutUint32(buf[4:8], seq)
	binary.BigEndian.PutUint16(buf[8:10], uint16(padded/2))
	copy(buf[HeaderSize:], payload)
	return buf
}

// ParseHeader decodes the header without validating magic or length.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes", ErrShortPacket, len(data))
	}
	return Header{
		Magic:     binary.BigEndian.Uint32(data[0:4]),
		Sequence:  binary.BigEndian.Uint32(data[4:8]),
		WordCount: binary.BigEndian.Uint16(data[8:10]),
	}, nil
}

// Unwrap extracts the payload from an envelope. Bytes past the declared word
// count are ignored. The returned slice does not alias envelope.
func Unwrap(envelope []byte) ([]byte, error) {
	h, err := ParseHeader(envelope)
	if err != nil {
		return nil, err
	}
	if h.Magic != Magic {
		return nil, fmt.Errorf("%w: %08x", ErrBadMagic, h.Magic)
	}

	expected := HeaderSize + h.PayloadLen()
	if len(envelope) < expected {
		return nil, fmt.Errorf("%w: got=%d expected>=%d", ErrTruncated, len(envelope), expected)
	}

	payload := make([]byte, expected-HeaderSize)
	copy(payload, envelope[HeaderSize:expected])
	return payload, nil
}
