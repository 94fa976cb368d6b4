package chaos

import (
	"encoding/binary"
	"fmt"
)

// Pack serializes a packet. Length is written as given; use NewPacket to keep
// it consistent with the data.
func Pack(pkt *Packet) []byte {
	buf := make([]byte, HeaderSize+len(pkt.Data))
	binary.BigEndian.PutUint16(buf[0:2], uint16(pkt.Type))
	binary.BigEndian.PutUint16(buf[2:4], pkt.Length)
	binary.BigEndian.PutUint16(buf[4:6], pkt.Src.Host)
	binary.BigEndian.PutUint16(buf[6:8], pkt.Src.Subnet)
	binary.BigEndian.PutUint16(buf[8:10], pkt.Dst.Host)
	binary.BigEndian.PutUint16(buf[10:12], pkt.Dst.Subnet)
	copy(buf[HeaderSize:], pkt.Data)
	return buf
}

// Unpack decodes a datagram. Data is everything after the header regardless
// of the declared Length, so trailers survive and a bogus Length never
// causes an out-of-range slice.
func Unpack(data []byte) (*Packet, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes (need at least %d)", ErrShortPacket, len(data), HeaderSize)
	}
	pkt := &Packet{
		Type:   Type(binary.BigEndian.Uint16(data[0:2])),
		Length: binary.BigEndian.Uint16(data[2:4]),
		Src: Address{
			Host:   binary.BigEndian.Uint16(data[4:6]),
			Subnet: binary.BigEndian.Uint16(data[6:8]),
		},
		Dst: Address{
			Host:   binary.BigEndian.Uint16(data[8:10]),
			Subnet: binary.BigEndian.Uint16(data[10:12]),
		},
	}
	if len(data) > HeaderSize {
		pkt.Data = make([]byte, len(data)-HeaderSize)
		copy(pkt.Data, data[HeaderSize:])
	}
	return pkt, nil
}
