// Package chaos defines the Chaosnet datagram format spoken with ITS-style
// hosts: a 12-byte header of six big-endian 16-bit fields followed by data.
package chaos

import (
	"errors"
	"fmt"
)

// Port is the well-known Chaosnet UDP port used by the simulators (octal 0255).
const Port = 173

// HeaderSize is the fixed header size:
// Type(2) + Length(2) + SrcHost(2) + SrcSubnet(2) + DstHost(2) + DstSubnet(2).
const HeaderSize = 12

// MaxDataSize is the largest data field a single packet carries.
const MaxDataSize = 4084

// ErrShortPacket is returned by Unpack for datagrams shorter than HeaderSize.
var ErrShortPacket = errors.New("packet too short")

// Type is the Chaosnet packet opcode.
type Type uint16

// Packet types.
const (
	TypeRFC Type = 0x01 // Request for connection
	TypeOPN Type = 0x02 // Connection open
	TypeCLS Type = 0x03 // Close
	TypeDAT Type = 0x04 // Data
	TypeACK Type = 0x05 // Acknowledgment
	TypeFWD Type = 0x06 // Forward (routing)
	TypeRND Type = 0x0C // Random, used for testing
)

var typeNames = map[Type]string{
	TypeRFC: "RFC",
	TypeOPN: "OPN",
	TypeCLS: "CLS",
	TypeDAT: "DAT",
	TypeACK: "ACK",
	TypeFWD: "FWD",
	TypeRND: "RND",
}

// Known reports whether t is one of the defined packet types.
func (t Type) Known() bool {
	_, ok := typeNames[t]
	return ok
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("0x%02X", uint16(t))
}

// Address names a Chaosnet endpoint.
type Address struct {
	Host   uint16
	Subnet uint16
}

func (a Address) String() string {
	return fmt.Sprintf("host=0x%04X subnet=0x%02X", a.Host, a.Subnet)
}

// Packet is a decoded Chaosnet datagram.
type Packet struct {
	Type   Type
	Length uint16 // total bytes as declared by the sender (header + data)
	Src    Address
	Dst    Address
	Data   []byte // everything after the header, including any trailer past Length
}

// NewPacket builds a packet with Length set consistently for data.
func NewPacket(t Type, src, dst Address, data []byte) *Packet {
	return &Packet{
		Type:   t,
		Length: uint16(HeaderSize + len(data)),
		Src:    src,
		Dst:    dst,
		Data:   data,
	}
}

// Reply builds the empty-data response of type t that self sends back to
// the source of req.
func Reply(req *Packet, t Type, self Address) *Packet {
	return NewPacket(t, self, req.Src, nil)
}
