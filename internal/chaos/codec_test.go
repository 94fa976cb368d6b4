package chaos

import (
	"bytes"
	"errors"
	"testing"
)

// TestPackUnpackRoundTrip verifies that Pack and Unpack are inverse
// operations for all header fields and a range of data sizes.
func TestPackUnpackRoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		pkt  *Packet
	}{
		{
			name: "RFC with no data",
			pkt:  NewPacket(TypeRFC, Address{0x1234, 0x0001}, Address{0x7700, 0x0001}, nil),
		},
		{
			name: "DAT with small data",
			pkt:  NewPacket(TypeDAT, Address{0x0001, 0x0001}, Address{0x7700, 0x0001}, []byte("hello its")),
		},
		{
			name: "CLS with reason",
			pkt:  NewPacket(TypeCLS, Address{0xFFFF, 0xFFFF}, Address{0, 0}, []byte("done")),
		},
		{
			name: "DAT at max data size",
			pkt:  NewPacket(TypeDAT, Address{0x0102, 0x0304}, Address{0x0506, 0x0708}, bytes.Repeat([]byte{0x77}, MaxDataSize)),
		},
		{
			name: "unknown type with inconsistent length",
			pkt: &Packet{
				Type:   0xFF,
				Length: 3,
				Src:    Address{1, 2},
				Dst:    Address{3, 4},
				Data:   []byte{9, 9, 9, 9},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			decoded, err := Unpack(Pack(tc.pkt))
			if err != nil {
				t.Fatalf("Unpack failed: %v", err)
			}
			if decoded.Type != tc.pkt.Type {
				t.Errorf("Type mismatch: got %v, want %v", decoded.Type, tc.pkt.Type)
			}
			if decoded.Length != tc.pkt.Length {
				t.Errorf("Length mismatch: got %d, want %d", decoded.Length, tc.pkt.Length)
			}
			if decoded.Src != tc.pkt.Src {
				t.Errorf("Src mismatch: got %v, want %v", decoded.Src, tc.pkt.Src)
			}
			if decoded.Dst != tc.pkt.Dst {
				t.Errorf("Dst mismatch: got %v, want %v", decoded.Dst, tc.pkt.Dst)
			}
			if !bytes.Equal(decoded.Data, tc.pkt.Data) {
				t.Errorf("Data mismatch: got %d bytes, want %d", len(decoded.Data), len(tc.pkt.Data))
			}
		})
	}
}

func TestPackLayout(t *testing.T) {
	pkt := NewPacket(TypeRFC, Address{0x1234, 0x0001}, Address{0x7700, 0x0001}, nil)
	want := []byte{
		0x00, 0x01, // type
		0x00, 0x0C, // length
		0x12, 0x34, 0x00, 0x01, // src
		0x77, 0x00, 0x00, 0x01, // dst
	}
	if got := Pack(pkt); !bytes.Equal(got, want) {
		t.Fatalf("got % x, want % x", got, want)
	}
}

func TestUnpackTooShort(t *testing.T) {
	for n := 0; n < HeaderSize; n++ {
		_, err := Unpack(make([]byte, n))
		if !errors.Is(err, ErrShortPacket) {
			t.Errorf("%d bytes: expected ErrShortPacket, got %v", n, err)
		}
	}
}

// TestUnpackKeepsTrailer checks that bytes beyond the declared Length stay in Data.
func TestUnpackKeepsTrailer(t *testing.T) {
	raw := Pack(NewPacket(TypeDAT, Address{1, 1}, Address{2, 2}, []byte{0xAA}))
	raw = append(raw, 0xBB, 0xCC)

	pkt, err := Unpack(raw)
	if err != nil {
		t.Fatal(err)
	}
	if pkt.Length != HeaderSize+1 {
		t.Errorf("Length = %d", pkt.Length)
	}
	if !bytes.Equal(pkt.Data, []byte{0xAA, 0xBB, 0xCC}) {
		t.Errorf("Data = % x", pkt.Data)
	}
}

func TestUnpackExactHeader(t *testing.T) {
	pkt, err := Unpack(make([]byte, HeaderSize))
	if err != nil {
		t.Fatal(err)
	}
	if len(pkt.Data) != 0 {
		t.Errorf("expected empty data, got %d bytes", len(pkt.Data))
	}
}

func TestReply(t *testing.T) {
	self := Address{0x7700, 0x01}
	req := NewPacket(TypeRFC, Address{0x1234, 0x01}, self, []byte("contact"))
	opn := Reply(req, TypeOPN, self)

	if opn.Type != TypeOPN || opn.Src != self || opn.Dst != req.Src {
		t.Fatalf("unexpected reply %+v", opn)
	}
	if opn.Length != HeaderSize || len(opn.Data) != 0 {
		t.Fatalf("reply should carry no data: length=%d data=%d", opn.Length, len(opn.Data))
	}
}

func TestTypeString(t *testing.T) {
	testCases := []struct {
		t     Type
		want  string
		known bool
	}{
		{TypeRFC, "RFC", true},
		{TypeRND, "RND", true},
		{Type(0xFF), "0xFF", false},
		{Type(0x0100), "0x100", false},
	}
	for _, tc := range testCases {
		if got := tc.t.String(); got != tc.want {
			t.Errorf("String(%d) = %q, want %q", tc.t, got, tc.want)
		}
		if tc.t.Known() != tc.known {
			t.Errorf("Known(%d) = %v", tc.t, !tc.known)
		}
	}
}

func TestAddressString(t *testing.T) {
	if got := (Address{0x7700, 0x01}).String(); got != "host=0x7700 subnet=0x01" {
		t.Fatalf("got %q", got)
	}
}
