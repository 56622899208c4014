package dns

import (
	"encoding/binary"
	"fmt"
)

// Header represents a DNS message header (RFC 1035 Section 4.1.1).
//
// The header is always 12 bytes and contains:
//   - ID: 16-bit identifier for matching requests to responses
//   - Flags: QR, Opcode, AA, TC, RD, RA, Z, RCODE (see Flags)
//   - QDCount: Number of questions
//   - ANCount: Number of answer resource records
//   - NSCount: Number of authority resource records
//   - ARCount: Number of additional resource records
//
// The counts are load-bearing: the parser reads exactly that many entries
// from the sections that follow, and a buffer too short to hold them is a
// malformed packet.
type Header struct {
	ID      uint16 // Transaction ID
	Flags   Flags
	QDCount uint16 // Question count
	ANCount uint16 // Answer count
	NSCount uint16 // Authority (nameserver) count
	ARCount uint16 // Additional records count
}

// HeaderSize is the fixed size of a DNS header in bytes.
const HeaderSize = 12

// Marshal serializes the header to wire format (big-endian, 12 bytes).
func (h Header) Marshal() ([]byte, error) {
	b := make([]byte, HeaderSize)
	binary.BigEndian.PutUint16(b[0:2], h.ID)
	binary.BigEndian.PutUint16(b[2:4], h.Flags.Uint16())
	binary.BigEndian.PutUint16(b[4:6], h.QDCount)
	binary.BigEndian.PutUint16(b[6:8], h.ANCount)
	binary.BigEndian.PutUint16(b[8:10], h.NSCount)
	binary.BigEndian.PutUint16(b[10:12], h.ARCount)
	return b, nil
}

// ParseHeader reads the six 16-bit header fields in fixed order,
// advancing the cursor by 12 bytes on success.
func ParseHeader(cur *Cursor) (Header, error) {
	b, err := cur.Advance(HeaderSize)
	if err != nil {
		return Header{}, fmt.Errorf("reading DNS header: %w", err)
	}
	return Header{
		ID:      uint16(Collate(b[0:2])),
		Flags:   FlagsFromUint16(uint16(Collate(b[2:4]))),
		QDCount: uint16(Collate(b[4:6])),
		ANCount: uint16(Collate(b[6:8])),
		NSCount: uint16(Collate(b[8:10])),
		ARCount: uint16(Collate(b[10:12])),
	}, nil
}

// IsQuery returns true if this is a query (QR=0), false if it's a response (QR=1).
func (h Header) IsQuery() bool { return h.Flags.IsQuery }

// IsResponse returns true if this is a response (QR=1).
func (h Header) IsResponse() bool { return !h.Flags.IsQuery }
