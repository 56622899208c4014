package dns

import "fmt"

// DNS header flags and masks (RFC 1035 Section 4.1.1)
//
// The DNS header contains a 16-bit flags field with the following layout:
//
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|QR|   Opcode  |AA|TC|RD|RA|    Z   |   RCODE   |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	 15 14 13 12 11 10  9  8  7  6  5  4  3  2  1  0
//
// Bit positions (from MSB):
//   - Bit 15 (0x8000): QR - Query (0) or Response (1)
//   - Bits 14-11 (0x7800): OPCODE - Operation type (0=Query, 1=IQuery, 2=Status)
//   - Bit 10 (0x0400): AA - Authoritative Answer
//   - Bit 9 (0x0200): TC - Truncation (message was truncated)
//   - Bit 8 (0x0100): RD - Recursion Desired
//   - Bit 7 (0x0080): RA - Recursion Available
//   - Bits 6-4 (0x0070): Z - Reserved
//   - Bits 3-0 (0x000F): RCODE - Response code
const (
	QRFlag       uint16 = 0x8000 // Query/Response: 1 = response, 0 = query
	OpcodeMask   uint16 = 0x7800 // Bits 14-11: operation type (use >> 11 to extract)
	AAFlag       uint16 = 0x0400 // Authoritative Answer
	TCFlag       uint16 = 0x0200 // Truncation: message was truncated
	RDFlag       uint16 = 0x0100 // Recursion Desired
	RAFlag       uint16 = 0x0080 // Recursion Available
	ReservedMask uint16 = 0x0070 // Bits 6-4: reserved (use >> 4 to extract)
	RCodeMask    uint16 = 0x000F // Bits 3-0: response code
)

// RecordType represents DNS resource record types (RFC 1035, RFC 3596,
// RFC 7553).
//
// The enumeration is open: any 16-bit value is a valid RecordType. Values
// without a named constant are still decoded (as opaque RDATA), never
// rejected.
type RecordType uint16

const (
	TypeA     RecordType = 1   // IPv4 address
	TypeNS    RecordType = 2   // Authoritative name server
	TypeMD    RecordType = 3   // Mail destination (obsolete)
	TypeMF    RecordType = 4   // Mail forwarder (obsolete)
	TypeCNAME RecordType = 5   // Canonical name (alias)
	TypeSOA   RecordType = 6   // Start of Authority
	TypeMB    RecordType = 7   // Mailbox domain name (experimental)
	TypeMG    RecordType = 8   // Mail group member (experimental)
	TypeMR    RecordType = 9   // Mail rename domain name (experimental)
	TypeNULL  RecordType = 10  // Null record (experimental)
	TypeWKS   RecordType = 11  // Well-known service description
	TypePTR   RecordType = 12  // Domain name pointer (reverse DNS)
	TypeHINFO RecordType = 13  // Host information
	TypeMINFO RecordType = 14  // Mailbox or mail list information
	TypeMX    RecordType = 15  // Mail exchange
	TypeTXT   RecordType = 16  // Text strings
	TypeAAAA  RecordType = 28  // IPv6 address (RFC 3596)
	TypeAXFR  RecordType = 252 // Zone transfer request (QTYPE only)
	TypeMAILB RecordType = 253 // Mailbox-related records request (QTYPE only)
	TypeMAILA RecordType = 254 // Mail agent records request (QTYPE only, obsolete)
	TypeANY   RecordType = 255 // All records request (QTYPE only)
	TypeURI   RecordType = 256 // URI record (RFC 7553)
)

var recordTypeNames = map[RecordType]string{
	TypeA:     "A",
	TypeNS:    "NS",
	TypeMD:    "MD",
	TypeMF:    "MF",
	TypeCNAME: "CNAME",
	TypeSOA:   "SOA",
	TypeMB:    "MB",
	TypeMG:    "MG",
	TypeMR:    "MR",
	TypeNULL:  "NULL",
	TypeWKS:   "WKS",
	TypePTR:   "PTR",
	TypeHINFO: "HINFO",
	TypeMINFO: "MINFO",
	TypeMX:    "MX",
	TypeTXT:   "TXT",
	TypeAAAA:  "AAAA",
	TypeAXFR:  "AXFR",
	TypeMAILB: "MAILB",
	TypeMAILA: "MAILA",
	TypeANY:   "ANY",
	TypeURI:   "URI",
}

// String returns the mnemonic for assigned types and the RFC 3597 "TYPEn"
// form for everything else.
func (t RecordType) String() string {
	if n, ok := recordTypeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("TYPE%d", uint16(t))
}

// Known reports whether t has a named constant in this codec.
func (t RecordType) Known() bool {
	_, ok := recordTypeNames[t]
	return ok
}

// RecordClass represents DNS resource record classes (RFC 1035).
type RecordClass uint16

const (
	ClassIN RecordClass = 1 // Internet class
)

// RCode represents DNS response codes (RFC 1035).
type RCode uint16

const (
	RCodeNoError  RCode = 0 // No error
	RCodeFormErr  RCode = 1 // Format error: query malformed
	RCodeServFail RCode = 2 // Server failure: internal error
	RCodeNXDomain RCode = 3 // Non-existent domain
	RCodeNotImp   RCode = 4 // Not implemented: unsupported query type
	RCodeRefused  RCode = 5 // Query refused by policy
)
