package dns

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/mstock/relaydns/internal/helpers"
)

// RRMeta is the shared metadata quintuple carried by every resource record
// (RFC 1035 Section 4.1.3): name, type, class, TTL and declared RDATA length.
// This is distinct from Header, which is the DNS message header.
type RRMeta struct {
	Name   string
	Type   RecordType
	Class  uint16
	TTL    uint32
	Length uint16 // declared RDLENGTH
}

// Record is the interface for DNS resource records. The concrete type is
// selected by the record type tag: ARecord, CNAMERecord, or OpaqueRecord for
// everything without a typed decoder.
type Record interface {
	// Type returns the DNS record type.
	Type() RecordType

	// Meta returns the record's shared metadata.
	Meta() RRMeta

	// MarshalRData marshals the record-specific data (RDATA) to wire format.
	MarshalRData() ([]byte, error)
}

// ARecord is an A record: a 4-byte IPv4 address (RFC 1035 Section 3.4.1).
type ARecord struct {
	M    RRMeta
	Addr net.IP
}

// NewARecord creates an A record for the given IPv4 address.
func NewARecord(m RRMeta, addr net.IP) *ARecord {
	m.Type = TypeA
	return &ARecord{M: m, Addr: addr}
}

func (r *ARecord) Type() RecordType { return TypeA }

func (r *ARecord) Meta() RRMeta { return r.M }

func (r *ARecord) MarshalRData() ([]byte, error) {
	ip4 := r.Addr.To4()
	if ip4 == nil {
		return nil, fmt.Errorf("%w: A record address %v is not IPv4", ErrMalformedPacket, r.Addr)
	}
	return []byte(ip4), nil
}

// CNAMERecord is a CNAME record: a single domain name (RFC 1035 Section 3.3.1).
type CNAMERecord struct {
	M      RRMeta
	Target string
}

// NewCNAMERecord creates a CNAME record pointing at target.
func NewCNAMERecord(m RRMeta, target string) *CNAMERecord {
	m.Type = TypeCNAME
	return &CNAMERecord{M: m, Target: target}
}

func (r *CNAMERecord) Type() RecordType { return TypeCNAME }

func (r *CNAMERecord) Meta() RRMeta { return r.M }

func (r *CNAMERecord) MarshalRData() ([]byte, error) {
	return EncodeName(r.Target)
}

// OpaqueRecord carries the raw RDATA of any record type without a typed
// decoder. It keeps the parse total: unknown types are data to relay, not
// errors, and the declared length tells the parser where the next record
// starts regardless.
type OpaqueRecord struct {
	M    RRMeta
	Data []byte
}

func (r *OpaqueRecord) Type() RecordType { return r.M.Type }

func (r *OpaqueRecord) Meta() RRMeta { return r.M }

func (r *OpaqueRecord) MarshalRData() ([]byte, error) {
	return r.Data, nil
}

// rdataDecoder decodes one record type's RDATA. The cursor sits at the first
// RDATA byte; meta.Length bytes belong to this record.
type rdataDecoder func(cur *Cursor, meta RRMeta) (Record, error)

// rdataDecoders maps record types to their payload decoders. Adding support
// for a new type means adding an entry here; the header/question/outer-record
// framing is untouched. Types without an entry fall back to decodeOpaqueRData.
var rdataDecoders = map[RecordType]rdataDecoder{
	TypeA:     decodeARData,
	TypeCNAME: decodeCNAMERData,
}

func decodeARData(cur *Cursor, meta RRMeta) (Record, error) {
	b, err := cur.Advance(4)
	if err != nil {
		return nil, fmt.Errorf("reading A record address: %w", err)
	}
	addr := make(net.IP, 4)
	copy(addr, b)
	return &ARecord{M: meta, Addr: addr}, nil
}

func decodeCNAMERData(cur *Cursor, meta RRMeta) (Record, error) {
	target, err := DecodeName(cur)
	if err != nil {
		return nil, err
	}
	return &CNAMERecord{M: meta, Target: target}, nil
}

func decodeOpaqueRData(cur *Cursor, meta RRMeta) (Record, error) {
	b, err := cur.Advance(int(meta.Length))
	if err != nil {
		return nil, fmt.Errorf("reading %s record rdata: %w", meta.Type, err)
	}
	data := make([]byte, len(b))
	copy(data, b)
	return &OpaqueRecord{M: meta, Data: data}, nil
}

// ParseRecord parses one resource record at the cursor position.
//
// The name, type, class, TTL and RDLENGTH fields are read first; the payload
// decoder for the type (or the opaque fallback) then consumes the RDATA. The
// next record's position is derived from the declared RDLENGTH, and a typed
// decoder that consumed a different number of bytes is a protocol error —
// the cursor is never left between records in an unknown position.
func ParseRecord(cur *Cursor) (Record, error) {
	name, err := DecodeName(cur)
	if err != nil {
		return nil, err
	}
	rrType, err := cur.Uint16()
	if err != nil {
		return nil, fmt.Errorf("reading record type: %w", err)
	}
	class, err := cur.Uint16()
	if err != nil {
		return nil, fmt.Errorf("reading record class: %w", err)
	}
	ttl, err := cur.Uint32()
	if err != nil {
		return nil, fmt.Errorf("reading record TTL: %w", err)
	}
	rdlen, err := cur.Uint16()
	if err != nil {
		return nil, fmt.Errorf("reading record rdata length: %w", err)
	}
	meta := RRMeta{
		Name:   name,
		Type:   RecordType(rrType),
		Class:  class,
		TTL:    ttl,
		Length: rdlen,
	}

	start := cur.Pos()
	end := start + int(rdlen)
	if end > cur.Len() {
		return nil, fmt.Errorf("%w: %s record declares %d rdata bytes with %d remaining",
			ErrMalformedPacket, meta.Type, rdlen, cur.Remaining())
	}

	dec, typed := rdataDecoders[meta.Type]
	if !typed {
		dec = decodeOpaqueRData
	}
	rec, err := dec(cur, meta)
	if err != nil {
		return nil, err
	}
	if cur.Pos() != end {
		return nil, fmt.Errorf("%w: %s rdata decoder consumed %d bytes, declared length is %d",
			ErrMalformedPacket, meta.Type, cur.Pos()-start, rdlen)
	}
	return rec, nil
}

// MarshalRecord converts a Record to wire-format bytes.
func MarshalRecord(r Record) ([]byte, error) {
	rdata, err := r.MarshalRData()
	if err != nil {
		return nil, err
	}
	m := r.Meta()
	nameWire, err := EncodeName(m.Name)
	if err != nil {
		return nil, err
	}
	if len(rdata) > 65535 {
		return nil, fmt.Errorf("rdata too large: %d bytes (max 65535)", len(rdata))
	}

	out := make([]byte, 0, len(nameWire)+10+len(rdata))
	out = append(out, nameWire...)
	fixed := make([]byte, 10)
	binary.BigEndian.PutUint16(fixed[0:2], uint16(r.Type()))
	binary.BigEndian.PutUint16(fixed[2:4], m.Class)
	binary.BigEndian.PutUint32(fixed[4:8], m.TTL)
	binary.BigEndian.PutUint16(fixed[8:10], helpers.ClampIntToUint16(len(rdata)))
	out = append(out, fixed...)
	return append(out, rdata...), nil
}
