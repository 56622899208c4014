package dns

import (
	"encoding/binary"
	"fmt"
)

// Question represents a DNS question section entry (RFC 1035 Section 4.1.2).
//
// Each question specifies what the client is asking for:
//   - Name: The domain name being queried (dot-separated, no trailing dot)
//   - Type: The record type requested (A, CNAME, MX, ...)
//   - Class: Usually ClassIN (Internet)
//
// A Question is constructed once per parse and not mutated afterwards.
type Question struct {
	Name  string
	Type  RecordType
	Class uint16
}

// Marshal serializes the question to DNS wire format.
func (q Question) Marshal() ([]byte, error) {
	name, err := EncodeName(q.Name)
	if err != nil {
		return nil, err
	}
	b := make([]byte, 0, len(name)+4)
	b = append(b, name...)
	fixed := make([]byte, 4)
	binary.BigEndian.PutUint16(fixed[0:2], uint16(q.Type))
	binary.BigEndian.PutUint16(fixed[2:4], q.Class)
	return append(b, fixed...), nil
}

// ParseQuestion decodes a name followed by the 16-bit type and class fields,
// advancing the cursor past the question on success.
func ParseQuestion(cur *Cursor) (Question, error) {
	name, err := DecodeName(cur)
	if err != nil {
		return Question{}, err
	}
	qtype, err := cur.Uint16()
	if err != nil {
		return Question{}, fmt.Errorf("reading question type: %w", err)
	}
	class, err := cur.Uint16()
	if err != nil {
		return Question{}, fmt.Errorf("reading question class: %w", err)
	}
	return Question{Name: name, Type: RecordType(qtype), Class: class}, nil
}
