package dns

import (
	"fmt"

	"github.com/mstock/relaydns/internal/helpers"
)

// Limits for incoming DNS messages to prevent resource exhaustion from
// headers declaring huge section counts against tiny buffers.
const (
	MaxQuestions    = 4   // Maximum questions per message (typically 1)
	MaxRRPerSection = 100 // Cap for initial per-section allocations
)

// Message represents a complete DNS message (RFC 1035 Section 4.1):
// header plus the question, answer, authority and additional sections,
// positional and sized by the header's counts.
//
// A Message is a transient parse result; it holds no reference to the
// datagram it was parsed from.
type Message struct {
	Header      Header
	Questions   []Question
	Answers     []Record
	Authorities []Record
	Additionals []Record
}

// Marshal serializes the message to DNS wire format. Section counts are
// taken from the actual slice lengths, not the embedded header counts.
func (m Message) Marshal() ([]byte, error) {
	h := Header{
		ID:      m.Header.ID,
		Flags:   m.Header.Flags,
		QDCount: helpers.ClampIntToUint16(len(m.Questions)),
		ANCount: helpers.ClampIntToUint16(len(m.Answers)),
		NSCount: helpers.ClampIntToUint16(len(m.Authorities)),
		ARCount: helpers.ClampIntToUint16(len(m.Additionals)),
	}

	hb, err := h.Marshal()
	if err != nil {
		return nil, err
	}
	// Estimate capacity: header(12) + question(~50) + records(~100 each)
	estimated := HeaderSize + len(m.Questions)*50 +
		(len(m.Answers)+len(m.Authorities)+len(m.Additionals))*100
	out := make([]byte, 0, estimated)
	out = append(out, hb...)

	for _, q := range m.Questions {
		qb, err := q.Marshal()
		if err != nil {
			return nil, err
		}
		out = append(out, qb...)
	}
	for _, section := range [][]Record{m.Answers, m.Authorities, m.Additionals} {
		for _, r := range section {
			rb, err := MarshalRecord(r)
			if err != nil {
				return nil, err
			}
			out = append(out, rb...)
		}
	}
	return out, nil
}

// ParseMessage parses a full datagram: header, then exactly QDCOUNT
// questions, ANCOUNT answers, NSCOUNT authorities and ARCOUNT additionals.
//
// A header declaring more records than the buffer holds fails with
// ErrMalformedPacket on the missing record's first read; there is no
// truncated best-effort result. A datagram that has already been cut to the
// received byte count parses against that length, never against zero
// padding.
func ParseMessage(buf []byte) (Message, error) {
	cur := NewCursor(buf)
	h, err := ParseHeader(cur)
	if err != nil {
		return Message{}, err
	}

	m := Message{Header: h}

	// Cap initial allocations: the counts are attacker-controlled and must
	// not size allocations beyond what the buffer could plausibly hold.
	m.Questions = make([]Question, 0, min(int(h.QDCount), MaxQuestions))
	for i := range int(h.QDCount) {
		q, err := ParseQuestion(cur)
		if err != nil {
			return Message{}, fmt.Errorf("question %d of %d: %w", i+1, h.QDCount, err)
		}
		m.Questions = append(m.Questions, q)
	}

	sections := []struct {
		name  string
		count uint16
		out   *[]Record
	}{
		{"answer", h.ANCount, &m.Answers},
		{"authority", h.NSCount, &m.Authorities},
		{"additional", h.ARCount, &m.Additionals},
	}
	for _, s := range sections {
		recs := make([]Record, 0, min(int(s.count), MaxRRPerSection))
		for i := range int(s.count) {
			r, err := ParseRecord(cur)
			if err != nil {
				return Message{}, fmt.Errorf("%s record %d of %d: %w", s.name, i+1, s.count, err)
			}
			recs = append(recs, r)
		}
		*s.out = recs
	}
	return m, nil
}

// ExtractQueryInfo is the cheap partial parse used by a forwarding front end
// to correlate a datagram back to its requester: it reads only the header
// and the first question, skipping answer decoding entirely.
func ExtractQueryInfo(buf []byte) (uint16, Question, error) {
	cur := NewCursor(buf)
	h, err := ParseHeader(cur)
	if err != nil {
		return 0, Question{}, err
	}
	if h.QDCount == 0 {
		return h.ID, Question{}, fmt.Errorf("%w: message has no question section", ErrMalformedPacket)
	}
	q, err := ParseQuestion(cur)
	if err != nil {
		return h.ID, Question{}, err
	}
	return h.ID, q, nil
}
