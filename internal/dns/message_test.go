package dns

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildResponse(t *testing.T) []byte {
	t.Helper()
	m := Message{
		Header: Header{ID: 0x1001, Flags: FlagsFromUint16(0x8180)},
		Questions: []Question{
			{Name: "example.com", Type: TypeA, Class: uint16(ClassIN)},
		},
		Answers: []Record{
			NewARecord(RRMeta{Name: "example.com", Class: uint16(ClassIN), TTL: 300}, net.IPv4(93, 184, 216, 34)),
			NewCNAMERecord(RRMeta{Name: "www.example.com", Class: uint16(ClassIN), TTL: 60}, "example.com"),
		},
	}
	b, err := m.Marshal()
	require.NoError(t, err)
	return b
}

func TestParseMessageFullResponse(t *testing.T) {
	buf := buildResponse(t)

	m, err := ParseMessage(buf)
	require.NoError(t, err)

	assert.Equal(t, uint16(0x1001), m.Header.ID)
	assert.True(t, m.Header.IsResponse())
	require.Len(t, m.Questions, 1)
	assert.Equal(t, "example.com", m.Questions[0].Name)
	assert.Equal(t, TypeA, m.Questions[0].Type)

	require.Len(t, m.Answers, 2)
	a, ok := m.Answers[0].(*ARecord)
	require.True(t, ok)
	assert.Equal(t, "93.184.216.34", a.Addr.String())
	c, ok := m.Answers[1].(*CNAMERecord)
	require.True(t, ok)
	assert.Equal(t, "example.com", c.Target)

	assert.Empty(t, m.Authorities)
	assert.Empty(t, m.Additionals)
}

func TestMarshalUsesSliceLengthsForCounts(t *testing.T) {
	m := Message{
		// Embedded counts are stale on purpose; Marshal must ignore them.
		Header:    Header{ID: 7, QDCount: 9, ANCount: 9},
		Questions: []Question{{Name: "example.com", Type: TypeA, Class: uint16(ClassIN)}},
	}
	b, err := m.Marshal()
	require.NoError(t, err)

	h, err := ParseHeader(NewCursor(b))
	require.NoError(t, err)
	assert.Equal(t, uint16(1), h.QDCount)
	assert.Equal(t, uint16(0), h.ANCount)
}

func TestParseMessageCountExceedsRecords(t *testing.T) {
	buf := buildResponse(t)
	// Claim 3 answers while the buffer carries 2.
	buf[6], buf[7] = 0x00, 0x03

	_, err := ParseMessage(buf)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedPacket)
	assert.Contains(t, err.Error(), "answer record 3 of 3")
}

func TestParseMessageTruncatedMidRecord(t *testing.T) {
	buf := buildResponse(t)
	_, err := ParseMessage(buf[:len(buf)-3])
	assert.ErrorIs(t, err, ErrMalformedPacket)
}

func TestParseMessageHugeCountsSmallBuffer(t *testing.T) {
	// Header declaring 65535 of everything against an empty body. The capped
	// allocations keep this from mattering; the parse fails on the first
	// missing entry.
	buf := []byte{
		0x00, 0x01,
		0x81, 0x80,
		0xFF, 0xFF,
		0xFF, 0xFF,
		0xFF, 0xFF,
		0xFF, 0xFF,
	}
	_, err := ParseMessage(buf)
	assert.ErrorIs(t, err, ErrMalformedPacket)
}

func TestParseMessageHeaderOnly(t *testing.T) {
	m, err := ParseMessage([]byte{
		0xAB, 0xCD,
		0x01, 0x00,
		0x00, 0x00,
		0x00, 0x00,
		0x00, 0x00,
		0x00, 0x00,
	})
	require.NoError(t, err)
	assert.Equal(t, uint16(0xABCD), m.Header.ID)
	assert.Empty(t, m.Questions)
	assert.Empty(t, m.Answers)
}

func TestExtractQueryInfo(t *testing.T) {
	m := Message{
		Header:    Header{ID: 0x4242, Flags: QueryFlags()},
		Questions: []Question{{Name: "www.example.com", Type: TypeA, Class: uint16(ClassIN)}},
	}
	buf, err := m.Marshal()
	require.NoError(t, err)

	id, q, err := ExtractQueryInfo(buf)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x4242), id)
	assert.Equal(t, "www.example.com", q.Name)
	assert.Equal(t, TypeA, q.Type)
	assert.Equal(t, uint16(ClassIN), q.Class)
}

func TestExtractQueryInfoSkipsAnswerDecoding(t *testing.T) {
	// Garbage after the first question must not matter.
	m := Message{
		Header:    Header{ID: 1},
		Questions: []Question{{Name: "example.com", Type: TypeA, Class: uint16(ClassIN)}},
	}
	buf, err := m.Marshal()
	require.NoError(t, err)
	buf[6], buf[7] = 0xFF, 0xFF // fake ANCount with no records behind it

	id, q, err := ExtractQueryInfo(buf)
	require.NoError(t, err)
	assert.Equal(t, uint16(1), id)
	assert.Equal(t, "example.com", q.Name)
}

func TestExtractQueryInfoNoQuestion(t *testing.T) {
	buf := make([]byte, HeaderSize)
	buf[0], buf[1] = 0x12, 0x34

	id, _, err := ExtractQueryInfo(buf)
	assert.ErrorIs(t, err, ErrMalformedPacket)
	assert.Equal(t, uint16(0x1234), id, "header ID is still reported")
}

func TestExtractQueryInfoShortBuffer(t *testing.T) {
	_, _, err := ExtractQueryInfo([]byte{0x01})
	assert.ErrorIs(t, err, ErrMalformedPacket)
}

func TestMessageRoundTrip(t *testing.T) {
	buf := buildResponse(t)
	m, err := ParseMessage(buf)
	require.NoError(t, err)

	again, err := m.Marshal()
	require.NoError(t, err)

	// The reparse matches field-for-field; the bytes themselves may differ
	// because this codec never emits compression pointers.
	m2, err := ParseMessage(again)
	require.NoError(t, err)
	assert.Equal(t, m.Header.ID, m2.Header.ID)
	assert.Equal(t, m.Questions, m2.Questions)
	require.Len(t, m2.Answers, len(m.Answers))
}
