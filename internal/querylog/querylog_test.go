package querylog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "querylog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesSchema(t *testing.T) {
	s := openStore(t)

	entries, err := s.Recent(10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRecordAndRecent(t *testing.T) {
	s := openStore(t)

	s.Record(Entry{
		Client:        "127.0.0.1:40000",
		QName:         "example.com",
		QType:         1,
		Outcome:       "forwarded",
		RTT:           5 * time.Millisecond,
		ResponseBytes: 64,
	})
	s.Flush()

	entries, err := s.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "127.0.0.1:40000", e.Client)
	assert.Equal(t, "example.com", e.QName)
	assert.Equal(t, uint16(1), e.QType)
	assert.Equal(t, "forwarded", e.Outcome)
	assert.Equal(t, 5*time.Millisecond, e.RTT)
	assert.Equal(t, 64, e.ResponseBytes)
	assert.False(t, e.Time.IsZero(), "zero time is filled in at Record")
}

func TestRecentNewestFirst(t *testing.T) {
	s := openStore(t)

	base := time.Now().Add(-time.Minute)
	for i := range 5 {
		s.Record(Entry{
			Time:    base.Add(time.Duration(i) * time.Second),
			Client:  "c",
			QName:   "example.com",
			Outcome: "forwarded",
		})
	}
	s.Flush()

	entries, err := s.Recent(3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.True(t, entries[0].Time.After(entries[1].Time))
	assert.True(t, entries[1].Time.After(entries[2].Time))
}

func TestRecentDefaultLimit(t *testing.T) {
	s := openStore(t)
	s.Record(Entry{Client: "c", QName: "a.example", Outcome: "forwarded"})
	s.Flush()

	entries, err := s.Recent(0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRecordAfterCloseIsDropped(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "querylog.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Must not panic or block.
	s.Record(Entry{Client: "c", QName: "example.com"})
	assert.NoError(t, s.Close(), "double close is a no-op")
}

func TestCloseWritesQueuedEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "querylog.db")
	s, err := Open(path)
	require.NoError(t, err)

	for range 20 {
		s.Record(Entry{Client: "c", QName: "example.com", Outcome: "forwarded"})
	}
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.Recent(100)
	require.NoError(t, err)
	assert.Len(t, entries, 20)
}
