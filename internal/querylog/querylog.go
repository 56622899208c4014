// Package querylog provides SQLite-backed persistence of relayed queries.
//
// Each relayed query becomes one row: timestamp, client address, question
// name and type, outcome, round-trip time and response size. Writes go
// through a bounded channel drained by a single writer goroutine, so the
// DNS hot path never blocks on disk; when the channel is full, entries are
// dropped rather than queued unboundedly.
//
// Schema versioning uses embedded golang-migrate migrations against the
// same database handle the store queries through.
package querylog

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// writeQueueSize bounds the pending-entry channel.
const writeQueueSize = 1024

// Entry is one relayed query.
type Entry struct {
	ID            int64
	Time          time.Time
	Client        string
	QName         string
	QType         uint16
	Outcome       string
	RTT           time.Duration
	ResponseBytes int
}

// Store is a SQLite-backed query log. All methods are safe for concurrent use.
type Store struct {
	conn    *sql.DB
	pending atomic.Int64 // entries enqueued but not yet written

	mu      sync.Mutex
	entries chan Entry
	done    chan struct{}
	closed  bool
}

// Open opens or creates the query log database at path and brings its
// schema up to date.
func Open(path string) (*Store, error) {
	// WAL mode for concurrent reads while the writer goroutine inserts.
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open query log database: %w", err)
	}
	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)

	if err := migrateUp(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate query log schema: %w", err)
	}

	s := &Store{
		conn:    conn,
		entries: make(chan Entry, writeQueueSize),
		done:    make(chan struct{}),
	}
	go s.writeLoop()
	return s, nil
}

func migrateUp(conn *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	drv, err := sqlitemigrate.WithInstance(conn, &sqlitemigrate.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Record enqueues an entry for persistence. It never blocks: when the write
// queue is full or the store is closed the entry is dropped.
func (s *Store) Record(e Entry) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.entries <- e:
		s.pending.Add(1)
	default:
	}
}

// writeLoop drains the entry channel until Close.
func (s *Store) writeLoop() {
	defer close(s.done)
	for e := range s.entries {
		_, _ = s.conn.Exec(
			`INSERT INTO query_log (ts, client, qname, qtype, outcome, rtt_ms, response_bytes)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.Time.UnixMilli(), e.Client, e.QName, e.QType, e.Outcome,
			e.RTT.Milliseconds(), e.ResponseBytes,
		)
		s.pending.Add(-1)
	}
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.conn.Query(
		`SELECT id, ts, client, qname, qtype, outcome, rtt_ms, response_bytes
		 FROM query_log ORDER BY ts DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read query log: %w", err)
	}
	defer rows.Close()

	out := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			e     Entry
			tsMs  int64
			rttMs int64
		)
		if err := rows.Scan(&e.ID, &tsMs, &e.Client, &e.QName, &e.QType, &e.Outcome, &rttMs, &e.ResponseBytes); err != nil {
			return nil, fmt.Errorf("failed to scan query log row: %w", err)
		}
		e.Time = time.UnixMilli(tsMs)
		e.RTT = time.Duration(rttMs) * time.Millisecond
		out = append(out, e)
	}
	return out, rows.Err()
}

// Flush blocks until all entries enqueued so far have been written. Intended
// for tests and shutdown.
func (s *Store) Flush() {
	for s.pending.Load() > 0 {
		time.Sleep(time.Millisecond)
	}
}

// Close stops the writer, waits for queued entries to be written, and closes
// the database.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.entries)
	s.mu.Unlock()

	<-s.done
	return s.conn.Close()
}
