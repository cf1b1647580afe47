package db

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// LedgerFile is the ledger's file name inside the sessions directory.
const LedgerFile = "ledger.sqlite"

const schema = `
	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		sessionId TEXT NOT NULL,
		sequenceNumber INTEGER NOT NULL,
		startedAt REAL NOT NULL,
		durationMs INTEGER NOT NULL,
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		text TEXT NOT NULL DEFAULT '',
		createdAt REAL NOT NULL,
		UNIQUE(sessionId, sequenceNumber)
	);
	CREATE INDEX IF NOT EXISTS chunks_session ON chunks(sessionId, sequenceNumber);
`

// Store is the chunk ledger.
type Store struct {
	db *sql.DB
}

// DefaultDBPath returns the ledger path for a sessions directory.
func DefaultDBPath(sessionsDir string) string {
	return filepath.Join(sessionsDir, LedgerFile)
}

// Open opens or creates the ledger at path with WAL journaling.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	return open(dsn)
}

// OpenMemory opens a private in-memory ledger.
func OpenMemory() (*Store, error) {
	return open(":memory:")
}

func open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer; also keeps an in-memory database alive across calls.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordChunk inserts a flush attempt. ID and CreatedAt are filled in when
// empty.
func (s *Store) RecordChunk(ctx context.Context, c Chunk) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chunks (id, sessionId, sequenceNumber, startedAt, durationMs,
			status, error, text, createdAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.SessionID, c.SequenceNumber, unixFromTime(c.StartedAt),
		c.Duration.Milliseconds(), string(c.Status), c.Error, c.Text,
		unixFromTime(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert chunk: %w", err)
	}
	return nil
}

// ChunksForSession returns a session's chunks ordered by sequence number.
func (s *Store) ChunksForSession(ctx context.Context, sessionID string) ([]Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sessionId, sequenceNumber, startedAt, durationMs, status,
			error, text, createdAt
		FROM chunks
		WHERE sessionId = ?
		ORDER BY sequenceNumber ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		var startedAt, createdAt float64
		var durationMs int64
		var status string
		if err := rows.Scan(&c.ID, &c.SessionID, &c.SequenceNumber, &startedAt,
			&durationMs, &status, &c.Error, &c.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		c.StartedAt = timeFromUnix(startedAt)
		c.CreatedAt = timeFromUnix(createdAt)
		c.Duration = time.Duration(durationMs) * time.Millisecond
		c.Status = ChunkStatus(status)
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// StatsForSession aggregates a session's chunks. A session without chunks
// yields zero counts.
func (s *Store) StatsForSession(ctx context.Context, sessionID string) (SessionStats, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(durationMs), 0),
			MAX(startedAt)
		FROM chunks
		WHERE sessionId = ?
	`, sessionID)

	stats := SessionStats{SessionID: sessionID}
	var audioMs int64
	var last sql.NullFloat64
	if err := row.Scan(&stats.Chunks, &stats.Failed, &audioMs, &last); err != nil {
		return stats, fmt.Errorf("scan stats: %w", err)
	}
	stats.Audio = time.Duration(audioMs) * time.Millisecond
	if last.Valid {
		t := timeFromUnix(last.Float64)
		stats.LastChunk = &t
	}
	return stats, nil
}

// FailedChunks returns the most recent failed chunks across all sessions.
func (s *Store) FailedChunks(ctx context.Context, limit int) ([]Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sessionId, sequenceNumber, startedAt, durationMs, error, createdAt
		FROM chunks
		WHERE status = 'failed'
		ORDER BY startedAt DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query failed chunks: %w", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		c := Chunk{Status: ChunkFailed}
		var startedAt, createdAt float64
		var durationMs int64
		if err := rows.Scan(&c.ID, &c.SessionID, &c.SequenceNumber, &startedAt,
			&durationMs, &c.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		c.StartedAt = timeFromUnix(startedAt)
		c.CreatedAt = timeFromUnix(createdAt)
		c.Duration = time.Duration(durationMs) * time.Millisecond
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func unixFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
