// Package db records transcription chunk attempts in a SQLite ledger that
// sits next to the session directories.
package db

import "time"

// ChunkStatus is the outcome of one flush.
type ChunkStatus string

const (
	ChunkOK     ChunkStatus = "ok"
	ChunkFailed ChunkStatus = "failed"
)

// Chunk is one flush attempt of a recording session.
type Chunk struct {
	ID             string
	SessionID      string
	SequenceNumber int
	StartedAt      time.Time
	Duration       time.Duration
	Status         ChunkStatus
	Error          string
	Text           string
	CreatedAt      time.Time
}

// SessionStats aggregates the chunks of one session.
type SessionStats struct {
	SessionID string
	Chunks    int
	Failed    int
	Audio     time.Duration
	LastChunk *time.Time
}
