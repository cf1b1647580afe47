package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// TestLiveLedger opens the ledger under MINUTES_SESSIONS_DIR and prints the
// most recent failures. Skipped when the ledger doesn't exist.
func TestLiveLedger(t *testing.T) {
	dir := os.Getenv("MINUTES_SESSIONS_DIR")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, "minutes")
	}
	dbPath := DefaultDBPath(dir)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Skip("ledger not found at", dbPath)
	}

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	failed, err := store.FailedChunks(context.Background(), 5)
	if err != nil {
		t.Fatalf("FailedChunks: %v", err)
	}
	if len(failed) == 0 {
		fmt.Println("No failed chunks in ledger")
		return
	}
	for _, c := range failed {
		fmt.Printf("  %s #%d: %s\n", c.SessionID, c.SequenceNumber, c.Error)
	}
}
