// Package testutil provides shared test helpers for setting up buckets, databases and services.
package testutil

import (
	"os"
	"testing"
	"time"

	"github.com/starford/photoplay/internal/index"
	"github.com/starford/photoplay/internal/payload"
	"github.com/starford/photoplay/internal/storage"
)

// Endpoint is the object endpoint test buckets build download URLs on.
const Endpoint = "http://localhost:8080/v0/b/photoplay/o"

// Base is the scan-target base used by test assemblers.
const Base = "https://host/play"

// FixedTime is the clock value test assemblers stamp references with.
var FixedTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "photoplay-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestBucket creates a temporary bucket directory with an FS provider.
func TestBucket(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir, "photoplay", Endpoint)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// TestAssembler returns an assembler on Base with a fixed clock.
func TestAssembler(t *testing.T) *payload.Assembler {
	t.Helper()
	a, err := payload.NewAssembler(Base, payload.WithClock(func() time.Time { return FixedTime }))
	if err != nil {
		t.Fatal(err)
	}
	return a
}

// WebM returns a minimal byte slice carrying the WebM/EBML magic.
func WebM(body string) []byte {
	return append([]byte{0x1A, 0x45, 0xDF, 0xA3}, body...)
}
