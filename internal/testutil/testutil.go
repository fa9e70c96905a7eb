// Package testutil provides shared test helpers for setting up protocol
// directories, databases and services.
package testutil

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/starford/linkograph/internal/analysis"
	"github.com/starford/linkograph/internal/linkograph"
	"github.com/starford/linkograph/internal/storage"
	"github.com/starford/linkograph/internal/store"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "linkograph-test.db"), 16)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestProtocols creates a temporary protocol directory with a storage.Provider.
func TestProtocols(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	files, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, files
}

// WriteProtocol writes a protocol file into dir.
func WriteProtocol(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// Event is one recorded linkograph change.
type Event struct {
	Kind string
	ID   string
}

// Recorder is an analysis.Notifier that keeps every event.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// PublishLinkographEvent records the event.
func (r *Recorder) PublishLinkographEvent(kind, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Kind: kind, ID: id})
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// TestService wires a service over a temporary database and protocol
// directory with the default coefficients.
func TestService(t *testing.T) (*analysis.Service, string, *Recorder) {
	t.Helper()
	dir, files := TestProtocols(t)
	rec := &Recorder{}
	return analysis.NewService(TestDB(t), files, rec, linkograph.DefaultCoefficients), dir, rec
}
