// Package store provides the SQLite-backed linkograph repository together
// with protocol directory sync and watching.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/linkograph/internal/models"
)

// DefaultCacheSize is the number of protocols kept in the read cache.
const DefaultCacheSize = 256

const schemaSQL = `
CREATE TABLE IF NOT EXISTS linkographs (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL DEFAULT '',
	source        TEXT,
	move_count    INTEGER NOT NULL CHECK (move_count >= 2),
	checksum      TEXT NOT NULL DEFAULT '',
	file_checksum TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_linkographs_source ON linkographs(source) WHERE source IS NOT NULL;

CREATE TABLE IF NOT EXISTS moves (
	linkograph_id TEXT NOT NULL REFERENCES linkographs(id) ON DELETE CASCADE,
	id            INTEGER NOT NULL,
	name          TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (linkograph_id, id)
);

CREATE TABLE IF NOT EXISTS links (
	linkograph_id TEXT NOT NULL REFERENCES linkographs(id) ON DELETE CASCADE,
	move1         INTEGER NOT NULL,
	move2         INTEGER NOT NULL,
	UNIQUE(linkograph_id, move1, move2)
);

CREATE INDEX IF NOT EXISTS idx_links_linkograph ON links(linkograph_id);
`

// DB wraps a sql.DB with linkograph-specific operations.
//
// Reads go through an LRU cache. Every write bumps gen after commit, and a
// read only fills the cache if gen did not move while it was querying, so a
// fill can never reinstate rows a concurrent write has replaced.
type DB struct {
	conn  *sql.DB
	cache *lru.Cache[string, *models.Protocol]

	mu  sync.Mutex
	gen uint64

	beforeFill func() // test hook, runs between query and cache fill
}

// Open opens (or creates) the SQLite database and applies the schema.
// cacheSize <= 0 selects DefaultCacheSize.
func Open(dsn string, cacheSize int) (*DB, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, *models.Protocol](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("store: cache: %w", err)
	}

	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{conn: conn, cache: cache}, nil
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// invalidate drops id from the cache and voids fills of reads in flight.
func (db *DB) invalidate(id string) {
	db.mu.Lock()
	db.gen++
	db.cache.Remove(id)
	db.mu.Unlock()
}

func (db *DB) generation() uint64 {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.gen
}

// fill caches p unless a write has happened since gen was taken.
func (db *DB) fill(gen uint64, p *models.Protocol) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.gen == gen {
		db.cache.Add(p.ID, clone(p))
	}
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
