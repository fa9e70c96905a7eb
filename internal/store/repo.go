package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/starford/linkograph/internal/apperr"
	"github.com/starford/linkograph/internal/checksum"
	"github.com/starford/linkograph/internal/linkograph"
	"github.com/starford/linkograph/internal/models"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Create inserts a new protocol with its moves and links. ID, timestamps and
// checksum are filled in on p. A protocol whose Source is already stored
// yields apperr.ErrConflict.
func (db *DB) Create(ctx context.Context, p *models.Protocol) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	p.Checksum = checksum.Linkograph(p.MoveCount, p.Links)

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if err := insertProtocol(ctx, tx, p, ""); err != nil {
		return err
	}
	if err := replaceChildren(ctx, tx, p); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	db.invalidate(p.ID)
	return nil
}

// Get returns the protocol with the given ID or apperr.ErrNotFound.
func (db *DB) Get(ctx context.Context, id string) (*models.Protocol, error) {
	if p, ok := db.cache.Get(id); ok {
		return clone(p), nil
	}
	gen := db.generation()

	p := &models.Protocol{ID: id}
	var source sql.NullString
	err := db.conn.QueryRowContext(ctx, `
		SELECT name, source, move_count, checksum, created_at, updated_at
		FROM linkographs WHERE id = ?
	`, id).Scan(&p.Name, &source, &p.MoveCount, &p.Checksum, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: linkograph %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get linkograph: %w", err)
	}
	p.Source = source.String

	if p.Moves, err = loadMoves(ctx, db.conn, id); err != nil {
		return nil, err
	}
	if p.Links, err = loadLinks(ctx, db.conn, id); err != nil {
		return nil, err
	}

	if db.beforeFill != nil {
		db.beforeFill()
	}
	db.fill(gen, p)
	return p, nil
}

// List returns protocol summaries, most recently updated first, and the
// total number of matches.
func (db *DB) List(ctx context.Context, opts ListOptions) ([]models.ProtocolSummary, int, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)
	offset := max(opts.Offset, 0)

	const where = `WHERE (? = '' OR l.name LIKE '%' || ? || '%')`

	var total int
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM linkographs l `+where, opts.Query, opts.Query).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count linkographs: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT l.id, l.name, l.source, l.move_count, l.updated_at,
		       (SELECT count(*) FROM links k WHERE k.linkograph_id = l.id)
		FROM linkographs l `+where+`
		ORDER BY l.updated_at DESC, l.id
		LIMIT ? OFFSET ?
	`, opts.Query, opts.Query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list linkographs: %w", err)
	}
	defer rows.Close()

	out := []models.ProtocolSummary{}
	for rows.Next() {
		var s models.ProtocolSummary
		var source sql.NullString
		if err := rows.Scan(&s.ID, &s.Name, &source, &s.MoveCount, &s.UpdatedAt, &s.LinkCount); err != nil {
			return nil, 0, err
		}
		s.Source = source.String
		out = append(out, s)
	}
	return out, total, rows.Err()
}

// Delete removes a protocol and, by cascade, its moves and links.
func (db *DB) Delete(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM linkographs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete linkograph: %w", err)
	}
	db.invalidate(id)
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: linkograph %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// SetLink selects or clears one link of a stored protocol. A non-empty
// ifMatch must equal the current checksum, otherwise apperr.ErrConflict.
// The link's range is not checked here.
func (db *DB) SetLink(ctx context.Context, id string, l linkograph.Link, selected bool, ifMatch string) (*models.Protocol, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var moveCount int
	var current string
	err = tx.QueryRowContext(ctx, `SELECT move_count, checksum FROM linkographs WHERE id = ?`, id).Scan(&moveCount, &current)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: linkograph %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: set link: %w", err)
	}
	if ifMatch != "" && ifMatch != current {
		return nil, fmt.Errorf("store: linkograph %s changed: %w", id, apperr.ErrConflict)
	}

	if selected {
		_, err = tx.ExecContext(ctx, `INSERT OR IGNORE INTO links (linkograph_id, move1, move2) VALUES (?, ?, ?)`, id, l.Move1, l.Move2)
	} else {
		_, err = tx.ExecContext(ctx, `DELETE FROM links WHERE linkograph_id = ? AND move1 = ? AND move2 = ?`, id, l.Move1, l.Move2)
	}
	if err != nil {
		return nil, fmt.Errorf("store: set link: %w", err)
	}

	links, err := loadLinks(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE linkographs SET checksum = ?, updated_at = ? WHERE id = ?`,
		checksum.Linkograph(moveCount, links), time.Now().UTC(), id); err != nil {
		return nil, fmt.Errorf("store: touch linkograph: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit: %w", err)
	}
	db.invalidate(id)
	return db.Get(ctx, id)
}

// UpsertSource inserts or replaces the protocol imported from p.Source,
// keeping the ID of an existing import. fileChecksum is the digest of the
// source file, used by Sync to skip unchanged files.
func (db *DB) UpsertSource(ctx context.Context, p *models.Protocol, fileChecksum string) (bool, error) {
	if p.Source == "" {
		return false, fmt.Errorf("store: upsert source: %w: empty source", apperr.ErrInvalidInput)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	p.UpdatedAt = now
	p.Checksum = checksum.Linkograph(p.MoveCount, p.Links)

	var id string
	var created time.Time
	err = tx.QueryRowContext(ctx, `SELECT id, created_at FROM linkographs WHERE source = ?`, p.Source).Scan(&id, &created)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		p.CreatedAt = now
		if err := insertProtocol(ctx, tx, p, fileChecksum); err != nil {
			return false, err
		}
	case err != nil:
		return false, fmt.Errorf("store: lookup source: %w", err)
	default:
		p.ID, p.CreatedAt = id, created
		if _, err := tx.ExecContext(ctx, `
			UPDATE linkographs
			SET name = ?, move_count = ?, checksum = ?, file_checksum = ?, updated_at = ?
			WHERE id = ?
		`, p.Name, p.MoveCount, p.Checksum, fileChecksum, now, id); err != nil {
			return false, fmt.Errorf("store: update linkograph: %w", err)
		}
	}

	if err := replaceChildren(ctx, tx, p); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("store: commit: %w", err)
	}
	db.invalidate(p.ID)
	return id == "", nil
}

// DeleteSource removes the protocol imported from source and returns its ID.
func (db *DB) DeleteSource(ctx context.Context, source string) (string, error) {
	var id string
	err := db.conn.QueryRowContext(ctx, `SELECT id FROM linkographs WHERE source = ?`, source).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("store: source %s: %w", source, apperr.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("store: lookup source: %w", err)
	}
	return id, db.Delete(ctx, id)
}

// SourceChecksums maps every imported source path to its file checksum.
func (db *DB) SourceChecksums(ctx context.Context) (map[string]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT source, file_checksum FROM linkographs WHERE source IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("store: source checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var src, cs string
		if err := rows.Scan(&src, &cs); err != nil {
			return nil, err
		}
		out[src] = cs
	}
	return out, rows.Err()
}

// SourceChecksum returns the file checksum recorded for source, or
// apperr.ErrNotFound when nothing was imported from it.
func (db *DB) SourceChecksum(ctx context.Context, source string) (string, error) {
	var cs string
	err := db.conn.QueryRowContext(ctx, `SELECT file_checksum FROM linkographs WHERE source = ?`, source).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("store: source %s: %w", source, apperr.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("store: source checksum: %w", err)
	}
	return cs, nil
}

func insertProtocol(ctx context.Context, tx *sql.Tx, p *models.Protocol, fileChecksum string) error {
	var source sql.NullString
	if p.Source != "" {
		source = sql.NullString{String: p.Source, Valid: true}
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO linkographs (id, name, source, move_count, checksum, file_checksum, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, source, p.MoveCount, p.Checksum, fileChecksum, p.CreatedAt, p.UpdatedAt)
	if isConstraint(err) {
		return fmt.Errorf("store: insert linkograph: %w", apperr.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("store: insert linkograph: %w", err)
	}
	return nil
}

// replaceChildren rewrites the moves and links rows of p.
func replaceChildren(ctx context.Context, tx *sql.Tx, p *models.Protocol) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM moves WHERE linkograph_id = ?`, p.ID); err != nil {
		return fmt.Errorf("store: clear moves: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM links WHERE linkograph_id = ?`, p.ID); err != nil {
		return fmt.Errorf("store: clear links: %w", err)
	}

	if len(p.Moves) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO moves (linkograph_id, id, name) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("store: prepare move insert: %w", err)
		}
		defer stmt.Close()
		for _, m := range p.Moves {
			if _, err := stmt.ExecContext(ctx, p.ID, m.ID, m.Name); err != nil {
				return fmt.Errorf("store: insert move: %w", err)
			}
		}
	}

	if len(p.Links) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO links (linkograph_id, move1, move2) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("store: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, l := range p.Links {
			if _, err := stmt.ExecContext(ctx, p.ID, l.Move1, l.Move2); err != nil {
				return fmt.Errorf("store: insert link: %w", err)
			}
		}
	}
	return nil
}

func loadMoves(ctx context.Context, q querier, id string) ([]models.Move, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, name FROM moves WHERE linkograph_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("store: load moves: %w", err)
	}
	defer rows.Close()

	out := []models.Move{}
	for rows.Next() {
		var m models.Move
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func loadLinks(ctx context.Context, q querier, id string) ([]linkograph.Link, error) {
	rows, err := q.QueryContext(ctx, `SELECT move1, move2 FROM links WHERE linkograph_id = ? ORDER BY move1, move2`, id)
	if err != nil {
		return nil, fmt.Errorf("store: load links: %w", err)
	}
	defer rows.Close()

	out := []linkograph.Link{}
	for rows.Next() {
		var l linkograph.Link
		if err := rows.Scan(&l.Move1, &l.Move2); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func isConstraint(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.Code == sqlite3.ErrConstraint
}

func clone(p *models.Protocol) *models.Protocol {
	cp := *p
	cp.Moves = slices.Clone(p.Moves)
	cp.Links = slices.Clone(p.Links)
	return &cp
}
