package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/photoplay/internal/apperr"
)

// PayloadRow represents a row in the payloads table.
type PayloadRow struct {
	ID            string
	Kind          string
	Content       string
	App           string
	CreatedAt     time.Time
	ScanURL       string
	ObjectPath    string // empty for links
	ScanCount     int
	LastScannedAt *time.Time
}

// ListFilter narrows ListPayloads. Zero values mean "no filter".
type ListFilter struct {
	Limit  int
	Offset int
	Kind   string
	Query  string // substring match on content
}

const payloadColumns = `id, kind, content, app, created_at, scan_url, object_path, scan_count, last_scanned_at`

// UpsertPayload inserts a payload, or refreshes its scan URL if the id exists.
// Scan statistics are preserved.
func (db *DB) UpsertPayload(ctx context.Context, p PayloadRow) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO payloads (id, kind, content, app, created_at, scan_url, object_path)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			scan_url    = excluded.scan_url,
			object_path = excluded.object_path
	`, p.ID, p.Kind, p.Content, p.App, p.CreatedAt.UTC(), p.ScanURL, p.ObjectPath)
	if err != nil {
		return fmt.Errorf("index: upsert payload: %w", err)
	}
	return nil
}

// GetPayload returns the payload with the given id.
func (db *DB) GetPayload(ctx context.Context, id string) (*PayloadRow, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+payloadColumns+` FROM payloads WHERE id = ?`, id)
	p, err := scanPayload(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get payload: %w", err)
	}
	return p, nil
}

// ListPayloads returns a page of payloads, newest first, and the total count
// matching the filter.
func (db *DB) ListPayloads(ctx context.Context, f ListFilter) ([]PayloadRow, int, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	var where []string
	var args []any
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, f.Kind)
	}
	if f.Query != "" {
		where = append(where, "content LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(f.Query)+"%")
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM payloads`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count payloads: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+payloadColumns+` FROM payloads`+clause+` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list payloads: %w", err)
	}
	defer rows.Close()

	var out []PayloadRow
	for rows.Next() {
		p, err := scanPayload(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("index: scan payload: %w", err)
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

// RecordScan bumps the scan counter of a known payload. It reports false when
// the payload was assembled elsewhere and is not indexed here.
func (db *DB) RecordScan(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE payloads SET scan_count = scan_count + 1, last_scanned_at = ? WHERE id = ?`, at.UTC(), id)
	if err != nil {
		return false, fmt.Errorf("index: record scan: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// DeletePayload removes a payload and returns the removed row.
func (db *DB) DeletePayload(ctx context.Context, id string) (*PayloadRow, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	p, err := scanPayload(tx.QueryRowContext(ctx, `SELECT `+payloadColumns+` FROM payloads WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get payload: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM payloads WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("index: delete payload: %w", err)
	}
	return p, tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayload(s rowScanner) (*PayloadRow, error) {
	var p PayloadRow
	var last sql.NullTime
	if err := s.Scan(&p.ID, &p.Kind, &p.Content, &p.App, &p.CreatedAt, &p.ScanURL, &p.ObjectPath, &p.ScanCount, &last); err != nil {
		return nil, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	if last.Valid {
		t := last.Time.UTC()
		p.LastScannedAt = &t
	}
	return &p, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
