package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a single SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS images (
    id   INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    dir  TEXT NOT NULL,
    tags TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_images_dir ON images(dir);
`

// OpenSQLite opens (creating if needed) the catalog database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}

	dsn := path
	if strings.Contains(dsn, "?") {
		dsn += "&"
	} else {
		dsn += "?"
	}
	dsn += "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(FULL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog db: %w", err)
	}
	// :memory: databases are per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize catalog schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) EnsureTracked(ctx context.Context, paths []string) (int, error) {
	if len(paths) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO images (path, dir, tags) VALUES (?, ?, '')`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	added := 0
	for _, p := range paths {
		res, err := stmt.ExecContext(ctx, p, dirOf(p))
		if err != nil {
			return 0, fmt.Errorf("insert %s: %w", p, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("insert %s: %w", p, err)
		}
		added += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit ensure tracked: %w", err)
	}
	return added, nil
}

func (s *SQLiteStore) Labels(ctx context.Context, path string) ([]string, error) {
	var tags string
	err := s.db.QueryRowContext(ctx, `SELECT tags FROM images WHERE path = ?`, path).Scan(&tags)
	if errors.Is(err, sql.ErrNoRows) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get labels: %w", err)
	}
	return decodeLabels(tags), nil
}

func (s *SQLiteStore) SetLabels(ctx context.Context, path string, labels []string) error {
	labels, err := NormalizeLabels(labels)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `UPDATE images SET tags = ? WHERE path = ?`, encodeLabels(labels), path)
	if err != nil {
		return fmt.Errorf("set labels: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set labels: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return nil
}

func (s *SQLiteStore) AddLabel(ctx context.Context, path, label string) (bool, error) {
	label, err := NormalizeLabel(label)
	if err != nil {
		return false, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	labels, ok, err := labelsTx(ctx, tx, path)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if HasLabel(labels, label) {
		return false, nil
	}

	labels = append(labels, label)
	if _, err := tx.ExecContext(ctx, `UPDATE images SET tags = ? WHERE path = ?`, encodeLabels(labels), path); err != nil {
		return false, fmt.Errorf("add label: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit add label: %w", err)
	}
	return true, nil
}

func (s *SQLiteStore) RemoveLabel(ctx context.Context, path, label string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	labels, ok, err := labelsTx(ctx, tx, path)
	if err != nil {
		return false, err
	}
	if !ok || !HasLabel(labels, label) {
		return false, nil
	}

	labels = withoutLabel(labels, label)
	if _, err := tx.ExecContext(ctx, `UPDATE images SET tags = ? WHERE path = ?`, encodeLabels(labels), path); err != nil {
		return false, fmt.Errorf("remove label: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit remove label: %w", err)
	}
	return true, nil
}

func (s *SQLiteStore) Rekey(ctx context.Context, oldPath, newPath string) error {
	if oldPath == newPath {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM images WHERE path = ?)`, newPath).Scan(&exists); err != nil {
		return fmt.Errorf("check rekey target: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrConflict, newPath)
	}

	res, err := tx.ExecContext(ctx, `UPDATE images SET path = ?, dir = ? WHERE path = ?`, newPath, dirOf(newPath), oldPath)
	if err != nil {
		return fmt.Errorf("rekey: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rekey: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, oldPath)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rekey: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Remove(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM images WHERE path = ?`, path); err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

func (s *SQLiteStore) QueryUntagged(ctx context.Context, dir string) ([]string, error) {
	query := `SELECT path FROM images WHERE tags = ''`
	args := []any{}
	if dir != "" {
		query += ` AND dir = ?`
		args = append(args, dir)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query untagged: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan untagged: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

func (s *SQLiteStore) QueryTagged(ctx context.Context, dir string) ([]Record, error) {
	query := `SELECT path, tags FROM images WHERE tags != ''`
	args := []any{}
	if dir != "" {
		query += ` AND dir = ?`
		args = append(args, dir)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tagged: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var path, tags string
		if err := rows.Scan(&path, &tags); err != nil {
			return nil, fmt.Errorf("scan tagged: %w", err)
		}
		records = append(records, Record{Path: path, Labels: decodeLabels(tags)})
	}
	return records, rows.Err()
}

func (s *SQLiteStore) Stats(ctx context.Context, dir string) (Stats, error) {
	query := `SELECT tags FROM images`
	args := []any{}
	if dir != "" {
		query += ` WHERE dir = ?`
		args = append(args, dir)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	st := Stats{ByLabel: make(map[string]int)}
	for rows.Next() {
		var tags string
		if err := rows.Scan(&tags); err != nil {
			return Stats{}, fmt.Errorf("scan stats: %w", err)
		}
		st.add(decodeLabels(tags))
	}
	return st, rows.Err()
}

func (st *Stats) add(labels []string) {
	st.Total++
	if len(labels) == 0 {
		return
	}
	st.Tagged++
	for _, l := range labels {
		st.ByLabel[l]++
	}
}

func labelsTx(ctx context.Context, tx *sql.Tx, path string) ([]string, bool, error) {
	var tags string
	err := tx.QueryRowContext(ctx, `SELECT tags FROM images WHERE path = ?`, path).Scan(&tags)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get labels: %w", err)
	}
	return decodeLabels(tags), true, nil
}
