package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/meiyo/pkg/meiyo/history"
	"github.com/cognicore/meiyo/pkg/meiyo/internalerr"
)

// sqliteStore implements history.Store using SQLite
type sqliteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (history.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db, now: time.Now}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS search_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	query TEXT UNIQUE NOT NULL,
	count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS report_history (
	id TEXT PRIMARY KEY,
	text_content TEXT NOT NULL,
	judgement TEXT NOT NULL DEFAULT '',
	verdict TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_search_history_count ON search_history(count DESC);
CREATE INDEX IF NOT EXISTS idx_report_history_created ON report_history(created_at DESC);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

func (s *sqliteStore) IncrementQuery(ctx context.Context, text string) (int64, error) {
	q, err := history.CleanQuery(text)
	if err != nil {
		return 0, err
	}

	var count int64
	err = s.db.QueryRowContext(ctx, `
INSERT INTO search_history(query, count) VALUES(?, 1)
ON CONFLICT(query) DO UPDATE SET count = count + 1
RETURNING count`, q).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("increment query: %w", err)
	}
	return count, nil
}

func (s *sqliteStore) QueryCount(ctx context.Context, text string) (int64, error) {
	q, err := history.CleanQuery(text)
	if err != nil {
		return 0, err
	}

	var count int64
	err = s.db.QueryRowContext(ctx, "SELECT count FROM search_history WHERE query = ?", q).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query count: %w", err)
	}
	return count, nil
}

func (s *sqliteStore) TopQueries(ctx context.Context, k int) ([]history.QueryCount, error) {
	if k <= 0 {
		k = -1 // sqlite: no limit
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT query, count FROM search_history ORDER BY count DESC, query ASC LIMIT ?", k)
	if err != nil {
		return nil, fmt.Errorf("top queries: %w", err)
	}
	defer rows.Close()

	var out []history.QueryCount
	for rows.Next() {
		var qc history.QueryCount
		if err := rows.Scan(&qc.Query, &qc.Count); err != nil {
			return nil, err
		}
		out = append(out, qc)
	}
	return out, rows.Err()
}

func (s *sqliteStore) AddReport(ctx context.Context, r history.Report) (history.Report, error) {
	r, err := history.PrepareReport(r, s.now())
	if err != nil {
		return r, err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO report_history(id, text_content, judgement, verdict, created_at)
VALUES(?, ?, ?, ?, ?)`,
		r.ID, r.Text, r.Judgement, r.Verdict, r.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return r, fmt.Errorf("add report: %w", err)
	}
	return r, nil
}

func (s *sqliteStore) Reports(ctx context.Context, limit int) ([]history.Report, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, text_content, judgement, verdict, created_at
FROM report_history
ORDER BY created_at DESC, id DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []history.Report
	for rows.Next() {
		var (
			r       history.Report
			created string
		)
		if err := rows.Scan(&r.ID, &r.Text, &r.Judgement, &r.Verdict, &created); err != nil {
			return nil, err
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", created, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
