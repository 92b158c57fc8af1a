// Package history records submitted requests in a sqlite database.
package history

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sadopc/treq/internal/core/errs"
)

// timeFormat is fixed-width so timestamps sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages request history persistence.
type Store struct {
	db *sql.DB
}

// NewStore creates a new history store at the given path.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS history (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			method        TEXT NOT NULL,
			url           TEXT NOT NULL,
			status_code   INTEGER,
			duration_ns   INTEGER,
			size          INTEGER,
			request_body  TEXT,
			response_body TEXT,
			headers       TEXT,
			error         TEXT,
			timestamp     TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_history_timestamp ON history(timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_history_url ON history(url);
	`)
	if err != nil {
		return fmt.Errorf("creating history table: %w", err)
	}
	return nil
}

const selectColumns = `SELECT id, method, url, status_code, duration_ns, size, request_body, response_body, headers, error, timestamp FROM history`

// Add inserts a new history entry.
func (s *Store) Add(e Entry) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO history (method, url, status_code, duration_ns, size, request_body, response_body, headers, error, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Method, e.URL, e.StatusCode, e.Duration.Nanoseconds(), e.Size,
		e.RequestBody, e.ResponseBody, e.Headers, e.Error,
		e.Timestamp.UTC().Format(timeFormat),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting history: %w", err)
	}
	return result.LastInsertId()
}

// ListFiltered returns the most recent entries matching f.
func (s *Store) ListFiltered(f Filter) ([]Entry, error) {
	var where []string
	var args []any
	if f.Method != "" {
		where = append(where, "method = ?")
		args = append(args, strings.ToUpper(f.Method))
	}
	if f.StatusCode != 0 {
		where = append(where, "status_code = ?")
		args = append(args, f.StatusCode)
	}
	if f.StatusMin != 0 {
		where = append(where, "status_code >= ?")
		args = append(args, f.StatusMin)
	}
	if f.StatusMax != 0 {
		where = append(where, "status_code <= ?")
		args = append(args, f.StatusMax)
	}
	if f.URLPattern != "" {
		where = append(where, "url LIKE ?")
		args = append(args, "%"+f.URLPattern+"%")
	}
	if !f.Since.IsZero() {
		where = append(where, "timestamp >= ?")
		args = append(args, f.Since.UTC().Format(timeFormat))
	}
	if !f.Until.IsZero() {
		where = append(where, "timestamp <= ?")
		args = append(args, f.Until.UTC().Format(timeFormat))
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	query := selectColumns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY timestamp DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, max(f.Offset, 0))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("filtering history: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Count returns the number of entries.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM history").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting history: %w", err)
	}
	return n, nil
}

// Delete removes one entry. A missing id reports errs.ErrNotFound.
func (s *Store) Delete(id int64) error {
	result, err := s.db.Exec("DELETE FROM history WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting history entry %d: %w", id, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("history entry %d: %w", id, errs.ErrNotFound)
	}
	return nil
}

// Clear removes all history entries.
func (s *Store) Clear() error {
	_, err := s.db.Exec("DELETE FROM history")
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var durationNs int64
		var ts string
		var reqBody, respBody, headers, errText sql.NullString
		err := rows.Scan(&e.ID, &e.Method, &e.URL, &e.StatusCode, &durationNs,
			&e.Size, &reqBody, &respBody, &headers, &errText, &ts)
		if err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		e.Duration = time.Duration(durationNs)
		e.RequestBody = reqBody.String
		e.ResponseBody = respBody.String
		e.Headers = headers.String
		e.Error = errText.String
		e.Timestamp, _ = time.Parse(timeFormat, ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
