// Package query runs dashboard queries against the SQLite data source.
package query

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/tilegrid/internal/logger"

	_ "modernc.org/sqlite"
)

// Result is a fully materialized query result.
type Result struct {
	Columns []string
	Rows    [][]string
	Runtime time.Duration
}

// RowCount returns the number of result rows.
func (r *Result) RowCount() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// Runner executes SQL against one database.
type Runner struct {
	db      *sql.DB
	maxRows int
}

// Open opens the SQLite database at path. ":memory:" opens a private
// in-memory database. maxRows limits materialized rows (0 = unlimited).
func Open(path string, maxRows int) (*Runner, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
		dsn = path + "?_journal_mode=WAL&_busy_timeout=10000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	logger.Debug("Opened query database: %s", path)
	return &Runner{db: db, maxRows: maxRows}, nil
}

// Close closes the database.
func (r *Runner) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Exec runs a statement that returns no rows, such as seeding a table.
func (r *Runner) Exec(ctx context.Context, stmt string) error {
	if _, err := r.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}

// Run binds params into text and executes it.
func (r *Runner) Run(ctx context.Context, text string, defs []Parameter, params map[string]string) (*Result, error) {
	bound, err := Bind(text, defs, params)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := r.db.QueryContext(ctx, bound)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	res := &Result{Columns: cols}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if r.maxRows > 0 && len(res.Rows) >= r.maxRows {
			break
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		row := make([]string, len(cols))
		for i, v := range values {
			row[i] = format(v)
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}

	res.Runtime = time.Since(start)
	logger.Debug("Query returned %d rows in %s", len(res.Rows), res.Runtime)
	return res, nil
}

func format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}
