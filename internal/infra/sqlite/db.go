// Package sqlite provides SQLite-based persistent storage for Aerial and the
// versioned migration machinery that keeps it current: the schema version
// ledger, the ordered migration step chain, and the startup sanity checker.
// Uses WAL mode for crash-safe writes. Single writer: migrations run to
// completion during startup before anything else touches the store.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// Row is one result row keyed by column name.
type Row map[string]any

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	Query(query string, args ...any) (*sql.Rows, error)
	Exec(query string, args ...any) (sql.Result, error)
}

// Conn is the generic store surface migration steps and sanity checks run
// against: row selects, single mutating statements, and schema
// introspection. A Conn is backed either by the connection itself
// (autocommit) or by an open transaction.
type Conn struct {
	q dbtx
}

// DB wraps the SQLite connection for the main store.
type DB struct {
	*Conn
	db   *sql.DB
	path string
}

// Open creates or opens the main store at dir/main.db.
// Enables WAL mode, foreign keys, and a 5-second busy timeout.
// Open does not migrate; callers run Migrate explicitly so the
// backup-before-mutate sequence stays visible at the call site.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "main.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// SQLite is single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &DB{Conn: &Conn{q: db}, db: db, path: dbPath}, nil
}

// Path returns the store file path, used for versioned backups.
func (d *DB) Path() string { return d.path }

// Close cleanly shuts down the database.
func (d *DB) Close() error { return d.db.Close() }

// Ping checks database connectivity.
func (d *DB) Ping() error { return d.db.Ping() }

// QuickCheck runs SQLite's integrity quick check.
func (d *DB) QuickCheck() error {
	var result string
	if err := d.db.QueryRow("PRAGMA quick_check").Scan(&result); err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("quick_check: %s", result)
	}
	return nil
}

// Transaction runs fn against a transaction-backed Conn, committing on nil
// and rolling back on error. A crash mid-fn leaves the pre-transaction
// state, never a partial one.
func (d *DB) Transaction(fn func(c *Conn) error) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	if err := fn(&Conn{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ─── Query Surface ──────────────────────────────────────────────────────────

// Select runs a query and returns all rows keyed by column name.
func (c *Conn) Select(query string, args ...any) ([]Row, error) {
	rows, err := c.q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			row[col] = vals[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Action runs a single mutating statement and returns the affected row count.
func (c *Conn) Action(stmt string, args ...any) (int64, error) {
	res, err := c.q.Exec(stmt, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// ─── Schema Introspection ───────────────────────────────────────────────────

// HasTable reports whether a table exists.
func (c *Conn) HasTable(name string) (bool, error) {
	rows, err := c.Select(
		"SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?", name)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// HasColumn reports whether a table has the named column.
func (c *Conn) HasColumn(table, column string) (bool, error) {
	rows, err := c.Select(fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return false, err
	}
	for _, row := range rows {
		if name, _ := row["name"].(string); name == column {
			return true, nil
		}
	}
	return false, nil
}

// HasIndex reports whether an index exists by name.
func (c *Conn) HasIndex(name string) (bool, error) {
	rows, err := c.Select(fmt.Sprintf("PRAGMA index_info(%q)", name))
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// AddColumn adds a column when it is absent. Safe to call against a store
// that already has partial structure from a prior failed attempt.
// A nil defaultVal adds the column without a DEFAULT clause.
func (c *Conn) AddColumn(table, column, ctype string, defaultVal any) error {
	has, err := c.HasColumn(table, column)
	if err != nil {
		return err
	}
	if has {
		return nil
	}

	stmt := fmt.Sprintf("ALTER TABLE %q ADD COLUMN %q %s", table, column, ctype)
	if defaultVal != nil {
		switch v := defaultVal.(type) {
		case string:
			stmt += fmt.Sprintf(" DEFAULT '%s'", strings.ReplaceAll(v, "'", "''"))
		default:
			stmt += fmt.Sprintf(" DEFAULT %v", v)
		}
	}
	_, err = c.Action(stmt)
	return err
}

// DiskFileExists is the default filesystem probe for status repairs.
func DiskFileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
