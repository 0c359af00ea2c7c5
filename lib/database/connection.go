// Package database opens materialized catalog and item package databases
// read-only and scans their rows for the record projection layer.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	// Import SQLite driver for database/sql
	_ "modernc.org/sqlite"
)

// DBTX is the subset of *sql.DB and *sql.Tx the readers use.
type DBTX interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Context holds an open database handle and the file it was opened from.
type Context struct {
	DB   *sql.DB
	Path string
}

// OpenReadOnly opens the SQLite file at path without write access. The file
// must already exist; a missing file is never created.
func OpenReadOnly(ctx context.Context, path string) (*Context, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat database: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("database path is not a regular file: %s", path)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database path: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=query_only(1)", filepath.ToSlash(absPath))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Context{DB: db, Path: path}, nil
}

// CloseDatabase closes the database connection.
func CloseDatabase(ctx *Context) error {
	if ctx == nil || ctx.DB == nil {
		return nil
	}
	return ctx.DB.Close()
}

// TableExists reports whether a table is present in the schema.
func TableExists(ctx context.Context, db DBTX, table string) (bool, error) {
	var name string
	err := db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to inspect schema for %s: %w", table, err)
	}
	return true, nil
}

// Columns returns the column names of a table in declaration order.
func Columns(ctx context.Context, db DBTX, table string) ([]string, error) {
	if !isIdentifier(table) {
		return nil, fmt.Errorf("invalid table name: %q", table)
	}
	rows, err := db.QueryContext(ctx, "SELECT name FROM pragma_table_info('"+table+"')")
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		columns = append(columns, name)
	}
	return columns, rows.Err()
}

// FirstColumn returns the first of candidates present in table, or "".
func FirstColumn(ctx context.Context, db DBTX, table string, candidates ...string) (string, error) {
	columns, err := Columns(ctx, db, table)
	if err != nil {
		return "", err
	}
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}
	for _, c := range candidates {
		if present[c] {
			return c, nil
		}
	}
	return "", nil
}

// isIdentifier accepts the plain table and column names used in the
// published schemas. Names are interpolated into SQL only after this check.
func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if r != '_' && (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// Ident validates name and returns it for interpolation into SQL.
func Ident(name string) (string, error) {
	if !isIdentifier(name) {
		return "", fmt.Errorf("invalid identifier: %q", name)
	}
	return name, nil
}

// Placeholders returns "?, ?, ..." for n parameters.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
