package database

import (
	"context"
	"database/sql"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/gospelstudy/gospellib/lib/record"
)

func createTestDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Catalog.sqlite")

	db, err := sql.Open("sqlite", "file:"+filepath.ToSlash(path))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	stmts := []string{
		`CREATE TABLE item_category (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`,
		`INSERT INTO item_category(id, name) VALUES (1, 'Scriptures'), (2, 'Manuals')`,
		`CREATE TABLE metadata (key TEXT PRIMARY KEY, value TEXT)`,
		`INSERT INTO metadata(key, value) VALUES ('file_id', 'abc123'), ('empty', NULL)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
	return path
}

func TestOpenReadOnlyMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.sqlite")
	if _, err := OpenReadOnly(context.Background(), missing); err == nil {
		t.Fatalf("expected error for missing database")
	}
	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Fatalf("expected missing database not to be created, stat err: %v", err)
	}
}

func TestOpenReadOnlyRejectsWrites(t *testing.T) {
	ctx := context.Background()
	dbCtx, err := OpenReadOnly(ctx, createTestDB(t))
	if err != nil {
		t.Fatalf("OpenReadOnly returned error: %v", err)
	}
	t.Cleanup(func() {
		if err := CloseDatabase(dbCtx); err != nil {
			t.Fatalf("CloseDatabase error: %v", err)
		}
	})

	if _, err := dbCtx.DB.ExecContext(ctx, `INSERT INTO item_category(id, name) VALUES (3, 'x')`); err == nil {
		t.Fatalf("expected write to a read-only database to fail")
	}
}

func TestQueryHelpers(t *testing.T) {
	ctx := context.Background()
	dbCtx, err := OpenReadOnly(ctx, createTestDB(t))
	if err != nil {
		t.Fatalf("OpenReadOnly returned error: %v", err)
	}
	defer func() {
		_ = CloseDatabase(dbCtx)
	}()

	base, _ := url.Parse("https://cdn.example/v4/")
	p := record.NewProjector(base, "id")

	rows, err := QueryRows(ctx, dbCtx.DB, p, `SELECT * FROM item_category ORDER BY id`)
	if err != nil {
		t.Fatalf("QueryRows error: %v", err)
	}
	if len(rows) != 2 || rows[1].String("name") != "Manuals" {
		t.Fatalf("unexpected rows: %#v", rows)
	}

	row, err := QueryRow(ctx, dbCtx.DB, p, `SELECT * FROM item_category WHERE id=?`, 99)
	if err != nil || row != nil {
		t.Fatalf("expected nil row without error, got %#v, %v", row, err)
	}

	value, ok, err := QueryString(ctx, dbCtx.DB, `SELECT value FROM metadata WHERE key=?`, "file_id")
	if err != nil || !ok || value != "abc123" {
		t.Fatalf("unexpected file_id: %q %v %v", value, ok, err)
	}
	if _, ok, err := QueryString(ctx, dbCtx.DB, `SELECT value FROM metadata WHERE key=?`, "empty"); err != nil || ok {
		t.Fatalf("expected NULL value to be absent: %v %v", ok, err)
	}

	exists, err := TableExists(ctx, dbCtx.DB, "metadata")
	if err != nil || !exists {
		t.Fatalf("expected metadata table to exist: %v %v", exists, err)
	}
	exists, err = TableExists(ctx, dbCtx.DB, "related_video_item")
	if err != nil || exists {
		t.Fatalf("expected related_video_item table to be absent: %v %v", exists, err)
	}

	col, err := FirstColumn(ctx, dbCtx.DB, "metadata", "content_html", "value")
	if err != nil || col != "value" {
		t.Fatalf("expected value column, got %q %v", col, err)
	}
}

func TestPlaceholdersAndIdent(t *testing.T) {
	if got := Placeholders(3); got != "?, ?, ?" {
		t.Fatalf("unexpected placeholders %q", got)
	}
	if got := Placeholders(0); got != "" {
		t.Fatalf("unexpected placeholders %q", got)
	}
	if _, err := Ident("paragraph_metadata"); err != nil {
		t.Fatalf("Ident rejected valid name: %v", err)
	}
	if _, err := Ident("x; DROP TABLE item"); err == nil {
		t.Fatalf("expected Ident to reject injection")
	}
}
