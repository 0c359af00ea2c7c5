package archive

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/ulikunitz/xz"
)

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("write zip: %v", err)
	}
}

func TestExtractZip(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "pkg.zip")
	writeZip(t, src, map[string]string{
		"package.sqlite":  "db",
		"images/a.jpg":    "jpg",
		"nested/dir/b.js": "js",
	})

	dst := filepath.Join(tmp, "out")
	if err := os.MkdirAll(dst, 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := Extract(Zip, src, dst, "ignored"); err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}

	for name, want := range map[string]string{
		"package.sqlite":  "db",
		"images/a.jpg":    "jpg",
		"nested/dir/b.js": "js",
	} {
		got, err := os.ReadFile(filepath.Join(dst, filepath.FromSlash(name)))
		if err != nil {
			t.Fatalf("expected %s to be extracted: %v", name, err)
		}
		if string(got) != want {
			t.Fatalf("%s: expected %q, got %q", name, want, got)
		}
	}
}

func TestExtractZipRejectsEscapingEntries(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "evil.zip")
	writeZip(t, src, map[string]string{"../escape.txt": "x"})

	if err := ExtractZip(src, filepath.Join(tmp, "out")); err == nil {
		t.Fatalf("expected error for entry escaping the destination")
	}
	if _, statErr := os.Stat(filepath.Join(tmp, "escape.txt")); !os.IsNotExist(statErr) {
		t.Fatalf("entry escaped destination: %v", statErr)
	}
}

func TestDecompressXZ(t *testing.T) {
	var buf bytes.Buffer
	xw, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatalf("xz writer: %v", err)
	}
	if _, err := xw.Write([]byte("SQLite format 3\x00payload")); err != nil {
		t.Fatalf("xz write: %v", err)
	}
	if err := xw.Close(); err != nil {
		t.Fatalf("xz close: %v", err)
	}

	tmp := t.TempDir()
	src := filepath.Join(tmp, "catalog.xz")
	if err := os.WriteFile(src, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := Extract(XZ, src, tmp, "Catalog.sqlite"); err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(tmp, "Catalog.sqlite"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "SQLite format 3\x00payload" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestDecompressXZRejectsGarbage(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "Catalog.sqlite")
	if err := DecompressXZ(bytes.NewReader([]byte("not xz")), dst); err == nil {
		t.Fatalf("expected error for invalid xz stream")
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"zip": Zip, ".xz": XZ, "ZIP": Zip} {
		got, err := ParseFormat(in)
		if err != nil {
			t.Fatalf("ParseFormat(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseFormat(%q) = %s, want %s", in, got, want)
		}
	}
	if _, err := ParseFormat("tar"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestEntryPath(t *testing.T) {
	dir := filepath.Join("cache", "pkg")
	for _, name := range []string{"../x", "/etc/passwd", ".."} {
		if _, err := entryPath(dir, name); err == nil {
			t.Fatalf("expected %q to be rejected", name)
		}
	}
	got, err := entryPath(dir, "a/./b/../c.sqlite")
	if err != nil {
		t.Fatalf("entryPath error: %v", err)
	}
	if want := filepath.Join(dir, "a", "c.sqlite"); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
