package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/ulikunitz/xz"
)

// ZipFiles packs the named files into a zip archive, each stored under its
// base name.
func ZipFiles(t testing.TB, paths ...string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, path := range paths {
		data, err := os.ReadFile(path) //nolint:gosec // G304: fixture path
		if err != nil {
			t.Fatalf("failed to read %s: %v", path, err)
		}
		w, err := zw.Create(filepath.Base(path))
		if err != nil {
			t.Fatalf("failed to create zip entry: %v", err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("failed to write zip entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to finish zip: %v", err)
	}
	return buf.Bytes()
}

// XZFile compresses a single file into an xz stream.
func XZFile(t testing.TB, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path) //nolint:gosec // G304: fixture path
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}

	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatalf("failed to create xz writer: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("failed to compress: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to finish xz stream: %v", err)
	}
	return buf.Bytes()
}
