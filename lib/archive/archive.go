// Package archive decompresses the two archive formats the content CDN
// publishes: multi-file zip containers and single-stream xz files.
package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/ulikunitz/xz"
)

// Format identifies how a remote archive is packed.
type Format uint8

const (
	// Zip is a multi-file container extracted into a directory.
	Zip Format = iota + 1
	// XZ is a single compressed stream decompressed into one named file.
	XZ
)

// ErrUnsafePath is returned when a zip entry would escape the destination.
var ErrUnsafePath = errors.New("archive: entry escapes destination directory")

// String returns the file extension used for the format.
func (f Format) String() string {
	switch f {
	case Zip:
		return "zip"
	case XZ:
		return "xz"
	default:
		return fmt.Sprintf("unknown(%d)", f)
	}
}

// ParseFormat parses a format from its extension.
func ParseFormat(name string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(name), ".") {
	case "zip":
		return Zip, nil
	case "xz":
		return XZ, nil
	default:
		return 0, fmt.Errorf("unknown archive format: %q", name)
	}
}

// Extract unpacks the archive at src into dir. For XZ the stream is written
// to dir/name; Zip ignores name and extracts every entry.
func Extract(f Format, src, dir, name string) error {
	switch f {
	case Zip:
		return ExtractZip(src, dir)
	case XZ:
		in, err := os.Open(src) //nolint:gosec // G304: staging file created by the cache store
		if err != nil {
			return err
		}
		defer func() {
			_ = in.Close()
		}()
		return DecompressXZ(in, filepath.Join(dir, name))
	default:
		return fmt.Errorf("archive: unsupported format %s", f)
	}
}

// ExtractZip extracts every entry of the zip file at src into dir.
func ExtractZip(src, dir string) error {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("failed to open zip: %w", err)
	}
	defer func() {
		_ = zr.Close()
	}()

	for _, entry := range zr.File {
		target, err := entryPath(dir, entry.Name)
		if err != nil {
			return err
		}

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o750); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			return err
		}
		if err := extractEntry(entry, target); err != nil {
			return fmt.Errorf("failed to extract %s: %w", entry.Name, err)
		}
	}

	return nil
}

func extractEntry(entry *zip.File, target string) error {
	rc, err := entry.Open()
	if err != nil {
		return err
	}
	defer func() {
		_ = rc.Close()
	}()

	return writeFile(target, rc)
}

// DecompressXZ decompresses an xz stream into the file at dst.
func DecompressXZ(r io.Reader, dst string) error {
	xr, err := xz.NewReader(r)
	if err != nil {
		return fmt.Errorf("failed to open xz stream: %w", err)
	}
	if err := writeFile(dst, xr); err != nil {
		return fmt.Errorf("failed to decompress xz stream: %w", err)
	}
	return nil
}

func writeFile(path string, r io.Reader) error {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600) //nolint:gosec // G304: path built from the cache layout
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func entryPath(dir, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return filepath.Join(dir, cleaned), nil
}
