// Package cache maps (schema, language, version, kind) keys to database
// files on local storage, fetching and decompressing the remote archive the
// first time a key is requested.
//
// An entry is write-once: it becomes visible only when its database file is
// renamed into place after a complete extraction, so a reader never observes
// a partially written file and an interrupted fetch leaves the entry absent.
package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/gospelstudy/gospellib/lib/apperr"
	"github.com/gospelstudy/gospellib/lib/archive"
)

const (
	stagingPrefix   = ".staging-"
	staleStagingAge = time.Hour
)

// Doer issues HTTP requests. *http.Client satisfies it; retry, caching and
// timeout policy belong to the Doer, not to the store.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Entry describes one cacheable archive.
type Entry struct {
	// KeyPath is the entry directory relative to the cache root.
	KeyPath string
	// File is the database file name expected inside the entry directory.
	File   string
	URL    string
	Format archive.Format
}

// Options configures a Store.
type Options struct {
	Root   string
	Client Doer
	Logger *slog.Logger
}

// Store is the archive cache. It is safe for concurrent use; concurrent
// materializations of the same entry share one fetch.
type Store struct {
	root   string
	client Doer
	logger *slog.Logger
	group  singleflight.Group
}

// NewStore creates a Store rooted at opts.Root.
func NewStore(opts Options) (*Store, error) {
	if opts.Root == "" {
		return nil, apperr.Errorf(apperr.InvalidArguments, "cache.NewStore", "cache root is required")
	}
	if opts.Client == nil {
		return nil, apperr.Errorf(apperr.InvalidArguments, "cache.NewStore", "http client is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{root: opts.Root, client: opts.Client, logger: logger}, nil
}

// Root returns the cache root directory.
func (s *Store) Root() string {
	return s.root
}

// Path returns where the entry's database file lives once materialized.
func (s *Store) Path(e Entry) string {
	return filepath.Join(s.root, e.KeyPath, e.File)
}

// Exists reports whether the entry is already materialized.
func (s *Store) Exists(e Entry) bool {
	return fileExists(s.Path(e))
}

type result struct {
	path string
	ok   bool
}

// Materialize returns the local database path for e, fetching and
// extracting the archive on a miss. ok is false when the remote answered
// with a non-success status: the content is not published, which is not an
// error at this layer. A caller whose ctx ends returns early while the
// fetch it may share with other callers runs on.
func (s *Store) Materialize(ctx context.Context, e Entry) (path string, ok bool, err error) {
	if e.KeyPath == "" || e.File == "" || e.URL == "" {
		return "", false, apperr.Errorf(apperr.InvalidArguments, "cache.Materialize", "key path, file and url are required")
	}

	final := s.Path(e)
	if fileExists(final) {
		s.logger.Debug("cache hit", "path", final)
		return final, true, nil
	}

	// The shared fetch outlives the cancellation of any one caller.
	ch := s.group.DoChan(final, func() (any, error) {
		return s.fetch(context.WithoutCancel(ctx), e, final)
	})
	select {
	case <-ctx.Done():
		return "", false, apperr.E(apperr.ContentUnavailable, "cache.Materialize", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", false, res.Err
		}
		r := res.Val.(result)
		return r.path, r.ok, nil
	}
}

func (s *Store) fetch(ctx context.Context, e Entry, final string) (result, error) {
	// Another caller may have finished between the first check and the
	// singleflight slot opening.
	if fileExists(final) {
		return result{path: final, ok: true}, nil
	}

	s.logger.Info("fetching archive", "url", e.URL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.URL, nil)
	if err != nil {
		return result{}, apperr.E(apperr.InvalidArguments, "cache.Materialize", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return result{}, apperr.E(apperr.ContentUnavailable, "cache.Materialize", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.Info("archive not available", "url", e.URL, "status", resp.StatusCode)
		return result{}, nil
	}

	dir := filepath.Dir(final)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return result{}, fmt.Errorf("failed to create cache directory: %w", err)
	}

	s.sweepStaging(dir)

	staging, err := os.MkdirTemp(dir, stagingPrefix)
	if err != nil {
		return result{}, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer func() {
		_ = os.RemoveAll(staging)
	}()

	download := filepath.Join(staging, "download."+e.Format.String())
	if err := saveBody(download, resp.Body); err != nil {
		return result{}, apperr.E(apperr.ContentUnavailable, "cache.Materialize", fmt.Errorf("failed to download %s: %w", e.URL, err))
	}

	extracted := filepath.Join(staging, "extracted")
	if err := os.Mkdir(extracted, 0o750); err != nil {
		return result{}, err
	}
	if err := archive.Extract(e.Format, download, extracted, e.File); err != nil {
		return result{}, apperr.E(apperr.CorruptArchive, "cache.Materialize", err)
	}

	if !fileExists(filepath.Join(extracted, e.File)) {
		return result{}, apperr.Errorf(apperr.CorruptArchive, "cache.Materialize", "archive %s did not contain %s", e.URL, e.File)
	}

	if err := publish(extracted, dir, e.File); err != nil {
		return result{}, fmt.Errorf("failed to publish cache entry: %w", err)
	}

	s.logger.Debug("materialized archive", "url", e.URL, "path", final)
	return result{path: final, ok: true}, nil
}

// sweepStaging removes staging directories left behind by a process that
// died mid-fetch. Recent ones may belong to another process still
// extracting, so only those older than staleStagingAge go.
func (s *Store) sweepStaging(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), stagingPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || time.Since(info.ModTime()) < staleStagingAge {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			s.logger.Warn("failed to remove stale staging directory", "path", path, "error", err)
			continue
		}
		s.logger.Debug("removed stale staging directory", "path", path)
	}
}

// Evict removes a materialized entry so the next Materialize fetches it
// again.
func (s *Store) Evict(e Entry) error {
	dir := filepath.Join(s.root, e.KeyPath)
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return os.RemoveAll(dir)
}

// publish moves every extracted entry into dir, the database file last, so
// its presence implies its siblings are already in place.
func publish(extracted, dir, file string) error {
	entries, err := os.ReadDir(extracted)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.Name() == file {
			continue
		}
		target := filepath.Join(dir, entry.Name())
		if fileExists(target) || dirExists(target) {
			if err := os.RemoveAll(target); err != nil {
				return err
			}
		}
		if err := os.Rename(filepath.Join(extracted, entry.Name()), target); err != nil {
			return err
		}
	}
	return os.Rename(filepath.Join(extracted, file), filepath.Join(dir, file))
}

func saveBody(path string, body io.Reader) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600) //nolint:gosec // G304: path inside the staging directory
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
