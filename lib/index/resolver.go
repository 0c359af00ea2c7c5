// Package index resolves the currently published catalog version and the
// list of published languages from the content CDN's JSON index files.
package index

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gospelstudy/gospellib/lib/apperr"
	"github.com/gospelstudy/gospellib/lib/schema"
)

// Doer issues HTTP requests. Retries belong to the Doer.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Resolver.
type Options struct {
	BaseURL string
	Client  Doer
	Logger  *slog.Logger
}

// Resolver reads the remote index endpoints.
type Resolver struct {
	baseURL string
	client  Doer
	logger  *slog.Logger
}

// RemoteLanguage is one entry of languages.json.
type RemoteLanguage struct {
	ID         int64  `json:"id"`
	ISO639_3   string `json:"iso639_3Code"`
	BCP47      string `json:"bcp47Code"`
	NativeName string `json:"name"`
	VendorCode string `json:"ldsCode"`
}

// New creates a Resolver.
func New(opts Options) (*Resolver, error) {
	if opts.BaseURL == "" {
		return nil, apperr.Errorf(apperr.InvalidArguments, "index.New", "base url is required")
	}
	if opts.Client == nil {
		return nil, apperr.Errorf(apperr.InvalidArguments, "index.New", "http client is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{baseURL: opts.BaseURL, client: opts.Client, logger: logger}, nil
}

type indexDocument struct {
	CatalogVersion *int `json:"catalogVersion"`
}

// CurrentVersion returns the catalog version currently published for
// language under schema v.
func (r *Resolver) CurrentVersion(ctx context.Context, language string, v schema.Version) (int, error) {
	const op = "index.CurrentVersion"

	if err := v.Validate(language); err != nil {
		return 0, apperr.E(apperr.InvalidArguments, op, err)
	}

	url := v.IndexURL(r.baseURL, language)
	var doc indexDocument
	if err := r.getJSON(ctx, url, &doc); err != nil {
		return 0, apperr.E(apperr.VersionUnavailable, op, err)
	}
	if doc.CatalogVersion == nil {
		return 0, apperr.Errorf(apperr.VersionUnavailable, op, "%s has no catalogVersion", url)
	}
	if *doc.CatalogVersion <= 0 {
		return 0, apperr.Errorf(apperr.VersionUnavailable, op, "%s has invalid catalogVersion %d", url, *doc.CatalogVersion)
	}

	r.logger.Debug("resolved catalog version", "language", language, "schema", v.Name, "version", *doc.CatalogVersion)
	return *doc.CatalogVersion, nil
}

// Languages lists every language published under schema v.
func (r *Resolver) Languages(ctx context.Context, v schema.Version) ([]RemoteLanguage, error) {
	var languages []RemoteLanguage
	if err := r.getJSON(ctx, v.LanguagesURL(r.baseURL), &languages); err != nil {
		return nil, apperr.E(apperr.VersionUnavailable, "index.Languages", err)
	}
	if languages == nil {
		languages = []RemoteLanguage{}
	}
	return languages, nil
}

func (r *Resolver) getJSON(ctx context.Context, url string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		r.logger.Info("index not available", "url", url, "status", resp.StatusCode)
		return fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, url)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode %s: %w", url, err)
	}
	return nil
}
