package index_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gospelstudy/gospellib/internal/testutil"
	"github.com/gospelstudy/gospellib/lib/apperr"
	"github.com/gospelstudy/gospellib/lib/index"
	"github.com/gospelstudy/gospellib/lib/schema"
)

func newResolver(t *testing.T, baseURL string) *index.Resolver {
	t.Helper()
	r, err := index.New(index.Options{BaseURL: baseURL, Client: http.DefaultClient})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return r
}

func TestCurrentVersion(t *testing.T) {
	cdn := testutil.NewCDN(t)
	cdn.PutJSON(t, "/v4/languages/eng/index.json", map[string]any{"catalogVersion": 42, "other": "ignored"})
	cdn.PutJSON(t, "/2.0.3/index.json", map[string]any{"catalogVersion": 7})

	r := newResolver(t, cdn.URL)

	got, err := r.CurrentVersion(context.Background(), "eng", schema.MustLookup("v4"))
	if err != nil {
		t.Fatalf("CurrentVersion failed: %v", err)
	}
	if got != 42 {
		t.Fatalf("version = %d, want 42", got)
	}

	legacy, err := r.CurrentVersion(context.Background(), "", schema.MustLookup("2.0.3"))
	if err != nil {
		t.Fatalf("legacy CurrentVersion failed: %v", err)
	}
	if legacy != 7 {
		t.Fatalf("legacy version = %d, want 7", legacy)
	}
}

func TestCurrentVersionUnavailable(t *testing.T) {
	cdn := testutil.NewCDN(t)
	cdn.PutJSON(t, "/v4/languages/zero/index.json", map[string]any{"catalogVersion": 0})
	cdn.PutJSON(t, "/v4/languages/none/index.json", map[string]any{"version": 3})
	cdn.Put("/v4/languages/junk/index.json", []byte("<html>"))
	cdn.Fail("/v4/languages/down/index.json", http.StatusInternalServerError)

	r := newResolver(t, cdn.URL)
	for _, lang := range []string{"xyz", "zero", "none", "junk", "down"} {
		t.Run(lang, func(t *testing.T) {
			_, err := r.CurrentVersion(context.Background(), lang, schema.MustLookup("v4"))
			if !errors.Is(err, apperr.VersionUnavailable) {
				t.Fatalf("expected VersionUnavailable, got %v", err)
			}
		})
	}
}

func TestCurrentVersionTransportFailure(t *testing.T) {
	cdn := testutil.NewCDN(t)
	base := cdn.URL
	cdn.Close()

	_, err := newResolver(t, base).CurrentVersion(context.Background(), "eng", schema.MustLookup("v4"))
	if !errors.Is(err, apperr.VersionUnavailable) {
		t.Fatalf("expected VersionUnavailable, got %v", err)
	}
}

func TestCurrentVersionRequiresLanguage(t *testing.T) {
	r := newResolver(t, "https://cdn.example")
	_, err := r.CurrentVersion(context.Background(), "", schema.MustLookup("v4"))
	if apperr.KindOf(err) != apperr.InvalidArguments {
		t.Fatalf("expected InvalidArguments, got %v", err)
	}
}

func TestLanguages(t *testing.T) {
	cdn := testutil.NewLibraryCDN(t)

	got, err := newResolver(t, cdn.URL).Languages(context.Background(), schema.MustLookup("v4"))
	if err != nil {
		t.Fatalf("Languages failed: %v", err)
	}
	want := []index.RemoteLanguage{
		{ID: 1, ISO639_3: "eng", BCP47: "en", NativeName: "English", VendorCode: "000"},
		{ID: 3, ISO639_3: "spa", BCP47: "es", NativeName: "Español", VendorCode: "002"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("languages mismatch (-want +got):\n%s", diff)
	}
}

func TestNewRequiresClient(t *testing.T) {
	if _, err := index.New(index.Options{BaseURL: "https://cdn.example"}); apperr.KindOf(err) != apperr.InvalidArguments {
		t.Fatalf("expected InvalidArguments, got %v", err)
	}
}
