package itempackage_test

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gospelstudy/gospellib/internal/testutil"
	"github.com/gospelstudy/gospellib/lib/apperr"
	"github.com/gospelstudy/gospellib/lib/cache"
	"github.com/gospelstudy/gospellib/lib/itempackage"
	"github.com/gospelstudy/gospellib/lib/record"
	"github.com/gospelstudy/gospellib/lib/schema"
)

func openFixture(t *testing.T) *itempackage.Reader {
	t.Helper()
	path := testutil.BuildPackage(t, t.TempDir())
	r, err := itempackage.OpenFile(context.Background(), path, itempackage.Options{
		ItemID:  testutil.BofmExternalID,
		Schema:  schema.MustLookup("v4"),
		BaseURL: "https://cdn.example",
	})
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	t.Cleanup(func() {
		_ = r.Close()
	})
	return r
}

func openLegacyFixture(t *testing.T) *itempackage.Reader {
	t.Helper()
	path := testutil.BuildLegacyPackage(t, t.TempDir())
	r, err := itempackage.OpenFile(context.Background(), path, itempackage.Options{
		ItemID:  testutil.BofmExternalID,
		Schema:  schema.MustLookup("2.0.3"),
		BaseURL: "https://cdn.example",
	})
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	t.Cleanup(func() {
		_ = r.Close()
	})
	return r
}

func TestSubitemsOrderedByPosition(t *testing.T) {
	r := openFixture(t)

	subitems, err := r.Subitems(context.Background())
	if err != nil {
		t.Fatalf("Subitems failed: %v", err)
	}
	uris := make([]string, 0, len(subitems))
	for _, s := range subitems {
		uris = append(uris, s.URI)
	}
	want := []string{testutil.TitlePageURI, testutil.Nephi1URI, testutil.Nephi11URI}
	if diff := cmp.Diff(want, uris); diff != "" {
		t.Fatalf("subitem order mismatch (-want +got):\n%s", diff)
	}
}

func TestSubitem(t *testing.T) {
	r := openFixture(t)
	ctx := context.Background()

	s, err := r.Subitem(ctx, testutil.Nephi11URI)
	if err != nil || s == nil {
		t.Fatalf("Subitem: %+v, %v", s, err)
	}
	if s.ID != testutil.Nephi11ID || s.Title != "1 Nephi 11" || s.DocID != "doc-1ne11" {
		t.Fatalf("unexpected subitem: %+v", s)
	}

	missing, err := r.Subitem(ctx, "/scriptures/bofm/nope")
	if err != nil || missing != nil {
		t.Fatalf("missing subitem: %+v, %v", missing, err)
	}
}

func TestHTMLByteRangeRoundTrip(t *testing.T) {
	r := openFixture(t)
	ctx := context.Background()

	full, err := r.HTML(ctx, testutil.Nephi11URI, "")
	if err != nil {
		t.Fatalf("HTML failed: %v", err)
	}
	if full != testutil.Nephi11HTML {
		t.Fatalf("full html mismatch:\n%s", full)
	}

	for id, want := range map[string]string{
		"p17": testutil.Nephi11Paragraph17,
		"p18": testutil.Nephi11Paragraph18,
	} {
		first, err := r.HTML(ctx, testutil.Nephi11URI, id)
		if err != nil {
			t.Fatalf("HTML(%s) failed: %v", id, err)
		}
		if first != want {
			t.Fatalf("HTML(%s) = %q, want %q", id, first, want)
		}
		second, err := r.HTML(ctx, testutil.Nephi11URI, id)
		if err != nil || second != first {
			t.Fatalf("HTML(%s) not repeatable: %q, %v", id, second, err)
		}

		start, end := testutil.ParagraphRange(want)
		ranged, err := r.HTMLRange(ctx, testutil.Nephi11URI, int64(start), int64(end))
		if err != nil {
			t.Fatalf("HTMLRange failed: %v", err)
		}
		if ranged != first {
			t.Fatalf("HTMLRange(%d, %d) differs from paragraph lookup", start, end)
		}
	}
}

func TestHTMLNotFound(t *testing.T) {
	r := openFixture(t)
	ctx := context.Background()

	if _, err := r.HTML(ctx, "/scriptures/bofm/nope", ""); !errors.Is(err, apperr.NotFound) {
		t.Fatalf("missing subitem: expected NotFound, got %v", err)
	}
	if _, err := r.HTML(ctx, testutil.Nephi11URI, "p404"); !errors.Is(err, apperr.NotFound) {
		t.Fatalf("missing paragraph: expected NotFound, got %v", err)
	}
	if _, err := r.HTML(ctx, testutil.TitlePageURI, ""); !errors.Is(err, apperr.NotFound) {
		t.Fatalf("subitem without content: expected NotFound, got %v", err)
	}
	if _, err := r.HTML(ctx, "", ""); !errors.Is(err, apperr.InvalidArguments) {
		t.Fatalf("empty uri: expected InvalidArguments, got %v", err)
	}
}

func TestHTMLOutOfBoundsRangeIsMalformed(t *testing.T) {
	r := openFixture(t)

	_, err := r.HTML(context.Background(), testutil.Nephi11URI, "p99")
	if !errors.Is(err, apperr.MalformedRecord) {
		t.Fatalf("expected MalformedRecord, got %v", err)
	}
}

func TestHTMLRangeRejectsSplitCharacters(t *testing.T) {
	r := openFixture(t)
	ctx := context.Background()

	start, _ := testutil.ParagraphRange(testutil.Nephi11Paragraph18)
	// "él" begins right after "Y " in the paragraph text; cutting one byte
	// into it splits the two-byte é.
	offset := int64(start + len(`<p class="verse" id="p18"><span class="verse-number">18 </span>Y `))
	if _, err := r.HTMLRange(ctx, testutil.Nephi11URI, offset, offset+1); !errors.Is(err, apperr.MalformedRecord) {
		t.Fatalf("expected MalformedRecord for a split character, got %v", err)
	}
	if _, err := r.HTMLRange(ctx, testutil.Nephi11URI, 10, 5); !errors.Is(err, apperr.InvalidArguments) {
		t.Fatalf("expected InvalidArguments for an inverted range, got %v", err)
	}
}

func TestSubitemHTML(t *testing.T) {
	r := openFixture(t)
	ctx := context.Background()

	html, err := r.SubitemHTML(ctx, testutil.Nephi11ID)
	if err != nil {
		t.Fatalf("SubitemHTML failed: %v", err)
	}
	if html != testutil.Nephi11HTML {
		t.Fatalf("unexpected html: %s", html)
	}
	if _, err := r.SubitemHTML(ctx, 999); !errors.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestRelatedItems(t *testing.T) {
	r := openFixture(t)
	ctx := context.Background()

	audio, err := r.RelatedAudioItems(ctx, testutil.Nephi11ID)
	if err != nil {
		t.Fatalf("RelatedAudioItems failed: %v", err)
	}
	if len(audio) != 1 || audio[0].ID != 37 || audio[0].MediaURL != "https://media.example/bofm/1-ne-11.mp3" {
		t.Fatalf("unexpected audio: %+v", audio)
	}

	video, err := r.RelatedVideoItems(ctx, testutil.Nephi11ID)
	if err != nil {
		t.Fatalf("RelatedVideoItems failed: %v", err)
	}
	if len(video) != 2 {
		t.Fatalf("expected 2 videos, got %d", len(video))
	}
	streams := record.VideoItemsWithContainer(video, 1)
	if len(streams) != 1 || streams[0].ID != 469 {
		t.Fatalf("unexpected container filter result: %+v", streams)
	}

	content, err := r.RelatedContentItems(ctx, testutil.Nephi11ID)
	if err != nil {
		t.Fatalf("RelatedContentItems failed: %v", err)
	}
	names := make([]string, 0, len(content))
	for _, c := range content {
		names = append(names, c.Name)
	}
	if diff := cmp.Diff([]string{"f_17a", "f_18a"}, names); diff != "" {
		t.Fatalf("related content mismatch (-want +got):\n%s", diff)
	}
	if content[0].OriginURI != testutil.Nephi11P17URI || content[0].LabelContent != "loveth" {
		t.Fatalf("unexpected related content: %+v", content[0])
	}

	none, err := r.RelatedAudioItems(ctx, 999)
	if err != nil || len(none) != 0 {
		t.Fatalf("expected no audio for unknown subitem: %+v, %v", none, err)
	}
}

func TestFileID(t *testing.T) {
	r := openFixture(t)

	id, ok, err := r.FileID(context.Background())
	if err != nil || !ok {
		t.Fatalf("FileID: ok=%v err=%v", ok, err)
	}
	if id != testutil.BofmFileID {
		t.Fatalf("file id = %q", id)
	}
}

func TestLegacyPackage(t *testing.T) {
	r := openLegacyFixture(t)
	ctx := context.Background()

	byParagraphID, err := r.HTML(ctx, testutil.Nephi11URI, "p17")
	if err != nil {
		t.Fatalf("HTML failed: %v", err)
	}
	byURI, err := r.ParagraphHTML(ctx, testutil.Nephi11P17URI)
	if err != nil {
		t.Fatalf("ParagraphHTML failed: %v", err)
	}
	if byParagraphID != testutil.Nephi11Paragraph17 || byURI != byParagraphID {
		t.Fatalf("legacy paragraph lookups differ:\n%q\n%q", byParagraphID, byURI)
	}

	video, err := r.RelatedVideoItems(ctx, testutil.Nephi11ID)
	if err != nil {
		t.Fatalf("RelatedVideoItems failed: %v", err)
	}
	if video == nil || len(video) != 0 {
		t.Fatalf("expected an empty list without a video table, got %#v", video)
	}

	if _, err := r.ParagraphHTML(ctx, "/scriptures/bofm/1-ne/11.99"); !errors.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestParagraphHTMLUnsupported(t *testing.T) {
	r := openFixture(t)
	if _, err := r.ParagraphHTML(context.Background(), testutil.Nephi11P17URI); !errors.Is(err, apperr.InvalidArguments) {
		t.Fatalf("expected InvalidArguments, got %v", err)
	}
}

func TestOpenThroughCache(t *testing.T) {
	cdn := testutil.NewLibraryCDN(t)
	store, err := cache.NewStore(cache.Options{Root: t.TempDir(), Client: http.DefaultClient})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	opts := itempackage.Options{
		ItemID:      testutil.BofmExternalID,
		ItemVersion: testutil.BofmVersion,
		Language:    "eng",
		Schema:      schema.MustLookup("v4"),
		BaseURL:     cdn.URL,
		Store:       store,
	}

	r, err := itempackage.Open(context.Background(), opts)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() {
		_ = r.Close()
	}()

	wantDir := filepath.Join(store.Root(), "v4", "item_packages", testutil.BofmExternalID, "12")
	if r.Path() != wantDir {
		t.Fatalf("Path = %s, want %s", r.Path(), wantDir)
	}
	if _, err := r.HTML(context.Background(), testutil.Nephi11URI, "p17"); err != nil {
		t.Fatalf("HTML through cache failed: %v", err)
	}

	ok, err := itempackage.Exists(context.Background(), opts)
	if err != nil || !ok {
		t.Fatalf("Exists: %v, %v", ok, err)
	}

	opts.ItemVersion++
	if _, err := itempackage.Open(context.Background(), opts); !errors.Is(err, apperr.ContentUnavailable) {
		t.Fatalf("expected ContentUnavailable for version+1, got %v", err)
	}
	if hits := cdn.Hits(testutil.PackagePath); hits != 1 {
		t.Fatalf("expected one package download, got %d", hits)
	}
}
