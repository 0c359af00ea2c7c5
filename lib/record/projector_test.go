package record

import (
	"errors"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gospelstudy/gospellib/lib/apperr"
)

func testProjector(t *testing.T, idColumn string) *Projector {
	t.Helper()
	base, err := url.Parse("https://cdn.example/v4/")
	if err != nil {
		t.Fatalf("parse base: %v", err)
	}
	return NewProjector(base, idColumn)
}

func TestProjectExpandsRenditions(t *testing.T) {
	p := testProjector(t, "id")
	raw := "100x100,foo.jpg\n200x200,bar.jpg"

	row, err := p.Project([]string{"id", "cover_renditions"}, []any{int64(7), raw})
	if err != nil {
		t.Fatalf("Project returned error: %v", err)
	}

	want := []Rendition{
		{Width: 100, Height: 100, URL: "https://cdn.example/v4/foo.jpg"},
		{Width: 200, Height: 200, URL: "https://cdn.example/v4/bar.jpg"},
	}
	if diff := cmp.Diff(want, row.Renditions("cover_renditions")); diff != "" {
		t.Fatalf("renditions mismatch (-want +got):\n%s", diff)
	}
	if got := row.String("raw_cover_renditions"); got != raw {
		t.Fatalf("expected raw renditions %q, got %q", raw, got)
	}
}

func TestProjectRenditionsKeepAbsoluteURLs(t *testing.T) {
	p := testProjector(t, "id")
	got, err := p.ParseRenditions("60x80,https://images.example/a.jpg\r\n120x160,/root.jpg\n")
	if err != nil {
		t.Fatalf("ParseRenditions error: %v", err)
	}
	want := []Rendition{
		{Width: 60, Height: 80, URL: "https://images.example/a.jpg"},
		{Width: 120, Height: 160, URL: "https://cdn.example/root.jpg"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("renditions mismatch (-want +got):\n%s", diff)
	}
}

func TestProjectMalformedRenditionIsFatal(t *testing.T) {
	p := testProjector(t, "id")
	for _, raw := range []string{"100x100 foo.jpg", "100-100,foo.jpg", "axb,foo.jpg", "100x100,foo.jpg\n\n200x200,bar.jpg"} {
		_, err := p.Project([]string{"item_cover_renditions"}, []any{raw})
		if !errors.Is(err, apperr.MalformedRecord) {
			t.Fatalf("%q: expected MalformedRecord, got %v", raw, err)
		}
	}
}

func TestProjectNormalizesLegacyID(t *testing.T) {
	p := testProjector(t, "_id")
	row, err := p.Project([]string{"_id", "uri", "custom_column"}, []any{int64(3), "/x", []byte("kept")})
	if err != nil {
		t.Fatalf("Project returned error: %v", err)
	}
	if row.Int64("id") != 3 {
		t.Fatalf("expected id 3, got %v", row["id"])
	}
	if row.Has("_id") {
		t.Fatalf("expected _id to be renamed")
	}
	if got := row.String("custom_column"); got != "kept" {
		t.Fatalf("expected unknown column to pass through, got %q", got)
	}
}

func TestProjectFirstColumnWins(t *testing.T) {
	p := testProjector(t, "id")
	row, err := p.Project(
		[]string{"id", "title", "latest_version", "id", "title", "position"},
		[]any{int64(1), "Item", int64(9), int64(55), "Library Item", int64(4)},
	)
	if err != nil {
		t.Fatalf("Project returned error: %v", err)
	}
	if row.Int64("id") != 1 || row.String("title") != "Item" {
		t.Fatalf("expected first occurrence to win, got %#v", row)
	}
	if row.Int64("version") != 9 || row.Int64("latest_version") != 9 {
		t.Fatalf("expected latest_version to surface as version, got %#v", row)
	}
	if row.Int64("position") != 4 {
		t.Fatalf("expected position 4, got %v", row["position"])
	}
}

func TestProjectNullRenditionsPassThrough(t *testing.T) {
	p := testProjector(t, "id")
	row, err := p.Project([]string{"cover_renditions"}, []any{nil})
	if err != nil {
		t.Fatalf("Project returned error: %v", err)
	}
	if !row.Has("cover_renditions") || row["cover_renditions"] != nil {
		t.Fatalf("expected NULL to pass through, got %#v", row)
	}
	if row.Has("raw_cover_renditions") {
		t.Fatalf("did not expect raw column for NULL renditions")
	}
}
