package mcp

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gospelstudy/gospellib/internal/testutil"
	"github.com/gospelstudy/gospellib/internal/usecase"
	"github.com/gospelstudy/gospellib/lib/apperr"
	"github.com/gospelstudy/gospellib/lib/record"
	"github.com/gospelstudy/gospellib/lib/schema"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cdn := testutil.NewLibraryCDN(t)
	library, err := usecase.NewLibrary(usecase.Options{
		BaseURL:  cdn.URL,
		Schema:   schema.MustLookup("v4"),
		Language: "eng",
		CacheDir: t.TempDir(),
		Client:   http.DefaultClient,
	})
	if err != nil {
		t.Fatalf("NewLibrary failed: %v", err)
	}
	return NewServer(library, "test")
}

func TestCatalogTools(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, version, err := s.handleCatalogVersion(ctx, nil, CatalogVersionInput{})
	if err != nil {
		t.Fatalf("catalog_version failed: %v", err)
	}
	if version.CatalogVersion != testutil.CatalogVersion {
		t.Fatalf("catalog version = %d", version.CatalogVersion)
	}

	_, item, err := s.handleCatalogItem(ctx, nil, CatalogItemInput{URI: testutil.BofmURI})
	if err != nil {
		t.Fatalf("catalog_item failed: %v", err)
	}
	if item.Item.ExternalID != testutil.BofmExternalID {
		t.Fatalf("unexpected item: %+v", item.Item)
	}

	_, nodes, err := s.handleCatalogNodes(ctx, nil, CatalogNodesInput{SectionIDs: []int64{testutil.FeaturedSectionID}})
	if err != nil {
		t.Fatalf("catalog_nodes failed: %v", err)
	}
	if len(nodes.Nodes) != 3 || nodes.Nodes[1].Kind != record.NodeCollection {
		t.Fatalf("unexpected nodes: %+v", nodes.Nodes)
	}

	if _, _, err := s.handleCatalogNodes(ctx, nil, CatalogNodesInput{}); err == nil {
		t.Fatal("expected an error without section ids")
	}
}

func TestPackageTools(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, subitems, err := s.handlePackageSubitems(ctx, nil, PackageSubitemsInput{ItemURI: testutil.BofmURI})
	if err != nil {
		t.Fatalf("package_subitems failed: %v", err)
	}
	if len(subitems.Subitems) != 3 {
		t.Fatalf("expected 3 subitems, got %d", len(subitems.Subitems))
	}

	_, html, err := s.handlePackageHTML(ctx, nil, PackageHTMLInput{
		ItemURI:     testutil.BofmURI,
		SubitemURI:  testutil.Nephi11URI,
		ParagraphID: "p17",
	})
	if err != nil {
		t.Fatalf("package_html failed: %v", err)
	}
	if html.HTML != testutil.Nephi11Paragraph17 {
		t.Fatalf("unexpected html %q", html.HTML)
	}

	_, _, err = s.handlePackageHTML(ctx, nil, PackageHTMLInput{ItemURI: testutil.BofmURI, SubitemURI: "/nope"})
	if !errors.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}
