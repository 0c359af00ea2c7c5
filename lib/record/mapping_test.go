package record

import "testing"

func TestMergeNodesOrdersByPosition(t *testing.T) {
	collections := []Collection{{ID: 10, Position: 1, Title: "Scriptures"}, {ID: 11, Position: 3, Title: "Magazines"}}
	items := []Item{{ID: 20, Position: 0, Title: "Book of Mormon"}, {ID: 21, Position: 1, Title: "Tied"}, {ID: 22, Position: 2, Title: "Manual"}}

	nodes := MergeNodes(collections, items)

	want := []struct {
		kind  NodeKind
		title string
	}{
		{NodeItem, "Book of Mormon"},
		{NodeCollection, "Scriptures"},
		{NodeItem, "Tied"},
		{NodeItem, "Manual"},
		{NodeCollection, "Magazines"},
	}
	if len(nodes) != len(want) {
		t.Fatalf("expected %d nodes, got %d", len(want), len(nodes))
	}
	for i, w := range want {
		if nodes[i].Kind != w.kind || nodes[i].Title() != w.title {
			t.Fatalf("node %d: expected %s %q, got %s %q", i, w.kind, w.title, nodes[i].Kind, nodes[i].Title())
		}
		if i > 0 && nodes[i].Position < nodes[i-1].Position {
			t.Fatalf("positions decrease at %d", i)
		}
	}
}

func TestItemFromRow(t *testing.T) {
	row := Row{
		"id":                 int64(5),
		"external_id":        "_scriptures_bofm_000",
		"language_id":        int64(1),
		"uri":                "/scriptures/bofm",
		"title":              "Book of Mormon",
		"version":            int64(12),
		"is_obsolete":        int64(0),
		"library_section_id": int64(3),
		"position":           int64(2),
	}
	item := ItemFromRow(row)
	if item.ID != 5 || item.ExternalID != "_scriptures_bofm_000" || item.Version != 12 || item.Position != 2 || item.SectionID != 3 {
		t.Fatalf("unexpected item: %#v", item)
	}
	if item.Obsolete {
		t.Fatalf("expected item not to be obsolete")
	}
}

func TestVideoItemsWithContainer(t *testing.T) {
	items := []RelatedVideoItem{{ID: 1, ContainerType: 1}, {ID: 2, ContainerType: 2}, {ID: 3, ContainerType: 1}}
	got := VideoItemsWithContainer(items, 1)
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Fatalf("unexpected filter result: %#v", got)
	}
}

func TestRowAccessors(t *testing.T) {
	row := Row{"n": "42", "b": []byte("7"), "f": 3.0, "s": int64(9), "null": nil}
	if row.Int64("n") != 42 || row.Int64("b") != 7 || row.Int64("f") != 3 {
		t.Fatalf("unexpected int conversions: %#v", row)
	}
	if row.String("s") != "9" || row.String("missing") != "" {
		t.Fatalf("unexpected string conversions: %#v", row)
	}
	if _, ok := row.OptionalInt64("null"); ok {
		t.Fatalf("expected NULL to be unset")
	}
	if v, ok := row.OptionalInt64("s"); !ok || v != 9 {
		t.Fatalf("expected 9, got %d %v", v, ok)
	}
}
