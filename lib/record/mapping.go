package record

import "sort"

// LanguageFromRow builds a Language from a projected language row. The
// native name is read from the "native_name" alias when the query joined
// language_name.
func LanguageFromRow(row Row) Language {
	return Language{
		ID:               row.Int64("id"),
		ISO639_3:         row.String("iso639_3"),
		BCP47:            row.String("bcp47"),
		NativeName:       row.String("native_name"),
		VendorCode:       row.String("lds_language_code"),
		RootCollectionID: row.Int64("root_library_collection_id"),
		Fields:           row,
	}
}

// CategoryFromRow builds a Category from an item_category row.
func CategoryFromRow(row Row) Category {
	return Category{
		ID:     row.Int64("id"),
		Name:   row.String("name"),
		Fields: row,
	}
}

// CollectionFromRow builds a Collection from a library_collection row.
func CollectionFromRow(row Row) Collection {
	return Collection{
		ID:                 row.Int64("id"),
		ExternalID:         row.String("external_id"),
		SectionID:          row.Int64("library_section_id"),
		Position:           row.Int64("position"),
		Title:              row.String("title"),
		TypeID:             row.Int64("type_id"),
		CoverRenditions:    row.Renditions("cover_renditions"),
		RawCoverRenditions: row.String(RawPrefix + "cover_renditions"),
		Fields:             row,
	}
}

// SectionFromRow builds a Section from a library_section row.
func SectionFromRow(row Row) Section {
	return Section{
		ID:           row.Int64("id"),
		ExternalID:   row.String("external_id"),
		CollectionID: row.Int64("library_collection_id"),
		Position:     row.Int64("position"),
		Title:        row.String("title"),
		IndexTitle:   row.String("index_title"),
		Fields:       row,
	}
}

// ItemFromRow builds an Item from an item row, optionally joined with
// library_item.
func ItemFromRow(row Row) Item {
	return Item{
		ID:                 row.Int64("id"),
		ExternalID:         row.String("external_id"),
		LanguageID:         row.Int64("language_id"),
		CategoryID:         row.Int64("item_category_id"),
		URI:                row.String("uri"),
		Title:              row.String("title"),
		Version:            int(row.Int64("version")),
		Obsolete:           row.Bool("is_obsolete"),
		CoverRenditions:    row.Renditions("item_cover_renditions"),
		RawCoverRenditions: row.String(RawPrefix + "item_cover_renditions"),
		SectionID:          row.Int64("library_section_id"),
		Position:           row.Int64("position"),
		Fields:             row,
	}
}

// SubitemFromRow builds a Subitem from a subitem row.
func SubitemFromRow(row Row) Subitem {
	return Subitem{
		ID:       row.Int64("id"),
		URI:      row.String("uri"),
		Title:    row.String("title"),
		Position: row.Int64("position"),
		DocID:    row.String("doc_id"),
		Fields:   row,
	}
}

// RelatedAudioItemFromRow builds a RelatedAudioItem.
func RelatedAudioItemFromRow(row Row) RelatedAudioItem {
	return RelatedAudioItem{
		ID:        row.Int64("id"),
		SubitemID: row.Int64("subitem_id"),
		MediaURL:  row.String("media_url"),
		Fields:    row,
	}
}

// RelatedVideoItemFromRow builds a RelatedVideoItem.
func RelatedVideoItemFromRow(row Row) RelatedVideoItem {
	return RelatedVideoItem{
		ID:            row.Int64("id"),
		SubitemID:     row.Int64("subitem_id"),
		MediaURL:      row.String("media_url"),
		ContainerType: row.Int64("container_type"),
		Fields:        row,
	}
}

// RelatedContentItemFromRow builds a RelatedContentItem.
func RelatedContentItemFromRow(row Row) RelatedContentItem {
	return RelatedContentItem{
		ID:           row.Int64("id"),
		SubitemID:    row.Int64("subitem_id"),
		Position:     row.Int64("position"),
		Name:         row.String("name"),
		Label:        row.String("label"),
		LabelContent: row.String("label_content"),
		OriginURI:    row.String("origin_uri"),
		Content:      row.String("content"),
		Fields:       row,
	}
}

// VideoItemsWithContainer keeps the video items of one container type.
func VideoItemsWithContainer(items []RelatedVideoItem, containerType int64) []RelatedVideoItem {
	result := make([]RelatedVideoItem, 0, len(items))
	for _, item := range items {
		if item.ContainerType == containerType {
			result = append(result, item)
		}
	}
	return result
}

// MergeNodes merges collections and items into one list ordered by
// position. Ties keep collections before items, each in input order.
func MergeNodes(collections []Collection, items []Item) []Node {
	nodes := make([]Node, 0, len(collections)+len(items))
	for i := range collections {
		nodes = append(nodes, Node{Kind: NodeCollection, Position: collections[i].Position, Collection: &collections[i]})
	}
	for i := range items {
		nodes = append(nodes, Node{Kind: NodeItem, Position: items[i].Position, Item: &items[i]})
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Position < nodes[j].Position
	})
	return nodes
}
