package record

// Language is a row of the catalog language table.
type Language struct {
	ID               int64  `json:"id"`
	ISO639_3         string `json:"iso639_3"`
	BCP47            string `json:"bcp47"`
	NativeName       string `json:"nativeName"`
	VendorCode       string `json:"ldsLanguageCode"`
	RootCollectionID int64  `json:"rootLibraryCollectionId,omitempty"`
	Fields           Row    `json:"-"`
}

// Category is a row of item_category.
type Category struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Fields Row    `json:"-"`
}

// Collection is a library_collection node. A collection may live under a
// section (SectionID) or be a root collection.
type Collection struct {
	ID                 int64       `json:"id"`
	ExternalID         string      `json:"externalId,omitempty"`
	SectionID          int64       `json:"librarySectionId,omitempty"`
	Position           int64       `json:"position"`
	Title              string      `json:"title"`
	TypeID             int64       `json:"typeId,omitempty"`
	CoverRenditions    []Rendition `json:"coverRenditions,omitempty"`
	RawCoverRenditions string      `json:"-"`
	Fields             Row         `json:"-"`
}

// Section is a library_section node belonging to a collection.
type Section struct {
	ID           int64  `json:"id"`
	ExternalID   string `json:"externalId,omitempty"`
	CollectionID int64  `json:"libraryCollectionId"`
	Position     int64  `json:"position"`
	Title        string `json:"title,omitempty"`
	IndexTitle   string `json:"indexTitle,omitempty"`
	Fields       Row    `json:"-"`
}

// Item is a top-level content work. Position and SectionID are only set when
// the item was listed through library_item.
type Item struct {
	ID                 int64       `json:"id"`
	ExternalID         string      `json:"externalId"`
	LanguageID         int64       `json:"languageId"`
	CategoryID         int64       `json:"itemCategoryId,omitempty"`
	URI                string      `json:"uri"`
	Title              string      `json:"title"`
	Version            int         `json:"version"`
	Obsolete           bool        `json:"obsolete,omitempty"`
	CoverRenditions    []Rendition `json:"coverRenditions,omitempty"`
	RawCoverRenditions string      `json:"-"`
	SectionID          int64       `json:"librarySectionId,omitempty"`
	Position           int64       `json:"position"`
	Fields             Row         `json:"-"`
}

// NodeKind distinguishes the two kinds of library tree children.
type NodeKind string

const (
	NodeCollection NodeKind = "collection"
	NodeItem       NodeKind = "item"
)

// Node is one child of a library section: exactly one of Collection or Item
// is set.
type Node struct {
	Kind       NodeKind    `json:"kind"`
	Position   int64       `json:"position"`
	Collection *Collection `json:"collection,omitempty"`
	Item       *Item       `json:"item,omitempty"`
}

// Title returns the display title of whichever record the node holds.
func (n Node) Title() string {
	switch {
	case n.Collection != nil:
		return n.Collection.Title
	case n.Item != nil:
		return n.Item.Title
	default:
		return ""
	}
}

// Subitem is a leaf content unit inside an item package.
type Subitem struct {
	ID       int64  `json:"id"`
	URI      string `json:"uri"`
	Title    string `json:"title"`
	Position int64  `json:"position"`
	DocID    string `json:"docId,omitempty"`
	Fields   Row    `json:"-"`
}

// RelatedAudioItem is audio media attached to a subitem.
type RelatedAudioItem struct {
	ID        int64  `json:"id"`
	SubitemID int64  `json:"subitemId"`
	MediaURL  string `json:"mediaUrl"`
	Fields    Row    `json:"-"`
}

// RelatedVideoItem is video media attached to a subitem.
type RelatedVideoItem struct {
	ID            int64  `json:"id"`
	SubitemID     int64  `json:"subitemId"`
	MediaURL      string `json:"mediaUrl"`
	ContainerType int64  `json:"containerType"`
	Fields        Row    `json:"-"`
}

// RelatedContentItem is a cross-reference (footnote) attached to a subitem.
type RelatedContentItem struct {
	ID           int64  `json:"id"`
	SubitemID    int64  `json:"subitemId"`
	Position     int64  `json:"position"`
	Name         string `json:"name"`
	Label        string `json:"label"`
	LabelContent string `json:"labelContent"`
	OriginURI    string `json:"originUri"`
	Content      string `json:"content"`
	Fields       Row    `json:"-"`
}
