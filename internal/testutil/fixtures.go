// Package testutil builds fixture catalog and item package databases, packs
// them the way the content CDN publishes them and serves them over httptest.
package testutil

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// Import SQLite driver for database/sql
	_ "modernc.org/sqlite"

	"github.com/gospelstudy/gospellib/internal/testutil/migrations"
)

// Shape selects one of the embedded fixture schemas.
type Shape string

const (
	ShapeCatalog       Shape = "catalog"
	ShapePackage       Shape = "package"
	ShapeLegacyCatalog Shape = "legacy_catalog"
	ShapeLegacyPackage Shape = "legacy_package"
)

// Fixture identifiers shared by the seeded databases.
const (
	CatalogVersion = 42

	EnglishLanguageID = 1
	SpanishLanguageID = 3

	RootCollectionID     = 1
	ScripturesCollection = 10
	FeaturedSectionID    = 100
	StudySectionID       = 101
	StandardWorksSection = 110

	BofmItemID         = 1
	BofmExternalID     = "_scriptures_bofm_000"
	BofmURI            = "/scriptures/bofm"
	BofmVersion        = 12
	ConferenceItemID   = 2
	ConferenceURI      = "/general-conference/2014/10"
	SpanishConfItemID  = 3
	FinancesItemID     = 4
	FinancesExternalID = "_manual_all-is-safely-gathered-in-family-finances_000"

	BofmFileID = "bofm-file-1"

	TitlePageURI  = "/scriptures/bofm/title-page"
	Nephi1URI     = "/scriptures/bofm/1-ne/1"
	Nephi11URI    = "/scriptures/bofm/1-ne/11"
	Nephi11ID     = 2
	Nephi11P17URI = "/scriptures/bofm/1-ne/11.17"
	Nephi11P18URI = "/scriptures/bofm/1-ne/11.18"
)

// Paragraphs of the 1 Nephi 11 fixture. The Spanish paragraph carries
// multibyte characters so byte offsets differ from rune offsets.
const (
	Nephi11Title       = `<p class="title" id="title1">1 Nephi 11</p>`
	Nephi11Paragraph17 = `<p class="verse" id="p17"><span class="verse-number">17 </span>And I said unto him: I know that he loveth his children; nevertheless, I do not know the meaning of all things.</p>`
	Nephi11Paragraph18 = `<p class="verse" id="p18"><span class="verse-number">18 </span>Y él me dijo: He aquí, la virgen que tú ves es la madre del Hijo de Dios, según la carne.</p>`
	Nephi11HTML        = `<body>` + Nephi11Title + Nephi11Paragraph17 + Nephi11Paragraph18 + `</body>`
)

// CoverRenditions is the raw rendition text stored on the scriptures
// collection.
const CoverRenditions = "100x60,images/scriptures-100.jpg\n200x120,images/scriptures-200.jpg"

// Migrate applies the embedded migrations for shape to the SQLite file at
// path, creating it if needed.
func Migrate(path string, shape Shape) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialise migrate driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrations.Files, string(shape))
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", driver)
	if err != nil {
		_ = sourceDriver.Close()
		_ = db.Close()
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// BuildCatalog writes the seeded v4 catalog to dir/Catalog.sqlite.
func BuildCatalog(t testing.TB, dir string) string {
	t.Helper()
	return build(t, filepath.Join(dir, "Catalog.sqlite"), ShapeCatalog, catalogSeed)
}

// BuildPackage writes the seeded v4 item package to dir/package.sqlite.
func BuildPackage(t testing.TB, dir string) string {
	t.Helper()
	return build(t, filepath.Join(dir, "package.sqlite"), ShapePackage, packageSeed())
}

// BuildLegacyCatalog writes the seeded 2.0.x catalog to dir/Catalog.sqlite.
func BuildLegacyCatalog(t testing.TB, dir string) string {
	t.Helper()
	return build(t, filepath.Join(dir, "Catalog.sqlite"), ShapeLegacyCatalog, legacyCatalogSeed)
}

// BuildLegacyPackage writes the seeded 2.0.x item package to
// dir/package.sqlite.
func BuildLegacyPackage(t testing.TB, dir string) string {
	t.Helper()
	return build(t, filepath.Join(dir, "package.sqlite"), ShapeLegacyPackage, legacyPackageSeed())
}

type statement struct {
	query string
	args  []any
}

func build(t testing.TB, path string, shape Shape, seed []statement) string {
	t.Helper()

	if err := Migrate(path, shape); err != nil {
		t.Fatalf("failed to migrate %s fixture: %v", shape, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open fixture: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	for _, stmt := range seed {
		if _, err := db.Exec(stmt.query, stmt.args...); err != nil {
			t.Fatalf("failed to seed %s fixture: %v\n%s", shape, err, stmt.query)
		}
	}
	return path
}

func exec(query string, args ...any) statement {
	return statement{query: query, args: args}
}

var catalogSeed = []statement{
	exec(`INSERT INTO language (id, lds_language_code, iso639_3, bcp47, root_library_collection_id, root_library_collection_external_id) VALUES
		(1, '000', 'eng', 'en', 1, 'root-eng'),
		(3, '002', 'spa', 'es', 2, 'root-spa')`),
	exec(`INSERT INTO language_name (id, language_id, localization_language_id, name) VALUES
		(1, 1, 1, 'English'),
		(2, 3, 3, 'Español'),
		(3, 3, 1, 'Spanish'),
		(4, 1, 3, 'Inglés')`),
	exec(`INSERT INTO item_category (id, name) VALUES
		(1, 'Scriptures'),
		(2, 'General Conference'),
		(3, 'Manuals')`),
	exec(`INSERT INTO library_collection (id, external_id, library_section_id, library_section_external_id, position, title, cover_renditions, type_id) VALUES
		(1, 'root-eng', NULL, NULL, 0, 'Library', NULL, 1),
		(2, 'root-spa', NULL, NULL, 0, 'Biblioteca', NULL, 1),
		(10, 'scriptures', 100, 'featured', 1, 'Scriptures', ?, 2)`, CoverRenditions),
	exec(`INSERT INTO library_section (id, external_id, library_collection_id, library_collection_external_id, position, title, index_title) VALUES
		(101, 'study', 1, 'root-eng', 1, 'Study', NULL),
		(100, 'featured', 1, 'root-eng', 0, 'Featured', NULL),
		(110, 'standard-works', 10, 'scriptures', 0, 'Standard Works', 'Standard Works')`),
	exec(`INSERT INTO item (id, external_id, language_id, item_category_id, uri, title, item_cover_renditions, latest_version, is_obsolete) VALUES
		(1, '_scriptures_bofm_000', 1, 1, '/scriptures/bofm', 'Book of Mormon', '60x60,images/bofm.jpg', 12, 0),
		(2, '_general-conference_2014_10_000', 1, 2, '/general-conference/2014/10', 'October 2014 General Conference', NULL, 3, 0),
		(3, '_general-conference_2014_10_002', 3, 2, '/general-conference/2014/10', 'Conferencia General de octubre de 2014', NULL, 2, 0),
		(4, '_manual_all-is-safely-gathered-in-family-finances_000', 1, 3, '/manual/all-is-safely-gathered-in-family-finances', 'All Is Safely Gathered In: Family Finances', NULL, 1, 1)`),
	exec(`INSERT INTO library_item (id, external_id, library_section_id, library_section_external_id, position, title, is_obsolete, item_id, item_external_id) VALUES
		(500, 'li-bofm', 100, 'featured', 0, 'Book of Mormon', 0, 1, '_scriptures_bofm_000'),
		(501, 'li-conf', 100, 'featured', 2, 'October 2014 General Conference', 0, 2, '_general-conference_2014_10_000'),
		(502, 'li-fin', 101, 'study', 0, 'Family Finances', 1, 4, '_manual_all-is-safely-gathered-in-family-finances_000'),
		(503, 'li-bofm-sw', 110, 'standard-works', 0, 'Book of Mormon', 0, 1, '_scriptures_bofm_000')`),
}

var legacyCatalogSeed = []statement{
	exec(`INSERT INTO language (_id, lds_language_code, iso639_3, bcp47) VALUES
		(1, '000', 'eng', 'en')`),
	exec(`INSERT INTO item (_id, external_id, language_id, uri, title, latest_version) VALUES
		(1, '_scriptures_bofm_000', 1, '/scriptures/bofm', 'Book of Mormon', 12)`),
}

// paragraphRange returns the byte range of paragraph within Nephi11HTML.
func paragraphRange(paragraph string) (int, int) {
	start := strings.Index(Nephi11HTML, paragraph)
	if start < 0 {
		panic("testutil: paragraph not found in fixture html")
	}
	return start, start + len(paragraph)
}

// ParagraphRange exposes the seeded byte range of a fixture paragraph.
func ParagraphRange(paragraph string) (start, end int) {
	return paragraphRange(paragraph)
}

func packageSeed() []statement {
	s17, e17 := paragraphRange(Nephi11Paragraph17)
	s18, e18 := paragraphRange(Nephi11Paragraph18)
	return []statement{
		exec(`INSERT INTO metadata (key, value) VALUES ('file_id', ?), ('schema_version', '4')`, BofmFileID),
		exec(`INSERT INTO subitem (_id, uri, position, title, title_html, doc_id, doc_version) VALUES
			(1, '/scriptures/bofm/title-page', 0, 'Title Page', '<p>Title Page</p>', 'doc-title', 1),
			(2, '/scriptures/bofm/1-ne/11', 2, '1 Nephi 11', '<p>1 Nephi 11</p>', 'doc-1ne11', 1),
			(3, '/scriptures/bofm/1-ne/1', 1, '1 Nephi 1', '<p>1 Nephi 1</p>', 'doc-1ne1', 1)`),
		exec(`INSERT INTO subitem_content (_id, subitem_id, content_html) VALUES (1, 2, ?), (2, 3, ?)`,
			[]byte(Nephi11HTML), []byte(`<body><p id="p1">I, Nephi</p></body>`)),
		exec(`INSERT INTO paragraph_metadata (_id, subitem_id, paragraph_id, paragraph_aid, verse_number, start_index, end_index) VALUES
			(1, 2, 'p17', '128338862', '17', ?, ?),
			(2, 2, 'p18', '128338863', '18', ?, ?),
			(3, 2, 'p99', '128338999', '99', 0, 100000)`, s17, e17, s18, e18),
		exec(`INSERT INTO related_audio_item (_id, subitem_id, media_url) VALUES
			(37, 2, 'https://media.example/bofm/1-ne-11.mp3')`),
		exec(`INSERT INTO related_video_item (_id, subitem_id, media_url, container_type) VALUES
			(469, 2, 'https://video.example/1-ne-11/master.m3u8', 1),
			(470, 2, 'https://video.example/1-ne-11/inline.mp4', 2)`),
		exec(`INSERT INTO related_content_item (_id, subitem_id, position, name, label, label_content, origin_uri, content) VALUES
			(11430, 2, 1, 'f_18a', '18a', 'virgen', '/scriptures/bofm/1-ne/11.18', '<p>Isa. 7:14</p>'),
			(11429, 2, 0, 'f_17a', '17a', 'loveth', '/scriptures/bofm/1-ne/11.17', '<p>John 3:16</p>')`),
	}
}

func legacyPackageSeed() []statement {
	s17, e17 := paragraphRange(Nephi11Paragraph17)
	return []statement{
		exec(`INSERT INTO metadata (key, value) VALUES ('file_id', ?)`, BofmFileID),
		exec(`INSERT INTO subitem (_id, uri, position, title) VALUES
			(2, '/scriptures/bofm/1-ne/11', 0, '1 Nephi 11')`),
		exec(`INSERT INTO subitem_content (_id, subitem_id, content) VALUES (1, 2, ?)`, []byte(Nephi11HTML)),
		exec(`INSERT INTO subitem_content_range (_id, subitem_id, uri, paragraph_id, start_index, end_index) VALUES
			(1, 2, '/scriptures/bofm/1-ne/11.17', 'p17', ?, ?)`, s17, e17),
		exec(`INSERT INTO related_audio_item (_id, subitem_id, media_url) VALUES
			(37, 2, 'https://media.example/bofm/1-ne-11.mp3')`),
		exec(`INSERT INTO related_content_item (_id, subitem_id, position, name, label, label_content, origin_uri, content) VALUES
			(11429, 2, 0, 'f_17a', '17a', 'loveth', '/scriptures/bofm/1-ne/11.17', '<p>John 3:16</p>')`),
	}
}
