// Package itempackage reads a materialized item package database: the
// subitems of one item, their stored HTML and the media and cross
// references attached to them.
//
// Paragraphs are addressed by byte ranges into the stored HTML blob. The
// range is applied to the raw bytes and only the resulting slice is decoded,
// so offsets always refer to the encoded form.
package itempackage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"unicode/utf8"

	"github.com/gospelstudy/gospellib/lib/apperr"
	"github.com/gospelstudy/gospellib/lib/cache"
	"github.com/gospelstudy/gospellib/lib/database"
	"github.com/gospelstudy/gospellib/lib/record"
	"github.com/gospelstudy/gospellib/lib/schema"
)

// Options binds a reader to one published item package.
type Options struct {
	// ItemID is the item's external id.
	ItemID      string
	ItemVersion int
	// Language only matters for schemas that publish packages per
	// language.
	Language string
	Schema   schema.Version
	BaseURL  string
	Store    *cache.Store
	Logger   *slog.Logger
}

// Reader queries one item package database. Close releases the handle.
type Reader struct {
	db        *database.Context
	projector *record.Projector
	logger    *slog.Logger

	idColumn      string
	contentColumn string
	rangeTable    string
	rangeHasURI   bool
}

func (o Options) entry() (cache.Entry, error) {
	if o.Schema.Name == "" {
		return cache.Entry{}, errors.New("schema version is required")
	}
	if o.ItemID == "" {
		return cache.Entry{}, errors.New("item id is required")
	}
	if o.ItemVersion <= 0 {
		return cache.Entry{}, fmt.Errorf("item version must be positive, got %d", o.ItemVersion)
	}
	if o.Schema.LanguagePackages {
		if err := o.Schema.Validate(o.Language); err != nil {
			return cache.Entry{}, err
		}
	}
	if o.Store == nil {
		return cache.Entry{}, errors.New("cache store is required")
	}
	return cache.Entry{
		KeyPath: o.Schema.PackageKeyPath(o.Language, o.ItemID, o.ItemVersion),
		File:    o.Schema.PackageFile,
		URL:     o.Schema.PackageURL(o.BaseURL, o.Language, o.ItemID, o.ItemVersion),
		Format:  o.Schema.PackageFormat,
	}, nil
}

// Exists reports whether the package is published, materializing it as a
// side effect.
func Exists(ctx context.Context, opts Options) (bool, error) {
	e, err := opts.entry()
	if err != nil {
		return false, apperr.E(apperr.InvalidArguments, "itempackage.Exists", err)
	}
	_, ok, err := opts.Store.Materialize(ctx, e)
	return ok, err
}

// Open materializes the package through the cache store and opens it.
func Open(ctx context.Context, opts Options) (*Reader, error) {
	const op = "itempackage.Open"

	e, err := opts.entry()
	if err != nil {
		return nil, apperr.E(apperr.InvalidArguments, op, err)
	}
	path, ok, err := opts.Store.Materialize(ctx, e)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Errorf(apperr.ContentUnavailable, op, "item package %s version %d is not published", opts.ItemID, opts.ItemVersion)
	}
	return OpenFile(ctx, path, opts)
}

// OpenFile opens an already materialized package database. Store and
// ItemVersion in opts are ignored.
func OpenFile(ctx context.Context, path string, opts Options) (*Reader, error) {
	const op = "itempackage.Open"

	base, err := opts.Schema.AssetBase(opts.BaseURL)
	if err != nil {
		return nil, apperr.E(apperr.InvalidArguments, op, err)
	}

	db, err := database.OpenReadOnly(ctx, path)
	if err != nil {
		return nil, apperr.E(apperr.CorruptArchive, op, err)
	}

	r := &Reader{db: db, logger: opts.Logger}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	if err := r.detectColumns(ctx, opts.Schema); err != nil {
		_ = database.CloseDatabase(db)
		return nil, apperr.E(apperr.CorruptArchive, op, err)
	}
	r.projector = record.NewProjector(base, r.idColumn)

	r.logger.Debug("opened item package", "path", path, "item", opts.ItemID,
		"content_column", r.contentColumn, "range_table", r.rangeTable)
	return r, nil
}

// detectColumns confirms the schema's column names against the file, so a
// package built by a transitional schema still reads correctly.
func (r *Reader) detectColumns(ctx context.Context, v schema.Version) error {
	var err error
	if r.idColumn, err = database.FirstColumn(ctx, r.db.DB, "subitem", v.PackageIDColumn, "_id", "id"); err != nil {
		return err
	}
	if r.idColumn == "" {
		return errors.New("subitem table has no id column")
	}
	if r.contentColumn, err = database.FirstColumn(ctx, r.db.DB, "subitem_content", v.ContentColumn, "content_html", "content"); err != nil {
		return err
	}
	if r.contentColumn == "" {
		return errors.New("subitem_content table has no content column")
	}

	for _, table := range []string{v.RangeTable, "paragraph_metadata", "subitem_content_range"} {
		exists, err := database.TableExists(ctx, r.db.DB, table)
		if err != nil {
			return err
		}
		if exists {
			r.rangeTable = table
			break
		}
	}
	if r.rangeTable != "" {
		uriColumn, err := database.FirstColumn(ctx, r.db.DB, r.rangeTable, "uri")
		if err != nil {
			return err
		}
		r.rangeHasURI = uriColumn != ""
	}
	return nil
}

// Close releases the database handle.
func (r *Reader) Close() error {
	return database.CloseDatabase(r.db)
}

// Path is the directory holding the package database and any files
// published alongside it.
func (r *Reader) Path() string {
	return filepath.Dir(r.db.Path)
}

func (r *Reader) rows(ctx context.Context, op, query string, args ...any) ([]record.Row, error) {
	rows, err := database.QueryRows(ctx, r.db.DB, r.projector, query, args...)
	if err != nil {
		if apperr.KindOf(err) != "" {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rows, nil
}

// Subitems lists every subitem ordered by position.
func (r *Reader) Subitems(ctx context.Context) ([]record.Subitem, error) {
	rows, err := r.rows(ctx, "itempackage.Subitems", fmt.Sprintf(`SELECT * FROM subitem ORDER BY position, %s`, r.idColumn))
	if err != nil {
		return nil, err
	}
	subitems := make([]record.Subitem, 0, len(rows))
	for _, row := range rows {
		subitems = append(subitems, record.SubitemFromRow(row))
	}
	return subitems, nil
}

// Subitem returns the subitem with uri, or nil when there is none.
func (r *Reader) Subitem(ctx context.Context, uri string) (*record.Subitem, error) {
	rows, err := r.rows(ctx, "itempackage.Subitem", `SELECT * FROM subitem WHERE uri = ? LIMIT 1`, uri)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	subitem := record.SubitemFromRow(rows[0])
	return &subitem, nil
}

// HTML returns the stored HTML of the subitem with subitemURI. With a
// paragraphID only that paragraph's byte range is returned.
func (r *Reader) HTML(ctx context.Context, subitemURI, paragraphID string) (string, error) {
	const op = "itempackage.HTML"

	if subitemURI == "" {
		return "", apperr.Errorf(apperr.InvalidArguments, op, "subitem uri is required")
	}

	if paragraphID == "" {
		blob, err := r.blob(ctx, op, fmt.Sprintf(`SELECT c.%s
			FROM subitem_content c
			INNER JOIN subitem s ON c.subitem_id = s.%s
			WHERE s.uri = ?
			LIMIT 1`, r.contentColumn, r.idColumn), subitemURI)
		if err != nil {
			return "", err
		}
		if blob == nil {
			return "", apperr.Errorf(apperr.NotFound, op, "no content for subitem %s", subitemURI)
		}
		return decode(op, blob)
	}

	if r.rangeTable == "" {
		return "", apperr.Errorf(apperr.NotFound, op, "package has no paragraph ranges")
	}
	blob, start, end, found, err := r.paragraph(ctx, op, fmt.Sprintf(`SELECT c.%s, p.start_index, p.end_index
		FROM %s p
		INNER JOIN subitem_content c ON p.subitem_id = c.subitem_id
		INNER JOIN subitem s ON c.subitem_id = s.%s
		WHERE s.uri = ? AND p.paragraph_id = ?
		LIMIT 1`, r.contentColumn, r.rangeTable, r.idColumn), subitemURI, paragraphID)
	if err != nil {
		return "", err
	}
	if !found {
		return "", apperr.Errorf(apperr.NotFound, op, "no paragraph %s in subitem %s", paragraphID, subitemURI)
	}
	return slice(op, blob, start, end)
}

// ParagraphHTML returns a paragraph addressed by its own uri. Only packages
// whose range table stores paragraph uris support this.
func (r *Reader) ParagraphHTML(ctx context.Context, paragraphURI string) (string, error) {
	const op = "itempackage.ParagraphHTML"

	if !r.rangeHasURI {
		return "", apperr.Errorf(apperr.InvalidArguments, op, "package does not address paragraphs by uri")
	}
	blob, start, end, found, err := r.paragraph(ctx, op, fmt.Sprintf(`SELECT c.%s, p.start_index, p.end_index
		FROM %s p
		INNER JOIN subitem_content c ON p.subitem_id = c.subitem_id
		WHERE p.uri = ?
		LIMIT 1`, r.contentColumn, r.rangeTable), paragraphURI)
	if err != nil {
		return "", err
	}
	if !found {
		return "", apperr.Errorf(apperr.NotFound, op, "no paragraph %s", paragraphURI)
	}
	return slice(op, blob, start, end)
}

// HTMLRange returns bytes [start, end) of a subitem's stored HTML.
func (r *Reader) HTMLRange(ctx context.Context, subitemURI string, start, end int64) (string, error) {
	const op = "itempackage.HTMLRange"

	full, err := r.HTML(ctx, subitemURI, "")
	if err != nil {
		return "", err
	}
	if start < 0 || end < start || end > int64(len(full)) {
		return "", apperr.Errorf(apperr.InvalidArguments, op, "range [%d, %d) outside %d bytes", start, end, len(full))
	}
	return slice(op, []byte(full), start, end)
}

// SubitemHTML returns the full stored HTML of a subitem by id.
func (r *Reader) SubitemHTML(ctx context.Context, subitemID int64) (string, error) {
	const op = "itempackage.SubitemHTML"

	blob, err := r.blob(ctx, op, fmt.Sprintf(`SELECT %s FROM subitem_content WHERE subitem_id = ? LIMIT 1`, r.contentColumn), subitemID)
	if err != nil {
		return "", err
	}
	if blob == nil {
		return "", apperr.Errorf(apperr.NotFound, op, "no content for subitem %d", subitemID)
	}
	return decode(op, blob)
}

// blob reads a single content value. It returns nil when no row matches.
func (r *Reader) blob(ctx context.Context, op, query string, args ...any) ([]byte, error) {
	var blob []byte
	err := r.db.DB.QueryRowContext(ctx, query, args...).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if blob == nil {
		blob = []byte{}
	}
	return blob, nil
}

func (r *Reader) paragraph(ctx context.Context, op, query string, args ...any) (blob []byte, start, end int64, found bool, err error) {
	err = r.db.DB.QueryRowContext(ctx, query, args...).Scan(&blob, &start, &end)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, 0, false, nil
	}
	if err != nil {
		return nil, 0, 0, false, fmt.Errorf("%s: %w", op, err)
	}
	return blob, start, end, true, nil
}

func slice(op string, blob []byte, start, end int64) (string, error) {
	if start < 0 || end < start || end > int64(len(blob)) {
		return "", apperr.Errorf(apperr.MalformedRecord, op, "byte range [%d, %d) outside %d-byte content", start, end, len(blob))
	}
	return decode(op, blob[start:end])
}

func decode(op string, b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", apperr.Errorf(apperr.MalformedRecord, op, "content is not valid UTF-8")
	}
	return string(b), nil
}

// RelatedAudioItems lists the audio attached to a subitem.
func (r *Reader) RelatedAudioItems(ctx context.Context, subitemID int64) ([]record.RelatedAudioItem, error) {
	rows, err := r.related(ctx, "itempackage.RelatedAudioItems", "related_audio_item", subitemID)
	if err != nil {
		return nil, err
	}
	items := make([]record.RelatedAudioItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, record.RelatedAudioItemFromRow(row))
	}
	return items, nil
}

// RelatedVideoItems lists the video attached to a subitem. Packages built
// before video support have no video table and yield an empty list.
func (r *Reader) RelatedVideoItems(ctx context.Context, subitemID int64) ([]record.RelatedVideoItem, error) {
	rows, err := r.related(ctx, "itempackage.RelatedVideoItems", "related_video_item", subitemID)
	if err != nil {
		return nil, err
	}
	items := make([]record.RelatedVideoItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, record.RelatedVideoItemFromRow(row))
	}
	return items, nil
}

// RelatedContentItems lists the cross references attached to a subitem.
func (r *Reader) RelatedContentItems(ctx context.Context, subitemID int64) ([]record.RelatedContentItem, error) {
	rows, err := r.related(ctx, "itempackage.RelatedContentItems", "related_content_item", subitemID)
	if err != nil {
		return nil, err
	}
	items := make([]record.RelatedContentItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, record.RelatedContentItemFromRow(row))
	}
	return items, nil
}

func (r *Reader) related(ctx context.Context, op, table string, subitemID int64) ([]record.Row, error) {
	exists, err := database.TableExists(ctx, r.db.DB, table)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return []record.Row{}, nil
	}
	idColumn, err := database.FirstColumn(ctx, r.db.DB, table, r.idColumn, "_id", "id")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	order := ""
	if idColumn != "" {
		order = " ORDER BY " + idColumn
	}
	return r.rows(ctx, op, fmt.Sprintf(`SELECT * FROM %s WHERE subitem_id = ?%s`, table, order), subitemID)
}

// FileID returns the package's content fingerprint from the metadata
// table. ok is false when the package does not record one.
func (r *Reader) FileID(ctx context.Context) (id string, ok bool, err error) {
	exists, err := database.TableExists(ctx, r.db.DB, "metadata")
	if err != nil || !exists {
		return "", false, err
	}
	id, ok, err = database.QueryString(ctx, r.db.DB, `SELECT value FROM metadata WHERE key = 'file_id' LIMIT 1`)
	if err != nil {
		return "", false, fmt.Errorf("itempackage.FileID: %w", err)
	}
	return id, ok, nil
}
