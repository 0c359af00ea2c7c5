// Package catalog reads a materialized catalog database: languages,
// categories, the library tree of collections and sections, and items.
package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gospelstudy/gospellib/lib/apperr"
	"github.com/gospelstudy/gospellib/lib/cache"
	"github.com/gospelstudy/gospellib/lib/database"
	"github.com/gospelstudy/gospellib/lib/record"
	"github.com/gospelstudy/gospellib/lib/schema"
)

// Options binds a reader to one published catalog.
type Options struct {
	Schema   schema.Version
	Language string
	Version  int
	// BaseURL is the CDN root; rendition URLs resolve against it.
	BaseURL string
	Store   *cache.Store
	Logger  *slog.Logger
}

// Reader queries one catalog database. Close releases the handle.
type Reader struct {
	db        *database.Context
	schema    schema.Version
	language  string
	idColumn  string
	projector *record.Projector
	logger    *slog.Logger
}

// ItemQuery selects an item either by ID or by URI and language code.
// Exactly one mode may be used. Lang defaults to the reader's language.
type ItemQuery struct {
	ID   int64
	URI  string
	Lang string
}

func (o Options) entry() (cache.Entry, error) {
	if err := o.Schema.Validate(o.Language); err != nil {
		return cache.Entry{}, err
	}
	if o.Version <= 0 {
		return cache.Entry{}, fmt.Errorf("catalog version must be positive, got %d", o.Version)
	}
	if o.Store == nil {
		return cache.Entry{}, fmt.Errorf("cache store is required")
	}
	return cache.Entry{
		KeyPath: o.Schema.CatalogKeyPath(o.Language, o.Version),
		File:    o.Schema.CatalogFile,
		URL:     o.Schema.CatalogURL(o.BaseURL, o.Language, o.Version),
		Format:  o.Schema.CatalogFormat,
	}, nil
}

// Exists reports whether the catalog is published, materializing it as a
// side effect.
func Exists(ctx context.Context, opts Options) (bool, error) {
	e, err := opts.entry()
	if err != nil {
		return false, apperr.E(apperr.InvalidArguments, "catalog.Exists", err)
	}
	_, ok, err := opts.Store.Materialize(ctx, e)
	return ok, err
}

// Open materializes the catalog through the cache store and opens it.
func Open(ctx context.Context, opts Options) (*Reader, error) {
	const op = "catalog.Open"

	e, err := opts.entry()
	if err != nil {
		return nil, apperr.E(apperr.InvalidArguments, op, err)
	}
	path, ok, err := opts.Store.Materialize(ctx, e)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Errorf(apperr.ContentUnavailable, op, "catalog %d is not published for %s/%s", opts.Version, opts.Schema.Name, opts.Language)
	}
	return OpenFile(ctx, path, opts)
}

// OpenFile opens an already materialized catalog database. Store and
// Version in opts are ignored.
func OpenFile(ctx context.Context, path string, opts Options) (*Reader, error) {
	const op = "catalog.Open"

	base, err := opts.Schema.AssetBase(opts.BaseURL)
	if err != nil {
		return nil, apperr.E(apperr.InvalidArguments, op, err)
	}
	idColumn, err := database.Ident(opts.Schema.CatalogIDColumn)
	if err != nil {
		return nil, apperr.E(apperr.InvalidArguments, op, err)
	}

	db, err := database.OpenReadOnly(ctx, path)
	if err != nil {
		return nil, apperr.E(apperr.CorruptArchive, op, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Debug("opened catalog", "path", path, "schema", opts.Schema.Name)

	return &Reader{
		db:        db,
		schema:    opts.Schema,
		language:  opts.Language,
		idColumn:  idColumn,
		projector: record.NewProjector(base, idColumn),
		logger:    logger,
	}, nil
}

// Close releases the database handle.
func (r *Reader) Close() error {
	return database.CloseDatabase(r.db)
}

// Path is the local database file.
func (r *Reader) Path() string {
	return r.db.Path
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

// Languages lists the catalog's languages ordered by vendor language code,
// each with its name in its own language when the catalog carries one.
func (r *Reader) Languages(ctx context.Context) ([]record.Language, error) {
	hasNames, err := database.TableExists(ctx, r.db.DB, "language_name")
	if err != nil {
		return nil, err
	}

	query := `SELECT * FROM language ORDER BY lds_language_code`
	if hasNames {
		query = fmt.Sprintf(`SELECT language.*, language_name.name AS native_name
			FROM language
			LEFT JOIN language_name
				ON language_name.language_id = language.%[1]s
				AND language_name.localization_language_id = language.%[1]s
			ORDER BY language.lds_language_code`, r.idColumn)
	}

	rows, err := r.rows(ctx, "catalog.Languages", query)
	if err != nil {
		return nil, err
	}
	languages := make([]record.Language, 0, len(rows))
	for _, row := range rows {
		languages = append(languages, record.LanguageFromRow(row))
	}
	return languages, nil
}

// LanguageName returns the name of languageID localized into
// localizationLanguageID. ok is false when no such localization exists,
// including catalogs that carry no language_name table.
func (r *Reader) LanguageName(ctx context.Context, languageID, localizationLanguageID int64) (name string, ok bool, err error) {
	hasNames, err := database.TableExists(ctx, r.db.DB, "language_name")
	if err != nil {
		return "", false, fmt.Errorf("catalog.LanguageName: %w", err)
	}
	if !hasNames {
		return "", false, nil
	}

	name, ok, err = database.QueryString(ctx, r.db.DB,
		`SELECT name FROM language_name WHERE language_id = ? AND localization_language_id = ? LIMIT 1`,
		languageID, localizationLanguageID)
	if err != nil {
		return "", false, fmt.Errorf("catalog.LanguageName: %w", err)
	}
	return name, ok, nil
}

// ItemCategories lists every item category.
func (r *Reader) ItemCategories(ctx context.Context) ([]record.Category, error) {
	rows, err := r.rows(ctx, "catalog.ItemCategories", fmt.Sprintf(`SELECT * FROM item_category ORDER BY %s`, r.idColumn))
	if err != nil {
		return nil, err
	}
	categories := make([]record.Category, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, record.CategoryFromRow(row))
	}
	return categories, nil
}

// Collection returns a collection by id, or nil when there is none.
func (r *Reader) Collection(ctx context.Context, id int64) (*record.Collection, error) {
	rows, err := r.rows(ctx, "catalog.Collection",
		fmt.Sprintf(`SELECT * FROM library_collection WHERE %s = ? LIMIT 1`, r.idColumn), id)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	collection := record.CollectionFromRow(rows[0])
	return &collection, nil
}

// Sections lists the sections of a collection ordered by position.
func (r *Reader) Sections(ctx context.Context, collectionID int64) ([]record.Section, error) {
	rows, err := r.rows(ctx, "catalog.Sections",
		fmt.Sprintf(`SELECT * FROM library_section WHERE library_collection_id = ? ORDER BY position, %s`, r.idColumn),
		collectionID)
	if err != nil {
		return nil, err
	}
	sections := make([]record.Section, 0, len(rows))
	for _, row := range rows {
		sections = append(sections, record.SectionFromRow(row))
	}
	return sections, nil
}

// Collections lists the collections placed under any of sectionIDs,
// ordered by position.
func (r *Reader) Collections(ctx context.Context, sectionIDs []int64) ([]record.Collection, error) {
	if len(sectionIDs) == 0 {
		return []record.Collection{}, nil
	}
	rows, err := r.rows(ctx, "catalog.Collections",
		fmt.Sprintf(`SELECT * FROM library_collection WHERE library_section_id IN (%s) ORDER BY position, %s`,
			database.Placeholders(len(sectionIDs)), r.idColumn),
		database.Int64Args(sectionIDs)...)
	if err != nil {
		return nil, err
	}
	collections := make([]record.Collection, 0, len(rows))
	for _, row := range rows {
		collections = append(collections, record.CollectionFromRow(row))
	}
	return collections, nil
}

// Items lists the items listed under any of sectionIDs ordered by position.
// A nil sectionIDs lists every item in the catalog ordered by external id;
// an empty non-nil slice selects nothing.
func (r *Reader) Items(ctx context.Context, sectionIDs []int64) ([]record.Item, error) {
	var (
		query string
		args  []any
	)
	switch {
	case sectionIDs == nil:
		query = fmt.Sprintf(`SELECT * FROM item ORDER BY external_id, %s`, r.idColumn)
	case len(sectionIDs) == 0:
		return []record.Item{}, nil
	default:
		query = fmt.Sprintf(`SELECT item.*, library_item.*
			FROM library_item
			INNER JOIN item ON library_item.item_id = item.%[1]s
			WHERE library_item.library_section_id IN (%[2]s)
			ORDER BY library_item.position, library_item.%[1]s`,
			r.idColumn, database.Placeholders(len(sectionIDs)))
		args = database.Int64Args(sectionIDs)
	}

	rows, err := r.rows(ctx, "catalog.Items", query, args...)
	if err != nil {
		return nil, err
	}
	items := make([]record.Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, record.ItemFromRow(row))
	}
	return items, nil
}

// Nodes returns the children of sectionIDs: collections and items merged
// into one list ordered by position.
func (r *Reader) Nodes(ctx context.Context, sectionIDs []int64) ([]record.Node, error) {
	if len(sectionIDs) == 0 {
		return []record.Node{}, nil
	}
	collections, err := r.Collections(ctx, sectionIDs)
	if err != nil {
		return nil, err
	}
	items, err := r.Items(ctx, sectionIDs)
	if err != nil {
		return nil, err
	}
	return record.MergeNodes(collections, items), nil
}

// Item looks an item up by id or by uri and language code. It returns nil
// when nothing matches.
func (r *Reader) Item(ctx context.Context, q ItemQuery) (*record.Item, error) {
	const op = "catalog.Item"

	byID := q.ID != 0
	byURI := q.URI != ""
	switch {
	case byID && byURI:
		return nil, apperr.Errorf(apperr.InvalidArguments, op, "use either id or uri, not both")
	case !byID && !byURI:
		if q.Lang != "" {
			return nil, apperr.Errorf(apperr.InvalidArguments, op, "a language code needs a uri")
		}
		return nil, apperr.Errorf(apperr.InvalidArguments, op, "an id or a uri is required")
	}

	var (
		rows []record.Row
		err  error
	)
	if byID {
		if q.Lang != "" {
			return nil, apperr.Errorf(apperr.InvalidArguments, op, "a language code cannot be combined with an id")
		}
		rows, err = r.rows(ctx, op, fmt.Sprintf(`SELECT * FROM item WHERE %s = ? LIMIT 1`, r.idColumn), q.ID)
	} else {
		lang := q.Lang
		if lang == "" {
			lang = r.language
		}
		if lang == "" {
			return nil, apperr.Errorf(apperr.InvalidArguments, op, "a language code is required with a uri")
		}
		rows, err = r.rows(ctx, op, fmt.Sprintf(`SELECT item.*
			FROM item
			INNER JOIN language ON item.language_id = language.%[1]s
			WHERE item.uri = ? AND language.iso639_3 = ?
			ORDER BY item.%[1]s
			LIMIT 1`, r.idColumn), q.URI, lang)
	}
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	item := record.ItemFromRow(rows[0])
	return &item, nil
}
