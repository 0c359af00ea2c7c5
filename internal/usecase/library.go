package usecase

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gospelstudy/gospellib/lib/apperr"
	"github.com/gospelstudy/gospellib/lib/cache"
	"github.com/gospelstudy/gospellib/lib/catalog"
	"github.com/gospelstudy/gospellib/lib/index"
	"github.com/gospelstudy/gospellib/lib/itempackage"
	"github.com/gospelstudy/gospellib/lib/record"
	"github.com/gospelstudy/gospellib/lib/schema"
)

// Doer issues HTTP requests.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Library.
type Options struct {
	BaseURL  string
	Schema   schema.Version
	Language string
	CacheDir string
	Client   Doer
	// CatalogVersion pins the catalog; zero resolves the current one.
	CatalogVersion int
	Logger         *slog.Logger
}

// Library composes the resolver, the cache store and the readers into the
// operations the front ends expose.
type Library struct {
	opts     Options
	store    *cache.Store
	resolver *index.Resolver
	logger   *slog.Logger
}

// NewLibrary wires the library components.
func NewLibrary(opts Options) (*Library, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := opts.Schema.Validate(opts.Language); err != nil {
		return nil, apperr.E(apperr.InvalidArguments, "usecase.NewLibrary", err)
	}

	store, err := cache.NewStore(cache.Options{Root: opts.CacheDir, Client: opts.Client, Logger: logger})
	if err != nil {
		return nil, err
	}
	resolver, err := index.New(index.Options{BaseURL: opts.BaseURL, Client: opts.Client, Logger: logger})
	if err != nil {
		return nil, err
	}

	return &Library{opts: opts, store: store, resolver: resolver, logger: logger}, nil
}

// CatalogVersion returns the pinned catalog version or resolves the
// current one.
func (l *Library) CatalogVersion(ctx context.Context) (int, error) {
	if l.opts.CatalogVersion > 0 {
		return l.opts.CatalogVersion, nil
	}
	return l.resolver.CurrentVersion(ctx, l.opts.Language, l.opts.Schema)
}

// RemoteLanguages lists the languages the CDN publishes.
func (l *Library) RemoteLanguages(ctx context.Context) ([]index.RemoteLanguage, error) {
	return l.resolver.Languages(ctx, l.opts.Schema)
}

// WithCatalog opens the catalog for the duration of fn.
func (l *Library) WithCatalog(ctx context.Context, fn func(version int, r *catalog.Reader) error) error {
	version, err := l.CatalogVersion(ctx)
	if err != nil {
		return err
	}
	return l.withCatalogVersion(ctx, version, fn)
}

func (l *Library) withCatalogVersion(ctx context.Context, version int, fn func(version int, r *catalog.Reader) error) error {
	r, err := catalog.Open(ctx, catalog.Options{
		Schema:   l.opts.Schema,
		Language: l.opts.Language,
		Version:  version,
		BaseURL:  l.opts.BaseURL,
		Store:    l.store,
		Logger:   l.logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = r.Close()
	}()
	return fn(version, r)
}

// Languages lists the languages recorded in the catalog.
func (l *Library) Languages(ctx context.Context) ([]record.Language, error) {
	var languages []record.Language
	err := l.WithCatalog(ctx, func(_ int, r *catalog.Reader) error {
		var err error
		languages, err = r.Languages(ctx)
		return err
	})
	return languages, err
}

// Items lists items; see catalog.Reader.Items for the sectionIDs contract.
func (l *Library) Items(ctx context.Context, sectionIDs []int64) ([]record.Item, error) {
	var items []record.Item
	err := l.WithCatalog(ctx, func(_ int, r *catalog.Reader) error {
		var err error
		items, err = r.Items(ctx, sectionIDs)
		return err
	})
	return items, err
}

// Nodes lists the merged children of sectionIDs.
func (l *Library) Nodes(ctx context.Context, sectionIDs []int64) ([]record.Node, error) {
	var nodes []record.Node
	err := l.WithCatalog(ctx, func(_ int, r *catalog.Reader) error {
		var err error
		nodes, err = r.Nodes(ctx, sectionIDs)
		return err
	})
	return nodes, err
}

// Item looks up an item and fails with NotFound when there is none.
func (l *Library) Item(ctx context.Context, q catalog.ItemQuery) (*record.Item, error) {
	version, err := l.CatalogVersion(ctx)
	if err != nil {
		return nil, err
	}
	return l.itemAt(ctx, version, q)
}

func (l *Library) itemAt(ctx context.Context, version int, q catalog.ItemQuery) (*record.Item, error) {
	var item *record.Item
	err := l.withCatalogVersion(ctx, version, func(_ int, r *catalog.Reader) error {
		var err error
		item, err = r.Item(ctx, q)
		return err
	})
	if err != nil {
		return nil, err
	}
	if item == nil {
		if q.URI != "" {
			return nil, apperr.Errorf(apperr.NotFound, "usecase.Item", "no item with uri %s", q.URI)
		}
		return nil, apperr.Errorf(apperr.NotFound, "usecase.Item", "no item with id %d", q.ID)
	}
	return item, nil
}

// OpenPackage opens the package of item at the version the catalog lists.
// The caller closes the reader.
func (l *Library) OpenPackage(ctx context.Context, item *record.Item) (*itempackage.Reader, error) {
	if item == nil {
		return nil, apperr.Errorf(apperr.InvalidArguments, "usecase.OpenPackage", "item is required")
	}
	return itempackage.Open(ctx, itempackage.Options{
		ItemID:      item.ExternalID,
		ItemVersion: item.Version,
		Language:    l.opts.Language,
		Schema:      l.opts.Schema,
		BaseURL:     l.opts.BaseURL,
		Store:       l.store,
		Logger:      l.logger,
	})
}

// WithPackage resolves itemURI in the catalog and opens its package for
// the duration of fn.
func (l *Library) WithPackage(ctx context.Context, itemURI string, fn func(item *record.Item, r *itempackage.Reader) error) error {
	item, err := l.Item(ctx, catalog.ItemQuery{URI: itemURI})
	if err != nil {
		return err
	}
	return l.withItemPackage(ctx, item, fn)
}

func (l *Library) withItemPackage(ctx context.Context, item *record.Item, fn func(item *record.Item, r *itempackage.Reader) error) error {
	r, err := l.OpenPackage(ctx, item)
	if err != nil {
		return err
	}
	defer func() {
		_ = r.Close()
	}()
	return fn(item, r)
}

// Subitems lists the subitems of the item at itemURI.
func (l *Library) Subitems(ctx context.Context, itemURI string) ([]record.Subitem, error) {
	var subitems []record.Subitem
	err := l.WithPackage(ctx, itemURI, func(_ *record.Item, r *itempackage.Reader) error {
		var err error
		subitems, err = r.Subitems(ctx)
		return err
	})
	return subitems, err
}

// HTML returns subitem or paragraph HTML from the item at itemURI.
func (l *Library) HTML(ctx context.Context, itemURI, subitemURI, paragraphID string) (string, error) {
	var html string
	err := l.WithPackage(ctx, itemURI, func(_ *record.Item, r *itempackage.Reader) error {
		var err error
		html, err = r.HTML(ctx, subitemURI, paragraphID)
		return err
	})
	return html, err
}

// Related groups the media and cross references of one subitem.
type Related struct {
	Audio   []record.RelatedAudioItem   `json:"audio"`
	Video   []record.RelatedVideoItem   `json:"video"`
	Content []record.RelatedContentItem `json:"content"`
}

// Related lists everything attached to subitemID in the item at itemURI.
func (l *Library) Related(ctx context.Context, itemURI string, subitemID int64) (*Related, error) {
	related := &Related{}
	err := l.WithPackage(ctx, itemURI, func(_ *record.Item, r *itempackage.Reader) error {
		var err error
		if related.Audio, err = r.RelatedAudioItems(ctx, subitemID); err != nil {
			return err
		}
		if related.Video, err = r.RelatedVideoItems(ctx, subitemID); err != nil {
			return err
		}
		related.Content, err = r.RelatedContentItems(ctx, subitemID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return related, nil
}

// FetchResult describes a materialized package.
type FetchResult struct {
	CatalogVersion int          `json:"catalogVersion"`
	Item           *record.Item `json:"item"`
	Path           string       `json:"path"`
	FileID         string       `json:"fileId,omitempty"`
}

// Fetch materializes the catalog and the package of the item at itemURI.
// The item is read from the catalog version reported in the result.
func (l *Library) Fetch(ctx context.Context, itemURI string) (*FetchResult, error) {
	version, err := l.CatalogVersion(ctx)
	if err != nil {
		return nil, err
	}
	item, err := l.itemAt(ctx, version, catalog.ItemQuery{URI: itemURI})
	if err != nil {
		return nil, err
	}

	result := &FetchResult{CatalogVersion: version}
	err = l.withItemPackage(ctx, item, func(item *record.Item, r *itempackage.Reader) error {
		result.Item = item
		result.Path = r.Path()
		id, _, err := r.FileID(ctx)
		result.FileID = id
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
