// Package schema describes the published archive/database layout for each
// content schema version: remote URL shapes, local cache layout, archive
// formats and the column names that differ between versions.
package schema

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gospelstudy/gospellib/lib/archive"
)

// Version is the strategy for one schema version. It is selected once when
// a reader is constructed; readers never branch on the version name.
type Version struct {
	Name string

	// LanguageCatalogs places catalogs and the index under
	// languages/{iso639_3}/.
	LanguageCatalogs bool
	// LanguagePackages places item packages under languages/{iso639_3}/.
	LanguagePackages bool

	CatalogFormat archive.Format
	PackageFormat archive.Format

	CatalogFile string
	PackageFile string

	// CatalogIDColumn and PackageIDColumn name the internal row id.
	CatalogIDColumn string
	PackageIDColumn string

	// RangeTable holds paragraph byte ranges into subitem_content.
	RangeTable string
	// ContentColumn holds the HTML blob in subitem_content.
	ContentColumn string
}

// Kind distinguishes the two archive families in the cache layout.
type Kind string

const (
	KindCatalog     Kind = "catalogs"
	KindItemPackage Kind = "item_packages"
)

var legacy = Version{
	CatalogFormat:   archive.Zip,
	PackageFormat:   archive.Zip,
	CatalogFile:     "Catalog.sqlite",
	PackageFile:     "package.sqlite",
	CatalogIDColumn: "_id",
	PackageIDColumn: "_id",
	RangeTable:      "subitem_content_range",
	ContentColumn:   "content",
}

var current = Version{
	LanguageCatalogs: true,
	CatalogFormat:    archive.XZ,
	PackageFormat:    archive.Zip,
	CatalogFile:      "Catalog.sqlite",
	PackageFile:      "package.sqlite",
	CatalogIDColumn:  "id",
	PackageIDColumn:  "_id",
	RangeTable:       "paragraph_metadata",
	ContentColumn:    "content_html",
}

var known = map[string]Version{
	"2.0.2": named(legacy, "2.0.2"),
	"2.0.3": named(legacy, "2.0.3"),
	"v3":    named(current, "v3"),
	"v4":    named(current, "v4"),
}

// Default is the schema version used when none is configured.
const Default = "v4"

func named(v Version, name string) Version {
	v.Name = name
	return v
}

// Lookup returns the strategy for a schema version name.
func Lookup(name string) (Version, error) {
	v, ok := known[name]
	if !ok {
		return Version{}, fmt.Errorf("unknown schema version: %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return v, nil
}

// MustLookup is Lookup for compile-time constants.
func MustLookup(name string) Version {
	v, err := Lookup(name)
	if err != nil {
		panic(err)
	}
	return v
}

// Names lists the known schema versions in sorted order.
func Names() []string {
	names := make([]string, 0, len(known))
	for name := range known {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that language is usable for this schema.
func (v Version) Validate(language string) error {
	if v.Name == "" {
		return fmt.Errorf("schema version is required")
	}
	if v.LanguageCatalogs || v.LanguagePackages {
		if strings.TrimSpace(language) == "" {
			return fmt.Errorf("schema %s requires a language code", v.Name)
		}
		if strings.ContainsAny(language, `/\.`) {
			return fmt.Errorf("invalid language code: %q", language)
		}
	}
	return nil
}

// IndexURL is the index.json endpoint carrying catalogVersion.
func (v Version) IndexURL(baseURL, language string) string {
	return join(baseURL, v.catalogPrefix(language), "index.json")
}

// LanguagesURL lists every published language.
func (v Version) LanguagesURL(baseURL string) string {
	return join(baseURL, v.Name, "languages", "languages.json")
}

// CatalogURL is the remote catalog archive for a catalog version.
func (v Version) CatalogURL(baseURL, language string, version int) string {
	return join(baseURL, v.catalogPrefix(language), "catalogs", strconv.Itoa(version)+"."+v.CatalogFormat.String())
}

// PackageURL is the remote item package archive.
func (v Version) PackageURL(baseURL, language, itemID string, version int) string {
	return join(baseURL, v.packagePrefix(language), "item-packages", itemID, strconv.Itoa(version)+"."+v.PackageFormat.String())
}

// CatalogKeyPath is the cache directory (relative to the cache root) of a
// catalog version.
func (v Version) CatalogKeyPath(language string, version int) string {
	parts := []string{v.Name}
	if v.LanguageCatalogs {
		parts = append(parts, "languages", language)
	}
	parts = append(parts, string(KindCatalog), strconv.Itoa(version))
	return filepath.Join(parts...)
}

// PackageKeyPath is the cache directory (relative to the cache root) of an
// item package version.
func (v Version) PackageKeyPath(language, itemID string, version int) string {
	parts := []string{v.Name}
	if v.LanguagePackages {
		parts = append(parts, "languages", language)
	}
	parts = append(parts, string(KindItemPackage), sanitizeForFile(itemID), strconv.Itoa(version))
	return filepath.Join(parts...)
}

// AssetBase is the URL that relative rendition paths resolve against.
func (v Version) AssetBase(baseURL string) (*url.URL, error) {
	u, err := url.Parse(join(baseURL, v.Name) + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	return u, nil
}

func (v Version) catalogPrefix(language string) string {
	if v.LanguageCatalogs {
		return path.Join(v.Name, "languages", language)
	}
	return v.Name
}

func (v Version) packagePrefix(language string) string {
	if v.LanguagePackages {
		return path.Join(v.Name, "languages", language)
	}
	return v.Name
}

func join(baseURL string, parts ...string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + path.Join(parts...)
}

// sanitizeForFile keeps external ids usable as a single directory name.
func sanitizeForFile(value string) string {
	return strings.NewReplacer("/", "-", `\`, "-", ":", "-", "..", "-").Replace(value)
}
