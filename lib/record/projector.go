package record

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gospelstudy/gospellib/lib/apperr"
)

// RawPrefix is prepended to a rendition column name to hold the original
// packed string.
const RawPrefix = "raw_"

// DefaultRenditionColumns are the columns known to hold packed rendition
// lists.
var DefaultRenditionColumns = []string{"cover_renditions", "item_cover_renditions", "image_renditions"}

var versionColumns = map[string]bool{"version": true, "latest_version": true}

// Rendition is one sized variant of an image.
type Rendition struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	URL    string `json:"url"`
}

// Projector converts raw rows into Rows. It is safe for concurrent use.
type Projector struct {
	base       *url.URL
	idColumn   string
	renditions map[string]bool
}

// NewProjector returns a Projector resolving rendition URLs against base.
// idColumn is the storage name of the row id ("_id" or "id").
func NewProjector(base *url.URL, idColumn string, renditionColumns ...string) *Projector {
	if len(renditionColumns) == 0 {
		renditionColumns = DefaultRenditionColumns
	}
	special := make(map[string]bool, len(renditionColumns))
	for _, name := range renditionColumns {
		special[name] = true
	}
	if idColumn == "" {
		idColumn = "id"
	}
	return &Projector{base: base, idColumn: idColumn, renditions: special}
}

// Project builds a Row from parallel column/value slices. When a column
// name repeats (SELECT a.*, b.*), the first occurrence wins.
func (p *Projector) Project(columns []string, values []any) (Row, error) {
	row := make(Row, len(columns)+1)
	for i, name := range columns {
		if name == p.idColumn || name == "_id" {
			name = "id"
		}
		if _, seen := row[name]; seen {
			continue
		}

		value := normalize(values[i])

		if versionColumns[name] && value != nil {
			if _, seen := row["version"]; !seen {
				row["version"] = value
			}
		}

		if p.renditions[name] && value != nil {
			raw := stringValue(value)
			parsed, err := p.ParseRenditions(raw)
			if err != nil {
				return nil, apperr.E(apperr.MalformedRecord, "record.Project", fmt.Errorf("column %s: %w", name, err))
			}
			row[name] = parsed
			row[RawPrefix+name] = raw
			continue
		}

		row[name] = value
	}
	return row, nil
}

// ParseRenditions expands a newline-delimited list of
// "WIDTHxHEIGHT,relativeUrl" entries.
func (p *Projector) ParseRenditions(raw string) ([]Rendition, error) {
	raw = strings.TrimRight(raw, "\r\n")
	if raw == "" {
		return []Rendition{}, nil
	}

	lines := strings.Split(raw, "\n")
	result := make([]Rendition, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSuffix(line, "\r")

		size, rel, ok := strings.Cut(line, ",")
		if !ok {
			return nil, fmt.Errorf("rendition %q: missing ','", line)
		}
		w, h, ok := strings.Cut(size, "x")
		if !ok {
			return nil, fmt.Errorf("rendition %q: missing 'x' in size", line)
		}
		width, err := strconv.Atoi(w)
		if err != nil {
			return nil, fmt.Errorf("rendition %q: invalid width: %w", line, err)
		}
		height, err := strconv.Atoi(h)
		if err != nil {
			return nil, fmt.Errorf("rendition %q: invalid height: %w", line, err)
		}
		abs, err := p.resolve(rel)
		if err != nil {
			return nil, fmt.Errorf("rendition %q: %w", line, err)
		}
		result = append(result, Rendition{Width: width, Height: height, URL: abs})
	}
	return result, nil
}

func (p *Projector) resolve(rel string) (string, error) {
	ref, err := url.Parse(rel)
	if err != nil {
		return "", err
	}
	if p.base == nil {
		return ref.String(), nil
	}
	return p.base.ResolveReference(ref).String(), nil
}

// normalize maps driver values to the set documented on Row.
func normalize(v any) any {
	switch t := v.(type) {
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case float32:
		return float64(t)
	case []byte:
		if t == nil {
			return nil
		}
		return append([]byte(nil), t...)
	default:
		return v
	}
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}
