package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// CDN is an in-memory content server that counts requests per path.
type CDN struct {
	*httptest.Server

	mu     sync.Mutex
	files  map[string][]byte
	status map[string]int
	hits   map[string]int
	gates  map[string]chan struct{}
}

// NewCDN starts an empty CDN that is closed with the test.
func NewCDN(t testing.TB) *CDN {
	t.Helper()

	c := &CDN{
		files:  make(map[string][]byte),
		status: make(map[string]int),
		hits:   make(map[string]int),
		gates:  make(map[string]chan struct{}),
	}
	c.Server = httptest.NewServer(http.HandlerFunc(c.serve))
	t.Cleanup(c.Close)
	return c
}

func (c *CDN) serve(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	c.hits[r.URL.Path]++
	body, ok := c.files[r.URL.Path]
	status := c.status[r.URL.Path]
	gate := c.gates[r.URL.Path]
	c.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	if status != 0 {
		w.WriteHeader(status)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write(body)
}

// Put publishes body at path.
func (c *CDN) Put(path string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files[path] = body
}

// PutJSON publishes the JSON encoding of v at path.
func (c *CDN) PutJSON(t testing.TB, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to encode %s: %v", path, err)
	}
	c.Put(path, data)
}

// Fail makes path answer with status regardless of its content.
func (c *CDN) Fail(path string, status int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status[path] = status
}

// Hold blocks requests to path until the returned release func is called.
// Release is also registered as a test cleanup.
func (c *CDN) Hold(t testing.TB, path string) (release func()) {
	t.Helper()
	gate := make(chan struct{})
	c.mu.Lock()
	c.gates[path] = gate
	c.mu.Unlock()

	var once sync.Once
	release = func() {
		once.Do(func() { close(gate) })
	}
	t.Cleanup(release)
	return release
}

// WaitForHits blocks until path has received at least n requests.
func (c *CDN) WaitForHits(t testing.TB, path string, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for c.Hits(path) < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d requests to %s, got %d", n, path, c.Hits(path))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// Hits returns how many requests path received.
func (c *CDN) Hits(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits[path]
}

// TotalHits returns the number of requests served.
func (c *CDN) TotalHits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, n := range c.hits {
		total += n
	}
	return total
}

// Library paths published by NewLibraryCDN.
var (
	IndexPath     = fmt.Sprintf("/v4/languages/%s/index.json", "eng")
	LanguagesPath = "/v4/languages/languages.json"
	CatalogPath   = fmt.Sprintf("/v4/languages/eng/catalogs/%d.xz", CatalogVersion)
	PackagePath   = fmt.Sprintf("/v4/item-packages/%s/%d.zip", BofmExternalID, BofmVersion)
)

// NewLibraryCDN serves the seeded v4 library: the English index, the
// languages list, catalog version CatalogVersion and the Book of Mormon
// item package at BofmVersion.
func NewLibraryCDN(t testing.TB) *CDN {
	t.Helper()

	dir := t.TempDir()
	cdn := NewCDN(t)
	cdn.PutJSON(t, IndexPath, map[string]any{"catalogVersion": CatalogVersion})
	cdn.PutJSON(t, LanguagesPath, []map[string]any{
		{"id": 1, "iso639_3Code": "eng", "bcp47Code": "en", "name": "English", "ldsCode": "000"},
		{"id": 3, "iso639_3Code": "spa", "bcp47Code": "es", "name": "Español", "ldsCode": "002"},
	})
	cdn.Put(CatalogPath, XZFile(t, BuildCatalog(t, dir)))
	cdn.Put(PackagePath, ZipFiles(t, BuildPackage(t, dir)))
	return cdn
}
