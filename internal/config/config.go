// Package config resolves runtime settings for the command-line and MCP
// front ends from the environment. The library packages never read it;
// they receive every setting through their constructor options.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v11"
	"golang.org/x/text/language"

	"github.com/gospelstudy/gospellib/lib/schema"
)

// DefaultBaseURL is the production content CDN.
const DefaultBaseURL = "https://edge.ldscdn.org/mobile/GospelStudy/production"

// Config holds the front-end settings.
type Config struct {
	BaseURL       string `env:"GOSPELLIB_BASE_URL" envDefault:"https://edge.ldscdn.org/mobile/GospelStudy/production"`
	SchemaVersion string `env:"GOSPELLIB_SCHEMA_VERSION" envDefault:"v4"`
	Language      string `env:"GOSPELLIB_LANGUAGE" envDefault:"eng"`
	// CacheDir defaults to GetCacheDir when unset.
	CacheDir string `env:"GOSPELLIB_CACHE_DIR"`

	HTTPTimeout       time.Duration `env:"GOSPELLIB_HTTP_TIMEOUT" envDefault:"60s"`
	MaxRetries        uint          `env:"GOSPELLIB_MAX_RETRIES" envDefault:"3"`
	RequestsPerSecond float64       `env:"GOSPELLIB_REQUESTS_PER_SECOND" envDefault:"10"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = GetCacheDir()
	}
	return cfg, nil
}

// Validate checks the settings that the readers cannot check themselves.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("config: base url is required")
	}
	if c.CacheDir == "" {
		return fmt.Errorf("config: cache directory is required")
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("config: requests per second must not be negative")
	}
	v, err := c.Schema()
	if err != nil {
		return err
	}
	return v.Validate(c.Language)
}

// Schema returns the configured schema strategy.
func (c *Config) Schema() (schema.Version, error) {
	v, err := schema.Lookup(c.SchemaVersion)
	if err != nil {
		return schema.Version{}, fmt.Errorf("config: %w", err)
	}
	return v, nil
}

// NormalizeLanguage returns the ISO 639-3 code the CDN paths use. Three
// letter codes pass through unchanged; anything else is parsed as a BCP 47
// tag, so "es" and "pt-BR" become "spa" and "por".
func NormalizeLanguage(code string) (string, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return "", fmt.Errorf("config: language is required")
	}
	if isISO3(code) {
		return code, nil
	}

	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("config: invalid language %q: %w", code, err)
	}
	base, _ := tag.Base()
	iso3 := base.ISO3()
	if !isISO3(iso3) {
		return "", fmt.Errorf("config: language %q has no ISO 639-3 code", code)
	}
	return iso3, nil
}

func isISO3(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// GetCacheDir resolves the default cache root: XDG cache home first, then
// the user's home directory, then the temp dir.
func GetCacheDir() string {
	xdg.Reload()

	cacheHome := xdg.CacheHome
	if cacheHome == "" {
		home := xdg.Home
		if home == "" {
			var err error
			home, err = os.UserHomeDir()
			if err != nil {
				return filepath.Join(os.TempDir(), "gospellib")
			}
		}
		cacheHome = filepath.Join(home, ".cache")
	}

	return filepath.Join(cacheHome, "gospellib")
}
