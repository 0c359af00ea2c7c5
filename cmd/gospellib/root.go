package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gospelstudy/gospellib/internal/config"
	"github.com/gospelstudy/gospellib/internal/transport"
	"github.com/gospelstudy/gospellib/internal/usecase"
	"github.com/gospelstudy/gospellib/lib/schema"
)

var globals struct {
	baseURL        string
	schemaVersion  string
	language       string
	cacheDir       string
	catalogVersion int
	format         string
	verbose        bool
}

var rootCmd = &cobra.Command{
	Use:           "gospellib",
	Short:         "gospellib - read the Gospel Library content catalog",
	Long:          "gospellib fetches, caches and reads the published Gospel Library catalog and item packages.",
	SilenceUsage:  true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&globals.baseURL, "base-url", config.DefaultBaseURL, "Content CDN base url (env GOSPELLIB_BASE_URL)")
	flags.StringVar(&globals.schemaVersion, "schema", schema.Default, "Schema version (env GOSPELLIB_SCHEMA_VERSION)")
	flags.StringVar(&globals.language, "lang", "eng", "ISO 639-3 code or BCP 47 tag (env GOSPELLIB_LANGUAGE)")
	flags.StringVar(&globals.cacheDir, "cache-dir", "", "Cache directory (env GOSPELLIB_CACHE_DIR)")
	flags.IntVar(&globals.catalogVersion, "catalog-version", 0, "Pin the catalog version instead of resolving the current one")
	flags.StringVar(&globals.format, "format", "table", "Output format: table or json")
	flags.BoolVar(&globals.verbose, "verbose", false, "Log cache and network activity to stderr")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newLanguagesCmd())
	rootCmd.AddCommand(newItemsCmd())
	rootCmd.AddCommand(newItemCmd())
	rootCmd.AddCommand(newNodesCmd())
	rootCmd.AddCommand(newSubitemsCmd())
	rootCmd.AddCommand(newHTMLCmd())
	rootCmd.AddCommand(newRelatedCmd())
	rootCmd.AddCommand(newFetchCmd())
	rootCmd.AddCommand(newMCPCmd())
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if globals.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// loadConfig reads the environment and applies explicitly set flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.BaseURL = globals.baseURL
	}
	if flags.Changed("schema") {
		cfg.SchemaVersion = globals.schemaVersion
	}
	if flags.Changed("lang") {
		cfg.Language = globals.language
	}
	if flags.Changed("cache-dir") {
		cfg.CacheDir = globals.cacheDir
	}

	if cfg.Language, err = config.NormalizeLanguage(cfg.Language); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLibrary(cmd *cobra.Command) (*usecase.Library, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	v, err := cfg.Schema()
	if err != nil {
		return nil, err
	}

	logger := newLogger(cmd)
	client := transport.NewClient(transport.Options{
		Timeout:           cfg.HTTPTimeout,
		MaxRetries:        cfg.MaxRetries,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Logger:            logger,
	})

	return usecase.NewLibrary(usecase.Options{
		BaseURL:        cfg.BaseURL,
		Schema:         v,
		Language:       cfg.Language,
		CacheDir:       cfg.CacheDir,
		Client:         client,
		CatalogVersion: globals.catalogVersion,
		Logger:         logger,
	})
}

func checkFormat() error {
	switch globals.format {
	case "table", "json":
		return nil
	default:
		return fmt.Errorf("invalid format: %s (valid values: table, json)", globals.format)
	}
}
