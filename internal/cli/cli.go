// Package cli implements the forger command-line interface.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/enowx/forger/internal/config"
	"github.com/enowx/forger/pkg/buildinfo"
	"github.com/enowx/forger/pkg/kv"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "forger"

	// svgCacheTTL bounds how long fetched vector sources stay cached on disk.
	svgCacheTTL = 7 * 24 * time.Hour
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	cfg   config.Config
	flags globalFlags
}

// globalFlags override environment configuration for one invocation.
type globalFlags struct {
	apiBase string
	timeout time.Duration
	store   string
	noCache bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Forger fetches, converts and generates icons",
		Long: `Forger browses the Iconify catalog, downloads icons as SVG, PNG or JPEG,
downloads whole collections in paced batches and generates platform icon sets
(Tauri, Electron, Android, ...) from a single source image.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return c.loadConfig(cmd)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVar(&c.flags.apiBase, "api", "", "catalog API base URL (env FORGER_API_BASE)")
	pf.DurationVar(&c.flags.timeout, "timeout", 0, "per-request timeout (env FORGER_HTTP_TIMEOUT)")
	pf.StringVar(&c.flags.store, "store", "", "persistence backend: file, sqlite, redis, mongo (env FORGER_STORE)")
	pf.BoolVar(&c.flags.noCache, "no-cache", false, "do not cache vector sources")

	// Register all subcommands
	root.AddCommand(c.collectionsCommand())
	root.AddCommand(c.iconsCommand())
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.downloadCommand())
	root.AddCommand(c.downloadCollectionCommand())
	root.AddCommand(c.favoritesCommand())
	root.AddCommand(c.generateCommand())
	root.AddCommand(c.settingsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the environment and applies flags that were set.
func (c *CLI) loadConfig(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("api") {
		cfg.APIBase = c.flags.apiBase
	}
	if flags.Changed("timeout") {
		cfg.HTTPTimeout = c.flags.timeout
	}
	if flags.Changed("store") {
		cfg.Store = kv.Kind(c.flags.store)
	}
	if c.flags.noCache {
		cfg.SVGCache = config.SVGCacheNone
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}
