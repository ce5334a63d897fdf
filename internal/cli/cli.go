package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/spacetime/pkg/buildinfo"
	"github.com/matzehuels/spacetime/pkg/cache"
	"github.com/matzehuels/spacetime/pkg/config"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "spacetime"

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

	cfg        config.Config
	configPath string
	verbose    bool
}

// New creates a new CLI instance with a default logger and the built-in
// configuration. The configuration file is read when a command runs.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Spacetime draws interactive Minkowski diagrams",
		Long: `Spacetime is a Minkowski diagram editor. Click cells to place events,
chain them into worldlines inside each other's light cones, and read off
relative speeds and proper times. Use it in the terminal, in the browser,
or replay scripted scenarios into SVG, PNG, PDF and more.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/spacetime/config.toml)")

	root.AddCommand(c.tuiCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the configuration, settles the log level and attaches the
// logger to the command context.
func (c *CLI) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	level := cfg.Level()
	if c.verbose {
		level = LogDebug
	}
	c.SetLogLevel(level)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(withLogger(ctx, c.Logger))
	return nil
}

// =============================================================================
// Cache Factory
// =============================================================================

// newCache opens the configured artifact cache backend.
func (c *CLI) newCache(ctx context.Context) (cache.Cache, error) {
	switch c.cfg.Cache {
	case config.CacheFile:
		dir, err := c.cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, c.cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return rc, nil
	}
	return cache.NewNullCache(), nil
}

// cacheDir returns the file cache directory.
func (c *CLI) cacheDir() (string, error) {
	return c.cfg.CacheDirectory()
}
