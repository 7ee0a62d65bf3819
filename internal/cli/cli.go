// Package cli implements the envmanifest command-line interface.
//
// # Commands
//
// The commands follow the life of an environment:
//   - resolve: decide which source supplies each package and materialize
//     the chosen recipes
//   - matrix: show the build cases of each materialized recipe
//   - build: build every case not yet in its source's index
//   - realise: write the locked manifest and the environment's index
//   - deploy: plan linking a manifest into an install prefix
//   - graph: draw the resolved dependency graph
//   - cache: manage the matrix and manifest cache
//
// Every command reads envmanifest.toml (see package config) and accepts
// environment names as arguments; with none, all environments matching the
// configured env spec globs are processed.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/envmanifest/pkg/buildinfo"
	"github.com/matzehuels/envmanifest/pkg/cache"
	"github.com/matzehuels/envmanifest/pkg/config"
	"github.com/matzehuels/envmanifest/pkg/errors"
	"github.com/matzehuels/envmanifest/pkg/pipeline"
	"github.com/matzehuels/envmanifest/pkg/source"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configFile string
	noCache    bool
	refresh    bool
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
		Use:   "envmanifest",
		Short: "envmanifest builds locked environments from layered recipe sources",
		Long: `envmanifest resolves which of several overlapping recipe sources supplies each
package of an environment, builds the missing distributions for every
required interpreter/numpy combination, and writes a locked manifest plus an
installable index.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "config file (default: ./envmanifest.toml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the matrix and manifest cache")
	root.PersistentFlags().BoolVar(&c.refresh, "refresh", false, "recompute cached results")

	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.matrixCommand())
	root.AddCommand(c.buildCommand())
	root.AddCommand(c.realiseCommand())
	root.AddCommand(c.deployCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// workspace is the loaded configuration of one invocation.
type workspace struct {
	cfg      *config.Config
	registry source.Registry
	envs     []source.Environment
}

// loadConfig reads the config file and settings.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, used, err := config.Load(config.LoadOptions{File: c.configFile})
	if err != nil {
		return nil, err
	}
	if used != "" {
		c.Logger.Debug("Loaded config", "file", used)
	}
	return cfg, nil
}

// loadWorkspace reads the config, the source registry and the environments
// named in names (all environments when names is empty).
func (c *CLI) loadWorkspace(names []string) (*workspace, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	reg, err := source.LoadSources(cfg.Sources)
	if err != nil {
		return nil, err
	}
	envs, err := source.LoadEnvironments(cfg.Envs, reg)
	if err != nil {
		return nil, err
	}
	envs, err = selectEnvs(envs, names)
	if err != nil {
		return nil, err
	}
	return &workspace{cfg: cfg, registry: reg, envs: envs}, nil
}

// selectEnvs keeps the environments named in names, in the order given.
func selectEnvs(envs []source.Environment, names []string) ([]source.Environment, error) {
	if len(names) == 0 {
		return envs, nil
	}
	out := make([]source.Environment, 0, len(names))
	for _, name := range names {
		i := slices.IndexFunc(envs, func(e source.Environment) bool { return e.Name == name })
		if i < 0 {
			return nil, errors.New(errors.ErrCodeNotFound, "no environment named %q", name)
		}
		out = append(out, envs[i])
	}
	return out, nil
}

// options returns the pipeline options of the workspace.
func (c *CLI) options(ws *workspace) pipeline.Options {
	return pipeline.Options{
		Registry: ws.registry,
		Layout:   ws.cfg.Layout(),
		Refresh:  c.refresh,
		Logger:   c.Logger,
	}
}

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), cfg.Platform+":")
	return pipeline.NewRunner(cc, keyer, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL, config.AppName+":")
		if err != nil {
			return nil, fmt.Errorf("connect cache: %w", err)
		}
		return rc, nil
	case config.BackendFile:
		dir, err := cfg.CacheDir()
		if err != nil {
			c.Logger.Warn("No cache directory, caching disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	default:
		return cache.NewNullCache(), nil
	}
}
