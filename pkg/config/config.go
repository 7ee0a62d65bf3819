// Package config loads envmanifest settings with viper.
//
// Settings come, in increasing precedence, from built-in defaults, an
// envmanifest.toml file, and ENVMANIFEST_* environment variables (dots in
// keys become underscores: cache.backend is ENVMANIFEST_CACHE_BACKEND).
// The file is looked up in the working directory and then in the user
// config directory unless an explicit path is given.
//
//	root     = "/srv/envmanifest"
//	sources  = "sources.yaml"
//	envs     = ["env.specs/*.yaml"]
//	platform = "linux-64"
//
//	[cache]
//	backend   = "redis"
//	redis_url = "redis://cache:6379/0"
//
//	[build]
//	command = "conda build --no-test"
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/spf13/viper"

	emerrors "github.com/matzehuels/envmanifest/pkg/errors"
)

const (
	// AppName is the application name used for directories and env prefixes.
	AppName = "envmanifest"
	// FileName is the config file name without extension.
	FileName = "envmanifest"
)

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config holds all settings.
type Config struct {
	Root     string      `mapstructure:"root"`
	Sources  string      `mapstructure:"sources"`
	Envs     []string    `mapstructure:"envs"`
	Platform string      `mapstructure:"platform"`
	Cache    CacheConfig `mapstructure:"cache"`
	Build    BuildConfig `mapstructure:"build"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend  string `mapstructure:"backend"`
	RedisURL string `mapstructure:"redis_url"`
	Dir      string `mapstructure:"dir"`
}

// BuildConfig configures the recipe builder.
type BuildConfig struct {
	// Command is the builder invocation; the recipe directory is appended
	// as the last argument.
	Command string `mapstructure:"command"`
}

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// File is an explicit config file. When set, it must exist.
	File string
	// Dirs overrides the directories searched for envmanifest.toml.
	Dirs []string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Root:     "build",
		Sources:  "sources.yaml",
		Envs:     []string{"env.specs/*.yaml"},
		Platform: DefaultPlatform(),
		Cache:    CacheConfig{Backend: BackendFile},
		Build:    BuildConfig{Command: "conda build"},
	}
}

// DefaultPlatform returns the platform subdirectory name for the running
// system, e.g. "linux-64" or "osx-arm64".
func DefaultPlatform() string {
	osName := runtime.GOOS
	if osName == "darwin" {
		osName = "osx"
	} else if osName == "windows" {
		osName = "win"
	}
	switch runtime.GOARCH {
	case "amd64":
		return osName + "-64"
	case "386":
		return osName + "-32"
	default:
		return osName + "-" + runtime.GOARCH
	}
}

// Load reads the configuration. It returns the config and the path of the
// file that was read, or "" when only defaults and environment applied.
func Load(opts LoadOptions) (*Config, string, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("root", defaults.Root)
	v.SetDefault("sources", defaults.Sources)
	v.SetDefault("envs", defaults.Envs)
	v.SetDefault("platform", defaults.Platform)
	v.SetDefault("cache.backend", defaults.Cache.Backend)
	v.SetDefault("cache.redis_url", defaults.Cache.RedisURL)
	v.SetDefault("cache.dir", defaults.Cache.Dir)
	v.SetDefault("build.command", defaults.Build.Command)

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.File != "" {
		if _, err := os.Stat(opts.File); err != nil {
			return nil, "", emerrors.Wrap(emerrors.ErrCodeFileNotFound, err, "config file %s", opts.File)
		}
		v.SetConfigFile(opts.File)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("toml")
		dirs := opts.Dirs
		if dirs == nil {
			dirs = searchDirs()
		}
		for _, d := range dirs {
			v.AddConfigPath(d)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, "", emerrors.Wrap(emerrors.ErrCodeInvalidConfig, err, "read config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", emerrors.Wrap(emerrors.ErrCodeInvalidConfig, err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, v.ConfigFileUsed(), nil
}

func searchDirs() []string {
	dirs := []string{"."}
	if dir, err := Dir(); err == nil {
		dirs = append(dirs, dir)
	}
	return dirs
}

// Dir returns the user config directory ($XDG_CONFIG_HOME/envmanifest).
func Dir() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", AppName), nil
}

// Validate checks settings that have a closed set of values.
func (c *Config) Validate() error {
	if c.Root == "" {
		return emerrors.New(emerrors.ErrCodeInvalidConfig, "root must not be empty")
	}
	if c.Platform == "" {
		return emerrors.New(emerrors.ErrCodeInvalidConfig, "platform must not be empty")
	}
	if !slices.Contains([]string{BackendFile, BackendRedis, BackendNone}, c.Cache.Backend) {
		return emerrors.New(emerrors.ErrCodeInvalidConfig,
			"cache.backend must be one of file, redis, none (got %q)", c.Cache.Backend)
	}
	if c.Cache.Backend == BackendRedis && c.Cache.RedisURL == "" {
		return emerrors.New(emerrors.ErrCodeInvalidConfig, "cache.redis_url is required for the redis backend")
	}
	if len(strings.Fields(c.Build.Command)) == 0 {
		return emerrors.New(emerrors.ErrCodeInvalidConfig, "build.command must not be empty")
	}
	return nil
}

// CacheDir returns the file cache directory: cache.dir when set, otherwise
// $XDG_CACHE_HOME/envmanifest or ~/.cache/envmanifest.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}
