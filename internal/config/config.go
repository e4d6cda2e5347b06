// Package config provides configuration loading for crashkeep.
//
// Settings come from, in increasing priority: built-in defaults, an optional
// TOML file ($XDG_CONFIG_HOME/crashkeep/config.toml, or the file named by
// CRASHKEEP_CONFIG), and CRASHKEEP_* environment variables
// (e.g. CRASHKEEP_CACHE_ROOT, CRASHKEEP_ARCHIVE_PATH).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds crashkeep settings.
type Config struct {
	Cache   CacheConfig
	Archive ArchiveConfig
	Log     LogConfig
}

// CacheConfig controls where crash reports are stored.
type CacheConfig struct {
	// Root replaces the OS cache directory when set.
	Root string
}

// ArchiveConfig controls the SQLite archive of harvested reports.
type ArchiveConfig struct {
	Path     string
	Compress bool
}

// LogConfig controls diagnostic output.
type LogConfig struct {
	Verbose bool
}

// Dir returns the crashkeep config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/crashkeep if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "crashkeep"), nil
}

// DataDir returns the crashkeep data directory, respecting XDG_DATA_HOME.
// Defaults to ~/.local/share/crashkeep.
func DataDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "crashkeep"), nil
}

// Load reads configuration. path names a config file explicitly; when empty,
// CRASHKEEP_CONFIG and then the default location are tried, and a missing
// file is not an error.
func Load(path string) (Config, error) {
	v := viper.New()

	archivePath := "archive.db"
	if dataDir, err := DataDir(); err == nil {
		archivePath = filepath.Join(dataDir, "archive.db")
	}
	v.SetDefault("cache.root", "")
	v.SetDefault("archive.path", archivePath)
	v.SetDefault("archive.compress", true)
	v.SetDefault("log.verbose", false)

	v.SetConfigType("toml")
	if path == "" {
		path = os.Getenv("CRASHKEEP_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else if dir, err := Dir(); err == nil {
		v.AddConfigPath(dir)
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("CRASHKEEP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// CacheRoot resolves the root under which crash reports are stored. The
// empty value resolves to the OS cache directory (os.UserCacheDir).
type CacheRoot string

// CacheRoot implements crashstore.PathProvider.
func (c CacheRoot) CacheRoot() (string, error) {
	if c != "" {
		return string(c), nil
	}
	return os.UserCacheDir()
}
