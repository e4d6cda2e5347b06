package app

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/blackwell-systems/crashkeep/internal/archive"
	"github.com/blackwell-systems/crashkeep/internal/config"
	"github.com/blackwell-systems/crashkeep/internal/crash"
	"github.com/blackwell-systems/crashkeep/internal/crashstore"
)

// managerOptions are applied to every Manager the commands create.
var managerOptions []crash.Option

// loadConfig reads the config file and environment, then applies the
// global flags on top.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	if cacheDir != "" {
		cfg.Cache.Root = cacheDir
	}
	if archivePath != "" {
		cfg.Archive.Path = archivePath
	}
	if verbose {
		cfg.Log.Verbose = true
	}
	return cfg, nil
}

// newLogger returns a stderr logger when verbose output is on and a silent
// one otherwise.
func newLogger(cfg config.Config) *log.Logger {
	if cfg.Log.Verbose {
		return log.New(os.Stderr, "crashkeep: ", 0)
	}
	return log.New(io.Discard, "", 0)
}

func openCrashStore(cfg config.Config) *crashstore.Store {
	return crashstore.New(
		config.CacheRoot(cfg.Cache.Root),
		crashstore.SystemClock{},
		crashstore.WithLogger(newLogger(cfg)),
	)
}

func newManager(cfg config.Config) *crash.Manager {
	opts := append([]crash.Option{crash.WithLogger(newLogger(cfg))}, managerOptions...)
	return crash.New(openCrashStore(cfg), opts...)
}

// openArchive opens the archive database and makes sure its schema exists.
func openArchive(cfg config.Config) (*archive.Store, error) {
	st, err := archive.New(cfg.Archive.Path, archive.WithCompression(cfg.Archive.Compress))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	if err := st.CreateSchema(); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create archive schema: %w", err)
	}
	return st, nil
}

// archivedCount counts archived reports without creating the database.
func archivedCount(cfg config.Config) (int, error) {
	if _, err := os.Stat(cfg.Archive.Path); err != nil {
		return 0, err
	}
	st, err := archive.New(cfg.Archive.Path)
	if err != nil {
		return 0, err
	}
	defer st.Close()
	return st.Count()
}

// pendingEntries returns the records of every crash type.
func pendingEntries(store *crashstore.Store) []crashstore.Entry {
	var entries []crashstore.Entry
	for _, ct := range crashstore.Types {
		entries = append(entries, store.Entries(ct)...)
	}
	return entries
}

// parseCrashType accepts a crash type name in any case.
func parseCrashType(s string) (crashstore.CrashType, error) {
	for _, ct := range crashstore.Types {
		if strings.EqualFold(s, string(ct)) {
			return ct, nil
		}
	}
	return "", fmt.Errorf("unknown crash type %q (want signal or exception)", s)
}
