// Package crashstore persists crash reports as flat text files.
//
// Records live under a fixed namespace inside the user's cache directory:
//
//	<cache-root>/CrashManager/Signal/<yyMMdd-HHmmss>.txt
//	<cache-root>/CrashManager/Exception/<yyMMdd-HHmmss>.txt
//
// The dominant caller is a process that is about to terminate, so no Store
// method returns an error. Failures are absorbed (optionally logged) and show
// up only as missing records. Directories are created lazily on the first
// write, and every read or delete treats a missing directory as empty.
package crashstore

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Namespace is the directory under the cache root that holds all records.
const Namespace = "CrashManager"

// RecordExt is the suffix every record carries. Listing and deletion filter
// on it and never look at file content.
const RecordExt = ".txt"

// CrashType tags a record with the condition that produced it. The value is
// also the name of the record's sub-directory.
type CrashType string

const (
	Signal    CrashType = "Signal"
	Exception CrashType = "Exception"
)

// Types lists every crash type in harvest order.
var Types = []CrashType{Signal, Exception}

// PathProvider resolves the cache root. It is the OS path service and is not
// implemented by this package.
type PathProvider interface {
	CacheRoot() (string, error)
}

// Clock produces the sortable, filename-safe timestamp used as a record name.
type Clock interface {
	Timestamp() string
}

// TimestampLayout is yyMMdd-HHmmss. Two records saved within the same second
// share a name and the later one silently replaces the earlier.
const TimestampLayout = "060102-150405"

// SystemClock formats the local wall clock with TimestampLayout.
type SystemClock struct{}

// Timestamp returns the current local time as yyMMdd-HHmmss.
func (SystemClock) Timestamp() string {
	return time.Now().Format(TimestampLayout)
}

// Entry describes a stored record without reading its body.
type Entry struct {
	Type    CrashType
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// Store provides create, list, read and delete operations on crash records.
type Store struct {
	paths  PathProvider
	clock  Clock
	logger *log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger reports absorbed failures to l.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Store. A nil clock falls back to SystemClock.
func New(paths PathProvider, clock Clock, opts ...Option) *Store {
	if clock == nil {
		clock = SystemClock{}
	}
	s := &Store{
		paths:  paths,
		clock:  clock,
		logger: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the directory that holds records of type ct. It fails only when
// the cache root itself cannot be resolved.
func (s *Store) Dir(ct CrashType) (string, error) {
	if s.paths == nil {
		return "", ErrStorageUnavailable
	}
	root, err := s.paths.CacheRoot()
	if err != nil || root == "" {
		return "", ErrStorageUnavailable
	}
	return filepath.Join(root, Namespace, string(ct)), nil
}

// Save writes body as a new record of type ct.
func (s *Store) Save(body string, ct CrashType) {
	s.SaveBytes([]byte(body), ct)
}

// SaveBytes is the write path used from signal capture. It performs a single
// temp-file write and rename through raw syscalls where the platform allows,
// with no formatted output on success.
func (s *Store) SaveBytes(body []byte, ct CrashType) {
	if err := s.save(body, ct); err != nil {
		s.absorb("save", err)
	}
}

func (s *Store) save(body []byte, ct CrashType) error {
	dir, err := s.Dir(ct)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDirectoryCreateFailed, dir, err)
	}
	name := s.clock.Timestamp() + RecordExt
	if err := writeAtomic(dir, name, body); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteFailed, name, err)
	}
	return nil
}

// List returns the absolute paths of every record of type ct, in directory
// order. Callers must treat the result as a set.
func (s *Store) List(ct CrashType) []string {
	entries, err := s.entries(ct)
	if err != nil {
		s.absorb("list", err)
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	return paths
}

// Entries returns record metadata for type ct.
func (s *Store) Entries(ct CrashType) []Entry {
	entries, err := s.entries(ct)
	if err != nil {
		s.absorb("entries", err)
	}
	return entries
}

func (s *Store) entries(ct CrashType) ([]Entry, error) {
	dir, err := s.Dir(ct)
	if err != nil {
		return nil, err
	}
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrReadFailed, dir, err)
	}

	var entries []Entry
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), RecordExt) {
			continue
		}
		e := Entry{
			Type: ct,
			Name: de.Name(),
			Path: filepath.Join(dir, de.Name()),
		}
		if info, err := de.Info(); err == nil {
			e.Size = info.Size()
			e.ModTime = info.ModTime()
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// ReadAll returns the body of every readable record of type ct. Unreadable
// files are skipped.
func (s *Store) ReadAll(ct CrashType) []string {
	var bodies []string
	for _, path := range s.List(ct) {
		data, err := os.ReadFile(path)
		if err != nil {
			s.absorb("read", fmt.Errorf("%w: %s: %v", ErrReadFailed, path, err))
			continue
		}
		bodies = append(bodies, string(data))
	}
	return bodies
}

// ReadOne returns the body of the named record, or false when it is absent
// or unreadable.
func (s *Store) ReadOne(fileName string, ct CrashType) (string, bool) {
	path, err := s.recordPath(fileName, ct)
	if err != nil {
		s.absorb("read", err)
		return "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.absorb("read", fmt.Errorf("%w: %s", ErrRecordMissing, path))
		} else {
			s.absorb("read", fmt.Errorf("%w: %s: %v", ErrReadFailed, path, err))
		}
		return "", false
	}
	return string(data), true
}

// DeleteAll removes every record of type ct. Calling it on an empty or
// missing directory is a no-op.
func (s *Store) DeleteAll(ct CrashType) {
	for _, path := range s.List(ct) {
		s.remove(path)
	}
}

// DeleteOne removes the named record. A missing record is not an error.
func (s *Store) DeleteOne(fileName string, ct CrashType) {
	path, err := s.recordPath(fileName, ct)
	if err != nil {
		s.absorb("delete", err)
		return
	}
	s.remove(path)
}

func (s *Store) remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.absorb("delete", fmt.Errorf("%w: %s: %v", ErrDeleteFailed, path, err))
	}
}

// recordPath confines fileName to the crash directory of ct.
func (s *Store) recordPath(fileName string, ct CrashType) (string, error) {
	dir, err := s.Dir(ct)
	if err != nil {
		return "", err
	}
	name := filepath.Base(fileName)
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return "", fmt.Errorf("%w: %q", ErrRecordMissing, fileName)
	}
	return filepath.Join(dir, name), nil
}

func (s *Store) absorb(op string, err error) {
	s.logger.Printf("crashstore: %s: %v", op, err)
}
