// Package watch reports crash records as other processes write them.
//
// The crash directories are created lazily by the first crash, so the Watcher
// never creates them. It watches the deepest existing ancestor and adds
// watches as the namespace and type directories appear, scanning each newly
// watched directory once for records written before the watch took effect.
//
// Example usage:
//
//	w, err := watch.New(store)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := w.Start(); err != nil {
//		log.Fatal(err)
//	}
//	defer w.Stop()
//
//	for ev := range w.Events() {
//		fmt.Println(ev.Path)
//	}
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/blackwell-systems/crashkeep/internal/crashstore"
)

// Event announces a new crash record.
type Event struct {
	Type crashstore.CrashType
	Name string
	Path string
}

// Watcher follows the crash directories of a crashstore.Store.
type Watcher struct {
	fsw *fsnotify.Watcher

	root      string
	namespace string
	typeDirs  map[string]crashstore.CrashType

	events chan Event
	errs   chan error
	stopCh chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	watched map[string]bool
	seen    map[string]bool
}

// New creates a Watcher for store's crash directories.
func New(store *crashstore.Store) (*Watcher, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}

	typeDirs := make(map[string]crashstore.CrashType, len(crashstore.Types))
	var namespace string
	for _, ct := range crashstore.Types {
		dir, err := store.Dir(ct)
		if err != nil {
			return nil, err
		}
		typeDirs[dir] = ct
		namespace = filepath.Dir(dir)
	}

	return &Watcher{
		root:      filepath.Dir(namespace),
		namespace: namespace,
		typeDirs:  typeDirs,
		events:    make(chan Event, 64),
		errs:      make(chan error, 8),
		stopCh:    make(chan struct{}),
		watched:   make(map[string]bool),
		seen:      make(map[string]bool),
	}, nil
}

// Events delivers new records. It is closed by Stop.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors delivers watch errors that did not stop the Watcher.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Start begins watching. Records already on disk are reported first.
func (w *Watcher) Start() error {
	if _, err := os.Stat(w.root); err != nil {
		return fmt.Errorf("cache root %s: %w", w.root, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	w.fsw = fsw

	if err := w.add(w.root); err != nil {
		fsw.Close()
		return err
	}
	// Report existing records from the event loop so that Start never blocks
	// on a full events channel.
	w.wg.Add(1)
	go w.run()
	return nil
}

func (w *Watcher) run() {
	defer w.wg.Done()
	defer close(w.events)

	w.extend()

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
			}
		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	dir := filepath.Dir(ev.Name)

	switch {
	case ev.Op.Has(fsnotify.Create) && (ev.Name == w.namespace || w.isTypeDir(ev.Name)):
		w.extend()
	case ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename):
		w.mu.Lock()
		delete(w.seen, ev.Name)
		w.mu.Unlock()
	case ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write):
		if ct, ok := w.typeDirs[dir]; ok {
			w.emit(ct, ev.Name)
		}
	}
}

// extend adds watches for every crash directory that now exists and scans
// the type directories it adds.
func (w *Watcher) extend() {
	if err := w.addIfExists(w.namespace); err != nil {
		w.report(err)
	}
	for dir, ct := range w.typeDirs {
		added, err := w.addIfExistsNew(dir)
		if err != nil {
			w.report(err)
			continue
		}
		if added {
			w.scan(dir, ct)
		}
	}
}

func (w *Watcher) scan(dir string, ct crashstore.CrashType) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		w.report(err)
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			w.emit(ct, filepath.Join(dir, e.Name()))
		}
	}
}

func (w *Watcher) emit(ct crashstore.CrashType, path string) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, crashstore.RecordExt) {
		return
	}

	w.mu.Lock()
	if w.seen[path] {
		w.mu.Unlock()
		return
	}
	w.seen[path] = true
	w.mu.Unlock()

	select {
	case w.events <- Event{Type: ct, Name: name, Path: path}:
	case <-w.stopCh:
	}
}

func (w *Watcher) isTypeDir(path string) bool {
	_, ok := w.typeDirs[path]
	return ok
}

func (w *Watcher) add(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watched[path] {
		return nil
	}
	if err := w.fsw.Add(path); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	w.watched[path] = true
	return nil
}

func (w *Watcher) addIfExists(path string) error {
	_, err := w.addIfExistsNew(path)
	return err
}

// addIfExistsNew watches path if it is an existing directory and reports
// whether this call added the watch.
func (w *Watcher) addIfExistsNew(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false, nil
	}
	w.mu.Lock()
	already := w.watched[path]
	w.mu.Unlock()
	if already {
		return false, nil
	}
	if err := w.add(path); err != nil {
		return false, err
	}
	return true, nil
}

func (w *Watcher) report(err error) {
	select {
	case w.errs <- err:
	default:
	}
}

// Stop halts the watcher and closes the events channel.
func (w *Watcher) Stop() error {
	select {
	case <-w.stopCh:
		return nil
	default:
		close(w.stopCh)
	}

	var err error
	if w.fsw != nil {
		err = w.fsw.Close()
	}
	w.wg.Wait()
	return err
}
