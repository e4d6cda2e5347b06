package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/crashkeep/internal/crashstore"
)

type rootDir string

func (r rootDir) CacheRoot() (string, error) { return string(r), nil }

type sequenceClock struct {
	mu sync.Mutex
	n  int
}

func (c *sequenceClock) Timestamp() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return fmt.Sprintf("261016-%06d", c.n)
}

func newTestWatcher(t *testing.T) (*Watcher, *crashstore.Store, string) {
	t.Helper()
	root := t.TempDir()
	store := crashstore.New(rootDir(root), &sequenceClock{})
	w, err := New(store)
	require.NoError(t, err)
	t.Cleanup(func() { w.Stop() })
	return w, store, root
}

func nextEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case ev, ok := <-w.Events():
		require.True(t, ok, "events channel closed")
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a crash record event")
		return Event{}
	}
}

func TestNew_NilStore(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestNew_StorageUnavailable(t *testing.T) {
	_, err := New(crashstore.New(rootDir(""), nil))
	assert.ErrorIs(t, err, crashstore.ErrStorageUnavailable)
}

func TestStart_ReportsExistingRecords(t *testing.T) {
	w, store, _ := newTestWatcher(t)
	store.Save("old", crashstore.Exception)

	require.NoError(t, w.Start())

	ev := nextEvent(t, w)
	assert.Equal(t, crashstore.Exception, ev.Type)
	assert.Equal(t, "261016-000001.txt", ev.Name)
}

func TestStart_ReportsNewRecords(t *testing.T) {
	w, store, _ := newTestWatcher(t)
	store.Save("first", crashstore.Signal)
	require.NoError(t, w.Start())
	nextEvent(t, w)

	store.Save("second", crashstore.Signal)

	ev := nextEvent(t, w)
	assert.Equal(t, crashstore.Signal, ev.Type)
	assert.Equal(t, "261016-000002.txt", ev.Name)
	data, err := os.ReadFile(ev.Path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestStart_DoesNotCreateDirectories(t *testing.T) {
	w, store, root := newTestWatcher(t)
	require.NoError(t, w.Start())

	_, err := os.Stat(filepath.Join(root, crashstore.Namespace))
	assert.True(t, os.IsNotExist(err))

	// The first crash creates the directories; the watcher follows them.
	store.Save("lazy", crashstore.Exception)

	ev := nextEvent(t, w)
	assert.Equal(t, crashstore.Exception, ev.Type)
	assert.Equal(t, "261016-000001.txt", ev.Name)
}

func TestStart_IgnoresForeignFiles(t *testing.T) {
	w, store, _ := newTestWatcher(t)
	store.Save("first", crashstore.Signal)
	require.NoError(t, w.Start())
	nextEvent(t, w)

	dir, err := store.Dir(crashstore.Signal)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0o644))
	store.Save("second", crashstore.Signal)

	ev := nextEvent(t, w)
	assert.Equal(t, "261016-000002.txt", ev.Name)
}

func TestStart_MissingRoot(t *testing.T) {
	store := crashstore.New(rootDir(filepath.Join(t.TempDir(), "missing")), nil)
	w, err := New(store)
	require.NoError(t, err)

	assert.Error(t, w.Start())
}

func TestStop_ClosesEvents(t *testing.T) {
	w, _, _ := newTestWatcher(t)
	require.NoError(t, w.Start())

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())

	select {
	case _, ok := <-w.Events():
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("events channel was not closed")
	}
}
