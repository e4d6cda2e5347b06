package crashstore

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rootDir string

func (r rootDir) CacheRoot() (string, error) {
	if r == "" {
		return "", errors.New("no cache directory")
	}
	return string(r), nil
}

// sequenceClock hands out a distinct timestamp on every call.
type sequenceClock struct{ n int }

func (c *sequenceClock) Timestamp() string {
	c.n++
	return fmt.Sprintf("261016-1200%02d", c.n)
}

type fixedClock string

func (c fixedClock) Timestamp() string { return string(c) }

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	return New(rootDir(root), &sequenceClock{}), root
}

func TestDir(t *testing.T) {
	st, root := newTestStore(t)

	dir, err := st.Dir(Signal)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "CrashManager", "Signal"), dir)

	dir, err = st.Dir(Exception)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "CrashManager", "Exception"), dir)
}

func TestDir_Unavailable(t *testing.T) {
	st := New(rootDir(""), nil)

	_, err := st.Dir(Signal)
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	// Every operation degrades to a no-op.
	st.Save("body", Signal)
	assert.Empty(t, st.List(Signal))
	assert.Empty(t, st.ReadAll(Signal))
	_, ok := st.ReadOne("x.txt", Signal)
	assert.False(t, ok)
	st.DeleteAll(Signal)
	st.DeleteOne("x.txt", Signal)
}

func TestSystemClock_Format(t *testing.T) {
	ts := SystemClock{}.Timestamp()
	assert.Regexp(t, regexp.MustCompile(`^\d{6}-\d{6}$`), ts)
}

func TestSave_CreatesDirectoryLazily(t *testing.T) {
	st, root := newTestStore(t)

	_, err := os.Stat(filepath.Join(root, "CrashManager"))
	require.True(t, os.IsNotExist(err), "directory must not exist before the first write")

	st.Save("first", Signal)

	info, err := os.Stat(filepath.Join(root, "CrashManager", "Signal"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	_, err = os.Stat(filepath.Join(root, "CrashManager", "Exception"))
	assert.True(t, os.IsNotExist(err), "only the written type's directory is created")
}

func TestSave_RoundTrip(t *testing.T) {
	st, _ := newTestStore(t)

	st.Save("report body", Exception)

	paths := st.List(Exception)
	require.Len(t, paths, 1)
	assert.True(t, filepath.IsAbs(paths[0]))
	assert.Equal(t, []string{"report body"}, st.ReadAll(Exception))
	assert.Empty(t, st.List(Signal))
}

func TestSave_SameSecondOverwrites(t *testing.T) {
	root := t.TempDir()
	st := New(rootDir(root), fixedClock("261016-120000"))

	st.Save("first", Signal)
	st.Save("second", Signal)

	assert.Equal(t, []string{"second"}, st.ReadAll(Signal))
}

func TestSave_LeavesNoTempFiles(t *testing.T) {
	st, _ := newTestStore(t)
	st.Save("body", Signal)

	dir, err := st.Dir(Signal)
	require.NoError(t, err)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "261016-120001.txt", entries[0].Name())
}

func TestSave_DirectoryCreateFailureIsAbsorbed(t *testing.T) {
	root := t.TempDir()
	// A regular file where the namespace directory should go.
	require.NoError(t, os.WriteFile(filepath.Join(root, Namespace), []byte("x"), 0o644))

	var buf bytes.Buffer
	st := New(rootDir(root), &sequenceClock{}, WithLogger(log.New(&buf, "", 0)))

	st.Save("lost", Signal)

	assert.Empty(t, st.List(Signal))
	assert.Contains(t, buf.String(), ErrDirectoryCreateFailed.Error())
}

func TestExceptionRecordScenario(t *testing.T) {
	root := t.TempDir()
	st := New(rootDir(root), fixedClock("261016-093000"))
	body := "Stack: SlideAdress:0x1000\nName: Foo\nReason: bar\n\nframe0\nframe1"

	st.Save(body, Exception)

	got, ok := st.ReadOne("261016-093000.txt", Exception)
	require.True(t, ok)
	assert.Equal(t, body, got)

	st.DeleteOne("261016-093000.txt", Exception)
	assert.Empty(t, st.List(Exception))
}

func TestList_FiltersBySuffix(t *testing.T) {
	st, _ := newTestStore(t)
	st.Save("real", Signal)

	dir, err := st.Dir(Signal)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".x.txt.tmp"), []byte("ignored"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.txt"), 0o755))

	paths := st.List(Signal)
	require.Len(t, paths, 1)
	assert.Equal(t, []string{"real"}, st.ReadAll(Signal))
}

func TestList_MissingDirectoryIsEmpty(t *testing.T) {
	st, _ := newTestStore(t)

	assert.Empty(t, st.List(Signal))
	assert.Empty(t, st.ReadAll(Exception))
	assert.Empty(t, st.Entries(Signal))
	st.DeleteAll(Signal)
	st.DeleteOne("missing.txt", Exception)
}

func TestEntries(t *testing.T) {
	st, _ := newTestStore(t)
	st.Save("12345", Exception)

	entries := st.Entries(Exception)
	require.Len(t, entries, 1)
	assert.Equal(t, Exception, entries[0].Type)
	assert.Equal(t, "261016-120001.txt", entries[0].Name)
	assert.Equal(t, int64(5), entries[0].Size)
	assert.False(t, entries[0].ModTime.IsZero())
}

func TestReadAll_SkipsUnreadable(t *testing.T) {
	st, _ := newTestStore(t)
	st.Save("good", Signal)

	dir, err := st.Dir(Signal)
	require.NoError(t, err)
	require.NoError(t, os.Symlink(filepath.Join(dir, "nowhere"), filepath.Join(dir, "dangling.txt")))

	assert.Len(t, st.List(Signal), 2)
	assert.Equal(t, []string{"good"}, st.ReadAll(Signal))
}

func TestReadOne_Missing(t *testing.T) {
	st, _ := newTestStore(t)
	st.Save("x", Signal)

	_, ok := st.ReadOne("999999-999999.txt", Signal)
	assert.False(t, ok)
	_, ok = st.ReadOne("261016-120001.txt", Exception)
	assert.False(t, ok, "records are scoped by crash type")
}

func TestReadOne_ConfinedToCrashDirectory(t *testing.T) {
	st, root := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "secret.txt"), []byte("secret"), 0o644))
	st.Save("x", Signal)

	_, ok := st.ReadOne("../../secret.txt", Signal)
	assert.False(t, ok)

	st.DeleteOne("../../secret.txt", Signal)
	_, err := os.Stat(filepath.Join(root, "secret.txt"))
	assert.NoError(t, err)
}

func TestDeleteAll_Idempotent(t *testing.T) {
	st, _ := newTestStore(t)
	for i := 0; i < 5; i++ {
		st.Save(fmt.Sprintf("signal %d", i), Signal)
		st.Save(fmt.Sprintf("exception %d", i), Exception)
	}
	require.Len(t, st.List(Signal), 5)
	require.Len(t, st.List(Exception), 5)

	for _, ct := range Types {
		st.DeleteAll(ct)
	}
	assert.Empty(t, st.List(Signal))
	assert.Empty(t, st.List(Exception))

	for _, ct := range Types {
		st.DeleteAll(ct)
	}
	assert.Empty(t, st.List(Signal))
}

func TestDeleteAll_KeepsForeignFiles(t *testing.T) {
	st, _ := newTestStore(t)
	st.Save("x", Signal)

	dir, err := st.Dir(Signal)
	require.NoError(t, err)
	foreign := filepath.Join(dir, "README")
	require.NoError(t, os.WriteFile(foreign, []byte("keep"), 0o644))

	st.DeleteAll(Signal)

	_, err = os.Stat(foreign)
	assert.NoError(t, err)
}
