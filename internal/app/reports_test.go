package app

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/crashkeep/internal/crashstore"
)

func TestList_Empty(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No pending crash reports")
}

func TestList_ShowsPending(t *testing.T) {
	env := newTestEnv(t)
	env.store.Save("sig", crashstore.Signal)
	env.store.Save(exceptionBody, crashstore.Exception)

	out, err := env.run(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "261016-000001.txt")
	assert.Contains(t, out, "261016-000002.txt")
	assert.Contains(t, out, "SIGNAL: 1")
	assert.Contains(t, out, "EXCEPTION: 1")
}

func TestList_TypeFilter(t *testing.T) {
	env := newTestEnv(t)
	env.store.Save("sig", crashstore.Signal)
	env.store.Save(exceptionBody, crashstore.Exception)

	out, err := env.run(t, "", "list", "--type", "exception")
	require.NoError(t, err)
	assert.NotContains(t, out, "261016-000001.txt")
	assert.Contains(t, out, "261016-000002.txt")

	_, err = env.run(t, "", "list", "--type", "oom")
	assert.Error(t, err)
}

func TestShow(t *testing.T) {
	env := newTestEnv(t)
	env.store.Save(exceptionBody, crashstore.Exception)

	out, err := env.run(t, "", "show", "exception", "261016-000001.txt")
	require.NoError(t, err)
	assert.Equal(t, exceptionBody+"\n", out)

	_, err = env.run(t, "", "show", "signal", "261016-000001.txt")
	assert.Error(t, err)

	_, err = env.run(t, "", "show", "exception")
	assert.Error(t, err, "show needs a type and a file")
}

func TestRm(t *testing.T) {
	env := newTestEnv(t)
	env.store.Save("sig", crashstore.Signal)
	env.store.Save("keep", crashstore.Signal)

	out, err := env.run(t, "", "rm", "signal", "261016-000001.txt")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted")
	assert.Equal(t, []string{"261016-000002.txt"}, env.store.List(crashstore.Signal))

	_, err = env.run(t, "", "rm", "signal", "261016-000001.txt")
	assert.Error(t, err)
}

func TestPurge(t *testing.T) {
	tests := []struct {
		name      string
		stdin     string
		args      []string
		wantGone  bool
		wantPrint string
	}{
		{"declined", "n\n", []string{"purge"}, false, "Purge cancelled"},
		{"no answer", "", []string{"purge"}, false, "Purge cancelled"},
		{"confirmed", "y\n", []string{"purge"}, true, "Deleted 2 crash reports"},
		{"yes flag", "", []string{"purge", "--yes"}, true, "Deleted 2 crash reports"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.store.Save("sig", crashstore.Signal)
			env.store.Save(exceptionBody, crashstore.Exception)

			out, err := env.run(t, tt.stdin, tt.args...)
			require.NoError(t, err)
			assert.Contains(t, out, tt.wantPrint)

			remaining := len(env.store.List(crashstore.Signal)) + len(env.store.List(crashstore.Exception))
			if tt.wantGone {
				assert.Zero(t, remaining)
			} else {
				assert.Equal(t, 2, remaining)
			}
		})
	}
}

func TestPurge_NothingPending(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "", "purge")
	require.NoError(t, err)
	assert.Contains(t, out, "No pending crash reports")
}

func TestHarvest_InsertFailureKeepsPendingReports(t *testing.T) {
	env := newTestEnv(t)
	env.store.Save("Stack: SlideAdress:0x0\nsignal SIGSEGV", crashstore.Signal)
	env.store.Save(exceptionBody, crashstore.Exception)

	// A reports table that accepts the schema's indexes but rejects every row.
	db, err := sql.Open("sqlite", env.archive)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE reports (
		id TEXT PRIMARY KEY,
		crash_type TEXT NOT NULL,
		title TEXT NOT NULL,
		harvested_at TEXT NOT NULL,
		size_bytes INTEGER NOT NULL CHECK (size_bytes < 0),
		compression TEXT NOT NULL,
		body BLOB NOT NULL
	)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = env.run(t, "", "harvest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pending reports kept")

	assert.Len(t, env.store.List(crashstore.Signal), 1)
	assert.Len(t, env.store.List(crashstore.Exception), 1)
}

func TestHarvest_DoesNotClaimSignals(t *testing.T) {
	env := newTestEnv(t)
	env.store.Save(exceptionBody, crashstore.Exception)

	out, err := env.run(t, "", "harvest")
	require.NoError(t, err)
	assert.Contains(t, out, "Archived 1 crash reports")
	notify, _, _ := env.notifier.Counts()
	assert.Zero(t, notify, "harvest must not install signal capture")
}
