package dump_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitesnap/sitesnap/dump"
	"github.com/sitesnap/sitesnap/retry"
)

func newAdapter(t *testing.T, backend dump.Backend) *dump.Adapter {
	t.Helper()
	return &dump.Adapter{
		Backend: backend,
		Logger:  zerolog.New(zerolog.NewTestWriter(t)),
		Policy:  retry.Fixed(3, 0),
	}
}

func TestDumpWritesArtifact(t *testing.T) {
	fake := dump.NewFake()
	fake.SetContent("shop_db", []byte("-- full dump\nCREATE TABLE t;\n"))
	adapter := newAdapter(t, fake)

	artifact := filepath.Join(t.TempDir(), "shop_db_backup.sql")
	require.NoError(t, adapter.Dump(context.Background(), "shop_db", "shop", "pw", artifact))

	content, err := os.ReadFile(artifact)
	require.NoError(t, err)
	assert.Equal(t, "-- full dump\nCREATE TABLE t;\n", string(content))
	assert.NoFileExists(t, artifact+".part", "scratch file cleaned up")
}

func TestDumpRetriesThenSucceeds(t *testing.T) {
	fake := dump.NewFake()
	fake.FailExport = 2
	adapter := newAdapter(t, fake)

	artifact := filepath.Join(t.TempDir(), "db_backup.sql")
	require.NoError(t, adapter.Dump(context.Background(), "db", "u", "pw", artifact))
	assert.FileExists(t, artifact)
}

func TestDumpExhaustedRemovesArtifact(t *testing.T) {
	fake := dump.NewFake()
	fake.FailExport = 3
	fake.PartialExport = true
	adapter := newAdapter(t, fake)

	dir := t.TempDir()
	artifact := filepath.Join(dir, "db_backup.sql")
	// A previous run's artifact must not survive an exhausted dump either.
	require.NoError(t, os.WriteFile(artifact, []byte("old dump"), 0o644))

	err := adapter.Dump(context.Background(), "db", "u", "pw", artifact)
	require.Error(t, err)

	var dumpErr *dump.DumpError
	require.ErrorAs(t, err, &dumpErr)
	assert.Equal(t, "db", dumpErr.Database)
	assert.Equal(t, 0, fake.FailExport, "export attempted exactly 3 times")
	assert.NoFileExists(t, artifact)
	assert.NoFileExists(t, artifact+".part")
}

func TestRestoreImportsArtifact(t *testing.T) {
	fake := dump.NewFake()
	adapter := newAdapter(t, fake)

	artifact := filepath.Join(t.TempDir(), "db_backup.sql")
	require.NoError(t, os.WriteFile(artifact, []byte("INSERT INTO t;"), 0o644))

	require.NoError(t, adapter.Restore(context.Background(), "db", "u", "pw", artifact))
	assert.Equal(t, []byte("INSERT INTO t;"), fake.Imported["db"])
}

func TestRestoreMissingArtifact(t *testing.T) {
	fake := dump.NewFake()
	adapter := newAdapter(t, fake)

	err := adapter.Restore(context.Background(), "db", "u", "pw", filepath.Join(t.TempDir(), "missing.sql"))
	require.Error(t, err)

	var restoreErr *dump.RestoreError
	require.ErrorAs(t, err, &restoreErr)
	assert.ErrorIs(t, err, dump.ErrArtifactMissing)
	assert.Empty(t, fake.Imported, "no import attempted")
}

func TestRestoreDoesNotRetry(t *testing.T) {
	fake := dump.NewFake()
	fake.FailImport = 1
	adapter := newAdapter(t, fake)

	artifact := filepath.Join(t.TempDir(), "db_backup.sql")
	require.NoError(t, os.WriteFile(artifact, []byte("sql"), 0o644))

	err := adapter.Restore(context.Background(), "db", "u", "pw", artifact)
	require.Error(t, err)
	assert.Equal(t, 0, fake.FailImport, "import attempted exactly once")
	assert.Empty(t, fake.Imported)
}

func TestRestorePingPreflightFailure(t *testing.T) {
	fake := dump.NewFake()
	fake.FailPing = 1
	adapter := newAdapter(t, fake)

	artifact := filepath.Join(t.TempDir(), "db_backup.sql")
	require.NoError(t, os.WriteFile(artifact, []byte("sql"), 0o644))

	err := adapter.Restore(context.Background(), "db", "u", "pw", artifact)
	require.Error(t, err)
	assert.Empty(t, fake.Imported, "import not attempted when preflight fails")
}
