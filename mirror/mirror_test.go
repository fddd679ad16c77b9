package mirror_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitesnap/sitesnap/mirror"
)

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func read(t *testing.T, root, rel string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(root, rel))
	require.NoError(t, err)
	return string(content)
}

func testLogger(t *testing.T) zerolog.Logger {
	return zerolog.New(zerolog.NewTestWriter(t))
}

func TestSyncCopiesTree(t *testing.T) {
	source := t.TempDir()
	dest := t.TempDir()
	write(t, source, "index.php", "<?php")
	write(t, source, "assets/app.css", "body{}")
	write(t, source, "assets/img/logo.png", "PNG")

	stats, err := mirror.Sync(context.Background(), source, dest, testLogger(t))
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Copied)
	assert.Equal(t, "<?php", read(t, dest, "index.php"))
	assert.Equal(t, "body{}", read(t, dest, "assets/app.css"))
	assert.Equal(t, "PNG", read(t, dest, "assets/img/logo.png"))
}

func TestSyncSkipsUnchanged(t *testing.T) {
	source := t.TempDir()
	dest := t.TempDir()
	write(t, source, "a.txt", "same")
	write(t, source, "b.txt", "same")

	_, err := mirror.Sync(context.Background(), source, dest, testLogger(t))
	require.NoError(t, err)

	stats, err := mirror.Sync(context.Background(), source, dest, testLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Copied)
	assert.Equal(t, 2, stats.Skipped)
}

func TestSyncHashComparesOnMtimeMismatch(t *testing.T) {
	source := t.TempDir()
	dest := t.TempDir()
	write(t, source, "a.txt", "same content")

	_, err := mirror.Sync(context.Background(), source, dest, testLogger(t))
	require.NoError(t, err)

	// Bump the destination mtime; size and content still match.
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dest, "a.txt"), past, past))

	stats, err := mirror.Sync(context.Background(), source, dest, testLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Copied, "identical content must not be re-copied")
}

func TestSyncPreservesModeAndModTime(t *testing.T) {
	source := t.TempDir()
	dest := t.TempDir()
	write(t, source, "run.sh", "#!/bin/sh")
	srcPath := filepath.Join(source, "run.sh")
	require.NoError(t, os.Chmod(srcPath, 0o755))
	mtime := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(srcPath, mtime, mtime))

	_, err := mirror.Sync(context.Background(), source, dest, testLogger(t))
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dest, "run.sh"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
	assert.True(t, info.ModTime().Equal(mtime))
}

func TestSyncExcludes(t *testing.T) {
	source := t.TempDir()
	dest := t.TempDir()
	write(t, source, "index.php", "<?php")
	write(t, source, "cache/page.html", "cached")
	write(t, source, "debug.log", "log")
	write(t, source, "nested/cache/x", "cached")

	_, err := mirror.Sync(context.Background(), source, dest, testLogger(t),
		mirror.WithExcludes([]string{"cache", "*.log"}))
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dest, "index.php"))
	assert.NoFileExists(t, filepath.Join(dest, "cache", "page.html"))
	assert.NoFileExists(t, filepath.Join(dest, "debug.log"))
	assert.NoFileExists(t, filepath.Join(dest, "nested", "cache", "x"))
}

func TestSyncWithoutDeleteKeepsExtraneous(t *testing.T) {
	source := t.TempDir()
	dest := t.TempDir()
	write(t, source, "keep.txt", "keep")
	write(t, dest, "removed-from-source.txt", "old")

	stats, err := mirror.Sync(context.Background(), source, dest, testLogger(t))
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Deleted)
	assert.FileExists(t, filepath.Join(dest, "removed-from-source.txt"))
}

func TestSyncDeleteExtraneous(t *testing.T) {
	source := t.TempDir()
	dest := t.TempDir()
	write(t, source, "keep.txt", "keep")
	write(t, dest, "stale.txt", "stale")
	write(t, dest, "stale-dir/inner.txt", "stale")
	write(t, dest, "db_backup.sql", "dump")
	write(t, dest, ".git/HEAD", "ref")

	stats, err := mirror.Sync(context.Background(), source, dest, testLogger(t),
		mirror.WithDeleteExtraneous(true),
		mirror.WithExcludes([]string{".git", "db_backup.sql"}))
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dest, "keep.txt"))
	assert.NoFileExists(t, filepath.Join(dest, "stale.txt"))
	assert.NoDirExists(t, filepath.Join(dest, "stale-dir"))
	assert.FileExists(t, filepath.Join(dest, "db_backup.sql"), "excluded entries are never deleted")
	assert.FileExists(t, filepath.Join(dest, ".git", "HEAD"), "metadata is never deleted")
	assert.Equal(t, 2, stats.Deleted)
}

func TestSyncDryRun(t *testing.T) {
	source := t.TempDir()
	dest := t.TempDir()
	write(t, source, "a.txt", "a")
	write(t, dest, "stale.txt", "stale")

	stats, err := mirror.Sync(context.Background(), source, dest, testLogger(t),
		mirror.WithDryRun(true),
		mirror.WithDeleteExtraneous(true))
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Copied)
	assert.Equal(t, 1, stats.Deleted)
	assert.NoFileExists(t, filepath.Join(dest, "a.txt"))
	assert.FileExists(t, filepath.Join(dest, "stale.txt"))
}

func TestSyncMissingSource(t *testing.T) {
	_, err := mirror.Sync(context.Background(), filepath.Join(t.TempDir(), "missing"), t.TempDir(), testLogger(t))
	require.Error(t, err)

	var syncErr *mirror.SyncError
	assert.ErrorAs(t, err, &syncErr)
}
