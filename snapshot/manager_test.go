package snapshot_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitesnap/sitesnap/retry"
	"github.com/sitesnap/sitesnap/snapshot"
	"github.com/sitesnap/sitesnap/vcs"
)

func newManager(t *testing.T, fake *vcs.Fake) *snapshot.Manager {
	t.Helper()
	return &snapshot.Manager{
		Backend:    fake,
		Logger:     zerolog.New(zerolog.NewTestWriter(t)),
		InitPolicy: retry.Fixed(3, 0),
	}
}

func TestEnsureInitializesFreshRepository(t *testing.T) {
	ctx := context.Background()
	fake := vcs.NewFake()
	m := newManager(t, fake)
	repo := t.TempDir() + "/alpha"

	require.NoError(t, m.Ensure(ctx, repo))

	assert.True(t, fake.IsRepository(ctx, repo))
	assert.Equal(t, 1, fake.CommitCount(repo), "synthetic empty root commit created")
	assert.Equal(t, "0", fake.Config(repo, "core.compression"))
	assert.Equal(t, "0", fake.Config(repo, "gc.auto"))
	assert.Equal(t, "1", fake.Config(repo, "pack.threads"))
	assert.Equal(t, "false", fake.Config(repo, "core.fsmonitor"))
}

func TestEnsureIsIdempotent(t *testing.T) {
	ctx := context.Background()
	fake := vcs.NewFake()
	m := newManager(t, fake)
	repo := t.TempDir() + "/alpha"

	require.NoError(t, m.Ensure(ctx, repo))
	require.NoError(t, m.Ensure(ctx, repo))

	assert.Equal(t, 1, fake.CommitCount(repo), "existing repository gains no extra root commit")
}

func TestEnsureRetriesInit(t *testing.T) {
	ctx := context.Background()
	fake := vcs.NewFake()
	fake.FailInit = 2
	m := newManager(t, fake)
	repo := t.TempDir() + "/alpha"

	require.NoError(t, m.Ensure(ctx, repo))
	assert.Equal(t, 0, fake.FailInit)
	assert.Equal(t, 1, fake.CommitCount(repo))
}

func TestEnsureExhaustedIsRepositoryError(t *testing.T) {
	ctx := context.Background()
	fake := vcs.NewFake()
	fake.FailInit = 3
	m := newManager(t, fake)

	err := m.Ensure(ctx, t.TempDir()+"/alpha")
	require.Error(t, err)

	var repoErr *snapshot.RepositoryError
	assert.ErrorAs(t, err, &repoErr)
	assert.Equal(t, 0, fake.FailInit, "init attempted exactly 3 times")
}

func TestCompactIsBestEffort(t *testing.T) {
	ctx := context.Background()
	fake := vcs.NewFake()
	m := newManager(t, fake)
	repo := t.TempDir() + "/alpha"

	require.NoError(t, m.Ensure(ctx, repo))

	// GC on an unknown path fails inside the backend; Compact must swallow it.
	m.Compact(ctx, "/does/not/exist")
	m.Compact(ctx, repo)
	assert.Equal(t, 1, fake.GCCalls)
}
