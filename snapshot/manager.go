package snapshot

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/sitesnap/sitesnap/retry"
	"github.com/sitesnap/sitesnap/vcs"
)

// DefaultBranch is the single history line every snapshot repository uses.
const DefaultBranch = "main"

const rootCommitMessage = "empty snapshot root"

// configProfile tunes repositories for resource-constrained shared hosts:
// background packing, compression and filesystem caching race the hosts'
// I/O limits and cause spurious failures, so everything aggressive is off.
var configProfile = [...][2]string{
	{"core.compression", "0"},
	{"gc.auto", "0"},
	{"pack.threads", "1"},
	{"pack.window", "0"},
	{"pack.depth", "1"},
	{"core.preloadindex", "false"},
	{"core.fsmonitor", "false"},
	{"core.untrackedcache", "false"},
}

// Manager owns the lifecycle of per-site snapshot repositories.
type Manager struct {
	Backend vcs.Backend
	Logger  zerolog.Logger
	// InitPolicy overrides the init retry policy (3 attempts, 5s apart).
	InitPolicy retry.Policy
}

func (m *Manager) initPolicy() retry.Policy {
	if m.InitPolicy.MaxAttempts > 0 {
		return m.InitPolicy
	}
	return retry.Fixed(3, 5*time.Second)
}

// Ensure makes path a ready snapshot repository. Idempotent: an existing,
// structurally valid repository returns immediately. A fresh repository gets
// the config profile and a synthetic empty root commit, so a history is never
// empty and always has a stable oldest reference.
func (m *Manager) Ensure(ctx context.Context, path string) error {
	logger := m.Logger.With().Str("repo", path).Logger()

	if m.Backend.IsRepository(ctx, path) {
		logger.Debug().Msg("repository already initialized")
		return nil
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return &RepositoryError{Path: path, Err: err}
	}

	logger.Info().Msg("initializing snapshot repository")
	err := m.initPolicy().Do(ctx, logger, "init repository", func(ctx context.Context) error {
		if err := m.Backend.Init(ctx, path, DefaultBranch); err != nil {
			return err
		}
		if err := m.ApplyProfile(ctx, path); err != nil {
			return err
		}
		return m.Backend.CommitAllowEmpty(ctx, path, rootCommitMessage)
	})
	if err != nil {
		return &RepositoryError{Path: path, Err: err}
	}

	if !m.Backend.IsRepository(ctx, path) {
		return &RepositoryError{Path: path, Err: errors.New("repository failed verification after init")}
	}

	logger.Info().Msg("snapshot repository ready")
	return nil
}

// ApplyProfile (re)applies the resource-constrained configuration profile.
func (m *Manager) ApplyProfile(ctx context.Context, path string) error {
	for _, kv := range configProfile {
		if err := m.Backend.SetConfig(ctx, path, kv[0], kv[1]); err != nil {
			return err
		}
	}
	return nil
}

// Compact runs garbage collection, best effort. Failures are logged and
// swallowed; compaction is never worth failing a run over.
func (m *Manager) Compact(ctx context.Context, path string) {
	if err := m.Backend.GC(ctx, path); err != nil {
		m.Logger.Warn().Err(err).Str("repo", path).Msg("compaction failed")
	}
}
