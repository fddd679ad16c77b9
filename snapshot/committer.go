package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sitesnap/sitesnap/retry"
	"github.com/sitesnap/sitesnap/vcs"
)

// Result of a commit attempt.
type Result int

const (
	// NoOp means the staged set matched the last commit; history unchanged.
	NoOp Result = iota
	Committed
)

func (r Result) String() string {
	if r == Committed {
		return "committed"
	}
	return "no-op"
}

// Committer stages the working area and commits it.
type Committer struct {
	Backend vcs.Backend
	Manager *Manager
	Logger  zerolog.Logger
	// StagePolicy overrides the per-file fallback policy (5 attempts, 1s).
	StagePolicy retry.Policy
	// CommitPolicy overrides the commit policy (5 attempts, 10s then 5s).
	CommitPolicy retry.Policy
}

func (c *Committer) stagePolicy() retry.Policy {
	if c.StagePolicy.MaxAttempts > 0 {
		return c.StagePolicy
	}
	return retry.Fixed(5, 1*time.Second)
}

func (c *Committer) commitPolicy() retry.Policy {
	if c.CommitPolicy.MaxAttempts > 0 {
		return c.CommitPolicy
	}
	// The first retry waits longer: the usual culprit is background
	// filesystem activity racing the commit, which needs time to settle.
	return retry.Schedule(5, 10*time.Second, 5*time.Second)
}

// StageAll stages everything under the repository. It tries one bulk staging
// operation; if that fails (large trees can trip resource limits) it falls
// back to staging every file individually, never aborting early on a single
// file. If any file still cannot be staged the whole operation reports
// failure, after attempting the full set.
func (c *Committer) StageAll(ctx context.Context, path string) error {
	logger := c.Logger.With().Str("repo", path).Logger()

	bulkErr := c.Backend.StageAll(ctx, path)
	if bulkErr == nil {
		return nil
	}
	logger.Warn().Err(bulkErr).Msg("bulk staging failed, falling back to per-file staging")

	files, err := c.Backend.ListFiles(ctx, path)
	if err != nil {
		return fmt.Errorf("could not enumerate files for staging: %w", err)
	}

	throttled := logger.Sample(&zerolog.BurstSampler{Burst: 1, Period: 5 * time.Second})
	policy := c.stagePolicy()

	var staged, failed int
	var firstErr error
	for _, file := range files {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := policy.Do(ctx, logger, "stage file", func(ctx context.Context) error {
			return c.Backend.StageOne(ctx, path, file)
		})
		if err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
			logger.Error().Err(err).Str("file", file).Msg("file could not be staged")
			continue
		}
		staged++
		throttled.Info().Int("staged", staged).Int("total", len(files)).Msg("staging files")
	}

	if failed > 0 {
		return fmt.Errorf("staging incomplete: %d of %d files failed: %w", failed, len(files), firstErr)
	}

	logger.Info().Int("staged", staged).Msg("per-file staging done")
	return nil
}

// CommitIfChanged commits the staged set under message. An unchanged tree is
// a NoOp and never grows history. On the first commit failure the repository
// config profile is reapplied before the lengthened wait. Exhausting attempts
// returns a CommitError and leaves the staged changes in place. A successful
// commit triggers best-effort compaction.
func (c *Committer) CommitIfChanged(ctx context.Context, path, message string) (Result, error) {
	logger := c.Logger.With().Str("repo", path).Logger()

	changed, err := c.Backend.HasStagedChanges(ctx, path)
	if err != nil {
		return NoOp, &CommitError{Path: path, Err: err}
	}
	if !changed {
		logger.Info().Msg("tree unchanged since last snapshot, nothing to commit")
		return NoOp, nil
	}

	err = c.commitPolicy().Do(ctx, logger, "commit snapshot", func(ctx context.Context) error {
		return c.Backend.Commit(ctx, path, message)
	}, retry.WithOnRetry(func(attempt int, _ error) {
		if attempt != 1 || c.Manager == nil {
			return
		}
		if perr := c.Manager.ApplyProfile(ctx, path); perr != nil {
			logger.Warn().Err(perr).Msg("could not reapply repository config profile")
		}
	}))
	if err != nil {
		return NoOp, &CommitError{Path: path, Err: err}
	}

	logger.Info().Str("message", message).Msg("snapshot committed")
	if c.Manager != nil {
		c.Manager.Compact(ctx, path)
	}
	return Committed, nil
}
