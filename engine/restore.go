package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
)

// ErrAborted means the operator declined the restore confirmation. Nothing
// was touched.
var ErrAborted = errors.New("restore aborted by operator")

// RestoreRun restores one site to the state of reference (a commit prefix, or
// empty for the latest snapshot). The operator must confirm before anything
// is mutated. Steps are dependent and abort on the first failure: resolve,
// then files, then database.
func (e *Engine) RestoreRun(ctx context.Context, label, reference string, confirm ConfirmFunc) (*RunReport, error) {
	site, err := e.Cfg.Site(label)
	if err != nil {
		return nil, err
	}
	repo := site.RepoPath(e.Cfg.BackupRoot)
	logger := e.Logger.With().Str("site", site.Label).Logger()

	if confirm != nil {
		question := fmt.Sprintf("Restore site %q onto %s, overwriting its current content?", site.Label, site.SourceDir)
		ok, err := confirm(question)
		if err != nil {
			return nil, err
		}
		if !ok {
			logger.Info().Msg("restore not confirmed, nothing touched")
			return nil, ErrAborted
		}
	}

	report := NewReport("restore")
	resolver := e.resolver()

	if !e.Backend.IsRepository(ctx, repo) {
		err := fmt.Errorf("site has no snapshot repository at %s", repo)
		report.Add(site.Label, "resolve", "", err)
		e.finishRun(ctx, report)
		return report, report.Err()
	}

	commit, err := resolver.Resolve(ctx, repo, reference)
	report.Add(site.Label, "resolve", commit.ID, err)
	if err != nil {
		e.finishRun(ctx, report)
		return report, report.Err()
	}
	report.Commits[site.Label] = commit.ID
	logger.Info().Object("commit", commit).Msg("restoring snapshot")

	stats, err := resolver.Materialize(ctx, repo, commit.ID, site.SourceDir, e.excludesFor(site))
	report.Add(site.Label, "restore-files", fmt.Sprintf("%d copied, %d deleted", stats.Copied, stats.Deleted), err)
	if err != nil {
		// Abort before the database is touched.
		e.finishRun(ctx, report)
		return report, report.Err()
	}

	// A database failure past this point leaves the already-restored files
	// in place; there is no compensating rollback.
	artifact := filepath.Join(repo, site.DumpArtifact())
	err = e.Dumper.Restore(ctx, site.DBName, site.DBUser, site.DBPassword, artifact)
	report.Add(site.Label, "restore-database", site.DBName, err)

	e.finishRun(ctx, report)
	return report, report.Err()
}
