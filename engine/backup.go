package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sitesnap/sitesnap/config"
	"github.com/sitesnap/sitesnap/mirror"
	"github.com/sitesnap/sitesnap/snapshot"
)

// BackupRun backs up every site in registry order, or just onlyLabel when
// set. Step failures are aggregated and never stop later sites from being
// processed. The returned report always covers everything attempted; the
// error summarizes failures, if any.
func (e *Engine) BackupRun(ctx context.Context, onlyLabel string) (*RunReport, error) {
	sites := e.Cfg.Sites
	if onlyLabel != "" {
		site, err := e.Cfg.Site(onlyLabel)
		if err != nil {
			return nil, err
		}
		sites = []config.Site{site}
	}

	report := NewReport("backup")
	e.Logger.Info().Int("sites", len(sites)).Msg("starting backup run")
	defer func() {
		e.Logger.Info().
			Int("failed_steps", report.FailedSteps()).
			Float64("seconds", time.Since(report.StartedAt).Seconds()).
			Msg("backup run done")
	}()

	for _, site := range sites {
		if ctx.Err() != nil {
			break
		}
		e.backupSite(ctx, site, report)
	}

	e.finishRun(ctx, report)
	return report, report.Err()
}

func (e *Engine) backupSite(ctx context.Context, site config.Site, report *RunReport) {
	logger := e.Logger.With().Str("site", site.Label).Logger()
	logger.Info().Object("site", site).Msg("backing up site")

	repo := site.RepoPath(e.Cfg.BackupRoot)
	if err := os.MkdirAll(repo, 0o755); err != nil {
		report.Add(site.Label, "prepare", "", err)
		return
	}

	// The dump and the file snapshot are independent steps: each artifact
	// has recovery value on its own, so one failing never blocks the other.
	artifact := filepath.Join(repo, site.DumpArtifact())
	dumpErr := e.Dumper.Dump(ctx, site.DBName, site.DBUser, site.DBPassword, artifact)
	report.Add(site.Label, "dump", site.DBName, dumpErr)

	e.snapshotFiles(ctx, site, repo, report)
}

func (e *Engine) snapshotFiles(ctx context.Context, site config.Site, repo string, report *RunReport) {
	if err := e.manager().Ensure(ctx, repo); err != nil {
		report.Add(site.Label, "repository", "", err)
		return
	}

	// The dump artifact and the configured noise patterns must never enter
	// version control, even when they slip past the mirror exclusions.
	if err := e.Backend.SetExcludes(ctx, repo, e.excludesFor(site)); err != nil {
		report.Add(site.Label, "repository", "", err)
		return
	}

	// Backup mirroring never deletes: a file removed from the live site
	// stays in the staging tree and in every older snapshot.
	stats, err := mirror.Sync(ctx, site.SourceDir, repo, e.Logger, mirror.WithExcludes(e.excludesFor(site)))
	report.Add(site.Label, "mirror", fmt.Sprintf("%d copied", stats.Copied), err)
	if err != nil {
		return
	}

	committer := e.committer()
	if err := committer.StageAll(ctx, repo); err != nil {
		report.Add(site.Label, "stage", "", err)
		return
	}

	message := fmt.Sprintf("snapshot of %s at %s", site.Label, time.Now().UTC().Format(time.RFC3339))
	result, err := committer.CommitIfChanged(ctx, repo, message)
	if err != nil {
		report.Add(site.Label, "commit", "", err)
		return
	}

	detail := result.String()
	if result == snapshot.Committed {
		if head, err := e.Backend.Head(ctx, repo); err == nil {
			detail = "commit " + head
			report.Commits[site.Label] = head
		}
	}
	report.Add(site.Label, "commit", detail, nil)
}
