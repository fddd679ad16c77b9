package engine

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/sitesnap/sitesnap/config"
	"github.com/sitesnap/sitesnap/database"
	"github.com/sitesnap/sitesnap/dump"
	"github.com/sitesnap/sitesnap/retry"
	"github.com/sitesnap/sitesnap/snapshot"
	"github.com/sitesnap/sitesnap/vcs"
)

// ConfirmFunc asks the operator to confirm a destructive action.
type ConfirmFunc func(question string) (bool, error)

// Engine sequences the snapshot pipeline per site. Everything runs
// sequentially on the calling goroutine; sites are processed in registry
// order. The engine takes no locks: concurrent runs against the same site
// are the caller's responsibility.
type Engine struct {
	Cfg     *config.Config
	Backend vcs.Backend
	Dumper  *dump.Adapter
	// Catalog records run history for reporting. Optional; recording
	// failures never fail a run.
	Catalog *database.Database
	Logger  zerolog.Logger

	// Policy overrides, mainly so tests can drop the waits.
	InitPolicy   retry.Policy
	StagePolicy  retry.Policy
	CommitPolicy retry.Policy
}

func (e *Engine) manager() *snapshot.Manager {
	return &snapshot.Manager{
		Backend:    e.Backend,
		Logger:     e.Logger,
		InitPolicy: e.InitPolicy,
	}
}

func (e *Engine) committer() *snapshot.Committer {
	return &snapshot.Committer{
		Backend:      e.Backend,
		Manager:      e.manager(),
		Logger:       e.Logger,
		StagePolicy:  e.StagePolicy,
		CommitPolicy: e.CommitPolicy,
	}
}

func (e *Engine) resolver() *snapshot.Resolver {
	return &snapshot.Resolver{
		Backend: e.Backend,
		Logger:  e.Logger,
	}
}

// excludesFor is the exclusion set for both mirror directions: repository
// metadata, the site's dump artifact and the configured patterns.
func (e *Engine) excludesFor(site config.Site) []string {
	excludes := []string{".git", site.DumpArtifact()}
	return append(excludes, e.Cfg.Excludes...)
}

func (e *Engine) runLogPath() string {
	return filepath.Join(e.Cfg.BackupRoot, "run.log")
}

// finishRun closes the report, appends it to the run log and records catalog
// rows per site.
func (e *Engine) finishRun(ctx context.Context, report *RunReport) {
	report.Seconds = time.Since(report.StartedAt).Seconds()

	if err := appendRunLog(e.runLogPath(), report); err != nil {
		e.Logger.Error().Err(err).Str("path", e.runLogPath()).Msg("could not write run log")
	}

	if e.Catalog == nil {
		return
	}
	for _, site := range report.Sites() {
		run := &database.Run{
			Site:      site,
			Kind:      report.Kind,
			StartedAt: report.StartedAt,
			Seconds:   report.Seconds,
			Steps:     report.SiteSteps(site),
			Failed:    report.SiteFailed(site),
			Commit:    report.Commits[site],
			Error:     report.SiteError(site),
		}
		if err := e.Catalog.RecordRun(ctx, run); err != nil {
			e.Logger.Warn().Err(err).Str("site", site).Msg("could not record run in catalog")
		}
	}
}
