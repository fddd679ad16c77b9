package database

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const defaultRunsLimit = 20

type Database struct {
	Lock   sync.Mutex
	Cli    *gorm.DB
	Logger zerolog.Logger
	DryRun bool
}

// RecordRun persists one run record.
func (d *Database) RecordRun(ctx context.Context, run *Run) error {
	d.Lock.Lock()
	defer d.Lock.Unlock()

	d.Logger.Debug().Object("run", *run).Msg("recording run")
	if d.DryRun {
		return nil
	}

	return d.Cli.WithContext(ctx).Create(run).Error
}

// RecentRuns returns runs most recent first, optionally filtered to one site.
func (d *Database) RecentRuns(ctx context.Context, site string, limit int) ([]Run, error) {
	d.Lock.Lock()
	defer d.Lock.Unlock()

	if limit <= 0 {
		limit = defaultRunsLimit
	}

	query := d.Cli.WithContext(ctx).Order("started_at DESC").Limit(limit)
	if site != "" {
		query = query.Where("site = ?", site)
	}

	runs := []Run{}
	if err := query.Find(&runs).Error; err != nil {
		d.Logger.Error().Err(err).Msg("error fetching runs from database")
		return nil, err
	}
	return runs, nil
}
