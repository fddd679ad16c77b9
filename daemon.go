package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sitesnap/sitesnap/engine"
	"github.com/sitesnap/sitesnap/fileutils"
	"github.com/sitesnap/sitesnap/scheduler"
)

func daemonCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	eng, err := buildEngine(args.Daemon.Config, args.Daemon.Database, logger)
	if err != nil {
		return err
	}

	sched := scheduler.NewScheduler(scheduler.SchedulerParams{
		Logger: logger,
	})

	if err := addBackupJobsFromConfig(ctx, sched, eng, logger); err != nil {
		return fmt.Errorf("could not add backup jobs: %w", err)
	}

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	startConfigFileWatcher(ctx, args.Daemon.Config, logger, ticker, func() {
		reloaded, err := buildEngine(args.Daemon.Config, args.Daemon.Database, logger)
		if err != nil {
			logger.Error().Err(err).Msg("could not rebuild engine from config")
			return
		}
		sched.RemoveJobs()
		if err := addBackupJobsFromConfig(ctx, sched, reloaded, logger); err != nil {
			logger.Error().Err(err).Msg("could not add backup jobs")
		}
	})

	sched.Start()
	defer sched.Stop()

	<-ctx.Done()

	return nil
}

func addBackupJobsFromConfig(
	ctx context.Context,
	sched *scheduler.Scheduler,
	eng *engine.Engine,
	logger zerolog.Logger,
) error {
	for _, site := range eng.Cfg.Sites {
		if !site.Enable {
			logger.Info().Str("site", site.Label).Msg("skipping disabled site")
			continue
		}
		if site.Schedule == "" {
			logger.Warn().Str("site", site.Label).Msg("skipping site without a schedule")
			continue
		}

		job := &backupJob{
			ctx:    ctx,
			eng:    eng,
			label:  site.Label,
			logger: logger,
		}
		if err := sched.AddJob(site.Schedule, job); err != nil {
			logger.Error().Err(err).Str("site", site.Label).Msg("could not add backup job")
			continue
		}

		logger.Info().Object("site", site).Msg("added backup job")
	}
	return nil
}

func startConfigFileWatcher(ctx context.Context, cfgPath string, logger zerolog.Logger, ticker *time.Ticker, onChanged func()) {
	logger.Info().Str("path", cfgPath).Msg("watching config file for changes")
	watcher, err := fileutils.WatchFile(ctx, cfgPath, when(ticker.C), func(err error) {
		logger.Error().Err(err).Msg("could not watch config file")
	})
	if err != nil {
		logger.Error().Err(err).Msg("could not watch config file")
		return
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-watcher:
				logger.Info().Str("path", cfgPath).Msg("config file changed, reloading")
				onChanged()
			}
		}
	}()
}

func when[T any](ch <-chan T) <-chan struct{} {
	out := make(chan struct{})
	go func() {
		defer close(out)
		for range ch {
			out <- struct{}{}
		}
	}()
	return out
}

type backupJob struct {
	ctx    context.Context
	eng    *engine.Engine
	label  string
	logger zerolog.Logger
}

func (b *backupJob) Run() {
	_, err := b.eng.BackupRun(b.ctx, b.label)
	if err != nil {
		b.logger.Error().Err(err).Str("site", b.label).Msg("scheduled backup failed")
	}
}
