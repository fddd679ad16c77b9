package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/sitesnap/sitesnap/config"
	"github.com/sitesnap/sitesnap/database"
	"github.com/sitesnap/sitesnap/dump"
	"github.com/sitesnap/sitesnap/engine"
	"github.com/sitesnap/sitesnap/fileutils"
	"github.com/sitesnap/sitesnap/vcs"
)

func backupCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	eng, err := buildEngine(args.Backup.Config, args.Backup.Database, logger)
	if err != nil {
		return err
	}

	startTime := time.Now()
	logger.Info().Msg("starting backup")
	defer func() {
		tookSeconds := time.Since(startTime).Seconds()
		if ctx.Err() != nil {
			logger.Info().Float64("seconds", tookSeconds).Msg("backup cancelled")
		} else {
			logger.Info().Float64("seconds", tookSeconds).Msg("backup done")
		}
	}()

	_, err = eng.BackupRun(ctx, args.Backup.Site)
	return err
}

// buildEngine wires the engine from the config file. dbPath overrides the
// catalog path from the config; with neither set, runs are not cataloged.
func buildEngine(cfgPath, dbPath string, logger zerolog.Logger) (*engine.Engine, error) {
	cfg, err := config.LoadFromFile(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("could not load config: %w", err)
	}

	if err := os.MkdirAll(cfg.BackupRoot, 0o755); err != nil {
		return nil, fmt.Errorf("could not create backup root: %w", err)
	}
	if err := fileutils.VerifyWritable(cfg.BackupRoot); err != nil {
		return nil, fmt.Errorf("backup root must be a writable directory: %w", err)
	}

	var catalog *database.Database
	if dbPath == "" {
		dbPath = cfg.Database
	}
	if dbPath != "" {
		dbCli, err := newSQLite(dbPath, logger)
		if err != nil {
			return nil, fmt.Errorf("could not open run catalog: %w", err)
		}
		catalog = &database.Database{Cli: dbCli, Logger: logger}
	}

	return &engine.Engine{
		Cfg:     cfg,
		Backend: vcs.NewGit(logger),
		Dumper: &dump.Adapter{
			Backend: &dump.Exec{
				Host:   cfg.DBHost,
				Port:   cfg.DBPort,
				Logger: logger,
			},
			Logger:       logger,
			MaxDumpBytes: cfg.MaxDumpSize.Size,
		},
		Catalog: catalog,
		Logger:  logger,
	}, nil
}
