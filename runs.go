package main

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-units"
	"github.com/rs/zerolog"

	"github.com/sitesnap/sitesnap/config"
	"github.com/sitesnap/sitesnap/database"
)

func runsCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	cfg, err := config.LoadFromFile(args.Runs.Config)
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}

	dbPath := args.Runs.Database
	if dbPath == "" {
		dbPath = cfg.Database
	}
	if dbPath == "" {
		return fmt.Errorf("no run catalog configured, pass --database or set it in the config")
	}

	if args.Runs.Site != "" {
		if _, err := cfg.Site(args.Runs.Site); err != nil {
			return err
		}
	}

	dbCli, err := newSQLite(dbPath, logger)
	if err != nil {
		return fmt.Errorf("could not open run catalog: %w", err)
	}
	db := &database.Database{Cli: dbCli, Logger: logger}

	runs, err := db.RecentRuns(ctx, args.Runs.Site, args.Runs.Limit)
	if err != nil {
		return err
	}

	for _, run := range runs {
		age := units.HumanDuration(time.Since(run.StartedAt)) + " ago"
		status := "ok"
		if run.Failed > 0 {
			status = fmt.Sprintf("FAILED %d/%d: %s", run.Failed, run.Steps, run.Error)
		}
		if run.Commit != "" {
			fmt.Printf("%s\t%s\t%s\tcommit %s\t%s\n", age, run.Site, run.Kind, run.Commit, status)
		} else {
			fmt.Printf("%s\t%s\t%s\t%s\n", age, run.Site, run.Kind, status)
		}
	}
	return nil
}
