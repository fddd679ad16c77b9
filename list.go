package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sitesnap/sitesnap/config"
	"github.com/sitesnap/sitesnap/vcs"
)

func listBackupsCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	cfg, err := config.LoadFromFile(args.ListBackups.Config)
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}

	site, err := cfg.Site(args.ListBackups.Site)
	if err != nil {
		return err
	}

	backend := vcs.NewGit(logger)
	repo := site.RepoPath(cfg.BackupRoot)
	if !backend.IsRepository(ctx, repo) {
		return fmt.Errorf("site %q has no snapshots yet", site.Label)
	}

	commits, err := backend.Log(ctx, repo)
	if err != nil {
		return err
	}

	for _, commit := range commits {
		fmt.Printf("%s - %s (%s)\n", commit.ID, commit.Subject, commit.Age)
	}
	return nil
}

func listSitesCommand(args Command) error {
	cfg, err := config.LoadFromFile(args.ListSites.Config)
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}

	for _, site := range cfg.Sites {
		state := "disabled"
		if site.Enable {
			state = "enabled"
		}
		if site.Schedule != "" {
			fmt.Printf("%s\t%s\t%s\tschedule %q\n", site.Label, site.SourceDir, state, site.Schedule)
		} else {
			fmt.Printf("%s\t%s\t%s\n", site.Label, site.SourceDir, state)
		}
	}
	return nil
}
