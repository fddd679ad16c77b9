package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sitesnap/sitesnap/engine"
)

func restoreCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	eng, err := buildEngine(args.Restore.Config, args.Restore.Database, logger)
	if err != nil {
		return err
	}

	confirm := promptConfirm
	if args.Restore.Yes {
		confirm = nil
	}

	startTime := time.Now()
	logger.Info().Str("site", args.Restore.Site).Msg("starting restore")
	defer func() {
		tookSeconds := time.Since(startTime).Seconds()
		if ctx.Err() != nil {
			logger.Info().Str("site", args.Restore.Site).Float64("seconds", tookSeconds).Msg("restore cancelled")
		} else {
			logger.Info().Str("site", args.Restore.Site).Float64("seconds", tookSeconds).Msg("restore done")
		}
	}()

	_, err = eng.RestoreRun(ctx, args.Restore.Site, args.Restore.Ref, confirm)
	if errors.Is(err, engine.ErrAborted) {
		logger.Info().Msg("restore aborted")
		return nil
	}
	return err
}

// promptConfirm asks on stdout and reads one line from stdin. Anything but an
// explicit yes declines.
func promptConfirm(question string) (bool, error) {
	fmt.Printf("%s (y/N): ", question)

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("could not read answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
