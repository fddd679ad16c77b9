package dump

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/docker/go-units"
	"github.com/rs/zerolog"

	"github.com/sitesnap/sitesnap/retry"
)

// Adapter wraps a Backend with the engine's retry and artifact-hygiene
// policies: dumps are retried and never leave a truncated artifact behind;
// restores are operator-confirmed single-shot actions and are not retried.
type Adapter struct {
	Backend Backend
	Logger  zerolog.Logger
	// Policy overrides the default dump retry policy (3 attempts, 5s apart).
	Policy retry.Policy
	// MaxDumpBytes logs a warning when an artifact exceeds it. 0 disables.
	MaxDumpBytes int64
}

func (a *Adapter) policy() retry.Policy {
	if a.Policy.MaxAttempts > 0 {
		return a.Policy
	}
	return retry.Fixed(3, 5*time.Second)
}

// Dump exports database to outputPath. Each attempt writes to a scratch file
// renamed into place on success, so a previous good artifact survives failed
// attempts. When retries are exhausted the artifact is removed entirely and a
// DumpError returned.
func (a *Adapter) Dump(ctx context.Context, database, user, password, outputPath string) error {
	logger := a.Logger.With().Str("database", database).Str("path", outputPath).Logger()
	scratch := outputPath + ".part"

	err := a.policy().Do(ctx, logger, "dump database", func(ctx context.Context) error {
		out, err := os.Create(scratch)
		if err != nil {
			return err
		}

		exportErr := a.Backend.Export(ctx, database, user, password, out)
		closeErr := out.Close()
		if exportErr == nil {
			exportErr = closeErr
		}
		if exportErr != nil {
			_ = os.Remove(scratch)
			return exportErr
		}

		return os.Rename(scratch, outputPath)
	})
	if err != nil {
		_ = os.Remove(scratch)
		_ = os.Remove(outputPath)
		return &DumpError{Database: database, Err: err}
	}

	if info, err := os.Stat(outputPath); err == nil {
		logger.Info().Int64("bytes", info.Size()).Msg("database dumped")
		if a.MaxDumpBytes > 0 && info.Size() > a.MaxDumpBytes {
			logger.Warn().
				Str("size", units.HumanSize(float64(info.Size()))).
				Str("max", units.HumanSize(float64(a.MaxDumpBytes))).
				Msg("dump artifact exceeds the configured maximum size")
		}
	}
	return nil
}

// Restore imports inputPath into database. The artifact must exist; a missing
// artifact fails immediately. The import itself is single-shot: a blind retry
// against a partially applied import is unsafe.
func (a *Adapter) Restore(ctx context.Context, database, user, password, inputPath string) error {
	logger := a.Logger.With().Str("database", database).Str("path", inputPath).Logger()

	in, err := os.Open(inputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &RestoreError{Database: database, Err: fmt.Errorf("%w: %s", ErrArtifactMissing, inputPath)}
		}
		return &RestoreError{Database: database, Err: err}
	}
	defer in.Close()

	if err := a.Backend.Ping(ctx, database, user, password); err != nil {
		return &RestoreError{Database: database, Err: err}
	}

	logger.Info().Msg("restoring database")
	if err := a.Backend.Import(ctx, database, user, password, in); err != nil {
		return &RestoreError{Database: database, Err: err}
	}
	logger.Info().Msg("database restored")
	return nil
}
