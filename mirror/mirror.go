package mirror

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/sitesnap/sitesnap/fileutils"
)

// Stats summarizes one synchronization pass.
type Stats struct {
	Copied  int
	Skipped int
	Deleted int
	Bytes   int64
}

func (s Stats) MarshalZerologObject(e *zerolog.Event) {
	e.Int("copied", s.Copied)
	e.Int("skipped", s.Skipped)
	e.Int("deleted", s.Deleted)
	e.Int64("bytes", s.Bytes)
}

// Sync copies source into dest, preserving file modes and mtimes. Files whose
// size and mtime match the destination are skipped; when only the mtime
// differs the contents are hash-compared before copying. With
// WithDeleteExtraneous the destination becomes an exact mirror modulo
// exclusions; without it, destination-only files are left untouched.
// A failure is fatal to the current step; retrying is the caller's business.
func Sync(ctx context.Context, source, dest string, logger zerolog.Logger, opts ...Option) (Stats, error) {
	o := syncOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	stats := Stats{}
	excluded := newMatcher(o.excludes)

	info, err := os.Stat(source)
	if err != nil {
		return stats, &SyncError{Source: source, Dest: dest, Err: err}
	}
	if !info.IsDir() {
		return stats, &SyncError{Source: source, Dest: dest, Err: fmt.Errorf("source is not a directory")}
	}
	if !o.dryRun {
		if err := os.MkdirAll(dest, info.Mode().Perm()); err != nil {
			return stats, &SyncError{Source: source, Dest: dest, Err: err}
		}
	}

	logger = logger.With().Str("source", source).Str("dest", dest).Logger()
	logger.Info().Bool("delete_extraneous", o.deleteExtraneous).Msg("mirroring tree")
	startTime := time.Now()
	defer func() {
		logger.Info().
			Object("stats", stats).
			Float64("seconds", time.Since(startTime).Seconds()).
			Msg("done mirroring tree")
	}()

	throttled := logger.Sample(&zerolog.BurstSampler{Burst: 1, Period: 1 * time.Second})

	err = filepath.WalkDir(source, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return filepath.SkipAll
		}
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(source, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}
		if excluded.Match(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		target := filepath.Join(dest, rel)

		if d.IsDir() {
			if o.dryRun {
				return nil
			}
			srcInfo, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(target, srcInfo.Mode().Perm())
		}

		srcInfo, err := d.Info()
		if err != nil {
			return err
		}
		if !srcInfo.Mode().IsRegular() {
			logger.Debug().Str("path", rel).Msg("skipping irregular file")
			return nil
		}

		copied, n, err := copyIfChanged(path, target, srcInfo, o.dryRun)
		if err != nil {
			return err
		}
		if copied {
			stats.Copied++
			stats.Bytes += n
		} else {
			stats.Skipped++
		}
		throttled.Info().Int("copied", stats.Copied).Int("skipped", stats.Skipped).Msg("mirroring files")
		return nil
	})
	if err != nil {
		return stats, &SyncError{Source: source, Dest: dest, Err: err}
	}

	if o.deleteExtraneous && ctx.Err() == nil {
		deleted, err := deleteExtraneous(ctx, source, dest, excluded, logger, o.dryRun)
		stats.Deleted = deleted
		if err != nil {
			return stats, &SyncError{Source: source, Dest: dest, Err: err}
		}
	}

	return stats, nil
}

// copyIfChanged reports whether the file was copied and how many bytes.
func copyIfChanged(srcPath, destPath string, srcInfo fs.FileInfo, dryRun bool) (bool, int64, error) {
	destInfo, err := os.Stat(destPath)
	switch {
	case err == nil:
		if destInfo.Size() == srcInfo.Size() {
			if destInfo.ModTime().Equal(srcInfo.ModTime()) {
				return false, 0, nil
			}
			same, err := fileutils.SameContent(srcPath, destPath)
			if err == nil && same {
				// Align the mtime so the next pass skips on the cheap check.
				if !dryRun {
					_ = os.Chtimes(destPath, srcInfo.ModTime(), srcInfo.ModTime())
				}
				return false, 0, nil
			}
		}
	case !os.IsNotExist(err):
		return false, 0, err
	}

	if dryRun {
		return true, srcInfo.Size(), nil
	}

	n, err := copyFile(srcPath, destPath, srcInfo)
	if err != nil {
		return false, 0, err
	}
	return true, n, nil
}

func copyFile(srcPath, destPath string, srcInfo fs.FileInfo) (int64, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return 0, err
	}

	dst, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, err
	}

	if err := os.Chmod(destPath, srcInfo.Mode().Perm()); err != nil {
		return n, err
	}
	return n, os.Chtimes(destPath, srcInfo.ModTime(), srcInfo.ModTime())
}

func deleteExtraneous(ctx context.Context, source, dest string, excluded matcher, logger zerolog.Logger, dryRun bool) (int, error) {
	var deleted int
	err := filepath.WalkDir(dest, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return filepath.SkipAll
		}
		if err != nil {
			// The entry may be gone because its parent was removed.
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}

		rel, relErr := filepath.Rel(dest, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}
		if excluded.Match(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if _, err := os.Stat(filepath.Join(source, rel)); err == nil {
			return nil
		} else if !os.IsNotExist(err) {
			return err
		}

		logger.Debug().Str("path", rel).Msg("removing extraneous entry")
		deleted++
		if dryRun {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err := os.RemoveAll(path); err != nil {
			return err
		}
		if d.IsDir() {
			return filepath.SkipDir
		}
		return nil
	})
	return deleted, err
}
