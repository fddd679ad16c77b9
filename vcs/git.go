package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// commits need an identity even on hosts with no global git config
var identityArgs = []string{
	"-c", "user.name=sitesnap",
	"-c", "user.email=sitesnap@localhost",
}

// Git implements Backend by running the git binary.
type Git struct {
	Binary string // defaults to "git"
	Logger zerolog.Logger
}

func NewGit(logger zerolog.Logger) *Git {
	return &Git{Logger: logger}
}

var _ Backend = (*Git)(nil)

func (g *Git) binary() string {
	if g.Binary != "" {
		return g.Binary
	}
	return "git"
}

func (g *Git) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, g.binary(), args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	g.Logger.Debug().Strs("args", args).Msg("running git")
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return "", fmt.Errorf("git %s: %w: %s", args[0], err, detail)
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}

	return strings.TrimRight(stdout.String(), "\n"), nil
}

func (g *Git) runIn(ctx context.Context, path string, args ...string) (string, error) {
	return g.run(ctx, append([]string{"-C", path}, args...)...)
}

func (g *Git) Init(ctx context.Context, path, branch string) error {
	_, err := g.run(ctx, "init", "--initial-branch", branch, path)
	return err
}

func (g *Git) IsRepository(ctx context.Context, path string) bool {
	_, err := g.runIn(ctx, path, "rev-parse", "--git-dir")
	return err == nil
}

func (g *Git) SetConfig(ctx context.Context, path, key, value string) error {
	_, err := g.runIn(ctx, path, "config", key, value)
	return err
}

// SetExcludes writes patterns to the repository-local exclude file, which
// unlike .gitignore never shows up in the tracked tree.
func (g *Git) SetExcludes(ctx context.Context, path string, patterns []string) error {
	gitDir, err := g.runIn(ctx, path, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return err
	}
	infoDir := filepath.Join(gitDir, "info")
	if err := os.MkdirAll(infoDir, 0o755); err != nil {
		return err
	}
	content := strings.Join(patterns, "\n") + "\n"
	return os.WriteFile(filepath.Join(infoDir, "exclude"), []byte(content), 0o644)
}

func (g *Git) StageAll(ctx context.Context, path string) error {
	_, err := g.runIn(ctx, path, "add", "--all", ".")
	return err
}

func (g *Git) StageOne(ctx context.Context, path, file string) error {
	_, err := g.runIn(ctx, path, "add", "--", file)
	return err
}

func (g *Git) ListFiles(ctx context.Context, path string) ([]string, error) {
	out, err := g.runIn(ctx, path, "ls-files", "--cached", "--others", "--exclude-standard")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

func (g *Git) HasStagedChanges(ctx context.Context, path string) (bool, error) {
	// diff --cached --quiet exits 1 when the index differs from HEAD.
	_, err := g.runIn(ctx, path, "diff", "--cached", "--quiet")
	if err == nil {
		return false, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return true, nil
	}
	return false, err
}

func (g *Git) Commit(ctx context.Context, path, message string) error {
	args := append([]string{"-C", path}, identityArgs...)
	args = append(args, "commit", "--message", message)
	_, err := g.run(ctx, args...)
	return err
}

func (g *Git) CommitAllowEmpty(ctx context.Context, path, message string) error {
	args := append([]string{"-C", path}, identityArgs...)
	args = append(args, "commit", "--allow-empty", "--message", message)
	_, err := g.run(ctx, args...)
	return err
}

func (g *Git) Log(ctx context.Context, path string) ([]Commit, error) {
	out, err := g.runIn(ctx, path, "log", "--pretty=format:%h%x09%s%x09%cr")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}

	lines := strings.Split(out, "\n")
	commits := make([]Commit, 0, len(lines))
	for _, line := range lines {
		fields := strings.SplitN(line, "\t", 3)
		if len(fields) != 3 {
			g.Logger.Warn().Str("line", line).Msg("skipping unparseable log line")
			continue
		}
		commits = append(commits, Commit{ID: fields[0], Subject: fields[1], Age: fields[2]})
	}
	return commits, nil
}

func (g *Git) Head(ctx context.Context, path string) (string, error) {
	return g.runIn(ctx, path, "rev-parse", "--short", "HEAD")
}

func (g *Git) Checkout(ctx context.Context, path, ref string) error {
	_, err := g.runIn(ctx, path, "checkout", ref, "--", ".")
	return err
}

func (g *Git) GC(ctx context.Context, path string) error {
	_, err := g.runIn(ctx, path, "gc", "--auto", "--quiet")
	return err
}
