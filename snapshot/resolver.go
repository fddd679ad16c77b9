package snapshot

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sitesnap/sitesnap/mirror"
	"github.com/sitesnap/sitesnap/vcs"
)

// Resolver turns a requested commit reference into an exact historical state
// and materializes it.
type Resolver struct {
	Backend vcs.Backend
	Logger  zerolog.Logger
}

// Resolve maps requested to a commit. Empty means the current head. Anything
// else is treated as a prefix of the abbreviated identifier; history is
// scanned most recent first, so when several commits share the prefix the
// most recent one wins.
func (r *Resolver) Resolve(ctx context.Context, path, requested string) (vcs.Commit, error) {
	commits, err := r.Backend.Log(ctx, path)
	if err != nil {
		return vcs.Commit{}, fmt.Errorf("could not read history: %w", err)
	}
	if len(commits) == 0 {
		return vcs.Commit{}, &ReferenceNotFoundError{Requested: requested}
	}

	if requested == "" {
		return commits[0], nil
	}

	for _, c := range commits {
		if strings.HasPrefix(c.ID, requested) {
			return c, nil
		}
	}
	return vcs.Commit{}, &ReferenceNotFoundError{Requested: requested}
}

// CheckoutSnapshot writes the tree state of ref into the repository working
// area. Content only: no history-line switch, no new commit.
func (r *Resolver) CheckoutSnapshot(ctx context.Context, path, ref string) error {
	r.Logger.Info().Str("repo", path).Str("ref", ref).Msg("checking out snapshot")
	if err := r.Backend.Checkout(ctx, path, ref); err != nil {
		return fmt.Errorf("could not check out %q: %w", ref, err)
	}
	return nil
}

// Materialize checks ref out and mirrors the working area onto target,
// deleting anything at the target not present in the snapshot, excluded
// entries aside.
func (r *Resolver) Materialize(ctx context.Context, path, ref, target string, excludes []string) (mirror.Stats, error) {
	if err := r.CheckoutSnapshot(ctx, path, ref); err != nil {
		return mirror.Stats{}, err
	}

	return mirror.Sync(ctx, path, target, r.Logger,
		mirror.WithExcludes(excludes),
		mirror.WithDeleteExtraneous(true),
	)
}
