package vcs

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash"
	"github.com/docker/go-units"
)

// Fake is an in-memory Backend for tests. Commits snapshot the on-disk
// working tree; Checkout writes a snapshot back. Failure-injection counters
// make the next N calls of an operation fail.
type Fake struct {
	mu    sync.Mutex
	repos map[string]*fakeRepo

	FailInit     int
	FailStageAll int
	FailStageOne int
	FailCommit   int
	FailCheckout int

	GCCalls int

	nextIDs []string

	// Clock lets tests pin commit timestamps. Defaults to time.Now.
	Clock func() time.Time
}

type fakeRepo struct {
	branch   string
	config   map[string]string
	excludes []string
	commits  []fakeCommit // oldest first
	staged   map[string][]byte
	seq      int
}

type fakeCommit struct {
	id      string
	subject string
	at      time.Time
	tree    map[string][]byte
}

func NewFake() *Fake {
	return &Fake{repos: map[string]*fakeRepo{}}
}

var _ Backend = (*Fake)(nil)

// SetNextIDs queues identifiers for upcoming commits, oldest first.
func (f *Fake) SetNextIDs(ids ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextIDs = append(f.nextIDs, ids...)
}

func (f *Fake) now() time.Time {
	if f.Clock != nil {
		return f.Clock()
	}
	return time.Now()
}

func (f *Fake) repo(path string) (*fakeRepo, error) {
	r, ok := f.repos[filepath.Clean(path)]
	if !ok {
		return nil, fmt.Errorf("not a repository: %s", path)
	}
	return r, nil
}

func failNext(counter *int, op string) error {
	if *counter > 0 {
		*counter--
		return fmt.Errorf("injected %s failure", op)
	}
	return nil
}

func (f *Fake) Init(_ context.Context, path, branch string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := failNext(&f.FailInit, "init"); err != nil {
		return err
	}

	key := filepath.Clean(path)
	if _, ok := f.repos[key]; ok {
		return nil
	}
	f.repos[key] = &fakeRepo{branch: branch, config: map[string]string{}}
	return nil
}

func (f *Fake) IsRepository(_ context.Context, path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.repos[filepath.Clean(path)]
	return ok
}

func (f *Fake) SetConfig(_ context.Context, path, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, err := f.repo(path)
	if err != nil {
		return err
	}
	r.config[key] = value
	return nil
}

// Config returns the value set for key, for assertions.
func (f *Fake) Config(path, key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, err := f.repo(path)
	if err != nil {
		return ""
	}
	return r.config[key]
}

func (f *Fake) SetExcludes(_ context.Context, path string, patterns []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, err := f.repo(path)
	if err != nil {
		return err
	}
	r.excludes = append([]string(nil), patterns...)
	return nil
}

func (f *Fake) StageAll(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := failNext(&f.FailStageAll, "stage-all"); err != nil {
		return err
	}

	r, err := f.repo(path)
	if err != nil {
		return err
	}
	tree, err := readTree(path, r.excludes)
	if err != nil {
		return err
	}
	r.staged = tree
	return nil
}

func (f *Fake) StageOne(_ context.Context, path, file string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := failNext(&f.FailStageOne, "stage-one"); err != nil {
		return err
	}

	r, err := f.repo(path)
	if err != nil {
		return err
	}
	if r.staged == nil {
		r.staged = copyTree(r.headTree())
	}

	content, err := os.ReadFile(filepath.Join(path, file))
	if os.IsNotExist(err) {
		delete(r.staged, filepath.ToSlash(file))
		return nil
	}
	if err != nil {
		return err
	}
	r.staged[filepath.ToSlash(file)] = content
	return nil
}

func (f *Fake) ListFiles(_ context.Context, path string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, err := f.repo(path)
	if err != nil {
		return nil, err
	}

	tree, err := readTree(path, r.excludes)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	for file := range tree {
		seen[file] = struct{}{}
	}
	for file := range r.headTree() {
		seen[file] = struct{}{}
	}

	files := make([]string, 0, len(seen))
	for file := range seen {
		files = append(files, file)
	}
	sort.Strings(files)
	return files, nil
}

func (f *Fake) HasStagedChanges(_ context.Context, path string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, err := f.repo(path)
	if err != nil {
		return false, err
	}
	if r.staged == nil {
		return false, nil
	}
	return !sameTree(r.staged, r.headTree()), nil
}

func (f *Fake) Commit(_ context.Context, path, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := failNext(&f.FailCommit, "commit"); err != nil {
		return err
	}

	r, err := f.repo(path)
	if err != nil {
		return err
	}
	if r.staged == nil || sameTree(r.staged, r.headTree()) {
		return fmt.Errorf("nothing to commit")
	}
	f.appendCommit(r, path, message, r.staged)
	r.staged = nil
	return nil
}

func (f *Fake) CommitAllowEmpty(_ context.Context, path, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := failNext(&f.FailCommit, "commit"); err != nil {
		return err
	}

	r, err := f.repo(path)
	if err != nil {
		return err
	}
	tree := r.staged
	if tree == nil {
		tree = r.headTree()
	}
	f.appendCommit(r, path, message, tree)
	r.staged = nil
	return nil
}

func (f *Fake) appendCommit(r *fakeRepo, path, message string, tree map[string][]byte) {
	r.seq++
	id := fmt.Sprintf("%07x", xxhash.Sum64String(fmt.Sprintf("%s#%d", path, r.seq))&0xfffffff)
	if len(f.nextIDs) > 0 {
		id = f.nextIDs[0]
		f.nextIDs = f.nextIDs[1:]
	}
	// Spread timestamps so recency ordering stays strict.
	at := f.now().Add(time.Duration(r.seq) * time.Millisecond)
	r.commits = append(r.commits, fakeCommit{id: id, subject: message, at: at, tree: copyTree(tree)})
}

func (f *Fake) Log(_ context.Context, path string) ([]Commit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, err := f.repo(path)
	if err != nil {
		return nil, err
	}

	commits := make([]Commit, 0, len(r.commits))
	for i := len(r.commits) - 1; i >= 0; i-- {
		c := r.commits[i]
		commits = append(commits, Commit{
			ID:      c.id,
			Subject: c.subject,
			Age:     units.HumanDuration(time.Since(c.at)) + " ago",
		})
	}
	return commits, nil
}

func (f *Fake) Head(_ context.Context, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, err := f.repo(path)
	if err != nil {
		return "", err
	}
	if len(r.commits) == 0 {
		return "", fmt.Errorf("repository has no commits: %s", path)
	}
	return r.commits[len(r.commits)-1].id, nil
}

func (f *Fake) Checkout(_ context.Context, path, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := failNext(&f.FailCheckout, "checkout"); err != nil {
		return err
	}

	r, err := f.repo(path)
	if err != nil {
		return err
	}
	for i := len(r.commits) - 1; i >= 0; i-- {
		if r.commits[i].id == ref {
			return writeTree(path, r.commits[i].tree)
		}
	}
	return fmt.Errorf("unknown reference: %s", ref)
}

func (f *Fake) GC(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := f.repo(path); err != nil {
		return err
	}
	f.GCCalls++
	return nil
}

// CommitCount reports the number of commits, for assertions.
func (f *Fake) CommitCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, err := f.repo(path)
	if err != nil {
		return 0
	}
	return len(r.commits)
}

// CommitTree returns a copy of the tree snapshot of ref, for assertions.
func (f *Fake) CommitTree(path, ref string) map[string][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, err := f.repo(path)
	if err != nil {
		return nil
	}
	for _, c := range r.commits {
		if c.id == ref {
			return copyTree(c.tree)
		}
	}
	return nil
}

func (r *fakeRepo) headTree() map[string][]byte {
	if len(r.commits) == 0 {
		return map[string][]byte{}
	}
	return r.commits[len(r.commits)-1].tree
}

func readTree(root string, excludes []string) (map[string][]byte, error) {
	tree := map[string][]byte{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			if rel != "." && excludedPath(rel, excludes) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || excludedPath(rel, excludes) {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		tree[filepath.ToSlash(rel)] = content
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tree, nil
}

// excludedPath mimics the subset of ignore semantics the engine relies on:
// a pattern matches the whole relative path or any single path segment.
func excludedPath(rel string, patterns []string) bool {
	rel = filepath.ToSlash(rel)
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, rel); ok {
			return true
		}
		for _, segment := range strings.Split(rel, "/") {
			if ok, _ := filepath.Match(pattern, segment); ok {
				return true
			}
		}
	}
	return false
}

func writeTree(root string, tree map[string][]byte) error {
	for rel, content := range tree {
		dest := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(dest, content, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func copyTree(tree map[string][]byte) map[string][]byte {
	out := make(map[string][]byte, len(tree))
	for k, v := range tree {
		out[k] = append([]byte(nil), v...)
	}
	return out
}

func sameTree(a, b map[string][]byte) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok || string(va) != string(vb) {
			return false
		}
	}
	return true
}
