package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/scan-io-git/leakscan/internal/scan"
)

// History records every changed baseline as a commit in a git repository kept in
// the results folder, so earlier baselines can be inspected with plain git.
type History struct {
	mu    sync.Mutex
	dir   string
	name  string
	email string
	now   func() time.Time
}

// NewHistory creates a History for the filesystem results folder dir.
func NewHistory(dir, authorName, authorEmail string) *History {
	return &History{dir: dir, name: authorName, email: authorEmail, now: time.Now}
}

// AfterPublish implements Hook. Unchanged and discarded publishes are not recorded.
func (h *History) AfterPublish(ctx context.Context, sc *scan.Context, key Key, res Result) error {
	if !res.Outcome.Changed() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	repo, err := h.open()
	if err != nil {
		return err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	rel, err := filepath.Rel(h.dir, res.Location)
	if err != nil {
		return fmt.Errorf("baseline %q is outside of history folder: %w", res.Location, err)
	}
	if _, err := wt.Add(filepath.ToSlash(rel)); err != nil {
		return fmt.Errorf("failed to stage %q: %w", rel, err)
	}

	msg := fmt.Sprintf("%s %s\n\nscan: %s\n", res.Outcome, key.Name(), sc.ID)
	hash, err := wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{
			Name:  h.name,
			Email: h.email,
			When:  h.now(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to commit %q: %w", rel, err)
	}

	sc.Logger.Debug("baseline recorded in history", "commit", hash.String(), "file", rel)
	return nil
}

func (h *History) open() (*git.Repository, error) {
	repo, err := git.PlainOpen(h.dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		repo, err = git.PlainInit(h.dir, false)
		if err != nil {
			return nil, fmt.Errorf("failed to init history repository in %q: %w", h.dir, err)
		}
		return repo, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open history repository in %q: %w", h.dir, err)
	}
	return repo, nil
}
