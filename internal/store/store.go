// Package store publishes scan output as the baseline of an artifact, writing only
// when the output differs from the baseline already stored.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/scan-io-git/leakscan/internal/scan"
	"github.com/scan-io-git/leakscan/pkg/shared/errors"
	"github.com/scan-io-git/leakscan/pkg/shared/files"
)

// Outcome describes what a publish did with the new output.
type Outcome int

const (
	DiscardedEmpty Outcome = iota
	Created
	Replaced
	Unchanged
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Replaced:
		return "replaced"
	case Unchanged:
		return "unchanged"
	default:
		return "discarded-empty"
	}
}

// Changed reports whether the baseline was written.
func (o Outcome) Changed() bool {
	return o == Created || o == Replaced
}

// Key identifies the baseline of one artifact in one output format.
type Key struct {
	ArtifactID string
	Ext        string
}

// Name is the object or file name of the baseline.
func (k Key) Name() string {
	return k.ArtifactID + "." + k.Ext
}

// Validate rejects artifact identities that cannot be used as a single file name.
func (k Key) Validate() error {
	if k.ArtifactID == "" || k.ArtifactID == "." || k.ArtifactID == ".." {
		return fmt.Errorf("invalid artifact id %q", k.ArtifactID)
	}
	if strings.ContainsAny(k.ArtifactID, `/\`) {
		return fmt.Errorf("artifact id %q must not contain path separators", k.ArtifactID)
	}
	if k.Ext == "" {
		return fmt.Errorf("baseline extension is empty")
	}
	return nil
}

// Result is returned by a publish.
type Result struct {
	Outcome  Outcome
	Location string
}

// Store keeps one baseline per key.
type Store interface {
	Publish(ctx context.Context, sc *scan.Context, key Key, output []byte) (Result, error)
}

// preserve keeps output in dir when the baseline could not be written, so that a
// store failure never silently drops a report.
func preserve(dir string, sc *scan.Context, key Key, output []byte) string {
	if dir == "" || len(output) == 0 {
		return ""
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.%s.%s", key.ArtifactID, sc.ID, key.Ext))
	if err := files.WriteFileAtomic(path, output, 0644); err != nil {
		sc.Logger.Error("failed to preserve new output", "path", path, "error", err)
		return ""
	}
	return path
}

func storeError(dir string, sc *scan.Context, key Key, output []byte, err error) error {
	return &errors.StoreError{
		ArtifactID:    key.ArtifactID,
		PreservedPath: preserve(dir, sc, key, output),
		Err:           err,
	}
}

// checkPublish handles the checks shared by every backend. done is true when the
// publish is already decided.
func checkPublish(ctx context.Context, key Key, output []byte) (res Result, done bool, err error) {
	if err := ctx.Err(); err != nil {
		return Result{}, true, errors.Wrap(errors.ErrScanAborted, "publish of %q skipped: %w", key.ArtifactID, err)
	}
	if err := key.Validate(); err != nil {
		return Result{}, true, errors.Wrap(errors.ErrStore, "%w", err)
	}
	if len(output) == 0 {
		return Result{Outcome: DiscardedEmpty}, true, nil
	}
	return Result{}, false, nil
}

// Hook runs after a successful publish.
type Hook interface {
	AfterPublish(ctx context.Context, sc *scan.Context, key Key, res Result) error
}

// Publisher wraps a Store with hooks such as history recording and notifications.
// Hook failures are logged and never change the publish result.
type Publisher struct {
	store Store
	hooks []Hook
}

// NewPublisher creates a Publisher.
func NewPublisher(s Store, hooks ...Hook) *Publisher {
	return &Publisher{store: s, hooks: hooks}
}

// Publish stores output and runs every hook.
func (p *Publisher) Publish(ctx context.Context, sc *scan.Context, key Key, output []byte) (Result, error) {
	res, err := p.store.Publish(ctx, sc, key, output)
	if err != nil {
		return res, err
	}
	sc.Logger.Info("publish finished", "outcome", res.Outcome.String(), "location", res.Location)

	for _, h := range p.hooks {
		if err := h.AfterPublish(ctx, sc, key, res); err != nil {
			sc.Logger.Warn("post-publish hook failed", "hook", fmt.Sprintf("%T", h), "error", err)
		}
	}
	return res, nil
}

// StagingDirFor returns the folder used to preserve output for failed publishes.
func StagingDirFor(tempFolder string) string {
	return filepath.Join(tempFolder, "staging")
}

func readFileIfExists(path string) ([]byte, bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}
