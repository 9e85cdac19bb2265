package store

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/leakscan/internal/scan"
	"github.com/scan-io-git/leakscan/pkg/shared/files"
)

// FS keeps baselines as files under a results folder.
type FS struct {
	root       string
	stagingDir string
	logger     hclog.Logger
}

// NewFS creates a filesystem store rooted at root. Output that cannot be published
// is preserved in stagingDir.
func NewFS(root, stagingDir string, logger hclog.Logger) *FS {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &FS{root: root, stagingDir: stagingDir, logger: logger}
}

// Location returns the baseline path for key.
func (s *FS) Location(key Key) string {
	return filepath.Join(s.root, key.Name())
}

// Publish implements Store.
func (s *FS) Publish(ctx context.Context, sc *scan.Context, key Key, output []byte) (Result, error) {
	if res, done, err := checkPublish(ctx, key, output); done {
		return res, err
	}

	path, err := files.EnsureWithinRoot(s.root, s.Location(key))
	if err != nil {
		return Result{}, storeError(s.stagingDir, sc, key, output, err)
	}
	res := Result{Location: path}

	baseline, exists, err := readFileIfExists(path)
	if err != nil {
		return Result{}, storeError(s.stagingDir, sc, key, output, fmt.Errorf("failed to read baseline %q: %w", path, err))
	}

	switch {
	case !exists:
		res.Outcome = Created
	case bytes.Equal(baseline, output):
		res.Outcome = Unchanged
		sc.Logger.Debug("output identical to baseline, discarding", "path", path)
		return res, nil
	default:
		res.Outcome = Replaced
	}

	if err := files.WriteFileAtomic(path, output, 0644); err != nil {
		return Result{}, storeError(s.stagingDir, sc, key, output, fmt.Errorf("failed to write baseline %q: %w", path, err))
	}
	s.logger.Debug("baseline written", "path", path, "outcome", res.Outcome.String(), "bytes", len(output))
	return res, nil
}
