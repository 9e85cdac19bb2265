// Package decompiler turns an artifact into a searchable source tree.
package decompiler

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"unicode"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/leakscan/pkg/shared/errors"
	"github.com/scan-io-git/leakscan/pkg/shared/files"
)

// Decompiler writes the decompiled form of artifact into outDir.
type Decompiler interface {
	Decompile(ctx context.Context, artifact, outDir string, extraArgs []string) error
}

// Jadx runs the jadx command line decompiler.
type Jadx struct {
	path   string
	logger hclog.Logger
}

// NewJadx creates a Jadx runner invoking the binary at path.
func NewJadx(path string, logger hclog.Logger) *Jadx {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Jadx{path: path, logger: logger}
}

// Command builds the jadx invocation without running it.
func (j *Jadx) Command(ctx context.Context, artifact, outDir string, extraArgs []string) *exec.Cmd {
	args := append([]string{artifact, "-d", outDir}, extraArgs...)
	return exec.CommandContext(ctx, j.path, args...)
}

// Decompile runs jadx. jadx exits non-zero whenever a single class fails to
// decompile, so a failed run is only fatal when it produced nothing.
func (j *Jadx) Decompile(ctx context.Context, artifact, outDir string, extraArgs []string) error {
	if err := files.ValidatePath(artifact); err != nil {
		return errors.Wrap(errors.ErrCorpus, "invalid artifact %q: %w", artifact, err)
	}

	cmd := j.Command(ctx, artifact, outDir, extraArgs)
	j.logger.Info("decompiling artifact", "artifact", artifact, "output", outDir)
	j.logger.Debug("decompiler command", "cmd", cmd.Args)

	w := j.logger.StandardWriter(&hclog.StandardLoggerOptions{InferLevels: true})
	cmd.Stdout = w
	cmd.Stderr = w

	runErr := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Wrap(errors.ErrScanAborted, "decompilation interrupted: %w", ctxErr)
	}

	empty, err := files.IsEmptyDir(outDir)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCorpus, "failed to inspect decompiler output %q: %w", outDir, err)
	}
	if empty || os.IsNotExist(err) {
		if runErr != nil {
			return errors.Wrap(errors.ErrCorpus, "decompilation of %q failed: %w", artifact, runErr)
		}
		return errors.Wrap(errors.ErrCorpus, "decompilation of %q produced no files", artifact)
	}

	if runErr != nil {
		j.logger.Warn("decompiler reported errors, continuing with partial output", "error", runErr)
	}
	return nil
}

// SplitArgs splits a user supplied argument string on whitespace and '='.
// "--deobf --threads-count=4" becomes [--deobf --threads-count 4].
func SplitArgs(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '='
	})
}

// Workspace is a temporary folder that receives the decompiled tree.
type Workspace struct {
	Dir    string
	logger hclog.Logger
}

// NewWorkspace creates a folder with the "result-" prefix under parent.
func NewWorkspace(parent string, logger hclog.Logger) (*Workspace, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if err := files.CreateFolderIfNotExists(parent); err != nil {
		return nil, errors.Wrap(errors.ErrCorpus, "failed to create temp folder %q: %w", parent, err)
	}
	dir, err := os.MkdirTemp(parent, "result-")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCorpus, "failed to create workspace: %w", err)
	}
	logger.Debug("workspace created", "dir", dir)
	return &Workspace{Dir: dir, logger: logger}, nil
}

// Close removes the workspace and everything in it.
func (w *Workspace) Close() error {
	if err := os.RemoveAll(w.Dir); err != nil {
		w.logger.Warn("failed to remove workspace", "dir", w.Dir, "error", err)
		return fmt.Errorf("failed to remove workspace %q: %w", w.Dir, err)
	}
	w.logger.Debug("workspace removed", "dir", w.Dir)
	return nil
}
