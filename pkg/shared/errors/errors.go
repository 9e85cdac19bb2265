package errors

import (
	"errors"
	"fmt"
)

// Error kinds raised by a scan. Fatal kinds terminate the command with the exit code
// returned by ExitCodeFor; ErrTask is recovered inside the scan and never surfaces here.
var (
	ErrCatalog     = errors.New("rule catalog error")
	ErrCorpus      = errors.New("corpus error")
	ErrTask        = errors.New("extraction task failed")
	ErrScanAborted = errors.New("scan aborted")
	ErrStore       = errors.New("result store error")
)

const (
	ExitCodeGeneric = 1
	ExitCodeCatalog = 2
	ExitCodeCorpus  = 3
	ExitCodeStore   = 4
	ExitCodeAborted = 130
)

// Wrap marks err as belonging to kind while keeping it in the chain.
func Wrap(kind error, format string, args ...interface{}) error {
	return &kindError{kind: kind, err: fmt.Errorf(format, args...)}
}

type kindError struct {
	kind error
	err  error
}

func (e *kindError) Error() string {
	return fmt.Sprintf("%s: %s", e.kind, e.err)
}

func (e *kindError) Unwrap() []error {
	return []error{e.kind, e.err}
}

// StoreError is returned when a baseline could not be read or written.
// PreservedPath points at the copy of the new output that was kept.
type StoreError struct {
	ArtifactID    string
	PreservedPath string
	Err           error
}

func (e *StoreError) Error() string {
	if e.PreservedPath != "" {
		return fmt.Sprintf("%s for %q (new output preserved at %q): %v", ErrStore, e.ArtifactID, e.PreservedPath, e.Err)
	}
	return fmt.Sprintf("%s for %q: %v", ErrStore, e.ArtifactID, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return []error{ErrStore, e.Err}
}

// CommandError carries the exit code a command should terminate with.
type CommandError struct {
	ExitCode    int
	CommonError string
	Err         error
}

// Error implements the error interface, returning the message from the common error.
func (e *CommandError) Error() string {
	return e.CommonError
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a new CommandError with an exit code derived from the error kind.
func NewCommandError(err error) *CommandError {
	return &CommandError{
		ExitCode:    ExitCodeFor(err),
		CommonError: err.Error(),
		Err:         err,
	}
}

// ExitCodeFor maps an error kind to a process exit code.
func ExitCodeFor(err error) int {
	var cmdErr *CommandError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &cmdErr):
		return cmdErr.ExitCode
	case errors.Is(err, ErrScanAborted):
		return ExitCodeAborted
	case errors.Is(err, ErrCatalog):
		return ExitCodeCatalog
	case errors.Is(err, ErrCorpus):
		return ExitCodeCorpus
	case errors.Is(err, ErrStore):
		return ExitCodeStore
	default:
		return ExitCodeGeneric
	}
}
