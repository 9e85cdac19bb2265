// Package search finds pattern matches across a tree of text files.
package search

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/gabriel-vasile/mimetype"
	"github.com/hashicorp/go-hclog"
)

// Searcher returns every substring matching pattern in the files under root.
type Searcher interface {
	Search(ctx context.Context, pattern *regexp.Regexp, root string) ([]string, error)
}

// FS walks root on the local filesystem. Files are visited in lexical order, matching
// is done line by line and all matches of a line are returned in position order.
// Binary files and unreadable files are skipped.
type FS struct {
	logger      hclog.Logger
	maxFileSize int64
}

// DefaultMaxFileSize bounds the files read into memory; larger files are skipped.
const DefaultMaxFileSize = 64 << 20

// NewFS creates a filesystem searcher.
func NewFS(logger hclog.Logger) *FS {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &FS{logger: logger, maxFileSize: DefaultMaxFileSize}
}

// Search implements Searcher.
func (s *FS) Search(ctx context.Context, pattern *regexp.Regexp, root string) ([]string, error) {
	if pattern == nil {
		return nil, fmt.Errorf("pattern is nil")
	}

	var found []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("failed to access %q: %w", path, err)
			}
			s.logger.Debug("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !d.Type().IsRegular() {
			return nil
		}

		matches, err := s.searchFile(pattern, path)
		if err != nil {
			s.logger.Debug("skipping file", "path", path, "reason", err)
			return nil
		}
		found = append(found, matches...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (s *FS) searchFile(pattern *regexp.Regexp, path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > s.maxFileSize {
		return nil, fmt.Errorf("file size %d exceeds limit %d", info.Size(), s.maxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if IsBinary(data) {
		return nil, fmt.Errorf("binary content")
	}
	return MatchLines(pattern, data), nil
}

// MatchLines applies pattern to each line of data.
func MatchLines(pattern *regexp.Regexp, data []byte) []string {
	var found []string
	for len(data) > 0 {
		line := data
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line, data = data[:i], data[i+1:]
		} else {
			data = nil
		}
		line = bytes.TrimSuffix(line, []byte{'\r'})

		for _, m := range pattern.FindAll(line, -1) {
			found = append(found, string(m))
		}
	}
	return found
}

// IsBinary reports whether data is not some kind of text according to its MIME type.
func IsBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	for mt := mimetype.Detect(data); mt != nil; mt = mt.Parent() {
		if mt.Is("text/plain") {
			return false
		}
	}
	return true
}
