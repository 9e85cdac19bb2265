package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveOutputFile(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "copy")
	require.NoError(t, os.WriteFile(existing, []byte("old"), 0644))

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "existing directory", path: dir, want: filepath.Join(dir, "app.txt")},
		{name: "missing path without extension", path: filepath.Join(dir, "reports"), want: filepath.Join(dir, "reports", "app.txt")},
		{name: "missing file with extension", path: filepath.Join(dir, "out.json"), want: filepath.Join(dir, "out.json")},
		{name: "existing file without extension", path: existing, want: existing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveOutputFile(tt.path, "app.txt")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nested", "report.txt")

	if err := WriteFileAtomic(target, []byte("first"), 0644); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := WriteFileAtomic(target, []byte("second"), 0644); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("Expected file content %q, got %q", "second", string(data))
	}

	entries, err := os.ReadDir(filepath.Dir(target))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the target file to remain, got %d entries", len(entries))
	}
}

func TestEnsureWithinRoot(t *testing.T) {
	root := t.TempDir()

	got, err := EnsureWithinRoot(root, filepath.Join(root, "a", "b.txt"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != filepath.Join(root, "a", "b.txt") {
		t.Errorf("Expected %s, got %s", filepath.Join(root, "a", "b.txt"), got)
	}

	if _, err := EnsureWithinRoot(root, filepath.Join(root, "..", "escape.txt")); err == nil {
		t.Errorf("Expected an error for a path escaping the root")
	}
}

func TestIsEmptyDir(t *testing.T) {
	dir := t.TempDir()

	empty, err := IsEmptyDir(dir)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !empty {
		t.Errorf("Expected fresh temp dir to be empty")
	}

	_ = os.WriteFile(filepath.Join(dir, "Main.java"), []byte("class Main {}"), 0644)
	empty, err = IsEmptyDir(dir)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if empty {
		t.Errorf("Expected dir with a file to be non-empty")
	}
}
