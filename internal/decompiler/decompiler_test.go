package decompiler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github.com/scan-io-git/leakscan/pkg/shared/errors"
)

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"--deobf", []string{"--deobf"}},
		{"--deobf --threads-count=4", []string{"--deobf", "--threads-count", "4"}},
		{"  --a   --b\t--c  ", []string{"--a", "--b", "--c"}},
		{"--x==y", []string{"--x", "y"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := SplitArgs(tt.in)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJadxCommand(t *testing.T) {
	j := NewJadx("/opt/jadx/bin/jadx", nil)
	cmd := j.Command(context.Background(), "app.apk", "/tmp/out", []string{"--deobf"})
	assert.Equal(t, []string{"/opt/jadx/bin/jadx", "app.apk", "-d", "/tmp/out", "--deobf"}, cmd.Args)
}

// fakeJadx writes a shell script standing in for jadx. The script receives
// "<artifact> -d <outDir>" and runs body.
func fakeJadx(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "jadx")
	script := "#!/bin/sh\nout=\"$3\"\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

func writeArtifact(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.apk")
	require.NoError(t, os.WriteFile(path, []byte("PK"), 0644))
	return path
}

func TestDecompile(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"success", `mkdir -p "$out/sources" && echo 'class A {}' > "$out/sources/A.java"`, nil},
		{"partial failure tolerated", `mkdir -p "$out" && echo 'class A {}' > "$out/A.java"; exit 1`, nil},
		{"failure without output", `mkdir -p "$out"; exit 1`, serrors.ErrCorpus},
		{"success without output", `mkdir -p "$out"`, serrors.ErrCorpus},
		{"no output folder", `exit 1`, serrors.ErrCorpus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := NewJadx(fakeJadx(t, tt.body), nil)
			outDir := filepath.Join(t.TempDir(), "out")

			err := j.Decompile(context.Background(), writeArtifact(t), outDir, nil)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestDecompileMissingArtifact(t *testing.T) {
	j := NewJadx("jadx", nil)
	err := j.Decompile(context.Background(), filepath.Join(t.TempDir(), "missing.apk"), t.TempDir(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, serrors.ErrCorpus))
}

func TestDecompileCancelled(t *testing.T) {
	j := NewJadx(fakeJadx(t, `mkdir -p "$out" && echo x > "$out/A.java"`), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := j.Decompile(ctx, writeArtifact(t), filepath.Join(t.TempDir(), "out"), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, serrors.ErrScanAborted))
}

func TestWorkspace(t *testing.T) {
	parent := filepath.Join(t.TempDir(), "tmp")

	ws, err := NewWorkspace(parent, nil)
	require.NoError(t, err)
	assert.DirExists(t, ws.Dir)
	assert.Equal(t, parent, filepath.Dir(ws.Dir))
	assert.Contains(t, filepath.Base(ws.Dir), "result-")

	require.NoError(t, os.WriteFile(filepath.Join(ws.Dir, "A.java"), []byte("x"), 0644))
	require.NoError(t, ws.Close())
	assert.NoDirExists(t, ws.Dir)
}
