package serverproc

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindDotnetPrefersPATH(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("PATH shim test targets unix shell conventions")
	}

	dir := t.TempDir()
	fake := filepath.Join(dir, "dotnet")
	require.NoError(t, os.WriteFile(fake, []byte("#!/bin/sh\nexit 0\n"), 0o755))

	t.Setenv("PATH", dir)

	path, err := FindDotnet()
	require.NoError(t, err)
	assert.Equal(t, fake, path)
}

func TestFindDotnetErrorsWhenNotFoundAnywhere(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("common-paths fallback list is unix-specific")
	}
	t.Setenv("PATH", t.TempDir())

	_, err := FindDotnet()
	assert.Error(t, err)
}

func TestStartCreatesExtensionLogDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a real dotnet-like executable for process spawn")
	}

	dir := t.TempDir()
	fakeDotnet := filepath.Join(dir, "dotnet")
	// A fake "dotnet" that just sleeps on --stdio so Start() succeeds and
	// the process can be reaped immediately after.
	require.NoError(t, os.WriteFile(fakeDotnet, []byte("#!/bin/sh\nread line\n"), 0o755))

	logDir := filepath.Join(dir, "logs", "nested")

	proc, err := Start(Options{
		DotnetPath:      fakeDotnet,
		ServerPath:      "/does/not/matter.dll",
		ExtensionLogDir: logDir,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		proc.Stdin.Close()
		proc.Wait()
	})

	_, statErr := os.Stat(logDir)
	assert.NoError(t, statErr, "extension log directory should have been created")
}
