// Package serverproc locates a dotnet runtime and spawns the Roslyn
// language server subprocess, piping its stdio to the proxy (spec.md §4.I).
package serverproc

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// commonDotnetPaths are checked, in order, after exec.LookPath fails —
// mirroring the fallback locations a dotnet install script uses when it
// doesn't register itself on PATH.
var commonDotnetPaths = []string{
	"/usr/local/share/dotnet/dotnet",
	"/usr/local/bin/dotnet",
	"/usr/bin/dotnet",
	"/opt/homebrew/bin/dotnet",
}

var commonDotnetPathsWindows = []string{
	`C:\Program Files\dotnet\dotnet.exe`,
}

// FindDotnet locates the dotnet executable: first on PATH, then at a list
// of well-known install locations for the current platform.
func FindDotnet() (string, error) {
	if path, err := exec.LookPath("dotnet"); err == nil {
		return path, nil
	}

	candidates := commonDotnetPaths
	if runtime.GOOS == "windows" {
		candidates = commonDotnetPathsWindows
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("serverproc: dotnet executable not found in PATH or common locations")
}

// Options configures the spawned Roslyn server process.
type Options struct {
	// DotnetPath overrides runtime discovery; when empty, FindDotnet locates
	// it. It is only used for a .dll ServerPath.
	DotnetPath string
	// ServerPath is the path to the Roslyn language server: a .dll hosted by
	// the dotnet runtime, or a native executable run directly.
	ServerPath string
	// ServerArgs are extra arguments forwarded to the server after the
	// proxy's own fixed flags.
	ServerArgs []string
	// ExtensionLogDir is passed through as --extensionLogDirectory; created
	// if it doesn't already exist.
	ExtensionLogDir string
	// LogLevel is passed through as --logLevel (e.g. "Information").
	LogLevel string
}

// Process wraps the running Roslyn server subprocess and its stdio pipes.
type Process struct {
	cmd    *exec.Cmd
	Stdin  io.WriteCloser
	Stdout io.ReadCloser
}

// Start resolves the dotnet runtime for a .dll server, creates the extension
// log directory if needed, and spawns the Roslyn server with piped stdio.
// Stderr is streamed line-by-line into log at info level for the lifetime of
// the process, mirroring the teacher's background stderr-parsing goroutine.
func Start(opts Options, log *slog.Logger) (*Process, error) {
	isDLL := strings.EqualFold(filepath.Ext(opts.ServerPath), ".dll")
	dotnetPath := opts.DotnetPath
	if isDLL && dotnetPath == "" {
		found, err := FindDotnet()
		if err != nil {
			return nil, err
		}
		dotnetPath = found
	}

	if opts.ExtensionLogDir != "" {
		if err := os.MkdirAll(opts.ExtensionLogDir, 0o755); err != nil {
			return nil, fmt.Errorf("serverproc: create extension log dir: %w", err)
		}
	}

	logLevel := opts.LogLevel
	if logLevel == "" {
		logLevel = "Information"
	}
	extensionLogDir := opts.ExtensionLogDir
	if extensionLogDir == "" {
		extensionLogDir = filepath.Join(os.TempDir(), "roslyn-lsp-proxy")
		if err := os.MkdirAll(extensionLogDir, 0o755); err != nil {
			return nil, fmt.Errorf("serverproc: create default extension log dir: %w", err)
		}
	}

	args := append([]string{
		"--stdio",
		"--logLevel", logLevel,
		"--extensionLogDirectory", extensionLogDir,
	}, opts.ServerArgs...)

	program := opts.ServerPath
	if isDLL {
		program = dotnetPath
		args = append([]string{opts.ServerPath}, args...)
	}
	cmd := exec.Command(program, args...)

	stdinPipe, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("serverproc: open server stdin: %w", err)
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("serverproc: open server stdout: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("serverproc: open server stderr: %w", err)
	}

	if log != nil {
		log.Info("spawning roslyn server", "dotnet", dotnetPath, "server", opts.ServerPath)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("serverproc: start roslyn server: %w", err)
	}

	go forwardStderr(stderrPipe, log)

	return &Process{cmd: cmd, Stdin: stdinPipe, Stdout: stdoutPipe}, nil
}

func forwardStderr(r io.Reader, log *slog.Logger) {
	scanner := bufio.NewScanner(r)
	// Roslyn emits long diagnostic lines (stack traces, JSON blobs); grow
	// past bufio's default 64KiB token limit rather than truncating.
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if log != nil {
			log.Info("roslyn server", "line", scanner.Text())
		}
	}
}

// Wait blocks until the server process exits.
func (p *Process) Wait() error {
	return p.cmd.Wait()
}
