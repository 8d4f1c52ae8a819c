// Command roslyn-lsp-proxy sits between an LSP client and a Roslyn
// language server process, smoothing over handshake, configuration, and
// restore quirks so the client sees a conventional LSP server (spec.md
// §4.H).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/firi/roslyn-lsp-proxy/internal/interceptors"
	"github.com/firi/roslyn-lsp-proxy/internal/logging"
	"github.com/firi/roslyn-lsp-proxy/internal/pipeline"
	"github.com/firi/roslyn-lsp-proxy/internal/router"
	"github.com/firi/roslyn-lsp-proxy/internal/serverproc"
	"github.com/firi/roslyn-lsp-proxy/internal/transport"
)

// Version is set at build time via -ldflags, mirroring the teacher's
// version-stamping convention.
var Version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		logLevel        string
		extensionLogDir string
	)

	cmd := &cobra.Command{
		Use:     "roslyn-lsp-proxy <server-path> [server-args...]",
		Short:   "Proxy between an LSP client and a Roslyn language server",
		Version: Version,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args[0], args[1:], logLevel, extensionLogDir)
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Minimum log level: trace, debug, info, warn, error")
	cmd.Flags().StringVar(&extensionLogDir, "extension-log-dir", "", "Directory for the Roslyn server's own extension logs")

	return cmd
}

func run(ctx context.Context, serverPath string, serverArgs []string, logLevel, extensionLogDir string) error {
	sessionID := uuid.NewString()
	log := logging.New(os.Stderr, logging.ParseLevel(logLevel)).With("session", sessionID)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting roslyn-lsp-proxy", "server", serverPath, "args", serverArgs)

	proc, err := serverproc.Start(serverproc.Options{
		ServerPath:      serverPath,
		ServerArgs:      serverArgs,
		ExtensionLogDir: extensionLogDir,
		LogLevel:        "Information",
	}, log.With("component", "roslyn-server"))
	if err != nil {
		return fmt.Errorf("start roslyn server: %w", err)
	}

	clientReader := transport.NewReader(os.Stdin)
	clientWriter := transport.NewWriter(os.Stdout)
	serverReader := transport.NewReader(proc.Stdout)
	serverWriter := transport.NewWriter(proc.Stdin)

	p := pipeline.New(log.With("component", "pipeline"), buildInterceptors(log)...)

	r := router.New(clientReader, clientWriter, serverReader, serverWriter, p, log.With("component", "router"))

	log.Info("proxy router started")
	if err := r.Run(ctx); err != nil {
		return fmt.Errorf("router: %w", err)
	}

	log.Info("proxy shutting down")
	return proc.Wait()
}

// buildInterceptors wires up the pipeline in the order the original
// middleware chain ran: document synthesis and solution discovery need to
// see messages before project restore and configuration answer them, and
// the catch-all custom-notification handler runs last so it only sees
// whatever earlier stages didn't already resolve.
func buildInterceptors(log *slog.Logger) []pipeline.Interceptor {
	return []pipeline.Interceptor{
		interceptors.NewDocumentLifecycle(log.With("interceptor", "document-lifecycle")),
		interceptors.NewSolutionLoader(log.With("interceptor", "solution-loader")),
		interceptors.NewProjectRestore(),
		interceptors.NewConfiguration(),
		interceptors.NewCapabilityRegistration(),
		interceptors.NewDiagnostics(),
		interceptors.NewRefresh(),
		interceptors.NewCustomNotifications(log.With("interceptor", "custom-notifications")),
	}
}
