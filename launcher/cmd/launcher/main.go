package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/analysisagent/launcher/launcher/internal/config"
	"github.com/analysisagent/launcher/launcher/internal/dispatch"
	"github.com/analysisagent/launcher/launcher/internal/launch"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run parses args, loads the config and starts the server. It returns the
// process exit code; when the exec succeeds it never returns.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("launcher", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to config file; empty uses built-in defaults")
	printOnly := fs.Bool("print", false, "print the server command line and exit without starting it")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "launcher: failed to load config: %v\n", err)
		return 1
	}

	logger := newLogger(stdout, cfg.Launcher.Log)
	slog.SetDefault(logger)

	slog.Debug("launcher starting",
		"config", *configPath,
		"cert_file", cfg.Launcher.TLS.CertFile,
		"key_file", cfg.Launcher.TLS.KeyFile,
		"uid", os.Getuid(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	l := launch.New(cfg.Launcher, logger, stdout)

	if *printOnly {
		plan, err := l.Prepare(ctx)
		if err != nil {
			slog.Error("failed to prepare launch", "err", err)
			return 1
		}
		fmt.Fprintln(stdout, strings.Join(plan.Argv, " "))
		return 0
	}

	// Run only returns if the exec failed or the launch was interrupted.
	err = l.Run(ctx)
	if err != nil {
		slog.Error("failed to start server", "err", err)
	}
	return exitCode(err)
}

// exitCode maps a launch outcome onto the process exit status. An interrupted
// launch exits 1; exec failures follow dispatch.ExitCode.
func exitCode(err error) int {
	if errors.Is(err, context.Canceled) {
		return 1
	}
	return dispatch.ExitCode(err)
}

func newLogger(w io.Writer, lc config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: lc.SlogLevel()}
	if lc.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
