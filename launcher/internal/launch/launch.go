package launch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/analysisagent/launcher/launcher/internal/certwait"
	"github.com/analysisagent/launcher/launcher/internal/config"
	"github.com/analysisagent/launcher/launcher/internal/dispatch"
	"github.com/analysisagent/launcher/launcher/internal/textfile"
	"github.com/analysisagent/launcher/launcher/internal/tlspair"
	"github.com/analysisagent/launcher/pkg/types"
)

// EnvLaunchID is the environment variable carrying the launch ID to the server.
const EnvLaunchID = "LAUNCH_ID"

// Plan is the fully resolved server invocation for one run.
type Plan struct {
	LaunchID string
	Mode     types.Mode
	TLS      tlspair.Result
	Cert     *tlspair.CertInfo
	Argv     []string
	Env      []string
}

// Launcher selects the serving mode and hands the process over to the server.
type Launcher struct {
	cfg config.LauncherConfig
	log *slog.Logger
	out io.Writer

	// Injectable for tests.
	execFn  dispatch.ExecFunc
	now     func() time.Time
	environ func() []string
	newID   func() string
}

// New returns a Launcher for cfg that logs through logger and execs for real.
// The mode status line is written to out regardless of the log level; nil
// means os.Stdout.
func New(cfg config.LauncherConfig, logger *slog.Logger, out io.Writer) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	if out == nil {
		out = os.Stdout
	}
	return &Launcher{
		cfg:     cfg,
		log:     logger,
		out:     out,
		execFn:  dispatch.Exec,
		now:     time.Now,
		environ: os.Environ,
		newID:   uuid.NewString,
	}
}

// Prepare waits for the TLS files if configured, selects the mode and builds
// the server command. It reports the selected branch on the log and does not
// start anything.
func (l *Launcher) Prepare(ctx context.Context) (*Plan, error) {
	tlsCfg := l.cfg.TLS
	srv := l.cfg.Server

	if tlsCfg.WaitTimeout > 0 {
		err := certwait.Wait(ctx, l.log, []string{tlsCfg.CertFile, tlsCfg.KeyFile}, tlsCfg.WaitTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("launch: %w", err)
			}
			l.log.Warn("TLS files not ready, continuing with presence check", "err", err)
		}
	}

	plan := &Plan{LaunchID: l.newID()}
	plan.TLS = tlspair.Check(tlsCfg.CertFile, tlsCfg.KeyFile)
	plan.Mode = plan.TLS.Mode

	if plan.Mode.TLS() {
		l.announce(fmt.Sprintf("TLS certificate and key found at %s and %s, starting server with HTTPS",
			tlsCfg.CertFile, tlsCfg.KeyFile))
		l.inspect(plan)
		if srv.ReloadEnabled() {
			l.log.Warn("auto-reload is enabled in HTTPS mode; set launcher.server.reload: false for production")
		}
	} else {
		l.announce(fmt.Sprintf("TLS certificates not found at %s and %s, starting server with HTTP",
			tlsCfg.CertFile, tlsCfg.KeyFile))
		l.log.Debug("TLS file status",
			"cert_status", status(plan.TLS.Cert), "key_status", status(plan.TLS.Key))
	}

	plan.Argv = dispatch.Command(srv, tlsCfg, plan.Mode)
	plan.Env = withEnv(l.environ(), EnvLaunchID, plan.LaunchID)
	return plan, nil
}

// Run prepares the plan, records it to the metrics textfile if configured and
// execs the server exactly once. On success Run does not return. A failed exec
// is returned as is; there is no retry and no fallback to another mode.
//
// SIGINT and SIGTERM are restored to their default disposition before the
// exec, and a ctx cancelled by then aborts the launch, so a stop request that
// arrives before the server is running is not lost.
func (l *Launcher) Run(ctx context.Context) error {
	plan, err := l.Prepare(ctx)
	if err != nil {
		return err
	}

	if path := l.cfg.Metrics.Textfile; path != "" {
		rec := textfile.Launch{
			Mode:      plan.Mode,
			Host:      l.cfg.Server.Host,
			Port:      l.cfg.Server.Port,
			Reload:    l.cfg.Server.ReloadEnabled(),
			StartedAt: l.now(),
		}
		if plan.Cert != nil {
			rec.CertNotAfter = plan.Cert.NotAfter
		}
		if err := textfile.Write(path, rec); err != nil {
			l.log.Warn("could not write metrics textfile", "path", path, "err", err)
		}
	}

	signal.Reset(syscall.SIGINT, syscall.SIGTERM)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("launch: aborted before exec: %w", err)
	}

	l.log.Info("starting server",
		"launch_id", plan.LaunchID,
		"mode", plan.Mode.String(),
		"argv", strings.Join(plan.Argv, " "),
	)
	if err := l.execFn(plan.Argv, plan.Env); err != nil {
		return fmt.Errorf("launch: %w", err)
	}
	return nil
}

func (l *Launcher) inspect(plan *Plan) {
	info, err := tlspair.Inspect(l.cfg.TLS.CertFile, l.now(), l.cfg.TLS.ExpiryWarning)
	if err != nil {
		l.log.Warn("could not inspect TLS certificate", "err", err)
		return
	}
	plan.Cert = info

	attrs := []any{
		"subject", info.Subject,
		"issuer", info.Issuer,
		"not_after", info.NotAfter.Format(time.RFC3339),
		"days_left", info.DaysLeft,
	}
	switch info.Status {
	case tlspair.StatusExpired:
		l.log.Warn("TLS certificate has expired", attrs...)
	case tlspair.StatusExpiring:
		l.log.Warn("TLS certificate expires soon", attrs...)
	default:
		l.log.Debug("TLS certificate valid", attrs...)
	}
}

// announce writes the mode status line. It bypasses the logger so that a
// warn or error log level cannot hide which branch was taken.
func (l *Launcher) announce(line string) {
	fmt.Fprintln(l.out, line)
	l.log.Debug(line)
}

func status(fs tlspair.FileStatus) string {
	if fs.Present {
		return "present"
	}
	return fs.Reason
}

// withEnv returns env with key set to value, replacing any existing entry.
func withEnv(env []string, key, value string) []string {
	prefix := key + "="
	out := make([]string, 0, len(env)+1)
	for _, kv := range env {
		if !strings.HasPrefix(kv, prefix) {
			out = append(out, kv)
		}
	}
	return append(out, prefix+value)
}
