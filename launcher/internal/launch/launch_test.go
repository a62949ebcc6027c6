package launch

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/analysisagent/launcher/launcher/internal/config"
	"github.com/analysisagent/launcher/launcher/internal/dispatch"
	"github.com/analysisagent/launcher/launcher/internal/textfile"
	"github.com/analysisagent/launcher/pkg/types"
)

// fakeExec records every invocation and returns err.
type fakeExec struct {
	calls [][]string
	envs  [][]string
	err   error
}

func (f *fakeExec) exec(argv, env []string) error {
	f.calls = append(f.calls, argv)
	f.envs = append(f.envs, env)
	return f.err
}

type fixture struct {
	l    *Launcher
	exec *fakeExec
	logs *bytes.Buffer
	out  *bytes.Buffer
	cert string
	key  string
}

// newFixture builds a Launcher with cert/key paths in a temp dir. The files
// themselves are not created.
func newFixture(t *testing.T, mutate func(*config.LauncherConfig)) *fixture {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	dir := t.TempDir()
	lc := cfg.Launcher
	lc.TLS.CertFile = filepath.Join(dir, "cert.pem")
	lc.TLS.KeyFile = filepath.Join(dir, "key.pem")
	if mutate != nil {
		mutate(&lc)
	}

	logs := &bytes.Buffer{}
	out := &bytes.Buffer{}
	fe := &fakeExec{}
	l := New(lc, slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: lc.Log.SlogLevel()})), out)
	l.execFn = fe.exec
	l.now = func() time.Time { return time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC) }
	l.environ = func() []string { return []string{"PATH=/usr/bin", "LAUNCH_ID=stale"} }
	l.newID = func() string { return "launch-1" }

	return &fixture{l: l, exec: fe, logs: logs, out: out, cert: lc.TLS.CertFile, key: lc.TLS.KeyFile}
}

func (f *fixture) write(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		if err := os.WriteFile(p, []byte("placeholder"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRun_BothFilesHTTPS(t *testing.T) {
	f := newFixture(t, nil)
	f.write(t, f.cert, f.key)

	if err := f.l.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(f.exec.calls) != 1 {
		t.Fatalf("exec calls: got %d, want 1", len(f.exec.calls))
	}
	argv := f.exec.calls[0]
	want := []string{
		"uvicorn", "main:app", "--host", "0.0.0.0", "--port", "8000", "--reload",
		"--ssl-keyfile", f.key, "--ssl-certfile", f.cert,
	}
	if !slices.Equal(argv, want) {
		t.Errorf("argv:\n got  %v\n want %v", argv, want)
	}

	if !strings.Contains(f.out.String(), "starting server with HTTPS") {
		t.Errorf("status line does not report HTTPS mode:\n%s", f.out.String())
	}
	logs := f.logs.String()
	if !strings.Contains(logs, "auto-reload is enabled in HTTPS mode") {
		t.Errorf("logs do not flag reload in HTTPS mode:\n%s", logs)
	}
	// Placeholder content is not a certificate; inspection fails without
	// affecting the mode.
	if !strings.Contains(logs, "could not inspect TLS certificate") {
		t.Errorf("expected inspection warning:\n%s", logs)
	}
}

func TestRun_NeitherFileHTTP(t *testing.T) {
	f := newFixture(t, nil)

	if err := f.l.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(f.exec.calls) != 1 {
		t.Fatalf("exec calls: got %d, want 1", len(f.exec.calls))
	}
	want := []string{"uvicorn", "main:app", "--host", "0.0.0.0", "--port", "8000", "--reload"}
	if !slices.Equal(f.exec.calls[0], want) {
		t.Errorf("argv:\n got  %v\n want %v", f.exec.calls[0], want)
	}

	if !strings.Contains(f.out.String(), "TLS certificates not found at "+f.cert+" and "+f.key) {
		t.Errorf("status line does not name both paths:\n%s", f.out.String())
	}
	logs := f.logs.String()
	if strings.Contains(logs, "auto-reload is enabled in HTTPS mode") {
		t.Errorf("reload warning logged in HTTP mode:\n%s", logs)
	}
}

func TestRun_SingleFileIsHTTP(t *testing.T) {
	tests := []struct {
		name string
		pick func(f *fixture) string
	}{
		{"cert only", func(f *fixture) string { return f.cert }},
		{"key only", func(f *fixture) string { return f.key }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.write(t, tc.pick(f))

			if err := f.l.Run(context.Background()); err != nil {
				t.Fatalf("Run: %v", err)
			}
			for _, a := range f.exec.calls[0] {
				if strings.HasPrefix(a, "--ssl-") {
					t.Errorf("unexpected TLS flag %q with only one file present", a)
				}
			}
		})
	}
}

func TestRun_ExecFailureNoRetry(t *testing.T) {
	f := newFixture(t, nil)
	f.write(t, f.cert, f.key)
	f.exec.err = dispatch.ErrNotFound

	err := f.l.Run(context.Background())
	if !errors.Is(err, dispatch.ErrNotFound) {
		t.Fatalf("Run() = %v, want ErrNotFound", err)
	}
	if len(f.exec.calls) != 1 {
		t.Errorf("exec calls: got %d, want exactly 1 (no retry, no HTTP fallback)", len(f.exec.calls))
	}
	if code := dispatch.ExitCode(err); code != 127 {
		t.Errorf("ExitCode: got %d, want 127", code)
	}
}

func TestRun_LaunchIDInEnvironment(t *testing.T) {
	f := newFixture(t, nil)

	if err := f.l.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	env := f.exec.envs[0]
	if !slices.Contains(env, "LAUNCH_ID=launch-1") {
		t.Errorf("env missing LAUNCH_ID=launch-1: %v", env)
	}
	if slices.Contains(env, "LAUNCH_ID=stale") {
		t.Errorf("stale LAUNCH_ID not replaced: %v", env)
	}
	if !slices.Contains(env, "PATH=/usr/bin") {
		t.Errorf("inherited environment dropped: %v", env)
	}
}

func TestRun_WritesTextfile(t *testing.T) {
	prom := filepath.Join(t.TempDir(), "launcher.prom")
	f := newFixture(t, func(lc *config.LauncherConfig) {
		lc.Metrics.Textfile = prom
	})

	if err := f.l.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	data, err := os.ReadFile(prom)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), textfile.MetricTLSEnabled+" 0") {
		t.Errorf("textfile does not record http mode:\n%s", data)
	}
}

func TestRun_TextfileFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, func(lc *config.LauncherConfig) {
		lc.Metrics.Textfile = "/nonexistent/dir/launcher.prom"
	})

	if err := f.l.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(f.exec.calls) != 1 {
		t.Errorf("exec calls: got %d, want 1", len(f.exec.calls))
	}
	if !strings.Contains(f.logs.String(), "could not write metrics textfile") {
		t.Errorf("expected textfile warning:\n%s", f.logs.String())
	}
}

func TestPrepare_WaitTimeoutFallsBackToHTTP(t *testing.T) {
	f := newFixture(t, func(lc *config.LauncherConfig) {
		lc.TLS.WaitTimeout = 100 * time.Millisecond
	})

	plan, err := f.l.Prepare(context.Background())
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if plan.Mode != types.ModeHTTP {
		t.Errorf("mode: got %s, want http", plan.Mode)
	}
	if !strings.Contains(f.logs.String(), "TLS files not ready") {
		t.Errorf("expected wait warning:\n%s", f.logs.String())
	}
	if len(f.exec.calls) != 0 {
		t.Errorf("Prepare must not exec, got %d calls", len(f.exec.calls))
	}
}

func TestPrepare_WaitPicksUpLateFiles(t *testing.T) {
	f := newFixture(t, func(lc *config.LauncherConfig) {
		lc.TLS.WaitTimeout = 5 * time.Second
	})
	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = os.WriteFile(f.cert, []byte("c"), 0o600)
		_ = os.WriteFile(f.key, []byte("k"), 0o600)
	}()

	plan, err := f.l.Prepare(context.Background())
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if plan.Mode != types.ModeHTTPS {
		t.Errorf("mode: got %s, want https", plan.Mode)
	}
}

func TestRun_CancelledDuringWaitDoesNotExec(t *testing.T) {
	f := newFixture(t, func(lc *config.LauncherConfig) {
		lc.TLS.WaitTimeout = 10 * time.Second
	})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := f.l.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() = %v, want context.Canceled", err)
	}
	if len(f.exec.calls) != 0 {
		t.Errorf("exec calls: got %d, want 0", len(f.exec.calls))
	}
}

func TestRun_ReloadDisabledNoWarning(t *testing.T) {
	f := newFixture(t, func(lc *config.LauncherConfig) {
		off := false
		lc.Server.Reload = &off
	})
	f.write(t, f.cert, f.key)

	if err := f.l.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if slices.Contains(f.exec.calls[0], "--reload") {
		t.Errorf("--reload present with reload disabled: %v", f.exec.calls[0])
	}
	if strings.Contains(f.logs.String(), "auto-reload is enabled") {
		t.Errorf("reload warning logged with reload disabled")
	}
}

func TestRun_CancelledBeforeExecDoesNotExec(t *testing.T) {
	f := newFixture(t, nil)
	f.write(t, f.cert, f.key)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.l.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() = %v, want context.Canceled", err)
	}
	if len(f.exec.calls) != 0 {
		t.Errorf("exec calls: got %d, want 0 after a stop request", len(f.exec.calls))
	}
}

func TestRun_StatusLineSurvivesQuietLogLevel(t *testing.T) {
	for _, level := range []string{"warn", "error"} {
		t.Run(level, func(t *testing.T) {
			f := newFixture(t, func(lc *config.LauncherConfig) {
				lc.Log.Level = level
			})

			if err := f.l.Run(context.Background()); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if !strings.Contains(f.out.String(), "starting server with HTTP") {
				t.Errorf("status line missing at log level %s: %q", level, f.out.String())
			}
			if got := strings.Count(f.out.String(), "\n"); got != 1 {
				t.Errorf("status output: got %d lines, want exactly 1", got)
			}
		})
	}
}

func TestPrepare_WaitLogsThroughLauncherLogger(t *testing.T) {
	f := newFixture(t, func(lc *config.LauncherConfig) {
		lc.TLS.WaitTimeout = 100 * time.Millisecond
	})

	if _, err := f.l.Prepare(context.Background()); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if !strings.Contains(f.logs.String(), "certwait: waiting for TLS files") {
		t.Errorf("certwait did not log through the launcher logger:\n%s", f.logs.String())
	}
}
