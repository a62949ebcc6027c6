package certwait

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrTimeout is returned when the files did not all appear within the timeout.
var ErrTimeout = errors.New("certwait: timed out waiting for files")

// Wait blocks until every path in paths exists or timeout elapses. A
// non-positive timeout performs a single check. It returns nil when all files
// are present, ErrTimeout on timeout, and ctx.Err() if ctx is cancelled first.
// Progress is logged through logger, or slog.Default() when nil.
//
// The parent directories are watched rather than the files themselves so that
// files created after the call, including via rename from a temp file or a
// Kubernetes ..data symlink swap, are observed.
func Wait(ctx context.Context, logger *slog.Logger, paths []string, timeout time.Duration) error {
	if logger == nil {
		logger = slog.Default()
	}
	if allExist(paths) {
		return nil
	}
	if timeout <= 0 {
		return ErrTimeout
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("certwait: new watcher: %w", err)
	}
	defer watcher.Close()

	dirs := make(map[string]struct{})
	for _, p := range paths {
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("certwait: watch %q: %w", dir, err)
		}
	}

	logger.Info("certwait: waiting for TLS files", "paths", paths, "timeout", timeout)

	// Re-check after the watches are in place: a file created between the
	// first check and watcher.Add produces no event.
	if allExist(paths) {
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-timer.C:
			return ErrTimeout

		case event, ok := <-watcher.Events:
			if !ok {
				return ErrTimeout
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			if allExist(paths) {
				logger.Info("certwait: TLS files present", "trigger", event.Name)
				return nil
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return ErrTimeout
			}
			logger.Error("certwait: watcher error", "err", err)
		}
	}
}

func allExist(paths []string) bool {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}
