// Package certwait waits, for a bounded time, for TLS files that are mounted
// after the container starts (secret volumes, cert-manager or vault sidecars).
//
// Wait(ctx, paths, timeout) uses fsnotify on the parent directories of paths
// and returns once every path exists. It only delays the decision; the caller
// still runs the normal presence check afterwards.
package certwait
