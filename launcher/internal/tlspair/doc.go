// Package tlspair decides the serving mode from the TLS certificate and key
// files and reports on the certificate it finds.
//
// Check(cert, key) selects HTTPS only when both paths are regular files the
// process can read; it never opens or parses them. Inspect(cert, now, warn)
// parses the first PEM certificate and returns its expiry with a
// valid|expiring|expired status, for logging and metrics only.
package tlspair
