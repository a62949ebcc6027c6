// Package textfile records each launch as a Prometheus text exposition for
// the node_exporter textfile collector: the selected mode, the bind address,
// the start time and, in HTTPS mode, the certificate expiry.
package textfile
