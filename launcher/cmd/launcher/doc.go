// Command launcher is the container entrypoint of the analysis-agent API image.
//
// Usage:
//
//	launcher [-config launcher.yaml] [-print]
//
// Flags:
//
//	-config   optional YAML config; without it the built-in defaults apply
//	-print    print the selected server command line and exit
//
// Behavior:
//
// Checks for /app/certs/cert.pem and /app/certs/key.pem. When both are
// readable files it execs
//
//	uvicorn main:app --host 0.0.0.0 --port 8000 --reload --ssl-keyfile ... --ssl-certfile ...
//
// and otherwise the same command without the TLS flags. The launcher is
// replaced by the server process, so the container's exit status is the
// server's. If the exec itself fails the launcher exits 127 (not found) or
// 126 (not executable).
package main
