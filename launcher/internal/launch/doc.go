// Package launch runs the startup sequence of the container: optional wait
// for TLS files, presence check, certificate report, optional metrics
// textfile, then a single exec of the ASGI server.
//
// The sequence is strictly sequential and runs once. States are checking
// (initial), then http or https (terminal; the process image is replaced).
//
// The exec function, clock, environment and ID generator are fields so tests
// can observe the invocation without replacing the test binary.
package launch
