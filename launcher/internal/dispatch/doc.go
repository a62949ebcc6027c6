// Package dispatch builds the ASGI server command line and hands the process
// over to it.
//
// Command(server, tls, mode) produces
//
//	uvicorn main:app --host 0.0.0.0 --port 8000 --reload [--ssl-keyfile K --ssl-certfile C]
//
// with the TLS pair present only in HTTPS mode. Exec(argv, env) performs an
// execve; there is no child process, no retry and no fallback.
package dispatch
