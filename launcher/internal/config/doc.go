// Package config loads the launcher configuration from an optional YAML file.
//
// Config fields (under the `launcher:` key):
//   - Server.Binary, Server.App  — server launcher and ASGI target (uvicorn, main:app)
//   - Server.Host, Server.Port   — bind address (default 0.0.0.0:8000)
//   - Server.Reload              — auto-reload flag (default true)
//   - Server.ExtraArgs           — extra flags appended before the TLS flags
//   - TLS.CertFile, TLS.KeyFile  — fixed certificate/key paths under /app/certs
//   - TLS.WaitTimeout            — bounded wait for late-mounted TLS files (default 0, off)
//   - TLS.ExpiryWarning          — threshold for the expiring status (default 720h)
//   - Metrics.Textfile           — optional Prometheus textfile path
//   - Log.Level, Log.Format      — slog level and json|text handler
//
// Load("") returns the defaults. Load(path) applies defaults before
// unmarshalling, then validates.
package config
