package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent or no config file is given.
// Together they reproduce the image's stock startup command.
const (
	DefaultBinary        = "uvicorn"
	DefaultApp           = "main:app"
	DefaultHost          = "0.0.0.0"
	DefaultPort          = 8000
	DefaultCertFile      = "/app/certs/cert.pem"
	DefaultKeyFile       = "/app/certs/key.pem"
	DefaultExpiryWarning = 30 * 24 * time.Hour
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "json"
)

// Config is the top-level configuration. Fields live under the `launcher:` key
// so the file can sit next to other service settings.
type Config struct {
	Launcher LauncherConfig `yaml:"launcher"`
}

// LauncherConfig holds all launcher settings.
type LauncherConfig struct {
	Server  ServerConfig  `yaml:"server"`
	TLS     TLSConfig     `yaml:"tls"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig describes the ASGI server command line.
type ServerConfig struct {
	// Binary is the server launcher, resolved on PATH when not absolute.
	Binary string `yaml:"binary"`

	// App is the ASGI application import string, module:attribute.
	App string `yaml:"app"`

	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// Reload enables the server's source watcher. On by default to match the
	// stock image; it restarts workers on file changes and is not meant for
	// production traffic.
	Reload *bool `yaml:"reload"`

	// ExtraArgs are appended after the standard flags and before TLS flags.
	ExtraArgs []string `yaml:"extra_args"`
}

// ReloadEnabled returns the effective reload setting.
func (s ServerConfig) ReloadEnabled() bool {
	if s.Reload == nil {
		return true
	}
	return *s.Reload
}

// TLSConfig locates the optional certificate and private key.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`

	// WaitTimeout, when positive, makes the launcher wait up to this long for
	// both files to appear before deciding the mode. Zero checks once.
	WaitTimeout time.Duration `yaml:"wait_timeout"`

	// ExpiryWarning is the remaining validity below which a certificate is
	// reported as expiring.
	ExpiryWarning time.Duration `yaml:"expiry_warning"`
}

// MetricsConfig controls the optional Prometheus textfile.
type MetricsConfig struct {
	// Textfile is the path of a .prom file for the node_exporter textfile
	// collector. Empty disables it.
	Textfile string `yaml:"textfile"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level"`

	// Format is one of: json | text.
	Format string `yaml:"format"`
}

// SlogLevel maps Level onto a slog.Level. Unknown values map to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads and parses the YAML config file at path. An empty path yields
// the defaults. Missing fields are filled with defaults before validation.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Launcher: LauncherConfig{
			Server: ServerConfig{
				Binary: DefaultBinary,
				App:    DefaultApp,
				Host:   DefaultHost,
				Port:   DefaultPort,
			},
			TLS: TLSConfig{
				CertFile:      DefaultCertFile,
				KeyFile:       DefaultKeyFile,
				ExpiryWarning: DefaultExpiryWarning,
			},
			Log: LogConfig{
				Level:  DefaultLogLevel,
				Format: DefaultLogFormat,
			},
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	srv := cfg.Launcher.Server
	if strings.TrimSpace(srv.Binary) == "" {
		return fmt.Errorf("launcher.server.binary is required")
	}
	if strings.TrimSpace(srv.App) == "" {
		return fmt.Errorf("launcher.server.app is required")
	}
	if srv.Host == "" {
		return fmt.Errorf("launcher.server.host is required")
	}
	if srv.Port <= 0 || srv.Port > 65535 {
		return fmt.Errorf("launcher.server.port %d is out of range [1, 65535]", srv.Port)
	}

	tls := cfg.Launcher.TLS
	if tls.CertFile == "" || tls.KeyFile == "" {
		return fmt.Errorf("launcher.tls.cert_file and launcher.tls.key_file are required")
	}
	if tls.WaitTimeout < 0 {
		return fmt.Errorf("launcher.tls.wait_timeout must not be negative")
	}
	if tls.ExpiryWarning < 0 {
		return fmt.Errorf("launcher.tls.expiry_warning must not be negative")
	}

	switch cfg.Launcher.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("launcher.log.level %q unknown: want debug|info|warn|error", cfg.Launcher.Log.Level)
	}
	switch cfg.Launcher.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("launcher.log.format %q unknown: want json|text", cfg.Launcher.Log.Format)
	}
	return nil
}
