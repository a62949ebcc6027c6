package dispatch

import (
	"strconv"

	"github.com/analysisagent/launcher/launcher/internal/config"
	"github.com/analysisagent/launcher/pkg/types"
)

// Command returns the server argv for mode. argv[0] is the configured binary
// as written; Exec resolves it on PATH.
//
// TLS flags are added only in HTTPS mode, and only after every other flag, so
// the two modes differ solely by the trailing --ssl-keyfile/--ssl-certfile pair.
func Command(srv config.ServerConfig, tls config.TLSConfig, mode types.Mode) []string {
	argv := []string{
		srv.Binary,
		srv.App,
		"--host", srv.Host,
		"--port", strconv.Itoa(srv.Port),
	}
	if srv.ReloadEnabled() {
		argv = append(argv, "--reload")
	}
	argv = append(argv, srv.ExtraArgs...)

	if mode.TLS() {
		argv = append(argv,
			"--ssl-keyfile", tls.KeyFile,
			"--ssl-certfile", tls.CertFile,
		)
	}
	return argv
}
