package tlspair

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/analysisagent/launcher/pkg/types"
)

// Reasons a file does not count as present.
const (
	ReasonMissing    = "missing"
	ReasonNotRegular = "not a regular file"
	ReasonUnreadable = "unreadable"
)

// FileStatus is the outcome of checking one path.
type FileStatus struct {
	Path    string
	Present bool
	// Reason is empty when Present is true.
	Reason string
}

// Result is the outcome of checking the certificate/key pair.
type Result struct {
	Cert FileStatus
	Key  FileStatus
	Mode types.Mode
}

// Check reports whether certPath and keyPath are both regular files readable by
// the current process. HTTPS mode is selected only when both are present.
//
// The file contents are not examined. Any stat or access failure counts as
// the file being absent, the same way a shell `-f`/`-r` test would evaluate.
func Check(certPath, keyPath string) Result {
	res := Result{
		Cert: checkFile(certPath),
		Key:  checkFile(keyPath),
		Mode: types.ModeHTTP,
	}
	if res.Cert.Present && res.Key.Present {
		res.Mode = types.ModeHTTPS
	}
	return res
}

func checkFile(path string) FileStatus {
	fs := FileStatus{Path: path}

	fi, err := os.Stat(path)
	if err != nil {
		fs.Reason = ReasonMissing
		return fs
	}
	if !fi.Mode().IsRegular() {
		fs.Reason = ReasonNotRegular
		return fs
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		fs.Reason = ReasonUnreadable
		return fs
	}

	fs.Present = true
	return fs
}
