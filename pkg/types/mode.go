package types

// Mode is the serving mode handed to the ASGI server.
type Mode string

const (
	ModeHTTP  Mode = "http"
	ModeHTTPS Mode = "https"
)

// TLS reports whether the mode carries TLS material.
func (m Mode) TLS() bool { return m == ModeHTTPS }

func (m Mode) String() string { return string(m) }
