package textfile

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/google/renameio/v2"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/analysisagent/launcher/pkg/types"
)

// Metric names written to the textfile.
const (
	MetricInfo         = "launcher_info"
	MetricTLSEnabled   = "launcher_tls_enabled"
	MetricStartTime    = "launcher_start_time_seconds"
	MetricCertNotAfter = "launcher_tls_cert_not_after_seconds"
)

// Launch is the state recorded for one launcher run.
type Launch struct {
	Mode      types.Mode
	Host      string
	Port      int
	Reload    bool
	StartedAt time.Time

	// CertNotAfter is zero when the certificate was not inspected.
	CertNotAfter time.Time
}

// Families converts l into metric families, in the order they are written.
func Families(l Launch) []*dto.MetricFamily {
	tlsEnabled := 0.0
	if l.Mode.TLS() {
		tlsEnabled = 1
	}

	mfs := []*dto.MetricFamily{
		gauge(MetricInfo, "Launcher configuration for the running ASGI server.", 1,
			label("mode", l.Mode.String()),
			label("host", l.Host),
			label("port", strconv.Itoa(l.Port)),
			label("reload", strconv.FormatBool(l.Reload)),
		),
		gauge(MetricTLSEnabled, "1 if the server was started with TLS material.", tlsEnabled),
		gauge(MetricStartTime, "Unix time the launcher handed over to the server.", unixSeconds(l.StartedAt)),
	}
	if !l.CertNotAfter.IsZero() {
		mfs = append(mfs, gauge(MetricCertNotAfter, "Unix time the TLS certificate expires.", unixSeconds(l.CertNotAfter)))
	}
	return mfs
}

// Write renders l in the Prometheus text format and atomically replaces path,
// so the node_exporter textfile collector never reads a partial file.
func Write(path string, l Launch) error {
	var buf bytes.Buffer
	for _, mf := range Families(l) {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return fmt.Errorf("textfile: encode %s: %w", mf.GetName(), err)
		}
	}

	if err := renameio.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("textfile: write %q: %w", path, err)
	}
	return nil
}

func gauge(name, help string, v float64, labels ...*dto.LabelPair) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{
			Label: labels,
			Gauge: &dto.Gauge{Value: proto.Float64(v)},
		}},
	}
}

func label(name, value string) *dto.LabelPair {
	return &dto.LabelPair{Name: proto.String(name), Value: proto.String(value)}
}

func unixSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}
