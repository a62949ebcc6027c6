package tlspair

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"math"
	"os"
	"time"
)

// Certificate status values reported by Inspect.
const (
	StatusValid    = "valid"
	StatusExpiring = "expiring"
	StatusExpired  = "expired"
)

// CertInfo describes the leaf certificate found in a PEM file.
type CertInfo struct {
	Subject  string
	Issuer   string
	NotAfter time.Time
	DaysLeft int
	Status   string
}

// Inspect parses the first CERTIFICATE block in certPath and reports its
// expiry relative to now. warnWithin is the remaining validity at or below
// which the certificate is reported as expiring.
//
// Inspect is informational: callers must not change the serving mode based
// on its result.
func Inspect(certPath string, now time.Time, warnWithin time.Duration) (*CertInfo, error) {
	data, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("tlspair: read %q: %w", certPath, err)
	}

	var block *pem.Block
	for {
		block, data = pem.Decode(data)
		if block == nil {
			return nil, fmt.Errorf("tlspair: no CERTIFICATE block in %q", certPath)
		}
		if block.Type == "CERTIFICATE" {
			break
		}
	}

	leaf, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("tlspair: parse certificate %q: %w", certPath, err)
	}

	left := leaf.NotAfter.Sub(now)
	info := &CertInfo{
		Subject:  leaf.Subject.CommonName,
		Issuer:   leaf.Issuer.CommonName,
		NotAfter: leaf.NotAfter.UTC(),
		DaysLeft: int(math.Floor(left.Hours() / 24)),
	}

	switch {
	case left <= 0:
		info.Status = StatusExpired
	case left <= warnWithin:
		info.Status = StatusExpiring
	default:
		info.Status = StatusValid
	}
	return info, nil
}
