// Package probe implements the network probes used by domain verification
// and health monitoring: DNS resolution, TLS handshake inspection, and a
// timed HTTP liveness check. Probers never panic and never return raw
// transport errors; every failure is folded into a ProbeError so the
// engine's handling is exhaustive.
package probe

import (
	"context"
	"errors"
	"net"
	"time"
)

// ProbeError kinds
const (
	KindTimeout   = "timeout"
	KindCancelled = "cancelled"
	KindDNS       = "dns"
	KindTLS       = "tls"
	KindHTTP      = "http"
)

// ProbeError is the typed failure returned by all probers
type ProbeError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *ProbeError) Error() string {
	return e.Kind + ": " + e.Message
}

// Timeout reports whether the error was a deadline/timeout failure
func (e *ProbeError) Timeout() bool {
	return e.Kind == KindTimeout
}

// newProbeError classifies err into a ProbeError with the given fallback kind
func newProbeError(kind string, err error) *ProbeError {
	switch {
	case errors.Is(err, context.Canceled):
		return &ProbeError{Kind: KindCancelled, Message: "cancelled"}
	case errors.Is(err, context.DeadlineExceeded):
		return &ProbeError{Kind: KindTimeout, Message: err.Error()}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ProbeError{Kind: KindTimeout, Message: err.Error()}
	}
	return &ProbeError{Kind: kind, Message: err.Error()}
}

// DNSRecord is one discovered DNS record
type DNSRecord struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Value string `json:"value"`
	TTL   int    `json:"ttl"`
}

// RecordHint tells the tenant which record to configure when resolution
// fails. Purely advisory output for the UI.
type RecordHint struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// DNSResult is the outcome of a DNS probe
type DNSResult struct {
	Success     bool         `json:"success"` // at least one A or CNAME resolved
	Records     []DNSRecord  `json:"records"`
	TXTVerified bool         `json:"txtVerified"` // verification token found in TXT
	Missing     []RecordHint `json:"missing,omitempty"`
}

// TLSResult is the outcome of a TLS probe
type TLSResult struct {
	Enabled   bool       `json:"enabled"`
	Subject   string     `json:"subject,omitempty"`
	Issuer    string     `json:"issuer,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// HTTPResult is the outcome of a timed HTTP liveness probe
type HTTPResult struct {
	Online     bool  `json:"online"`
	StatusCode int   `json:"statusCode,omitempty"`
	LatencyMS  int64 `json:"latencyMs"`
}
