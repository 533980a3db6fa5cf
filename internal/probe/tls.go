package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"
)

// TLSProber opens a TLS connection and extracts leaf certificate metadata
type TLSProber struct {
	timeout time.Duration
	port    string
}

// NewTLSProber creates a TLS prober for the standard HTTPS port
func NewTLSProber(timeout time.Duration) *TLSProber {
	return &TLSProber{timeout: timeout, port: "443"}
}

// Probe performs a TLS handshake against hostname:443 and issues a
// minimal HEAD request. Any failure yields Enabled=false plus a
// ProbeError, never a panic or a half-filled result.
//
// Certificate verification is intentionally disabled: this prober reports
// what certificate is being served (subject, issuer, expiry) for operator
// visibility; it is not a TLS client making trust decisions.
func (p *TLSProber) Probe(ctx context.Context, hostname string) (*TLSResult, *ProbeError) {
	result := &TLSResult{Enabled: false}

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: p.timeout},
		Config: &tls.Config{
			ServerName:         hostname,
			InsecureSkipVerify: true, // reporting only, see doc comment
		},
	}

	dialCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conn, err := dialer.DialContext(dialCtx, "tcp", net.JoinHostPort(hostname, p.port))
	if err != nil {
		return result, newProbeError(KindTLS, err)
	}
	defer conn.Close()

	tlsConn, ok := conn.(*tls.Conn)
	if !ok {
		return result, &ProbeError{Kind: KindTLS, Message: "connection is not TLS"}
	}

	state := tlsConn.ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return result, &ProbeError{Kind: KindTLS, Message: "no peer certificate presented"}
	}

	// Minimal HEAD so well-behaved servers don't log a protocol error.
	// The response itself is irrelevant; the handshake already happened.
	if deadline, ok := dialCtx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	}
	fmt.Fprintf(conn, "HEAD / HTTP/1.1\r\nHost: %s\r\nConnection: close\r\n\r\n", hostname)

	leaf := state.PeerCertificates[0]
	expires := leaf.NotAfter
	result.Enabled = true
	result.Subject = leaf.Subject.CommonName
	result.Issuer = leaf.Issuer.CommonName
	result.ExpiresAt = &expires

	return result, nil
}
