// Package health periodically re-checks VERIFIED domains: HTTP liveness
// and latency, the served certificate, and DNS resolution. Readings are
// persisted as snapshots on the domain; a degraded reading never demotes
// a domain out of VERIFIED.
package health

import (
	"context"
	"time"

	"go_storefront/internal/probe"
	"go_storefront/internal/registry"
)

// HTTPProber measures liveness and latency
type HTTPProber interface {
	Probe(ctx context.Context, hostname string) (*probe.HTTPResult, *probe.ProbeError)
}

// TLSProber inspects the served certificate
type TLSProber interface {
	Probe(ctx context.Context, hostname string) (*probe.TLSResult, *probe.ProbeError)
}

// DNSProber re-checks that the hostname still resolves
type DNSProber interface {
	Probe(ctx context.Context, hostname, expectedToken string) (*probe.DNSResult, *probe.ProbeError)
}

// Checker runs one composite health check
type Checker struct {
	http HTTPProber
	tls  TLSProber
	dns  DNSProber
}

// NewChecker creates a health checker
func NewChecker(http HTTPProber, tls TLSProber, dns DNSProber) *Checker {
	return &Checker{http: http, tls: tls, dns: dns}
}

// Check probes the hostname and folds the readings into one snapshot.
// Probe failures are part of the reading, not errors: an offline domain
// is a valid observation.
func (c *Checker) Check(ctx context.Context, hostname string) registry.HealthSnapshot {
	snapshot := registry.HealthSnapshot{CheckedAt: time.Now()}

	httpResult, httpErr := c.http.Probe(ctx, hostname)
	if httpResult != nil {
		snapshot.Online = httpResult.Online
		snapshot.LatencyMS = httpResult.LatencyMS
		snapshot.StatusCode = httpResult.StatusCode
	}
	if httpErr != nil {
		snapshot.Error = httpErr.Error()
	}

	tlsResult, tlsErr := c.tls.Probe(ctx, hostname)
	if tlsResult != nil && tlsResult.Enabled {
		snapshot.SSLValid = true
		snapshot.SSLExpires = tlsResult.ExpiresAt
	} else if tlsErr != nil && snapshot.Error == "" {
		snapshot.Error = tlsErr.Error()
	}

	dnsResult, dnsErr := c.dns.Probe(ctx, hostname, "")
	if dnsResult != nil {
		snapshot.DNSValid = dnsResult.Success
	}
	if dnsErr != nil && snapshot.Error == "" {
		snapshot.Error = dnsErr.Error()
	}

	return snapshot
}
