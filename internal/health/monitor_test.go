package health

import (
	"context"
	"testing"
	"time"

	"go_storefront/internal/probe"
)

type fakeHTTP struct {
	result *probe.HTTPResult
	err    *probe.ProbeError
}

func (f *fakeHTTP) Probe(ctx context.Context, hostname string) (*probe.HTTPResult, *probe.ProbeError) {
	return f.result, f.err
}

type fakeTLS struct {
	result *probe.TLSResult
	err    *probe.ProbeError
}

func (f *fakeTLS) Probe(ctx context.Context, hostname string) (*probe.TLSResult, *probe.ProbeError) {
	return f.result, f.err
}

type fakeDNS struct {
	result *probe.DNSResult
	err    *probe.ProbeError
}

func (f *fakeDNS) Probe(ctx context.Context, hostname, expectedToken string) (*probe.DNSResult, *probe.ProbeError) {
	return f.result, f.err
}

func TestChecker_Check_Healthy(t *testing.T) {
	expires := time.Now().Add(30 * 24 * time.Hour)
	checker := NewChecker(
		&fakeHTTP{result: &probe.HTTPResult{Online: true, StatusCode: 200, LatencyMS: 42}},
		&fakeTLS{result: &probe.TLSResult{Enabled: true, ExpiresAt: &expires}},
		&fakeDNS{result: &probe.DNSResult{Success: true}},
	)

	snapshot := checker.Check(context.Background(), "shop.example.com")

	if !snapshot.Online || snapshot.LatencyMS != 42 || snapshot.StatusCode != 200 {
		t.Errorf("http reading wrong: %+v", snapshot)
	}
	if !snapshot.SSLValid || snapshot.SSLExpires == nil {
		t.Errorf("tls reading wrong: %+v", snapshot)
	}
	if !snapshot.DNSValid {
		t.Error("dns reading should be valid")
	}
	if snapshot.Error != "" {
		t.Errorf("healthy check should carry no error, got %q", snapshot.Error)
	}
	if snapshot.CheckedAt.IsZero() {
		t.Error("snapshot must be timestamped")
	}
}

func TestChecker_Check_Offline(t *testing.T) {
	checker := NewChecker(
		&fakeHTTP{
			result: &probe.HTTPResult{Online: false, LatencyMS: 5000},
			err:    &probe.ProbeError{Kind: probe.KindTimeout, Message: "context deadline exceeded"},
		},
		&fakeTLS{
			result: &probe.TLSResult{Enabled: false},
			err:    &probe.ProbeError{Kind: probe.KindTLS, Message: "connection refused"},
		},
		&fakeDNS{result: &probe.DNSResult{Success: true}},
	)

	snapshot := checker.Check(context.Background(), "shop.example.com")

	if snapshot.Online {
		t.Error("timed out domain must read offline")
	}
	if snapshot.SSLValid {
		t.Error("failed handshake must not read as valid ssl")
	}
	if snapshot.Error == "" {
		t.Error("offline reading should carry the probe error")
	}
	// The HTTP error wins over later ones; it is the actionable one
	if snapshot.Error != "timeout: context deadline exceeded" {
		t.Errorf("error = %q, want the http probe error", snapshot.Error)
	}
}

func TestChecker_Check_DNSDrift(t *testing.T) {
	// Online but the record no longer resolves via our resolver:
	// flagged in the snapshot without touching the domain status.
	checker := NewChecker(
		&fakeHTTP{result: &probe.HTTPResult{Online: true, StatusCode: 200, LatencyMS: 10}},
		&fakeTLS{result: &probe.TLSResult{Enabled: true}},
		&fakeDNS{
			result: &probe.DNSResult{Success: false},
			err:    &probe.ProbeError{Kind: probe.KindDNS, Message: "no such host"},
		},
	)

	snapshot := checker.Check(context.Background(), "shop.example.com")

	if !snapshot.Online {
		t.Error("domain still answers, should read online")
	}
	if snapshot.DNSValid {
		t.Error("dns drift should be flagged")
	}
	if snapshot.Error != "dns: no such host" {
		t.Errorf("error = %q, want the dns probe error", snapshot.Error)
	}
}
