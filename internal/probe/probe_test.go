package probe

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
)

type fakeTimeoutError struct{}

func (fakeTimeoutError) Error() string   { return "i/o timeout" }
func (fakeTimeoutError) Timeout() bool   { return true }
func (fakeTimeoutError) Temporary() bool { return true }

func TestNewProbeError_Classification(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		fallback string
		wantKind string
	}{
		{name: "deadline exceeded", err: context.DeadlineExceeded, fallback: KindDNS, wantKind: KindTimeout},
		{name: "cancelled", err: context.Canceled, fallback: KindTLS, wantKind: KindCancelled},
		{name: "net timeout", err: &net.OpError{Op: "dial", Err: fakeTimeoutError{}}, fallback: KindTLS, wantKind: KindTimeout},
		{name: "plain dns error", err: errors.New("SERVFAIL"), fallback: KindDNS, wantKind: KindDNS},
		{name: "plain tls error", err: errors.New("handshake failure"), fallback: KindTLS, wantKind: KindTLS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newProbeError(tt.fallback, tt.err)
			if got.Kind != tt.wantKind {
				t.Errorf("newProbeError(%s, %v).Kind = %s, want %s", tt.fallback, tt.err, got.Kind, tt.wantKind)
			}
		})
	}
}

func TestProbeError_Timeout(t *testing.T) {
	if !(&ProbeError{Kind: KindTimeout}).Timeout() {
		t.Error("timeout kind should report Timeout() = true")
	}
	if (&ProbeError{Kind: KindDNS}).Timeout() {
		t.Error("dns kind should report Timeout() = false")
	}
}

func TestBuildHints_NoAddress(t *testing.T) {
	p := NewDNSProber("127.0.0.1:5353", time.Second, "203.0.113.10", "edge.storefront.example")

	hints := p.buildHints("shop.example.com", false, false, false, "tok-123")

	var haveA, haveCNAME, haveTXT bool
	for _, h := range hints {
		switch h.Type {
		case "A":
			haveA = true
			if h.Value != "203.0.113.10" {
				t.Errorf("A hint should point at the ingress IP, got %s", h.Value)
			}
		case "CNAME":
			haveCNAME = true
			if h.Value != "edge.storefront.example" {
				t.Errorf("CNAME hint should point at the edge hostname, got %s", h.Value)
			}
		case "TXT":
			haveTXT = true
			if h.Value != "tok-123" {
				t.Errorf("TXT hint should carry the verification token, got %s", h.Value)
			}
		}
	}
	if !haveA || !haveCNAME || !haveTXT {
		t.Errorf("expected A+CNAME+TXT hints, got %+v", hints)
	}
}

func TestBuildHints_ResolvedAndVerified(t *testing.T) {
	p := NewDNSProber("127.0.0.1:5353", time.Second, "203.0.113.10", "")

	hints := p.buildHints("shop.example.com", true, false, true, "tok-123")
	if len(hints) != 0 {
		t.Errorf("no hints expected when resolved and token found, got %+v", hints)
	}
}

func TestBuildHints_MisdirectedCNAME(t *testing.T) {
	p := NewDNSProber("127.0.0.1:5353", time.Second, "203.0.113.10", "edge.storefront.example")

	hints := p.buildHints("shop.example.com", true, true, true, "")
	if len(hints) != 1 || hints[0].Type != "CNAME" || hints[0].Value != "edge.storefront.example" {
		t.Errorf("expected a single CNAME correction hint, got %+v", hints)
	}
}

func TestCNAMEMisdirected(t *testing.T) {
	p := NewDNSProber("127.0.0.1:5353", time.Second, "", "edge.storefront.example")

	tests := []struct {
		name    string
		targets []string
		want    bool
	}{
		{name: "no cname", targets: nil, want: false},
		{name: "points at edge", targets: []string{"edge.storefront.example"}, want: false},
		{name: "points under edge", targets: []string{"eu1.edge.storefront.example"}, want: false},
		{name: "points elsewhere", targets: []string{"parking.example.net"}, want: true},
		{name: "one of several lands on edge", targets: []string{"parking.example.net", "edge.storefront.example"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.cnameMisdirected(tt.targets); got != tt.want {
				t.Errorf("cnameMisdirected(%v) = %v, want %v", tt.targets, got, tt.want)
			}
		})
	}
}

func TestBuildHints_PlaceholderWithoutPlatformConfig(t *testing.T) {
	p := NewDNSProber("127.0.0.1:5353", time.Second, "", "")

	hints := p.buildHints("shop.example.com", false, false, true, "")
	if len(hints) != 1 || hints[0].Type != "A" {
		t.Errorf("expected single placeholder A hint, got %+v", hints)
	}
}

func TestNewDNSProber_DefaultPort(t *testing.T) {
	p := NewDNSProber("10.0.0.1", time.Second, "", "")
	if p.nameserver != "10.0.0.1:53" {
		t.Errorf("expected :53 appended, got %s", p.nameserver)
	}

	p = NewDNSProber("10.0.0.1:5353", time.Second, "", "")
	if p.nameserver != "10.0.0.1:5353" {
		t.Errorf("expected port preserved, got %s", p.nameserver)
	}
}

func TestTTLOrDefault(t *testing.T) {
	withTTL := &dns.A{Hdr: dns.RR_Header{Ttl: 60}}
	if got := ttlOrDefault(withTTL); got != 60 {
		t.Errorf("expected resolver TTL 60, got %d", got)
	}

	withoutTTL := &dns.A{Hdr: dns.RR_Header{Ttl: 0}}
	if got := ttlOrDefault(withoutTTL); got != defaultTTL {
		t.Errorf("expected default TTL %d when resolver omits one, got %d", defaultTTL, got)
	}
}

func TestTLSProber_Unreachable(t *testing.T) {
	p := NewTLSProber(500 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// reserved TEST-NET-1 address never answers
	result, perr := p.Probe(ctx, "203.0.113.1")
	if perr == nil {
		t.Fatal("expected probe error for unreachable host")
	}
	if result.Enabled {
		t.Error("Enabled must be false on failure")
	}
	if result.ExpiresAt != nil {
		t.Error("no certificate data expected on failure")
	}
}

func TestHTTPProber_Unreachable(t *testing.T) {
	p := NewHTTPProber(500 * time.Millisecond)

	// A freshly closed local port is hermetically unreachable, unlike a
	// routable address, which an intercepting network may answer for
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	target := ln.Addr().String()
	ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result, perr := p.Probe(ctx, target)
	if perr == nil {
		t.Fatal("expected probe error for unreachable host")
	}
	if result.Online {
		t.Error("Online must be false on failure")
	}
	if result.LatencyMS < 0 {
		t.Error("latency must be non-negative")
	}
}
