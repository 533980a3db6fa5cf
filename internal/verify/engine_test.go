package verify

import (
	"context"
	"errors"
	"testing"
	"time"

	"go_storefront/internal/edge"
	"go_storefront/internal/model"
	"go_storefront/internal/probe"
	"go_storefront/internal/registry"
)

type fakeRegistry struct {
	domain   model.StoreDomain
	beginErr error

	finished bool
	outcome  registry.VerificationOutcome
	locks    *registry.DomainLocks
}

func newFakeRegistry(domain model.StoreDomain) *fakeRegistry {
	return &fakeRegistry{domain: domain, locks: registry.NewDomainLocks()}
}

func (f *fakeRegistry) BeginVerification(ctx context.Context, domainID int, tenantID string) (*model.StoreDomain, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	d := f.domain
	return &d, nil
}

func (f *fakeRegistry) FinishVerification(ctx context.Context, domainID int, outcome registry.VerificationOutcome) error {
	f.finished = true
	f.outcome = outcome
	return nil
}

func (f *fakeRegistry) Locks() *registry.DomainLocks {
	return f.locks
}

type fakeDNSProber struct {
	result *probe.DNSResult
	err    *probe.ProbeError
}

func (f *fakeDNSProber) Probe(ctx context.Context, hostname, expectedToken string) (*probe.DNSResult, *probe.ProbeError) {
	return f.result, f.err
}

type fakeTLSProber struct {
	result *probe.TLSResult
	err    *probe.ProbeError
}

func (f *fakeTLSProber) Probe(ctx context.Context, hostname string) (*probe.TLSResult, *probe.ProbeError) {
	return f.result, f.err
}

type fakeProvider struct {
	status      edge.StatusResult
	statusCalls int
}

func (f *fakeProvider) Name() string     { return "fake" }
func (f *fakeProvider) Configured() bool { return true }

func (f *fakeProvider) AddDomain(ctx context.Context, domain, projectID string) edge.AddResult {
	return edge.AddResult{Success: true, ProviderDomainID: "fake-id"}
}

func (f *fakeProvider) RemoveDomain(ctx context.Context, providerDomainID string) edge.RemoveResult {
	return edge.RemoveResult{Success: true}
}

func (f *fakeProvider) GetDomainStatus(ctx context.Context, providerDomainID string) edge.StatusResult {
	f.statusCalls++
	return f.status
}

func testDomain() model.StoreDomain {
	d := model.StoreDomain{
		TenantID:          "tenant-1",
		StoreID:           1,
		Domain:            "shop.example.com",
		Status:            model.DomainStatusPending,
		VerificationToken: "storefront-verify=abc",
	}
	d.ID = 42
	return d
}

func newTestEngine(reg Registry, dns DNSProber, tls TLSProber, provider edge.Provider) *Engine {
	return NewEngine(reg, dns, tls, provider, 20*time.Second, time.Second)
}

func TestEngine_Verify_Success(t *testing.T) {
	reg := newFakeRegistry(testDomain())
	expires := time.Now().Add(60 * 24 * time.Hour)
	dns := &fakeDNSProber{result: &probe.DNSResult{
		Success:     true,
		TXTVerified: true,
		Records:     []probe.DNSRecord{{Type: "A", Name: "shop.example.com", Value: "192.0.2.10", TTL: 300}},
	}}
	tls := &fakeTLSProber{result: &probe.TLSResult{
		Enabled:   true,
		Subject:   "shop.example.com",
		Issuer:    "R11",
		ExpiresAt: &expires,
	}}

	engine := newTestEngine(reg, dns, tls, &fakeProvider{})

	var hooked *Result
	engine.OnResult(func(d *model.StoreDomain, r *Result) { hooked = r })

	result, err := engine.Verify(context.Background(), 42, "tenant-1")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !result.Success || result.Status != model.DomainStatusVerified {
		t.Errorf("expected verified, got success=%v status=%s", result.Success, result.Status)
	}
	if !reg.finished {
		t.Fatal("outcome was never persisted")
	}
	if !reg.outcome.Success || !reg.outcome.DNSVerified || !reg.outcome.TXTVerified {
		t.Errorf("outcome flags wrong: %+v", reg.outcome)
	}
	if reg.outcome.SSLIssuer != "R11" {
		t.Errorf("issuer = %q, want R11", reg.outcome.SSLIssuer)
	}
	if reg.outcome.NextRetryAt != nil {
		t.Error("successful attempt must clear the retry schedule")
	}
	if len(reg.outcome.DNSRecords) == 0 {
		t.Error("DNS record snapshot missing from outcome")
	}
	if hooked == nil || !hooked.Success {
		t.Error("result hook did not run with the persisted result")
	}
}

func TestEngine_Verify_TXTAdvisoryOnly(t *testing.T) {
	// Token not found in TXT, but DNS resolves and TLS answers:
	// still verified, with the token miss recorded.
	reg := newFakeRegistry(testDomain())
	dns := &fakeDNSProber{result: &probe.DNSResult{Success: true, TXTVerified: false}}
	tls := &fakeTLSProber{result: &probe.TLSResult{Enabled: true}}

	engine := newTestEngine(reg, dns, tls, &fakeProvider{})

	result, err := engine.Verify(context.Background(), 42, "tenant-1")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !result.Success {
		t.Error("missing TXT token must not block verification")
	}
	if reg.outcome.TXTVerified {
		t.Error("token miss should be recorded as txt_verified=false")
	}
}

func TestEngine_Verify_DNSFailure(t *testing.T) {
	reg := newFakeRegistry(testDomain())
	dns := &fakeDNSProber{result: &probe.DNSResult{Success: false}}
	tls := &fakeTLSProber{result: &probe.TLSResult{Enabled: true}}

	engine := newTestEngine(reg, dns, tls, &fakeProvider{})

	result, err := engine.Verify(context.Background(), 42, "tenant-1")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result.Success || result.Status != model.DomainStatusFailed {
		t.Errorf("expected failed, got success=%v status=%s", result.Success, result.Status)
	}
	if result.Error == "" {
		t.Error("failed attempt must carry an error message")
	}
	if reg.outcome.NextRetryAt == nil {
		t.Error("first failure should schedule a retry")
	}
}

func TestEngine_Verify_TLSFailure(t *testing.T) {
	reg := newFakeRegistry(testDomain())
	dns := &fakeDNSProber{result: &probe.DNSResult{Success: true}}
	tls := &fakeTLSProber{
		result: &probe.TLSResult{Enabled: false},
		err:    &probe.ProbeError{Kind: probe.KindTLS, Message: "connection refused"},
	}

	engine := newTestEngine(reg, dns, tls, &fakeProvider{})

	result, err := engine.Verify(context.Background(), 42, "tenant-1")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result.Success {
		t.Error("TLS failure must fail verification")
	}
	if !reg.outcome.DNSVerified {
		t.Error("DNS success should still be recorded on a TLS failure")
	}
	if reg.outcome.SSLEnabled {
		t.Error("ssl must stay disabled when the handshake failed")
	}
}

func TestEngine_Verify_Cancelled(t *testing.T) {
	reg := newFakeRegistry(testDomain())
	dns := &fakeDNSProber{
		result: &probe.DNSResult{},
		err:    &probe.ProbeError{Kind: probe.KindCancelled, Message: "cancelled"},
	}
	tls := &fakeTLSProber{result: &probe.TLSResult{Enabled: true}}

	engine := newTestEngine(reg, dns, tls, &fakeProvider{})

	result, err := engine.Verify(context.Background(), 42, "tenant-1")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result.Success || result.Error != "cancelled" {
		t.Errorf("cancellation must record a failed attempt, got %+v", result)
	}
	if !reg.finished {
		t.Error("cancelled attempt must still be persisted")
	}
}

func TestEngine_Verify_InFlight(t *testing.T) {
	reg := newFakeRegistry(testDomain())
	reg.beginErr = registry.ErrVerificationInFlight

	engine := newTestEngine(reg, &fakeDNSProber{}, &fakeTLSProber{}, &fakeProvider{})

	_, err := engine.Verify(context.Background(), 42, "tenant-1")
	if !errors.Is(err, registry.ErrVerificationInFlight) {
		t.Errorf("err = %v, want ErrVerificationInFlight", err)
	}
	if reg.finished {
		t.Error("losing caller must not write an outcome")
	}
}

func TestEngine_Verify_ProviderStatusInformational(t *testing.T) {
	domain := testDomain()
	domain.ProviderDomainID = "cf-123"
	reg := newFakeRegistry(domain)

	dns := &fakeDNSProber{result: &probe.DNSResult{Success: true}}
	tls := &fakeTLSProber{result: &probe.TLSResult{Enabled: true}}
	provider := &fakeProvider{status: edge.StatusResult{Success: true, Status: "pending_validation"}}

	engine := newTestEngine(reg, dns, tls, provider)

	result, err := engine.Verify(context.Background(), 42, "tenant-1")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if provider.statusCalls != 1 {
		t.Errorf("provider status calls = %d, want 1", provider.statusCalls)
	}
	if result.Provider == nil || result.Provider.Status != "pending_validation" {
		t.Errorf("provider status missing from result: %+v", result.Provider)
	}
	if !result.Success {
		t.Error("a pending provider status must not block verification")
	}
}

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 30 * time.Second},
		{2, time.Minute},
		{3, 2 * time.Minute},
		{7, 30 * time.Minute},
		{50, 30 * time.Minute},
	}

	for _, tt := range tests {
		if got := retryDelay(tt.attempt); got != tt.want {
			t.Errorf("retryDelay(%d) = %s, want %s", tt.attempt, got, tt.want)
		}
	}
}

func TestNextRetryAt_AttemptBudget(t *testing.T) {
	if nextRetryAt(maxAttempts) != nil {
		t.Error("attempt budget exhausted: no automatic retry should be scheduled")
	}
	at := nextRetryAt(1)
	if at == nil {
		t.Fatal("first failure should schedule a retry")
	}
	if until := time.Until(*at); until < 25*time.Second || until > 35*time.Second {
		t.Errorf("first retry scheduled %s out, want ~30s", until)
	}
}
