// Package verify implements the domain verification engine: it drives a
// StoreDomain through the PENDING -> VERIFYING -> VERIFIED/FAILED state
// machine by probing DNS and TLS, consulting the edge provider, and
// flushing the buffered outcome to the registry in one write.
package verify

import (
	"context"
	"encoding/json"
	"time"

	"go_storefront/internal/edge"
	"go_storefront/internal/model"
	"go_storefront/internal/probe"
	"go_storefront/internal/registry"
)

// Registry is the slice of the registry the engine needs
type Registry interface {
	BeginVerification(ctx context.Context, domainID int, tenantID string) (*model.StoreDomain, error)
	FinishVerification(ctx context.Context, domainID int, outcome registry.VerificationOutcome) error
	Locks() *registry.DomainLocks
}

// DNSProber resolves records and checks the ownership token
type DNSProber interface {
	Probe(ctx context.Context, hostname, expectedToken string) (*probe.DNSResult, *probe.ProbeError)
}

// TLSProber inspects the served certificate
type TLSProber interface {
	Probe(ctx context.Context, hostname string) (*probe.TLSResult, *probe.ProbeError)
}

// Result is the outcome of one verification attempt, returned to the
// caller and mirrored into the registry.
type Result struct {
	Success  bool               `json:"success"`
	Status   model.DomainStatus `json:"status"`
	DNS      *probe.DNSResult   `json:"dns"`
	SSL      *probe.TLSResult   `json:"ssl"`
	Provider *edge.StatusResult `json:"provider,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// ResultHook runs after a verification attempt has been persisted.
// Used for websocket notification and certificate issuance enqueue.
type ResultHook func(domain *model.StoreDomain, result *Result)

// Engine runs verification attempts
type Engine struct {
	reg      Registry
	dns      DNSProber
	tls      TLSProber
	provider edge.Provider

	overallTimeout  time.Duration
	providerTimeout time.Duration

	hooks []ResultHook
}

// NewEngine creates a verification engine
func NewEngine(reg Registry, dns DNSProber, tls TLSProber, provider edge.Provider, overallTimeout, providerTimeout time.Duration) *Engine {
	if overallTimeout <= 0 {
		overallTimeout = 20 * time.Second
	}
	if providerTimeout <= 0 {
		providerTimeout = 10 * time.Second
	}
	return &Engine{
		reg:             reg,
		dns:             dns,
		tls:             tls,
		provider:        provider,
		overallTimeout:  overallTimeout,
		providerTimeout: providerTimeout,
	}
}

// OnResult registers a hook invoked after each persisted attempt.
// Not safe to call once verifications are running.
func (e *Engine) OnResult(hook ResultHook) {
	e.hooks = append(e.hooks, hook)
}

// Verify runs one verification attempt for the domain. Concurrent calls
// for the same domain serialize on the domain lock; the second caller
// then loses the VERIFYING transition and gets ErrVerificationInFlight.
func (e *Engine) Verify(ctx context.Context, domainID int, tenantID string) (*Result, error) {
	locks := e.reg.Locks()
	locks.Lock(domainID)
	defer locks.Unlock(domainID)

	domain, err := e.reg.BeginVerification(ctx, domainID, tenantID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.overallTimeout)
	defer cancel()

	result := e.runProbes(ctx, domain)

	outcome := buildOutcome(domain, result)
	if err := e.reg.FinishVerification(context.WithoutCancel(ctx), domain.ID, outcome); err != nil {
		return nil, err
	}

	for _, hook := range e.hooks {
		hook(domain, result)
	}

	return result, nil
}

// runProbes executes the DNS, TLS, and provider probes and folds their
// results. Success is DNS resolution plus a served certificate; the TXT
// token and the provider status are recorded but never gate success.
func (e *Engine) runProbes(ctx context.Context, domain *model.StoreDomain) *Result {
	result := &Result{}

	dnsResult, dnsErr := e.dns.Probe(ctx, domain.Domain, domain.VerificationToken)
	result.DNS = dnsResult
	if dnsErr != nil && dnsErr.Kind == probe.KindCancelled {
		return e.cancelled(result)
	}

	tlsResult, tlsErr := e.tls.Probe(ctx, domain.Domain)
	result.SSL = tlsResult
	if tlsErr != nil && tlsErr.Kind == probe.KindCancelled {
		return e.cancelled(result)
	}

	if domain.ProviderDomainID != "" && e.provider.Configured() {
		pctx, cancel := context.WithTimeout(ctx, e.providerTimeout)
		status := e.provider.GetDomainStatus(pctx, domain.ProviderDomainID)
		cancel()
		result.Provider = &status
	}

	result.Success = dnsResult != nil && dnsResult.Success && tlsResult != nil && tlsResult.Enabled
	if result.Success {
		result.Status = model.DomainStatusVerified
	} else {
		result.Status = model.DomainStatusFailed
		result.Error = failureMessage(dnsResult, dnsErr, tlsResult, tlsErr)
	}

	return result
}

// cancelled marks the attempt as a recorded failure rather than losing it
func (e *Engine) cancelled(result *Result) *Result {
	result.Success = false
	result.Status = model.DomainStatusFailed
	result.Error = "cancelled"
	return result
}

// failureMessage picks the most actionable error for the tenant
func failureMessage(dnsResult *probe.DNSResult, dnsErr *probe.ProbeError, tlsResult *probe.TLSResult, tlsErr *probe.ProbeError) string {
	if dnsResult == nil || !dnsResult.Success {
		if dnsErr != nil {
			return dnsErr.Error()
		}
		return "dns: hostname does not resolve"
	}
	if tlsResult == nil || !tlsResult.Enabled {
		if tlsErr != nil {
			return tlsErr.Error()
		}
		return "tls: no certificate served"
	}
	return "verification failed"
}

// buildOutcome maps a probe result onto the single registry write
func buildOutcome(domain *model.StoreDomain, result *Result) registry.VerificationOutcome {
	outcome := registry.VerificationOutcome{
		Success: result.Success,
	}

	if result.DNS != nil {
		outcome.DNSVerified = result.DNS.Success
		outcome.TXTVerified = result.DNS.TXTVerified
		if records, err := json.Marshal(result.DNS.Records); err == nil {
			outcome.DNSRecords = records
		}
	}

	if result.SSL != nil && result.SSL.Enabled {
		outcome.SSLEnabled = true
		outcome.SSLCertificate = result.SSL.Subject
		outcome.SSLIssuer = result.SSL.Issuer
		outcome.SSLExpiresAt = result.SSL.ExpiresAt
	}

	if !result.Success {
		outcome.LastError = result.Error
		outcome.NextRetryAt = nextRetryAt(domain.ErrorCount + 1)
	}

	return outcome
}
