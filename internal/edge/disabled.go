package edge

import "context"

const errNotConfigured = "provider not configured"

// Disabled is the Provider used when no edge provider credentials are
// present. Every call answers a structured failure so the engine can
// proceed DNS/TLS-only without special-casing a nil provider.
type Disabled struct{}

// NewDisabled creates the no-op provider
func NewDisabled() *Disabled { return &Disabled{} }

// Name identifies the provider
func (Disabled) Name() string { return "disabled" }

// Configured always reports false
func (Disabled) Configured() bool { return false }

// AddDomain reports the provider as not configured
func (Disabled) AddDomain(ctx context.Context, domain, projectID string) AddResult {
	return AddResult{Success: false, Error: errNotConfigured}
}

// RemoveDomain reports the provider as not configured
func (Disabled) RemoveDomain(ctx context.Context, providerDomainID string) RemoveResult {
	return RemoveResult{Success: false, Error: errNotConfigured}
}

// GetDomainStatus reports the provider as not configured
func (Disabled) GetDomainStatus(ctx context.Context, providerDomainID string) StatusResult {
	return StatusResult{Success: false, Error: errNotConfigured}
}

// FromConfig returns the Cloudflare adapter when credentials are present,
// the Disabled provider otherwise.
func FromConfig(apiToken, defaultZone string) Provider {
	p := NewCloudflareProvider(apiToken, defaultZone)
	if !p.Configured() {
		return NewDisabled()
	}
	return p
}
