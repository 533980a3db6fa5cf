// Package edge defines the contract the verification engine expects from
// an external domain-hosting provider. The engine is provider-agnostic;
// one adapter exists per provider. Every method reports a structured
// result instead of failing hard, so verification can always proceed
// DNS/TLS-only when the provider is absent or broken.
package edge

import "context"

// AddResult is the outcome of registering a domain with the provider
type AddResult struct {
	Success          bool   `json:"success"`
	ProviderDomainID string `json:"providerDomainId,omitempty"`
	Error            string `json:"error,omitempty"`
}

// RemoveResult is the outcome of de-registering a domain
type RemoveResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// StatusResult is the provider's propagation status for a domain
type StatusResult struct {
	Success bool   `json:"success"`
	Status  string `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Provider is the capability interface for an edge/hosting provider
type Provider interface {
	// Name identifies the provider in logs and stored config
	Name() string

	// Configured reports whether credentials are present
	Configured() bool

	// AddDomain registers a hostname under the provider project/zone
	AddDomain(ctx context.Context, domain, projectID string) AddResult

	// RemoveDomain de-registers a previously added hostname
	RemoveDomain(ctx context.Context, providerDomainID string) RemoveResult

	// GetDomainStatus queries propagation status for a registered hostname
	GetDomainStatus(ctx context.Context, providerDomainID string) StatusResult
}
