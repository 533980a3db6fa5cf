package edge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	cloudflareAPIBase = "https://api.cloudflare.com/client/v4"
	requestTimeout    = 10 * time.Second
)

// ErrNotFound is returned when a custom hostname is not found at the provider
var ErrNotFound = errors.New("custom hostname not found")

// CloudflareProvider implements Provider on top of the Cloudflare
// custom-hostnames API. The "project id" of the engine contract maps to a
// Cloudflare zone id.
type CloudflareProvider struct {
	apiToken    string
	defaultZone string
	baseURL     string
	client      *http.Client
}

// NewCloudflareProvider creates a Cloudflare edge provider adapter
func NewCloudflareProvider(apiToken, defaultZone string) *CloudflareProvider {
	return &CloudflareProvider{
		apiToken:    apiToken,
		defaultZone: defaultZone,
		baseURL:     cloudflareAPIBase,
		client: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// Name identifies the provider
func (p *CloudflareProvider) Name() string { return "cloudflare" }

// Configured reports whether credentials are present
func (p *CloudflareProvider) Configured() bool {
	return p.apiToken != "" && p.defaultZone != ""
}

// cfCustomHostname represents a Cloudflare custom hostname (API response)
type cfCustomHostname struct {
	ID       string `json:"id"`
	Hostname string `json:"hostname"`
	Status   string `json:"status"`
}

// cfResponse represents a Cloudflare API response envelope
type cfResponse struct {
	Success bool            `json:"success"`
	Errors  []cfError       `json:"errors"`
	Result  json.RawMessage `json:"result"`
}

// cfError represents a Cloudflare API error
type cfError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// AddDomain registers hostname as a custom hostname under the zone
func (p *CloudflareProvider) AddDomain(ctx context.Context, domain, projectID string) AddResult {
	zone := p.zone(projectID)

	body, err := json.Marshal(map[string]interface{}{
		"hostname": domain,
		"ssl":      map[string]string{"method": "http", "type": "dv"},
	})
	if err != nil {
		return AddResult{Success: false, Error: err.Error()}
	}

	url := fmt.Sprintf("%s/zones/%s/custom_hostnames", p.baseURL, zone)
	var hostname cfCustomHostname
	if err := p.do(ctx, http.MethodPost, url, body, &hostname); err != nil {
		return AddResult{Success: false, Error: err.Error()}
	}

	return AddResult{Success: true, ProviderDomainID: hostname.ID}
}

// RemoveDomain deletes the custom hostname. A provider-side "not found"
// is treated as success: the desired state is already reached.
func (p *CloudflareProvider) RemoveDomain(ctx context.Context, providerDomainID string) RemoveResult {
	url := fmt.Sprintf("%s/zones/%s/custom_hostnames/%s", p.baseURL, p.defaultZone, providerDomainID)
	if err := p.do(ctx, http.MethodDelete, url, nil, nil); err != nil {
		if errors.Is(err, ErrNotFound) {
			return RemoveResult{Success: true}
		}
		return RemoveResult{Success: false, Error: err.Error()}
	}
	return RemoveResult{Success: true}
}

// GetDomainStatus queries propagation status for the custom hostname
func (p *CloudflareProvider) GetDomainStatus(ctx context.Context, providerDomainID string) StatusResult {
	url := fmt.Sprintf("%s/zones/%s/custom_hostnames/%s", p.baseURL, p.defaultZone, providerDomainID)

	var hostname cfCustomHostname
	if err := p.do(ctx, http.MethodGet, url, nil, &hostname); err != nil {
		return StatusResult{Success: false, Error: err.Error()}
	}

	return StatusResult{Success: true, Status: hostname.Status}
}

func (p *CloudflareProvider) zone(projectID string) string {
	if projectID != "" {
		return projectID
	}
	return p.defaultZone
}

// do performs an authenticated request and decodes the result envelope
func (p *CloudflareProvider) do(ctx context.Context, method, url string, body []byte, result interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+p.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var envelope cfResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	if !envelope.Success {
		if len(envelope.Errors) > 0 {
			return fmt.Errorf("provider error %d: %s", envelope.Errors[0].Code, envelope.Errors[0].Message)
		}
		return fmt.Errorf("provider request failed with status %d", resp.StatusCode)
	}

	if result != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("failed to decode result: %w", err)
		}
	}

	return nil
}
