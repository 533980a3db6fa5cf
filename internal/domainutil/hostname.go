package domainutil

import (
	"fmt"
	"net"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Normalize canonicalizes a user-supplied hostname:
//   - lowercase, trimmed
//   - trailing dot removed
//   - port stripped (example.com:443)
//   - IPs, wildcards, and malformed names rejected
func Normalize(host string) (string, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", fmt.Errorf("domain must not be empty")
	}

	host = strings.ToLower(host)
	host = strings.TrimSuffix(host, ".")

	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	if host == "" {
		return "", fmt.Errorf("domain must not be empty after normalization")
	}

	if net.ParseIP(host) != nil {
		return "", fmt.Errorf("IP address is not allowed as domain: %s", host)
	}
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		inner := host[1 : len(host)-1]
		if net.ParseIP(inner) != nil {
			return "", fmt.Errorf("IP address is not allowed as domain: %s", host)
		}
	}

	for _, r := range host {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '.' || r == '-') {
			return "", fmt.Errorf("domain contains invalid character: %c in %s", r, host)
		}
	}

	if strings.HasPrefix(host, ".") || strings.HasPrefix(host, "-") {
		return "", fmt.Errorf("domain must not start with '.' or '-': %s", host)
	}

	if !strings.Contains(host, ".") {
		return "", fmt.Errorf("domain must contain at least one dot: %s", host)
	}

	for _, label := range strings.Split(host, ".") {
		if label == "" {
			return "", fmt.Errorf("domain contains an empty label: %s", host)
		}
		if len(label) > 63 {
			return "", fmt.Errorf("domain label exceeds 63 characters: %s", label)
		}
		if strings.HasSuffix(label, "-") || strings.HasPrefix(label, "-") {
			return "", fmt.Errorf("domain label must not start or end with '-': %s", label)
		}
	}

	if len(host) > 253 {
		return "", fmt.Errorf("domain exceeds 253 characters: %s", host)
	}

	return host, nil
}

// EffectiveApex returns the eTLD+1 (registrable domain) via the public
// suffix list, e.g. shop.example.co.uk -> example.co.uk.
func EffectiveApex(domain string) (string, error) {
	normalized, err := Normalize(domain)
	if err != nil {
		return "", fmt.Errorf("normalize failed for %s: %w", domain, err)
	}

	apex, err := publicsuffix.EffectiveTLDPlusOne(normalized)
	if err != nil {
		return "", fmt.Errorf("failed to compute apex for %s: %w", normalized, err)
	}

	return apex, nil
}

// IsSubdomainOf reports whether host is a strict subdomain of parent
// (or equal to it). Both are normalized before comparison.
func IsSubdomainOf(host, parent string) bool {
	h, err := Normalize(host)
	if err != nil {
		return false
	}
	p, err := Normalize(parent)
	if err != nil {
		return false
	}
	return h == p || strings.HasSuffix(h, "."+p)
}
