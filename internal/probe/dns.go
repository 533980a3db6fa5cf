package probe

import (
	"context"
	"strings"
	"time"

	"github.com/miekg/dns"

	"go_storefront/internal/domainutil"
)

const defaultTTL = 300

// DNSProber resolves A, CNAME, and TXT records for a hostname
type DNSProber struct {
	nameserver   string // host:port
	timeout      time.Duration
	ingressIP    string // expected A target, used for hints only
	edgeHostname string // expected CNAME target, used for hints only
	client       *dns.Client
}

// NewDNSProber creates a DNS prober. If nameserver is empty the system
// resolver from /etc/resolv.conf is used, falling back to 8.8.8.8.
func NewDNSProber(nameserver string, timeout time.Duration, ingressIP, edgeHostname string) *DNSProber {
	if nameserver == "" {
		nameserver = systemNameserver()
	}
	if !strings.Contains(nameserver, ":") {
		nameserver += ":53"
	}
	return &DNSProber{
		nameserver:   nameserver,
		timeout:      timeout,
		ingressIP:    ingressIP,
		edgeHostname: edgeHostname,
		client:       &dns.Client{Timeout: timeout},
	}
}

func systemNameserver() string {
	conf, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err == nil && len(conf.Servers) > 0 {
		return conf.Servers[0]
	}
	return "8.8.8.8"
}

// Probe resolves A, CNAME, and TXT records for hostname. The three
// lookups are independent: a missing record type never fails the others.
// expectedToken, when non-empty, is matched against TXT values for
// ownership proof.
func (p *DNSProber) Probe(ctx context.Context, hostname, expectedToken string) (*DNSResult, *ProbeError) {
	result := &DNSResult{}
	fqdn := dns.Fqdn(hostname)

	var hasAddress bool

	// A records
	aRecords, err := p.query(ctx, fqdn, dns.TypeA)
	if err != nil {
		if perr := newProbeError(KindDNS, err); perr.Kind == KindCancelled || perr.Kind == KindTimeout {
			return result, perr
		}
	}
	for _, rr := range aRecords {
		if a, ok := rr.(*dns.A); ok {
			result.Records = append(result.Records, DNSRecord{
				Type:  "A",
				Name:  hostname,
				Value: a.A.String(),
				TTL:   ttlOrDefault(rr),
			})
			hasAddress = true
		}
	}

	// CNAME records
	cnameRecords, err := p.query(ctx, fqdn, dns.TypeCNAME)
	if err != nil {
		if perr := newProbeError(KindDNS, err); perr.Kind == KindCancelled {
			return result, perr
		}
	}
	var cnameTargets []string
	for _, rr := range cnameRecords {
		if cname, ok := rr.(*dns.CNAME); ok {
			target := strings.TrimSuffix(cname.Target, ".")
			result.Records = append(result.Records, DNSRecord{
				Type:  "CNAME",
				Name:  hostname,
				Value: target,
				TTL:   ttlOrDefault(rr),
			})
			cnameTargets = append(cnameTargets, target)
			hasAddress = true
		}
	}

	// TXT records, inspected for the ownership token
	txtRecords, err := p.query(ctx, fqdn, dns.TypeTXT)
	if err != nil {
		if perr := newProbeError(KindDNS, err); perr.Kind == KindCancelled {
			return result, perr
		}
	}
	for _, rr := range txtRecords {
		if txt, ok := rr.(*dns.TXT); ok {
			value := strings.Join(txt.Txt, "")
			result.Records = append(result.Records, DNSRecord{
				Type:  "TXT",
				Name:  hostname,
				Value: value,
				TTL:   ttlOrDefault(rr),
			})
			if expectedToken != "" && value == expectedToken {
				result.TXTVerified = true
			}
		}
	}

	result.Success = hasAddress
	result.Missing = p.buildHints(hostname, hasAddress, p.cnameMisdirected(cnameTargets), result.TXTVerified, expectedToken)

	return result, nil
}

// cnameMisdirected reports whether the hostname has CNAME records but
// none of them lands on the platform edge. Such a domain resolves, yet
// its traffic never reaches us.
func (p *DNSProber) cnameMisdirected(targets []string) bool {
	if p.edgeHostname == "" || len(targets) == 0 {
		return false
	}
	for _, target := range targets {
		if domainutil.IsSubdomainOf(target, p.edgeHostname) {
			return false
		}
	}
	return true
}

// query performs a single question against the configured nameserver
func (p *DNSProber) query(ctx context.Context, fqdn string, qtype uint16) ([]dns.RR, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(fqdn, qtype)
	msg.RecursionDesired = true

	resp, _, err := p.client.ExchangeContext(ctx, msg, p.nameserver)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}
	return resp.Answer, nil
}

// buildHints lists the records the tenant still needs to configure
func (p *DNSProber) buildHints(hostname string, hasAddress, cnameMisdirected, txtVerified bool, expectedToken string) []RecordHint {
	var hints []RecordHint
	if !hasAddress {
		if p.ingressIP != "" {
			hints = append(hints, RecordHint{Type: "A", Name: hostname, Value: p.ingressIP})
		}
		if p.edgeHostname != "" {
			hints = append(hints, RecordHint{Type: "CNAME", Name: hostname, Value: p.edgeHostname})
		}
		if len(hints) == 0 {
			hints = append(hints, RecordHint{Type: "A", Name: hostname, Value: "<platform ingress IP>"})
		}
	} else if cnameMisdirected {
		hints = append(hints, RecordHint{Type: "CNAME", Name: hostname, Value: p.edgeHostname})
	}
	if expectedToken != "" && !txtVerified {
		hints = append(hints, RecordHint{Type: "TXT", Name: hostname, Value: expectedToken})
	}
	return hints
}

func ttlOrDefault(rr dns.RR) int {
	if ttl := int(rr.Header().Ttl); ttl > 0 {
		return ttl
	}
	return defaultTTL
}
