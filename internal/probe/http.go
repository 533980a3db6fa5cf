package probe

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"
)

// HTTPProber measures whether a domain answers HTTP at all, and how fast
type HTTPProber struct {
	client *http.Client
}

// NewHTTPProber creates an HTTP liveness prober
func NewHTTPProber(timeout time.Duration) *HTTPProber {
	return &HTTPProber{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				// Liveness only, cert validity is the TLS prober's job
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Probe issues a HEAD against https://hostname, falling back to plain
// HTTP when TLS is not answering. Any response, regardless of status
// code, counts as online.
func (p *HTTPProber) Probe(ctx context.Context, hostname string) (*HTTPResult, *ProbeError) {
	start := time.Now()

	status, err := p.head(ctx, "https://"+hostname)
	if err != nil {
		status, err = p.head(ctx, "http://"+hostname)
	}

	latency := time.Since(start).Milliseconds()
	if err != nil {
		return &HTTPResult{Online: false, LatencyMS: latency}, newProbeError(KindHTTP, err)
	}

	return &HTTPResult{Online: true, StatusCode: status, LatencyMS: latency}, nil
}

func (p *HTTPProber) head(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	return resp.StatusCode, nil
}
