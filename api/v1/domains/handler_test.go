package domains

import (
	"context"
	"testing"

	"go_storefront/internal/edge"
	"go_storefront/internal/httpx"
)

func TestProviderStatusError(t *testing.T) {
	tests := []struct {
		name       string
		ctxErr     error
		configured bool
		result     edge.StatusResult
		wantCode   int // 0 means no error
	}{
		{
			name:       "success maps to no error",
			configured: true,
			result:     edge.StatusResult{Success: true, Status: "active"},
			wantCode:   0,
		},
		{
			name:       "unconfigured provider",
			configured: false,
			result:     edge.StatusResult{Success: false, Error: "provider not configured"},
			wantCode:   httpx.CodeProviderUnavailable,
		},
		{
			name:       "deadline exceeded is a probe timeout",
			ctxErr:     context.DeadlineExceeded,
			configured: true,
			result:     edge.StatusResult{Success: false, Error: "context deadline exceeded"},
			wantCode:   httpx.CodeProbeTimeout,
		},
		{
			name:       "provider api failure",
			configured: true,
			result:     edge.StatusResult{Success: false, Error: "hostname not found"},
			wantCode:   httpx.CodeProviderUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := providerStatusError(tt.ctxErr, tt.configured, tt.result)
			if tt.wantCode == 0 {
				if appErr != nil {
					t.Fatalf("expected no error, got %v", appErr)
				}
				return
			}
			if appErr == nil {
				t.Fatalf("expected code %d, got nil", tt.wantCode)
			}
			if appErr.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", appErr.Code, tt.wantCode)
			}
		})
	}
}
