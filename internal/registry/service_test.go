package registry

import (
	"errors"
	"strings"
	"testing"

	"gorm.io/gorm"
)

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		name         string
		page, size   int
		wantPage     int
		wantPageSize int
	}{
		{"defaults", 0, 0, 1, 20},
		{"negative page", -3, 10, 1, 10},
		{"size too large", 2, 500, 2, 20},
		{"valid", 3, 50, 3, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, size := normalizePage(tt.page, tt.size)
			if page != tt.wantPage || size != tt.wantPageSize {
				t.Errorf("normalizePage(%d, %d) = (%d, %d), want (%d, %d)",
					tt.page, tt.size, page, size, tt.wantPage, tt.wantPageSize)
			}
		})
	}
}

func TestIsDuplicateKeyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm sentinel", gorm.ErrDuplicatedKey, true},
		{"mysql 1062", errors.New("Error 1062: Duplicate entry 'acme-shop.example' for key 'uk_store_domains_tenant_domain'"), true},
		{"unrelated", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isDuplicateKeyError(tt.err); got != tt.want {
				t.Errorf("isDuplicateKeyError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestTruncateError(t *testing.T) {
	if truncateError("") != nil {
		t.Error("empty message should map to nil")
	}

	short := truncateError("dns: no such host")
	if short != "dns: no such host" {
		t.Errorf("short message should pass through, got %v", short)
	}

	long, ok := truncateError(strings.Repeat("x", 300)).(string)
	if !ok {
		t.Fatal("long message should still be a string")
	}
	if len(long) != 255 {
		t.Errorf("truncated length = %d, want 255", len(long))
	}
	if !strings.HasSuffix(long, "...") {
		t.Error("truncated message should end with ellipsis")
	}
}
