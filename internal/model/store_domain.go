package model

import (
	"time"

	"gorm.io/datatypes"
)

// DomainStatus represents the verification state of a store domain
type DomainStatus string

const (
	DomainStatusPending   DomainStatus = "pending"   // created, never verified
	DomainStatusVerifying DomainStatus = "verifying" // verification attempt in flight
	DomainStatusVerified  DomainStatus = "verified"  // DNS + TLS both passed
	DomainStatusFailed    DomainStatus = "failed"    // last attempt failed, retryable
)

// StoreDomain represents a custom hostname bound to a store
type StoreDomain struct {
	BaseModel
	TenantID string `gorm:"type:varchar(64);not null;index:idx_store_domains_tenant;uniqueIndex:uk_store_domains_tenant_domain,priority:1" json:"tenantId"`
	StoreID  int    `gorm:"not null;index" json:"storeId"`
	Domain   string `gorm:"type:varchar(255);not null;uniqueIndex:uk_store_domains_tenant_domain,priority:2" json:"domain"` // normalized, unique per tenant

	IsPrimary bool         `gorm:"type:tinyint;default:0" json:"isPrimary"` // at most one per store
	Status    DomainStatus `gorm:"type:enum('pending','verifying','verified','failed');default:'pending';index" json:"status"`

	// Ownership proof token expected in a TXT record
	VerificationToken string `gorm:"type:varchar(64);not null" json:"-"`
	TXTVerified       bool   `gorm:"column:txt_verified;type:tinyint;default:0" json:"txtVerified"`

	// Edge provider linkage, empty unless the domain is registered with a provider
	ProviderDomainID  string            `gorm:"type:varchar(128)" json:"providerDomainId,omitempty"`
	ProviderProjectID string            `gorm:"type:varchar(128)" json:"providerProjectId,omitempty"`
	ProviderConfig    datatypes.JSONMap `gorm:"type:json" json:"providerConfig,omitempty"`

	// DNS probe results
	DNSVerified   bool           `gorm:"column:dns_verified;type:tinyint;default:0" json:"dnsVerified"`
	DNSVerifiedAt *time.Time     `gorm:"column:dns_verified_at" json:"dnsVerifiedAt,omitempty"`
	DNSRecords    datatypes.JSON `gorm:"column:dns_records;type:json" json:"dnsRecords,omitempty"` // snapshot of the last probe

	// TLS probe results
	SSLEnabled     bool       `gorm:"column:ssl_enabled;type:tinyint;default:0" json:"sslEnabled"`
	SSLCertificate string     `gorm:"column:ssl_certificate;type:varchar(255)" json:"sslCertificate,omitempty"` // leaf subject CN
	SSLIssuer      string     `gorm:"column:ssl_issuer;type:varchar(255)" json:"sslIssuer,omitempty"`
	SSLExpiresAt   *time.Time `gorm:"column:ssl_expires_at" json:"sslExpiresAt,omitempty"`

	// Health / retry bookkeeping. CheckCount counts every probe attempt,
	// ErrorCount only failed ones, so check_count >= error_count always.
	LastCheckedAt *time.Time `gorm:"column:last_checked_at" json:"lastCheckedAt,omitempty"`
	NextRetryAt   *time.Time `gorm:"column:next_retry_at" json:"nextRetryAt,omitempty"`
	CheckCount    int        `gorm:"column:check_count;default:0" json:"checkCount"`
	ErrorCount    int        `gorm:"column:error_count;default:0" json:"errorCount"`
	LastError     *string    `gorm:"column:last_error;type:varchar(255)" json:"lastError,omitempty"`

	// Latest health snapshot (online/offline, response time)
	Metadata datatypes.JSONMap `gorm:"type:json" json:"metadata,omitempty"`

	Store *Store `gorm:"foreignKey:StoreID" json:"store,omitempty"`
}

// TableName specifies the table name for StoreDomain model
func (StoreDomain) TableName() string {
	return "store_domains"
}
