package model

import "time"

// Certificate status constants
const (
	CertificateStatusPending = "pending"
	CertificateStatusIssued  = "issued"
	CertificateStatusError   = "error"
	CertificateStatusExpired = "expired"
)

// DomainCertificate represents an ACME-issued certificate for a verified store domain
type DomainCertificate struct {
	BaseModel
	DomainID int    `gorm:"not null;uniqueIndex" json:"domainId"`
	TenantID string `gorm:"type:varchar(64);not null;index" json:"tenantId"`
	Domain   string `gorm:"type:varchar(255);not null" json:"domain"`
	Status   string `gorm:"type:varchar(20);not null;default:pending" json:"status"` // pending|issued|error|expired

	CertPem  string `gorm:"type:text" json:"-"`
	KeyPem   string `gorm:"type:text" json:"-"`
	IssuerCN string `gorm:"type:varchar(255)" json:"issuerCn,omitempty"`

	NotAfter    *time.Time `gorm:"column:not_after" json:"notAfter,omitempty"`
	RetryCount  int        `gorm:"default:0" json:"retryCount"`
	NextRetryAt *time.Time `gorm:"column:next_retry_at" json:"nextRetryAt,omitempty"`
	LastError   *string    `gorm:"column:last_error;type:varchar(255)" json:"lastError,omitempty"`
}

// TableName specifies the table name for DomainCertificate
func (DomainCertificate) TableName() string {
	return "domain_certificates"
}
