// Package acme issues and renews certificates for verified store domains
// via the ACME HTTP-01 flow. Issuance is decoupled from verification: a
// domain is VERIFIED on DNS+TLS alone, and certificate state lives in its
// own table so an ACME outage never touches domain status.
package acme

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go_storefront/internal/model"

	"gorm.io/gorm"
)

const maxErrorLen = 255

// Service provides certificate bookkeeping over domain_certificates
type Service struct {
	db              *gorm.DB
	maxAttempts     int
	renewBeforeDays int
}

// NewService creates an ACME service
func NewService(db *gorm.DB, maxAttempts, renewBeforeDays int) *Service {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if renewBeforeDays <= 0 {
		renewBeforeDays = 30
	}
	return &Service{db: db, maxAttempts: maxAttempts, renewBeforeDays: renewBeforeDays}
}

// Enqueue requests issuance for a domain. Idempotent: an existing pending
// or issued row is left alone, an errored row is reset for another run.
func (s *Service) Enqueue(ctx context.Context, domain *model.StoreDomain) error {
	var existing model.DomainCertificate
	err := s.db.WithContext(ctx).Where("domain_id = ?", domain.ID).First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			cert := &model.DomainCertificate{
				DomainID: domain.ID,
				TenantID: domain.TenantID,
				Domain:   domain.Domain,
				Status:   model.CertificateStatusPending,
			}
			return s.db.WithContext(ctx).Create(cert).Error
		}
		return fmt.Errorf("failed to load certificate row: %w", err)
	}

	if existing.Status != model.CertificateStatusError {
		return nil
	}

	return s.db.WithContext(ctx).Model(&existing).Updates(map[string]interface{}{
		"status":        model.CertificateStatusPending,
		"retry_count":   0,
		"next_retry_at": nil,
	}).Error
}

// ListDue returns certificate rows ready for an issuance attempt
func (s *Service) ListDue(ctx context.Context, limit int) ([]model.DomainCertificate, error) {
	var certs []model.DomainCertificate
	err := s.db.WithContext(ctx).
		Where("status = ?", model.CertificateStatusPending).
		Where("next_retry_at IS NULL OR next_retry_at <= ?", time.Now()).
		Order("created_at ASC").
		Limit(limit).
		Find(&certs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due certificates: %w", err)
	}
	return certs, nil
}

// MarkRenewals flips issued certificates inside the renewal window back
// to pending so the worker re-issues them.
func (s *Service) MarkRenewals(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(time.Duration(s.renewBeforeDays) * 24 * time.Hour)

	result := s.db.WithContext(ctx).Model(&model.DomainCertificate{}).
		Where("status = ? AND not_after IS NOT NULL AND not_after <= ?", model.CertificateStatusIssued, cutoff).
		Updates(map[string]interface{}{
			"status":        model.CertificateStatusPending,
			"retry_count":   0,
			"next_retry_at": nil,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark renewals: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// MarkIssued stores the obtained certificate
func (s *Service) MarkIssued(ctx context.Context, certID int, certPem, keyPem, issuer string, notAfter time.Time) error {
	return s.db.WithContext(ctx).Model(&model.DomainCertificate{}).
		Where("id = ?", certID).
		Updates(map[string]interface{}{
			"status":        model.CertificateStatusIssued,
			"cert_pem":      certPem,
			"key_pem":       keyPem,
			"issuer_cn":     issuer,
			"not_after":     notAfter,
			"retry_count":   0,
			"next_retry_at": nil,
			"last_error":    nil,
		}).Error
}

// MarkFailed records a failed attempt with exponential backoff; after
// the attempt budget the row parks in error until re-enqueued.
func (s *Service) MarkFailed(ctx context.Context, cert *model.DomainCertificate, attemptErr error) error {
	attempts := cert.RetryCount + 1
	msg := attemptErr.Error()
	if len(msg) > maxErrorLen {
		msg = msg[:maxErrorLen]
	}

	updates := map[string]interface{}{
		"retry_count": attempts,
		"last_error":  msg,
	}

	if attempts >= s.maxAttempts {
		updates["status"] = model.CertificateStatusError
		updates["next_retry_at"] = nil
	} else {
		delay := time.Duration(1<<attempts) * time.Minute
		updates["next_retry_at"] = time.Now().Add(delay)
	}

	return s.db.WithContext(ctx).Model(&model.DomainCertificate{}).
		Where("id = ?", cert.ID).
		Updates(updates).Error
}

// GetByDomain returns the certificate row for a domain, nil when absent
func (s *Service) GetByDomain(ctx context.Context, domainID int) (*model.DomainCertificate, error) {
	var cert model.DomainCertificate
	err := s.db.WithContext(ctx).Where("domain_id = ?", domainID).First(&cert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load certificate: %w", err)
	}
	return &cert, nil
}
