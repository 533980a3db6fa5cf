package registry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go_storefront/internal/domainutil"
	"go_storefront/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CreateDomainInput is the input for CreateDomain
type CreateDomainInput struct {
	TenantID  string
	StoreID   int
	Domain    string
	IsPrimary bool

	// RegisterWithProvider requests provider-side registration at create
	// time. Ignored when no provider is configured.
	RegisterWithProvider bool
	ProviderProjectID    string
}

// CreateDomain registers a custom hostname for a store in PENDING state
// and generates its verification token. The hostname is unique per
// tenant; a duplicate fails with ErrDuplicateDomain.
func (s *Service) CreateDomain(ctx context.Context, input CreateDomainInput) (*model.StoreDomain, error) {
	hostname, err := domainutil.Normalize(input.Domain)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHostname, err)
	}
	// Bare public suffixes ("co.uk") normalize fine but nobody owns them
	if _, err := domainutil.EffectiveApex(hostname); err != nil {
		return nil, fmt.Errorf("%w: %s has no registrable apex", ErrInvalidHostname, hostname)
	}

	store, err := s.GetStore(ctx, input.StoreID, input.TenantID)
	if err != nil {
		return nil, err
	}

	domain := &model.StoreDomain{
		TenantID:          store.TenantID,
		StoreID:           store.ID,
		Domain:            hostname,
		IsPrimary:         input.IsPrimary,
		Status:            model.DomainStatusPending,
		VerificationToken: "storefront-verify=" + uuid.NewString(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if input.IsPrimary {
			if err := tx.Model(&model.StoreDomain{}).
				Where("store_id = ? AND is_primary = ?", store.ID, true).
				Update("is_primary", false).Error; err != nil {
				return fmt.Errorf("failed to unset previous primary: %w", err)
			}
		}
		if err := tx.Create(domain).Error; err != nil {
			if isDuplicateKeyError(err) {
				return fmt.Errorf("%q: %w", hostname, ErrDuplicateDomain)
			}
			return fmt.Errorf("failed to create domain: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Provider registration is best-effort: a provider outage must not
	// block domain creation, verification will surface the gap.
	if input.RegisterWithProvider {
		result := s.provider.AddDomain(ctx, hostname, input.ProviderProjectID)
		if result.Success {
			providerConfig := datatypes.JSONMap{
				"provider":     s.provider.Name(),
				"registeredAt": time.Now().Format(time.RFC3339),
			}
			updates := map[string]interface{}{
				"provider_domain_id":  result.ProviderDomainID,
				"provider_project_id": input.ProviderProjectID,
				"provider_config":     providerConfig,
			}
			if err := s.db.WithContext(ctx).Model(domain).Updates(updates).Error; err != nil {
				return nil, fmt.Errorf("failed to store provider linkage: %w", err)
			}
			domain.ProviderDomainID = result.ProviderDomainID
			domain.ProviderProjectID = input.ProviderProjectID
			domain.ProviderConfig = providerConfig
		} else {
			log.Printf("[Registry] provider registration skipped for %s: %s", hostname, result.Error)
		}
	}

	return domain, nil
}

// GetDomain loads a domain scoped by tenant
func (s *Service) GetDomain(ctx context.Context, domainID int, tenantID string) (*model.StoreDomain, error) {
	var domain model.StoreDomain
	err := s.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", domainID, tenantID).
		First(&domain).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load domain: %w", err)
	}
	return &domain, nil
}

// ListDomainsParams filters ListDomains
type ListDomainsParams struct {
	TenantID  string
	StoreID   *int
	Status    string
	IsPrimary *bool
	Page      int
	PageSize  int
}

// ListDomains returns domains for a tenant, newest first
func (s *Service) ListDomains(ctx context.Context, params ListDomainsParams) ([]model.StoreDomain, int64, error) {
	page, pageSize := normalizePage(params.Page, params.PageSize)

	query := s.db.WithContext(ctx).Model(&model.StoreDomain{}).
		Where("tenant_id = ?", params.TenantID)

	if params.StoreID != nil {
		query = query.Where("store_id = ?", *params.StoreID)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.IsPrimary != nil {
		query = query.Where("is_primary = ?", *params.IsPrimary)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count domains: %w", err)
	}

	var domains []model.StoreDomain
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&domains).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list domains: %w", err)
	}

	return domains, total, nil
}

// DeleteDomain removes a domain, attempting provider-side removal first
func (s *Service) DeleteDomain(ctx context.Context, domainID int, tenantID string) error {
	domain, err := s.GetDomain(ctx, domainID, tenantID)
	if err != nil {
		return err
	}

	s.removeFromProvider(ctx, domain)

	if err := s.db.WithContext(ctx).Delete(&model.StoreDomain{}, domain.ID).Error; err != nil {
		return fmt.Errorf("failed to delete domain: %w", err)
	}
	return nil
}

// SetPrimaryDomain marks a domain as the store's primary hostname.
// The previous primary is unset in the same transaction, keeping the
// at-most-one-primary invariant under concurrent calls.
func (s *Service) SetPrimaryDomain(ctx context.Context, domainID int, tenantID string) error {
	domain, err := s.GetDomain(ctx, domainID, tenantID)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.StoreDomain{}).
			Where("store_id = ? AND is_primary = ? AND id <> ?", domain.StoreID, true, domain.ID).
			Update("is_primary", false).Error; err != nil {
			return fmt.Errorf("failed to unset previous primary: %w", err)
		}
		if err := tx.Model(&model.StoreDomain{}).
			Where("id = ?", domain.ID).
			Update("is_primary", true).Error; err != nil {
			return fmt.Errorf("failed to set primary: %w", err)
		}
		return nil
	})
}

// ResolveStoreByDomain is the serve-time lookup used by request routing.
// Only VERIFIED domains resolve; anything else returns ErrNotFound.
func (s *Service) ResolveStoreByDomain(ctx context.Context, hostname string) (*model.Store, *model.StoreDomain, error) {
	normalized, err := domainutil.Normalize(hostname)
	if err != nil {
		return nil, nil, ErrNotFound
	}

	var domain model.StoreDomain
	err = s.db.WithContext(ctx).
		Where("domain = ? AND status = ?", normalized, model.DomainStatusVerified).
		First(&domain).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to resolve domain: %w", err)
	}

	var store model.Store
	if err := s.db.WithContext(ctx).First(&store, domain.StoreID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to load store for domain: %w", err)
	}

	return &store, &domain, nil
}

// verifyingStaleAfter is how long a VERIFYING row is trusted to be an
// in-flight attempt. Every attempt finishes well inside this window, so
// an older VERIFYING row is an orphan from a crashed process and may be
// reclaimed by a new attempt.
const verifyingStaleAfter = 10 * time.Minute

// BeginVerification transitions a domain into VERIFYING, incrementing
// check_count and stamping last_checked_at in the same write. The guard
// on the current status makes concurrent attempts lose the race: exactly
// one caller proceeds, the rest get ErrVerificationInFlight. Stale
// VERIFYING rows are reclaimed instead of blocking forever.
func (s *Service) BeginVerification(ctx context.Context, domainID int, tenantID string) (*model.StoreDomain, error) {
	domain, err := s.GetDomain(ctx, domainID, tenantID)
	if err != nil {
		return nil, err
	}

	result := s.db.WithContext(ctx).Model(&model.StoreDomain{}).
		Where("id = ? AND (status <> ? OR last_checked_at < ?)",
			domain.ID, model.DomainStatusVerifying, time.Now().Add(-verifyingStaleAfter)).
		Updates(map[string]interface{}{
			"status":          model.DomainStatusVerifying,
			"check_count":     gorm.Expr("check_count + 1"),
			"last_checked_at": time.Now(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to begin verification: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrVerificationInFlight
	}

	// Re-read so the engine sees the post-transition counters
	return s.GetDomain(ctx, domainID, tenantID)
}

// VerificationOutcome is the buffered result of one verification attempt,
// flushed to the registry in a single atomic write.
type VerificationOutcome struct {
	Success bool

	DNSVerified bool
	TXTVerified bool
	DNSRecords  datatypes.JSON

	SSLEnabled     bool
	SSLCertificate string
	SSLIssuer      string
	SSLExpiresAt   *time.Time

	LastError   string // empty on success
	NextRetryAt *time.Time
}

// FinishVerification writes the terminal state of an attempt. Exactly one
// write: a reader never observes a record mixing old and new probe data.
func (s *Service) FinishVerification(ctx context.Context, domainID int, outcome VerificationOutcome) error {
	updates := map[string]interface{}{
		"dns_verified":    outcome.DNSVerified,
		"txt_verified":    outcome.TXTVerified,
		"ssl_enabled":     outcome.SSLEnabled,
		"ssl_certificate": outcome.SSLCertificate,
		"ssl_issuer":      outcome.SSLIssuer,
		"ssl_expires_at":  outcome.SSLExpiresAt,
	}

	if len(outcome.DNSRecords) > 0 {
		updates["dns_records"] = outcome.DNSRecords
	}

	if outcome.Success {
		updates["status"] = model.DomainStatusVerified
		updates["dns_verified_at"] = time.Now()
		updates["last_error"] = nil
		updates["next_retry_at"] = nil
	} else {
		updates["status"] = model.DomainStatusFailed
		updates["error_count"] = gorm.Expr("error_count + 1")
		updates["last_error"] = truncateError(outcome.LastError)
		updates["next_retry_at"] = outcome.NextRetryAt
		if outcome.DNSVerified {
			updates["dns_verified_at"] = time.Now()
		}
	}

	result := s.db.WithContext(ctx).Model(&model.StoreDomain{}).
		Where("id = ?", domainID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to finish verification: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// HealthSnapshot is one health-monitor reading for a verified domain
type HealthSnapshot struct {
	Online     bool       `json:"online"`
	LatencyMS  int64      `json:"latencyMs"`
	StatusCode int        `json:"statusCode,omitempty"`
	SSLValid   bool       `json:"sslValid"`
	SSLExpires *time.Time `json:"sslExpires,omitempty"`
	DNSValid   bool       `json:"dnsValid"`
	CheckedAt  time.Time  `json:"checkedAt"`
	Error      string     `json:"error,omitempty"`
}

// ApplyHealthSnapshot persists a health reading. check_count always
// increments; error_count only when the domain was offline.
func (s *Service) ApplyHealthSnapshot(ctx context.Context, domainID int, tenantID string, snapshot HealthSnapshot) error {
	if _, err := s.GetDomain(ctx, domainID, tenantID); err != nil {
		return err
	}

	metadata := map[string]interface{}{
		"online":     snapshot.Online,
		"latencyMs":  snapshot.LatencyMS,
		"sslValid":   snapshot.SSLValid,
		"dnsValid":   snapshot.DNSValid,
		"checkedAt":  snapshot.CheckedAt.Format(time.RFC3339),
		"statusCode": snapshot.StatusCode,
	}

	updates := map[string]interface{}{
		"metadata":        datatypes.JSONMap(metadata),
		"last_checked_at": snapshot.CheckedAt,
		"check_count":     gorm.Expr("check_count + 1"),
		"ssl_enabled":     snapshot.SSLValid,
	}
	if snapshot.SSLExpires != nil {
		updates["ssl_expires_at"] = snapshot.SSLExpires
	}

	if snapshot.Online {
		updates["last_error"] = nil
	} else {
		updates["error_count"] = gorm.Expr("error_count + 1")
		updates["last_error"] = truncateError(snapshot.Error)
	}

	if err := s.db.WithContext(ctx).Model(&model.StoreDomain{}).
		Where("id = ?", domainID).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to apply health snapshot: %w", err)
	}
	return nil
}

// ListDueForVerification returns domains the queue worker should attempt:
// PENDING ones, FAILED ones whose backoff window has elapsed, and
// VERIFYING orphans past the stale window.
func (s *Service) ListDueForVerification(ctx context.Context, limit int) ([]model.StoreDomain, error) {
	var domains []model.StoreDomain
	err := s.db.WithContext(ctx).
		Where("status = ?", model.DomainStatusPending).
		Or(s.db.Where("status = ?", model.DomainStatusFailed).
			Where("next_retry_at IS NOT NULL AND next_retry_at <= ?", time.Now())).
		Or(s.db.Where("status = ?", model.DomainStatusVerifying).
			Where("last_checked_at < ?", time.Now().Add(-verifyingStaleAfter))).
		Order("created_at ASC").
		Limit(limit).
		Find(&domains).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due domains: %w", err)
	}
	return domains, nil
}

// ListVerifiedDomains returns all VERIFIED domains for the health monitor
func (s *Service) ListVerifiedDomains(ctx context.Context) ([]model.StoreDomain, error) {
	var domains []model.StoreDomain
	err := s.db.WithContext(ctx).
		Where("status = ?", model.DomainStatusVerified).
		Find(&domains).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list verified domains: %w", err)
	}
	return domains, nil
}

// truncateError fits an error message into the last_error column
func truncateError(msg string) interface{} {
	if msg == "" {
		return nil
	}
	if len(msg) > 255 {
		msg = msg[:252] + "..."
	}
	return msg
}
