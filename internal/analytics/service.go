// Package analytics computes per-tenant rollups over stores and domains.
// Results are cached in redis with a short TTL since dashboards poll
// them far more often than the underlying rows change.
package analytics

import (
	"context"
	"fmt"
	"time"

	"go_storefront/internal/cache"
	"go_storefront/internal/model"

	"gorm.io/gorm"
)

// DomainStats is the per-tenant domain rollup
type DomainStats struct {
	Total      int64 `json:"total"`
	Verified   int64 `json:"verified"`
	Verifying  int64 `json:"verifying"`
	Pending    int64 `json:"pending"`
	Failed     int64 `json:"failed"`
	SSLEnabled int64 `json:"sslEnabled"`

	// Mean of the latest health latency across online domains, 0 when
	// no domain has a health reading yet
	AvgResponseTimeMS float64 `json:"avgResponseTimeMs"`
}

// StoreStats is the per-tenant store rollup
type StoreStats struct {
	Total     int64 `json:"total"`
	Active    int64 `json:"active"`
	Published int64 `json:"published"`

	// Stores with at least one domain attached, any status
	WithDomains int64 `json:"withDomains"`

	// Mean domains per store, 0 when the tenant has no stores
	AvgDomainsPerStore float64 `json:"avgDomainsPerStore"`
}

// Service computes and caches tenant rollups
type Service struct {
	db       *gorm.DB
	cacheTTL time.Duration
}

// NewService creates an analytics service
func NewService(db *gorm.DB, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &Service{db: db, cacheTTL: cacheTTL}
}

// GetDomainStats returns the tenant's domain rollup, cached
func (s *Service) GetDomainStats(ctx context.Context, tenantID string) (*DomainStats, error) {
	key := fmt.Sprintf("analytics:domains:%s", tenantID)

	var cached DomainStats
	if cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	var domains []model.StoreDomain
	if err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Find(&domains).Error; err != nil {
		return nil, fmt.Errorf("failed to load domains: %w", err)
	}

	stats := aggregateDomainStats(domains)
	cache.SetJSON(ctx, key, stats, s.cacheTTL)

	return &stats, nil
}

// GetStoreStats returns the tenant's store rollup, cached
func (s *Service) GetStoreStats(ctx context.Context, tenantID string) (*StoreStats, error) {
	key := fmt.Sprintf("analytics:stores:%s", tenantID)

	var cached StoreStats
	if cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	stats := StoreStats{}
	base := s.db.WithContext(ctx).Model(&model.Store{}).Where("tenant_id = ?", tenantID)

	if err := base.Session(&gorm.Session{}).Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count stores: %w", err)
	}
	if err := base.Session(&gorm.Session{}).
		Where("status = ?", model.StoreStatusActive).
		Count(&stats.Active).Error; err != nil {
		return nil, fmt.Errorf("failed to count active stores: %w", err)
	}
	if err := base.Session(&gorm.Session{}).
		Where("published = ?", true).
		Count(&stats.Published).Error; err != nil {
		return nil, fmt.Errorf("failed to count published stores: %w", err)
	}

	var totalDomains int64
	if err := s.db.WithContext(ctx).Model(&model.StoreDomain{}).
		Where("tenant_id = ?", tenantID).
		Count(&totalDomains).Error; err != nil {
		return nil, fmt.Errorf("failed to count domains: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&model.StoreDomain{}).
		Where("tenant_id = ?", tenantID).
		Distinct("store_id").
		Count(&stats.WithDomains).Error; err != nil {
		return nil, fmt.Errorf("failed to count stores with domains: %w", err)
	}

	if stats.Total > 0 {
		stats.AvgDomainsPerStore = float64(totalDomains) / float64(stats.Total)
	}

	cache.SetJSON(ctx, key, stats, s.cacheTTL)

	return &stats, nil
}

// aggregateDomainStats folds domain rows into the rollup
func aggregateDomainStats(domains []model.StoreDomain) DomainStats {
	stats := DomainStats{Total: int64(len(domains))}

	var latencySum int64
	var latencyCount int64

	for _, d := range domains {
		switch d.Status {
		case model.DomainStatusVerified:
			stats.Verified++
		case model.DomainStatusVerifying:
			stats.Verifying++
		case model.DomainStatusPending:
			stats.Pending++
		case model.DomainStatusFailed:
			stats.Failed++
		}
		if d.SSLEnabled {
			stats.SSLEnabled++
		}
		if latency, ok := snapshotLatency(d); ok {
			latencySum += latency
			latencyCount++
		}
	}

	if latencyCount > 0 {
		stats.AvgResponseTimeMS = float64(latencySum) / float64(latencyCount)
	}

	return stats
}

// snapshotLatency extracts the latest health latency from the domain's
// metadata snapshot. Offline readings are excluded so one outage does
// not poison the mean.
func snapshotLatency(d model.StoreDomain) (int64, bool) {
	if d.Metadata == nil {
		return 0, false
	}
	online, ok := d.Metadata["online"].(bool)
	if !ok || !online {
		return 0, false
	}
	switch v := d.Metadata["latencyMs"].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	}
	return 0, false
}
