// Package registry is the data layer owning Store and StoreDomain
// entities. All mutation of domain verification/health state goes through
// this package so the single-atomic-write discipline has one home.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"go_storefront/internal/edge"
	"go_storefront/internal/model"

	"gorm.io/gorm"
)

// Service provides registry operations over the persistent store
type Service struct {
	db       *gorm.DB
	provider edge.Provider
	locks    *DomainLocks
}

// NewService creates a registry service
func NewService(db *gorm.DB, provider edge.Provider) *Service {
	return &Service{
		db:       db,
		provider: provider,
		locks:    NewDomainLocks(),
	}
}

// DB returns the underlying database handle
func (s *Service) DB() *gorm.DB {
	return s.db
}

// Locks returns the per-domain lock set shared by engine and monitor
func (s *Service) Locks() *DomainLocks {
	return s.locks
}

// Provider returns the configured edge provider
func (s *Service) Provider() edge.Provider {
	return s.provider
}

// CreateStoreInput is the input for CreateStore
type CreateStoreInput struct {
	TenantID  string
	Name      string
	Slug      string
	Published bool
}

// CreateStore creates a storefront for a tenant
func (s *Service) CreateStore(ctx context.Context, input CreateStoreInput) (*model.Store, error) {
	if input.TenantID == "" || input.Name == "" || input.Slug == "" {
		return nil, fmt.Errorf("%w: tenant, name, and slug are required", ErrInvalidInput)
	}

	store := &model.Store{
		TenantID:  input.TenantID,
		Name:      input.Name,
		Slug:      input.Slug,
		Published: input.Published,
		Status:    model.StoreStatusActive,
	}

	if err := s.db.WithContext(ctx).Create(store).Error; err != nil {
		if isDuplicateKeyError(err) {
			return nil, fmt.Errorf("slug %q: %w", input.Slug, ErrDuplicateSlug)
		}
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	return store, nil
}

// GetStore loads a store scoped by tenant
func (s *Service) GetStore(ctx context.Context, storeID int, tenantID string) (*model.Store, error) {
	var store model.Store
	err := s.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", storeID, tenantID).
		First(&store).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load store: %w", err)
	}
	return &store, nil
}

// ListStoresParams filters ListStores
type ListStoresParams struct {
	TenantID  string
	Status    string
	Published *bool
	Page      int
	PageSize  int
}

// ListStores returns stores for a tenant, newest first
func (s *Service) ListStores(ctx context.Context, params ListStoresParams) ([]model.Store, int64, error) {
	page, pageSize := normalizePage(params.Page, params.PageSize)

	query := s.db.WithContext(ctx).Model(&model.Store{}).
		Where("tenant_id = ?", params.TenantID)

	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Published != nil {
		query = query.Where("published = ?", *params.Published)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count stores: %w", err)
	}

	var stores []model.Store
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&stores).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list stores: %w", err)
	}

	return stores, total, nil
}

// DeleteStore removes a store and all of its domains. Provider-side
// registrations are removed best-effort before the rows go away.
func (s *Service) DeleteStore(ctx context.Context, storeID int, tenantID string) error {
	store, err := s.GetStore(ctx, storeID, tenantID)
	if err != nil {
		return err
	}

	var domains []model.StoreDomain
	if err := s.db.WithContext(ctx).Where("store_id = ?", store.ID).Find(&domains).Error; err != nil {
		return fmt.Errorf("failed to load store domains: %w", err)
	}

	for _, d := range domains {
		s.removeFromProvider(ctx, &d)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("store_id = ?", store.ID).Delete(&model.StoreDomain{}).Error; err != nil {
			return fmt.Errorf("failed to delete store domains: %w", err)
		}
		if err := tx.Delete(&model.Store{}, store.ID).Error; err != nil {
			return fmt.Errorf("failed to delete store: %w", err)
		}
		return nil
	})
}

// removeFromProvider attempts provider-side removal; failures are logged
// and swallowed since the local delete must proceed regardless.
func (s *Service) removeFromProvider(ctx context.Context, d *model.StoreDomain) {
	if d.ProviderDomainID == "" {
		return
	}
	result := s.provider.RemoveDomain(ctx, d.ProviderDomainID)
	if !result.Success {
		log.Printf("[Registry] provider removal failed for domain %d (%s): %s", d.ID, d.Domain, result.Error)
	}
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

// isDuplicateKeyError detects unique-constraint violations across
// gorm's translated error and the raw MySQL 1062
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "Duplicate entry") || strings.Contains(err.Error(), "1062")
}
