package domains

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go_storefront/api/v1/middleware"
	"go_storefront/internal/acme"
	"go_storefront/internal/analytics"
	"go_storefront/internal/edge"
	"go_storefront/internal/health"
	"go_storefront/internal/httpx"
	"go_storefront/internal/model"
	"go_storefront/internal/registry"
	"go_storefront/internal/verify"

	"github.com/gin-gonic/gin"
)

// providerStatusTimeout bounds the on-demand provider status query
const providerStatusTimeout = 10 * time.Second

// Handler handles custom domain management requests
type Handler struct {
	registry  *registry.Service
	engine    *verify.Engine
	checker   *health.Checker
	analytics *analytics.Service
	provider  edge.Provider
	acme      *acme.Service // nil when auto-TLS is disabled
}

// NewHandler creates a domains handler
func NewHandler(reg *registry.Service, engine *verify.Engine, checker *health.Checker, analytics *analytics.Service, provider edge.Provider, acmeService *acme.Service) *Handler {
	return &Handler{
		registry:  reg,
		engine:    engine,
		checker:   checker,
		analytics: analytics,
		provider:  provider,
		acme:      acmeService,
	}
}

// CreateRequest represents the create domain request body
type CreateRequest struct {
	StoreID              int    `json:"storeId" binding:"required"`
	Domain               string `json:"domain" binding:"required"`
	IsPrimary            bool   `json:"isPrimary"`
	RegisterWithProvider bool   `json:"registerWithProvider"`
	ProviderProjectID    string `json:"providerProjectId"`
}

// Create handles POST /domains/create
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	domain, err := h.registry.CreateDomain(c.Request.Context(), registry.CreateDomainInput{
		TenantID:             middleware.TenantID(c),
		StoreID:              req.StoreID,
		Domain:               req.Domain,
		IsPrimary:            req.IsPrimary,
		RegisterWithProvider: req.RegisterWithProvider,
		ProviderProjectID:    req.ProviderProjectID,
	})
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrInvalidHostname):
			httpx.FailErr(c, httpx.ErrValidation(err.Error(), nil))
		case errors.Is(err, registry.ErrDuplicateDomain):
			httpx.FailErr(c, httpx.ErrAlreadyExists("domain already exists"))
		case errors.Is(err, registry.ErrNotFound):
			httpx.FailErr(c, httpx.ErrNotFound("store not found"))
		default:
			httpx.FailErr(c, httpx.ErrDatabase(err))
		}
		return
	}

	// The token the tenant must publish in a TXT record is only shown
	// at create time
	httpx.OK(c, gin.H{
		"domain":            domain,
		"verificationToken": domain.VerificationToken,
	})
}

// List handles GET /domains
func (h *Handler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	params := registry.ListDomainsParams{
		TenantID: middleware.TenantID(c),
		Status:   c.Query("status"),
		Page:     page,
		PageSize: pageSize,
	}
	if storeID, err := strconv.Atoi(c.Query("storeId")); err == nil && storeID > 0 {
		params.StoreID = &storeID
	}
	if isPrimary := c.Query("isPrimary"); isPrimary != "" {
		v := isPrimary == "1" || isPrimary == "true"
		params.IsPrimary = &v
	}

	domains, total, err := h.registry.ListDomains(c.Request.Context(), params)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabase(err))
		return
	}

	httpx.OKItems(c, domains, total, page, pageSize)
}

// Detail handles GET /domains/detail?id=
func (h *Handler) Detail(c *gin.Context) {
	domain, ok := h.loadDomain(c, c.Query("id"))
	if !ok {
		return
	}

	httpx.OK(c, domain)
}

// DeleteRequest represents the delete domain request body
type DeleteRequest struct {
	ID int `json:"id" binding:"required"`
}

// Delete handles POST /domains/delete
func (h *Handler) Delete(c *gin.Context) {
	var req DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	if err := h.registry.DeleteDomain(c.Request.Context(), req.ID, middleware.TenantID(c)); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("domain not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabase(err))
		return
	}

	httpx.OKMsg(c, "domain deleted", nil)
}

// VerifyRequest represents the verify domain request body
type VerifyRequest struct {
	ID int `json:"id" binding:"required"`
}

// Verify handles POST /domains/verify. Runs a full verification attempt
// synchronously and returns the probe results.
func (h *Handler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	result, err := h.engine.Verify(c.Request.Context(), req.ID, middleware.TenantID(c))
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrNotFound):
			httpx.FailErr(c, httpx.ErrNotFound("domain not found"))
		case errors.Is(err, registry.ErrVerificationInFlight):
			httpx.FailErr(c, httpx.ErrStateConflict("verification already in progress"))
		default:
			httpx.FailErr(c, httpx.ErrInternal("verification failed", err))
		}
		return
	}

	httpx.OK(c, result)
}

// SetPrimaryRequest represents the set primary request body
type SetPrimaryRequest struct {
	ID int `json:"id" binding:"required"`
}

// SetPrimary handles POST /domains/set-primary
func (h *Handler) SetPrimary(c *gin.Context) {
	var req SetPrimaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	if err := h.registry.SetPrimaryDomain(c.Request.Context(), req.ID, middleware.TenantID(c)); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("domain not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabase(err))
		return
	}

	httpx.OKMsg(c, "primary domain updated", nil)
}

// HealthCheckRequest represents the health check request body
type HealthCheckRequest struct {
	ID int `json:"id" binding:"required"`
}

// HealthCheck handles POST /domains/health-check. Runs an on-demand
// composite health check for a verified domain.
func (h *Handler) HealthCheck(c *gin.Context) {
	var req HealthCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	tenantID := middleware.TenantID(c)
	domain, err := h.registry.GetDomain(c.Request.Context(), req.ID, tenantID)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("domain not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabase(err))
		return
	}

	if domain.Status != model.DomainStatusVerified {
		httpx.FailErr(c, httpx.ErrStateConflict("domain is not verified"))
		return
	}

	snapshot := h.checker.Check(c.Request.Context(), domain.Domain)
	if err := h.registry.ApplyHealthSnapshot(c.Request.Context(), domain.ID, tenantID, snapshot); err != nil {
		httpx.FailErr(c, httpx.ErrDatabase(err))
		return
	}

	httpx.OK(c, snapshot)
}

// Stats handles GET /domains/stats
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.analytics.GetDomainStats(c.Request.Context(), middleware.TenantID(c))
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabase(err))
		return
	}

	httpx.OK(c, stats)
}

// Certificate handles GET /domains/certificate?id=
func (h *Handler) Certificate(c *gin.Context) {
	if h.acme == nil {
		httpx.FailErr(c, httpx.ErrStateConflict("auto-TLS is not enabled"))
		return
	}

	domain, ok := h.loadDomain(c, c.Query("id"))
	if !ok {
		return
	}

	cert, err := h.acme.GetByDomain(c.Request.Context(), domain.ID)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabase(err))
		return
	}
	if cert == nil {
		httpx.FailErr(c, httpx.ErrNotFound("no certificate for domain"))
		return
	}

	httpx.OK(c, cert)
}

// Resolve handles GET /domains/resolve?domain=. Serve-time lookup:
// only VERIFIED domains resolve to a store.
func (h *Handler) Resolve(c *gin.Context) {
	hostname := c.Query("domain")
	if hostname == "" {
		httpx.FailErr(c, httpx.ErrParamMissing("parameter 'domain' is required"))
		return
	}

	store, domain, err := h.registry.ResolveStoreByDomain(c.Request.Context(), hostname)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("domain not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabase(err))
		return
	}

	httpx.OK(c, gin.H{
		"store":  store,
		"domain": domain,
	})
}

// ProviderStatus handles GET /domains/provider-status?id=. Surfaces the
// edge provider's propagation status for a registered domain on demand.
func (h *Handler) ProviderStatus(c *gin.Context) {
	domain, ok := h.loadDomain(c, c.Query("id"))
	if !ok {
		return
	}

	if domain.ProviderDomainID == "" {
		httpx.FailErr(c, httpx.ErrStateConflict("domain is not registered with the edge provider"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), providerStatusTimeout)
	defer cancel()

	result := h.provider.GetDomainStatus(ctx, domain.ProviderDomainID)
	if appErr := providerStatusError(ctx.Err(), h.provider.Configured(), result); appErr != nil {
		httpx.FailErr(c, appErr)
		return
	}

	httpx.OK(c, gin.H{
		"providerDomainId": domain.ProviderDomainID,
		"status":           result.Status,
	})
}

// providerStatusError maps a provider status call onto the error
// taxonomy: a blown budget is a recoverable probe timeout, everything
// else is a provider-side failure.
func providerStatusError(ctxErr error, configured bool, result edge.StatusResult) *httpx.AppError {
	if result.Success {
		return nil
	}
	if !configured {
		return httpx.ErrProviderUnavailable("edge provider is not configured", nil)
	}
	if errors.Is(ctxErr, context.DeadlineExceeded) {
		return httpx.ErrProbeTimeout("provider status query timed out", ctxErr)
	}
	return httpx.ErrProviderUnavailable(result.Error, nil)
}

// loadDomain parses the id param and loads the tenant's domain
func (h *Handler) loadDomain(c *gin.Context, rawID string) (*model.StoreDomain, bool) {
	id, err := strconv.Atoi(rawID)
	if err != nil || id <= 0 {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid domain id"))
		return nil, false
	}

	domain, err := h.registry.GetDomain(c.Request.Context(), id, middleware.TenantID(c))
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("domain not found"))
			return nil, false
		}
		httpx.FailErr(c, httpx.ErrDatabase(err))
		return nil, false
	}

	return domain, true
}
