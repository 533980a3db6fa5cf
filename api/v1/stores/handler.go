package stores

import (
	"errors"
	"strconv"

	"go_storefront/api/v1/middleware"
	"go_storefront/internal/analytics"
	"go_storefront/internal/httpx"
	"go_storefront/internal/registry"

	"github.com/gin-gonic/gin"
)

// Handler handles store management requests
type Handler struct {
	registry  *registry.Service
	analytics *analytics.Service
}

// NewHandler creates a stores handler
func NewHandler(reg *registry.Service, analytics *analytics.Service) *Handler {
	return &Handler{registry: reg, analytics: analytics}
}

// CreateRequest represents the create store request body
type CreateRequest struct {
	Name      string `json:"name" binding:"required"`
	Slug      string `json:"slug" binding:"required"`
	Published bool   `json:"published"`
}

// Create handles POST /stores/create
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	store, err := h.registry.CreateStore(c.Request.Context(), registry.CreateStoreInput{
		TenantID:  middleware.TenantID(c),
		Name:      req.Name,
		Slug:      req.Slug,
		Published: req.Published,
	})
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrInvalidInput):
			httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		case errors.Is(err, registry.ErrDuplicateSlug):
			httpx.FailErr(c, httpx.ErrAlreadyExists("store slug already exists"))
		default:
			httpx.FailErr(c, httpx.ErrDatabase(err))
		}
		return
	}

	httpx.OK(c, store)
}

// List handles GET /stores
func (h *Handler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	params := registry.ListStoresParams{
		TenantID: middleware.TenantID(c),
		Status:   c.Query("status"),
		Page:     page,
		PageSize: pageSize,
	}
	if published := c.Query("published"); published != "" {
		v := published == "1" || published == "true"
		params.Published = &v
	}

	stores, total, err := h.registry.ListStores(c.Request.Context(), params)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabase(err))
		return
	}

	httpx.OKItems(c, stores, total, page, pageSize)
}

// Detail handles GET /stores/detail?id=
func (h *Handler) Detail(c *gin.Context) {
	id, err := strconv.Atoi(c.Query("id"))
	if err != nil || id <= 0 {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid store id"))
		return
	}

	store, err := h.registry.GetStore(c.Request.Context(), id, middleware.TenantID(c))
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("store not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabase(err))
		return
	}

	httpx.OK(c, store)
}

// DeleteRequest represents the delete store request body
type DeleteRequest struct {
	ID int `json:"id" binding:"required"`
}

// Delete handles POST /stores/delete
func (h *Handler) Delete(c *gin.Context) {
	var req DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	if err := h.registry.DeleteStore(c.Request.Context(), req.ID, middleware.TenantID(c)); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("store not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabase(err))
		return
	}

	httpx.OKMsg(c, "store deleted", nil)
}

// Stats handles GET /stores/stats
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.analytics.GetStoreStats(c.Request.Context(), middleware.TenantID(c))
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabase(err))
		return
	}

	httpx.OK(c, stats)
}
