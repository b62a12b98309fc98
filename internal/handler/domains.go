package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pagecrest/domains/internal/tenant"
	"go.uber.org/zap"
)

// DomainHandler handles the dashboard-facing domain lifecycle endpoints.
type DomainHandler struct {
	svc    *tenant.Service
	logger *zap.Logger
}

// NewDomainHandler creates a DomainHandler.
func NewDomainHandler(svc *tenant.Service, logger *zap.Logger) *DomainHandler {
	return &DomainHandler{svc: svc, logger: logger}
}

// Register mounts the domain routes on rg. auth guards the tenant-scoped
// routes; the dry-run validate endpoint is left open to the dashboard.
func (h *DomainHandler) Register(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	rg.POST("/domains/validate", h.ValidateDomain)

	t := rg.Group("/tenants/:id/domain", auth)
	{
		t.POST("", h.ProvisionDomain)
		t.GET("", h.CheckDomain)
		t.DELETE("", h.RemoveDomain)
	}
}

// ValidateDomain handles POST /domains/validate — a pure dry-run check used
// by the dashboard for inline feedback while the user types.
func (h *DomainHandler) ValidateDomain(c *gin.Context) {
	var req struct {
		Domain string `json:"domain"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.svc.ValidateDomain(req.Domain)
	if !result.Valid {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": result.Err})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":    true,
		"hostname": result.Hostname,
		"is_apex":  result.IsApex,
	})
}

// ProvisionDomain handles POST /tenants/:id/domain.
//
// Request body: {"domain": "shop.acme.com"}
//
// Response: the normalized hostname, verification challenges, and the DNS
// records the user must create.
func (h *DomainHandler) ProvisionDomain(c *gin.Context) {
	id, ok := h.tenantID(c)
	if !ok {
		return
	}

	var req struct {
		Domain string `json:"domain" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.svc.ProvisionDomain(c.Request.Context(), id, req.Domain)
	if err != nil {
		var vErr *tenant.ValidationError
		switch {
		case errors.As(err, &vErr):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": vErr.Reason})
		case errors.Is(err, tenant.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "tenant not found"})
		case errors.Is(err, tenant.ErrHostnameTaken):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			h.logger.Error("provision domain", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, result)
}

// CheckDomain handles GET /tenants/:id/domain — one verification pass plus
// the instruction records. Polled by the dashboard until verified.
func (h *DomainHandler) CheckDomain(c *gin.Context) {
	id, ok := h.tenantID(c)
	if !ok {
		return
	}

	status, err := h.svc.CheckDomain(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, tenant.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "tenant not found"})
		case errors.Is(err, tenant.ErrNoDomain):
			c.JSON(http.StatusNotFound, gin.H{"error": "no custom domain attached"})
		default:
			h.logger.Error("check domain", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check domain"})
		}
		return
	}

	c.JSON(http.StatusOK, status)
}

// RemoveDomain handles DELETE /tenants/:id/domain.
func (h *DomainHandler) RemoveDomain(c *gin.Context) {
	id, ok := h.tenantID(c)
	if !ok {
		return
	}

	if err := h.svc.RemoveDomain(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, tenant.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "tenant not found"})
		case errors.Is(err, tenant.ErrNoDomain):
			c.JSON(http.StatusNotFound, gin.H{"error": "no custom domain attached"})
		default:
			h.logger.Error("remove domain", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": true})
}

// tenantID parses and authorizes the :id path parameter. On failure it
// writes the response and returns ok=false.
func (h *DomainHandler) tenantID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tenant ID"})
		return uuid.Nil, false
	}
	if !authorizedFor(c, id.String()) {
		c.JSON(http.StatusForbidden, gin.H{"error": "token not scoped to this tenant"})
		return uuid.Nil, false
	}
	return id, true
}
