package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pagecrest/domains/internal/resolver"
	"go.uber.org/zap"
)

// ResolveHandler serves the public router's hostname → tenant lookups.
type ResolveHandler struct {
	resolver *resolver.Resolver
	logger   *zap.Logger
}

// NewResolveHandler creates a ResolveHandler.
func NewResolveHandler(r *resolver.Resolver, logger *zap.Logger) *ResolveHandler {
	return &ResolveHandler{resolver: r, logger: logger}
}

// Register mounts the resolve route on rg. The route is public; the edge
// router calls it on every request for an unknown Host header.
func (h *ResolveHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/resolve", h.Resolve)
}

// Resolve handles GET /resolve?hostname=shop.acme.com.
//
// 200 with {slug, tenant_id} when the hostname routes to a tenant, 404 when
// it is known not to, 400 on missing input.
func (h *ResolveHandler) Resolve(c *gin.Context) {
	hostname := c.Query("hostname")
	if hostname == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hostname query parameter is required"})
		return
	}

	mapping, err := h.resolver.Resolve(c.Request.Context(), hostname)
	if err != nil {
		h.logger.Error("resolve hostname",
			zap.String("hostname", hostname),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "resolution failed"})
		return
	}
	if mapping == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "hostname not found"})
		return
	}

	c.JSON(http.StatusOK, mapping)
}
