// Package handler exposes the custom-domain service over HTTP with gin.
package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys set by Auth.
const (
	ctxSubject = "auth_subject"
	ctxAdmin   = "auth_admin"
)

// Auth returns a middleware that validates the dashboard's HS256 bearer
// token. The subject claim carries the tenant ID the token is scoped to;
// a "scope":"admin" claim bypasses per-tenant checks.
func Auth(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		raw := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if raw == "" || raw == c.GetHeader("Authorization") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return key, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
			return
		}

		subject, _ := claims.GetSubject()
		scope, _ := claims["scope"].(string)
		c.Set(ctxSubject, subject)
		c.Set(ctxAdmin, scope == "admin")
		c.Next()
	}
}

// authorizedFor reports whether the request's token may act on tenantID.
func authorizedFor(c *gin.Context, tenantID string) bool {
	if c.GetBool(ctxAdmin) {
		return true
	}
	return c.GetString(ctxSubject) == tenantID
}
