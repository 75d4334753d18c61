package auth

import (
	"net/http"

	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/rbac"

	"github.com/gin-gonic/gin"
)

// RequirePermission aborts with 403 unless the caller's role grants p.
// It must run after JWTMiddleware.
func RequirePermission(p rbac.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
			return
		}
		if !rbac.HasPermission(id.Role, p) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden", "permission": p})
			return
		}
		c.Next()
	}
}

// RequireAnyPermission is RequirePermission for a set of alternatives.
func RequireAnyPermission(perms ...rbac.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
			return
		}
		if !rbac.HasAnyPermission(id.Role, perms) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
