package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"parking-core/internal/ids"
)

const (
	ctxUserID     = "userId"
	ctxOperatorID = "operatorId"
	ctxRole       = "role"
)

// Authenticate verifies the bearer access token and stashes the session
// claims on the gin context for downstream handlers and Authorize.
func Authenticate(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "authorization header is required"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid token format"})
			return
		}

		claims, err := ids.ParseAccessToken(secret, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid or expired token"})
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxOperatorID, claims.OperatorID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

// RequireRole is a middleware factory restricting a route to a fixed set
// of global roles (the coarse check; §4.F's site-scoped check happens in
// the handler via internal/site.Authorize, which needs the target site id
// from the path/body).
func RequireRole(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ctxRole)
		if !exists {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "role not found in context"})
			return
		}
		roleStr, _ := role.(string)
		for _, r := range allowed {
			if r == roleStr {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "you do not have permission to access this resource"})
	}
}

func UserID(c *gin.Context) string {
	v, _ := c.Get(ctxUserID)
	s, _ := v.(string)
	return s
}

func OperatorID(c *gin.Context) string {
	v, _ := c.Get(ctxOperatorID)
	s, _ := v.(string)
	return s
}

func Role(c *gin.Context) string {
	v, _ := c.Get(ctxRole)
	s, _ := v.(string)
	return s
}
