package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fleet-service/internal/auth"
	"fleet-service/internal/model"
)

const (
	claimsContextKey    = "tokenClaims"
	principalContextKey = "principal"
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer"
)

func Auth(tokens *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawHeader := c.GetHeader(authorizationHeader)
		if rawHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header missing"})
			return
		}

		parts := strings.SplitN(rawHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		claims, err := tokens.Parse(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		principal := model.Principal{
			UserID:   claims.UserID,
			Username: claims.Username,
			Role:     claims.Role,
		}

		c.Set(claimsContextKey, claims)
		c.Set(principalContextKey, principal)
		c.Next()
	}
}

// RequireRole gates a route to the given roles. It must run after Auth.
func RequireRole(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := MustPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
			return
		}

		for _, role := range roles {
			if principal.Role == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
	}
}

func MustPrincipal(c *gin.Context) (model.Principal, bool) {
	value, exists := c.Get(principalContextKey)
	if !exists {
		return model.Principal{}, false
	}

	principal, ok := value.(model.Principal)
	if !ok {
		return model.Principal{}, false
	}

	return principal, true
}
