package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nurpe/proposals/internal/auth"
	"github.com/nurpe/proposals/internal/model"
)

const principalKey = "principal"

type TokenParser interface {
	Parse(token, purpose string) (*auth.Claims, error)
}

type RoleResolver interface {
	ResolveRole(ctx context.Context, identityID uuid.UUID) (model.Role, error)
}

// Auth requires a bearer access token and attaches the caller, with the role
// resolved for this request, to the context.
func Auth(parser TokenParser, roles RoleResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		claims, err := parser.Parse(strings.TrimSpace(token), auth.PurposeAccess)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		role, err := roles.ResolveRole(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.Set(principalKey, model.Principal{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   role,
		})
		c.Next()
	}
}

func MustPrincipal(c *gin.Context) (model.Principal, bool) {
	value, ok := c.Get(principalKey)
	if !ok {
		return model.Principal{}, false
	}
	principal, ok := value.(model.Principal)
	return principal, ok
}
