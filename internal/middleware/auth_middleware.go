package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"shortly-go/internal/apperrors"
	"shortly-go/internal/auth"
	"shortly-go/internal/model"
)

const principalKey = "principal"

// PrincipalMiddleware resolves the bearer credential once per request
// into a single principal (or none). Providers are tried in order; the
// first that recognizes the credential decides the outcome. A request
// without a credential proceeds anonymously — route-level RequireAuth
// enforces protection.
func PrincipalMiddleware(providers ...auth.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential := bearerCredential(c.GetHeader("Authorization"))
		if credential == "" {
			c.Next()
			return
		}

		for _, provider := range providers {
			user, err := provider.Authenticate(credential)
			if err != nil {
				_ = c.Error(err)
				c.Abort()
				return
			}
			if user != nil {
				c.Set(principalKey, user)
				c.Next()
				return
			}
		}

		_ = c.Error(apperrors.UnauthenticatedError("error.invalid_api_key"))
		c.Abort()
	}
}

// RequireAuth rejects requests that resolved to no principal.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			_ = c.Error(apperrors.UnauthenticatedError("Authorization required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the resolved principal, or nil for anonymous.
func CurrentUser(c *gin.Context) *model.User {
	v, exists := c.Get(principalKey)
	if !exists {
		return nil
	}
	user, ok := v.(*model.User)
	if !ok {
		return nil
	}
	return user
}

func bearerCredential(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
