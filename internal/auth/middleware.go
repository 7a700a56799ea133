package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/devbook/devbook/internal/apperror"
)

// Context keys for caller data
const (
	ContextKeyPrincipal    = "auth_principal"
	ContextKeyClaims       = "auth_claims"
	ContextKeyTokenInvalid = "auth_token_invalid"
)

// Middleware resolves bearer tokens into a Principal on every request.
// It never rejects a request itself; the Authenticated and AdminOnly guards
// decide per route.
type Middleware struct {
	service *Service
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service) *Middleware {
	return &Middleware{service: service}
}

// Handler returns a Gin middleware handler that identifies the caller.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.Next()
			return
		}

		claims, ok := m.service.Verify(token)
		if !ok {
			c.Set(ContextKeyTokenInvalid, true)
			c.Next()
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Set(ContextKeyPrincipal, claims.Principal())
		c.Next()
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. Returns "" when absent or malformed.
func BearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Authenticated rejects requests without a valid token.
func Authenticated() gin.HandlerFunc {
	return guard(RequireAuthenticated)
}

// AdminOnly rejects requests unless the caller is an admin.
func AdminOnly() gin.HandlerFunc {
	return guard(RequireAdmin)
}

func guard(check func(*Principal) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := check(GetPrincipal(c))
		if err == nil {
			c.Next()
			return
		}

		message := err.Error()
		if apperror.Is(err, apperror.KindAuth) && c.GetBool(ContextKeyTokenInvalid) {
			message = "invalid token"
		}
		c.AbortWithStatusJSON(apperror.KindOf(err).HTTPStatus(), gin.H{"message": message})
	}
}

// GetPrincipal returns the authenticated caller, or nil.
func GetPrincipal(c *gin.Context) *Principal {
	if v, ok := c.Get(ContextKeyPrincipal); ok {
		if p, ok := v.(*Principal); ok {
			return p
		}
	}
	return nil
}

// GetClaims returns the verified token claims, or nil.
func GetClaims(c *gin.Context) *Claims {
	if v, ok := c.Get(ContextKeyClaims); ok {
		if claims, ok := v.(*Claims); ok {
			return claims
		}
	}
	return nil
}

// GetUserID returns the authenticated user's ID, or 0 for anonymous callers.
func GetUserID(c *gin.Context) uint {
	if p := GetPrincipal(c); p != nil {
		return p.ID
	}
	return 0
}
