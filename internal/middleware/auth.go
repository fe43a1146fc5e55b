package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/meridianlabs/clinic-api/internal/model"
	"github.com/meridianlabs/clinic-api/internal/service/auth"
	apperrors "github.com/meridianlabs/clinic-api/pkg/errors"
	"github.com/meridianlabs/clinic-api/pkg/httputil"
)

const (
	// ContextToken holds the raw bearer token for handlers that resolve
	// the caller themselves.
	ContextToken = "auth_token"
	// ContextIdentifier holds the verified token subject.
	ContextIdentifier = "auth_identifier"
)

type AuthMiddleware struct {
	authService *auth.Service
}

func NewAuthMiddleware(authService *auth.Service) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// Authenticate verifies the bearer token and stores it with its subject
// in the request context. Role checks are a separate concern; see
// RequireRole.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			httputil.RespondWithError(c, apperrors.Unauthorized("missing or malformed authorization header"))
			c.Abort()
			return
		}

		identifier, err := m.authService.Identifier(token)
		if err != nil {
			httputil.RespondWithError(c, apperrors.Unauthorized("invalid or expired token"))
			c.Abort()
			return
		}

		c.Set(ContextToken, token)
		c.Set(ContextIdentifier, identifier)
		c.Next()
	}
}

// RequireRole checks that the authenticated caller holds the given role.
// The token carries no role claim; the check is a live account lookup.
func (m *AuthMiddleware) RequireRole(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetString(ContextToken)
		if err := m.authService.Authorize(c.Request.Context(), token, role); err != nil {
			httputil.RespondWithError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// TokenFromContext returns the bearer token stored by Authenticate.
func TokenFromContext(c *gin.Context) string {
	return c.GetString(ContextToken)
}

// IdentifierFromContext returns the verified token subject stored by
// Authenticate.
func IdentifierFromContext(c *gin.Context) string {
	return c.GetString(ContextIdentifier)
}
