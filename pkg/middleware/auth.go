package middleware

import (
	"context"
	stderrors "errors"
	"strings"

	"communities/messages/pkg/errors"
	"communities/messages/pkg/jwt"
	"communities/messages/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// DefaultCookieName is the cookie the access token is read from
	DefaultCookieName = "access_token"

	userIDKey = "userId"
)

// RevocationChecker reports whether a token id has been revoked
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AuthOptions configures JWTAuthMiddleware
type AuthOptions struct {
	CookieName string
	// Revocations is optional
	Revocations RevocationChecker
}

// JWTAuthMiddleware checks that the request carries a valid JWT and adds the caller to the context.
// The token is taken from the access cookie first, then from the Authorization header.
func JWTAuthMiddleware(jwtService *jwt.Service, log *logger.Logger, opts AuthOptions) gin.HandlerFunc {
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}

	return func(c *gin.Context) {
		token := extractToken(c, opts.CookieName)
		if token == "" {
			c.Error(errors.NewUnauthorizedError("auth_required", "Authentication required"))
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			log.Warn("Invalid JWT token", "error", err.Error())
			code := "invalid_token"
			if stderrors.Is(err, jwt.ErrExpiredToken) {
				code = "token_expired"
			}
			c.Error(errors.NewUnauthorizedError(code, "Invalid or expired token"))
			c.Abort()
			return
		}

		if opts.Revocations != nil && claims.ID != "" {
			revoked, err := opts.Revocations.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				log.LogError(err, "Revocation check failed")
				c.Error(errors.NewServiceUnavailableError("auth_unavailable", "Authentication is temporarily unavailable"))
				c.Abort()
				return
			}
			if revoked {
				c.Error(errors.NewUnauthorizedError("token_revoked", "Token has been revoked"))
				c.Abort()
				return
			}
		}

		userID, err := claims.UserID()
		if err != nil {
			c.Error(errors.NewUnauthorizedError("invalid_token", "Invalid or expired token"))
			c.Abort()
			return
		}

		c.Set(userIDKey, userID)

		c.Next()
	}
}

// UserIDFromContext returns the authenticated caller
func UserIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func extractToken(c *gin.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}

	header := c.GetHeader("Authorization")
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}
