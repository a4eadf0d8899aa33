package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"userhub/internal/blacklist"
	"userhub/internal/httpx"
	"userhub/internal/models"
	"userhub/internal/repository"
	"userhub/internal/security"
)

const (
	ContextUserKey   = "current_user"
	ContextClaimsKey = "access_claims"
	ContextTokenKey  = "access_token"
)

// UserLoader is the slice of the user store the auth gate needs.
type UserLoader interface {
	GetByID(ctx context.Context, id int64) (models.User, error)
}

// Auth is the single authorization gate for protected routes. The check
// order is part of the contract: header, decode, token type, blacklist, user
// load, version, fingerprint. Role enforcement composes after it via
// RequireRoles.
func Auth(codec *security.TokenCodec, users UserLoader, revoked *blacklist.Blacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httpx.AbortError(c, http.StatusUnauthorized, httpx.CodeMissingAuthHeader, "Missing or invalid Authorization header")
			return
		}
		tokenStr := parts[1]

		claims, err := codec.Parse(tokenStr)
		if err != nil {
			code := httpx.CodeTokenInvalid
			switch {
			case errors.Is(err, security.ErrTokenExpired):
				code = httpx.CodeTokenExpired
			case errors.Is(err, security.ErrTokenSignatureInvalid):
				code = httpx.CodeTokenInvalidSignature
			}
			httpx.AbortError(c, http.StatusUnauthorized, code, "Invalid token")
			return
		}

		if claims.TokenType != security.TokenTypeAccess {
			httpx.AbortError(c, http.StatusUnauthorized, httpx.CodeTokenWrongType, "Access token required")
			return
		}

		if revoked.Contains(c.Request.Context(), claims.ID) {
			httpx.AbortError(c, http.StatusUnauthorized, httpx.CodeTokenRevoked, "Token has been revoked")
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			httpx.AbortError(c, http.StatusUnauthorized, httpx.CodeTokenInvalid, "Invalid token")
			return
		}

		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				httpx.AbortError(c, http.StatusNotFound, httpx.CodeUserNotFound, "User not found")
				return
			}
			httpx.AbortError(c, http.StatusInternalServerError, httpx.CodeInternalError, "Unexpected server error")
			return
		}

		if claims.Version != user.TokenVersion {
			httpx.AbortError(c, http.StatusUnauthorized, httpx.CodeTokenRevoked, "Token has been revoked")
			return
		}

		// Best-effort client binding: an empty claim skips the check.
		if claims.Fingerprint != "" {
			current := security.Fingerprint(c.ClientIP(), c.GetHeader("User-Agent"))
			if claims.Fingerprint != current {
				httpx.AbortError(c, http.StatusUnauthorized, httpx.CodeTokenContextMismatch, "Token context mismatch")
				return
			}
		}

		c.Set(ContextTokenKey, tokenStr)
		c.Set(ContextClaimsKey, claims)
		c.Set(ContextUserKey, user)

		c.Next()
	}
}

func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			httpx.AbortError(c, http.StatusUnauthorized, httpx.CodeMissingAuthHeader, "Authentication required")
			return
		}

		if _, ok := roleSet[user.Role]; !ok {
			httpx.AbortError(c, http.StatusForbidden, httpx.CodeForbidden, "Not allowed")
			return
		}

		c.Next()
	}
}

func CurrentUser(c *gin.Context) (models.User, bool) {
	val, exists := c.Get(ContextUserKey)
	if !exists {
		return models.User{}, false
	}
	user, ok := val.(models.User)
	return user, ok
}

func CurrentClaims(c *gin.Context) (*security.Claims, bool) {
	val, exists := c.Get(ContextClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := val.(*security.Claims)
	return claims, ok
}
