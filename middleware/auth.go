package middleware

import (
	"errors"
	"strings"

	"food-marketplace-api/apperr"
	"food-marketplace-api/models"
	"food-marketplace-api/store"
	"food-marketplace-api/token"

	"github.com/gin-gonic/gin"
)

const (
	userKey = "user"

	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// bearerToken prefers the access cookie and falls back to the Authorization header
func bearerToken(c *gin.Context) string {
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// Authenticate resolves the access token to a stored user and injects it
// into the context. Expired tokens get 401 so clients know to refresh.
func Authenticate(tokens *token.Service, users store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			AbortWithError(c, apperr.Unauthenticated("access token required"))
			return
		}
		claims, err := tokens.Verify(raw, token.Access)
		if errors.Is(err, token.ErrExpired) {
			AbortWithError(c, apperr.Unauthenticated("access token expired"))
			return
		} else if err != nil {
			AbortWithError(c, apperr.InvalidToken("invalid token", err))
			return
		}

		user, err := users.FindByID(c.Request.Context(), claims.UserID)
		if errors.Is(err, store.ErrNotFound) {
			AbortWithError(c, apperr.Unauthenticated("user not found"))
			return
		} else if err != nil {
			AbortWithError(c, apperr.Internal("failed to load user", err))
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// CurrentUser returns the user set by Authenticate, or nil
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// RoleRequired enforces that caller has one of the allowed roles
func RoleRequired(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			AbortWithError(c, apperr.Unauthenticated("authentication required"))
			return
		}
		for _, r := range roles {
			if user.Role == r {
				c.Next()
				return
			}
		}
		AbortWithError(c, apperr.Forbidden("access denied, required role(s): "+rolesString(roles)))
	}
}

func rolesString(roles []models.UserRole) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}
