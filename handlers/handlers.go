// Package handlers adapts HTTP requests onto the services.
package handlers

import (
	"errors"
	"io"
	"strconv"
	"time"

	"food-marketplace-api/apperr"
	"food-marketplace-api/middleware"
	"food-marketplace-api/services"

	"github.com/gin-gonic/gin"
)

// CookieConfig controls the auth cookies set on login, register and refresh
type CookieConfig struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type Handler struct {
	Auth        *services.AuthService
	Orders      *services.OrderService
	Restaurants *services.RestaurantService
	Cookies     CookieConfig
}

func respondError(c *gin.Context, err error) {
	middleware.AbortWithError(c, err)
}

// bindJSON decodes the body into dst, reporting malformed or unknown-shaped
// input as a validation error
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			respondError(c, apperr.Validation("request body required"))
		} else {
			respondError(c, apperr.Validation("invalid request body: "+err.Error()))
		}
		return false
	}
	return true
}

// bindOptionalJSON is bindJSON for endpoints whose body may be empty
func bindOptionalJSON(c *gin.Context, dst any) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, apperr.Validation("invalid request body: "+err.Error()))
		return false
	}
	return true
}

func parseID(c *gin.Context, raw, name string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		respondError(c, apperr.Validation("invalid "+name))
		return 0, false
	}
	return uint(id), true
}

func optionalID(c *gin.Context, raw, name string) (uint, bool) {
	if raw == "" {
		return 0, true
	}
	return parseID(c, raw, name)
}
