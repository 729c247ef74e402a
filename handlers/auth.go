package handlers

import (
	"net/http"

	"food-marketplace-api/middleware"
	"food-marketplace-api/models"
	"food-marketplace-api/services"
	"food-marketplace-api/token"

	"github.com/gin-gonic/gin"
)

type RegisterRequest struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Role     models.UserRole `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// setAuthCookies stores the pair as HttpOnly cookies for web clients.
// Mobile clients use the tokens from the response body instead.
func (h *Handler) setAuthCookies(c *gin.Context, pair token.Pair) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.AccessTokenCookie, pair.AccessToken,
		int(h.Cookies.AccessTTL.Seconds()), "/", "", h.Cookies.Secure, true)
	c.SetCookie(middleware.RefreshTokenCookie, pair.RefreshToken,
		int(h.Cookies.RefreshTTL.Seconds()), "/", "", h.Cookies.Secure, true)
}

func (h *Handler) clearAuthCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", h.Cookies.Secure, true)
	c.SetCookie(middleware.RefreshTokenCookie, "", -1, "/", "", h.Cookies.Secure, true)
}

// Register creates a new user account
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.Auth.Register(c.Request.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	h.setAuthCookies(c, res.Tokens)
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User registered successfully",
		"user":    res.User,
		"tokens":  res.Tokens,
	})
}

// Login authenticates and returns a token pair
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	h.setAuthCookies(c, res.Tokens)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"user":    res.User,
		"tokens":  res.Tokens,
	})
}

// refreshTokenFrom reads the refresh token from the cookie, then the body
func refreshTokenFrom(c *gin.Context) (string, bool) {
	if cookie, err := c.Cookie(middleware.RefreshTokenCookie); err == nil && cookie != "" {
		return cookie, true
	}
	var req RefreshRequest
	if !bindOptionalJSON(c, &req) {
		return "", false
	}
	return req.RefreshToken, true
}

// Refresh exchanges a refresh token for a new pair
func (h *Handler) Refresh(c *gin.Context) {
	raw, ok := refreshTokenFrom(c)
	if !ok {
		return
	}
	pair, err := h.Auth.Refresh(c.Request.Context(), raw)
	if err != nil {
		respondError(c, err)
		return
	}
	h.setAuthCookies(c, pair)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Token refreshed",
		"tokens":  pair,
	})
}

// Logout clears the cookies and revokes the refresh token when one is sent
func (h *Handler) Logout(c *gin.Context) {
	raw, ok := refreshTokenFrom(c)
	if !ok {
		return
	}
	h.Auth.Logout(c.Request.Context(), raw)
	h.clearAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logout successful"})
}

// GetProfile returns the authenticated user
func (h *Handler) GetProfile(c *gin.Context) {
	user, err := h.Auth.Me(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Auth.ChangePassword(c.Request.Context(), middleware.CurrentUser(c).ID, req.OldPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password updated"})
}
