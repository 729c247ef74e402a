// Package services holds the business rules behind the HTTP handlers.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"food-marketplace-api/apperr"
	"food-marketplace-api/cache"
	"food-marketplace-api/metrics"
	"food-marketplace-api/models"
	"food-marketplace-api/store"
	"food-marketplace-api/token"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     models.UserRole
}

// AuthResult is returned by register and login
type AuthResult struct {
	User   *models.User
	Tokens token.Pair
}

type AuthService struct {
	users      store.UserStore
	tokens     *token.Service
	cache      cache.Store
	bcryptCost int
	now        func() time.Time
}

func NewAuthService(users store.UserStore, tokens *token.Service, c cache.Store, bcryptCost int) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{users: users, tokens: tokens, cache: c, bcryptCost: bcryptCost, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and signs the caller in
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, apperr.Validation("name, email and password are required")
	}
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	if !in.Role.Valid() {
		return nil, apperr.Validation("invalid role provided")
	}

	_, err := s.users.FindByEmail(ctx, in.Email)
	if err == nil {
		metrics.AuthEvent("register", false)
		return nil, apperr.Conflict("email already in use")
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Internal("failed to check existing user", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}
	user := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			metrics.AuthEvent("register", false)
			return nil, apperr.Conflict("email already in use")
		}
		return nil, apperr.Internal("failed to create user", err)
	}

	pair, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, apperr.Internal("failed to issue tokens", err)
	}
	metrics.AuthEvent("register", true)
	logrus.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("User registered")
	return &AuthResult{User: user, Tokens: pair}, nil
}

// Login checks credentials, records the login time and issues a token pair
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.Validation("email and password required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		metrics.AuthEvent("login", false)
		return nil, apperr.Unauthenticated("invalid credentials")
	} else if err != nil {
		return nil, apperr.Internal("failed to look up user", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		metrics.AuthEvent("login", false)
		return nil, apperr.Unauthenticated("invalid credentials")
	}

	pair, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, apperr.Internal("failed to issue tokens", err)
	}

	now := s.now()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("Failed to record last login")
	} else {
		user.LastLogin = &now
	}
	metrics.AuthEvent("login", true)
	logrus.WithField("user_id", user.ID).Info("User logged in")
	return &AuthResult{User: user, Tokens: pair}, nil
}

// Refresh exchanges a valid, unrevoked refresh token for a new pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (token.Pair, error) {
	if refreshToken == "" {
		return token.Pair{}, apperr.Unauthenticated("refresh token required")
	}
	claims, err := s.tokens.Verify(refreshToken, token.Refresh)
	if err != nil {
		metrics.AuthEvent("refresh", false)
		return token.Pair{}, apperr.InvalidToken("invalid refresh token", err)
	}

	revoked, err := cache.IsRevoked(ctx, s.cache, claims.ID)
	if err != nil {
		// the denylist is best effort; the signature check above still holds
		logrus.WithError(err).Warn("Failed to check refresh token revocation")
	}
	if revoked {
		metrics.AuthEvent("refresh", false)
		return token.Pair{}, apperr.InvalidToken("invalid refresh token", nil)
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		metrics.AuthEvent("refresh", false)
		return token.Pair{}, apperr.Unauthenticated("invalid refresh token")
	} else if err != nil {
		return token.Pair{}, apperr.Internal("failed to look up user", err)
	}

	pair, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return token.Pair{}, apperr.Internal("failed to issue tokens", err)
	}
	metrics.AuthEvent("refresh", true)
	return pair, nil
}

// Logout revokes the refresh token, if one was supplied and is still valid.
// It never fails: a client is always allowed to drop its session.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}
	claims, err := s.tokens.Verify(refreshToken, token.Refresh)
	if err != nil || claims.ExpiresAt == nil {
		return
	}
	ttl := claims.ExpiresAt.Time.Sub(s.tokens.Now())
	if err := cache.Revoke(ctx, s.cache, claims.ID, ttl); err != nil {
		logrus.WithError(err).WithField("user_id", claims.UserID).Error("Failed to revoke refresh token")
		return
	}
	logrus.WithField("user_id", claims.UserID).Info("User logged out")
}

func (s *AuthService) Me(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("user not found")
	} else if err != nil {
		return nil, apperr.Internal("failed to look up user", err)
	}
	return user, nil
}

// ChangePassword verifies the current password before storing a new hash
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return apperr.Validation("oldPassword and newPassword are required")
	}
	user, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)) != nil {
		return apperr.Forbidden("current password is incorrect")
	}
	if oldPassword == newPassword {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return apperr.Internal("failed to hash password", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, string(hash)); err != nil {
		return apperr.Internal("failed to update password", err)
	}
	logrus.WithField("user_id", userID).Info("Password changed")
	return nil
}

// ListUsers returns all users, or those with the given role
func (s *AuthService) ListUsers(ctx context.Context, role models.UserRole) ([]models.User, error) {
	if role != "" && !role.Valid() {
		return nil, apperr.Validation("invalid role filter")
	}
	users, err := s.users.List(ctx, role)
	if err != nil {
		return nil, apperr.Internal("failed to list users", err)
	}
	return users, nil
}
