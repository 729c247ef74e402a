// Package token issues and verifies the signed access/refresh token pair.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"food-marketplace-api/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Kind selects which secret and lifetime a token uses
type Kind int

const (
	Access Kind = iota
	Refresh
)

func (k Kind) String() string {
	if k == Refresh {
		return "refresh"
	}
	return "access"
}

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

var (
	// ErrExpired is returned for a well-signed token past its expiry
	ErrExpired = errors.New("token expired")
	// ErrInvalid covers every other verification failure
	ErrInvalid = errors.New("invalid token")
)

// signingMethod is the only algorithm accepted during verification
var signingMethod = jwt.SigningMethodHS256

type Claims struct {
	UserID uint            `json:"userId"`
	Role   models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Pair is what a client holds after authenticating
type Pair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Service signs and verifies tokens. It holds no session state.
type Service struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	// Now is the clock used for issuing and verifying; tests override it.
	Now func() time.Time
}

func NewService(cfg Config) *Service {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	return &Service{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		Now:           time.Now,
	}
}

// TTL returns the configured lifetime for kind
func (s *Service) TTL(kind Kind) time.Duration {
	if kind == Refresh {
		return s.refreshTTL
	}
	return s.accessTTL
}

func (s *Service) secret(kind Kind) []byte {
	if kind == Refresh {
		return s.refreshSecret
	}
	return s.accessSecret
}

// Issue signs a fresh access/refresh pair for the user
func (s *Service) Issue(userID uint, role models.UserRole) (Pair, error) {
	now := s.Now()
	access, accessExp, err := s.sign(Access, userID, role, now)
	if err != nil {
		return Pair{}, err
	}
	refresh, refreshExp, err := s.sign(Refresh, userID, role, now)
	if err != nil {
		return Pair{}, err
	}
	return Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *Service) sign(kind Kind, userID uint, role models.UserRole, now time.Time) (string, time.Time, error) {
	exp := now.Add(s.TTL(kind))
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(s.secret(kind))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign %s token: %w", kind, err)
	}
	return signed, exp, nil
}

// Verify checks signature, algorithm and expiry of a token of the given kind.
// It returns ErrExpired or ErrInvalid on failure and logs the underlying cause.
func (s *Service) Verify(tokenString string, kind Kind) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.Now),
	)
	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret(kind), nil
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"kind":  kind.String(),
			"cause": err.Error(),
		}).Warn("Token verification failed")
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}
	if !token.Valid || claims.UserID == 0 || !claims.Role.Valid() {
		logrus.WithField("kind", kind.String()).Warn("Token verification failed: malformed claims")
		return nil, ErrInvalid
	}
	return claims, nil
}
