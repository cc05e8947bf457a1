package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/coocood/freecache"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/model"
)

const (
	RoleAdmin       = "admin"
	DefaultTokenTTL = 24 * time.Hour

	denylistCacheSize = 1024 * 1024
)

// Verification failures. All of them match ErrUnauthorized with errors.Is.
var (
	ErrTokenMalformed        = fmt.Errorf("%w: token malformed", ErrUnauthorized)
	ErrTokenSignatureInvalid = fmt.Errorf("%w: token signature invalid", ErrUnauthorized)
	ErrTokenExpired          = fmt.Errorf("%w: token expired", ErrUnauthorized)
	ErrTokenRevoked          = fmt.Errorf("%w: token revoked", ErrUnauthorized)
)

type tokenClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies stateless HS256 bearer tokens.
// The only server-side state is a per-process denylist of revoked token ids,
// whose entries expire together with the tokens they name.
type TokenService struct {
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
	denylist *freecache.Cache
}

func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: JWT_SECRET_KEY is required", ErrMisconfigured)
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
		denylist: freecache.NewCache(denylistCacheSize),
	}, nil
}

func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for the admin, valid for the configured TTL.
func (s *TokenService) Issue(admin *model.Admin) (string, error) {
	if admin == nil || admin.Username == "" {
		return "", ErrInvalidInput
	}

	now := s.now()
	claims := tokenClaims{
		Username: admin.Username,
		Role:     RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   admin.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks signature and expiry and returns the embedded identity.
// It never touches the credential store.
func (s *TokenService) Verify(tokenStr string) (*model.AuthUser, error) {
	if tokenStr == "" {
		return nil, ErrTokenMalformed
	}

	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, classifyTokenError(err)
	}

	if claims.Username == "" || claims.Role != RoleAdmin || claims.ExpiresAt == nil {
		return nil, ErrTokenMalformed
	}

	if claims.ID != "" {
		if _, err := s.denylist.Get([]byte(claims.ID)); err == nil {
			return nil, ErrTokenRevoked
		}
	}

	return &model.AuthUser{
		Username:  claims.Username,
		Role:      claims.Role,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Revoke puts the token id on the denylist until the token would expire anyway.
func (s *TokenService) Revoke(user *model.AuthUser) error {
	if user == nil || user.TokenID == "" {
		return nil
	}
	remaining := user.ExpiresAt.Sub(s.now())
	if remaining <= 0 {
		return nil
	}
	// one extra second covers the truncation of the exp claim
	return s.denylist.Set([]byte(user.TokenID), []byte{1}, int(remaining.Seconds())+1)
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrTokenSignatureInvalid
	default:
		return ErrTokenMalformed
	}
}
