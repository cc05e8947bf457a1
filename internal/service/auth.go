package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopfront/backend/internal/config"
	"github.com/shopfront/backend/internal/db"
	"github.com/shopfront/backend/internal/model"
	"golang.org/x/crypto/bcrypt"
)

const (
	AuthCookieName    = "adminToken"
	minUsernameLength = 3
	maxUsernameLength = 64
	minPasswordLength = 6
	maxPasswordLength = 72
)

var emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

// CredentialStore persists admin identities.
type CredentialStore interface {
	FindAdminByUsername(ctx context.Context, username string) (*model.Admin, error)
	FindAdminByEmail(ctx context.Context, email string) (*model.Admin, error)
	CreateAdmin(ctx context.Context, admin model.Admin) (*model.Admin, error)
}

type CookieConfig struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
	MaxAge   int
}

type AuthService struct {
	repo        CredentialStore
	tokens      *TokenService
	bcryptCost  int
	allowSignup bool
	cookieCfg   CookieConfig
}

func NewAuthService(repo CredentialStore, cfg config.AuthConfig) (*AuthService, error) {
	ttl := DefaultTokenTTL
	if strings.TrimSpace(cfg.JWTTTL) != "" {
		parsed, err := time.ParseDuration(cfg.JWTTTL)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%w: invalid JWT_TTL", ErrMisconfigured)
		}
		ttl = parsed
	}

	tokens, err := NewTokenService(cfg.JWTSecret, ttl)
	if err != nil {
		return nil, err
	}

	allowSignup, err := parseBool(cfg.AllowSignup, true)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ALLOW_SIGNUP", ErrMisconfigured)
	}

	cost := bcrypt.DefaultCost
	if strings.TrimSpace(cfg.BcryptCost) != "" {
		cost, err = strconv.Atoi(strings.TrimSpace(cfg.BcryptCost))
		if err != nil || cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			return nil, fmt.Errorf("%w: invalid AUTH_BCRYPT_COST", ErrMisconfigured)
		}
	}

	cookieSecure, err := parseBool(cfg.CookieSecure, true)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid AUTH_COOKIE_SECURE", ErrMisconfigured)
	}

	cookieSameSite, err := parseSameSite(cfg.CookieSameSite)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid AUTH_COOKIE_SAMESITE", ErrMisconfigured)
	}

	if cookieSameSite == http.SameSiteNoneMode && !cookieSecure {
		return nil, fmt.Errorf("%w: SameSite=None requires Secure cookie", ErrMisconfigured)
	}

	cookiePath := cfg.CookiePath
	if strings.TrimSpace(cookiePath) == "" {
		cookiePath = "/"
	}

	return &AuthService{
		repo:        repo,
		tokens:      tokens,
		bcryptCost:  cost,
		allowSignup: allowSignup,
		cookieCfg: CookieConfig{
			Name:     AuthCookieName,
			Path:     cookiePath,
			Domain:   cfg.CookieDomain,
			Secure:   cookieSecure,
			SameSite: cookieSameSite,
			MaxAge:   int(ttl.Seconds()),
		},
	}, nil
}

func (s *AuthService) Tokens() *TokenService {
	return s.tokens
}

func (s *AuthService) AllowSignup() bool {
	return s.allowSignup
}

func (s *AuthService) CookieConfig() CookieConfig {
	return s.cookieCfg
}

// EnsureAdmin creates the bootstrap admin unless one with that username exists.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, email, password string) error {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return fmt.Errorf("%w: ADMIN_USERNAME/ADMIN_PASSWORD are required", ErrMisconfigured)
	}

	_, err := s.repo.FindAdminByUsername(ctx, strings.TrimSpace(username))
	if err == nil {
		return nil
	}
	if !db.IsNoRows(err) {
		return err
	}

	_, err = s.createAdmin(ctx, model.SignupRequest{Username: username, Email: email, Password: password})
	if errors.Is(err, ErrDuplicateIdentity) {
		return nil
	}
	return err
}

// Signup registers a new admin. An existing email (or username) is rejected
// with ErrDuplicateIdentity; the store's unique constraints decide races.
func (s *AuthService) Signup(ctx context.Context, req model.SignupRequest) (*model.Admin, error) {
	if !s.allowSignup {
		return nil, ErrForbidden
	}
	return s.createAdmin(ctx, req)
}

func (s *AuthService) createAdmin(ctx context.Context, req model.SignupRequest) (*model.Admin, error) {
	username, email, err := validateSignup(req)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindAdminByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateIdentity
	} else if !db.IsNoRows(err) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	admin, err := s.repo.CreateAdmin(ctx, model.Admin{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, ErrDuplicateIdentity
		}
		return nil, err
	}
	return admin, nil
}

// Login checks the credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (string, *model.Admin, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return "", nil, invalid("", "Username and password are required")
	}

	admin, err := s.repo.FindAdminByUsername(ctx, username)
	if err != nil {
		if db.IsNoRows(err) {
			return "", nil, ErrUnauthorized
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		return "", nil, ErrUnauthorized
	}

	token, err := s.tokens.Issue(admin)
	if err != nil {
		return "", nil, err
	}
	return token, admin, nil
}

func (s *AuthService) Verify(token string) (*model.AuthUser, error) {
	return s.tokens.Verify(token)
}

// Logout revokes the token if it still verifies. Invalid tokens are ignored.
func (s *AuthService) Logout(token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	user, err := s.tokens.Verify(token)
	if err != nil {
		return nil
	}
	return s.tokens.Revoke(user)
}

func validateSignup(req model.SignupRequest) (string, string, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		return "", "", invalid("username", fmt.Sprintf("must be %d-%d characters", minUsernameLength, maxUsernameLength))
	}
	if !emailPattern.MatchString(email) {
		return "", "", invalid("email", "Please fill a valid email address")
	}
	if len(req.Password) < minPasswordLength || len(req.Password) > maxPasswordLength {
		return "", "", invalid("password", fmt.Sprintf("must be %d-%d characters", minPasswordLength, maxPasswordLength))
	}
	return username, email, nil
}

func parseBool(value string, fallback bool) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, err
	}
	return parsed, nil
}

func parseSameSite(value string) (http.SameSite, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return http.SameSiteLaxMode, nil
	}
	switch value {
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, ErrInvalidInput
	}
}
