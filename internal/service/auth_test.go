package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/shopfront/backend/internal/config"
	"github.com/shopfront/backend/internal/model"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:  "test-secret",
		JWTTTL:     "24h",
		BcryptCost: "4",
	}
}

func newTestAuthService(t *testing.T, cfg config.AuthConfig) (*AuthService, *fakeCredentialStore) {
	t.Helper()
	store := &fakeCredentialStore{}
	svc, err := NewAuthService(store, cfg)
	if err != nil {
		t.Fatalf("NewAuthService() error = %v", err)
	}
	return svc, store
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	svc, _ := newTestAuthService(t, testAuthConfig())
	ctx := context.Background()
	if err := svc.EnsureAdmin(ctx, "admin", "admin@example.com", "correct"); err != nil {
		t.Fatalf("EnsureAdmin() error = %v", err)
	}

	token, admin, err := svc.Login(ctx, model.LoginRequest{Username: "admin", Password: "correct"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if admin.Username != "admin" || token == "" {
		t.Fatalf("unexpected login result: %q %+v", token, admin)
	}

	user, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if user.Username != "admin" {
		t.Fatalf("Username = %q, want admin", user.Username)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestAuthService(t, testAuthConfig())
	ctx := context.Background()
	if err := svc.EnsureAdmin(ctx, "admin", "admin@example.com", "correct"); err != nil {
		t.Fatalf("EnsureAdmin() error = %v", err)
	}

	tests := []struct {
		name    string
		req     model.LoginRequest
		wantErr error
	}{
		{name: "wrong-password", req: model.LoginRequest{Username: "admin", Password: "wrong"}, wantErr: ErrUnauthorized},
		{name: "unknown-user", req: model.LoginRequest{Username: "ghost", Password: "correct"}, wantErr: ErrUnauthorized},
		{name: "missing-password", req: model.LoginRequest{Username: "admin"}, wantErr: ErrInvalidInput},
		{name: "missing-username", req: model.LoginRequest{Password: "correct"}, wantErr: ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, _, err := svc.Login(ctx, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Login() error = %v, want %v", err, tt.wantErr)
			}
			if token != "" {
				t.Fatalf("expected no token on failure")
			}
		})
	}
}

func TestSignup(t *testing.T) {
	svc, store := newTestAuthService(t, testAuthConfig())
	ctx := context.Background()

	admin, err := svc.Signup(ctx, model.SignupRequest{Username: "alice", Email: "Alice@Example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	if admin.Email != "alice@example.com" {
		t.Fatalf("Email = %q, want lowercased", admin.Email)
	}
	if admin.PasswordHash == "" || admin.PasswordHash == "secret1" {
		t.Fatalf("password must be stored hashed")
	}

	_, err = svc.Signup(ctx, model.SignupRequest{Username: "alice2", Email: "alice@example.com", Password: "secret1"})
	if !errors.Is(err, ErrDuplicateIdentity) {
		t.Fatalf("duplicate email error = %v, want %v", err, ErrDuplicateIdentity)
	}
	_, err = svc.Signup(ctx, model.SignupRequest{Username: "alice", Email: "other@example.com", Password: "secret1"})
	if !errors.Is(err, ErrDuplicateIdentity) {
		t.Fatalf("duplicate username error = %v, want %v", err, ErrDuplicateIdentity)
	}
	if len(store.admins) != 1 {
		t.Fatalf("expected 1 stored admin, got %d", len(store.admins))
	}
}

func TestSignupValidation(t *testing.T) {
	svc, _ := newTestAuthService(t, testAuthConfig())
	tests := []struct {
		name string
		req  model.SignupRequest
	}{
		{name: "short-username", req: model.SignupRequest{Username: "ab", Email: "a@example.com", Password: "secret1"}},
		{name: "bad-email", req: model.SignupRequest{Username: "alice", Email: "not-an-email", Password: "secret1"}},
		{name: "short-password", req: model.SignupRequest{Username: "alice", Email: "a@example.com", Password: "123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(context.Background(), tt.req)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Signup() error = %v, want ValidationError", err)
			}
		})
	}
}

func TestSignupDisabled(t *testing.T) {
	cfg := testAuthConfig()
	cfg.AllowSignup = "false"
	svc, _ := newTestAuthService(t, cfg)

	_, err := svc.Signup(context.Background(), model.SignupRequest{Username: "alice", Email: "a@example.com", Password: "secret1"})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("Signup() error = %v, want %v", err, ErrForbidden)
	}
}

func TestConcurrentSignupsSameEmail(t *testing.T) {
	svc, store := newTestAuthService(t, testAuthConfig())

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Signup(context.Background(), model.SignupRequest{
				Username: "racer",
				Email:    "racer@example.com",
				Password: "secret1",
			})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			if !errors.Is(err, ErrDuplicateIdentity) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || len(store.admins) != 1 {
		t.Fatalf("successes = %d, stored = %d, want 1 and 1", successes, len(store.admins))
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, _ := newTestAuthService(t, testAuthConfig())
	ctx := context.Background()
	if err := svc.EnsureAdmin(ctx, "admin", "admin@example.com", "correct"); err != nil {
		t.Fatalf("EnsureAdmin() error = %v", err)
	}
	token, _, err := svc.Login(ctx, model.LoginRequest{Username: "admin", Password: "correct"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if err := svc.Logout(token); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, err := svc.Verify(token); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("Verify() after logout error = %v, want %v", err, ErrTokenRevoked)
	}
	if err := svc.Logout("garbage"); err != nil {
		t.Fatalf("Logout() with invalid token error = %v", err)
	}
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	svc, store := newTestAuthService(t, testAuthConfig())
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := svc.EnsureAdmin(ctx, "admin", "admin@example.com", "correct"); err != nil {
			t.Fatalf("EnsureAdmin() error = %v", err)
		}
	}
	if len(store.admins) != 1 {
		t.Fatalf("expected 1 admin, got %d", len(store.admins))
	}
}

func TestNewAuthServiceCookieConfig(t *testing.T) {
	cfg := testAuthConfig()
	cfg.CookieSecure = "false"
	svc, _ := newTestAuthService(t, cfg)

	cookie := svc.CookieConfig()
	if cookie.Name != "adminToken" || cookie.Path != "/" {
		t.Fatalf("unexpected cookie config: %+v", cookie)
	}
	if cookie.MaxAge != 24*60*60 {
		t.Fatalf("MaxAge = %d, want %d", cookie.MaxAge, 24*60*60)
	}
	if cookie.SameSite != http.SameSiteLaxMode || cookie.Secure {
		t.Fatalf("unexpected cookie flags: %+v", cookie)
	}
}

func TestNewAuthServiceRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.AuthConfig)
	}{
		{name: "missing-secret", mutate: func(c *config.AuthConfig) { c.JWTSecret = "" }},
		{name: "bad-ttl", mutate: func(c *config.AuthConfig) { c.JWTTTL = "soon" }},
		{name: "bad-cost", mutate: func(c *config.AuthConfig) { c.BcryptCost = "99" }},
		{name: "samesite-none-insecure", mutate: func(c *config.AuthConfig) {
			c.CookieSameSite = "none"
			c.CookieSecure = "false"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testAuthConfig()
			tt.mutate(&cfg)
			if _, err := NewAuthService(&fakeCredentialStore{}, cfg); !errors.Is(err, ErrMisconfigured) {
				t.Fatalf("NewAuthService() error = %v, want %v", err, ErrMisconfigured)
			}
		})
	}
}
