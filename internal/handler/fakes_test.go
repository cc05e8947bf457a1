package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v9"
	"github.com/shopfront/backend/internal/config"
	"github.com/shopfront/backend/internal/db"
	"github.com/shopfront/backend/internal/metrics"
	"github.com/shopfront/backend/internal/model"
	"github.com/shopfront/backend/internal/service"
	"github.com/shopfront/backend/internal/storage"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

type fakeVerifier struct {
	users map[string]*model.AuthUser
}

func (f *fakeVerifier) Verify(token string) (*model.AuthUser, error) {
	if user, ok := f.users[token]; ok {
		return user, nil
	}
	return nil, service.ErrTokenMalformed
}

type fakeLimiter struct {
	result *redis_rate.Result
	err    error
	keys   []string
}

func (f *fakeLimiter) Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	f.keys = append(f.keys, key)
	return f.result, f.err
}

// windowLimiter allows the first max calls per key.
type windowLimiter struct {
	mu    sync.Mutex
	max   int
	calls map[string]int
}

func newWindowLimiter(max int) *windowLimiter {
	return &windowLimiter{max: max, calls: map[string]int{}}
}

func (l *windowLimiter) Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls[key]++
	if l.calls[key] > l.max {
		return &redis_rate.Result{Limit: limit, Allowed: 0, RetryAfter: time.Minute}, nil
	}
	return &redis_rate.Result{Limit: limit, Allowed: 1, Remaining: l.max - l.calls[key]}, nil
}

type fakeAdminStore struct {
	mu     sync.Mutex
	admins []model.Admin
}

func (f *fakeAdminStore) FindAdminByUsername(ctx context.Context, username string) (*model.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.admins {
		if a.Username == username {
			found := a
			return &found, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeAdminStore) FindAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.admins {
		if a.Email == email {
			found := a
			return &found, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeAdminStore) CreateAdmin(ctx context.Context, admin model.Admin) (*model.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.admins {
		if a.Username == admin.Username || a.Email == admin.Email {
			return nil, db.ErrDuplicate
		}
	}
	admin.ID = int64(len(f.admins) + 1)
	f.admins = append(f.admins, admin)
	return &admin, nil
}

// fakeCatalogRepo implements the catalog calls the handler tests reach.
// Anything else panics through the nil embedded interface.
type fakeCatalogRepo struct {
	service.CatalogRepo

	mu         sync.Mutex
	nextID     int64
	categories map[int64]model.Category
	products   map[int64]model.Product
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		categories: map[int64]model.Category{},
		products:   map[int64]model.Product{},
	}
}

func (f *fakeCatalogRepo) CreateCategory(ctx context.Context, name, image string) (*model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	c := model.Category{ID: f.nextID, Name: name, Image: image}
	f.categories[c.ID] = c
	return &c, nil
}

func (f *fakeCatalogRepo) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.categories[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &c, nil
}

func (f *fakeCatalogRepo) ListCategories(ctx context.Context) ([]model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Category{}
	for _, c := range f.categories {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCatalogRepo) CreateProduct(ctx context.Context, p model.Product) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = f.nextID
	f.products[p.ID] = p
	return &p, nil
}

func (f *fakeCatalogRepo) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &p, nil
}

func (f *fakeCatalogRepo) ListProductsByCategory(ctx context.Context, categoryID int64) ([]model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Product{}
	for _, p := range f.products {
		if p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	return out, nil
}

type testServer struct {
	router  *gin.Engine
	auth    *service.AuthService
	repo    *fakeCatalogRepo
	metrics *metrics.Manager
	uploads string
}

type testServerOption func(*handlerTestDeps)

type handlerTestDeps struct {
	authCfg config.AuthConfig
	router  RouterDeps
}

func withAuthConfig(mutate func(*config.AuthConfig)) testServerOption {
	return func(d *handlerTestDeps) { mutate(&d.authCfg) }
}

func withTrustedProxies(proxies ...string) testServerOption {
	return func(d *handlerTestDeps) { d.router.TrustedProxies = proxies }
}

func withRateLimiter(l RequestRateLimiter, perMin int) testServerOption {
	return func(d *handlerTestDeps) {
		d.router.RateLimiter = l
		d.router.LoginRateLimitPerMin = perMin
	}
}

func newTestServer(t *testing.T, opts ...testServerOption) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	deps := &handlerTestDeps{
		authCfg: config.AuthConfig{
			JWTSecret:    "test-secret",
			JWTTTL:       "24h",
			BcryptCost:   "4",
			CookieSecure: "false",
		},
	}
	for _, opt := range opts {
		opt(deps)
	}

	auth, err := service.NewAuthService(&fakeAdminStore{}, deps.authCfg)
	if err != nil {
		t.Fatalf("NewAuthService() error = %v", err)
	}
	if err := auth.EnsureAdmin(context.Background(), "admin", "admin@example.com", "correct"); err != nil {
		t.Fatalf("EnsureAdmin() error = %v", err)
	}

	uploadDir := t.TempDir()
	store, err := storage.NewDiskStore(uploadDir, 1<<20)
	if err != nil {
		t.Fatalf("NewDiskStore() error = %v", err)
	}

	repo := newFakeCatalogRepo()
	catalog := service.NewCatalogService(repo, store)
	checkout, err := service.NewCheckoutService(repo, config.CheckoutConfig{WhatsAppPhone: "15551234567"})
	if err != nil {
		t.Fatalf("NewCheckoutService() error = %v", err)
	}

	uiDir := t.TempDir()
	for _, page := range []string{"login", "index", "addproduct"} {
		body := []byte("<html>" + page + "</html>")
		if err := os.WriteFile(filepath.Join(uiDir, page+".html"), body, 0o644); err != nil {
			t.Fatalf("write page: %v", err)
		}
	}

	m := metrics.NewTestManager()
	rd := deps.router
	rd.Auth = auth
	rd.Catalog = catalog
	rd.Checkout = checkout
	rd.Metrics = m
	rd.UploadDir = uploadDir
	rd.AdminUIDir = uiDir

	return &testServer{
		router:  NewRouter(rd),
		auth:    auth,
		repo:    repo,
		metrics: m,
		uploads: uploadDir,
	}
}

func (s *testServer) token(t *testing.T) string {
	t.Helper()
	token, err := s.auth.Tokens().Issue(&model.Admin{Username: "admin"})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	return token
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

type formFile struct {
	field, name string
	data        []byte
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, files ...formFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField() error = %v", err)
		}
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatalf("CreateFormFile() error = %v", err)
		}
		if _, err := io.Copy(fw, bytes.NewReader(f.data)); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
}

func cookieNamed(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func bearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	return req
}
