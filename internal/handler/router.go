package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopfront/backend/internal/metrics"
	"github.com/shopfront/backend/internal/service"
	log "github.com/sirupsen/logrus"
)

const maxMultipartMemory = 32 << 20

type RouterDeps struct {
	Auth     *service.AuthService
	Catalog  *service.CatalogService
	Checkout *service.CheckoutService

	Metrics  *metrics.Manager
	Registry *prometheus.Registry

	RateLimiter          RequestRateLimiter
	LoginRateLimitPerMin int

	AllowedOrigins []string
	// TrustedProxies may set X-Forwarded-For; nil trusts none.
	TrustedProxies []string
	UploadDir      string
	AdminUIDir     string
}

// NewRouter wires every route. Optional pieces (metrics, rate limiting,
// uploads, checkout) are skipped when their dependency is nil or empty.
func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = maxMultipartMemory
	if err := r.SetTrustedProxies(d.TrustedProxies); err != nil {
		log.Errorf("invalid trusted proxies %v, trusting none: %v", d.TrustedProxies, err)
		_ = r.SetTrustedProxies(nil)
	}

	cookieName := d.Auth.CookieConfig().Name
	verifier := d.Auth.Tokens()

	r.Use(PanicRecovery(d.Metrics), RequestLogger())
	if d.Metrics != nil {
		r.Use(RequestMetrics(d.Metrics))
	}
	r.Use(CORSMiddleware(d.AllowedOrigins, true), NoSniff())
	r.Use(AdminGuard(verifier, cookieName))

	r.GET("/", Root)
	r.GET("/ping", Ping)
	r.GET("/openapi.json", OpenAPIDoc)
	if d.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
	}
	if d.UploadDir != "" {
		r.Static("/uploads", d.UploadDir)
	}

	ui := NewAdminUIHandler(d.AdminUIDir)
	r.GET("/admin", ui.Page)
	r.GET("/admin/:page", ui.Page)

	authHandler := NewAuthHandler(d.Auth, d.Metrics)
	catalogHandler := NewCatalogHandler(d.Catalog)

	api := r.Group("/api")
	{
		api.GET("/categories", catalogHandler.ListCategories)
		api.GET("/banners", catalogHandler.ListBanners)
		api.GET("/products", catalogHandler.ListProducts)
		api.GET("/products/:id", catalogHandler.GetProduct)
		api.GET("/special-offers", catalogHandler.SpecialOffers)
		if d.Checkout != nil {
			api.POST("/checkout", NewCheckoutHandler(d.Checkout).Checkout)
		}

		api.GET("/auth/verify", authHandler.Verify)
		api.POST("/admin/signup", authHandler.Signup)
		if d.RateLimiter != nil && d.LoginRateLimitPerMin > 0 {
			api.POST("/admin/login", RateLimit(d.RateLimiter, "admin-login", d.LoginRateLimitPerMin, d.Metrics), authHandler.Login)
		} else {
			api.POST("/admin/login", authHandler.Login)
		}
		api.POST("/admin/logout", authHandler.Logout)
	}

	admin := api.Group("/admin", RequireAdmin(verifier, cookieName))
	{
		admin.GET("/me", authHandler.Me)

		admin.GET("/categories", catalogHandler.ListCategories)
		admin.POST("/categories", catalogHandler.CreateCategory)
		admin.PUT("/categories/:id", catalogHandler.UpdateCategory)
		admin.DELETE("/categories/:id", catalogHandler.DeleteCategory)

		admin.GET("/products", catalogHandler.ListProducts)
		admin.POST("/products", catalogHandler.CreateProduct)
		admin.PUT("/products/:id", catalogHandler.UpdateProduct)
		admin.DELETE("/products/:id", catalogHandler.DeleteProduct)

		admin.GET("/banners", catalogHandler.ListBanners)
		admin.POST("/banners", catalogHandler.CreateBanner)
		admin.PUT("/banners/:id", catalogHandler.UpdateBanner)
		admin.DELETE("/banners/:id", catalogHandler.DeleteBanner)
	}

	return r
}
