package config

import (
	"os"
	"strings"
)

type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Postgres PostgresConfig
	Upload   UploadConfig
	Checkout CheckoutConfig
	Redis    RedisConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port           string
	GinMode        string
	AllowedOrigins []string
	TrustedProxies []string
	AdminUIDir     string
	MetricsEnabled string
}

type AuthConfig struct {
	JWTSecret      string
	JWTTTL         string
	AllowSignup    string
	BcryptCost     string
	CookieSecure   string
	CookieSameSite string
	CookieDomain   string
	CookiePath     string
	AdminUsername  string
	AdminEmail     string
	AdminPassword  string
}

type PostgresConfig struct {
	DatabaseURL string
	Host        string
	Port        string
	User        string
	Password    string
	Database    string
	SSLMode     string
}

type UploadConfig struct {
	Dir      string
	MaxBytes string
}

type CheckoutConfig struct {
	WhatsAppPhone   string
	MessageTemplate string
}

type RedisConfig struct {
	Addr                 string
	Password             string
	LoginRateLimitPerMin string
}

type LogConfig struct {
	Level      string
	File       string
	ToStdout   string
	FormatJSON string
}

func Load() Config {
	return Config{
		Server: ServerConfig{
			Port:           getenv("PORT", "8080"),
			GinMode:        getenv("GIN_MODE", "release"),
			AllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
			TrustedProxies: splitList(os.Getenv("TRUSTED_PROXIES")),
			AdminUIDir:     getenv("ADMIN_UI_DIR", "./web/admin"),
			MetricsEnabled: getenv("METRICS_ENABLED", "true"),
		},
		Auth: AuthConfig{
			JWTSecret:      os.Getenv("JWT_SECRET_KEY"),
			JWTTTL:         getenv("JWT_TTL", "24h"),
			AllowSignup:    getenv("ALLOW_SIGNUP", "true"),
			BcryptCost:     os.Getenv("AUTH_BCRYPT_COST"),
			CookieSecure:   os.Getenv("AUTH_COOKIE_SECURE"),
			CookieSameSite: os.Getenv("AUTH_COOKIE_SAMESITE"),
			CookieDomain:   os.Getenv("AUTH_COOKIE_DOMAIN"),
			CookiePath:     getenv("AUTH_COOKIE_PATH", "/"),
			AdminUsername:  os.Getenv("ADMIN_USERNAME"),
			AdminEmail:     os.Getenv("ADMIN_EMAIL"),
			AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		},
		Postgres: PostgresConfig{
			DatabaseURL: os.Getenv("DATABASE_URL"),
			Host:        getenv("PGHOST", "localhost"),
			Port:        getenv("PGPORT", "5432"),
			User:        os.Getenv("PGUSER"),
			Password:    os.Getenv("PGPASSWORD"),
			Database:    os.Getenv("PGDATABASE"),
			SSLMode:     getenv("PGSSLMODE", "disable"),
		},
		Upload: UploadConfig{
			Dir:      getenv("UPLOAD_DIR", "./public/uploads"),
			MaxBytes: getenv("UPLOAD_MAX_BYTES", "10485760"),
		},
		Checkout: CheckoutConfig{
			WhatsAppPhone:   os.Getenv("WHATSAPP_PHONE"),
			MessageTemplate: os.Getenv("CHECKOUT_MESSAGE_TEMPLATE"),
		},
		Redis: RedisConfig{
			Addr:                 os.Getenv("REDIS_ADDR"),
			Password:             os.Getenv("REDIS_PASSWORD"),
			LoginRateLimitPerMin: getenv("LOGIN_RATE_LIMIT_PER_MIN", "10"),
		},
		Log: LogConfig{
			Level:      getenv("LOG_LEVEL", "info"),
			File:       os.Getenv("LOG_FILE"),
			ToStdout:   getenv("LOG_TO_STDOUT", "true"),
			FormatJSON: os.Getenv("LOG_FORMAT_JSON"),
		},
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
