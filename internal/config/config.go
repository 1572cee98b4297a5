package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port               string
	Environment        string // development, staging, production
	UpstreamAPIURL     string
	FrontendURL        string
	SessionEndpointURL string
	AllowedOrigins     string

	CookieMode           string // auto, same-site, cross-site
	CookieDomain         string
	CookieDomainStrategy string // request, host-only
	CookieMaxAge         time.Duration

	RefreshTimeout  time.Duration
	UpstreamTimeout time.Duration

	SignInPath            string
	LandingPath           string
	ScrubOnRefreshFailure bool
	InspectTokenExpiry    bool

	AuthRateLimit float64
	AuthRateBurst int
	APIRateLimit  float64
	APIRateBurst  int

	OpenAPIValidation bool

	LogLevel  string
	LogFormat string
}

// Load loads configuration from environment variables and validates it
func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := FromEnv()
	if err != nil {
		log.Fatalf("Configuration invalid: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	return cfg
}

// LoadFile reads an explicit env file before building the configuration.
// Variables already present in the environment win over the file.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// FromEnv builds a Config from the current environment without validating it.
func FromEnv() (*Config, error) {
	var errs []string
	duration := func(key, def string) time.Duration {
		d, err := time.ParseDuration(getEnv(key, def))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
		return d
	}
	number := func(key, def string) float64 {
		f, err := strconv.ParseFloat(getEnv(key, def), 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
		return f
	}
	boolean := func(key string, def bool) bool {
		v := os.Getenv(key)
		if v == "" {
			return def
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
		return b
	}

	port := getEnv("PORT", "8080")
	env := getEnv("ENVIRONMENT", "development")

	cfg := &Config{
		Port:               port,
		Environment:        env,
		UpstreamAPIURL:     strings.TrimRight(getEnv("UPSTREAM_API_URL", "https://notehub-api.goit.study"), "/"),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:3000"),
		SessionEndpointURL: getEnv("SESSION_ENDPOINT_URL", "http://127.0.0.1:"+port+"/api/auth/session"),
		AllowedOrigins:     getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		CookieMode:           getEnv("COOKIE_MODE", "auto"),
		CookieDomain:         getEnv("COOKIE_DOMAIN", ""),
		CookieDomainStrategy: getEnv("COOKIE_DOMAIN_STRATEGY", "request"),
		CookieMaxAge:         duration("COOKIE_MAX_AGE", "168h"),

		RefreshTimeout:  duration("REFRESH_TIMEOUT", "5s"),
		UpstreamTimeout: duration("UPSTREAM_TIMEOUT", "10s"),

		SignInPath:            getEnv("SIGN_IN_PATH", "/sign-in"),
		LandingPath:           getEnv("LANDING_PATH", "/profile"),
		ScrubOnRefreshFailure: boolean("SCRUB_ON_REFRESH_FAILURE", true),
		InspectTokenExpiry:    boolean("INSPECT_TOKEN_EXPIRY", true),

		AuthRateLimit: number("AUTH_RATE_LIMIT", "5"),
		AuthRateBurst: int(number("AUTH_RATE_BURST", "10")),
		APIRateLimit:  number("API_RATE_LIMIT", "20"),
		APIRateBurst:  int(number("API_RATE_BURST", "50")),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}
	cfg.OpenAPIValidation = boolean("OPENAPI_VALIDATION", !cfg.IsProduction())

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// Validate checks configuration for security and correctness
func (c *Config) Validate() error {
	switch c.CookieMode {
	case "auto", "same-site", "cross-site":
	default:
		return fmt.Errorf("COOKIE_MODE must be one of auto, same-site, cross-site (got %q)", c.CookieMode)
	}

	switch c.CookieDomainStrategy {
	case "request", "host-only":
	default:
		return fmt.Errorf("COOKIE_DOMAIN_STRATEGY must be request or host-only (got %q)", c.CookieDomainStrategy)
	}

	for key, p := range map[string]string{"SIGN_IN_PATH": c.SignInPath, "LANDING_PATH": c.LandingPath} {
		if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") {
			return fmt.Errorf("%s must be a same-origin absolute path (got %q)", key, p)
		}
	}

	for key, raw := range map[string]string{
		"UPSTREAM_API_URL":     c.UpstreamAPIURL,
		"FRONTEND_URL":         c.FrontendURL,
		"SESSION_ENDPOINT_URL": c.SessionEndpointURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL (got %q)", key, raw)
		}
	}

	if c.RefreshTimeout <= 0 || c.UpstreamTimeout <= 0 {
		return fmt.Errorf("REFRESH_TIMEOUT and UPSTREAM_TIMEOUT must be positive")
	}

	if c.CookieMaxAge < time.Second {
		return fmt.Errorf("COOKIE_MAX_AGE must be at least 1s (got %s)", c.CookieMaxAge)
	}

	if c.IsProduction() {
		if !strings.HasPrefix(c.UpstreamAPIURL, "https://") {
			return fmt.Errorf("UPSTREAM_API_URL must use https in production")
		}
		if c.CookieMode == "cross-site" && strings.HasPrefix(c.FrontendURL, "http://") {
			return fmt.Errorf("cross-site cookies require an https FRONTEND_URL in production")
		}
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
