// Package server assembles the relay's HTTP surface.
package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"authrelay/internal/authcookie"
	"authrelay/internal/config"
	"authrelay/internal/handler"
	"authrelay/internal/middleware"
	"authrelay/internal/refresh"
	"authrelay/internal/upstream"
)

// Deps are the collaborators the router wires together.
type Deps struct {
	Identity  *upstream.Client
	Refresher middleware.Refresher
	Cookies   *authcookie.Store
	Frontend  http.Handler
}

// BuildDeps creates the production collaborators from cfg.
func BuildDeps(cfg *config.Config) (Deps, error) {
	cookies, err := NewCookieStore(cfg)
	if err != nil {
		return Deps{}, err
	}

	frontendURL, err := url.Parse(cfg.FrontendURL)
	if err != nil {
		return Deps{}, fmt.Errorf("FRONTEND_URL: %w", err)
	}

	return Deps{
		Identity:  upstream.NewClient(cfg.UpstreamAPIURL, cfg.UpstreamTimeout),
		Refresher: refresh.NewInvoker(cfg.SessionEndpointURL, cfg.RefreshTimeout),
		Cookies:   cookies,
		Frontend:  handler.NewFrontendProxy(frontendURL),
	}, nil
}

// NewCookieStore resolves the deployment cookie policy once.
func NewCookieStore(cfg *config.Config) (*authcookie.Store, error) {
	policy, err := authcookie.ResolveCookiePolicy(authcookie.Mode(cfg.CookieMode))
	if err != nil {
		return nil, err
	}
	policy.Domain, err = authcookie.ParseDomainStrategy(cfg.CookieDomainStrategy)
	if err != nil {
		return nil, err
	}
	return authcookie.NewStore(policy,
		authcookie.WithDomain(cfg.CookieDomain),
		authcookie.WithDefaultMaxAge(cfg.CookieMaxAge),
	), nil
}

// NewRouter builds the relay router. Limiter cleanup stops when ctx is done.
func NewRouter(ctx context.Context, cfg *config.Config, deps Deps) http.Handler {
	authHandler := handler.NewAuthHandler(deps.Identity, deps.Cookies)
	userHandler := handler.NewUserHandler(deps.Identity, deps.Cookies)
	guard := middleware.NewGuard(middleware.GuardConfig{
		SignInPath:            cfg.SignInPath,
		LandingPath:           cfg.LandingPath,
		ScrubOnRefreshFailure: cfg.ScrubOnRefreshFailure,
		InspectTokenExpiry:    cfg.InspectTokenExpiry,
	}, deps.Refresher, deps.Cookies)

	origins := middleware.ParseOrigins(cfg.AllowedOrigins)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Tracing())
	r.Use(middleware.Metrics())

	r.Get("/health", handler.Health)
	r.Get("/health/ready", handler.Ready(deps.Identity, cfg.UpstreamTimeout))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		authLimiter := middleware.NewRateLimiter(ctx, cfg.AuthRateLimit, cfg.AuthRateBurst)
		apiLimiter := middleware.NewRateLimiter(ctx, cfg.APIRateLimit, cfg.APIRateBurst)

		r.Use(middleware.CORS(origins))
		r.Use(middleware.CSRF(origins))
		r.Use(middleware.OpenAPIValidator(middleware.DefaultOpenAPIValidatorConfig(cfg.OpenAPIValidation)))

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"Not Found"}`, http.StatusNotFound)
		})

		// The edge guard calls this on every refresh; it is not rate limited.
		r.Get("/auth/session", authHandler.Session)

		r.Group(func(r chi.Router) {
			r.Use(authLimiter.Middleware())
			r.Post("/auth/register", authHandler.Register)
			r.Post("/auth/login", authHandler.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(apiLimiter.Middleware())
			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/users/me", userHandler.Me)
			r.Patch("/users/me", userHandler.UpdateMe)
		})
	})

	// Every page navigation runs the edge guard before reaching the frontend.
	r.NotFound(guard.Middleware()(deps.Frontend).ServeHTTP)

	return r
}
