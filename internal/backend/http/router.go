package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/modconsole/internal/backend/service"
	"github.com/aussiebroadwan/modconsole/internal/backend/store"
	"github.com/aussiebroadwan/modconsole/pkg/authsdk"
	"github.com/aussiebroadwan/modconsole/pkg/httpx"
	"github.com/aussiebroadwan/modconsole/pkg/jwtx"
	"github.com/aussiebroadwan/modconsole/pkg/slogx"

	_ "github.com/aussiebroadwan/modconsole/api/backend" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// RateLimits groups the per-route limiter profiles.
type RateLimits struct {
	Credentials httpx.RateLimitConfig // sign-in, sign-up, 2FA code entry
	Tokens      httpx.RateLimitConfig // validation, refresh, user-info
}

// DefaultRateLimits are used when the router is built without overrides.
var DefaultRateLimits = RateLimits{
	Credentials: httpx.StrictLimit,
	Tokens:      httpx.ModerateLimit,
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	limits       RateLimits

	store        store.Store
	AuthService  *service.AuthService
	TokenService *service.TokenService
	UserService  *service.UserService

	// AllowedOrigins enables CORS for browser consoles served elsewhere.
	AllowedOrigins []string
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	limits RateLimits,
	logger *slog.Logger,
) *Router {
	return &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		limits:       limits,
		logger:       logger,
	}
}

func (r *Router) ApplyRoutes() {
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.Recover,
	}
	if len(r.AllowedOrigins) > 0 {
		r.middlewares = append(r.middlewares, httpx.CORS(r.AllowedOrigins, authsdk.DefaultBypassHeader))
	}

	r.registerAuth()
	r.registerUsers()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title						Moderation Console Backend API
//	@version					0.1.0
//	@description				Session endpoints consumed by the moderation console: sign-in with optional TOTP second
//	@description				factor, sign-up, access token validation, rotating refresh tokens and the user profile.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/modconsole
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Access, refresh or two-factor token depending on the endpoint. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{Auth: r.AuthService, Tokens: r.TokenService}

	// Credential endpoints are limited by IP + email so one address cannot
	// hammer a single account.
	r.Mux.Handle("POST "+authsdk.PathSignIn,
		httpx.Chain(http.HandlerFunc(h.HandleSignIn),
			httpx.RateLimitByIPAndJSONField(r.limits.Credentials, "email"),
		),
	)
	r.Mux.Handle("POST "+authsdk.PathSignUp,
		httpx.Chain(http.HandlerFunc(h.HandleSignUp),
			httpx.RateLimitByIP(r.limits.Credentials),
		),
	)

	// Code entry is the brute-force target; checking liveness is cheap.
	r.Mux.Handle("POST "+authsdk.PathTwoFactor,
		httpx.Chain(http.HandlerFunc(h.HandleVerifyTwoFactor),
			httpx.RateLimitByIP(r.limits.Credentials),
		),
	)
	r.Mux.Handle("GET "+authsdk.PathTwoFactor,
		httpx.Chain(http.HandlerFunc(h.HandleCheckTwoFactor),
			httpx.RateLimitByIP(r.limits.Tokens),
		),
	)

	r.Mux.Handle("GET "+authsdk.PathValidateAccessToken,
		httpx.Chain(http.HandlerFunc(h.HandleValidateAccessToken),
			httpx.RateLimitByIP(r.limits.Tokens),
		),
	)
	r.Mux.Handle("POST "+authsdk.PathRefreshToken,
		httpx.Chain(http.HandlerFunc(h.HandleRefreshToken),
			httpx.RateLimitByIP(r.limits.Tokens),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UserInfoHandler{UserService: r.UserService}

	r.Mux.Handle("GET "+authsdk.PathUserInfo,
		httpx.Chain(h,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(r.limits.Tokens),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}
