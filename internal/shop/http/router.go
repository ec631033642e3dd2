package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/aussiebroadwan/greenbite/api/shop" // Swagger docs
	"github.com/aussiebroadwan/greenbite/internal/shop/domain"
	"github.com/aussiebroadwan/greenbite/internal/shop/metrics"
	"github.com/aussiebroadwan/greenbite/internal/shop/service"
	"github.com/aussiebroadwan/greenbite/internal/shop/store"
	"github.com/aussiebroadwan/greenbite/pkg/httpx"
	"github.com/aussiebroadwan/greenbite/pkg/slogx"
)

// Limits are the rate-limit profiles applied by the router.
type Limits struct {
	// Global applies per IP to every request.
	Global httpx.RateLimitConfig
	// Strict applies per IP to credential endpoints, and per email to
	// verify-code.
	Strict httpx.RateLimitConfig
	// TrustedProxies may set forwarding headers. Empty keys on the
	// connection address alone.
	TrustedProxies httpx.TrustedProxies
}

// DefaultLimits returns the built-in profiles with RATELIMIT_* overrides.
func DefaultLimits() Limits {
	return Limits{
		Global: httpx.GlobalLimit.FromEnv("GLOBAL"),
		Strict: httpx.StrictLimit.FromEnv("STRICT"),
	}
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux     *http.ServeMux
	handler http.Handler

	buildVersion  string
	startTime     time.Time
	logger        *slog.Logger
	store         store.Store
	secureCookies bool

	Limits   Limits
	CORS     httpx.CORSConfig
	Metrics  *metrics.Collector  // optional
	Gatherer prometheus.Gatherer // optional, serves /metrics

	CredentialService   *service.CredentialService
	CatalogService      *service.CatalogService
	CartService         *service.CartService
	OrderService        *service.OrderService
	ProfileImageService *service.ProfileImageService
}

// NewRouter creates a router. secureCookies marks the session cookie
// Secure and turns on HSTS.
func NewRouter(buildVersion string, st store.Store, logger *slog.Logger, secureCookies bool) *Router {
	return &Router{
		Mux:           http.NewServeMux(),
		buildVersion:  buildVersion,
		startTime:     time.Now(),
		logger:        logger,
		store:         st,
		secureCookies: secureCookies,
		Limits:        DefaultLimits(),
	}
}

// ApplyRoutes registers every route and builds the global middleware chain.
// Services must be set before it is called.
func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerCatalog()
	r.registerCart()
	r.registerOrders()
	r.registerSystem()

	r.Mux.Handle("GET /swagger/", httpSwagger.Handler())

	// The metrics middleware reads the matched pattern, so it wraps the
	// mux directly.
	var inner http.Handler = r.Mux
	if r.Metrics != nil {
		inner = r.Metrics.Middleware(inner)
	}

	r.handler = httpx.Chain(inner,
		httpx.Recovery,
		httpx.SecurityHeaders(r.secureCookies),
		httpx.CORS(r.CORS),
		slogx.HTTPMiddleware(r.logger),
		r.byIP(r.Limits.Global),
	)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			GreenBite Storefront API
//	@version		1.0.0
//	@description	Accounts, catalog, carts and orders for the GreenBite grocery storefront.
//	@description
//	@description				Sessions are HS256 JWTs carried in the "token" cookie or as a bearer token.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/greenbite
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:5000
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	CookieAuth
//	@in							cookie
//	@name						token
//	@description				Session token set by signup and signin.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

func (r *Router) byIP(cfg httpx.RateLimitConfig) httpx.Middleware {
	return httpx.RateLimitByClientIP(cfg, r.Limits.TrustedProxies)
}

func (r *Router) authn() httpx.Middleware {
	return httpx.AuthnMiddleware(sessionAuthenticator{creds: r.CredentialService})
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		CredentialService: r.CredentialService,
		SecureCookies:     r.secureCookies,
	}

	r.Mux.Handle("POST /api/auth/signup", http.HandlerFunc(h.HandleSignup))

	// Credential checks and the reset flow get a strict per-IP budget.
	r.Mux.Handle("POST /api/auth/signin",
		httpx.Chain(http.HandlerFunc(h.HandleSignin),
			r.byIP(r.Limits.Strict),
		),
	)
	r.Mux.Handle("POST /api/auth/forgot-password",
		httpx.Chain(http.HandlerFunc(h.HandleForgotPassword),
			r.byIP(r.Limits.Strict),
		),
	)

	// verify-code is also limited per email so rotating IPs cannot brute
	// force one account's code.
	r.Mux.Handle("POST /api/auth/verify-code",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyCode),
			r.byIP(r.Limits.Strict),
			httpx.RateLimitByJSONField(r.Limits.Strict, "email"),
		),
	)
	r.Mux.Handle("POST /api/auth/reset-password",
		httpx.Chain(http.HandlerFunc(h.HandleResetPassword),
			r.byIP(r.Limits.Strict),
		),
	)

	r.Mux.Handle("GET /api/auth/me", http.HandlerFunc(h.HandleMe))
	r.Mux.Handle("POST /api/auth/signout", http.HandlerFunc(h.HandleSignout))

	img := &ProfileImageHandler{ProfileImageService: r.ProfileImageService}
	r.Mux.Handle("POST /api/auth/me/profile-image",
		httpx.Chain(img, r.authn()),
	)
}

func (r *Router) registerCatalog() {
	h := &CatalogHandler{CatalogService: r.CatalogService}

	manage := func(next http.HandlerFunc) http.Handler {
		return httpx.Chain(next,
			r.authn(),
			requireCapability(domain.CapabilityManageCatalog),
		)
	}

	r.Mux.Handle("GET /api/categories", http.HandlerFunc(h.HandleListCategories))
	r.Mux.Handle("GET /api/categories/{id}", http.HandlerFunc(h.HandleGetCategory))
	r.Mux.Handle("POST /api/categories", manage(h.HandleCreateCategory))

	r.Mux.Handle("GET /api/products", http.HandlerFunc(h.HandleListProducts))
	r.Mux.Handle("GET /api/products/{id}", http.HandlerFunc(h.HandleGetProduct))
	r.Mux.Handle("POST /api/products", manage(h.HandleCreateProduct))

	r.Mux.Handle("GET /api/productdetails/{id}", http.HandlerFunc(h.HandleGetProductDetails))
}

func (r *Router) registerCart() {
	h := &CartHandler{CartService: r.CartService}

	r.Mux.Handle("GET /api/cart/{userId}", httpx.Chain(http.HandlerFunc(h.HandleGetCart), r.authn()))
	r.Mux.Handle("POST /api/cart/add", httpx.Chain(http.HandlerFunc(h.HandleAddItem), r.authn()))
	r.Mux.Handle("PATCH /api/cart/{itemId}", httpx.Chain(http.HandlerFunc(h.HandleUpdateItem), r.authn()))
	r.Mux.Handle("DELETE /api/cart/{itemId}", httpx.Chain(http.HandlerFunc(h.HandleRemoveItem), r.authn()))
}

func (r *Router) registerOrders() {
	h := httpx.Chain(&OrdersHandler{OrderService: r.OrderService}, r.authn())

	r.Mux.Handle("GET /api/orders", h)
	// Older frontends call the doubled path.
	r.Mux.Handle("GET /api/orders/orders", h)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))

	if r.Gatherer != nil {
		r.Mux.Handle("GET /metrics", metrics.Handler(r.Gatherer))
	}
}
