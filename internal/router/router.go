package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"siwf/internal/handler"
	"siwf/internal/middleware"
	"siwf/internal/platform/ratelimiter"
	"siwf/internal/service"
)

// Deps are the collaborators the route table needs.
type Deps struct {
	Logger         *slog.Logger
	SessionService service.SessionService
	CookieName     string
	AllowedOrigins []string
	TrustedProxies []string
	Limiter        *ratelimiter.KeyedLimiter
	SIWF           *handler.SIWFHandler
	Health         *handler.HealthHandler
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(d Deps) *gin.Engine {
	r := gin.New()
	// Client IPs key the rate limiter and are stored on sessions, so
	// forwarding headers are only honoured from configured proxies.
	if err := r.SetTrustedProxies(d.TrustedProxies); err != nil {
		d.Logger.Error("invalid trusted proxies, trusting none", "error", err)
		_ = r.SetTrustedProxies(nil)
	}

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.CORS(d.AllowedOrigins))

	// Health checks and metrics
	r.GET("/healthz", d.Health.Liveness)
	r.GET("/readyz", d.Health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	siwf := r.Group("/siwf")

	// Public sign-in routes
	public := siwf.Group("")
	public.Use(middleware.RateLimit(d.Limiter))
	public.POST("/nonce", d.SIWF.Nonce)
	public.POST("/verify", d.SIWF.Verify)

	// Session routes
	authed := siwf.Group("")
	authed.Use(middleware.SessionAuth(d.SessionService, d.CookieName))
	authed.GET("/session", d.SIWF.Session)
	authed.GET("/wallets", d.SIWF.Wallets)
	authed.POST("/sign-out", d.SIWF.SignOut)

	return r
}
