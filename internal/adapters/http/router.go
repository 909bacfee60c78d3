package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/biblioteca/internal/adapters/http/handlers"
	"github.com/jsamuelsen/biblioteca/internal/adapters/http/middleware"
	"github.com/jsamuelsen/biblioteca/internal/platform/config"
	"github.com/jsamuelsen/biblioteca/internal/platform/telemetry"
)

// DefaultRequestTimeout bounds API requests.
const DefaultRequestTimeout = 30 * time.Second

// RouterConfig is what SetupRouter wires together.
type RouterConfig struct {
	Logger     *slog.Logger
	AuthConfig *config.AuthConfig
	AppConfig  *config.AppConfig

	HealthHandler *handlers.HealthHandler

	// Feature handlers. A nil handler leaves its routes unregistered.
	QuoteHandler      *handlers.QuoteHandler
	ReadingLogHandler *handlers.ReadingLogHandler
	ReviewHandler     *handlers.ReviewHandler
	WishlistHandler   *handlers.WishlistHandler
	SpendingHandler   *handlers.SpendingHandler
	ProfileHandler    *handlers.ProfileHandler

	// Timeout bounds each /api/v1 request. Zero disables it.
	Timeout time.Duration
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Middleware is applied in the following order (first to last):
//  1. Recovery, so panics anywhere below become 500s
//  2. The request logger, then request and correlation ids added to it
//  3. OpenTelemetry: request span, then metrics and X-Trace-ID
//  4. Request logging (skips /-/ probes)
//  5. Timeout, on the API group only
//
// Route groups:
//   - /-/ (internal): Health endpoints, no auth required
//   - /api/v1/ (public API): Business endpoints, auth as needed
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	// Apply global middleware in order
	engine.Use(
		middleware.Recovery(cfg.Logger),
		middleware.ContextLogger(cfg.Logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
		telemetry.TracingMiddleware(cfg.AppConfig.Name),
		telemetry.Middleware(cfg.AppConfig.Name),
		middleware.Logging(),
	)

	// Register health endpoints (no auth, no timeout for probes)
	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterRoutes(engine)
	}

	// Setup API v1 routes with timeout
	apiV1 := engine.Group("/api/v1")
	if cfg.Timeout > 0 {
		apiV1.Use(middleware.Timeout(cfg.Timeout))
	}

	// Register API routes
	setupAPIRoutes(apiV1, cfg)
}

// setupAPIRoutes registers business API routes. Reads are public; writes
// go through the protected group, which requires an authenticated subject
// when auth is enabled.
func setupAPIRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	protected := rg.Group("")
	if cfg.AuthConfig != nil && cfg.AuthConfig.Enabled {
		protected.Use(middleware.RequireSubject(cfg.AuthConfig))
	}

	if cfg.QuoteHandler != nil {
		cfg.QuoteHandler.RegisterQuoteRoutes(rg, protected)
	}

	if cfg.ReadingLogHandler != nil {
		cfg.ReadingLogHandler.RegisterReadingLogRoutes(rg, protected)
	}

	if cfg.ReviewHandler != nil {
		cfg.ReviewHandler.RegisterReviewRoutes(rg, protected)
	}

	if cfg.WishlistHandler != nil {
		cfg.WishlistHandler.RegisterWishlistRoutes(rg, protected)
	}

	if cfg.SpendingHandler != nil {
		cfg.SpendingHandler.RegisterSpendingRoutes(rg, protected)
	}

	if cfg.ProfileHandler != nil {
		cfg.ProfileHandler.RegisterProfileRoutes(rg, protected)
	}
}
