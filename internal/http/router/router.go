// Package router assembles the Gin engine from the application's modules.
package router

import (
	"context"
	"net/http"
	"time"

	apphttp "avfall_backend/internal/http"
	"avfall_backend/platform/httpkit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const healthTimeout = 2 * time.Second

// New builds the engine, installs the shared middleware and lets every
// module mount its routes.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.NoMethod(httpkit.MethodNotAllowed())

	engine.Use(httpkit.Recovery(app.Logger))
	engine.Use(httpkit.RequestID())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(cors.New(corsConfig(app.Config)))

	engine.GET("/api/health", health(app.Health))

	authMiddleware := httpkit.AuthRequired(app.Config)
	limiter := httpkit.NewIPRateLimiter(rate.Limit(app.Config.GetPublicRateLimit()), app.Config.GetPublicRateBurst(), app.Logger)

	public := engine.Group("/api")
	v1 := engine.Group("/api/v1")
	protected := v1.Group("")
	protected.Use(authMiddleware)
	admin := protected.Group("/admin")
	admin.Use(httpkit.RequireRole(app.Roles, app.Config.GetAdminRole()))

	ctx := &apphttp.RouterContext{
		Engine:          engine,
		Public:          public,
		V1:              v1,
		Protected:       protected,
		Admin:           admin,
		Config:          app.Config,
		AuthMiddleware:  authMiddleware,
		PublicRateLimit: limiter.RateLimit(),
	}

	for _, module := range app.Modules {
		module.RegisterRoutes(ctx)
		app.Logger.Debug("module routes registered", "module", module.Name())
	}

	return engine
}

func corsConfig(cfg apphttp.RouterConfig) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: !cfg.GetCORSAllowAll(),
		MaxAge:           12 * time.Hour,
	}
	if cfg.GetCORSAllowAll() {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.GetCORSOrigins()
	}
	return corsCfg
}

func health(checker apphttp.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if checker != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
			defer cancel()
			if err := checker.Ping(ctx); err != nil {
				httpkit.Error(c, http.StatusServiceUnavailable, "database unavailable", nil)
				return
			}
		}
		httpkit.JSON(c, http.StatusOK, gin.H{"ok": true, "status": "ok"})
	}
}
