package router

import (
	"net/http"
	"strconv"
	"strings"

	"crowdmint-backend/internal/config"
	"crowdmint-backend/internal/handlers"
	"crowdmint-backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Dependencies everything the routes need
type Dependencies struct {
	Config        *config.Config
	Logger        *logrus.Logger
	Tasks         handlers.TaskAPI
	Workers       handlers.WorkerAPI
	PayoutAdmin   handlers.PayoutAdminAPI
	HealthHandler *handlers.HealthHandler
}

// corsMiddleware CORS middleware. An empty origin list allows all origins.
func corsMiddleware(cfg config.CORSConfig, logger *logrus.Logger) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowAll := len(allowedOrigins) == 1 && allowedOrigins[0] == "*"
	maxAge := strconv.Itoa(cfg.MaxAge)

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		if allowAll {
			c.Header("Access-Control-Allow-Origin", "*")
		} else if origin != "" {
			allowed := false
			for _, allowedOrigin := range allowedOrigins {
				if strings.TrimSpace(allowedOrigin) == origin {
					allowed = true
					break
				}
			}
			if allowed {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			} else {
				logger.WithFields(logrus.Fields{
					"request_origin":  origin,
					"allowed_origins": allowedOrigins,
					"path":            c.Request.URL.Path,
					"method":          c.Request.Method,
					"remote_addr":     c.ClientIP(),
				}).Warn("🚫 CORS: Request blocked - Origin not in whitelist")
			}
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, Cache-Control, Accept")
		if cfg.AllowCredentials && !allowAll {
			c.Header("Access-Control-Allow-Credentials", "true")
		}
		c.Header("Access-Control-Max-Age", maxAge)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Header("Access-Control-Expose-Headers", "Content-Length, Content-Type")
		c.Next()
	}
}

// SetupRouter builds the gin engine with every route
func SetupRouter(deps Dependencies) *gin.Engine {
	handlers.RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.HTTPMetrics())
	r.Use(corsMiddleware(deps.Config.CORS, deps.Logger))

	if len(deps.Config.Admin.AllowedIPs) > 0 {
		deps.Logger.WithFields(logrus.Fields{
			"allowed_ips": deps.Config.Admin.AllowedIPs,
			"count":       len(deps.Config.Admin.AllowedIPs),
		}).Info("Admin API IP whitelist configured")
	} else {
		deps.Logger.Info("No admin.allowedIPs configured, using localhost-only mode")
	}
	localhostOnly := middleware.NewLocalhostOnly(deps.Logger, deps.Config.Admin.AllowedIPs)

	// ============ Check ============
	r.GET("/ping", handlers.PingHandler)

	// ============ Health Check ============
	// Support both /health and /api/health for compatibility
	r.GET("/health", deps.HealthHandler.HealthCheckHandler)

	// ============ Prometheus Metrics ============
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ============ API Routes ============
	SetupAPIRoutes(r, deps, localhostOnly)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"message":    "API endpoint not found",
			"path":       c.Request.URL.Path,
			"suggestion": "Check documentation for available /api endpoints",
		})
	})

	return r
}
