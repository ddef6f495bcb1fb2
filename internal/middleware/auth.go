package middleware

import (
	"net/http"
	"strings"

	"crowdmint-backend/internal/dto"
	"crowdmint-backend/internal/handlers"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AuthMiddleware JWT verification for requesters and workers
type AuthMiddleware struct {
	secret []byte
	logger *logrus.Logger
}

// NewAuthMiddleware create JWT middleware
func NewAuthMiddleware(secret string, logger *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		secret: []byte(secret),
		logger: logger,
	}
}

// bearerToken writes the 401 itself and returns ok=false when the header is unusable
func bearerToken(c *gin.Context, logger *logrus.Logger) (string, bool) {
	fields := logrus.Fields{
		"path":   c.Request.URL.Path,
		"method": c.Request.Method,
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		logger.WithFields(fields).Warn("JWT failed - missing Authorization header")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "Authentication required",
			"message": "Missing Authorization header. Please provide a valid JWT token.",
			"code":    "MISSING_AUTH_HEADER",
		})
		return "", false
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		logger.WithFields(fields).Warn("JWT failed - invalid Authorization format")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "Invalid authorization format",
			"message": "Authorization header must be in format: Bearer <token>",
			"code":    "INVALID_AUTH_FORMAT",
		})
		return "", false
	}

	tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if tokenString == "" {
		logger.WithFields(fields).Warn("JWT failed - empty token")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "Empty token",
			"message": "Token cannot be empty",
			"code":    "EMPTY_TOKEN",
		})
		return "", false
	}
	return tokenString, true
}

// RequireRole accepts tokens whose role matches. The subject id is stored
// under user_id for requesters and worker_id for workers.
func (a *AuthMiddleware) RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c, a.logger)
		if !ok {
			return
		}

		claims, err := handlers.ValidateJWTToken(a.secret, tokenString)
		if err != nil {
			a.logger.WithFields(logrus.Fields{
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
				"error":  err.Error(),
			}).Warn("JWT failed - token verification failed")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Invalid or expired token",
				"message": err.Error(),
				"code":    "INVALID_TOKEN",
			})
			return
		}

		if claims.Role != role {
			a.logger.WithFields(logrus.Fields{
				"path":     c.Request.URL.Path,
				"method":   c.Request.Method,
				"role":     claims.Role,
				"required": role,
			}).Warn("JWT failed - wrong role")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "Insufficient permissions",
				"code":    "INSUFFICIENT_PERMISSIONS",
			})
			return
		}

		switch role {
		case dto.RoleWorker:
			c.Set(handlers.ContextWorkerID, claims.UserID)
		default:
			c.Set(handlers.ContextUserID, claims.UserID)
		}

		a.logger.WithFields(logrus.Fields{
			"path":    c.Request.URL.Path,
			"method":  c.Request.Method,
			"subject": claims.UserID,
			"role":    claims.Role,
		}).Debug("JWT success")

		c.Next()
	}
}
