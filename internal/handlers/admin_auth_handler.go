package handlers

import (
	"net/http"
	"time"

	"crowdmint-backend/internal/config"
	"crowdmint-backend/internal/dto"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// adminTokenTTL admin sessions expire after a day
const adminTokenTTL = 24 * time.Hour

// AdminAuthHandler admin login with bcrypt password and TOTP
type AdminAuthHandler struct {
	cfg    config.AdminConfig
	logger *logrus.Logger
}

// NewAdminAuthHandler creates a new AdminAuthHandler
func NewAdminAuthHandler(cfg config.AdminConfig, logger *logrus.Logger) *AdminAuthHandler {
	if cfg.TOTPSecret == "" || cfg.PasswordHash == "" || cfg.JWTSecret == "" {
		logger.Warn("⚠️ Admin credentials are not fully configured, admin login is disabled")
	}
	return &AdminAuthHandler{cfg: cfg, logger: logger}
}

// AdminLoginHandler exchanges username, password and TOTP code for an admin token
// POST /api/admin/login
func (h *AdminAuthHandler) AdminLoginHandler(c *gin.Context) {
	if h.cfg.TOTPSecret == "" || h.cfg.PasswordHash == "" || h.cfg.JWTSecret == "" {
		c.JSON(http.StatusInternalServerError, dto.AdminLoginResponse{
			Success: false,
			Message: "Server misconfiguration: admin credentials not set",
		})
		return
	}

	var req dto.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.AdminLoginResponse{
			Success: false,
			Message: "Invalid request: " + err.Error(),
		})
		return
	}

	// Same message for unknown user and wrong password
	if req.Username != h.cfg.Username ||
		bcrypt.CompareHashAndPassword([]byte(h.cfg.PasswordHash), []byte(req.Password)) != nil {
		h.logger.WithField("ip", c.ClientIP()).Warn("🚫 Admin login rejected: invalid credentials")
		c.JSON(http.StatusUnauthorized, dto.AdminLoginResponse{
			Success: false,
			Message: "Invalid credentials",
		})
		return
	}

	if !totp.Validate(req.TOTPCode, h.cfg.TOTPSecret) {
		h.logger.WithField("ip", c.ClientIP()).Warn("🚫 Admin login rejected: invalid TOTP code")
		c.JSON(http.StatusUnauthorized, dto.AdminLoginResponse{
			Success: false,
			Message: "Invalid TOTP code",
		})
		return
	}

	token, err := GenerateAdminJWTToken([]byte(h.cfg.JWTSecret), req.Username, adminTokenTTL)
	if err != nil {
		h.logger.WithError(err).Error("❌ Failed to generate admin token")
		c.JSON(http.StatusInternalServerError, dto.AdminLoginResponse{
			Success: false,
			Message: "Failed to generate token",
		})
		return
	}

	h.logger.WithField("username", req.Username).Info("✅ Admin logged in")
	c.JSON(http.StatusOK, dto.AdminLoginResponse{
		Success: true,
		Token:   token,
		Message: "Login successful",
	})
}
