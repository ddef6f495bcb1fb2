// Admin Payout Handlers - operator facing (admin token, allowed IPs only)
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"crowdmint-backend/internal/dto"
	"crowdmint-backend/internal/models"
	"crowdmint-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	defaultPayoutListLimit = 100
	maxPayoutListLimit     = 500
)

// PayoutAdminAPI operator operations on payouts
type PayoutAdminAPI interface {
	ListPayouts(ctx context.Context, status models.PayoutStatus, limit int) ([]*models.Payout, error)
	SettlePayout(ctx context.Context, payoutID string, status models.PayoutStatus, signature string) (*models.Payout, error)
	RedispatchPayouts(ctx context.Context) (*services.RedispatchReport, error)
}

// AdminPayoutHandler handles admin payout routes
type AdminPayoutHandler struct {
	api    PayoutAdminAPI
	logger *logrus.Logger
}

// NewAdminPayoutHandler creates a new AdminPayoutHandler
func NewAdminPayoutHandler(api PayoutAdminAPI, logger *logrus.Logger) *AdminPayoutHandler {
	return &AdminPayoutHandler{api: api, logger: logger}
}

// ListPayoutsHandler payouts by status, PROCESSING when omitted
// GET /api/admin/payouts?status=&limit=
func (h *AdminPayoutHandler) ListPayoutsHandler(c *gin.Context) {
	status := models.PayoutStatus(strings.ToUpper(strings.TrimSpace(c.Query("status"))))
	switch status {
	case "", models.PayoutStatusProcessing, models.PayoutStatusSuccess, models.PayoutStatusFailed:
	default:
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Success: false, Error: "Invalid status", Code: "INVALID_REQUEST"})
		return
	}

	limit := defaultPayoutListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Success: false, Error: "Invalid limit", Code: "INVALID_REQUEST"})
			return
		}
		if n > maxPayoutListLimit {
			n = maxPayoutListLimit
		}
		limit = n
	}

	payouts, err := h.api.ListPayouts(c.Request.Context(), status, limit)
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payouts": toPayoutHistory(payouts),
		"count":   len(payouts),
	})
}

// SettlePayoutHandler manual settlement when the disbursement worker cannot report back
// POST /api/admin/payouts/:id/settle
func (h *AdminPayoutHandler) SettlePayoutHandler(c *gin.Context) {
	var req dto.SettlePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	payout, err := h.api.SettlePayout(c.Request.Context(), c.Param("id"), models.PayoutStatus(req.Status), req.Signature)
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"payout_id": payout.ID,
		"status":    payout.Status,
		"admin":     c.GetString(ContextAdminUsername),
	}).Info("🛠️ Payout settled by admin")
	c.JSON(http.StatusOK, gin.H{"payout": toPayoutHistoryResponse(payout)})
}

// RedispatchHandler runs the redispatch sweep immediately
// POST /api/admin/payouts/redispatch
func (h *AdminPayoutHandler) RedispatchHandler(c *gin.Context) {
	report, err := h.api.RedispatchPayouts(c.Request.Context())
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.RedispatchResponse{
		Scanned:    report.Scanned,
		Dispatched: report.Dispatched,
		Failed:     report.Failed,
	})
}
