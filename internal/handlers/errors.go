package handlers

import (
	"errors"
	"net/http"

	"crowdmint-backend/internal/dto"
	"crowdmint-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// statusLengthRequired escrow rejections keep the status clients already expect
const statusLengthRequired = http.StatusLengthRequired

var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{services.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
	{services.ErrInvalidOption, http.StatusBadRequest, "INVALID_OPTION"},
	{services.ErrNothingToPayout, http.StatusBadRequest, "NOTHING_TO_PAYOUT"},
	{services.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
	{services.ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
	{services.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{services.ErrNoTaskAvailable, http.StatusNotFound, "NO_TASK_AVAILABLE"},
	{services.ErrAlreadySubmitted, http.StatusConflict, "ALREADY_SUBMITTED"},
	{services.ErrTaskMismatch, http.StatusConflict, "TASK_MISMATCH"},
	{services.ErrTaskClosed, http.StatusConflict, "TASK_CLOSED"},
	{services.ErrPayoutAlreadySettled, http.StatusConflict, "PAYOUT_ALREADY_SETTLED"},
	{services.ErrEscrowInvalid, statusLengthRequired, "ESCROW_INVALID"},
}

// writeServiceError maps service errors to HTTP responses in one place.
// Unknown errors are logged and reported as 500 without details.
func writeServiceError(c *gin.Context, logger *logrus.Logger, err error) {
	for _, entry := range errorStatus {
		if !errors.Is(err, entry.err) {
			continue
		}
		resp := dto.ErrorResponse{Success: false, Error: err.Error(), Code: entry.code}
		var escrowErr *services.EscrowError
		if errors.As(err, &escrowErr) {
			resp.Reason = string(escrowErr.Reason)
		}
		c.JSON(entry.status, resp)
		return
	}

	logger.WithFields(logrus.Fields{
		"path":   c.Request.URL.Path,
		"method": c.Request.Method,
	}).WithError(err).Error("❌ Request failed")
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
		Success: false,
		Error:   "Internal server error",
		Code:    "INTERNAL_ERROR",
	})
}

// writeBindError 400 for a request body or query that failed binding
func writeBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Success: false,
		Error:   "Invalid request: " + err.Error(),
		Code:    "INVALID_REQUEST",
	})
}
