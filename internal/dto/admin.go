package dto

// ==================== Admin DTOs ====================

// SettlePayoutRequest POST /api/admin/payouts/:id/settle
type SettlePayoutRequest struct {
	Status    string `json:"status" binding:"required,oneof=SUCCESS FAILED"`
	Signature string `json:"signature" binding:"omitempty,base58sig"`
}

// RedispatchResponse POST /api/admin/payouts/redispatch
type RedispatchResponse struct {
	Scanned    int `json:"scanned"`
	Dispatched int `json:"dispatched"`
	Failed     int `json:"failed"`
}

// ErrorResponse error body shared by every route
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Reason  string `json:"reason,omitempty"` // escrow rejection reason
}
