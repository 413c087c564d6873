package handlers

import (
	"errors"
	"net/http"

	"github.com/LIN0304/entropy-lottery/internal/services"
	"github.com/gin-gonic/gin"
)

// AdminHandler handles owner-only HTTP requests
type AdminHandler struct {
	lotteryService services.LotteryService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(lotteryService services.LotteryService) *AdminHandler {
	return &AdminHandler{
		lotteryService: lotteryService,
	}
}

// TriggerDraw handles POST /admin/pools/:tier/trigger
func (h *AdminHandler) TriggerDraw(c *gin.Context) {
	tier, ok := parseTierParam(c)
	if !ok {
		return
	}
	requestID, err := h.lotteryService.ManualTrigger(c.Request.Context(), tier)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBelowQuorum):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrDrawInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to trigger draw: " + err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Draw initiated", "request_id": requestID})
}

// SetPoolActiveRequest is the body for PUT /admin/pools/:tier/active
type SetPoolActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SetPoolActive handles PUT /admin/pools/:tier/active
func (h *AdminHandler) SetPoolActive(c *gin.Context) {
	tier, ok := parseTierParam(c)
	if !ok {
		return
	}
	var request SetPoolActiveRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pool, err := h.lotteryService.SetPoolActive(c.Request.Context(), tier, *request.Active)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update pool: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, pool)
}

// EmergencyWithdraw handles POST /admin/emergency-withdraw
func (h *AdminHandler) EmergencyWithdraw(c *gin.Context) {
	amount, err := h.lotteryService.EmergencyWithdraw(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Emergency withdraw failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawn": amount.String()})
}

// GetBalance handles GET /admin/balance
func (h *AdminHandler) GetBalance(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"held": h.lotteryService.HeldBalance().String()})
}
