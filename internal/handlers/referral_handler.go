package handlers

import (
	"errors"
	"net/http"

	"github.com/LIN0304/entropy-lottery/internal/services"
	"github.com/gin-gonic/gin"
)

// ReferralHandler handles referral ledger HTTP requests
type ReferralHandler struct {
	lotteryService services.LotteryService
}

// NewReferralHandler creates a new ReferralHandler
func NewReferralHandler(lotteryService services.LotteryService) *ReferralHandler {
	return &ReferralHandler{
		lotteryService: lotteryService,
	}
}

// ClaimRequest is the body for POST /referrals/claim
type ClaimRequest struct {
	Address string `json:"address" binding:"required"`
}

// Claim handles POST /referrals/claim
func (h *ReferralHandler) Claim(c *gin.Context) {
	var request ClaimRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	caller, ok := parseAddress(c, "claimer", request.Address)
	if !ok {
		return
	}

	amount, err := h.lotteryService.ClaimReferral(c.Request.Context(), caller)
	if err != nil {
		if errors.Is(err, services.ErrNoRewards) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to claim rewards: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"claimed": amount.String()})
}

// GetAccount handles GET /referrals/:address
func (h *ReferralHandler) GetAccount(c *gin.Context) {
	address, ok := parseAddress(c, "referrer", c.Param("address"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.lotteryService.GetReferralAccount(address))
}
