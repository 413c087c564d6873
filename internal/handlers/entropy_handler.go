package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/LIN0304/entropy-lottery/internal/services"
	"github.com/LIN0304/entropy-lottery/pkg/entropy"
	"github.com/gin-gonic/gin"
)

// EntropyHandler handles the oracle's randomness delivery callback
type EntropyHandler struct {
	lotteryService services.LotteryService
	callbackToken  string
}

// NewEntropyHandler creates a new EntropyHandler
func NewEntropyHandler(lotteryService services.LotteryService, callbackToken string) *EntropyHandler {
	return &EntropyHandler{
		lotteryService: lotteryService,
		callbackToken:  callbackToken,
	}
}

// Callback handles POST /entropy/callback. The oracle authenticates with the
// shared callback token; anything else is an unauthorized caller and changes
// no state.
func (h *EntropyHandler) Callback(c *gin.Context) {
	token := c.GetHeader("X-Entropy-Token")
	if h.callbackToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.callbackToken)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": services.ErrUnauthorizedCaller.Error()})
		return
	}

	var delivery entropy.Delivery
	if err := c.ShouldBindJSON(&delivery); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.lotteryService.HandleRandomness(c.Request.Context(), delivery.RequestID, delivery.Provider, delivery.RandomValue)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnauthorizedCaller):
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrUnknownRequest):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to settle draw: " + err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Draw settled successfully", "winner": record})
}
