package handlers

import (
	"net/http"
	"strconv"

	"github.com/LIN0304/entropy-lottery/internal/services"
	"github.com/gin-gonic/gin"
)

// WinnerHandler handles winner record HTTP requests
type WinnerHandler struct {
	lotteryService services.LotteryService
}

// NewWinnerHandler creates a new WinnerHandler
func NewWinnerHandler(lotteryService services.LotteryService) *WinnerHandler {
	return &WinnerHandler{
		lotteryService: lotteryService,
	}
}

func paginationParams(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// GetWinners handles GET /winners with optional ?tier= filter
func (h *WinnerHandler) GetWinners(c *gin.Context) {
	page, limit := paginationParams(c)
	records, err := h.lotteryService.GetWinners(c.Request.Context(), c.Query("tier"), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve winners: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}
