package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/LIN0304/entropy-lottery/internal/services"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

// TokenHandler handles reward token HTTP requests
type TokenHandler struct {
	lotteryService services.LotteryService
}

// NewTokenHandler creates a new TokenHandler
func NewTokenHandler(lotteryService services.LotteryService) *TokenHandler {
	return &TokenHandler{
		lotteryService: lotteryService,
	}
}

func parseTokenID(c *gin.Context) (uint64, bool) {
	tokenID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid token id"})
		return 0, false
	}
	return tokenID, true
}

// GetToken handles GET /tokens/:id
func (h *TokenHandler) GetToken(c *gin.Context) {
	tokenID, ok := parseTokenID(c)
	if !ok {
		return
	}
	token, err := h.lotteryService.GetToken(c.Request.Context(), tokenID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Token not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve token: " + err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, token)
}

// GetMetadata handles GET /tokens/:id/metadata
func (h *TokenHandler) GetMetadata(c *gin.Context) {
	tokenID, ok := parseTokenID(c)
	if !ok {
		return
	}
	metadata, err := h.lotteryService.GetTokenMetadata(c.Request.Context(), tokenID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Token not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render metadata: " + err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, metadata)
}
