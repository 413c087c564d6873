package handlers

import (
	"errors"
	"math/big"
	"net/http"

	"github.com/LIN0304/entropy-lottery/internal/models"
	"github.com/LIN0304/entropy-lottery/internal/services"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// PoolHandler handles pool-related HTTP requests
type PoolHandler struct {
	lotteryService services.LotteryService
}

// NewPoolHandler creates a new PoolHandler
func NewPoolHandler(lotteryService services.LotteryService) *PoolHandler {
	return &PoolHandler{
		lotteryService: lotteryService,
	}
}

func parseTierParam(c *gin.Context) (models.Tier, bool) {
	tier, err := models.ParseTier(c.Param("tier"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tier (bronze, silver or gold)"})
		return 0, false
	}
	return tier, true
}

func parseAddress(c *gin.Context, field, value string) (common.Address, bool) {
	if !common.IsHexAddress(value) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + field + " address"})
		return common.Address{}, false
	}
	return common.HexToAddress(value), true
}

// EnterRequest is the body for POST /pools/:tier/enter
type EnterRequest struct {
	Entrant    string `json:"entrant" binding:"required"`
	Referrer   string `json:"referrer"`
	PaidAmount string `json:"paid_amount" binding:"required"`
}

// Enter handles POST /pools/:tier/enter
func (h *PoolHandler) Enter(c *gin.Context) {
	tier, ok := parseTierParam(c)
	if !ok {
		return
	}

	var request EnterRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entrant, ok := parseAddress(c, "entrant", request.Entrant)
	if !ok {
		return
	}
	var referrer *common.Address
	if request.Referrer != "" {
		addr, ok := parseAddress(c, "referrer", request.Referrer)
		if !ok {
			return
		}
		referrer = &addr
	}

	paidAmount, ok := new(big.Int).SetString(request.PaidAmount, 10)
	if !ok || paidAmount.Sign() <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid paid_amount"})
		return
	}

	pool, err := h.lotteryService.Enter(c.Request.Context(), tier, entrant, referrer, paidAmount)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrWrongFee):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrPoolInactive),
			errors.Is(err, services.ErrPoolFull),
			errors.Is(err, services.ErrAlreadyEntered):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enter pool: " + err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, pool)
}

// GetPools handles GET /pools
func (h *PoolHandler) GetPools(c *gin.Context) {
	pools := h.lotteryService.GetPools()
	c.JSON(http.StatusOK, pools)
}

// GetPool handles GET /pools/:tier
func (h *PoolHandler) GetPool(c *gin.Context) {
	tier, ok := parseTierParam(c)
	if !ok {
		return
	}
	pool, err := h.lotteryService.GetPool(tier)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pool": pool, "status": pool.Status()})
}
