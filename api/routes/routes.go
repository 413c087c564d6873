package routes

import (
	"github.com/LIN0304/entropy-lottery/internal/config"
	"github.com/LIN0304/entropy-lottery/internal/handlers"
	"github.com/LIN0304/entropy-lottery/internal/middleware"
	"github.com/gin-gonic/gin"
)

// HandlerDependencies bundles the handlers the router wires up
type HandlerDependencies struct {
	AuthHandler     *handlers.AuthHandler
	PoolHandler     *handlers.PoolHandler
	EntropyHandler  *handlers.EntropyHandler
	ReferralHandler *handlers.ReferralHandler
	TokenHandler    *handlers.TokenHandler
	WinnerHandler   *handlers.WinnerHandler
	AdminHandler    *handlers.AdminHandler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, deps HandlerDependencies) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware())

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
			})
		})

		public.POST("/auth/login", deps.AuthHandler.Login)

		// Oracle delivery callback; authenticated by the shared callback
		// token inside the handler, not by JWT.
		public.POST("/entropy/callback", deps.EntropyHandler.Callback)

		pools := public.Group("/pools")
		{
			pools.GET("", deps.PoolHandler.GetPools)
			pools.GET("/:tier", deps.PoolHandler.GetPool)
			pools.POST("/:tier/enter", deps.PoolHandler.Enter)
		}

		referrals := public.Group("/referrals")
		{
			referrals.GET("/:address", deps.ReferralHandler.GetAccount)
			referrals.POST("/claim", deps.ReferralHandler.Claim)
		}

		tokens := public.Group("/tokens")
		{
			tokens.GET("/:id", deps.TokenHandler.GetToken)
			tokens.GET("/:id/metadata", deps.TokenHandler.GetMetadata)
		}

		public.GET("/winners", deps.WinnerHandler.GetWinners)
	}

	// Protected owner/operator routes
	admin := router.Group("/api/v1/admin")
	admin.Use(middleware.JWTAuthMiddleware(cfg))
	{
		admin.POST("/pools/:tier/trigger", deps.AdminHandler.TriggerDraw)
		admin.PUT("/pools/:tier/active", deps.AdminHandler.SetPoolActive)
		admin.POST("/emergency-withdraw", deps.AdminHandler.EmergencyWithdraw)
		admin.GET("/balance", deps.AdminHandler.GetBalance)
	}

	return router
}
