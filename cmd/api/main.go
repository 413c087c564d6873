package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LIN0304/entropy-lottery/api/routes"
	"github.com/LIN0304/entropy-lottery/internal/config"
	"github.com/LIN0304/entropy-lottery/internal/handlers"
	"github.com/LIN0304/entropy-lottery/internal/services"
	mongorepo "github.com/LIN0304/entropy-lottery/internal/repositories/mongodb"
	"github.com/LIN0304/entropy-lottery/pkg/entropy"
	"github.com/LIN0304/entropy-lottery/pkg/mongodb"
	"github.com/LIN0304/entropy-lottery/pkg/treasury"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env if present; real deployments set environment variables directly
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	gin.SetMode(config.GetEnv("GIN_MODE", gin.ReleaseMode))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	mongoClient, err := mongodb.NewClient(cfg.MongoDB.URI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}()

	db := mongoClient.Database(cfg.MongoDB.Database)

	// Repositories
	poolRepo := mongorepo.NewPoolSnapshotRepository(db)
	winnerRepo := mongorepo.NewWinnerRepository(db)
	tokenRepo := mongorepo.NewRewardTokenRepository(db)
	referralRepo := mongorepo.NewReferralRepository(db)
	eventRepo := mongorepo.NewEventRepository(db)
	adminRepo := mongorepo.NewAdminUserRepository(db)

	// External gateways. Both default to their mock implementations so the
	// service runs end to end without live oracle or treasury endpoints.
	oracle := entropy.NewClient(cfg.Entropy.BaseURL, cfg.Entropy.APIKey, cfg.Entropy.MockAPI)
	var gateway treasury.Gateway
	if cfg.Treasury.MockGateway {
		gateway = treasury.NewMockGateway()
	} else {
		gateway = treasury.NewHTTPGateway(cfg.Treasury.BaseURL, cfg.Treasury.APIKey)
	}

	// Core lottery components
	registry, err := services.NewPoolRegistry(&cfg.Lottery)
	if err != nil {
		log.Fatalf("Invalid tier configuration: %v", err)
	}
	provider := common.HexToAddress(cfg.Entropy.Provider)
	draws := services.NewDrawCoordinator(registry, oracle, provider)
	settlement := services.NewSettlementExecutor(gateway, winnerRepo, tokenRepo, cfg.Lottery.FeeBps)
	referrals := services.NewReferralLedger()

	lotteryService := services.NewLotteryService(
		registry, draws, settlement, referrals, gateway,
		poolRepo, referralRepo, winnerRepo, tokenRepo, eventRepo,
		common.HexToAddress(cfg.Lottery.Owner),
		cfg.Lottery.FeeBps, cfg.Lottery.ReferralBps,
	)
	authService := services.NewAuthService(adminRepo, cfg)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	if err := lotteryService.Restore(startupCtx); err != nil {
		log.Fatalf("Failed to restore lottery state: %v", err)
	}
	if err := authService.EnsureBootstrapAdmin(startupCtx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		log.Fatalf("Failed to bootstrap admin account: %v", err)
	}

	handlerDeps := routes.HandlerDependencies{
		AuthHandler:     handlers.NewAuthHandler(authService),
		PoolHandler:     handlers.NewPoolHandler(lotteryService),
		EntropyHandler:  handlers.NewEntropyHandler(lotteryService, cfg.Entropy.CallbackToken),
		ReferralHandler: handlers.NewReferralHandler(lotteryService),
		TokenHandler:    handlers.NewTokenHandler(lotteryService),
		WinnerHandler:   handlers.NewWinnerHandler(lotteryService),
		AdminHandler:    handlers.NewAdminHandler(lotteryService),
	}

	router := routes.SetupRouter(cfg, handlerDeps)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	log.Printf("Server starting on port %s", cfg.Server.Port)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	log.Println("Server exiting")
}
